package main

import (
	"github.com/joho/godotenv"

	"hrportal/internal/app/server"
)

func main() {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()
	server.Run()
}
