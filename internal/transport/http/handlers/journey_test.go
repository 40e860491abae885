package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hrportal/internal/app/server"
	"hrportal/internal/domain/auth"
	"hrportal/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		DataEncryptionKey:  "0123456789abcdef0123456789abcdef",
		FrontendDir:        "frontend/dist",
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		SeedCriteria:       true,
		EmailFrom:          "no-reply@test.local",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func TestEvaluationWorkflowJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	employeeUser := createUser(t, app, auth.RoleEmployee, fmt.Sprintf("emp-%d@example.com", suffix))
	evaluatorUser := createUser(t, app, auth.RoleEvaluator, fmt.Sprintf("eval-%d@example.com", suffix))
	approverUser := createUser(t, app, auth.RoleApprover, fmt.Sprintf("appr-%d@example.com", suffix))

	evaluatorEmpID := createEmployee(t, client, ts.URL, adminToken, evaluatorUser, "Valerie", "Evaluator")
	approverEmpID := createEmployee(t, client, ts.URL, adminToken, approverUser, "Alain", "Approver")
	createEmployee(t, client, ts.URL, adminToken, employeeUser, "Emile", "Employee")

	missionID := createMission(t, client, ts.URL, adminToken)

	employeeToken := login(t, client, ts.URL, employeeUser.email, userPassword)
	evaluationID := createEvaluation(t, client, ts.URL, employeeToken)

	answers := buildAnswers(t, client, ts.URL, employeeToken)

	// Draft save must not advance the status.
	putJSON(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/draft", ts.URL, evaluationID), employeeToken, map[string]any{
		"actor":     "employee",
		"responses": answers[:1],
	})

	selfPayload := map[string]any{
		"evaluatorId": evaluatorEmpID,
		"approverId":  approverEmpID,
		"missionId":   missionID,
		"responses":   answers,
	}
	status := submit(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/submit-self", ts.URL, evaluationID), employeeToken, "journey-self-1", selfPayload)
	if status != "evaluator_pending" {
		t.Fatalf("expected evaluator_pending after self submit, got %s", status)
	}

	// Retrying with the same Idempotency-Key replays the stored answer instead
	// of tripping the status guard.
	status = submit(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/submit-self", ts.URL, evaluationID), employeeToken, "journey-self-1", selfPayload)
	if status != "evaluator_pending" {
		t.Fatalf("expected idempotent replay to return evaluator_pending, got %s", status)
	}

	// Without the key the duplicate submit is an invalid state.
	postJSONStatus(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/submit-self", ts.URL, evaluationID), employeeToken, selfPayload, http.StatusConflict)

	evaluatorToken := login(t, client, ts.URL, evaluatorUser.email, userPassword)
	assigned := listEvaluations(t, client, ts.URL, evaluatorToken)
	if !containsEvaluation(assigned, evaluationID) {
		t.Fatalf("expected evaluation %d in evaluator listing", evaluationID)
	}

	status = submit(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/submit-evaluator", ts.URL, evaluationID), evaluatorToken, "", map[string]any{
		"responses": answers,
	})
	if status != "approver_pending" {
		t.Fatalf("expected approver_pending after evaluator submit, got %s", status)
	}

	unread := unreadCount(t, client, ts.URL, evaluatorToken)
	if unread == 0 {
		t.Fatal("expected evaluator to have an unread notification")
	}

	approverToken := login(t, client, ts.URL, approverUser.email, userPassword)
	status = submit(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/decide", ts.URL, evaluationID), approverToken, "", map[string]any{
		"approved": true,
	})
	if status != "completed" {
		t.Fatalf("expected completed after approval, got %s", status)
	}

	// A second decision matches no pending row.
	postJSONStatus(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/decide", ts.URL, evaluationID), approverToken, map[string]any{
		"approved": false,
		"reason":   "changed my mind entirely",
	}, http.StatusConflict)

	final := getEvaluation(t, client, ts.URL, employeeToken, evaluationID)
	if final["status"] != "completed" {
		t.Fatalf("expected stored status completed, got %v", final["status"])
	}
}

func TestEvaluatorRefusalNeedsReason(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	employeeUser := createUser(t, app, auth.RoleEmployee, fmt.Sprintf("emp-r-%d@example.com", suffix))
	evaluatorUser := createUser(t, app, auth.RoleEvaluator, fmt.Sprintf("eval-r-%d@example.com", suffix))
	approverUser := createUser(t, app, auth.RoleApprover, fmt.Sprintf("appr-r-%d@example.com", suffix))

	evaluatorEmpID := createEmployee(t, client, ts.URL, adminToken, evaluatorUser, "Vera", "Refuser")
	approverEmpID := createEmployee(t, client, ts.URL, adminToken, approverUser, "Axel", "Absent")
	createEmployee(t, client, ts.URL, adminToken, employeeUser, "Eva", "Earnest")
	missionID := createMission(t, client, ts.URL, adminToken)

	employeeToken := login(t, client, ts.URL, employeeUser.email, userPassword)
	evaluationID := createEvaluation(t, client, ts.URL, employeeToken)
	answers := buildAnswers(t, client, ts.URL, employeeToken)

	submit(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/submit-self", ts.URL, evaluationID), employeeToken, "", map[string]any{
		"evaluatorId": evaluatorEmpID,
		"approverId":  approverEmpID,
		"missionId":   missionID,
		"responses":   answers,
	})

	evaluatorToken := login(t, client, ts.URL, evaluatorUser.email, userPassword)

	postJSONStatus(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/refuse", ts.URL, evaluationID), evaluatorToken, map[string]any{
		"reason": "short",
	}, http.StatusBadRequest)

	status := submit(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d/refuse", ts.URL, evaluationID), evaluatorToken, "", map[string]any{
		"reason": "I never worked with this consultant",
	})
	if status != "refused" {
		t.Fatalf("expected refused, got %s", status)
	}
}

const userPassword = "Journey123!"

type testUser struct {
	id    int64
	email string
}

func createUser(t *testing.T, app *server.App, roleName, email string) testUser {
	t.Helper()
	ctx := context.Background()

	var roleID int64
	if err := app.DB.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", roleName).Scan(&roleID); err != nil {
		t.Fatalf("failed to load role %s: %v", roleName, err)
	}
	hash, err := auth.HashPassword(userPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	var userID int64
	if err := app.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role_id, status)
    VALUES ($1,$2,$3,'active')
    RETURNING id
  `, email, hash, roleID).Scan(&userID); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return testUser{id: userID, email: email}
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token string, user testUser, firstName, lastName string) int64 {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/employees", token, map[string]any{
		"userId":    user.id,
		"firstName": firstName,
		"lastName":  lastName,
		"email":     user.email,
		"status":    "active",
	})
	return decodeID(t, resp, "employee")
}

func createMission(t *testing.T, client *http.Client, baseURL, token string) int64 {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/missions", token, map[string]any{
		"title":  "Data platform buildout",
		"client": "Acme",
		"status": "active",
	})
	return decodeID(t, resp, "mission")
}

func createEvaluation(t *testing.T, client *http.Client, baseURL, token string) int64 {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/evaluations", token, map[string]any{
		"cycleYear": 2026,
	})
	return decodeID(t, resp, "evaluation")
}

// buildAnswers fetches the employee catalog and answers every item with a
// value valid for its type.
func buildAnswers(t *testing.T, client *http.Client, baseURL, token string) []map[string]any {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/evaluations/criteria/items?role=employee", token)
	var items []map[string]any
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		t.Fatalf("failed to decode criteria items: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected seeded criteria items")
	}

	answers := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var value string
		switch item["type"] {
		case "numeric":
			value = "4"
		case "boolean":
			value = "oui"
		default:
			value = "Solid work throughout the mission"
		}
		answers = append(answers, map[string]any{"itemId": item["id"], "value": value})
	}
	return answers
}

func listEvaluations(t *testing.T, client *http.Client, baseURL, token string) []map[string]any {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/evaluations", token)
	var payload []map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode evaluations: %v", err)
	}
	return payload
}

func containsEvaluation(evals []map[string]any, id int64) bool {
	for _, ev := range evals {
		if got, ok := ev["id"].(float64); ok && int64(got) == id {
			return true
		}
	}
	return false
}

func getEvaluation(t *testing.T, client *http.Client, baseURL, token string, id int64) map[string]any {
	t.Helper()
	resp := getJSON(t, client, fmt.Sprintf("%s/api/v1/evaluations/%d", baseURL, id), token)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode evaluation: %v", err)
	}
	return payload
}

func unreadCount(t *testing.T, client *http.Client, baseURL, token string) int {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/notifications/unread-count", token)
	var payload map[string]int
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode unread count: %v", err)
	}
	return payload["unread"]
}

// submit posts a workflow mutation and returns the status field of the
// response. idemKey, when non-empty, is sent as the Idempotency-Key header.
func submit(t *testing.T, client *http.Client, url, token, idemKey string, body any) string {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, url, token, idemKey, body, 0)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode submit response: %v", err)
	}
	status, _ := payload["status"].(string)
	return status
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func decodeID(t *testing.T, resp envelope, what string) int64 {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode %s response: %v", what, err)
	}
	id, ok := payload["id"].(float64)
	if !ok || id == 0 {
		t.Fatalf("expected %s id, got %v", what, payload["id"])
	}
	return int64(id)
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, "", body, 0)
}

func putJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPut, url, token, "", body, 0)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, "", body, want)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, "", nil, 0)
}

// doJSON issues the request and decodes the envelope. want of zero means any
// 2xx is accepted; otherwise the exact status is required.
func doJSON(t *testing.T, client *http.Client, method, url, token, idemKey string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if want != 0 {
		if resp.StatusCode != want {
			t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
		}
	} else if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}
