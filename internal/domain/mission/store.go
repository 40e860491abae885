package mission

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// List returns missions, optionally filtered to one status. The workflow's
// mission selector reads the active set.
func (s *Store) List(ctx context.Context, status string) ([]Mission, error) {
	query := `
    SELECT id, title, client, start_date, end_date, status
    FROM missions
  `
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY title"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mission
	for rows.Next() {
		var m Mission
		if err := rows.Scan(&m.ID, &m.Title, &m.Client, &m.StartDate, &m.EndDate, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Mission, error) {
	var m Mission
	err := s.DB.QueryRow(ctx, `
    SELECT id, title, client, start_date, end_date, status
    FROM missions
    WHERE id = $1
  `, id).Scan(&m.ID, &m.Title, &m.Client, &m.StartDate, &m.EndDate, &m.Status)
	return m, err
}

func (s *Store) Create(ctx context.Context, m Mission) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO missions (title, client, start_date, end_date, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, m.Title, m.Client, m.StartDate, m.EndDate, m.Status).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, m Mission) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE missions
    SET title = $1, client = $2, start_date = $3, end_date = $4, status = $5, updated_at = now()
    WHERE id = $6
  `, m.Title, m.Client, m.StartDate, m.EndDate, m.Status, m.ID)
	return err
}
