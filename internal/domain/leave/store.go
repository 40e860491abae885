package leave

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) List(ctx context.Context, employeeID int64, status string, limit, offset int) ([]Request, error) {
	query := `
    SELECT id, employee_id, type, start_date, end_date, start_half_day, end_half_day,
           days, status, reason, COALESCE(decided_by, 0), COALESCE(decision_note, ''), created_at
    FROM leave_requests
    WHERE 1=1
  `
	args := []any{}
	if employeeID != 0 {
		query += " AND employee_id = $" + strconv.Itoa(len(args)+1)
		args = append(args, employeeID)
	}
	if status != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.StartHalfDay, &req.EndHalfDay, &req.Days, &req.Status, &req.Reason, &req.DecidedByID, &req.DecisionNote, &req.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Request, error) {
	var req Request
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, type, start_date, end_date, start_half_day, end_half_day,
           days, status, reason, COALESCE(decided_by, 0), COALESCE(decision_note, ''), created_at
    FROM leave_requests
    WHERE id = $1
  `, id).Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.StartHalfDay, &req.EndHalfDay, &req.Days, &req.Status, &req.Reason, &req.DecidedByID, &req.DecisionNote, &req.CreatedAt)
	return req, err
}

func (s *Store) Create(ctx context.Context, req Request) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, type, start_date, end_date, start_half_day, end_half_day, days, status, reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, req.EmployeeID, req.Type, req.StartDate, req.EndDate, req.StartHalfDay, req.EndHalfDay, req.Days, req.Status, req.Reason).Scan(&id)
	return id, err
}

// Decide records approval or rejection; only pending requests transition.
func (s *Store) Decide(ctx context.Context, id, deciderID int64, status, note string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, decided_by = $2, decision_note = $3, decided_at = now()
    WHERE id = $4 AND status = $5
  `, status, deciderID, note, id, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) Cancel(ctx context.Context, id, employeeID int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1
    WHERE id = $2 AND employee_id = $3 AND status = $4
  `, StatusCancelled, id, employeeID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
