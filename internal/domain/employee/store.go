package employee

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

func (s *Store) List(ctx context.Context, roleName string, limit, offset int) ([]Employee, error) {
	query := `
    SELECT e.id, e.user_id, e.first_name, e.last_name, e.email, e.position, e.department,
           COALESCE(e.evaluator_id, 0), e.status, e.hired_at
    FROM employees e
  `
	args := []any{}
	if roleName != "" {
		query += `
    JOIN users u ON e.user_id = u.id
    JOIN roles r ON u.role_id = r.id
    WHERE r.name = $1 AND e.status = 'active'
  `
		args = append(args, roleName)
	}
	query += " ORDER BY e.last_name, e.first_name LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Position, &emp.Department, &emp.EvaluatorID, &emp.Status, &emp.HiredAt); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, first_name, last_name, email, position, department,
           COALESCE(evaluator_id, 0), status, hired_at
    FROM employees
    WHERE id = $1
  `, id).Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Position, &emp.Department, &emp.EvaluatorID, &emp.Status, &emp.HiredAt)
	return emp, err
}

func (s *Store) ByUserID(ctx context.Context, userID int64) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, first_name, last_name, email, position, department,
           COALESCE(evaluator_id, 0), status, hired_at
    FROM employees
    WHERE user_id = $1
  `, userID).Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Position, &emp.Department, &emp.EvaluatorID, &emp.Status, &emp.HiredAt)
	return emp, err
}

func (s *Store) Create(ctx context.Context, emp Employee) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, first_name, last_name, email, position, department, evaluator_id, status, hired_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, emp.UserID, emp.FirstName, emp.LastName, emp.Email, emp.Position, emp.Department, nullIfZero(emp.EvaluatorID), emp.Status, emp.HiredAt).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, emp Employee) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, email = $3, position = $4, department = $5,
        evaluator_id = $6, status = $7, updated_at = now()
    WHERE id = $8
  `, emp.FirstName, emp.LastName, emp.Email, emp.Position, emp.Department, nullIfZero(emp.EvaluatorID), emp.Status, emp.ID)
	return err
}

func (s *Store) UserEmail(ctx context.Context, userID int64) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

func nullIfZero(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
