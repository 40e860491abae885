package evaluation

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListGroups(ctx context.Context) ([]CriteriaGroup, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name
    FROM criteria_groups
    ORDER BY position, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CriteriaGroup
	for rows.Next() {
		var group CriteriaGroup
		if err := rows.Scan(&group.ID, &group.Name); err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, nil
}

func (s *Store) ListItems(ctx context.Context, role Role) ([]CriteriaItem, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT i.id, i.type, i.label, i.group_id, g.name
    FROM criteria_items i
    JOIN criteria_groups g ON i.group_id = g.id
    WHERE i.role = $1
    ORDER BY g.position, i.position, i.id
  `, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CriteriaItem
	for rows.Next() {
		var item CriteriaItem
		if err := rows.Scan(&item.ID, &item.Type, &item.Label, &item.GroupID, &item.GroupName); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Evaluation, error) {
	var ev Evaluation
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, COALESCE(evaluator_id, 0), COALESCE(approver_id, 0),
           COALESCE(mission_id, 0), cycle_year, status, COALESCE(decision_reason, ''),
           created_at, decided_at
    FROM evaluations
    WHERE id = $1
  `, id).Scan(&ev.ID, &ev.EmployeeID, &ev.EvaluatorID, &ev.ApproverID, &ev.MissionID, &ev.CycleYear, &ev.Status, &ev.DecisionReason, &ev.CreatedAt, &ev.DecidedAt)
	return ev, err
}

// List returns evaluations visible to the caller. employeeID, evaluatorID and
// approverID are OR-ed so each actor sees the instances they participate in.
func (s *Store) List(ctx context.Context, employeeID, evaluatorID, approverID int64, status string, limit, offset int) ([]Evaluation, error) {
	query := `
    SELECT id, employee_id, COALESCE(evaluator_id, 0), COALESCE(approver_id, 0),
           COALESCE(mission_id, 0), cycle_year, status, COALESCE(decision_reason, ''),
           created_at, decided_at
    FROM evaluations
    WHERE 1=1
  `
	args := []any{}
	var scopes []string
	if employeeID != 0 {
		scopes = append(scopes, "employee_id = $"+strconv.Itoa(len(args)+len(scopes)+1))
	}
	if evaluatorID != 0 {
		scopes = append(scopes, "evaluator_id = $"+strconv.Itoa(len(args)+len(scopes)+1))
	}
	if approverID != 0 {
		scopes = append(scopes, "approver_id = $"+strconv.Itoa(len(args)+len(scopes)+1))
	}
	if len(scopes) > 0 {
		query += " AND ("
		for i, scope := range scopes {
			if i > 0 {
				query += " OR "
			}
			query += scope
		}
		query += ")"
		for _, id := range []int64{employeeID, evaluatorID, approverID} {
			if id != 0 {
				args = append(args, id)
			}
		}
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

	var out []Evaluation
	for rows.Next() {
		var ev Evaluation
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &ev.EvaluatorID, &ev.ApproverID, &ev.MissionID, &ev.CycleYear, &ev.Status, &ev.DecisionReason, &ev.CreatedAt, &ev.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, employeeID int64, cycleYear int) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluations (employee_id, cycle_year, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, employeeID, cycleYear, StatusSelfPending).Scan(&id)
	return id, err
}

func (s *Store) Responses(ctx context.Context, evaluationID int64, actor Role, draft bool) ([]Response, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT item_id, value
    FROM evaluation_responses
    WHERE evaluation_id = $1 AND actor = $2 AND draft = $3
    ORDER BY item_id
  `, evaluationID, string(actor), draft)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var resp Response
		if err := rows.Scan(&resp.ItemID, &resp.Value); err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// SaveResponses replaces an actor's response set for the evaluation in one
// transaction. Drafts and final submissions share the table, split by flag.
func (s *Store) SaveResponses(ctx context.Context, evaluationID int64, actor Role, responses []Response, draft bool) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    DELETE FROM evaluation_responses
    WHERE evaluation_id = $1 AND actor = $2 AND draft = $3
  `, evaluationID, string(actor), draft); err != nil {
		return err
	}
	for _, resp := range responses {
		if _, err := tx.Exec(ctx, `
      INSERT INTO evaluation_responses (evaluation_id, actor, item_id, value, draft)
      VALUES ($1,$2,$3,$4,$5)
      ON CONFLICT (evaluation_id, actor, item_id, draft) DO UPDATE SET value = EXCLUDED.value
    `, evaluationID, string(actor), resp.ItemID, resp.Value, draft); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// TransitionSelfSubmit advances self_pending → evaluator_pending, recording the
// selected evaluator, approver and mission. Returns false when the evaluation
// is not in the expected status (duplicate or out-of-order submit).
func (s *Store) TransitionSelfSubmit(ctx context.Context, evaluationID, evaluatorID, approverID, missionID int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET evaluator_id = $1, approver_id = $2, mission_id = $3, status = $4, updated_at = now()
    WHERE id = $5 AND status = $6
  `, evaluatorID, approverID, nullIfZero(missionID), StatusEvaluatorPending, evaluationID, StatusSelfPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TransitionEvaluatorSubmit advances evaluator_pending → approver_pending.
func (s *Store) TransitionEvaluatorSubmit(ctx context.Context, evaluationID int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET status = $1, updated_at = now()
    WHERE id = $2 AND status = $3
  `, StatusApproverPending, evaluationID, StatusEvaluatorPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TransitionRefuse aborts an instance the evaluator declines to process.
func (s *Store) TransitionRefuse(ctx context.Context, evaluationID int64, reason string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET status = $1, decision_reason = $2, decided_at = now(), updated_at = now()
    WHERE id = $3 AND status = $4
  `, StatusRefused, reason, evaluationID, StatusEvaluatorPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TransitionDecide records the approver's terminal decision. Exactly one
// decision can land; a second attempt matches no row.
func (s *Store) TransitionDecide(ctx context.Context, evaluationID int64, approved bool, reason string) (bool, error) {
	status := StatusCompleted
	if !approved {
		status = StatusRejected
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET status = $1, decision_reason = $2, decided_at = now(), updated_at = now()
    WHERE id = $3 AND status = $4
  `, status, reason, evaluationID, StatusApproverPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func nullIfZero(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
