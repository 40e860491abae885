package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrportal/internal/domain/evaluation"
	"hrportal/internal/domain/leave"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type CompletionStats struct {
	CycleYear int `json:"cycleYear"`
	Total     int `json:"total"`
	SelfPend  int `json:"selfPending"`
	EvalPend  int `json:"evaluatorPending"`
	ApprPend  int `json:"approverPending"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
	Refused   int `json:"refused"`
}

func (s *Store) EvaluationCompletion(ctx context.Context, cycleYear int) (CompletionStats, error) {
	stats := CompletionStats{CycleYear: cycleYear}
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COALESCE(SUM(CASE WHEN status = $2 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $3 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $4 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $5 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $6 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $7 THEN 1 ELSE 0 END),0)
    FROM evaluations
    WHERE cycle_year = $1
  `, cycleYear,
		evaluation.StatusSelfPending,
		evaluation.StatusEvaluatorPending,
		evaluation.StatusApproverPending,
		evaluation.StatusCompleted,
		evaluation.StatusRejected,
		evaluation.StatusRefused,
	).Scan(&stats.Total, &stats.SelfPend, &stats.EvalPend, &stats.ApprPend, &stats.Completed, &stats.Rejected, &stats.Refused)
	return stats, err
}

func (s *Store) PendingLeaveCount(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests WHERE status = $1", leave.StatusPending).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ActiveMissionCount(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM missions WHERE status = 'active'").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ActiveEmployeeCount(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE status = 'active'").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type SummaryHeader struct {
	EvaluationID  int64
	EmployeeName  string
	EvaluatorName string
	ApproverName  string
	MissionTitle  string
	CycleYear     int
	Status        string
	Decision      string
}

func (s *Store) SummaryHeader(ctx context.Context, evaluationID int64) (SummaryHeader, error) {
	var hdr SummaryHeader
	err := s.DB.QueryRow(ctx, `
    SELECT ev.id,
           COALESCE(emp.first_name || ' ' || emp.last_name, ''),
           COALESCE(evr.first_name || ' ' || evr.last_name, ''),
           COALESCE(app.first_name || ' ' || app.last_name, ''),
           COALESCE(m.title, ''),
           ev.cycle_year, ev.status, COALESCE(ev.decision_reason, '')
    FROM evaluations ev
    JOIN employees emp ON ev.employee_id = emp.id
    LEFT JOIN employees evr ON ev.evaluator_id = evr.id
    LEFT JOIN employees app ON ev.approver_id = app.id
    LEFT JOIN missions m ON ev.mission_id = m.id
    WHERE ev.id = $1
  `, evaluationID).Scan(&hdr.EvaluationID, &hdr.EmployeeName, &hdr.EvaluatorName, &hdr.ApproverName, &hdr.MissionTitle, &hdr.CycleYear, &hdr.Status, &hdr.Decision)
	return hdr, err
}

type SummaryLine struct {
	GroupName       string
	Label           string
	EmployeeAnswer  string
	EvaluatorAnswer string
}

// SummaryLines joins the employee catalog with both actors' final answers.
func (s *Store) SummaryLines(ctx context.Context, evaluationID int64) ([]SummaryLine, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT g.name, i.label,
           COALESCE(emp.value, ''),
           COALESCE(evr.value, '')
    FROM criteria_items i
    JOIN criteria_groups g ON i.group_id = g.id
    LEFT JOIN evaluation_responses emp
      ON emp.evaluation_id = $1 AND emp.actor = $2 AND emp.item_id = i.id AND emp.draft = false
    LEFT JOIN evaluation_responses evr
      ON evr.evaluation_id = $1 AND evr.actor = $3 AND evr.item_id = i.id AND evr.draft = false
    WHERE i.role = $2
    ORDER BY g.position, i.position, i.id
  `, evaluationID, string(evaluation.RoleEmployee), string(evaluation.RoleEvaluator))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryLine
	for rows.Next() {
		var line SummaryLine
		if err := rows.Scan(&line.GroupName, &line.Label, &line.EmployeeAnswer, &line.EvaluatorAnswer); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}
