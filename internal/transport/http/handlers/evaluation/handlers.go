package evaluationhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/employee"
	"hrportal/internal/domain/evaluation"
	"hrportal/internal/domain/notifications"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Handler struct {
	Service   *evaluation.Service
	Employees *employee.Store
	Perms     middleware.PermissionStore
	Notify    *notifications.Service
	Audit     *audit.Service
	Idem      *middleware.IdempotencyStore
}

func NewHandler(service *evaluation.Service, employees *employee.Store, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Employees: employees, Perms: perms, Notify: notify, Audit: auditSvc, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/criteria/groups", h.handleListGroups)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/criteria/items", h.handleListItems)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/{evaluationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/{evaluationID}/draft", h.handleGetDraft)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Put("/{evaluationID}/draft", h.handleSaveDraft)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/{evaluationID}/responses", h.handleGetResponses)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/{evaluationID}/submit-self", h.handleSubmitSelf)
		r.With(middleware.RequirePermission(auth.PermEvaluationsReview, h.Perms)).Post("/{evaluationID}/submit-evaluator", h.handleSubmitEvaluator)
		r.With(middleware.RequirePermission(auth.PermEvaluationsReview, h.Perms)).Post("/{evaluationID}/refuse", h.handleRefuse)
		r.With(middleware.RequirePermission(auth.PermEvaluationsDecide, h.Perms)).Post("/{evaluationID}/decide", h.handleDecide)
	})
}

// failWorkflow maps the workflow error taxonomy onto the wire: validation and
// guard failures are 400s with detail, an out-of-order transition is a 409.
func failWorkflow(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())

	var verr *evaluation.ValidationError
	if errors.As(err, &verr) {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", verr.Error(), map[string]any{"missing": verr.Missing}, reqID)
		return
	}
	var gerr *evaluation.GuardViolation
	if errors.As(err, &gerr) {
		api.Fail(w, http.StatusBadRequest, "guard_violation", gerr.Reason, reqID)
		return
	}
	if errors.Is(err, evaluation.ErrInvalidState) {
		api.Fail(w, http.StatusConflict, "invalid_state", "evaluation is not in a state accepting this operation", reqID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, "evaluation_error", "evaluation operation failed", reqID)
}

func parseActor(raw string) (evaluation.Role, bool) {
	switch evaluation.Role(raw) {
	case evaluation.RoleEmployee:
		return evaluation.RoleEmployee, true
	case evaluation.RoleEvaluator:
		return evaluation.RoleEvaluator, true
	}
	return "", false
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.Groups(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "criteria_list_failed", "failed to list criteria groups", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, groups, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	role := evaluation.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = evaluation.RoleEmployee
	}
	if role != evaluation.RoleEmployee && role != evaluation.RoleApprover {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "role must be employee or approver", middleware.GetRequestID(r.Context()))
		return
	}
	items, err := h.Service.Items(r.Context(), role)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "criteria_list_failed", "failed to list criteria items", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

// handleList scopes by participation: employees see their own evaluations,
// evaluators and approvers the ones assigned to them, HR everything.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	var employeeID, evaluatorID, approverID int64
	switch user.RoleName {
	case auth.RoleHR, auth.RoleAdmin:
	default:
		emp, err := h.Employees.ByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "no employee record for this account", middleware.GetRequestID(r.Context()))
			return
		}
		switch user.RoleName {
		case auth.RoleEvaluator:
			evaluatorID = emp.ID
			employeeID = emp.ID
		case auth.RoleApprover:
			approverID = emp.ID
			employeeID = emp.ID
		default:
			employeeID = emp.ID
		}
	}

	evals, err := h.Service.List(r.Context(), employeeID, evaluatorID, approverID, r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "evaluation_list_failed", "failed to list evaluations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, evals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EmployeeID int64 `json:"employeeId"`
		CycleYear  int   `json:"cycleYear"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.CycleYear == 0 {
		payload.CycleYear = time.Now().Year()
	}

	if payload.EmployeeID == 0 {
		emp, err := h.Employees.ByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "no employee record for this account", middleware.GetRequestID(r.Context()))
			return
		}
		payload.EmployeeID = emp.ID
	} else if user.RoleName != auth.RoleHR && user.RoleName != auth.RoleAdmin {
		emp, err := h.Employees.ByUserID(r.Context(), user.UserID)
		if err != nil || emp.ID != payload.EmployeeID {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot open an evaluation for another employee", middleware.GetRequestID(r.Context()))
			return
		}
	}

	id, err := h.Service.Create(r.Context(), payload.EmployeeID, payload.CycleYear)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "evaluation_create_failed", "failed to create evaluation", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "evaluation.create", "evaluation", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit evaluation.create failed", "err", err)
	}
	api.Created(w, map[string]int64{"id": id}, middleware.GetRequestID(r.Context()))
}

// load fetches the evaluation and checks the caller participates in it. HR and
// admin bypass the participant check.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (evaluation.Evaluation, employee.Employee, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return evaluation.Evaluation{}, employee.Employee{}, false
	}
	id, ok := shared.ParseID(chi.URLParam(r, "evaluationID"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid evaluation id", middleware.GetRequestID(r.Context()))
		return evaluation.Evaluation{}, employee.Employee{}, false
	}

	ev, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "evaluation_not_found", "evaluation not found", middleware.GetRequestID(r.Context()))
		return evaluation.Evaluation{}, employee.Employee{}, false
	}

	if user.RoleName == auth.RoleHR || user.RoleName == auth.RoleAdmin {
		return ev, employee.Employee{}, true
	}

	emp, err := h.Employees.ByUserID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "no employee record for this account", middleware.GetRequestID(r.Context()))
		return evaluation.Evaluation{}, employee.Employee{}, false
	}
	if emp.ID != ev.EmployeeID && emp.ID != ev.EvaluatorID && emp.ID != ev.ApproverID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not a participant in this evaluation", middleware.GetRequestID(r.Context()))
		return evaluation.Evaluation{}, employee.Employee{}, false
	}
	return ev, emp, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ev, _, ok := h.load(w, r)
	if !ok {
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	ev, _, ok := h.load(w, r)
	if !ok {
		return
	}
	actor, ok := parseActor(r.URL.Query().Get("actor"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "actor must be employee or evaluator", middleware.GetRequestID(r.Context()))
		return
	}
	responses, err := h.Service.DraftResponses(r.Context(), ev.ID, actor)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "draft_read_failed", "failed to read draft", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, responses, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	ev, _, ok := h.load(w, r)
	if !ok {
		return
	}

	var payload struct {
		Actor     string                `json:"actor"`
		Responses []evaluation.Response `json:"responses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	actor, ok := parseActor(payload.Actor)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "actor must be employee or evaluator", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.SaveDraft(r.Context(), ev.ID, actor, payload.Responses); err != nil {
		failWorkflow(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "draft_saved"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetResponses(w http.ResponseWriter, r *http.Request) {
	ev, _, ok := h.load(w, r)
	if !ok {
		return
	}
	actor, ok := parseActor(r.URL.Query().Get("actor"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "actor must be employee or evaluator", middleware.GetRequestID(r.Context()))
		return
	}
	responses, err := h.Service.SubmittedResponses(r.Context(), ev.ID, actor)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "responses_read_failed", "failed to read responses", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, responses, middleware.GetRequestID(r.Context()))
}

// replayIdempotent answers a retried submission with its stored response.
func (h *Handler) replayIdempotent(w http.ResponseWriter, r *http.Request, endpoint, key, requestHash string) bool {
	if key == "" {
		return false
	}
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return false
	}
	stored, found, err := h.Idem.Check(r.Context(), user.UserID, endpoint, key, requestHash)
	if err != nil {
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", middleware.GetRequestID(r.Context()))
			return true
		}
		slog.Warn("idempotency check failed", "err", err)
		return false
	}
	if found {
		api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
		return true
	}
	return false
}

func (h *Handler) saveIdempotent(ctx_r *http.Request, endpoint, key, requestHash string, response any) {
	if key == "" {
		return
	}
	user, ok := middleware.GetUser(ctx_r.Context())
	if !ok {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		slog.Warn("idempotency response marshal failed", "err", err)
		return
	}
	if err := h.Idem.Save(ctx_r.Context(), user.UserID, endpoint, key, requestHash, payload); err != nil {
		slog.Warn("idempotency save failed", "err", err)
	}
}

func (h *Handler) notifyEmployee(r *http.Request, employeeID int64, ntype, title, body string) {
	if h.Notify == nil || employeeID == 0 {
		return
	}
	emp, err := h.Employees.Get(r.Context(), employeeID)
	if err != nil {
		slog.Warn("notification employee lookup failed", "employeeId", employeeID, "err", err)
		return
	}
	if emp.UserID == 0 {
		return
	}
	if err := h.Notify.Create(r.Context(), emp.UserID, ntype, title, body); err != nil {
		slog.Warn("notification create failed", "type", ntype, "err", err)
	}
}

func (h *Handler) handleSubmitSelf(w http.ResponseWriter, r *http.Request) {
	ev, emp, ok := h.load(w, r)
	if !ok {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if emp.ID != 0 && emp.ID != ev.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the employee may submit the self-assessment", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EvaluatorID int64                 `json:"evaluatorId"`
		ApproverID  int64                 `json:"approverId"`
		MissionID   int64                 `json:"missionId"`
		Responses   []evaluation.Response `json:"responses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	body, _ := json.Marshal(payload)
	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if h.replayIdempotent(w, r, "evaluation.submit-self", idemKey, requestHash) {
		return
	}

	if err := h.Service.SubmitSelf(r.Context(), ev.ID, payload.EvaluatorID, payload.ApproverID, payload.MissionID, payload.Responses); err != nil {
		failWorkflow(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "evaluation.submit_self", "evaluation", strconv.FormatInt(ev.ID, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]any{"evaluatorId": payload.EvaluatorID, "approverId": payload.ApproverID, "missionId": payload.MissionID}); err != nil {
		slog.Warn("audit evaluation.submit_self failed", "err", err)
	}
	h.notifyEmployee(r, payload.EvaluatorID, notifications.TypeSelfAssessmentDone, "Self-assessment submitted", "A self-assessment is ready for your review.")

	response := map[string]string{"status": evaluation.StatusEvaluatorPending}
	h.saveIdempotent(r, "evaluation.submit-self", idemKey, requestHash, response)
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitEvaluator(w http.ResponseWriter, r *http.Request) {
	ev, emp, ok := h.load(w, r)
	if !ok {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if emp.ID != 0 && emp.ID != ev.EvaluatorID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the assigned evaluator may submit this assessment", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Responses []evaluation.Response `json:"responses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	body, _ := json.Marshal(payload)
	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if h.replayIdempotent(w, r, "evaluation.submit-evaluator", idemKey, requestHash) {
		return
	}

	if err := h.Service.SubmitEvaluator(r.Context(), ev.ID, payload.Responses); err != nil {
		failWorkflow(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "evaluation.submit_evaluator", "evaluation", strconv.FormatInt(ev.ID, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit evaluation.submit_evaluator failed", "err", err)
	}
	h.notifyEmployee(r, ev.ApproverID, notifications.TypeEvaluationReady, "Evaluation awaiting decision", "An evaluation is ready for your decision.")

	response := map[string]string{"status": evaluation.StatusApproverPending}
	h.saveIdempotent(r, "evaluation.submit-evaluator", idemKey, requestHash, response)
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefuse(w http.ResponseWriter, r *http.Request) {
	ev, emp, ok := h.load(w, r)
	if !ok {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if emp.ID != 0 && emp.ID != ev.EvaluatorID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the assigned evaluator may refuse", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Refuse(r.Context(), ev.ID, payload.Reason); err != nil {
		failWorkflow(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "evaluation.refuse", "evaluation", strconv.FormatInt(ev.ID, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit evaluation.refuse failed", "err", err)
	}
	h.notifyEmployee(r, ev.EmployeeID, notifications.TypeEvaluationRefused, "Evaluation refused", "Your evaluator declined to process the assessment.")

	api.Success(w, map[string]string{"status": evaluation.StatusRefused}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ev, emp, ok := h.load(w, r)
	if !ok {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if emp.ID != 0 && emp.ID != ev.ApproverID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the assigned approver may decide", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	body, _ := json.Marshal(payload)
	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if h.replayIdempotent(w, r, "evaluation.decide", idemKey, requestHash) {
		return
	}

	if err := h.Service.Decide(r.Context(), ev.ID, payload.Approved, payload.Reason); err != nil {
		failWorkflow(w, r, err)
		return
	}

	status := evaluation.StatusRejected
	notifType := notifications.TypeEvaluationRejected
	title := "Evaluation rejected"
	if payload.Approved {
		status = evaluation.StatusCompleted
		notifType = notifications.TypeEvaluationApproved
		title = "Evaluation approved"
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "evaluation.decide", "evaluation", strconv.FormatInt(ev.ID, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit evaluation.decide failed", "err", err)
	}
	h.notifyEmployee(r, ev.EmployeeID, notifType, title, "The decision on your evaluation has been recorded.")

	response := map[string]string{"status": status}
	h.saveIdempotent(r, "evaluation.decide", idemKey, requestHash, response)
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}
