package leavehandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/employee"
	"hrportal/internal/domain/leave"
	"hrportal/internal/domain/notifications"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Handler struct {
	Store     *leave.Store
	Employees *employee.Store
	Perms     middleware.PermissionStore
	Notify    *notifications.Service
	Audit     *audit.Service
}

func NewHandler(store *leave.Store, employees *employee.Store, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Employees: employees, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests/{requestID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/decide", h.handleDecide)
	})
}

// handleList scopes plain employees to their own requests; approvers and HR
// see everything.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	employeeID := int64(0)
	if user.RoleName == auth.RoleEmployee {
		emp, err := h.Employees.ByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "no employee record for this account", middleware.GetRequestID(r.Context()))
			return
		}
		employeeID = emp.ID
	}

	requests, err := h.Store.List(r.Context(), employeeID, r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

type leavePayload struct {
	Type         string `json:"type"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	StartHalfDay bool   `json:"startHalfDay"`
	EndHalfDay   bool   `json:"endHalfDay"`
	Reason       string `json:"reason"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Employees.ByUserID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "no employee record for this account", middleware.GetRequestID(r.Context()))
		return
	}

	var payload leavePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Enum("type", payload.Type, []string{leave.TypeAnnual, leave.TypeSick, leave.TypeUnpaid, leave.TypeOther}, "unknown leave type")
	start, startOK := v.Date("startDate", payload.StartDate)
	end, endOK := v.Date("endDate", payload.EndDate)
	if startOK && endOK {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if payload.Type == "" {
		payload.Type = leave.TypeAnnual
	}

	days, err := leave.CalculateRequestDays(start, end, payload.StartHalfDay, payload.EndHalfDay)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.Create(r.Context(), leave.Request{
		EmployeeID:   emp.ID,
		Type:         payload.Type,
		StartDate:    start,
		EndDate:      end,
		StartHalfDay: payload.StartHalfDay,
		EndHalfDay:   payload.EndHalfDay,
		Days:         days,
		Status:       leave.StatusPending,
		Reason:       payload.Reason,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_create_failed", "failed to create leave request", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.create", "leave_request", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit leave.request.create failed", "err", err)
	}
	if h.Notify != nil && emp.EvaluatorID != 0 {
		if manager, err := h.Employees.Get(r.Context(), emp.EvaluatorID); err != nil {
			slog.Warn("leave notification manager lookup failed", "err", err)
		} else if manager.UserID != 0 {
			if err := h.Notify.Create(r.Context(), manager.UserID, notifications.TypeLeaveSubmitted, "Leave request submitted", emp.FirstName+" "+emp.LastName+" submitted a leave request."); err != nil {
				slog.Warn("leave submitted notification failed", "err", err)
			}
		}
	}

	api.Created(w, map[string]any{"id": id, "days": days}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.ParseID(chi.URLParam(r, "requestID"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request id", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Employees.ByUserID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "no employee record for this account", middleware.GetRequestID(r.Context()))
		return
	}

	done, err := h.Store.Cancel(r.Context(), id, emp.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_cancel_failed", "failed to cancel leave request", middleware.GetRequestID(r.Context()))
		return
	}
	if !done {
		api.Fail(w, http.StatusConflict, "invalid_state", "request is not pending or not yours", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.cancel", "leave_request", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit leave.request.cancel failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "cancelled"}, middleware.GetRequestID(r.Context()))
}

type decidePayload struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// handleDecide lands approval or rejection on a pending request; a request
// already decided answers 409.
func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.ParseID(chi.URLParam(r, "requestID"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request id", middleware.GetRequestID(r.Context()))
		return
	}

	var payload decidePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	status := leave.StatusRejected
	notifType := notifications.TypeLeaveRejected
	title := "Leave request rejected"
	if payload.Approve {
		status = leave.StatusApproved
		notifType = notifications.TypeLeaveApproved
		title = "Leave request approved"
	}

	done, err := h.Store.Decide(r.Context(), id, user.UserID, status, payload.Note)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_decide_failed", "failed to decide leave request", middleware.GetRequestID(r.Context()))
		return
	}
	if !done {
		api.Fail(w, http.StatusConflict, "invalid_state", "request is not pending", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.decide", "leave_request", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit leave.request.decide failed", "err", err)
	}
	if h.Notify != nil {
		if req, err := h.Store.Get(r.Context(), id); err != nil {
			slog.Warn("leave decision request lookup failed", "err", err)
		} else if emp, err := h.Employees.Get(r.Context(), req.EmployeeID); err != nil {
			slog.Warn("leave decision employee lookup failed", "err", err)
		} else if emp.UserID != 0 {
			if err := h.Notify.Create(r.Context(), emp.UserID, notifType, title, "Your leave request has been "+status+"."); err != nil {
				slog.Warn("leave decision notification failed", "err", err)
			}
		}
	}

	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}
