package missionhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/mission"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Handler struct {
	Store *mission.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *mission.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/missions", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermMissionsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermMissionsRead, h.Perms)).Get("/{missionID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermMissionsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermMissionsWrite, h.Perms)).Put("/{missionID}", h.handleUpdate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	missions, err := h.Store.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mission_list_failed", "failed to list missions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, missions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(chi.URLParam(r, "missionID"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid mission id", middleware.GetRequestID(r.Context()))
		return
	}
	m, err := h.Store.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "mission_not_found", "mission not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, m, middleware.GetRequestID(r.Context()))
}

type missionPayload struct {
	Title     string `json:"title"`
	Client    string `json:"client"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (mission.Mission, bool) {
	var payload missionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return mission.Mission{}, false
	}

	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	v.Enum("status", payload.Status, []string{mission.StatusActive, mission.StatusArchived}, "status must be active or archived")
	var start, end *time.Time
	var startVal, endVal time.Time
	if payload.StartDate != "" {
		if parsed, ok := v.Date("startDate", payload.StartDate); ok {
			startVal = parsed
			start = &startVal
		}
	}
	if payload.EndDate != "" {
		if parsed, ok := v.Date("endDate", payload.EndDate); ok {
			endVal = parsed
			end = &endVal
		}
	}
	v.DateOrder("startDate", startVal, "endDate", endVal)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return mission.Mission{}, false
	}

	status := payload.Status
	if status == "" {
		status = mission.StatusActive
	}
	return mission.Mission{
		Title:     payload.Title,
		Client:    payload.Client,
		StartDate: start,
		EndDate:   end,
		Status:    status,
	}, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	m, ok := h.decode(w, r)
	if !ok {
		return
	}

	id, err := h.Store.Create(r.Context(), m)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mission_create_failed", "failed to create mission", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "mission.create", "mission", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, m); err != nil {
		slog.Warn("audit mission.create failed", "err", err)
	}
	api.Created(w, map[string]int64{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.ParseID(chi.URLParam(r, "missionID"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid mission id", middleware.GetRequestID(r.Context()))
		return
	}

	before, err := h.Store.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "mission_not_found", "mission not found", middleware.GetRequestID(r.Context()))
		return
	}

	m, ok := h.decode(w, r)
	if !ok {
		return
	}
	m.ID = id

	if err := h.Store.Update(r.Context(), m); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mission_update_failed", "failed to update mission", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "mission.update", "mission", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, m); err != nil {
		slog.Warn("audit mission.update failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}
