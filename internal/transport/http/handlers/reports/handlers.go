package reportshandler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/reports"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Handler struct {
	Store *reports.Store
	Perms middleware.PermissionStore
}

func NewHandler(store *reports.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/completion", h.handleCompletion)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/evaluations/{evaluationID}/summary.pdf", h.handleSummaryPDF)
	})
}

func (h *Handler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "year must be a four-digit year", middleware.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}

	stats, err := h.Store.EvaluationCompletion(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to compute completion stats", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	pendingLeave, err := h.Store.PendingLeaveCount(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to compute dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	activeMissions, err := h.Store.ActiveMissionCount(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to compute dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	activeEmployees, err := h.Store.ActiveEmployeeCount(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to compute dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{
		"pendingLeave":    pendingLeave,
		"activeMissions":  activeMissions,
		"activeEmployees": activeEmployees,
	}, middleware.GetRequestID(r.Context()))
}

// handleSummaryPDF streams the rendered evaluation summary. The PDF is built
// per request; summaries are small enough that caching is not worth a layer.
func (h *Handler) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(chi.URLParam(r, "evaluationID"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid evaluation id", middleware.GetRequestID(r.Context()))
		return
	}

	hdr, err := h.Store.SummaryHeader(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "evaluation_not_found", "evaluation not found", middleware.GetRequestID(r.Context()))
		return
	}
	lines, err := h.Store.SummaryLines(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to load evaluation answers", middleware.GetRequestID(r.Context()))
		return
	}

	pdf, err := reports.RenderEvaluationSummary(hdr, lines)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render summary", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"evaluation-%d-summary.pdf\"", id))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
