package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/policy"
)

type analyticsService interface {
	Overview(ctx context.Context, principal application.Principal, rangeDays int, now time.Time) (application.Overview, error)
	Export(ctx context.Context, principal application.Principal, rangeDays int, now time.Time) (application.ExportReport, error)
	Dashboard(ctx context.Context, principal application.Principal, now time.Time) (application.Dashboard, error)
}

// AnalyticsHandler serves the dashboard, the analytics page and its export.
type AnalyticsHandler struct {
	service   analyticsService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewAnalyticsHandler constructs the handler. A nil now uses time.Now.
func NewAnalyticsHandler(service analyticsService, now func() time.Time, logger *slog.Logger) *AnalyticsHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &AnalyticsHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

func (h *AnalyticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AnalyticsHandler", operation, attrs...)
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	dashboard, err := h.service.Dashboard(r.Context(), principal, h.now())
	if err != nil {
		h.log(r.Context(), "Dashboard", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "dashboard failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	dashboard.Trainees = redactUsers(dashboard.Trainees)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboardResponse{
		Dashboard:  dashboard,
		Navigation: policy.Navigation(principal.Role),
	})
}

func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	days, err := rangeParam(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	overview, err := h.service.Overview(r.Context(), principal, days, h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overview)
}

// Export answers with the report as a JSON attachment.
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	days, err := rangeParam(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	report, err := h.service.Export(r.Context(), principal, days, h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Export", "principal_id", principal.UserID, "range_days", days).
		InfoContext(r.Context(), "analytics exported", "file", report.FileName)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, report)
}

// rangeParam reads ?range=N. An absent range is zero, which the service
// replaces with its default window.
func rangeParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("range")
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidRange
	}
	return days, nil
}

type dashboardResponse struct {
	application.Dashboard
	Navigation []policy.NavItem `json:"navigation"`
}
