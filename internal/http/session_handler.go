package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/persistence"
)

type sessionService interface {
	ListVisible(ctx context.Context, principal application.Principal) ([]application.Session, error)
	Create(ctx context.Context, principal application.Principal, input application.SessionInput) (application.Session, error)
	Update(ctx context.Context, principal application.Principal, id int, patch application.SessionPatch) (application.Session, error)
	Delete(ctx context.Context, principal application.Principal, id int) error
	AvailableTrainees(ctx context.Context, principal application.Principal, id int) ([]application.User, error)
	Enroll(ctx context.Context, principal application.Principal, id int, traineeIDs []int) (application.Session, error)
	MarkAttendance(ctx context.Context, principal application.Principal, id int, marks map[int]bool) (application.Session, error)
	UpdateStatus(ctx context.Context, principal application.Principal, id int, status application.SessionStatus) (application.Session, error)
	Join(ctx context.Context, principal application.Principal, id int) (string, error)
}

// SessionHandler serves the session pages, the calendar and the lifecycle actions.
type SessionHandler struct {
	service   sessionService
	drafts    draftDiscarder
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, drafts draftDiscarder, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, drafts: drafts, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	sessions, err := h.service.ListVisible(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: sessionViews(sessions)})
}

// Calendar lists the same sessions as List; the client lays them out by date.
func (h *SessionHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	h.List(w, r)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var input application.SessionInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)
	session, err := h.service.Create(r.Context(), principal, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "session creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if h.drafts != nil {
		h.drafts.Discard(r.Context(), persistence.KeyCreateSessionDraft)
	}

	logger.InfoContext(r.Context(), "session created", "session_id", session.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{Session: newSessionView(session)})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var patch application.SessionPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.Update(r.Context(), principal, id, patch)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: newSessionView(session)})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "session_id", id)
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "session delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "session deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) AvailableTrainees(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	users, err := h.service.AvailableTrainees(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: redactUsers(users)})
}

func (h *SessionHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.Enroll(r.Context(), principal, id, req.TraineeIDs)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: newSessionView(session)})
}

func (h *SessionHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req attendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.MarkAttendance(r.Context(), principal, id, req.Attendance)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: newSessionView(session)})
}

func (h *SessionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.UpdateStatus(r.Context(), principal, id, req.Status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "UpdateStatus", "principal_id", principal.UserID, "session_id", id).
		InfoContext(r.Context(), "session status changed", "status", session.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: newSessionView(session)})
}

func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	link, err := h.service.Join(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, joinResponse{ClassLink: link})
}

type enrollRequest struct {
	TraineeIDs []int `json:"traineeIds"`
}

type attendanceRequest struct {
	Attendance map[int]bool `json:"attendance"`
}

type statusRequest struct {
	Status application.SessionStatus `json:"status"`
}

type joinResponse struct {
	ClassLink string `json:"classLink"`
}

// sessionView adds the derived attendance rate to a session.
type sessionView struct {
	application.Session
	AttendanceRate int `json:"attendanceRate"`
}

func newSessionView(session application.Session) sessionView {
	return sessionView{Session: session, AttendanceRate: application.AttendanceRate(session)}
}

func sessionViews(sessions []application.Session) []sessionView {
	out := make([]sessionView, len(sessions))
	for i, s := range sessions {
		out[i] = newSessionView(s)
	}
	return out
}

type sessionResponse struct {
	Session sessionView `json:"session"`
}

type listSessionsResponse struct {
	Sessions []sessionView `json:"sessions"`
}
