package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/stacklyhub/internal/application"
)

type accountService interface {
	ChangePassword(ctx context.Context, current, newPassword, confirm string) (application.User, error)
	UpdateProfile(ctx context.Context, input application.ProfileInput) (application.User, error)
}

// SettingsHandler serves profile and password changes for the signed in principal.
type SettingsHandler struct {
	principals PrincipalSource
	accounts   accountService
	responder  responder
	logger     *slog.Logger
}

func NewSettingsHandler(principals PrincipalSource, accounts accountService, logger *slog.Logger) *SettingsHandler {
	base := defaultLogger(logger)
	return &SettingsHandler{principals: principals, accounts: accounts, responder: newResponder(base), logger: base}
}

func (h *SettingsHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principals.Current()
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotAuthenticated)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: user.Redacted()})
}

func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input application.ProfileInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), input)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "SettingsHandler", "UpdateProfile").
			WarnContext(r.Context(), "profile update rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: user.Redacted()})
}

func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.accounts.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "SettingsHandler", "ChangePassword").
			WarnContext(r.Context(), "password change rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: user.Redacted()})
}
