package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/auth"
	"github.com/example/stacklyhub/internal/policy"
)

type principalStore interface {
	Authenticate(ctx context.Context, email, password string) (application.User, error)
	SignOut(ctx context.Context)
	Current() (application.User, bool)
	UnreadCount() int
}

type tokenIssuer interface {
	Issue(userID int, role policy.Role) (string, auth.Claims, error)
}

type temporaryPasswordChanger interface {
	ChangeTemporaryPassword(ctx context.Context, newPassword, confirm string) (application.User, error)
}

// AuthHandler signs principals in and out and serves the forced password change.
type AuthHandler struct {
	store     principalStore
	tokens    tokenIssuer
	accounts  temporaryPasswordChanger
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(store principalStore, tokens tokenIssuer, accounts temporaryPasswordChanger, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{store: store, tokens: tokens, accounts: accounts, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	// Emails are matched exactly, so only surrounding whitespace is dropped.
	email := strings.TrimSpace(req.Email)
	logger := h.log(r.Context(), "Login", "email", email)

	user, err := h.store.Authenticate(r.Context(), email, req.Password)
	if err != nil {
		logger.WarnContext(r.Context(), "authentication rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	token, claims, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to issue session token", "error", err)
		h.store.SignOut(r.Context())
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	expiresAt := claims.ExpiresAt.Time
	setSessionCookie(w, token, expiresAt)
	w.Header().Set(sessionTokenHeader, token)

	logger.InfoContext(r.Context(), "user authenticated", "user_id", user.ID, "temporary", user.IsTemporary)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Token:                  token,
		ExpiresAt:              expiresAt.UTC().Format(time.RFC3339),
		User:                   user.Redacted(),
		PasswordChangeRequired: user.IsTemporary,
		Navigation:             policy.Navigation(user.Role),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.store.SignOut(r.Context())
	clearSessionCookie(w)
	h.log(r.Context(), "Logout", "user_id", principal.UserID).InfoContext(r.Context(), "user signed out")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.store.Current()
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotAuthenticated)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meResponse{
		User:                   user.Redacted(),
		PasswordChangeRequired: user.IsTemporary,
		Navigation:             policy.Navigation(user.Role),
		UnreadNotifications:    h.store.UnreadCount(),
	})
}

func (h *AuthHandler) ChangeTemporaryPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.accounts.ChangeTemporaryPassword(r.Context(), req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: user.Redacted()})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token                  string           `json:"token"`
	ExpiresAt              string           `json:"expiresAt"`
	User                   application.User `json:"user"`
	PasswordChangeRequired bool             `json:"passwordChangeRequired"`
	Navigation             []policy.NavItem `json:"navigation"`
}

type meResponse struct {
	User                   application.User `json:"user"`
	PasswordChangeRequired bool             `json:"passwordChangeRequired"`
	Navigation             []policy.NavItem `json:"navigation"`
	UnreadNotifications    int              `json:"unreadNotifications"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type userResponse struct {
	User application.User `json:"user"`
}
