package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/auth"
	"github.com/example/stacklyhub/internal/policy"
)

const (
	sessionCookieName  = "session_token"
	sessionTokenHeader = "X-Session-Token"
	requestIDHeader    = "X-Request-ID"
)

// TokenParser verifies session tokens.
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

// PrincipalSource reports the signed in principal.
type PrincipalSource interface {
	Current() (application.User, bool)
}

// RequireSession admits requests whose session token names the store's current
// principal. The principal attached to the context reflects the store's latest
// view of the user, not the role frozen into the token.
func RequireSession(tokens TokenParser, principals PrincipalSource, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_REQUIRED",
					Message:   errMissingSessionToken.Error(),
				})
				return
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				status := http.StatusUnauthorized
				if !errors.Is(err, auth.ErrInvalidToken) {
					status = http.StatusInternalServerError
				}
				responder.loggerFor(ctx).WarnContext(ctx, "session token rejected", "error", err)
				responder.writeJSON(ctx, w, status, errorResponse{
					ErrorCode: "AUTH_SESSION_EXPIRED",
					Message:   "Your session is invalid. Please sign in again.",
				})
				return
			}

			current, ok := principals.Current()
			if !ok || current.ID != claims.UserID {
				responder.loggerFor(ctx).WarnContext(ctx, "session token does not match the signed in principal", "token_user_id", claims.UserID)
				responder.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_SESSION_EXPIRED",
					Message:   "Your session has ended. Please sign in again.",
				})
				return
			}

			ctx = ContextWithPrincipal(ctx, application.PrincipalOf(current))
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("principal_id", current.ID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuardRoutes applies the role based route table to the request path. Temporary
// principals are sent to the password change flow.
func GuardRoutes(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var subject *policy.Subject
			if principal, ok := PrincipalFromContext(ctx); ok {
				subject = &policy.Subject{UserID: principal.UserID, Role: principal.Role, IsTemporary: principal.IsTemporary}
			}

			decision := policy.GuardRoute(subject, r.URL.Path)
			switch {
			case decision.Allowed:
				next.ServeHTTP(w, r)
			case decision.RedirectTo == policy.PathChangePassword:
				responder.handleServiceError(ctx, w, application.ErrPasswordChangeRequired)
			case decision.RedirectTo == policy.PathLogin:
				responder.handleServiceError(ctx, w, application.ErrNotAuthenticated)
			case decision.RedirectTo != "":
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
			default:
				responder.loggerFor(ctx).WarnContext(ctx, "route denied", "route", decision.Path)
				responder.handleServiceError(ctx, w, application.ErrPermissionDenied)
			}
		})
	}
}

// RequestLogger attaches a logger carrying a request id to every request.
// A nil newID uses random UUIDs.
func RequestLogger(base *slog.Logger, newID func() string) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	if newID == nil {
		newID = uuid.NewString
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := newID()
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			w.Header().Set(requestIDHeader, id)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get(sessionTokenHeader)); header != "" {
		return header
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
