package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/example/stacklyhub/internal/policy"
)

// RouterConfig wires handlers and middleware dependencies into the router.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Sessions      *SessionHandler
	Notifications *NotificationHandler
	Analytics     *AnalyticsHandler
	Settings      *SettingsHandler
	Drafts        *DraftHandler

	Tokens     TokenParser
	Principals PrincipalSource
	Logger     *slog.Logger

	// CORSOrigins defaults to any origin when empty.
	CORSOrigins []string
	// RequestID generates request ids; nil uses random UUIDs.
	RequestID func() string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(logger, cfg.RequestID))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", sessionTokenHeader},
		ExposedHeaders:   []string{sessionTokenHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		newResponder(logger).writeJSON(req.Context(), w, http.StatusOK, map[string]any{"ok": true, "time": time.Now().UTC()})
	})

	if cfg.Auth != nil {
		r.Post(policy.PathLogin, cfg.Auth.Login)
	}

	// Session only: reachable while a temporary password is pending.
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(cfg.Tokens, cfg.Principals, logger))

		if cfg.Auth != nil {
			r.Post("/logout", cfg.Auth.Logout)
			r.Get("/me", cfg.Auth.Me)
			r.Post(policy.PathChangePassword, cfg.Auth.ChangeTemporaryPassword)
		}
		if cfg.Settings != nil {
			r.Put("/me/profile", cfg.Settings.UpdateProfile)
			r.Put("/me/password", cfg.Settings.ChangePassword)
		}
		if cfg.Notifications != nil {
			r.Get("/notifications", cfg.Notifications.List)
			r.Post("/notifications/{id}/read", cfg.Notifications.MarkRead)
		}
		if cfg.Drafts != nil {
			r.Get("/drafts/{key}", cfg.Drafts.Get)
			r.Put("/drafts/{key}", cfg.Drafts.Put)
			r.Delete("/drafts/{key}", cfg.Drafts.Delete)
		}
	})

	// Page routes: the role based route table applies on top of the session.
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(cfg.Tokens, cfg.Principals, logger))
		r.Use(GuardRoutes(logger))

		if cfg.Analytics != nil {
			r.Get(policy.PathDashboard, cfg.Analytics.Dashboard)
			r.Get(policy.PathAnalytics, cfg.Analytics.Overview)
			r.Get(policy.PathAnalytics+"/export", cfg.Analytics.Export)
		}
		if cfg.Users != nil {
			r.Route(policy.PathUsers, func(r chi.Router) {
				r.Get("/", cfg.Users.List)
				r.Post("/", cfg.Users.Create)
				r.Patch("/{id}", cfg.Users.Update)
				r.Delete("/{id}", cfg.Users.Delete)
				r.Put("/{id}/trainer", cfg.Users.AssignTrainer)
			})
		}
		if cfg.Sessions != nil {
			r.Get(policy.PathCalendar, cfg.Sessions.Calendar)
			r.Route(policy.PathSessions, func(r chi.Router) {
				r.Get("/", cfg.Sessions.List)
				r.Post("/", cfg.Sessions.Create)
				r.Patch("/{id}", cfg.Sessions.Update)
				r.Delete("/{id}", cfg.Sessions.Delete)
				r.Get("/{id}/available-trainees", cfg.Sessions.AvailableTrainees)
				r.Post("/{id}/trainees", cfg.Sessions.Enroll)
				r.Put("/{id}/attendance", cfg.Sessions.MarkAttendance)
				r.Put("/{id}/status", cfg.Sessions.UpdateStatus)
				r.Post("/{id}/join", cfg.Sessions.Join)
			})
		}
		if cfg.Settings != nil {
			r.Get(policy.PathSettings, cfg.Settings.Profile)
			r.Put(policy.PathSettings+"/profile", cfg.Settings.UpdateProfile)
			r.Put(policy.PathSettings+"/password", cfg.Settings.ChangePassword)
		}
	})

	r.Get("/", redirectToDashboard)
	r.NotFound(redirectToDashboard)

	return r
}

func redirectToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, policy.PathDashboard, http.StatusFound)
}
