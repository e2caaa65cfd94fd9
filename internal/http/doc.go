// Package http exposes the training hub over a JSON API built on chi.
//
// POST /login is the only public route. Every other route requires the session
// token issued at login, sent as the X-Session-Token header, a bearer token or
// the session_token cookie, and the token must name the principal the store
// currently has signed in.
//
// Page routes (/dashboard, /users, /sessions, /analytics, /settings, /calendar
// and everything below them) additionally pass through the role based route
// guard. A principal holding a temporary password receives 403 with error_code
// PASSWORD_CHANGE_REQUIRED until POST /change-password succeeds.
//
// The root path and unknown paths redirect to /dashboard.
//
// Request and response payloads live next to the handlers that use them.
package http
