package policy

import "strings"

const (
	PathDashboard      = "/dashboard"
	PathUsers          = "/users"
	PathSessions       = "/sessions"
	PathAnalytics      = "/analytics"
	PathSettings       = "/settings"
	PathCalendar       = "/calendar"
	PathLogin          = "/login"
	PathChangePassword = "/change-password"
)

var routeActions = map[string]Action{
	PathDashboard: ActionViewDashboard,
	PathUsers:     ActionManageUsers,
	PathSessions:  ActionViewSessions,
	PathAnalytics: ActionViewAnalytics,
	PathSettings:  ActionEditSettings,
	PathCalendar:  ActionViewCalendar,
}

// RouteDecision is the outcome of guarding a dashboard path. A decision that is
// neither allowed nor redirected means access denied.
type RouteDecision struct {
	Path       string
	Allowed    bool
	RedirectTo string
}

// Denied reports whether the route resolved to an access denied page.
func (d RouteDecision) Denied() bool {
	return !d.Allowed && d.RedirectTo == ""
}

// RouteFor resolves a request path onto one of the known top level routes.
// Nested paths map to their first segment; the root and unknown paths yield false.
func RouteFor(path string) (string, bool) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", false
	}
	first, _, _ := strings.Cut(trimmed, "/")
	route := "/" + first
	if _, ok := routeActions[route]; !ok {
		return "", false
	}
	return route, true
}

// GuardRoute decides what happens when subject navigates to path. A nil subject
// is unauthenticated.
func GuardRoute(subject *Subject, path string) RouteDecision {
	route, ok := RouteFor(path)
	if !ok {
		return RouteDecision{Path: path, RedirectTo: PathDashboard}
	}
	if subject == nil {
		return RouteDecision{Path: route, RedirectTo: PathLogin}
	}
	if subject.IsTemporary {
		return RouteDecision{Path: route, RedirectTo: PathChangePassword}
	}
	if Decide(subject.Role, routeActions[route]) == Deny {
		return RouteDecision{Path: route}
	}
	return RouteDecision{Path: route, Allowed: true}
}

// NavItem is one sidebar entry.
type NavItem struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// Navigation lists the sidebar entries shown to a role.
func Navigation(role Role) []NavItem {
	switch role {
	case RoleAdmin:
		return []NavItem{
			{Name: "Dashboard", Href: PathDashboard},
			{Name: "Users", Href: PathUsers},
			{Name: "Sessions", Href: PathSessions},
			{Name: "Analytics", Href: PathAnalytics},
			{Name: "Settings", Href: PathSettings},
		}
	case RoleTrainer:
		return []NavItem{
			{Name: "Dashboard", Href: PathDashboard},
			{Name: "Sessions", Href: PathSessions},
			{Name: "My Trainees", Href: PathUsers},
			{Name: "Calendar", Href: PathCalendar},
		}
	case RoleTrainee:
		return []NavItem{
			{Name: "Dashboard", Href: PathDashboard},
			{Name: "My Sessions", Href: PathSessions},
			{Name: "Calendar", Href: PathCalendar},
		}
	default:
		return nil
	}
}
