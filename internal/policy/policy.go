// Package policy holds the role based authorization table shared by every
// consumer of the training core. Decisions are pure: they depend only on the
// acting subject, the action and, for ownership scoped rules, the resource.
package policy

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is returned when the subject's role does not permit the action.
	ErrPermissionDenied = errors.New("policy: permission denied")
	// ErrPasswordChangeRequired is returned for temporary accounts attempting anything but a password change.
	ErrPasswordChangeRequired = errors.New("policy: password change required")
)

// Role identifies the privilege tier of a principal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleTrainee Role = "trainee"
)

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleTrainee:
		return true
	}
	return false
}

// Action names an operation gated by the policy.
type Action string

const (
	ActionViewDashboard       Action = "dashboard.view"
	ActionManageUsers         Action = "users.manage"
	ActionCreateUser          Action = "users.create"
	ActionDeleteUser          Action = "users.delete"
	ActionAssignTrainer       Action = "users.assign_trainer"
	ActionViewAnalytics       Action = "analytics.view"
	ActionEditSettings        Action = "settings.edit"
	ActionEditDisplayName     Action = "profile.edit_name"
	ActionChangePassword      Action = "profile.change_password"
	ActionViewSessions        Action = "sessions.view"
	ActionViewCalendar        Action = "calendar.view"
	ActionCreateSession       Action = "sessions.create"
	ActionEditSession         Action = "sessions.edit"
	ActionDeleteSession       Action = "sessions.delete"
	ActionEnrollTrainees      Action = "sessions.enroll"
	ActionMarkAttendance      Action = "sessions.attendance"
	ActionUpdateSessionStatus Action = "sessions.status"
	ActionJoinSession         Action = "sessions.join"
	ActionViewNotifications   Action = "notifications.view"
)

// Rule is the outcome of a table lookup before any resource is inspected.
type Rule int

const (
	// Deny refuses the action outright.
	Deny Rule = iota
	// Allow permits the action on any resource.
	Allow
	// AllowOwn permits the action only on resources owned by the subject.
	AllowOwn
	// AllowAssigned permits the action only on trainees assigned to the subject.
	AllowAssigned
	// AllowEnrolled permits the action only on sessions the subject is enrolled in.
	AllowEnrolled
)

func (r Rule) String() string {
	switch r {
	case Allow:
		return "allow"
	case AllowOwn:
		return "allow_own"
	case AllowAssigned:
		return "allow_assigned"
	case AllowEnrolled:
		return "allow_enrolled"
	default:
		return "deny"
	}
}

type grants struct {
	admin, trainer, trainee Rule
}

var table = map[Action]grants{
	ActionViewDashboard:       {Allow, Allow, Allow},
	ActionManageUsers:         {Allow, AllowAssigned, Deny},
	ActionCreateUser:          {Allow, Deny, Deny},
	ActionDeleteUser:          {Allow, Deny, Deny},
	ActionAssignTrainer:       {Allow, Deny, Deny},
	ActionViewAnalytics:       {Allow, Deny, Deny},
	ActionEditSettings:        {Allow, Deny, Deny},
	ActionEditDisplayName:     {Allow, Allow, Allow},
	ActionChangePassword:      {Allow, Allow, Allow},
	ActionViewSessions:        {Allow, Allow, Allow},
	ActionViewCalendar:        {Allow, Allow, Allow},
	ActionCreateSession:       {Allow, Allow, Deny},
	ActionEditSession:         {Allow, AllowOwn, Deny},
	ActionDeleteSession:       {Allow, AllowOwn, Deny},
	ActionEnrollTrainees:      {Allow, AllowOwn, Deny},
	ActionMarkAttendance:      {Allow, AllowOwn, Deny},
	ActionUpdateSessionStatus: {Allow, AllowOwn, Deny},
	ActionJoinSession:         {Deny, Deny, AllowEnrolled},
	ActionViewNotifications:   {Allow, Allow, Allow},
}

// Decide looks up the rule for a role and action. Unknown roles or actions are denied.
func Decide(role Role, action Action) Rule {
	g, ok := table[action]
	if !ok {
		return Deny
	}
	switch role {
	case RoleAdmin:
		return g.admin
	case RoleTrainer:
		return g.trainer
	case RoleTrainee:
		return g.trainee
	default:
		return Deny
	}
}

// Subject is the acting principal as seen by the policy.
type Subject struct {
	UserID      int
	Role        Role
	IsTemporary bool
}

// Resource describes the target of a scoped rule. OwnerID is the trainer of a
// session or the assigned trainer of a trainee record.
type Resource struct {
	OwnerID  int
	Enrolled bool
}

// Can reports whether the subject may attempt the action at all. Scoped rules
// pass here; callers must narrow the result set or call Authorize per resource.
func Can(subject Subject, action Action) error {
	if subject.IsTemporary && action != ActionChangePassword {
		return ErrPasswordChangeRequired
	}
	if Decide(subject.Role, action) == Deny {
		return fmt.Errorf("%w: %s may not %s", ErrPermissionDenied, subject.Role, action)
	}
	return nil
}

// Authorize evaluates the action against a concrete resource.
func Authorize(subject Subject, action Action, resource Resource) error {
	if err := Can(subject, action); err != nil {
		return err
	}
	switch rule := Decide(subject.Role, action); rule {
	case Allow:
		return nil
	case AllowOwn, AllowAssigned:
		if resource.OwnerID == subject.UserID {
			return nil
		}
	case AllowEnrolled:
		if resource.Enrolled {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not %s this resource", ErrPermissionDenied, subject.Role, action)
}
