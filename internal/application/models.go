package application

import (
	"time"

	"github.com/example/stacklyhub/internal/policy"
	"github.com/example/stacklyhub/internal/reminder"
)

// Role aliases the policy role so callers only import one package.
type Role = policy.Role

const (
	RoleAdmin   = policy.RoleAdmin
	RoleTrainer = policy.RoleTrainer
	RoleTrainee = policy.RoleTrainee
)

// SessionStatus is the lifecycle state of a training session.
type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
	StatusCancelled  SessionStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var transitions = map[SessionStatus][]SessionStatus{
	StatusScheduled:  {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a session may move from s to next.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// User is a roster entry. The current principal is a copy of one of these.
type User struct {
	ID              int    `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Password        string `json:"password,omitempty"`
	Role            Role   `json:"role"`
	IsTemporary     bool   `json:"isTemporary"`
	AssignedTrainer *int   `json:"assignedTrainer"`
}

// Redacted returns a copy without the stored password, for responses.
func (u User) Redacted() User {
	u = copyUser(u)
	u.Password = ""
	return u
}

// Principal identifies the user invoking a service method.
type Principal struct {
	UserID      int
	Role        Role
	IsTemporary bool
}

// PrincipalOf builds the acting principal for a roster entry.
func PrincipalOf(u User) Principal {
	return Principal{UserID: u.ID, Role: u.Role, IsTemporary: u.IsTemporary}
}

func (p Principal) subject() policy.Subject {
	return policy.Subject{UserID: p.UserID, Role: p.Role, IsTemporary: p.IsTemporary}
}

// Attendance records whether an enrolled trainee attended. A trainee with no
// entry has not been marked yet, which is distinct from Present=false.
type Attendance struct {
	Present  bool       `json:"present"`
	JoinedAt *time.Time `json:"joinedAt"`
}

// AttendanceStatus is the per trainee view of an attendance map.
type AttendanceStatus string

const (
	AttendanceUnmarked AttendanceStatus = "unmarked"
	AttendancePresent  AttendanceStatus = "present"
	AttendanceAbsent   AttendanceStatus = "absent"
)

// Session is a scheduled training event.
type Session struct {
	ID          int                `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Trainer     int                `json:"trainer"`
	Trainees    []int              `json:"trainees"`
	StartTime   time.Time          `json:"startTime"`
	Duration    int                `json:"duration"`
	Status      SessionStatus      `json:"status"`
	ClassLink   string             `json:"classLink"`
	Attendance  map[int]Attendance `json:"attendance"`
}

// Enrolled reports whether the trainee is on the session roster.
func (s Session) Enrolled(traineeID int) bool {
	for _, id := range s.Trainees {
		if id == traineeID {
			return true
		}
	}
	return false
}

// Notification and its parts come from the reminder deriver.
type (
	Notification     = reminder.Notification
	NotificationType = reminder.Type
	SessionRef       = reminder.SessionRef
)

const (
	NotificationSessionReminder = reminder.TypeSessionReminder
	NotificationGeneric         = reminder.TypeGeneric
)

// UserInput captures caller provided fields for a new roster entry.
type UserInput struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"notblank"`
	Name            string `json:"name" validate:"notblank"`
	Password        string `json:"password" validate:"required,min=6"`
	Role            Role   `json:"role" validate:"required,oneof=admin trainer trainee"`
	AssignedTrainer *int   `json:"assignedTrainer"`
}

// UserPatch lists optional roster entry changes. Nil fields are left untouched.
type UserPatch struct {
	Email           *string `json:"email" validate:"omitnil,required,email"`
	Username        *string `json:"username" validate:"omitnil,notblank"`
	Name            *string `json:"name" validate:"omitnil,notblank"`
	Password        *string `json:"password" validate:"omitnil,min=6"`
	Role            *Role   `json:"role" validate:"omitnil,oneof=admin trainer trainee"`
	IsTemporary     *bool   `json:"isTemporary"`
	AssignedTrainer *int    `json:"assignedTrainer"`
	// UnassignTrainer clears AssignedTrainer. It cannot be combined with AssignedTrainer.
	UnassignTrainer bool `json:"unassignTrainer"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.Username == nil && p.Name == nil && p.Password == nil &&
		p.Role == nil && p.IsTemporary == nil && p.AssignedTrainer == nil && !p.UnassignTrainer
}

// SessionInput captures caller provided fields for a new session.
type SessionInput struct {
	Title       string    `json:"title" validate:"notblank"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	Duration    int       `json:"duration" validate:"gt=0"`
	ClassLink   string    `json:"classLink" validate:"omitempty,url"`
}

// SessionPatch lists optional session changes. Trainees replaces the roster
// when non-nil; Attendance entries are merged into the existing map.
type SessionPatch struct {
	Title       *string            `json:"title" validate:"omitnil,notblank"`
	Description *string            `json:"description"`
	StartTime   *time.Time         `json:"startTime" validate:"omitnil,required"`
	Duration    *int               `json:"duration" validate:"omitnil,gt=0"`
	Status      *SessionStatus     `json:"status" validate:"omitnil,oneof=scheduled in-progress completed cancelled"`
	ClassLink   *string            `json:"classLink" validate:"omitempty,url"`
	Trainer     *int               `json:"trainer"`
	Trainees    []int              `json:"trainees"`
	Attendance  map[int]Attendance `json:"attendance"`
}

// ProfileInput captures the settings page profile form.
type ProfileInput struct {
	Name     string  `json:"name" validate:"notblank"`
	Email    *string `json:"email" validate:"omitnil,required,email"`
	Username *string `json:"username" validate:"omitnil,notblank"`
}
