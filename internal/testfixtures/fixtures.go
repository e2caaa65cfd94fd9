package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/stacklyhub/internal/application"
)

var (
	userCounter    int64 = 100
	sessionCounter int64 = 100
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic roster entry. Generated ids start above the
// seeded roster so fixtures can be appended to it.
type UserFixture struct {
	ID              int
	Email           string
	Username        string
	Name            string
	Password        string
	Role            application.Role
	IsTemporary     bool
	AssignedTrainer *int
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a trainee fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddInt64(&userCounter, 1)
	fixture := UserFixture{
		ID:       int(idx),
		Email:    fmt.Sprintf("user%03d@example.com", idx),
		Username: fmt.Sprintf("user%03d", idx),
		Name:     fmt.Sprintf("User %03d", idx),
		Password: "secret123",
		Role:     application.RoleTrainee,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated id.
func WithUserID(id int) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserName overrides the display name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) { f.Name = name }
}

// WithUserPassword overrides the password.
func WithUserPassword(password string) UserOption {
	return func(f *UserFixture) { f.Password = password }
}

// WithUserRole overrides the role.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithTemporaryPassword marks the fixture as needing a password change.
func WithTemporaryPassword() UserOption {
	return func(f *UserFixture) { f.IsTemporary = true }
}

// WithAssignedTrainer assigns the fixture to a trainer.
func WithAssignedTrainer(trainerID int) UserOption {
	return func(f *UserFixture) { f.AssignedTrainer = &trainerID }
}

// Application converts the fixture into a roster entry.
func (f UserFixture) Application() application.User {
	var trainer *int
	if f.AssignedTrainer != nil {
		id := *f.AssignedTrainer
		trainer = &id
	}
	return application.User{
		ID:              f.ID,
		Email:           f.Email,
		Username:        f.Username,
		Name:            f.Name,
		Password:        f.Password,
		Role:            f.Role,
		IsTemporary:     f.IsTemporary,
		AssignedTrainer: trainer,
	}
}

// Input converts the fixture into create user input.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{
		Email:           f.Email,
		Username:        f.Username,
		Name:            f.Name,
		Password:        f.Password,
		Role:            f.Role,
		AssignedTrainer: f.Application().AssignedTrainer,
	}
}

// Principal returns the acting principal for the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.PrincipalOf(f.Application())
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture is a deterministic training session.
type SessionFixture struct {
	ID          int
	Title       string
	Description string
	Trainer     int
	Trainees    []int
	StartTime   time.Time
	Duration    int
	Status      application.SessionStatus
	ClassLink   string
	Attendance  map[int]application.Attendance
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a scheduled session owned by the seeded trainer.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddInt64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:          int(idx),
		Title:       fmt.Sprintf("Session %03d", idx),
		Description: "Fixture session",
		Trainer:     2,
		Trainees:    []int{},
		StartTime:   referenceTime.Add(time.Duration(idx) * time.Hour),
		Duration:    60,
		Status:      application.StatusScheduled,
		ClassLink:   fmt.Sprintf("https://meet.example.com/session-%03d", idx),
		Attendance:  map[int]application.Attendance{},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated id.
func WithSessionID(id int) SessionOption {
	return func(f *SessionFixture) { f.ID = id }
}

// WithSessionTitle overrides the title.
func WithSessionTitle(title string) SessionOption {
	return func(f *SessionFixture) { f.Title = title }
}

// WithSessionTrainer overrides the owning trainer.
func WithSessionTrainer(trainerID int) SessionOption {
	return func(f *SessionFixture) { f.Trainer = trainerID }
}

// WithSessionTrainees sets the enrolled trainees.
func WithSessionTrainees(ids ...int) SessionOption {
	return func(f *SessionFixture) { f.Trainees = append([]int(nil), ids...) }
}

// WithSessionStart overrides the start time.
func WithSessionStart(start time.Time) SessionOption {
	return func(f *SessionFixture) { f.StartTime = start }
}

// WithSessionDuration overrides the duration in minutes.
func WithSessionDuration(minutes int) SessionOption {
	return func(f *SessionFixture) { f.Duration = minutes }
}

// WithSessionStatus overrides the status.
func WithSessionStatus(status application.SessionStatus) SessionOption {
	return func(f *SessionFixture) { f.Status = status }
}

// WithSessionClassLink overrides the class link. An empty link means none.
func WithSessionClassLink(link string) SessionOption {
	return func(f *SessionFixture) { f.ClassLink = link }
}

// WithSessionAttendance records attendance for a trainee.
func WithSessionAttendance(traineeID int, present bool, joinedAt *time.Time) SessionOption {
	return func(f *SessionFixture) {
		if f.Attendance == nil {
			f.Attendance = map[int]application.Attendance{}
		}
		f.Attendance[traineeID] = application.Attendance{Present: present, JoinedAt: joinedAt}
	}
}

// Application converts the fixture into a roster session.
func (f SessionFixture) Application() application.Session {
	attendance := make(map[int]application.Attendance, len(f.Attendance))
	for id, a := range f.Attendance {
		attendance[id] = a
	}
	return application.Session{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Trainer:     f.Trainer,
		Trainees:    append([]int{}, f.Trainees...),
		StartTime:   f.StartTime,
		Duration:    f.Duration,
		Status:      f.Status,
		ClassLink:   f.ClassLink,
		Attendance:  attendance,
	}
}

// Input converts the fixture into create session input.
func (f SessionFixture) Input() application.SessionInput {
	return application.SessionInput{
		Title:       f.Title,
		Description: f.Description,
		StartTime:   f.StartTime,
		Duration:    f.Duration,
		ClassLink:   f.ClassLink,
	}
}
