package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/example/stacklyhub/internal/policy"
)

// SessionRoster is the slice of the Store the session service works against.
type SessionRoster interface {
	Users() []User
	Sessions() []Session
	Session(id int) (Session, error)
	CreateSession(ctx context.Context, input SessionInput) (Session, error)
	UpdateSessionByID(ctx context.Context, id int, patch SessionPatch) (Session, error)
	DeleteSessionByID(ctx context.Context, id int) error
}

// SessionService applies the session lifecycle rules on top of the roster.
type SessionService struct {
	roster SessionRoster
	now    func() time.Time
	logger *slog.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(roster SessionRoster, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(roster, now, nil)
}

// NewSessionServiceWithLogger constructs a SessionService with a specified logger.
func NewSessionServiceWithLogger(roster SessionRoster, now func() time.Time, logger *slog.Logger) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{roster: roster, now: now, logger: defaultLogger(logger)}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// ListVisible returns the sessions principal may see ordered by start time:
// everything for admins, owned sessions for trainers and enrolled sessions for trainees.
func (s *SessionService) ListVisible(ctx context.Context, principal Principal) ([]Session, error) {
	if err := policy.Can(principal.subject(), policy.ActionViewSessions); err != nil {
		return nil, err
	}

	var out []Session
	for _, sess := range s.roster.Sessions() {
		switch principal.Role {
		case RoleAdmin:
			out = append(out, sess)
		case RoleTrainer:
			if sess.Trainer == principal.UserID {
				out = append(out, sess)
			}
		case RoleTrainee:
			if sess.Enrolled(principal.UserID) {
				out = append(out, sess)
			}
		}
	}
	sortByStart(out)
	return out, nil
}

// Create schedules a new session owned by principal.
func (s *SessionService) Create(ctx context.Context, principal Principal, input SessionInput) (Session, error) {
	if err := policy.Can(principal.subject(), policy.ActionCreateSession); err != nil {
		s.loggerWith(ctx, "Create", "user_id", principal.UserID).
			WarnContext(ctx, "session creation denied", "error", err, "error_kind", ErrorKind(err))
		return Session{}, err
	}
	return s.roster.CreateSession(ctx, input)
}

// Update edits a session's details. Trainers may only edit their own.
func (s *SessionService) Update(ctx context.Context, principal Principal, id int, patch SessionPatch) (Session, error) {
	if _, err := s.authorizeOwner(ctx, principal, policy.ActionEditSession, id); err != nil {
		return Session{}, err
	}
	if patch.Trainer != nil && principal.Role != RoleAdmin {
		return Session{}, fmt.Errorf("%w: only admins reassign sessions", ErrPermissionDenied)
	}
	// Roster and attendance changes go through Enroll and MarkAttendance.
	vErr := &ValidationError{}
	if patch.Trainees != nil {
		vErr.add("trainees", "trainees are changed through enrollment")
	}
	if patch.Attendance != nil {
		vErr.add("attendance", "attendance is changed through attendance marking")
	}
	if err := vErr.orNil(); err != nil {
		return Session{}, err
	}
	return s.roster.UpdateSessionByID(ctx, id, patch)
}

// Delete removes a session. Trainers may only delete their own.
func (s *SessionService) Delete(ctx context.Context, principal Principal, id int) error {
	if _, err := s.authorizeOwner(ctx, principal, policy.ActionDeleteSession, id); err != nil {
		return err
	}
	return s.roster.DeleteSessionByID(ctx, id)
}

// AvailableTrainees lists trainees not yet enrolled in the session, ordered by id.
func (s *SessionService) AvailableTrainees(ctx context.Context, principal Principal, id int) ([]User, error) {
	session, err := s.authorizeOwner(ctx, principal, policy.ActionEnrollTrainees, id)
	if err != nil {
		return nil, err
	}

	var out []User
	for _, u := range s.roster.Users() {
		if u.Role == RoleTrainee && !session.Enrolled(u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

// Enroll appends trainees to the session roster. Ids already enrolled or repeated
// in traineeIDs are skipped; every id must belong to a trainee.
func (s *SessionService) Enroll(ctx context.Context, principal Principal, id int, traineeIDs []int) (session Session, err error) {
	logger := s.loggerWith(ctx, "Enroll", "session_id", id, "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "enrollment failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	session, err = s.authorizeOwner(ctx, principal, policy.ActionEnrollTrainees, id)
	if err != nil {
		return
	}

	vErr := &ValidationError{}
	if len(traineeIDs) == 0 {
		vErr.add("trainees", "select at least one trainee")
	}
	roles := make(map[int]Role)
	for _, u := range s.roster.Users() {
		roles[u.ID] = u.Role
	}
	for _, traineeID := range traineeIDs {
		if roles[traineeID] != RoleTrainee {
			vErr.add("trainees", fmt.Sprintf("user %d is not a trainee", traineeID))
		}
	}
	if err = vErr.orNil(); err != nil {
		return
	}

	trainees := slices.Clone(session.Trainees)
	added := 0
	for _, traineeID := range traineeIDs {
		if !slices.Contains(trainees, traineeID) {
			trainees = append(trainees, traineeID)
			added++
		}
	}
	if added == 0 {
		return session, nil
	}

	session, err = s.roster.UpdateSessionByID(ctx, id, SessionPatch{Trainees: trainees})
	if err == nil {
		logger.InfoContext(ctx, "trainees enrolled", "added", added)
	}
	return
}

// MarkAttendance records attendance for enrolled trainees. Present trainees get
// the current time as joinedAt; trainees left out of marks stay unmarked.
func (s *SessionService) MarkAttendance(ctx context.Context, principal Principal, id int, marks map[int]bool) (Session, error) {
	if _, err := s.authorizeOwner(ctx, principal, policy.ActionMarkAttendance, id); err != nil {
		return Session{}, err
	}

	now := s.now()
	attendance := make(map[int]Attendance, len(marks))
	for traineeID, present := range marks {
		entry := Attendance{Present: present}
		if present {
			joined := now
			entry.JoinedAt = &joined
		}
		attendance[traineeID] = entry
	}

	session, err := s.roster.UpdateSessionByID(ctx, id, SessionPatch{Attendance: attendance})
	if err != nil {
		return Session{}, err
	}
	s.loggerWith(ctx, "MarkAttendance", "session_id", id, "user_id", principal.UserID).
		InfoContext(ctx, "attendance recorded", "marked", len(marks), "rate", AttendanceRate(session))
	return session, nil
}

// UpdateStatus moves a session along its lifecycle.
func (s *SessionService) UpdateStatus(ctx context.Context, principal Principal, id int, status SessionStatus) (Session, error) {
	session, err := s.authorizeOwner(ctx, principal, policy.ActionUpdateSessionStatus, id)
	if err != nil {
		return Session{}, err
	}
	if !status.Valid() {
		return Session{}, &ValidationError{FieldErrors: map[string]string{"status": fmt.Sprintf("unknown status %q", status)}}
	}
	if !session.Status.CanTransition(status) {
		err = fmt.Errorf("session %d %s to %s: %w", id, session.Status, status, ErrInvalidTransition)
		s.loggerWith(ctx, "UpdateStatus", "session_id", id).
			WarnContext(ctx, "status change rejected", "error", err, "error_kind", ErrorKind(err))
		return Session{}, err
	}
	return s.roster.UpdateSessionByID(ctx, id, SessionPatch{Status: &status})
}

// Join returns the class link of a scheduled session principal is enrolled in.
func (s *SessionService) Join(ctx context.Context, principal Principal, id int) (string, error) {
	session, err := s.roster.Session(id)
	if err != nil {
		return "", err
	}
	resource := policy.Resource{OwnerID: session.Trainer, Enrolled: session.Enrolled(principal.UserID)}
	if err := policy.Authorize(principal.subject(), policy.ActionJoinSession, resource); err != nil {
		return "", err
	}
	if session.Status != StatusScheduled || session.ClassLink == "" {
		return "", fmt.Errorf("session %d: %w", id, ErrClassLinkUnavailable)
	}
	s.loggerWith(ctx, "Join", "session_id", id, "user_id", principal.UserID).InfoContext(ctx, "joining session")
	return session.ClassLink, nil
}

func (s *SessionService) authorizeOwner(ctx context.Context, principal Principal, action policy.Action, id int) (Session, error) {
	session, err := s.roster.Session(id)
	if err != nil {
		return Session{}, err
	}
	if err := policy.Authorize(principal.subject(), action, policy.Resource{OwnerID: session.Trainer}); err != nil {
		s.loggerWith(ctx, string(action), "session_id", id, "user_id", principal.UserID).
			WarnContext(ctx, "action denied", "error", err, "error_kind", ErrorKind(err))
		return Session{}, err
	}
	return session, nil
}

// AttendanceRate is the share of enrolled trainees marked present, as a rounded percentage.
func AttendanceRate(session Session) int {
	if len(session.Trainees) == 0 {
		return 0
	}
	present := 0
	for _, id := range session.Trainees {
		if session.Attendance[id].Present {
			present++
		}
	}
	return percent(present, len(session.Trainees))
}

// AttendanceStatusOf distinguishes unmarked trainees from those marked absent.
func AttendanceStatusOf(session Session, traineeID int) AttendanceStatus {
	entry, ok := session.Attendance[traineeID]
	switch {
	case !ok:
		return AttendanceUnmarked
	case entry.Present:
		return AttendancePresent
	default:
		return AttendanceAbsent
	}
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func sortByStart(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}
