package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/stacklyhub/internal/persistence"
	"github.com/example/stacklyhub/internal/reminder"
)

// PrincipalListener is told whenever the current principal signs in, is restored or signs out.
// current is nil after sign out.
type PrincipalListener interface {
	PrincipalChanged(ctx context.Context, current *User)
}

// StoreConfig wires the collaborators of a Store.
type StoreConfig struct {
	// Storage persists the current principal. Nil disables persistence.
	Storage persistence.ClientStorage
	// Passwords hashes and compares passwords. Defaults to plaintext.
	Passwords PasswordMatcher
	// ReminderWindow is how far ahead reminders look. Defaults to five minutes.
	ReminderWindow time.Duration
	Now            func() time.Time
	Logger         *slog.Logger
}

// Store owns the user roster, the session roster, the current principal and
// its notifications. Every mutation runs under one lock and is visible to the
// next read.
type Store struct {
	mu            sync.RWMutex
	users         []User
	sessions      []Session
	current       *User
	notifications []Notification

	listenerMu sync.Mutex
	listeners  []PrincipalListener

	storage   persistence.ClientStorage
	passwords PasswordMatcher
	deriver   reminder.Deriver
	validator *inputValidator
	now       func() time.Time
	logger    *slog.Logger
}

// NewStore constructs an empty Store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Passwords == nil {
		cfg.Passwords = PlaintextPasswords{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		storage:   cfg.Storage,
		passwords: cfg.Passwords,
		deriver:   reminder.New(cfg.ReminderWindow),
		validator: defaultValidator,
		now:       cfg.Now,
		logger:    defaultLogger(cfg.Logger),
	}
}

func (s *Store) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "Store", operation, attrs...)
}

// Subscribe registers l for principal changes.
func (s *Store) Subscribe(l PrincipalListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(ctx context.Context, current *User) {
	s.listenerMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenerMu.Unlock()

	for _, l := range listeners {
		var snapshot *User
		if current != nil {
			u := copyUser(*current)
			snapshot = &u
		}
		l.PrincipalChanged(ctx, snapshot)
	}
}

// Seed replaces both rosters. Passwords are run through the configured matcher.
func (s *Store) Seed(ctx context.Context, users []User, sessions []Session) error {
	hashed := make([]User, len(users))
	for i, u := range users {
		stored, err := s.passwords.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
		u = copyUser(u)
		u.Password = stored
		hashed[i] = u
	}

	seeded := make([]Session, len(sessions))
	for i, sess := range sessions {
		seeded[i] = copySession(sess)
	}

	s.mu.Lock()
	s.users = hashed
	s.sessions = seeded
	s.mu.Unlock()

	s.loggerWith(ctx, "Seed").InfoContext(ctx, "roster seeded", "users", len(hashed), "sessions", len(seeded))
	return nil
}

// Authenticate signs in the roster entry whose email and password both match exactly.
func (s *Store) Authenticate(ctx context.Context, email, password string) (user User, err error) {
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded", "user_id", user.ID, "role", user.Role)
	}()

	s.mu.Lock()
	idx := -1
	for i, u := range s.users {
		if u.Email == email && s.passwords.Matches(u.Password, password) {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		err = ErrInvalidCredentials
		return
	}
	user = copyUser(s.users[idx])
	s.setCurrentLocked(user)
	s.mu.Unlock()

	s.persistPrincipal(ctx, user)
	s.notify(ctx, &user)
	return user, nil
}

// SignOut clears the current principal and its notifications.
func (s *Store) SignOut(ctx context.Context) {
	s.mu.Lock()
	was := s.current
	s.current = nil
	s.notifications = nil
	s.mu.Unlock()

	s.forgetPrincipal(ctx)
	if was != nil {
		s.loggerWith(ctx, "SignOut", "user_id", was.ID).InfoContext(ctx, "signed out")
	}
	s.notify(ctx, nil)
}

// Restore reloads the persisted principal. It reports whether one was found.
func (s *Store) Restore(ctx context.Context) (User, bool) {
	logger := s.loggerWith(ctx, "Restore")
	if s.storage == nil {
		return User{}, false
	}

	raw, err := s.storage.Get(ctx, persistence.KeyUser)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			logger.WarnContext(ctx, "failed to read persisted principal", "error", err)
		}
		return User{}, false
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == 0 {
		logger.WarnContext(ctx, "discarding unreadable persisted principal", "error", err)
		return User{}, false
	}

	s.mu.Lock()
	s.setCurrentLocked(user)
	s.mu.Unlock()

	logger.InfoContext(ctx, "principal restored", "user_id", user.ID, "role", user.Role)
	s.notify(ctx, &user)
	return copyUser(user), true
}

func (s *Store) setCurrentLocked(user User) {
	if s.current == nil || s.current.ID != user.ID {
		s.notifications = nil
	}
	u := copyUser(user)
	s.current = &u
}

// UpdateCurrentPrincipal merges patch into the current principal and its roster entry.
func (s *Store) UpdateCurrentPrincipal(ctx context.Context, patch UserPatch) (user User, err error) {
	logger := s.loggerWith(ctx, "UpdateCurrentPrincipal")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "principal update failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		err = ErrNotAuthenticated
		return
	}

	// The roster entry is canonical when it still exists.
	base := *s.current
	idx := s.userIndexLocked(base.ID)
	if idx >= 0 {
		base = s.users[idx]
	}
	updated, err := s.applyUserPatchLocked(base, patch)
	if err != nil {
		s.mu.Unlock()
		return
	}
	if idx >= 0 {
		s.users[idx] = copyUser(updated)
	}
	s.current = &updated
	user = copyUser(updated)
	s.mu.Unlock()

	s.persistPrincipal(ctx, user)
	logger.InfoContext(ctx, "principal updated", "user_id", user.ID)
	return user, nil
}

// CreateUser appends a new roster entry with a temporary password.
func (s *Store) CreateUser(ctx context.Context, input UserInput) (user User, err error) {
	logger := s.loggerWith(ctx, "CreateUser", "email", input.Email, "role", input.Role)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user created", "user_id", user.ID)
	}()

	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	input.Name = strings.TrimSpace(input.Name)
	if vErr := s.validator.check(input); vErr.HasErrors() {
		err = vErr
		return
	}

	stored, err := s.passwords.Hash(input.Password)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(input.Email, 0) {
		err = fmt.Errorf("email %s: %w", input.Email, ErrAlreadyExists)
		return
	}
	if input.AssignedTrainer != nil {
		if input.Role != RoleTrainee {
			err = &ValidationError{FieldErrors: map[string]string{"assignedTrainer": "only trainees have an assigned trainer"}}
			return
		}
		if vErr := s.checkTrainerLocked(*input.AssignedTrainer); vErr != nil {
			err = vErr
			return
		}
	}

	user = User{
		ID:              s.nextUserIDLocked(),
		Email:           input.Email,
		Username:        input.Username,
		Name:            input.Name,
		Password:        stored,
		Role:            input.Role,
		IsTemporary:     true,
		AssignedTrainer: copyIntPtr(input.AssignedTrainer),
	}
	s.users = append(s.users, user)
	return copyUser(user), nil
}

// UpdateUserByID merges patch into the roster entry with id and keeps the current principal in sync.
func (s *Store) UpdateUserByID(ctx context.Context, id int, patch UserPatch) (user User, err error) {
	logger := s.loggerWith(ctx, "UpdateUserByID", "user_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user update failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	s.mu.Lock()
	idx := s.userIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		err = fmt.Errorf("user %d: %w", id, ErrNotFound)
		return
	}

	updated, err := s.applyUserPatchLocked(s.users[idx], patch)
	if err != nil {
		s.mu.Unlock()
		return
	}
	s.users[idx] = updated

	syncCurrent := s.current != nil && s.current.ID == id
	if syncCurrent {
		u := copyUser(updated)
		s.current = &u
	}
	user = copyUser(updated)
	s.mu.Unlock()

	if syncCurrent {
		s.persistPrincipal(ctx, user)
	}
	return user, nil
}

// DeleteUser removes the roster entry with id. References held by sessions and
// other users are left in place. Deleting the current principal signs out.
func (s *Store) DeleteUser(ctx context.Context, id int) (err error) {
	logger := s.loggerWith(ctx, "DeleteUser", "user_id", id)

	s.mu.Lock()
	idx := s.userIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		err = fmt.Errorf("user %d: %w", id, ErrNotFound)
		logger.ErrorContext(ctx, "user deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.users = slices.Delete(s.users, idx, idx+1)
	wasCurrent := s.current != nil && s.current.ID == id
	s.mu.Unlock()

	logger.InfoContext(ctx, "user deleted")
	if wasCurrent {
		s.SignOut(ctx)
	}
	return nil
}

// CreateSession schedules a new session owned by the current principal.
func (s *Store) CreateSession(ctx context.Context, input SessionInput) (session Session, err error) {
	logger := s.loggerWith(ctx, "CreateSession", "title", input.Title)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session created", "session_id", session.ID, "trainer_id", session.Trainer)
	}()

	input.Title = strings.TrimSpace(input.Title)
	input.ClassLink = strings.TrimSpace(input.ClassLink)
	if vErr := s.validator.check(input); vErr.HasErrors() {
		err = vErr
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		err = ErrNotAuthenticated
		return
	}

	session = Session{
		ID:          s.nextSessionIDLocked(),
		Title:       input.Title,
		Description: input.Description,
		Trainer:     s.current.ID,
		Trainees:    []int{},
		StartTime:   input.StartTime,
		Duration:    input.Duration,
		Status:      StatusScheduled,
		ClassLink:   input.ClassLink,
		Attendance:  map[int]Attendance{},
	}
	s.sessions = append(s.sessions, session)
	return copySession(session), nil
}

// UpdateSessionByID applies patch to the session with id. The whole patch is
// rejected when any part of it is invalid.
func (s *Store) UpdateSessionByID(ctx context.Context, id int, patch SessionPatch) (session Session, err error) {
	logger := s.loggerWith(ctx, "UpdateSessionByID", "session_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session update failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if vErr := s.validator.check(patch); vErr.HasErrors() {
		err = vErr
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.sessionIndexLocked(id)
	if idx < 0 {
		err = fmt.Errorf("session %d: %w", id, ErrNotFound)
		return
	}

	updated := copySession(s.sessions[idx])
	vErr := &ValidationError{}

	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.StartTime != nil {
		updated.StartTime = *patch.StartTime
	}
	if patch.Duration != nil {
		updated.Duration = *patch.Duration
	}
	if patch.ClassLink != nil {
		updated.ClassLink = strings.TrimSpace(*patch.ClassLink)
	}
	if patch.Trainer != nil {
		owner := s.userIndexLocked(*patch.Trainer)
		if owner < 0 || (s.users[owner].Role != RoleTrainer && s.users[owner].Role != RoleAdmin) {
			vErr.add("trainer", "trainer must reference an existing trainer")
		} else {
			updated.Trainer = *patch.Trainer
		}
	}
	if patch.Status != nil && *patch.Status != updated.Status {
		if !updated.Status.CanTransition(*patch.Status) {
			err = fmt.Errorf("session %d %s to %s: %w", id, updated.Status, *patch.Status, ErrInvalidTransition)
			return
		}
		updated.Status = *patch.Status
	}
	if patch.Trainees != nil {
		updated.Trainees = dedupe(patch.Trainees)
	}
	for traineeID, mark := range patch.Attendance {
		if !updated.Enrolled(traineeID) {
			vErr.add("attendance", fmt.Sprintf("trainee %d is not enrolled", traineeID))
			continue
		}
		updated.Attendance[traineeID] = copyAttendance(mark)
	}
	if err = vErr.orNil(); err != nil {
		return
	}

	for traineeID := range updated.Attendance {
		if !updated.Enrolled(traineeID) {
			delete(updated.Attendance, traineeID)
		}
	}

	s.sessions[idx] = updated
	return copySession(updated), nil
}

// DeleteSessionByID removes the session with id.
func (s *Store) DeleteSessionByID(ctx context.Context, id int) error {
	logger := s.loggerWith(ctx, "DeleteSessionByID", "session_id", id)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.sessionIndexLocked(id)
	if idx < 0 {
		err := fmt.Errorf("session %d: %w", id, ErrNotFound)
		logger.ErrorContext(ctx, "session deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.sessions = slices.Delete(s.sessions, idx, idx+1)
	logger.InfoContext(ctx, "session deleted")
	return nil
}

// MarkNotificationRead flags the notification with id as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	err := fmt.Errorf("notification %s: %w", id, ErrNotFound)
	s.loggerWith(ctx, "MarkNotificationRead", "notification_id", id).
		WarnContext(ctx, "notification not found", "error", err, "error_kind", ErrorKind(err))
	return err
}

// RefreshNotifications recomputes reminders for the current principal at now.
func (s *Store) RefreshNotifications(ctx context.Context, now time.Time) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.Role != RoleTrainee {
		return cloneNotifications(s.notifications)
	}

	views := make([]reminder.Session, len(s.sessions))
	for i, sess := range s.sessions {
		views[i] = reminder.Session{
			ID:        sess.ID,
			Title:     sess.Title,
			Trainees:  sess.Trainees,
			StartTime: sess.StartTime,
			Status:    string(sess.Status),
			ClassLink: sess.ClassLink,
		}
	}
	recipient := reminder.Recipient{UserID: s.current.ID, IsTrainee: true}
	s.notifications = s.deriver.Derive(views, recipient, now, s.notifications)

	s.loggerWith(ctx, "RefreshNotifications", "user_id", s.current.ID).
		DebugContext(ctx, "notifications refreshed", "count", len(s.notifications))
	return cloneNotifications(s.notifications)
}

// PasswordMatches reports whether candidate is the current principal's password.
func (s *Store) PasswordMatches(candidate string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return false, ErrNotAuthenticated
	}
	return s.passwords.Matches(s.current.Password, candidate), nil
}

// Current returns the signed in principal.
func (s *Store) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return User{}, false
	}
	return copyUser(*s.current), true
}

// Users returns the roster ordered by id.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, len(s.users))
	for i, u := range s.users {
		out[i] = copyUser(u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// User returns the roster entry with id.
func (s *Store) User(id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.userIndexLocked(id)
	if idx < 0 {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return copyUser(s.users[idx]), nil
}

// Sessions returns every session in roster order.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = copySession(sess)
	}
	return out
}

// Session returns the session with id.
func (s *Store) Session(id int) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.sessionIndexLocked(id)
	if idx < 0 {
		return Session{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return copySession(s.sessions[idx]), nil
}

// Notifications returns the current principal's notifications.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotifications(s.notifications)
}

// UnreadCount returns how many notifications are unread.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *Store) applyUserPatchLocked(u User, patch UserPatch) (User, error) {
	if vErr := s.validator.check(patch); vErr.HasErrors() {
		return User{}, vErr
	}

	vErr := &ValidationError{}
	if patch.AssignedTrainer != nil && patch.UnassignTrainer {
		vErr.add("assignedTrainer", "assignedTrainer cannot be set and cleared together")
	}
	if patch.AssignedTrainer != nil {
		vErr.merge(s.checkTrainerLocked(*patch.AssignedTrainer))
		if *patch.AssignedTrainer == u.ID {
			vErr.add("assignedTrainer", "a user cannot be their own trainer")
		}
	}
	role := u.Role
	if patch.Role != nil {
		role = *patch.Role
	}
	if u.Role == RoleTrainer && role != RoleTrainer && s.hasAssignedTraineesLocked(u.ID) {
		vErr.add("role", "trainer still has assigned trainees")
	}
	if role != RoleTrainee && patch.AssignedTrainer != nil {
		vErr.add("assignedTrainer", "only trainees have an assigned trainer")
	}
	if patch.Email != nil && s.emailTakenLocked(strings.TrimSpace(*patch.Email), u.ID) {
		return User{}, fmt.Errorf("email %s: %w", *patch.Email, ErrAlreadyExists)
	}
	if err := vErr.orNil(); err != nil {
		return User{}, err
	}

	u = copyUser(u)
	if patch.Email != nil {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Username != nil {
		u.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Password != nil {
		stored, err := s.passwords.Hash(*patch.Password)
		if err != nil {
			return User{}, err
		}
		u.Password = stored
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.IsTemporary != nil {
		u.IsTemporary = *patch.IsTemporary
	}
	if patch.AssignedTrainer != nil {
		u.AssignedTrainer = copyIntPtr(patch.AssignedTrainer)
	}
	if patch.UnassignTrainer || u.Role != RoleTrainee {
		u.AssignedTrainer = nil
	}
	return u, nil
}

func (s *Store) hasAssignedTraineesLocked(trainerID int) bool {
	for _, other := range s.users {
		if other.AssignedTrainer != nil && *other.AssignedTrainer == trainerID {
			return true
		}
	}
	return false
}

func (s *Store) checkTrainerLocked(id int) *ValidationError {
	idx := s.userIndexLocked(id)
	if idx < 0 || s.users[idx].Role != RoleTrainer {
		return &ValidationError{FieldErrors: map[string]string{"assignedTrainer": "assignedTrainer must reference an existing trainer"}}
	}
	return nil
}

func (s *Store) emailTakenLocked(email string, exceptID int) bool {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) userIndexLocked(id int) int {
	return slices.IndexFunc(s.users, func(u User) bool { return u.ID == id })
}

func (s *Store) sessionIndexLocked(id int) int {
	return slices.IndexFunc(s.sessions, func(sess Session) bool { return sess.ID == id })
}

func (s *Store) nextUserIDLocked() int {
	next := 1
	for _, u := range s.users {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	return next
}

func (s *Store) nextSessionIDLocked() int {
	next := 1
	for _, sess := range s.sessions {
		if sess.ID >= next {
			next = sess.ID + 1
		}
	}
	return next
}

// persistPrincipal writes the principal to client storage. Failures are logged only.
func (s *Store) persistPrincipal(ctx context.Context, user User) {
	if s.storage == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err == nil {
		err = s.storage.Set(ctx, persistence.KeyUser, raw)
	}
	if err != nil {
		s.loggerWith(ctx, "persistPrincipal", "user_id", user.ID).
			WarnContext(ctx, "failed to persist principal", "error", err)
	}
}

func (s *Store) forgetPrincipal(ctx context.Context) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, persistence.KeyUser); err != nil {
		s.loggerWith(ctx, "forgetPrincipal").WarnContext(ctx, "failed to remove persisted principal", "error", err)
	}
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyUser(u User) User {
	u.AssignedTrainer = copyIntPtr(u.AssignedTrainer)
	return u
}

func copyAttendance(a Attendance) Attendance {
	if a.JoinedAt != nil {
		joined := *a.JoinedAt
		a.JoinedAt = &joined
	}
	return a
}

func copySession(sess Session) Session {
	if sess.Trainees != nil {
		sess.Trainees = slices.Clone(sess.Trainees)
	} else {
		sess.Trainees = []int{}
	}
	attendance := make(map[int]Attendance, len(sess.Attendance))
	for id, a := range sess.Attendance {
		attendance[id] = copyAttendance(a)
	}
	sess.Attendance = attendance
	return sess
}

func cloneNotifications(in []Notification) []Notification {
	out := make([]Notification, len(in))
	for i, n := range in {
		if n.Session != nil {
			ref := *n.Session
			n.Session = &ref
		}
		out[i] = n
	}
	return out
}
