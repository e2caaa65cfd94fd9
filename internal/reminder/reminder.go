// Package reminder derives "session starting soon" notifications from the
// session roster. Derivation is stateless: every evaluation recomputes the full
// reminder set and replaces the previous one.
package reminder

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// DefaultWindow is how far ahead of a session start a reminder appears.
const DefaultWindow = 5 * time.Minute

// Type classifies notifications.
type Type string

const (
	TypeSessionReminder Type = "session-reminder"
	TypeGeneric         Type = "generic"
)

// StatusScheduled is the only session status that produces reminders.
const StatusScheduled = "scheduled"

// SessionRef is the slice of a session a notification carries for the join action.
type SessionRef struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	ClassLink string `json:"classLink,omitempty"`
}

// Notification is a derived, ephemeral message for the signed-in principal.
type Notification struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Session   *SessionRef `json:"session,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Read      bool        `json:"read"`
}

// Session is the view of a training session the deriver needs.
type Session struct {
	ID        int
	Title     string
	Trainees  []int
	StartTime time.Time
	Status    string
	ClassLink string
}

// Recipient identifies who reminders are computed for.
type Recipient struct {
	UserID    int
	IsTrainee bool
}

// Deriver computes reminder notifications for a fixed look-ahead window.
type Deriver struct {
	Window time.Duration
}

// New returns a deriver for window, falling back to DefaultWindow when window is not positive.
func New(window time.Duration) Deriver {
	if window <= 0 {
		window = DefaultWindow
	}
	return Deriver{Window: window}
}

// Derive runs the default deriver.
func Derive(sessions []Session, recipient Recipient, now time.Time, previous []Notification) []Notification {
	return New(DefaultWindow).Derive(sessions, recipient, now, previous)
}

// ID returns the notification id used for a session reminder.
func ID(sessionID int) string {
	return fmt.Sprintf("session-%d", sessionID)
}

// Derive returns previous without its reminders followed by a fresh reminder for
// every scheduled session the recipient is enrolled in whose start falls in
// (now, now+window]. Non-trainee recipients get previous back unchanged.
func (d Deriver) Derive(sessions []Session, recipient Recipient, now time.Time, previous []Notification) []Notification {
	if !recipient.IsTrainee {
		return clone(previous)
	}
	window := d.Window
	if window <= 0 {
		window = DefaultWindow
	}
	horizon := now.Add(window)

	out := make([]Notification, 0, len(previous))
	for _, n := range previous {
		if n.Type == TypeSessionReminder {
			continue
		}
		out = append(out, copyNotification(n))
	}

	upcoming := make([]Session, 0)
	for _, s := range sessions {
		if s.Status != StatusScheduled || !slices.Contains(s.Trainees, recipient.UserID) {
			continue
		}
		if s.StartTime.After(now) && !s.StartTime.After(horizon) {
			upcoming = append(upcoming, s)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].StartTime.Equal(upcoming[j].StartTime) {
			return upcoming[i].ID < upcoming[j].ID
		}
		return upcoming[i].StartTime.Before(upcoming[j].StartTime)
	})

	minutes := int(window / time.Minute)
	for _, s := range upcoming {
		out = append(out, Notification{
			ID:        ID(s.ID),
			Type:      TypeSessionReminder,
			Title:     "Session Starting Soon",
			Message:   fmt.Sprintf("%s starts in %d minutes", s.Title, minutes),
			Session:   &SessionRef{ID: s.ID, Title: s.Title, ClassLink: s.ClassLink},
			Timestamp: now,
		})
	}

	return out
}

func clone(in []Notification) []Notification {
	if in == nil {
		return nil
	}
	out := make([]Notification, len(in))
	for i, n := range in {
		out[i] = copyNotification(n)
	}
	return out
}

func copyNotification(n Notification) Notification {
	if n.Session != nil {
		ref := *n.Session
		n.Session = &ref
	}
	return n
}
