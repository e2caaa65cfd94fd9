package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

func trainee(id int) Recipient { return Recipient{UserID: id, IsTrainee: true} }

func TestDerive(t *testing.T) {
	t.Parallel()

	t.Run("session three minutes out yields one unread reminder", func(t *testing.T) {
		t.Parallel()

		sessions := []Session{{ID: 7, Title: "Go Basics", Trainees: []int{3}, StartTime: base.Add(3 * time.Minute), Status: StatusScheduled, ClassLink: "https://meet.example/go"}}
		got := Derive(sessions, trainee(3), base, nil)

		require.Len(t, got, 1)
		assert.Equal(t, "session-7", got[0].ID)
		assert.Equal(t, TypeSessionReminder, got[0].Type)
		assert.False(t, got[0].Read)
		assert.Equal(t, "Go Basics starts in 5 minutes", got[0].Message)
		require.NotNil(t, got[0].Session)
		assert.Equal(t, "https://meet.example/go", got[0].Session.ClassLink)
	})

	t.Run("window bounds are exclusive of now and inclusive of horizon", func(t *testing.T) {
		t.Parallel()

		sessions := []Session{
			{ID: 1, Trainees: []int{3}, StartTime: base, Status: StatusScheduled},
			{ID: 2, Trainees: []int{3}, StartTime: base.Add(5 * time.Minute), Status: StatusScheduled},
			{ID: 3, Trainees: []int{3}, StartTime: base.Add(5*time.Minute + time.Second), Status: StatusScheduled},
			{ID: 4, Trainees: []int{3}, StartTime: base.Add(-time.Minute), Status: StatusScheduled},
		}
		got := Derive(sessions, trainee(3), base, nil)

		require.Len(t, got, 1)
		assert.Equal(t, "session-2", got[0].ID)
	})

	t.Run("skips sessions that are not scheduled or not enrolled", func(t *testing.T) {
		t.Parallel()

		sessions := []Session{
			{ID: 1, Trainees: []int{3}, StartTime: base.Add(time.Minute), Status: "cancelled"},
			{ID: 2, Trainees: []int{4}, StartTime: base.Add(time.Minute), Status: StatusScheduled},
		}
		assert.Empty(t, Derive(sessions, trainee(3), base, nil))
	})

	t.Run("replaces reminders and preserves other notifications", func(t *testing.T) {
		t.Parallel()

		previous := []Notification{
			{ID: "session-99", Type: TypeSessionReminder, Read: true},
			{ID: "welcome", Type: TypeGeneric, Title: "Welcome"},
		}
		sessions := []Session{{ID: 5, Title: "Intro", Trainees: []int{3}, StartTime: base.Add(2 * time.Minute), Status: StatusScheduled}}

		got := Derive(sessions, trainee(3), base, previous)

		require.Len(t, got, 2)
		assert.Equal(t, "welcome", got[0].ID)
		assert.Equal(t, "session-5", got[1].ID)
	})

	t.Run("is deterministic for unchanged inputs", func(t *testing.T) {
		t.Parallel()

		sessions := []Session{
			{ID: 2, Title: "B", Trainees: []int{3}, StartTime: base.Add(4 * time.Minute), Status: StatusScheduled},
			{ID: 1, Title: "A", Trainees: []int{3}, StartTime: base.Add(4 * time.Minute), Status: StatusScheduled},
		}
		first := Derive(sessions, trainee(3), base, nil)
		second := Derive(sessions, trainee(3), base, first)

		assert.Equal(t, first, second)
		assert.Equal(t, "session-1", first[0].ID)
	})

	t.Run("non trainees keep previous notifications untouched", func(t *testing.T) {
		t.Parallel()

		previous := []Notification{{ID: "session-1", Type: TypeSessionReminder}}
		sessions := []Session{{ID: 2, Trainees: []int{2}, StartTime: base.Add(time.Minute), Status: StatusScheduled}}

		got := Derive(sessions, Recipient{UserID: 2}, base, previous)
		assert.Equal(t, previous, got)
	})
}

func TestDeriverWindow(t *testing.T) {
	t.Parallel()

	d := New(15 * time.Minute)
	sessions := []Session{{ID: 1, Title: "Later", Trainees: []int{3}, StartTime: base.Add(12 * time.Minute), Status: StatusScheduled}}

	got := d.Derive(sessions, trainee(3), base, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Later starts in 15 minutes", got[0].Message)

	assert.Equal(t, DefaultWindow, New(0).Window)
}
