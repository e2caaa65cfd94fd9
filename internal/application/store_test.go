package application_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/persistence"
	"github.com/example/stacklyhub/internal/testfixtures"
)

func newServices(t *testing.T, opts ...testfixtures.ServiceFactoryOption) testfixtures.Services {
	t.Helper()
	return testfixtures.NewServiceFactory(opts...).Build(t)
}

func ptr[T any](v T) *T { return &v }

type recordingListener struct {
	mu     sync.Mutex
	events []*application.User
}

func (r *recordingListener) PrincipalChanged(_ context.Context, current *application.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, current)
}

func TestStore_Authenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("matching credentials return the exact record", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		for _, seeded := range application.SeedUsers() {
			user, err := svc.Store.Authenticate(ctx, seeded.Email, seeded.Password)
			require.NoError(t, err)
			assert.Equal(t, seeded, user)

			current, ok := svc.Store.Current()
			require.True(t, ok)
			assert.Equal(t, seeded, current)
		}
	})

	t.Run("persists the principal under the user key", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		svc.SignIn(t, "trainer@company.com", "trainer123")

		raw, err := svc.Storage.Get(ctx, persistence.KeyUser)
		require.NoError(t, err)
		var stored application.User
		require.NoError(t, json.Unmarshal(raw, &stored))
		assert.Equal(t, 2, stored.ID)
	})

	t.Run("non matching pairs fail and leave the principal unchanged", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		svc.SignIn(t, "admin@company.com", "admin123")

		cases := [][2]string{
			{"admin@company.com", "wrong"},
			{"Admin@company.com", "admin123"},
			{"nobody@company.com", "admin123"},
			{"", ""},
		}
		for _, c := range cases {
			_, err := svc.Store.Authenticate(ctx, c[0], c[1])
			assert.ErrorIs(t, err, application.ErrInvalidCredentials)
		}

		current, ok := svc.Store.Current()
		require.True(t, ok)
		assert.Equal(t, 1, current.ID)
	})

	t.Run("argon2 hashed rosters authenticate with the plain password", func(t *testing.T) {
		t.Parallel()

		store := application.NewStore(application.StoreConfig{
			Passwords: application.Argon2Passwords{Params: application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}},
		})
		require.NoError(t, store.Seed(ctx, application.SeedUsers(), nil))

		user, err := store.Authenticate(ctx, "trainee@company.com", "trainee123")
		require.NoError(t, err)
		assert.NotEqual(t, "trainee123", user.Password)
	})
}

func TestStore_SignOutAndRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newServices(t)
	listener := &recordingListener{}
	svc.Store.Subscribe(listener)

	svc.SignIn(t, "trainee@company.com", "trainee123")

	restored := application.NewStore(application.StoreConfig{Storage: svc.Storage})
	user, ok := restored.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, 3, user.ID)

	svc.Store.SignOut(ctx)
	_, ok = svc.Store.Current()
	assert.False(t, ok)
	assert.Empty(t, svc.Store.Notifications())

	_, err := svc.Storage.Get(ctx, persistence.KeyUser)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	_, ok = application.NewStore(application.StoreConfig{Storage: svc.Storage}).Restore(ctx)
	assert.False(t, ok)

	require.Len(t, listener.events, 2)
	require.NotNil(t, listener.events[0])
	assert.Equal(t, 3, listener.events[0].ID)
	assert.Nil(t, listener.events[1])
}

func TestStore_RestoreIgnoresGarbage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newServices(t)
	require.NoError(t, svc.Storage.Set(ctx, persistence.KeyUser, []byte("{not json")))

	_, ok := svc.Store.Restore(ctx)
	assert.False(t, ok)
}

func TestStore_CreateUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("create then delete leaves the roster as it was", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		before := svc.Store.Users()

		created, err := svc.Store.CreateUser(ctx, testfixtures.NewUserFixture().Input())
		require.NoError(t, err)
		assert.Equal(t, 4, created.ID)
		assert.True(t, created.IsTemporary)

		require.NoError(t, svc.Store.DeleteUser(ctx, created.ID))
		after := svc.Store.Users()
		assert.Equal(t, before, after)
		_, err = svc.Store.User(created.ID)
		assert.ErrorIs(t, err, application.ErrNotFound)

		again, err := svc.Store.CreateUser(ctx, testfixtures.NewUserFixture().Input())
		require.NoError(t, err)
		assert.Equal(t, 4, again.ID)
	})

	t.Run("empty roster allocates id 1", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t, testfixtures.WithUsers([]application.User{}...))
		created, err := svc.Store.CreateUser(ctx, testfixtures.NewUserFixture().Input())
		require.NoError(t, err)
		assert.Equal(t, 1, created.ID)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		_, err := svc.Store.CreateUser(ctx, testfixtures.NewUserFixture(testfixtures.WithUserEmail("TRAINER@company.com")).Input())
		assert.ErrorIs(t, err, application.ErrAlreadyExists)
	})

	t.Run("validates fields and trainer assignment", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)

		_, err := svc.Store.CreateUser(ctx, application.UserInput{Email: "bad", Password: "123", Role: "owner"})
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "email")
		assert.Contains(t, vErr.FieldErrors, "password")
		assert.Contains(t, vErr.FieldErrors, "role")

		_, err = svc.Store.CreateUser(ctx, testfixtures.NewUserFixture(testfixtures.WithAssignedTrainer(1)).Input())
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "assignedTrainer")
		assert.Len(t, svc.Store.Users(), 3)
	})

	t.Run("only trainees get an assigned trainer", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		for _, role := range []application.Role{application.RoleAdmin, application.RoleTrainer} {
			input := testfixtures.NewUserFixture(testfixtures.WithUserRole(role), testfixtures.WithAssignedTrainer(2)).Input()
			_, err := svc.Store.CreateUser(ctx, input)
			var vErr *application.ValidationError
			require.ErrorAs(t, err, &vErr, role)
			assert.Contains(t, vErr.FieldErrors, "assignedTrainer", role)
		}
		assert.Len(t, svc.Store.Users(), 3)

		created, err := svc.Store.CreateUser(ctx, testfixtures.NewUserFixture(testfixtures.WithAssignedTrainer(2)).Input())
		require.NoError(t, err)
		require.NotNil(t, created.AssignedTrainer)
		assert.Equal(t, 2, *created.AssignedTrainer)
	})
}

func TestStore_UpdateUserByID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty patch leaves the serialized record unchanged", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		for _, u := range svc.Store.Users() {
			before, err := json.Marshal(u)
			require.NoError(t, err)

			updated, err := svc.Store.UpdateUserByID(ctx, u.ID, application.UserPatch{})
			require.NoError(t, err)
			after, err := json.Marshal(updated)
			require.NoError(t, err)
			assert.JSONEq(t, string(before), string(after))
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		t.Parallel()

		_, err := newServices(t).Store.UpdateUserByID(ctx, 42, application.UserPatch{Name: ptr("Ghost")})
		assert.ErrorIs(t, err, application.ErrNotFound)
	})

	t.Run("keeps the current principal in sync", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		svc.SignIn(t, "trainer@company.com", "trainer123")

		_, err := svc.Store.UpdateUserByID(ctx, 2, application.UserPatch{Name: ptr("Jane Trainer")})
		require.NoError(t, err)

		current, _ := svc.Store.Current()
		assert.Equal(t, "Jane Trainer", current.Name)

		raw, err := svc.Storage.Get(ctx, persistence.KeyUser)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "Jane Trainer")
	})

	t.Run("assigned trainer must reference a trainer", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		_, err := svc.Store.UpdateUserByID(ctx, 3, application.UserPatch{AssignedTrainer: ptr(1)})
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "assignedTrainer")

		updated, err := svc.Store.UpdateUserByID(ctx, 3, application.UserPatch{UnassignTrainer: true})
		require.NoError(t, err)
		assert.Nil(t, updated.AssignedTrainer)
	})

	t.Run("trainer with assigned trainees keeps the role", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		_, err := svc.Store.UpdateUserByID(ctx, 2, application.UserPatch{Role: ptr(application.RoleTrainee)})
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "role")

		trainer, err := svc.Store.User(2)
		require.NoError(t, err)
		assert.Equal(t, application.RoleTrainer, trainer.Role)

		_, err = svc.Store.UpdateUserByID(ctx, 3, application.UserPatch{UnassignTrainer: true})
		require.NoError(t, err)
		demoted, err := svc.Store.UpdateUserByID(ctx, 2, application.UserPatch{Role: ptr(application.RoleTrainee)})
		require.NoError(t, err)
		assert.Equal(t, application.RoleTrainee, demoted.Role)
	})

	t.Run("leaving the trainee role clears the assigned trainer", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		promoted, err := svc.Store.UpdateUserByID(ctx, 3, application.UserPatch{Role: ptr(application.RoleAdmin)})
		require.NoError(t, err)
		assert.Equal(t, application.RoleAdmin, promoted.Role)
		assert.Nil(t, promoted.AssignedTrainer)

		_, err = svc.Store.UpdateUserByID(ctx, 1, application.UserPatch{AssignedTrainer: ptr(2)})
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "assignedTrainer")
	})
}

func TestStore_UpdateCurrentPrincipal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newServices(t)

	_, err := svc.Store.UpdateCurrentPrincipal(ctx, application.UserPatch{Name: ptr("Nobody")})
	assert.ErrorIs(t, err, application.ErrNotAuthenticated)

	svc.SignIn(t, "admin@company.com", "admin123")
	updated, err := svc.Store.UpdateCurrentPrincipal(ctx, application.UserPatch{Name: ptr("Root")})
	require.NoError(t, err)
	assert.Equal(t, "Root", updated.Name)

	entry, err := svc.Store.User(1)
	require.NoError(t, err)
	assert.Equal(t, "Root", entry.Name)
}

func TestStore_DeleteUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("deleting a trainer leaves assigned trainees dangling", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		require.NoError(t, svc.Store.DeleteUser(ctx, 2))

		trainee, err := svc.Store.User(3)
		require.NoError(t, err)
		require.NotNil(t, trainee.AssignedTrainer)
		assert.Equal(t, 2, *trainee.AssignedTrainer)

		_, err = svc.Store.User(2)
		assert.ErrorIs(t, err, application.ErrNotFound)

		session, err := svc.Store.Session(1)
		require.NoError(t, err)
		assert.Equal(t, 2, session.Trainer)
	})

	t.Run("deleting the current principal signs out", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		svc.SignIn(t, "trainee@company.com", "trainee123")

		require.NoError(t, svc.Store.DeleteUser(ctx, 3))
		_, ok := svc.Store.Current()
		assert.False(t, ok)
		_, err := svc.Storage.Get(ctx, persistence.KeyUser)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, newServices(t).Store.DeleteUser(ctx, 77), application.ErrNotFound)
	})
}

func TestStore_Sessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("create requires a principal and forces defaults", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		input := testfixtures.NewSessionFixture().Input()

		_, err := svc.Store.CreateSession(ctx, input)
		assert.ErrorIs(t, err, application.ErrNotAuthenticated)

		svc.SignIn(t, "trainer@company.com", "trainer123")
		created, err := svc.Store.CreateSession(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, 3, created.ID)
		assert.Equal(t, 2, created.Trainer)
		assert.Equal(t, application.StatusScheduled, created.Status)
		assert.Empty(t, created.Trainees)
		assert.NotNil(t, created.Attendance)
		assert.Empty(t, created.Attendance)
	})

	t.Run("attendance keys stay within trainees", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		_, err := svc.Store.UpdateSessionByID(ctx, 1, application.SessionPatch{
			Attendance: map[int]application.Attendance{4: {Present: true}},
		})
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "attendance")

		updated, err := svc.Store.UpdateSessionByID(ctx, 2, application.SessionPatch{Trainees: []int{}})
		require.NoError(t, err)
		assert.Empty(t, updated.Attendance)

		for _, sess := range svc.Store.Sessions() {
			for id := range sess.Attendance {
				assert.True(t, sess.Enrolled(id))
			}
		}
	})

	t.Run("trainees are deduplicated", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		updated, err := svc.Store.UpdateSessionByID(ctx, 1, application.SessionPatch{Trainees: []int{3, 3, 4, 3}})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 4}, updated.Trainees)
	})

	t.Run("status changes follow the lifecycle", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		_, err := svc.Store.UpdateSessionByID(ctx, 2, application.SessionPatch{Status: ptr(application.StatusScheduled)})
		assert.ErrorIs(t, err, application.ErrInvalidTransition)

		updated, err := svc.Store.UpdateSessionByID(ctx, 1, application.SessionPatch{Status: ptr(application.StatusInProgress)})
		require.NoError(t, err)
		assert.Equal(t, application.StatusInProgress, updated.Status)
	})

	t.Run("rejected patches change nothing", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		before, _ := svc.Store.Session(1)
		_, err := svc.Store.UpdateSessionByID(ctx, 1, application.SessionPatch{
			Title:      ptr("Renamed"),
			Attendance: map[int]application.Attendance{9: {Present: true}},
		})
		require.Error(t, err)
		after, _ := svc.Store.Session(1)
		assert.Equal(t, before, after)
	})

	t.Run("unknown ids are not found", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		_, err := svc.Store.UpdateSessionByID(ctx, 99, application.SessionPatch{})
		assert.ErrorIs(t, err, application.ErrNotFound)
		assert.ErrorIs(t, svc.Store.DeleteSessionByID(ctx, 99), application.ErrNotFound)
		require.NoError(t, svc.Store.DeleteSessionByID(ctx, 1))
		assert.Len(t, svc.Store.Sessions(), 1)
	})

	t.Run("views are copies", func(t *testing.T) {
		t.Parallel()

		svc := newServices(t)
		view, err := svc.Store.Session(2)
		require.NoError(t, err)
		view.Trainees[0] = 42
		view.Attendance[3] = application.Attendance{}

		fresh, _ := svc.Store.Session(2)
		assert.Equal(t, []int{3}, fresh.Trainees)
		assert.True(t, fresh.Attendance[3].Present)
	})
}

func TestStore_Notifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("session three minutes out yields one unread reminder", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		soon := testfixtures.NewSessionFixture(
			testfixtures.WithSessionTrainees(3),
			testfixtures.WithSessionStart(clock.In(3*time.Minute)),
		)
		svc := newServices(t, testfixtures.WithClock(clock), testfixtures.WithSessions(soon.Application()))
		svc.SignIn(t, "trainee@company.com", "trainee123")

		first := svc.Store.RefreshNotifications(ctx, clock.Now())
		require.Len(t, first, 1)
		assert.Equal(t, "session-"+itoa(soon.ID), first[0].ID)
		assert.False(t, first[0].Read)
		assert.Equal(t, 1, svc.Store.UnreadCount())

		second := svc.Store.RefreshNotifications(ctx, clock.Now())
		assert.Equal(t, first, second)

		require.NoError(t, svc.Store.MarkNotificationRead(ctx, first[0].ID))
		assert.Equal(t, 0, svc.Store.UnreadCount())
		assert.ErrorIs(t, svc.Store.MarkNotificationRead(ctx, "session-0"), application.ErrNotFound)

		// Recomputation is stateless, so the reminder comes back unread.
		third := svc.Store.RefreshNotifications(ctx, clock.Now())
		require.Len(t, third, 1)
		assert.False(t, third[0].Read)

		clock.Advance(4 * time.Minute)
		assert.Empty(t, svc.Store.RefreshNotifications(ctx, clock.Now()))
	})

	t.Run("non trainees get no reminders", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		soon := testfixtures.NewSessionFixture(testfixtures.WithSessionTrainees(3), testfixtures.WithSessionStart(clock.In(time.Minute)))
		svc := newServices(t, testfixtures.WithClock(clock), testfixtures.WithSessions(soon.Application()))
		svc.SignIn(t, "trainer@company.com", "trainer123")

		assert.Empty(t, svc.Store.RefreshNotifications(ctx, clock.Now()))
	})
}
