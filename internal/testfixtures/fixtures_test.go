package testfixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/persistence"
)

func TestUserFixtureDefaults(t *testing.T) {
	t.Parallel()

	first := NewUserFixture()
	second := NewUserFixture(WithUserRole(application.RoleTrainer), WithTemporaryPassword())

	assert.Greater(t, first.ID, 100)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, application.RoleTrainee, first.Role)
	assert.True(t, second.Principal().IsTemporary)

	trainee := NewUserFixture(WithAssignedTrainer(2)).Application()
	require.NotNil(t, trainee.AssignedTrainer)
	assert.Equal(t, 2, *trainee.AssignedTrainer)
}

func TestSessionFixtureIsolation(t *testing.T) {
	t.Parallel()

	joined := ReferenceTime()
	fixture := NewSessionFixture(WithSessionTrainees(3), WithSessionAttendance(3, true, &joined))

	session := fixture.Application()
	session.Trainees[0] = 99
	session.Attendance[4] = application.Attendance{}

	assert.Equal(t, []int{3}, fixture.Trainees)
	assert.Len(t, fixture.Attendance, 1)
	assert.Equal(t, application.StatusScheduled, fixture.Status)
	assert.Equal(t, fixture.StartTime, fixture.Input().StartTime)
}

func TestServiceFactoryBuild(t *testing.T) {
	t.Parallel()

	services := NewServiceFactory().Build(t)

	assert.Len(t, services.Store.Users(), 3)
	assert.Len(t, services.Store.Sessions(), 2)

	user := services.SignIn(t, "trainee@company.com", "trainee123")
	assert.Equal(t, 3, user.ID)

	raw, err := services.Storage.Get(context.Background(), persistence.KeyUser)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":3`)
}

func TestIDGenerator(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("req")
	assert.Equal(t, "req-1", gen.Next())
	assert.Equal(t, "req-2", gen.NextFunc()())
	assert.Equal(t, uint64(2), gen.Issued())
	assert.Equal(t, "id-1", NewIDGenerator("").Next())
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Parallel()

	storage := NewSQLiteStorage(t)
	require.NoError(t, storage.Set(context.Background(), persistence.KeyCreateUserDraft, []byte(`{}`)))
}
