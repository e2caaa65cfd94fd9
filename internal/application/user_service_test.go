package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/testfixtures"
)

func userIDs(users []application.User) []int {
	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestUserService_ListVisible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	unassigned := testfixtures.NewUserFixture(testfixtures.WithUserID(4)).Application()
	otherTrainer := testfixtures.NewUserFixture(testfixtures.WithUserID(5), testfixtures.WithUserRole(application.RoleTrainer)).Application()
	theirs := testfixtures.NewUserFixture(testfixtures.WithUserID(6), testfixtures.WithAssignedTrainer(5)).Application()
	svc := newServices(t, testfixtures.WithUsers(append(application.SeedUsers(), unassigned, otherTrainer, theirs)...))

	all, err := svc.Users.ListVisible(ctx, testfixtures.Admin)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, userIDs(all))

	assigned, err := svc.Users.ListVisible(ctx, testfixtures.Trainer)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, userIDs(assigned))

	_, err = svc.Users.ListVisible(ctx, testfixtures.Trainee)
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
}

func TestUserService_CreateAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newServices(t)
	input := testfixtures.NewUserFixture().Input()

	_, err := svc.Users.Create(ctx, testfixtures.Trainer, input)
	assert.ErrorIs(t, err, application.ErrPermissionDenied)

	created, err := svc.Users.Create(ctx, testfixtures.Admin, input)
	require.NoError(t, err)
	assert.True(t, created.IsTemporary)

	assert.ErrorIs(t, svc.Users.Delete(ctx, testfixtures.Trainer, created.ID), application.ErrPermissionDenied)
	require.NoError(t, svc.Users.Delete(ctx, testfixtures.Admin, created.ID))
	assert.Len(t, svc.Store.Users(), 3)
}

func TestUserService_AssignTrainer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	second := testfixtures.NewUserFixture(testfixtures.WithUserID(4), testfixtures.WithUserRole(application.RoleTrainer)).Application()
	svc := newServices(t, testfixtures.WithUsers(append(application.SeedUsers(), second)...))

	updated, err := svc.Users.AssignTrainer(ctx, testfixtures.Admin, 3, ptr(4))
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTrainer)
	assert.Equal(t, 4, *updated.AssignedTrainer)

	updated, err = svc.Users.AssignTrainer(ctx, testfixtures.Admin, 3, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTrainer)

	var vErr *application.ValidationError
	_, err = svc.Users.AssignTrainer(ctx, testfixtures.Admin, 2, ptr(4))
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "traineeId")

	_, err = svc.Users.AssignTrainer(ctx, testfixtures.Admin, 3, ptr(1))
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "assignedTrainer")

	_, err = svc.Users.AssignTrainer(ctx, testfixtures.Admin, 99, ptr(2))
	assert.ErrorIs(t, err, application.ErrNotFound)

	_, err = svc.Users.AssignTrainer(ctx, testfixtures.Trainer, 3, ptr(2))
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
}

func TestUserService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newServices(t)

	updated, err := svc.Users.Update(ctx, testfixtures.Trainer, 3, application.UserPatch{Name: ptr("Sarah S.")})
	require.NoError(t, err)
	assert.Equal(t, "Sarah S.", updated.Name)

	_, err = svc.Users.Update(ctx, testfixtures.Trainer, 3, application.UserPatch{Role: ptr(application.RoleTrainer)})
	assert.ErrorIs(t, err, application.ErrPermissionDenied)

	_, err = svc.Users.Update(ctx, testfixtures.Trainer, 1, application.UserPatch{Name: ptr("Nope")})
	assert.ErrorIs(t, err, application.ErrPermissionDenied)

	_, err = svc.Users.Update(ctx, testfixtures.Trainee, 3, application.UserPatch{Name: ptr("Nope")})
	assert.ErrorIs(t, err, application.ErrPermissionDenied)

	promoted, err := svc.Users.Update(ctx, testfixtures.Admin, 3, application.UserPatch{Role: ptr(application.RoleTrainer), UnassignTrainer: true})
	require.NoError(t, err)
	assert.Equal(t, application.RoleTrainer, promoted.Role)
	assert.Nil(t, promoted.AssignedTrainer)

	_, err = svc.Users.Update(ctx, testfixtures.Admin, 42, application.UserPatch{})
	assert.ErrorIs(t, err, application.ErrNotFound)
}
