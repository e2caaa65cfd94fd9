package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestInputValidator_UserInput(t *testing.T) {
	t.Parallel()

	vErr := defaultValidator.check(UserInput{
		Email:    "not-an-email",
		Username: "  ",
		Password: "123",
		Role:     Role("owner"),
	})

	require.True(t, vErr.HasErrors())
	assert.Contains(t, vErr.FieldErrors, "email")
	assert.Contains(t, vErr.FieldErrors, "username")
	assert.Contains(t, vErr.FieldErrors, "name")
	assert.Contains(t, vErr.FieldErrors, "password")
	assert.Contains(t, vErr.FieldErrors, "role")
	assert.Equal(t, "username is required", vErr.FieldErrors["username"])
}

func TestInputValidator_Patches(t *testing.T) {
	t.Parallel()

	t.Run("nil fields are skipped", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, defaultValidator.check(UserPatch{}))
		assert.Nil(t, defaultValidator.check(SessionPatch{}))
	})

	t.Run("present fields are validated", func(t *testing.T) {
		t.Parallel()

		vErr := defaultValidator.check(UserPatch{Email: strPtr(""), Name: strPtr(" "), Password: strPtr("abc")})
		require.True(t, vErr.HasErrors())
		assert.Contains(t, vErr.FieldErrors, "email")
		assert.Contains(t, vErr.FieldErrors, "name")
		assert.Contains(t, vErr.FieldErrors, "password")
	})

	t.Run("session patch rejects unknown status and bad duration", func(t *testing.T) {
		t.Parallel()

		status := SessionStatus("paused")
		vErr := defaultValidator.check(SessionPatch{Status: &status, Duration: intPtr(0), ClassLink: strPtr("not a url")})
		require.True(t, vErr.HasErrors())
		assert.Contains(t, vErr.FieldErrors, "status")
		assert.Contains(t, vErr.FieldErrors, "duration")
		assert.Contains(t, vErr.FieldErrors, "classLink")
	})

	t.Run("empty class link is allowed", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, defaultValidator.check(SessionPatch{ClassLink: strPtr("")}))
	})
}

func TestInputValidator_SessionInput(t *testing.T) {
	t.Parallel()

	vErr := defaultValidator.check(SessionInput{})
	require.True(t, vErr.HasErrors())
	assert.Contains(t, vErr.FieldErrors, "title")
	assert.Contains(t, vErr.FieldErrors, "startTime")
	assert.Contains(t, vErr.FieldErrors, "duration")

	ok := SessionInput{Title: "Go", StartTime: time.Now(), Duration: 60, ClassLink: "https://meet.example/x"}
	assert.Nil(t, defaultValidator.check(ok))
}
