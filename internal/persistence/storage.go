// Package persistence defines the durable client storage contract. Values are
// opaque JSON documents addressed by a small fixed set of keys.
package persistence

import "context"

// Keys written to client storage.
const (
	// KeyUser holds the serialized current principal.
	KeyUser = "user"
	// KeyCreateUserDraft holds the in-progress create user form.
	KeyCreateUserDraft = "createUserModal"
	// KeyCreateSessionDraft holds the in-progress create session form.
	KeyCreateSessionDraft = "createSessionForm"
)

// ClientStorage persists small values across process restarts.
type ClientStorage interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// IsDraftKey reports whether key names a form draft.
func IsDraftKey(key string) bool {
	return key == KeyCreateUserDraft || key == KeyCreateSessionDraft
}
