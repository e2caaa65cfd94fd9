package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/stacklyhub/internal/persistence"
)

// Drafts keeps in-progress form contents in client storage. Drafts are a
// convenience for the UI and never feed back into the rosters.
type Drafts struct {
	storage persistence.ClientStorage
	logger  *slog.Logger
}

// NewDrafts constructs a Drafts store. A nil storage keeps nothing.
func NewDrafts(storage persistence.ClientStorage, logger *slog.Logger) *Drafts {
	return &Drafts{storage: storage, logger: defaultLogger(logger)}
}

// Load returns the draft stored under key.
func (d *Drafts) Load(ctx context.Context, key string) (json.RawMessage, error) {
	if !persistence.IsDraftKey(key) {
		return nil, fmt.Errorf("draft %q: %w", key, ErrNotFound)
	}
	if d.storage == nil {
		return nil, fmt.Errorf("draft %q: %w", key, ErrNotFound)
	}
	raw, err := d.storage.Get(ctx, key)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("draft %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// Save replaces the draft under key. The value must be a JSON document.
func (d *Drafts) Save(ctx context.Context, key string, value json.RawMessage) error {
	if !persistence.IsDraftKey(key) {
		return fmt.Errorf("draft %q: %w", key, ErrNotFound)
	}
	if !json.Valid(value) {
		return &ValidationError{FieldErrors: map[string]string{"draft": "draft must be valid JSON"}}
	}
	if d.storage == nil {
		return nil
	}
	return d.storage.Set(ctx, key, value)
}

// Discard removes the draft under key. Failures are logged, not returned.
func (d *Drafts) Discard(ctx context.Context, key string) {
	if d.storage == nil || !persistence.IsDraftKey(key) {
		return
	}
	if err := d.storage.Delete(ctx, key); err != nil {
		serviceLogger(ctx, d.logger, "Drafts", "Discard", "key", key).
			WarnContext(ctx, "failed to discard draft", "error", err)
	}
}
