package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/persistence"
	"github.com/example/stacklyhub/internal/policy"
)

// maxDraftBytes bounds a stored form draft.
const maxDraftBytes = 64 << 10

type draftStore interface {
	Load(ctx context.Context, key string) (json.RawMessage, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
	Discard(ctx context.Context, key string)
}

// draftActions ties each draft to the action its form performs.
var draftActions = map[string]policy.Action{
	persistence.KeyCreateUserDraft:    policy.ActionCreateUser,
	persistence.KeyCreateSessionDraft: policy.ActionCreateSession,
}

// DraftHandler keeps in-progress form contents between page visits.
type DraftHandler struct {
	drafts    draftStore
	responder responder
	logger    *slog.Logger
}

func NewDraftHandler(drafts draftStore, logger *slog.Logger) *DraftHandler {
	base := defaultLogger(logger)
	return &DraftHandler{drafts: drafts, responder: newResponder(base), logger: base}
}

func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := h.authorize(w, r)
	if !ok {
		return
	}
	raw, err := h.drafts.Load(r.Context(), key)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *DraftHandler) Put(w http.ResponseWriter, r *http.Request) {
	key, ok := h.authorize(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxDraftBytes+1))
	if err != nil || len(raw) > maxDraftBytes {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.drafts.Save(r.Context(), key, raw); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r.Context(), h.logger, "DraftHandler", "Put", "key", key).
		DebugContext(r.Context(), "draft saved", "bytes", len(raw))
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key, ok := h.authorize(w, r)
	if !ok {
		return
	}
	h.drafts.Discard(r.Context(), key)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *DraftHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	action, ok := draftActions[key]
	if !ok {
		h.responder.handleServiceError(r.Context(), w, fmt.Errorf("draft %q: %w", key, application.ErrNotFound))
		return "", false
	}
	principal, _ := PrincipalFromContext(r.Context())
	subject := policy.Subject{UserID: principal.UserID, Role: principal.Role, IsTemporary: principal.IsTemporary}
	if err := policy.Can(subject, action); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return "", false
	}
	return key, true
}
