package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/stacklyhub/internal/auth"
	"github.com/example/stacklyhub/internal/testfixtures"
)

type testServer struct {
	services testfixtures.Services
	tokens   *auth.TokenIssuer
	handler  http.Handler
}

func newTestServer(t *testing.T, opts ...testfixtures.ServiceFactoryOption) *testServer {
	t.Helper()

	services := testfixtures.NewServiceFactory(opts...).Build(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenIssuer("test-secret", time.Hour,
		auth.WithClock(services.Clock.NowFunc()),
		auth.WithIDGenerator(testfixtures.NewIDGenerator("jti").NextFunc()),
	)

	handler := NewRouter(RouterConfig{
		Auth:          NewAuthHandler(services.Store, tokens, services.Accounts, logger),
		Users:         NewUserHandler(services.Users, services.Drafts, logger),
		Sessions:      NewSessionHandler(services.Sessions, services.Drafts, logger),
		Notifications: NewNotificationHandler(services.Store, logger),
		Analytics:     NewAnalyticsHandler(services.Analytics, services.Clock.NowFunc(), logger),
		Settings:      NewSettingsHandler(services.Store, services.Accounts, logger),
		Drafts:        NewDraftHandler(services.Drafts, logger),
		Tokens:        tokens,
		Principals:    services.Store,
		Logger:        logger,
		RequestID:     testfixtures.NewIDGenerator("req").NextFunc(),
	})

	return &testServer{services: services, tokens: tokens, handler: handler}
}

// do sends body as JSON unless it is already raw bytes.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(v)
	case string:
		reader = bytes.NewBufferString(v)
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(sessionTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := rec.Header().Get(sessionTokenHeader)
	require.NotEmpty(t, token)
	return token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
