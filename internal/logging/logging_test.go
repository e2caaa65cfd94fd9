package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseLevel(input), "input %q", input)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json handler by default", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, "info", "").Info("hello", "k", "v")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("text handler on request", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, "info", "text").Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters lower records", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, "error", "json").Info("dropped")
		assert.Empty(t, buf.String())
	})
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	assert.Nil(t, FromContext(context.Background()))
	assert.Equal(t, context.Background(), ContextWithLogger(context.Background(), nil))
}
