package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))

	base := slog.New(slog.NewTextHandler(&buf, nil))
	assert.Same(t, logger, OrDefault(ctx, base))
	assert.Same(t, base, OrDefault(context.Background(), base))
	assert.NotNil(t, OrDefault(context.Background(), nil))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelWarn).Info("hidden")
	assert.Empty(t, buf.String())

	New(&buf, slog.LevelWarn).Warn("shown", "reservation_id", "rec1")
	assert.Contains(t, buf.String(), `"reservation_id":"rec1"`)
}
