package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/logging"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil))).With("source", "test")

	ctx := logging.WithAttrs(context.Background(), slog.String("run_id", "r1"))
	child := logging.WithAttrs(ctx, slog.Int64("persona_id", 3))
	sibling := logging.WithAttrs(ctx, slog.Int64("persona_id", 4))

	logger.LogAttrs(child, slog.LevelInfo, "sampling")
	require.Contains(t, buf.String(), "source=test")
	require.Contains(t, buf.String(), "run_id=r1")
	require.Contains(t, buf.String(), "persona_id=3")
	require.NotContains(t, buf.String(), "persona_id=4")

	buf.Reset()
	logger.LogAttrs(sibling, slog.LevelInfo, "sampling")
	require.Contains(t, buf.String(), "persona_id=4")
	require.NotContains(t, buf.String(), "persona_id=3")

	require.Len(t, logging.Attrs(ctx), 1)
	require.Empty(t, logging.Attrs(context.Background()))
}
