package testhelpers

import (
	"io"
	"log/slog"

	"github.com/zheruizz/another.ai-app/internal/logging"
)

// NewLogger returns a debug level text logger that also emits context attributes. Pass [io.Discard] to
// silence it.
func NewLogger(sink io.Writer) *slog.Logger {
	return NewObservedLogger(sink, nil)
}

// NewObservedLogger is like NewLogger but calls observe with every attribute before it is written.
// Tests use it to pick values such as the listen address out of the log stream.
func NewObservedLogger(sink io.Writer, observe func(slog.Attr)) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if observe != nil {
		opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			observe(a)
			return a
		}
	}
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(sink, opts)))
}
