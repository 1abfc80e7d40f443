package errors

import (
	"context"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := err.Wrap(sentinel)
	require.ErrorIs(t, wrapped, sentinel)

	// Ensure log values are coming through.
	group := err.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrap(t *testing.T) {
	sentinel := NewSentinel("no rows")
	err := Wrap(sentinel, "load persona", slog.Int64("persona_id", 7))
	require.Equal(t, "load persona: no rows", err.Error())
	require.ErrorIs(t, err, sentinel)

	var annotated AnnotatedError
	require.True(t, As(err, &annotated))
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.Int64("persona_id", 7))
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	require.Contains(t, group[sourceIdx].Value.String(), "annotatederror_test.go")
}

func TestMark(t *testing.T) {
	kind := NewSentinel("persistence")
	err := Mark(context.DeadlineExceeded, kind)
	require.Equal(t, context.DeadlineExceeded.Error(), err.Error())
	require.ErrorIs(t, err, kind)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, Mark(nil, kind))
}

func TestSlogError(t *testing.T) {
	attr := SlogError(Wrap(NewSentinel("boom"), "run survey", slog.String("run_id", "abc")))
	require.Equal(t, "error", attr.Key)
	group := attr.Value.Group()
	require.Contains(t, group, slog.String("message", "run survey: boom"))
	require.Contains(t, group, slog.String("run_id", "abc"))

	plain := SlogError(NewSentinel("plain")).Value.Group()
	require.Equal(t, []slog.Attr{slog.String("message", "plain")}, plain)
}
