package e2etest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/testhelpers"
)

// LogAddrKey is the log attribute under which the API server reports its listen address.
const LogAddrKey = "addr"

// RunFunc starts the API server and blocks until ctx is cancelled. It has the signature of cmd/web's run.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a running API server under test.
type Server struct {
	url    string
	client *Client
}

// StartServer launches run in the background, learns the listen address from the logs, and returns once
// /api/healthy answers. The server stops when ctx is cancelled.
func StartServer(
	ctx context.Context,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run RunFunc,
) (*Server, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	addrs := make(chan string, 1)
	logger := testhelpers.NewObservedLogger(logSink, func(a slog.Attr) {
		if a.Key != LogAddrKey {
			return
		}
		select {
		case addrs <- a.Value.String():
		default:
		}
	})

	go func() {
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	var addr string
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(context.Cause(ctx), "server stopped before listening")
	case addr = <-addrs:
	}

	srv := &Server{url: fmt.Sprintf("http://%s", addr)}
	srv.client = NewClient(srv.url)
	if err := srv.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, errors.Wrap(err, "wait for ready", slog.String("url", srv.url))
	}
	return srv, nil
}

// Client returns an API client bound to the server.
func (s *Server) Client() *Client { return s.client }

// URL returns the server base URL.
func (s *Server) URL() string { return s.url }
