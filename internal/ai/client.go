package ai

import (
	"context"
	"sync"

	"github.com/zheruizz/another.ai-app/internal/errors"
)

// ErrRateLimited marks provider errors that signal the caller should slow down.
var ErrRateLimited = errors.NewSentinel("rate limited by model provider")

// CompletionRequest is a single system + user prompt exchange with a chat model.
type CompletionRequest struct {
	Model        string
	Temperature  float64
	SystemPrompt string
	UserPrompt   string
	// JSONOutput asks the provider to constrain the output to a JSON object.
	JSONOutput bool
}

// Completer returns the text of the model's reply to a CompletionRequest.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// emptyObject is returned when a provider answers without any content.
const emptyObject = "{}"

// Lazy initialises the underlying Completer on first use and reuses it for the lifetime of the process.
//
// Initialisation is retried on the next call when it fails, so a transient credential lookup error does not
// poison the client.
type Lazy struct {
	mu      sync.Mutex
	factory func(ctx context.Context) (Completer, error)
	client  Completer
}

func NewLazy(factory func(ctx context.Context) (Completer, error)) *Lazy {
	return &Lazy{factory: factory}
}

func (l *Lazy) get(ctx context.Context) (Completer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return l.client, nil
	}
	client, err := l.factory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initialise completion client")
	}
	l.client = client
	return client, nil
}

func (l *Lazy) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	client, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return client.Complete(ctx, req)
}
