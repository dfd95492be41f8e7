package llm

import (
	"context"
	"errors"
	"sync"
)

// fakeCompleter returns canned completions and records every request it saw.
type fakeCompleter struct {
	mu       sync.Mutex
	content  string
	err      error
	requests []CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return Completion{}, f.err
	}
	return Completion{Content: f.content, Model: "fake-model"}, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

var errUpstream = errors.New("upstream down")
