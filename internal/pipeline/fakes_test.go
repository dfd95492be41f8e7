package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/images"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

var rePartNumber = regexp.MustCompile(`PART NUMBER: (.+)`)

func partOf(req llm.CompletionRequest) string {
	if m := rePartNumber.FindStringSubmatch(req.Instructions); m != nil {
		return m[1]
	}
	return ""
}

type fakeCompleter struct {
	respond func(part string, req llm.CompletionRequest) (llm.Completion, error)

	mu       sync.Mutex
	requests []llm.CompletionRequest

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	return f.respond(partOf(req), req)
}

func okCompletion(part string) llm.Completion {
	return llm.Completion{
		Content: fmt.Sprintf(`{"product_name":"Acme %s Widget","common_name_en":"Widget","uom":"each",`+
			`"characteristics_of_material_en":"Steel","function_en":"Holds things","where_used_en":"Conveyors","tags":["widget"]}`, part),
		Model: "gpt-test",
		Usage: &llm.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

type fakeSources struct{}

func (fakeSources) Collect(_ context.Context, part string, _ []string) []entity.SourceDocument {
	return []entity.SourceDocument{{
		Name:      "Acme catalog",
		URL:       "https://acme.example/p/" + part,
		Text:      "Datasheet for " + part + ". ECCN 5A992. Made in Japan.",
		ImageURLs: []string{"https://acme.example/images/" + part + "-product-front.jpg", "https://acme.example/logo.png"},
	}}
}

type fakeTranslator struct {
	out   map[string]string
	err   error
	calls atomic.Int32
	mu    sync.Mutex
	got   map[string]string
}

func (f *fakeTranslator) Translate(_ context.Context, fields map[string]string) (map[string]string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.got = fields
	f.mu.Unlock()
	if f.err != nil {
		return map[string]string{}, f.err
	}
	return f.out, nil
}

type fakeImages struct {
	mu    sync.Mutex
	hints images.Hints
}

func (f *fakeImages) Acquire(_ context.Context, part string, h images.Hints) []string {
	f.mu.Lock()
	f.hints = h
	f.mu.Unlock()
	picked := images.PickRepresentative(h.PageCandidates, h.AllowedHosts, 3)
	return append(picked, "https://img.example/"+part+".png")
}
