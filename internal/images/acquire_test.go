package images

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/partsynth/constants"
)

type fakeSearcher struct {
	urls []string
	err  error
	got  []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, count int) ([]string, error) {
	f.got = append(f.got, query)
	return f.urls, f.err
}

type fakeSynth struct {
	url        string
	err        error
	configured bool
	prompts    []string
}

func (f *fakeSynth) Synthesize(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.url, f.err
}

func (f *fakeSynth) Configured() bool { return f.configured }

type fakeMirror struct {
	err error
}

func (f *fakeMirror) Mirror(_ context.Context, part, src string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.example.com/" + part + ".png", nil
}

func TestAcquire_SearchThenSynthesis(t *testing.T) {
	s := &fakeSearcher{urls: []string{"data:image/png;base64,xx", "https://img.example.com/a.jpg", "https://img.example.com/b.jpg"}}
	syn := &fakeSynth{url: "https://gen.example.com/1.png", configured: true}
	a := NewAcquirer(nil, WithSearcher(s), WithSynthesizer(syn))

	got := a.Acquire(context.Background(), "6203-2RS", Hints{DisplayName: "SKF Ball Bearing", Material: "Chrome steel"})

	assert.Equal(t, []string{"https://img.example.com/a.jpg", "https://gen.example.com/1.png"}, got)
	assert.Equal(t, []string{"6203-2RS"}, s.got)
	require.Len(t, syn.prompts, 1)
	assert.True(t, strings.HasPrefix(syn.prompts[0], "hyper-realistic professional product photography of SKF Ball Bearing"))
	assert.Contains(t, syn.prompts[0], "Chrome steel")
}

func TestAcquire_PageCandidatesBetweenSearchAndSynthesis(t *testing.T) {
	s := &fakeSearcher{urls: []string{"https://img.example.com/a.jpg"}}
	syn := &fakeSynth{url: "https://gen.example.com/1.png", configured: true}
	a := NewAcquirer(nil, WithSearcher(s), WithSynthesizer(syn))

	got := a.Acquire(context.Background(), "X", Hints{
		PageCandidates: []string{"https://shop.example.com/logo.png", "https://shop.example.com/products/x-front.jpg"},
		AllowedHosts:   []string{"shop.example.com"},
	})

	assert.Equal(t, []string{
		"https://img.example.com/a.jpg",
		"https://shop.example.com/products/x-front.jpg",
		"https://gen.example.com/1.png",
	}, got)
}

func TestAcquire_FailuresFallBackToPlaceholder(t *testing.T) {
	s := &fakeSearcher{err: errors.New("search down")}
	syn := &fakeSynth{err: errors.New("synth down"), configured: true}
	a := NewAcquirer(nil, WithSearcher(s), WithSynthesizer(syn))

	got := a.Acquire(context.Background(), "X", Hints{})

	assert.Equal(t, []string{constants.PlaceholderImageURL}, got)
}

func TestAcquire_UnconfiguredSynthesizerIsSkipped(t *testing.T) {
	syn := &fakeSynth{url: "https://gen.example.com/1.png"}
	a := NewAcquirer(nil, WithSynthesizer(syn))

	got := a.Acquire(context.Background(), "X", Hints{})

	assert.Equal(t, []string{constants.PlaceholderImageURL}, got)
	assert.Empty(t, syn.prompts)
}

func TestAcquire_MirrorReplacesSynthesizedURL(t *testing.T) {
	syn := &fakeSynth{url: "https://gen.example.com/1.png", configured: true}
	a := NewAcquirer(nil, WithSynthesizer(syn), WithMirror(&fakeMirror{}))

	assert.Equal(t, []string{"https://bucket.example.com/X.png"}, a.Acquire(context.Background(), "X", Hints{}))
}

func TestAcquire_MirrorFailureKeepsUpstreamURL(t *testing.T) {
	syn := &fakeSynth{url: "https://gen.example.com/1.png", configured: true}
	a := NewAcquirer(nil, WithSynthesizer(syn), WithMirror(&fakeMirror{err: errors.New("s3 down")}))

	assert.Equal(t, []string{"https://gen.example.com/1.png"}, a.Acquire(context.Background(), "X", Hints{}))
}

func TestBuildSynthesisPrompt(t *testing.T) {
	p := BuildSynthesisPrompt("6203-2RS", Hints{CommonName: "Ball Bearing", Material: "Steel"})

	assert.Equal(t,
		"hyper-realistic professional product photography of Ball Bearing, Steel, isolated on clean white background, "+
			"studio lighting, 8k resolution, highly detailed texture, sharp focus, "+
			"no text, no watermark, no labels, no ruler, no measuring tape, pure product view, photorealistic",
		p)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "images/6203-2RS/abc.jpeg", ObjectKey("6203-2RS", "image/jpeg", "abc"))
	assert.Equal(t, "images/A_B/abc.png", ObjectKey(" A/B ", "application/octet-stream", "abc"))
	assert.Equal(t, "images/part/abc.webp", ObjectKey("///", "image/webp; charset=binary", "abc"))
}
