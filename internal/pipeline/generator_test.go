package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/images"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

func TestGenerate_DerivedRecord(t *testing.T) {
	fc := &fakeCompleter{respond: func(part string, _ llm.CompletionRequest) (llm.Completion, error) {
		c := okCompletion(part)
		c.Content = `{"product_name":"Acme X1 Widget","common_name_en":"Widget","uom":"each",` +
			`"function_en":"Holds things","characteristics_of_material_en":"Steel",` +
			`"eccn":"5A992","hts":"8483.30","coo":"Japan",` +
			`"sources":[{"name":"Acme catalog","url":"https://acme.example/p/X1"},{"name":"made up","url":"https://nowhere.example"}]}`
		return c, nil
	}}
	tr := &fakeTranslator{out: map[string]string{"common_name_th": "วิดเจ็ต", "function_th": "ยึดของ", "characteristics_of_material_th": "เหล็ก"}}
	g := NewGenerator(Config{}, Deps{Completer: fc, Translator: tr, Sources: fakeSources{}}, nil)

	rec := g.Generate(context.Background(), "X1", Options{})

	assert.Equal(t, "X1", rec.PartNumber)
	assert.Equal(t, "Acme X1 Widget", rec.ProductName)
	assert.Equal(t, "pcs", rec.UOM)
	assert.Equal(t, "5A992", rec.ECCN)
	assert.Empty(t, rec.HTS, "hts is not in the sources")
	assert.Equal(t, "Japan", rec.COO)
	assert.Equal(t, constants.ConfidenceDerived, rec.SourceConfidence)
	assert.Equal(t, "วิดเจ็ต", rec.CommonNameTH)
	assert.Equal(t, "ยึดของ", rec.FunctionTH)
	assert.Equal(t, "Holds things — Steel", rec.LongEN)
	assert.Equal(t, []entity.SourceRef{{Name: "Acme catalog", URL: "https://acme.example/p/X1"}}, rec.Sources)
	assert.Equal(t, []string{}, rec.Images)
	assert.Empty(t, rec.Error)
	require.NotNil(t, rec.Tokens)
	assert.Equal(t, entity.TokenUsage{Prompt: 10, Completion: 20, Total: 30, Model: "gpt-test"}, *rec.Tokens)

	assert.Equal(t, map[string]string{
		"common_name_th":                 "Widget",
		"function_th":                    "Holds things",
		"characteristics_of_material_th": "Steel",
	}, tr.got)
}

func TestGenerate_PlaceholderSourceIsNoSourceStrict(t *testing.T) {
	fc := &fakeCompleter{respond: func(part string, _ llm.CompletionRequest) (llm.Completion, error) {
		return llm.Completion{Content: `{"product_name":"Widget","eccn":"5A992","coo":"Japan"}`}, nil
	}}
	g := NewGenerator(Config{}, Deps{Completer: fc}, nil)

	res := g.generate(context.Background(), "X2", Options{})

	assert.Equal(t, constants.ConfidenceNoSourceStrict, res.Record.SourceConfidence)
	assert.Empty(t, res.Record.ECCN)
	assert.Empty(t, res.Record.COO)
	assert.ElementsMatch(t, []string{"guard:eccn", "guard:coo"}, res.Diagnostic.Degraded)
	assert.Contains(t, fc.requests[0].SourceText, constants.PlaceholderSourceName)
	assert.Nil(t, res.Record.Tokens)
}

func TestGenerate_UnparseableOutputStillProducesRecord(t *testing.T) {
	fc := &fakeCompleter{respond: func(string, llm.CompletionRequest) (llm.Completion, error) {
		return llm.Completion{Content: "I could not find anything, sorry."}, nil
	}}
	g := NewGenerator(Config{}, Deps{Completer: fc}, nil)

	res := g.generate(context.Background(), "X3", Options{})

	assert.False(t, res.Fallback())
	assert.Equal(t, "X3", res.Record.ProductName)
	assert.Equal(t, "X3", res.Record.CommonNameEN)
	assert.Equal(t, "X3", res.Record.CommonNameTH)
	assert.Equal(t, []string{}, res.Record.Tags)
}

func TestGenerate_TranslationFailureDegrades(t *testing.T) {
	fc := &fakeCompleter{respond: func(part string, _ llm.CompletionRequest) (llm.Completion, error) {
		return okCompletion(part), nil
	}}
	tr := &fakeTranslator{err: common.ErrTranslation}
	g := NewGenerator(Config{}, Deps{Completer: fc, Translator: tr}, nil)

	res := g.generate(context.Background(), "X4", Options{})

	assert.False(t, res.Fallback())
	assert.Contains(t, res.Diagnostic.Degraded, "translation")
	assert.Equal(t, "X4", res.Record.CommonNameTH)
	assert.Empty(t, res.Record.FunctionTH)
	assert.Empty(t, res.Record.LongTH)
}

func TestGenerate_WithImageUsesSourcePages(t *testing.T) {
	fc := &fakeCompleter{respond: func(part string, _ llm.CompletionRequest) (llm.Completion, error) {
		return okCompletion(part), nil
	}}
	fi := &fakeImages{}
	g := NewGenerator(Config{}, Deps{Completer: fc, Images: fi, Sources: fakeSources{}}, nil)

	rec := g.Generate(context.Background(), "X5", Options{WithImage: true})

	assert.Equal(t, []string{
		"https://acme.example/images/X5-product-front.jpg",
		"https://img.example/X5.png",
	}, rec.Images)
	assert.Equal(t, []string{"acme.example"}, fi.hints.AllowedHosts)
	assert.Equal(t, "Acme X5 Widget", fi.hints.DisplayName)
	assert.Equal(t, "Steel", fi.hints.Material)
}

func TestGenerate_MissingCompleterFallsBack(t *testing.T) {
	g := NewGenerator(Config{DebugAnnotations: true}, Deps{}, nil)

	res := g.generate(context.Background(), "X6", Options{})

	require.True(t, res.Fallback())
	assert.True(t, errors.Is(res.Diagnostic.Err, common.ErrConfiguration))
	assert.Equal(t, StageCompletion, res.Diagnostic.Stage)
	assert.Contains(t, res.Record.Error, "CONFIG_ERROR")
}

func TestGenerate_CompletionErrorHidesAnnotationOutsideDebug(t *testing.T) {
	fc := &fakeCompleter{respond: func(string, llm.CompletionRequest) (llm.Completion, error) {
		return llm.Completion{}, common.CompletionError("chat completion request", errors.New("502"))
	}}
	g := NewGenerator(Config{}, Deps{Completer: fc}, nil)

	rec := g.Generate(context.Background(), "X7", Options{})

	assert.Equal(t, FallbackRecord("X7", nil, false), rec)
	assert.Empty(t, rec.Error)
}

func TestGenerate_ItemTimeout(t *testing.T) {
	g := NewGenerator(Config{ItemTimeout: 20 * time.Millisecond}, Deps{Completer: blockingCompleter{}}, nil)

	start := time.Now()
	res := g.generate(context.Background(), "X8", Options{})

	assert.True(t, res.Fallback())
	assert.ErrorIs(t, res.Diagnostic.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _ llm.CompletionRequest) (llm.Completion, error) {
	<-ctx.Done()
	return llm.Completion{}, ctx.Err()
}

func TestDetailedSpec(t *testing.T) {
	fc := &fakeCompleter{respond: func(string, llm.CompletionRequest) (llm.Completion, error) {
		return llm.Completion{Content: "  REPORT  "}, nil
	}}
	g := NewGenerator(Config{}, Deps{Completer: fc}, nil)

	out, err := g.DetailedSpec(context.Background(), FallbackRecord("X9", nil, false))
	require.NoError(t, err)
	assert.Equal(t, "REPORT", out)
	assert.Contains(t, fc.requests[0].Instructions, "Part Number: X9")

	_, err = g.DetailedSpec(context.Background(), entity.PartRecord{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = NewGenerator(Config{}, Deps{}, nil).DetailedSpec(context.Background(), FallbackRecord("X9", nil, false))
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestImages_WithoutAcquirerReturnsPlaceholder(t *testing.T) {
	g := NewGenerator(Config{}, Deps{}, nil)
	assert.Equal(t, []string{constants.PlaceholderImageURL}, g.Images(context.Background(), "X10", images.Hints{}))
}
