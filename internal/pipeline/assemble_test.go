package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		fields llm.PartFields
		want   string
	}{
		{"product name wins", llm.PartFields{ProductName: "SKF 6203-2RS Deep Groove Bearing", CommonNameEN: "Ball Bearing"}, "SKF 6203-2RS Deep Groove Bearing"},
		{"blank product name", llm.PartFields{ProductName: "  ", CommonNameEN: "Ball Bearing"}, "Ball Bearing"},
		{"echoed identifier", llm.PartFields{ProductName: "6203-2RS", CommonNameEN: "Ball Bearing"}, "Ball Bearing"},
		{"nothing usable", llm.PartFields{ProductName: "6203-2RS"}, "6203-2RS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName("6203-2RS", tt.fields))
		})
	}
}

func TestAssemble_SecondaryFieldPrecedence(t *testing.T) {
	rec := Assemble(AssembleInput{
		Part: "6203-2RS",
		Fields: llm.PartFields{
			CommonNameEN: "Ball Bearing",
			FunctionEN:   "Supports shafts",
			FunctionTH:   "รองรับเพลา",
			WhereUsedEN:  "Motors",
			UOM:          "Bag",
			Tags:         []string{"bearing", " bearing ", ""},
		},
		Translated: map[string]string{
			"function_th":   "ignored because the model answered",
			"where_used_th": "มอเตอร์",
		},
	})

	assert.Equal(t, "Ball Bearing", rec.ProductName)
	assert.Equal(t, "6203-2RS", rec.CommonNameTH)
	assert.Equal(t, "รองรับเพลา", rec.FunctionTH)
	assert.Equal(t, "มอเตอร์", rec.WhereUsedTH)
	assert.Equal(t, "รองรับเพลา — มอเตอร์", rec.LongTH)
	assert.Equal(t, "Supports shafts", rec.LongEN)
	assert.Equal(t, "Bag", rec.UOM)
	assert.Equal(t, []string{"bearing"}, rec.Tags)
	assert.Equal(t, constants.ConfidenceNoSourceStrict, rec.SourceConfidence)
	assert.Equal(t, []entity.SourceRef{}, rec.Sources)
	assert.Equal(t, []string{}, rec.Images)
}

func TestAssemble_PlaceholderDoesNotCountAsSource(t *testing.T) {
	docs := []entity.SourceDocument{{Name: constants.PlaceholderSourceName, Text: "PART NUMBER: X", Placeholder: true}}
	rec := Assemble(AssembleInput{Part: "X", Fields: llm.EmptyPartFields(), Sources: docs})

	assert.Equal(t, constants.ConfidenceNoSourceStrict, rec.SourceConfidence)
	assert.Equal(t, []entity.SourceRef{{Name: constants.PlaceholderSourceName}}, rec.Sources)

	docs = append(docs, entity.SourceDocument{Name: "Catalog", URL: "https://c.example/x", Text: "x"})
	rec = Assemble(AssembleInput{Part: "X", Fields: llm.EmptyPartFields(), Sources: docs})
	assert.Equal(t, constants.ConfidenceDerived, rec.SourceConfidence)
}

func TestTranslationRequest_OnlyEmptySecondaryFields(t *testing.T) {
	got := translationRequest(llm.PartFields{
		CommonNameEN: "Ball Bearing",
		CommonNameTH: "ตลับลูกปืน",
		FunctionEN:   "Supports shafts",
		MaterialTH:   "เหล็ก",
	})
	assert.Equal(t, map[string]string{"function_th": "Supports shafts"}, got)
}

func TestFallbackRecord(t *testing.T) {
	rec := FallbackRecord("ABC-1", errors.New("upstream down"), true)

	assert.Equal(t, "ABC-1", rec.ProductName)
	assert.Equal(t, "ABC-1", rec.CommonNameEN)
	assert.Equal(t, "ABC-1", rec.CommonNameTH)
	assert.Equal(t, "Product information", rec.FunctionEN)
	assert.Equal(t, "ใช้งานอุตสาหกรรม", rec.WhereUsedTH)
	assert.Equal(t, "piece", rec.UOM)
	assert.Equal(t, "Product information — Unknown", rec.LongEN)
	assert.Equal(t, []string{"product", "part", "ABC-1"}, rec.Tags)
	assert.Equal(t, []entity.SourceRef{{Name: "Fallback", URL: ""}}, rec.Sources)
	assert.Equal(t, []string{}, rec.Images)
	assert.Equal(t, constants.ConfidenceNoSourceStrict, rec.SourceConfidence)
	assert.Equal(t, "upstream down", rec.Error)

	assert.Empty(t, FallbackRecord("ABC-1", errors.New("upstream down"), false).Error)
}
