package pipeline

import (
	"strings"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

// AssembleInput carries everything the assembler merges. Fields must already be guarded.
type AssembleInput struct {
	Part       string
	Fields     llm.PartFields
	Translated map[string]string
	Images     []string
	Sources    []entity.SourceDocument
	SourceText string
	Usage      *llm.Usage
	Model      string
}

// DisplayName picks product_name unless it is empty or just echoes the identifier,
// then common_name_en, then the identifier itself.
func DisplayName(part string, f llm.PartFields) string {
	if pn := strings.TrimSpace(f.ProductName); pn != "" && pn != part {
		return pn
	}
	if cn := strings.TrimSpace(f.CommonNameEN); cn != "" {
		return cn
	}
	return part
}

// Assemble builds the final record. Every string field is set; slices are never nil.
func Assemble(in AssembleInput) entity.PartRecord {
	f := in.Fields
	tr := func(key string) string {
		return strings.TrimSpace(in.Translated[key])
	}

	rec := entity.PartRecord{
		PartNumber:        in.Part,
		ProductName:       DisplayName(in.Part, f),
		CommonNameEN:      firstNonEmpty(f.CommonNameEN, in.Part),
		CommonNameTH:      firstNonEmpty(f.CommonNameTH, tr("common_name_th"), in.Part),
		UOM:               canonicalUOM(f.UOM),
		MaterialEN:        strings.TrimSpace(f.MaterialEN),
		MaterialTH:        firstNonEmpty(f.MaterialTH, tr("characteristics_of_material_th")),
		EstimatedCapacity: strings.TrimSpace(f.EstimatedCapacity),
		QuantityToUse:     strings.TrimSpace(f.QuantityToUse),
		FunctionEN:        strings.TrimSpace(f.FunctionEN),
		FunctionTH:        firstNonEmpty(f.FunctionTH, tr("function_th")),
		WhereUsedEN:       strings.TrimSpace(f.WhereUsedEN),
		WhereUsedTH:       firstNonEmpty(f.WhereUsedTH, tr("where_used_th")),
		ECCN:              strings.TrimSpace(f.ECCN),
		HTS:               strings.TrimSpace(f.HTS),
		COO:               strings.TrimSpace(f.COO),
		Tags:              dedupeStrings(f.Tags),
		Sources:           sourceRefs(in.Sources, f.Sources, in.SourceText),
		Images:            in.Images,
		SourceConfidence:  confidenceOf(in.Sources),
	}
	rec.LongEN = joinTwo(rec.FunctionEN, rec.MaterialEN)
	rec.LongTH = joinTwo(rec.FunctionTH, rec.WhereUsedTH)

	if in.Usage != nil {
		rec.Tokens = &entity.TokenUsage{
			Prompt:     in.Usage.PromptTokens,
			Completion: in.Usage.CompletionTokens,
			Total:      in.Usage.TotalTokens,
			Model:      in.Model,
		}
	}
	rec.Normalize()
	return rec
}

// translationRequest lists the secondary-language fields the model left empty,
// keyed by the secondary field and valued with the primary text.
func translationRequest(f llm.PartFields) map[string]string {
	pairs := []struct{ key, th, en string }{
		{"common_name_th", f.CommonNameTH, f.CommonNameEN},
		{"characteristics_of_material_th", f.MaterialTH, f.MaterialEN},
		{"function_th", f.FunctionTH, f.FunctionEN},
		{"where_used_th", f.WhereUsedTH, f.WhereUsedEN},
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.th) == "" && strings.TrimSpace(p.en) != "" {
			out[p.key] = strings.TrimSpace(p.en)
		}
	}
	return out
}

func confidenceOf(docs []entity.SourceDocument) constants.SourceConfidence {
	if entity.HasRealSource(docs) {
		return constants.ConfidenceDerived
	}
	return constants.ConfidenceNoSourceStrict
}

// sourceRefs lists the bundled documents, then model-reported sources whose URL occurs in the bundle.
func sourceRefs(docs []entity.SourceDocument, reported []llm.SourceRef, sourceText string) []entity.SourceRef {
	out := make([]entity.SourceRef, 0, len(docs)+len(reported))
	seen := make(map[string]struct{}, len(docs))
	for _, d := range llm.DedupeSources(docs) {
		ref := entity.SourceRef{Name: firstNonEmpty(d.Name, "source"), URL: strings.TrimSpace(d.URL)}
		out = append(out, ref)
		seen[ref.URL+"|"+ref.Name] = struct{}{}
		if ref.URL != "" {
			seen[ref.URL] = struct{}{}
		}
	}
	for _, r := range reported {
		u := strings.TrimSpace(r.URL)
		if u == "" || !strings.Contains(sourceText, u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, entity.SourceRef{Name: firstNonEmpty(r.Name, "source"), URL: u})
	}
	return out
}

func canonicalUOM(s string) string {
	u, _ := constants.CanonicalizeUOM(s)
	return u
}

func joinTwo(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a != "" && b != "":
		return a + " — " + b
	case a != "":
		return a
	default:
		return b
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
