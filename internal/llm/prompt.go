package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/entity"
)

// DefaultSecondaryLanguage is the localisation target of the *_th fields.
const DefaultSecondaryLanguage = "Thai"

// PromptOptions tunes the part prompt. Zero values select the defaults.
type PromptOptions struct {
	SecondaryLanguage string
	MaxSourceChars    int
}

func (o PromptOptions) language() string {
	if l := strings.TrimSpace(o.SecondaryLanguage); l != "" {
		return l
	}
	return DefaultSecondaryLanguage
}

// BuildPartRequest composes the research prompt for one part identifier.
// Sources are deduplicated, scrubbed of role labels, truncated and bundled with explicit delimiters.
func BuildPartRequest(part string, docs []entity.SourceDocument, opts PromptOptions) CompletionRequest {
	bundle := BundleSources(docs, opts.MaxSourceChars)
	lang := opts.language()

	parts := []string{
		"You are an expert technical researcher for manufacturing parts.",
		"PART NUMBER: " + part,
		"",
		"YOUR PRIMARY TASK: Find or create a meaningful PRODUCT NAME and all technical details for this part.",
		"",
		"SOURCES ANALYSIS:",
		"- Prioritize technical datasheets and manufacturer catalogs over e-commerce listings.",
		"- Extract exact values (voltage, dimensions, material) where available. Do NOT round numbers unless necessary.",
		"",
		"CRITICAL RULES:",
		"",
		"1. PRODUCT NAME FORMATTING:",
		"   - Structure: [Brand] [Model/Series] [Key Spec] [Device Type]",
		`   - Example: "Omron MY2N-GS 24VDC Relay", "SMC KQ2H06-M5A Fitting"`,
		"   - Do NOT just repeat the part number. Make it readable and identifiable.",
		"",
		fmt.Sprintf("2. %s TERMINOLOGY (fields ending in _th):", strings.ToUpper(lang)),
		fmt.Sprintf("   - Use the standard industrial terminology %s-speaking engineers and technicians use.", lang),
	}
	if strings.EqualFold(lang, DefaultSecondaryLanguage) {
		parts = append(parts,
			`   - Example: Use "โซลินอยด์วาล์ว" instead of "วาล์วแม่เหล็กไฟฟ้า".`,
			`   - Example: Use "ตลับลูกปืน" instead of "อุปกรณ์รองรับการหมุน".`,
		)
	}
	parts = append(parts,
		"   - Do NOT translate English words literally. Use the term found in local catalogs.",
		"",
		"3. DATA COMPLETENESS:",
		"   - If sources are missing, use your knowledge of the brand/series to give REALISTIC specs aligned with industry norms.",
		"   - Do NOT leave fields empty.",
		"",
		"4. TRADE COMPLIANCE:",
		`   - eccn/hts/coo: return "" (empty string) unless the sources contain explicit evidence.`,
		"",
		"OUTPUT FIELDS:",
		"- product_name: the full, standardized model name as described above.",
		`- common_name_en: general category (e.g. "Inductive Sensor", "Ball Bearing").`,
		fmt.Sprintf("- common_name_th: %s category (industrial standard term).", lang),
		"- uom: unit of measure; prefer one of " + strings.Join(constants.UOMStrings(), ", ") + ".",
		`- characteristics_of_material_en / _th: key technical specs (e.g. "Stainless Steel 304, 24VDC, IP67").`,
		"- estimated_capacity_machine_year, quantity_to_use: typical figures if known.",
		"- function_en / function_th: what it does and how it works.",
		"- where_used_en / where_used_th: machines or industries where it is commonly found.",
		"- eccn, hts, coo: trade compliance codes (see rule 4).",
		"- tags: short keywords. sources: list of {name, url} you relied on.",
		"",
		"Extract the FULL PRODUCT NAME/MODEL from the sources, not just the part number.",
		"Return EXACT JSON only (no notes, no code fences).",
	)

	return CompletionRequest{
		Instructions: strings.Join(parts, "\n"),
		SourceText:   bundle,
	}
}

// BundleSources renders documents as SOURCE/URL blocks joined by ==== separators.
// An empty list renders the NO_SOURCES_AVAILABLE marker.
func BundleSources(docs []entity.SourceDocument, maxChars int) string {
	list := DedupeSources(docs)
	if len(list) == 0 {
		return constants.NoSourcesMarker
	}
	blocks := make([]string, 0, len(list))
	for _, d := range list {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			name = "source"
		}
		blocks = append(blocks, fmt.Sprintf("SOURCE: %s\nURL: %s\n---\n%s",
			name, strings.TrimSpace(d.URL), SanitizeSourceText(d.Text, maxChars)))
	}
	return strings.Join(blocks, "\n\n====\n\n")
}

// BuildTranslationRequest asks for a faithful translation returning exactly the input keys.
// payload is the JSON encoding of the fields to translate.
func BuildTranslationRequest(keys []string, payload, language string) CompletionRequest {
	if strings.TrimSpace(language) == "" {
		language = DefaultSecondaryLanguage
	}
	instr := strings.Join([]string{
		fmt.Sprintf("You are a precise translator. Translate the given English fields to %s faithfully, without adding facts or marketing language.", language),
		"- Keep technical terms and numbers/units intact.",
		"- Return ONE JSON object with EXACTLY the same keys as input. No code fences.",
		"",
		"INPUT_KEYS: " + strings.Join(keys, ", "),
	}, "\n")
	return CompletionRequest{
		Instructions: instr,
		SourceText:   BundleSources([]entity.SourceDocument{{Name: "to-translate", Text: payload}}, 0),
	}
}

// BuildDetailedSpecRequest asks for a free-text bilingual technical report about an assembled record.
func BuildDetailedSpecRequest(rec entity.PartRecord, language string) CompletionRequest {
	if strings.TrimSpace(language) == "" {
		language = DefaultSecondaryLanguage
	}
	or := func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	}
	lines := []string{
		"Analyse this part and write a comprehensive, detailed technical report.",
		"",
		"BASICS:",
		"- Part Number: " + or(rec.PartNumber, "-"),
		"- Product Name: " + or(rec.ProductName, or(rec.CommonNameEN, "-")),
		"- Common Name (EN): " + or(rec.CommonNameEN, "-"),
		"- Common Name (TH): " + or(rec.CommonNameTH, "-"),
		"- UOM: " + or(rec.UOM, "-"),
		"",
		"CHARACTERISTICS:",
		"- " + or(rec.MaterialEN, "-"),
		"- " + or(rec.MaterialTH, "-"),
		"",
		"FUNCTION AND USAGE:",
		"- Function (EN): " + or(rec.FunctionEN, "-"),
		"- Function (TH): " + or(rec.FunctionTH, "-"),
		"- Where Used (EN): " + or(rec.WhereUsedEN, "-"),
		"- Where Used (TH): " + or(rec.WhereUsedTH, "-"),
		"",
		"TRADE:",
		"- ECCN: " + or(rec.ECCN, "unknown"),
		"- HTS: " + or(rec.HTS, "unknown"),
		"- COO: " + or(rec.COO, "unknown"),
		"",
		"Cover, each under its own heading:",
		"1. Construction, materials, strengths and weaknesses",
		"2. Industries and applications with real examples",
		"3. Related variants and how to choose between them",
		"4. Relevant standards and certifications",
		"5. Installation, operation and maintenance tips",
		"6. Safety warnings and precautions",
		"7. Technical data such as size, weight or power, if known",
		"8. A worked usage scenario",
		"",
		fmt.Sprintf("Answer in both English and %s with clearly separated headings.", language),
	}
	temp := float32(0.7)
	return CompletionRequest{
		Instructions: strings.Join(lines, "\n"),
		SourceText:   BundleSources(nil, 0),
		Temperature:  &temp,
		MaxTokens:    2000,
	}
}
