package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/partsynth/internal/entity"
)

// DefaultMaxSourceChars caps each source document before it is bundled.
const DefaultMaxSourceChars = 16000

var reRoleLabel = regexp.MustCompile(`(?im)^[ \t]*(?:SYSTEM|USER|ASSISTANT)[ \t]*:`)

// SanitizeSourceText neutralises role labels at line starts and truncates to max runes.
func SanitizeSourceText(text string, max int) string {
	if max <= 0 {
		max = DefaultMaxSourceChars
	}
	out := reRoleLabel.ReplaceAllString(text, "[label:]")
	if utf8.RuneCountInString(out) <= max {
		return out
	}
	runes := []rune(out)
	return string(runes[:max])
}

// DedupeSources drops documents whose trimmed (url, name) pair was already seen.
func DedupeSources(docs []entity.SourceDocument) []entity.SourceDocument {
	seen := make(map[string]struct{}, len(docs))
	out := make([]entity.SourceDocument, 0, len(docs))
	for _, d := range docs {
		k := strings.TrimSpace(d.URL) + "|" + strings.TrimSpace(d.Name)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

// partFieldSynonyms maps keys models like to invent onto our schema.
var partFieldSynonyms = map[string]string{
	"country_of_origin":           "coo",
	"origin":                      "coo",
	"hs_code":                     "hts",
	"hts_code":                    "hts",
	"eccn_code":                   "eccn",
	"function":                    "function_en",
	"where_used":                  "where_used_en",
	"characteristics_of_material": "characteristics_of_material_en",
	"material":                    "characteristics_of_material_en",
	"unit_of_measure":             "uom",
	"name":                        "product_name",
	"estimated_capacity":          "estimated_capacity_machine_year",
}

var partFieldKeys = map[string]struct{}{
	"product_name": {}, "common_name_en": {}, "common_name_th": {}, "uom": {},
	"characteristics_of_material_en": {}, "characteristics_of_material_th": {},
	"estimated_capacity_machine_year": {}, "quantity_to_use": {},
	"function_en": {}, "function_th": {}, "where_used_en": {}, "where_used_th": {},
	"eccn": {}, "hts": {}, "coo": {}, "tags": {}, "sources": {},
}

// NormalizePartJSON
// - Renames known synonyms (country_of_origin -> coo)
// - Drops nulls and unknown keys
// - Coerces scalar numbers/bools in string fields to their literal text
// - Trims strings
func NormalizePartJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("normalize: decode: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}

	dropped := make([]string, 0, 4)
	for _, from := range slices.Sorted(maps.Keys(partFieldSynonyms)) {
		to := partFieldSynonyms[from]
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	for k, v := range maps.Clone(m) {
		if _, ok := partFieldKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case json.Number:
			if k != "tags" && k != "sources" {
				m[k] = t.String()
			}
		case bool:
			if k != "tags" && k != "sources" {
				m[k] = fmt.Sprintf("%t", t)
			}
		case string:
			m[k] = strings.TrimSpace(t)
		}
	}

	// a bare string tag list is common enough to accept
	if s, ok := m["tags"].(string); ok {
		m["tags"] = splitTags(s)
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("normalize: encode: %w", err)
	}
	if len(dropped) > 0 {
		slices.Sort(dropped)
		logger.Debug("llm.parse.normalize", "dropped", dropped)
	}
	return out, dropped, nil
}

func splitTags(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
