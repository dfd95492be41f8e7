package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/joseph-ayodele/partsynth/internal/common"
)

var reCodeFence = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// ExtractJSONObject isolates one JSON object from noisy completion text.
// Code fences are stripped, then each top-level '{' is tried in order and the first
// complete object that decodes wins, so braces in surrounding prose are skipped.
// Only when no candidate decodes is the text handed to the repairer.
func ExtractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	starts := objectStarts(s)
	if len(starts) == 0 {
		return "", fmt.Errorf("%w: no json object in completion", common.ErrValidation)
	}
	for _, i := range starts {
		if obj, ok := decodeObjectAt(s, i); ok {
			return obj, nil
		}
	}

	var lastErr error
	for _, i := range starts {
		cand := s[i:]
		if end := strings.LastIndexByte(cand, '}'); end > 0 {
			cand = cand[:end+1]
		}
		fixed, err := jsonrepair.JSONRepair(cand)
		if err != nil {
			lastErr = err
			continue
		}
		if isJSONObject(fixed) {
			return fixed, nil
		}
		lastErr = fmt.Errorf("repaired value is not an object")
	}
	return "", fmt.Errorf("%w: repair: %w", common.ErrValidation, lastErr)
}

// objectStarts returns the offsets of every '{' that opens at brace depth zero.
// Braces inside JSON strings are ignored once an object is open.
func objectStarts(s string) []int {
	var out []int
	depth := 0
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inStr = true
			}
		case '{':
			if depth == 0 {
				out = append(out, i)
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return out
}

// decodeObjectAt decodes the first JSON value starting at offset i and returns its
// original text when it is an object.
func decodeObjectAt(s string, i int) (string, bool) {
	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
		return "", false
	}
	if !isJSONObject(string(raw)) {
		return "", false
	}
	return string(raw), true
}

func isJSONObject(s string) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &m) == nil && m != nil
}

// ParsePartFields runs the full repair stage: extract -> normalize -> schema check -> per-field coercion.
// It never fails; anything unusable degrades to EmptyPartFields.
func ParsePartFields(raw string, logger *slog.Logger) PartFields {
	if logger == nil {
		logger = slog.Default()
	}

	obj, err := ExtractJSONObject(raw)
	if err != nil {
		logger.Warn("llm.parse.extract_failed", "error", err, "raw_len", len(raw))
		return EmptyPartFields()
	}

	norm, _, err := NormalizePartJSON([]byte(obj), logger)
	if err != nil {
		logger.Warn("llm.parse.normalize_failed", "error", err)
		return EmptyPartFields()
	}

	if err := ValidatePartJSON(norm); err == nil {
		out := EmptyPartFields()
		if err := json.Unmarshal(norm, &out); err == nil {
			return out.normalized()
		}
	} else {
		logger.Warn("llm.parse.schema_mismatch", "error", err)
	}
	return coercePartFields(norm)
}

// coercePartFields keeps every field that has the right type and zeroes the rest.
func coercePartFields(doc []byte) PartFields {
	out := EmptyPartFields()
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return out
	}
	str := func(k string) string {
		if s, ok := m[k].(string); ok {
			return strings.TrimSpace(s)
		}
		return ""
	}
	out.ProductName = str("product_name")
	out.CommonNameEN = str("common_name_en")
	out.CommonNameTH = str("common_name_th")
	out.UOM = str("uom")
	out.MaterialEN = str("characteristics_of_material_en")
	out.MaterialTH = str("characteristics_of_material_th")
	out.EstimatedCapacity = str("estimated_capacity_machine_year")
	out.QuantityToUse = str("quantity_to_use")
	out.FunctionEN = str("function_en")
	out.FunctionTH = str("function_th")
	out.WhereUsedEN = str("where_used_en")
	out.WhereUsedTH = str("where_used_th")
	out.ECCN = str("eccn")
	out.HTS = str("hts")
	out.COO = str("coo")

	if tags, ok := m["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out.Tags = append(out.Tags, s)
			}
		}
	}
	if srcs, ok := m["sources"].([]any); ok {
		for _, s := range srcs {
			obj, ok := s.(map[string]any)
			if !ok {
				continue
			}
			name, ok := obj["name"].(string)
			if !ok {
				continue
			}
			url, _ := obj["url"].(string)
			out.Sources = append(out.Sources, SourceRef{Name: name, URL: url})
		}
	}
	return out.normalized()
}

// normalized trims tags and drops blanks so downstream code never sees null slices.
func (f PartFields) normalized() PartFields {
	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	f.Tags = tags
	if f.Sources == nil {
		f.Sources = []SourceRef{}
	}
	return f
}
