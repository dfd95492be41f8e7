package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/joseph-ayodele/partsynth/internal/common"
)

// Translator fills secondary-language fields from their primary-language counterparts.
type Translator struct {
	completer Completer
	language  string
	logger    *slog.Logger
}

// NewTranslator creates a translator targeting language (Thai when empty).
func NewTranslator(c Completer, language string, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(language) == "" {
		language = DefaultSecondaryLanguage
	}
	return &Translator{completer: c, language: language, logger: logger}
}

// Translate sends one completion for all non-empty fields and returns exactly the requested keys.
// A response carrying none of the requested keys counts as a failure; the map is then empty.
// On failure the returned map is empty (never nil) and the error wraps common.ErrTranslation.
func (t *Translator) Translate(ctx context.Context, fields map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(fields))
	for k, v := range fields {
		if v = strings.TrimSpace(v); v != "" {
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		return map[string]string{}, nil
	}
	keys := slices.Sorted(maps.Keys(clean))

	payload, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		return map[string]string{}, fmt.Errorf("%w: encode payload: %w", common.ErrTranslation, err)
	}

	start := time.Now()
	t.logger.Info("llm.translate.start", "keys", keys, "language", t.language)

	res, err := t.completer.Complete(ctx, BuildTranslationRequest(keys, string(payload), t.language))
	if err != nil {
		t.logger.Warn("llm.translate.error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return map[string]string{}, fmt.Errorf("%w: %w", common.ErrTranslation, err)
	}

	obj, err := ExtractJSONObject(res.Content)
	if err != nil {
		t.logger.Warn("llm.translate.parse_error", "error", err)
		return map[string]string{}, fmt.Errorf("%w: %w", common.ErrTranslation, err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return map[string]string{}, fmt.Errorf("%w: decode: %w", common.ErrTranslation, err)
	}

	out := make(map[string]string, len(keys))
	present := 0
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			out[k] = strings.TrimSpace(s)
			present++
			continue
		}
		out[k] = ""
	}
	if present == 0 {
		t.logger.Warn("llm.translate.keys_missing", "keys", keys)
		return map[string]string{}, fmt.Errorf("%w: response has none of the requested keys", common.ErrTranslation)
	}

	t.logger.Info("llm.translate.ok",
		"keys", len(keys),
		"present", present,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
