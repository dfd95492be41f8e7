package images

import (
	"context"
	"strings"
)

// Synthesizer generates one image for a prompt and returns its URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// Hints describe the part for synthesis and page-candidate filtering.
type Hints struct {
	DisplayName    string
	CommonName     string
	Material       string
	PageCandidates []string // raw <img> URLs harvested from source pages
	AllowedHosts   []string // hosts of the source pages
}

// BuildSynthesisPrompt describes a studio product shot without text or measuring props.
func BuildSynthesisPrompt(part string, h Hints) string {
	name := firstNonEmpty(h.DisplayName, h.CommonName, part)

	var specs []string
	if c := strings.TrimSpace(h.CommonName); c != "" && c != name {
		specs = append(specs, c)
	}
	if m := strings.TrimSpace(h.Material); m != "" {
		specs = append(specs, m)
	}

	parts := []string{"hyper-realistic professional product photography of " + name}
	if len(specs) > 0 {
		parts = append(parts, strings.Join(specs, ", "))
	}
	parts = append(parts,
		"isolated on clean white background",
		"studio lighting, 8k resolution, highly detailed texture, sharp focus",
		"no text, no watermark, no labels, no ruler, no measuring tape",
		"pure product view, photorealistic",
	)
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
