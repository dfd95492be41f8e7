package usage

import "strings"

// Price is USD per one million tokens.
type Price struct {
	Input  float64
	Output float64
}

// DefaultPricingModel prices any model missing from the table.
const DefaultPricingModel = "gpt-3.5-turbo"

// Pricing is a rough static table; exact accounting is out of scope.
var Pricing = map[string]Price{
	"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},
	"gpt-4o":        {Input: 5.00, Output: 15.00},
	"gpt-4o-mini":   {Input: 0.15, Output: 0.60},
}

// PriceFor resolves a model by exact name, then by longest known prefix
// ("gpt-4o-mini-2024-07-18" -> gpt-4o-mini), then falls back to DefaultPricingModel.
func PriceFor(model string) Price {
	model = strings.ToLower(strings.TrimSpace(model))
	if p, ok := Pricing[model]; ok {
		return p
	}
	best := ""
	for name := range Pricing {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return Pricing[best]
	}
	return Pricing[DefaultPricingModel]
}

// Cost estimates the USD cost of one call.
func Cost(model string, promptTokens, completionTokens int) float64 {
	p := PriceFor(model)
	return float64(promptTokens)/1_000_000*p.Input + float64(completionTokens)/1_000_000*p.Output
}
