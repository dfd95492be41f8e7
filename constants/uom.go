package constants

import (
	"strings"
)

type UOM string

const (
	Piece UOM = "pcs"
	Set   UOM = "set"
	Pair  UOM = "pair"
	Meter UOM = "m"
	Kg    UOM = "kg"
	Liter UOM = "L"
	Roll  UOM = "roll"
	Box   UOM = "box"
	Pack  UOM = "pack"
)

var allUOMs = []UOM{
	Piece,
	Set,
	Pair,
	Meter,
	Kg,
	Liter,
	Roll,
	Box,
	Pack,
}

func UOMStrings() []string {
	result := make([]string, len(allUOMs))
	for i, u := range allUOMs {
		result[i] = string(u)
	}
	return result
}

// CanonicalizeUOM maps free-form unit labels onto the canonical set.
// Unknown labels are returned trimmed with ok=false so callers can keep them verbatim.
func CanonicalizeUOM(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	normalized := strings.ToLower(trimmed)

	// synonyms map
	synonyms := map[string]UOM{
		"pc":     Piece,
		"piece":  Piece,
		"pieces": Piece,
		"ea":     Piece,
		"each":   Piece,
		"unit":   Piece,
		"units":  Piece,
		"sets":   Set,
		"kit":    Set,
		"pairs":  Pair,
		"meter":  Meter,
		"metre":  Meter,
		"meters": Meter,
		"kgs":    Kg,
		"kilo":   Kg,
		"liter":  Liter,
		"litre":  Liter,
		"l":      Liter,
		"rolls":  Roll,
		"boxes":  Box,
		"packs":  Pack,
	}

	if u, ok := synonyms[normalized]; ok {
		return string(u), true
	}

	for _, u := range allUOMs {
		if normalized == strings.ToLower(string(u)) {
			return string(u), true
		}
	}

	return trimmed, false
}
