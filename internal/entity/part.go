package entity

import (
	"github.com/joseph-ayodele/partsynth/constants"
)

// SourceRef is the provenance entry kept on a record.
type SourceRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TokenUsage is the completion usage attached verbatim to a record.
type TokenUsage struct {
	Prompt     int    `json:"prompt"`
	Completion int    `json:"completion"`
	Total      int    `json:"total"`
	Model      string `json:"model"`
}

// PartRecord is the synthesized output for one part identifier.
// Every string field is always emitted; slices are never nil once a record is assembled.
type PartRecord struct {
	PartNumber   string `json:"part_number"`
	ProductName  string `json:"product_name"`
	CommonNameEN string `json:"common_name_en"`
	CommonNameTH string `json:"common_name_th"`
	UOM          string `json:"uom"`

	MaterialEN string `json:"characteristics_of_material_en"`
	MaterialTH string `json:"characteristics_of_material_th"`

	EstimatedCapacity string `json:"estimated_capacity_machine_year"`
	QuantityToUse     string `json:"quantity_to_use"`

	FunctionEN  string `json:"function_en"`
	FunctionTH  string `json:"function_th"`
	WhereUsedEN string `json:"where_used_en"`
	WhereUsedTH string `json:"where_used_th"`

	ECCN string `json:"eccn"`
	HTS  string `json:"hts"`
	COO  string `json:"coo"`

	LongEN string `json:"long_en"`
	LongTH string `json:"long_th"`

	Tags             []string                   `json:"tags"`
	Sources          []SourceRef                `json:"sources"`
	Images           []string                   `json:"images"`
	SourceConfidence constants.SourceConfidence `json:"source_confidence"`
	Tokens           *TokenUsage                `json:"tokens,omitempty"`

	// Error is a debug-only annotation set on fallback records.
	Error string `json:"_error,omitempty"`
}

// Normalize replaces nil slices with empty ones so the JSON shape is stable.
func (r *PartRecord) Normalize() {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Sources == nil {
		r.Sources = []SourceRef{}
	}
	if r.Images == nil {
		r.Images = []string{}
	}
}
