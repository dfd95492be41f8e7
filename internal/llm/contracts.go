package llm

import (
	"context"
	"strings"
)

// DefaultSystemMessage is sent as the system role on every completion.
const DefaultSystemMessage = "You are a precise technical summarizer for manufacturing/BOM."

// Message is one chat message of the upstream completion contract.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-neutral request built by the prompt builders.
type CompletionRequest struct {
	System       string // optional; DefaultSystemMessage when empty
	Instructions string // task instructions and rules
	SourceText   string // bundled, sanitized source documents

	// Optional per-request overrides of the client defaults.
	Temperature *float32
	MaxTokens   int
}

// Messages renders the request into the chat contract: one system and one user message.
func (r CompletionRequest) Messages() []Message {
	sys := strings.TrimSpace(r.System)
	if sys == "" {
		sys = DefaultSystemMessage
	}
	var b strings.Builder
	b.WriteString(r.Instructions)
	b.WriteString("\n\nRules:\n\n=== SOURCES BEGIN ===\n")
	b.WriteString(r.SourceText)
	b.WriteString("\n=== SOURCES END ===")
	return []Message{
		{Role: "system", Content: sys},
		{Role: "user", Content: b.String()},
	}
}

// Usage mirrors the upstream token counters.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the raw result of one completion call.
type Completion struct {
	Content string
	Model   string
	Usage   *Usage
}

// Completer is the interface the pipeline depends on. Implementations make exactly
// one upstream attempt per call and never retry.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// PartFields is the normalized shape we want from the model. Every field is optional.
type PartFields struct {
	ProductName       string      `json:"product_name"`
	CommonNameEN      string      `json:"common_name_en"`
	CommonNameTH      string      `json:"common_name_th"`
	UOM               string      `json:"uom"`
	MaterialEN        string      `json:"characteristics_of_material_en"`
	MaterialTH        string      `json:"characteristics_of_material_th"`
	EstimatedCapacity string      `json:"estimated_capacity_machine_year"`
	QuantityToUse     string      `json:"quantity_to_use"`
	FunctionEN        string      `json:"function_en"`
	FunctionTH        string      `json:"function_th"`
	WhereUsedEN       string      `json:"where_used_en"`
	WhereUsedTH       string      `json:"where_used_th"`
	ECCN              string      `json:"eccn"`
	HTS               string      `json:"hts"`
	COO               string      `json:"coo"`
	Tags              []string    `json:"tags"`
	Sources           []SourceRef `json:"sources"`
}

// SourceRef is a model-reported source entry.
type SourceRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// EmptyPartFields returns the well-typed empty value used whenever parsing degrades.
func EmptyPartFields() PartFields {
	return PartFields{Tags: []string{}, Sources: []SourceRef{}}
}
