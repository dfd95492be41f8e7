package entity

import "time"

// UsageEvent is one completion's token usage and estimated cost.
type UsageEvent struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id,omitempty"`
	Action           string    `json:"action"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	CreatedAt        time.Time `json:"created_at"`
}

// ModelUsage aggregates usage for one model.
type ModelUsage struct {
	Model       string  `json:"model"`
	Requests    int64   `json:"requests"`
	TotalTokens int64   `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`
}

// UsageTotals aggregates usage since a point in time.
type UsageTotals struct {
	Since            time.Time    `json:"since"`
	Requests         int64        `json:"requests"`
	PromptTokens     int64        `json:"prompt_tokens"`
	CompletionTokens int64        `json:"completion_tokens"`
	TotalTokens      int64        `json:"total_tokens"`
	CostUSD          float64      `json:"cost_usd"`
	ByModel          []ModelUsage `json:"by_model"`
}
