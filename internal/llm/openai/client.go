package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

// Complete implements llm.Completer with exactly one chat/completions call. It never retries.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	if !c.Configured() {
		return llm.Completion{}, common.ConfigurationError("OPENAI_API_KEY is not set")
	}

	ctx, rid := requestID(ctx)
	start := time.Now()

	temp := c.cfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": temp,
		"messages":    req.Messages(),
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", temp,
		"instructions_len", len(req.Instructions),
		"source_len", len(req.SourceText),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return llm.Completion{}, common.CompletionError("rate limiter wait", err)
	}

	raw, status, err := llm.SendJSON(ctx, c.http, llm.JSONCall{Op: "chat", URL: c.endpoint("/chat/completions"), Body: body, Headers: c.authHeaders()}, c.log)
	if err != nil {
		c.log.Error("llm.complete.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Completion{}, common.CompletionError("chat completion request", err)
	}

	var cc struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage *llm.Usage `json:"usage"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.complete.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Completion{}, common.CompletionError("decode completion envelope", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.complete.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Completion{}, common.CompletionError("no choices in completion response", nil)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		c.log.Error("llm.complete.empty_content", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Completion{}, common.CompletionError("empty completion content", nil)
	}

	model := cc.Model
	if model == "" {
		model = c.cfg.Model
	}
	out := llm.Completion{Content: content, Model: model, Usage: cc.Usage}

	attrs := []any{
		"req_id", rid,
		"model", model,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if cc.Usage != nil {
		attrs = append(attrs, "total_tokens", cc.Usage.TotalTokens)
	}
	c.log.Info("llm.complete.ok", attrs...)
	return out, nil
}

// Synthesize requests exactly one generated image and returns its URL.
func (c *Client) Synthesize(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", common.ConfigurationError("OPENAI_API_KEY is not set")
	}
	ctx, rid := requestID(ctx)
	start := time.Now()

	body := map[string]any{
		"prompt": prompt,
		"n":      1,
		"size":   c.cfg.ImageSize,
	}
	if c.cfg.ImageModel != "" {
		body["model"] = c.cfg.ImageModel
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter wait: %w", common.ErrImage, err)
	}

	raw, _, err := llm.SendJSON(ctx, c.http, llm.JSONCall{Op: "image_synthesis", URL: c.endpoint("/images/generations"), Body: body, Headers: c.authHeaders()}, c.log)
	if err != nil {
		c.log.Warn("images.synthesize.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: image synthesis: %w", common.ErrImage, err)
	}

	var resp struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: decode image response: %w", common.ErrImage, err)
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
		return "", fmt.Errorf("%w: image response has no url", common.ErrImage)
	}

	c.log.Info("images.synthesize.ok", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(resp.Data[0].URL), nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
}

// requestID returns the caller's request id, minting one into ctx when absent.
func requestID(ctx context.Context) (context.Context, string) {
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		return ctx, rid
	}
	rid := uuid.NewString()
	return common.WithRequestID(ctx, rid), rid
}
