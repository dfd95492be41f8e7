package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/partsynth/internal/common"
)

const (
	maxErrorBody    = 512
	maxResponseBody = 8 << 20
)

// JSONCall describes one POST to an upstream JSON API.
type JSONCall struct {
	Op      string // log label, e.g. "chat", "image_search"
	URL     string
	Body    any
	Headers map[string]string
}

// SendJSON posts call.Body as JSON and returns the raw response body and status.
// The caller's request id is forwarded as X-Request-ID; a fresh one is minted otherwise.
// Non-2xx responses return the body alongside an error carrying a short snippet of it.
func SendJSON(ctx context.Context, client *http.Client, call JSONCall, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := logger.With("op", call.Op, "req_id", reqID)

	payload, err := json.Marshal(call.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: encode body: %w", call.Op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: build request: %w", call.Op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	log.Debug("llm.http.request", "url", call.URL, "content_length", len(payload))

	resp, err := client.Do(req)
	if err != nil {
		log.Warn("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, fmt.Errorf("%s: %w", call.Op, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("llm.http.body_close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: read body: %w", call.Op, err)
	}
	log.Debug("llm.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := bytes.TrimSpace(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return raw, resp.StatusCode, fmt.Errorf("%s: upstream status %d: %s", call.Op, resp.StatusCode, snippet)
	}
	return raw, resp.StatusCode, nil
}
