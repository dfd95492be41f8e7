package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

// Searcher finds candidate image URLs for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
}

// SearchConfig configures the HTTP image-search client.
type SearchConfig struct {
	URL       string
	APIKey    string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// SearchClient calls an image-search service: {query, count} -> {results:[{url}]}.
// Successful results are cached per (query, count).
type SearchClient struct {
	cfg   SearchConfig
	http  *http.Client
	cache *expirable.LRU[string, []string]
	log   *slog.Logger
}

func NewSearchClient(cfg SearchConfig, logger *slog.Logger) *SearchClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	return &SearchClient{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: expirable.NewLRU[string, []string](cfg.CacheSize, nil, cfg.CacheTTL),
		log:   logger,
	}
}

// Configured reports whether a search endpoint is set.
func (s *SearchClient) Configured() bool {
	return strings.TrimSpace(s.cfg.URL) != ""
}

func (s *SearchClient) Search(ctx context.Context, query string, count int) ([]string, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("%w: image search url not configured", common.ErrConfiguration)
	}
	query = strings.TrimSpace(query)
	key := fmt.Sprintf("%s|%d", query, count)
	if hit, ok := s.cache.Get(key); ok {
		s.log.Debug("images.search.cache_hit", "query", query)
		return hit, nil
	}

	headers := map[string]string{}
	if s.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.cfg.APIKey
	}
	body := map[string]any{"query": query, "count": count}

	raw, _, err := llm.SendJSON(ctx, s.http, llm.JSONCall{Op: "image_search", URL: s.cfg.URL, Body: body, Headers: headers}, s.log)
	if err != nil {
		return nil, fmt.Errorf("%w: image search: %w", common.ErrImage, err)
	}

	var resp struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode image search response: %w", common.ErrImage, err)
	}

	out := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if u := strings.TrimSpace(r.URL); u != "" {
			out = append(out, u)
		}
	}
	s.cache.Add(key, out)
	return out, nil
}

// FirstHTTPURL returns the first well-formed absolute http(s) URL, or "".
func FirstHTTPURL(urls []string) string {
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		if (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return u.String()
		}
	}
	return ""
}
