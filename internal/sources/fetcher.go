package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/entity"
)

// maxPageBytes bounds how much of a page is parsed.
const maxPageBytes = 4 << 20

// Placeholder is the synthetic document used when no real source is available.
// It names only the identifier and never counts as a real source.
func Placeholder(part string) entity.SourceDocument {
	return entity.SourceDocument{
		Name:        constants.PlaceholderSourceName,
		Text:        fmt.Sprintf("PART NUMBER: %s. Please generate full specifications based on your internal knowledge.", part),
		Placeholder: true,
	}
}

// PageFetcher downloads caller-supplied pages and turns them into source documents.
type PageFetcher struct {
	http        *http.Client
	userAgent   string
	concurrency int
	log         *slog.Logger
}

func NewPageFetcher(timeout time.Duration, logger *slog.Logger) *PageFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &PageFetcher{
		http:        &http.Client{Timeout: timeout},
		userAgent:   "partsynth/1.0 (+source-fetcher)",
		concurrency: 4,
		log:         logger,
	}
}

// Collect fetches every URL concurrently and keeps the documents that could be read, in input order.
// When none could be read the placeholder document is returned.
func (f *PageFetcher) Collect(ctx context.Context, part string, urls []string) []entity.SourceDocument {
	if len(urls) == 0 {
		return []entity.SourceDocument{Placeholder(part)}
	}

	docs := make([]*entity.SourceDocument, len(urls))
	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			doc, err := f.Fetch(ctx, u)
			if err != nil {
				f.log.Warn("sources.fetch.error", "part", part, "url", u, "error", err)
				return
			}
			docs[i] = &doc
		}(i, u)
	}
	wg.Wait()

	out := make([]entity.SourceDocument, 0, len(urls))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}
	if len(out) == 0 {
		f.log.Info("sources.collect.placeholder", "part", part, "requested", len(urls))
		return []entity.SourceDocument{Placeholder(part)}
	}
	return out
}

// Fetch downloads one page and extracts its visible text and image candidates.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (entity.SourceDocument, error) {
	start := time.Now()
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return entity.SourceDocument{}, fmt.Errorf("invalid source url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return entity.SourceDocument{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.http.Do(req)
	if err != nil {
		return entity.SourceDocument{}, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.log.Warn("sources.fetch.body_close_error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		return entity.SourceDocument{}, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	doc, err := ExtractDocument(u, io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return entity.SourceDocument{}, err
	}
	f.log.Debug("sources.fetch.ok",
		"url", u.String(),
		"text_len", len(doc.Text),
		"images", len(doc.ImageURLs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// ExtractDocument parses HTML into a SourceDocument. Image sources are resolved against base.
func ExtractDocument(base *url.URL, r io.Reader) (entity.SourceDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return entity.SourceDocument{}, fmt.Errorf("parse html: %w", err)
	}

	name := strings.TrimSpace(doc.Find("title").First().Text())
	if name == "" {
		name = base.Hostname()
	}

	var imgs []string
	seen := map[string]struct{}{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, ok = s.Attr("data-src")
		}
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(src))
		if err != nil || src == "" {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		imgs = append(imgs, abs)
	})

	doc.Find("script, style, noscript, svg").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	return entity.SourceDocument{
		Name:      name,
		URL:       base.String(),
		Text:      text,
		ImageURLs: imgs,
	}, nil
}
