package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/common"
)

// maxMirrorBytes bounds a single downloaded image.
const maxMirrorBytes = 20 << 20

// presignExpiry is the longest lifetime S3 allows for a presigned GET.
const presignExpiry = 7 * 24 * time.Hour

// Mirrorer copies a transient image URL to durable storage and returns the durable URL.
type Mirrorer interface {
	Mirror(ctx context.Context, part, srcURL string) (string, error)
}

type MirrorConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // when empty, presigned URLs are returned
	Timeout       time.Duration
}

// ObjectMirror stores synthesized images in an S3-compatible bucket.
// Synthesis URLs expire upstream, so they are copied before being returned to callers.
type ObjectMirror struct {
	client     *minio.Client
	bucket     string
	region     string
	publicBase string
	http       *http.Client
	log        *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

func NewObjectMirror(cfg MirrorConfig, logger *slog.Logger) (*ObjectMirror, error) {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, common.ConfigurationError("mirror endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, common.ConfigurationError("mirror bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init mirror client: %w", err)
	}
	return &ObjectMirror{
		client:     client,
		bucket:     bucket,
		region:     region,
		publicBase: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		http:       &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}, nil
}

// ensureBucket creates the bucket on first use. Only success is remembered;
// a failed check is retried by the next call.
func (m *ObjectMirror) ensureBucket(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bucketReady {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
			return err
		}
	}
	m.bucketReady = true
	return nil
}

func (m *ObjectMirror) Mirror(ctx context.Context, part, srcURL string) (string, error) {
	start := time.Now()
	if err := m.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("%w: ensure bucket: %w", common.ErrImage, err)
	}

	data, contentType, err := m.download(ctx, srcURL)
	if err != nil {
		return "", fmt.Errorf("%w: download: %w", common.ErrImage, err)
	}

	key := ObjectKey(part, contentType, uuid.New().String())
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %w", common.ErrImage, err)
	}

	out, err := m.objectURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: object url: %w", common.ErrImage, err)
	}
	m.log.Info("images.mirror.ok",
		"part", part,
		"key", key,
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (m *ObjectMirror) download(ctx context.Context, srcURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			m.log.Warn("images.mirror.body_close_error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err != nil || !strings.HasPrefix(mt, "image/") {
		return nil, "", fmt.Errorf("unexpected content type %q", ct)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMirrorBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxMirrorBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxMirrorBytes)
	}
	return data, ct, nil
}

func (m *ObjectMirror) objectURL(ctx context.Context, key string) (string, error) {
	if m.publicBase != "" {
		return m.publicBase + "/" + m.bucket + "/" + key, nil
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, presignExpiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

var reUnsafeKey = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds images/<part>/<id>.<ext> with the part reduced to URL-safe characters.
func ObjectKey(part, contentType, id string) string {
	safe := strings.Trim(reUnsafeKey.ReplaceAllString(strings.TrimSpace(part), "_"), "_")
	if safe == "" {
		safe = "part"
	}
	ext := "png"
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if sub := path.Base(mt); constants.IsAllowedImageExt(sub) {
			ext = constants.NormalizeExt(sub)
		}
	}
	return "images/" + safe + "/" + id + "." + ext
}
