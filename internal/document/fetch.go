package document

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	CacheEnvVar        = "STUDYMIND_CACHE_DIR"
	cacheTTL           = 24 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	defaultHTTPTimeout = 90 * time.Second
	maxDownloadBytes   = 100 << 20
)

// Fetcher downloads PDFs by URL into a disk cache keyed by the URL hash.
// Fresh copies are reused, stale ones are revalidated with ETag/Last-Modified,
// and interrupted downloads resume with a Range request.
type Fetcher struct {
	dir    string
	client *http.Client
	logger *zap.Logger
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// NewFetcher creates the cache directory. An empty dir falls back to
// $STUDYMIND_CACHE_DIR and then the user cache directory.
func NewFetcher(dir string, client *http.Client, logger *zap.Logger) (*Fetcher, error) {
	if dir == "" {
		dir = os.Getenv(CacheEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "studymind-cache")
		}
		dir = filepath.Join(base, "studymind", "pdfs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{dir: dir, client: client, logger: logger}, nil
}

// Load validates the URL, fetches it through the cache and extracts the text.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (*Document, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	data, err := f.Bytes(ctx, u.String())
	if err != nil {
		return nil, err
	}
	doc, err := Extract(NameFromURL(u), data)
	if err != nil {
		return nil, err
	}
	doc.SourceURL = u.String()
	return doc, nil
}

// Bytes returns the PDF body for pdfURL, downloading only when needed.
func (f *Fetcher) Bytes(ctx context.Context, pdfURL string) ([]byte, error) {
	path, err := f.Fetch(ctx, pdfURL)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Fetch returns the cached file path for pdfURL.
func (f *Fetcher) Fetch(ctx context.Context, pdfURL string) (string, error) {
	pdfPath, metaPath, partialPath := f.pathsFor(cacheKey(pdfURL))

	if info, err := os.Stat(pdfPath); err == nil && time.Since(info.ModTime()) < cacheTTL && info.Size() > 0 {
		f.logger.Debug("pdf cache hit", zap.String("url", pdfURL))
		return pdfPath, nil
	}

	meta, _ := readMeta(metaPath)
	info, _ := os.Stat(pdfPath)
	path, err := f.download(ctx, pdfURL, pdfPath, metaPath, partialPath, meta, info)
	if err == nil {
		return path, nil
	}
	if info != nil && info.Size() > 0 {
		f.logger.Warn("pdf refresh failed, serving stale copy", zap.String("url", pdfURL), zap.Error(err))
		return pdfPath, nil
	}
	return "", err
}

func (f *Fetcher) download(ctx context.Context, pdfURL, pdfPath, metaPath, partialPath string, meta cacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch PDF: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			_ = writeMeta(metaPath, meta)
			_ = os.Chtimes(pdfPath, time.Now(), time.Now())
			return pdfPath, nil
		}
		return f.download(ctx, pdfURL, pdfPath, metaPath, partialPath, cacheMeta{}, nil)
	case http.StatusOK:
		return f.saveBody(resp, pdfPath, metaPath, partialPath, false)
	case http.StatusPartialContent:
		return f.saveBody(resp, pdfPath, metaPath, partialPath, partialSize > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("failed to fetch PDF: %s (%s)", resp.Status, string(body))
	}
}

func (f *Fetcher) saveBody(resp *http.Response, pdfPath, metaPath, partialPath string, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, io.LimitReader(resp.Body, maxDownloadBytes)); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(partialPath, pdfPath); err != nil {
		return "", err
	}

	meta := cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(pdfPath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return "", err
	}
	f.logger.Info("pdf downloaded", zap.String("url", meta.URL), zap.Int64("bytes", meta.Size))
	return pdfPath, nil
}

func (f *Fetcher) pathsFor(key string) (string, string, string) {
	return filepath.Join(f.dir, key+".pdf"), filepath.Join(f.dir, key+metaSuffix), filepath.Join(f.dir, key+partialSuffix)
}

func cacheKey(pdfURL string) string {
	sum := sha1.Sum([]byte(pdfURL))
	return hex.EncodeToString(sum[:])
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
