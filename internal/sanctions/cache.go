package sanctions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/metrics"
)

// Config holds the dataset cache settings. It is passed explicitly into
// NewCache; there is no process-wide configuration state.
type Config struct {
	// URL is the source of the targets CSV export.
	URL string
	// Path is where the cached artifact lives on disk.
	Path string
	// RefreshInterval is the cache age beyond which a refresh is attempted.
	RefreshInterval time.Duration
	// FetchTimeout bounds a single download attempt.
	FetchTimeout time.Duration
	// UserAgent optionally overrides the outbound User-Agent header.
	UserAgent string
}

// Cache manages the on-disk cached copy of the sanctions dataset, staleness
// detection, and refresh on demand.
//
// At most one refresh proceeds at a time. Concurrent callers either wait on
// the in-flight refresh or are served the last good snapshot. The snapshot
// itself is swapped through an atomic pointer so readers never block.
type Cache struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	refreshMu sync.Mutex // serializes download + parse
	snap      atomic.Pointer[Snapshot]
}

// NewCache creates a dataset cache. The HTTP client timeout is governed per
// request through contexts; FetchTimeout is applied inside EnsureFresh.
func NewCache(cfg Config, logger *slog.Logger) *Cache {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 12 * time.Hour
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Cache{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
	}
}

// Snapshot returns the currently loaded snapshot, or nil before first load.
func (c *Cache) Snapshot() *Snapshot {
	return c.snap.Load()
}

// EnsureFresh returns a usable snapshot, refreshing the on-disk cache first
// when it is stale. It returns ErrDatasetUnavailable only when the source
// cannot be fetched and no cached copy exists; a fetch failure with any
// last good copy (on disk or in memory) degrades to serving that copy with
// Snapshot.Stale set, preserving availability over freshness.
func (c *Cache) EnsureFresh(ctx context.Context) (*Snapshot, error) {
	if snap := c.snap.Load(); snap != nil && !c.cacheStale() {
		return snap, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have finished the refresh while we waited.
	if snap := c.snap.Load(); snap != nil && !c.cacheStale() {
		return snap, nil
	}

	var fetchErr error
	if c.cacheStale() {
		if fetchErr = c.download(ctx); fetchErr != nil {
			metrics.DatasetRefreshTotal.WithLabelValues("error").Inc()
			c.logger.Warn("sanctions dataset fetch failed", "url", c.cfg.URL, "error", fetchErr)

			if _, statErr := os.Stat(c.cfg.Path); statErr != nil {
				if snap := c.snap.Load(); snap != nil {
					return c.serveStale(snap, fetchErr), nil
				}
				return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, fetchErr)
			}
		} else {
			metrics.DatasetRefreshTotal.WithLabelValues("success").Inc()
		}
	}

	snap, err := c.loadFromDisk()
	if err != nil {
		if prev := c.snap.Load(); prev != nil {
			return c.serveStale(prev, err), nil
		}
		return nil, err
	}

	if fetchErr != nil {
		snap.Stale = true
		snap.LoadErr = fetchErr.Error()
	}
	c.publish(snap)
	return snap, nil
}

// cacheStale reports whether the cached artifact is missing or older than
// the refresh interval.
func (c *Cache) cacheStale() bool {
	info, err := os.Stat(c.cfg.Path)
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > c.cfg.RefreshInterval
}

// download fetches the dataset and atomically replaces the cached artifact
// with write-then-rename semantics, so a concurrent loader never reads a
// partial file.
func (c *Cache) download(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch dataset: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(c.cfg.Path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.cfg.Path), ".targets-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.ReadFrom(resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.cfg.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cached dataset: %w", err)
	}
	return nil
}

func (c *Cache) loadFromDisk() (*Snapshot, error) {
	f, err := os.Open(c.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open cache: %v", ErrDatasetUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	records, err := parseRecords(f)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Records: records, LoadedAt: time.Now().UTC()}, nil
}

// serveStale returns a copy of the last good snapshot flagged as stale,
// without disturbing the published snapshot seen by other readers.
func (c *Cache) serveStale(prev *Snapshot, cause error) *Snapshot {
	stale := *prev
	stale.Stale = true
	stale.LoadErr = cause.Error()
	c.publish(&stale)
	return &stale
}

func (c *Cache) publish(snap *Snapshot) {
	c.snap.Store(snap)
	metrics.DatasetRecords.Set(float64(len(snap.Records)))
	if snap.Stale {
		metrics.DatasetStale.Set(1)
	} else {
		metrics.DatasetStale.Set(0)
	}
	c.logger.Info("sanctions dataset loaded",
		"records", len(snap.Records),
		"stale", snap.Stale,
	)
}
