package httpfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"ppmigraph/internal/util"
	"ppmigraph/pkg/loader"
	"ppmigraph/pkg/loader/csvfile"
	"ppmigraph/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const defaultMaxTries = 3

// HTTPTableLoader fetches a source table from a release archive URL.
// The PPMI source tables are published as versioned CSV attachments;
// this loader covers deployments without a local data directory.
type HTTPTableLoader struct {
	url     string
	client  *http.Client
	retries int

	cache   []loader.Record
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewHTTPTableLoader creates a loader fetching the CSV at url.
func NewHTTPTableLoader(url string) *HTTPTableLoader {
	return &HTTPTableLoader{
		url:     url,
		client:  &http.Client{Timeout: 2 * time.Minute},
		retries: defaultMaxTries,
	}
}

// Load fetches and parses the table, retrying transient fetch failures.
func (l *HTTPTableLoader) Load(ctx context.Context) ([]loader.Record, error) {
	l.cacheMu.RLock()
	if l.cache != nil {
		defer l.cacheMu.RUnlock()
		return l.cache, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(l.url, func() (any, error) {
		l.cacheMu.RLock()
		if l.cache != nil {
			defer l.cacheMu.RUnlock()
			return l.cache, nil
		}
		l.cacheMu.RUnlock()

		content, err := util.RetryWithContext(ctx, l.retries, l.fetch)
		if err != nil {
			return nil, err
		}

		records, err := csvfile.ParseRecords(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", l.url, err)
		}

		l.cacheMu.Lock()
		l.cache = records
		l.cacheMu.Unlock()

		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]loader.Record), nil
}

func (l *HTTPTableLoader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, l.url)
	}
	return io.ReadAll(resp.Body)
}

// FallbackTableLoader prefers a local table file and falls back to a
// remote archive when the file is absent, mirroring how the source
// tables are distributed.
type FallbackTableLoader struct {
	localPath string
	remote    loader.TableLoader
}

// NewFallbackTableLoader creates a loader trying localPath first and
// url second. An empty url disables the fallback.
func NewFallbackTableLoader(localPath, url string) *FallbackTableLoader {
	f := &FallbackTableLoader{localPath: localPath}
	if url != "" {
		f.remote = NewHTTPTableLoader(url)
	}
	return f
}

// Load reads the local file when present, otherwise fetches remotely.
func (l *FallbackTableLoader) Load(ctx context.Context) ([]loader.Record, error) {
	if _, err := os.Stat(l.localPath); err == nil {
		return csvfile.NewCSVTableLoader(l.localPath).Load(ctx)
	}
	if l.remote == nil {
		return nil, fmt.Errorf("table file %s not found and no remote fallback configured", l.localPath)
	}
	logger.Debug("[Loader] Local table file not found, falling back to remote", "path", l.localPath)
	return l.remote.Load(ctx)
}
