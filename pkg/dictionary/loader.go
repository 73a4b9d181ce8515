package dictionary

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
)

// LoadStats describes a finished dictionary load.
type LoadStats struct {
	Source   string
	Lines    int
	Words    int
	Skipped  int
	Nodes    int
	Duration time.Duration
}

// FetchConfig controls how word lists are downloaded.
type FetchConfig struct {
	HTTPClient   *http.Client
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultFetchConfig returns the download settings used by Open.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
		RetryMax:     3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
	}
}

// Load builds a trie from a line-oriented word list. The first
// whitespace-delimited token of each line is inserted; blank lines are
// ignored and tokens with characters outside A-Z are skipped.
func Load(ctx context.Context, r io.Reader) (*Trie, LoadStats, error) {
	start := time.Now()
	t := New()
	stats := LoadStats{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	for scanner.Scan() {
		if stats.Lines%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, stats, ctx.Err()
			default:
			}
		}
		stats.Lines++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := t.Insert(fields[0]); err != nil {
			stats.Skipped++
			log.Debugf("Skipping line %d (%q): %v", stats.Lines, fields[0], err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan word list: %w", err)
	}

	stats.Words = t.Len()
	stats.Nodes = t.Nodes()
	stats.Duration = time.Since(start)
	return t, stats, nil
}

// LoadFile builds a trie from a word list on disk.
func LoadFile(ctx context.Context, path string) (*Trie, LoadStats, error) {
	if err := ValidateWordList(path); err != nil {
		return nil, LoadStats{Source: path}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{Source: path}, fmt.Errorf("open word list %s: %w", path, err)
	}
	defer f.Close()

	t, stats, err := Load(ctx, f)
	stats.Source = path
	return t, stats, err
}

// LoadURL downloads a word list over http(s) and builds a trie from it.
// 429 and 5xx responses are retried.
func LoadURL(ctx context.Context, url string, cfg FetchConfig) (*Trie, LoadStats, error) {
	client := retryablehttp.NewClient()
	if cfg.HTTPClient != nil {
		client.HTTPClient = cfg.HTTPClient
	}
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.Logger = nil

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, LoadStats{Source: url}, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, LoadStats{Source: url}, fmt.Errorf("fetch word list %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, LoadStats{Source: url}, fmt.Errorf("fetch word list %s: unexpected status %s", url, resp.Status)
	}

	t, stats, err := Load(ctx, resp.Body)
	stats.Source = url
	return t, stats, err
}

// Open loads the word list at src, which may be a file path or an http(s)
// URL. It never fails: an unreadable source is logged and an empty trie is
// returned so the service can still answer (with no words).
func Open(ctx context.Context, src string, cfg FetchConfig) (*Trie, LoadStats) {
	if src == "" {
		log.Warn("No word list configured, serving an empty dictionary")
		return New(), LoadStats{}
	}

	var (
		t     *Trie
		stats LoadStats
		err   error
	)
	if isURL(src) {
		t, stats, err = LoadURL(ctx, src, cfg)
	} else {
		t, stats, err = LoadFile(ctx, src)
	}

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Errorf("Error opening word list: %s does not exist", src)
		} else {
			log.Errorf("Error opening word list: %v", err)
		}
		empty := New()
		return empty, LoadStats{Source: src, Nodes: empty.Nodes()}
	}

	log.Debugf("Trie loaded from %s: %d words, %d nodes, %d skipped in %v",
		stats.Source, stats.Words, stats.Nodes, stats.Skipped, stats.Duration)
	return t, stats
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
