package spell

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/spellserve/pkg/cache"
	"github.com/bastiangx/spellserve/pkg/dictionary"
	"github.com/bastiangx/spellserve/pkg/metrics"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Speller answers spelling queries against one trie, going through a
// coalescing cache when one is configured.
type Speller struct {
	trie      *dictionary.Trie
	scoring   bool
	coalescer *cache.Coalescer
}

// SpellerOption configures a Speller.
type SpellerOption func(*Speller)

// WithCoalescer routes queries through c.
func WithCoalescer(c *cache.Coalescer) SpellerOption {
	return func(s *Speller) {
		s.coalescer = c
	}
}

// WithScoringVariant selects score buckets (true) or length buckets (false).
func WithScoringVariant(enabled bool) SpellerOption {
	return func(s *Speller) {
		s.scoring = enabled
	}
}

// NewSpeller creates a speller over trie. Scoring is on by default.
func NewSpeller(trie *dictionary.Trie, opts ...SpellerOption) *Speller {
	if trie == nil {
		trie = dictionary.New()
	}
	s := &Speller{trie: trie, scoring: true}
	for _, opt := range opts {
		opt(s)
	}
	metrics.DictionaryWords.Set(float64(trie.Len()))
	return s
}

// Trie returns the dictionary the speller searches.
func (s *Speller) Trie() *dictionary.Trie {
	return s.trie
}

// Scoring reports whether buckets are keyed by score.
func (s *Speller) Scoring() bool {
	return s.scoring
}

// Key is the normalized identity of a query, shaped like the request path
// that produced it so equivalent requests share a cache entry.
func Key(letters string, distance int) string {
	return "/" + strings.ToUpper(letters) + "?distance=" + strconv.Itoa(distance)
}

// Spell returns the words spellable from letters with up to distance extra
// letters. An invalid distance fails before any lookup with an error
// matching ErrInvalidDistance.
func (s *Speller) Spell(ctx context.Context, letters string, distance int) (*Result, error) {
	if err := ValidateDistance(distance); err != nil {
		return nil, err
	}
	letters = strings.ToUpper(letters)

	if s.coalescer == nil {
		return s.compute(letters, distance)
	}

	data, err := s.coalescer.Do(ctx, Key(letters, distance), func() ([]byte, error) {
		res, err := s.compute(letters, distance)
		if err != nil {
			return nil, err
		}
		return msgpack.Marshal(res)
	})
	if err != nil {
		return nil, err
	}

	var res Result
	if err := msgpack.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode cached result for %s: %w", Key(letters, distance), err)
	}
	if res.Words == nil {
		res.Words = map[int][]string{}
	}
	return &res, nil
}

func (s *Speller) compute(letters string, distance int) (*Result, error) {
	start := time.Now()
	matches, err := Discover(s.trie, letters, distance, WithScoring(s.scoring))
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	metrics.DiscoverDuration.WithLabelValues(strconv.Itoa(distance)).Observe(elapsed.Seconds())
	metrics.DiscoverMatches.Observe(float64(len(matches)))
	log.Debugf("Discovered %d words for %q (distance %d) in %v", len(matches), letters, distance, elapsed)

	return &Result{Word: letters, Words: Group(matches, s.scoring)}, nil
}
