// Package spell finds the dictionary words that can be spelled from a pool of
// letters, optionally allowing a small number of extra wildcard letters.
package spell

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bastiangx/spellserve/pkg/dictionary"
)

// MaxDistance is the largest wildcard budget Discover accepts.
const MaxDistance = 2

// ErrInvalidDistance is returned for a distance outside [0, MaxDistance].
var ErrInvalidDistance = errors.New("invalid distance")

// Match is one spellable word. Value is its letter score when scoring is
// enabled and 0 otherwise.
type Match struct {
	Word  string `json:"word" msgpack:"w"`
	Value int    `json:"value" msgpack:"v"`
}

type options struct {
	scoring bool
}

// Option tweaks a Discover call.
type Option func(*options)

// WithScoring selects the scoring variant: matches carry their letter score
// and are ordered by score descending, then word. Without it matches are
// ordered by word only.
func WithScoring(enabled bool) Option {
	return func(o *options) {
		o.scoring = enabled
	}
}

// ValidateDistance checks the wildcard budget.
func ValidateDistance(distance int) error {
	if distance < 0 || distance > MaxDistance {
		return fmt.Errorf("%w: %d unsupported (must be 0..%d)", ErrInvalidDistance, distance, MaxDistance)
	}
	return nil
}

// pool is a letter multiset indexed by letter - 'A'.
type pool [dictionary.AlphabetSize]int

func newPool(letters string) pool {
	var p pool
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			p[c-'A']++
		}
	}
	return p
}

// Discover returns every word in t that can be spelled by consuming letters
// from pool, plus up to distance extra letters of any kind. Each pool letter
// is used at most as many times as it appears. Characters outside A-Z in the
// pool are ignored.
func Discover(t *dictionary.Trie, letters string, distance int, opts ...Option) ([]Match, error) {
	if err := ValidateDistance(distance); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	found := make(map[string]int)
	if t != nil {
		p := newPool(letters)
		walk(t.Root(), &p, distance, found)
	}

	matches := make([]Match, 0, len(found))
	for word, value := range found {
		if !o.scoring {
			value = 0
		}
		matches = append(matches, Match{Word: word, Value: value})
	}
	sortMatches(matches, o.scoring)
	return matches, nil
}

// walk visits node with the remaining pool and budget. Pool letters are
// taken before recursing and put back afterwards, so p is unchanged when
// walk returns.
func walk(node *dictionary.Node, p *pool, budget int, found map[string]int) {
	if node.Terminal() {
		found[node.Word] = node.Value
	}

	if budget > 0 {
		for c := byte('A'); c <= 'Z'; c++ {
			if next := node.Child(c); next != nil {
				walk(next, p, budget-1, found)
			}
		}
	}

	for i := range p {
		if p[i] == 0 {
			continue
		}
		next := node.Child(byte('A' + i))
		if next == nil {
			continue
		}
		p[i]--
		walk(next, p, budget, found)
		p[i]++
	}
}

func sortMatches(matches []Match, scoring bool) {
	sort.Slice(matches, func(i, j int) bool {
		if scoring && matches[i].Value != matches[j].Value {
			return matches[i].Value > matches[j].Value
		}
		return matches[i].Word < matches[j].Word
	})
}
