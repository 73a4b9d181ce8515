package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/spellserve/pkg/dictionary"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

func newHandler(t *testing.T, input string, maxPrint int) (*InputHandler, *bytes.Buffer) {
	t.Helper()
	trie := dictionary.New()
	for _, w := range []string{"CAT", "ACT", "AT", "TA", "AB", "BA", "A"} {
		require.NoError(t, trie.Insert(w))
	}
	var out bytes.Buffer
	h := NewInputHandler(spell.NewSpeller(trie), 0, maxPrint, 10, strings.NewReader(input), &out)
	return h, &out
}

func TestInputHandlerPrintsBuckets(t *testing.T) {
	h, out := newHandler(t, "cat\n\nA 1\n", 0)
	require.NoError(t, h.Start(context.Background()))
	assert.Equal(t, 2, h.Requests())

	text := out.String()
	assert.Contains(t, text, "Found 5 words for 'CAT' (distance 0)")
	assert.Contains(t, text, "5 | ACT CAT")
	assert.Contains(t, text, "2 | AT TA")
	assert.Contains(t, text, "4 | AB BA")
	assert.Less(t, strings.Index(text, "5 | ACT CAT"), strings.Index(text, "2 | AT TA"), "higher buckets print first")
}

func TestInputHandlerTruncates(t *testing.T) {
	h, out := newHandler(t, "cat\n", 3)
	require.NoError(t, h.Start(context.Background()))

	text := out.String()
	assert.Contains(t, text, "5 | ACT CAT")
	assert.Contains(t, text, "2 | AT")
	assert.NotContains(t, text, "AT TA")
	assert.Contains(t, text, "... and 2 more")
}

func TestInputHandlerRejectsBadLines(t *testing.T) {
	testCases := []struct {
		line        string
		want        string
		description string
	}{
		{"c4t", "letters must be A-Z", "digits"},
		{"cat x", "distance must be an integer", "bad distance"},
		{"cat 3", "invalid distance", "distance out of range"},
		{"cat 1 2", "expected 'letters [distance]'", "too many fields"},
		{"abcdefghijk", "too many letters", "pool too long"},
		{"zzz", "No words found", "nothing spellable"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			h, out := newHandler(t, tc.line+"\n", 0)
			require.NoError(t, h.Start(context.Background()))
			assert.Contains(t, out.String(), tc.want)
		})
	}
}
