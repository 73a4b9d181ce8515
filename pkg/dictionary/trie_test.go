package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTrie(t *testing.T, words ...string) *Trie {
	t.Helper()
	trie := New()
	for _, w := range words {
		require.NoError(t, trie.Insert(w))
	}
	return trie
}

func TestTrieContains(t *testing.T) {
	words := []string{"cat", "CAR", "Act", "at", "ta", "catalog"}
	trie := buildTrie(t, words...)

	for _, w := range words {
		assert.True(t, trie.Contains(w), "inserted word %q should be found", w)
	}

	testCases := []struct {
		input       string
		description string
	}{
		{"CA", "prefix of inserted words is not a word"},
		{"CATA", "longer prefix path, still not terminal"},
		{"DOG", "no path at all"},
		{"CATS", "path breaks one letter past a word"},
		{"", "empty string hits the root which is never terminal"},
		{"C4T", "non letters have no edge"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.False(t, trie.Contains(tc.input))
		})
	}
}

func TestTrieCaseInsensitive(t *testing.T) {
	trie := buildTrie(t, "Zebra")
	assert.True(t, trie.Contains("zebra"))
	assert.True(t, trie.Contains("ZEBRA"))

	node := trie.Find("zEbRa")
	require.NotNil(t, node)
	assert.Equal(t, "ZEBRA", node.Word)
	assert.Equal(t, byte('A'), node.Letter)
}

func TestTrieNodeValues(t *testing.T) {
	trie := buildTrie(t, "QUIZ", "QI")

	testCases := []struct {
		path     string
		expected int
	}{
		{"Q", 10},
		{"QU", 11},
		{"QUI", 12},
		{"QUIZ", 22},
		{"QI", 11},
	}
	for _, tc := range testCases {
		node := trie.Find(tc.path)
		require.NotNil(t, node, tc.path)
		assert.Equal(t, tc.expected, node.Value, tc.path)
	}
	assert.Equal(t, Score("quiz"), trie.Find("QUIZ").Value)
}

func TestTrieCounts(t *testing.T) {
	trie := buildTrie(t, "AB", "ABC", "AB", "B")

	assert.Equal(t, 3, trie.Len(), "duplicate insert should not count twice")
	// root, A, AB, ABC, B
	assert.Equal(t, 5, trie.Nodes())
	assert.False(t, trie.Root().Terminal())
}

func TestTrieInsertRejectsInvalid(t *testing.T) {
	trie := New()
	assert.ErrorIs(t, trie.Insert(""), ErrEmptyWord)
	assert.ErrorIs(t, trie.Insert("don't"), ErrInvalidWord)
	assert.ErrorIs(t, trie.Insert("café"), ErrInvalidWord)
	assert.Equal(t, 0, trie.Len())
	assert.Equal(t, 1, trie.Nodes(), "rejected words must not leave nodes behind")
}

func TestLetterValue(t *testing.T) {
	assert.Equal(t, 1, LetterValue('A'))
	assert.Equal(t, 10, LetterValue('Z'))
	assert.Equal(t, 8, LetterValue('X'))
	assert.Equal(t, 0, LetterValue('a'))
	assert.Equal(t, 0, LetterValue('?'))
	assert.Equal(t, 5, Score("cat"))
}
