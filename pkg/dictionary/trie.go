// Package dictionary holds the static word trie that spelling queries run against.
package dictionary

import (
	"errors"
	"strings"
)

// AlphabetSize is the number of letters a node can branch on (A-Z).
const AlphabetSize = 26

var (
	// ErrEmptyWord is returned when inserting a blank token.
	ErrEmptyWord = errors.New("dictionary: empty word")
	// ErrInvalidWord is returned when a token has characters outside A-Z.
	ErrInvalidWord = errors.New("dictionary: word contains non A-Z characters")
)

// letterValues are the Scrabble tile points, indexed by letter - 'A'.
var letterValues = [AlphabetSize]int{
	1,  // A
	3,  // B
	3,  // C
	2,  // D
	1,  // E
	4,  // F
	2,  // G
	4,  // H
	1,  // I
	8,  // J
	5,  // K
	1,  // L
	3,  // M
	1,  // N
	1,  // O
	3,  // P
	10, // Q
	1,  // R
	1,  // S
	1,  // T
	1,  // U
	4,  // V
	4,  // W
	8,  // X
	4,  // Y
	10, // Z
}

// LetterValue returns the point value of an uppercase letter, 0 for anything else.
func LetterValue(c byte) int {
	if c < 'A' || c > 'Z' {
		return 0
	}
	return letterValues[c-'A']
}

// Score sums the letter values of word after uppercasing it.
func Score(word string) int {
	word = strings.ToUpper(word)
	total := 0
	for i := 0; i < len(word); i++ {
		total += LetterValue(word[i])
	}
	return total
}

// Node is one letter position in the trie.
// Word is set when a dictionary word ends here, Value is the running
// letter score from the root down to this node.
type Node struct {
	Letter   byte
	Word     string
	Value    int
	children [AlphabetSize]*Node
}

// Child returns the node reached by letter c, or nil.
func (n *Node) Child(c byte) *Node {
	if c < 'A' || c > 'Z' {
		return nil
	}
	return n.children[c-'A']
}

// Terminal reports whether a word ends at n.
func (n *Node) Terminal() bool {
	return n.Word != ""
}

// Trie is a 26-ary prefix tree of uppercase words.
// It is built once and only read afterwards, so lookups need no locking.
type Trie struct {
	root  *Node
	words int
	nodes int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{root: &Node{}, nodes: 1}
}

// Root returns the root node. The root carries no letter and is never terminal.
func (t *Trie) Root() *Node {
	return t.root
}

// Len returns the number of distinct words stored.
func (t *Trie) Len() int {
	return t.words
}

// Nodes returns the number of nodes, root included.
func (t *Trie) Nodes() int {
	return t.nodes
}

// Insert adds word (case-insensitive) to the trie, creating missing nodes
// along its path and accumulating letter values as it goes.
func (t *Trie) Insert(word string) error {
	if word == "" {
		return ErrEmptyWord
	}
	word = strings.ToUpper(word)
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return ErrInvalidWord
		}
	}

	node := t.root
	value := 0
	for i := 0; i < len(word); i++ {
		c := word[i]
		value += letterValues[c-'A']
		next := node.children[c-'A']
		if next == nil {
			next = &Node{Letter: c, Value: value}
			node.children[c-'A'] = next
			t.nodes++
		}
		node = next
	}

	if node.Word == "" {
		t.words++
	}
	node.Word = word
	return nil
}

// Contains reports whether word was inserted. Matching is case-insensitive.
func (t *Trie) Contains(word string) bool {
	node := t.Find(word)
	return node != nil && node.Terminal()
}

// Find walks the trie along word and returns the node it ends on, or nil
// as soon as a letter has no matching child.
func (t *Trie) Find(word string) *Node {
	word = strings.ToUpper(word)
	node := t.root
	for i := 0; i < len(word); i++ {
		node = node.Child(word[i])
		if node == nil {
			return nil
		}
	}
	return node
}
