// Package cli reads letter pools from stdin and prints what they spell, for
// debugging the dictionary and cache without an HTTP client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/spellserve/internal/utils"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/charmbracelet/log"
)

// Speller answers spelling queries.
type Speller interface {
	Spell(ctx context.Context, letters string, distance int) (*spell.Result, error)
}

// InputHandler processes lines of the form "letters [distance]" and prints
// the spellable words grouped by bucket, highest first.
type InputHandler struct {
	speller         Speller
	defaultDistance int
	maxPrint        int
	maxLetters      int
	requestCount    int
	in              io.Reader
	out             *log.Logger
}

// NewInputHandler creates a handler reading from in and printing to out.
// A maxPrint or maxLetters of zero or less means unlimited.
func NewInputHandler(speller Speller, defaultDistance, maxPrint, maxLetters int, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		speller:         speller,
		defaultDistance: defaultDistance,
		maxPrint:        maxPrint,
		maxLetters:      maxLetters,
		in:              in,
		out:             log.NewWithOptions(out, log.Options{}),
	}
}

// Start prompts for input until EOF or ctx is cancelled.
func (h *InputHandler) Start(ctx context.Context) error {
	h.out.Print("SpellServe CLI")
	h.out.Print("type letters and an optional distance (0-2), then Enter (Ctrl+C to exit):")

	scanner := bufio.NewScanner(h.in)
	for ctx.Err() == nil {
		h.out.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h.handleInput(ctx, line)
	}
	return nil
}

// Requests returns how many non-empty lines were handled.
func (h *InputHandler) Requests() int {
	return h.requestCount
}

func (h *InputHandler) handleInput(ctx context.Context, line string) {
	h.requestCount++

	letters, distance, err := h.parseLine(line)
	if err != nil {
		h.out.Errorf("%v", err)
		return
	}

	start := time.Now()
	res, err := h.speller.Spell(ctx, letters, distance)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, spell.ErrInvalidDistance) {
			h.out.Errorf("%v", err)
		} else {
			h.out.Errorf("Spell failed: %v", err)
		}
		return
	}
	log.Debugf("Took [ %v ] for '%s' at distance %d", elapsed, res.Word, distance)

	total := res.Count()
	if total == 0 {
		h.out.Warnf("No words found for '%s' (distance %d)", res.Word, distance)
		return
	}

	h.out.Printf("Found %d words for '%s' (distance %d):", total, res.Word, distance)
	printed := 0
	for _, key := range bucketKeys(res.Words) {
		words := res.Words[key]
		if h.maxPrint > 0 && printed+len(words) > h.maxPrint {
			words = words[:h.maxPrint-printed]
		}
		if len(words) == 0 {
			break
		}
		h.out.Printf("%4d | %s", key, strings.Join(words, " "))
		printed += len(words)
	}
	if printed < total {
		h.out.Printf("... and %d more", total-printed)
	}
}

// parseLine splits "letters [distance]". The distance defaults to the
// handler's default; range checking is left to the speller.
func (h *InputHandler) parseLine(line string) (string, int, error) {
	fields := strings.Fields(line)
	if len(fields) > 2 {
		return "", 0, fmt.Errorf("expected 'letters [distance]', got %d fields", len(fields))
	}

	letters := utils.NormalizeLetters(fields[0])
	if !utils.IsLetters(letters) {
		return "", 0, fmt.Errorf("letters must be A-Z: %q", fields[0])
	}
	if !utils.WithinLimit(letters, h.maxLetters) {
		return "", 0, fmt.Errorf("too many letters: %d (max %d)", len(letters), h.maxLetters)
	}

	distance := h.defaultDistance
	if len(fields) == 2 {
		d, err := strconv.Atoi(fields[1])
		if err != nil {
			return "", 0, fmt.Errorf("distance must be an integer: %q", fields[1])
		}
		distance = d
	}
	return letters, distance, nil
}

func bucketKeys(buckets map[int][]string) []int {
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	return keys
}
