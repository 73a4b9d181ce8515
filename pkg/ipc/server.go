package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/spellserve/internal/logger"
	"github.com/bastiangx/spellserve/internal/utils"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Speller answers spelling queries.
type Speller interface {
	Spell(ctx context.Context, letters string, distance int) (*spell.Result, error)
}

// Server handles msgpack IPC for spelling queries
type Server struct {
	speller    Speller
	maxLetters int
	dec        *msgpack.Decoder
	out        *bufio.Writer
	enc        *msgpack.Encoder
	logger     *log.Logger
	requests   int
}

// NewServer creates a server reading frames from r and writing them to w.
// maxLetters of zero or less leaves pool length unchecked.
func NewServer(speller Speller, maxLetters int, r io.Reader, w io.Writer) *Server {
	out := bufio.NewWriter(w)
	return &Server{
		speller:    speller,
		maxLetters: maxLetters,
		dec:        msgpack.NewDecoder(bufio.NewReader(r)),
		out:        out,
		enc:        msgpack.NewEncoder(out),
		logger:     logger.Component("ipc"),
	}
}

// Start announces readiness and answers requests until the input closes or
// ctx is cancelled. A stream that stops decoding as msgpack is fatal.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting IPC server")

	if err := s.send(StatusMessage{Status: "ready"}); err != nil {
		return err
	}

	for ctx.Err() == nil {
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Input closed", "requests", s.requests)
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}
		s.requests++

		if err := s.handleRequest(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}

// Requests returns how many frames have been read.
func (s *Server) Requests() int {
	return s.requests
}

// handleRequest answers one frame. Only write failures are returned.
func (s *Server) handleRequest(ctx context.Context, raw msgpack.RawMessage) error {
	var req SpellRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Errorf("Unmarshaling request: %v", err)
		return s.sendError("", "invalid request", 400)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	letters := utils.NormalizeLetters(req.Letters)
	if !utils.IsLetters(letters) {
		s.logger.Debug("Rejected letters", "id", req.ID, "letters", req.Letters)
		return s.sendError(req.ID, "letters must be one or more of A-Z", 400)
	}
	if !utils.WithinLimit(letters, s.maxLetters) {
		return s.sendError(req.ID, fmt.Sprintf("letters exceed maximum length of %d", s.maxLetters), 400)
	}

	start := time.Now()
	res, err := s.speller.Spell(ctx, letters, req.Distance)
	if err != nil {
		if errors.Is(err, spell.ErrInvalidDistance) {
			return s.sendError(req.ID, err.Error(), 400)
		}
		s.logger.Error("Spell failed", "id", req.ID, "err", err)
		return s.sendError(req.ID, "internal error", 500)
	}

	return s.send(SpellResponse{
		ID:        req.ID,
		Word:      res.Word,
		Buckets:   res.Words,
		Count:     res.Count(),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) send(v any) error {
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(SpellError{ID: id, Error: message, Code: code})
}
