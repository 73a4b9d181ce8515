/*
Package server exposes spelling queries over HTTP.

Routes:

	GET /                      usage text
	GET /:letters?distance=N   words spellable from letters, N in [0, 2]
	GET /healthz               liveness
	GET /metrics               prometheus exposition

A query answers with the pool and its buckets:

	GET /cat?distance=0
	{"word": "CAT", "words": {"5": ["ACT", "CAT"], "2": ["AT", "TA"]}}

Responses are JSON unless the request sends Accept: application/msgpack.
Every response carries an X-Request-ID header, echoed from the request when
present.
*/
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bastiangx/spellserve/internal/logger"
	"github.com/bastiangx/spellserve/pkg/config"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Speller answers spelling queries.
type Speller interface {
	Spell(ctx context.Context, letters string, distance int) (*spell.Result, error)
}

// Server is the HTTP front end.
type Server struct {
	speller Speller
	cfg     config.ServerConfig
	engine  *gin.Engine
	http    *http.Server
	logger  *log.Logger
}

// New builds the router. Call Start to listen.
func New(speller Speller, cfg config.ServerConfig) *Server {
	s := &Server{
		speller: speller,
		cfg:     cfg,
		engine:  gin.New(),
		logger:  logger.Component("http"),
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(s.logger))
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.engine.Use(rateLimit(rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)))
	}
	s.registerRoutes()

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// up to the configured shutdown timeout or ctx, whichever ends first.
func (s *Server) Shutdown(ctx context.Context) error {
	if d := s.cfg.ShutdownTimeout.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	start := time.Now()
	err := s.http.Shutdown(ctx)
	s.logger.Debug("Shut down", "took", time.Since(start), "err", err)
	return err
}
