package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bastiangx/spellserve/internal/utils"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vmihailenco/msgpack/v5"
)

const usage = "Find what words you can spell<br>By entering a word in the url!"

const contentTypeMsgpack = "application/msgpack"

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error  string `json:"error" msgpack:"error"`
	Status int    `json:"status" msgpack:"status"`
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleUsage)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/:letters", s.handleSpell)
	s.engine.NoRoute(func(c *gin.Context) {
		s.respondError(c, http.StatusNotFound, "not found")
	})
}

func (s *Server) handleUsage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(usage))
}

func (s *Server) handleHealth(c *gin.Context) {
	s.respond(c, http.StatusOK, gin.H{"status": "ok"})
}

// handleSpell handles GET /:letters?distance=N.
func (s *Server) handleSpell(c *gin.Context) {
	letters := c.Param("letters")
	if !utils.IsLetters(letters) {
		s.respondError(c, http.StatusNotFound, "not found")
		return
	}
	if !utils.WithinLimit(letters, s.cfg.MaxLetters) {
		s.respondError(c, http.StatusBadRequest, fmt.Sprintf("letters exceed maximum length of %d", s.cfg.MaxLetters))
		return
	}

	distance, err := strconv.Atoi(c.DefaultQuery("distance", "0"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "distance must be an integer")
		return
	}

	res, err := s.speller.Spell(c.Request.Context(), letters, distance)
	if err != nil {
		if errors.Is(err, spell.ErrInvalidDistance) {
			s.respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Spell failed", "letters", letters, "distance", distance, "request_id", c.GetString(requestIDKey), "err", err)
		s.respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	s.respond(c, http.StatusOK, res)
}

func wantsMsgpack(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), contentTypeMsgpack)
}

func (s *Server) respond(c *gin.Context, code int, v any) {
	if !wantsMsgpack(c) {
		c.JSON(code, v)
		return
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		s.logger.Errorf("Marshaling response: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Status: http.StatusInternalServerError})
		return
	}
	c.Data(code, contentTypeMsgpack, data)
}

func (s *Server) respondError(c *gin.Context, code int, message string) {
	s.respond(c, code, ErrorResponse{Error: message, Status: code})
}
