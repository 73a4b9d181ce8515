package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bastiangx/spellserve/pkg/config"
	"github.com/bastiangx/spellserve/pkg/dictionary"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
	log.SetLevel(log.FatalLevel)
}

func testConfig() config.ServerConfig {
	cfg := config.DefaultConfig().Server
	cfg.RequestsPerSecond = 0
	cfg.MaxLetters = 10
	return cfg
}

func newServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	trie := dictionary.New()
	for _, w := range []string{"CAT", "ACT", "AT", "TA", "AB", "BA", "A"} {
		require.NoError(t, trie.Insert(w))
	}
	return New(spell.NewSpeller(trie), cfg)
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUsage(t *testing.T) {
	w := get(t, newServer(t, testConfig()).Handler(), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Find what words you can spell")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newServer(t, testConfig()).Handler()

	w := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	get(t, h, "/cat")
	w = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "spellserve_http_requests_total")
}

func TestSpellJSON(t *testing.T) {
	h := newServer(t, testConfig()).Handler()

	w := get(t, h, "/cat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"word":"CAT","words":{"5":["ACT","CAT"],"2":["AT","TA"],"1":["A"]}}`, w.Body.String())

	w = get(t, h, "/A?distance=1")
	require.Equal(t, http.StatusOK, w.Code)
	var res spell.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, map[int][]string{4: {"AB", "BA"}, 2: {"AT", "TA"}, 1: {"A"}}, res.Words)
}

func TestSpellMsgpack(t *testing.T) {
	w := get(t, newServer(t, testConfig()).Handler(), "/cAt", "Accept", "application/msgpack")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/msgpack", w.Header().Get("Content-Type"))

	var res spell.Result
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "CAT", res.Word)
	assert.Equal(t, 5, res.Count())
}

func TestSpellRejections(t *testing.T) {
	h := newServer(t, testConfig()).Handler()

	testCases := []struct {
		target      string
		code        int
		description string
	}{
		{"/cat?distance=3", http.StatusBadRequest, "distance above range"},
		{"/cat?distance=-1", http.StatusBadRequest, "negative distance"},
		{"/cat?distance=two", http.StatusBadRequest, "non numeric distance"},
		{"/abcdefghijk", http.StatusBadRequest, "too many letters"},
		{"/c4t", http.StatusNotFound, "digits in letters"},
		{"/cat/dog", http.StatusNotFound, "nested path"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			w := get(t, h, tc.target)
			assert.Equal(t, tc.code, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Status)
			assert.NotEmpty(t, body.Error)
		})
	}
}

type failingSpeller struct{}

func (failingSpeller) Spell(context.Context, string, int) (*spell.Result, error) {
	return nil, errors.New("store exploded")
}

func TestSpellInternalError(t *testing.T) {
	w := get(t, New(failingSpeller{}, testConfig()).Handler(), "/cat")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestRequestID(t *testing.T) {
	h := newServer(t, testConfig()).Handler()

	w := get(t, h, "/cat", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = get(t, h, "/cat")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 2
	h := newServer(t, cfg).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/cat").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/cat").Code)
	w := get(t, h, "/cat")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := newServer(t, cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
