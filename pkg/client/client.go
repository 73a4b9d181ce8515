// Package client is a Go client for the spellserve HTTP API.
//
//	c := client.New("http://localhost:8888", client.Options{})
//	res, err := c.Spell(ctx, "cat", 1)
//
// Responses are requested as msgpack. Rate limited (429) and 5xx responses
// are retried with backoff, honouring Retry-After.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/spellserve/internal/logger"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/vmihailenco/msgpack/v5"
)

const contentTypeMsgpack = "application/msgpack"

// Options tunes the client. Zero values get defaults.
type Options struct {
	HTTPClient   *http.Client
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// NoRetry disables retries entirely.
	NoRetry bool
}

// APIError is a non-200 answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spellserve: %d %s", e.StatusCode, e.Message)
}

// Unwrap exposes spell.ErrInvalidDistance for distance rejections so callers
// can use errors.Is the same way against a local or remote speller.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusBadRequest && strings.HasPrefix(e.Message, spell.ErrInvalidDistance.Error()) {
		return spell.ErrInvalidDistance
	}
	return nil
}

type errorBody struct {
	Error  string `msgpack:"error"`
	Status int    `msgpack:"status"`
}

// Client queries a spellserve instance.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts Options) *Client {
	rc := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		rc.HTTPClient = opts.HTTPClient
	} else {
		rc.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.RetryMax > 0 {
		rc.RetryMax = opts.RetryMax
	}
	if opts.NoRetry {
		rc.RetryMax = 0
	}
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.Logger = leveledLogger{logger.Component("client")}
	// Hand the last response back instead of a generic "giving up" error so
	// the server's message reaches the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}
}

// Spell asks the server for the words spellable from letters with up to
// distance extra letters. Distances outside [0, 2] fail without a request.
func (c *Client) Spell(ctx context.Context, letters string, distance int) (*spell.Result, error) {
	if err := spell.ValidateDistance(distance); err != nil {
		return nil, err
	}
	target := c.baseURL + "/" + url.PathEscape(letters) + "?distance=" + strconv.Itoa(distance)

	var res spell.Result
	if err := c.get(ctx, target, &res); err != nil {
		return nil, err
	}
	if res.Words == nil {
		res.Words = map[int][]string{}
	}
	return &res, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `msgpack:"status"`
	}
	return c.get(ctx, c.baseURL+"/healthz", &body)
}

func (c *Client) get(ctx context.Context, target string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", contentTypeMsgpack)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			RequestID:  resp.Header.Get("X-Request-ID"),
		}
		var eb errorBody
		if isMsgpack(resp) && msgpack.Unmarshal(body, &eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if !isMsgpack(resp) {
		return fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if err := msgpack.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isMsgpack(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), contentTypeMsgpack)
}

// IsRateLimited reports whether err is a 429 from the server.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// leveledLogger adapts a charm logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l *log.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.Error(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.l.Warn(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.Debug(msg, keysAndValues...)
}
