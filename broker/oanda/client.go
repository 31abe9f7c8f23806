// Package oanda is a small OANDA v20 REST binding that implements
// broker.Broker.
package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"
)

var ErrLiveNotAllowed = errors.New("oanda: live environment not allowed")

// BaseURL maps an environment name to its REST endpoint. Live trading has
// to be asked for explicitly.
func BaseURL(env string, allowLive bool) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "practice", "demo":
		return PracticeURL, nil
	case "live":
		if !allowLive {
			return "", ErrLiveNotAllowed
		}
		return LiveURL, nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

type Options struct {
	Env       string
	AllowLive bool
	// BaseURL overrides Env, mostly for tests.
	BaseURL string

	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int

	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxElapsed     time.Duration

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	accountID  string
	httpClient *http.Client
	limiter    *rate.Limiter

	maxRetries     uint64
	initialBackoff time.Duration
	maxElapsed     time.Duration

	log zerolog.Logger
}

func NewClient(token, accountID string, opts Options) (*Client, error) {
	if token == "" {
		return nil, errors.New("oanda: missing token")
	}

	base := opts.BaseURL
	if base == "" {
		var err error
		base, err = BaseURL(opts.Env, opts.AllowLive)
		if err != nil {
			return nil, err
		}
	}

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 10
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxElapsed == 0 {
		opts.MaxElapsed = 30 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:        strings.TrimRight(base, "/"),
		token:          token,
		accountID:      accountID,
		httpClient:     hc,
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		maxElapsed:     opts.MaxElapsed,
		log:            opts.Logger.With().Str("component", "oanda").Logger(),
	}, nil
}

func (c *Client) AccountID() string { return c.accountID }

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("oanda: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("oanda: http %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func newAPIError(resp *http.Response) *APIError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	e := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	var msg struct {
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	}
	if json.Unmarshal(b, &msg) == nil {
		e.Code = msg.ErrorCode
		e.Message = msg.ErrorMessage
	}
	return e
}

func (c *Client) url(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, u string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept-Datetime-Format", "RFC3339")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// getJSON performs a rate limited GET and decodes the body into out.
// Transport errors, 429 and 5xx are retried with exponential backoff.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.url(path, q)

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := c.newRequest(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			apiErr := newAPIError(resp)
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxElapsedTime = c.maxElapsed

	notify := func(err error, d time.Duration) {
		c.log.Warn().Err(err).Str("path", path).Dur("backoff", d).Msg("retrying request")
	}
	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx), notify)
}

// postJSON sends one request and never retries it.
// postJSON sends in once and returns the raw success body undecoded.
func (c *Client) postJSON(ctx context.Context, path string, in any) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.url(path, nil), body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, newAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func (c *Client) accountPath(suffix string) (string, error) {
	if c.accountID == "" {
		return "", errors.New("oanda: missing account id")
	}
	return "/v3/accounts/" + url.PathEscape(c.accountID) + suffix, nil
}

// parseFloat parses an OANDA decimal string. Empty strings are zero.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseUnits(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
