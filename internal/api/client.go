package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	"sessions-admin/internal/utils"
)

const DefaultBaseURL = "https://asicon-scientific-program.onrender.com/api"

const maxBodyBytes = 4 << 20

// maxLoggedBody caps how much of an error body reaches the debug log.
const maxLoggedBody = 512

type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *utils.Logger
	// Transport overrides http.DefaultTransport; tests point it at httptest.
	Transport http.RoundTripper
}

// Client talks to the sessions backend. Public endpoints use a plain client;
// protected endpoints go through an oauth2 transport that attaches the bearer
// token from the shared TokenHolder. Both share one cookie jar so a refresh
// cookie set at login is replayed.
type Client struct {
	baseURL   string
	logger    *utils.Logger
	jar       http.CookieJar
	public    *http.Client
	protected *http.Client
}

func NewClient(opts Options, tokens *TokenHolder) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("api: cookie jar: %w", err)
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	traced := &requestIDTransport{base: base, logger: logger}
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		jar:     jar,
		public:  &http.Client{Transport: traced, Jar: jar, Timeout: opts.Timeout},
		protected: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: traced},
			Jar:       jar,
			Timeout:   opts.Timeout,
		},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Cookies returns the cookies the jar would send to the backend.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}
	return c.jar.Cookies(u)
}

// SetCookies seeds the jar, typically with cookies saved by a previous run.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	u, err := url.Parse(c.baseURL)
	if err != nil || len(cookies) == 0 {
		return
	}
	c.jar.SetCookies(u, cookies)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("api: read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.logger.DebugEnabled() {
			c.logger.Debugf("%s %s -> %d body=%q", method, path, resp.StatusCode, bodyPreview(data))
		}
		return newError(method, path, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

type requestIDTransport struct {
	base   http.RoundTripper
	logger *utils.Logger
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	requestID := utils.NewRequestID()
	req.Header.Set("X-Request-ID", requestID)
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debugf("%s %s failed after %s request_id=%s: %v", req.Method, req.URL.Path, time.Since(start), requestID, err)
		return nil, err
	}
	t.logger.Debugf("%s %s -> %d in %s request_id=%s", req.Method, req.URL.Path, resp.StatusCode, time.Since(start), requestID)
	return resp, nil
}

func bodyPreview(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) > maxLoggedBody {
		return string(data[:maxLoggedBody]) + "..."
	}
	return string(data)
}
