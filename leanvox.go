package leanvox

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Version is the library version, reported in the User-Agent header.
const Version = "0.1.0"

const (
	defaultBaseURL            = "https://api.leanvox.com"
	defaultAutoAsyncThreshold = 5000

	userAgent = "leanvox-go/" + Version
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authentication. If not provided, the
// client reads from the LEANVOX_API_KEY environment variable, then from
// ~/.lvox/config.toml.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
		c.apiKeySet = true
	}
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
		c.wsURL = deriveWSURL(c.baseURL)
	}
}

// WithTimeout sets the request timeout for buffered calls.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithStreamTimeout sets the overall timeout for streaming calls.
func WithStreamTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.streamTimeout = timeout
	}
}

// WithMaxRetries sets how many times a failed attempt is retried. Zero
// means exactly one attempt.
func WithMaxRetries(maxRetries int) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

// WithAutoAsyncThreshold sets the text length above which Generate routes
// through the async job path.
func WithAutoAsyncThreshold(chars int) ClientOption {
	return func(c *Client) {
		c.autoAsyncThreshold = chars
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is the Leanvox API client. Configuration is fixed at construction
// and shared read-only by all calls; the underlying connection pool is
// created lazily on first network use.
type Client struct {
	apiKey             string
	apiKeySet          bool
	baseURL            string
	wsURL              string
	timeout            time.Duration
	streamTimeout      time.Duration
	maxRetries         int
	autoAsyncThreshold int
	httpClient         *http.Client

	initMu    sync.Mutex
	closeOnce sync.Once
	http      *httpCore

	// Resources
	TTS         *TTSService
	Jobs        *JobsService
	Voices      *VoicesService
	Files       *FilesService
	Generations *GenerationsService
	Account     *AccountService
}

// NewClient creates a new Leanvox client. A key passed via WithAPIKey is
// validated here; when no key is found in any source construction still
// succeeds and the first network call fails with MissingCredentialError.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:            defaultBaseURL,
		wsURL:              deriveWSURL(defaultBaseURL),
		timeout:            defaultTimeout,
		streamTimeout:      defaultStreamTimeout,
		maxRetries:         defaultMaxRetries,
		autoAsyncThreshold: defaultAutoAsyncThreshold,
	}

	for _, opt := range opts {
		opt(c)
	}

	key, err := resolveAPIKey(c.apiKey, c.apiKeySet)
	if err != nil {
		return nil, err
	}
	c.apiKey = key

	// Initialize services
	c.TTS = &TTSService{client: c}
	c.Jobs = &JobsService{client: c}
	c.Voices = &VoicesService{client: c}
	c.Files = &FilesService{client: c}
	c.Generations = &GenerationsService{client: c}
	c.Account = &AccountService{client: c}

	return c, nil
}

// core returns the request executor, creating it exactly once on first
// use. This is where a missing credential surfaces.
func (c *Client) core() (*httpCore, error) {
	if c.apiKey == "" {
		return nil, missingKeyError()
	}
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.http == nil {
		c.http = newHTTPCore(c.baseURL, c.apiKey, userAgent, c.timeout, c.streamTimeout, c.maxRetries, c.httpClient)
	}
	return c.http, nil
}

// Close releases the underlying connection pool. Safe to call more than
// once, and safe against a concurrent first request.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.initMu.Lock()
		defer c.initMu.Unlock()
		if c.http != nil {
			c.http.close()
		}
	})
	return nil
}

// APIKey returns the resolved API key, or empty if none was found.
func (c *Client) APIKey() string {
	return c.apiKey
}

// BaseURL returns the base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WSURL returns the WebSocket base URL used for realtime sessions.
func (c *Client) WSURL() string {
	return c.wsURL
}

func deriveWSURL(baseURL string) string {
	wsURL := strings.Replace(baseURL, "https://", "wss://", 1)
	return strings.Replace(wsURL, "http://", "ws://", 1)
}
