package leanvox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultStreamTimeout = 120 * time.Second
	defaultMaxRetries    = 2
)

// backoffSchedule is the per-attempt wait when the server gives no
// Retry-After hint. It does not grow past the last entry.
var backoffSchedule = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// decideRetry is the single retry decision procedure shared by every wait
// site: given the 0-based attempt index, the retry budget, the response
// status and the raw Retry-After header, it reports whether to retry and
// how long to wait first. A status of 0 means the transport failed before
// any response was received.
func decideRetry(attempt, maxRetries, status int, retryAfter string) (time.Duration, bool) {
	if attempt >= maxRetries {
		return 0, false
	}
	if status != 0 && !retryableStatuses[status] {
		return 0, false
	}
	return backoffWait(attempt, retryAfter), true
}

// backoffWait computes the wait before the next attempt. A parseable
// non-negative Retry-After always wins over the schedule.
func backoffWait(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(retryAfter), 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	if attempt >= len(backoffSchedule) {
		attempt = len(backoffSchedule) - 1
	}
	return backoffSchedule[attempt]
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// filePart is one file in a multipart request. Contents are buffered so a
// retried attempt can resend the body.
type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// requestOptions carries the optional pieces of a single request. json and
// the multipart fields/files are mutually exclusive; files win.
type requestOptions struct {
	json    interface{}
	fields  map[string]string
	files   []filePart
	params  url.Values
	timeout time.Duration
}

// httpCore executes requests against the API with bounded retry. It is
// created once per client, at first network use, and shared by all calls.
type httpCore struct {
	baseURL       string
	apiKey        string
	userAgent     string
	timeout       time.Duration
	streamTimeout time.Duration
	maxRetries    int
	client        *http.Client

	// sleep is swapped out in tests to record backoff without waiting.
	sleep func(context.Context, time.Duration) error
}

func newHTTPCore(baseURL, apiKey, userAgent string, timeout, streamTimeout time.Duration, maxRetries int, client *http.Client) *httpCore {
	if client == nil {
		// Deadlines come from per-request contexts; a client-level Timeout
		// would also cut off long-lived streams.
		client = &http.Client{}
	}
	return &httpCore{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		apiKey:        apiKey,
		userAgent:     userAgent,
		timeout:       timeout,
		streamTimeout: streamTimeout,
		maxRetries:    maxRetries,
		client:        client,
		sleep:         sleepContext,
	}
}

func (h *httpCore) close() {
	h.client.CloseIdleConnections()
}

// request executes a buffered call with retry. maxRetries+1 attempts total:
// transport failures and retryable statuses back off and retry; anything
// else surfaces as a typed error. The response body is returned raw; an
// empty body is an empty slice.
func (h *httpCore) request(ctx context.Context, method, path string, opts *requestOptions) ([]byte, error) {
	if opts == nil {
		opts = &requestOptions{}
	}
	timeout := h.timeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}
	// One ID per logical call, stable across its retry attempts.
	requestID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		req, err := h.newRequest(ctx, method, path, opts, requestID)
		if err != nil {
			return nil, err
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := h.client.Do(req.WithContext(reqCtx))
		if err != nil {
			cancel()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if wait, retry := decideRetry(attempt, h.maxRetries, 0, ""); retry {
				if serr := h.sleep(ctx, wait); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, &ConnectionError{
				Message: fmt.Sprintf("connection failed after %d attempts: %v", h.maxRetries+1, err),
				Err:     err,
			}
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		cancel()
		if readErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if wait, retry := decideRetry(attempt, h.maxRetries, 0, ""); retry {
				if serr := h.sleep(ctx, wait); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, &ConnectionError{
				Message: fmt.Sprintf("connection failed after %d attempts: %v", h.maxRetries+1, readErr),
				Err:     readErr,
			}
		}

		if resp.StatusCode < 400 {
			return body, nil
		}

		if wait, retry := decideRetry(attempt, h.maxRetries, resp.StatusCode, resp.Header.Get("Retry-After")); retry {
			if serr := h.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
			continue
		}
		_, typedErr := classify(resp.StatusCode, body)
		return nil, typedErr
	}
}

// requestJSON executes a buffered call and decodes the response into out.
// A nil out or an empty body leaves out untouched.
func (h *httpCore) requestJSON(ctx context.Context, method, path string, opts *requestOptions, out interface{}) error {
	body, err := h.request(ctx, method, path, opts)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// AudioStream is a live audio byte stream from the API. It must be closed
// on every exit path; Close is idempotent and releases the underlying
// connection.
type AudioStream struct {
	body      io.ReadCloser
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

func (s *AudioStream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

func (s *AudioStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
		s.cancel()
	})
	return s.closeErr
}

// openStream opens a chunked streaming call and hands back the live byte
// stream without buffering it. Retries apply only to the connect/header
// phase; once the stream is handed to the caller a mid-stream failure
// propagates as a read error. When the caller's context carries no
// deadline the stream timeout bounds the whole call so a wedged connection
// errors instead of hanging.
func (h *httpCore) openStream(ctx context.Context, method, path string, jsonBody interface{}) (*AudioStream, error) {
	opts := &requestOptions{json: jsonBody}
	requestID := uuid.NewString()

	streamCtx, cancel := context.WithCancel(ctx)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		cancel()
		streamCtx, cancel = context.WithTimeout(ctx, h.streamTimeout)
	}

	for attempt := 0; ; attempt++ {
		req, err := h.newRequest(streamCtx, method, path, opts, requestID)
		if err != nil {
			cancel()
			return nil, err
		}
		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				cancel()
				return nil, ctx.Err()
			}
			if wait, retry := decideRetry(attempt, h.maxRetries, 0, ""); retry {
				if serr := h.sleep(ctx, wait); serr != nil {
					cancel()
					return nil, serr
				}
				continue
			}
			cancel()
			return nil, &ConnectionError{
				Message: fmt.Sprintf("connection failed after %d attempts: %v", h.maxRetries+1, err),
				Err:     err,
			}
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			if wait, retry := decideRetry(attempt, h.maxRetries, resp.StatusCode, resp.Header.Get("Retry-After")); retry {
				if serr := h.sleep(ctx, wait); serr != nil {
					cancel()
					return nil, serr
				}
				continue
			}
			cancel()
			_, typedErr := classify(resp.StatusCode, body)
			return nil, typedErr
		}

		return &AudioStream{body: resp.Body, cancel: cancel}, nil
	}
}

// newRequest builds one attempt's request. Bodies are re-encoded per
// attempt so retries never reuse a consumed reader.
func (h *httpCore) newRequest(ctx context.Context, method, path string, opts *requestOptions, requestID string) (*http.Request, error) {
	fullURL := h.baseURL + path
	if len(opts.params) > 0 {
		fullURL += "?" + opts.params.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case len(opts.files) > 0 || len(opts.fields) > 0:
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for field, value := range opts.fields {
			if err := writer.WriteField(field, value); err != nil {
				return nil, err
			}
		}
		for _, f := range opts.files {
			part, err := createFormFile(writer, f)
			if err != nil {
				return nil, err
			}
			if _, err := part.Write(f.data); err != nil {
				return nil, err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		body = &buf
		contentType = writer.FormDataContentType()
	case opts.json != nil:
		encoded, err := json.Marshal(opts.json)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func createFormFile(writer *multipart.Writer, f filePart) (io.Writer, error) {
	if f.contentType == "" {
		return writer.CreateFormFile(f.field, f.filename)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
	header.Set("Content-Type", f.contentType)
	return writer.CreatePart(header)
}
