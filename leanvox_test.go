package leanvox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

const testAPIKey = "lv_test_abc123"

// newTestClient builds a client pointed at a test server, with a valid
// key and retries enabled unless overridden.
func newTestClient(t *testing.T, serverURL string, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithAPIKey(testAPIKey), WithBaseURL(serverURL)}, opts...)
	client, err := NewClient(opts...)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

// recordSleeps replaces the executor's sleep with a recorder so backoff
// and poll waits can be asserted without real waiting.
func recordSleeps(t *testing.T, client *Client) *[]time.Duration {
	t.Helper()
	core, err := client.core()
	if err != nil {
		t.Fatalf("core failed: %v", err)
	}
	sleeps := &[]time.Duration{}
	core.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return sleeps
}

// isolateCredentials makes sure no ambient key leaks into a test.
func isolateCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(apiKeyEnvVar, "")
	old := configPath
	configPath = filepath.Join(t.TempDir(), "config.toml")
	t.Cleanup(func() { configPath = old })
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(WithAPIKey(testAPIKey))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.BaseURL() != "https://api.leanvox.com" {
		t.Errorf("expected default base URL, got %q", client.BaseURL())
	}
	if client.WSURL() != "wss://api.leanvox.com" {
		t.Errorf("expected default WS URL, got %q", client.WSURL())
	}
	if client.timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", client.timeout)
	}
	if client.streamTimeout != 120*time.Second {
		t.Errorf("expected 120s stream timeout, got %v", client.streamTimeout)
	}
	if client.maxRetries != 2 {
		t.Errorf("expected 2 max retries, got %d", client.maxRetries)
	}
	if client.autoAsyncThreshold != 5000 {
		t.Errorf("expected threshold 5000, got %d", client.autoAsyncThreshold)
	}
}

func TestNewClientOptions(t *testing.T) {
	client, err := NewClient(
		WithAPIKey(testAPIKey),
		WithBaseURL("http://localhost:8080/"),
		WithTimeout(5*time.Second),
		WithStreamTimeout(10*time.Second),
		WithMaxRetries(7),
		WithAutoAsyncThreshold(100),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.BaseURL() != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %q", client.BaseURL())
	}
	if client.WSURL() != "ws://localhost:8080" {
		t.Errorf("expected ws URL derived, got %q", client.WSURL())
	}
	if client.timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", client.timeout)
	}
	if client.streamTimeout != 10*time.Second {
		t.Errorf("expected 10s stream timeout, got %v", client.streamTimeout)
	}
	if client.maxRetries != 7 {
		t.Errorf("expected 7 max retries, got %d", client.maxRetries)
	}
	if client.autoAsyncThreshold != 100 {
		t.Errorf("expected threshold 100, got %d", client.autoAsyncThreshold)
	}
}

func TestNewClientExplicitEmptyKey(t *testing.T) {
	_, err := NewClient(WithAPIKey(""))
	var credErr *InvalidCredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("expected InvalidCredentialError, got %v", err)
	}
}

func TestNewClientNoKeySucceeds(t *testing.T) {
	isolateCredentials(t)

	client, err := NewClient()
	if err != nil {
		t.Fatalf("expected construction without key to succeed, got %v", err)
	}
	if client.APIKey() != "" {
		t.Errorf("expected empty key, got %q", client.APIKey())
	}
}

func TestMissingCredentialOnFirstUse(t *testing.T) {
	isolateCredentials(t)

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.TTS.Generate(context.Background(), GenerateParams{Text: "Hello"})
	var missingErr *MissingCredentialError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingCredentialError, got %v", err)
	}
}

func TestValidationBeatsMissingCredential(t *testing.T) {
	isolateCredentials(t)

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	// Parameter validation runs before the credential is needed.
	_, err = client.TTS.Generate(context.Background(), GenerateParams{Text: ""})
	var reqErr *InvalidRequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
}

func TestClientCloseIdempotent(t *testing.T) {
	client, err := NewClient(WithAPIKey(testAPIKey))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.core(); err != nil {
		t.Fatalf("core failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestClientCloseBeforeUse(t *testing.T) {
	client, err := NewClient(WithAPIKey(testAPIKey))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close before first use failed: %v", err)
	}
}

func TestClientCloseConcurrentWithFirstRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"audio_url": "https://cdn.example.com/a.mp3"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	// Close races the lazy transport init; run with -race to check.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = client.TTS.Generate(context.Background(), GenerateParams{Text: "hi"})
	}()
	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	<-done
}

func TestCoreInitializedOnce(t *testing.T) {
	client, err := NewClient(WithAPIKey(testAPIKey))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	first, err := client.core()
	if err != nil {
		t.Fatalf("core failed: %v", err)
	}
	second, err := client.core()
	if err != nil {
		t.Fatalf("core failed: %v", err)
	}
	if first != second {
		t.Error("expected the same executor on repeated use")
	}
}
