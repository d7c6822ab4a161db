package leanvox

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateResultDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp3 audio bytes"))
	}))
	defer server.Close()

	result := &GenerateResult{AudioURL: server.URL + "/audio/a.mp3"}
	data, err := result.Download(context.Background())
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !bytes.Equal(data, []byte("mp3 audio bytes")) {
		t.Errorf("unexpected audio %q", string(data))
	}
}

func TestGenerateResultDownloadErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	result := &GenerateResult{AudioURL: server.URL + "/audio/expired.mp3"}
	_, err := result.Download(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected Error, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Code != "download_error" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestGenerateResultDownloadConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	result := &GenerateResult{AudioURL: serverURL + "/audio/a.mp3"}
	_, err := result.Download(context.Background())
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestGenerateResultSave(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("saved audio"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "out.mp3")
	result := &GenerateResult{AudioURL: server.URL + "/audio/a.mp3"}
	if err := result.Save(context.Background(), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if !bytes.Equal(data, []byte("saved audio")) {
		t.Errorf("unexpected file contents %q", string(data))
	}
}
