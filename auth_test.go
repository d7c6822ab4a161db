package leanvox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig points the credential chain at a throwaway config file.
func writeConfig(t *testing.T, contents string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func TestValidateKeyPrefix(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "live key", key: "lv_live_abc", wantErr: false},
		{name: "test key", key: "lv_test_abc", wantErr: false},
		{name: "empty", key: "", wantErr: true},
		{name: "wrong prefix", key: "sk_live_abc", wantErr: true},
		{name: "prefix only is accepted", key: "lv_live_", wantErr: false},
		{name: "close but wrong", key: "lv_prod_abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateKeyPrefix(tt.key)
			if tt.wantErr {
				var credErr *InvalidCredentialError
				if !errors.As(err, &credErr) {
					t.Errorf("expected InvalidCredentialError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateKeyPrefixMessageTruncatesKey(t *testing.T) {
	err := validateKeyPrefix("sk_live_supersecretvalue")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if strings.Contains(err.Error(), "supersecretvalue") {
		t.Errorf("error message should not leak the full key: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "sk_live_su") {
		t.Errorf("error message should show a truncated prefix: %q", err.Error())
	}
}

func TestResolvePrecedenceExplicitWins(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "lv_live_from_env")
	writeConfig(t, `api_key = "lv_live_from_file"`)

	key, err := resolveAPIKey("lv_test_explicit", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lv_test_explicit" {
		t.Errorf("expected explicit key to win, got %q", key)
	}
}

func TestResolvePrecedenceEnvBeatsFile(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "lv_live_from_env")
	writeConfig(t, `api_key = "lv_live_from_file"`)

	key, err := resolveAPIKey("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lv_live_from_env" {
		t.Errorf("expected env key, got %q", key)
	}
}

func TestResolveFallsBackToFile(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	writeConfig(t, `api_key = "lv_live_from_file"`)

	key, err := resolveAPIKey("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lv_live_from_file" {
		t.Errorf("expected file key, got %q", key)
	}
}

func TestResolveNestedAuthTable(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	writeConfig(t, "[auth]\napi_key = \"lv_test_nested\"\n")

	key, err := resolveAPIKey("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lv_test_nested" {
		t.Errorf("expected nested key, got %q", key)
	}
}

func TestResolveTopLevelBeatsNested(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	writeConfig(t, "api_key = \"lv_test_top\"\n\n[auth]\napi_key = \"lv_test_nested\"\n")

	key, err := resolveAPIKey("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lv_test_top" {
		t.Errorf("expected top-level key, got %q", key)
	}
}

func TestResolveMalformedConfigSwallowed(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	writeConfig(t, "this is not toml = = =")

	key, err := resolveAPIKey("", false)
	if err != nil {
		t.Fatalf("expected malformed config to be treated as absent, got %v", err)
	}
	if key != "" {
		t.Errorf("expected no key, got %q", key)
	}
}

func TestResolveMissingConfigSwallowed(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	old := configPath
	configPath = filepath.Join(t.TempDir(), "does-not-exist.toml")
	t.Cleanup(func() { configPath = old })

	key, err := resolveAPIKey("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "" {
		t.Errorf("expected no key, got %q", key)
	}
}

func TestResolveAbsentEverywhere(t *testing.T) {
	isolateCredentials(t)

	key, err := resolveAPIKey("", false)
	if err != nil {
		t.Fatalf("expected absent key to resolve without error, got %v", err)
	}
	if key != "" {
		t.Errorf("expected empty key, got %q", key)
	}
}

func TestResolveBadEnvKeyFails(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "not_a_leanvox_key")

	_, err := resolveAPIKey("", false)
	var credErr *InvalidCredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("expected InvalidCredentialError, got %v", err)
	}
}

func TestResolveBadFileKeyFails(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	writeConfig(t, `api_key = "wrong_prefix_key"`)

	_, err := resolveAPIKey("", false)
	var credErr *InvalidCredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("expected InvalidCredentialError, got %v", err)
	}
}

func TestNewClientReadsEnv(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "lv_live_env_key")

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.APIKey() != "lv_live_env_key" {
		t.Errorf("expected env key, got %q", client.APIKey())
	}
}

func TestMissingKeyErrorNamesSources(t *testing.T) {
	err := missingKeyError()
	for _, want := range []string{"WithAPIKey", apiKeyEnvVar, "config.toml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected message to mention %q, got %q", want, err.Error())
		}
	}
}
