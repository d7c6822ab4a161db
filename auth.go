package leanvox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	livePrefix = "lv_live_"
	testPrefix = "lv_test_"

	apiKeyEnvVar = "LEANVOX_API_KEY"
)

// configPath locates the optional credential config file. A var so tests
// can point it at a temp directory.
var configPath = defaultConfigPath()

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lvox", "config.toml")
}

// configFile is the on-disk shape of ~/.lvox/config.toml. The key may live
// at the top level or under an [auth] table.
type configFile struct {
	APIKey string `toml:"api_key"`
	Auth   struct {
		APIKey string `toml:"api_key"`
	} `toml:"auth"`
}

// readConfigKey reads the API key from the config file. The file is
// best-effort: any read or parse failure is treated as "no key".
func readConfigKey() string {
	if configPath == "" {
		return ""
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return ""
	}
	var cfg configFile
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return cfg.Auth.APIKey
}

// resolveAPIKey resolves the API key from the explicit option, the
// environment, or the config file, in that order. explicitSet reports
// whether the caller passed WithAPIKey at all, so that an explicit empty
// key fails validation instead of falling through the chain.
//
// An empty result with a nil error means no key was found anywhere; the
// failure is deferred to first network use.
func resolveAPIKey(explicit string, explicitSet bool) (string, error) {
	if explicitSet {
		if err := validateKeyPrefix(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	if envKey := os.Getenv(apiKeyEnvVar); envKey != "" {
		if err := validateKeyPrefix(envKey); err != nil {
			return "", err
		}
		return envKey, nil
	}

	if fileKey := readConfigKey(); fileKey != "" {
		if err := validateKeyPrefix(fileKey); err != nil {
			return "", err
		}
		return fileKey, nil
	}

	return "", nil
}

// validateKeyPrefix checks that a candidate key carries one of the two
// recognized prefixes.
func validateKeyPrefix(key string) error {
	if key == "" {
		return &InvalidCredentialError{Message: "API key cannot be empty"}
	}
	if !strings.HasPrefix(key, livePrefix) && !strings.HasPrefix(key, testPrefix) {
		shown := key
		if len(shown) > 10 {
			shown = shown[:10]
		}
		return &InvalidCredentialError{
			Message: fmt.Sprintf("API key must start with %s or %s, got '%s...'", livePrefix, testPrefix, shown),
		}
	}
	return nil
}

func missingKeyError() *MissingCredentialError {
	return &MissingCredentialError{
		Message: fmt.Sprintf("no API key provided. Use WithAPIKey, set %s, or create %s", apiKeyEnvVar, "~/.lvox/config.toml"),
	}
}
