package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	infraai "github.com/felixgeelhaar/notewise/pkg/ai"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
	"github.com/felixgeelhaar/notewise/pkg/storage"
)

// Environment variables that override the config file.
const (
	EnvBaseURL           = "NOTEWISE_BASE_URL"
	EnvModelID           = "NOTEWISE_MODEL_ID"
	EnvFallback          = "NOTEWISE_FALLBACK"
	DefaultCredentialEnv = "NOTEWISE_CREDENTIAL"
)

// AssistConfig stores the completion endpoint settings. The credential
// itself is never stored; CredentialEnv names the variable that holds it.
type AssistConfig struct {
	BaseURL           string `yaml:"base_url"`
	ModelID           string `yaml:"model_id"`
	CredentialHeader  string `yaml:"credential_header"`
	CredentialEnv     string `yaml:"credential_env"`
	MaxTokens         int    `yaml:"max_tokens"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
	ReadTimeoutSec    int    `yaml:"read_timeout_sec"`
	Fallback          bool   `yaml:"fallback"`
}

func DefaultAssistConfig() *AssistConfig {
	return &AssistConfig{
		BaseURL:           infraai.DefaultBaseURL,
		ModelID:           infraai.DefaultModelID,
		CredentialHeader:  infraai.DefaultCredentialHeader,
		CredentialEnv:     DefaultCredentialEnv,
		MaxTokens:         ai.DefaultMaxTokens,
		ConnectTimeoutSec: int(infraai.DefaultConnectTimeout / time.Second),
		ReadTimeoutSec:    int(infraai.DefaultReadTimeout / time.Second),
	}
}

// LoadAssistConfig reads .notewise/assist.yaml under root. A missing file
// returns nil, nil.
func LoadAssistConfig(root string) (*AssistConfig, error) {
	path, err := storage.NewWorkspace(root).ResolvePath(storage.AssistConfigFile)
	if err != nil {
		return nil, err
	}
	return LoadAssistConfigFile(path)
}

// LoadAssistConfigFile reads a config file at an explicit path. Keys missing
// from the file keep their defaults. A missing file returns nil, nil.
func LoadAssistConfigFile(path string) (*AssistConfig, error) {
	// #nosec G304 -- config path is chosen by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read assist config: %w", err)
	}

	cfg := DefaultAssistConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assist config: %w", err)
	}
	return cfg, nil
}

func SaveAssistConfig(root string, cfg *AssistConfig) error {
	if cfg == nil {
		return fmt.Errorf("assist config is nil")
	}

	ws := storage.NewWorkspace(root)
	if err := ws.Initialize(); err != nil {
		return err
	}
	path, err := ws.ResolvePath(storage.AssistConfigFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal assist config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// Resolve builds the effective config: defaults, then the file (explicitPath
// when set, else the workspace file), then environment overrides. A .env file
// under root is loaded first without overriding variables already set.
func Resolve(root, explicitPath string) (*AssistConfig, error) {
	if err := LoadDotEnv(root); err != nil {
		return nil, err
	}

	var (
		cfg *AssistConfig
		err error
	)
	if explicitPath != "" {
		cfg, err = LoadAssistConfigFile(explicitPath)
		if err == nil && cfg == nil {
			err = fmt.Errorf("config file not found: %s", explicitPath)
		}
	} else {
		cfg, err = LoadAssistConfig(root)
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = DefaultAssistConfig()
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads root/.env when it exists.
func LoadDotEnv(root string) error {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
func (c *AssistConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		c.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvModelID); ok && strings.TrimSpace(v) != "" {
		c.ModelID = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvFallback); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvFallback, v, err)
		}
		c.Fallback = b
	}
	return nil
}

// Credential returns the credential from the configured variable, or "".
func (c *AssistConfig) Credential(lookup func(string) (string, bool)) string {
	name := c.CredentialEnv
	if name == "" {
		name = DefaultCredentialEnv
	}
	v, _ := lookup(name)
	return strings.TrimSpace(v)
}

func (c *AssistConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if strings.TrimSpace(c.ModelID) == "" {
		return fmt.Errorf("model_id is required")
	}
	if c.MaxTokens < 0 || c.ConnectTimeoutSec < 0 || c.ReadTimeoutSec < 0 {
		return fmt.Errorf("max_tokens and timeouts must not be negative")
	}
	return nil
}

func (c *AssistConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

// ReadTimeout is clamped by the client to infraai.MaxReadTimeout.
func (c *AssistConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}
