// Package config manages CLI configuration: the JSON (or YAML) file under ~/.nyra,
// .env files and NYRA_* environment overrides.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDirName is the name of the config directory
	ConfigDirName = ".nyra"
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.json"
	// ClientIDFileName holds the persistent client identifier
	ClientIDFileName = "client_id"

	DefaultBaseURL      = "http://localhost:5000"
	DefaultOllamaURL    = "http://localhost:11434"
	DefaultOllamaModel  = "llama3.2"
	DefaultLogLevel     = "warn"
	DefaultOnDeviceSecs = 120

	RuntimeOllama   = "ollama"
	RuntimeEcho     = "echo"
	RuntimeDisabled = "disabled"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL             = "NYRA_BASE_URL"
	EnvLogLevel            = "NYRA_LOG_LEVEL"
	EnvRequestTimeout      = "NYRA_REQUEST_TIMEOUT_SECONDS"
	EnvOnDevice            = "NYRA_ONDEVICE"
	EnvOnDeviceURL         = "NYRA_ONDEVICE_URL"
	EnvOnDeviceModel       = "NYRA_ONDEVICE_MODEL"
	EnvPersistInteractions = "NYRA_PERSIST_INTERACTIONS"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the CLI configuration
type Config struct {
	// BaseURL is the backend every capability endpoint is relative to
	BaseURL string `json:"base_url" yaml:"base_url"`
	// Headers are sent with every backend request
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// RequestTimeoutSeconds bounds each backend call; 0 means no timeout
	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	// Verbose enables verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`
	// LogLevel is a zerolog level name
	LogLevel string `json:"log_level" yaml:"log_level"`
	// NoColor disables ANSI colors
	NoColor bool `json:"no_color" yaml:"no_color"`
	// PersistInteractions saves every interaction record to the backend
	PersistInteractions bool `json:"persist_interactions" yaml:"persist_interactions"`
	// OnDevice selects the local runtime
	OnDevice OnDeviceConfig `json:"on_device" yaml:"on_device"`
}

// OnDeviceConfig selects and addresses the on-device runtime.
type OnDeviceConfig struct {
	Runtime        string `json:"runtime" yaml:"runtime"`
	URL            string `json:"url" yaml:"url"`
	Model          string `json:"model" yaml:"model"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// RequestTimeout returns the backend call timeout, zero when unbounded.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Paths holds commonly used paths
type Paths struct {
	// ConfigDir is ~/.nyra
	ConfigDir string
	// ConfigFile is ~/.nyra/config.json
	ConfigFile string
	// LogsDir is ~/.nyra/logs
	LogsDir string
	// ChatsDir is ~/.nyra/chats
	ChatsDir string
	// ClientIDFile is ~/.nyra/client_id
	ClientIDFile string
}

// GetPaths returns the standard paths
func GetPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return PathsIn(filepath.Join(homeDir, ConfigDirName)), nil
}

// PathsIn returns the layout rooted at configDir.
func PathsIn(configDir string) *Paths {
	return &Paths{
		ConfigDir:    configDir,
		ConfigFile:   filepath.Join(configDir, ConfigFileName),
		LogsDir:      filepath.Join(configDir, "logs"),
		ChatsDir:     filepath.Join(configDir, "chats"),
		ClientIDFile: filepath.Join(configDir, ClientIDFileName),
	}
}

// EnsureDirectories creates all required directories
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.ConfigDir, p.LogsDir, p.ChatsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Default returns a new Config with default values
func Default() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		LogLevel: DefaultLogLevel,
		OnDevice: OnDeviceConfig{
			Runtime:        RuntimeDisabled,
			URL:            DefaultOllamaURL,
			Model:          DefaultOllamaModel,
			TimeoutSeconds: DefaultOnDeviceSecs,
		},
	}
}

// LoadDotEnv loads .env from the working directory when present.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file at path, or the default location when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		paths, err := GetPaths()
		if err != nil {
			return nil, err
		}
		if err := paths.EnsureDirectories(); err != nil {
			return nil, err
		}
		path = paths.ConfigFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return config, nil
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// ApplyEnv overrides fields from NYRA_* variables looked up through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvRequestTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, EnvRequestTimeout, v)
		}
		c.RequestTimeoutSeconds = n
	}
	if v := getenv(EnvOnDevice); v != "" {
		c.OnDevice.Runtime = strings.ToLower(v)
	}
	if v := getenv(EnvOnDeviceURL); v != "" {
		c.OnDevice.URL = v
	}
	if v := getenv(EnvOnDeviceModel); v != "" {
		c.OnDevice.Model = v
	}
	if v := getenv(EnvPersistInteractions); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvPersistInteractions, v)
		}
		c.PersistInteractions = b
	}
	return nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute http(s) URL", ErrInvalid, c.BaseURL)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("%w: request_timeout_seconds must not be negative", ErrInvalid)
	}
	switch c.OnDevice.Runtime {
	case RuntimeOllama, RuntimeEcho, RuntimeDisabled, "":
	default:
		return fmt.Errorf("%w: on_device.runtime %q (valid: ollama, echo, disabled)", ErrInvalid, c.OnDevice.Runtime)
	}
	return nil
}

// Save writes configuration to path, or the default location when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		paths, err := GetPaths()
		if err != nil {
			return err
		}
		path = paths.ConfigFile
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := renameio.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// isYAML reports whether path names a YAML config file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
