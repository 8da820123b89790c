package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"gopkg.in/yaml.v3"

	"meilisearch-mcp/internal/domain"
)

// Version is the release tag reported to MCP clients and in the User-Agent.
const Version = "0.5.0"

// Config is the top-level application configuration.
type Config struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
	Logger      LoggerConfig      `yaml:"logger"`
	Tracer      TracerConfig      `yaml:"tracer"`
	Server      ServerConfig      `yaml:"server"`
}

// MeilisearchConfig holds the backend connection settings.
type MeilisearchConfig struct {
	URL            string               `yaml:"url"`
	APIKey         string               `yaml:"api_key"`
	Timeout        time.Duration        `yaml:"timeout"`      // non-chat calls
	ChatTimeout    time.Duration        `yaml:"chat_timeout"` // chat completion and workspace calls
	UserAgent      string               `yaml:"user_agent"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RateLimitConfig bounds outbound request rate. Zero RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CircuitBreakerConfig configures fail-fast behaviour while the backend is down.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"` // "stderr", "file" or an explicit path
	Dir    string `yaml:"dir"`    // log directory used when Output is "file"
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// ServerConfig holds the identity announced to MCP clients.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DefaultLogDir returns $HOME/.meilisearch-mcp/logs, or "./logs" without a home directory.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./logs"
	}
	return filepath.Join(home, ".meilisearch-mcp", "logs")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Meilisearch: MeilisearchConfig{
			URL:         "http://localhost:7700",
			Timeout:     30 * time.Second,
			ChatTimeout: 60 * time.Second,
			UserAgent:   "meilisearch-mcp/v" + Version,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
		Server: ServerConfig{
			Name:    "meilisearch",
			Version: Version,
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts secrets.
// A missing file is not an error: defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	ApplyEnvOverrides(cfg)

	if passphrase := os.Getenv("MEILI_MCP_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return domain.NewDomainError("Config.Load", domain.ErrConfigLoad, err.Error())
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := validatePermissions(absPath); err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return domain.NewDomainError("Config.Load", domain.ErrConfigLoad, "parse config: "+err.Error())
	}
	return nil
}

// ApplyEnvOverrides maps MEILI_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEILI_HTTP_ADDR"); v != "" {
		cfg.Meilisearch.URL = v
	}
	if v := os.Getenv("MEILI_MASTER_KEY"); v != "" {
		cfg.Meilisearch.APIKey = v
	}
	if v := os.Getenv("MEILI_MCP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Meilisearch.Timeout = d
		}
	}
	if v := os.Getenv("MEILI_MCP_RATE_LIMIT"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Meilisearch.RateLimit.RequestsPerSecond = n
		}
	}
	if v := os.Getenv("MEILI_MCP_CIRCUIT_BREAKER"); v != "" {
		cfg.Meilisearch.CircuitBreaker.Enabled = v == "true"
	}
	if v := os.Getenv("MEILI_MCP_LOG_DIR"); v != "" {
		cfg.Logger.Dir = v
		cfg.Logger.Output = "file"
	}
	if v := os.Getenv("MEILI_MCP_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("MEILI_MCP_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("MEILI_MCP_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("MEILI_MCP_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// LogFile resolves the log file path for cfg, or "" when logging to stderr.
func (c LoggerConfig) LogFile() string {
	switch strings.ToLower(c.Output) {
	case "", "stderr":
		return ""
	case "file":
		dir := c.Dir
		if dir == "" {
			dir = DefaultLogDir()
		}
		return filepath.Join(dir, "meilisearch-mcp.log")
	default:
		return c.Output
	}
}

// decryptSecrets replaces "enc:..." secret values with their plaintext.
func decryptSecrets(cfg *Config, passphrase string) error {
	if strings.HasPrefix(cfg.Meilisearch.APIKey, "enc:") {
		decrypted, err := DecryptValue(strings.TrimPrefix(cfg.Meilisearch.APIKey, "enc:"), passphrase)
		if err != nil {
			return domain.NewDomainError("Config.Decrypt", domain.ErrDecryption, "meilisearch api_key: "+err.Error())
		}
		cfg.Meilisearch.APIKey = decrypted
	}
	return nil
}

// EncryptValue encrypts a plaintext value with AES-256-GCM using a passphrase.
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	// Format: hex(salt) + ":" + hex(nonce+ciphertext)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue decrypts an AES-256-GCM encrypted value.
func DecryptValue(encrypted, passphrase string) (string, error) {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid encrypted format")
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	data, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// deriveKey uses Argon2id to derive a 32-byte key from passphrase + salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
