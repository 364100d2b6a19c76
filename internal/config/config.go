package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
	"github.com/Aman-CERP/fuzzymatch/internal/scorer"
)

// ProjectConfigNames are the project config file names, in lookup order.
var ProjectConfigNames = []string{".fuzzymatch.yaml", ".fuzzymatch.yml"}

// DefaultEncryptionKeyEnv is the env var the encryption key is read from.
const DefaultEncryptionKeyEnv = "FUZZYMATCH_ENCRYPTION_KEY"

// Config represents the complete fuzzymatch configuration.
type Config struct {
	Version     int                    `yaml:"version" json:"version"`
	TopN        int                    `yaml:"top_n" json:"top_n"`
	IDColumn    string                 `yaml:"id_column" json:"id_column"`
	Storage     StorageConfig          `yaml:"storage" json:"storage"`
	Fields      map[string]FieldConfig `yaml:"fields" json:"fields"`
	Performance PerformanceConfig      `yaml:"performance" json:"performance"`
	Logging     LoggingConfig          `yaml:"logging" json:"logging"`
}

// StorageConfig locates the encrypted field indices.
type StorageConfig struct {
	// Path is the storage root. Relative paths are resolved against the
	// directory the configuration was loaded for.
	Path string `yaml:"path" json:"path"`

	// EncryptionKeyEnv names the env var holding the encryption key.
	EncryptionKeyEnv string `yaml:"encryption_key_env" json:"encryption_key_env"`

	// EncryptionKey is used when the env var is unset. Prefer the env var.
	EncryptionKey string `yaml:"encryption_key,omitempty" json:"-"`
}

// FieldConfig is one field's scorer settings.
type FieldConfig struct {
	Algorithm string   `yaml:"algorithm" json:"algorithm"`
	Weight    *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
	Dedupe    bool     `yaml:"dedupe,omitempty" json:"dedupe,omitempty"`
	Format    string   `yaml:"format,omitempty" json:"format,omitempty"`
}

// PerformanceConfig configures parallelism.
type PerformanceConfig struct {
	// Workers bounds concurrent field builds. 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"` // empty means ~/.fuzzymatch/logs/fuzzymatch.log
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version:  1,
		TopN:     10,
		IDColumn: "id",
		Storage: StorageConfig{
			Path:             "storage",
			EncryptionKeyEnv: DefaultEncryptionKeyEnv,
		},
		Fields: map[string]FieldConfig{},
		Performance: PerformanceConfig{
			Workers: 0,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/fuzzymatch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/fuzzymatch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fuzzymatch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback - should rarely happen
		return filepath.Join(os.TempDir(), ".config", "fuzzymatch", "config.yaml")
	}
	return filepath.Join(home, ".config", "fuzzymatch", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var cfg Config
	if err := readYAML(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return &cfg, nil
}

// Load loads configuration for dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/fuzzymatch/config.yaml)
//  3. Project config (.fuzzymatch.yaml in dir)
//  4. Environment variables (FUZZYMATCH_*)
func Load(dir string) (*Config, error) {
	return load(dir, "")
}

// LoadFile is Load with an explicit project config path in place of the
// .fuzzymatch.yaml lookup. A missing file is an error.
func LoadFile(dir, path string) (*Config, error) {
	if !fileExists(path) {
		return nil, fmerrors.New(fmerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("config file not found: %s", path), nil).
			WithDetail(fmerrors.DetailPath, path).
			WithSuggestion("Run 'fuzzymatch config init' to create one")
	}
	return load(dir, path)
}

func load(dir, explicit string) (*Config, error) {
	cfg := NewConfig()

	// Step 1: user/global config
	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmerrors.ConfigError("failed to load user config", err).
			WithDetail(fmerrors.DetailPath, GetUserConfigPath())
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	// Step 2: project config (overrides user config)
	path := explicit
	if path == "" {
		path = FindProjectConfig(dir)
	}
	if path != "" {
		var projectCfg Config
		if err := readYAML(path, &projectCfg); err != nil {
			return nil, fmerrors.ConfigError("failed to load project config", err).
				WithDetail(fmerrors.DetailPath, path)
		}
		cfg.mergeWith(&projectCfg)
	}

	// Step 3: environment (highest precedence)
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	// Step 4: storage path relative to dir
	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		cfg.Storage.Path = filepath.Join(dir, cfg.Storage.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindProjectConfig returns the project config file in dir, or "" if none.
// .yaml takes precedence over .yml.
func FindProjectConfig(dir string) string {
	for _, name := range ProjectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// readYAML parses path into out. Unknown keys are rejected.
func readYAML(path string, out *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c. A layer that
// declares fields replaces the field set as a whole.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.TopN != 0 {
		c.TopN = other.TopN
	}
	if other.IDColumn != "" {
		c.IDColumn = other.IDColumn
	}

	// Storage
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Storage.EncryptionKeyEnv != "" {
		c.Storage.EncryptionKeyEnv = other.Storage.EncryptionKeyEnv
	}
	if other.Storage.EncryptionKey != "" {
		c.Storage.EncryptionKey = other.Storage.EncryptionKey
	}

	// Fields
	if len(other.Fields) > 0 {
		c.Fields = make(map[string]FieldConfig, len(other.Fields))
		for name, f := range other.Fields {
			c.Fields[name] = f
		}
	}

	// Performance
	if other.Performance.Workers != 0 {
		c.Performance.Workers = other.Performance.Workers
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies FUZZYMATCH_* environment variable overrides.
// Malformed numbers are reported rather than ignored.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("FUZZYMATCH_TOP_N"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmerrors.ConfigError("FUZZYMATCH_TOP_N must be an integer", err)
		}
		c.TopN = n
	}
	if v := os.Getenv("FUZZYMATCH_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FUZZYMATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FUZZYMATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmerrors.ConfigError("FUZZYMATCH_WORKERS must be an integer", err)
		}
		c.Performance.Workers = n
	}
	return nil
}

// Validate validates the configuration and returns an ERR_102 error if invalid.
// Unknown algorithms are reported as ERR_104.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmerrors.ConfigError(fmt.Sprintf("unsupported config version %d", c.Version), nil)
	}
	if c.TopN <= 0 {
		return fmerrors.ConfigError(fmt.Sprintf("top_n must be > 0, got %d", c.TopN), nil)
	}
	if strings.TrimSpace(c.IDColumn) == "" {
		return fmerrors.ConfigError("id_column must not be empty", nil)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmerrors.ConfigError("storage.path must not be empty", nil)
	}
	if c.Performance.Workers < 0 {
		return fmerrors.ConfigError(fmt.Sprintf("performance.workers must be >= 0, got %d", c.Performance.Workers), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmerrors.ConfigError(
			fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return fmerrors.ConfigError("logging.max_size_mb and logging.max_files must be >= 0", nil)
	}

	for _, name := range c.FieldNames() {
		f := c.Fields[name]
		if name == "id" || name == c.IDColumn {
			return fmerrors.New(fmerrors.ErrCodeIdentityCollision,
				fmt.Sprintf("field %q collides with the identity column", name), nil).
				WithField(name)
		}
		if _, ok := scorer.KindOf(f.Algorithm); !ok {
			return fmerrors.New(fmerrors.ErrCodeUnknownAlgorithm,
				fmt.Sprintf("unknown algorithm %q for field %s", f.Algorithm, name), nil).
				WithField(name).
				WithDetail(fmerrors.DetailAlgorithm, f.Algorithm).
				WithSuggestion("Use one of: " + strings.Join(scorer.Algorithms(), ", "))
		}
		if f.Weight != nil && (math.IsNaN(*f.Weight) || math.IsInf(*f.Weight, 0) || *f.Weight < 0) {
			return fmerrors.ConfigError(fmt.Sprintf("weight for field %s must be a finite number >= 0", name), nil).
				WithField(name)
		}
	}
	return nil
}

// FieldNames returns the configured field names, sorted.
func (c *Config) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for name := range c.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScorerSettings converts the field section into scorer settings.
func (c *Config) ScorerSettings() map[string]scorer.Settings {
	out := make(map[string]scorer.Settings, len(c.Fields))
	for name, f := range c.Fields {
		out[name] = scorer.Settings{
			Algorithm: f.Algorithm,
			Weight:    f.Weight,
			Dedupe:    f.Dedupe,
			Format:    f.Format,
		}
	}
	return out
}

// EncryptionKey returns the key from the configured env var, falling back
// to storage.encryption_key. Returns ERR_105 when neither is set.
func (c *Config) EncryptionKey() (string, error) {
	env := c.Storage.EncryptionKeyEnv
	if env == "" {
		env = DefaultEncryptionKeyEnv
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	if c.Storage.EncryptionKey != "" {
		return c.Storage.EncryptionKey, nil
	}
	return "", fmerrors.New(fmerrors.ErrCodeEncryptionKeyMissing, "no encryption key configured", nil).
		WithSuggestion(fmt.Sprintf("Set %s or storage.encryption_key", env))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// isNotExist reports whether err means the path does not exist.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
