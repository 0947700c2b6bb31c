package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CAMPUSFOUND_"

// Server contains HTTP listener configuration.
type Server struct {
	Addr            string `toml:"addr" env:"ADDR"`
	ShutdownTimeout int    `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Database contains SQLite configuration.
type Database struct {
	Path string `toml:"path" env:"PATH"`
}

// Storage contains proof image storage configuration.
type Storage struct {
	UploadDir     string `toml:"upload_dir" env:"UPLOAD_DIR"`
	StagingDir    string `toml:"staging_dir" env:"STAGING_DIR"`
	MaxImageBytes int64  `toml:"max_image_bytes" env:"MAX_IMAGE_BYTES"`
	MaxImages     int    `toml:"max_images" env:"MAX_IMAGES"`
	MaxDimension  int    `toml:"max_dimension" env:"MAX_DIMENSION"`
}

// Weights are the relative weights of the similarity components.
type Weights struct {
	Category float64 `toml:"category" env:"CATEGORY"`
	Text     float64 `toml:"text" env:"TEXT"`
	Date     float64 `toml:"date" env:"DATE"`
	Location float64 `toml:"location" env:"LOCATION"`
}

// Matching contains scorer and engine configuration.
type Matching struct {
	TopN            int     `toml:"top_n" env:"TOP_N"`
	MinScore        int     `toml:"min_score" env:"MIN_SCORE"`
	DateWindowDays  int     `toml:"date_window_days" env:"DATE_WINDOW_DAYS"`
	IdentifierFloor int     `toml:"identifier_floor" env:"IDENTIFIER_FLOOR"`
	SweepInterval   int     `toml:"sweep_interval" env:"SWEEP_INTERVAL"`
	LockPath        string  `toml:"lock_path" env:"LOCK_PATH"`
	Weights         Weights `toml:"weights" envPrefix:"WEIGHT_"`
}

// Claims contains claim workflow configuration.
type Claims struct {
	MinDescriptionLength int    `toml:"min_description_length" env:"MIN_DESCRIPTION_LENGTH"`
	AutoRejectReason     string `toml:"auto_reject_reason" env:"AUTO_REJECT_REASON"`
}

// Mail contains outbound email queue configuration.
type Mail struct {
	QueueSize      int `toml:"queue_size" env:"QUEUE_SIZE"`
	MaxAttempts    int `toml:"max_attempts" env:"MAX_ATTEMPTS"`
	InitialBackoff int `toml:"initial_backoff" env:"INITIAL_BACKOFF"`
	MaxBackoff     int `toml:"max_backoff" env:"MAX_BACKOFF"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
	File   string `toml:"file" env:"FILE"`
}

// Auth contains token configuration.
type Auth struct {
	TokenTTLHours int    `toml:"token_ttl_hours" env:"TOKEN_TTL_HOURS"`
	AdminUsername string `toml:"admin_username" env:"ADMIN_USERNAME"`
}

// Config encapsulates all configuration values for campusfound.
//
// Durations are whole seconds, except Auth.TokenTTLHours and
// Matching.DateWindowDays whose units are in their names.
type Config struct {
	Server   Server   `toml:"server" envPrefix:"SERVER_"`
	Database Database `toml:"database" envPrefix:"DATABASE_"`
	Storage  Storage  `toml:"storage" envPrefix:"STORAGE_"`
	Matching Matching `toml:"matching" envPrefix:"MATCHING_"`
	Claims   Claims   `toml:"claims" envPrefix:"CLAIMS_"`
	Mail     Mail     `toml:"mail" envPrefix:"MAIL_"`
	Logging  Logging  `toml:"logging" envPrefix:"LOGGING_"`
	Auth     Auth     `toml:"auth" envPrefix:"AUTH_"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates and parses a configuration file, applies a .env file from
// the working directory and CAMPUSFOUND_* environment overrides, then
// validates the result. Real environment variables win over .env entries.
func Load(path string) (*Config, string, bool, error) {
	return load(path, ".env", os.Environ())
}

func load(path, dotenvPath string, environ []string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(dotenvPath, environ); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv(dotenvPath string, environ []string) error {
	vars := map[string]string{}
	if dotenvPath != "" {
		fileVars, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			vars = fileVars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}
	maps.Copy(vars, env.ToMap(environ))

	if err := env.ParseWithOptions(c, env.Options{
		Prefix:      EnvPrefix,
		Environment: vars,
	}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("campusfound.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Storage.UploadDir, c.Storage.StagingDir, filepath.Dir(c.Database.Path)}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ShutdownTimeout returns the graceful shutdown deadline.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// SweepInterval returns the periodic sweep interval. Zero disables it.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Matching.SweepInterval) * time.Second
}

// TokenTTL returns the lifetime of issued tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
