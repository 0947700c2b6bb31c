package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaultsExpandPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, resolved, exists, err := load(filepath.Join(home, "missing.toml"), "", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != filepath.Join(home, "missing.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	want := filepath.Join(home, ".local", "share", "campusfound", "campusfound.db")
	if cfg.Database.Path != want {
		t.Fatalf("database path = %q, want %q", cfg.Database.Path, want)
	}
	if cfg.Matching.TopN != 5 || cfg.Matching.MinScore != 50 {
		t.Fatalf("unexpected matching defaults: %+v", cfg.Matching)
	}
	if cfg.Storage.MaxImages != 5 {
		t.Fatalf("max images = %d, want 5", cfg.Storage.MaxImages)
	}
	if cfg.Logging.File != "" {
		t.Fatalf("expected empty log file, got %q", cfg.Logging.File)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
[server]
addr = ":9000"

[matching]
top_n = 3
min_score = 60

[matching.weights]
text = 50.0
`)
	dotenv := filepath.Join(dir, ".env")
	writeFile(t, dotenv, "CAMPUSFOUND_MATCHING_MIN_SCORE=70\nCAMPUSFOUND_SERVER_ADDR=:9100\n")

	environ := []string{
		"CAMPUSFOUND_SERVER_ADDR=:9200",
		"CAMPUSFOUND_MATCHING_WEIGHT_DATE=10",
		"UNRELATED=1",
	}

	cfg, _, exists, err := load(path, dotenv, environ)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file beats default", cfg.Matching.TopN, 3},
		{"dotenv beats file", cfg.Matching.MinScore, 70},
		{"environment beats dotenv", cfg.Server.Addr, ":9200"},
		{"nested file value", cfg.Matching.Weights.Text, 50.0},
		{"nested env value", cfg.Matching.Weights.Date, 10.0},
		{"untouched default", cfg.Matching.Weights.Category, 25.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if _, ok := os.LookupEnv("CAMPUSFOUND_MATCHING_MIN_SCORE"); ok {
		t.Error("dotenv values must not leak into the process environment")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[server]\nport = 8080\n")

	if _, _, _, err := load(path, "", nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadBadEnvValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_, _, _, err := load(path, "", []string{"CAMPUSFOUND_MATCHING_TOP_N=many"})
	if err == nil {
		t.Fatal("expected error for non-numeric override")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"top n", func(c *Config) { c.Matching.TopN = 0 }, "matching.top_n"},
		{"min score", func(c *Config) { c.Matching.MinScore = 101 }, "matching.min_score"},
		{"negative weight", func(c *Config) { c.Matching.Weights.Text = -1 }, "matching.weights.text"},
		{"zero weights", func(c *Config) { c.Matching.Weights = Weights{} }, "must not all be zero"},
		{"max images", func(c *Config) { c.Storage.MaxImages = 0 }, "storage.max_images"},
		{"backoff", func(c *Config) { c.Mail.MaxBackoff = 0 }, "mail.max_backoff"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"token ttl", func(c *Config) { c.Auth.TokenTTLHours = 0 }, "auth.token_ttl_hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var sample Config
	if err := toml.Unmarshal([]byte(sampleConfig), &sample); err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	if sample != Default() {
		t.Fatalf("sample config drifted from defaults:\n got %+v\nwant %+v", sample, Default())
	}
}

func TestCreateSampleLoads(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "nested", "config.toml")

	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := load(path, "", nil)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Storage.UploadDir != filepath.Join(home, ".local", "share", "campusfound", "uploads") {
		t.Fatalf("unexpected upload dir %q", cfg.Storage.UploadDir)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Database.Path = filepath.Join(root, "db", "campusfound.db")
	cfg.Storage.UploadDir = filepath.Join(root, "uploads")
	cfg.Storage.StagingDir = filepath.Join(root, "staging")
	cfg.Logging.File = filepath.Join(root, "logs", "campusfound.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"db", "uploads", "staging", "logs"} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
}
