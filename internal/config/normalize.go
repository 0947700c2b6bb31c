package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	c.Claims.AutoRejectReason = strings.TrimSpace(c.Claims.AutoRejectReason)
	if c.Claims.AutoRejectReason == "" {
		c.Claims.AutoRejectReason = defaultAutoReject
	}
	c.Auth.AdminUsername = strings.TrimSpace(c.Auth.AdminUsername)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	if c.Storage.UploadDir, err = expandPath(c.Storage.UploadDir); err != nil {
		return fmt.Errorf("storage.upload_dir: %w", err)
	}
	if c.Storage.StagingDir, err = expandPath(c.Storage.StagingDir); err != nil {
		return fmt.Errorf("storage.staging_dir: %w", err)
	}
	if c.Matching.LockPath, err = expandPath(c.Matching.LockPath); err != nil {
		return fmt.Errorf("matching.lock_path: %w", err)
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
