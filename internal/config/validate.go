package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateClaims(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Auth.TokenTTLHours <= 0 {
		return errors.New("auth.token_ttl_hours must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if c.Database.Path == "" {
		return errors.New("database.path must be set")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.UploadDir == "" {
		return errors.New("storage.upload_dir must be set")
	}
	if c.Storage.StagingDir == "" {
		return errors.New("storage.staging_dir must be set")
	}
	if c.Storage.MaxImageBytes <= 0 {
		return errors.New("storage.max_image_bytes must be positive")
	}
	if c.Storage.MaxImages < 1 {
		return errors.New("storage.max_images must be at least 1")
	}
	if c.Storage.MaxDimension < 0 {
		return errors.New("storage.max_dimension must be non-negative")
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.TopN < 1 {
		return errors.New("matching.top_n must be at least 1")
	}
	if m.MinScore < 0 || m.MinScore > 100 {
		return errors.New("matching.min_score must be between 0 and 100")
	}
	if m.IdentifierFloor < 0 || m.IdentifierFloor > 100 {
		return errors.New("matching.identifier_floor must be between 0 and 100")
	}
	if m.DateWindowDays < 1 {
		return errors.New("matching.date_window_days must be at least 1")
	}
	if m.SweepInterval < 0 {
		return errors.New("matching.sweep_interval must be non-negative")
	}
	w := m.Weights
	for name, v := range map[string]float64{
		"category": w.Category,
		"text":     w.Text,
		"date":     w.Date,
		"location": w.Location,
	} {
		if v < 0 {
			return fmt.Errorf("matching.weights.%s must be non-negative", name)
		}
	}
	if w.Category+w.Text+w.Date+w.Location <= 0 {
		return errors.New("matching.weights must not all be zero")
	}
	return nil
}

func (c *Config) validateClaims() error {
	if c.Claims.MinDescriptionLength < 0 {
		return errors.New("claims.min_description_length must be non-negative")
	}
	return nil
}

func (c *Config) validateMail() error {
	if c.Mail.QueueSize < 1 {
		return errors.New("mail.queue_size must be at least 1")
	}
	if c.Mail.MaxAttempts < 1 {
		return errors.New("mail.max_attempts must be at least 1")
	}
	if c.Mail.InitialBackoff < 0 || c.Mail.MaxBackoff < c.Mail.InitialBackoff {
		return errors.New("mail.max_backoff must be at least mail.initial_backoff")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be one of auto, text, json", c.Logging.Format)
	}
	return nil
}
