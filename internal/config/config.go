// Package config holds runtime settings for pindrop.
// Config is intentionally small and JSON-friendly.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

type Config struct {
	// Addr is the listen address, e.g. "0.0.0.0:8080".
	Addr string `json:"addr"`

	// Root is the storage root: one subdirectory per album.
	Root string `json:"root"`

	// StateDir stores thumbnails and other derived data.
	// Default: <root>/.pindrop
	StateDir string `json:"stateDir"`

	// PinFile is where the shared secret persists.
	// Default: <root>/.pin
	PinFile string `json:"pinFile"`

	// MaxUploadBytes caps a single upload request body. Default: 1 GiB.
	MaxUploadBytes int64 `json:"maxUploadBytes"`

	// ReadTimeout/WriteTimeout bound how long a stalled connection may
	// hold its request goroutine. Defaults: 10 minutes, sized for slow
	// chunked uploads.
	ReadTimeout  time.Duration `json:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout"`
}

func Default() Config {
	return Config{
		Addr:           "0.0.0.0:8080",
		Root:           "uploads",
		MaxUploadBytes: 1 << 30,
		ReadTimeout:    10 * time.Minute,
		WriteTimeout:   10 * time.Minute,
	}
}

// Normalize makes Root absolute and fills the derived defaults.
func (c *Config) Normalize() error {
	if c.Root == "" {
		return fmt.Errorf("config: root is required")
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("abs root: %w", err)
	}
	c.Root = abs
	if c.StateDir == "" {
		c.StateDir = filepath.Join(c.Root, ".pindrop")
	}
	if c.PinFile == "" {
		c.PinFile = filepath.Join(c.Root, ".pin")
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 1 << 30
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Minute
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Minute
	}
	return nil
}
