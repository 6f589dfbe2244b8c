// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and hot-reloads gitingestd's YAML configuration
// file (.gitingest.yaml): a small YAML document with sane defaults,
// overridable by flags, watched for edits while the server is running.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CacheConfig controls the digest cache (pkg/cache) backing store.
type CacheConfig struct {
	// Enabled turns the cache on. When false, every ingest re-clones and
	// re-renders.
	Enabled bool `yaml:"enabled"`

	// Backend selects the blobstore implementation: "file" or "memory".
	Backend string `yaml:"backend"`

	// Root is the directory FileStore writes blobs under. Only used when
	// Backend is "file".
	Root string `yaml:"root"`

	// Prefix is the cache key's deployment-chosen root segment
	// ("prefix/ingest/..."), typically a bucket name.
	Prefix string `yaml:"prefix"`

	// ObjectStorageEnabled: when an object-storage cache backs the
	// server, GET /api/download/file/{id} always returns 503,
	// since the digest already lives in durable storage addressed by
	// its own key rather than a locally downloadable file.
	ObjectStorageEnabled bool `yaml:"object_storage_enabled"`
}

// CleanupConfig controls pkg/deadline.CleanupWorker.
type CleanupConfig struct {
	ScanInterval time.Duration `yaml:"scan_interval"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// RateLimitConfig controls the process-wide request limiter in front of
// gitingestd's API handlers.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate across all clients, roughly
	// 10 req/min by default.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Config is gitingestd's full runtime configuration.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8000".
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr is the optional Prometheus listen address for the CLI's
	// ad-hoc metrics listener. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// ScratchRoot is the temp directory scoped clones are checked out
	// under, and what the cleanup worker reaps.
	ScratchRoot string `yaml:"scratch_root"`

	// MaxFileSize is a per-file size ceiling in bytes. The CLI uses it
	// only when --max-size is 0; gitingestd does not read it. Zero means
	// "use the walker's built-in default".
	MaxFileSize int64 `yaml:"max_file_size"`

	// CloneTimeout is loaded from the file but not applied: the ingest
	// orchestrator always bounds the clone step with
	// deadline.DefaultCloneTimeout.
	CloneTimeout time.Duration `yaml:"clone_timeout"`

	Cache     CacheConfig     `yaml:"cache"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Default returns gitingestd's baseline configuration.
func Default() *Config {
	return &Config{
		ListenAddr:   ":8000",
		ScratchRoot:  filepath.Join(os.TempDir(), "gitingest"),
		CloneTimeout: 60 * time.Second,
		Cache: CacheConfig{
			Enabled: true,
			Backend: "file",
			Root:    filepath.Join(os.TempDir(), "gitingest-cache"),
		},
		Cleanup: CleanupConfig{
			ScanInterval: 60 * time.Second,
			MaxAge:       time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 10,
		},
	}
}

// Path returns the .gitingest.yaml configuration file path under root.
func Path(root string) string {
	return filepath.Join(root, ".gitingest.yaml")
}

// Load reads and parses the YAML configuration at path, layering it over
// Default() so a partial file only overrides the fields it sets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating its parent directory if
// necessary.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
