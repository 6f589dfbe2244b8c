// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_HasSaneBaseline(t *testing.T) {
	cfg := Default()
	if cfg.ListenAddr == "" {
		t.Error("expected a default listen address")
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled by default")
	}
	if cfg.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("RequestsPerMinute = %d, want 10", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestSaveLoad_RoundTripsConfig(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)

	cfg := Default()
	cfg.ListenAddr = ":9090"
	cfg.RateLimit.RequestsPerMinute = 42

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", got.ListenAddr)
	}
	if got.RateLimit.RequestsPerMinute != 42 {
		t.Errorf("RequestsPerMinute = %d, want 42", got.RateLimit.RequestsPerMinute)
	}
}

func TestLoad_PartialFileLayersOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("listen_addr: \":7070\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q, want :7070", got.ListenAddr)
	}
	if !got.Cache.Enabled {
		t.Error("expected default cache.enabled to survive a partial file")
	}
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestWatcher_SeedsCurrentFromInitialConfig(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	cfg := Default()
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w := NewWatcher(path, cfg, nil)
	if w.Current().ListenAddr != cfg.ListenAddr {
		t.Fatal("expected the seeded config to be returned before any reload")
	}
}
