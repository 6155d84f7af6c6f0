// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conveyor-ci/conveyor/lib/depcache"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conveyor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if Default().Compression() != depcache.CompressionZstd {
		t.Error("default compression is not zstd")
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
paths:
  root: /var/lib/conveyor
  cache: /var/lib/conveyor/cache
cache:
  compression: lz4
result_log: /var/lib/conveyor/results.jsonl
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.Root != "/var/lib/conveyor" {
		t.Errorf("Paths.Root = %q", cfg.Paths.Root)
	}
	// Artifacts was not set in the file, so the default survives.
	if cfg.Paths.Artifacts == "" {
		t.Error("unset field lost its default")
	}
	if cfg.Compression() != depcache.CompressionLZ4 {
		t.Errorf("compression = %v, want lz4", cfg.Compression())
	}
}

func TestLoadFileExpandsRootVariable(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
paths:
  root: /srv/conveyor
  cache: ${CONVEYOR_ROOT}/cache
  artifacts: ${CONVEYOR_ROOT}/artifacts
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.Cache != "/srv/conveyor/cache" {
		t.Errorf("Paths.Cache = %q", cfg.Paths.Cache)
	}
	if cfg.Paths.Artifacts != "/srv/conveyor/artifacts" {
		t.Errorf("Paths.Artifacts = %q", cfg.Paths.Artifacts)
	}
}

func TestLoadFileRejectsBadCompression(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
cache:
  compression: gzip
`)

	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "gzip") {
		t.Fatalf("LoadFile error = %v, want unknown compression", err)
	}
}

func TestLoadFileMissingFileFails(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadFile accepted a missing file")
	}
}

func TestEnsurePaths(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "conveyor")
	cfg := &Config{
		Paths: PathsConfig{
			Root:      root,
			Cache:     filepath.Join(root, "cache"),
			Artifacts: filepath.Join(root, "artifacts"),
		},
	}
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	for _, dir := range []string{cfg.Paths.Cache, cfg.Paths.Artifacts} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}
