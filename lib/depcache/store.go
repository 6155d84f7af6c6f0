// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package depcache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/conveyor-ci/conveyor/lib/codec"
)

// manifestVersion is the cache entry manifest format version.
const manifestVersion = 1

// Store is the cache backend interface. Restore reports a miss as
// (false, nil) — absence of an entry is a normal outcome, not an
// error.
type Store interface {
	// Restore extracts the entry for key into destDir. Returns true
	// on a hit.
	Restore(ctx context.Context, key Key, destDir string) (bool, error)

	// Save stores sourceDir as the entry for key, replacing any
	// previous entry. Called at job end regardless of build outcome,
	// so a fixed lockfile with a failing build still seeds the cache
	// for the next run.
	Save(ctx context.Context, key Key, sourceDir string) error
}

// manifest is the CBOR metadata stored next to each archive.
type manifest struct {
	Version     int    `cbor:"version"`
	Key         string `cbor:"key"`
	OS          string `cbor:"os"`
	Compression string `cbor:"compression"`
	FileCount   int    `cbor:"file_count"`
	CreatedAt   string `cbor:"created_at"`
}

// DirStore keeps cache entries as files under a root directory:
// "<key>.manifest" (CBOR) and "<key>.tar.c" (compressed tar). It is
// the local stand-in for the hosted cache backend and is also what
// the tests exercise.
type DirStore struct {
	root        string
	compression CompressionTag
	logger      *slog.Logger
}

// NewDirStore creates a directory-backed cache store. The root
// directory is created if needed.
func NewDirStore(root string, compression CompressionTag, logger *slog.Logger) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache root %s: %w", root, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DirStore{root: root, compression: compression, logger: logger}, nil
}

func (store *DirStore) manifestPath(key Key) string {
	return filepath.Join(store.root, key.String()+".manifest")
}

func (store *DirStore) archivePath(key Key) string {
	return filepath.Join(store.root, key.String()+".tar.c")
}

// Restore extracts the entry for key into destDir. A missing entry is
// a miss, not an error. A present but unreadable entry is an error —
// restoring half a dependency tree would produce confusing build
// failures much later.
func (store *DirStore) Restore(ctx context.Context, key Key, destDir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	manifestData, err := os.ReadFile(store.manifestPath(key))
	if os.IsNotExist(err) {
		store.logger.Debug("cache miss", "key", key.Short())
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache manifest: %w", err)
	}

	var entry manifest
	if err := codec.Unmarshal(manifestData, &entry); err != nil {
		return false, fmt.Errorf("decoding cache manifest %s: %w", key.Short(), err)
	}
	if entry.OS != key.OS {
		// The key embeds the OS, so this indicates a corrupted or
		// tampered entry rather than a lookup mistake.
		return false, fmt.Errorf("cache entry %s is for OS %q, key is for %q", key.Short(), entry.OS, key.OS)
	}
	tag, err := ParseCompressionTag(entry.Compression)
	if err != nil {
		return false, fmt.Errorf("cache manifest %s: %w", key.Short(), err)
	}

	archive, err := os.Open(store.archivePath(key))
	if err != nil {
		return false, fmt.Errorf("opening cache archive %s: %w", key.Short(), err)
	}
	defer archive.Close()

	decompressor, err := newDecompressingReader(archive, tag)
	if err != nil {
		return false, err
	}
	defer decompressor.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return false, fmt.Errorf("creating restore root %s: %w", destDir, err)
	}
	if err := unpackTree(decompressor, destDir); err != nil {
		return false, fmt.Errorf("restoring cache entry %s: %w", key.Short(), err)
	}

	store.logger.Info("cache hit", "key", key.Short(), "files", entry.FileCount)
	return true, nil
}

// Save stores sourceDir as the entry for key. The archive and
// manifest are written to temporary files and renamed into place, so
// an existing entry is either fully replaced or left untouched. A
// missing sourceDir saves nothing and returns nil — a job whose
// dependency step never ran has nothing to persist.
func (store *DirStore) Save(ctx context.Context, key Key, sourceDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(sourceDir); os.IsNotExist(err) {
		store.logger.Debug("cache save skipped, source missing", "key", key.Short(), "dir", sourceDir)
		return nil
	}

	archivePath := store.archivePath(key)
	temp, err := os.CreateTemp(store.root, ".save-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	defer os.Remove(temp.Name())

	compressor, err := newCompressingWriter(temp, store.compression)
	if err != nil {
		temp.Close()
		return err
	}

	fileCount, packErr := packTree(compressor, sourceDir)
	if closeErr := compressor.Close(); packErr == nil {
		packErr = closeErr
	}
	if closeErr := temp.Close(); packErr == nil {
		packErr = closeErr
	}
	if packErr != nil {
		return fmt.Errorf("saving cache entry %s: %w", key.Short(), packErr)
	}

	entry := manifest{
		Version:     manifestVersion,
		Key:         key.String(),
		OS:          key.OS,
		Compression: store.compression.String(),
		FileCount:   fileCount,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	manifestData, err := codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache manifest: %w", err)
	}

	manifestTemp, err := os.CreateTemp(store.root, ".manifest-*")
	if err != nil {
		return fmt.Errorf("creating manifest temp file: %w", err)
	}
	defer os.Remove(manifestTemp.Name())
	if _, err := manifestTemp.Write(manifestData); err != nil {
		manifestTemp.Close()
		return fmt.Errorf("writing cache manifest: %w", err)
	}
	if err := manifestTemp.Close(); err != nil {
		return fmt.Errorf("closing cache manifest: %w", err)
	}

	// Archive first, manifest second: a reader that finds a manifest
	// always finds the matching archive.
	if err := os.Rename(temp.Name(), archivePath); err != nil {
		return fmt.Errorf("installing cache archive: %w", err)
	}
	if err := os.Rename(manifestTemp.Name(), store.manifestPath(key)); err != nil {
		return fmt.Errorf("installing cache manifest: %w", err)
	}

	store.logger.Info("cache saved", "key", key.Short(), "files", fileCount)
	return nil
}
