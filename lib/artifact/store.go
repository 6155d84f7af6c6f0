// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/conveyor-ci/conveyor/lib/codec"
)

// indexVersion is bumped when the index layout changes incompatibly.
const indexVersion = 1

// Store receives published bundles.
type Store interface {
	// Upload stores the files as the bundle named name, replacing any
	// previous bundle of that name.
	Upload(ctx context.Context, name string, files []File) error
}

// Index is the integrity record written alongside each stored bundle.
type Index struct {
	Version   int          `cbor:"version"`
	Bundle    string       `cbor:"bundle"`
	Files     []IndexEntry `cbor:"files"`
	CreatedAt time.Time    `cbor:"created_at"`
}

// IndexEntry records one stored file and its content digest.
type IndexEntry struct {
	Name   string `cbor:"name"`
	Size   int64  `cbor:"size"`
	Digest string `cbor:"digest"`
}

// DirStore stores bundles under a local directory: the bundle's files
// under <root>/<name>/, and a CBOR index with BLAKE3 digests at
// <root>/<name>.index.
type DirStore struct {
	root   string
	logger *slog.Logger
}

// NewDirStore returns a DirStore rooted at root, creating the
// directory if needed. A nil logger falls back to slog.Default().
func NewDirStore(root string, logger *slog.Logger) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact store root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DirStore{root: root, logger: logger}, nil
}

// Upload copies the files into the store and writes the bundle's
// index. The bundle directory is staged under a temporary name and
// renamed into place, so a bundle is never observable half-written;
// an existing bundle of the same name is replaced.
func (store *DirStore) Upload(ctx context.Context, name string, files []File) error {
	staging, err := os.MkdirTemp(store.root, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	index := Index{
		Version:   indexVersion,
		Bundle:    name,
		CreatedAt: time.Now().UTC(),
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		digest, err := copyFile(file.Path, filepath.Join(staging, filepath.FromSlash(file.Name)))
		if err != nil {
			return fmt.Errorf("storing bundle %q: %w", name, err)
		}
		index.Files = append(index.Files, IndexEntry{
			Name:   file.Name,
			Size:   file.Size,
			Digest: FormatHash(digest),
		})
	}

	encoded, err := codec.Marshal(index)
	if err != nil {
		return fmt.Errorf("encoding bundle index: %w", err)
	}
	indexPath := filepath.Join(store.root, name+".index")
	if err := os.WriteFile(indexPath+".tmp", encoded, 0o644); err != nil {
		return fmt.Errorf("writing bundle index: %w", err)
	}

	// Bundle directory first, then the index: an index never names a
	// bundle that is not fully in place.
	bundleDir := filepath.Join(store.root, name)
	if err := os.RemoveAll(bundleDir); err != nil {
		return fmt.Errorf("replacing bundle %q: %w", name, err)
	}
	if err := os.Rename(staging, bundleDir); err != nil {
		return fmt.Errorf("placing bundle %q: %w", name, err)
	}
	if err := os.Rename(indexPath+".tmp", indexPath); err != nil {
		return fmt.Errorf("placing bundle index: %w", err)
	}

	store.logger.Info("bundle stored", "bundle", name, "files", len(files))
	return nil
}

// ReadIndex loads the integrity index of a stored bundle.
func (store *DirStore) ReadIndex(name string) (Index, error) {
	var index Index
	encoded, err := os.ReadFile(filepath.Join(store.root, name+".index"))
	if err != nil {
		return index, fmt.Errorf("reading bundle index: %w", err)
	}
	if err := codec.Unmarshal(encoded, &index); err != nil {
		return index, fmt.Errorf("decoding bundle index: %w", err)
	}
	if index.Version != indexVersion {
		return index, fmt.Errorf("bundle index version %d, want %d", index.Version, indexVersion)
	}
	return index, nil
}

// copyFile copies source to dest, creating parent directories, and
// returns the content digest of the bytes written.
func copyFile(source, dest string) (Hash, error) {
	var digest Hash

	in, err := os.Open(source)
	if err != nil {
		return digest, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return digest, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return digest, err
	}

	hasher := newFileHasher()
	if _, err := io.Copy(io.MultiWriter(out, hasher), in); err != nil {
		out.Close()
		return digest, err
	}
	if err := out.Close(); err != nil {
		return digest, err
	}
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}
