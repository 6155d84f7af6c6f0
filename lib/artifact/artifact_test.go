// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCollectSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	binary := filepath.Join(dir, "crunchy-cli")
	writeFile(t, binary, "ELF binary bytes")

	files, err := Collect(Bundle{Name: "crunchy-cli-linux", Root: binary, Required: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("collected %d files, want 1", len(files))
	}
	// A single-file bundle is published under the bundle name, not
	// the on-disk filename.
	if files[0].Name != "crunchy-cli-linux" {
		t.Errorf("file name = %q, want bundle name", files[0].Name)
	}
	if files[0].Size != int64(len("ELF binary bytes")) {
		t.Errorf("file size = %d", files[0].Size)
	}
}

func TestCollectDirectoryRecursive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "crunchy-cli.1"), "man page")
	writeFile(t, filepath.Join(dir, "sub", "crunchy-cli-login.1"), "man page")

	files, err := Collect(Bundle{Name: "manpages", Root: dir, Required: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("collected %d files, want 2: %v", len(files), files)
	}
	names := map[string]bool{}
	for _, file := range files {
		names[file.Name] = true
	}
	if !names["crunchy-cli.1"] || !names["sub/crunchy-cli-login.1"] {
		t.Errorf("unexpected member names: %v", names)
	}
}

func TestCollectRequiredEmptyFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{"missing root", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "never-created")
		}},
		{"empty directory", func(t *testing.T) string {
			return t.TempDir()
		}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := Collect(Bundle{Name: "completions", Root: test.root(t), Required: true})
			var noFiles *NoFilesError
			if !errors.As(err, &noFiles) {
				t.Fatalf("error = %v, want NoFilesError", err)
			}
			if noFiles.Bundle != "completions" {
				t.Errorf("NoFilesError.Bundle = %q", noFiles.Bundle)
			}
		})
	}
}

func TestCollectOptionalEmptyIsNil(t *testing.T) {
	t.Parallel()

	files, err := Collect(Bundle{Name: "extras", Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("collected %d files from an empty optional bundle", len(files))
	}
}

func TestDirStoreUploadAndIndex(t *testing.T) {
	t.Parallel()

	store, err := NewDirStore(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}

	source := t.TempDir()
	binary := filepath.Join(source, "crunchy-cli")
	writeFile(t, binary, "ELF binary bytes")

	bundle := Bundle{Name: "crunchy-cli-linux", Root: binary, Required: true}
	publisher := NewPublisher(store, discardLogger())
	if err := publisher.Publish(context.Background(), bundle); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	stored := filepath.Join(store.root, "crunchy-cli-linux", "crunchy-cli-linux")
	content, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(content) != "ELF binary bytes" {
		t.Errorf("stored content = %q", content)
	}

	index, err := store.ReadIndex("crunchy-cli-linux")
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(index.Files) != 1 {
		t.Fatalf("index has %d files, want 1", len(index.Files))
	}
	entry := index.Files[0]
	if entry.Name != "crunchy-cli-linux" {
		t.Errorf("index entry name = %q", entry.Name)
	}
	if want := FormatHash(HashBytes([]byte("ELF binary bytes"))); entry.Digest != want {
		t.Errorf("index digest = %s, want %s", entry.Digest, want)
	}
}

func TestDirStoreUploadReplacesBundle(t *testing.T) {
	t.Parallel()

	store, err := NewDirStore(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	ctx := context.Background()

	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.fish"), "old")
	writeFile(t, filepath.Join(source, "b.fish"), "removed later")

	first, err := Collect(Bundle{Name: "completions", Root: source, Required: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if err := store.Upload(ctx, "completions", first); err != nil {
		t.Fatalf("first Upload: %v", err)
	}

	second := t.TempDir()
	writeFile(t, filepath.Join(second, "a.fish"), "new")
	replacement, err := Collect(Bundle{Name: "completions", Root: second, Required: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if err := store.Upload(ctx, "completions", replacement); err != nil {
		t.Fatalf("second Upload: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.root, "completions", "b.fish")); !os.IsNotExist(err) {
		t.Error("stale file from the replaced bundle survived")
	}
	index, err := store.ReadIndex("completions")
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(index.Files) != 1 || index.Files[0].Name != "a.fish" {
		t.Errorf("replaced index = %+v", index.Files)
	}
}

func TestPublishRequiredEmptyNeverUploads(t *testing.T) {
	t.Parallel()

	recorder := &recordingStore{}
	publisher := NewPublisher(recorder, discardLogger())

	err := publisher.Publish(context.Background(), Bundle{
		Name:     "crunchy-cli-linux",
		Root:     filepath.Join(t.TempDir(), "missing"),
		Required: true,
	})
	var noFiles *NoFilesError
	if !errors.As(err, &noFiles) {
		t.Fatalf("error = %v, want NoFilesError", err)
	}
	if recorder.uploads != 0 {
		t.Errorf("store saw %d uploads for an empty required bundle", recorder.uploads)
	}
}

type recordingStore struct {
	uploads int
}

func (store *recordingStore) Upload(ctx context.Context, name string, files []File) error {
	store.uploads++
	return nil
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data")
	writeFile(t, path, "digest me")

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if fromFile != HashBytes([]byte("digest me")) {
		t.Error("streaming and in-memory digests disagree")
	}
}
