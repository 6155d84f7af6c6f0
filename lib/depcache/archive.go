// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package depcache

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// packTree writes the contents of sourceDir as a tar stream. Paths in
// the archive are relative to sourceDir. Regular files, directories,
// and symlinks are packed; anything else (sockets, devices) is
// skipped.
func packTree(w io.Writer, sourceDir string) (fileCount int, err error) {
	writer := tar.NewWriter(w)

	walkErr := filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if relative == "." {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		} else if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relative)

		if err := writer.WriteHeader(header); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			_, copyErr := io.Copy(writer, file)
			file.Close()
			if copyErr != nil {
				return copyErr
			}
			fileCount++
		}
		return nil
	})
	if walkErr != nil {
		return 0, fmt.Errorf("packing %s: %w", sourceDir, walkErr)
	}

	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("finalizing archive: %w", err)
	}
	return fileCount, nil
}

// unpackTree extracts a tar stream into destDir. Entries that would
// escape destDir (absolute paths, ".." traversal) are rejected — a
// cache entry is trusted data written by this package, but the check
// costs nothing and a corrupted entry must not scribble outside the
// restore root.
func unpackTree(r io.Reader, destDir string) error {
	reader := tar.NewReader(r)

	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		if err := checkEntryPath(header.Name); err != nil {
			return err
		}
		target := filepath.Join(destDir, filepath.FromSlash(header.Name))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(header.Mode)&0o777); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating parent of %s: %w", target, err)
			}
			file, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fs.FileMode(header.Mode)&0o777)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", target, err)
			}
			_, copyErr := io.Copy(file, reader)
			closeErr := file.Close()
			if copyErr != nil {
				return fmt.Errorf("writing %s: %w", target, copyErr)
			}
			if closeErr != nil {
				return fmt.Errorf("closing %s: %w", target, closeErr)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating parent of %s: %w", target, err)
			}
			// Replace any stale link from a previous restore.
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink %s: %w", target, err)
			}
		default:
			// Skip unsupported entry types.
		}
	}
}

// checkEntryPath rejects archive member names that would escape the
// restore root.
func checkEntryPath(name string) error {
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("archive entry %q has an absolute path", name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("archive entry %q escapes the restore root", name)
	}
	return nil
}
