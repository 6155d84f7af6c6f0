// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Bundle names a set of build products to publish together.
type Bundle struct {
	// Name is the bundle's published name (e.g. "crunchy-cli-linux",
	// "manpages").
	Name string

	// Root is the path the bundle collects from: a single file, or a
	// directory whose regular files are collected recursively.
	Root string

	// Required makes an empty bundle a publication failure. A build
	// both succeeded and produced none of this bundle's files only
	// when the build itself is broken.
	Required bool
}

// File is one collected bundle member.
type File struct {
	// Name is the file's slash-separated path within the bundle.
	Name string

	// Path is the file's location on disk.
	Path string

	// Size is the file's length in bytes.
	Size int64
}

// NoFilesError reports a required bundle that collected zero files.
type NoFilesError struct {
	// Bundle is the empty bundle's name.
	Bundle string

	// Root is the path the collection searched.
	Root string
}

func (e *NoFilesError) Error() string {
	return fmt.Sprintf("bundle %q: no files found under %s", e.Bundle, e.Root)
}

// Collect gathers the bundle's files. A Root that is a regular file
// yields a single member named after the bundle; a directory Root
// yields every regular file beneath it. A missing or empty Root
// returns a NoFilesError when the bundle is required, and an empty
// list otherwise.
func Collect(bundle Bundle) ([]File, error) {
	info, err := os.Stat(bundle.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, emptyResult(bundle)
		}
		return nil, fmt.Errorf("bundle %q: %w", bundle.Name, err)
	}

	if !info.IsDir() {
		return []File{{Name: bundle.Name, Path: bundle.Root, Size: info.Size()}}, nil
	}

	var files []File
	err = filepath.WalkDir(bundle.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(bundle.Root, path)
		if err != nil {
			return err
		}
		files = append(files, File{
			Name: filepath.ToSlash(relative),
			Path: path,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting bundle %q: %w", bundle.Name, err)
	}

	if len(files) == 0 {
		return nil, emptyResult(bundle)
	}
	return files, nil
}

func emptyResult(bundle Bundle) error {
	if bundle.Required {
		return &NoFilesError{Bundle: bundle.Name, Root: bundle.Root}
	}
	return nil
}
