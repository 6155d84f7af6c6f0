// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"fmt"
	"log/slog"
)

// Publisher collects bundles and uploads them to a store.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

// NewPublisher returns a Publisher backed by store. A nil logger falls
// back to slog.Default().
func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: store, logger: logger}
}

// Publish collects the bundle's files and uploads them. A required
// bundle with no files fails with a NoFilesError before anything is
// uploaded; an optional empty bundle is skipped with a warning.
func (publisher *Publisher) Publish(ctx context.Context, bundle Bundle) error {
	files, err := Collect(bundle)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		publisher.logger.Warn("optional bundle is empty, skipping",
			"bundle", bundle.Name, "root", bundle.Root)
		return nil
	}

	if err := publisher.store.Upload(ctx, bundle.Name, files); err != nil {
		return fmt.Errorf("uploading bundle %q: %w", bundle.Name, err)
	}
	return nil
}
