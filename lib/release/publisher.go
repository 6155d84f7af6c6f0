// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/conveyor-ci/conveyor/lib/github"
)

// assetContentType is the media type every uploaded binary is tagged
// with.
const assetContentType = "application/octet-stream"

// Outcome reports what Publish did to the release entry.
type Outcome string

const (
	// OutcomeCreated means no release had the tag, so one was created.
	OutcomeCreated Outcome = "created"

	// OutcomeUpdated means the tag's existing release was updated in
	// place.
	OutcomeUpdated Outcome = "updated"
)

// Descriptor names the release a job publishes to and the files to
// attach.
type Descriptor struct {
	// Owner and Repo identify the repository.
	Owner string
	Repo  string

	// Tag is the fixed release tag. It is the release's identity:
	// lookup, update, and creation all key on it.
	Tag string

	// Name is the release display name.
	Name string

	// Draft and Prerelease set the release's visibility flags.
	Draft      bool
	Prerelease bool

	// Files are the assets to attach.
	Files []File
}

// File is one asset to attach to the release.
type File struct {
	// Name is the asset name on the release (e.g. "crunchy-cli.exe").
	Name string

	// Path is the file's location on disk.
	Path string
}

// AuthError reports a rejected or missing credential. It wraps the
// underlying API error without reproducing the credential anywhere.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("release: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Unavailable is a publisher stand-in wired when no credential was
// found at startup. Every Publish fails with an AuthError, so a
// missing token fails each job's release stage rather than the whole
// run: earlier stages still execute and their artifacts remain in the
// store, inspectable.
type Unavailable struct {
	// Reason explains why publication cannot proceed.
	Reason error
}

// Publish always fails with an AuthError wrapping Reason.
func (u *Unavailable) Publish(ctx context.Context, descriptor Descriptor) (Outcome, error) {
	return "", &AuthError{Err: u.Reason}
}

// API is the slice of the GitHub release API the publisher uses. The
// github.Client satisfies it; tests substitute a recorder.
type API interface {
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.Release, error)
	CreateRelease(ctx context.Context, owner, repo string, params github.ReleaseParams) (*github.Release, error)
	UpdateRelease(ctx context.Context, owner, repo string, releaseID int64, params github.ReleaseParams) (*github.Release, error)
	DeleteReleaseAsset(ctx context.Context, owner, repo string, assetID int64) error
	UploadReleaseAsset(ctx context.Context, release *github.Release, name, contentType string, data []byte) (*github.Asset, error)
}

// Publisher publishes release assets through a GitHub release API.
type Publisher struct {
	api    API
	logger *slog.Logger
}

// NewPublisher returns a Publisher backed by api. A nil logger falls
// back to slog.Default().
func NewPublisher(api API, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{api: api, logger: logger}
}

// Publish converges the tag's release to the descriptor and attaches
// its files. The release is looked up by tag: found means update in
// place, not found means create. Each file replaces any existing
// asset of the same name. Returns whether the release entry was
// created or updated.
func (publisher *Publisher) Publish(ctx context.Context, descriptor Descriptor) (Outcome, error) {
	params := github.ReleaseParams{
		TagName:    descriptor.Tag,
		Name:       descriptor.Name,
		Draft:      descriptor.Draft,
		Prerelease: descriptor.Prerelease,
	}

	var outcome Outcome
	var target *github.Release

	existing, err := publisher.api.GetReleaseByTag(ctx, descriptor.Owner, descriptor.Repo, descriptor.Tag)
	switch {
	case err == nil:
		target, err = publisher.api.UpdateRelease(ctx, descriptor.Owner, descriptor.Repo, existing.ID, params)
		if err != nil {
			return "", publishError("updating release", descriptor.Tag, err)
		}
		// An update response can omit the asset list; the lookup had it.
		if len(target.Assets) == 0 {
			target.Assets = existing.Assets
		}
		outcome = OutcomeUpdated
	case github.IsNotFound(err):
		target, err = publisher.api.CreateRelease(ctx, descriptor.Owner, descriptor.Repo, params)
		if err != nil {
			return "", publishError("creating release", descriptor.Tag, err)
		}
		outcome = OutcomeCreated
	default:
		return "", publishError("looking up release", descriptor.Tag, err)
	}

	publisher.logger.Info("release "+string(outcome),
		"tag", descriptor.Tag, "repo", descriptor.Owner+"/"+descriptor.Repo)

	for _, file := range descriptor.Files {
		if err := publisher.attach(ctx, descriptor, target, file); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// attach uploads one file, deleting any same-named asset first. The
// upload API rejects duplicate names, so replacement is delete then
// upload; a re-run that lost the race to another job simply overwrote
// an asset with equivalent content.
func (publisher *Publisher) attach(ctx context.Context, descriptor Descriptor, target *github.Release, file File) error {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return fmt.Errorf("release: reading asset %q: %w", file.Name, err)
	}

	for _, asset := range target.Assets {
		if asset.Name == file.Name {
			if err := publisher.api.DeleteReleaseAsset(ctx, descriptor.Owner, descriptor.Repo, asset.ID); err != nil {
				return publishError(fmt.Sprintf("replacing asset %q", file.Name), descriptor.Tag, err)
			}
			break
		}
	}

	if _, err := publisher.api.UploadReleaseAsset(ctx, target, file.Name, assetContentType, data); err != nil {
		return publishError(fmt.Sprintf("uploading asset %q", file.Name), descriptor.Tag, err)
	}

	publisher.logger.Info("asset attached", "tag", descriptor.Tag,
		"asset", file.Name, "bytes", len(data))
	return nil
}

func publishError(action, tag string, err error) error {
	if github.IsUnauthorized(err) {
		return &AuthError{Err: err}
	}
	return fmt.Errorf("release: %s %q: %w", action, tag, err)
}
