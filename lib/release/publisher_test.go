// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conveyor-ci/conveyor/lib/github"
)

// fakeAPI is an in-memory release backend recording every call.
type fakeAPI struct {
	release *github.Release // nil means no release exists for the tag

	created  []github.ReleaseParams
	updated  []github.ReleaseParams
	deleted  []int64
	uploaded map[string][]byte

	failUpload error
}

func (api *fakeAPI) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.Release, error) {
	if api.release == nil || api.release.TagName != tag {
		return nil, &github.APIError{StatusCode: 404, Message: "Not Found"}
	}
	copied := *api.release
	return &copied, nil
}

func (api *fakeAPI) CreateRelease(ctx context.Context, owner, repo string, params github.ReleaseParams) (*github.Release, error) {
	api.created = append(api.created, params)
	api.release = &github.Release{
		ID:         1,
		TagName:    params.TagName,
		Name:       params.Name,
		Draft:      params.Draft,
		Prerelease: params.Prerelease,
	}
	copied := *api.release
	return &copied, nil
}

func (api *fakeAPI) UpdateRelease(ctx context.Context, owner, repo string, releaseID int64, params github.ReleaseParams) (*github.Release, error) {
	api.updated = append(api.updated, params)
	api.release.Name = params.Name
	api.release.Draft = params.Draft
	api.release.Prerelease = params.Prerelease
	copied := *api.release
	copied.Assets = nil
	return &copied, nil
}

func (api *fakeAPI) DeleteReleaseAsset(ctx context.Context, owner, repo string, assetID int64) error {
	api.deleted = append(api.deleted, assetID)
	kept := api.release.Assets[:0]
	for _, asset := range api.release.Assets {
		if asset.ID != assetID {
			kept = append(kept, asset)
		}
	}
	api.release.Assets = kept
	return nil
}

func (api *fakeAPI) UploadReleaseAsset(ctx context.Context, release *github.Release, name, contentType string, data []byte) (*github.Asset, error) {
	if api.failUpload != nil {
		return nil, api.failUpload
	}
	if api.uploaded == nil {
		api.uploaded = make(map[string][]byte)
	}
	api.uploaded[name] = append([]byte(nil), data...)
	asset := github.Asset{ID: int64(len(api.uploaded)), Name: name, Size: int64(len(data))}
	api.release.Assets = append(api.release.Assets, asset)
	return &asset, nil
}

func newPublisher(api API) *Publisher {
	return NewPublisher(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeAsset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("writing asset fixture: %v", err)
	}
	return path
}

func testDescriptor(t *testing.T) Descriptor {
	return Descriptor{
		Owner: "crunchy-labs",
		Repo:  "crunchy-cli",
		Tag:   "v1",
		Name:  "Latest build",
		Draft: true,
		Files: []File{
			{Name: "crunchy-cli", Path: writeAsset(t, "crunchy-cli-linux", "ELF")},
		},
	}
}

func TestPublishCreatesWhenTagAbsent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	outcome, err := newPublisher(api).Publish(context.Background(), testDescriptor(t))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("outcome = %q, want created", outcome)
	}
	if len(api.created) != 1 || len(api.updated) != 0 {
		t.Fatalf("created=%d updated=%d", len(api.created), len(api.updated))
	}
	if !api.created[0].Draft {
		t.Error("release not created as draft")
	}
	if string(api.uploaded["crunchy-cli"]) != "ELF" {
		t.Errorf("uploaded = %v", api.uploaded)
	}
}

func TestPublishUpdatesExistingRelease(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{release: &github.Release{ID: 1, TagName: "v1", Name: "old name", Draft: true}}
	outcome, err := newPublisher(api).Publish(context.Background(), testDescriptor(t))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Errorf("outcome = %q, want updated", outcome)
	}
	if len(api.created) != 0 {
		t.Error("update path still created a release")
	}
	if api.release.Name != "Latest build" {
		t.Errorf("release name = %q, update did not converge", api.release.Name)
	}
}

func TestPublishConvergesAcrossRuns(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	publisher := newPublisher(api)
	ctx := context.Background()

	first, err := publisher.Publish(ctx, testDescriptor(t))
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	second, err := publisher.Publish(ctx, testDescriptor(t))
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}

	if first != OutcomeCreated || second != OutcomeUpdated {
		t.Errorf("outcomes = %q, %q; want created then updated", first, second)
	}
	if len(api.created) != 1 {
		t.Errorf("the tag gained %d releases, want exactly 1", len(api.created))
	}
}

func TestPublishReplacesSameNamedAsset(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{release: &github.Release{
		ID:      1,
		TagName: "v1",
		Draft:   true,
		Assets:  []github.Asset{{ID: 77, Name: "crunchy-cli"}},
	}}

	descriptor := testDescriptor(t)
	if _, err := newPublisher(api).Publish(context.Background(), descriptor); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(api.deleted) != 1 || api.deleted[0] != 77 {
		t.Errorf("deleted assets = %v, want [77]", api.deleted)
	}
	if string(api.uploaded["crunchy-cli"]) != "ELF" {
		t.Errorf("uploaded = %v", api.uploaded)
	}
}

func TestPublishDoesNotDeleteUnrelatedAssets(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{release: &github.Release{
		ID:      1,
		TagName: "v1",
		Draft:   true,
		Assets:  []github.Asset{{ID: 50, Name: "crunchy-cli.exe"}},
	}}

	if _, err := newPublisher(api).Publish(context.Background(), testDescriptor(t)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(api.deleted) != 0 {
		t.Errorf("another job's asset was deleted: %v", api.deleted)
	}
}

func TestPublishUnauthorizedIsAuthError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{failUpload: &github.APIError{StatusCode: 401, Message: "Bad credentials"}}
	_, err := newPublisher(api).Publish(context.Background(), testDescriptor(t))

	var authError *AuthError
	if !errors.As(err, &authError) {
		t.Fatalf("error = %v, want AuthError", err)
	}
}

func TestPublishMissingAssetFileFails(t *testing.T) {
	t.Parallel()

	descriptor := testDescriptor(t)
	descriptor.Files = []File{{Name: "crunchy-cli", Path: filepath.Join(t.TempDir(), "gone")}}

	api := &fakeAPI{}
	if _, err := newPublisher(api).Publish(context.Background(), descriptor); err == nil {
		t.Fatal("Publish succeeded with a missing asset file")
	}
	if len(api.uploaded) != 0 {
		t.Errorf("uploads happened despite the missing file: %v", api.uploaded)
	}
}

func TestUnavailablePublisherFailsWithAuthError(t *testing.T) {
	t.Parallel()

	publisher := &Unavailable{Reason: errors.New("no credential in environment")}
	_, err := publisher.Publish(context.Background(), testDescriptor(t))

	var authError *AuthError
	if !errors.As(err, &authError) {
		t.Fatalf("error = %v, want AuthError", err)
	}
	if !strings.Contains(err.Error(), "no credential") {
		t.Errorf("error %q does not carry the reason", err)
	}
}
