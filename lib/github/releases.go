// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Release is a GitHub release as returned by the releases API.
type Release struct {
	ID         int64   `json:"id"`
	TagName    string  `json:"tag_name"`
	Name       string  `json:"name"`
	Body       string  `json:"body"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	HTMLURL    string  `json:"html_url"`
	UploadURL  string  `json:"upload_url"`
	Assets     []Asset `json:"assets"`
}

// Asset is a file attached to a release.
type Asset struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ReleaseParams are the mutable fields of a release, used for both
// creation and update.
type ReleaseParams struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name,omitempty"`
	Body       string `json:"body,omitempty"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// GetReleaseByTag fetches the release for a tag. Returns an *APIError
// with status 404 (see IsNotFound) when no release has the tag.
//
// GitHub's by-tag endpoint only resolves published releases, so draft
// releases are looked up by listing and matching the tag name.
func (client *Client) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	var release Release
	err := client.get(ctx, fmt.Sprintf("/repos/%s/%s/releases/tags/%s", owner, repo, url.PathEscape(tag)), &release)
	if err == nil {
		return &release, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	var releases []Release
	if listErr := client.get(ctx, fmt.Sprintf("/repos/%s/%s/releases?per_page=100", owner, repo), &releases); listErr != nil {
		return nil, listErr
	}
	for i := range releases {
		if releases[i].TagName == tag {
			return &releases[i], nil
		}
	}
	return nil, err
}

// CreateRelease creates a release.
func (client *Client) CreateRelease(ctx context.Context, owner, repo string, params ReleaseParams) (*Release, error) {
	var release Release
	err := client.post(ctx, fmt.Sprintf("/repos/%s/%s/releases", owner, repo), params, &release)
	if err != nil {
		return nil, err
	}
	return &release, nil
}

// UpdateRelease updates an existing release's fields.
func (client *Client) UpdateRelease(ctx context.Context, owner, repo string, releaseID int64, params ReleaseParams) (*Release, error) {
	var release Release
	err := client.patch(ctx, fmt.Sprintf("/repos/%s/%s/releases/%d", owner, repo, releaseID), params, &release)
	if err != nil {
		return nil, err
	}
	return &release, nil
}

// DeleteReleaseAsset removes an asset from a release.
func (client *Client) DeleteReleaseAsset(ctx context.Context, owner, repo string, assetID int64) error {
	return client.delete(ctx, fmt.Sprintf("/repos/%s/%s/releases/assets/%d", owner, repo, assetID))
}

// UploadReleaseAsset attaches data to the release as an asset named
// name. The upload goes to the release's upload URL, which lives on
// GitHub's upload host rather than the API host. Uploading a name
// that already exists fails; delete the existing asset first.
func (client *Client) UploadReleaseAsset(ctx context.Context, release *Release, name, contentType string, data []byte) (*Asset, error) {
	uploadURL, err := expandUploadURL(release.UploadURL, name)
	if err != nil {
		return nil, err
	}

	body, err := client.upload(ctx, uploadURL, contentType, data)
	if err != nil {
		return nil, err
	}

	var asset Asset
	if err := json.Unmarshal(body, &asset); err != nil {
		return nil, fmt.Errorf("github: decoding asset response: %w", err)
	}
	return &asset, nil
}

// expandUploadURL resolves the RFC 6570 style upload template GitHub
// returns ("https://uploads.github.com/...{?name,label}") for a given
// asset name.
func expandUploadURL(template, name string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("github: release has no upload URL")
	}
	base := template
	if brace := strings.Index(base, "{"); brace >= 0 {
		base = base[:brace]
	}
	return base + "?name=" + url.QueryEscape(name), nil
}
