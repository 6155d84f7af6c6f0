// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package github is a typed client for the GitHub REST API endpoints
// the release publisher uses: release lookup, creation, update, and
// asset management.
//
// The client authenticates with a bearer token held in a locked
// secret buffer; the token is attached to requests and never appears
// in logs or errors. Non-2xx responses surface as *APIError with the
// structured message GitHub returns, and rate-limited requests are
// retried once after the backoff the response headers ask for.
package github
