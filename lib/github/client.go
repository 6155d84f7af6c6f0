// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conveyor-ci/conveyor/lib/clock"
	"github.com/conveyor-ci/conveyor/lib/netutil"
	"github.com/conveyor-ci/conveyor/lib/secret"
)

// githubAPIVersion is the GitHub REST API version header. Pinning the
// version ensures consistent behavior as GitHub evolves the API.
const githubAPIVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// Config holds configuration for creating a GitHub API Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS.
	BaseURL string

	// Token is the bearer credential. Required. The client reads it
	// per request and never copies it into logs or error messages.
	Token *secret.Buffer

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time operations for rate limit backoff. Defaults
	// to clock.Real(). Inject clock.Fake() in tests.
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a typed GitHub REST API client with bearer authentication,
// rate limit backoff, and structured error handling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      *secret.Buffer
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates a GitHub API client from the given configuration.
// Returns an error if the base URL is not HTTPS or no token is
// configured.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}
	if config.Token == nil || config.Token.Len() == 0 {
		return nil, fmt.Errorf("github: no authentication token configured")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      config.Token,
		clock:      clk,
		logger:     logger,
	}, nil
}

// do executes an authenticated GitHub API request. The path is
// relative to the base URL (e.g. "/repos/owner/repo/releases"). A
// non-nil requestBody is JSON-encoded. Returns the response body; on
// non-2xx responses, returns an *APIError. A rate-limited request is
// retried once after the backoff the response headers request.
func (client *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	return client.doWithRetry(ctx, method, path, requestBody, false)
}

func (client *Client) doWithRetry(ctx context.Context, method, path string, requestBody any, isRetry bool) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.send(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("github: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		// Rate limit: back off once, then give up. A single retry
		// avoids looping forever when the limit is persistent.
		if !isRetry && isRateLimitResponse(response.StatusCode, body) {
			if backoff := retryAfter(response.Header, client.clock.Now()); backoff > 0 {
				client.logger.Info("rate limited, backing off",
					"duration", backoff, "method", method, "path", path)
				select {
				case <-client.clock.After(backoff):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return client.doWithRetry(ctx, method, path, requestBody, true)
			}
		}
		return nil, parseAPIErrorFromBody(response.StatusCode, body)
	}

	return body, nil
}

// upload sends a raw request body to an absolute URL. Release asset
// uploads go to GitHub's upload host, not the API base URL, so the
// caller passes the full URL taken from the release's upload template.
func (client *Client) upload(ctx context.Context, url, contentType string, data []byte) ([]byte, error) {
	if !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("github: upload requires HTTPS (got %q)", url)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("github: creating upload request: %w", err)
	}
	request.Header.Set("Content-Type", contentType)
	request.ContentLength = int64(len(data))

	response, err := client.send(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("github: reading upload response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, parseAPIErrorFromBody(response.StatusCode, body)
	}
	return body, nil
}

// send attaches authentication and the standard GitHub headers, then
// executes the request.
func (client *Client) send(request *http.Request) (*http.Response, error) {
	request.Header.Set("Authorization", "Bearer "+client.token.String())
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", githubAPIVersion)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", request.Method, request.URL.Path, err)
	}
	return response, nil
}

func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

func (client *Client) post(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

func (client *Client) patch(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPatch, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

func (client *Client) delete(ctx context.Context, path string) error {
	_, err := client.do(ctx, http.MethodDelete, path, nil)
	return err
}

// isRateLimitResponse reports whether a failed response is a rate
// limit rejection. GitHub uses 429 for secondary limits and 403 with
// a recognizable message for the primary limit.
func isRateLimitResponse(statusCode int, body []byte) bool {
	return statusCode == 429 ||
		(statusCode == 403 && isRateLimitMessage(string(body)))
}

// retryAfter derives the backoff a rate-limited response asks for:
// the Retry-After header when present, otherwise the time until the
// X-RateLimit-Reset epoch. Zero means no usable hint.
func retryAfter(header http.Header, now time.Time) time.Duration {
	if value := header.Get("Retry-After"); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if value := header.Get("X-RateLimit-Reset"); value != "" {
		if epoch, err := strconv.ParseInt(value, 10, 64); err == nil {
			if backoff := time.Unix(epoch, 0).Sub(now); backoff > 0 {
				return backoff
			}
		}
	}
	return 0
}

// parseAPIErrorFromBody parses a GitHub API error from a status code
// and response body.
func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Message          string            `json:"message"`
		DocumentationURL string            `json:"documentation_url"`
		Errors           []ValidationError `json:"errors"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
		apiError.Errors = wireError.Errors
	} else {
		apiError.Message = string(body)
	}

	return apiError
}
