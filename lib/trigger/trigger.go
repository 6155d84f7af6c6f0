// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package trigger parses the source-control event that started a
// pipeline run. The hosting platform delivers the event as a small
// JSON file; Conveyor reads it and decides, against the definition's
// trigger filter, whether the run proceeds at all.
//
// Only three event types are recognized: push to a branch, pull
// request, and manual dispatch. Anything else is rejected at parse
// time rather than silently ignored mid-run.
package trigger

import (
	"encoding/json"
	"fmt"
	"os"
)

// Type identifies the kind of source-control event.
type Type string

const (
	// Push is a push to a branch. The event carries the branch name.
	Push Type = "push"

	// PullRequest is a pull request open or update.
	PullRequest Type = "pull_request"

	// Dispatch is a manual run request.
	Dispatch Type = "dispatch"
)

// Event is the source-control event that started a run.
type Event struct {
	// Type is the event kind.
	Type Type `json:"event"`

	// Branch is the pushed branch name. Set only for Push events.
	Branch string `json:"branch,omitempty"`

	// Commit is the triggering commit SHA, when the platform
	// provides one. Informational; the release tag is fixed and
	// never derived from it.
	Commit string `json:"commit,omitempty"`
}

// Parse decodes an event from JSON and checks its type.
func Parse(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("parsing trigger event: %w", err)
	}

	switch event.Type {
	case Push:
		if event.Branch == "" {
			return Event{}, fmt.Errorf("push event has no branch")
		}
	case PullRequest, Dispatch:
	case "":
		return Event{}, fmt.Errorf("trigger event has no type")
	default:
		return Event{}, fmt.Errorf("unrecognized trigger event type %q", event.Type)
	}

	return event, nil
}

// ReadFile reads and parses a trigger event file.
func ReadFile(path string) (Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Event{}, fmt.Errorf("reading trigger event %s: %w", path, err)
	}
	event, err := Parse(data)
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", path, err)
	}
	return event, nil
}

// Filter is the subset of a pipeline definition that decides which
// events start a run.
type Filter struct {
	// PushBranches lists branch names whose pushes trigger a run.
	PushBranches []string

	// PullRequest enables pull request runs.
	PullRequest bool

	// Dispatch enables manual runs.
	Dispatch bool
}

// Matches reports whether event starts a run under this filter.
func (filter Filter) Matches(event Event) bool {
	switch event.Type {
	case Push:
		for _, branch := range filter.PushBranches {
			if branch == event.Branch {
				return true
			}
		}
		return false
	case PullRequest:
		return filter.PullRequest
	case Dispatch:
		return filter.Dispatch
	default:
		return false
	}
}
