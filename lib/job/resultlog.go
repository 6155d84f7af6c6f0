// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ResultLog writes structured JSONL to a file during a run. Each line
// is an independent JSON object, making the log:
//
//   - Crash-safe: a SIGKILL mid-run preserves every completed job's
//     result. A single JSON document would be truncated and
//     unparseable.
//   - Streamable: an outer runner can tail the file for per-job
//     progress instead of waiting for the run to finish.
//
// All methods are nil-safe no-ops, so a run without a configured
// result log needs no conditionals at call sites.
type ResultLog struct {
	mu      sync.Mutex
	logger  *slog.Logger
	file    *os.File
	encoder *json.Encoder
}

// NewResultLog creates a JSONL result log at path, truncating any
// existing content. A nil logger falls back to slog.Default().
func NewResultLog(path string, logger *slog.Logger) (*ResultLog, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating result log %s: %w", path, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultLog{
		logger:  logger,
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Close flushes and closes the result log file.
func (log *ResultLog) Close() error {
	if log == nil {
		return nil
	}
	return log.file.Close()
}

// Start records the beginning of a run.
func (log *ResultLog) Start(jobCount int) {
	if log == nil {
		return
	}
	log.write(startEntry{
		Type:      "start",
		JobCount:  jobCount,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Job records one job's outcome.
func (log *ResultLog) Job(result Result) {
	if log == nil {
		return
	}
	entry := jobEntry{
		Type:       "job",
		Job:        result.Job,
		Status:     "ok",
		CacheHit:   result.CacheHit,
		Release:    string(result.Release),
		DurationMS: result.Duration.Milliseconds(),
	}
	if !result.OK() {
		entry.Status = "failed"
		entry.Stage = string(result.Stage)
		entry.Error = result.Err.Error()
	}
	log.write(entry)
}

// Complete records the end of a run.
func (log *ResultLog) Complete(succeeded, failed int, duration time.Duration) {
	if log == nil {
		return
	}
	status := "ok"
	if failed > 0 {
		status = "failed"
	}
	log.write(completeEntry{
		Type:       "complete",
		Status:     status,
		Succeeded:  succeeded,
		Failed:     failed,
		DurationMS: duration.Milliseconds(),
	})
}

func (log *ResultLog) write(entry any) {
	log.mu.Lock()
	defer log.mu.Unlock()

	if err := log.encoder.Encode(entry); err != nil {
		log.logger.Warn("failed to write result log entry", "error", err)
		return
	}
	// Sync after each line so that partial results survive a crash and
	// are visible to readers immediately.
	if err := log.file.Sync(); err != nil {
		log.logger.Warn("failed to sync result log", "error", err)
	}
}

// JSONL entry types. Separate structs per line type (rather than one
// with omitempty everywhere) keep the wire format explicit.

// startEntry is the first line, written when the run begins.
type startEntry struct {
	Type      string `json:"type"`
	JobCount  int    `json:"job_count"`
	Timestamp string `json:"timestamp"`
}

// jobEntry is written once per job after it finishes.
type jobEntry struct {
	Type       string `json:"type"`
	Job        string `json:"job"`
	Status     string `json:"status"`
	Stage      string `json:"stage,omitempty"`
	CacheHit   bool   `json:"cache_hit"`
	Release    string `json:"release,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// completeEntry is the last line, written when every job has finished.
type completeEntry struct {
	Type       string `json:"type"`
	Status     string `json:"status"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}
