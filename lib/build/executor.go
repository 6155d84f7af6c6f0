// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/conveyor-ci/conveyor/lib/matrix"
	"github.com/conveyor-ci/conveyor/lib/shell"
)

// defaultTimeout bounds each build command when the definition does
// not set one.
const defaultTimeout = 30 * time.Minute

// Outputs is where a successful build left its products. Paths are
// derived from the definition's output directory and the job's target,
// not discovered — the artifact publisher reads them directly.
type Outputs struct {
	// BinaryPath is the release binary ("<output>/<target>/release/<binary><ext>").
	BinaryPath string

	// ManpagesDir holds the generated manual pages.
	ManpagesDir string

	// CompletionsDir holds the generated shell completion scripts.
	CompletionsDir string
}

// CommandError reports a pipeline command that exited non-zero.
type CommandError struct {
	// Phase is the command's role: "fetch", "test", or "build".
	Phase string

	// Command is the expanded command line that failed.
	Command string

	// ExitCode is the command's exit status.
	ExitCode int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s command %q: exit status %d", e.Phase, e.Command, e.ExitCode)
}

// Executor runs a job's fetch, test, and build commands.
type Executor struct {
	runner shell.Runner
	config matrix.CommandsConfig
	logger *slog.Logger
}

// NewExecutor returns an Executor that runs commands through runner.
// A nil logger falls back to slog.Default().
func NewExecutor(runner shell.Runner, config matrix.CommandsConfig, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{runner: runner, config: config, logger: logger}
}

// Run executes the job's commands in order: fetch (skipped when
// cacheHit, or when the definition declares none), then test, then
// build. A failing test returns before the build command is ever
// invoked. On success the returned Outputs names the build products.
func (executor *Executor) Run(ctx context.Context, job matrix.JobSpec, cacheHit bool) (Outputs, error) {
	timeout := defaultTimeout
	if executor.config.Timeout != "" {
		parsed, err := time.ParseDuration(executor.config.Timeout)
		if err != nil {
			return Outputs{}, fmt.Errorf("parsing command timeout: %w", err)
		}
		timeout = parsed
	}

	if executor.config.Fetch != "" && !cacheHit {
		if err := executor.runPhase(ctx, "fetch", executor.config.Fetch, job, timeout); err != nil {
			return Outputs{}, err
		}
	} else if cacheHit {
		executor.logger.Info("dependency cache hit, skipping fetch", "job", job.Name())
	}

	if err := executor.runPhase(ctx, "test", executor.config.Test, job, timeout); err != nil {
		return Outputs{}, err
	}
	if err := executor.runPhase(ctx, "build", executor.config.Build, job, timeout); err != nil {
		return Outputs{}, err
	}

	return executor.outputs(job), nil
}

// outputs derives the build product paths for job. The layout is the
// toolchain's target/release convention with the generated manpages
// and completions as siblings of the binary.
func (executor *Executor) outputs(job matrix.JobSpec) Outputs {
	releaseDir := filepath.Join(executor.config.OutputDir, job.Target, "release")
	return Outputs{
		BinaryPath:     filepath.Join(releaseDir, job.BinaryName+job.Ext),
		ManpagesDir:    filepath.Join(releaseDir, "manpages"),
		CompletionsDir: filepath.Join(releaseDir, "completions"),
	}
}

func (executor *Executor) runPhase(ctx context.Context, phase, template string, job matrix.JobSpec, timeout time.Duration) error {
	command, err := matrix.Expand(template, job.Vars)
	if err != nil {
		return fmt.Errorf("expanding %s command: %w", phase, err)
	}

	executor.logger.Info("running "+phase, "job", job.Name(), "command", command)
	started := time.Now()

	phaseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := executor.runner.Run(phaseCtx, command, nil)
	if err != nil {
		return fmt.Errorf("running %s command %q: %w", phase, command, err)
	}
	if code != 0 {
		return &CommandError{Phase: phase, Command: command, ExitCode: code}
	}

	executor.logger.Info(phase+" succeeded", "job", job.Name(),
		"duration", time.Since(started).Round(time.Millisecond))
	return nil
}
