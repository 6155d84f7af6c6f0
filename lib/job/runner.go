// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conveyor-ci/conveyor/lib/artifact"
	"github.com/conveyor-ci/conveyor/lib/build"
	"github.com/conveyor-ci/conveyor/lib/clock"
	"github.com/conveyor-ci/conveyor/lib/matrix"
	"github.com/conveyor-ci/conveyor/lib/release"
)

// CacheManager restores and saves a job's dependency cache. A restore
// miss is (false, nil); an error means the entry exists but could not
// be used.
type CacheManager interface {
	Restore(ctx context.Context, job matrix.JobSpec) (bool, error)
	Save(ctx context.Context, job matrix.JobSpec) error
}

// Provisioner installs the toolchain for a job.
type Provisioner interface {
	Install(ctx context.Context, job matrix.JobSpec) error
}

// BuildExecutor runs a job's test and build commands.
type BuildExecutor interface {
	Run(ctx context.Context, job matrix.JobSpec, cacheHit bool) (build.Outputs, error)
}

// ArtifactPublisher stores one bundle of build products.
type ArtifactPublisher interface {
	Publish(ctx context.Context, bundle artifact.Bundle) error
}

// ReleasePublisher converges the release entry and attaches assets.
type ReleasePublisher interface {
	Publish(ctx context.Context, descriptor release.Descriptor) (release.Outcome, error)
}

// Result is one job's outcome.
type Result struct {
	// Job is the job's display name.
	Job string

	// CacheHit reports whether the dependency cache restored.
	CacheHit bool

	// Release is what release publication did, when it ran.
	Release release.Outcome

	// Stage is the failing stage, empty on success.
	Stage Stage

	// Duration is the job's wall-clock time.
	Duration time.Duration

	// Err is the job's failure, nil on success.
	Err error
}

// OK reports whether the job succeeded.
func (result Result) OK() bool { return result.Err == nil }

// Config assembles a Runner. Cache and Release are optional stages:
// a nil Cache runs every job cold, and a nil Release skips release
// publication (pull request runs, or a definition with no release
// block).
type Config struct {
	Cache         CacheManager
	Toolchain     Provisioner
	Build         BuildExecutor
	Artifacts     ArtifactPublisher
	Release       ReleasePublisher
	ReleaseConfig *matrix.ReleaseConfig

	// ResultLog, when non-nil, receives a JSONL record of the run.
	ResultLog *ResultLog

	// Clock defaults to clock.Real(). Logger defaults to
	// slog.Default().
	Clock  clock.Clock
	Logger *slog.Logger
}

// Runner executes resolved jobs.
type Runner struct {
	cache         CacheManager
	toolchain     Provisioner
	build         BuildExecutor
	artifacts     ArtifactPublisher
	release       ReleasePublisher
	releaseConfig *matrix.ReleaseConfig
	resultLog     *ResultLog
	clock         clock.Clock
	logger        *slog.Logger
}

// NewRunner builds a Runner. Toolchain, Build, and Artifacts are
// required; Release requires ReleaseConfig and vice versa.
func NewRunner(config Config) (*Runner, error) {
	if config.Toolchain == nil {
		return nil, fmt.Errorf("job: Toolchain is required")
	}
	if config.Build == nil {
		return nil, fmt.Errorf("job: Build is required")
	}
	if config.Artifacts == nil {
		return nil, fmt.Errorf("job: Artifacts is required")
	}
	if (config.Release == nil) != (config.ReleaseConfig == nil) {
		return nil, fmt.Errorf("job: Release and ReleaseConfig must be set together")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		cache:         config.Cache,
		toolchain:     config.Toolchain,
		build:         config.Build,
		artifacts:     config.Artifacts,
		release:       config.Release,
		releaseConfig: config.ReleaseConfig,
		resultLog:     config.ResultLog,
		clock:         clk,
		logger:        logger,
	}, nil
}

// RunAll executes every job, one goroutine per job, and returns the
// per-job results in the input's order. Job failures land in their
// Result and never affect sibling jobs; RunAll itself does not fail.
func (runner *Runner) RunAll(ctx context.Context, jobs []matrix.JobSpec) []Result {
	started := runner.clock.Now()
	runner.resultLog.Start(len(jobs))

	results := make([]Result, len(jobs))
	var group sync.WaitGroup
	for index, job := range jobs {
		index, job := index, job
		group.Add(1)
		go func() {
			defer group.Done()
			results[index] = runner.RunJob(ctx, job)
		}()
	}
	group.Wait()

	failed := 0
	for _, result := range results {
		runner.resultLog.Job(result)
		if !result.OK() {
			failed++
		}
	}
	runner.resultLog.Complete(len(jobs)-failed, failed, runner.clock.Since(started))
	return results
}

// RunJob executes one job's stages in order and returns its Result.
// The dependency cache save runs on the way out whatever the outcome;
// a save failure is logged, never fatal.
func (runner *Runner) RunJob(ctx context.Context, job matrix.JobSpec) Result {
	started := runner.clock.Now()
	result := Result{Job: job.Name()}

	defer func() {
		result.Duration = runner.clock.Since(started)
		if result.Err != nil {
			result.Stage = FailedStage(result.Err)
			runner.logger.Error("job failed", "job", result.Job,
				"stage", result.Stage, "error", result.Err)
		} else {
			runner.logger.Info("job succeeded", "job", result.Job,
				"cache_hit", result.CacheHit, "duration", result.Duration)
		}
	}()

	if runner.cache != nil {
		hit, err := runner.cache.Restore(ctx, job)
		if err != nil {
			result.Err = &StageError{Stage: StageCache, Job: job.Name(), Err: err}
			return result
		}
		result.CacheHit = hit

		// Save regardless of how the job ends: a failing build with a
		// fixed lockfile still leaves dependencies worth caching.
		defer func() {
			if err := runner.cache.Save(ctx, job); err != nil {
				runner.logger.Warn("dependency cache save failed",
					"job", job.Name(), "error", err)
			}
		}()
	}

	if err := runner.toolchain.Install(ctx, job); err != nil {
		result.Err = &StageError{Stage: StageProvision, Job: job.Name(), Err: err}
		return result
	}

	outputs, err := runner.build.Run(ctx, job, result.CacheHit)
	if err != nil {
		result.Err = &StageError{Stage: StageBuild, Job: job.Name(), Err: err}
		return result
	}

	for _, bundle := range jobBundles(job, outputs) {
		if err := runner.artifacts.Publish(ctx, bundle); err != nil {
			result.Err = &StageError{Stage: StageArtifacts, Job: job.Name(), Err: err}
			return result
		}
	}

	if runner.release != nil {
		outcome, err := runner.release.Publish(ctx, runner.descriptor(job, outputs))
		if err != nil {
			result.Err = &StageError{Stage: StageRelease, Job: job.Name(), Err: err}
			return result
		}
		result.Release = outcome
	}

	return result
}

// jobBundles is the fixed set of bundles a job publishes: the binary
// under its platform-qualified name, then the generated manpages and
// completions. The directory bundles carry the platform tag so that
// parallel jobs sharing one store never collide.
func jobBundles(job matrix.JobSpec, outputs build.Outputs) []artifact.Bundle {
	return []artifact.Bundle{
		{Name: job.BinaryFile(), Root: outputs.BinaryPath, Required: true},
		{Name: "manpages-" + job.Platform, Root: outputs.ManpagesDir, Required: true},
		{Name: "completions-" + job.Platform, Root: outputs.CompletionsDir, Required: true},
	}
}

// descriptor maps the definition's release block plus this job's
// binary onto the release publisher's input. Every job attaches one
// asset: its binary under the bare platform-suffixed name.
func (runner *Runner) descriptor(job matrix.JobSpec, outputs build.Outputs) release.Descriptor {
	config := runner.releaseConfig
	return release.Descriptor{
		Owner:      config.Owner,
		Repo:       config.Repo,
		Tag:        config.Tag,
		Name:       config.Name,
		Draft:      config.Draft,
		Prerelease: config.Prerelease,
		Files: []release.File{
			{Name: job.AssetName(), Path: outputs.BinaryPath},
		},
	}
}
