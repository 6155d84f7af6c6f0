// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/artifact"
	"github.com/conveyor-ci/conveyor/lib/build"
	"github.com/conveyor-ci/conveyor/lib/config"
	"github.com/conveyor-ci/conveyor/lib/depcache"
	"github.com/conveyor-ci/conveyor/lib/github"
	"github.com/conveyor-ci/conveyor/lib/job"
	"github.com/conveyor-ci/conveyor/lib/matrix"
	"github.com/conveyor-ci/conveyor/lib/release"
	"github.com/conveyor-ci/conveyor/lib/secret"
	"github.com/conveyor-ci/conveyor/lib/shell"
	"github.com/conveyor-ci/conveyor/lib/toolchain"
	"github.com/conveyor-ci/conveyor/lib/trigger"
)

func runCommand() *cli.Command {
	var definitionPath string
	var triggerPath string
	var configPath string
	var payloadVars []string

	return &cli.Command{
		Name:    "run",
		Summary: "Run the pipeline",
		Description: `Run the pipeline: resolve the build matrix, then run every job's
stages — dependency cache, toolchain, test and build, artifact
publication, and release publication.

Without --trigger the run is treated as a manual dispatch. Release
publication requires the ` + config.TokenEnv + ` environment variable
and is skipped for pull request events.`,
		Usage: "conveyor run [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVarP(&definitionPath, "definition", "d", "conveyor.jsonc", "pipeline definition file")
			flagSet.StringVar(&triggerPath, "trigger", "", "trigger event file (default: manual dispatch)")
			flagSet.StringVar(&configPath, "config", "", "engine config file (default: $CONVEYOR_CONFIG or built-ins)")
			flagSet.StringArrayVar(&payloadVars, "var", nil, "pipeline variable as NAME=VALUE (repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			return runPipeline(definitionPath, triggerPath, configPath, payloadVars)
		},
	}
}

func runPipeline(definitionPath, triggerPath, configPath string, payloadVars []string) error {
	// Every log line carries the pipeline's name, derived from the
	// definition file, so interleaved runs can be told apart.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).
		With("pipeline", matrix.NameFromPath(definitionPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadEngineConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	definition, err := matrix.ReadFile(definitionPath)
	if err != nil {
		return err
	}

	event, err := loadTrigger(triggerPath)
	if err != nil {
		return err
	}
	if !triggerMatches(definition.On, event) {
		fmt.Printf("[run] %s event does not trigger this pipeline; nothing to do\n", event.Type)
		return nil
	}

	payload, err := parsePayloadVars(payloadVars)
	if err != nil {
		return err
	}
	jobs, err := matrix.Resolve(definition, payload, os.Getenv)
	if err != nil {
		return err
	}
	fmt.Printf("[run] %s: %d job(s) for %s event\n", definition.Project, len(jobs), event.Type)

	runnerConfig := job.Config{
		Toolchain: toolchain.NewProvisioner(&shell.ExecRunner{Dir: cfg.Paths.Work}, definition.Toolchain, logger),
		Build:     build.NewExecutor(&shell.ExecRunner{Dir: cfg.Paths.Work}, definition.Commands, logger),
		Logger:    logger,
	}

	artifactStore, err := artifact.NewDirStore(cfg.Paths.Artifacts, logger)
	if err != nil {
		return err
	}
	runnerConfig.Artifacts = artifact.NewPublisher(artifactStore, logger)

	if definition.CacheDir != "" {
		cache, err := newJobCache(cfg, definition, logger)
		if err != nil {
			return err
		}
		runnerConfig.Cache = cache
	}

	// Pull request runs build and store artifacts but never touch the
	// release.
	if definition.Release != nil && event.Type != trigger.PullRequest {
		token, err := secret.FromEnv(config.TokenEnv)
		if err != nil {
			return err
		}
		if token == nil {
			// A missing token fails the release stage of each job,
			// not the whole run: every earlier stage still executes
			// and its artifacts land in the store.
			runnerConfig.Release = &release.Unavailable{
				Reason: fmt.Errorf("%s is not set", config.TokenEnv),
			}
		} else {
			defer token.Close()

			client, err := github.NewClient(github.Config{
				BaseURL: cfg.GitHub.BaseURL,
				Token:   token,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			runnerConfig.Release = release.NewPublisher(client, logger)
		}
		runnerConfig.ReleaseConfig = definition.Release
	}

	if cfg.ResultLog != "" {
		resultLog, err := job.NewResultLog(cfg.ResultLog, logger)
		if err != nil {
			return err
		}
		defer resultLog.Close()
		runnerConfig.ResultLog = resultLog
	}

	runner, err := job.NewRunner(runnerConfig)
	if err != nil {
		return err
	}

	results := runner.RunAll(ctx, jobs)

	failed := 0
	for index, result := range results {
		status := "ok"
		if !result.OK() {
			failed++
			status = fmt.Sprintf("failed at %s: %v", result.Stage, result.Err)
		} else if result.Release != "" {
			status = fmt.Sprintf("ok (release %s)", result.Release)
		}
		fmt.Printf("[run] job %d/%d: %s... %s\n", index+1, len(results), result.Job, status)
	}

	if failed > 0 {
		fmt.Printf("[run] %d of %d job(s) failed\n", failed, len(results))
		return &cli.ExitError{Code: 1}
	}
	fmt.Printf("[run] all %d job(s) succeeded\n", len(results))
	return nil
}

func loadEngineConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func loadTrigger(path string) (trigger.Event, error) {
	if path == "" {
		return trigger.Event{Type: trigger.Dispatch}, nil
	}
	return trigger.ReadFile(path)
}

// triggerMatches applies the definition's trigger filter. A definition
// with no trigger section runs for every event.
func triggerMatches(on matrix.TriggerConfig, event trigger.Event) bool {
	if len(on.PushBranches) == 0 && !on.PullRequest && !on.Dispatch {
		return true
	}
	filter := trigger.Filter{
		PushBranches: on.PushBranches,
		PullRequest:  on.PullRequest,
		Dispatch:     on.Dispatch,
	}
	return filter.Matches(event)
}

func parsePayloadVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	payload := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid --var %q (want NAME=VALUE)", pair)
		}
		payload[name] = value
	}
	return payload, nil
}

// jobCache binds the keyed cache store to one run's lockfile. Only
// the job's OS varies between jobs, so the lockfile is read once.
// Each OS gets its own working copy of the dependency directory:
// jobs run concurrently, and restoring two entries into one tree
// would let one job's files tear another's mid-build.
type jobCache struct {
	store    *depcache.DirStore
	lockfile []byte
	root     string
}

func newJobCache(cfg *config.Config, definition *matrix.Config, logger *slog.Logger) (*jobCache, error) {
	store, err := depcache.NewDirStore(cfg.Paths.Cache, cfg.Compression(), logger)
	if err != nil {
		return nil, err
	}
	lockfile, err := os.ReadFile(filepath.Join(cfg.Paths.Work, definition.Lockfile))
	if err != nil {
		return nil, fmt.Errorf("reading lockfile: %w", err)
	}
	return &jobCache{
		store:    store,
		lockfile: lockfile,
		root:     filepath.Join(cfg.Paths.Work, definition.CacheDir),
	}, nil
}

// dir is the job's private copy of the dependency directory, scoped
// by OS so concurrent jobs never write into each other's tree or
// save a sibling's files under their own key.
func (cache *jobCache) dir(spec matrix.JobSpec) string {
	return filepath.Join(cache.root, spec.OS)
}

func (cache *jobCache) Restore(ctx context.Context, spec matrix.JobSpec) (bool, error) {
	return cache.store.Restore(ctx, depcache.Compute(spec.OS, cache.lockfile), cache.dir(spec))
}

func (cache *jobCache) Save(ctx context.Context, spec matrix.JobSpec) error {
	return cache.store.Save(ctx, depcache.Compute(spec.OS, cache.lockfile), cache.dir(spec))
}
