// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conveyor-ci/conveyor/lib/matrix"
	"github.com/conveyor-ci/conveyor/lib/shell"
)

// defaultTimeout bounds each provisioning command when the definition
// does not set one.
const defaultTimeout = 5 * time.Minute

// Provisioner installs the toolchain declared in a pipeline definition.
type Provisioner struct {
	runner shell.Runner
	config matrix.ToolchainConfig
	logger *slog.Logger
}

// NewProvisioner returns a Provisioner that runs provisioning commands
// through runner. A nil logger falls back to slog.Default().
func NewProvisioner(runner shell.Runner, config matrix.ToolchainConfig, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{runner: runner, config: config, logger: logger}
}

// Install provisions the toolchain for job. When the definition's probe
// command exits zero the toolchain is already present and nothing else
// runs. Otherwise the platform's extra system package commands run
// first (when the job's platform tag has any), then the install
// commands. Any non-zero exit or runner error is fatal.
func (provisioner *Provisioner) Install(ctx context.Context, job matrix.JobSpec) error {
	timeout := defaultTimeout
	if provisioner.config.Timeout != "" {
		parsed, err := time.ParseDuration(provisioner.config.Timeout)
		if err != nil {
			return fmt.Errorf("parsing toolchain timeout: %w", err)
		}
		timeout = parsed
	}

	if provisioner.config.Probe != "" {
		probe, err := matrix.Expand(provisioner.config.Probe, job.Vars)
		if err != nil {
			return fmt.Errorf("expanding probe command: %w", err)
		}
		code, err := provisioner.runCommand(ctx, probe, timeout)
		if err != nil {
			return fmt.Errorf("running probe command: %w", err)
		}
		if code == 0 {
			provisioner.logger.Info("toolchain already provisioned",
				"job", job.Name(), "target", job.Target)
			return nil
		}
	}

	// System packages before the toolchain itself: the platform extras
	// typically provide linkers and libc headers the install commands
	// depend on.
	for _, template := range provisioner.config.Platforms[job.Platform] {
		if err := provisioner.install(ctx, template, job, timeout); err != nil {
			return err
		}
	}
	for _, template := range provisioner.config.Install {
		if err := provisioner.install(ctx, template, job, timeout); err != nil {
			return err
		}
	}
	return nil
}

func (provisioner *Provisioner) install(ctx context.Context, template string, job matrix.JobSpec, timeout time.Duration) error {
	command, err := matrix.Expand(template, job.Vars)
	if err != nil {
		return fmt.Errorf("expanding install command: %w", err)
	}

	provisioner.logger.Info("provisioning toolchain",
		"job", job.Name(), "command", command)

	code, err := provisioner.runCommand(ctx, command, timeout)
	if err != nil {
		return fmt.Errorf("running install command %q: %w", command, err)
	}
	if code != 0 {
		return fmt.Errorf("install command %q: exit status %d", command, code)
	}
	return nil
}

func (provisioner *Provisioner) runCommand(ctx context.Context, command string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return provisioner.runner.Run(ctx, command, nil)
}
