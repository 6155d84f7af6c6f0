// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package shell runs pipeline commands through the system shell. Both
// the toolchain provisioner and the build executor sequence their work
// as shell commands; this package is their shared runner, and its
// Runner interface is the seam tests use to record invocations instead
// of executing anything.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Runner executes a single shell command and reports its exit code.
// A non-nil error means the command could not be run or was cut short
// (context cancellation, signal); a non-zero exit with a nil error
// means the command itself failed.
type Runner interface {
	Run(ctx context.Context, command string, env map[string]string) (int, error)
}

// ExecRunner runs commands via "sh -c" in a fixed working directory.
type ExecRunner struct {
	// Dir is the working directory for every command. Empty means
	// the process's current directory.
	Dir string

	// Stdout and Stderr receive the command's output. Nil defaults
	// to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes command in the shell. The command is placed in its own
// process group so that context cancellation kills the shell and all
// its children, not just the shell.
func (runner *ExecRunner) Run(ctx context.Context, command string, env map[string]string) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = runner.Dir

	cmd.Stdout = runner.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = runner.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	// Negative PID = the whole process group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	if len(env) > 0 {
		cmd.Env = os.Environ()
		for name, value := range env {
			cmd.Env = append(cmd.Env, name+"="+value)
		}
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode(), nil
	}

	// Non-exit errors: context cancellation (timeout), signal, etc.
	return -1, err
}
