// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"errors"
	"fmt"
)

// Stage identifies one of the sequential phases a job runs through.
type Stage string

const (
	// StageCache restores the dependency cache.
	StageCache Stage = "cache"

	// StageProvision installs the toolchain.
	StageProvision Stage = "provision"

	// StageBuild runs the test and build commands.
	StageBuild Stage = "build"

	// StageArtifacts publishes the build product bundles.
	StageArtifacts Stage = "artifacts"

	// StageRelease publishes the release binary.
	StageRelease Stage = "release"
)

// StageError reports which stage of which job failed. The job engine
// wraps every stage failure in one, so callers can attribute a failure
// without parsing messages.
type StageError struct {
	// Stage is the phase that failed.
	Stage Stage

	// Job is the failing job's display name ("<platform>/<target>").
	Job string

	// Err is the underlying failure.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("job %s: %s stage: %v", e.Job, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded in err's StageError, or ""
// when err carries none.
func FailedStage(err error) Stage {
	var stageError *StageError
	if errors.As(err, &stageError) {
		return stageError.Stage
	}
	return ""
}
