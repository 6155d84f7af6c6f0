// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package job orchestrates one pipeline run: every resolved job runs
// its stages in a fixed order, and jobs run independently of each
// other.
//
// Within a job the stages are strictly sequential — dependency cache
// restore, toolchain provisioning, test and build, artifact
// publication, release publication — and the first failing stage ends
// the job with a StageError naming the stage and the job. Across jobs
// nothing is shared and nothing propagates: one job's failure is
// invisible to its siblings, and the run's outcome is simply the
// collection of per-job results.
//
// The dependency cache save is the one step that runs regardless of
// how the job ended. A failing build still leaves a fetched dependency
// tree worth keeping; saving it seeds the cache for the next run.
package job
