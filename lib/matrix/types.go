// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

// Config is a complete pipeline definition: the build matrix plus the
// project-wide settings every job shares.
type Config struct {
	// Project is the project name. It doubles as the binary name
	// produced by the release build.
	Project string `json:"project"`

	// On filters which trigger events start a run.
	On TriggerConfig `json:"on"`

	// Lockfile is the path (relative to the work tree) of the
	// dependency lockfile whose content digest keys the cache.
	Lockfile string `json:"lockfile"`

	// CacheDir is the directory (relative to the work tree) the
	// dependency cache captures and restores: the package manager's
	// local store that the fetch command populates. Empty disables
	// dependency caching.
	CacheDir string `json:"cache_dir,omitempty"`

	// Variables declares pipeline variables available as ${NAME}
	// references in commands and toolchain rules.
	Variables map[string]Variable `json:"variables,omitempty"`

	// Toolchain declares how to provision the compiler toolchain for
	// a job.
	Toolchain ToolchainConfig `json:"toolchain"`

	// Commands declares the per-job command templates.
	Commands CommandsConfig `json:"commands"`

	// Release, when present, enables draft release publication after
	// a job's artifacts are stored.
	Release *ReleaseConfig `json:"release,omitempty"`

	// Matrix is the list of build dimension tuples. One job runs per
	// entry; entries are independent and known before the run starts.
	Matrix []Entry `json:"matrix"`
}

// TriggerConfig declares which source-control events start a run.
type TriggerConfig struct {
	// PushBranches lists branch names whose push events trigger a
	// run. Pushes to other branches are ignored.
	PushBranches []string `json:"push_branches,omitempty"`

	// PullRequest enables runs for pull request events.
	PullRequest bool `json:"pull_request,omitempty"`

	// Dispatch enables manually dispatched runs.
	Dispatch bool `json:"dispatch,omitempty"`
}

// Variable declares a pipeline variable. Values resolve from default,
// then payload, then environment, lowest priority first.
type Variable struct {
	// Description documents the variable for readers of the
	// definition file.
	Description string `json:"description,omitempty"`

	// Default is the value used when no higher-priority source
	// provides one.
	Default string `json:"default,omitempty"`

	// Required makes resolution fail when no source provides a value.
	Required bool `json:"required,omitempty"`
}

// ToolchainConfig declares toolchain provisioning for a job.
type ToolchainConfig struct {
	// Probe is a command whose zero exit means the toolchain for
	// ${TARGET} is already provisioned, making Install a no-op.
	Probe string `json:"probe,omitempty"`

	// Install is the ordered list of commands that provision the
	// toolchain for ${TARGET}.
	Install []string `json:"install"`

	// Platforms maps a platform tag to extra system package commands
	// run only for matrix entries carrying that tag (e.g. a musl
	// static-linking helper toolset).
	Platforms map[string][]string `json:"platforms,omitempty"`

	// Timeout bounds each provisioning command. Parsed with
	// time.ParseDuration; defaults to 5m.
	Timeout string `json:"timeout,omitempty"`
}

// CommandsConfig declares the per-job command templates. Commands are
// expanded per job with the job's variables (including the built-ins
// TARGET, OS, PLATFORM, EXT) before execution.
type CommandsConfig struct {
	// Fetch resolves dependencies (e.g. "cargo fetch --locked"). It
	// is skipped when the job restored a dependency cache hit.
	Fetch string `json:"fetch,omitempty"`

	// Test runs the project's test suite. A non-zero exit fails the
	// job before the build is ever attempted.
	Test string `json:"test"`

	// Build produces the release binary and its generated manpages
	// and shell completions.
	Build string `json:"build"`

	// OutputDir is the build output root. The release binary for a
	// job lives at OutputDir/<target>/release/<project><ext>, with
	// manpages and completions in sibling directories.
	OutputDir string `json:"output_dir"`

	// Timeout bounds each build command. Parsed with
	// time.ParseDuration; defaults to 30m.
	Timeout string `json:"timeout,omitempty"`
}

// ReleaseConfig declares the draft release a successful job publishes
// its binary to. The tag is fixed — not derived from the triggering
// commit — so repeated runs converge on the same release entry.
type ReleaseConfig struct {
	// Owner and Repo identify the repository the release lives in.
	Owner string `json:"owner"`
	Repo  string `json:"repo"`

	// Tag is the fixed release tag (e.g. "v1").
	Tag string `json:"tag"`

	// Name is the release display name.
	Name string `json:"name"`

	// Draft and Prerelease are passed through to the release backend.
	Draft      bool `json:"draft"`
	Prerelease bool `json:"prerelease"`
}

// Entry is one row of the build matrix.
type Entry struct {
	// OS identifies the runner operating system (e.g.
	// "ubuntu-latest"). Part of the cache key.
	OS string `json:"os"`

	// Target is the toolchain target triple (e.g.
	// "x86_64-unknown-linux-musl").
	Target string `json:"target"`

	// Platform is the human-facing platform tag used in artifact
	// names (e.g. "linux", "windows") and in toolchain platform
	// rules.
	Platform string `json:"platform"`

	// Ext is the binary filename suffix ("" on unix, ".exe" on
	// windows).
	Ext string `json:"ext,omitempty"`
}

// JobSpec is a fully resolved job: one matrix entry plus everything a
// job needs, with no references back to the Config or to sibling jobs.
// JobSpecs are immutable once resolved.
type JobSpec struct {
	OS       string
	Target   string
	Platform string
	Ext      string

	// BinaryName is the project binary name (Config.Project).
	BinaryName string

	// Vars holds the resolved pipeline variables plus the built-in
	// dimension variables (TARGET, OS, PLATFORM, EXT).
	Vars map[string]string
}

// Name returns the job's display identity, used in logs and error
// reports: "<platform>/<target>".
func (job JobSpec) Name() string {
	return job.Platform + "/" + job.Target
}

// BinaryFile is the platform-qualified name the binary bundle is
// published under (e.g. "crunchy-cli-linux", "crunchy-cli-windows.exe").
func (job JobSpec) BinaryFile() string {
	return job.BinaryName + "-" + job.Platform + job.Ext
}

// AssetName is the name the primary binary is attached to the release
// under (e.g. "crunchy-cli", "crunchy-cli.exe").
func (job JobSpec) AssetName() string {
	return job.BinaryName + job.Ext
}
