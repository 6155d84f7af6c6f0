// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

// Resolve validates config and expands its matrix into one JobSpec per
// entry. All JobSpecs for a run exist before any job starts; the
// matrix never grows during execution.
//
// Each JobSpec's Vars map is built from the resolved pipeline
// variables plus the entry's dimension built-ins (TARGET, OS,
// PLATFORM, EXT), so a job never needs to read the Config — or
// another job — again.
//
// A malformed definition returns a *ConfigError listing every issue;
// no partial job list is returned.
func Resolve(config *Config, payload map[string]string, environ func(string) string) ([]JobSpec, error) {
	if issues := Validate(config); len(issues) > 0 {
		return nil, &ConfigError{Issues: issues}
	}

	variables, err := ResolveVariables(config.Variables, payload, environ)
	if err != nil {
		return nil, &ConfigError{Issues: []string{err.Error()}}
	}

	jobs := make([]JobSpec, 0, len(config.Matrix))
	for _, entry := range config.Matrix {
		vars := make(map[string]string, len(variables)+4)
		for name, value := range variables {
			vars[name] = value
		}
		vars["TARGET"] = entry.Target
		vars["OS"] = entry.OS
		vars["PLATFORM"] = entry.Platform
		vars["EXT"] = entry.Ext

		jobs = append(jobs, JobSpec{
			OS:         entry.OS,
			Target:     entry.Target,
			Platform:   entry.Platform,
			Ext:        entry.Ext,
			BinaryName: config.Project,
			Vars:       vars,
		})
	}

	return jobs, nil
}
