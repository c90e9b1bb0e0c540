// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package combo

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/annieherram/combo/internal/solve"
)

// ManifestName is the filename a combo repository's manifest is read from.
const ManifestName = "combo_manifest.json"

// Manifest is a read-only snapshot of a combo_manifest.json file.
type Manifest struct {
	Name            string
	Version         solve.Version
	Dependencies    []solve.Dep
	OutputDirectory string // empty unless declared
}

type rawDependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type rawManifest struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Dependencies    []rawDependency `json:"dependencies"`
	OutputDirectory string          `json:"output_directory"`
}

// ManifestNotFound is returned when a directory has no combo_manifest.json.
type ManifestNotFound struct {
	Dir string
}

func (e ManifestNotFound) Error() string {
	return "no " + ManifestName + " found in " + e.Dir
}

// InvalidManifest is returned when a manifest's JSON is malformed or a
// required key is missing.
type InvalidManifest struct {
	Dir    string
	Reason string
}

func (e InvalidManifest) Error() string {
	return "invalid manifest in " + e.Dir + ": " + e.Reason
}

// ManifestMismatch is returned when a manifest's declared (name, version)
// disagrees with what the caller expected to find.
type ManifestMismatch struct {
	Dir      string
	Expected string
	Got      string
}

func (e ManifestMismatch) Error() string {
	return "manifest in " + e.Dir + " describes " + e.Got + ", expected " + e.Expected
}

// loadManifest reads and validates combo_manifest.json from dir.
func loadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, ManifestName)

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, ManifestNotFound{Dir: dir}
		}
		return Manifest{}, InvalidManifest{Dir: dir, Reason: err.Error()}
	}

	var rm rawManifest
	if err := json.Unmarshal(b, &rm); err != nil {
		return Manifest{}, InvalidManifest{Dir: dir, Reason: err.Error()}
	}

	if rm.Name == "" {
		return Manifest{}, InvalidManifest{Dir: dir, Reason: "missing required key \"name\""}
	}
	if rm.Version == "" {
		return Manifest{}, InvalidManifest{Dir: dir, Reason: "missing required key \"version\""}
	}

	version, err := solve.ParseVersion(rm.Version)
	if err != nil {
		return Manifest{}, InvalidManifest{Dir: dir, Reason: "malformed version: " + err.Error()}
	}

	deps := make([]solve.Dep, 0, len(rm.Dependencies))
	for _, rd := range rm.Dependencies {
		if rd.Name == "" || rd.Version == "" {
			return Manifest{}, InvalidManifest{Dir: dir, Reason: "malformed dependency record"}
		}
		v, err := solve.ParseVersion(rd.Version)
		if err != nil {
			return Manifest{}, InvalidManifest{Dir: dir, Reason: "malformed dependency version: " + err.Error()}
		}
		deps = append(deps, solve.Dep{Name: rd.Name, Version: v})
	}

	return Manifest{
		Name:            rm.Name,
		Version:         version,
		Dependencies:    deps,
		OutputDirectory: rm.OutputDirectory,
	}, nil
}

// ReadManifest reads and validates the manifest at dir and compares it
// against expected: the directory's manifest must describe exactly that
// Dep, or ManifestMismatch is returned.
//
// Satisfies solve.ManifestReader, letting the resolution tree read child
// manifests without importing this package.
func (r manifestReader) ReadManifest(dir string, expected solve.Dep) (solve.ManifestInfo, error) {
	m, err := loadManifest(dir)
	if err != nil {
		return solve.ManifestInfo{}, err
	}

	self := solve.Dep{Name: m.Name, Version: m.Version}
	if self.Name != expected.Name || !self.Version.Equal(expected.Version) {
		return solve.ManifestInfo{}, ManifestMismatch{
			Dir:      dir,
			Expected: expected.String(),
			Got:      self.String(),
		}
	}

	return solve.ManifestInfo{Self: self, Dependencies: m.Dependencies}, nil
}

// manifestReader adapts loadManifest to solve.ManifestReader.
type manifestReader struct{}

// LoadRootManifest reads the root manifest at dir. The root manifest must be
// valid-as-root: it must declare an output_directory.
func LoadRootManifest(dir string) (Manifest, error) {
	m, err := loadManifest(dir)
	if err != nil {
		return Manifest{}, err
	}
	if !m.ValidAsRoot() {
		return Manifest{}, InvalidManifest{Dir: dir, Reason: "root manifest must declare \"output_directory\""}
	}
	return m, nil
}

// ValidAsRoot reports whether m declares an output_directory, the only
// additional requirement a root project's manifest carries.
func (m Manifest) ValidAsRoot() bool {
	return m.OutputDirectory != ""
}

// IsComboRepo reports whether dir contains a combo_manifest.json.
func IsComboRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestName))
	return err == nil
}

// ReadRepoDep reads dir's manifest and returns the Dep it describes,
// without checking it against any expectation.
func ReadRepoDep(dir string) (solve.Dep, error) {
	m, err := loadManifest(dir)
	if err != nil {
		return solve.Dep{}, err
	}
	return solve.Dep{Name: m.Name, Version: m.Version}, nil
}
