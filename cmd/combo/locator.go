package main

import (
	"github.com/annieherram/combo/internal/solve"
)

// defaultSourcesFile is where a project's local source registry lives when
// --sources-json isn't given explicitly.
const defaultSourcesFile = "combo_sources.json"

// newLocator builds a SourceLocator from the --sources-json flag. An empty
// path falls back to defaultSourcesFile in the current directory; nothing
// here talks to a remote registry; the HTTP locator exists for projects
// that configure one directly in their own tooling, not through this flag.
func newLocator(sourcesJSON string) (solve.SourceLocator, error) {
	path := sourcesJSON
	if path == "" {
		path = defaultSourcesFile
	}
	return solve.NewJSONLocator(path), nil
}

// newMaintainer builds the maintenance-capable counterpart of newLocator,
// used by the upload subcommand.
func newMaintainer(sourcesJSON string) *solve.JSONSourceMaintainer {
	path := sourcesJSON
	if path == "" {
		path = defaultSourcesFile
	}
	return solve.NewJSONLocator(path)
}
