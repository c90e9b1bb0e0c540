package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/annieherram/combo"
)

const checkForUpdatesShortHelp = `Report dependencies that are pinned below the newest known version`
const checkForUpdatesLongHelp = `
Reads the root manifest and, for each direct dependency, asks the local
source-registry JSON file for every version it knows about. Prints a
line for any dependency whose pinned version isn't the newest one the
registry lists. Nothing is mutated; a dependency with no newer version
available is not reported.

Only the local JSON registry supports this: the HTTP registry's
contract has no endpoint for enumerating a project's known upstream
versions.
`

type checkForUpdatesCommand struct {
	path        string
	sourcesJSON string
}

func (cmd *checkForUpdatesCommand) Name() string      { return "check-for-updates" }
func (cmd *checkForUpdatesCommand) Args() string      { return "[--path P] [--sources-json J]" }
func (cmd *checkForUpdatesCommand) ShortHelp() string { return checkForUpdatesShortHelp }
func (cmd *checkForUpdatesCommand) LongHelp() string  { return checkForUpdatesLongHelp }
func (cmd *checkForUpdatesCommand) Hidden() bool      { return false }

func (cmd *checkForUpdatesCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.path, "path", "", "project directory (default: current directory)")
	fs.StringVar(&cmd.sourcesJSON, "sources-json", "", "path to a local source-registry JSON file")
}

func (cmd *checkForUpdatesCommand) Run(ctx context.Context, args []string) error {
	dir, err := projectDir(cmd.path)
	if err != nil {
		return err
	}

	root, err := combo.LoadRootManifest(dir)
	if err != nil {
		return err
	}

	maintainer := newMaintainer(cmd.sourcesJSON)

	anyOutdated := false
	for _, dep := range root.Dependencies {
		versions, err := maintainer.ListVersions(dep.Name)
		if err != nil {
			return err
		}

		newest := dep.Version
		for _, v := range versions {
			if newest.LessThan(v) {
				newest = v
			}
		}

		if newest.Equal(dep.Version) {
			continue
		}

		anyOutdated = true
		fmt.Fprintf(os.Stdout, "%s: pinned at %s, newest known is %s\n", dep.Name, dep.Version, newest)
	}

	if !anyOutdated {
		fmt.Fprintln(os.Stdout, "all direct dependencies are at their newest known version")
	}
	return nil
}
