package main

import (
	"context"
	"flag"
	"os"

	"github.com/annieherram/combo"
)

const resolveShortHelp = `Fetch, resolve, and materialize the project's dependencies`
const resolveLongHelp = `
Reads the manifest in the project at --path (default: the current
directory), recursively fetches every declared dependency, resolves
version conflicts across the dependency graph, and brings the project's
output directory into conformance with the result.

Unless --force is given, resolve first checks the output directory for
signs of hand-editing and aborts if any is found.
`

type resolveCommand struct {
	force       bool
	path        string
	sourcesJSON string
}

func (cmd *resolveCommand) Name() string      { return "resolve" }
func (cmd *resolveCommand) Args() string      { return "[--force] [--path P] [--sources-json J]" }
func (cmd *resolveCommand) ShortHelp() string { return resolveShortHelp }
func (cmd *resolveCommand) LongHelp() string  { return resolveLongHelp }
func (cmd *resolveCommand) Hidden() bool      { return false }

func (cmd *resolveCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.force, "force", false, "skip the corruption check before resolving")
	fs.StringVar(&cmd.path, "path", "", "project directory (default: current directory)")
	fs.StringVar(&cmd.sourcesJSON, "sources-json", "", "path to a local source-registry JSON file")
}

func (cmd *resolveCommand) Run(ctx context.Context, args []string) error {
	dir, err := projectDir(cmd.path)
	if err != nil {
		return err
	}

	locator, err := newLocator(cmd.sourcesJSON)
	if err != nil {
		return err
	}

	mgr, err := combo.NewManager(dir, locator)
	if err != nil {
		return err
	}

	if err := mgr.Resolve(cmd.force); err != nil {
		return err
	}
	return mgr.Cleanup()
}

func projectDir(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return os.Getwd()
}
