package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/annieherram/combo"
)

const isDirtyShortHelp = `Report whether the output directory disagrees with the resolved tree`
const isDirtyLongHelp = `
Resolves the dependency tree (without materializing it) and compares it
against the current contents of the output directory, printing every
mismatch found. Exits non-zero only on an error; a dirty-but-error-free
result is reported on stdout and exits 0.
`

type isDirtyCommand struct {
	path        string
	sourcesJSON string
}

func (cmd *isDirtyCommand) Name() string      { return "is-dirty" }
func (cmd *isDirtyCommand) Args() string      { return "[--path P] [--sources-json J]" }
func (cmd *isDirtyCommand) ShortHelp() string { return isDirtyShortHelp }
func (cmd *isDirtyCommand) LongHelp() string  { return isDirtyLongHelp }
func (cmd *isDirtyCommand) Hidden() bool      { return false }

func (cmd *isDirtyCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.path, "path", "", "project directory (default: current directory)")
	fs.StringVar(&cmd.sourcesJSON, "sources-json", "", "path to a local source-registry JSON file")
}

func (cmd *isDirtyCommand) Run(ctx context.Context, args []string) error {
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

	dirty, mismatches, err := mgr.IsDirty()
	if err != nil {
		return err
	}

	if !dirty {
		fmt.Println("clean")
		return nil
	}

	fmt.Println("dirty:")
	for _, m := range mismatches {
		fmt.Printf("  %s: %s\n", mismatchCategoryName(m.Category), m.Name)
	}
	return nil
}

func mismatchCategoryName(c combo.MismatchCategory) string {
	switch c {
	case combo.MoreContrib:
		return "more-contrib"
	case combo.MoreTree:
		return "more-tree"
	case combo.MissingFromContrib:
		return "missing-from-contrib"
	case combo.MissingFromTree:
		return "missing-from-tree"
	case combo.ModifiedContent:
		return "modified-content"
	default:
		return "unknown"
	}
}
