package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/annieherram/combo"
	"github.com/annieherram/combo/internal/solve"
	"github.com/pkg/errors"
)

const clearOldOutputsShortHelp = `Remove materialized dependencies whose cache entry has been evicted`
const clearOldOutputsLongHelp = `
Walks every combo-repo child of the given directory, reads its manifest,
and removes the child if the cache no longer has an entry for the (name,
version) it claims to be. This is the manual counterpart of the
eviction the cache applies to its own storage budget: a directory left
over from a dependency the cache has since evicted is "old" and safe
to clear.
`

type clearOldOutputsCommand struct{}

func (cmd *clearOldOutputsCommand) Name() string      { return "clear-old-outputs" }
func (cmd *clearOldOutputsCommand) Args() string      { return "<dir>" }
func (cmd *clearOldOutputsCommand) ShortHelp() string { return clearOldOutputsShortHelp }
func (cmd *clearOldOutputsCommand) LongHelp() string  { return clearOldOutputsLongHelp }
func (cmd *clearOldOutputsCommand) Hidden() bool      { return false }
func (cmd *clearOldOutputsCommand) Register(fs *flag.FlagSet) {}

func (cmd *clearOldOutputsCommand) Run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("clear-old-outputs takes exactly one <dir> argument")
	}
	dir := args[0]

	cctx, err := combo.NewContext()
	if err != nil {
		return err
	}
	cache, err := solve.NewCache(cctx.CacheRoot)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "cannot read %s", dir)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		childDir := filepath.Join(dir, e.Name())
		if !combo.IsComboRepo(childDir) {
			continue
		}

		dep, err := combo.ReadRepoDep(childDir)
		if err != nil {
			return err
		}

		has, err := cache.Has(dep)
		if err != nil {
			return err
		}
		if has {
			continue
		}

		if err := os.RemoveAll(childDir); err != nil {
			return errors.Wrapf(err, "cannot remove stale output %s", childDir)
		}
	}

	return nil
}
