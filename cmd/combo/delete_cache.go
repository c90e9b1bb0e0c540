package main

import (
	"context"
	"flag"
	"os"

	"github.com/annieherram/combo"
	"github.com/pkg/errors"
)

const deleteCacheShortHelp = `Wipe the entire dependency cache`
const deleteCacheLongHelp = `
Removes every cached dependency, its content-hash index, and any
in-progress git clone left under the cache root. The next resolve
refetches everything from scratch.
`

type deleteCacheCommand struct{}

func (cmd *deleteCacheCommand) Name() string      { return "delete-cache" }
func (cmd *deleteCacheCommand) Args() string      { return "" }
func (cmd *deleteCacheCommand) ShortHelp() string { return deleteCacheShortHelp }
func (cmd *deleteCacheCommand) LongHelp() string  { return deleteCacheLongHelp }
func (cmd *deleteCacheCommand) Hidden() bool      { return false }
func (cmd *deleteCacheCommand) Register(fs *flag.FlagSet) {}

func (cmd *deleteCacheCommand) Run(ctx context.Context, args []string) error {
	cctx, err := combo.NewContext()
	if err != nil {
		return err
	}

	if err := os.RemoveAll(cctx.CacheRoot); err != nil {
		return errors.Wrapf(err, "cannot remove cache root %s", cctx.CacheRoot)
	}
	return nil
}
