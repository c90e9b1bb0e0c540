package main

import (
	"context"
	"flag"
	"io/ioutil"
	"os"

	"github.com/Masterminds/vcs"
	"github.com/annieherram/combo/internal/solve"
	"github.com/pkg/errors"
)

const uploadShortHelp = `Register a new project or a new pinned version in the local registry`
const uploadLongHelp = `
Adds a project (--project, first use only) or a pinned version
(--project, --version, and one of --git-url / --local-path) to the
local source-registry JSON file.

For a git source given without --commit, upload resolves HEAD of the
remote to a concrete commit hash before writing the registry entry, by
cloning it to a scratch directory and reading back its checked-out
version.
`

type uploadCommand struct {
	sourcesJSON string
	project     string
	version     string
	gitURL      string
	commit      string
	localPath   string
}

func (cmd *uploadCommand) Name() string      { return "upload" }
func (cmd *uploadCommand) Args() string      { return "--project P [--version V] [--git-url U [--commit C]] [--local-path L]" }
func (cmd *uploadCommand) ShortHelp() string { return uploadShortHelp }
func (cmd *uploadCommand) LongHelp() string  { return uploadLongHelp }
func (cmd *uploadCommand) Hidden() bool      { return false }

func (cmd *uploadCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.sourcesJSON, "sources-json", "", "path to a local source-registry JSON file")
	fs.StringVar(&cmd.project, "project", "", "project name to register or add a version to")
	fs.StringVar(&cmd.version, "version", "", "version to register (omit to only register the project)")
	fs.StringVar(&cmd.gitURL, "git-url", "", "git remote URL for this version")
	fs.StringVar(&cmd.commit, "commit", "", "commit hash for this version (resolved from HEAD if omitted)")
	fs.StringVar(&cmd.localPath, "local-path", "", "local directory path for this version")
}

func (cmd *uploadCommand) Run(ctx context.Context, args []string) error {
	if cmd.project == "" {
		return errors.New("upload requires --project")
	}

	maintainer := newMaintainer(cmd.sourcesJSON)

	source, err := cmd.describeSource()
	if err != nil {
		return err
	}

	if cmd.version == "" {
		return maintainer.AddProject(cmd.project, source)
	}

	if err := maintainer.AddProject(cmd.project, source); err != nil {
		return err
	}

	version, err := solve.ParseVersion(cmd.version)
	if err != nil {
		return err
	}

	return maintainer.AddVersion(cmd.project, version, source)
}

// describeSource builds the SourceDescriptor to register. A git source
// given without --commit is resolved against a scratch clone. With no
// source flag and no --version it returns nil: the project is registered
// without a default source.
func (cmd *uploadCommand) describeSource() (solve.SourceDescriptor, error) {
	switch {
	case cmd.gitURL != "" && cmd.localPath != "":
		return nil, errors.New("upload accepts only one of --git-url or --local-path")
	case cmd.gitURL != "":
		commit := cmd.commit
		if commit == "" {
			resolved, err := resolveHeadCommit(cmd.gitURL)
			if err != nil {
				return nil, err
			}
			commit = resolved
		}
		return solve.Git{RemoteURL: cmd.gitURL, CommitHash: commit}, nil
	case cmd.localPath != "":
		return solve.LocalPath{Path: cmd.localPath}, nil
	case cmd.version == "":
		return nil, nil
	default:
		return nil, errors.New("upload requires --git-url or --local-path")
	}
}

// resolveHeadCommit clones remote to a scratch directory and returns the
// commit hash HEAD resolves to.
func resolveHeadCommit(remote string) (string, error) {
	scratch, err := ioutil.TempDir("", "combo-upload-")
	if err != nil {
		return "", errors.Wrap(err, "cannot create scratch directory")
	}
	defer os.RemoveAll(scratch)

	repo, err := vcs.NewGitRepo(remote, scratch)
	if err != nil {
		return "", errors.Wrapf(err, "cannot set up git repo for %s", remote)
	}
	if err := repo.Get(); err != nil {
		return "", errors.Wrapf(err, "cannot clone %s", remote)
	}

	commit, err := repo.Version()
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve HEAD of %s", remote)
	}
	return commit, nil
}
