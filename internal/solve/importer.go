package solve

import (
	"os"

	"github.com/Masterminds/vcs"
	"github.com/annieherram/combo/internal/fs"
	"github.com/pkg/errors"
	"github.com/termie/go-shutil"
)

// SourceLocator resolves a Dep's name and version to the descriptor of
// where its content actually lives.
type SourceLocator interface {
	GetSource(name string, version Version) (SourceDescriptor, error)
}

// Importer consumes a SourceLocator and a Cache: it dispatches on a
// dependency's source descriptor, performs the actual fetch, and hands back
// the cached path. Cache hits are validated, never refetched blindly.
type Importer struct {
	Locator SourceLocator
	Cache   *Cache
}

// NewImporter builds an Importer over the given locator and cache.
func NewImporter(locator SourceLocator, cache *Cache) *Importer {
	return &Importer{Locator: locator, Cache: cache}
}

// Fetch returns the on-disk path for dep, populating the cache if
// necessary. A validation failure on an existing entry (ErrTampered) is
// treated as a cache miss: the stale entry is removed and dep is refetched.
func (im *Importer) Fetch(dep Dep) (string, error) {
	target := im.Cache.DepPath(dep)

	has, err := im.Cache.Has(dep)
	if err != nil {
		return "", err
	}
	if has {
		if verr := im.Cache.Validate(dep); verr == nil {
			return target, nil
		} else if _, tampered := verr.(ErrTampered); tampered {
			if rerr := im.Cache.Remove(dep); rerr != nil {
				return "", rerr
			}
		} else {
			return "", verr
		}
	}

	descriptor, err := im.Locator.GetSource(dep.Name, dep.Version)
	if err != nil {
		return "", err
	}

	if err := im.populate(target, descriptor); err != nil {
		os.RemoveAll(target)
		return "", err
	}

	if err := im.Cache.Record(dep); err != nil {
		os.RemoveAll(target)
		return "", err
	}

	return target, nil
}

// populate dispatches on the descriptor variant and materializes dep's
// content at target. The caller is responsible for cleaning up target on
// any returned error.
func (im *Importer) populate(target string, descriptor SourceDescriptor) error {
	switch src := descriptor.(type) {
	case Git:
		return im.populateGit(target, src)
	case LocalPath:
		return im.populateLocalPath(target, src)
	default:
		return errors.Errorf("unhandled source descriptor type %T", descriptor)
	}
}

func (im *Importer) populateGit(target string, src Git) error {
	repo, err := vcs.NewGitRepo(src.RemoteURL, target)
	if err != nil {
		return errors.Wrapf(err, "cannot set up git repo for %s", src.RemoteURL)
	}

	if err := repo.Get(); err != nil {
		return errors.Wrapf(err, "cannot clone %s", src.RemoteURL)
	}

	if err := repo.UpdateVersion(src.CommitHash); err != nil {
		return errors.Wrapf(err, "cannot checkout %s at %s", src.RemoteURL, src.CommitHash)
	}

	if err := os.RemoveAll(gitMetadataDir(target)); err != nil {
		return errors.Wrapf(err, "cannot remove .git metadata under %s", target)
	}

	return nil
}

func (im *Importer) populateLocalPath(target string, src LocalPath) error {
	if fi, err := os.Stat(src.Path); err != nil || !fi.IsDir() {
		return ErrNonExistingLocalPath{Path: src.Path}
	}

	if err := shutil.CopyTree(src.Path, target, nil); err != nil {
		return errors.Wrapf(err, "cannot copy %s to %s", src.Path, target)
	}
	return nil
}

func gitMetadataDir(target string) string {
	return target + string(os.PathSeparator) + ".git"
}

// GetCachedPath is "validate, or refetch": it returns dep's path whether or
// not it was already cached.
func (im *Importer) GetCachedPath(dep Dep) (string, error) {
	if has, err := im.Cache.Has(dep); err != nil {
		return "", err
	} else if has {
		if err := im.Cache.Validate(dep); err == nil {
			return im.Cache.DepPath(dep), nil
		}
	}
	return im.Fetch(dep)
}

// GetHash returns dep's cached content hash, fetching it first if needed.
func (im *Importer) GetHash(dep Dep) (string, error) {
	path, err := im.GetCachedPath(dep)
	if err != nil {
		return "", err
	}
	return fs.ContentHash(path)
}

// Cleanup forwards to the cache's storage-budget enforcement.
func (im *Importer) Cleanup() error {
	return im.Cache.ApplyLimit()
}
