// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package combo

import (
	"os"
	"path/filepath"

	"github.com/annieherram/combo/internal/fs"
	"github.com/annieherram/combo/internal/solve"
	"github.com/pkg/errors"
)

// MismatchCategory classifies one disagreement between the output
// directory and the tree's surviving dependency set, as collected by
// IsDirty.
type MismatchCategory int

const (
	// MoreContrib means the output directory has more combo-repo children
	// in total than the tree has surviving dependencies.
	MoreContrib MismatchCategory = iota
	// MoreTree means the tree has more surviving dependencies in total than
	// the output directory has combo-repo children.
	MoreTree
	// MissingFromContrib means a surviving name has no output directory.
	MissingFromContrib
	// MissingFromTree means an output directory's name is not surviving.
	MissingFromTree
	// ModifiedContent means the name matches but the content hash differs.
	ModifiedContent
)

// Mismatch is one entry of a dirtiness report.
type Mismatch struct {
	Category MismatchCategory
	Name     string
}

// Manager orchestrates the full pipeline: root manifest, importer, tree,
// and the output directory reconciler. It owns neither the cache nor the
// tree's internals, consuming both through their interfaces.
type Manager struct {
	ctx  *Ctx
	root Manifest
	dir  string

	cache    *solve.Cache
	importer *solve.Importer
	tree     *solve.Tree

	resolved bool
}

// NewManager loads the root manifest at dir (which must be valid-as-root)
// and builds the importer and an empty tree against the given locator.
func NewManager(dir string, locator solve.SourceLocator) (*Manager, error) {
	root, err := LoadRootManifest(dir)
	if err != nil {
		return nil, err
	}

	ctx, err := NewContext()
	if err != nil {
		return nil, err
	}

	cache, err := solve.NewCache(ctx.CacheRoot)
	if err != nil {
		return nil, err
	}

	importer := solve.NewImporter(locator, cache)
	tree := solve.NewTree(importer, manifestReader{})

	return &Manager{
		ctx:      ctx,
		root:     root,
		dir:      dir,
		cache:    cache,
		importer: importer,
		tree:     tree,
	}, nil
}

// OutputDir is the absolute path dependencies are materialized under.
func (m *Manager) OutputDir() string {
	return filepath.Join(m.dir, m.root.OutputDirectory)
}

func (m *Manager) ensureResolved() error {
	if m.resolved {
		return nil
	}

	if err := m.tree.Build(m.root.Dependencies); err != nil {
		return err
	}
	if err := m.tree.DisconnectOutdatedVersions(); err != nil {
		return err
	}

	m.resolved = true
	return nil
}

// Resolve runs the full pipeline: corruption check (unless force), tree
// build and slash, dirtiness check, and materialization. With force,
// materialization runs even when IsDirty reports clean, so a corrupted
// dependency (for which IsDirty reports clean) is overwritten.
func (m *Manager) Resolve(force bool) error {
	if !force {
		if err := m.CheckCorruption(); err != nil {
			return err
		}
	}

	if err := m.ensureResolved(); err != nil {
		return err
	}

	dirty, _, err := m.IsDirty()
	if err != nil {
		return err
	}
	if !dirty && !force {
		return nil
	}

	return m.materialize()
}

// survivingByName returns the tree's surviving dependencies, keyed by their
// normalized output-directory name.
func (m *Manager) survivingByName() map[string]solve.Dep {
	out := map[string]solve.Dep{}
	for _, d := range m.tree.Dependencies() {
		out[solve.NormalizeName(d.Name)] = d
	}
	return out
}

// comboRepoChildren lists the basenames of OutputDir's children that are
// themselves combo repositories.
func (m *Manager) comboRepoChildren() ([]string, error) {
	entries, err := os.ReadDir(m.OutputDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read output directory %s", m.OutputDir())
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		childDir := filepath.Join(m.OutputDir(), e.Name())
		if IsComboRepo(childDir) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (m *Manager) materialize() error {
	surviving := m.survivingByName()

	for name, dep := range surviving {
		cachedPath, err := m.importer.GetCachedPath(dep)
		if err != nil {
			return err
		}
		cachedHash, err := fs.ContentHash(cachedPath)
		if err != nil {
			return errors.Wrapf(err, "cannot hash cached dependency %s", dep)
		}

		dst := filepath.Join(m.OutputDir(), name)
		upToDate := false
		if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
			if hash, err := fs.ContentHash(dst); err == nil && hash == cachedHash {
				upToDate = true
			}
		}
		if upToDate {
			continue
		}

		if err := os.RemoveAll(dst); err != nil {
			return errors.Wrapf(err, "cannot remove stale %s", dst)
		}
		if err := fs.CopyDir(cachedPath, dst); err != nil {
			return errors.Wrapf(err, "cannot install %s", dst)
		}
	}

	children, err := m.comboRepoChildren()
	if err != nil {
		return err
	}
	for _, name := range children {
		if _, ok := surviving[name]; ok {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.OutputDir(), name)); err != nil {
			return errors.Wrapf(err, "cannot remove leftover dependency %s", name)
		}
	}

	return nil
}

// IsDirty reports whether the output directory's contents disagree with
// the tree's surviving dependency set, and a breakdown of how. If
// CheckCorruption finds a corrupted dependency, dirtiness is suppressed:
// IsDirty returns false with no mismatches and no error, leaving the
// corruption for CheckCorruption to report.
func (m *Manager) IsDirty() (bool, []Mismatch, error) {
	if err := m.ensureResolved(); err != nil {
		return false, nil, err
	}

	if err := m.CheckCorruption(); err != nil {
		if _, ok := err.(CorruptedDependency); ok {
			return false, nil, nil
		}
		return false, nil, err
	}

	surviving := m.survivingByName()
	children, err := m.comboRepoChildren()
	if err != nil {
		return false, nil, err
	}
	childSet := map[string]bool{}
	for _, c := range children {
		childSet[c] = true
	}

	var mismatches []Mismatch

	for name, dep := range surviving {
		if !childSet[name] {
			mismatches = append(mismatches, Mismatch{Category: MissingFromContrib, Name: name})
			continue
		}

		cachedPath, err := m.importer.GetCachedPath(dep)
		if err != nil {
			return false, nil, err
		}
		cachedHash, err := fs.ContentHash(cachedPath)
		if err != nil {
			return false, nil, err
		}
		dirHash, err := fs.ContentHash(filepath.Join(m.OutputDir(), name))
		if err != nil {
			return false, nil, err
		}
		if dirHash != cachedHash {
			mismatches = append(mismatches, Mismatch{Category: ModifiedContent, Name: name})
		}
	}

	for name := range childSet {
		if _, ok := surviving[name]; !ok {
			mismatches = append(mismatches, Mismatch{Category: MissingFromTree, Name: name})
		}
	}

	if len(surviving) > len(childSet) {
		mismatches = append(mismatches, Mismatch{Category: MoreTree})
	} else if len(childSet) > len(surviving) {
		mismatches = append(mismatches, Mismatch{Category: MoreContrib})
	}

	return len(mismatches) > 0, mismatches, nil
}

// CheckCorruption reads the manifest of every combo-repo child of the
// output directory and compares its content hash against the cache's
// recorded hash for the Dep the manifest describes. It cannot detect
// manual deletion, manual addition of a valid copy, or a wholesale
// replacement with a legitimately newer version.
func (m *Manager) CheckCorruption() error {
	children, err := m.comboRepoChildren()
	if err != nil {
		return err
	}

	for _, name := range children {
		childDir := filepath.Join(m.OutputDir(), name)

		childManifest, err := loadManifest(childDir)
		if err != nil {
			return err
		}
		dep := solve.Dep{Name: childManifest.Name, Version: childManifest.Version}

		expectedHash, err := m.importer.GetHash(dep)
		if err != nil {
			return err
		}

		actualHash, err := fs.ContentHash(childDir)
		if err != nil {
			return errors.Wrapf(err, "cannot hash %s", childDir)
		}

		if actualHash != expectedHash {
			return CorruptedDependency{Dep: dep, Dir: childDir}
		}
	}

	return nil
}

// Cleanup forwards to the cache's storage-budget enforcement.
func (m *Manager) Cleanup() error {
	return m.importer.Cleanup()
}
