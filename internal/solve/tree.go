package solve

import (
	"reflect"

	"github.com/pkg/errors"
)

// ManifestInfo is the subset of a library's manifest the tree needs:
// its own identity and its declared children. It lets this package build
// and resolve the dependency graph without importing the manifest type
// itself, which belongs to the root package.
type ManifestInfo struct {
	Self         Dep
	Dependencies []Dep
}

// ManifestReader reads and validates the manifest found in dir, expecting
// it to describe exactly the given Dep.
type ManifestReader interface {
	ReadManifest(dir string, expected Dep) (ManifestInfo, error)
}

// treeValue identifies a tree node: either the synthetic root, or a Dep.
type treeValue struct {
	root bool
	dep  Dep
}

func rootValue() treeValue     { return treeValue{root: true} }
func depValue(d Dep) treeValue { return treeValue{dep: d} }

type node struct {
	value    treeValue
	children map[treeValue]*node
}

func newNode(v treeValue) *node {
	return &node{value: v, children: map[treeValue]*node{}}
}

// Tree builds the recursive Dep graph rooted at a project's manifest,
// detects cycles, and converges it to one surviving version per library
// name via disconnect-outdated-versions slashing.
type Tree struct {
	importer *Importer
	reader   ManifestReader

	head          *node
	originalNodes map[Dep]*node
	depManifests  map[Dep]ManifestInfo
}

// NewTree builds a Tree that fetches children via importer and reads their
// manifests via reader.
func NewTree(importer *Importer, reader ManifestReader) *Tree {
	return &Tree{
		importer:      importer,
		reader:        reader,
		head:          newNode(rootValue()),
		originalNodes: map[Dep]*node{},
		depManifests:  map[Dep]ManifestInfo{},
	}
}

// Build performs the recursive descent from the synthetic root, given the
// root manifest's declared children.
func (t *Tree) Build(rootChildren []Dep) error {
	return t.build(t.head, rootChildren, nil)
}

func (t *Tree) build(parent *node, children []Dep, path []Dep) error {
	for _, d := range children {
		for _, p := range path {
			if p.Name == d.Name {
				full := append(append([]Dep{}, path...), d)
				return ErrCircularDependency{Name: d.Name, Path: full}
			}
		}

		child, seen := t.originalNodes[d]
		if !seen {
			child = newNode(depValue(d))
			t.originalNodes[d] = child
		}
		parent.children[depValue(d)] = child

		dir, err := t.importer.GetCachedPath(d)
		if err != nil {
			return err
		}

		info, err := t.reader.ReadManifest(dir, d)
		if err != nil {
			return err
		}
		if err := t.addManifest(d, info); err != nil {
			return err
		}

		if !seen {
			if err := t.build(child, info.Dependencies, append(path, d)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tree) addManifest(d Dep, info ManifestInfo) error {
	existing, ok := t.depManifests[d]
	if !ok {
		t.depManifests[d] = info
		return nil
	}
	if !reflect.DeepEqual(existing, info) {
		return errors.Errorf("different manifests found for dependency %s", d)
	}
	return nil
}

// Dependencies returns the distinct set of Deps currently present anywhere
// in the tree, excluding the synthetic root.
func (t *Tree) Dependencies() []Dep {
	seen := map[Dep]struct{}{}
	t.collect(t.head, seen)

	out := make([]Dep, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	return out
}

func (t *Tree) collect(n *node, seen map[Dep]struct{}) {
	for _, child := range n.children {
		seen[child.value.dep] = struct{}{}
		t.collect(child, seen)
	}
}

// isSlashed reports whether exactly one version of each distinct library
// name remains in the tree's dependency set.
func (t *Tree) isSlashed() bool {
	counts := map[string]int{}
	for _, d := range t.Dependencies() {
		counts[d.Name]++
	}
	for _, n := range counts {
		if n != 1 {
			return false
		}
	}
	return true
}

type undecidedEntry struct {
	eliminators            []Dep
	criticals              []Dep
	alive                  bool
	incompatibleEliminator *Dep
}

// DisconnectOutdatedVersions prunes the tree, per library name, down to a
// single surviving version, iterating the undecided-table / mark-deads /
// step-in / slash passes until the tree is slashed.
func (t *Tree) DisconnectOutdatedVersions() error {
	for !t.isSlashed() {
		table, err := t.createUndecidedTable()
		if err != nil {
			return err
		}

		t.markDeads(t.head, table)
		t.stepInUndecided(table)

		if err := t.slashDeads(table); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) createUndecidedTable() (map[Dep]*undecidedEntry, error) {
	deps := t.Dependencies()
	table := map[Dep]*undecidedEntry{}

	for _, d := range deps {
		var eliminators []Dep
		for _, e := range deps {
			if e.Name == d.Name && e.Version.Compare(d.Version) > 0 {
				eliminators = append(eliminators, e)
			}
		}
		if len(eliminators) == 0 {
			continue
		}

		var criticals []Dep
		for _, e := range eliminators {
			compatible, err := Compatible(d.Version, e.Version)
			if err != nil {
				return nil, err
			}
			if !compatible {
				criticals = append(criticals, e)
			}
		}

		table[d] = &undecidedEntry{eliminators: eliminators, criticals: criticals, alive: true}
	}

	return table, nil
}

// markDeads walks the tree from n; an undecided node halts recursion along
// its own branch (that subtree only matters if the undecided survives).
// Every other node visited is checked against each undecided's eliminators.
func (t *Tree) markDeads(n *node, table map[Dep]*undecidedEntry) {
	if !n.value.root {
		if _, ok := table[n.value.dep]; ok {
			return
		}
		for _, entry := range table {
			for _, elim := range entry.eliminators {
				if elim != n.value.dep {
					continue
				}
				entry.alive = false
				for _, crit := range entry.criticals {
					if crit == n.value.dep {
						eliminator := n.value.dep
						entry.incompatibleEliminator = &eliminator
					}
				}
			}
		}
	}

	for _, child := range n.children {
		t.markDeads(child, table)
	}
}

// stepInUndecided re-runs markDeads rooted at the canonical node of every
// undecided entry still alive, propagating dead-marks through subtrees the
// first pass skipped.
func (t *Tree) stepInUndecided(table map[Dep]*undecidedEntry) {
	for d, entry := range table {
		if !entry.alive {
			continue
		}
		if canon, ok := t.originalNodes[d]; ok {
			t.markDeads(canon, table)
		}
	}
}

func (t *Tree) isAlive(v treeValue, table map[Dep]*undecidedEntry) bool {
	if v.root {
		return true
	}
	entry, ok := table[v.dep]
	if !ok {
		return true
	}
	return entry.alive
}

// slashDeads removes every dead child reachable through a live branch. A
// dead child found directly under a live parent whose elimination was
// critical is a genuine conflict: IncompatibleVersions. A dead child buried
// under an already-dead parent is never visited here, so its removal is
// silently indirect.
func (t *Tree) slashDeads(table map[Dep]*undecidedEntry) error {
	if err := t.recursiveSlash(t.head, table); err != nil {
		return err
	}
	return nil
}

func (t *Tree) recursiveSlash(n *node, table map[Dep]*undecidedEntry) error {
	var dead []treeValue

	for key, child := range n.children {
		if t.isAlive(child.value, table) {
			if err := t.recursiveSlash(child, table); err != nil {
				return err
			}
			continue
		}

		if entry, ok := table[child.value.dep]; ok && entry.incompatibleEliminator != nil {
			return ErrIncompatibleVersions{
				Name:       child.value.dep.Name,
				Requested:  child.value.dep,
				Eliminator: *entry.incompatibleEliminator,
			}
		}
		dead = append(dead, key)
	}

	for _, key := range dead {
		delete(n.children, key)
	}
	return nil
}
