package solve

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/annieherram/combo/internal/fs"
	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

// maxCacheBytes is the FIFO eviction ceiling for the clones directory.
const maxCacheBytes = 64 * 1024 * 1024

// cacheEntry is the sidecar index's per-Dep record.
type cacheEntry struct {
	SizeBytes   int64  `json:"size_bytes"`
	ContentHash string `json:"content_hash"`
}

// cacheIndex is the on-disk sidecar index, kept insertion-ordered since Go
// has no native ordered map: keys records the order entries were recorded
// in, and is what ApplyLimit consults to find the oldest entry.
type cacheIndex struct {
	Keys    []string              `json:"keys"`
	Entries map[string]cacheEntry `json:"entries"`
}

// Cache is the persistent, content-addressed store of fetched dependencies
// under a per-user application directory. It owns the clones directory and
// the sidecar index. A file lock serializes index writes across
// concurrent combo invocations sharing the same cache directory: Record and
// Remove take it around their whole read-modify-write. Readers (Has,
// Validate, ApplyLimit's scan of the index) do not take it; ApplyLimit
// evicts through Remove, so each eviction's index update is locked, but its
// choice of which entry to evict is not.
type Cache struct {
	root       string // .../Combo
	clonesRoot string // .../Combo/clones
	indexPath  string // .../Combo/local_projects.json
	lock       *flock.Flock
}

// NewCache opens (and creates, if absent) the cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	clonesRoot := filepath.Join(dir, "clones")
	if err := os.MkdirAll(clonesRoot, 0777); err != nil {
		return nil, errors.Wrapf(err, "cannot create cache clones directory %s", clonesRoot)
	}

	return &Cache{
		root:       dir,
		clonesRoot: clonesRoot,
		indexPath:  filepath.Join(dir, "local_projects.json"),
		lock:       flock.NewFlock(filepath.Join(dir, "local_projects.json.lock")),
	}, nil
}

// withIndexLock runs fn while holding the cache's exclusive file lock,
// blocking until it is free.
func (c *Cache) withIndexLock(fn func() error) error {
	if err := c.lock.Lock(); err != nil {
		return errors.Wrapf(err, "cannot acquire cache index lock %s", c.lock.Path())
	}
	defer c.lock.Unlock()
	return fn()
}

// DepPath returns the deterministic directory path a Dep would be cloned
// into, whether or not it has been fetched yet.
func (c *Cache) DepPath(d Dep) string {
	name, version := d.pathSegments()
	return filepath.Join(c.clonesRoot, name, version)
}

func (c *Cache) readIndex() (cacheIndex, error) {
	idx := cacheIndex{Entries: map[string]cacheEntry{}}

	b, err := os.ReadFile(c.indexPath)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return idx, errors.Wrapf(err, "cannot read cache index %s", c.indexPath)
	}

	if err := json.Unmarshal(b, &idx); err != nil {
		return idx, errors.Wrapf(err, "cannot parse cache index %s", c.indexPath)
	}
	if idx.Entries == nil {
		idx.Entries = map[string]cacheEntry{}
	}
	return idx, nil
}

// writeIndex persists idx atomically: write to a sibling temp file, then
// rename over the real path.
func (c *Cache) writeIndex(idx cacheIndex) error {
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot marshal cache index")
	}

	tmp := c.indexPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0666); err != nil {
		return errors.Wrapf(err, "cannot write temp cache index %s", tmp)
	}
	if err := fs.RenameWithFallback(tmp, c.indexPath); err != nil {
		return errors.Wrapf(err, "cannot persist cache index %s", c.indexPath)
	}
	return nil
}

// Has reports whether d's directory exists on disk and the index contains a
// matching key. Disagreement between the two is left for Validate to catch.
func (c *Cache) Has(d Dep) (bool, error) {
	idx, err := c.readIndex()
	if err != nil {
		return false, err
	}
	_, inIndex := idx.Entries[d.String()]

	fi, err := os.Stat(c.DepPath(d))
	onDisk := err == nil && fi.IsDir()

	return inIndex && onDisk, nil
}

// Validate fails with ErrTampered when the directory and index entry for d
// disagree, or when their recorded size or hash no longer matches.
func (c *Cache) Validate(d Dep) error {
	idx, err := c.readIndex()
	if err != nil {
		return err
	}

	entry, inIndex := idx.Entries[d.String()]

	path := c.DepPath(d)
	fi, statErr := os.Stat(path)
	onDisk := statErr == nil && fi.IsDir()

	switch {
	case inIndex && !onDisk:
		return ErrTampered{Dep: d, Reason: "indexed but missing on disk"}
	case !inIndex && onDisk:
		return ErrTampered{Dep: d, Reason: "present on disk but not indexed"}
	case !inIndex && !onDisk:
		return ErrTampered{Dep: d, Reason: "not cached"}
	}

	size, err := fs.DirSize(path)
	if err != nil {
		return errors.Wrapf(err, "cannot measure %s", path)
	}
	if size != entry.SizeBytes {
		return ErrTampered{Dep: d, Reason: "size mismatch"}
	}

	hash, err := fs.ContentHash(path)
	if err != nil {
		return errors.Wrapf(err, "cannot hash %s", path)
	}
	if hash != entry.ContentHash {
		return ErrTampered{Dep: d, Reason: "content hash mismatch"}
	}

	return nil
}

// GetPath validates d and returns its cached directory path. ErrTampered
// surfaces to the caller unchanged.
func (c *Cache) GetPath(d Dep) (string, error) {
	if err := c.Validate(d); err != nil {
		return "", err
	}
	return c.DepPath(d), nil
}

// Record computes the size and content hash of d's freshly-populated
// directory and persists a new index entry, appending d to the insertion
// order if it is not already present.
func (c *Cache) Record(d Dep) error {
	path := c.DepPath(d)

	size, err := fs.DirSize(path)
	if err != nil {
		return errors.Wrapf(err, "cannot measure %s", path)
	}
	hash, err := fs.ContentHash(path)
	if err != nil {
		return errors.Wrapf(err, "cannot hash %s", path)
	}

	return c.withIndexLock(func() error {
		idx, err := c.readIndex()
		if err != nil {
			return err
		}

		key := d.String()
		if _, exists := idx.Entries[key]; !exists {
			idx.Keys = append(idx.Keys, key)
		}
		idx.Entries[key] = cacheEntry{SizeBytes: size, ContentHash: hash}

		return c.writeIndex(idx)
	})
}

// Remove deletes d's directory, if present, and removes its index entry.
func (c *Cache) Remove(d Dep) error {
	if err := os.RemoveAll(c.DepPath(d)); err != nil {
		return errors.Wrapf(err, "cannot remove %s", c.DepPath(d))
	}

	return c.withIndexLock(func() error {
		idx, err := c.readIndex()
		if err != nil {
			return err
		}

		key := d.String()
		if _, exists := idx.Entries[key]; !exists {
			return nil
		}
		delete(idx.Entries, key)
		for i, k := range idx.Keys {
			if k == key {
				idx.Keys = append(idx.Keys[:i], idx.Keys[i+1:]...)
				break
			}
		}

		return c.writeIndex(idx)
	})
}

// ApplyLimit evicts the oldest entries, by insertion order, until the total
// size of the clones directory is at or under the 64 MiB budget.
func (c *Cache) ApplyLimit() error {
	idx, err := c.readIndex()
	if err != nil {
		return err
	}

	total := int64(0)
	for _, e := range idx.Entries {
		total += e.SizeBytes
	}

	for total > maxCacheBytes && len(idx.Keys) > 0 {
		oldestKey := idx.Keys[0]
		entry := idx.Entries[oldestKey]

		d, err := destring(oldestKey)
		if err != nil {
			return errors.Wrapf(err, "cannot parse cache index key %q", oldestKey)
		}
		if err := c.Remove(d); err != nil {
			return err
		}

		total -= entry.SizeBytes
		idx, err = c.readIndex()
		if err != nil {
			return err
		}
	}

	return nil
}
