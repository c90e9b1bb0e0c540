package solve

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func mustVersion(t *testing.T, s string) Version {
	t.Helper()
	v, err := ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

func populateDep(t *testing.T, c *Cache, d Dep, content string) {
	t.Helper()
	path := c.DepPath(d)
	if err := os.MkdirAll(path, 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "file.txt"), []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
}

func TestCacheRecordHasValidate(t *testing.T) {
	dir, err := ioutil.TempDir("", "combo-cache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	c, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	d := Dep{Name: "widget", Version: mustVersion(t, "1.0.0")}

	if has, err := c.Has(d); err != nil || has {
		t.Fatalf("Has before populate = %v, %v; want false, nil", has, err)
	}

	populateDep(t, c, d, "hello")
	if err := c.Record(d); err != nil {
		t.Fatal(err)
	}

	has, err := c.Has(d)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("expected Has to be true after Record")
	}

	if err := c.Validate(d); err != nil {
		t.Fatalf("Validate after Record: %v", err)
	}
}

func TestCacheValidateDetectsTampering(t *testing.T) {
	dir, err := ioutil.TempDir("", "combo-cache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	c, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	d := Dep{Name: "widget", Version: mustVersion(t, "1.0.0")}
	populateDep(t, c, d, "hello")
	if err := c.Record(d); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(c.DepPath(d), "file.txt"), []byte("tampered"), 0666); err != nil {
		t.Fatal(err)
	}

	if err := c.Validate(d); err == nil {
		t.Fatal("expected Validate to detect content tampering")
	} else if _, ok := err.(ErrTampered); !ok {
		t.Fatalf("expected ErrTampered, got %T: %v", err, err)
	}
}

func TestCacheRemove(t *testing.T) {
	dir, err := ioutil.TempDir("", "combo-cache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	c, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	d := Dep{Name: "widget", Version: mustVersion(t, "1.0.0")}
	populateDep(t, c, d, "hello")
	if err := c.Record(d); err != nil {
		t.Fatal(err)
	}

	if err := c.Remove(d); err != nil {
		t.Fatal(err)
	}

	if has, err := c.Has(d); err != nil || has {
		t.Fatalf("Has after Remove = %v, %v; want false, nil", has, err)
	}
	if _, err := os.Stat(c.DepPath(d)); !os.IsNotExist(err) {
		t.Fatalf("expected dep directory to be gone, stat err = %v", err)
	}
}

func TestCacheApplyLimitEvictsOldest(t *testing.T) {
	dir, err := ioutil.TempDir("", "combo-cache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	c, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Populate three entries, each well over a third of the budget, in
	// insertion order old -> new.
	chunk := make([]byte, maxCacheBytes/2)
	deps := []Dep{
		{Name: "a", Version: mustVersion(t, "1.0.0")},
		{Name: "b", Version: mustVersion(t, "1.0.0")},
		{Name: "c", Version: mustVersion(t, "1.0.0")},
	}
	for _, d := range deps {
		path := c.DepPath(d)
		if err := os.MkdirAll(path, 0777); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(path, "blob"), chunk, 0666); err != nil {
			t.Fatal(err)
		}
		if err := c.Record(d); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.ApplyLimit(); err != nil {
		t.Fatal(err)
	}

	if has, _ := c.Has(deps[0]); has {
		t.Error("expected oldest entry to have been evicted")
	}
	if has, _ := c.Has(deps[2]); !has {
		t.Error("expected newest entry to survive eviction")
	}
}
