package solve

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestImporterFetchLocalPath(t *testing.T) {
	cacheDir, err := ioutil.TempDir("", "combo-cache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(cacheDir)

	srcDir, err := ioutil.TempDir("", "combo-src")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(srcDir)
	if err := os.WriteFile(filepath.Join(srcDir, "file.txt"), []byte("hello"), 0666); err != nil {
		t.Fatal(err)
	}

	cache, err := NewCache(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	im := NewImporter(&fakeLocator{scratch: srcDir}, cache)

	d := Dep{Name: "widget", Version: mustVersion(t, "1.0.0")}

	path, err := im.Fetch(d)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(path, "file.txt")); err != nil {
		t.Fatalf("expected fetched content at %s: %v", path, err)
	}

	// A second Fetch should hit the cache rather than re-fetch.
	path2, err := im.Fetch(d)
	if err != nil {
		t.Fatal(err)
	}
	if path != path2 {
		t.Errorf("expected stable cache path, got %s then %s", path, path2)
	}
}

func TestImporterFetchNonExistingLocalPath(t *testing.T) {
	cacheDir, err := ioutil.TempDir("", "combo-cache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(cacheDir)

	cache, err := NewCache(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	im := NewImporter(&fakeLocator{scratch: filepath.Join(cacheDir, "does-not-exist")}, cache)

	d := Dep{Name: "widget", Version: mustVersion(t, "1.0.0")}
	if _, err := im.Fetch(d); err == nil {
		t.Fatal("expected an error fetching a nonexistent local path")
	} else if _, ok := err.(ErrNonExistingLocalPath); !ok {
		t.Fatalf("expected ErrNonExistingLocalPath, got %T: %v", err, err)
	}
}
