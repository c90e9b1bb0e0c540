package solve

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestJSONSourceMaintainerAddAndGetSource(t *testing.T) {
	dir, err := ioutil.TempDir("", "combo-locator")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "combo_sources.json")
	m := NewJSONLocator(path)

	v := mustVersion(t, "1.0.0")
	git := Git{RemoteURL: "https://example.com/widget.git", CommitHash: "deadbeef"}

	if err := m.AddProject("widget", git); err != nil {
		t.Fatal(err)
	}
	if err := m.AddVersion("widget", v, git); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetSource("widget", v)
	if err != nil {
		t.Fatal(err)
	}
	gotGit, ok := got.(Git)
	if !ok {
		t.Fatalf("expected Git descriptor, got %T", got)
	}
	if gotGit.RemoteURL != git.RemoteURL || gotGit.CommitHash != git.CommitHash {
		t.Errorf("GetSource = %+v, want %+v", gotGit, git)
	}
}

func TestJSONSourceMaintainerUndefinedProject(t *testing.T) {
	dir, err := ioutil.TempDir("", "combo-locator")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	m := NewJSONLocator(filepath.Join(dir, "combo_sources.json"))

	_, err = m.GetSource("nonexistent", mustVersion(t, "1.0.0"))
	if _, ok := err.(ErrUndefinedProject); !ok {
		t.Fatalf("expected ErrUndefinedProject, got %T: %v", err, err)
	}
}

func TestJSONSourceMaintainerListVersions(t *testing.T) {
	dir, err := ioutil.TempDir("", "combo-locator")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	m := NewJSONLocator(filepath.Join(dir, "combo_sources.json"))
	local := LocalPath{Path: "/srv/widget"}
	if err := m.AddProject("widget", local); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"1.0.0", "1.1.0", "2.0.0"} {
		if err := m.AddVersion("widget", mustVersion(t, s), local); err != nil {
			t.Fatal(err)
		}
	}

	versions, err := m.ListVersions("widget")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d: %v", len(versions), versions)
	}
}

func TestDetailsFromDescriptorRoundTrip(t *testing.T) {
	git := Git{RemoteURL: "https://example.com/x.git", CommitHash: "abc"}
	details := detailsFromDescriptor(git)
	back, err := details.descriptor()
	if err != nil {
		t.Fatal(err)
	}
	if back.(Git) != git {
		t.Errorf("round trip mismatch: got %+v, want %+v", back, git)
	}
}
