package combo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/annieherram/combo/internal/solve"
)

// fakeLocator resolves every name/version to a LocalPath pointing at a
// directory this test controls directly.
type fakeLocator struct {
	dirs map[string]string // "name@version" -> directory
}

func (l *fakeLocator) GetSource(name string, version solve.Version) (solve.SourceDescriptor, error) {
	path, ok := l.dirs[name+"@"+version.String()]
	if !ok {
		return nil, solve.ErrUndefinedProjectVersion{Name: name, Version: version}
	}
	return solve.LocalPath{Path: path}, nil
}

// writeDepRepo writes a minimal combo_manifest.json for a leaf dependency
// (no output_directory, no further dependencies) at dir.
func writeDepRepo(t *testing.T, dir, name, version string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0777); err != nil {
		t.Fatal(err)
	}
	m := rawManifest{Name: name, Version: version}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), b, 0666); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "payload.txt"), []byte(name+" "+version), 0666); err != nil {
		t.Fatal(err)
	}
}

func isolateHome(t *testing.T) {
	t.Helper()
	home, err := os.MkdirTemp("", "combo-home")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(home) })

	if runtime.GOOS == "windows" {
		t.Setenv("APPDATA", home)
	} else {
		t.Setenv("HOME", home)
	}
}

func TestManagerResolveMaterializesDependencies(t *testing.T) {
	isolateHome(t)

	projectDir, err := os.MkdirTemp("", "combo-project")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(projectDir)

	sourceDir, err := os.MkdirTemp("", "combo-source")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(sourceDir)

	widgetDir := filepath.Join(sourceDir, "widget-src")
	writeDepRepo(t, widgetDir, "widget", "1.0.0")

	root := rawManifest{
		Name:            "myproject",
		Version:         "1.0.0",
		Dependencies:    []rawDependency{{Name: "widget", Version: "1.0.0"}},
		OutputDirectory: "deps",
	}
	b, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, ManifestName), b, 0666); err != nil {
		t.Fatal(err)
	}

	locator := &fakeLocator{dirs: map[string]string{"widget@1.0.0": widgetDir}}

	mgr, err := NewManager(projectDir, locator)
	if err != nil {
		t.Fatal(err)
	}

	if err := mgr.Resolve(false); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	installed := filepath.Join(projectDir, "deps", "widget")
	if _, err := os.Stat(filepath.Join(installed, "payload.txt")); err != nil {
		t.Errorf("expected widget payload materialized at %s: %v", installed, err)
	}

	dirty, mismatches, err := mgr.IsDirty()
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Errorf("expected clean state after Resolve, got mismatches: %v", mismatches)
	}
}

func TestManagerCheckCorruptionDetectsHandEdit(t *testing.T) {
	isolateHome(t)

	projectDir, err := os.MkdirTemp("", "combo-project")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(projectDir)

	sourceDir, err := os.MkdirTemp("", "combo-source")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(sourceDir)

	widgetDir := filepath.Join(sourceDir, "widget-src")
	writeDepRepo(t, widgetDir, "widget", "1.0.0")

	root := rawManifest{
		Name:            "myproject",
		Version:         "1.0.0",
		Dependencies:    []rawDependency{{Name: "widget", Version: "1.0.0"}},
		OutputDirectory: "deps",
	}
	b, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, ManifestName), b, 0666); err != nil {
		t.Fatal(err)
	}

	locator := &fakeLocator{dirs: map[string]string{"widget@1.0.0": widgetDir}}

	mgr, err := NewManager(projectDir, locator)
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.Resolve(false); err != nil {
		t.Fatal(err)
	}

	// Hand-edit the materialized dependency's manifest-independent payload;
	// CheckCorruption should notice the content hash no longer matches.
	installed := filepath.Join(projectDir, "deps", "widget", "payload.txt")
	if err := os.WriteFile(installed, []byte("tampered"), 0666); err != nil {
		t.Fatal(err)
	}

	err = mgr.CheckCorruption()
	if err == nil {
		t.Fatal("expected CheckCorruption to detect the hand-edit")
	}
	if _, ok := err.(CorruptedDependency); !ok {
		t.Fatalf("expected CorruptedDependency, got %T: %v", err, err)
	}
}
