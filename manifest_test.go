package combo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annieherram/combo/internal/solve"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifestNotFound(t *testing.T) {
	dir := t.TempDir()

	if _, err := loadManifest(dir); err == nil {
		t.Fatal("expected ManifestNotFound, got nil")
	} else if _, ok := err.(ManifestNotFound); !ok {
		t.Fatalf("expected ManifestNotFound, got %T: %v", err, err)
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	cases := map[string]string{
		"malformed json":  `{`,
		"missing name":    `{"version": "1.0.0"}`,
		"missing version": `{"name": "foo"}`,
		"bad dep record":  `{"name": "foo", "version": "1.0.0", "dependencies": [{"name": "bar"}]}`,
	}

	for label, content := range cases {
		t.Run(label, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, content)

			if _, err := loadManifest(dir); err == nil {
				t.Fatal("expected InvalidManifest, got nil")
			} else if _, ok := err.(InvalidManifest); !ok {
				t.Fatalf("expected InvalidManifest, got %T: %v", err, err)
			}
		})
	}
}

func TestLoadManifestValid(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{
		"name": "foo",
		"version": "1.2.3",
		"dependencies": [{"name": "bar", "version": "0.1.0"}],
		"output_directory": "out"
	}`)

	m, err := loadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}

	if m.Name != "foo" {
		t.Errorf("Name = %q, want foo", m.Name)
	}
	if m.Version.String() != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", m.Version.String())
	}
	if len(m.Dependencies) != 1 || m.Dependencies[0].Name != "bar" {
		t.Errorf("Dependencies = %v, want one dep named bar", m.Dependencies)
	}
	if !m.ValidAsRoot() {
		t.Error("expected manifest with output_directory to be valid-as-root")
	}
}

func TestManifestReaderMismatch(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "foo", "version": "1.0.0"}`)

	expected := solve.Dep{Name: "foo", Version: mustParseVersion(t, "2.0.0")}

	var r manifestReader
	if _, err := r.ReadManifest(dir, expected); err == nil {
		t.Fatal("expected ManifestMismatch, got nil")
	} else if _, ok := err.(ManifestMismatch); !ok {
		t.Fatalf("expected ManifestMismatch, got %T: %v", err, err)
	}
}

func TestIsComboRepo(t *testing.T) {
	dir := t.TempDir()
	if IsComboRepo(dir) {
		t.Error("expected empty dir not to be a combo repo")
	}

	writeManifest(t, dir, `{"name": "foo", "version": "1.0.0"}`)
	if !IsComboRepo(dir) {
		t.Error("expected dir with a manifest to be a combo repo")
	}
}

func mustParseVersion(t *testing.T, s string) solve.Version {
	t.Helper()
	v, err := solve.ParseVersion(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
