package combo

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewContext(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Setenv("APPDATA", `C:\Users\tester\AppData\Roaming`)
	}

	ctx, err := NewContext()
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(ctx.CacheRoot) != "Combo" && filepath.Base(ctx.CacheRoot) != ".Combo" {
		t.Errorf("CacheRoot = %q, want it to end in Combo or .Combo", ctx.CacheRoot)
	}
}
