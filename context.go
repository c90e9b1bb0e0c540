// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package combo

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// cacheDirName is the application directory name under the per-user cache
// root, on every platform.
const cacheDirName = "Combo"

// Ctx carries the resolved cache root. It is computed once, from the
// environment, and threaded explicitly into the components that need it
// rather than read from a process-wide global.
type Ctx struct {
	CacheRoot string
}

// NewContext resolves the cache root: %APPDATA%\Combo on Windows,
// $HOME/.Combo elsewhere.
func NewContext() (*Ctx, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return nil, errors.New("APPDATA is not set")
		}
		return &Ctx{CacheRoot: filepath.Join(appData, cacheDirName)}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving home directory")
	}
	return &Ctx{CacheRoot: filepath.Join(home, "."+cacheDirName)}, nil
}
