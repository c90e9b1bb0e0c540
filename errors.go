// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package combo

import (
	"fmt"

	"github.com/annieherram/combo/internal/solve"
)

// CorruptedDependency reports that a dependency's directory under the
// output directory no longer matches the content the cache recorded for
// it: someone hand-edited a resolved dependency's source.
type CorruptedDependency struct {
	Dep solve.Dep
	Dir string
}

func (e CorruptedDependency) Error() string {
	return fmt.Sprintf("dependency %s at %s has been modified since it was resolved; re-run with --force to overwrite", e.Dep, e.Dir)
}

// NotAllowedDependency reports that the tree contains a Dep the manager was
// not configured to accept (reserved for future policy hooks; unused by the
// core resolution path today).
type NotAllowedDependency struct {
	Dep solve.Dep
}

func (e NotAllowedDependency) Error() string {
	return fmt.Sprintf("dependency %s is not allowed", e.Dep)
}

// UnhandledCombo is a programmer-error sentinel: a code path encountered a
// case the author believed was exhaustively handled.
type UnhandledCombo struct {
	Detail string
}

func (e UnhandledCombo) Error() string {
	return "unhandled case: " + e.Detail
}
