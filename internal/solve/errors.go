package solve

import (
	"bytes"
	"fmt"
)

// ErrIncompatibleVersions reports that a live branch of the dependency tree
// requires a version of a library that a semver-incompatible newer request
// would otherwise have superseded.
type ErrIncompatibleVersions struct {
	Name      string
	Requested Dep
	Eliminator Dep
}

func (e ErrIncompatibleVersions) Error() string {
	return fmt.Sprintf("%s: %s is required by a live branch but is incompatible with the newer requested version %s",
		e.Name, e.Requested.Version, e.Eliminator.Version)
}

// ErrCircularDependency reports a cycle in the dependency graph, discovered
// while walking from Root to the repeated library name.
type ErrCircularDependency struct {
	Name string
	Path []Dep
}

func (e ErrCircularDependency) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "circular dependency on %q: ", e.Name)
	for i, d := range e.Path {
		if i > 0 {
			buf.WriteString(" -> ")
		}
		buf.WriteString(d.String())
	}
	return buf.String()
}

// ErrTampered reports that a cached dependency's on-disk content disagrees
// with its sidecar index entry, or that one exists without the other.
type ErrTampered struct {
	Dep    Dep
	Reason string
}

func (e ErrTampered) Error() string {
	return fmt.Sprintf("cached dependency %s is tampered: %s", e.Dep, e.Reason)
}

// ErrUndefinedProject reports that the locator has no project by this name.
type ErrUndefinedProject struct {
	Name string
}

func (e ErrUndefinedProject) Error() string {
	return fmt.Sprintf("undefined project %q", e.Name)
}

// ErrUndefinedProjectVersion reports that the locator knows the project but
// not this version of it.
type ErrUndefinedProjectVersion struct {
	Name    string
	Version Version
}

func (e ErrUndefinedProjectVersion) Error() string {
	return fmt.Sprintf("project %q has no version %s", e.Name, e.Version)
}

// ErrNonExistingLocalPath reports that a LocalPath source descriptor points
// at a path that does not exist.
type ErrNonExistingLocalPath struct {
	Path string
}

func (e ErrNonExistingLocalPath) Error() string {
	return fmt.Sprintf("local path %q does not exist", e.Path)
}

// ErrServerConnection reports a transport-level failure talking to the
// remote source locator.
type ErrServerConnection struct {
	URL string
	Err error
}

func (e ErrServerConnection) Error() string {
	return fmt.Sprintf("cannot reach source server at %s: %v", e.URL, e.Err)
}

func (e ErrServerConnection) Unwrap() error { return e.Err }

// ErrNackFromServer reports that the remote source locator responded but
// rejected the request.
type ErrNackFromServer struct {
	URL    string
	Status string
	Body   string
}

func (e ErrNackFromServer) Error() string {
	return fmt.Sprintf("source server at %s rejected request (%s): %s", e.URL, e.Status, e.Body)
}
