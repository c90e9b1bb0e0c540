package solve

// SourceDescriptor is a closed tagged union describing where a dependency's
// content lives. The only variants today are Git and LocalPath; the
// unexported marker method keeps the set closed so a switch over the
// concrete type stays exhaustive.
type SourceDescriptor interface {
	isSourceDescriptor()
}

// Git describes a dependency fetched from a git remote at a specific
// commit.
type Git struct {
	RemoteURL  string
	CommitHash string
}

func (Git) isSourceDescriptor() {}

// LocalPath describes a dependency whose content is a directory already
// present on disk, to be deep-copied into the cache.
type LocalPath struct {
	Path string
}

func (LocalPath) isSourceDescriptor() {}
