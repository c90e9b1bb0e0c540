package solve

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"os"

	"github.com/annieherram/combo/internal/fs"
	"github.com/pkg/errors"
)

// versionDetails is the type-tagged record describing one version of one
// project in a projects file or server response.
type versionDetails struct {
	Type       string `json:"type"`
	RemoteURL  string `json:"remote_url,omitempty"`
	CommitHash string `json:"commit_hash,omitempty"`
	Path       string `json:"path,omitempty"`
}

func (vd versionDetails) descriptor() (SourceDescriptor, error) {
	switch vd.Type {
	case "git":
		return Git{RemoteURL: vd.RemoteURL, CommitHash: vd.CommitHash}, nil
	case "local_path":
		return LocalPath{Path: vd.Path}, nil
	default:
		return nil, errors.Errorf("unknown source type %q", vd.Type)
	}
}

// detailsFromDescriptor converts an exported SourceDescriptor into the
// type-tagged record stored in a projects file or sent to the registry
// service.
func detailsFromDescriptor(sd SourceDescriptor) versionDetails {
	switch s := sd.(type) {
	case Git:
		return versionDetails{Type: "git", RemoteURL: s.RemoteURL, CommitHash: s.CommitHash}
	case LocalPath:
		return versionDetails{Type: "local_path", Path: s.Path}
	default:
		return versionDetails{}
	}
}

// SourceMaintainer is implemented by locators that can register new
// projects and versions, used by the upload subcommand to publish a source
// descriptor rather than merely resolve one.
type SourceMaintainer interface {
	AddProject(name string, defaultSource SourceDescriptor) error
	AddVersion(name string, version Version, source SourceDescriptor) error
}

// merge applies defaults as a base, overridden by the receiver's non-zero
// fields, except that a version record declaring its own Type never
// inherits a conflicting default Type's fields.
func (vd versionDetails) merge(defaults versionDetails) versionDetails {
	if vd.Type != "" && vd.Type != defaults.Type {
		return vd
	}
	merged := defaults
	if vd.Type != "" {
		merged.Type = vd.Type
	}
	if vd.RemoteURL != "" {
		merged.RemoteURL = vd.RemoteURL
	}
	if vd.CommitHash != "" {
		merged.CommitHash = vd.CommitHash
	}
	if vd.Path != "" {
		merged.Path = vd.Path
	}
	return merged
}

// projectEntry is a "version_dependent" project: a flat version->details
// map plus optional defaults merged into every version record.
type projectEntry struct {
	Defaults versionDetails            `json:"defaults"`
	Versions map[string]versionDetails `json:"version_dependent"`
}

// JSONSourceMaintainer implements SourceLocator by reading/writing a local JSON
// projects file, atomically on every mutation.
type JSONSourceMaintainer struct {
	path string
}

// NewJSONLocator opens the projects registry file at path.
func NewJSONLocator(path string) *JSONSourceMaintainer {
	return &JSONSourceMaintainer{path: path}
}

func (l *JSONSourceMaintainer) readProjects() (map[string]projectEntry, error) {
	projects := map[string]projectEntry{}

	b, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return projects, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read projects file %s", l.path)
	}
	if err := json.Unmarshal(b, &projects); err != nil {
		return nil, errors.Wrapf(err, "cannot parse projects file %s", l.path)
	}
	return projects, nil
}

func (l *JSONSourceMaintainer) writeProjects(projects map[string]projectEntry) error {
	b, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot marshal projects file")
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0666); err != nil {
		return errors.Wrapf(err, "cannot write temp projects file %s", tmp)
	}
	return fs.RenameWithFallback(tmp, l.path)
}

// GetSource implements SourceLocator.
func (l *JSONSourceMaintainer) GetSource(name string, version Version) (SourceDescriptor, error) {
	projects, err := l.readProjects()
	if err != nil {
		return nil, err
	}

	proj, ok := projects[name]
	if !ok {
		return nil, ErrUndefinedProject{Name: name}
	}

	vd, ok := proj.Versions[version.String()]
	if !ok {
		return nil, ErrUndefinedProjectVersion{Name: name, Version: version}
	}

	return vd.merge(proj.Defaults).descriptor()
}

// AddProject registers a new project name with the given default source. It
// is a no-op, not an error, if the project already exists.
func (l *JSONSourceMaintainer) AddProject(name string, defaultSource SourceDescriptor) error {
	projects, err := l.readProjects()
	if err != nil {
		return err
	}
	if _, ok := projects[name]; ok {
		return nil
	}
	projects[name] = projectEntry{Defaults: detailsFromDescriptor(defaultSource), Versions: map[string]versionDetails{}}
	return l.writeProjects(projects)
}

// AddVersion registers a new version record for an existing project.
func (l *JSONSourceMaintainer) AddVersion(name string, version Version, source SourceDescriptor) error {
	projects, err := l.readProjects()
	if err != nil {
		return err
	}

	proj, ok := projects[name]
	if !ok {
		return ErrUndefinedProject{Name: name}
	}
	if proj.Versions == nil {
		proj.Versions = map[string]versionDetails{}
	}
	proj.Versions[version.String()] = detailsFromDescriptor(source)
	projects[name] = proj

	return l.writeProjects(projects)
}

// ListVersions returns every version recorded for name in the registry
// file. It has no HTTP equivalent: the registry service's contract
// (get_source, get_available_versions over cached projects) never defines
// an "enumerate all known upstream versions" endpoint.
func (l *JSONSourceMaintainer) ListVersions(name string) ([]Version, error) {
	projects, err := l.readProjects()
	if err != nil {
		return nil, err
	}

	proj, ok := projects[name]
	if !ok {
		return nil, ErrUndefinedProject{Name: name}
	}

	versions := make([]Version, 0, len(proj.Versions))
	for raw := range proj.Versions {
		v, err := ParseVersion(raw)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// httpLocator implements SourceLocator against a remote source-registry
// service over HTTP.
type httpLocator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLocator builds a locator against the registry service at baseURL.
func NewHTTPLocator(baseURL string) *httpLocator {
	return &httpLocator{baseURL: baseURL, client: http.DefaultClient}
}

// GetSource implements SourceLocator.
func (l *httpLocator) GetSource(name string, version Version) (SourceDescriptor, error) {
	u := l.baseURL + "/get_source?" + url.Values{
		"project_name":    {name},
		"project_version": {version.String()},
	}.Encode()

	resp, err := l.client.Get(u)
	if err != nil {
		return nil, ErrServerConnection{URL: u, Err: err}
	}
	defer resp.Body.Close()

	body, err := readAll(resp)
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUndefinedProjectVersion{Name: name, Version: version}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ErrNackFromServer{URL: u, Status: resp.Status, Body: string(body)}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read response body from %s", u)
	}

	var vd versionDetails
	if err := json.Unmarshal(body, &vd); err != nil {
		return nil, errors.Wrapf(err, "cannot parse response body from %s", u)
	}
	return vd.descriptor()
}

// AddProject registers name with the registry service.
func (l *httpLocator) AddProject(name string, defaultSource SourceDescriptor) error {
	defaults := detailsFromDescriptor(defaultSource)
	return l.post("/add_project", url.Values{"project_name": {name}, "type": {defaults.Type}})
}

// AddVersion registers a version of an existing project with the registry
// service.
func (l *httpLocator) AddVersion(name string, version Version, source SourceDescriptor) error {
	details := detailsFromDescriptor(source)
	form := url.Values{
		"project_name":    {name},
		"project_version": {version.String()},
		"type":            {details.Type},
	}
	if details.RemoteURL != "" {
		form.Set("remote_url", details.RemoteURL)
	}
	if details.CommitHash != "" {
		form.Set("commit_hash", details.CommitHash)
	}
	if details.Path != "" {
		form.Set("path", details.Path)
	}
	return l.post("/add_version", form)
}

func (l *httpLocator) post(path string, form url.Values) error {
	u := l.baseURL + path
	resp, err := l.client.Post(u, "application/x-www-form-urlencoded", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return ErrServerConnection{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readAll(resp)
		return ErrNackFromServer{URL: u, Status: resp.Status, Body: string(body)}
	}
	return nil
}

func readAll(resp *http.Response) ([]byte, error) {
	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(resp.Body)
	return buf.Bytes(), err
}
