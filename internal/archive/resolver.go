package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/classgraph/classgraph-go/internal/diagnostics"
	"github.com/classgraph/classgraph-go/internal/scanspec"
)

var (
	// ErrEmptyPath is returned for a classpath-element string that
	// normalizes to nothing.
	ErrEmptyPath = errors.New("archive: empty classpath element")
	// ErrNoArchiveMarker is the "absence of the PK marker is a fatal
	// error" case from §4.2's self-extracting-archive handling.
	ErrNoArchiveMarker = errors.New("archive: no PK marker found for self-extracting archive")
	// ErrEntryNotFound is returned when a nested segment names an entry
	// absent from its enclosing archive.
	ErrEntryNotFound = errors.New("archive: entry not found in enclosing archive")
)

// defaultLibDirs are the nested-lib-jar directories §4.2's package-root
// discovery names, before any manifest override is applied.
var defaultLibDirs = []string{"BOOT-INF/lib/", "WEB-INF/lib/", "WEB-INF/lib-provided/", "lib/"}

// Element is a resolved classpath element: either a package-root
// directory inside an archive (IsDirectory) or a terminal archive file
// ready for the classfile decoder to enumerate.
type Element struct {
	CanonicalPath string
	IsDirectory   bool
	PackageRoots  []string
	NestedLibJars []string
	IsSystemJar   bool
	Manifest      Manifest

	// ExtractedRoots holds, when CreateClassLoaderForMatches is set, one
	// real filesystem directory per entry in PackageRoots (same index),
	// physically unzipped from CanonicalPath. A classloader can't load
	// classes from a byte range inside a jar without help, so this option
	// materializes the matched package root on disk the way a real
	// classloader would need it staged.
	ExtractedRoots []string
}

// Resolver turns classpath-element strings into Elements. One Resolver
// is scoped to a single scan; Shutdown must be called exactly once, at
// the end of the scan, to release handles and unwind temp files.
type Resolver struct {
	spec    *scanspec.Spec
	log     *diagnostics.Logger
	client  *http.Client
	singles *singletons
	handles *handleRegistry
	cleanup *cleanupQueue
}

// NewResolver returns a Resolver configured by spec, reporting through
// log.
func NewResolver(spec *scanspec.Spec, log *diagnostics.Logger) *Resolver {
	return &Resolver{
		spec:    spec,
		log:     log,
		client:  &http.Client{Timeout: 60 * time.Second},
		singles: newSingletons(),
		handles: newHandleRegistry(),
		cleanup: newCleanupQueue(),
	}
}

// Resolve turns a raw classpath-element string (possibly `!`-joined) into
// an Element, building it at most once per logical key even under
// concurrent callers.
func (r *Resolver) Resolve(ctx context.Context, rawPath string) (*Element, error) {
	segments := SplitPath(rawPath)
	if len(segments) == 0 {
		return nil, ErrEmptyPath
	}
	key := strings.Join(segments, "!")
	return r.singles.getOrBuild(key, func() (*Element, error) {
		return r.build(ctx, segments)
	})
}

func (r *Resolver) build(ctx context.Context, segments []string) (*Element, error) {
	physicalPath, err := r.materialize(ctx, segments[0])
	if err != nil {
		return nil, fmt.Errorf("archive: resolving %q: %w", segments[0], err)
	}

	if r.spec != nil && r.spec.StripSelfExtractingHeader() {
		stripped, err := r.stripSelfExtractingHeader(physicalPath)
		if err != nil {
			return nil, err
		}
		physicalPath = stripped
	}

	for _, seg := range segments[1:] {
		entryPath, isDir, err := r.extractEntry(physicalPath, seg)
		if err != nil {
			return nil, err
		}
		if isDir {
			return &Element{CanonicalPath: physicalPath, IsDirectory: true, PackageRoots: []string{seg}}, nil
		}
		physicalPath = entryPath
	}

	return r.inspectArchive(physicalPath)
}

// materialize resolves segment 0, which is either a local path used
// as-is or a remote URL fetched to a tracked temp file.
func (r *Resolver) materialize(ctx context.Context, segment string) (string, error) {
	if !IsRemote(segment) {
		return segment, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, segment, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive: remote fetch %q: status %d", segment, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "classgraph-remote-"+SanitizeURLForFilename(segment)+"-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	r.cleanup.track(f.Name())
	return f.Name(), nil
}

// stripSelfExtractingHeader implements §4.2's self-extracting-archive
// prefix handling: find the first "PK" marker and copy from there into a
// fresh temp file.
func (r *Resolver) stripSelfExtractingHeader(physicalPath string) (string, error) {
	data, err := os.ReadFile(physicalPath)
	if err != nil {
		return "", err
	}
	offset := bytes.Index(data, []byte("PK"))
	if offset < 0 {
		return "", ErrNoArchiveMarker
	}
	if offset == 0 {
		return physicalPath, nil
	}

	f, err := os.CreateTemp("", "classgraph-stripped-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data[offset:]); err != nil {
		return "", err
	}
	r.cleanup.track(f.Name())
	return f.Name(), nil
}

// extractEntry looks up segName within the archive at archivePath. A
// directory entry terminates recursion and is reported as a package
// root; a file entry is extracted to a uniquely-named temp file.
func (r *Resolver) extractEntry(archivePath, segName string) (physicalPath string, isDir bool, err error) {
	pool := r.handles.poolFor(archivePath)
	handle, err := pool.acquire()
	if err != nil {
		return "", false, err
	}
	defer pool.release(handle)

	want := strings.TrimSuffix(segName, "/")
	for _, f := range handle.File {
		name := strings.TrimSuffix(f.Name, "/")
		if name != want {
			continue
		}
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			return "", true, nil
		}

		rc, err := f.Open()
		if err != nil {
			return "", false, err
		}
		defer rc.Close()

		out, err := os.CreateTemp("", "classgraph-entry-*-"+path.Base(f.Name))
		if err != nil {
			return "", false, err
		}
		defer out.Close()
		if _, err := io.Copy(out, rc); err != nil {
			return "", false, err
		}
		r.cleanup.track(out.Name())
		return out.Name(), false, nil
	}
	return "", false, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, segName, archivePath)
}

// inspectArchive implements the manifest parsing and package-root
// discovery portions of §4.2 for a terminal archive file.
func (r *Resolver) inspectArchive(physicalPath string) (*Element, error) {
	pool := r.handles.poolFor(physicalPath)
	handle, err := pool.acquire()
	if err != nil {
		return nil, err
	}
	defer pool.release(handle)

	elem := &Element{CanonicalPath: physicalPath}

	for _, f := range handle.File {
		if f.Name == "META-INF/MANIFEST.MF" {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			raw, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			elem.Manifest = ParseManifest(string(raw))
			elem.IsSystemJar = IsSystemJar(string(raw))
			break
		}
	}

	classesRoot := "BOOT-INF/classes/"
	if elem.Manifest.SpringBootClasses != "" {
		classesRoot = strings.TrimSuffix(elem.Manifest.SpringBootClasses, "/") + "/"
	}
	libDirs := defaultLibDirs
	if elem.Manifest.SpringBootLib != "" {
		libDirs = append([]string{strings.TrimSuffix(elem.Manifest.SpringBootLib, "/") + "/"}, defaultLibDirs[1:]...)
	}

	seenRoots := make(map[string]struct{})
	for _, f := range handle.File {
		switch {
		case strings.HasPrefix(f.Name, classesRoot):
			if _, ok := seenRoots[classesRoot]; !ok {
				elem.PackageRoots = append(elem.PackageRoots, strings.TrimSuffix(classesRoot, "/"))
				seenRoots[classesRoot] = struct{}{}
			}
		case strings.HasPrefix(f.Name, "WEB-INF/classes/"):
			if _, ok := seenRoots["WEB-INF/classes"]; !ok {
				elem.PackageRoots = append(elem.PackageRoots, "WEB-INF/classes")
				seenRoots["WEB-INF/classes"] = struct{}{}
			}
		case strings.HasSuffix(f.Name, ".jar"):
			for _, dir := range libDirs {
				if strings.HasPrefix(f.Name, dir) {
					elem.NestedLibJars = append(elem.NestedLibJars, physicalPath+"!"+f.Name)
					break
				}
			}
		}
	}

	// NestedLibJars is always populated; AddNestedLibJars only controls
	// whether the scan driver actually adds these to the classpath set,
	// not whether the resolver discovers them.

	if r.spec != nil && r.spec.CreateClassLoaderForMatches() {
		for _, root := range elem.PackageRoots {
			dir, err := r.extractPackageRoot(physicalPath, root)
			if err != nil {
				return nil, fmt.Errorf("archive: unzipping package root %q: %w", root, err)
			}
			elem.ExtractedRoots = append(elem.ExtractedRoots, dir)
		}
	}

	return elem, nil
}

// extractPackageRoot physically unzips every entry under root (an
// archive-internal prefix such as "BOOT-INF/classes") from archivePath
// into a fresh temp directory, tracked for removal at Shutdown. Used by
// CreateClassLoaderForMatches, which needs matched classes staged as real
// files rather than byte ranges inside a jar.
func (r *Resolver) extractPackageRoot(archivePath, root string) (string, error) {
	pool := r.handles.poolFor(archivePath)
	handle, err := pool.acquire()
	if err != nil {
		return "", err
	}
	defer pool.release(handle)

	dir, err := os.MkdirTemp("", "classgraph-unzip-*")
	if err != nil {
		return "", err
	}
	r.cleanup.track(dir)

	prefix := strings.TrimSuffix(root, "/") + "/"
	for _, f := range handle.File {
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(f.Name, prefix)
		if rel == "" {
			continue
		}
		destPath := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return "", err
		}
		if err := extractZipEntryTo(f, destPath); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// extractZipEntryTo copies one zip entry's contents to destPath.
func extractZipEntryTo(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// Shutdown drains every handle pool and unwinds every tracked temp file,
// returning the first error encountered (a handle leak or a removal
// failure) after attempting all of them.
func (r *Resolver) Shutdown() error {
	leakErr := r.handles.shutdown()
	removeErrs := r.cleanup.unwind()
	if leakErr != nil {
		return leakErr
	}
	if len(removeErrs) > 0 {
		return removeErrs[0]
	}
	return nil
}
