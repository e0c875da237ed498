// Package classgraph is the public surface of this module: a fluent
// configuration builder (Scanner) and a Scan operation that resolves a
// classpath, decodes every matching classfile, and returns a read-only
// query object over the resulting class graph.
//
// It is the root-level counterpart to internal/classgraph, which does
// the graph bookkeeping but is deliberately silent on how classfiles get
// found and read in the first place — that's this file's job, wiring
// internal/scanspec, internal/archive, internal/classfile, and
// internal/workqueue together the way cmd/classgraph's scan subcommand
// needs them wired.
package classgraph

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/classgraph/classgraph-go/internal/archive"
	"github.com/classgraph/classgraph-go/internal/classfile"
	icg "github.com/classgraph/classgraph-go/internal/classgraph"
	"github.com/classgraph/classgraph-go/internal/diagnostics"
	"github.com/classgraph/classgraph-go/internal/scanspec"
	"github.com/classgraph/classgraph-go/internal/workqueue"
)

// Re-exported so callers never need to import the internal package
// directly to hold a value this API hands them.
type (
	ClassInfo = icg.ClassInfo
	Kind      = icg.Kind
	Query     = icg.Query
)

const (
	KindClass      = icg.KindClass
	KindInterface  = icg.KindInterface
	KindAnnotation = icg.KindAnnotation
)

// MatchProcessor is invoked once for every class accepted into the
// graph, in scan-element enumeration order (decoding itself runs
// concurrently, but Scan restores enumeration order before calling
// Accept so first-wins masking and these callbacks both see a
// deterministic sequence). Registered callbacks fire regardless of
// Kind; callers that only care about one kind check ClassInfo.Kind
// themselves.
type MatchProcessor func(*ClassInfo)

// Scanner is the fluent configuration object a caller builds up before
// calling Scan. Every With-style method mirrors one on the underlying
// scanspec.Spec; Scanner exists as a separate type so the scan
// orchestration (classpath walking, decode dispatch) lives at this
// level instead of being bolted onto the configuration object itself.
type Scanner struct {
	spec    *scanspec.Spec
	log     *diagnostics.Logger
	workers int

	mu              sync.Mutex
	matchProcessors []MatchProcessor
}

// NewScanner returns a Scanner with no whitelist, every option at its
// conservative default, and four decode workers. Pass nil for log to
// get a default stderr logger at LevelDefault.
func NewScanner(log *diagnostics.Logger) *Scanner {
	if log == nil {
		log = diagnostics.New(diagnostics.LevelDefault)
	}
	return &Scanner{spec: scanspec.New(log), log: log, workers: 4}
}

func (s *Scanner) Whitelist(prefixes ...string) *Scanner {
	s.spec.WithWhitelist(prefixes...)
	return s
}

func (s *Scanner) Blacklist(prefixes ...string) *Scanner {
	s.spec.WithBlacklist(prefixes...)
	return s
}

func (s *Scanner) BlacklistSystemJars() *Scanner {
	s.spec.WithBlacklistSystemJars()
	return s
}

func (s *Scanner) OverrideClasspath(roots ...string) *Scanner {
	s.spec.WithOverrideClasspath(roots...)
	return s
}

func (s *Scanner) OverrideClassLoaders(loaders ...string) *Scanner {
	s.spec.WithOverrideClassLoaders(loaders...)
	return s
}

func (s *Scanner) IgnoreParentClassLoaders() *Scanner {
	s.spec.WithIgnoreParentClassLoaders()
	return s
}

func (s *Scanner) CreateClassLoaderForMatches() *Scanner {
	s.spec.WithCreateClassLoaderForMatches()
	return s
}

func (s *Scanner) StripSelfExtractingHeader() *Scanner {
	s.spec.WithStripSelfExtractingHeader()
	return s
}

func (s *Scanner) AddNestedLibJars() *Scanner {
	s.spec.WithAddNestedLibJars()
	return s
}

// Workers sets the decode worker-pool size. The default is 4.
func (s *Scanner) Workers(n int) *Scanner {
	if n > 0 {
		s.workers = n
	}
	return s
}

// RegisterStaticFinalField asks the decoder to deliver the coerced
// constant value of className.fieldName to cb as it's encountered.
func (s *Scanner) RegisterStaticFinalField(className, fieldName string, cb scanspec.StaticFinalFieldCallback) *Scanner {
	s.spec.RegisterStaticFinalField(className, fieldName, cb)
	return s
}

// OnMatch registers a callback fired for every class, interface, and
// annotation accepted into the graph during Scan.
func (s *Scanner) OnMatch(mp MatchProcessor) *Scanner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchProcessors = append(s.matchProcessors, mp)
	return s
}

// Result wraps the finalized Query with the aggregate counts a CLI
// summary or telemetry report needs.
type Result struct {
	*Query
	ClassCount      int
	InterfaceCount  int
	AnnotationCount int
	ArchiveCount    int
	RejectedCount   int
	Elapsed         time.Duration
}

type decodeJob struct {
	idx    int // position in scan-element enumeration order, for ordered first-wins
	origin icg.Origin
	data   []byte
}

// decodeOutcome pairs a decoded result with its job's enumeration index.
// workqueue.Pool.Run returns results in completion order, not job order,
// so first-wins masking can't be decided at decode time without racing
// on which worker happens to finish first; carrying idx through lets Scan
// restore enumeration order before handing results to Builder.Accept,
// whose own first-wins (the first Accept call for a name wins, later
// ones are silently dropped) then implements the rule correctly.
type decodeOutcome struct {
	idx int
	res *classfile.Result
}

// Scan resolves every classpath root (falling back to the spec's
// override classpath/classloaders if roots is empty), decodes every
// whitelisted classfile it finds, and returns the finalized graph.
func (s *Scanner) Scan(ctx context.Context, roots ...string) (*Result, error) {
	start := time.Now()

	if len(roots) == 0 {
		cp, _ := s.spec.Classpath()
		roots = cp
	}

	resolver := archive.NewResolver(s.spec, s.log)
	defer func() {
		if err := resolver.Shutdown(); err != nil {
			s.log.Warning(err, "archive resolver shutdown")
		}
	}()

	jobs, archiveCount, err := s.discoverClassfiles(ctx, resolver, roots)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].idx = i
	}

	pool := &workqueue.Pool[decodeJob, decodeOutcome]{
		Workers: s.workers,
		Process: func(_ context.Context, job decodeJob) (decodeOutcome, error) {
			dec := classfile.Acquire(s.spec, s.log)
			defer classfile.Release(dec)
			res, err := dec.Decode(bytes.NewReader(job.data), job.origin, nil)
			return decodeOutcome{idx: job.idx, res: res}, err
		},
		OnError: func(job decodeJob, err error) {
			s.log.Warning(err, "rejected classfile %s", job.origin.RelPath)
		},
	}

	decoded, err := pool.Run(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("classgraph: decode: %w", err)
	}

	sort.Slice(decoded, func(i, j int) bool { return decoded[i].idx < decoded[j].idx })

	builder := icg.NewBuilder()
	rejected := 0
	s.mu.Lock()
	processors := append([]MatchProcessor(nil), s.matchProcessors...)
	s.mu.Unlock()

	accepted := make(map[string]struct{})
	for _, d := range decoded {
		r := d.res
		if r == nil || r.IsRoot || r.Info == nil {
			continue
		}
		if _, masked := accepted[r.Info.Name]; masked {
			continue
		}
		if err := builder.Accept(r.Info); err != nil {
			rejected++
			s.log.Warning(err, "rejected %s", r.Info.Name)
			continue
		}
		accepted[r.Info.Name] = struct{}{}
		for _, mp := range processors {
			mp(r.Info)
		}
	}

	if err := builder.Finalize(); err != nil {
		return nil, fmt.Errorf("classgraph: finalize: %w", err)
	}

	query := icg.NewQuery(builder)
	res := &Result{Query: query, ArchiveCount: archiveCount, RejectedCount: rejected, Elapsed: time.Since(start)}
	for _, name := range query.AllClassNames() {
		kind, ok := query.ClassKind(name)
		if !ok {
			continue
		}
		switch kind {
		case icg.KindClass:
			res.ClassCount++
		case icg.KindInterface:
			res.InterfaceCount++
		case icg.KindAnnotation:
			res.AnnotationCount++
		}
	}
	return res, nil
}

// discoverClassfiles walks every classpath root, returning one
// decodeJob per whitelisted .class file found. A root that is a plain
// filesystem directory is walked directly; anything else (a jar, a
// nested-archive path) goes through the resolver.
func (s *Scanner) discoverClassfiles(ctx context.Context, resolver *archive.Resolver, roots []string) ([]decodeJob, int, error) {
	var jobs []decodeJob
	archiveCount := 0

	for _, root := range roots {
		if !strings.Contains(root, "!") {
			if info, err := os.Stat(root); err == nil && info.IsDir() {
				dirJobs, err := s.walkDirectory(root)
				if err != nil {
					return nil, 0, err
				}
				jobs = append(jobs, dirJobs...)
				continue
			}
		}

		archiveJobs, n, err := s.walkArchive(ctx, resolver, root)
		if err != nil {
			s.log.Warning(err, "resolving classpath element %s", root)
			continue
		}
		archiveCount += n
		jobs = append(jobs, archiveJobs...)
	}
	return jobs, archiveCount, nil
}

func (s *Scanner) walkDirectory(root string) ([]decodeJob, error) {
	var jobs []decodeJob
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".class" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !s.spec.WhitelistedPath(strings.TrimSuffix(rel, ".class")) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warning(err, "reading %s", path)
			return nil
		}
		jobs = append(jobs, decodeJob{origin: icg.Origin{Element: root, RelPath: rel}, data: data})
		return nil
	})
	return jobs, err
}

// walkArchive resolves root to a terminal archive and collects every
// whitelisted .class entry under its discovered package roots,
// descending into nested lib jars when the spec asks for it.
func (s *Scanner) walkArchive(ctx context.Context, resolver *archive.Resolver, root string) ([]decodeJob, int, error) {
	elem, err := resolver.Resolve(ctx, root)
	if err != nil {
		return nil, 0, err
	}
	if elem.IsDirectory {
		return nil, 0, nil
	}
	if s.spec.BlacklistSystemJars() && elem.IsSystemJar {
		s.log.Debug(elem.CanonicalPath, 0, "excluding system jar %s from enumeration", elem.CanonicalPath)
		return nil, 0, nil
	}

	var jobs []decodeJob
	if len(elem.ExtractedRoots) > 0 {
		// CreateClassLoaderForMatches already unzipped the matched package
		// roots to real directories; walk those instead of re-reading the
		// same entries out of the jar, but report origins against the jar
		// itself so output still names the classpath element a caller
		// actually configured rather than a temp extraction directory.
		for i, dir := range elem.ExtractedRoots {
			dirJobs, err := s.walkDirectory(dir)
			if err != nil {
				return nil, 0, err
			}
			for j := range dirJobs {
				dirJobs[j].origin.Element = elem.CanonicalPath + "!" + elem.PackageRoots[i]
			}
			jobs = append(jobs, dirJobs...)
		}
	} else {
		jobs, err = s.readJarEntries(elem)
		if err != nil {
			return nil, 0, err
		}
	}
	count := 1

	if s.spec.AddNestedLibJars() {
		for _, nested := range elem.NestedLibJars {
			nestedJobs, n, err := s.walkArchive(ctx, resolver, nested)
			if err != nil {
				s.log.Warning(err, "resolving nested lib jar %s", nested)
				continue
			}
			jobs = append(jobs, nestedJobs...)
			count += n
		}
	}
	return jobs, count, nil
}

func (s *Scanner) readJarEntries(elem *archive.Element) ([]decodeJob, error) {
	rc, err := zip.OpenReader(elem.CanonicalPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	roots := elem.PackageRoots
	var jobs []decodeJob
	for _, f := range rc.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		rel, element := f.Name, elem.CanonicalPath
		if len(roots) > 0 {
			if !underAnyRoot(f.Name, roots) {
				continue
			}
			for _, r := range roots {
				if strings.HasPrefix(f.Name, r+"/") {
					rel, element = strings.TrimPrefix(f.Name, r+"/"), elem.CanonicalPath+"!"+r
					break
				}
			}
		}
		if !s.spec.WhitelistedPath(strings.TrimSuffix(rel, ".class")) {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			s.log.Warning(err, "reading %s from %s", f.Name, elem.CanonicalPath)
			continue
		}
		jobs = append(jobs, decodeJob{
			origin: icg.Origin{Element: element, RelPath: rel},
			data:   data,
		})
	}
	return jobs, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func underAnyRoot(name string, roots []string) bool {
	for _, r := range roots {
		if strings.HasPrefix(name, r+"/") {
			return true
		}
	}
	return false
}
