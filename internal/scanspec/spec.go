// Package scanspec carries a scan's configuration: the package-prefix
// whitelist/blacklist, the classpath/classloader overrides, and the
// static-final-field match callbacks the decoder consults while reading
// fields. It generalizes the teacher's graph.Env accessor struct
// (graph/query.go) from a dozen bespoke query-result getters to a single
// fluent configuration object consulted during a scan rather than after
// one.
package scanspec

import (
	"strings"

	"github.com/classgraph/classgraph-go/internal/diagnostics"
)

// StaticFinalFieldCallback receives the coerced constant value of a
// registered static-final field as the decoder encounters it.
type StaticFinalFieldCallback func(className, fieldName string, value interface{})

// Spec is built with the With* methods, each returning the same *Spec so
// calls can be chained, mirroring the fluent builder the root-level
// facade exposes to callers.
type Spec struct {
	whitelistPrefixes []string
	blacklistPrefixes []string

	blacklistSystemJars bool

	overrideClasspath     []string
	overrideClassLoaders  []string
	ignoreParentLoaders   bool
	createLoaderForMatch  bool
	stripSelfExtractingPE bool
	addNestedLibJars      bool

	fieldCallbacks map[string]StaticFinalFieldCallback

	log *diagnostics.Logger
}

// New returns a Spec with no whitelist (matches every name not
// blacklisted until WithWhitelist is called) and every boolean option at
// its conservative default.
func New(log *diagnostics.Logger) *Spec {
	return &Spec{
		fieldCallbacks: make(map[string]StaticFinalFieldCallback),
		log:            log,
	}
}

func (s *Spec) WithWhitelist(prefixes ...string) *Spec {
	s.whitelistPrefixes = append(s.whitelistPrefixes, prefixes...)
	return s
}

func (s *Spec) WithBlacklist(prefixes ...string) *Spec {
	s.blacklistPrefixes = append(s.blacklistPrefixes, prefixes...)
	return s
}

func (s *Spec) WithBlacklistSystemJars() *Spec {
	s.blacklistSystemJars = true
	return s
}

// WithOverrideClasspath and WithOverrideClassLoaders are mutually
// exclusive; per §4.5, a classpath override wins and the classloader
// override is ignored with a warning, resolved lazily in Classpath() so
// call order never matters.
func (s *Spec) WithOverrideClasspath(roots ...string) *Spec {
	s.overrideClasspath = append(s.overrideClasspath, roots...)
	return s
}

func (s *Spec) WithOverrideClassLoaders(loaders ...string) *Spec {
	s.overrideClassLoaders = append(s.overrideClassLoaders, loaders...)
	return s
}

func (s *Spec) WithIgnoreParentClassLoaders() *Spec {
	s.ignoreParentLoaders = true
	return s
}

func (s *Spec) WithCreateClassLoaderForMatches() *Spec {
	s.createLoaderForMatch = true
	return s
}

func (s *Spec) WithStripSelfExtractingHeader() *Spec {
	s.stripSelfExtractingPE = true
	return s
}

func (s *Spec) WithAddNestedLibJars() *Spec {
	s.addNestedLibJars = true
	return s
}

// RegisterStaticFinalField asks the decoder to deliver the coerced
// constant value of className.fieldName, if it encounters that
// static-final field, to cb.
func (s *Spec) RegisterStaticFinalField(className, fieldName string, cb StaticFinalFieldCallback) *Spec {
	s.fieldCallbacks[className+"."+fieldName] = cb
	return s
}

// FieldCallback looks up a registered static-final-field callback.
func (s *Spec) FieldCallback(className, fieldName string) (StaticFinalFieldCallback, bool) {
	cb, ok := s.fieldCallbacks[className+"."+fieldName]
	return cb, ok
}

func (s *Spec) CreateClassLoaderForMatches() bool { return s.createLoaderForMatch }
func (s *Spec) StripSelfExtractingHeader() bool    { return s.stripSelfExtractingPE }
func (s *Spec) AddNestedLibJars() bool             { return s.addNestedLibJars }
func (s *Spec) IgnoreParentClassLoaders() bool     { return s.ignoreParentLoaders }
func (s *Spec) BlacklistSystemJars() bool          { return s.blacklistSystemJars }

// Classpath resolves the override conflict described in §4.5: a
// classpath override always wins over a classloader override. Logs an
// ConfigurationConflict-class warning on every call made while both are set.
func (s *Spec) Classpath() (roots []string, classLoaderOverride bool) {
	if len(s.overrideClasspath) > 0 {
		if len(s.overrideClassLoaders) > 0 && s.log != nil {
			s.log.Warning(nil, "override classpath and override classloaders both set; ignoring classloader override")
		}
		return s.overrideClasspath, false
	}
	if len(s.overrideClassLoaders) > 0 {
		return s.overrideClassLoaders, true
	}
	return nil, false
}

// Whitelisted reports whether a dotted fully-qualified name is both
// whitelisted (or the whitelist is empty, meaning "everything") and not
// blacklisted. An empty whitelist matches every name not explicitly
// blacklisted; this mirrors the common case of "scan everything except
// these prefixes".
func (s *Spec) Whitelisted(fqn string) bool {
	for _, prefix := range s.blacklistPrefixes {
		if hasPackagePrefix(fqn, prefix) {
			return false
		}
	}
	if len(s.whitelistPrefixes) == 0 {
		return true
	}
	for _, prefix := range s.whitelistPrefixes {
		if hasPackagePrefix(fqn, prefix) {
			return true
		}
	}
	return false
}

// WhitelistedPath is Whitelisted for an archive-relative path using `/`
// separators instead of a dotted FQN; used by the scanner when deciding
// whether to read a .class entry before the class inside it has even been
// named.
func (s *Spec) WhitelistedPath(relPath string) bool {
	return s.Whitelisted(strings.ReplaceAll(relPath, "/", "."))
}

// hasPackagePrefix reports whether fqn is prefix or a member of the
// package rooted at prefix: equal, or prefix followed by a dot.
func hasPackagePrefix(fqn, prefix string) bool {
	if fqn == prefix {
		return true
	}
	return strings.HasPrefix(fqn, prefix+".")
}
