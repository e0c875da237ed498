package classgraph

import "sort"

// Query is the read-only view exposed once a Builder has been finalized.
// It generalizes the teacher's graph.Env accessor struct (graph/query.go)
// from a dozen bespoke field getters to the handful of relations the
// spec's invariants name directly.
type Query struct {
	b *Builder
}

// NewQuery wraps a finalized Builder. Calling it before Finalize has run
// is a programmer error; every method below returns empty results rather
// than panicking, since a scan that errors out before finalizing should
// still let its caller inspect whatever partial state exists.
func NewQuery(b *Builder) *Query {
	return &Query{b: b}
}

// AllClassNames returns every real (non-placeholder) class, interface, and
// annotation name, in insertion order. A masked duplicate or an
// unresolved placeholder never appears here.
func (q *Query) AllClassNames() []string {
	q.b.mu.Lock()
	defer q.b.mu.Unlock()
	out := make([]string, 0, len(q.b.insertOrder))
	out = append(out, q.b.insertOrder...)
	return out
}

// ClassKind reports the Kind of a real (non-placeholder) name, for
// callers that need to categorize AllClassNames() output without a
// second pass through the decoded ClassInfo records.
func (q *Query) ClassKind(name string) (Kind, bool) {
	q.b.mu.Lock()
	defer q.b.mu.Unlock()
	n, ok := q.b.nodes[name]
	if !ok || n.IsPlaceholder() {
		return 0, false
	}
	return n.Kind, true
}

// ClassesWithAnnotation returns every class or interface directly or
// (via meta-annotation) transitively annotated with annotationName.
// An unknown name returns an empty slice, never an error.
func (q *Query) ClassesWithAnnotation(annotationName string) []*ClassInfo {
	q.b.mu.Lock()
	defer q.b.mu.Unlock()
	return q.b.classesByAnnotation[annotationName]
}

// ClassesImplementing returns every class that declares interfaceName or
// one of its subinterfaces, directly or via a superclass. An unknown name
// returns an empty slice, never an error.
func (q *Query) ClassesImplementing(interfaceName string) []*ClassInfo {
	q.b.mu.Lock()
	defer q.b.mu.Unlock()
	return q.b.classesByInterface[interfaceName]
}

// SubclassesOf returns every class transitively extending className,
// by name, in insertion order. Includes subclasses whose own superclass
// chain passes through an unresolved placeholder as long as className
// itself is a resolved ancestor somewhere in that chain.
func (q *Query) SubclassesOf(className string) []string {
	return q.relatedNames(className, true)
}

// SuperclassesOf returns every class transitively extended by className,
// by name, in a fixed deterministic order. A superclass reference outside
// the classpath appears here as a placeholder name even though it is
// absent from AllClassNames.
func (q *Query) SuperclassesOf(className string) []string {
	return q.relatedNames(className, false)
}

// SubinterfacesOf returns every interface transitively extending
// interfaceName.
func (q *Query) SubinterfacesOf(interfaceName string) []string {
	return q.relatedNames(interfaceName, true)
}

// SuperinterfacesOf returns every interface transitively extended by
// interfaceName.
func (q *Query) SuperinterfacesOf(interfaceName string) []string {
	return q.relatedNames(interfaceName, false)
}

// relatedNames is the shared implementation behind the four ancestor/
// descendant query pairs: they all read the same AllSuperNodes/
// AllSubNodes maps computed at finalize, differing only in which side of
// the edge they walk. An unknown name yields nil.
func (q *Query) relatedNames(name string, subs bool) []string {
	q.b.mu.Lock()
	defer q.b.mu.Unlock()
	node, ok := q.b.nodes[name]
	if !ok {
		return nil
	}
	set := node.AllSuperNodes
	if subs {
		set = node.AllSubNodes
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for _, insertedName := range q.b.insertOrder {
		n := q.b.nodes[insertedName]
		if _, ok := set[n]; ok {
			out = append(out, n.Name)
		}
	}
	// Placeholders never appear in insertOrder (only real Accept calls add
	// to it), so a placeholder ancestor/descendant would be silently
	// dropped by the loop above. Append any remaining set members — this
	// only ever fires for SuperclassesOf/SuperinterfacesOf, since a
	// placeholder can only be a super, never a sub (see builder.go).
	if len(out) < len(set) {
		seen := make(map[string]struct{}, len(out))
		for _, n := range out {
			seen[n] = struct{}{}
		}
		var placeholders []string
		for n := range set {
			if _, ok := seen[n.Name]; !ok {
				placeholders = append(placeholders, n.Name)
			}
		}
		// set is a map, so iteration order is random; sort the trailing
		// placeholder names for a deterministic result on a fixed input.
		sort.Strings(placeholders)
		out = append(out, placeholders...)
	}
	return out
}
