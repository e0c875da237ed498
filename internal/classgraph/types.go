// Package classgraph accumulates per-class facts produced by the classfile
// decoder into a directed graph, computes transitive super/sub closures,
// and answers the annotation/interface/subclass queries. It generalizes the
// teacher's CodeGraph/Node (graph/construct.go, graph/types.go) from a
// source-AST graph to a class-relation graph: one Kind-tagged node type
// instead of a type hierarchy (spec design note: "multiple inheritance of
// graph state"), no per-statement node types (IfStmt, BinaryExpr, ...) since
// this graph never holds method bodies.
package classgraph

// Kind discriminates the three disjoint categories a GraphNode can belong
// to. A classfile whose access flags mark it both interface and annotation
// is classified Annotation; an interface-only entry is Interface; anything
// else is Class.
type Kind int

const (
	KindClass Kind = iota
	KindInterface
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// Origin records where a ClassInfo was first observed: the classpath
// element it came from and its path within that element. Used for the
// first-wins masking rule and for diagnostics.
type Origin struct {
	Element string // classpath element identifier, e.g. an archive path
	RelPath string // within-element relative path, e.g. "p/Foo.class"
}

// ClassInfo is the fact set the decoder extracts for one classfile: name,
// kind, superclass, declared interfaces, declared annotations, and
// (optionally) field type names. One ClassInfo exists per distinct FQN
// that was actually decoded from a classfile on the classpath (as opposed
// to a placeholder node, which has no backing ClassInfo).
type ClassInfo struct {
	Name            string
	Kind            Kind
	SuperclassName  string // empty only for the root class (java.lang.Object)
	InterfaceNames  []string
	AnnotationNames map[string]struct{}
	FieldTypeNames  map[string]struct{} // filled whenever a field references a whitelisted class; no option turns this off; nil if no field does
	Origin          Origin
}

// NewClassInfo builds a ClassInfo with initialized set fields.
func NewClassInfo(name string, kind Kind, origin Origin) *ClassInfo {
	return &ClassInfo{
		Name:            name,
		Kind:            kind,
		AnnotationNames: make(map[string]struct{}),
		Origin:          origin,
	}
}

// GraphNode is the internal node type associated one-to-one with a
// ClassInfo, plus one extra category for placeholder nodes: names
// referenced as a super/interface/annotation but never themselves decoded
// (e.g. system classes outside the whitelist). Placeholders never appear
// as the target of a query, only as intermediate edges.
type GraphNode struct {
	Name string
	Kind Kind
	Info *ClassInfo // nil for a placeholder node

	DirectSuperNodes []*GraphNode // ordered, as declared in the classfile
	DirectSubNodes   []*GraphNode

	AllSuperNodes map[*GraphNode]struct{} // transitive closure, filled at finalize
	AllSubNodes   map[*GraphNode]struct{}

	// CrossLinks: for an annotation node, the set of class nodes it
	// annotates; for a standard class node, the set of interface nodes it
	// declares as implemented. Meaningless (left empty) for other Kind/role
	// combinations — this is the Kind-specific side table the design note
	// calls for instead of a type hierarchy.
	CrossLinks map[*GraphNode]struct{}
}

func newGraphNode(name string, kind Kind) *GraphNode {
	return &GraphNode{
		Name:          name,
		Kind:          kind,
		AllSuperNodes: make(map[*GraphNode]struct{}),
		AllSubNodes:   make(map[*GraphNode]struct{}),
		CrossLinks:    make(map[*GraphNode]struct{}),
	}
}

// IsPlaceholder reports whether this node has no backing ClassInfo.
func (n *GraphNode) IsPlaceholder() bool {
	return n.Info == nil
}

func addUniqueSuper(n *GraphNode, super *GraphNode) {
	for _, s := range n.DirectSuperNodes {
		if s == super {
			return
		}
	}
	n.DirectSuperNodes = append(n.DirectSuperNodes, super)
}

func addUniqueSub(n *GraphNode, sub *GraphNode) {
	for _, s := range n.DirectSubNodes {
		if s == sub {
			return
		}
	}
	n.DirectSubNodes = append(n.DirectSubNodes, sub)
}
