package classgraph

import "sync"

// Builder accumulates ClassInfo records during a scan and, after a single
// Finalize call, exposes the read-only query surface. It generalizes the
// teacher's CodeGraph (graph/construct.go): AddNode/AddEdge become
// Accept's node-and-edge bookkeeping, and FindNodesByType's linear map
// scan becomes the precomputed query maps built at finalize.
//
// Mutation is confined to the build phase: Accept takes the write lock,
// Finalize runs once behind a barrier, and every query method after that
// only reads immutable state. A fresh scan uses a fresh Builder — Reset
// clears this one back to the pre-accept state instead.
type Builder struct {
	mu sync.Mutex

	nodes map[string]*GraphNode // FQN -> node, both real and placeholder

	finalized bool

	// Populated by Finalize; nil before it runs.
	classesByAnnotation map[string][]*ClassInfo
	classesByInterface  map[string][]*ClassInfo
	insertOrder         []string // FQN insertion order, for deterministic list output
}

// NewBuilder returns an empty Builder ready to accept ClassInfo records.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]*GraphNode)}
}

// Reset clears all maps and returns the builder to the pre-accept state.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = make(map[string]*GraphNode)
	b.finalized = false
	b.classesByAnnotation = nil
	b.classesByInterface = nil
	b.insertOrder = nil
}

// ensureNode returns the node for name, creating a placeholder of the given
// kind if it doesn't exist yet. Must be called with mu held.
func (b *Builder) ensureNode(name string, kind Kind) *GraphNode {
	if n, ok := b.nodes[name]; ok {
		return n
	}
	n := newGraphNode(name, kind)
	b.nodes[name] = n
	return n
}

// Accept registers one decoded ClassInfo. Per spec.md's first-wins
// masking rule, decoders are expected to reject a duplicate FQN before
// ever calling Accept again for it (the decoder/scan-spec boundary owns
// masking); Accept itself assumes it is called at most once per FQN
// within a scan and will silently keep the first registration if called
// again, mirroring "the later one is discarded silently".
func (b *Builder) Accept(info *ClassInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return ErrAlreadyFinalized
	}

	existing, ok := b.nodes[info.Name]
	if ok && existing.Info != nil {
		// First-wins: a placeholder promoted earlier is fine to overwrite,
		// but a second real ClassInfo for the same name is masked.
		return nil
	}

	var node *GraphNode
	if ok {
		// Promote the existing placeholder.
		node = existing
		node.Kind = info.Kind
	} else {
		node = newGraphNode(info.Name, info.Kind)
		b.nodes[info.Name] = node
	}
	node.Info = info
	b.insertOrder = append(b.insertOrder, info.Name)

	if info.SuperclassName != "" && node.Kind == KindClass {
		// The class forest is kept pure (class-to-class edges only) so its
		// closure can be computed separately from the interface DAG, per
		// §4.3 point 2. Interfaces/annotations also carry a super_class
		// entry in the raw classfile (always java.lang.Object), but
		// modeling it here would mix an interface-kind node's ancestors
		// into the class forest; it carries no information the graph's
		// consumers need, so it is not recorded as an edge.
		superNode := b.ensureNode(info.SuperclassName, KindClass)
		addUniqueSuper(node, superNode)
		addUniqueSub(superNode, node)
	}

	for _, ifaceName := range info.InterfaceNames {
		ifaceNode := b.ensureNode(ifaceName, KindInterface)
		if node.Kind == KindClass {
			// "implements" is a cross-cutting link, not a hierarchy edge:
			// it must not appear in the class forest's direct-super chain,
			// or subclasses_of/superclasses_of would conflate interfaces
			// implemented with classes extended. Point 4 of §4.3 derives
			// classes_implementing from CrossLinks plus the separate
			// interface DAG and class-forest closures.
			node.CrossLinks[ifaceNode] = struct{}{}
		} else {
			// interface (or annotation) extends another interface: this is
			// a genuine hierarchy edge in the interface DAG.
			addUniqueSuper(node, ifaceNode)
			addUniqueSub(ifaceNode, node)
		}
	}

	for annName := range info.AnnotationNames {
		annNode := b.ensureNode(annName, KindAnnotation)
		if node.Kind == KindAnnotation {
			// Meta-annotation: annName annotates node. The annotation graph
			// models this as a super/sub edge (node "is annotated by"
			// annName) so the wavefront closure in finalize.go can treat
			// meta-annotation propagation the same way it treats ordinary
			// annotation inheritance.
			addUniqueSuper(node, annNode)
			addUniqueSub(annNode, node)
		} else {
			annNode.CrossLinks[node] = struct{}{}
		}
	}

	return nil
}

// Finalized reports whether Finalize has already run.
func (b *Builder) Finalized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finalized
}
