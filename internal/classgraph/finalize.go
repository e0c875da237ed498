package classgraph

// Finalize computes the transitive closures and cross-cutting relations
// over everything accepted so far, then locks the graph read-only. It is
// idempotent: a second call is a no-op, matching the spec's round-trip
// requirement.
//
// The algorithm follows §4.3 point 2 exactly: the class forest and the
// interface DAG — both acyclic by construction, since a class has at most
// one direct superclass and interface "extends" never cycles in valid
// bytecode — get a DFS-postorder closure (generalizing the teacher's
// db.BuildClosureTable ancestor/descendant recursion from a tree to a
// forest-plus-DAG with cycle detection). The annotation graph, which can
// contain meta-annotation cycles, gets the wavefront fixed-point closure
// the design notes require instead.
func (b *Builder) Finalize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return nil
	}

	var acyclic, cyclic []*GraphNode
	for _, n := range b.nodes {
		if n.Kind == KindAnnotation {
			cyclic = append(cyclic, n)
		} else {
			acyclic = append(acyclic, n)
		}
	}

	if err := computeAcyclicClosure(acyclic); err != nil {
		return err
	}
	computeWavefrontClosure(cyclic)

	b.deriveAnnotationClasses()
	b.deriveInterfaceClasses()

	b.finalized = true
	return nil
}

// computeAcyclicClosure fills AllSuperNodes via DFS postorder and then
// AllSubNodes symmetrically. Returns ErrInvariantViolation if it detects a
// cycle, which should be impossible for the class forest / interface DAG
// under valid bytecode.
func computeAcyclicClosure(nodes []*GraphNode) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[*GraphNode]int, len(nodes))

	var visit func(n *GraphNode) error
	visit = func(n *GraphNode) error {
		switch state[n] {
		case done:
			return nil
		case visiting:
			return ErrInvariantViolation
		}
		state[n] = visiting
		for _, super := range n.DirectSuperNodes {
			if err := visit(super); err != nil {
				return err
			}
			n.AllSuperNodes[super] = struct{}{}
			for anc := range super.AllSuperNodes {
				n.AllSuperNodes[anc] = struct{}{}
			}
		}
		state[n] = done
		return nil
	}

	for _, n := range nodes {
		if err := visit(n); err != nil {
			return err
		}
	}

	for _, n := range nodes {
		for anc := range n.AllSuperNodes {
			anc.AllSubNodes[n] = struct{}{}
		}
	}
	return nil
}

// computeWavefrontClosure implements the fixed-point algorithm §4.3 point 2
// describes for the annotation graph: start with every node that has a
// non-empty direct-super set active; each round, an active node absorbs
// its direct-supers' AllSuperNodes, and if it grew, its direct-subs join
// the next round. Iterate to a fixed point — tolerant of cycles, since a
// node on a cycle keeps getting rescheduled until absorbing stops
// changing anything.
func computeWavefrontClosure(nodes []*GraphNode) {
	active := make(map[*GraphNode]struct{})
	for _, n := range nodes {
		if len(n.DirectSuperNodes) > 0 {
			active[n] = struct{}{}
		}
	}

	for len(active) > 0 {
		next := make(map[*GraphNode]struct{})
		for n := range active {
			grew := false
			for _, super := range n.DirectSuperNodes {
				if _, ok := n.AllSuperNodes[super]; !ok {
					n.AllSuperNodes[super] = struct{}{}
					grew = true
				}
				for anc := range super.AllSuperNodes {
					if _, ok := n.AllSuperNodes[anc]; !ok {
						n.AllSuperNodes[anc] = struct{}{}
						grew = true
					}
				}
			}
			if grew {
				for _, sub := range n.DirectSubNodes {
					next[sub] = struct{}{}
				}
			}
		}
		active = next
	}

	for _, n := range nodes {
		for anc := range n.AllSuperNodes {
			anc.AllSubNodes[n] = struct{}{}
		}
	}
}

// orderedClassInfos converts a node set to a []*ClassInfo in the graph's
// insertion order, dropping placeholders (which carry no ClassInfo) and
// non-class/non-annotated-entity nodes. Used to give every query's answer
// list a deterministic order, per §4.3 "Tie-breaks and ordering".
func (b *Builder) orderedClassInfos(set map[*GraphNode]struct{}) []*ClassInfo {
	if len(set) == 0 {
		return nil
	}
	out := make([]*ClassInfo, 0, len(set))
	for _, name := range b.insertOrder {
		n := b.nodes[name]
		if n.Info == nil {
			continue
		}
		if _, ok := set[n]; ok {
			out = append(out, n.Info)
		}
	}
	return out
}

// deriveAnnotationClasses implements §4.3 point 3: for every annotation
// node A, classes_with_annotation(A) is every class/interface directly
// annotated with A (A's CrossLinks) plus every class/interface directly
// annotated with a descendant of A in the meta-annotation graph (since a
// descendant A' of A has A as one of its meta-annotations, by
// AllSubNodes/AllSuperNodes symmetry).
func (b *Builder) deriveAnnotationClasses() {
	b.classesByAnnotation = make(map[string][]*ClassInfo)
	for name, node := range b.nodes {
		if node.Kind != KindAnnotation {
			continue
		}
		set := make(map[*GraphNode]struct{})
		for c := range node.CrossLinks {
			set[c] = struct{}{}
		}
		for descendant := range node.AllSubNodes {
			for c := range descendant.CrossLinks {
				set[c] = struct{}{}
			}
		}
		b.classesByAnnotation[name] = b.orderedClassInfos(set)
	}
}

// deriveInterfaceClasses implements §4.3 point 4: for every interface node
// I, classes_implementing(I) is every class that declares I or a
// subinterface of I (CrossLinks of I and I's descendants in the interface
// DAG), plus every subclass of such a class.
func (b *Builder) deriveInterfaceClasses() {
	b.classesByInterface = make(map[string][]*ClassInfo)
	for name, node := range b.nodes {
		if node.Kind != KindInterface && node.Kind != KindAnnotation {
			continue
		}
		subinterfaces := map[*GraphNode]struct{}{node: {}}
		for d := range node.AllSubNodes {
			subinterfaces[d] = struct{}{}
		}

		set := make(map[*GraphNode]struct{})
		for _, className := range b.insertOrder {
			cls := b.nodes[className]
			if cls.Kind != KindClass {
				continue
			}
			for iface := range cls.CrossLinks {
				if _, ok := subinterfaces[iface]; !ok {
					continue
				}
				set[cls] = struct{}{}
				for sub := range cls.AllSubNodes {
					set[sub] = struct{}{}
				}
			}
		}
		b.classesByInterface[name] = b.orderedClassInfos(set)
	}
}
