package classgraph

import "errors"

// ErrInvariantViolation is fatal for a scan: the graph observed a state the
// data model's invariants forbid (e.g. two distinct superclasses registered
// for the same class, or a signature merge disagreement surfaced as a
// graph-level conflict). Propagated via the shared interrupt mechanism.
var ErrInvariantViolation = errors.New("classgraph: internal invariant violation")

// ErrAlreadyFinalized is returned by Accept once Finalize has run; the
// graph is read-only after finalize per the spec's lifecycle rules.
var ErrAlreadyFinalized = errors.New("classgraph: graph is finalized, no further accepts permitted")
