// Package classfile decodes the portion of the JVM classfile format the
// class graph needs — constant pool, access flags, this/super/interface
// references, field descriptors and ConstantValue attributes,
// RuntimeVisibleAnnotations — without materializing method bodies or
// attributes the graph never consults. It is the bytecode analogue of
// the teacher's tree-sitter-based buildGraphFromAST (graph/parser.go):
// same "walk a fixed grammar, emit graph-shaped facts" responsibility,
// but over a binary format with an explicit two-pass constant pool
// instead of a parse tree, following the sequential-struct-decode idiom
// shown throughout the pack's saferwall-pe reference (pe.ParseDOSHeader
// and friends: small bounded reads in format order, sentinel errors on
// malformed input).
package classfile

import (
	"sync"

	"github.com/classgraph/classgraph-go/internal/classgraph"
	"github.com/classgraph/classgraph-go/internal/diagnostics"
	"github.com/classgraph/classgraph-go/internal/scanspec"
)

const (
	magic = 0xCAFEBABE

	accFlagInterface  = 0x0200
	accFlagAnnotation = 0x2000
	accFlagStatic     = 0x0008
	accFlagFinal      = 0x0010
)

const rootClassName = "java.lang.Object"

// Decoder reads one classfile at a time. It holds no state across calls
// to Decode, so instances are freely poolable across goroutines, as §4.1
// requires — Acquire and Release below wrap the sync.Pool callers should
// actually use.
type Decoder struct {
	Spec *scanspec.Spec
	Log  *diagnostics.Logger
}

// decoderPool recycles Decoder values the way the teacher recycles
// tree-sitter parsers per worker (graph/construct.go's worker closure
// allocates one sitter.Parser per goroutine); here the allocation is
// cheap enough to pool per-call instead of per-worker.
var decoderPool = sync.Pool{
	New: func() interface{} { return &Decoder{} },
}

// Acquire returns a pooled Decoder configured with spec and log.
func Acquire(spec *scanspec.Spec, log *diagnostics.Logger) *Decoder {
	d := decoderPool.Get().(*Decoder)
	d.Spec = spec
	d.Log = log
	return d
}

// Release returns d to the pool. Callers must not use d after calling
// Release.
func Release(d *Decoder) {
	d.Spec = nil
	d.Log = nil
	decoderPool.Put(d)
}

// Result is either a decoded ClassInfo or "masked" (relPath's FQN was
// already accepted this scan, per the decoder/scan-spec first-wins
// boundary) or "root" (this-class is java.lang.Object, which never
// produces a record).
type Result struct {
	Info   *classgraph.ClassInfo
	Masked bool
	IsRoot bool
}

// AlreadyAccepted reports whether fqn has already been registered in
// this scan. Implemented as a function value (rather than an interface)
// so the decoder doesn't need to import the builder package directly;
// the caller wires in its own lookup (or nil for no masking).
type AlreadyAccepted func(fqn string) bool

// Decode reads one classfile from r, positioned at its first byte.
// origin identifies where the bytes came from, for ClassInfo.Origin and
// for the FQN/path mismatch check in step 11 of §4.1.
func (d *Decoder) Decode(rawReader interface{ Read([]byte) (int, error) }, origin classgraph.Origin, alreadyAccepted AlreadyAccepted) (*Result, error) {
	r := newByteReader(rawReader)

	m, err := r.u4()
	if err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}
	if m != magic {
		return nil, &RejectedError{Path: origin.RelPath, Err: ErrBadMagic}
	}

	// minor, major version: skipped per step 2.
	if err := r.skip(4); err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}

	accessFlags, err := r.u2()
	if err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}
	kind := classifyAccessFlags(accessFlags)

	thisClassIdx, err := r.u2()
	if err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}
	thisName := cp.ClassName(thisClassIdx)

	if thisName == rootClassName {
		return &Result{IsRoot: true}, nil
	}

	if err := checkPathMatch(thisName, origin.RelPath); err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}

	if alreadyAccepted != nil && alreadyAccepted(thisName) {
		return &Result{Masked: true}, nil
	}

	superClassIdx, err := r.u2()
	if err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}
	superName := cp.ClassName(superClassIdx)

	interfaceCount, err := r.u2()
	if err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}
	interfaceNames := make([]string, 0, interfaceCount)
	for i := uint16(0); i < interfaceCount; i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, &RejectedError{Path: origin.RelPath, Err: err}
		}
		interfaceNames = append(interfaceNames, cp.ClassName(idx))
	}

	info := classgraph.NewClassInfo(thisName, kind, origin)
	info.SuperclassName = superName
	info.InterfaceNames = interfaceNames

	if err := d.readFields(r, cp, info); err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}
	if err := d.readMethods(r, cp); err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}
	if err := d.readClassAttributes(r, cp, info); err != nil {
		return nil, &RejectedError{Path: origin.RelPath, Err: err}
	}

	return &Result{Info: info}, nil
}

// classifyAccessFlags implements §4.1 step 4's classification: both
// bits set wins as annotation, since every annotation type is also
// marked interface at the bytecode level.
func classifyAccessFlags(flags uint16) classgraph.Kind {
	isInterface := flags&accFlagInterface != 0
	isAnnotation := flags&accFlagAnnotation != 0
	switch {
	case isAnnotation:
		return classgraph.KindAnnotation
	case isInterface:
		return classgraph.KindInterface
	default:
		return classgraph.KindClass
	}
}

// checkPathMatch implements the FQN/archive-relative-path consistency
// check from §4.1's error conditions: relPath, with its .class suffix
// stripped and slashes normalized to dots, must equal the FQN. An empty
// relPath (e.g. decoding from an in-memory buffer with no archive
// context) skips the check.
func checkPathMatch(fqn, relPath string) error {
	if relPath == "" {
		return nil
	}
	stripped := relPath
	if len(stripped) > 6 && stripped[len(stripped)-6:] == ".class" {
		stripped = stripped[:len(stripped)-6]
	}
	dotted := normalizeSlashes(stripped)
	if dotted != fqn {
		return ErrPathMismatch
	}
	return nil
}

func normalizeSlashes(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out[i] = '.'
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}
