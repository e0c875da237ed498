package signature

import (
	"errors"
	"fmt"
)

// ParamFlags mirrors the MethodParameters attribute's per-parameter
// access flags that matter for the merge rule.
type ParamFlags uint16

const (
	ParamSynthetic ParamFlags = 0x1000
	ParamMandated  ParamFlags = 0x8000
)

// InternalParameter is one parameter as seen from the method
// descriptor's internal view: erased, generics-free, but authoritative
// on count and on synthetic/mandated parameters the programmer-view
// Signature attribute omits entirely.
type InternalParameter struct {
	Type  *TypeSig
	Flags ParamFlags
}

// ErrSignatureMismatch is returned when a programmer-view and
// internal-view parameter disagree under the "equal ignoring type
// parameters" relation. Per §4.4's merge rule, this is always fatal.
var ErrSignatureMismatch = errors.New("signature: programmer view and internal view disagree")

// MergeMethodSignature reconciles a method's programmer-view
// MethodSignature (parsed from the Signature attribute, generic but
// blind to synthetic/mandated parameters) against its internal-view
// parameter list (derived from the method descriptor, erased but
// authoritative on count). The result keeps the programmer view's type
// parameters and return type, with a parameter list built by walking
// the internal view: synthetic and mandated parameters are passed
// through verbatim, and every other parameter is replaced by its
// generic programmer-view counterpart once the two are confirmed to
// agree.
func MergeMethodSignature(programmerView *MethodSignature, internalParams []InternalParameter) (*MethodSignature, error) {
	merged := &MethodSignature{
		TypeParameters: programmerView.TypeParameters,
		ReturnType:     programmerView.ReturnType,
		Throws:         programmerView.Throws,
	}

	pvIdx := 0
	for i, ip := range internalParams {
		if ip.Flags&(ParamSynthetic|ParamMandated) != 0 {
			merged.ParameterTypes = append(merged.ParameterTypes, ip.Type)
			continue
		}
		if pvIdx >= len(programmerView.ParameterTypes) {
			return nil, fmt.Errorf("%w: internal parameter %d has no programmer-view counterpart", ErrSignatureMismatch, i)
		}
		pv := programmerView.ParameterTypes[pvIdx]
		pvIdx++
		if !equalIgnoringTypeParameters(pv, ip.Type) {
			return nil, fmt.Errorf("%w: parameter %d (%s vs %s)", ErrSignatureMismatch, i, describe(pv), describe(ip.Type))
		}
		merged.ParameterTypes = append(merged.ParameterTypes, pv)
	}
	if pvIdx != len(programmerView.ParameterTypes) {
		return nil, fmt.Errorf("%w: programmer view has %d parameters unaccounted for in the internal view",
			ErrSignatureMismatch, len(programmerView.ParameterTypes)-pvIdx)
	}
	return merged, nil
}

// equalIgnoringTypeParameters compares two TypeSig trees structurally,
// ignoring generic instantiation: a type variable on either side is
// erasure-compatible with anything, since its erased form in the
// internal view is its bound's raw class name, which the internal view
// alone cannot be expected to spell out.
func equalIgnoringTypeParameters(a, b *TypeSig) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind == KindTypeVariable || b.Kind == KindTypeVariable {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBase:
		return a.Base == b.Base
	case KindArray:
		return equalIgnoringTypeParameters(a.ElementType, b.ElementType)
	case KindClass:
		if a.ClassName != b.ClassName || len(a.Suffixes) != len(b.Suffixes) {
			return false
		}
		for i := range a.Suffixes {
			if a.Suffixes[i].Name != b.Suffixes[i].Name {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func describe(t *TypeSig) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindBase:
		return string(t.Base)
	case KindClass:
		return t.ClassName
	case KindTypeVariable:
		return "T" + t.VarName
	case KindArray:
		return "[" + describe(t.ElementType)
	default:
		return "?"
	}
}
