package classfile

import (
	"strings"

	"github.com/classgraph/classgraph-go/internal/classgraph"
)

// readFields implements §4.1 step 9. For every field it extracts
// whitelisted class names referenced by the descriptor and (if present)
// the generic Signature attribute, and — for a static-final field whose
// name was registered with the scan spec — reads and coerces its
// ConstantValue.
//
// Open question (a) from the design notes: the diagnostic for "requested
// static-final field with no constant initializer" is emitted once,
// after the attribute loop has finished, rather than inside it — so a
// field with several non-ConstantValue attributes produces at most one
// warning instead of one per attribute.
func (d *Decoder) readFields(r *byteReader, cp *constantPool, info *classgraph.ClassInfo) error {
	count, err := r.u2()
	if err != nil {
		return err
	}

	for i := uint16(0); i < count; i++ {
		accessFlags, err := r.u2()
		if err != nil {
			return err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return err
		}
		descIdx, err := r.u2()
		if err != nil {
			return err
		}
		name := cp.UTF8(nameIdx)
		descriptor := cp.UTF8(descIdx)

		attrCount, err := r.u2()
		if err != nil {
			return err
		}

		var (
			constantValueIdx uint16
			hasConstantValue bool
			signature        string
		)

		for a := uint16(0); a < attrCount; a++ {
			attrNameIdx, err := r.u2()
			if err != nil {
				return err
			}
			attrLen, err := r.u4()
			if err != nil {
				return err
			}
			switch cp.UTF8(attrNameIdx) {
			case "ConstantValue":
				idx, err := r.u2()
				if err != nil {
					return err
				}
				constantValueIdx = idx
				hasConstantValue = true
			case "Signature":
				idx, err := r.u2()
				if err != nil {
					return err
				}
				signature = cp.UTF8(idx)
			default:
				if err := r.skip(int(attrLen)); err != nil {
					return err
				}
			}
		}

		d.recordFieldTypeNames(info, descriptor)
		if signature != "" {
			d.recordFieldTypeNames(info, signature)
		}

		isStaticFinal := accessFlags&(accFlagStatic|accFlagFinal) == (accFlagStatic | accFlagFinal)
		if !isStaticFinal || d.Spec == nil {
			continue
		}
		cb, registered := d.Spec.FieldCallback(info.Name, name)
		if !registered {
			continue
		}
		if !hasConstantValue {
			if d.Log != nil {
				d.Log.Warning(nil, "static-final field %s.%s has no ConstantValue attribute", info.Name, name)
			}
			continue
		}
		cb(info.Name, name, coerceConstantValue(descriptor, cp, constantValueIdx))
	}

	return nil
}

// recordFieldTypeNames extracts referenced class names from a field
// descriptor or generic signature and, after filtering through the scan
// spec's whitelist, adds the surviving names to info.FieldTypeNames.
func (d *Decoder) recordFieldTypeNames(info *classgraph.ClassInfo, descriptorOrSignature string) {
	for _, name := range extractClassNames(descriptorOrSignature) {
		if d.Spec != nil && !d.Spec.Whitelisted(name) {
			continue
		}
		if info.FieldTypeNames == nil {
			info.FieldTypeNames = make(map[string]struct{})
		}
		info.FieldTypeNames[name] = struct{}{}
	}
}

// extractClassNames is a hand-rolled scan equivalent to the regular
// grammar `(^[\[]*|[;<]+)[+-]?L([^;<>*]+)` from §4.1 step 9. It is more
// permissive than that grammar: every byte outside a class name is
// skipped, `+`/`-` wildcard markers included wherever they occur, and a
// name is read starting at any `L` the scan reaches. A bounded wildcard
// (`<+LFoo;>`, `;-LBar;`) therefore yields its bound's name just as an
// unbounded reference does; see the design notes' open question (b).
func extractClassNames(s string) []string {
	var names []string
	n := len(s)
	for i := 0; i < n; {
		switch s[i] {
		case '[', ';':
			i++
		case '<':
			i++
			if i < n && (s[i] == '+' || s[i] == '-') {
				i++
			}
		case 'L':
			start := i + 1
			j := start
			for j < n && s[j] != ';' && s[j] != '<' && s[j] != '>' && s[j] != '*' {
				j++
			}
			names = append(names, strings.ReplaceAll(s[start:j], "/", "."))
			i = j
		default:
			i++
		}
	}
	return names
}

// coerceConstantValue implements §4.1 step 9's narrowing rules:
// descriptors B, C, S, Z are stored in the constant pool as a plain
// 32-bit integer and must be rewrapped to their declared width; I, J, F,
// D, and the string descriptor pass through unchanged.
func coerceConstantValue(descriptor string, cp *constantPool, idx uint16) interface{} {
	if descriptor == "" {
		return nil
	}
	switch descriptor[0] {
	case 'B':
		return int8(cp.ints[idx])
	case 'C':
		return rune(uint16(cp.ints[idx]))
	case 'S':
		return int16(cp.ints[idx])
	case 'Z':
		return cp.ints[idx] != 0
	case 'I':
		return cp.ints[idx]
	case 'J':
		return cp.longs[idx]
	case 'F':
		return cp.floats[idx]
	case 'D':
		return cp.doubles[idx]
	case 'L':
		return cp.String(idx)
	default:
		return nil
	}
}
