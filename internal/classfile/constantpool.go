package classfile

import "strings"

// Constant pool tags, per §6's accepted set (1, 3-12, 15, 16, 18). Tags 2,
// 13, 14, 17, 19, 20 are not part of the documented set this decoder
// reads and trigger ErrBadConstantTag.
const (
	tagUTF8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagInvokeDynamic      = 18
)

// constantPool holds the raw and partially-resolved constant pool
// entries for one classfile. Entries are 1-indexed; index 0 is unused,
// matching the classfile format directly.
type constantPool struct {
	utf8         map[uint16]string
	classNameIdx map[uint16]uint16 // class entry -> name_index (a utf8 ref)
	stringIdx    map[uint16]uint16 // string entry -> string_index (a utf8 ref)
	ints         map[uint16]int32
	floats       map[uint16]float32
	longs        map[uint16]int64
	doubles      map[uint16]float64
}

// readConstantPool performs the two-pass parse §4.1 point 3 describes:
// a first pass that stores UTF8 strings and the index pairs for indirect
// references (permitting forward references), and a second pass that
// isn't actually a second scan of the byte stream — it's deferred to the
// accessor methods below, which simply look up already-collected indices
// once the whole table is in memory. Long/double entries consume two
// logical slots; the slot after them is left empty, exactly as the
// format mandates.
func readConstantPool(r *byteReader) (*constantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	cp := &constantPool{
		utf8:         make(map[uint16]string),
		classNameIdx: make(map[uint16]uint16),
		stringIdx:    make(map[uint16]uint16),
		ints:         make(map[uint16]int32),
		floats:       make(map[uint16]float32),
		longs:        make(map[uint16]int64),
		doubles:      make(map[uint16]float64),
	}

	for i := uint16(1); i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagUTF8:
			length, err := r.u2()
			if err != nil {
				return nil, err
			}
			raw, err := r.bytes(int(length))
			if err != nil {
				return nil, err
			}
			cp.utf8[i] = string(raw)
		case tagClass:
			nameIdx, err := r.u2()
			if err != nil {
				return nil, err
			}
			cp.classNameIdx[i] = nameIdx
		case tagString:
			strIdx, err := r.u2()
			if err != nil {
				return nil, err
			}
			cp.stringIdx[i] = strIdx
		case tagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			cp.ints[i] = int32(v)
		case tagFloat:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			cp.floats[i] = float32FromBits(v)
		case tagLong:
			v, err := r.u8()
			if err != nil {
				return nil, err
			}
			cp.longs[i] = int64(v)
			i++ // occupies two slots; the next index is left unused
		case tagDouble:
			v, err := r.u8()
			if err != nil {
				return nil, err
			}
			cp.doubles[i] = float64FromBits(v)
			i++
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType:
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case tagMethodHandle:
			if err := r.skip(3); err != nil {
				return nil, err
			}
		case tagMethodType, tagInvokeDynamic:
			if tag == tagMethodType {
				if err := r.skip(2); err != nil {
					return nil, err
				}
			} else {
				if err := r.skip(4); err != nil {
					return nil, err
				}
			}
		default:
			return nil, ErrBadConstantTag
		}
	}

	return cp, nil
}

// ClassName resolves a CONSTANT_Class entry to its dotted name, or "" if
// idx is zero (meaning "absent", used for java.lang.Object's superclass
// reference).
func (cp *constantPool) ClassName(idx uint16) string {
	if idx == 0 {
		return ""
	}
	nameIdx, ok := cp.classNameIdx[idx]
	if !ok {
		return ""
	}
	return strings.ReplaceAll(cp.utf8[nameIdx], "/", ".")
}

// UTF8 returns the decoded UTF8 string at idx.
func (cp *constantPool) UTF8(idx uint16) string {
	return cp.utf8[idx]
}

// String resolves a CONSTANT_String entry to its underlying UTF8 value,
// used when coercing a ConstantValue attribute for a String-typed field.
func (cp *constantPool) String(idx uint16) string {
	strIdx, ok := cp.stringIdx[idx]
	if !ok {
		return ""
	}
	return cp.utf8[strIdx]
}
