package classfile

import (
	"strings"

	"github.com/classgraph/classgraph-go/internal/classgraph"
)

// metaAnnotationPackage is the reserved package prefix §4.1a drops
// annotations from: java.lang.annotation's own meta-annotations
// (@Retention, @Target, @Inherited, ...) describe annotations rather than
// being structurally interesting members of the annotation graph.
const metaAnnotationPackage = "java.lang.annotation."

// readClassAttributes implements §4.1 step 11: only
// RuntimeVisibleAnnotations is decoded; everything else is skipped by
// its declared length.
func (d *Decoder) readClassAttributes(r *byteReader, cp *constantPool, info *classgraph.ClassInfo) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return err
		}
		length, err := r.u4()
		if err != nil {
			return err
		}
		if cp.UTF8(nameIdx) != "RuntimeVisibleAnnotations" {
			if err := r.skip(int(length)); err != nil {
				return err
			}
			continue
		}
		if err := d.readRuntimeVisibleAnnotations(r, cp, info); err != nil {
			return err
		}
	}
	return nil
}

// readRuntimeVisibleAnnotations implements §4.1a: a u2 count followed by
// that many annotation entries, each a type descriptor plus
// element-value pairs traversed only for byte-accuracy.
func (d *Decoder) readRuntimeVisibleAnnotations(r *byteReader, cp *constantPool, info *classgraph.ClassInfo) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		name, err := readAnnotation(r, cp)
		if err != nil {
			return err
		}
		if strings.HasPrefix(name, metaAnnotationPackage) {
			continue
		}
		info.AnnotationNames[name] = struct{}{}
	}
	return nil
}

// readAnnotation reads one annotation structure (a type index plus
// element-value pairs) and returns its dotted type name. The type
// descriptor is of the form Lpkg/Cls;.
func readAnnotation(r *byteReader, cp *constantPool) (string, error) {
	typeIdx, err := r.u2()
	if err != nil {
		return "", err
	}
	descriptor := cp.UTF8(typeIdx)
	name := descriptorToClassName(descriptor)

	pairCount, err := r.u2()
	if err != nil {
		return "", err
	}
	for i := uint16(0); i < pairCount; i++ {
		if err := r.skip(2); err != nil { // element_name_index
			return "", err
		}
		if err := readElementValue(r, cp); err != nil {
			return "", err
		}
	}
	return name, nil
}

// readElementValue consumes one annotation element value, recursing for
// nested annotations and arrays per §4.1a's tag table.
func readElementValue(r *byteReader, cp *constantPool) error {
	tag, err := r.u1()
	if err != nil {
		return err
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		return r.skip(2)
	case 'e':
		return r.skip(4)
	case 'c':
		return r.skip(2)
	case '@':
		_, err := readAnnotation(r, cp)
		return err
	case '[':
		count, err := r.u2()
		if err != nil {
			return err
		}
		for i := uint16(0); i < count; i++ {
			if err := readElementValue(r, cp); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrBadConstantTag
	}
}

// descriptorToClassName converts an "Lpkg/Cls;" field descriptor to its
// dotted class name.
func descriptorToClassName(descriptor string) string {
	if len(descriptor) < 2 || descriptor[0] != 'L' {
		return descriptor
	}
	inner := strings.TrimSuffix(descriptor[1:], ";")
	return strings.ReplaceAll(inner, "/", ".")
}
