package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/classgraph/classgraph-go/internal/classgraph"
	"github.com/classgraph/classgraph-go/internal/scanspec"
)

// cpBuilder assembles a constant pool byte-for-byte, the way a real JVM
// compiler would emit one, so decoder_test.go exercises the real wire
// format rather than a mocked-out reader.
type cpBuilder struct {
	entries bytes.Buffer
	next    uint16
}

func newCPBuilder() *cpBuilder { return &cpBuilder{next: 1} }

func (c *cpBuilder) utf8(s string) uint16 {
	idx := c.next
	c.next++
	c.entries.WriteByte(tagUTF8)
	binary.Write(&c.entries, binary.BigEndian, uint16(len(s)))
	c.entries.WriteString(s)
	return idx
}

func (c *cpBuilder) class(name string) uint16 {
	nameIdx := c.utf8(name)
	idx := c.next
	c.next++
	c.entries.WriteByte(tagClass)
	binary.Write(&c.entries, binary.BigEndian, nameIdx)
	return idx
}

func (c *cpBuilder) integer(v int32) uint16 {
	idx := c.next
	c.next++
	c.entries.WriteByte(tagInteger)
	binary.Write(&c.entries, binary.BigEndian, uint32(v))
	return idx
}

// count returns the constant_pool_count field value (highest index + 1).
func (c *cpBuilder) count() uint16 { return c.next }

// buildClass assembles a complete minimal classfile: this-class extends
// superName, implements interfaces, declares one static-final int field
// "FLAG" with a ConstantValue, and carries one RuntimeVisibleAnnotations
// entry naming annotationName.
func buildClass(t *testing.T, thisName, superName string, interfaces []string, annotationName string) []byte {
	t.Helper()
	cp := newCPBuilder()

	thisIdx := cp.class(thisName)
	var superIdx uint16
	if superName != "" {
		superIdx = cp.class(superName)
	}
	ifaceIdxs := make([]uint16, len(interfaces))
	for i, n := range interfaces {
		ifaceIdxs[i] = cp.class(n)
	}

	fieldNameIdx := cp.utf8("FLAG")
	fieldDescIdx := cp.utf8("I")
	constantValueAttrNameIdx := cp.utf8("ConstantValue")
	constantValueIdx := cp.integer(42)

	var annotationTypeIdx uint16
	var runtimeVisibleAttrNameIdx uint16
	if annotationName != "" {
		annotationTypeIdx = cp.utf8("L" + slash(annotationName) + ";")
		runtimeVisibleAttrNameIdx = cp.utf8("RuntimeVisibleAnnotations")
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(magic))
	binary.Write(&out, binary.BigEndian, uint16(0)) // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major

	binary.Write(&out, binary.BigEndian, cp.count())
	out.Write(cp.entries.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0x0001)) // access flags: public
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)

	binary.Write(&out, binary.BigEndian, uint16(len(ifaceIdxs)))
	for _, idx := range ifaceIdxs {
		binary.Write(&out, binary.BigEndian, idx)
	}

	// fields_count = 1
	binary.Write(&out, binary.BigEndian, uint16(1))
	binary.Write(&out, binary.BigEndian, uint16(0x0018)) // ACC_STATIC | ACC_FINAL
	binary.Write(&out, binary.BigEndian, fieldNameIdx)
	binary.Write(&out, binary.BigEndian, fieldDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count
	binary.Write(&out, binary.BigEndian, constantValueAttrNameIdx)
	binary.Write(&out, binary.BigEndian, uint32(2)) // attribute_length
	binary.Write(&out, binary.BigEndian, constantValueIdx)

	// methods_count = 0
	binary.Write(&out, binary.BigEndian, uint16(0))

	// class attributes
	if annotationName != "" {
		binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count
		binary.Write(&out, binary.BigEndian, runtimeVisibleAttrNameIdx)

		var body bytes.Buffer
		binary.Write(&body, binary.BigEndian, uint16(1)) // num_annotations
		binary.Write(&body, binary.BigEndian, annotationTypeIdx)
		binary.Write(&body, binary.BigEndian, uint16(0)) // num_element_value_pairs

		binary.Write(&out, binary.BigEndian, uint32(body.Len()))
		out.Write(body.Bytes())
	} else {
		binary.Write(&out, binary.BigEndian, uint16(0))
	}

	return out.Bytes()
}

func slash(dotted string) string {
	b := []byte(dotted)
	for i, c := range b {
		if c == '.' {
			b[i] = '/'
		}
	}
	return string(b)
}

func TestDecodeSimpleClass(t *testing.T) {
	data := buildClass(t, "p.C", "java.lang.Object", []string{"p.I"}, "p.Ann")
	spec := scanspec.New(nil)
	d := &Decoder{Spec: spec}

	var fieldClass, fieldName string
	var fieldValue interface{}
	spec.RegisterStaticFinalField("p.C", "FLAG", func(cn, fn string, v interface{}) {
		fieldClass, fieldName, fieldValue = cn, fn, v
	})

	res, err := d.Decode(bytes.NewReader(data), classgraph.Origin{RelPath: "p/C.class"}, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Masked || res.IsRoot {
		t.Fatalf("unexpected Masked=%v IsRoot=%v", res.Masked, res.IsRoot)
	}
	info := res.Info
	if info.Name != "p.C" {
		t.Errorf("Name = %q, want p.C", info.Name)
	}
	if info.Kind != classgraph.KindClass {
		t.Errorf("Kind = %v, want KindClass", info.Kind)
	}
	if info.SuperclassName != "java.lang.Object" {
		t.Errorf("SuperclassName = %q, want java.lang.Object", info.SuperclassName)
	}
	if len(info.InterfaceNames) != 1 || info.InterfaceNames[0] != "p.I" {
		t.Errorf("InterfaceNames = %v, want [p.I]", info.InterfaceNames)
	}
	if _, ok := info.AnnotationNames["p.Ann"]; !ok {
		t.Errorf("AnnotationNames = %v, want to contain p.Ann", info.AnnotationNames)
	}

	if fieldClass != "p.C" || fieldName != "FLAG" {
		t.Errorf("field callback invoked with (%q, %q), want (p.C, FLAG)", fieldClass, fieldName)
	}
	if v, ok := fieldValue.(int32); !ok || v != 42 {
		t.Errorf("field callback value = %#v, want int32(42)", fieldValue)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00}
	d := &Decoder{}
	_, err := d.Decode(bytes.NewReader(data), classgraph.Origin{RelPath: "p/C.class"}, nil)
	if err == nil {
		t.Fatal("Decode() with bad magic returned nil error")
	}
}

func TestDecodeRootClassProducesNoRecord(t *testing.T) {
	data := buildClass(t, "java.lang.Object", "", nil, "")
	d := &Decoder{Spec: scanspec.New(nil)}
	res, err := d.Decode(bytes.NewReader(data), classgraph.Origin{RelPath: "java/lang/Object.class"}, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !res.IsRoot {
		t.Error("expected IsRoot=true for java.lang.Object")
	}
}

func TestDecodeMaskedClass(t *testing.T) {
	data := buildClass(t, "p.C", "java.lang.Object", nil, "")
	d := &Decoder{Spec: scanspec.New(nil)}
	res, err := d.Decode(bytes.NewReader(data), classgraph.Origin{RelPath: "p/C.class"}, func(fqn string) bool {
		return fqn == "p.C"
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !res.Masked {
		t.Error("expected Masked=true for an already-accepted FQN")
	}
}

func TestExtractClassNames(t *testing.T) {
	tests := []struct {
		descriptor string
		want       []string
	}{
		{"Ljava/lang/String;", []string{"java.lang.String"}},
		{"[Ljava/lang/String;", []string{"java.lang.String"}},
		{"Ljava/util/List<Ljava/lang/String;>;", []string{"java.util.List", "java.lang.String"}},
		{"Ljava/util/Map<+Ljava/lang/Object;-Ljava/lang/String;>;", []string{"java.util.Map", "java.lang.Object", "java.lang.String"}},
		{"I", nil},
	}
	for _, tt := range tests {
		got := extractClassNames(tt.descriptor)
		if len(got) != len(tt.want) {
			t.Errorf("extractClassNames(%q) = %v, want %v", tt.descriptor, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("extractClassNames(%q)[%d] = %q, want %q", tt.descriptor, i, got[i], tt.want[i])
			}
		}
	}
}
