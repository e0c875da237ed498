package classgraph

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/classgraph/classgraph-go/internal/diagnostics"
)

// buildMinimalClass assembles just enough of a classfile to satisfy the
// decoder: magic, versions, a four-entry constant pool (this-class,
// super-class, both pointing at Utf8 names), zero fields/methods/attrs.
func buildMinimalClass(t *testing.T, thisName, superName string) []byte {
	t.Helper()
	var buf bytes.Buffer
	be := binary.BigEndian

	write := func(v interface{}) {
		switch x := v.(type) {
		case uint32:
			var b [4]byte
			be.PutUint32(b[:], x)
			buf.Write(b[:])
		case uint16:
			var b [2]byte
			be.PutUint16(b[:], x)
			buf.Write(b[:])
		case uint8:
			buf.WriteByte(x)
		}
	}
	utf8 := func(s string) {
		write(uint8(1))
		write(uint16(len(s)))
		buf.WriteString(s)
	}
	class := func(utf8Idx uint16) {
		write(uint8(7))
		write(uint16(utf8Idx))
	}

	write(uint32(0xCAFEBABE))
	write(uint16(0)) // minor
	write(uint16(61))

	// Constant pool: count = 5 (indices 1..4 used)
	// 1: Utf8 thisName, 2: Class -> 1, 3: Utf8 superName, 4: Class -> 3
	write(uint16(5))
	utf8(thisName)
	class(1)
	utf8(superName)
	class(3)

	write(uint16(0x0021)) // ACC_PUBLIC | ACC_SUPER
	write(uint16(2))      // this_class -> entry 2
	write(uint16(4))      // super_class -> entry 4
	write(uint16(0))      // interfaces_count
	write(uint16(0))      // fields_count
	write(uint16(0))      // methods_count
	write(uint16(0))      // attributes_count

	return buf.Bytes()
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	classDir := filepath.Join(dir, "com", "acme")
	if err := os.MkdirAll(classDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(classDir, "Widget.class"),
		buildMinimalClass(t, "com/acme/Widget", "java/lang/Object"), 0o644); err != nil {
		t.Fatal(err)
	}

	scanner := NewScanner(diagnostics.New(diagnostics.LevelDefault))
	result, err := scanner.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.ClassCount != 1 {
		t.Errorf("ClassCount = %d, want 1", result.ClassCount)
	}
	names := result.AllClassNames()
	if len(names) != 1 || names[0] != "com.acme.Widget" {
		t.Errorf("AllClassNames = %v, want [com.acme.Widget]", names)
	}
}

func TestScanJarArchive(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "app.jar")

	f, err := os.Create(jarPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("com/acme/Widget.class")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(buildMinimalClass(t, "com/acme/Widget", "java/lang/Object")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	var matched []*ClassInfo
	scanner := NewScanner(diagnostics.New(diagnostics.LevelDefault)).
		OnMatch(func(ci *ClassInfo) { matched = append(matched, ci) })

	result, err := scanner.Scan(context.Background(), jarPath)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.ClassCount != 1 {
		t.Errorf("ClassCount = %d, want 1", result.ClassCount)
	}
	if len(matched) != 1 || matched[0].Name != "com.acme.Widget" {
		t.Errorf("matched = %v, want a single com.acme.Widget match", matched)
	}
}

// TestScanFirstWinsMaskingIsEnumerationOrdered pins down invariant #5: a
// classfile present under more than one classpath root is decided by
// scan-element enumeration order, not by which worker happens to finish
// decoding first. Two roots define "com.acme.Widget" with different
// superclasses; regardless of which root's decode job finishes first,
// the earlier-enumerated root (dir1) must win every time, across many
// repetitions with enough workers to make a completion-order race likely
// if one still existed.
func TestScanFirstWinsMaskingIsEnumerationOrdered(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	for _, d := range []struct {
		dir, super string
	}{
		{dir1, "com/acme/First"},
		{dir2, "com/acme/Second"},
	} {
		classDir := filepath.Join(d.dir, "com", "acme")
		if err := os.MkdirAll(classDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(classDir, "Widget.class"),
			buildMinimalClass(t, "com/acme/Widget", d.super), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 20; i++ {
		scanner := NewScanner(diagnostics.New(diagnostics.LevelDefault)).Workers(8)
		result, err := scanner.Scan(context.Background(), dir1, dir2)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if result.ClassCount != 1 {
			t.Fatalf("ClassCount = %d, want 1", result.ClassCount)
		}
		supers := result.SuperclassesOf("com.acme.Widget")
		found := false
		for _, s := range supers {
			switch s {
			case "com.acme.First":
				found = true
			case "com.acme.Second":
				t.Fatalf("iteration %d: dir2's definition won, want dir1's (enumeration order)", i)
			}
		}
		if !found {
			t.Fatalf("iteration %d: SuperclassesOf(Widget) = %v, want com.acme.First present", i, supers)
		}
	}
}

func TestScanRespectsBlacklist(t *testing.T) {
	dir := t.TempDir()
	classDir := filepath.Join(dir, "com", "acme", "internal")
	if err := os.MkdirAll(classDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(classDir, "Secret.class"),
		buildMinimalClass(t, "com/acme/internal/Secret", "java/lang/Object"), 0o644); err != nil {
		t.Fatal(err)
	}

	scanner := NewScanner(diagnostics.New(diagnostics.LevelDefault)).Blacklist("com.acme.internal")
	result, err := scanner.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.ClassCount != 0 {
		t.Errorf("ClassCount = %d, want 0 (blacklisted)", result.ClassCount)
	}
}
