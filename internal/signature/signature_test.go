package signature

import "testing"

func TestParseTypeSignatureBaseType(t *testing.T) {
	ts, err := ParseTypeSignature("I")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if ts.Kind != KindBase || ts.Base != 'I' {
		t.Errorf("got %+v, want base type I", ts)
	}
}

func TestParseTypeSignatureClassType(t *testing.T) {
	ts, err := ParseTypeSignature("Ljava/lang/String;")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if ts.Kind != KindClass || ts.ClassName != "java.lang.String" {
		t.Errorf("got %+v, want class java.lang.String", ts)
	}
}

func TestParseTypeSignatureGenericClass(t *testing.T) {
	ts, err := ParseTypeSignature("Ljava/util/Map<Ljava/lang/String;Ljava/lang/Integer;>;")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if ts.ClassName != "java.util.Map" {
		t.Fatalf("ClassName = %q, want java.util.Map", ts.ClassName)
	}
	if len(ts.TypeArgs) != 2 {
		t.Fatalf("TypeArgs = %v, want 2 entries", ts.TypeArgs)
	}
	if ts.TypeArgs[0].Type.ClassName != "java.lang.String" {
		t.Errorf("TypeArgs[0] = %+v, want java.lang.String", ts.TypeArgs[0])
	}
	if ts.TypeArgs[1].Type.ClassName != "java.lang.Integer" {
		t.Errorf("TypeArgs[1] = %+v, want java.lang.Integer", ts.TypeArgs[1])
	}
}

func TestParseTypeSignatureWildcards(t *testing.T) {
	ts, err := ParseTypeSignature("Ljava/util/Map<+Ljava/lang/Object;-Ljava/lang/String;>;")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if len(ts.TypeArgs) != 2 {
		t.Fatalf("TypeArgs = %v, want 2 entries", ts.TypeArgs)
	}
	if ts.TypeArgs[0].Wildcard != '+' || ts.TypeArgs[0].Type.ClassName != "java.lang.Object" {
		t.Errorf("TypeArgs[0] = %+v, want +java.lang.Object", ts.TypeArgs[0])
	}
	if ts.TypeArgs[1].Wildcard != '-' || ts.TypeArgs[1].Type.ClassName != "java.lang.String" {
		t.Errorf("TypeArgs[1] = %+v, want -java.lang.String", ts.TypeArgs[1])
	}
}

func TestParseTypeSignatureUnboundedWildcard(t *testing.T) {
	ts, err := ParseTypeSignature("Ljava/util/List<*>;")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if len(ts.TypeArgs) != 1 || ts.TypeArgs[0].Wildcard != '*' || ts.TypeArgs[0].Type != nil {
		t.Errorf("TypeArgs = %+v, want a single unbounded wildcard", ts.TypeArgs)
	}
}

func TestParseTypeSignatureInnerClassSuffix(t *testing.T) {
	ts, err := ParseTypeSignature("Ljava/util/Map<TK;TV;>.Entry;")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if len(ts.Suffixes) != 1 || ts.Suffixes[0].Name != "Entry" {
		t.Errorf("Suffixes = %+v, want a single Entry suffix", ts.Suffixes)
	}
}

func TestParseTypeSignatureTypeVariable(t *testing.T) {
	ts, err := ParseTypeSignature("TE;")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if ts.Kind != KindTypeVariable || ts.VarName != "E" {
		t.Errorf("got %+v, want type variable E", ts)
	}
}

func TestParseTypeSignatureArray(t *testing.T) {
	ts, err := ParseTypeSignature("[[I")
	if err != nil {
		t.Fatalf("ParseTypeSignature: %v", err)
	}
	if ts.Kind != KindArray || ts.ElementType.Kind != KindArray || ts.ElementType.ElementType.Base != 'I' {
		t.Errorf("got %+v, want int[][]", ts)
	}
}

func TestParseTypeSignatureTrailingInputIsFatal(t *testing.T) {
	if _, err := ParseTypeSignature("Ljava/lang/String;extra"); err == nil {
		t.Error("expected an error for trailing input after a complete signature")
	}
}

func TestParseTypeSignatureUnterminatedClassIsFatal(t *testing.T) {
	if _, err := ParseTypeSignature("Ljava/lang/String"); err == nil {
		t.Error("expected an error for a class signature missing its ';'")
	}
}

func TestParseMethodSignatureSimple(t *testing.T) {
	m, err := ParseMethodSignature("(ILjava/lang/String;)Z")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	if len(m.ParameterTypes) != 2 {
		t.Fatalf("ParameterTypes = %v, want 2", m.ParameterTypes)
	}
	if m.ParameterTypes[0].Base != 'I' {
		t.Errorf("ParameterTypes[0] = %+v, want int", m.ParameterTypes[0])
	}
	if m.ParameterTypes[1].ClassName != "java.lang.String" {
		t.Errorf("ParameterTypes[1] = %+v, want java.lang.String", m.ParameterTypes[1])
	}
	if m.ReturnType.Base != 'Z' {
		t.Errorf("ReturnType = %+v, want boolean", m.ReturnType)
	}
}

func TestParseMethodSignatureGenericWithTypeParamsAndThrows(t *testing.T) {
	m, err := ParseMethodSignature("<T:Ljava/lang/Object;>(TT;)TT;^Ljava/io/IOException;")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	if len(m.TypeParameters) != 1 || m.TypeParameters[0].Name != "T" {
		t.Fatalf("TypeParameters = %+v, want a single T", m.TypeParameters)
	}
	if m.TypeParameters[0].ClassBound == nil || m.TypeParameters[0].ClassBound.ClassName != "java.lang.Object" {
		t.Errorf("ClassBound = %+v, want java.lang.Object", m.TypeParameters[0].ClassBound)
	}
	if len(m.Throws) != 1 || m.Throws[0].ClassName != "java.io.IOException" {
		t.Errorf("Throws = %+v, want a single java.io.IOException", m.Throws)
	}
}

func TestParseTypeParameterWithInterfaceBoundsOnly(t *testing.T) {
	m, err := ParseMethodSignature("<T::Ljava/lang/Comparable;>()V")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	tp := m.TypeParameters[0]
	if tp.ClassBound != nil {
		t.Errorf("ClassBound = %+v, want nil when only an interface bound is present", tp.ClassBound)
	}
	if len(tp.InterfaceBounds) != 1 || tp.InterfaceBounds[0].ClassName != "java.lang.Comparable" {
		t.Errorf("InterfaceBounds = %+v, want a single java.lang.Comparable", tp.InterfaceBounds)
	}
}

func TestParseClassSignature(t *testing.T) {
	cs, err := ParseClassSignature("<T:Ljava/lang/Object;>Ljava/lang/Object;Ljava/io/Serializable;")
	if err != nil {
		t.Fatalf("ParseClassSignature: %v", err)
	}
	if len(cs.TypeParameters) != 1 {
		t.Fatalf("TypeParameters = %+v, want a single entry", cs.TypeParameters)
	}
	if cs.Superclass.ClassName != "java.lang.Object" {
		t.Errorf("Superclass = %+v, want java.lang.Object", cs.Superclass)
	}
	if len(cs.SuperInterfaces) != 1 || cs.SuperInterfaces[0].ClassName != "java.io.Serializable" {
		t.Errorf("SuperInterfaces = %+v, want a single java.io.Serializable", cs.SuperInterfaces)
	}
}

func TestMergeMethodSignaturePassesThroughSyntheticAndMandated(t *testing.T) {
	pv, err := ParseMethodSignature("(Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	internal := []InternalParameter{
		{Type: &TypeSig{Kind: KindClass, ClassName: "OuterClass"}, Flags: ParamMandated},
		{Type: &TypeSig{Kind: KindClass, ClassName: "java.lang.String"}},
	}

	merged, err := MergeMethodSignature(pv, internal)
	if err != nil {
		t.Fatalf("MergeMethodSignature: %v", err)
	}
	if len(merged.ParameterTypes) != 2 {
		t.Fatalf("ParameterTypes = %v, want 2", merged.ParameterTypes)
	}
	if merged.ParameterTypes[0].ClassName != "OuterClass" {
		t.Errorf("ParameterTypes[0] = %+v, want the mandated OuterClass passed through", merged.ParameterTypes[0])
	}
	if merged.ParameterTypes[1].ClassName != "java.lang.String" {
		t.Errorf("ParameterTypes[1] = %+v, want java.lang.String", merged.ParameterTypes[1])
	}
}

func TestMergeMethodSignatureTypeVariableErasesCompatibly(t *testing.T) {
	pv, err := ParseMethodSignature("(TT;)V")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	internal := []InternalParameter{
		{Type: &TypeSig{Kind: KindClass, ClassName: "java.lang.Object"}},
	}

	merged, err := MergeMethodSignature(pv, internal)
	if err != nil {
		t.Fatalf("MergeMethodSignature: %v", err)
	}
	if merged.ParameterTypes[0].Kind != KindTypeVariable {
		t.Errorf("merged parameter = %+v, want the programmer-view type variable retained", merged.ParameterTypes[0])
	}
}

func TestMergeMethodSignatureDisagreementIsFatal(t *testing.T) {
	pv, err := ParseMethodSignature("(Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	internal := []InternalParameter{
		{Type: &TypeSig{Kind: KindClass, ClassName: "java.lang.Integer"}},
	}

	if _, err := MergeMethodSignature(pv, internal); err == nil {
		t.Error("expected a disagreement between String and Integer to be fatal")
	}
}

func TestMergeMethodSignatureCountMismatchIsFatal(t *testing.T) {
	pv, err := ParseMethodSignature("(Ljava/lang/String;Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	internal := []InternalParameter{
		{Type: &TypeSig{Kind: KindClass, ClassName: "java.lang.String"}},
	}

	if _, err := MergeMethodSignature(pv, internal); err == nil {
		t.Error("expected a programmer-view parameter with no internal-view counterpart to be fatal")
	}
}
