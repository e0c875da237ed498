package signature

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every fatal grammar error: the input matched
// the start of a production but then violated it (as opposed to an
// optional production simply not applying, which is reported as a nil
// result with a nil error).
var ErrMalformed = errors.New("signature: malformed")

const baseTypeCodes = "BCDFIJSZV"

// ParseTypeSignature parses a single TypeSignature (a field descriptor's
// generic counterpart) and requires the whole input to be consumed.
func ParseTypeSignature(src string) (*TypeSig, error) {
	c := newCursor(src)
	t, err := parseTypeSignature(c)
	if err != nil {
		return nil, err
	}
	if !c.eof() {
		return nil, fmt.Errorf("%w: trailing input %q", ErrMalformed, src[c.pos:])
	}
	return t, nil
}

// ParseMethodSignature parses a MethodSignature and requires the whole
// input to be consumed.
func ParseMethodSignature(src string) (*MethodSignature, error) {
	c := newCursor(src)
	m, err := parseMethodSignature(c)
	if err != nil {
		return nil, err
	}
	if !c.eof() {
		return nil, fmt.Errorf("%w: trailing input %q", ErrMalformed, src[c.pos:])
	}
	return m, nil
}

// ParseClassSignature parses a ClassSignature (a class's own generic
// declaration: type parameters, superclass, superinterfaces).
func ParseClassSignature(src string) (*ClassSignature, error) {
	c := newCursor(src)
	typeParams, err := parseTypeParameters(c)
	if err != nil {
		return nil, err
	}
	super, err := parseTypeSignature(c)
	if err != nil {
		return nil, fmt.Errorf("superclass: %w", err)
	}
	cs := &ClassSignature{TypeParameters: typeParams, Superclass: super}
	for !c.eof() {
		iface, err := parseTypeSignature(c)
		if err != nil {
			return nil, fmt.Errorf("superinterface: %w", err)
		}
		cs.SuperInterfaces = append(cs.SuperInterfaces, iface)
	}
	return cs, nil
}

// parseTypeSignature is the required TypeSignature production: a
// BaseTypeSignature or a ReferenceTypeSignature.
func parseTypeSignature(c *cursor) (*TypeSig, error) {
	if ch := c.peek(); indexByte(baseTypeCodes, ch) >= 0 {
		c.advance()
		return &TypeSig{Kind: KindBase, Base: ch}, nil
	}
	return parseReferenceType(c)
}

func parseReferenceType(c *cursor) (*TypeSig, error) {
	switch c.peek() {
	case 'L':
		return parseClassType(c)
	case 'T':
		return parseTypeVariable(c)
	case '[':
		return parseArrayType(c)
	default:
		return nil, fmt.Errorf("%w: expected a reference type signature at %q", ErrMalformed, remaining(c))
	}
}

// parseClassType parses `L` Identifier TypeArguments? (`.` suffix
// TypeArguments?)* `;`, normalizing `/` package separators to `.`.
func parseClassType(c *cursor) (*TypeSig, error) {
	if !c.expect('L') {
		return nil, fmt.Errorf("%w: expected 'L'", ErrMalformed)
	}

	name := c.readUntil("<.;")
	if name == "" {
		return nil, fmt.Errorf("%w: empty class name", ErrMalformed)
	}
	t := &TypeSig{Kind: KindClass, ClassName: normalizeSlashes(name)}

	args, err := parseTypeArgumentsOpt(c)
	if err != nil {
		return nil, err
	}
	t.TypeArgs = args

	for c.peek() == '.' {
		c.advance()
		suffixName := c.readUntil("<.;")
		if suffixName == "" {
			return nil, fmt.Errorf("%w: empty inner-class suffix", ErrMalformed)
		}
		suffixArgs, err := parseTypeArgumentsOpt(c)
		if err != nil {
			return nil, err
		}
		t.Suffixes = append(t.Suffixes, ClassSuffix{Name: suffixName, TypeArgs: suffixArgs})
	}

	if !c.expect(';') {
		return nil, fmt.Errorf("%w: expected ';' terminating class type signature", ErrMalformed)
	}
	return t, nil
}

func parseTypeVariable(c *cursor) (*TypeSig, error) {
	if !c.expect('T') {
		return nil, fmt.Errorf("%w: expected 'T'", ErrMalformed)
	}
	name := c.readUntil(";")
	if name == "" {
		return nil, fmt.Errorf("%w: empty type variable name", ErrMalformed)
	}
	if !c.expect(';') {
		return nil, fmt.Errorf("%w: expected ';' terminating type variable signature", ErrMalformed)
	}
	return &TypeSig{Kind: KindTypeVariable, VarName: name}, nil
}

func parseArrayType(c *cursor) (*TypeSig, error) {
	if !c.expect('[') {
		return nil, fmt.Errorf("%w: expected '['", ErrMalformed)
	}
	elem, err := parseTypeSignature(c)
	if err != nil {
		return nil, fmt.Errorf("array element: %w", err)
	}
	return &TypeSig{Kind: KindArray, ElementType: elem}, nil
}

// parseTypeArgumentsOpt parses an optional `< TypeArgument+ >` group,
// returning nil (not an error) when no '<' is present.
func parseTypeArgumentsOpt(c *cursor) ([]TypeArgument, error) {
	if c.peek() != '<' {
		return nil, nil
	}
	c.advance()

	var args []TypeArgument
	for c.peek() != '>' {
		if c.eof() {
			return nil, fmt.Errorf("%w: unterminated type argument list", ErrMalformed)
		}
		arg, err := parseTypeArgument(c)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	c.advance() // consume '>'
	return args, nil
}

func parseTypeArgument(c *cursor) (TypeArgument, error) {
	switch ch := c.peek(); ch {
	case '*':
		c.advance()
		return TypeArgument{Wildcard: '*'}, nil
	case '+', '-':
		c.advance()
		ref, err := parseReferenceType(c)
		if err != nil {
			return TypeArgument{}, fmt.Errorf("bounded type argument: %w", err)
		}
		return TypeArgument{Wildcard: ch, Type: ref}, nil
	default:
		ref, err := parseReferenceType(c)
		if err != nil {
			return TypeArgument{}, fmt.Errorf("type argument: %w", err)
		}
		return TypeArgument{Type: ref}, nil
	}
}

// parseTypeParameters parses an optional `< TypeParameter+ >` group at
// the front of a ClassSignature or MethodSignature, returning nil when
// no '<' is present.
func parseTypeParameters(c *cursor) ([]TypeParameter, error) {
	if c.peek() != '<' {
		return nil, nil
	}
	c.advance()

	var params []TypeParameter
	for c.peek() != '>' {
		if c.eof() {
			return nil, fmt.Errorf("%w: unterminated type parameter list", ErrMalformed)
		}
		p, err := parseTypeParameter(c)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	c.advance() // consume '>'
	return params, nil
}

// parseTypeParameter parses Identifier `:` ClassBound? (`:`
// InterfaceBound)*. ClassBound is absent exactly when the first `:` is
// immediately followed by another `:` or by the closing '>'.
func parseTypeParameter(c *cursor) (TypeParameter, error) {
	name := c.readUntil(":")
	if name == "" {
		return TypeParameter{}, fmt.Errorf("%w: empty type parameter name", ErrMalformed)
	}
	if !c.expect(':') {
		return TypeParameter{}, fmt.Errorf("%w: expected ':' after type parameter name", ErrMalformed)
	}

	p := TypeParameter{Name: name}
	if c.peek() != ':' && c.peek() != '>' {
		bound, err := parseReferenceType(c)
		if err != nil {
			return TypeParameter{}, fmt.Errorf("class bound: %w", err)
		}
		p.ClassBound = bound
	}
	for c.peek() == ':' {
		c.advance()
		bound, err := parseReferenceType(c)
		if err != nil {
			return TypeParameter{}, fmt.Errorf("interface bound: %w", err)
		}
		p.InterfaceBounds = append(p.InterfaceBounds, bound)
	}
	return p, nil
}

// parseMethodSignature parses TypeParameters? `(` TypeSignature* `)`
// TypeSignature (`^` Ref)*.
func parseMethodSignature(c *cursor) (*MethodSignature, error) {
	typeParams, err := parseTypeParameters(c)
	if err != nil {
		return nil, err
	}

	if !c.expect('(') {
		return nil, fmt.Errorf("%w: expected '(' opening parameter list", ErrMalformed)
	}
	m := &MethodSignature{TypeParameters: typeParams}
	for c.peek() != ')' {
		if c.eof() {
			return nil, fmt.Errorf("%w: unterminated parameter list", ErrMalformed)
		}
		param, err := parseTypeSignature(c)
		if err != nil {
			return nil, fmt.Errorf("parameter: %w", err)
		}
		m.ParameterTypes = append(m.ParameterTypes, param)
	}
	c.advance() // consume ')'

	ret, err := parseReturnType(c)
	if err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}
	m.ReturnType = ret

	for c.peek() == '^' {
		c.advance()
		thrown, err := parseReferenceType(c)
		if err != nil {
			return nil, fmt.Errorf("throws clause: %w", err)
		}
		m.Throws = append(m.Throws, thrown)
	}
	return m, nil
}

// parseReturnType is TypeSignature with the additional `V` (void) code
// the base-type alphabet already covers.
func parseReturnType(c *cursor) (*TypeSig, error) {
	return parseTypeSignature(c)
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

func remaining(c *cursor) string {
	if c.eof() {
		return ""
	}
	return c.src[c.pos:]
}
