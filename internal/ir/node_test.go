package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagClassification(t *testing.T) {
	tests := []struct {
		name string
		tag  NodeTag
		fn   func(NodeTag) bool
	}{
		{"int_type is a type", IntTypeTag, IsType},
		{"int_literal is a value", IntLiteralTag, IsValue},
		{"prim_op is an instruction", PrimOpTag, IsInstruction},
		{"return is a terminator", ReturnTag, IsTerminator},
		{"function is a declaration", FunctionTag, IsDeclaration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.fn(tt.tag))
		})
	}
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "int_type", IntTypeTag.String())
	assert.Equal(t, "tail_call", TailCallTag.String())
	assert.Equal(t, "invalid", NodeTag(-1).String())
	assert.Equal(t, "invalid", numNodeTags.String())
}

func TestIsNominal(t *testing.T) {
	assert.True(t, IsNominal(VariableTag))
	assert.True(t, IsNominal(FunctionTag))
	assert.True(t, IsNominal(CaseTag))
	assert.False(t, IsNominal(IntTypeTag))
	assert.False(t, IsNominal(IntLiteralTag))
	assert.True(t, IsStructural(IntTypeTag))
	assert.False(t, IsStructural(VariableTag))
}

// TestHashConsingStructuralTypes verifies the construction algorithm's
// core promise (§4.1): two structurally identical type nodes built from
// the same arena are the same *Node.
func TestHashConsingStructuralTypes(t *testing.T) {
	a := NewArena(Config{})

	i1 := NewIntType(a, IntWidth32, true)
	i2 := NewIntType(a, IntWidth32, true)
	assert.Same(t, i1, i2, "equal int_type payloads must hash-cons to the same node")

	i3 := NewIntType(a, IntWidth32, false)
	assert.NotSame(t, i1, i3, "differing signedness must not collapse")

	q1 := NewQualifiedType(a, i1, true)
	q2 := NewQualifiedType(a, i1, true)
	assert.Same(t, q1, q2)

	q3 := NewQualifiedType(a, i1, false)
	assert.NotSame(t, q1, q3)
}

func TestHashConsingAcrossArenasNeverShares(t *testing.T) {
	a1 := NewArena(Config{})
	a2 := NewArena(Config{})

	i1 := NewIntType(a1, IntWidth32, true)
	i2 := NewIntType(a2, IntWidth32, true)
	assert.NotSame(t, i1, i2, "nodes never migrate/share between arenas")
}

// TestVariablesAreNeverHashConsed exercises the nominal half of §3.4:
// two variables built with identical name/type never compare equal even
// though their payloads match field for field.
func TestVariablesAreNeverHashConsed(t *testing.T) {
	a := NewArena(Config{})
	i32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)

	v1 := NewVariable(a, i32, "x", nil, 0)
	v2 := NewVariable(a, i32, "x", nil, 0)
	assert.NotSame(t, v1, v2, "variable identity is nominal, never structural")
	assert.NotEqual(t, v1.Payload.(VariablePayload).ID, v2.Payload.(VariablePayload).ID)
}

// TestEmptyRecordIsVoid exercises the §8 boundary: an empty record type
// is valid and denotes void.
func TestEmptyRecordIsVoid(t *testing.T) {
	a := NewArena(Config{})
	void := NewRecordType(a, nil, nil, false)
	require.NotNil(t, void)
	assert.Empty(t, void.Payload.(RecordTypePayload).Members)
}

// TestArrayWithNilSizeIsRuntimeArray exercises the §8 boundary: a nil
// size denotes a runtime (unsized) array, distinct from a zero-length one.
func TestArrayWithNilSizeIsRuntimeArray(t *testing.T) {
	a := NewArena(Config{})
	i32 := NewIntType(a, IntWidth32, true)

	runtime := NewArrType(a, i32, nil)
	assert.Nil(t, runtime.Payload.(ArrTypePayload).Size)

	zeroLen := NewIntLiteral(a, IntWidth32, 0)
	sized := NewArrType(a, i32, zeroLen)
	assert.NotNil(t, sized.Payload.(ArrTypePayload).Size)
	assert.NotSame(t, runtime, sized, "nil-size and zero-size arrays are distinct types")
}

// TestPackTypeRejectsWidthBelowTwo exercises the §8 boundary directly.
func TestPackTypeRejectsWidthBelowTwo(t *testing.T) {
	a := NewArena(Config{})
	f32 := NewFloatType(a, FloatWidth32)

	_, err := NewPackType(a, f32, 1)
	require.Error(t, err)

	p, err := NewPackType(a, f32, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Payload.(PackTypePayload).Width)
}

func TestIntLiteralRoundTripsUnderExtract(t *testing.T) {
	a := NewArena(Config{CheckTypes: true})
	i32 := NewIntType(a, IntWidth32, true)
	lit := NewIntLiteral(a, IntWidth32, 42)

	extracted, err := NewPrimOp(a, ExtractOp, []*Node{i32}, []*Node{lit})
	require.NoError(t, err)

	base, uniform := StripQualifier(extracted.Type)
	assert.Same(t, i32, base)
	assert.Equal(t, Uniform, uniform)
}

func TestNewFunctionSignatureThenSetBodyOnce(t *testing.T) {
	a := NewArena(Config{CheckTypes: true})
	i32 := NewIntType(a, IntWidth32, true)
	qi32 := NewQualifiedType(a, i32, true)

	fn := NewFunction(a, nil, "identity", false, nil, []*Node{qi32})
	require.NotNil(t, fn.Type, "a function's signature type is computed before its body exists")

	bb := Begin(a)
	ret := NewReturn(a, fn, []*Node{NewIntLiteral(a, IntWidth32, 1)})
	body := bb.FinishAndWrapAsBlock(ret, nil)
	SetFunctionBody(fn, body)

	assert.Panics(t, func() { SetFunctionBody(fn, body) }, "setting a function body twice is a structural violation")
}

func TestStringInterning(t *testing.T) {
	a := NewArena(Config{})
	s1 := a.InternString("foo")
	s2 := a.InternString("foo")
	assert.Equal(t, s1, s2)
}

func TestFreshIDMonotonic(t *testing.T) {
	a := NewArena(Config{})
	id1 := a.FreshID()
	id2 := a.FreshID()
	assert.Less(t, id1, id2)
}
