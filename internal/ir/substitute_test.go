package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituterReplacesBoundVariable(t *testing.T) {
	a := NewArena(Config{})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)
	x := NewVariable(a, qi32, "x", nil, 0)
	replacement := NewIntLiteral(a, IntWidth32, 9)

	sub := NewSubstituter(a)
	sub.Bind(x, replacement)

	term := NewYield(a, []*Node{x})
	result := sub.RewriteNode(term)

	require.Equal(t, YieldTag, result.Tag)
	assert.Same(t, replacement, result.Payload.(YieldPayload).Args[0])
}

func TestSubstituterLeavesUnboundVariableAlone(t *testing.T) {
	a := NewArena(Config{})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)
	x := NewVariable(a, qi32, "x", nil, 0)

	sub := NewSubstituter(a)
	term := NewYield(a, []*Node{x})
	result := sub.RewriteNode(term)

	assert.Same(t, x, result.Payload.(YieldPayload).Args[0])
}

func TestSubstituterRebuildsThroughLetAndPrimOp(t *testing.T) {
	a := NewArena(Config{CheckTypes: true})
	i32 := NewIntType(a, IntWidth32, true)
	qi32 := NewQualifiedType(a, i32, true)
	x := NewVariable(a, qi32, "x", nil, 0)
	replacement := NewIntLiteral(a, IntWidth32, 3)

	bb := Begin(a)
	sum, err := NewPrimOp(a, AddOp, nil, []*Node{x, NewIntLiteral(a, IntWidth32, 1)})
	require.NoError(t, err)
	vs := bb.Bind(sum, []*Node{qi32})
	term := bb.Finish(NewYield(a, vs))

	sub := NewSubstituter(a)
	sub.Bind(x, replacement)
	result := sub.RewriteNode(term)

	require.Equal(t, LetTag, result.Tag)
	instr := result.Payload.(LetPayload).Instruction
	require.Equal(t, PrimOpTag, instr.Tag)
	assert.Same(t, replacement, instr.Payload.(PrimOpPayload).Operands[0])
}

func TestSubstituterMemoizesRepeatedNodes(t *testing.T) {
	a := NewArena(Config{})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)
	x := NewVariable(a, qi32, "x", nil, 0)

	sub := NewSubstituter(a)
	// x appears unbound here; RewriteNode memoizes its own identity so a
	// node referenced twice in the same term rewrites once.
	first := sub.RewriteNode(x)
	second := sub.RewriteNode(x)
	assert.Same(t, first, second)
}
