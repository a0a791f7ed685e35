package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyBuilderWrapsInReverseOrder(t *testing.T) {
	a := NewArena(Config{CheckTypes: true})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)

	bb := Begin(a)
	one, err := NewPrimOp(a, QuoteOp, nil, []*Node{NewIntLiteral(a, IntWidth32, 1)})
	require.NoError(t, err)
	vs1 := bb.Bind(one, []*Node{qi32})

	two, err := NewPrimOp(a, QuoteOp, nil, []*Node{NewIntLiteral(a, IntWidth32, 2)})
	require.NoError(t, err)
	vs2 := bb.Bind(two, []*Node{qi32})

	term := bb.Finish(NewYield(a, append(vs1, vs2...)))

	// Folding is off, so the outer let binds the instruction bound first
	// (one), wrapping the let for the instruction bound last (two).
	require.Equal(t, LetTag, term.Tag)
	outer := term.Payload.(LetPayload)
	assert.Same(t, one, outer.Instruction)

	inner := outer.Tail.Payload.(CasePayload).Body
	require.Equal(t, LetTag, inner.Tag)
	assert.Same(t, two, inner.Payload.(LetPayload).Instruction)
}

func TestBodyBuilderCancelDiscardsBindings(t *testing.T) {
	a := NewArena(Config{})
	bb := Begin(a)
	lit := NewIntLiteral(a, IntWidth32, 1)
	quote, _ := NewPrimOp(a, QuoteOp, nil, []*Node{lit})
	bb.Bind(quote, []*Node{NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)})

	bb.Cancel()
	term := bb.Finish(NewYield(a, nil))
	assert.Equal(t, YieldTag, term.Tag, "a cancelled builder finishes with only the terminator")
}

func TestBodyBuilderBindWithTypesMarksMutable(t *testing.T) {
	a := NewArena(Config{})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)
	bb := Begin(a)

	quote, _ := NewPrimOp(a, QuoteOp, nil, []*Node{NewIntLiteral(a, IntWidth32, 0)})
	bb.BindWithTypes(quote, []*Node{qi32})
	term := bb.Finish(NewYield(a, nil))

	require.Equal(t, LetTag, term.Tag)
	assert.True(t, term.Payload.(LetPayload).IsMutable)
}

func TestFinishAndWrapAsBlockProducesCase(t *testing.T) {
	a := NewArena(Config{})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)
	param := NewVariable(a, qi32, "p", nil, 0)

	bb := Begin(a)
	block := bb.FinishAndWrapAsBlock(NewYield(a, []*Node{param}), []*Node{param})

	require.Equal(t, CaseTag, block.Tag)
	cp := block.Payload.(CasePayload)
	assert.Equal(t, []*Node{param}, cp.Params)
	assert.Equal(t, YieldTag, cp.Body.Tag)
}

func TestBindOutputVariablesNamesFallBackPositionally(t *testing.T) {
	a := NewArena(Config{})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)
	bb := Begin(a)

	quote, _ := NewPrimOp(a, QuoteOp, nil, []*Node{NewIntLiteral(a, IntWidth32, 0), NewIntLiteral(a, IntWidth32, 1)})
	vars := bb.Bind(quote, []*Node{qi32, qi32})
	require.Len(t, vars, 2)
	assert.Equal(t, "v0", vars[0].Payload.(VariablePayload).Name)
	assert.Equal(t, "v1", vars[1].Payload.(VariablePayload).Name)
}

func TestBindNamedUsesCallerNames(t *testing.T) {
	a := NewArena(Config{})
	qi32 := NewQualifiedType(a, NewIntType(a, IntWidth32, true), true)
	bb := Begin(a)

	quote, _ := NewPrimOp(a, QuoteOp, nil, []*Node{NewIntLiteral(a, IntWidth32, 0)})
	vars := bb.BindNamed(quote, []*Node{qi32}, []string{"result"})
	require.Len(t, vars, 1)
	assert.Equal(t, "result", vars[0].Payload.(VariablePayload).Name)
}
