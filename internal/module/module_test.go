package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martty/shady-go/internal/ir"
)

func TestAddDeclarationAndLookup(t *testing.T) {
	m := New("test", ir.Config{})
	qi32 := ir.NewQualifiedType(m.Arena, ir.NewIntType(m.Arena, ir.IntWidth32, true), true)
	fn := ir.NewFunction(m.Arena, nil, "main", false, nil, []*ir.Node{qi32})
	m.AddDeclaration(fn)

	assert.Same(t, fn, m.Lookup("main"))
	assert.Nil(t, m.Lookup("missing"))
}

func TestFunctionsFiltersOtherDeclarationKinds(t *testing.T) {
	m := New("test", ir.Config{})
	qi32 := ir.NewQualifiedType(m.Arena, ir.NewIntType(m.Arena, ir.IntWidth32, true), true)
	fn := ir.NewFunction(m.Arena, nil, "f", false, nil, []*ir.Node{qi32})
	gv := ir.NewGlobalVariable(m.Arena, nil, "g", ir.NewIntType(m.Arena, ir.IntWidth32, true), ir.AsPrivateLogical)
	c := ir.NewConstant(m.Arena, nil, "c", nil)

	m.AddDeclaration(fn)
	m.AddDeclaration(gv)
	m.AddDeclaration(c)

	fns := m.Functions()
	require.Len(t, fns, 1)
	assert.Same(t, fn, fns[0])
}

func TestHasAnnotation(t *testing.T) {
	m := New("test", ir.Config{})
	anns := []ir.Annotation{{Name: "EntryPoint"}}
	fn := ir.NewFunction(m.Arena, anns, "main", false, nil, nil)

	assert.True(t, HasAnnotation(fn, "EntryPoint"))
	assert.False(t, HasAnnotation(fn, "Kernel"))
}

func TestDeclarationOrderPreserved(t *testing.T) {
	m := New("test", ir.Config{})
	a := ir.NewFunction(m.Arena, nil, "a", false, nil, nil)
	b := ir.NewFunction(m.Arena, nil, "b", false, nil, nil)
	m.AddDeclaration(a)
	m.AddDeclaration(b)

	require.Len(t, m.Declarations, 2)
	assert.Same(t, a, m.Declarations[0])
	assert.Same(t, b, m.Declarations[1])
}
