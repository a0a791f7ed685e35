package rewrite

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martty/shady-go/internal/ir"
	"github.com/martty/shady-go/internal/module"
)

// declShape is a flat, cycle-free summary of a declaration used to diff
// the source and rewritten module's declaration lists: the Node graph
// itself is cyclic (every node points back at its Arena) and isn't a
// sensible cmp.Diff target, but "same tags in the same order" is.
type declShape struct {
	Tag  string
	Name string
}

func shapes(decls []*ir.Node) []declShape {
	out := make([]declShape, len(decls))
	for i, d := range decls {
		out[i] = declShape{Tag: d.Tag.String(), Name: declName(d)}
	}
	return out
}

func declName(d *ir.Node) string {
	switch d.Tag {
	case ir.FunctionTag:
		return d.Payload.(*ir.FunctionPayload).Name
	case ir.ConstantTag:
		return d.Payload.(*ir.ConstantPayload).Name
	case ir.GlobalVariableTag:
		return d.Payload.(*ir.GlobalVariablePayload).Name
	default:
		return ""
	}
}

// buildIdentityModule constructs a small module with one function that
// calls another, a global variable, and a constant -- enough surface to
// exercise every declaration kind RewriteModule's two-phase pass (and
// the mutual-recursion cache it exists for) has to handle.
func buildIdentityModule(t *testing.T) *module.Module {
	t.Helper()
	m := module.New("src", ir.Config{CheckTypes: true})
	a := m.Arena
	i32 := ir.NewIntType(a, ir.IntWidth32, true)
	qi32 := ir.NewQualifiedType(a, i32, true)

	gv := ir.NewGlobalVariable(a, nil, "g", i32, ir.AsPrivateLogical)
	ir.SetGlobalVariableInit(gv, ir.NewIntLiteral(a, ir.IntWidth32, 1))
	m.AddDeclaration(gv)

	c := ir.NewConstant(a, nil, "c", nil)
	ir.SetConstantValue(c, ir.NewIntLiteral(a, ir.IntWidth32, 42))
	m.AddDeclaration(c)

	helper := ir.NewFunction(a, nil, "helper", false, nil, []*ir.Node{qi32})
	bb := ir.Begin(a)
	ir.SetFunctionBody(helper, bb.FinishAndWrapAsBlock(ir.NewReturn(a, helper, []*ir.Node{ir.NewIntLiteral(a, ir.IntWidth32, 7)}), nil))
	m.AddDeclaration(helper)

	main := ir.NewFunction(a, []ir.Annotation{{Name: "EntryPoint"}}, "main", false, nil, []*ir.Node{qi32})
	helperAddr, err := ir.NewFnAddr(a, helper)
	require.NoError(t, err)
	mainBB := ir.Begin(a)
	call, err := ir.NewCall(a, helperAddr, nil)
	require.NoError(t, err)
	vs := mainBB.Bind(call, []*ir.Node{qi32})
	ir.SetFunctionBody(main, mainBB.FinishAndWrapAsBlock(ir.NewReturn(a, main, vs), nil))
	m.AddDeclaration(main)

	return m
}

// TestIdentityRewriteRoundTrip exercises the round-trip law: rewriting a
// module through the default RecreateNodeIdentity dispatch produces a
// structurally-equivalent module with the same shape, one fresh node per
// source node.
func TestIdentityRewriteRoundTrip(t *testing.T) {
	src := buildIdentityModule(t)
	dst := module.New("dst", src.Arena.ConfigValue())

	r := New(src, dst, nil)
	out := r.RewriteModule()

	require.Len(t, out.Declarations, len(src.Declarations))
	for i, d := range out.Declarations {
		assert.Equal(t, src.Declarations[i].Tag, d.Tag)
		assert.NotSame(t, src.Declarations[i], d, "rewriting must build fresh nodes in the destination arena")
	}

	if diff := cmp.Diff(shapes(src.Declarations), shapes(out.Declarations)); diff != "" {
		t.Errorf("rewritten declaration shape diverged from source (-want +got):\n%s", diff)
	}

	mainOut := out.Lookup("main")
	require.NotNil(t, mainOut)
	fp := mainOut.Payload.(*ir.FunctionPayload)
	require.NotNil(t, fp.Body)
	assert.Equal(t, ir.LetTag, fp.Body.Payload.(ir.CasePayload).Body.Tag)
}

func TestRewriteModuleResolvesMutualDeclRefsThroughShells(t *testing.T) {
	src := buildIdentityModule(t)
	dst := module.New("dst", src.Arena.ConfigValue())

	r := New(src, dst, nil)
	out := r.RewriteModule()

	mainOut := out.Lookup("main")
	helperOut := out.Lookup("helper")
	require.NotNil(t, mainOut)
	require.NotNil(t, helperOut)

	body := mainOut.Payload.(*ir.FunctionPayload).Body.Payload.(ir.CasePayload).Body
	require.Equal(t, ir.LetTag, body.Tag)
	callInstr := body.Payload.(ir.LetPayload).Instruction
	require.Equal(t, ir.CallTag, callInstr.Tag)
	calleeAddr := callInstr.Payload.(ir.CallPayload).Callee
	require.Equal(t, ir.FnAddrTag, calleeAddr.Tag)
	assert.Same(t, helperOut, calleeAddr.Payload.(ir.FnAddrPayload).Fn, "the rewritten call must reference the rewritten helper, not the source one")
}

func TestRegisterProcessedAndLookup(t *testing.T) {
	src := module.New("src", ir.Config{})
	dst := module.New("dst", ir.Config{})
	r := New(src, dst, nil)

	n := ir.NewIntType(src.Arena, ir.IntWidth32, true)
	replacement := ir.NewIntType(dst.Arena, ir.IntWidth32, true)

	_, ok := r.Lookup(n)
	assert.False(t, ok)

	r.RegisterProcessed(n, replacement)
	got, ok := r.Lookup(n)
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestCustomDispatchOverridesDefault(t *testing.T) {
	src := module.New("src", ir.Config{})
	dst := module.New("dst", ir.Config{})

	lit := ir.NewIntLiteral(src.Arena, ir.IntWidth32, 1)
	gv := ir.NewGlobalVariable(src.Arena, nil, "g", ir.NewIntType(src.Arena, ir.IntWidth32, true), ir.AsPrivateLogical)
	ir.SetGlobalVariableInit(gv, lit)
	src.AddDeclaration(gv)

	replaced := ir.NewIntLiteral(dst.Arena, ir.IntWidth32, 99)
	dispatch := func(r *Rewriter, n *ir.Node) *ir.Node {
		if n.Tag == ir.IntLiteralTag {
			r.RegisterProcessed(n, replaced)
			return replaced
		}
		return r.RecreateNodeIdentity(n)
	}

	r := New(src, dst, dispatch)
	out := r.RewriteModule()

	outGV := out.Lookup("g")
	require.NotNil(t, outGV)
	assert.Same(t, replaced, outGV.Payload.(*ir.GlobalVariablePayload).Init)
}
