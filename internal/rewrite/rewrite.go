// Package rewrite is the general rewriter framework every transform
// pass (the tail-call lowering pass included) builds on: a source
// module, a destination module, a per-node dispatch function, and a
// processed-node cache that must be populated before a dispatch
// recurses into a node's children so mutually-recursive declarations
// -- a function whose body calls a function defined later in the same
// module -- don't send the walk into infinite recursion.
//
// ir.Substituter (internal/ir/substitute.go) is this same recursion
// shape specialized for the folder's single-arena beta-reduction; this
// package is the cross-module version a full pass needs, with the
// two-pass "pre-register a shell, then fill it in" discipline
// recursive declarations require.
package rewrite

import (
	"github.com/martty/shady-go/internal/ir"
	"github.com/martty/shady-go/internal/module"
)

// Dispatch is a rewrite pass's per-node hook. The default, used when a
// pass supplies none, is Rewriter.RecreateNodeIdentity -- a structural
// copy into the destination arena that changes nothing. A pass
// overrides Dispatch to special-case the node kinds it transforms and
// falls back to r.RecreateNodeIdentity(n) for everything else.
type Dispatch func(r *Rewriter, n *ir.Node) *ir.Node

// Rewriter carries one rewrite pass's state: the module being read,
// the module being built, and the cache mapping already-visited source
// nodes to their destination-arena replacements.
type Rewriter struct {
	Src       *module.Module
	Dst       *module.Module
	dispatch  Dispatch
	processed map[*ir.Node]*ir.Node
}

// New creates a rewriter reading Src and writing into Dst (typically
// freshly created with module.New against a new arena -- nodes never
// migrate between arenas, so every pass builds its output in one).
func New(src, dst *module.Module, dispatch Dispatch) *Rewriter {
	if dispatch == nil {
		dispatch = (*Rewriter).RecreateNodeIdentity
	}
	return &Rewriter{Src: src, Dst: dst, dispatch: dispatch, processed: make(map[*ir.Node]*ir.Node)}
}

// RegisterProcessed records that src rewrites to dst before recursing
// into src's children -- the step that breaks cycles through
// recursive or mutually-recursive declarations.
func (r *Rewriter) RegisterProcessed(src, dst *ir.Node) {
	r.processed[src] = dst
}

// Lookup returns a node already rewritten via RegisterProcessed, or
// nil if n hasn't been visited yet.
func (r *Rewriter) Lookup(n *ir.Node) (*ir.Node, bool) {
	dst, ok := r.processed[n]
	return dst, ok
}

// RewriteNode rewrites n through the cache: a cache hit short-circuits
// the dispatch entirely, so a pass never needs to guard against
// revisiting the same node twice.
func (r *Rewriter) RewriteNode(n *ir.Node) *ir.Node {
	if n == nil {
		return nil
	}
	if cached, ok := r.processed[n]; ok {
		return cached
	}
	return r.dispatch(r, n)
}

// RewriteModule runs the pass over every declaration in Src and
// returns Dst. Declarations are pre-registered as empty shells (pass
// 1) before any body is rewritten (pass 2) so a decl_ref to a
// not-yet-completed declaration -- inevitable for mutual recursion --
// resolves to the shell rather than triggering re-entrant rewriting.
func (r *Rewriter) RewriteModule() *module.Module {
	for _, d := range r.Src.Declarations {
		r.preRegisterDeclaration(d)
	}
	for _, d := range r.Src.Declarations {
		r.completeDeclaration(d)
	}
	for _, d := range r.Src.Declarations {
		r.Dst.AddDeclaration(r.processed[d])
	}
	return r.Dst
}

func (r *Rewriter) preRegisterDeclaration(d *ir.Node) {
	switch d.Tag {
	case ir.FunctionTag:
		p := d.Payload.(*ir.FunctionPayload)
		params := r.rewriteVariables(p.Params)
		shell := ir.NewFunction(r.Dst.Arena, p.Annotations, p.Name, p.IsBasicBlock, params, r.rewriteList(p.ReturnTypes))
		r.RegisterProcessed(d, shell)
	case ir.ConstantTag:
		p := d.Payload.(*ir.ConstantPayload)
		shell := ir.NewConstant(r.Dst.Arena, p.Annotations, p.Name, r.RewriteNode(p.TypeHint))
		r.RegisterProcessed(d, shell)
	case ir.GlobalVariableTag:
		p := d.Payload.(*ir.GlobalVariablePayload)
		shell := ir.NewGlobalVariable(r.Dst.Arena, p.Annotations, p.Name, r.RewriteNode(p.Type), p.AddressSpace)
		r.RegisterProcessed(d, shell)
	default:
		r.RegisterProcessed(d, r.RewriteNode(d))
	}
}

func (r *Rewriter) completeDeclaration(d *ir.Node) {
	switch d.Tag {
	case ir.FunctionTag:
		p := d.Payload.(*ir.FunctionPayload)
		if p.Body != nil {
			shell := r.processed[d]
			ir.SetFunctionBody(shell, r.RewriteNode(p.Body))
		}
	case ir.ConstantTag:
		p := d.Payload.(*ir.ConstantPayload)
		if p.Value != nil {
			ir.SetConstantValue(r.processed[d], r.RewriteNode(p.Value))
		}
	case ir.GlobalVariableTag:
		p := d.Payload.(*ir.GlobalVariablePayload)
		if p.Init != nil {
			ir.SetGlobalVariableInit(r.processed[d], r.RewriteNode(p.Init))
		}
	}
}

// rewriteVariables rewrites a parameter list: fresh Variable nodes in
// the destination arena, preserving name/instruction/output but never
// sharing identity with the source variables (§3.4: variables are
// nominal).
func (r *Rewriter) rewriteVariables(vars []*ir.Node) []*ir.Node {
	out := make([]*ir.Node, len(vars))
	for i, v := range vars {
		out[i] = r.RewriteNode(v)
	}
	return out
}

func (r *Rewriter) rewriteList(nodes []*ir.Node) []*ir.Node {
	if nodes == nil {
		return nil
	}
	out := make([]*ir.Node, len(nodes))
	for i, n := range nodes {
		out[i] = r.RewriteNode(n)
	}
	return out
}
