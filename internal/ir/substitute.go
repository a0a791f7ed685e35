package ir

// Substituter is the in-arena rewriter specialization the folder uses
// for beta-reduction (§4.5 "Substituter specialization"): it walks a
// term replacing bound Variable nodes with the values bound to them and
// otherwise rebuilds every node it visits through the same construction
// path (mustConstruct) a fresh build would take, so a substitution can
// never produce a node that violates an invariant a normal build would
// have caught.
//
// This lives in package ir, not internal/rewrite, because the folder
// needs it during construct() itself; internal/rewrite's Rewriter is
// the general cross-module framework built on the same recursion shape
// but operating on an entire module's declaration list.
type Substituter struct {
	arena     *Arena
	bindings  map[*Node]*Node
	processed map[*Node]*Node
}

// NewSubstituter creates a substituter that rebuilds nodes in arena.
func NewSubstituter(arena *Arena) *Substituter {
	return &Substituter{
		arena:     arena,
		bindings:  make(map[*Node]*Node),
		processed: make(map[*Node]*Node),
	}
}

// Bind records that every occurrence of variable should be replaced by
// value in the term RewriteNode is about to walk.
func (s *Substituter) Bind(variable, value *Node) {
	s.bindings[variable] = value
}

// RewriteNode rewrites n, substituting bound variables and rebuilding
// every structural ancestor. register_processed happens before
// recursing into children so a node that (transitively) refers back to
// itself -- impossible for the acyclic terms the folder handles, but a
// discipline carried over intact from the general rewriter -- cannot
// cause unbounded recursion.
func (s *Substituter) RewriteNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	if replacement, ok := s.bindings[n]; ok {
		return replacement
	}
	if cached, ok := s.processed[n]; ok {
		return cached
	}

	switch n.Tag {
	case VariableTag:
		s.processed[n] = n
		return n
	case CaseTag:
		p := n.Payload.(CasePayload)
		rebuilt := &Node{Arena: n.Arena, Tag: CaseTag, Type: n.Type, Payload: CasePayload{
			Params: p.Params,
			Body:   s.RewriteNode(p.Body),
		}}
		s.processed[n] = rebuilt
		return rebuilt
	case LetTag:
		p := n.Payload.(LetPayload)
		instr := s.RewriteNode(p.Instruction)
		tail := s.RewriteNode(p.Tail)
		rebuilt := mustConstruct(s.arena, LetTag, LetPayload{
			Variables: p.Variables, Instruction: instr, Tail: tail, IsMutable: p.IsMutable,
		}, func() (*Node, error) { return checkLet(LetPayload{Tail: tail}) })
		s.processed[n] = rebuilt
		return rebuilt
	case PrimOpTag:
		p := n.Payload.(PrimOpPayload)
		operands := s.rewriteList(p.Operands)
		rebuilt := mustConstruct(s.arena, PrimOpTag, PrimOpPayload{
			Op: p.Op, TypeArguments: p.TypeArguments, Operands: operands,
		}, func() (*Node, error) { return checkPrimOp(s.arena, PrimOpPayload{Op: p.Op, TypeArguments: p.TypeArguments, Operands: operands}) })
		s.processed[n] = rebuilt
		return rebuilt
	case CallTag:
		p := n.Payload.(CallPayload)
		callee := s.RewriteNode(p.Callee)
		args := s.rewriteList(p.Args)
		rebuilt := mustConstruct(s.arena, CallTag, CallPayload{Callee: callee, Args: args},
			func() (*Node, error) { return checkCall(s.arena, CallPayload{Callee: callee, Args: args}) })
		s.processed[n] = rebuilt
		return rebuilt
	case YieldTag:
		p := n.Payload.(YieldPayload)
		rebuilt := mustConstruct(s.arena, YieldTag, YieldPayload{Args: s.rewriteList(p.Args)}, nil)
		s.processed[n] = rebuilt
		return rebuilt
	case TailCallTag:
		p := n.Payload.(TailCallPayload)
		rebuilt := mustConstruct(s.arena, TailCallTag, TailCallPayload{
			Target: s.RewriteNode(p.Target), Args: s.rewriteList(p.Args),
		}, nil)
		s.processed[n] = rebuilt
		return rebuilt
	case JoinTag:
		p := n.Payload.(JoinPayload)
		rebuilt := mustConstruct(s.arena, JoinTag, JoinPayload{
			JoinPoint: s.RewriteNode(p.JoinPoint), Args: s.rewriteList(p.Args),
		}, nil)
		s.processed[n] = rebuilt
		return rebuilt
	case ReturnTag:
		p := n.Payload.(ReturnPayload)
		rebuilt := mustConstruct(s.arena, ReturnTag, ReturnPayload{Fn: p.Fn, Args: s.rewriteList(p.Args)}, nil)
		s.processed[n] = rebuilt
		return rebuilt
	default:
		// Every other node kind this pass encounters (literals,
		// declarations referenced by decl_ref, types) carries no bound
		// variable inside it worth substituting through -- return as is.
		s.processed[n] = n
		return n
	}
}

func (s *Substituter) rewriteList(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = s.RewriteNode(n)
	}
	return out
}
