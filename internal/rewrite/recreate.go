package rewrite

import "github.com/martty/shady-go/internal/ir"

// RecreateNodeIdentity is the default Dispatch: it rebuilds n in the
// destination arena, rewriting every child reference through
// r.RewriteNode first, changing nothing about the term itself. A pass
// that only needs to transform a handful of node kinds implements a
// Dispatch that special-cases those kinds and calls this for
// everything else -- the same "copy unless you have a reason not to"
// default shady's rewrite.c gives every pass.
//
// Every branch registers its result with RegisterProcessed once it is
// built, after its children have been rewritten, plain value/type nodes
// included (not just declarations), so that a node appearing twice in
// the same term -- the common case once hash-consing is involved --
// rewrites to the same destination node rather than twice. Only
// basic_block registers its shell before rewriting its body;
// declarations are pre-registered by RewriteModule.
func (r *Rewriter) RecreateNodeIdentity(n *ir.Node) *ir.Node {
	a := r.Dst.Arena
	switch n.Tag {

	// ---- Types ----
	case ir.IntTypeTag:
		p := n.Payload.(ir.IntTypePayload)
		out := ir.NewIntType(a, p.Width, p.Signed)
		r.RegisterProcessed(n, out)
		return out
	case ir.FloatTypeTag:
		p := n.Payload.(ir.FloatTypePayload)
		out := ir.NewFloatType(a, p.Width)
		r.RegisterProcessed(n, out)
		return out
	case ir.BoolTypeTag:
		out := ir.NewBoolType(a)
		r.RegisterProcessed(n, out)
		return out
	case ir.PtrTypeTag:
		p := n.Payload.(ir.PtrTypePayload)
		out := ir.NewPtrType(a, r.RewriteNode(p.PointedType), p.AddressSpace)
		r.RegisterProcessed(n, out)
		return out
	case ir.ArrTypeTag:
		p := n.Payload.(ir.ArrTypePayload)
		out := ir.NewArrType(a, r.RewriteNode(p.ElementType), r.RewriteNode(p.Size))
		r.RegisterProcessed(n, out)
		return out
	case ir.PackTypeTag:
		p := n.Payload.(ir.PackTypePayload)
		out, err := ir.NewPackType(a, r.RewriteNode(p.ElementType), p.Width)
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.RecordTypeTag:
		p := n.Payload.(ir.RecordTypePayload)
		out := ir.NewRecordType(a, r.rewriteList(p.Members), p.Names, p.Special)
		r.RegisterProcessed(n, out)
		return out
	case ir.FnTypeTag:
		p := n.Payload.(ir.FnTypePayload)
		out := ir.NewFnType(a, p.IsBasicBlock, r.rewriteList(p.ParamTypes), r.rewriteList(p.ReturnTypes))
		r.RegisterProcessed(n, out)
		return out
	case ir.QualifiedTypeTag:
		p := n.Payload.(ir.QualifiedTypePayload)
		out := ir.NewQualifiedType(a, r.RewriteNode(p.Type), p.IsUniform)
		r.RegisterProcessed(n, out)
		return out
	case ir.JoinPointTypeTag:
		out := ir.NewJoinPointType(a)
		r.RegisterProcessed(n, out)
		return out
	case ir.MaskTypeTag:
		out := ir.NewMaskType(a)
		r.RegisterProcessed(n, out)
		return out
	case ir.DeclRefTypeTag:
		p := n.Payload.(ir.DeclRefTypePayload)
		out := ir.NewDeclRefType(a, r.RewriteNode(p.Decl))
		r.RegisterProcessed(n, out)
		return out

	// ---- Values ----
	case ir.IntLiteralTag:
		p := n.Payload.(ir.IntLiteralPayload)
		out := ir.NewIntLiteral(a, p.Width, p.Value)
		r.RegisterProcessed(n, out)
		return out
	case ir.FloatLiteralTag:
		p := n.Payload.(ir.FloatLiteralPayload)
		out := ir.NewFloatLiteral(a, p.Width, p.Value)
		r.RegisterProcessed(n, out)
		return out
	case ir.BoolLiteralTag:
		p := n.Payload.(ir.BoolLiteralPayload)
		out := ir.NewBoolLiteral(a, p.Value)
		r.RegisterProcessed(n, out)
		return out
	case ir.StringLiteralTag:
		p := n.Payload.(ir.StringLiteralPayload)
		out := ir.NewStringLiteral(a, p.Value)
		r.RegisterProcessed(n, out)
		return out
	case ir.NullPtrTag:
		p := n.Payload.(ir.NullPtrPayload)
		out, err := ir.NewNullPtr(a, r.RewriteNode(p.Type))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.UndefTag:
		p := n.Payload.(ir.UndefPayload)
		out, err := ir.NewUndef(a, r.RewriteNode(p.Type))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.CompositeTag:
		p := n.Payload.(ir.CompositePayload)
		out, err := ir.NewComposite(a, r.RewriteNode(p.Type), r.rewriteList(p.Elements))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.TupleTag:
		p := n.Payload.(ir.TuplePayload)
		out, err := ir.NewTuple(a, r.rewriteList(p.Elements))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.VariableTag:
		p := n.Payload.(ir.VariablePayload)
		out := ir.NewVariable(a, r.RewriteNode(p.Type), p.Name, r.RewriteNode(p.Instruction), p.Output)
		r.RegisterProcessed(n, out)
		return out
	case ir.FnAddrTag:
		p := n.Payload.(ir.FnAddrPayload)
		out, err := ir.NewFnAddr(a, r.RewriteNode(p.Fn))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.DeclRefTag:
		p := n.Payload.(ir.DeclRefPayload)
		out, err := ir.NewDeclRef(a, r.RewriteNode(p.Decl))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out

	// ---- Instructions ----
	case ir.PrimOpTag:
		p := n.Payload.(ir.PrimOpPayload)
		out, err := ir.NewPrimOp(a, p.Op, r.rewriteList(p.TypeArguments), r.rewriteList(p.Operands))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.CallTag:
		p := n.Payload.(ir.CallPayload)
		out, err := ir.NewCall(a, r.RewriteNode(p.Callee), r.rewriteList(p.Args))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.ControlTag:
		p := n.Payload.(ir.ControlPayload)
		out, err := ir.NewControl(a, r.rewriteList(p.YieldTypes), r.RewriteNode(p.Inside))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.IfTag:
		p := n.Payload.(ir.IfPayload)
		out, err := ir.NewIf(a, r.RewriteNode(p.Condition), r.rewriteList(p.YieldTypes), r.RewriteNode(p.IfTrue), r.RewriteNode(p.IfFalse))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.MatchTag:
		p := n.Payload.(ir.MatchPayload)
		out, err := ir.NewMatch(a, r.RewriteNode(p.Inspect), r.rewriteList(p.YieldTypes), r.rewriteList(p.Literals), r.rewriteList(p.Cases), r.RewriteNode(p.DefaultCase))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out
	case ir.LoopTag:
		p := n.Payload.(ir.LoopPayload)
		out, err := ir.NewLoop(a, r.rewriteList(p.YieldTypes), r.rewriteList(p.InitialArgs), r.RewriteNode(p.Body))
		if err != nil {
			panic(err)
		}
		r.RegisterProcessed(n, out)
		return out

	// ---- Terminators ----
	case ir.YieldTag:
		p := n.Payload.(ir.YieldPayload)
		out := ir.NewYield(a, r.rewriteList(p.Args))
		r.RegisterProcessed(n, out)
		return out
	case ir.LetTag:
		p := n.Payload.(ir.LetPayload)
		instr := r.RewriteNode(p.Instruction)
		tail := r.RewriteNode(p.Tail)
		out := ir.NewLet(a, instr, tail, p.IsMutable)
		r.RegisterProcessed(n, out)
		return out
	case ir.TailCallTag:
		p := n.Payload.(ir.TailCallPayload)
		out := ir.NewTailCall(a, r.RewriteNode(p.Target), r.rewriteList(p.Args))
		r.RegisterProcessed(n, out)
		return out
	case ir.JoinTag:
		p := n.Payload.(ir.JoinPayload)
		out := ir.NewJoin(a, r.RewriteNode(p.JoinPoint), r.rewriteList(p.Args))
		r.RegisterProcessed(n, out)
		return out
	case ir.ReturnTag:
		p := n.Payload.(ir.ReturnPayload)
		out := ir.NewReturn(a, r.RewriteNode(p.Fn), r.rewriteList(p.Args))
		r.RegisterProcessed(n, out)
		return out
	case ir.MergeBreakTag:
		p := n.Payload.(ir.MergeBreakPayload)
		out := ir.NewMergeBreak(a, r.rewriteList(p.Args))
		r.RegisterProcessed(n, out)
		return out
	case ir.MergeContinueTag:
		p := n.Payload.(ir.MergeContinuePayload)
		out := ir.NewMergeContinue(a, r.rewriteList(p.Args))
		r.RegisterProcessed(n, out)
		return out
	case ir.UnreachableTag:
		out := ir.NewUnreachable(a)
		r.RegisterProcessed(n, out)
		return out

	// ---- Declarations ----
	case ir.CaseTag:
		p := n.Payload.(ir.CasePayload)
		params := r.rewriteVariables(p.Params)
		out := ir.NewCase(a, params, r.RewriteNode(p.Body))
		r.RegisterProcessed(n, out)
		return out
	case ir.BasicBlockTag:
		p := n.Payload.(*ir.BasicBlockPayload)
		params := r.rewriteVariables(p.Params)
		shell := ir.NewBasicBlock(a, p.Name, params)
		r.RegisterProcessed(n, shell)
		if p.Body != nil {
			ir.SetBasicBlockBody(shell, r.RewriteNode(p.Body))
		}
		return shell
	case ir.FunctionTag, ir.ConstantTag, ir.GlobalVariableTag:
		// Top-level declarations are always pre-registered by
		// RewriteModule's first pass; reaching here means a decl_ref
		// found one RewriteModule hasn't processed yet (a declaration
		// referenced but not itself a member of the module being
		// rewritten), which is a caller error in how the module was
		// built, not a rewriter bug.
		if out, ok := r.Lookup(n); ok {
			return out
		}
		panic("rewrite: declaration referenced before being registered: " + n.String())

	default:
		panic("rewrite: no RecreateNodeIdentity case for " + n.Tag.String())
	}
}
