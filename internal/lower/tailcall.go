// Package lower implements the tail-call lowering pass (§4.8): every
// statically resolvable tail call is turned into a trampoline bounce
// through one generated dispatch function, so a target with no native
// tail call or function pointer (the kind of backend this kernel's
// primop set targets) can still execute mutually tail-recursive code.
//
// Grounded on lower_tailcalls.c's fn_ptrs table and
// generate_top_level_dispatch_fn, but adapted to this kernel's opcode
// subset: that pass assigns each dispatched function a real pointer
// value and spills arguments through actual addressable memory: this
// one has no load/store or pointer arithmetic primops, only
// push_stack/pop_stack, so a dispatched function's parameters travel
// over the implicit stack those primops model and "the function
// pointer" becomes a plain int32 id matched by the dispatcher's Match
// instruction.
package lower

import (
	"github.com/martty/shady-go/internal/errors"
	"github.com/martty/shady-go/internal/ir"
	"github.com/martty/shady-go/internal/module"
	"github.com/martty/shady-go/internal/rewrite"
)

// Config mirrors the compiler-wide knobs relevant to this pass.
type Config struct {
	// MaxTopIterations bounds the generated dispatcher's trampoline
	// loop; non-positive means "no bound" (the loop carries no counter
	// at all). A finite bound is mainly a safety net for a lowering bug
	// that would otherwise produce an infinite bounce.
	MaxTopIterations int
}

const killID = 0

type lowerPanic struct{ err error }

// LowerTailCalls rewrites src into a module with every tail call
// converted to a trampoline bounce. Returns an Unimplemented report if
// some tail call's target can't be resolved statically, or if an
// ordinary (non-tail) call targets a function also reached by tail
// call -- both documented limitations rather than silent miscompiles.
func LowerTailCalls(src *module.Module, cfg Config) (result *module.Module, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if lp, ok := rec.(lowerPanic); ok {
				result, err = nil, lp.err
				return
			}
			panic(rec)
		}
	}()

	nonLeaf, resolveErr := findDispatchTargets(src)
	if resolveErr != nil {
		return nil, resolveErr
	}

	dst := module.New(src.Name, src.Arena.ConfigValue())
	lc := &lowerCtx{
		dstArena:   dst.Arena,
		ids:        make(map[*ir.Node]int64),
		indirectFn: make(map[*ir.Node]*ir.Node),
		builtins:   make(map[string]*ir.Node),
	}
	for i, fn := range nonLeaf {
		lc.ids[fn] = int64(i + 1)
	}
	lc.rewriter = rewrite.New(src, dst, lc.dispatch)

	// Join, create_joinpoint and default_joinpoint lower unconditionally
	// (lower_tailcalls.c never gates them behind disable_lowering), so
	// this runs even when no function ends up behind the dispatcher.
	if len(nonLeaf) == 0 {
		out := lc.rewriter.RewriteModule()
		for _, b := range lc.builtinOrder {
			out.AddDeclaration(b)
		}
		return out, nil
	}

	for _, fn := range nonLeaf {
		p := fn.Payload.(*ir.FunctionPayload)
		shell := ir.NewFunction(dst.Arena, p.Annotations, p.Name+"_indirect", false, nil, []*ir.Node{lc.qualInt32()})
		lc.indirectFn[fn] = shell
		lc.rewriter.RegisterProcessed(fn, shell)
	}

	for _, d := range src.Declarations {
		if _, ok := lc.ids[d]; ok {
			continue
		}
		lc.preRegisterLeaf(d)
	}

	for _, fn := range nonLeaf {
		lc.buildIndirectBody(fn)
	}
	for _, d := range src.Declarations {
		if _, ok := lc.ids[d]; ok {
			continue
		}
		lc.completeLeaf(d)
	}

	dispatchFn := lc.buildDispatcher(cfg)

	for _, d := range src.Declarations {
		if _, ok := lc.ids[d]; ok {
			if module.HasAnnotation(d, "EntryPoint") {
				dst.AddDeclaration(lc.buildEntryWrapper(d, dispatchFn))
			}
			dst.AddDeclaration(lc.indirectFn[d])
			continue
		}
		shell, _ := lc.rewriter.Lookup(d)
		dst.AddDeclaration(shell)
	}
	dst.AddDeclaration(dispatchFn)
	for _, b := range lc.builtinOrder {
		dst.AddDeclaration(b)
	}
	return dst, nil
}

type lowerCtx struct {
	dstArena     *ir.Arena
	rewriter     *rewrite.Rewriter
	ids          map[*ir.Node]int64
	indirectFn   map[*ir.Node]*ir.Node
	inTrampoline bool

	// builtins memoizes the extern (bodyless) runtime-helper
	// declarations join/create_joinpoint/default_joinpoint lower into,
	// one per name, appended to the destination module in first-use
	// order once the rest of the pass has run.
	builtins     map[string]*ir.Node
	builtinOrder []*ir.Node
}

func (lc *lowerCtx) bareInt32() *ir.Node { return ir.NewIntType(lc.dstArena, ir.IntWidth32, true) }

func (lc *lowerCtx) qualInt32() *ir.Node {
	return ir.NewQualifiedType(lc.dstArena, lc.bareInt32(), true)
}

func (lc *lowerCtx) dispatch(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	switch n.Tag {
	case ir.ReturnTag:
		if lc.inTrampoline {
			return lc.lowerReturn(r, n)
		}
		return r.RecreateNodeIdentity(n)
	case ir.TailCallTag:
		return lc.lowerTailCall(r, n)
	case ir.CallTag:
		return lc.lowerCall(r, n)
	case ir.JoinTag:
		return lc.lowerJoin(r, n)
	case ir.PrimOpTag:
		switch n.Payload.(ir.PrimOpPayload).Op {
		case ir.CreateJoinPointOp:
			return lc.lowerCreateJoinPoint(r, n)
		case ir.DefaultJoinPointOp:
			return lc.lowerDefaultJoinPoint(r, n)
		default:
			return r.RecreateNodeIdentity(n)
		}
	case ir.PtrTypeTag:
		return lc.lowerPtrType(r, n)
	default:
		return r.RecreateNodeIdentity(n)
	}
}

// preRegisterLeaf/completeLeaf mirror rewrite.Rewriter's own
// preRegisterDeclaration/completeDeclaration (unexported there, so
// duplicated here): an ordinary declaration is rewritten unchanged,
// its only special handling being that Return/TailCall inside it are
// still routed through lc.dispatch (TailCall always needs lowering;
// Return only inside an _indirect body, gated by lc.inTrampoline).
func (lc *lowerCtx) preRegisterLeaf(d *ir.Node) {
	r := lc.rewriter
	switch d.Tag {
	case ir.FunctionTag:
		p := d.Payload.(*ir.FunctionPayload)
		params := make([]*ir.Node, len(p.Params))
		for i, v := range p.Params {
			params[i] = r.RewriteNode(v)
		}
		shell := ir.NewFunction(lc.dstArena, p.Annotations, p.Name, p.IsBasicBlock, params, rewriteListPublic(r, p.ReturnTypes))
		r.RegisterProcessed(d, shell)
	case ir.ConstantTag:
		p := d.Payload.(*ir.ConstantPayload)
		shell := ir.NewConstant(lc.dstArena, p.Annotations, p.Name, r.RewriteNode(p.TypeHint))
		r.RegisterProcessed(d, shell)
	case ir.GlobalVariableTag:
		p := d.Payload.(*ir.GlobalVariablePayload)
		shell := ir.NewGlobalVariable(lc.dstArena, p.Annotations, p.Name, r.RewriteNode(p.Type), p.AddressSpace)
		r.RegisterProcessed(d, shell)
	}
}

func (lc *lowerCtx) completeLeaf(d *ir.Node) {
	r := lc.rewriter
	switch d.Tag {
	case ir.FunctionTag:
		p := d.Payload.(*ir.FunctionPayload)
		if p.Body != nil {
			shell, _ := r.Lookup(d)
			ir.SetFunctionBody(shell, r.RewriteNode(p.Body))
		}
	case ir.ConstantTag:
		p := d.Payload.(*ir.ConstantPayload)
		if p.Value != nil {
			shell, _ := r.Lookup(d)
			ir.SetConstantValue(shell, r.RewriteNode(p.Value))
		}
	case ir.GlobalVariableTag:
		p := d.Payload.(*ir.GlobalVariablePayload)
		if p.Init != nil {
			shell, _ := r.Lookup(d)
			ir.SetGlobalVariableInit(shell, r.RewriteNode(p.Init))
		}
	}
}

func rewriteListPublic(r *rewrite.Rewriter, nodes []*ir.Node) []*ir.Node {
	out := make([]*ir.Node, len(nodes))
	for i, n := range nodes {
		out[i] = r.RewriteNode(n)
	}
	return out
}

// buildIndirectBody builds the body of fn's "_indirect" shell: pop
// every original parameter off the stack (in declaration order -- the
// caller pushed its arguments in reverse so the first parameter ends
// up on top), then rewrite fn's original body with those popped
// variables standing in for the originals and every Return/TailCall
// converted to a trampoline bounce.
func (lc *lowerCtx) buildIndirectBody(fn *ir.Node) {
	r := lc.rewriter
	p := fn.Payload.(*ir.FunctionPayload)
	shell := lc.indirectFn[fn]

	bb := ir.Begin(lc.dstArena)
	for _, param := range p.Params {
		pv := param.Payload.(ir.VariablePayload)
		bareType, _ := ir.StripQualifier(r.RewriteNode(pv.Type))
		popInstr, perr := ir.NewPrimOp(lc.dstArena, ir.PopStackOp, []*ir.Node{bareType}, nil)
		if perr != nil {
			panic(lowerPanic{perr})
		}
		qualType := ir.NewQualifiedType(lc.dstArena, bareType, true)
		vars := bb.Bind(popInstr, []*ir.Node{qualType})
		r.RegisterProcessed(param, vars[0])
	}

	innerTerm := p.Body.Payload.(ir.CasePayload).Body
	lc.inTrampoline = true
	rewrittenInner := r.RewriteNode(innerTerm)
	lc.inTrampoline = false

	body := bb.FinishAndWrapAsBlock(rewrittenInner, nil)
	ir.SetFunctionBody(shell, body)
}

// lowerReturn converts an ordinary Return reached inside a trampolined
// body into: push every return value, then report "done" (id 0) to
// the dispatcher.
func (lc *lowerCtx) lowerReturn(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	p := n.Payload.(ir.ReturnPayload)
	bb := ir.Begin(lc.dstArena)
	lc.pushArgsReversed(bb, r, p.Args)
	zero := ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, 0)
	out := bb.Finish(ir.NewReturn(lc.dstArena, nil, []*ir.Node{zero}))
	r.RegisterProcessed(n, out)
	return out
}

// lowerTailCall converts a tail call into: push the callee's
// arguments, then report the callee's dispatch id. A target that
// can't be resolved to a module function, or that findDispatchTargets
// didn't classify, is a compiler-bug-grade inconsistency at this
// point (findDispatchTargets already rejected unresolvable targets
// up front) and panics accordingly.
func (lc *lowerCtx) lowerTailCall(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	p := n.Payload.(ir.TailCallPayload)
	target := resolveFunctionTarget(p.Target)
	if target == nil {
		panic(lowerPanic{errors.Unimplemented("lower_tailcalls", "tail call target is not statically resolvable to a function")})
	}
	id, ok := lc.ids[target]
	if !ok {
		panic(errors.Structural("lower_tailcalls", "tail call target missing from dispatch table"))
	}
	bb := ir.Begin(lc.dstArena)
	lc.pushArgsReversed(bb, r, p.Args)
	idLit := ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, uint64(id))
	out := bb.Finish(ir.NewReturn(lc.dstArena, nil, []*ir.Node{idLit}))
	r.RegisterProcessed(n, out)
	return out
}

// lowerCall rejects the one case this pass does not handle: an
// ordinary, non-tail call whose callee is also reached by some tail
// call elsewhere in the module. Such a callee's real entry point is
// now only its "_indirect" half, reachable solely through the
// dispatcher -- an ordinary caller would need the same push-args/call-
// dispatcher/pop-results wrapper an entry point gets, which this pass
// only builds for annotated entry points.
func (lc *lowerCtx) lowerCall(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	p := n.Payload.(ir.CallPayload)
	if target := resolveFunctionTarget(p.Callee); target != nil {
		if _, dispatched := lc.ids[target]; dispatched {
			panic(lowerPanic{errors.Unimplemented("lower_tailcalls",
				"an ordinary call into a function also reached by tail call is not supported; route it through the generated dispatcher")})
		}
	}
	return r.RecreateNodeIdentity(n)
}

// lowerJoin converts `join jp args` into: push every arg (reversed),
// extract the join point value's (tree_node, dst) pair, call
// builtin_join(dst, tree_node), then return -- Join_TAG in
// lower_tailcalls.c, lowered unconditionally regardless of whether the
// enclosing function ends up behind the dispatcher.
func (lc *lowerCtx) lowerJoin(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	p := n.Payload.(ir.JoinPayload)
	bb := ir.Begin(lc.dstArena)
	lc.pushArgsReversed(bb, r, p.Args)

	jp := r.RewriteNode(p.JoinPoint)
	treeNode := lc.extractJoinPointField(bb, jp, 0)
	dst := lc.extractJoinPointField(bb, jp, 1)

	call := lc.callBuiltin(lc.builtinJoin(), []*ir.Node{dst, treeNode})
	bb.BindExistingVars(call, nil)

	out := bb.Finish(ir.NewReturn(lc.dstArena, nil, nil))
	r.RegisterProcessed(n, out)
	return out
}

// extractJoinPointField pulls one of a join point value's two packed
// fields (index 0: tree node, index 1: dispatch destination) back out,
// mirroring Join_TAG's two gen_primop_e(bb, extract_op, ...) calls.
func (lc *lowerCtx) extractJoinPointField(bb *ir.BodyBuilder, jp *ir.Node, index uint64) *ir.Node {
	idx := ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, index)
	instr, err := ir.NewPrimOp(lc.dstArena, ir.ExtractOp, []*ir.Node{lc.bareInt32()}, []*ir.Node{jp, idx})
	if err != nil {
		panic(lowerPanic{err})
	}
	return bb.Bind(instr, []*ir.Node{lc.qualInt32()})[0]
}

// lowerCreateJoinPoint converts create_joinpoint(dest) into a call to
// builtin_create_control_point(dest) -- create_joint_point_op in
// lower_tailcalls.c.
func (lc *lowerCtx) lowerCreateJoinPoint(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	p := n.Payload.(ir.PrimOpPayload)
	if len(p.Operands) != 1 {
		panic(lowerPanic{errors.Structural("lower_tailcalls", "create_joinpoint requires exactly one operand")})
	}
	dest := r.RewriteNode(p.Operands[0])
	out := lc.callBuiltin(lc.builtinCreateControlPoint(), []*ir.Node{dest})
	r.RegisterProcessed(n, out)
	return out
}

// lowerDefaultJoinPoint converts default_joinpoint() into a call to
// builtin_entry_join_point() -- default_join_point_op in
// lower_tailcalls.c.
func (lc *lowerCtx) lowerDefaultJoinPoint(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	out := lc.callBuiltin(lc.builtinEntryJoinPoint(), nil)
	r.RegisterProcessed(n, out)
	return out
}

// lowerPtrType emulates a function pointer as this kernel's plain
// int32 id space -- the same ids the dispatcher's Match already
// switches on -- the generalization of PtrType_TAG's "pointee is
// FnType_TAG" case in lower_tailcalls.c. Every other pointer type
// recreates identically.
func (lc *lowerCtx) lowerPtrType(r *rewrite.Rewriter, n *ir.Node) *ir.Node {
	p := n.Payload.(ir.PtrTypePayload)
	if p.PointedType.Tag == ir.FnTypeTag {
		out := lc.bareInt32()
		r.RegisterProcessed(n, out)
		return out
	}
	return r.RecreateNodeIdentity(n)
}

// builtinDecl lazily declares (and memoizes) one of the runtime helper
// functions lower_tailcalls.c's backend expects to already exist --
// builtin_create_control_point, builtin_join, builtin_entry_join_point
// -- as an extern (bodyless) Function in the destination module, the
// same way this pass already leaves any other leaf declaration with no
// body alone.
func (lc *lowerCtx) builtinDecl(name string, params, returns []*ir.Node) *ir.Node {
	if fn, ok := lc.builtins[name]; ok {
		return fn
	}
	fn := ir.NewFunction(lc.dstArena, nil, name, false, params, returns)
	lc.builtins[name] = fn
	lc.builtinOrder = append(lc.builtinOrder, fn)
	return fn
}

func (lc *lowerCtx) joinPointType() *ir.Node {
	return ir.NewQualifiedType(lc.dstArena, ir.NewJoinPointType(lc.dstArena), true)
}

func (lc *lowerCtx) builtinCreateControlPoint() *ir.Node {
	return lc.builtinDecl("builtin_create_control_point",
		[]*ir.Node{ir.NewVariable(lc.dstArena, lc.qualInt32(), "dest", nil, 0)},
		[]*ir.Node{lc.joinPointType()})
}

func (lc *lowerCtx) builtinEntryJoinPoint() *ir.Node {
	return lc.builtinDecl("builtin_entry_join_point", nil, []*ir.Node{lc.joinPointType()})
}

func (lc *lowerCtx) builtinJoin() *ir.Node {
	return lc.builtinDecl("builtin_join", []*ir.Node{
		ir.NewVariable(lc.dstArena, lc.qualInt32(), "dst", nil, 0),
		ir.NewVariable(lc.dstArena, lc.qualInt32(), "tree_node", nil, 0),
	}, nil)
}

// callBuiltin builds a Call to one of the builtin_* declarations
// above, panicking on a checker-rejected call the way every other node
// construction in this pass does.
func (lc *lowerCtx) callBuiltin(fn *ir.Node, args []*ir.Node) *ir.Node {
	addr, ferr := ir.NewFnAddr(lc.dstArena, fn)
	if ferr != nil {
		panic(lowerPanic{ferr})
	}
	call, cerr := ir.NewCall(lc.dstArena, addr, args)
	if cerr != nil {
		panic(lowerPanic{cerr})
	}
	return call
}

func (lc *lowerCtx) pushArgsReversed(bb *ir.BodyBuilder, r *rewrite.Rewriter, args []*ir.Node) {
	for i := len(args) - 1; i >= 0; i-- {
		rw := r.RewriteNode(args[i])
		pushInstr, perr := ir.NewPrimOp(lc.dstArena, ir.PushStackOp, nil, []*ir.Node{rw})
		if perr != nil {
			panic(lowerPanic{perr})
		}
		bb.BindExistingVars(pushInstr, nil)
	}
}

// buildEntryWrapper builds the ordinary, externally callable function
// that replaces an entry-point declaration once its body has moved to
// "<name>_indirect": push its parameters, run the dispatcher starting
// at its own id, then pop its declared return values back off once
// the dispatcher reports done.
func (lc *lowerCtx) buildEntryWrapper(e, dispatchFn *ir.Node) *ir.Node {
	r := lc.rewriter
	p := e.Payload.(*ir.FunctionPayload)
	params := make([]*ir.Node, len(p.Params))
	for i, sp := range p.Params {
		spv := sp.Payload.(ir.VariablePayload)
		params[i] = ir.NewVariable(lc.dstArena, r.RewriteNode(spv.Type), spv.Name, nil, 0)
	}
	returnTypes := make([]*ir.Node, len(p.ReturnTypes))
	for i, t := range p.ReturnTypes {
		returnTypes[i] = r.RewriteNode(t)
	}
	wrapper := ir.NewFunction(lc.dstArena, p.Annotations, p.Name, p.IsBasicBlock, params, returnTypes)

	bb := ir.Begin(lc.dstArena)
	for i := len(params) - 1; i >= 0; i-- {
		pushInstr, perr := ir.NewPrimOp(lc.dstArena, ir.PushStackOp, nil, []*ir.Node{params[i]})
		if perr != nil {
			panic(lowerPanic{perr})
		}
		bb.BindExistingVars(pushInstr, nil)
	}

	fnAddrVal, ferr := ir.NewFnAddr(lc.dstArena, dispatchFn)
	if ferr != nil {
		panic(lowerPanic{ferr})
	}
	startID := ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, uint64(lc.ids[e]))
	callInstr, cerr := ir.NewCall(lc.dstArena, fnAddrVal, []*ir.Node{startID})
	if cerr != nil {
		panic(lowerPanic{cerr})
	}
	bb.Bind(callInstr, []*ir.Node{lc.qualInt32()})

	retArgs := make([]*ir.Node, len(returnTypes))
	for i, rt := range returnTypes {
		bareType, _ := ir.StripQualifier(rt)
		popInstr, perr := ir.NewPrimOp(lc.dstArena, ir.PopStackOp, []*ir.Node{bareType}, nil)
		if perr != nil {
			panic(lowerPanic{perr})
		}
		vars := bb.Bind(popInstr, []*ir.Node{rt})
		retArgs[i] = vars[0]
	}
	body := bb.FinishAndWrapAsBlock(ir.NewReturn(lc.dstArena, wrapper, retArgs), params)
	ir.SetFunctionBody(wrapper, body)
	return wrapper
}

// buildDispatcher generates the single trampoline loop every
// dispatched function bounces through: Match on the current function
// id, call its "_indirect" body, continue the loop with whatever id
// it reports next (0 meaning done). With cfg.MaxTopIterations set, a
// second loop-carried counter forces an early break instead of
// bouncing forever on a lowering bug.
func (lc *lowerCtx) buildDispatcher(cfg Config) *ir.Node {
	qint32 := lc.qualInt32()
	bounded := cfg.MaxTopIterations > 0

	yieldTypes := []*ir.Node{qint32}
	if bounded {
		yieldTypes = append(yieldTypes, qint32)
	}

	dispatchFn := ir.NewFunction(lc.dstArena, nil, "top_dispatch", false,
		[]*ir.Node{ir.NewVariable(lc.dstArena, qint32, "start_fn", nil, 0)}, []*ir.Node{qint32})

	nextFnParam := ir.NewVariable(lc.dstArena, qint32, "next_fn", nil, 0)
	loopParams := []*ir.Node{nextFnParam}
	var itersParam *ir.Node
	if bounded {
		itersParam = ir.NewVariable(lc.dstArena, qint32, "iters_left", nil, 0)
		loopParams = append(loopParams, itersParam)
	}

	var cases []*ir.Node
	var literals []*ir.Node
	ordered := make([]*ir.Node, len(lc.ids))
	for fn, id := range lc.ids {
		ordered[id-1] = fn
	}
	for _, fn := range ordered {
		id := lc.ids[fn]
		literals = append(literals, ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, uint64(id)))
		cases = append(cases, lc.buildDispatchCase(lc.indirectFn[fn], nextFnParam, itersParam, bounded))
	}
	defaultCase := ir.NewCase(lc.dstArena, nil, lc.breakWith(killID, itersParam, bounded))

	matchInstr, merr := ir.NewMatch(lc.dstArena, nextFnParam, nil, literals, cases, defaultCase)
	if merr != nil {
		panic(lowerPanic{merr})
	}
	matchBB := ir.Begin(lc.dstArena)
	matchBB.BindExistingVars(matchInstr, nil)
	loopBody := ir.NewCase(lc.dstArena, loopParams, matchBB.Finish(ir.NewUnreachable(lc.dstArena)))

	initialArgs := []*ir.Node{dispatchFn.Payload.(*ir.FunctionPayload).Params[0]}
	if bounded {
		initialArgs = append(initialArgs, ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, uint64(cfg.MaxTopIterations)))
	}
	loopInstr, lerr := ir.NewLoop(lc.dstArena, yieldTypes, initialArgs, loopBody)
	if lerr != nil {
		panic(lowerPanic{lerr})
	}

	outerBB := ir.Begin(lc.dstArena)
	results := outerBB.Bind(loopInstr, yieldTypes)
	body := outerBB.FinishAndWrapAsBlock(ir.NewReturn(lc.dstArena, dispatchFn, []*ir.Node{results[0]}), dispatchFn.Payload.(*ir.FunctionPayload).Params)
	ir.SetFunctionBody(dispatchFn, body)
	return dispatchFn
}

// buildDispatchCase builds one Match case: call the given function's
// indirect body, then either break with its result (if it reported
// done) or continue the loop with it as the next id. When bounded,
// the iteration counter is decremented and forces a break at zero
// regardless of what the callee reported.
func (lc *lowerCtx) buildDispatchCase(indirectFn *ir.Node, nextFnParam, itersParam *ir.Node, bounded bool) *ir.Node {
	qint32 := lc.qualInt32()

	fnAddrVal, ferr := ir.NewFnAddr(lc.dstArena, indirectFn)
	if ferr != nil {
		panic(lowerPanic{ferr})
	}
	callInstr, cerr := ir.NewCall(lc.dstArena, fnAddrVal, nil)
	if cerr != nil {
		panic(lowerPanic{cerr})
	}
	bb := ir.Begin(lc.dstArena)
	results := bb.Bind(callInstr, []*ir.Node{qint32})
	result := results[0]

	zero := ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, 0)
	eqInstr, eerr := ir.NewPrimOp(lc.dstArena, ir.EqOp, nil, []*ir.Node{result, zero})
	if eerr != nil {
		panic(lowerPanic{eerr})
	}
	qbool := ir.NewQualifiedType(lc.dstArena, ir.NewBoolType(lc.dstArena), true)
	condVars := bb.Bind(eqInstr, []*ir.Node{qbool})

	var continueBody *ir.Node
	if bounded {
		one := ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, 1)
		subInstr, serr := ir.NewPrimOp(lc.dstArena, ir.SubOp, nil, []*ir.Node{itersParam, one})
		if serr != nil {
			panic(lowerPanic{serr})
		}
		innerBB := ir.Begin(lc.dstArena)
		decremented := innerBB.Bind(subInstr, []*ir.Node{qint32})[0]
		two := ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, 2)
		ltInstr, lerr := ir.NewPrimOp(lc.dstArena, ir.LtOp, nil, []*ir.Node{itersParam, two})
		if lerr != nil {
			panic(lowerPanic{lerr})
		}
		// itersParam < 2 means this call would exhaust the budget (or
		// already has), same condition a <= 1 check would give.
		outOfBudget := innerBB.Bind(ltInstr, []*ir.Node{qbool})[0]
		outOfBudgetCase := ir.NewCase(lc.dstArena, nil, ir.NewMergeBreak(lc.dstArena, []*ir.Node{result, zero}))
		keepGoingCase := ir.NewCase(lc.dstArena, nil, ir.NewMergeContinue(lc.dstArena, []*ir.Node{result, decremented}))
		ifBudget, ierr := ir.NewIf(lc.dstArena, outOfBudget, nil, outOfBudgetCase, keepGoingCase)
		if ierr != nil {
			panic(lowerPanic{ierr})
		}
		innerBB.BindExistingVars(ifBudget, nil)
		continueBody = innerBB.Finish(ir.NewUnreachable(lc.dstArena))
	} else {
		continueBody = ir.NewMergeContinue(lc.dstArena, []*ir.Node{result})
	}

	ifTrue := ir.NewCase(lc.dstArena, nil, lc.breakWith(killID, itersParam, bounded))
	ifFalse := ir.NewCase(lc.dstArena, nil, continueBody)
	ifInstr, ierr := ir.NewIf(lc.dstArena, condVars[0], nil, ifTrue, ifFalse)
	if ierr != nil {
		panic(lowerPanic{ierr})
	}
	bb.BindExistingVars(ifInstr, nil)
	return ir.NewCase(lc.dstArena, nil, bb.Finish(ir.NewUnreachable(lc.dstArena)))
}

func (lc *lowerCtx) breakWith(id int64, itersParam *ir.Node, bounded bool) *ir.Node {
	args := []*ir.Node{ir.NewIntLiteral(lc.dstArena, ir.IntWidth32, uint64(id))}
	if bounded {
		args = append(args, itersParam)
	}
	return ir.NewMergeBreak(lc.dstArena, args)
}

// findDispatchTargets collects every function that either contains a
// reachable tail call or is the statically resolved target of one --
// together the set of functions that must move behind the dispatcher,
// in first-discovery order (stable so id assignment doesn't depend on
// map iteration).
func findDispatchTargets(src *module.Module) ([]*ir.Node, error) {
	nonLeaf := map[*ir.Node]bool{}
	var order []*ir.Node
	mark := func(fn *ir.Node) {
		if !nonLeaf[fn] {
			nonLeaf[fn] = true
			order = append(order, fn)
		}
	}
	for _, d := range src.Declarations {
		if d.Tag != ir.FunctionTag {
			continue
		}
		p := d.Payload.(*ir.FunctionPayload)
		if p.Body == nil {
			continue
		}
		tailCalls := collectTailCalls(p.Body.Payload.(ir.CasePayload).Body)
		if len(tailCalls) == 0 {
			continue
		}
		mark(d)
		for _, tc := range tailCalls {
			target := resolveFunctionTarget(tc.Payload.(ir.TailCallPayload).Target)
			if target == nil {
				return nil, errors.Unimplemented("lower_tailcalls", "tail call target is not statically resolvable to a function declaration")
			}
			mark(target)
		}
	}
	return order, nil
}

func resolveFunctionTarget(n *ir.Node) *ir.Node {
	switch n.Tag {
	case ir.DeclRefTag:
		d := n.Payload.(ir.DeclRefPayload).Decl
		if d.Tag == ir.FunctionTag {
			return d
		}
	case ir.FnAddrTag:
		return n.Payload.(ir.FnAddrPayload).Fn
	}
	return nil
}

func collectTailCalls(term *ir.Node) []*ir.Node {
	var found []*ir.Node
	walkTerminator(term, &found)
	return found
}

func walkTerminator(t *ir.Node, found *[]*ir.Node) {
	if t == nil {
		return
	}
	switch t.Tag {
	case ir.LetTag:
		p := t.Payload.(ir.LetPayload)
		walkInstruction(p.Instruction, found)
		walkTerminator(p.Tail.Payload.(ir.CasePayload).Body, found)
	case ir.TailCallTag:
		*found = append(*found, t)
	}
}

func walkInstruction(instr *ir.Node, found *[]*ir.Node) {
	switch instr.Tag {
	case ir.ControlTag:
		p := instr.Payload.(ir.ControlPayload)
		walkTerminator(p.Inside.Payload.(ir.CasePayload).Body, found)
	case ir.IfTag:
		p := instr.Payload.(ir.IfPayload)
		walkTerminator(p.IfTrue.Payload.(ir.CasePayload).Body, found)
		if p.IfFalse != nil {
			walkTerminator(p.IfFalse.Payload.(ir.CasePayload).Body, found)
		}
	case ir.MatchTag:
		p := instr.Payload.(ir.MatchPayload)
		for _, c := range p.Cases {
			walkTerminator(c.Payload.(ir.CasePayload).Body, found)
		}
		if p.DefaultCase != nil {
			walkTerminator(p.DefaultCase.Payload.(ir.CasePayload).Body, found)
		}
	case ir.LoopTag:
		p := instr.Payload.(ir.LoopPayload)
		walkTerminator(p.Body.Payload.(ir.CasePayload).Body, found)
	}
}
