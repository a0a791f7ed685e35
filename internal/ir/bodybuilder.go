package ir

// BodyBuilder is a stack-based scratchpad for assembling a let-chain
// (§4.6): each Bind* call pushes one instruction plus the variables
// that will receive its outputs; Finish pops the stack, innermost
// first, wrapping each instruction's continuation around the term
// accumulated so far -- the exact reverse of insertion order, matching
// shady's body_builder.c.
type BodyBuilder struct {
	arena *Arena
	stack []bbEntry
}

type bbEntry struct {
	instr   *Node
	vars    []*Node
	mutable bool
}

// Begin starts a new body builder over arena.
func Begin(arena *Arena) *BodyBuilder {
	return &BodyBuilder{arena: arena}
}

// Bind appends instr to the scratchpad, creating fresh, immutable,
// positionally-named output variables for it, and returns them for use
// by subsequently-bound instructions or the eventual terminator.
func (bb *BodyBuilder) Bind(instr *Node, outputTypes []*Node) []*Node {
	vars := bindOutputVariables(bb.arena, instr, outputTypes, nil)
	bb.stack = append(bb.stack, bbEntry{instr: instr, vars: vars})
	return vars
}

// BindNamed is Bind with caller-supplied variable names.
func (bb *BodyBuilder) BindNamed(instr *Node, outputTypes []*Node, names []string) []*Node {
	vars := bindOutputVariables(bb.arena, instr, outputTypes, names)
	bb.stack = append(bb.stack, bbEntry{instr: instr, vars: vars})
	return vars
}

// BindWithTypes binds instr as a mutable let (is_mutable = true):
// the resulting variables are reassignable slots rather than the usual
// write-once bindings, used for loop-carried locals whose declared
// type is fixed up front independent of what instr's own checker
// inferred.
func (bb *BodyBuilder) BindWithTypes(instr *Node, declaredTypes []*Node) []*Node {
	vars := bindOutputVariables(bb.arena, instr, declaredTypes, nil)
	bb.stack = append(bb.stack, bbEntry{instr: instr, vars: vars, mutable: true})
	return vars
}

// BindExistingVars appends instr to the scratchpad using
// caller-supplied Variable nodes instead of creating fresh ones --
// needed when the variables must already exist before instr does, as
// with a loop body whose parameters are bound once and reused across
// the loop's structural back edge.
func (bb *BodyBuilder) BindExistingVars(instr *Node, vars []*Node) {
	bb.stack = append(bb.stack, bbEntry{instr: instr, vars: vars})
}

// Finish closes the builder: terminator becomes the innermost term,
// and each pending instruction is wrapped around it, last-bound first,
// producing a single terminator-typed term representing the whole
// chain. The builder is emptied afterwards; a second Finish is not
// detected and simply returns its terminator unwrapped.
func (bb *BodyBuilder) Finish(terminator *Node) *Node {
	result := terminator
	for i := len(bb.stack) - 1; i >= 0; i-- {
		e := bb.stack[i]
		tail := NewCase(bb.arena, e.vars, result)
		result = NewLet(bb.arena, e.instr, tail, e.mutable)
	}
	bb.stack = nil
	return result
}

// FinishAndWrapAsBlock finishes the chain and wraps it as a Case with
// the given parameters, ready to hand to SetFunctionBody or
// SetBasicBlockBody as a declaration's entry body.
func (bb *BodyBuilder) FinishAndWrapAsBlock(terminator *Node, params []*Node) *Node {
	body := bb.Finish(terminator)
	return NewCase(bb.arena, params, body)
}

// Cancel discards every pending binding without producing a term, for
// callers that speculatively started a chain and abandoned it.
func (bb *BodyBuilder) Cancel() {
	bb.stack = nil
}
