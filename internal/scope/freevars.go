package scope

import "github.com/martty/shady-go/internal/ir"

// ComputeFreeVariables returns, in first-use order, every Variable
// referenced inside root's body that root's own parameters or any
// nested Let do not bind. It implements free_variables.c's
// visit_domtree: a pre-order walk of the scope tree, extending an
// ignore set of bound variables on the way down and recording any
// variable reference not already in it.
func ComputeFreeVariables(root *ir.Node) []*ir.Node {
	free := make(map[*ir.Node]bool)
	var order []*ir.Node
	visit(Build(root), map[*ir.Node]bool{}, free, &order)
	return order
}

func visit(node *CFNode, bound, free map[*ir.Node]bool, order *[]*ir.Node) {
	local := extend(bound, node.Case.Payload.(ir.CasePayload).Params)
	collectLocalUses(caseBody(node.Case), local, free, order)
	for _, child := range node.Children {
		visit(child, local, free, order)
	}
}

func extend(bound map[*ir.Node]bool, vars []*ir.Node) map[*ir.Node]bool {
	out := make(map[*ir.Node]bool, len(bound)+len(vars))
	for k := range bound {
		out[k] = true
	}
	for _, v := range vars {
		out[v] = true
	}
	return out
}

// collectLocalUses scans a structured terminator's let chain, binding
// each let's own variables into the ignore set as it descends the
// chain, and records every variable reference found in an
// instruction's operand values. It never recurses into if/match/loop/
// control's nested Case bodies -- those are separate scope-tree
// children the caller's pre-order walk visits on its own, each with
// its own extended ignore set.
func collectLocalUses(term *ir.Node, bound, free map[*ir.Node]bool, order *[]*ir.Node) {
	if term == nil {
		return
	}
	switch term.Tag {
	case ir.LetTag:
		p := term.Payload.(ir.LetPayload)
		collectInstructionOperands(p.Instruction, bound, free, order)
		collectLocalUses(caseBody(p.Tail), extend(bound, p.Variables), free, order)
	case ir.YieldTag:
		collectValues(term.Payload.(ir.YieldPayload).Args, bound, free, order)
	case ir.TailCallTag:
		p := term.Payload.(ir.TailCallPayload)
		collectValue(p.Target, bound, free, order)
		collectValues(p.Args, bound, free, order)
	case ir.JoinTag:
		p := term.Payload.(ir.JoinPayload)
		collectValue(p.JoinPoint, bound, free, order)
		collectValues(p.Args, bound, free, order)
	case ir.ReturnTag:
		collectValues(term.Payload.(ir.ReturnPayload).Args, bound, free, order)
	case ir.MergeBreakTag:
		collectValues(term.Payload.(ir.MergeBreakPayload).Args, bound, free, order)
	case ir.MergeContinueTag:
		collectValues(term.Payload.(ir.MergeContinuePayload).Args, bound, free, order)
	}
}

func collectInstructionOperands(instr *ir.Node, bound, free map[*ir.Node]bool, order *[]*ir.Node) {
	switch instr.Tag {
	case ir.PrimOpTag:
		collectValues(instr.Payload.(ir.PrimOpPayload).Operands, bound, free, order)
	case ir.CallTag:
		p := instr.Payload.(ir.CallPayload)
		collectValue(p.Callee, bound, free, order)
		collectValues(p.Args, bound, free, order)
	case ir.IfTag:
		collectValue(instr.Payload.(ir.IfPayload).Condition, bound, free, order)
	case ir.MatchTag:
		p := instr.Payload.(ir.MatchPayload)
		collectValue(p.Inspect, bound, free, order)
	case ir.LoopTag:
		collectValues(instr.Payload.(ir.LoopPayload).InitialArgs, bound, free, order)
	}
}

func collectValues(vs []*ir.Node, bound, free map[*ir.Node]bool, order *[]*ir.Node) {
	for _, v := range vs {
		collectValue(v, bound, free, order)
	}
}

func collectValue(v *ir.Node, bound, free map[*ir.Node]bool, order *[]*ir.Node) {
	if v == nil {
		return
	}
	switch v.Tag {
	case ir.VariableTag:
		if !bound[v] && !free[v] {
			free[v] = true
			*order = append(*order, v)
		}
	case ir.CompositeTag:
		collectValues(v.Payload.(ir.CompositePayload).Elements, bound, free, order)
	case ir.TupleTag:
		collectValues(v.Payload.(ir.TuplePayload).Elements, bound, free, order)
	}
}
