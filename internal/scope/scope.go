// Package scope builds the structured-control scope tree this
// compiler's free-variable analysis and tail-call lowering pass both
// walk, and the free-variable computation itself.
package scope

import "github.com/martty/shady-go/internal/ir"

// CFNode is one node of the structured control-flow scope tree: the
// nesting of Case bodies induced by if/match/loop/control's sub-cases
// and let's tail (§4.7). Because every terminator this kernel builds is
// structured -- even the tail-call lowering pass's dispatcher loop
// stays inside if/match/loop rather than introducing an unstructured
// jump -- the dominator tree a general CFG would need degenerates
// exactly to this lexical nesting tree: a Case can only be entered
// through its one structural parent, so that parent strictly
// dominates everything inside it. This is a deliberate simplification
// from shady's CFNode/dominator-tree construction (which has to handle
// basic_block's unstructured jumps too); documented as an Open
// Question resolution in this module's design notes.
type CFNode struct {
	Case     *ir.Node // a Case node
	Parent   *CFNode
	Children []*CFNode
}

// Build constructs the scope tree rooted at root, a Case (a function
// or basic block's top-level lambda, or any nested structured-control
// binder).
func Build(root *ir.Node) *CFNode {
	node := &CFNode{Case: root}
	visitTerminator(node, caseBody(root))
	return node
}

func caseBody(c *ir.Node) *ir.Node {
	return c.Payload.(ir.CasePayload).Body
}

func visitTerminator(parent *CFNode, term *ir.Node) {
	if term == nil || term.Tag != ir.LetTag {
		return
	}
	p := term.Payload.(ir.LetPayload)
	visitInstruction(parent, p.Instruction)
	child := addChild(parent, p.Tail)
	visitTerminator(child, caseBody(p.Tail))
}

func visitInstruction(parent *CFNode, instr *ir.Node) {
	switch instr.Tag {
	case ir.ControlTag:
		p := instr.Payload.(ir.ControlPayload)
		child := addChild(parent, p.Inside)
		visitTerminator(child, caseBody(p.Inside))
	case ir.IfTag:
		p := instr.Payload.(ir.IfPayload)
		t := addChild(parent, p.IfTrue)
		visitTerminator(t, caseBody(p.IfTrue))
		if p.IfFalse != nil {
			f := addChild(parent, p.IfFalse)
			visitTerminator(f, caseBody(p.IfFalse))
		}
	case ir.MatchTag:
		p := instr.Payload.(ir.MatchPayload)
		for _, c := range p.Cases {
			cc := addChild(parent, c)
			visitTerminator(cc, caseBody(c))
		}
		if p.DefaultCase != nil {
			dc := addChild(parent, p.DefaultCase)
			visitTerminator(dc, caseBody(p.DefaultCase))
		}
	case ir.LoopTag:
		p := instr.Payload.(ir.LoopPayload)
		b := addChild(parent, p.Body)
		visitTerminator(b, caseBody(p.Body))
	}
}

func addChild(parent *CFNode, c *ir.Node) *CFNode {
	child := &CFNode{Case: c, Parent: parent}
	parent.Children = append(parent.Children, child)
	return child
}

// Dominates reports whether a dominates b: true exactly when a is b or
// an ancestor of b.
func Dominates(a, b *CFNode) bool {
	for n := b; n != nil; n = n.Parent {
		if n == a {
			return true
		}
	}
	return false
}
