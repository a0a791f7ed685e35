package ir

// foldNode implements the §4.4 folder: a confluent, idempotent rewrite
// applied to a freshly-built candidate before it is hash-consed. It is
// grounded directly on shady's fold.c -- fold_prim_op's identity-element
// eliminations, fold_let's beta-reduction and control/join elimination,
// and the requirement (checked by assertSameFamily in node.go) that
// folding never changes a node's family.
//
// foldNode returns candidate itself, unchanged, when no rule applies;
// callers compare by pointer to detect whether a fold happened.
func foldNode(a *Arena, candidate *Node) *Node {
	switch candidate.Tag {
	case PrimOpTag:
		return foldPrimOp(a, candidate)
	case LetTag:
		return foldLet(a, candidate)
	default:
		return candidate
	}
}

// foldPrimOp eliminates add/mul identity elements and identity casts,
// mirroring fold_prim_op's is_zero/is_one-guarded rewrites.
func foldPrimOp(a *Arena, n *Node) *Node {
	p := n.Payload.(PrimOpPayload)
	switch p.Op {
	case AddOp:
		if len(p.Operands) == 2 {
			if isZeroLiteral(p.Operands[0]) {
				return p.Operands[1]
			}
			if isZeroLiteral(p.Operands[1]) {
				return p.Operands[0]
			}
		}
	case MulOp:
		if len(p.Operands) == 2 {
			if isOneLiteral(p.Operands[0]) {
				return p.Operands[1]
			}
			if isOneLiteral(p.Operands[1]) {
				return p.Operands[0]
			}
		}
	case ReinterpretOp, ConvertOp:
		if len(p.TypeArguments) == 1 && len(p.Operands) == 1 {
			operandBase, _ := StripQualifier(p.Operands[0].Type)
			if baseEquals(operandBase, p.TypeArguments[0]) {
				return p.Operands[0]
			}
		}
	}
	return n
}

func isZeroLiteral(n *Node) bool {
	switch n.Tag {
	case IntLiteralTag:
		return n.Payload.(IntLiteralPayload).Value == 0
	case FloatLiteralTag:
		return n.Payload.(FloatLiteralPayload).Value == 0
	default:
		return false
	}
}

func isOneLiteral(n *Node) bool {
	switch n.Tag {
	case IntLiteralTag:
		return n.Payload.(IntLiteralPayload).Value == 1
	case FloatLiteralTag:
		return n.Payload.(FloatLiteralPayload).Value == 1
	default:
		return false
	}
}

// foldLet implements fold_let: a let binding a quote instruction beta-
// reduces directly into its continuation (substituting the quoted
// values for the tail's parameters), and a let whose instruction is a
// control that only joins back to its own join point is eliminated by
// the two-pass dry-run-then-rebuild scan fold.c performs.
func foldLet(a *Arena, n *Node) *Node {
	p := n.Payload.(LetPayload)
	if p.Instruction.Tag == PrimOpTag {
		ip := p.Instruction.Payload.(PrimOpPayload)
		if ip.Op == QuoteOp {
			if reduced := betaReduceQuote(a, p, ip.Operands); reduced != nil {
				return reduced
			}
		}
	}
	if reduced, ok := foldControlJoin(a, p); ok {
		return reduced
	}
	return n
}

// betaReduceQuote substitutes each quoted operand for the matching
// bound variable throughout the tail's body and returns that rewritten
// body directly, discarding the let and its now-dead variables.
// Grounded on fold.c's reduce_beta / resolve_known_vars pairing: quote
// is the trivial packaging primop, so let(quote(xs), case(ys, t)) is
// exactly a substitution of xs for ys in t.
func betaReduceQuote(a *Arena, p LetPayload, values []*Node) *Node {
	cp := p.Tail.Payload.(CasePayload)
	if len(cp.Params) != len(values) {
		return nil // shape mismatch: not a candidate, caller keeps original
	}
	sub := NewSubstituter(a)
	for i, param := range cp.Params {
		sub.Bind(param, values[i])
	}
	result := sub.RewriteNode(cp.Body)
	if result == nil {
		return nil
	}
	return result
}

// foldControlJoin implements the dry-run-then-rebuild elimination of a
// control/join pair that does nothing but forward its argument: when a
// let's instruction is a control whose inside, after zero or more
// intermediate lets scanned transparently, terminates in a join
// targeting the control's own join-point with one argument per
// parameter of the let's tail, the control adds no structure and can be
// dropped, leaving the let's tail wrapped directly around the joined
// arguments with the traversed let chain re-emitted around it.
//
// Pass 1 (dry run) follows the control's body through any chain of
// lets, counting how many are crossed before a terminator is reached.
// If that terminator is a join targeting the control's own join point,
// pass 2 (rebuild) restarts from the top, this time recording each
// traversed let, and on reaching the same join substitutes its
// arguments into the outer tail and re-wraps that result in the
// traversed lets, innermost first. Any other terminator (or a join
// targeting some other join point) disqualifies the control and the
// node is returned unchanged.
func foldControlJoin(a *Arena, p LetPayload) (*Node, bool) {
	if p.Instruction.Tag != ControlTag {
		return nil, false
	}
	ctl := p.Instruction.Payload.(ControlPayload)
	inside := ctl.Inside.Payload.(CasePayload)
	if len(inside.Params) != 1 {
		return nil, false
	}
	joinPoint := inside.Params[0]

	terminator := inside.Body
	depth := 0
	dryRun := true
	var lets []*Node

	for {
		switch terminator.Tag {
		case LetTag:
			if lets != nil {
				lets[depth] = terminator
			}
			tail := terminator.Payload.(LetPayload).Tail
			terminator = tail.Payload.(CasePayload).Body
			depth++
			continue
		case JoinTag:
			jp := terminator.Payload.(JoinPayload)
			if jp.JoinPoint != joinPoint {
				return nil, false
			}
			if dryRun {
				// Start over, this time recording the traversed lets.
				lets = make([]*Node, depth)
				dryRun = false
				depth = 0
				terminator = inside.Body
				continue
			}

			cp := p.Tail.Payload.(CasePayload)
			if len(cp.Params) != len(jp.Args) {
				return nil, false
			}
			sub := NewSubstituter(a)
			for i, param := range cp.Params {
				sub.Bind(param, jp.Args[i])
			}
			acc := sub.RewriteNode(cp.Body)
			if acc == nil {
				return nil, false
			}

			// Re-emit the traversed let chain around the substituted
			// join continuation, innermost let first. Each re-emitted let
			// binds fresh variables: a let's key is its variables plus its
			// instruction, so reusing the old ones would hand back the
			// original let, join and all.
			for i := depth - 1; i >= 0; i-- {
				oldLet := lets[i].Payload.(LetPayload)
				oldCase := oldLet.Tail.Payload.(CasePayload)
				fresh := make([]*Node, len(oldCase.Params))
				rename := NewSubstituter(a)
				for j, v := range oldCase.Params {
					vp := v.Payload.(VariablePayload)
					fresh[j] = NewVariable(a, vp.Type, vp.Name, vp.Instruction, vp.Output)
					rename.Bind(v, fresh[j])
				}
				newTail := NewCase(a, fresh, rename.RewriteNode(acc))
				acc = NewLet(a, oldLet.Instruction, newTail, oldLet.IsMutable)
			}
			return acc, true
		default:
			// Any other terminator is divergent control flow: give up.
			return nil, false
		}
	}
}
