package ir

import "fmt"

// Node is every IR term (§3.1): a back-reference to its owning arena, a
// tag drawn from the closed NodeTag set, an optional type (populated by
// the checker for non-type, non-declaration nodes when type checking is
// on), and a tag-specific payload.
type Node struct {
	Arena   *Arena
	Tag     NodeTag
	Type    *Node
	Payload any
}

// String renders a Node for diagnostics/debugging: "tag#addr" for nominal
// nodes (identity matters), "tag" for structural ones.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if IsNominal(n.Tag) {
		return fmt.Sprintf("%s#%p", n.Tag, n)
	}
	return n.Tag.String()
}

// nodeKey builds the string used to probe/populate an arena's node table
// for a structural node. It implements the §6 "structural hash / equality
// contract": most tags use every payload field, but the tags the contract
// calls out by name use an explicit, narrower field list so that
// non-identifying metadata (and, for Let, the continuation -- see the
// comment on letKey) never participates in hash-consing.
func nodeKey(n *Node) string {
	// Child node lists are keyed by identity: String() on a structural
	// node gives only its tag name, which would make distinct types equal.
	ptrs := func(ns []*Node) string {
		s := "["
		for _, m := range ns {
			s += fmt.Sprintf("%p,", m)
		}
		return s + "]"
	}
	switch n.Tag {
	case IntLiteralTag:
		p := n.Payload.(IntLiteralPayload)
		return fmt.Sprintf("int_literal:%d:%d", p.Width, p.Value)
	case LetTag:
		return letKey(n.Payload.(LetPayload))
	case QualifiedTypeTag:
		p := n.Payload.(QualifiedTypePayload)
		return fmt.Sprintf("qualified_type:%p:%v", p.Type, p.IsUniform)
	case PackTypeTag:
		p := n.Payload.(PackTypePayload)
		return fmt.Sprintf("pack_type:%p:%d", p.ElementType, p.Width)
	case RecordTypeTag:
		p := n.Payload.(RecordTypePayload)
		return fmt.Sprintf("record_type:%s:%v:%v", ptrs(p.Members), p.Names, p.Special)
	case FnTypeTag:
		p := n.Payload.(FnTypePayload)
		return fmt.Sprintf("fn_type:%v:%s:%s", p.IsBasicBlock, ptrs(p.ReturnTypes), ptrs(p.ParamTypes))
	case PtrTypeTag:
		p := n.Payload.(PtrTypePayload)
		return fmt.Sprintf("ptr_type:%d:%p", p.AddressSpace, p.PointedType)
	default:
		// Open Question (§9): grammar revisions may add a node kind
		// without updating the explicit field list. We fall back to a
		// total default comparator over every payload field rather
		// than require the (out of scope) generator to stay in lockstep.
		return fmt.Sprintf("%s:%#v", n.Tag, n.Payload)
	}
}

// letKey deliberately hashes only variables+instruction, not the
// continuation (§6's contract lists exactly these two fields for
// Let_TAG). Two lets with the same variables and the same instruction
// are therefore one node even when their tails differ -- for example two
// zero-variable lets of one instruction. Lets built with fresh variables
// (as bindOutputVariables and the control/join fold's rebuild produce)
// never meet this case.
func letKey(p LetPayload) string {
	return fmt.Sprintf("let:%v:%p", p.Variables, p.Instruction)
}

// construct runs the §4.1 construction algorithm for a single node. tag
// identifies the node for typing-error diagnostics. checker may be nil
// (types/declarations that carry no type field skip step 2); when
// non-nil it is invoked only if the arena has type checking enabled.
func construct(a *Arena, tag NodeTag, payload any, checker func() (*Node, error)) (*Node, error) {
	candidate := &Node{Arena: a, Tag: tag, Payload: payload}

	if checker != nil && a.CheckTypes() {
		t, err := checker()
		if err != nil {
			return nil, err
		}
		candidate.Type = t
	}

	if IsNominal(tag) {
		return a.allocateNominal(candidate), nil
	}

	if a.AllowFold() {
		folded := foldNode(a, candidate)
		if folded != candidate {
			assertSameFamily(candidate, folded)
			return a.insertIfAbsent(folded), nil
		}
	}

	key := nodeKey(candidate)
	return a.lookupOrInsert(key, candidate), nil
}

// mustConstruct panics (wrapped as a *errors.Report, §7 "Structural
// invariant violation") on checker failure. Used by constructors whose
// payload shape makes a typing failure a caller bug rather than
// something the checker needs to report gracefully (e.g. bool_literal,
// which cannot fail to check).
func mustConstruct(a *Arena, tag NodeTag, payload any, checker func() (*Node, error)) *Node {
	n, err := construct(a, tag, payload, checker)
	if err != nil {
		panic(err)
	}
	return n
}

// assertSameFamily enforces the folder-kind-preservation invariant (§4.4,
// §8 property 4): folding a terminator must yield a terminator. Values
// and instructions are treated as one "operand" family here rather than
// two: an instruction's identity-element eliminations (x+0, x*1, a
// same-type reinterpret/convert) legitimately replace the whole
// instruction with the value it was already holding, exactly the case
// fold_prim_op's is_zero/is_one-guarded rewrites produce. What the
// invariant actually guards against is a fold changing a term's
// divergence shape -- an instruction/value collapsing into a
// terminator, or vice versa -- which would leave the enclosing let or
// case with a mis-shaped tail.
func assertSameFamily(before, after *Node) {
	fam := func(t NodeTag) string {
		switch {
		case IsValue(t), IsInstruction(t):
			return "operand"
		case IsTerminator(t):
			return "terminator"
		default:
			return "other"
		}
	}
	bf, af := fam(before.Tag), fam(after.Tag)
	if bf != af {
		panic(fmt.Sprintf("fold broke kind preservation: %s (%s) folded to %s (%s)", before.Tag, bf, after.Tag, af))
	}
}
