package ir

// baseEquals compares two (possibly nil) type nodes by identity. Because
// structural types are hash-consed, two types built from the same fields
// in the same arena are always the same *Node -- so identity comparison
// is exact structural comparison for everything already run through
// construct().
func baseEquals(a, b *Node) bool {
	return a == b
}

// StripQualifier returns t's underlying unqualified type and its
// uniformity; t itself if it isn't a qualified_type (treated as uniform,
// the default for types that appear outside the value-typing system,
// e.g. record member types).
func StripQualifier(t *Node) (*Node, DivergenceQualifier) {
	if t == nil {
		return nil, Uniform
	}
	if t.Tag == QualifiedTypeTag {
		p := t.Payload.(QualifiedTypePayload)
		if p.IsUniform {
			return p.Type, Uniform
		}
		return p.Type, Varying
	}
	return t, Uniform
}

// IsSubtype reports whether typ is a subtype of supertype (§4.3). There
// are two nontrivial rules: on qualified_type, uniform T <: varying T for
// the same T; on ptr_type, pointers in the same address space are
// subtypes when their pointees are. Everything else is reflexive
// identity, which -- thanks to hash-consing -- also covers the other
// structural cases the grammar names (record field-sequence equality,
// function-type invariance) without restating them here.
func IsSubtype(typ, supertype *Node) bool {
	if baseEquals(typ, supertype) {
		return true
	}
	if typ == nil || supertype == nil {
		return false
	}
	if typ.Tag == QualifiedTypeTag && supertype.Tag == QualifiedTypeTag {
		tp := typ.Payload.(QualifiedTypePayload)
		sp := supertype.Payload.(QualifiedTypePayload)
		if !baseEquals(tp.Type, sp.Type) {
			return false
		}
		// uniform <: varying, never the reverse.
		return tp.IsUniform || !sp.IsUniform
	}
	if typ.Tag == PtrTypeTag && supertype.Tag == PtrTypeTag {
		tp := typ.Payload.(PtrTypePayload)
		sp := supertype.Payload.(PtrTypePayload)
		return tp.AddressSpace == sp.AddressSpace && IsSubtype(tp.PointedType, sp.PointedType)
	}
	return false
}

// wrapYieldTypes packages a list of instruction-result types into a
// single Node so an instruction whose checker must populate exactly one
// Type field can still describe a multiple-yield signature (§4.2
// "Instructions yield zero or more values"). A single-element list
// collapses to that one type; zero or multiple elements become an
// anonymous, unqualified record_type, whose members a Let's Variables
// match positionally (see instructionYieldTypes in checkLet).
func wrapYieldTypes(a *Arena, types []*Node) *Node {
	if len(types) == 1 {
		return types[0]
	}
	return NewRecordType(a, types, nil, false)
}

// unwrapYieldTypes is wrapYieldTypes's inverse, giving the per-output
// type list back. Nothing in this package calls it at present; checkLet
// uses instructionYieldTypes, which also reports an arity mismatch.
func unwrapYieldTypes(t *Node, count int) []*Node {
	if count == 1 {
		return []*Node{t}
	}
	if t == nil {
		return make([]*Node, count)
	}
	p := t.Payload.(RecordTypePayload)
	return p.Members
}
