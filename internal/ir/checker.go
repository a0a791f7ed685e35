package ir

import "github.com/martty/shady-go/internal/errors"

// The functions in this file are shady's CALL_TYPING_METHOD dispatch table
// made concrete: one check_<kind> function per node kind that carries a
// type field, called from construct() only when the owning arena has
// CheckTypes set. Each either returns the node's computed type or a
// *errors.Report wrapped as an error (§7 "Typing error").
//
// Six terminator kinds -- tail_call, join, return, merge_break,
// merge_continue, unreachable -- deliberately have no checker and so
// always carry a nil Type: they are divergent, producing no value a
// successor could consume, so there is nothing meaningful to type them
// with. constant, basic_block and case are declarations without a type
// field for the same reason the grammar gives to declarations generally
// (§3.1: "for types themselves and declarations it is permitted to be
// absent").

func checkIntLiteral(a *Arena, p IntLiteralPayload) (*Node, error) {
	return NewQualifiedType(a, NewIntType(a, p.Width, true), true), nil
}

func checkFloatLiteral(a *Arena, p FloatLiteralPayload) (*Node, error) {
	return NewQualifiedType(a, NewFloatType(a, p.Width), true), nil
}

func checkBoolLiteral(a *Arena) (*Node, error) {
	return NewQualifiedType(a, NewBoolType(a), true), nil
}

func checkStringLiteral(a *Arena) (*Node, error) {
	i8 := NewIntType(a, IntWidth8, false)
	return NewQualifiedType(a, NewPtrType(a, i8, AsPrivateLogical), true), nil
}

func checkNullPtr(a *Arena, p NullPtrPayload) (*Node, error) {
	if p.Type == nil || p.Type.Tag != PtrTypeTag {
		return nil, errors.Typing("null_ptr", "null_ptr requires a ptr_type, got %v", p.Type)
	}
	return NewQualifiedType(a, p.Type, true), nil
}

func checkUndef(a *Arena, p UndefPayload) (*Node, error) {
	if p.Type == nil {
		return nil, errors.Typing("undef", "undef requires a type")
	}
	return NewQualifiedType(a, p.Type, true), nil
}

func checkComposite(a *Arena, p CompositePayload) (*Node, error) {
	if p.Type == nil {
		return nil, errors.Typing("composite", "composite requires a declared type")
	}
	q := Uniform
	for i, el := range p.Elements {
		if el.Type == nil {
			return nil, errors.Typing("composite", "element %d has no type", i)
		}
		_, eq := StripQualifier(el.Type)
		q = JoinUniformity(q, eq)
	}
	return NewQualifiedType(a, p.Type, q == Uniform), nil
}

func checkTuple(a *Arena, p TuplePayload) (*Node, error) {
	members := make([]*Node, len(p.Elements))
	q := Uniform
	for i, el := range p.Elements {
		if el.Type == nil {
			return nil, errors.Typing("tuple", "element %d has no type", i)
		}
		base, eq := StripQualifier(el.Type)
		members[i] = base
		q = JoinUniformity(q, eq)
	}
	return NewQualifiedType(a, NewRecordType(a, members, nil, false), q == Uniform), nil
}

func checkVariable(p VariablePayload) (*Node, error) {
	if p.Type == nil {
		return nil, errors.Typing("variable", "variable %q constructed without a type", p.Name)
	}
	return p.Type, nil
}

func checkFnAddr(a *Arena, p FnAddrPayload) (*Node, error) {
	if p.Fn == nil || p.Fn.Tag != FunctionTag {
		return nil, errors.Typing("fn_addr", "fn_addr requires a function declaration")
	}
	fp := p.Fn.Payload.(*FunctionPayload)
	fnType := NewFnType(a, fp.IsBasicBlock, paramTypes(fp.Params), fp.ReturnTypes)
	return NewQualifiedType(a, NewPtrType(a, fnType, AsProgramCode), true), nil
}

func checkDeclRef(a *Arena, p DeclRefPayload) (*Node, error) {
	if p.Decl == nil {
		return nil, errors.Typing("decl_ref", "decl_ref requires a declaration")
	}
	switch p.Decl.Tag {
	case ConstantTag:
		cp := p.Decl.Payload.(*ConstantPayload)
		if cp.Value == nil {
			return nil, errors.Typing("decl_ref", "constant %q referenced before its value is set", cp.Name)
		}
		return cp.Value.Type, nil
	case GlobalVariableTag:
		gp := p.Decl.Payload.(*GlobalVariablePayload)
		return NewQualifiedType(a, NewPtrType(a, gp.Type, gp.AddressSpace), true), nil
	case FunctionTag:
		fp := p.Decl.Payload.(*FunctionPayload)
		fnType := NewFnType(a, fp.IsBasicBlock, paramTypes(fp.Params), fp.ReturnTypes)
		return NewQualifiedType(a, NewPtrType(a, fnType, AsProgramCode), true), nil
	default:
		return nil, errors.Typing("decl_ref", "cannot reference a %s as a value", p.Decl.Tag)
	}
}

func paramTypes(params []*Node) []*Node {
	types := make([]*Node, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return types
}

// checkPrimOp implements the arithmetic/comparison subtyping-and-join
// rule (§4.3) plus per-opcode signatures for the remaining subset of
// opcodes this kernel reasons about.
func checkPrimOp(a *Arena, p PrimOpPayload) (*Node, error) {
	switch p.Op {
	case AddOp, MulOp, SubOp, DivOp:
		return checkArithmeticPrimOp(p)
	case GtOp, LtOp, NeqOp, EqOp:
		return checkComparisonPrimOp(a, p)
	case ReinterpretOp, ConvertOp:
		return checkCastPrimOp(p)
	case QuoteOp:
		return wrapOperandTypes(p.Operands), nil
	case ExtractOp:
		if len(p.TypeArguments) != 1 {
			return nil, errors.Typing(p.Op.Name(), "extract requires exactly one type argument")
		}
		return NewQualifiedType(a, p.TypeArguments[0], true), nil
	case LeaOp:
		if len(p.TypeArguments) != 1 || len(p.Operands) == 0 {
			return nil, errors.Typing(p.Op.Name(), "lea requires a type argument and a base pointer operand")
		}
		base, _ := StripQualifier(p.Operands[0].Type)
		if base == nil || base.Tag != PtrTypeTag {
			return nil, errors.Typing(p.Op.Name(), "lea's first operand must be a pointer")
		}
		as := base.Payload.(PtrTypePayload).AddressSpace
		return NewQualifiedType(a, NewPtrType(a, p.TypeArguments[0], as), true), nil
	case CreateJoinPointOp:
		return NewQualifiedType(a, NewJoinPointType(a), true), nil
	case DefaultJoinPointOp:
		return NewQualifiedType(a, NewJoinPointType(a), true), nil
	case PopStackOp:
		if len(p.TypeArguments) != 1 {
			return nil, errors.Typing(p.Op.Name(), "pop_stack requires exactly one type argument")
		}
		return NewQualifiedType(a, p.TypeArguments[0], true), nil
	case PushStackOp:
		return wrapYieldTypes(a, nil), nil
	case SubgroupBroadcastFirstOp:
		if len(p.Operands) != 1 || p.Operands[0].Type == nil {
			return nil, errors.Typing(p.Op.Name(), "subgroup_broadcast_first requires one typed operand")
		}
		base, _ := StripQualifier(p.Operands[0].Type)
		return NewQualifiedType(a, base, true), nil
	case SubgroupLocalIDOp, SubgroupIDOp:
		return NewQualifiedType(a, NewIntType(a, IntWidth32, false), true), nil
	case MaskIsThreadActiveOp:
		return NewQualifiedType(a, NewBoolType(a), false), nil
	case DebugPrintfOp:
		return wrapYieldTypes(a, nil), nil
	default:
		return nil, errors.Typing(p.Op.Name(), "no typing rule registered for this opcode")
	}
}

func checkArithmeticPrimOp(p PrimOpPayload) (*Node, error) {
	if len(p.Operands) != 2 {
		return nil, errors.Typing(p.Op.Name(), "%s requires exactly two operands", p.Op.Name())
	}
	l, r := p.Operands[0], p.Operands[1]
	if l.Type == nil || r.Type == nil {
		return nil, errors.Typing(p.Op.Name(), "%s operands must be typed", p.Op.Name())
	}
	lb, lq := StripQualifier(l.Type)
	rb, rq := StripQualifier(r.Type)
	if !baseEquals(lb, rb) {
		return nil, errors.Typing(p.Op.Name(), "%s operand types are not subtypes of one another", p.Op.Name())
	}
	return NewQualifiedType(l.Arena, lb, JoinUniformity(lq, rq) == Uniform), nil
}

func checkComparisonPrimOp(a *Arena, p PrimOpPayload) (*Node, error) {
	if len(p.Operands) != 2 {
		return nil, errors.Typing(p.Op.Name(), "%s requires exactly two operands", p.Op.Name())
	}
	l, r := p.Operands[0], p.Operands[1]
	if l.Type == nil || r.Type == nil {
		return nil, errors.Typing(p.Op.Name(), "%s operands must be typed", p.Op.Name())
	}
	lb, lq := StripQualifier(l.Type)
	rb, rq := StripQualifier(r.Type)
	if !baseEquals(lb, rb) {
		return nil, errors.Typing(p.Op.Name(), "%s operand types are not subtypes of one another", p.Op.Name())
	}
	return NewQualifiedType(a, NewBoolType(a), JoinUniformity(lq, rq) == Uniform), nil
}

func checkCastPrimOp(p PrimOpPayload) (*Node, error) {
	if len(p.TypeArguments) != 1 {
		return nil, errors.Typing(p.Op.Name(), "%s requires exactly one destination type argument", p.Op.Name())
	}
	if len(p.Operands) != 1 || p.Operands[0].Type == nil {
		return nil, errors.Typing(p.Op.Name(), "%s requires exactly one typed operand", p.Op.Name())
	}
	_, q := StripQualifier(p.Operands[0].Type)
	return NewQualifiedType(p.Operands[0].Arena, p.TypeArguments[0], q == Uniform), nil
}

func wrapOperandTypes(operands []*Node) *Node {
	if len(operands) == 0 {
		return nil
	}
	types := make([]*Node, len(operands))
	for i, op := range operands {
		types[i] = op.Type
	}
	return wrapYieldTypes(operands[0].Arena, types)
}

func checkCall(a *Arena, p CallPayload) (*Node, error) {
	if p.Callee == nil || p.Callee.Type == nil {
		return nil, errors.Typing("call", "call requires a typed callee")
	}
	base, _ := StripQualifier(p.Callee.Type)
	if base == nil || base.Tag != PtrTypeTag {
		return nil, errors.Typing("call", "call target is not a function pointer")
	}
	fnType, _ := StripQualifier(base.Payload.(PtrTypePayload).PointedType)
	if fnType == nil || fnType.Tag != FnTypeTag {
		return nil, errors.Typing("call", "call target does not point to a function type")
	}
	fp := fnType.Payload.(FnTypePayload)
	if len(fp.ParamTypes) != len(p.Args) {
		return nil, errors.Typing("call", "call expects %d arguments, got %d", len(fp.ParamTypes), len(p.Args))
	}
	for i, arg := range p.Args {
		if arg.Type == nil || !IsSubtype(arg.Type, fp.ParamTypes[i]) {
			return nil, errors.Typing("call", "argument %d is not a subtype of the parameter type", i)
		}
	}
	return wrapYieldTypes(a, fp.ReturnTypes), nil
}

func checkControl(a *Arena, p ControlPayload) (*Node, error) {
	return wrapYieldTypes(a, p.YieldTypes), nil
}

func checkIf(a *Arena, p IfPayload) (*Node, error) {
	if p.Condition == nil || p.Condition.Type == nil {
		return nil, errors.Typing("if", "if requires a typed condition")
	}
	base, _ := StripQualifier(p.Condition.Type)
	if base == nil || base.Tag != BoolTypeTag {
		return nil, errors.Typing("if", "if condition must be bool-typed")
	}
	return wrapYieldTypes(a, p.YieldTypes), nil
}

func checkMatch(a *Arena, p MatchPayload) (*Node, error) {
	if p.Inspect == nil || p.Inspect.Type == nil {
		return nil, errors.Typing("match", "match requires a typed inspectee")
	}
	if len(p.Literals) != len(p.Cases) {
		return nil, errors.Typing("match", "match requires one case per literal")
	}
	return wrapYieldTypes(a, p.YieldTypes), nil
}

func checkLoop(a *Arena, p LoopPayload) (*Node, error) {
	return wrapYieldTypes(a, p.YieldTypes), nil
}

// checkLet enforces §4.3's let-binding rule: the instruction's yielded
// types must match the bound variables one-for-one in count, and each
// bound variable's declared type must be a supertype (under IsSubtype)
// of the corresponding yielded type. A count or type mismatch here is
// exactly the "let's bound-variable count disagrees with the
// instruction's yielded arity" example §7 names as a fatal structural
// invariant violation.
func checkLet(p LetPayload) (*Node, error) {
	if p.Tail == nil {
		return nil, errors.Typing("let", "let requires a continuation")
	}
	if p.Instruction != nil && p.Instruction.Type != nil {
		yielded, ok := instructionYieldTypes(p.Instruction.Type, len(p.Variables))
		if !ok {
			return nil, errors.Structural("let", "let binds %d variable(s) but its instruction's yield arity does not match", len(p.Variables))
		}
		for i, v := range p.Variables {
			if !IsSubtype(yielded[i], v.Type) {
				return nil, errors.Typing("let", "let binds variable %d of type %v to a value of incompatible type %v", i, v.Type, yielded[i])
			}
		}
	}
	return p.Tail.Payload.(CasePayload).Body.Type, nil
}

// instructionYieldTypes recovers an instruction's per-output type list
// from its single wrapYieldTypes-packaged Type field, reporting whether
// that list actually has expected entries -- the number of variables
// the let binds. A one-variable let's instruction type is the bare
// yielded type at face value (wrapYieldTypes never wraps a singleton),
// matching unwrapYieldTypes's own count==1 special case; any other
// expected count requires the type to be the record_type
// wrapYieldTypes builds for zero or multiple yields, with exactly
// expected members.
func instructionYieldTypes(instrType *Node, expected int) ([]*Node, bool) {
	if expected == 1 {
		return []*Node{instrType}, true
	}
	if instrType.Tag != RecordTypeTag {
		return nil, false
	}
	members := instrType.Payload.(RecordTypePayload).Members
	return members, len(members) == expected
}

// checkFunctionSignature types a function declaration by its signature
// alone -- at the point NewFunction runs the body is still unset (§9
// "Nominal mutation window"), so unlike every other checker this one
// cannot see into p.Body.
func checkFunctionSignature(a *Arena, p *FunctionPayload) *Node {
	fnType := NewFnType(a, p.IsBasicBlock, paramTypes(p.Params), p.ReturnTypes)
	return NewQualifiedType(a, NewPtrType(a, fnType, AsProgramCode), true)
}

func checkGlobalVariable(a *Arena, p *GlobalVariablePayload) *Node {
	return NewQualifiedType(a, NewPtrType(a, p.Type, p.AddressSpace), true)
}
