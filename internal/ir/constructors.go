package ir

import (
	"fmt"

	"github.com/martty/shady-go/internal/errors"
)

// ---- Types ----

func NewIntType(a *Arena, width IntWidth, signed bool) *Node {
	p := IntTypePayload{Width: width, Signed: signed}
	n, _ := construct(a, IntTypeTag, p, nil)
	return n
}

func NewFloatType(a *Arena, width FloatWidth) *Node {
	p := FloatTypePayload{Width: width}
	n, _ := construct(a, FloatTypeTag, p, nil)
	return n
}

func NewBoolType(a *Arena) *Node {
	n, _ := construct(a, BoolTypeTag, BoolTypePayload{}, nil)
	return n
}

func NewPtrType(a *Arena, pointee *Node, as AddressSpace) *Node {
	p := PtrTypePayload{PointedType: pointee, AddressSpace: as}
	n, _ := construct(a, PtrTypeTag, p, nil)
	return n
}

// NewArrType builds an array type; size may be nil for an unsized
// ("runtime") array (§8 boundary: an array with a nil size is valid and
// denotes a runtime array, distinct from a zero-length one).
func NewArrType(a *Arena, element *Node, size *Node) *Node {
	p := ArrTypePayload{ElementType: element, Size: size}
	n, _ := construct(a, ArrTypeTag, p, nil)
	return n
}

// NewPackType builds a SIMD pack type. Width must be at least 2 (§8
// boundary: "a pack type of width < 2 is rejected") -- a pack of one
// element is just its element type and would defeat hash-consing
// (two spellings of the same type).
func NewPackType(a *Arena, element *Node, width int) (*Node, error) {
	if width < 2 {
		return nil, errors.Typing("pack_type", "pack_type width must be at least 2, got %d", width)
	}
	p := PackTypePayload{ElementType: element, Width: width}
	return construct(a, PackTypeTag, p, nil)
}

// NewRecordType builds a record type. An empty record (no members) is
// valid and denotes the unit/void-like type used for instructions with
// no yields (§8: "an empty record type is valid and denotes void").
func NewRecordType(a *Arena, members []*Node, names []string, special bool) *Node {
	p := RecordTypePayload{Members: members, Names: names, Special: special}
	n, _ := construct(a, RecordTypeTag, p, nil)
	return n
}

func NewFnType(a *Arena, isBasicBlock bool, params, returns []*Node) *Node {
	p := FnTypePayload{IsBasicBlock: isBasicBlock, ParamTypes: params, ReturnTypes: returns}
	n, _ := construct(a, FnTypeTag, p, nil)
	return n
}

func NewQualifiedType(a *Arena, inner *Node, uniform bool) *Node {
	p := QualifiedTypePayload{Type: inner, IsUniform: uniform}
	n, _ := construct(a, QualifiedTypeTag, p, nil)
	return n
}

func NewJoinPointType(a *Arena) *Node {
	n, _ := construct(a, JoinPointTypeTag, JoinPointTypePayload{}, nil)
	return n
}

func NewMaskType(a *Arena) *Node {
	n, _ := construct(a, MaskTypeTag, MaskTypePayload{}, nil)
	return n
}

func NewDeclRefType(a *Arena, decl *Node) *Node {
	p := DeclRefTypePayload{Decl: decl}
	n, _ := construct(a, DeclRefTypeTag, p, nil)
	return n
}

// ---- Values ----

func NewIntLiteral(a *Arena, width IntWidth, value uint64) *Node {
	p := IntLiteralPayload{Width: width, Value: value}
	return mustConstruct(a, IntLiteralTag, p, func() (*Node, error) { return checkIntLiteral(a, p) })
}

func NewFloatLiteral(a *Arena, width FloatWidth, value float64) *Node {
	p := FloatLiteralPayload{Width: width, Value: value}
	return mustConstruct(a, FloatLiteralTag, p, func() (*Node, error) { return checkFloatLiteral(a, p) })
}

func NewBoolLiteral(a *Arena, value bool) *Node {
	p := BoolLiteralPayload{Value: value}
	return mustConstruct(a, BoolLiteralTag, p, func() (*Node, error) { return checkBoolLiteral(a) })
}

func NewStringLiteral(a *Arena, value string) *Node {
	p := StringLiteralPayload{Value: a.InternString(value)}
	return mustConstruct(a, StringLiteralTag, p, func() (*Node, error) { return checkStringLiteral(a) })
}

func NewNullPtr(a *Arena, ptrType *Node) (*Node, error) {
	p := NullPtrPayload{Type: ptrType}
	return construct(a, NullPtrTag, p, func() (*Node, error) { return checkNullPtr(a, p) })
}

func NewUndef(a *Arena, typ *Node) (*Node, error) {
	p := UndefPayload{Type: typ}
	return construct(a, UndefTag, p, func() (*Node, error) { return checkUndef(a, p) })
}

func NewComposite(a *Arena, typ *Node, elements []*Node) (*Node, error) {
	p := CompositePayload{Type: typ, Elements: elements}
	return construct(a, CompositeTag, p, func() (*Node, error) { return checkComposite(a, p) })
}

func NewTuple(a *Arena, elements []*Node) (*Node, error) {
	p := TuplePayload{Elements: elements}
	return construct(a, TupleTag, p, func() (*Node, error) { return checkTuple(a, p) })
}

// NewVariable builds a fresh, nominal Variable. instr/output identify
// which instruction output this variable names (both nil/0 for a plain
// function or case parameter, never hash-consed with any other
// variable regardless of name or type).
func NewVariable(a *Arena, typ *Node, name string, instr *Node, output int) *Node {
	p := VariablePayload{
		ID:          a.FreshID(),
		Name:        a.InternString(name),
		Type:        typ,
		Instruction: instr,
		Output:      output,
	}
	n := &Node{Arena: a, Tag: VariableTag, Payload: p}
	if a.CheckTypes() {
		t, err := checkVariable(p)
		if err != nil {
			panic(err)
		}
		n.Type = t
	}
	return a.allocateNominal(n)
}

func NewFnAddr(a *Arena, fn *Node) (*Node, error) {
	p := FnAddrPayload{Fn: fn}
	return construct(a, FnAddrTag, p, func() (*Node, error) { return checkFnAddr(a, p) })
}

func NewDeclRef(a *Arena, decl *Node) (*Node, error) {
	p := DeclRefPayload{Decl: decl}
	return construct(a, DeclRefTag, p, func() (*Node, error) { return checkDeclRef(a, p) })
}

// ---- Instructions ----

func NewPrimOp(a *Arena, op Op, typeArguments, operands []*Node) (*Node, error) {
	p := PrimOpPayload{Op: op, TypeArguments: typeArguments, Operands: operands}
	return construct(a, PrimOpTag, p, func() (*Node, error) { return checkPrimOp(a, p) })
}

func NewCall(a *Arena, callee *Node, args []*Node) (*Node, error) {
	p := CallPayload{Callee: callee, Args: args}
	return construct(a, CallTag, p, func() (*Node, error) { return checkCall(a, p) })
}

func NewControl(a *Arena, yieldTypes []*Node, inside *Node) (*Node, error) {
	p := ControlPayload{YieldTypes: yieldTypes, Inside: inside}
	return construct(a, ControlTag, p, func() (*Node, error) { return checkControl(a, p) })
}

func NewIf(a *Arena, condition *Node, yieldTypes []*Node, ifTrue, ifFalse *Node) (*Node, error) {
	p := IfPayload{Condition: condition, YieldTypes: yieldTypes, IfTrue: ifTrue, IfFalse: ifFalse}
	return construct(a, IfTag, p, func() (*Node, error) { return checkIf(a, p) })
}

func NewMatch(a *Arena, inspect *Node, yieldTypes, literals, cases []*Node, defaultCase *Node) (*Node, error) {
	p := MatchPayload{Inspect: inspect, YieldTypes: yieldTypes, Literals: literals, Cases: cases, DefaultCase: defaultCase}
	return construct(a, MatchTag, p, func() (*Node, error) { return checkMatch(a, p) })
}

func NewLoop(a *Arena, yieldTypes, initialArgs []*Node, body *Node) (*Node, error) {
	p := LoopPayload{YieldTypes: yieldTypes, InitialArgs: initialArgs, Body: body}
	return construct(a, LoopTag, p, func() (*Node, error) { return checkLoop(a, p) })
}

// ---- Terminators ----

func NewYield(a *Arena, args []*Node) *Node {
	n, _ := construct(a, YieldTag, YieldPayload{Args: args}, nil)
	return n
}

// NewCase builds the anonymous nominal lambda used as every structured
// control continuation.
func NewCase(a *Arena, params []*Node, body *Node) *Node {
	n := &Node{Arena: a, Tag: CaseTag, Payload: CasePayload{Params: params, Body: body}}
	return a.allocateNominal(n)
}

// bindOutputVariables creates the fresh output variables an
// instruction's let binds, one per yielded type, named either from
// names (when len(names) matches) or a positional default.
func bindOutputVariables(a *Arena, instr *Node, types []*Node, names []string) []*Node {
	vars := make([]*Node, len(types))
	for i, t := range types {
		name := fmt.Sprintf("v%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		vars[i] = NewVariable(a, t, name, instr, i)
	}
	return vars
}

// NewLet binds instr's yielded values, in order, to tail's parameters
// and wraps the pair as a let terminator (§4.2 "let(instruction,
// continuation)"). tail must already have been built with exactly as
// many parameters as instr yields values, typically via bindOutputVariables.
func NewLet(a *Arena, instr *Node, tail *Node, mutable bool) *Node {
	cp := tail.Payload.(CasePayload)
	p := LetPayload{Variables: cp.Params, Instruction: instr, Tail: tail, IsMutable: mutable}
	return mustConstruct(a, LetTag, p, func() (*Node, error) { return checkLet(p) })
}

func NewTailCall(a *Arena, target *Node, args []*Node) *Node {
	n, _ := construct(a, TailCallTag, TailCallPayload{Target: target, Args: args}, nil)
	return n
}

func NewJoin(a *Arena, joinPoint *Node, args []*Node) *Node {
	n, _ := construct(a, JoinTag, JoinPayload{JoinPoint: joinPoint, Args: args}, nil)
	return n
}

func NewReturn(a *Arena, fn *Node, args []*Node) *Node {
	n, _ := construct(a, ReturnTag, ReturnPayload{Fn: fn, Args: args}, nil)
	return n
}

func NewMergeBreak(a *Arena, args []*Node) *Node {
	n, _ := construct(a, MergeBreakTag, MergeBreakPayload{Args: args}, nil)
	return n
}

func NewMergeContinue(a *Arena, args []*Node) *Node {
	n, _ := construct(a, MergeContinueTag, MergeContinuePayload{Args: args}, nil)
	return n
}

func NewUnreachable(a *Arena) *Node {
	n, _ := construct(a, UnreachableTag, UnreachablePayload{}, nil)
	return n
}

// ---- Declarations (nominal) ----

// NewFunction allocates a function declaration with its body unset
// (§9 "Nominal mutation window"): the signature is enough to type
// decl_refs and fn_addrs taken against it before its own body --
// possibly mutually recursive with other not-yet-built functions -- is
// known. Call SetFunctionBody exactly once to complete it.
func NewFunction(a *Arena, annotations []Annotation, name string, isBasicBlock bool, params, returnTypes []*Node) *Node {
	p := &FunctionPayload{
		Annotations:  annotations,
		Name:         a.InternString(name),
		IsBasicBlock: isBasicBlock,
		Params:       params,
		ReturnTypes:  returnTypes,
	}
	n := &Node{Arena: a, Tag: FunctionTag, Payload: p}
	if a.CheckTypes() {
		n.Type = checkFunctionSignature(a, p)
	}
	return a.allocateNominal(n)
}

// SetFunctionBody completes a function's body exactly once. Calling it twice on
// the same function is a structural invariant violation (§7 STR###):
// it can only happen from a bug in the caller's construction order.
func SetFunctionBody(fn *Node, body *Node) {
	p := fn.Payload.(*FunctionPayload)
	if p.bodySet {
		panic(errors.Structural("function_body", "function %q body already set", p.Name))
	}
	p.Body = body
	p.bodySet = true
}

// NewConstant allocates a constant declaration with its value unset;
// call SetConstantValue exactly once. typeHint may be nil when the value's own
// type (once set) is authoritative.
func NewConstant(a *Arena, annotations []Annotation, name string, typeHint *Node) *Node {
	p := &ConstantPayload{Annotations: annotations, Name: a.InternString(name), TypeHint: typeHint}
	n := &Node{Arena: a, Tag: ConstantTag, Payload: p}
	return a.allocateNominal(n)
}

func SetConstantValue(c *Node, value *Node) {
	p := c.Payload.(*ConstantPayload)
	if p.valueSet {
		panic(errors.Structural("constant_value", "constant %q value already set", p.Name))
	}
	p.Value = value
	p.valueSet = true
}

func NewGlobalVariable(a *Arena, annotations []Annotation, name string, typ *Node, as AddressSpace) *Node {
	p := &GlobalVariablePayload{Annotations: annotations, Name: a.InternString(name), Type: typ, AddressSpace: as}
	n := &Node{Arena: a, Tag: GlobalVariableTag, Payload: p}
	if a.CheckTypes() {
		n.Type = checkGlobalVariable(a, p)
	}
	return a.allocateNominal(n)
}

func SetGlobalVariableInit(gv *Node, init *Node) {
	p := gv.Payload.(*GlobalVariablePayload)
	if p.initSet {
		panic(errors.Structural("global_variable_init", "global variable %q init already set", p.Name))
	}
	p.Init = init
	p.initSet = true
}

// NewBasicBlock allocates a structured basic-block declaration with its
// body unset; call SetBasicBlockBody exactly once. Basic blocks are
// reachable only through control-flow edges a jump instruction takes,
// never through the module's ordered declaration list.
func NewBasicBlock(a *Arena, name string, params []*Node) *Node {
	p := &BasicBlockPayload{Name: a.InternString(name), Params: params}
	n := &Node{Arena: a, Tag: BasicBlockTag, Payload: p}
	return a.allocateNominal(n)
}

func SetBasicBlockBody(bb *Node, body *Node) {
	p := bb.Payload.(*BasicBlockPayload)
	if p.bodySet {
		panic(errors.Structural("basic_block_body", "basic block %q body already set", p.Name))
	}
	p.Body = body
	p.bodySet = true
}
