package ir

// IntWidth is one of the four integer bit widths the IR supports.
type IntWidth int

const (
	IntWidth8 IntWidth = iota
	IntWidth16
	IntWidth32
	IntWidth64
)

// FloatWidth is one of the three floating-point bit widths the IR supports.
type FloatWidth int

const (
	FloatWidth16 FloatWidth = iota
	FloatWidth32
	FloatWidth64
)

// AddressSpace enumerates pointer/global address spaces. The physical vs
// logical split and the SPIR-V storage-class mapping are in addrspace.go.
type AddressSpace int

const (
	AsGlobalLogical AddressSpace = iota
	AsSharedLogical
	AsPrivateLogical
	AsFunctionLogical
	AsGeneric
	AsGlobalPhysical
	AsSharedPhysical
	AsPrivatePhysical
	AsSubgroupPhysical
	AsInput
	AsOutput
	AsExternal
	AsProgramCode
)

// DivergenceQualifier distinguishes uniform (all invocations identical)
// from varying (may differ per invocation) values.
type DivergenceQualifier int

const (
	Uniform DivergenceQualifier = iota
	Varying
)

// JoinUniformity computes the uniformity join used by arithmetic primops:
// uniform⊔uniform=uniform, any varying input makes the result varying.
func JoinUniformity(a, b DivergenceQualifier) DivergenceQualifier {
	if a == Varying || b == Varying {
		return Varying
	}
	return Uniform
}

// ---- Type payloads ----

type IntTypePayload struct {
	Width  IntWidth
	Signed bool
}

type FloatTypePayload struct {
	Width FloatWidth
}

// BoolTypePayload has no fields; bool_type is a singleton type per arena.
type BoolTypePayload struct{}

type PtrTypePayload struct {
	PointedType  *Node
	AddressSpace AddressSpace
}

// ArrTypePayload's Size may be nil, meaning an unsized ("runtime") array.
type ArrTypePayload struct {
	ElementType *Node
	Size        *Node
}

type PackTypePayload struct {
	ElementType *Node
	Width       int
}

type RecordTypePayload struct {
	Members []*Node
	Names   []string // may be nil/empty: anonymous record
	Special bool     // "decoration" flag, e.g. marks a block-decorated struct
}

type FnTypePayload struct {
	IsBasicBlock bool
	ParamTypes   []*Node
	ReturnTypes  []*Node
}

type QualifiedTypePayload struct {
	Type      *Node
	IsUniform bool
}

// JoinPointTypePayload has no fields beyond identity; join points carry a
// single implicit "tree" type per §4.8.
type JoinPointTypePayload struct{}

type MaskTypePayload struct{}

type DeclRefTypePayload struct {
	Decl *Node
}

// ---- Value payloads ----

type IntLiteralPayload struct {
	Width IntWidth
	Value uint64
}

// ExtractIntLiteralValue returns an int literal's bits reinterpreted at
// int64 width, either sign-extended or zero-extended from its declared
// width -- node.c's extract_int_literal_value, generalized from that
// function's four per-width struct fields (value_i8/u8, ..., value_i64)
// to this package's single raw uint64 payload field: the width-sized
// low bits of Value are taken and extended according to signExtend the
// same way the original's two switch arms do per width.
func (p IntLiteralPayload) ExtractIntLiteralValue(signExtend bool) int64 {
	var bits uint64
	var width uint
	switch p.Width {
	case IntWidth8:
		bits, width = p.Value&0xFF, 8
	case IntWidth16:
		bits, width = p.Value&0xFFFF, 16
	case IntWidth32:
		bits, width = p.Value&0xFFFFFFFF, 32
	case IntWidth64:
		return int64(p.Value)
	default:
		panic("ir: unknown int width in ExtractIntLiteralValue")
	}
	if !signExtend {
		return int64(bits)
	}
	shift := 64 - width
	return int64(bits<<shift) >> shift
}

type FloatLiteralPayload struct {
	Width FloatWidth
	Value float64
}

type BoolLiteralPayload struct {
	Value bool
}

type StringLiteralPayload struct {
	Value string
}

type NullPtrPayload struct {
	Type *Node
}

type UndefPayload struct {
	Type *Node
}

type CompositePayload struct {
	Type     *Node
	Elements []*Node
}

type TuplePayload struct {
	Elements []*Node
}

// VariablePayload is nominal: two variables are equal only by identity.
// Instruction/Output are filled in exactly once (by let/bind) and are nil
// for plain parameters.
type VariablePayload struct {
	ID          uint32
	Name        string
	Type        *Node
	Instruction *Node
	Output      int
}

type FnAddrPayload struct {
	Fn *Node
}

type DeclRefPayload struct {
	Decl *Node
}

// ---- Instruction payloads ----

type PrimOpPayload struct {
	Op            Op
	TypeArguments []*Node
	Operands      []*Node
}

type CallPayload struct {
	Callee *Node
	Args   []*Node
}

// ControlPayload captures a join point: Inside is a Case (lambda) taking
// the join-point value as its one parameter.
type ControlPayload struct {
	YieldTypes []*Node
	Inside     *Node
}

type IfPayload struct {
	Condition  *Node
	YieldTypes []*Node
	IfTrue     *Node // Case
	IfFalse    *Node // Case, may be nil
}

type MatchPayload struct {
	Inspect     *Node
	YieldTypes  []*Node
	Literals    []*Node
	Cases       []*Node // Case, parallel to Literals
	DefaultCase *Node   // Case
}

type LoopPayload struct {
	YieldTypes  []*Node
	InitialArgs []*Node
	Body        *Node // Case
}

// ---- Terminator payloads ----

type YieldPayload struct {
	Args []*Node
}

// LetPayload: Variables are the bound output variables, Instruction is the
// instruction producing them, Tail is the continuation (a Case lambda).
type LetPayload struct {
	Variables   []*Node
	Instruction *Node
	Tail        *Node
	IsMutable   bool
}

type TailCallPayload struct {
	Target *Node
	Args   []*Node
}

type JoinPayload struct {
	JoinPoint *Node
	Args      []*Node
}

type ReturnPayload struct {
	Fn   *Node
	Args []*Node
}

type MergeBreakPayload struct {
	Args []*Node
}

type MergeContinuePayload struct {
	Args []*Node
}

// UnreachablePayload has no fields.
type UnreachablePayload struct{}

// ---- Declaration payloads (nominal) ----

type Annotation struct {
	Name  string
	Value *Node // may be nil for flag-only annotations
}

// FunctionPayload.Body is a one-shot write-only slot (§9 "Nominal
// mutation window"): nil until SetFunctionBody is called exactly once.
type FunctionPayload struct {
	Annotations  []Annotation
	Name         string
	IsBasicBlock bool
	Params       []*Node
	ReturnTypes  []*Node
	Body         *Node
	bodySet      bool
}

type ConstantPayload struct {
	Annotations []Annotation
	Name        string
	TypeHint    *Node
	Value       *Node
	valueSet    bool
}

type GlobalVariablePayload struct {
	Annotations  []Annotation
	Name         string
	Type         *Node
	AddressSpace AddressSpace
	Init         *Node
	initSet      bool
}

// BasicBlockPayload models a structured basic-block declaration: a set of
// parameters and a body terminator, reachable only through control-flow
// edges (not through the declaration list).
type BasicBlockPayload struct {
	Name    string
	Params  []*Node
	Body    *Node
	bodySet bool
}

// CasePayload is the anonymous lambda used as a structured-control
// continuation (if/match/loop/let's tail, control's binder).
type CasePayload struct {
	Params []*Node
	Body   *Node
}
