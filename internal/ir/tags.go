// Package ir implements the hash-consed, arena-allocated term graph that is
// the core of the shader IR: its node taxonomy, typed construction,
// constant folding, and the body builder used to assemble let-chains.
//
// The tag enumeration, class bitset and lookup tables in this file are
// hand-written in the shape a grammar-driven generator (see the `ops`/
// `class` fields of the JSON grammar described by the spec this package
// implements) would emit: one NodeTag per node kind, a NodeClass bitset,
// a tag->class table, a string table indexed by tag, and a set of the
// nominal tags. There is no per-tag "has payload" table.
// There is no JSON grammar reader here -- the concrete generator is a
// build-time tool outside this package's scope.
package ir

// NodeTag identifies the kind of a Node. Zero value is the invalid sentinel.
type NodeTag int

const (
	InvalidNode NodeTag = iota

	// Types
	IntTypeTag
	FloatTypeTag
	BoolTypeTag
	PtrTypeTag
	ArrTypeTag
	PackTypeTag
	RecordTypeTag
	FnTypeTag
	QualifiedTypeTag
	JoinPointTypeTag
	MaskTypeTag
	DeclRefTypeTag

	// Values
	IntLiteralTag
	FloatLiteralTag
	BoolLiteralTag
	StringLiteralTag
	NullPtrTag
	UndefTag
	CompositeTag
	TupleTag
	VariableTag
	FnAddrTag
	DeclRefTag

	// Instructions
	PrimOpTag
	CallTag
	ControlTag
	IfTag
	MatchTag
	LoopTag

	// Terminators
	YieldTag
	LetTag
	TailCallTag
	JoinTag
	ReturnTag
	MergeBreakTag
	MergeContinueTag
	UnreachableTag

	// Declarations (nominal)
	FunctionTag
	ConstantTag
	GlobalVariableTag
	BasicBlockTag
	CaseTag

	numNodeTags
)

// NodeClass is a bitset identifying which of the five disjoint node
// families (§3.4) a tag belongs to.
type NodeClass uint32

const (
	ClassType NodeClass = 1 << iota
	ClassValue
	ClassInstruction
	ClassTerminator
	ClassDeclaration
)

// tagClass is the tag->class lookup table a generator would emit.
var tagClass = [numNodeTags]NodeClass{
	IntTypeTag:       ClassType,
	FloatTypeTag:     ClassType,
	BoolTypeTag:      ClassType,
	PtrTypeTag:       ClassType,
	ArrTypeTag:       ClassType,
	PackTypeTag:      ClassType,
	RecordTypeTag:    ClassType,
	FnTypeTag:        ClassType,
	QualifiedTypeTag: ClassType,
	JoinPointTypeTag: ClassType,
	MaskTypeTag:      ClassType,
	DeclRefTypeTag:   ClassType,

	IntLiteralTag:    ClassValue,
	FloatLiteralTag:  ClassValue,
	BoolLiteralTag:   ClassValue,
	StringLiteralTag: ClassValue,
	NullPtrTag:       ClassValue,
	UndefTag:         ClassValue,
	CompositeTag:     ClassValue,
	TupleTag:         ClassValue,
	VariableTag:      ClassValue,
	FnAddrTag:        ClassValue,
	DeclRefTag:       ClassValue,

	PrimOpTag:  ClassInstruction,
	CallTag:    ClassInstruction,
	ControlTag: ClassInstruction,
	IfTag:      ClassInstruction,
	MatchTag:   ClassInstruction,
	LoopTag:    ClassInstruction,

	YieldTag:          ClassTerminator,
	LetTag:            ClassTerminator,
	TailCallTag:       ClassTerminator,
	JoinTag:           ClassTerminator,
	ReturnTag:         ClassTerminator,
	MergeBreakTag:     ClassTerminator,
	MergeContinueTag:  ClassTerminator,
	UnreachableTag:    ClassTerminator,

	FunctionTag:       ClassDeclaration,
	ConstantTag:       ClassDeclaration,
	GlobalVariableTag: ClassDeclaration,
	BasicBlockTag:     ClassDeclaration,
	CaseTag:           ClassDeclaration,
}

// nodeTags is the string table a generator would emit ("node_tags[]" in §6).
var nodeTags = [numNodeTags]string{
	InvalidNode: "invalid",

	IntTypeTag:       "int_type",
	FloatTypeTag:     "float_type",
	BoolTypeTag:      "bool_type",
	PtrTypeTag:       "ptr_type",
	ArrTypeTag:       "arr_type",
	PackTypeTag:      "pack_type",
	RecordTypeTag:    "record_type",
	FnTypeTag:        "fn_type",
	QualifiedTypeTag: "qualified_type",
	JoinPointTypeTag: "join_point_type",
	MaskTypeTag:      "mask_type",
	DeclRefTypeTag:   "decl_ref_type",

	IntLiteralTag:    "int_literal",
	FloatLiteralTag:  "float_literal",
	BoolLiteralTag:   "bool_literal",
	StringLiteralTag: "string_literal",
	NullPtrTag:       "null_ptr",
	UndefTag:         "undef",
	CompositeTag:     "composite",
	TupleTag:         "tuple",
	VariableTag:      "variable",
	FnAddrTag:        "fn_addr",
	DeclRefTag:       "decl_ref",

	PrimOpTag:  "prim_op",
	CallTag:    "call",
	ControlTag: "control",
	IfTag:      "if",
	MatchTag:   "match",
	LoopTag:    "loop",

	YieldTag:         "yield",
	LetTag:           "let",
	TailCallTag:      "tail_call",
	JoinTag:          "join",
	ReturnTag:        "return",
	MergeBreakTag:    "merge_break",
	MergeContinueTag: "merge_continue",
	UnreachableTag:   "unreachable",

	FunctionTag:       "function",
	ConstantTag:       "constant",
	GlobalVariableTag: "global_variable",
	BasicBlockTag:     "basic_block",
	CaseTag:           "case",
}

// String returns the snake_case tag name, as node_tags[] would.
func (t NodeTag) String() string {
	if t < 0 || int(t) >= len(nodeTags) {
		return "invalid"
	}
	return nodeTags[t]
}

// IsType reports whether tag belongs to the Types family.
func IsType(t NodeTag) bool { return tagClass[t]&ClassType != 0 }

// IsValue reports whether tag belongs to the Values family.
func IsValue(t NodeTag) bool { return tagClass[t]&ClassValue != 0 }

// IsInstruction reports whether tag belongs to the Instructions family.
func IsInstruction(t NodeTag) bool { return tagClass[t]&ClassInstruction != 0 }

// IsTerminator reports whether tag belongs to the Terminators family.
func IsTerminator(t NodeTag) bool { return tagClass[t]&ClassTerminator != 0 }

// IsDeclaration reports whether tag belongs to the Declarations family.
func IsDeclaration(t NodeTag) bool { return tagClass[t]&ClassDeclaration != 0 }

// nominalTags marks the tags whose identity is not determined by payload
// equality (§3.4 "Structural vs nominal").
var nominalTags = map[NodeTag]bool{
	VariableTag:       true,
	FunctionTag:       true,
	ConstantTag:       true,
	GlobalVariableTag: true,
	BasicBlockTag:     true,
	CaseTag:           true,
}

// IsNominal reports whether a node of this tag is uniqued by identity
// rather than by structural equality.
func IsNominal(t NodeTag) bool { return nominalTags[t] }

// IsStructural is the complement of IsNominal.
func IsStructural(t NodeTag) bool { return !nominalTags[t] }
