package ir

// Op is a primop opcode. Constants mirror the small subset of shady's
// PRIMOPS() X-macro table that this kernel's checker/folder/lowering
// passes actually reason about; the full opcode space described by §6's
// SPIR-V core grammar is out of scope (an external collaborator's table).
type Op int

const (
	AddOp Op = iota
	MulOp
	SubOp
	DivOp
	GtOp
	LtOp
	NeqOp
	EqOp
	ReinterpretOp
	ConvertOp
	ExtractOp
	LeaOp
	QuoteOp
	CreateJoinPointOp
	DefaultJoinPointOp
	PopStackOp
	PushStackOp
	SubgroupBroadcastFirstOp
	SubgroupLocalIDOp
	SubgroupIDOp
	MaskIsThreadActiveOp
	DebugPrintfOp

	numOps
)

// primopInfo is the per-opcode (has_side_effects, name) pair §6 describes.
type primopInfo struct {
	HasSideEffects bool
	Name           string
}

var primopTable = [numOps]primopInfo{
	AddOp:                    {false, "add"},
	MulOp:                    {false, "mul"},
	SubOp:                    {false, "sub"},
	DivOp:                    {false, "div"},
	GtOp:                     {false, "gt"},
	LtOp:                     {false, "lt"},
	NeqOp:                    {false, "neq"},
	EqOp:                     {false, "eq"},
	ReinterpretOp:            {false, "reinterpret"},
	ConvertOp:                {false, "convert"},
	ExtractOp:                {false, "extract"},
	LeaOp:                    {false, "lea"},
	QuoteOp:                  {false, "quote"},
	CreateJoinPointOp:        {false, "create_joinpoint"},
	DefaultJoinPointOp:       {false, "default_joinpoint"},
	PopStackOp:               {true, "pop_stack"},
	PushStackOp:              {true, "push_stack"},
	SubgroupBroadcastFirstOp: {false, "subgroup_broadcast_first"},
	SubgroupLocalIDOp:        {false, "subgroup_local_id"},
	SubgroupIDOp:             {false, "subgroup_id"},
	MaskIsThreadActiveOp:     {false, "mask_is_thread_active"},
	DebugPrintfOp:            {true, "debug_printf"},
}

// Name returns the primop's string name, as primop_names[] would.
func (op Op) Name() string {
	if op < 0 || int(op) >= len(primopTable) {
		return "invalid_op"
	}
	return primopTable[op].Name
}

// HasPrimopGotSideEffects mirrors has_primop_got_side_effects(op).
func HasPrimopGotSideEffects(op Op) bool {
	if op < 0 || int(op) >= len(primopTable) {
		return false
	}
	return primopTable[op].HasSideEffects
}
