// Package opcode defines the VM's instruction set (spec.md §4.5): compact
// three-address operations over a frame-relative register window. The
// teacher's wazeroir.Operation/interpreterOp pairing (an opcode kind plus
// a small fixed operand set, see internal/engine/interpreter) is the
// model for Instruction: one struct shape reused for every opcode rather
// than one Go type per instruction.
package opcode

// Code enumerates every instruction kind.
type Code uint8

const (
	Nop Code = iota
	Move
	LoadN
	LoadB
	LoadK
	LoadF
	LoadG
	SetG
	LoadU
	Close

	Add
	Sub
	Mul
	Div
	Mod
	Shl
	Shr
	BitAnd
	BitOr
	BitXor

	Neg
	Not
	BitNot

	Eq
	Neq
	Le
	Lt

	Jump
	JumpFalse
	JumpTrue

	Call
	Ret
	RetNone

	ObjNew
	ArrNew
	ObjGet
	ObjIns

	Import
)

func (c Code) String() string {
	switch c {
	case Nop:
		return "Nop"
	case Move:
		return "Move"
	case LoadN:
		return "LoadN"
	case LoadB:
		return "LoadB"
	case LoadK:
		return "LoadK"
	case LoadF:
		return "LoadF"
	case LoadG:
		return "LoadG"
	case SetG:
		return "SetG"
	case LoadU:
		return "LoadU"
	case Close:
		return "Close"
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	case Mod:
		return "Mod"
	case Shl:
		return "Shl"
	case Shr:
		return "Shr"
	case BitAnd:
		return "BitAnd"
	case BitOr:
		return "BitOr"
	case BitXor:
		return "BitXor"
	case Neg:
		return "Neg"
	case Not:
		return "Not"
	case BitNot:
		return "BitNot"
	case Eq:
		return "Eq"
	case Neq:
		return "Neq"
	case Le:
		return "Le"
	case Lt:
		return "Lt"
	case Jump:
		return "Jump"
	case JumpFalse:
		return "JumpFalse"
	case JumpTrue:
		return "JumpTrue"
	case Call:
		return "Call"
	case Ret:
		return "Ret"
	case RetNone:
		return "RetNone"
	case ObjNew:
		return "ObjNew"
	case ArrNew:
		return "ArrNew"
	case ObjGet:
		return "ObjGet"
	case ObjIns:
		return "ObjIns"
	case Import:
		return "Import"
	default:
		return "Unknown"
	}
}

// Instruction is the one-size-fits-all form: most opcodes use A (and
// optionally B, C); LoadK/LoadF/LoadG/LoadU/JumpFalse/JumpTrue reuse B as
// a constant/segment/global/up-value index or absolute jump target, while
// SetG carries its global index in A (source register in B) and Jump
// carries its target in A. D is
// used only by Call, to carry the call site's argument count — the
// three named operands in spec.md §4.5's table (dst, callee, base) don't
// by themselves tell a native callee how many arguments it received, and
// spec.md §7 requires an Argument(received, expected) error on arity
// mismatch, so the call site's known argument count is carried as a
// fourth operand rather than re-derived at run time (spec.md §9
// "implementations may pack operands into a fixed-width word" already
// anticipates operand-encoding latitude; this just adds one more slot).
type Instruction struct {
	Code       Code
	A, B, C, D int32
}

func New(code Code, operands ...int32) Instruction {
	in := Instruction{Code: code}
	if len(operands) > 0 {
		in.A = operands[0]
	}
	if len(operands) > 1 {
		in.B = operands[1]
	}
	if len(operands) > 2 {
		in.C = operands[2]
	}
	if len(operands) > 3 {
		in.D = operands[3]
	}
	return in
}
