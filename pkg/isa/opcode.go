// Package isa holds the LEAP instruction set: the opcode space, the
// general-instruction bit-field layout, and the raw four-word
// encode/decode that the image codec and the IR both build on.
package isa

import "fmt"

// Opcode is a LEAP opcode number: OPCODE1 in the low 8 bits, OPCODE2 in
// bits 9:8 (so the space is effectively 10 bits wide).
type Opcode uint16

// Integer/logical class (0x80-0x9f): pure ALU, no side effects.
const (
	FRACMULT Opcode = 0x00

	ADD      Opcode = 0x80
	ADD_DIV2 Opcode = 0x81
	SUB      Opcode = 0x82
	SUB_DIV2 Opcode = 0x83
	ADD_UNS  Opcode = 0x84
	ABS      Opcode = 0x85
	MAX      Opcode = 0x86
	MIN      Opcode = 0x87
	MUX      Opcode = 0x88
	AND      Opcode = 0x89
	OR       Opcode = 0x8a
	XOR      Opcode = 0x8b
	CLR      Opcode = 0x8c
	ZERO     Opcode = 0x8d
	ADD2     Opcode = 0x8e
	ADD3     Opcode = 0x8f
	ZERO2    Opcode = 0x90
	ZERO3    Opcode = 0x91
	ZERO4    Opcode = 0x92
	CLAMP    Opcode = 0x93
	ROT      Opcode = 0x94
	PDM1     Opcode = 0x95 // one-in-4 decimation
	PDM2     Opcode = 0x96
	PDM3     Opcode = 0x97 // one-in-3 decimation
	PDM4     Opcode = 0x98
	PDM5     Opcode = 0x99 // one-in-5 decimation
	PDM6     Opcode = 0x9a
	CMP      Opcode = 0x9b
	CMP2     Opcode = 0x9c
	EQ       Opcode = 0x9d
	ADD4     Opcode = 0x9e
	SUB2     Opcode = 0x9f
)

// I/O class (0xa0-0xbf): side-effecting port reads and writes.
const (
	TAKE   Opcode = 0xa0
	TAKEC  Opcode = 0xa1
	PEEK   Opcode = 0xa2
	PUT    Opcode = 0xa4
	PUTC   Opcode = 0xa5
	UPDATE Opcode = 0xa6
	UNK_BF Opcode = 0xbf
)

// Float/compare/format class (0xc0+).
const (
	FCMP    Opcode = 0xe0
	FCMP2   Opcode = 0xe1
	FMUX    Opcode = 0xe5
	F32_FMT Opcode = 0xed

	FADD      Opcode = 0x1c0
	FADD_ABS  Opcode = 0x1c1
	FADD_DIV2 Opcode = 0x1c2
	FSUB      Opcode = 0x1c3
	FSUB_ABS  Opcode = 0x1c4
	FSUB_DIV2 Opcode = 0x1c5

	FMULT        Opcode = 0x1c6
	FMULTACC     Opcode = 0x1c7
	FMULT_NEG    Opcode = 0x1d6
	FMULTACC_NEG Opcode = 0x1d7
	FMULTSUB     Opcode = 0x1d8
)

// multTop/multLow bound the MULT0..MULT31 family: MULT31 sits at 0x2e0
// and MULT0 at 0x2ff, descending as n grows.
const (
	multTop Opcode = 0x2ff // MULT0
	multLow Opcode = 0x2e0 // MULT31
)

// MultOpcode returns the opcode for MULTn, n in 0..31.
func MultOpcode(n int) Opcode {
	if n < 0 || n > 31 {
		panic("isa: MULT index out of range")
	}
	return multTop - Opcode(n)
}

// MultIndex reports whether op belongs to the MULT0..MULT31 family and,
// if so, which index it is.
func MultIndex(op Opcode) (n int, ok bool) {
	if op < multLow || op > multTop {
		return 0, false
	}
	return int(multTop - op), true
}

// info holds static metadata for one opcode.
type info struct {
	mnemonic string
}

var catalog = map[Opcode]info{
	FRACMULT: {"FRACMULT"},

	ADD: {"ADD"}, ADD_DIV2: {"ADD_DIV2"}, SUB: {"SUB"}, SUB_DIV2: {"SUB_DIV2"},
	ADD_UNS: {"ADD_UNS"}, ABS: {"ABS"}, MAX: {"MAX"}, MIN: {"MIN"},
	MUX: {"MUX"}, AND: {"AND"}, OR: {"OR"}, XOR: {"XOR"},
	CLR: {"CLR"}, ZERO: {"ZERO"}, ADD2: {"ADD2"}, ADD3: {"ADD3"},
	ZERO2: {"ZERO2"}, ZERO3: {"ZERO3"}, ZERO4: {"ZERO4"}, CLAMP: {"CLAMP"},
	ROT: {"ROT"}, PDM1: {"PDM1"}, PDM2: {"PDM2"}, PDM3: {"PDM3"},
	PDM4: {"PDM4"}, PDM5: {"PDM5"}, PDM6: {"PDM6"}, CMP: {"CMP"},
	CMP2: {"CMP2"}, EQ: {"EQ"}, ADD4: {"ADD4"}, SUB2: {"SUB2"},

	TAKE: {"TAKE"}, TAKEC: {"TAKEC"}, PEEK: {"PEEK"},
	PUT: {"PUT"}, PUTC: {"PUTC"}, UPDATE: {"UPDATE"}, UNK_BF: {"UNK_BF"},

	FCMP: {"FCMP"}, FCMP2: {"FCMP2"}, FMUX: {"FMUX"}, F32_FMT: {"F32_FMT"},

	FADD: {"FADD"}, FADD_ABS: {"FADD_ABS"}, FADD_DIV2: {"FADD_DIV2"},
	FSUB: {"FSUB"}, FSUB_ABS: {"FSUB_ABS"}, FSUB_DIV2: {"FSUB_DIV2"},
	FMULT: {"FMULT"}, FMULTACC: {"FMULTACC"},
	FMULT_NEG: {"FMULT_NEG"}, FMULTACC_NEG: {"FMULTACC_NEG"}, FMULTSUB: {"FMULTSUB"},
}

func init() {
	for n := 0; n <= 31; n++ {
		catalog[MultOpcode(n)] = info{fmt.Sprintf("MULT%d", n)}
	}
}

// Name returns the mnemonic for op, or a hex placeholder if unknown.
func Name(op Opcode) string {
	if i, ok := catalog[op]; ok {
		return i.mnemonic
	}
	return fmt.Sprintf("UNKNOWN(%#03x)", uint16(op))
}

// Valid reports whether op is a recognised opcode.
func Valid(op Opcode) bool {
	_, ok := catalog[op]
	return ok
}

var byName map[string]Opcode

func init() {
	byName = make(map[string]Opcode, len(catalog))
	for op, i := range catalog {
		byName[i.mnemonic] = op
	}
}

// ByName looks up an opcode by its mnemonic, the inverse of Name.
func ByName(name string) (Opcode, bool) {
	op, ok := byName[name]
	return op, ok
}

// IsSideEffecting reports whether op is in the I/O class (0xa0-0xbf).
// Side-effecting instructions must keep their relative source order.
func IsSideEffecting(op Opcode) bool {
	return op >= 0xa0 && op <= 0xbf
}

// floatOps is the explicit float/compare/format opcode set. Per the
// spec's redesign note, membership is enumerated rather than derived
// from a naming heuristic.
var floatOps = map[Opcode]bool{
	FCMP: true, FCMP2: true, FMUX: true, F32_FMT: true,
	FADD: true, FADD_ABS: true, FADD_DIV2: true,
	FSUB: true, FSUB_ABS: true, FSUB_DIV2: true,
	FMULT: true, FMULTACC: true, FMULT_NEG: true, FMULTACC_NEG: true, FMULTSUB: true,
}

// IsFloat reports whether op operates on the big-endian IEEE-754 view
// of its operands.
func IsFloat(op Opcode) bool {
	return floatOps[op]
}

// macBubbleOps is the multiply-accumulate family that needs a one-slot
// latency bubble before its result is consumed.
var macBubbleOps = map[Opcode]bool{
	FMULTSUB: true, FMULTACC: true, FMULTACC_NEG: true,
}

// HasLatencyBubble reports whether a consumer of op's result must be
// placed at least two slots after op (spec.md §3, §4.6 rule 1).
func HasLatencyBubble(op Opcode) bool {
	return macBubbleOps[op]
}

// Sieve maps a DSL caller's positional arguments onto the three
// hardware operand slots for opcodes whose natural call shape doesn't
// fill all three (e.g. TAKE takes one argument that lands in slot 3).
// The boolean at index i is true iff slot i+1 is filled from the next
// caller-supplied argument; slots not covered here default to "all
// three slots are filled in order".
var operandSieve = map[Opcode][3]bool{
	TAKE:      {false, false, true},
	TAKEC:     {false, true, true},
	PEEK:      {false, false, true},
	PUT:       {true, false, true},
	PUTC:      {true, true, true},
	UPDATE:    {true, false, true},
	F32_FMT:   {false, true, true},
	FMULT:     {false, true, true},
	FMULT_NEG: {false, true, true},
}

// Sieve returns the operand sieve for op. The MULT0..MULT31 family all
// share MULT0's sieve. Opcodes with no explicit sieve report
// {true, true, true}, but see SieveExplicit: such opcodes don't
// actually require all three slots filled by a caller.
func Sieve(op Opcode) [3]bool {
	s, _ := SieveExplicit(op)
	return s
}

// SieveExplicit returns op's operand sieve and reports whether op
// actually has one. Opcodes without an explicit sieve take their
// caller's arguments positionally, trailing slots left unfilled,
// instead of having their argument count pinned to three.
func SieveExplicit(op Opcode) (sieve [3]bool, ok bool) {
	if s, ok := operandSieve[op]; ok {
		return s, true
	}
	if _, ok := MultIndex(op); ok {
		return [3]bool{false, true, true}, true
	}
	return [3]bool{true, true, true}, false
}
