// Package ir holds the in-memory program representation: operands,
// instructions, routines and the program they make up, plus the
// image round-trip that seeds and flattens them.
package ir

import (
	"fmt"
	"math"

	"github.com/povik/leap-firmware/pkg/isa"
)

// Operand is any value an Instruction can read or write: a physical
// Register, a literal Constant, a multi-producer Global, a ring
// window reference, or the result of another Instruction.
type Operand interface {
	// OperandString renders the operand the way a routine dump does.
	OperandString() string
	isOperand()
}

// BadOperand stands in for an operand a decode path couldn't resolve.
type BadOperand struct{}

func (BadOperand) isOperand()              {}
func (BadOperand) OperandString() string   { return "??" }

// Uninitialized marks "no prior write" — the value of a register or
// global before its first definition.
type Uninitialized struct{}

func (Uninitialized) isOperand()            {}
func (Uninitialized) OperandString() string { return "<uninit>" }

// Constant is a literal 32-bit word. Its float view is the big-endian
// IEEE-754 reinterpretation of the stored bits.
type Constant struct {
	Val uint32
}

// ConstantFromFloat packs v into a Constant using the big-endian
// float encoding the hardware expects.
func ConstantFromFloat(v float32) Constant {
	return Constant{Val: math.Float32bits(v)}
}

// Float reinterprets the stored word as a big-endian IEEE-754 float.
func (c Constant) Float() float32 {
	return math.Float32frombits(c.Val)
}

func (Constant) isOperand() {}
func (c Constant) OperandString() string {
	return fmt.Sprintf("=%08x", c.Val)
}

// Register is a physical slot: a bank (1..3) and an address within
// that bank. Bank 0 is reserved for "absent operand" at the encoding
// layer and never appears here.
type Register struct {
	Bank uint8
	Addr uint32
}

var bankLetters = " abc"

// ParseRegister parses the "a00".."c7fff" register name format. "--"
// means "no register" and is reported via ok=false with a nil error.
func ParseRegister(name string) (reg Register, ok bool, err error) {
	if name == "--" {
		return Register{}, false, nil
	}
	if len(name) < 2 {
		return Register{}, false, fmt.Errorf("ir: bad register name %q", name)
	}
	bank := -1
	for i, c := range bankLetters {
		if i == 0 {
			continue
		}
		if byte(c) == name[0] {
			bank = i
			break
		}
	}
	if bank < 0 {
		return Register{}, false, fmt.Errorf("ir: bad register name %q", name)
	}
	var addr uint64
	if _, err := fmt.Sscanf(name[1:], "%x", &addr); err != nil {
		return Register{}, false, fmt.Errorf("ir: bad register name %q: %w", name, err)
	}
	return Register{Bank: uint8(bank), Addr: uint32(addr)}, true, nil
}

func (r Register) String() string {
	return fmt.Sprintf("%c%02x", bankLetters[r.Bank], r.Addr)
}

func (Register) isOperand() {}
func (r Register) OperandString() string { return r.String() }

// RegisterRing is a circular window over a bank: depth slots of width
// width starting at base. Reads into the window decode to a
// (ring, offset) pair rather than a bare register.
type RegisterRing struct {
	Bank  uint8
	Base  uint32
	Depth uint32
	Width uint32
}

// Span returns the [start, end) register-address range the ring covers.
func (r *RegisterRing) Span() (start, end uint32) {
	return r.Base, r.Base + r.Depth*r.Width
}

// Contains reports whether reg names a slot within the ring's bank and
// address span.
func (r *RegisterRing) Contains(reg Register) bool {
	if reg.Bank != r.Bank {
		return false
	}
	start, end := r.Span()
	return reg.Addr >= start && reg.Addr < end
}

// DecodeOffset returns reg's position within the ring, for a reg that
// Contains has already confirmed falls inside its span.
func (r *RegisterRing) DecodeOffset(reg Register) uint32 {
	return reg.Addr - r.Base
}

// RingOperand references one decoded offset within a RegisterRing.
// Equality is by ring identity and offset: two RingOperands agree iff
// they name the same window at the same position.
type RingOperand struct {
	Ring   *RegisterRing
	Offset uint32
}

func (RingOperand) isOperand() {}
func (r RingOperand) OperandString() string {
	return fmt.Sprintf("ring+%d", r.Offset)
}

// Global is a location written by one or more Instructions or
// Constants — an abstract register with multiple candidate producers.
// Equality is by identity: two distinct Globals are never equal even
// if their cases happen to coincide. Out is filled in by register
// allocation, once a single physical register has been picked to
// stand in for all of the Global's cases.
type Global struct {
	Name  string
	Cases []Operand
	Out   Operand
}

// NewGlobal creates a Global with the given candidate producers. A
// nil init is omitted; otherwise it's appended as a Constant case.
func NewGlobal(name string, init *uint32, cases ...Operand) *Global {
	g := &Global{Name: name, Cases: append([]Operand(nil), cases...)}
	if init != nil {
		g.Cases = append(g.Cases, Constant{Val: *init})
	}
	return g
}

// AddCase records another producer for g.
func (g *Global) AddCase(op Operand) {
	g.Cases = append(g.Cases, op)
}

// Deps returns the operands g's value may currently come from.
func (g *Global) Deps() []Operand { return g.Cases }

func (*Global) isOperand() {}
func (g *Global) OperandString() string {
	s := "one of "
	for i, c := range g.Cases {
		if i > 0 {
			s += "/"
		}
		s += c.OperandString()
	}
	return s
}

// Instruction is a definition site: an opcode, an optional output
// operand, and up to three input operands (a slot is nil when the
// opcode's operand sieve marks it absent). Equality is by identity.
type Instruction struct {
	Opcode isa.Opcode
	Out    Operand
	Ops    [3]Operand
}

// NewInstruction builds an Instruction with the given output and
// input operands. Absent slots are passed as nil.
func NewInstruction(opcode isa.Opcode, out Operand, ops [3]Operand) *Instruction {
	return &Instruction{Opcode: opcode, Out: out, Ops: ops}
}

// HasSideEffects reports whether the instruction's opcode is
// order-sensitive I/O.
func (i *Instruction) HasSideEffects() bool {
	return isa.IsSideEffecting(i.Opcode)
}

// Deps returns the instruction's present input operands.
func (i *Instruction) Deps() []Operand {
	var deps []Operand
	for _, op := range i.Ops {
		if op != nil {
			deps = append(deps, op)
		}
	}
	return deps
}

func (*Instruction) isOperand() {}
func (i *Instruction) OperandString() string {
	return fmt.Sprintf("<instr result: %s @ %p>", isa.Name(i.Opcode), i)
}

func (i *Instruction) String() string {
	operandStr := func(op Operand) string {
		if op == nil {
			return "--"
		}
		return op.OperandString()
	}
	s := isa.Name(i.Opcode) + " " + operandStr(i.Out)
	for _, op := range i.Ops {
		s += ", " + operandStr(op)
	}
	return s
}
