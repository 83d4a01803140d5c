// Package dsl is the front-end builder surface: a Go caller constructs
// a Program by opening routines and calling one method per opcode,
// exactly the shape leaptools.dsl.Builder gives a Python caller, minus
// the dynamic dispatch Go doesn't have.
package dsl

import (
	"fmt"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

// Builder accumulates routines and instructions into a Program.
type Builder struct {
	Program *ir.Program

	currentRoutine *ir.Routine
	NRoutines      int
	NInstr         int
}

// New returns a Builder that appends to prg.
func New(prg *ir.Program) *Builder {
	return &Builder{Program: prg}
}

// Routine opens a routine scoped to the call to fn: every opcode call
// made inside fn is appended to this routine. This is the Go rendering
// of the Python builder's `with b.Routine(...):` context manager.
func (b *Builder) Routine(waitFullPorts, waitEmptyPorts []uint32, fn func()) *ir.Routine {
	r := ir.NewRoutine(waitFullPorts, waitEmptyPorts)
	b.Program.Routines = append(b.Program.Routines, r)
	b.NRoutines++

	prev := b.currentRoutine
	b.currentRoutine = r
	fn()
	b.currentRoutine = prev

	return r
}

// Special pins reg outside of allocation and deconstruction.
func (b *Builder) Special(reg ir.Register) {
	b.Program.RegisterSpecials[reg] = true
}

// Global creates a fresh abstract location with the given initial
// cases. A nil init omits the implicit constant case.
func (b *Builder) Global(name string, init *uint32, cases ...ir.Operand) *ir.Global {
	return ir.NewGlobal(name, init, cases...)
}

// Update records a new producer for glob. By convention the value is
// wrapped in an identity OR so later passes treat it as a definition
// site like any other instruction.
func (b *Builder) Update(glob *ir.Global, val interface{}) (*ir.Instruction, error) {
	assim, err := assimilate(val)
	if err != nil {
		return nil, err
	}
	inst, err := b.emit(isa.OR, assim, assim)
	if err != nil {
		return nil, err
	}
	glob.AddCase(inst)
	return inst, nil
}

// assimilate wraps a raw Go value into an Operand: pass Operands
// through, wrap float32/float64 via the big-endian float encoding, and
// wrap integers as plain Constants.
func assimilate(val interface{}) (ir.Operand, error) {
	switch v := val.(type) {
	case ir.Operand:
		return v, nil
	case float32:
		return ir.ConstantFromFloat(v), nil
	case float64:
		return ir.ConstantFromFloat(float32(v)), nil
	case int:
		return ir.Constant{Val: uint32(v)}, nil
	case int32:
		return ir.Constant{Val: uint32(v)}, nil
	case uint32:
		return ir.Constant{Val: v}, nil
	case uint:
		return ir.Constant{Val: uint32(v)}, nil
	default:
		return nil, fmt.Errorf("dsl: cannot use %T as an operand", val)
	}
}

// emit appends one Instruction to the current routine, applying op's
// operand sieve to the caller-supplied positional arguments.
func (b *Builder) emit(op isa.Opcode, args ...interface{}) (*ir.Instruction, error) {
	if b.currentRoutine == nil {
		return nil, fmt.Errorf("dsl: %s called outside a Routine scope", isa.Name(op))
	}

	ops := make([]ir.Operand, len(args))
	for i, a := range args {
		assim, err := assimilate(a)
		if err != nil {
			return nil, fmt.Errorf("dsl: operand %d to %s: %w", i, isa.Name(op), err)
		}
		ops[i] = assim
	}

	var slots [3]ir.Operand
	if sieve, explicit := isa.SieveExplicit(op); explicit {
		next := 0
		for i, alive := range sieve {
			if !alive {
				continue
			}
			if next >= len(ops) {
				return nil, fmt.Errorf("dsl: %s needs %d operand(s), got %d", isa.Name(op), next+1, len(ops))
			}
			slots[i] = ops[next]
			next++
		}
		if next != len(ops) {
			return nil, fmt.Errorf("dsl: %s takes %d operand(s), got %d", isa.Name(op), next, len(ops))
		}
	} else {
		// No sieve: arguments fill slots in order, trailing slots left
		// nil, the way Instruction's positional defaults behave.
		if len(ops) > 3 {
			return nil, fmt.Errorf("dsl: %s takes at most 3 operand(s), got %d", isa.Name(op), len(ops))
		}
		copy(slots[:], ops)
	}

	inst := ir.NewInstruction(op, nil, slots)
	b.currentRoutine.Append(inst)
	b.NInstr++
	return inst, nil
}

// Call emits the named opcode with the given operands, for callers
// that have an opcode name as data (e.g. a future text-based front
// end) rather than a call site that can name the generated method.
func (b *Builder) Call(name string, args ...interface{}) (*ir.Instruction, error) {
	op, ok := isa.ByName(name)
	if !ok {
		return nil, fmt.Errorf("dsl: unknown opcode %q", name)
	}
	return b.emit(op, args...)
}
