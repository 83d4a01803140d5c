package ir

import (
	"fmt"
	"io"
)

// Routine is one schedulable unit of instructions: a flat slot list
// addressed by PC offset, the ports it blocks on before and after
// running, and the register rings it owns.
//
// Instr may contain nil holes during placement; NOP insertion replaces
// them before emission. Selected, when non-nil, restricts the dumps
// (Dump, pseudocode, graph) to a subset of instructions; image
// emission ignores it. nil means "every instruction is selected".
type Routine struct {
	Base *uint32

	Instr []*Instruction

	WaitFullPorts  []uint32
	WaitEmptyPorts []uint32

	Rings []*RegisterRing

	Selected map[*Instruction]bool
}

// NewRoutine creates an empty routine waiting on the given ports.
func NewRoutine(waitFullPorts, waitEmptyPorts []uint32) *Routine {
	return &Routine{
		WaitFullPorts:  append([]uint32(nil), waitFullPorts...),
		WaitEmptyPorts: append([]uint32(nil), waitEmptyPorts...),
	}
}

// Append adds instructions to the end of the routine's slot list.
func (r *Routine) Append(instrs ...*Instruction) {
	r.Instr = append(r.Instr, instrs...)
}

// IsSelected reports whether inst should be considered live. With no
// Selected set, every instruction is live.
func (r *Routine) IsSelected(inst *Instruction) bool {
	if r.Selected == nil {
		return true
	}
	return r.Selected[inst]
}

// Select narrows the routine to exactly the given set of instructions.
func (r *Routine) Select(keep map[*Instruction]bool) {
	r.Selected = keep
}

// Unselect clears any selection, restoring "every instruction is live".
func (r *Routine) Unselect() {
	r.Selected = nil
}

// Dump writes one line per selected instruction, addressed by PC if
// the routine has been placed, or by offset otherwise.
func (r *Routine) Dump(w io.Writer) {
	for off, inst := range r.Instr {
		if inst == nil || !r.IsSelected(inst) {
			continue
		}
		if r.Base != nil {
			fmt.Fprintf(w, "%03x: %s\n", int(*r.Base)+off, inst)
		} else {
			fmt.Fprintf(w, "+%02x: %s\n", off, inst)
		}
	}
}
