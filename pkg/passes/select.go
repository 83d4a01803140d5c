package passes

import (
	"fmt"
	"os"

	"github.com/povik/leap-firmware/pkg/ir"
)

func routineAt(prg *ir.Program, idx int) (*ir.Routine, error) {
	if idx < 0 || idx >= len(prg.Routines) {
		return nil, fmt.Errorf("passes: routine index %d out of range (have %d routines)", idx, len(prg.Routines))
	}
	return prg.Routines[idx], nil
}

// Select narrows a deconstructed routine's dump view down to
// one instruction and everything it transitively depends on. It only
// makes sense once register operands have been abstracted away by
// Deconstruct; any register operand still standing on a reachable
// instruction is reported to stderr as a warning.
func Select(prg *ir.Program, routIdx, instrPos int) error {
	rout, err := routineAt(prg, routIdx)
	if err != nil {
		return err
	}
	if instrPos < 0 || instrPos >= len(rout.Instr) {
		return fmt.Errorf("passes: instruction index %d out of range (routine has %d slots)", instrPos, len(rout.Instr))
	}

	visited := make(map[ir.Operand]bool)
	queue := []ir.Operand{rout.Instr[instrPos]}
	for len(queue) > 0 {
		n := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if n == nil || visited[n] {
			continue
		}
		visited[n] = true

		var deps []ir.Operand
		switch v := n.(type) {
		case *ir.Instruction:
			for _, op := range v.Ops {
				if _, ok := op.(ir.Register); ok {
					fmt.Fprintf(os.Stderr, "WARNING: non-deconstructed instruction: %s\n", v)
					break
				}
			}
			deps = v.Deps()
		case *ir.Global:
			deps = v.Deps()
		}
		queue = append(queue, deps...)
	}

	keep := make(map[*ir.Instruction]bool, len(visited))
	for n := range visited {
		if inst, ok := n.(*ir.Instruction); ok {
			keep[inst] = true
		}
	}
	rout.Select(keep)
	return nil
}

// SelectNone empties a routine's selection, so nothing in it dumps.
func SelectNone(prg *ir.Program, routIdx int) error {
	rout, err := routineAt(prg, routIdx)
	if err != nil {
		return err
	}
	rout.Select(map[*ir.Instruction]bool{})
	return nil
}

// Unselect clears a prior selection, restoring the default of
// everything being live. routIdx nil clears every routine.
func Unselect(prg *ir.Program, routIdx *int) error {
	if routIdx == nil {
		for _, rout := range prg.Routines {
			rout.Unselect()
		}
		return nil
	}
	rout, err := routineAt(prg, *routIdx)
	if err != nil {
		return err
	}
	rout.Unselect()
	return nil
}

// ClearOuts clears every instruction's output register allocation,
// putting the owning Global back in its place where one exists. This
// undoes RegallocIntermediate so a deconstructed program can be
// re-allocated from scratch.
func ClearOuts(prg *ir.Program) error {
	globalWriters := make(map[*ir.Instruction]*ir.Global)
	for _, rout := range prg.Routines {
		for _, inst := range rout.Instr {
			if inst == nil {
				continue
			}
			for _, op := range inst.Ops {
				glob, ok := op.(*ir.Global)
				if !ok {
					continue
				}
				for _, c := range glob.Cases {
					if producer, ok := c.(*ir.Instruction); ok {
						globalWriters[producer] = glob
					}
				}
			}
		}
	}

	for _, rout := range prg.Routines {
		for _, inst := range rout.Instr {
			if inst == nil {
				continue
			}
			if _, ok := inst.Out.(ir.RingOperand); ok {
				continue
			}
			if g, ok := globalWriters[inst]; ok {
				inst.Out = g
			} else {
				inst.Out = nil
			}
		}
	}
	return nil
}

// WipeInits clears every register initialization the program carries.
func WipeInits(prg *ir.Program) error {
	prg.RegisterInits = map[ir.Register]uint32{}
	return nil
}
