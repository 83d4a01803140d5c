package passes

import (
	"fmt"
	"os"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

// SetNops fills every unfilled slot a placed routine left behind with
// a dummy AND instruction, so the routine is dense enough to emit.
func SetNops(prg *ir.Program) error {
	nnops := 0
	for _, rout := range prg.Routines {
		for i, inst := range rout.Instr {
			if inst != nil {
				continue
			}
			rout.Instr[i] = ir.NewInstruction(isa.AND, nil, [3]ir.Operand{})
			nnops++
		}
	}
	fmt.Fprintf(os.Stderr, "Set %d NOPs.\n", nnops)
	return nil
}

// PropagateOuts rewrites instruction operands that still point at an
// Instruction or Global result into the physical register register
// allocation assigned that result, once one has been assigned.
func PropagateOuts(prg *ir.Program) error {
	for _, rout := range prg.Routines {
		for _, inst := range rout.Instr {
			if inst == nil {
				continue
			}
			for i, op := range inst.Ops {
				var out ir.Operand
				switch v := op.(type) {
				case *ir.Instruction:
					out = v.Out
				case *ir.Global:
					out = v.Out
				default:
					continue
				}
				if out == nil {
					continue
				}
				inst.Ops[i] = out
			}
		}
	}
	return nil
}

// ArrangeRoutines assigns PC bases to every routine in program order,
// leaving a one-slot gap between routines.
func ArrangeRoutines(prg *ir.Program) error {
	base := uint32(0)
	for _, rout := range prg.Routines {
		b := base
		rout.Base = &b
		base += uint32(len(rout.Instr)) + 1
	}
	return nil
}
