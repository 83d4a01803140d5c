package passes

import (
	"fmt"

	"github.com/povik/leap-firmware/pkg/ir"
)

// AddRegRing declares a new register ring over rout's register space,
// so a later DeconstructRegRings pass can fold addressing into it
// windowed accesses instead of bare register offsets.
func AddRegRing(rout *ir.Routine, bank uint8, base, depth, width uint32) *ir.RegisterRing {
	ring := &ir.RegisterRing{Bank: bank, Base: base, Depth: depth, Width: width}
	rout.Rings = append(rout.Rings, ring)
	return ring
}

// DeconstructRegRings rewrites register operands that fall within one
// of a routine's declared rings into a RingOperand, undoing the
// flattening of a circular register window into discrete addresses.
// Registers marked special are left alone — they're not abstracted
// away by any deconstruction pass. A write to a ring that an earlier
// instruction of the same routine read is rejected.
func DeconstructRegRings(prg *ir.Program) error {
	for _, rout := range prg.Routines {
		read := make(map[*ir.RegisterRing]bool)
		var readNow []*ir.RegisterRing

		for _, inst := range rout.Instr {
			if inst == nil {
				continue
			}
			for _, ring := range readNow {
				read[ring] = true
			}
			readNow = readNow[:0]

			for i, op := range inst.Ops {
				reg, ok := op.(ir.Register)
				if !ok || prg.RegisterSpecials[reg] {
					continue
				}
				for _, ring := range rout.Rings {
					if !ring.Contains(reg) {
						continue
					}
					inst.Ops[i] = ir.RingOperand{Ring: ring, Offset: ring.DecodeOffset(reg)}
					readNow = append(readNow, ring)
				}
			}

			outReg, ok := inst.Out.(ir.Register)
			if !ok || prg.RegisterSpecials[outReg] {
				continue
			}
			for _, ring := range rout.Rings {
				if !ring.Contains(outReg) {
					continue
				}
				if read[ring] {
					return fmt.Errorf("passes: deconstruct_regrings: writes-after-reads on the same register ring from one routine are not supported")
				}
				inst.Out = ir.RingOperand{Ring: ring, Offset: ring.DecodeOffset(outReg)}
			}
		}
	}
	return nil
}

// DeconstructSimpleRegs walks the program and rewrites instruction
// operands to point at the instructions (or, for a register written by
// more than one routine, a Global spanning all of them) that produced
// their values — reverting the collapse register allocation performs
// when it maps many abstract values onto one physical register.
func DeconstructSimpleRegs(prg *ir.Program) error {
	finalSetters := make(map[ir.Register][]ir.Operand)
	for reg, val := range prg.RegisterInits {
		finalSetters[reg] = []ir.Operand{ir.Constant{Val: val}}
	}

	for _, rout := range prg.Routines {
		routFinal := make(map[ir.Register]*ir.Instruction)
		for _, inst := range rout.Instr {
			if inst == nil {
				continue
			}
			reg, ok := inst.Out.(ir.Register)
			if !ok {
				continue
			}
			routFinal[reg] = inst
		}
		for reg, inst := range routFinal {
			if _, ok := finalSetters[reg]; !ok {
				finalSetters[reg] = []ir.Operand{ir.Uninitialized{}}
			}
			finalSetters[reg] = append(finalSetters[reg], inst)
		}
	}

	resolved := make(map[ir.Register]ir.Operand, len(finalSetters))
	for reg, cases := range finalSetters {
		if len(cases) > 1 {
			resolved[reg] = ir.NewGlobal(reg.String(), nil, cases...)
		} else {
			resolved[reg] = cases[0]
		}
	}

	for _, rout := range prg.Routines {
		state := make(map[ir.Register]ir.Operand)
		for _, inst := range rout.Instr {
			if inst == nil {
				continue
			}
			for i, op := range inst.Ops {
				reg, ok := op.(ir.Register)
				if !ok || prg.RegisterSpecials[reg] {
					continue
				}
				newop, ok := state[reg]
				if !ok {
					newop, ok = resolved[reg]
					if !ok {
						newop = ir.Uninitialized{}
						resolved[reg] = newop
					}
				}
				inst.Ops[i] = newop
			}
			if reg, ok := inst.Out.(ir.Register); ok {
				state[reg] = inst
			}
		}
	}

	return nil
}

// Deconstruct runs the full register-abstraction sequence: rings
// first, then the remaining simple registers.
func Deconstruct(prg *ir.Program) error {
	if err := DeconstructRegRings(prg); err != nil {
		return err
	}
	return DeconstructSimpleRegs(prg)
}
