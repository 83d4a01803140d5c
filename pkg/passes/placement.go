package passes

import (
	"fmt"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

// Constraint says endpoint must be placed strictly more than Offset
// slots after base.
type Constraint struct {
	Endpoint *ir.Instruction
	Base     *ir.Instruction
	Offset   int
	Cost     int
	Cause    string
}

// PlacementConstraints derives the ordering constraints a routine's
// instructions must satisfy: data dependencies (with a one-slot
// latency bubble after multiply-accumulate opcodes), global
// update-after-use, and side-effect source ordering.
func PlacementConstraints(rout *ir.Routine) []*Constraint {
	instrSet := make(map[*ir.Instruction]bool)
	for _, inst := range rout.Instr {
		if inst != nil {
			instrSet[inst] = true
		}
	}

	var constraints []*Constraint
	var sideEffects []*ir.Instruction

	for _, inst := range rout.Instr {
		if inst == nil {
			continue
		}
		for _, op := range inst.Ops {
			switch v := op.(type) {
			case *ir.Instruction:
				if instrSet[v] {
					spacing := 0
					if isa.HasLatencyBubble(v.Opcode) {
						spacing = 1
					}
					constraints = append(constraints, &Constraint{
						Endpoint: inst, Base: v, Offset: spacing, Cost: 1,
						Cause: "result-to-operand",
					})
				}
			case *ir.Global:
				for _, c := range v.Cases {
					if producer, ok := c.(*ir.Instruction); ok && instrSet[producer] {
						constraints = append(constraints, &Constraint{
							Endpoint: producer, Base: inst, Offset: -1, Cost: 0,
							Cause: "global update-after-use",
						})
					}
				}
			}
		}
		if inst.HasSideEffects() {
			if n := len(sideEffects); n > 0 {
				constraints = append(constraints, &Constraint{
					Endpoint: inst, Base: sideEffects[n-1], Offset: 0, Cost: 0,
					Cause: "side effect ordering",
				})
			}
			sideEffects = append(sideEffects, inst)
		}
	}

	return constraints
}

func indexOf(instr []*ir.Instruction, target *ir.Instruction) int {
	for i, inst := range instr {
		if inst == target {
			return i
		}
	}
	return -1
}

// CheckPlacement recomputes every constraint against rout's current
// slot order and reports the first one it finds violated.
func CheckPlacement(rout *ir.Routine) error {
	for _, c := range PlacementConstraints(rout) {
		baseIdx := indexOf(rout.Instr, c.Base)
		endpIdx := indexOf(rout.Instr, c.Endpoint)
		if endpIdx <= baseIdx+c.Offset {
			return fmt.Errorf("passes: placement constraint violated (%s): base@%x %s, endpoint@%x %s",
				c.Cause, baseIdx, c.Base, endpIdx, c.Endpoint)
		}
	}
	return nil
}

// PlaceRoutine reorders a deconstructed routine's instructions with a
// list scheduler: instructions become ready once every incoming
// constraint has been discharged by an already-placed instruction
// within its offset window, and a stall (nil slot) is emitted whenever
// nothing is ready yet.
func PlaceRoutine(rout *ir.Routine) error {
	all := append([]*ir.Instruction(nil), rout.Instr...)

	blockers := make(map[*ir.Instruction][]*Constraint, len(all))
	blocking := make(map[*ir.Instruction][]*Constraint, len(all))
	for _, inst := range all {
		blockers[inst] = nil
		blocking[inst] = nil
	}

	for _, c := range PlacementConstraints(rout) {
		blockers[c.Endpoint] = append(blockers[c.Endpoint], c)
		blocking[c.Base] = append(blocking[c.Base], c)
	}

	var ready []*ir.Instruction
	for _, inst := range all {
		if len(blockers[inst]) == 0 {
			ready = append(ready, inst)
		}
	}

	var placed []*ir.Instruction
	nplaced := 0
	for nplaced < len(all) {
		if len(placed) > 4*len(all)+16 {
			return fmt.Errorf("passes: placement failed to converge, likely a constraint cycle")
		}
		if n := len(ready); n > 0 {
			next := ready[n-1]
			ready = ready[:n-1]
			placed = append(placed, next)
			nplaced++
		} else {
			placed = append(placed, nil)
		}

		for back := 0; back <= 1 && back < len(placed); back++ {
			ioi := placed[len(placed)-1-back]
			if ioi == nil {
				continue
			}
			for _, c := range blocking[ioi] {
				if c.Offset > back || len(blockers[c.Endpoint]) == 0 {
					continue
				}
				blockers[c.Endpoint] = removeConstraint(blockers[c.Endpoint], c)
				if len(blockers[c.Endpoint]) == 0 {
					ready = append(ready, c.Endpoint)
				}
			}
		}
	}

	rout.Instr = placed
	return CheckPlacement(rout)
}

func removeConstraint(list []*Constraint, target *Constraint) []*Constraint {
	for i, c := range list {
		if c == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Place reorders every routine in the program.
func Place(prg *ir.Program) error {
	for _, rout := range prg.Routines {
		if err := PlaceRoutine(rout); err != nil {
			return err
		}
	}
	return nil
}
