package passes

import (
	"fmt"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/sat"
)

// RegallocIntermediate assigns a physical register to every instruction
// or global output that some other instruction reads as an operand. It
// derives the assignment from a SAT instance: each candidate output
// gets an existence clause (it must land in at least one of the three
// data banks), and every pair of candidates that co-feed the same
// consuming instruction gets a per-bank mutex clause, so two values
// read simultaneously never alias a bank.
//
// Known bug inherited from the allocator this is grounded on: an
// instruction that is both read directly (as an Instruction operand
// elsewhere) and folds into a Global read elsewhere can be assigned two
// different registers by the two routes that reach it, and
// whichever assignment ran last would win silently. RegallocIntermediate
// instead detects the conflict and reports it as an error.
func RegallocIntermediate(prg *ir.Program) error {
	for _, rout := range prg.Routines {
		if err := regallocIntermediateRoutine(prg, rout); err != nil {
			return err
		}
	}
	return nil
}

func regallocIntermediateRoutine(prg *ir.Program, rout *ir.Routine) error {
	var nodes []ir.Operand
	nodeIndex := make(map[ir.Operand]int)
	addNode := func(n ir.Operand) {
		if _, ok := nodeIndex[n]; !ok {
			nodeIndex[n] = len(nodes)
			nodes = append(nodes, n)
		}
	}

	type edgeKey struct{ a, b int }
	edges := make(map[edgeKey]bool)

	for _, inst := range rout.Instr {
		if inst == nil {
			continue
		}
		var deps []ir.Operand
		for _, op := range inst.Ops {
			switch op.(type) {
			case *ir.Instruction, *ir.Global:
				deps = append(deps, op)
				addNode(op)
			}
		}
		for i := 0; i < len(deps); i++ {
			for j := i + 1; j < len(deps); j++ {
				if deps[i] == deps[j] {
					continue
				}
				ia, ib := nodeIndex[deps[i]], nodeIndex[deps[j]]
				if ia > ib {
					ia, ib = ib, ia
				}
				edges[edgeKey{ia, ib}] = true
			}
		}
	}

	if len(nodes) == 0 {
		return nil
	}

	bankVar := make([][3]int, len(nodes))
	for i := range nodes {
		base := 3*i + 1
		bankVar[i] = [3]int{base, base + 1, base + 2}
	}
	nvars := 3 * len(nodes)

	var clauses [][]int
	for _, bv := range bankVar {
		clauses = append(clauses, []int{bv[0], bv[1], bv[2]})
	}
	for e := range edges {
		av, bv := bankVar[e.a], bankVar[e.b]
		for bank := 0; bank < 3; bank++ {
			clauses = append(clauses, []int{-av[bank], -bv[bank]})
		}
	}

	sol, err := sat.Solve(clauses, nvars)
	if err != nil {
		return fmt.Errorf("passes: regalloc_intermediate: couldn't solve for bank assignment: %w", err)
	}

	allocators := make(map[uint8]*ir.SequentialAllocator, 3)
	for bank := uint8(1); bank <= 3; bank++ {
		allocators[bank] = ir.NewSequentialAllocator(bank, prg.RegisterAllocated)
	}

	assignedInstr := make(map[*ir.Instruction]ir.Register)
	setInstrOut := func(inst *ir.Instruction, reg ir.Register) error {
		if prev, ok := assignedInstr[inst]; ok && prev != reg {
			return fmt.Errorf("passes: regalloc_intermediate: instruction %s is read both directly and through a global, with conflicting register assignments %s and %s", inst, prev, reg)
		}
		assignedInstr[inst] = reg
		inst.Out = reg
		return nil
	}

	for i, n := range nodes {
		bv := bankVar[i]
		bank := uint8(0)
		found := false
		for k, v := range bv {
			if sol[v] {
				bank = uint8(k + 1)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("passes: regalloc_intermediate: SAT solution left a node without a bank")
		}
		reg := allocators[bank].Next()
		prg.RegisterAllocated[reg] = true

		switch v := n.(type) {
		case *ir.Instruction:
			if err := setInstrOut(v, reg); err != nil {
				return err
			}
		case *ir.Global:
			v.Out = reg
			for _, c := range v.Cases {
				switch cv := c.(type) {
				case *ir.Instruction:
					if err := setInstrOut(cv, reg); err != nil {
						return err
					}
				case ir.Constant:
					prg.RegisterInits[reg] = cv.Val
				}
			}
		}
	}

	return nil
}

// RegallocConst assigns a register to every Constant operand still
// present in a routine's instructions, picking a data bank not already
// occupied by one of that instruction's other register operands and
// seeding the chosen register's value into the program's register
// inits.
func RegallocConst(prg *ir.Program) error {
	for _, rout := range prg.Routines {
		if err := regallocConstRoutine(prg, rout); err != nil {
			return err
		}
	}
	return nil
}

func regallocConstRoutine(prg *ir.Program, rout *ir.Routine) error {
	allocators := make(map[uint8]*ir.SequentialAllocator, 3)
	for bank := uint8(1); bank <= 3; bank++ {
		allocators[bank] = ir.NewSequentialAllocator(bank, prg.RegisterAllocated)
	}

	for _, inst := range rout.Instr {
		if inst == nil {
			continue
		}

		freeBanks := []uint8{1, 2, 3}
		removeBank := func(bank uint8) {
			for i, b := range freeBanks {
				if b == bank {
					freeBanks = append(freeBanks[:i], freeBanks[i+1:]...)
					return
				}
			}
		}
		for _, op := range inst.Ops {
			if reg, ok := op.(ir.Register); ok {
				removeBank(reg.Bank)
			}
		}

		for i, op := range inst.Ops {
			c, ok := op.(ir.Constant)
			if !ok {
				continue
			}
			if len(freeBanks) == 0 {
				return fmt.Errorf("passes: regalloc_const: instruction %s has no free bank left for a constant operand", inst)
			}
			bank := freeBanks[len(freeBanks)-1]
			freeBanks = freeBanks[:len(freeBanks)-1]
			reg := allocators[bank].Next()
			prg.RegisterInits[reg] = c.Val
			inst.Ops[i] = reg
			prg.RegisterAllocated[reg] = true
		}
	}
	return nil
}
