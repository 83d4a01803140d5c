package driver

import (
	"fmt"
	"os"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/passes"
)

func routineAt(prg *ir.Program, idx int) (*ir.Routine, error) {
	if idx < 0 || idx >= len(prg.Routines) {
		return nil, fmt.Errorf("driver: routine index %d out of range (have %d routines)", idx, len(prg.Routines))
	}
	return prg.Routines[idx], nil
}

func wantArgs(name string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("driver: %s expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

// Default returns the registry wired up with the pass catalog a
// compiler invocation expects: register-space bookkeeping,
// deconstruction, selection, placement, register allocation, layout
// and image emission. load_dsl and the end-to-end compile_dsl
// convenience pass aren't registered — the DSL's script host language
// is a front-end concern this package doesn't implement.
func Default() *Registry {
	reg := NewRegistry()

	reg.Register("special_reg",
		"Mark a register as special so deconstruction passes leave it alone.\n\nUsage: special_reg REGNAME",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("special_reg", args, 1); err != nil {
				return err
			}
			r, ok, err := ir.ParseRegister(args[0])
			if err != nil {
				return err
			}
			if ok {
				prg.RegisterSpecials[r] = true
			}
			return nil
		})

	reg.Register("dump", "Dump the program and all its routines.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("dump", args, 0); err != nil {
				return err
			}
			return passes.Dump(prg)
		})

	reg.Register("dump_py",
		"Dump the program as readable pseudocode expressions instead of raw operand triples.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("dump_py", args, 0); err != nil {
				return err
			}
			return passes.Pseudocode(os.Stderr, prg)
		})

	reg.Register("graph",
		"Dump a Graphviz representation of the program.\n\nUsage: graph [ROUTINE_INDEX]",
		func(prg *ir.Program, args []string) error {
			var routIdx *int
			if len(args) == 1 {
				idx, err := ParseInt(args[0])
				if err != nil {
					return err
				}
				routIdx = &idx
			} else if len(args) != 0 {
				return wantArgs("graph", args, 1)
			}
			return passes.Graph(os.Stdout, prg, routIdx)
		})

	reg.Register("deconstruct_regrings",
		"Replace register references with register ring references where applicable.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("deconstruct_regrings", args, 0); err != nil {
				return err
			}
			return passes.DeconstructRegRings(prg)
		})

	reg.Register("deconstruct_simpleregs",
		"Rewrite operands to point at producing instructions instead of the registers allocation collapsed them onto.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("deconstruct_simpleregs", args, 0); err != nil {
				return err
			}
			return passes.DeconstructSimpleRegs(prg)
		})

	reg.Register("add_regring",
		"Declare a register ring over a routine's register space.\n\nUsage: add_regring ROUTINE_INDEX BASE_REG DEPTH WIDTH",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("add_regring", args, 4); err != nil {
				return err
			}
			routIdx, err := ParseInt(args[0])
			if err != nil {
				return err
			}
			rout, err := routineAt(prg, routIdx)
			if err != nil {
				return err
			}
			baseReg, ok, err := ir.ParseRegister(args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("driver: add_regring: %q is not a register", args[1])
			}
			depth, err := ParseInt(args[2])
			if err != nil {
				return err
			}
			width, err := ParseInt(args[3])
			if err != nil {
				return err
			}
			passes.AddRegRing(rout, baseReg.Bank, baseReg.Addr, uint32(depth), uint32(width))
			return nil
		})

	reg.Register("deconstruct", "Run deconstruct_regrings then deconstruct_simpleregs.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("deconstruct", args, 0); err != nil {
				return err
			}
			return passes.Deconstruct(prg)
		})

	reg.Register("select",
		"Select an instruction and its prerequisites within a deconstructed routine.\n\nUsage: select ROUTINE_INDEX INSTRUCTION_INDEX",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("select", args, 2); err != nil {
				return err
			}
			routIdx, err := ParseInt(args[0])
			if err != nil {
				return err
			}
			instrPos, err := ParseInt(args[1])
			if err != nil {
				return err
			}
			return passes.Select(prg, routIdx, instrPos)
		})

	reg.Register("select_none", "Empty a routine's selection.\n\nUsage: select_none ROUTINE_INDEX",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("select_none", args, 1); err != nil {
				return err
			}
			routIdx, err := ParseInt(args[0])
			if err != nil {
				return err
			}
			return passes.SelectNone(prg, routIdx)
		})

	reg.Register("unselect",
		"Clear any prior selection.\n\nUsage: unselect [ROUTINE_INDEX]",
		func(prg *ir.Program, args []string) error {
			if len(args) == 0 {
				return passes.Unselect(prg, nil)
			}
			if err := wantArgs("unselect", args, 1); err != nil {
				return err
			}
			routIdx, err := ParseInt(args[0])
			if err != nil {
				return err
			}
			return passes.Unselect(prg, &routIdx)
		})

	reg.Register("clear_outs",
		"Clear instruction output register allocations, restoring owning globals where applicable.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("clear_outs", args, 0); err != nil {
				return err
			}
			return passes.ClearOuts(prg)
		})

	reg.Register("wipe_inits", "Wipe any register initializations.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("wipe_inits", args, 0); err != nil {
				return err
			}
			return passes.WipeInits(prg)
		})

	reg.Register("check_placement",
		"Verify a routine's current instruction order satisfies every placement constraint.\n\nUsage: check_placement ROUTINE_INDEX",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("check_placement", args, 1); err != nil {
				return err
			}
			routIdx, err := ParseInt(args[0])
			if err != nil {
				return err
			}
			rout, err := routineAt(prg, routIdx)
			if err != nil {
				return err
			}
			return passes.CheckPlacement(rout)
		})

	reg.Register("place_routine",
		"Reorder one routine's instructions with the list scheduler.\n\nUsage: place_routine ROUTINE_INDEX",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("place_routine", args, 1); err != nil {
				return err
			}
			routIdx, err := ParseInt(args[0])
			if err != nil {
				return err
			}
			rout, err := routineAt(prg, routIdx)
			if err != nil {
				return err
			}
			return passes.PlaceRoutine(rout)
		})

	reg.Register("place", "Reorder every routine in the program with the list scheduler.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("place", args, 0); err != nil {
				return err
			}
			return passes.Place(prg)
		})

	reg.Register("regalloc_intermediate",
		"Allocate instructions' register outputs via SAT-derived bank assignment.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("regalloc_intermediate", args, 0); err != nil {
				return err
			}
			return passes.RegallocIntermediate(prg)
		})

	reg.Register("regalloc_const", "Allocate registers for constant operands.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("regalloc_const", args, 0); err != nil {
				return err
			}
			return passes.RegallocConst(prg)
		})

	reg.Register("set_nops", "Fill empty instruction slots with a dummy AND.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("set_nops", args, 0); err != nil {
				return err
			}
			return passes.SetNops(prg)
		})

	reg.Register("propagate_outs",
		"Rewrite instruction/global operand references into their assigned output registers.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("propagate_outs", args, 0); err != nil {
				return err
			}
			return passes.PropagateOuts(prg)
		})

	reg.Register("arrange_routines", "Assign program-counter bases to every routine.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("arrange_routines", args, 0); err != nil {
				return err
			}
			return passes.ArrangeRoutines(prg)
		})

	reg.Register("image", "Build a program image and write it to standard output.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("image", args, 0); err != nil {
				return err
			}
			return passes.Image(prg)
		})

	reg.Register("image_hexdump", "Build a program image and print a hexdump of it.",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("image_hexdump", args, 0); err != nil {
				return err
			}
			return passes.ImageHexdump(prg)
		})

	reg.Register("asm",
		"Parse a textual routine dump from a file, appending its routines to the program.\n\nUsage: asm FILENAME",
		func(prg *ir.Program, args []string) error {
			if err := wantArgs("asm", args, 1); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("driver: asm: %w", err)
			}
			defer f.Close()
			return passes.Asm(prg, f)
		})

	return reg
}
