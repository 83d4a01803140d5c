package passes

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

// Asm parses a textual routine dump back into a program, roughly
// inverting Dump. Each instruction line reads "OPCODE out, op1, op2, op3",
// all register operands, optionally prefixed with "pc: " the way a
// placed routine's dump addresses each line; a "# Routine" comment
// starts a fresh routine.
func Asm(prg *ir.Program, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	var rout *ir.Routine
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "# Routine") {
			rout = &ir.Routine{}
			prg.Routines = append(prg.Routines, rout)
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rout == nil {
			return fmt.Errorf("passes: asm: instruction line before any routine header: %q", line)
		}

		if idx := strings.Index(line, ":"); idx >= 0 {
			line = strings.TrimSpace(line[idx+1:])
		}

		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return fmt.Errorf("passes: asm: malformed instruction line: %q", line)
		}
		opcode, ok := isa.ByName(fields[0])
		if !ok {
			return fmt.Errorf("passes: asm: unknown opcode %q", fields[0])
		}

		operandStrs := strings.SplitN(fields[1], ",", 4)
		var parsed [4]ir.Operand
		for i, s := range operandStrs {
			reg, has, err := ir.ParseRegister(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("passes: asm: %w", err)
			}
			if has {
				parsed[i] = reg
			}
		}

		var ops [3]ir.Operand
		copy(ops[:], parsed[1:])
		rout.Instr = append(rout.Instr, ir.NewInstruction(opcode, parsed[0], ops))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("passes: asm: %w", err)
	}
	return nil
}
