package passes

import (
	"fmt"
	"io"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

// Graph writes a Graphviz rendering of a program's (or, with
// routIdx non-nil, a single routine's) dataflow: one record node per
// selected instruction, wired to the operands that feed it.
func Graph(w io.Writer, prg *ir.Program, routIdx *int) error {
	fmt.Fprintln(w, "digraph G {")
	fmt.Fprintln(w, `rankdir="LR";`)
	fmt.Fprintln(w, "remincross=true;")

	drawnGlobals := map[*ir.Global]bool{}
	for i, rout := range prg.Routines {
		if routIdx != nil && i != *routIdx {
			continue
		}
		fmt.Fprintf(w, "subgraph cluster_%p {\n", rout)
		for _, inst := range rout.Instr {
			if inst == nil || !rout.IsSelected(inst) {
				continue
			}
			fmt.Fprintf(w, "\tinst%p [shape=record label=\"{{<op1>OP1|<op2>OP2|<op3>OP3}|{%s}|<res>OUT}\"];\n",
				inst, isa.Name(inst.Opcode))
			for slot, op := range inst.Ops {
				writeGraphEdge(w, inst, slot, op, isa.IsFloat(inst.Opcode), drawnGlobals)
			}
		}
		fmt.Fprintln(w, "}")
	}
	fmt.Fprintln(w, "}")
	return nil
}

func writeGraphEdge(w io.Writer, inst *ir.Instruction, slot int, op ir.Operand, isFloat bool, drawnGlobals map[*ir.Global]bool) {
	switch v := op.(type) {
	case nil, ir.BadOperand:
		return
	case *ir.Instruction:
		fmt.Fprintf(w, "\tinst%p:res -> inst%p:op%d;\n", v, inst, slot+1)
	case ir.Constant:
		fmt.Fprintf(w, "\tinst%pconst%d [label=\"%s\" shape=cds];\n", inst, slot, formatConstLabel(v, isFloat))
		fmt.Fprintf(w, "\tinst%pconst%d -> inst%p:op%d;\n", inst, slot, inst, slot+1)
	case ir.Uninitialized:
		fmt.Fprintf(w, "\tuninit%p [label=\"uninitialized\" color=gray shape=cds];\n", inst)
		fmt.Fprintf(w, "\tuninit%p -> inst%p:op%d;\n", inst, inst, slot+1)
	case ir.Register:
		fmt.Fprintf(w, "\treg_%s [shape=Mdiamond label=\"%s\"];\n", v, v)
		fmt.Fprintf(w, "\treg_%s -> inst%p:op%d;\n", v, inst, slot+1)
	case *ir.Global:
		fmt.Fprintf(w, "\tglobal%p -> inst%p:op%d;\n", v, inst, slot+1)
		if drawnGlobals[v] {
			return
		}
		drawnGlobals[v] = true
		fmt.Fprintf(w, "\tglobal%p [shape=diamond label=\"\"];\n", v)
		for _, c := range v.Cases {
			switch cv := c.(type) {
			case *ir.Instruction:
				fmt.Fprintf(w, "\tinst%p:res -> global%p;\n", cv, v)
			case ir.Constant:
				fmt.Fprintf(w, "\tglobal%pconst%p [label=\"%s\" shape=cds];\n", v, &cv, formatConstLabel(cv, isFloat))
				fmt.Fprintf(w, "\tglobal%pconst%p -> global%p;\n", v, &cv, v)
			case ir.Uninitialized:
				fmt.Fprintf(w, "\tuninit%p [label=\"uninitialized\" color=gray shape=cds];\n", v)
				fmt.Fprintf(w, "\tuninit%p -> global%p;\n", v, v)
			}
		}
	}
}

func formatConstLabel(c ir.Constant, isFloat bool) string {
	if isFloat {
		return fmt.Sprintf("%.5E", c.Float())
	}
	return fmt.Sprintf("0x%x", c.Val)
}
