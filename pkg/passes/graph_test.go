package passes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

func TestGraphEmitsRecordPerSelectedInstruction(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)
	inst := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{ir.Constant{Val: 3}, nil, nil})
	rout := &ir.Routine{Base: &base, Instr: []*ir.Instruction{inst}}
	prg.Routines = []*ir.Routine{rout}

	var buf bytes.Buffer
	if err := Graph(&buf, prg, nil); err != nil {
		t.Fatalf("Graph: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "digraph G {") {
		t.Errorf("missing digraph header:\n%s", out)
	}
	if !strings.Contains(out, "ADD") {
		t.Errorf("missing instruction record:\n%s", out)
	}
	if !strings.Contains(out, "0x3") {
		t.Errorf("missing constant operand label:\n%s", out)
	}
}

func TestGraphSkipsUnselectedAndOtherRoutines(t *testing.T) {
	prg := ir.NewProgram()
	base0, base1 := uint32(0), uint32(0x100)
	kept := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{ir.Constant{Val: 1}, nil, nil})
	skipped := ir.NewInstruction(isa.SUB, nil, [3]ir.Operand{ir.Constant{Val: 2}, nil, nil})
	rout0 := &ir.Routine{Base: &base0, Instr: []*ir.Instruction{kept, skipped}}
	rout0.Select(map[*ir.Instruction]bool{kept: true})
	rout1 := &ir.Routine{Base: &base1, Instr: []*ir.Instruction{
		ir.NewInstruction(isa.MultOpcode(0), nil, [3]ir.Operand{}),
	}}
	prg.Routines = []*ir.Routine{rout0, rout1}

	idx := 0
	var buf bytes.Buffer
	if err := Graph(&buf, prg, &idx); err != nil {
		t.Fatalf("Graph: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ADD") {
		t.Errorf("kept instruction missing:\n%s", out)
	}
	if strings.Contains(out, "SUB") {
		t.Errorf("unselected instruction should not appear:\n%s", out)
	}
	if strings.Contains(out, "MULT") {
		t.Errorf("other routine should not appear when routIdx is given:\n%s", out)
	}
}
