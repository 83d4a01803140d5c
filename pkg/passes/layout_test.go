package passes

import (
	"testing"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

func TestSetNopsFillsHoles(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)
	inst := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{nil, nil, nil})
	rout := &ir.Routine{Base: &base, Instr: []*ir.Instruction{inst, nil, nil}}
	prg.Routines = []*ir.Routine{rout}

	if err := SetNops(prg); err != nil {
		t.Fatalf("SetNops: %v", err)
	}
	for i, inst := range rout.Instr {
		if inst == nil {
			t.Errorf("slot %d still nil after SetNops", i)
		}
	}
	if rout.Instr[1].Opcode != isa.AND {
		t.Errorf("NOP opcode = %s, want AND", isa.Name(rout.Instr[1].Opcode))
	}
}

func TestPropagateOutsRewritesToRegister(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)

	producer := ir.NewInstruction(isa.ADD, ir.Register{Bank: 1, Addr: 4}, [3]ir.Operand{nil, nil, nil})
	consumer := ir.NewInstruction(isa.SUB, nil, [3]ir.Operand{producer, nil, nil})
	rout := &ir.Routine{Base: &base, Instr: []*ir.Instruction{producer, consumer}}
	prg.Routines = []*ir.Routine{rout}

	if err := PropagateOuts(prg); err != nil {
		t.Fatalf("PropagateOuts: %v", err)
	}
	if got, ok := consumer.Ops[0].(ir.Register); !ok || got != (ir.Register{Bank: 1, Addr: 4}) {
		t.Errorf("consumer.Ops[0] = %v, want the producer's register", consumer.Ops[0])
	}
}

func TestPropagateOutsLeavesUnassignedAlone(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)

	producer := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{nil, nil, nil})
	consumer := ir.NewInstruction(isa.SUB, nil, [3]ir.Operand{producer, nil, nil})
	rout := &ir.Routine{Base: &base, Instr: []*ir.Instruction{producer, consumer}}
	prg.Routines = []*ir.Routine{rout}

	if err := PropagateOuts(prg); err != nil {
		t.Fatalf("PropagateOuts: %v", err)
	}
	if consumer.Ops[0] != ir.Operand(producer) {
		t.Errorf("consumer.Ops[0] = %v, want the producer instruction unchanged", consumer.Ops[0])
	}
}

func TestArrangeRoutinesLeavesGap(t *testing.T) {
	prg := ir.NewProgram()
	rout0 := &ir.Routine{Instr: make([]*ir.Instruction, 3)}
	rout1 := &ir.Routine{Instr: make([]*ir.Instruction, 2)}
	prg.Routines = []*ir.Routine{rout0, rout1}

	if err := ArrangeRoutines(prg); err != nil {
		t.Fatalf("ArrangeRoutines: %v", err)
	}
	if *rout0.Base != 0 {
		t.Errorf("rout0.Base = %#x, want 0", *rout0.Base)
	}
	if *rout1.Base != 4 {
		t.Errorf("rout1.Base = %#x, want 4 (3 slots + 1 gap)", *rout1.Base)
	}
}
