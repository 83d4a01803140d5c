package passes

import (
	"testing"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

func TestDeconstructRegRingsFoldsWindowedAccess(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)
	rout := &ir.Routine{Base: &base}
	ring := AddRegRing(rout, 1, 0x10, 4, 1)

	inst := ir.NewInstruction(isa.ADD, ir.Register{Bank: 1, Addr: 0x11}, [3]ir.Operand{
		ir.Register{Bank: 1, Addr: 0x10}, nil, nil,
	})
	rout.Instr = []*ir.Instruction{inst}
	prg.Routines = []*ir.Routine{rout}

	if err := DeconstructRegRings(prg); err != nil {
		t.Fatalf("DeconstructRegRings: %v", err)
	}

	op, ok := inst.Ops[0].(ir.RingOperand)
	if !ok {
		t.Fatalf("op0 = %T, want ir.RingOperand", inst.Ops[0])
	}
	if op.Ring != ring || op.Offset != 0 {
		t.Errorf("op0 = %+v, want offset 0 into ring", op)
	}

	out, ok := inst.Out.(ir.RingOperand)
	if !ok {
		t.Fatalf("out = %T, want ir.RingOperand", inst.Out)
	}
	if out.Ring != ring || out.Offset != 1 {
		t.Errorf("out = %+v, want offset 1 into ring", out)
	}
}

func TestDeconstructRegRingsRejectsWriteAfterRead(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)
	rout := &ir.Routine{Base: &base}
	AddRegRing(rout, 1, 0x10, 4, 1)

	write := ir.NewInstruction(isa.ADD, ir.Register{Bank: 1, Addr: 0x10}, [3]ir.Operand{nil, nil, nil})
	read := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{ir.Register{Bank: 1, Addr: 0x11}, nil, nil})
	rout.Instr = []*ir.Instruction{read, write}
	prg.Routines = []*ir.Routine{rout}

	if err := DeconstructRegRings(prg); err == nil {
		t.Error("a write to the ring after an earlier read should be rejected")
	}
}

func TestDeconstructRegRingsSkipsSpecials(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)
	rout := &ir.Routine{Base: &base}
	AddRegRing(rout, 1, 0x10, 4, 1)
	special := ir.Register{Bank: 1, Addr: 0x10}
	prg.RegisterSpecials[special] = true

	inst := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{special, nil, nil})
	rout.Instr = []*ir.Instruction{inst}
	prg.Routines = []*ir.Routine{rout}

	if err := DeconstructRegRings(prg); err != nil {
		t.Fatalf("DeconstructRegRings: %v", err)
	}
	if _, ok := inst.Ops[0].(ir.Register); !ok {
		t.Error("special register should not be folded into a ring")
	}
}

func TestDeconstructSimpleRegsSingleProducerDirect(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)
	rout := &ir.Routine{Base: &base}

	writer := ir.NewInstruction(isa.ADD, ir.Register{Bank: 1, Addr: 1}, [3]ir.Operand{nil, nil, nil})
	reader := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{ir.Register{Bank: 1, Addr: 1}, nil, nil})
	rout.Instr = []*ir.Instruction{writer, reader}
	prg.Routines = []*ir.Routine{rout}

	if err := DeconstructSimpleRegs(prg); err != nil {
		t.Fatalf("DeconstructSimpleRegs: %v", err)
	}
	if reader.Ops[0] != ir.Operand(writer) {
		t.Errorf("reader's operand = %v, want the writer instruction directly", reader.Ops[0])
	}
}

func TestDeconstructSimpleRegsMultiRoutineProducesGlobal(t *testing.T) {
	prg := ir.NewProgram()

	baseA := uint32(0)
	routA := &ir.Routine{Base: &baseA}
	writerA := ir.NewInstruction(isa.ADD, ir.Register{Bank: 1, Addr: 1}, [3]ir.Operand{nil, nil, nil})
	routA.Instr = []*ir.Instruction{writerA}

	baseB := uint32(0x10)
	routB := &ir.Routine{Base: &baseB}
	writerB := ir.NewInstruction(isa.SUB, ir.Register{Bank: 1, Addr: 1}, [3]ir.Operand{nil, nil, nil})
	reader := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{ir.Register{Bank: 1, Addr: 1}, nil, nil})
	routB.Instr = []*ir.Instruction{reader, writerB}

	prg.Routines = []*ir.Routine{routA, routB}

	if err := DeconstructSimpleRegs(prg); err != nil {
		t.Fatalf("DeconstructSimpleRegs: %v", err)
	}

	glob, ok := reader.Ops[0].(*ir.Global)
	if !ok {
		t.Fatalf("reader's operand = %T, want *ir.Global (written by two routines)", reader.Ops[0])
	}
	if len(glob.Cases) != 3 {
		t.Errorf("got %d cases, want 3 (Uninitialized plus one per routine's writer)", len(glob.Cases))
	}
}

func TestDeconstructSimpleRegsUninitializedRead(t *testing.T) {
	prg := ir.NewProgram()
	base := uint32(0)
	rout := &ir.Routine{Base: &base}
	reader := ir.NewInstruction(isa.ADD, nil, [3]ir.Operand{ir.Register{Bank: 1, Addr: 9}, nil, nil})
	rout.Instr = []*ir.Instruction{reader}
	prg.Routines = []*ir.Routine{rout}

	if err := DeconstructSimpleRegs(prg); err != nil {
		t.Fatalf("DeconstructSimpleRegs: %v", err)
	}
	if _, ok := reader.Ops[0].(ir.Uninitialized); !ok {
		t.Errorf("reading a never-written register should resolve to Uninitialized, got %T", reader.Ops[0])
	}
}
