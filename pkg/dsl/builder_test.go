package dsl

import (
	"testing"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

func TestRoutineScopeAppendsInstructions(t *testing.T) {
	prg := ir.NewProgram()
	b := New(prg)

	var sample *ir.Instruction
	b.Routine([]uint32{0x26}, []uint32{0x61}, func() {
		taken, err := b.TAKE(uint32(0x26 << 24))
		if err != nil {
			t.Fatalf("TAKE: %v", err)
		}
		sample = taken
	})

	if len(prg.Routines) != 1 {
		t.Fatalf("got %d routines, want 1", len(prg.Routines))
	}
	rout := prg.Routines[0]
	if len(rout.Instr) != 1 || rout.Instr[0] != sample {
		t.Fatalf("routine instructions = %v, want [sample]", rout.Instr)
	}
	if sample.Opcode != isa.TAKE {
		t.Errorf("opcode = %s, want TAKE", isa.Name(sample.Opcode))
	}
	if sample.Out != nil {
		t.Errorf("TAKE should have no output operand, got %v", sample.Out)
	}
	if sample.Ops[2] == nil {
		t.Error("TAKE's sole argument should land in slot 3")
	}
}

func TestEmitOutsideRoutineFails(t *testing.T) {
	prg := ir.NewProgram()
	b := New(prg)
	if _, err := b.ADD(uint32(1), uint32(2)); err == nil {
		t.Error("emitting outside a Routine scope should fail")
	}
}

func TestUpdateWrapsIdentityOR(t *testing.T) {
	prg := ir.NewProgram()
	b := New(prg)

	var glob *ir.Global
	b.Routine(nil, nil, func() {
		zero := uint32(0)
		glob = b.Global("save", &zero)
		if _, err := b.Update(glob, uint32(7)); err != nil {
			t.Fatalf("Update: %v", err)
		}
	})

	if len(glob.Cases) != 2 {
		t.Fatalf("got %d cases, want 2 (init + update)", len(glob.Cases))
	}
	inst, ok := glob.Cases[1].(*ir.Instruction)
	if !ok {
		t.Fatalf("second case is %T, want *ir.Instruction", glob.Cases[1])
	}
	if inst.Opcode != isa.OR {
		t.Errorf("Update should wrap the value in OR, got %s", isa.Name(inst.Opcode))
	}
	if inst.Ops[0] != inst.Ops[1] {
		t.Error("Update's OR should be an identity OR (both operands equal)")
	}
}

func TestCallByName(t *testing.T) {
	prg := ir.NewProgram()
	b := New(prg)
	var inst *ir.Instruction
	b.Routine(nil, nil, func() {
		var err error
		inst, err = b.Call("ADD", uint32(1), uint32(2), uint32(3))
		if err != nil {
			t.Fatalf("Call: %v", err)
		}
	})
	if inst.Opcode != isa.ADD {
		t.Errorf("opcode = %s, want ADD", isa.Name(inst.Opcode))
	}
}

func TestCallUnknownOpcode(t *testing.T) {
	prg := ir.NewProgram()
	b := New(prg)
	b.Routine(nil, nil, func() {
		if _, err := b.Call("NOSUCHOP"); err == nil {
			t.Error("Call with an unknown opcode should fail")
		}
	})
}

func TestSieveOperandCountMismatch(t *testing.T) {
	prg := ir.NewProgram()
	b := New(prg)
	b.Routine(nil, nil, func() {
		if _, err := b.TAKE(uint32(1), uint32(2)); err == nil {
			t.Error("TAKE takes exactly one operand")
		}
	})
}

func TestUnsievedOpcodeFillsSlotsPositionally(t *testing.T) {
	prg := ir.NewProgram()
	b := New(prg)
	var inst *ir.Instruction
	b.Routine(nil, nil, func() {
		var err error
		inst, err = b.OR(uint32(1), uint32(2))
		if err != nil {
			t.Fatalf("OR: %v", err)
		}
	})
	if inst.Ops[0] == nil || inst.Ops[1] == nil {
		t.Fatalf("OR's two arguments should land in slots 1 and 2, got %v", inst.Ops)
	}
	if inst.Ops[2] != nil {
		t.Errorf("OR's unfilled third slot should be nil, got %v", inst.Ops[2])
	}
}
