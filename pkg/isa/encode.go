package isa

import "fmt"

// Slot indexes an operand position 0, 1 or 2 (OP1BANK, OP2BANK, OP3BANK).
type Slot int

const (
	Slot1 Slot = 0
	Slot2 Slot = 1
	Slot3 Slot = 2
)

// Bank is a register bank index. Bank 0 means "operand not present".
type Bank uint32

const (
	BankNone Bank = 0
	Bank1    Bank = 1
	Bank2    Bank = 2
	Bank3    Bank = 3
)

// RawOperand is a decoded (bank, address) pair, or the zero value for
// an absent operand.
type RawOperand struct {
	Bank Bank
	Addr uint32
}

// Present reports whether the operand occupies a bank.
func (r RawOperand) Present() bool { return r.Bank != BankNone }

// RawInstr is the four-word wire representation of one instruction:
// the general word plus the three parallel per-bank address words.
type RawInstr struct {
	Words [4]uint32 // INST0, INST1, INST2, INST3
}

// DecodeRaw turns the four wire words at one PC slot into an Opcode,
// an output operand and three input operands, per the general-word
// field layout. Banks 1..3 index into Words[1..3].
func DecodeRaw(w0, w1, w2, w3 uint32) (op Opcode, out RawOperand, ops [3]RawOperand, err error) {
	g := GeneralInstr(w0)
	op = g.Opcode()
	if !Valid(op) {
		return 0, RawOperand{}, ops, fmt.Errorf("isa: unknown opcode %#03x", uint16(op))
	}

	words := [4]uint32{w0, w1, w2, w3}

	if b := Bank(g.OutBank()); b != BankNone {
		out = RawOperand{Bank: b, Addr: g.OutAddr()}
	}

	for i := 0; i < 3; i++ {
		b := Bank(g.OpBank(i))
		if b == BankNone {
			continue
		}
		ops[i] = RawOperand{Bank: b, Addr: words[b]}
	}
	return op, out, ops, nil
}

// EncodeRaw packs an opcode, output operand and three input operands
// back into the four wire words. Every present operand must carry a
// concrete bank; operands that alias the same bank must agree on
// address, or EncodeRaw reports an error.
func EncodeRaw(op Opcode, out RawOperand, ops [3]RawOperand) (RawInstr, error) {
	if !Valid(op) {
		return RawInstr{}, fmt.Errorf("isa: cannot encode unknown opcode %#03x", uint16(op))
	}

	var words [4]uint32
	bankSet := [4]bool{}

	setBankWord := func(b Bank, addr uint32) error {
		if b == BankNone {
			return nil
		}
		if bankSet[b] && words[b] != addr {
			return fmt.Errorf("isa: bank %d address collision: %#x vs %#x", b, words[b], addr)
		}
		words[b] = addr
		bankSet[b] = true
		return nil
	}

	var opBanks [3]uint32
	for i, o := range ops {
		if !o.Present() {
			continue
		}
		if err := setBankWord(o.Bank, o.Addr); err != nil {
			return RawInstr{}, err
		}
		opBanks[i] = uint32(o.Bank)
	}

	outBank, outAddr := uint32(0), uint32(0)
	if out.Present() {
		outBank, outAddr = uint32(out.Bank), out.Addr
	}

	g := NewGeneralInstr(
		uint32(op)&0xff, (uint32(op)>>8)&0x3,
		opBanks[0], opBanks[1], opBanks[2],
		outBank, outAddr,
	)
	words[0] = uint32(g)

	return RawInstr{Words: words}, nil
}
