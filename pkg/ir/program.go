package ir

import (
	"fmt"
	"io"
	"sort"

	"github.com/povik/leap-firmware/pkg/image"
	"github.com/povik/leap-firmware/pkg/isa"
)

// Program is a whole compilation unit: the routines that make it up,
// the seed values their STATE banks carry into reset, and which
// registers are pinned outside of allocation's control.
type Program struct {
	RegisterInits     map[Register]uint32
	RegisterSpecials  map[Register]bool
	RegisterAllocated map[Register]bool
	Routines          []*Routine
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		RegisterInits:     map[Register]uint32{},
		RegisterSpecials:  map[Register]bool{},
		RegisterAllocated: map[Register]bool{},
	}
}

var instBanks = []image.SectionType{image.INST0, image.INST1, image.INST2, image.INST3}

// FromImage reconstructs a flat, pre-deconstruction Program from a
// binary image: one Routine per INST0 span flagged FlagRoutine, STATE1
// through STATE3 spans seeding RegisterInits, and the wait-port lists
// keyed by each routine's base shifted into the wait-list address
// space.
func FromImage(img *image.Image) (*Program, error) {
	prg := NewProgram()

	for _, span := range img.SectionSpans(image.INST0) {
		sect := instRoutineSection(img, span)
		if sect == nil || sect.Flags&image.FlagRoutine == 0 {
			continue
		}

		end := span.End
		pieces, err := img.GetParallelRange(instBanks, span.Start, &end)
		if err != nil {
			return nil, fmt.Errorf("ir: reading routine at %#x: %w", span.Start, err)
		}

		n := int(span.End - span.Start)
		instr := make([]*Instruction, n)
		for i := 0; i < n; i++ {
			op, out, ops, err := isa.DecodeRaw(pieces[0][i], pieces[1][i], pieces[2][i], pieces[3][i])
			if err != nil {
				return nil, fmt.Errorf("ir: decoding instruction at pc %#x: %w", int(span.Start)+i, err)
			}
			instr[i] = rawToInstruction(op, out, ops)
		}

		base := span.Start
		rout := &Routine{Base: &base, Instr: instr}

		waitbase := base << 16
		we, err := img.GetRange(image.WaitEmptyList, waitbase, nil)
		if err != nil {
			return nil, fmt.Errorf("ir: reading waitempty ports for routine at %#x: %w", base, err)
		}
		wf, err := img.GetRange(image.WaitFullList, waitbase, nil)
		if err != nil {
			return nil, fmt.Errorf("ir: reading waitfull ports for routine at %#x: %w", base, err)
		}
		rout.WaitEmptyPorts = we
		rout.WaitFullPorts = wf

		prg.Routines = append(prg.Routines, rout)
	}

	for bank := uint8(1); bank <= 3; bank++ {
		typ := image.STATE0 + image.SectionType(bank)
		for _, span := range img.SectionSpans(typ) {
			end := span.End
			vals, err := img.GetRange(typ, span.Start, &end)
			if err != nil {
				return nil, fmt.Errorf("ir: reading register inits for %s: %w", typ, err)
			}
			for i, v := range vals {
				reg := Register{Bank: bank, Addr: span.Start + uint32(i)}
				prg.RegisterInits[reg] = v
			}
		}
	}

	return prg, nil
}

// instRoutineSection finds the section backing span.Start so its flags
// can be inspected; SectionSpans already told us the range exists.
func instRoutineSection(img *image.Image, span image.Span) *image.Section {
	for _, s := range img.Sections {
		if s.Type == span.Type && s.LoadBase == span.Start && s.End() == span.End {
			return s
		}
	}
	return nil
}

func rawToInstruction(op isa.Opcode, out isa.RawOperand, ops [3]isa.RawOperand) *Instruction {
	var outOperand Operand
	if out.Present() {
		outOperand = Register{Bank: uint8(out.Bank), Addr: out.Addr}
	}
	var inOperands [3]Operand
	for i, o := range ops {
		if o.Present() {
			inOperands[i] = Register{Bank: uint8(o.Bank), Addr: o.Addr}
		}
	}
	return NewInstruction(op, outOperand, inOperands)
}

// BuildImage flattens the program back into a binary image: one
// STATE section per bank with register inits, and INST0..INST3 plus
// wait-port list sections per placed routine.
func (p *Program) BuildImage() (*image.Image, error) {
	img := image.New()

	for bank := uint8(1); bank <= 3; bank++ {
		typ := image.STATE0 + image.SectionType(bank)
		inits := map[uint32]uint32{}
		for reg, v := range p.RegisterInits {
			if reg.Bank == bank {
				inits[reg.Addr] = v
			}
		}
		if len(inits) == 0 {
			continue
		}
		addrs := make([]uint32, 0, len(inits))
		for a := range inits {
			addrs = append(addrs, a)
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
		base, end := addrs[0], addrs[len(addrs)-1]+1
		img.Reserve(typ, base, end, 0)
		for a, v := range inits {
			if err := img.Set(typ, a, v); err != nil {
				return nil, err
			}
		}
	}

	for _, rout := range p.Routines {
		if rout.Base == nil {
			return nil, fmt.Errorf("ir: cannot emit unplaced routine")
		}
		base := *rout.Base
		end := base + uint32(len(rout.Instr))

		for _, t := range instBanks {
			img.Reserve(t, base, end, image.FlagRoutine)
		}

		for off, inst := range rout.Instr {
			if inst == nil {
				return nil, fmt.Errorf("ir: routine at %#x has an unfilled slot at offset %d", base, off)
			}
			raw, err := encodeInstruction(inst)
			if err != nil {
				return nil, fmt.Errorf("ir: encoding instruction at pc %#x: %w", int(base)+off, err)
			}
			if err := img.SetParallel(instBanks, base+uint32(off), raw.Words[:]); err != nil {
				return nil, err
			}
		}

		waitbase := base << 16

		if n := len(rout.WaitEmptyPorts); n > 0 {
			ports := sortedCopy(rout.WaitEmptyPorts)
			img.Reserve(image.WaitEmptyList, waitbase, waitbase+uint32(n), 0)
			if err := img.SetRange(image.WaitEmptyList, waitbase, ports); err != nil {
				return nil, err
			}
		}
		if n := len(rout.WaitFullPorts); n > 0 {
			ports := sortedCopy(rout.WaitFullPorts)
			img.Reserve(image.WaitFullList, waitbase, waitbase+uint32(n), 0)
			if err := img.SetRange(image.WaitFullList, waitbase, ports); err != nil {
				return nil, err
			}
		}
	}

	return img, nil
}

func sortedCopy(s []uint32) []uint32 {
	out := append([]uint32(nil), s...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func encodeInstruction(inst *Instruction) (isa.RawInstr, error) {
	toRaw := func(op Operand) (isa.RawOperand, error) {
		if op == nil {
			return isa.RawOperand{}, nil
		}
		reg, ok := op.(Register)
		if !ok {
			return isa.RawOperand{}, fmt.Errorf("ir: cannot encode non-register operand %T", op)
		}
		return isa.RawOperand{Bank: isa.Bank(reg.Bank), Addr: reg.Addr}, nil
	}

	out, err := toRaw(inst.Out)
	if err != nil {
		return isa.RawInstr{}, err
	}
	var ops [3]isa.RawOperand
	for i, op := range inst.Ops {
		r, err := toRaw(op)
		if err != nil {
			return isa.RawInstr{}, err
		}
		ops[i] = r
	}
	return isa.EncodeRaw(inst.Opcode, out, ops)
}

// Dump writes every routine in the program, numbered in order.
func (p *Program) Dump(w io.Writer) {
	for i, r := range p.Routines {
		fmt.Fprintf(w, "     # Routine %d\n", i)
		r.Dump(w)
	}
}
