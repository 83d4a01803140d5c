package passes

import (
	"fmt"
	"io"
	"strings"

	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

// pseudoLabeler assigns short, reusable names to globals, register
// rings and instruction results the first time Pseudocode encounters
// them, the way a human reading raw operand identities back into a
// program would invent names as they went.
type pseudoLabeler struct {
	opLabels   map[ir.Operand]string
	ringLabels map[*ir.RegisterRing]string
	nTmp       int
	nGlob      int
	nRing      int
}

func newPseudoLabeler() *pseudoLabeler {
	return &pseudoLabeler{
		opLabels:   map[ir.Operand]string{},
		ringLabels: map[*ir.RegisterRing]string{},
	}
}

func (p *pseudoLabeler) ringName(r *ir.RegisterRing) string {
	if l, ok := p.ringLabels[r]; ok {
		return l
	}
	l := fmt.Sprintf("ring%d", p.nRing)
	p.nRing++
	p.ringLabels[r] = l
	return l
}

func (p *pseudoLabeler) label(op ir.Operand) string {
	if l, ok := p.opLabels[op]; ok {
		return l
	}
	switch v := op.(type) {
	case *ir.Global:
		l := fmt.Sprintf("global%d", p.nGlob)
		p.nGlob++
		p.opLabels[op] = l
		return l
	case *ir.Instruction:
		if v.Out != nil {
			return p.label(v.Out)
		}
		l := fmt.Sprintf("tmp%d", p.nTmp)
		p.nTmp++
		p.opLabels[op] = l
		return l
	default:
		l := fmt.Sprintf("%v", op)
		p.opLabels[op] = l
		return l
	}
}

func (p *pseudoLabeler) text(op ir.Operand, isFloat bool) string {
	switch v := op.(type) {
	case nil:
		return "_"
	case ir.Constant:
		if isFloat {
			return fmt.Sprintf("%.8e", v.Float())
		}
		return fmt.Sprintf("%#x", v.Val)
	case ir.Register:
		return v.String()
	case ir.Uninitialized:
		return "<uninit>"
	case ir.RingOperand:
		return fmt.Sprintf("%s[%d]", p.ringName(v.Ring), v.Offset)
	default:
		return p.label(op)
	}
}

// Pseudocode writes each selected instruction as a "name := OPCODE(args)"
// assignment instead of a raw opcode/operand triple, so a deconstructed
// program reads like an arithmetic expression tree rather than a
// register-transfer listing.
func Pseudocode(w io.Writer, prg *ir.Program) error {
	labeler := newPseudoLabeler()
	for routno, rout := range prg.Routines {
		fmt.Fprintf(w, "# routine %d\n", routno)
		for _, inst := range rout.Instr {
			if inst == nil || !rout.IsSelected(inst) {
				continue
			}
			name := labeler.label(inst)
			isFloat := isa.IsFloat(inst.Opcode)
			args := make([]string, 0, len(inst.Ops))
			for _, op := range inst.Ops {
				if op == nil {
					continue
				}
				args = append(args, labeler.text(op, isFloat))
			}
			fmt.Fprintf(w, "%s := %s(%s)\n", name, isa.Name(inst.Opcode), strings.Join(args, ", "))
		}
	}
	return nil
}
