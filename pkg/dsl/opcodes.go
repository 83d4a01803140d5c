package dsl

import (
	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/povik/leap-firmware/pkg/isa"
)

// The methods below are the DSL's per-opcode call surface: one small
// wrapper per opcode, each threading its arguments through emit so
// isa.Sieve maps them onto the right hardware slots. This is the
// concrete-method rendering of dsl.py's dynamic opcode_wrapper
// closures; Call (in builder.go) covers any opcode reached by name
// instead of by call site.

func (b *Builder) ADD(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.ADD, ops...) }
func (b *Builder) ADD_DIV2(ops ...interface{}) (*ir.Instruction, error) { return b.emit(isa.ADD_DIV2, ops...) }
func (b *Builder) SUB(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.SUB, ops...) }
func (b *Builder) SUB_DIV2(ops ...interface{}) (*ir.Instruction, error) { return b.emit(isa.SUB_DIV2, ops...) }
func (b *Builder) ADD_UNS(ops ...interface{}) (*ir.Instruction, error)  { return b.emit(isa.ADD_UNS, ops...) }
func (b *Builder) ABS(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.ABS, ops...) }
func (b *Builder) MAX(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.MAX, ops...) }
func (b *Builder) MIN(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.MIN, ops...) }
func (b *Builder) MUX(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.MUX, ops...) }
func (b *Builder) AND(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.AND, ops...) }
func (b *Builder) OR(ops ...interface{}) (*ir.Instruction, error)       { return b.emit(isa.OR, ops...) }
func (b *Builder) XOR(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.XOR, ops...) }
func (b *Builder) CLR(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.CLR, ops...) }
func (b *Builder) ZERO(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.ZERO, ops...) }
func (b *Builder) ADD2(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.ADD2, ops...) }
func (b *Builder) ADD3(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.ADD3, ops...) }
func (b *Builder) ADD4(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.ADD4, ops...) }
func (b *Builder) ZERO2(ops ...interface{}) (*ir.Instruction, error)    { return b.emit(isa.ZERO2, ops...) }
func (b *Builder) ZERO3(ops ...interface{}) (*ir.Instruction, error)    { return b.emit(isa.ZERO3, ops...) }
func (b *Builder) ZERO4(ops ...interface{}) (*ir.Instruction, error)    { return b.emit(isa.ZERO4, ops...) }
func (b *Builder) CLAMP(ops ...interface{}) (*ir.Instruction, error)    { return b.emit(isa.CLAMP, ops...) }
func (b *Builder) ROT(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.ROT, ops...) }
func (b *Builder) PDM1(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.PDM1, ops...) }
func (b *Builder) PDM2(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.PDM2, ops...) }
func (b *Builder) PDM3(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.PDM3, ops...) }
func (b *Builder) PDM4(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.PDM4, ops...) }
func (b *Builder) PDM5(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.PDM5, ops...) }
func (b *Builder) PDM6(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.PDM6, ops...) }
func (b *Builder) CMP(ops ...interface{}) (*ir.Instruction, error)      { return b.emit(isa.CMP, ops...) }
func (b *Builder) CMP2(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.CMP2, ops...) }
func (b *Builder) EQ(ops ...interface{}) (*ir.Instruction, error)       { return b.emit(isa.EQ, ops...) }
func (b *Builder) FRACMULT(ops ...interface{}) (*ir.Instruction, error) { return b.emit(isa.FRACMULT, ops...) }

func (b *Builder) TAKE(ops ...interface{}) (*ir.Instruction, error)   { return b.emit(isa.TAKE, ops...) }
func (b *Builder) TAKEC(ops ...interface{}) (*ir.Instruction, error)  { return b.emit(isa.TAKEC, ops...) }
func (b *Builder) PEEK(ops ...interface{}) (*ir.Instruction, error)   { return b.emit(isa.PEEK, ops...) }
func (b *Builder) PUT(ops ...interface{}) (*ir.Instruction, error)    { return b.emit(isa.PUT, ops...) }
func (b *Builder) PUTC(ops ...interface{}) (*ir.Instruction, error)   { return b.emit(isa.PUTC, ops...) }
func (b *Builder) UPDATE(ops ...interface{}) (*ir.Instruction, error) { return b.emit(isa.UPDATE, ops...) }

func (b *Builder) FCMP(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.FCMP, ops...) }
func (b *Builder) FCMP2(ops ...interface{}) (*ir.Instruction, error)    { return b.emit(isa.FCMP2, ops...) }
func (b *Builder) FMUX(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.FMUX, ops...) }
func (b *Builder) F32_FMT(ops ...interface{}) (*ir.Instruction, error)  { return b.emit(isa.F32_FMT, ops...) }
func (b *Builder) FADD(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.FADD, ops...) }
func (b *Builder) FADD_ABS(ops ...interface{}) (*ir.Instruction, error) { return b.emit(isa.FADD_ABS, ops...) }
func (b *Builder) FADD_DIV2(ops ...interface{}) (*ir.Instruction, error) {
	return b.emit(isa.FADD_DIV2, ops...)
}
func (b *Builder) FSUB(ops ...interface{}) (*ir.Instruction, error)     { return b.emit(isa.FSUB, ops...) }
func (b *Builder) FSUB_ABS(ops ...interface{}) (*ir.Instruction, error) { return b.emit(isa.FSUB_ABS, ops...) }
func (b *Builder) FSUB_DIV2(ops ...interface{}) (*ir.Instruction, error) {
	return b.emit(isa.FSUB_DIV2, ops...)
}
func (b *Builder) FMULT(ops ...interface{}) (*ir.Instruction, error)    { return b.emit(isa.FMULT, ops...) }
func (b *Builder) FMULTACC(ops ...interface{}) (*ir.Instruction, error) { return b.emit(isa.FMULTACC, ops...) }
func (b *Builder) FMULT_NEG(ops ...interface{}) (*ir.Instruction, error) {
	return b.emit(isa.FMULT_NEG, ops...)
}
func (b *Builder) FMULTACC_NEG(ops ...interface{}) (*ir.Instruction, error) {
	return b.emit(isa.FMULTACC_NEG, ops...)
}
func (b *Builder) FMULTSUB(ops ...interface{}) (*ir.Instruction, error) {
	return b.emit(isa.FMULTSUB, ops...)
}

// MULT emits the nth dynamic multiplier opcode (MULT0..MULT31). The
// family shares one operand sieve and a regular numbering, so it gets
// one parametrised wrapper instead of 32 near-identical methods.
func (b *Builder) MULT(n int, ops ...interface{}) (*ir.Instruction, error) {
	return b.emit(isa.MultOpcode(n), ops...)
}
