package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/procsim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should build an instruction with no operands", func() {
		inst := insts.NewInstruction(insts.OpClass2)
		Expect(inst.Op).To(Equal(insts.OpClass2))
		Expect(inst.Src).To(Equal([2]insts.Reg{insts.NoReg, insts.NoReg}))
		Expect(inst.HasDest()).To(BeFalse())
	})

	Describe("Reg", func() {
		It("should accept indices inside the register file", func() {
			Expect(insts.Reg(0).Valid()).To(BeTrue())
			Expect(insts.Reg(insts.NumArchRegs - 1).Valid()).To(BeTrue())
		})

		It("should reject NoReg and out-of-range indices", func() {
			Expect(insts.NoReg.Valid()).To(BeFalse())
			Expect(insts.Reg(insts.NumArchRegs).Valid()).To(BeFalse())
		})

		It("should format registers", func() {
			Expect(insts.Reg(7).String()).To(Equal("r7"))
			Expect(insts.NoReg.String()).To(Equal("-"))
		})
	})

	Describe("Normalize", func() {
		It("should leave a well-formed instruction unchanged", func() {
			inst := insts.Instruction{
				Op:   insts.OpClass0,
				Src:  [2]insts.Reg{1, insts.NoReg},
				Dest: 2,
			}

			out, changed := inst.Normalize()

			Expect(changed).To(BeFalse())
			Expect(out).To(Equal(inst))
		})

		It("should map an invalid opcode class onto the default class", func() {
			inst := insts.NewInstruction(insts.OpClass(-1))

			out, changed := inst.Normalize()

			Expect(changed).To(BeTrue())
			Expect(out.Op).To(Equal(insts.DefaultOpClass))
		})

		It("should map a too-large opcode class onto the default class", func() {
			out, changed := insts.NewInstruction(insts.OpClass(9)).Normalize()

			Expect(changed).To(BeTrue())
			Expect(out.Op).To(Equal(insts.OpClass1))
		})

		It("should drop out-of-range registers", func() {
			inst := insts.Instruction{
				Op:   insts.OpClass0,
				Src:  [2]insts.Reg{300, -7},
				Dest: 128,
			}

			out, changed := inst.Normalize()

			Expect(changed).To(BeTrue())
			Expect(out.Src).To(Equal([2]insts.Reg{insts.NoReg, insts.NoReg}))
			Expect(out.Dest).To(Equal(insts.NoReg))
		})
	})
})
