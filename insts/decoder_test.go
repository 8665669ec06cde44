package insts_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/procsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Decode", func() {
		It("should decode a record with two sources", func() {
			inst, err := decoder.Decode("ab120024 0 1 2 3")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Address).To(Equal(uint64(0xab120024)))
			Expect(inst.Op).To(Equal(insts.OpClass0))
			Expect(inst.Dest).To(Equal(insts.Reg(1)))
			Expect(inst.Src).To(Equal([2]insts.Reg{2, 3}))
		})

		It("should decode -1 as no register", func() {
			inst, err := decoder.Decode("400 2 -1 -1 5")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Dest).To(Equal(insts.NoReg))
			Expect(inst.Src[0]).To(Equal(insts.NoReg))
			Expect(inst.Src[1]).To(Equal(insts.Reg(5)))
		})

		It("should accept a 0x prefix on the address", func() {
			inst, err := decoder.Decode("0x10 1 4 -1 -1")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Address).To(Equal(uint64(0x10)))
		})

		It("should keep an out-of-range opcode for normalization", func() {
			inst, err := decoder.Decode("10 -1 4 -1 -1")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpClass(-1)))
		})

		It("should tolerate extra whitespace", func() {
			inst, err := decoder.Decode("  10\t1   4 -1  -1  ")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Dest).To(Equal(insts.Reg(4)))
		})

		It("should reject a record with the wrong field count", func() {
			_, err := decoder.Decode("10 1 4")

			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, insts.ErrMalformedRecord)).To(BeTrue())
		})

		It("should reject a non-numeric register", func() {
			_, err := decoder.Decode("10 1 x4 -1 -1")

			Expect(errors.Is(err, insts.ErrMalformedRecord)).To(BeTrue())
		})

		It("should reject a non-hex address", func() {
			_, err := decoder.Decode("zz 1 4 -1 -1")

			Expect(errors.Is(err, insts.ErrMalformedRecord)).To(BeTrue())
		})
	})

	Describe("IsSkippable", func() {
		It("should skip blank lines and comments", func() {
			Expect(decoder.IsSkippable("")).To(BeTrue())
			Expect(decoder.IsSkippable("   ")).To(BeTrue())
			Expect(decoder.IsSkippable("# header")).To(BeTrue())
			Expect(decoder.IsSkippable("10 1 4 -1 -1")).To(BeFalse())
		})
	})

	Describe("Encode", func() {
		It("should produce a record Decode reads back", func() {
			inst := insts.Instruction{
				Address: 0x1f00,
				Op:      insts.OpClass2,
				Src:     [2]insts.Reg{insts.NoReg, 9},
				Dest:    3,
			}

			line := decoder.Encode(inst)
			Expect(line).To(Equal("1f00 2 3 -1 9"))

			back, err := decoder.Decode(line)
			Expect(err).NotTo(HaveOccurred())
			Expect(back).To(Equal(inst))
		})
	})
})
