package pipeline_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/procsim/insts"
	"github.com/sarchlab/procsim/timing/latency"
	"github.com/sarchlab/procsim/timing/pipeline"
)

var _ = Describe("Pipeline", func() {
	Describe("NewPipeline", func() {
		It("should reject a zero functional-unit count before any cycle", func() {
			pipe, err := pipeline.NewPipeline(machine(2, 0, 1, 1, 1), nil)

			Expect(pipe).To(BeNil())
			Expect(errors.Is(err, pipeline.ErrInvalidConfig)).To(BeTrue())
		})

		It("should reject a negative fetch width", func() {
			_, err := pipeline.NewPipeline(machine(2, 1, 1, 1, -1), nil)
			Expect(errors.Is(err, pipeline.ErrInvalidConfig)).To(BeTrue())
		})

		It("should reject a nil config", func() {
			_, err := pipeline.NewPipeline(nil, nil)
			Expect(errors.Is(err, pipeline.ErrInvalidConfig)).To(BeTrue())
		})

		It("should reject a zero latency", func() {
			timing := latency.DefaultTimingConfig()
			timing.Class2Latency = 0

			_, err := pipeline.NewPipeline(machine(1, 1, 1, 1, 1), nil,
				pipeline.WithLatencyTable(latency.NewTableWithConfig(timing)))

			Expect(errors.Is(err, latency.ErrInvalidConfig)).To(BeTrue())
		})

		It("should size the reservation station at twice the unit count", func() {
			pipe := newPipe(machine(2, 1, 2, 3, 1), nil)
			Expect(pipe.SchedulingQueueCapacity()).To(Equal(12))
		})

		It("should not share its config with the caller", func() {
			config := machine(2, 1, 1, 1, 1)
			pipe := newPipe(config, nil)
			config.FetchWidth = 9

			Expect(pipe.Config().FetchWidth).To(Equal(1))
		})
	})

	Describe("Stage order", func() {
		It("should run State-Update, Execute, Schedule, Dispatch, Fetch", func() {
			pipe := newPipe(machine(1, 1, 1, 1, 1), nil)

			Expect(pipe.StageOrder()).To(Equal([]pipeline.Stage{
				pipeline.StageStateUpdate,
				pipeline.StageExecute,
				pipeline.StageSchedule,
				pipeline.StageDispatch,
				pipeline.StageFetch,
			}))
		})
	})

	Describe("Producer and consumer", func() {
		var pipe *pipeline.Pipeline

		BeforeEach(func() {
			pipe = newPipe(machine(2, 1, 1, 1, 1), []insts.Instruction{
				op(insts.OpClass1, 1, none, none),
				op(insts.OpClass1, 2, 1, none),
			})
		})

		It("should produce the expected timeline", func() {
			stats := pipe.Run()

			Expect(stats.Cycles).To(Equal(uint64(7)))
			Expect(stats.Instructions).To(Equal(uint64(2)))
			Expect(pipe.Timeline()).To(Equal([]pipeline.TimelineEntry{
				{Tag: 1, Cycles: [pipeline.NumStages]uint64{1, 2, 3, 3, 5}},
				{Tag: 2, Cycles: [pipeline.NumStages]uint64{2, 3, 4, 5, 7}},
			}))
		})

		It("should hold the consumer until the producer's broadcast", func() {
			pipe.RunCycles(4)

			consumer := record(pipe, 2)
			Expect(consumer.Timestamps[pipeline.StageSchedule]).To(Equal(uint64(4)))
			Expect(consumer.SrcReady[0]).To(BeFalse())
			Expect(consumer.SrcTag[0]).To(Equal(uint64(1)))
			Expect(consumer.Issued()).To(BeFalse())
			Expect(pipe.DoneQueueLen()).To(Equal(1))
		})

		It("should wake the consumer in the cycle the producer retires", func() {
			pipe.Run()

			producer := record(pipe, 1)
			consumer := record(pipe, 2)
			Expect(consumer.Timestamps[pipeline.StageExecute]).To(
				Equal(producer.Timestamps[pipeline.StageStateUpdate]))
			Expect(consumer.Timestamps[pipeline.StageExecute]).To(
				BeNumerically(">", producer.CompletedAt))
		})

		It("should point the RAT at the producer until it retires", func() {
			pipe.RunCycles(3)
			tag, ready := pipe.RATEntry(1)
			Expect(ready).To(BeFalse())
			Expect(tag).To(Equal(uint64(1)))

			pipe.RunCycles(1)
			tag, ready = pipe.RATEntry(2)
			Expect(ready).To(BeFalse())
			Expect(tag).To(Equal(uint64(2)))

			pipe.RunCycles(1)
			_, ready = pipe.RATEntry(1)
			Expect(ready).To(BeTrue())
		})

		It("should track the Dispatch-queue occupancy", func() {
			stats := pipe.Run()

			Expect(stats.MaxDispatchQueue).To(Equal(uint64(1)))
			Expect(stats.DispatchQueueSum).To(Equal(uint64(2)))
			Expect(stats.AvgDispatchQueue()).To(BeNumerically("~", 2.0/7.0, 1e-9))
			Expect(stats.AvgIssuedPerCycle()).To(BeNumerically("~", 2.0/7.0, 1e-9))
			Expect(stats.AvgRetiredPerCycle()).To(BeNumerically("~", 2.0/7.0, 1e-9))
		})
	})

	Describe("Functional-unit contention", func() {
		It("should issue the older of two ready instructions first", func() {
			pipe := newPipe(machine(2, 1, 1, 1, 2), []insts.Instruction{
				op(insts.OpClass0, 1, none, none),
				op(insts.OpClass0, 2, none, none),
			})

			pipe.Run()

			Expect(record(pipe, 1).Timestamps[pipeline.StageExecute]).To(Equal(uint64(3)))
			Expect(record(pipe, 2).Timestamps[pipeline.StageExecute]).To(Equal(uint64(5)))
		})

		It("should favor the lower tag when both wake in the same cycle", func() {
			pipe := newPipe(machine(4, 1, 1, 1, 4), []insts.Instruction{
				op(insts.OpClass1, 1, none, none),
				op(insts.OpClass0, 2, 1, none),
				op(insts.OpClass0, 3, none, 1),
			})

			pipe.Run()

			Expect(record(pipe, 2).Timestamps[pipeline.StageExecute]).To(Equal(uint64(5)))
			Expect(record(pipe, 3).Timestamps[pipeline.StageExecute]).To(Equal(uint64(7)))
		})

		It("should let other classes issue past a starved class", func() {
			pipe := newPipe(machine(4, 1, 1, 1, 4), []insts.Instruction{
				op(insts.OpClass0, 1, none, none),
				op(insts.OpClass0, 2, none, none),
				op(insts.OpClass2, 3, none, none),
			})

			pipe.Run()

			Expect(record(pipe, 2).Timestamps[pipeline.StageExecute]).To(Equal(uint64(5)))
			Expect(record(pipe, 3).Timestamps[pipeline.StageExecute]).To(Equal(uint64(3)))
		})

		It("should hold a unit until retirement", func() {
			pipe := newPipe(machine(1, 1, 1, 1, 1), []insts.Instruction{
				op(insts.OpClass0, 1, none, none),
			})

			pipe.RunCycles(4)
			Expect(pipe.DoneQueueLen()).To(Equal(1))
			Expect(pipe.FUFree(insts.OpClass0)).To(Equal(0))

			pipe.RunCycles(1)
			Expect(pipe.FUFree(insts.OpClass0)).To(Equal(1))
		})
	})

	Describe("Reservation-station backpressure", func() {
		var (
			pipe  *pipeline.Pipeline
			trace []insts.Instruction
		)

		BeforeEach(func() {
			trace = make([]insts.Instruction, 10)
			for i := range trace {
				trace[i] = op(insts.OpClass0, insts.Reg(i), none, none)
			}
			pipe = newPipe(machine(2, 1, 1, 1, 8), trace)
		})

		It("should leave the overflow in the Dispatch-queue", func() {
			pipe.RunCycles(3)

			Expect(pipe.SchedulingQueueLen()).To(Equal(6))
			Expect(pipe.DispatchQueueLen()).To(Equal(4))
		})

		It("should admit the overflow in order without dropping any", func() {
			for pipe.RunCycles(1) {
				Expect(pipe.SchedulingQueueLen()).To(
					BeNumerically("<=", pipe.SchedulingQueueCapacity()))
			}

			Expect(pipe.Stats().Instructions).To(Equal(uint64(len(trace))))

			timeline := pipe.Timeline()
			for i := 1; i < len(timeline); i++ {
				Expect(timeline[i].Cycles[pipeline.StageSchedule]).To(
					BeNumerically(">=", timeline[i-1].Cycles[pipeline.StageSchedule]))
			}
			Expect(pipe.Stats().MaxDispatchQueue).To(BeNumerically(">=", 4))
		})
	})

	Describe("Register renaming", func() {
		var pipe *pipeline.Pipeline

		BeforeEach(func() {
			timing := latency.DefaultTimingConfig()
			timing.Class2Latency = 3

			pipe = newPipe(machine(4, 1, 1, 1, 3), []insts.Instruction{
				op(insts.OpClass0, 1, none, none),
				op(insts.OpClass2, 1, none, none),
				op(insts.OpClass1, 3, 1, none),
			}, pipeline.WithLatencyTable(latency.NewTableWithConfig(timing)))
		})

		It("should keep the younger writer in the RAT when the older retires", func() {
			pipe.RunCycles(5)
			Expect(record(pipe, 1).Retired()).To(BeTrue())

			tag, ready := pipe.RATEntry(1)
			Expect(ready).To(BeFalse())
			Expect(tag).To(Equal(uint64(2)))

			pipe.RunCycles(2)
			Expect(record(pipe, 2).Retired()).To(BeTrue())
			_, ready = pipe.RATEntry(1)
			Expect(ready).To(BeTrue())
		})

		It("should make the reader wait on the youngest writer", func() {
			pipe.Run()

			reader := record(pipe, 3)
			Expect(reader.Timestamps[pipeline.StageExecute]).To(Equal(uint64(7)))
			Expect(record(pipe, 2).CompletedAt).To(Equal(uint64(6)))
		})

		It("should not let an instruction wait on itself", func() {
			pipe = newPipe(machine(1, 1, 1, 1, 1), []insts.Instruction{
				op(insts.OpClass0, 4, 4, 4),
			})

			stats := pipe.Run()

			Expect(stats.Instructions).To(Equal(uint64(1)))
			Expect(record(pipe, 1).Timestamps[pipeline.StageExecute]).To(Equal(uint64(3)))
		})
	})

	Describe("Execution latency", func() {
		It("should keep an instruction in execute for its class latency", func() {
			timing := latency.DefaultTimingConfig()
			timing.Class0Latency = 3

			pipe := newPipe(machine(1, 1, 1, 1, 1), []insts.Instruction{
				op(insts.OpClass0, 1, none, none),
			}, pipeline.WithLatencyTable(latency.NewTableWithConfig(timing)))

			pipe.Run()

			rec := record(pipe, 1)
			Expect(rec.CompletedAt - rec.Timestamps[pipeline.StageExecute]).To(Equal(uint64(3)))
			Expect(rec.Timestamps[pipeline.StageStateUpdate]).To(Equal(rec.CompletedAt + 1))
			Expect(rec.RemainingLatency).To(Equal(uint64(0)))
		})
	})

	Describe("Retire width", func() {
		It("should retire at most ROBWidth instructions per cycle", func() {
			trace := make([]insts.Instruction, 4)
			for i := range trace {
				trace[i] = op(insts.OpClass1, none, none, none)
			}
			pipe := newPipe(machine(1, 1, 4, 1, 4), trace)

			pipe.RunCycles(5)
			Expect(pipe.DoneQueueLen()).To(Equal(3))

			pipe.Run()
			for tag := uint64(1); tag <= 4; tag++ {
				Expect(record(pipe, tag).Timestamps[pipeline.StageStateUpdate]).To(Equal(tag + 4))
			}
			Expect(pipe.RetireOrder()).To(Equal([]uint64{1, 2, 3, 4}))
		})
	})

	Describe("Malformed instructions", func() {
		It("should run an invalid class on the default class units", func() {
			pipe := newPipe(machine(1, 1, 1, 1, 1), []insts.Instruction{
				{Op: insts.OpClass(-1), Dest: 500, Src: [2]insts.Reg{-3, 1000}},
			})

			stats := pipe.Run()

			Expect(stats.Malformed).To(Equal(uint64(1)))
			Expect(stats.Instructions).To(Equal(uint64(1)))

			rec := record(pipe, 1)
			Expect(rec.Inst.Op).To(Equal(insts.DefaultOpClass))
			Expect(rec.Inst.Dest).To(Equal(insts.NoReg))
			Expect(rec.SrcReady).To(Equal([2]bool{true, true}))
		})
	})

	Describe("Termination", func() {
		It("should stop after one cycle on an empty trace", func() {
			pipe := newPipe(machine(1, 1, 1, 1, 1), []insts.Instruction{})

			stats := pipe.Run()

			Expect(stats.Cycles).To(Equal(uint64(1)))
			Expect(stats.Instructions).To(Equal(uint64(0)))
			Expect(stats.CPI()).To(Equal(0.0))
		})

		It("should be done immediately without a source", func() {
			pipe, err := pipeline.NewPipeline(machine(1, 1, 1, 1, 1), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(pipe.Done()).To(BeTrue())
			Expect(pipe.Run().Cycles).To(Equal(uint64(0)))
		})

		It("should report remaining work from RunCycles", func() {
			pipe := newPipe(machine(1, 1, 1, 1, 1), []insts.Instruction{
				op(insts.OpClass0, 1, none, none),
			})

			Expect(pipe.RunCycles(2)).To(BeTrue())
			Expect(pipe.Cycle()).To(Equal(uint64(2)))
			Expect(pipe.RunCycles(100)).To(BeFalse())
			Expect(pipe.Cycle()).To(Equal(uint64(5)))
		})
	})

	Describe("Reset", func() {
		It("should reproduce a run on the same trace", func() {
			trace := randomTrace(7, 50)
			pipe := newPipe(machine(2, 1, 2, 1, 3), trace)
			first := pipe.Run()
			firstTimeline := pipe.Timeline()

			pipe.Reset(loaderSource(trace))
			Expect(pipe.Stats()).To(Equal(pipeline.Statistics{}))
			Expect(pipe.Cycle()).To(Equal(uint64(0)))

			second := pipe.Run()
			Expect(second).To(Equal(first))
			Expect(pipe.Timeline()).To(Equal(firstTimeline))
		})
	})
})
