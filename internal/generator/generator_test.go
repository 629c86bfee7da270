package generator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"devassist.app/engine/internal/generator"
	"devassist.app/engine/internal/model"
)

type fakeCapability struct {
	name    string
	cost    int
	cands   []model.Candidate
	err     error
	delay   time.Duration
	blocks  bool // never returns until ctx is done
	invoked atomic.Int32
}

func (f *fakeCapability) Name() string    { return f.name }
func (f *fakeCapability) CostWeight() int { return f.cost }

func (f *fakeCapability) Generate(ctx context.Context, _ model.CodeContext) ([]model.Candidate, error) {
	f.invoked.Add(1)
	if f.blocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.cands, f.err
}

func cand(code string, score float64) model.Candidate {
	return model.Candidate{Code: code, RawScore: score, Category: model.CategoryCompletion}
}

var _ = Describe("Gateway", func() {
	var snap model.CodeContext

	BeforeEach(func() {
		snap = model.CodeContext{FileID: "a.go"}
	})

	It("collects candidates from all capabilities, cheapest first", func() {
		cheap := &fakeCapability{name: "cheap", cost: 1, cands: []model.Candidate{cand("a", 10)}}
		rich := &fakeCapability{name: "rich", cost: 100, cands: []model.Candidate{cand("b", 90)}}

		// Registration order must not matter.
		g := generator.NewGateway([]generator.Capability{rich, cheap}, nil)
		out, err := g.Generate(context.Background(), snap, model.DegradationNormal)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(2))
		Expect(out[0].Code).To(Equal("a"))
		Expect(out[1].Code).To(Equal("b"))
	})

	It("returns within the deadline even when a capability never returns", func() {
		fast := &fakeCapability{name: "fast", cost: 1, cands: []model.Candidate{cand("quick", 50)}}
		hung := &fakeCapability{name: "hung", cost: 100, blocks: true}
		g := generator.NewGateway([]generator.Capability{fast, hung}, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		out, err := g.Generate(ctx, snap, model.DegradationNormal)

		Expect(err).NotTo(HaveOccurred())
		Expect(time.Since(start)).To(BeNumerically("<", 500*time.Millisecond))
		Expect(out).To(HaveLen(1))
		Expect(out[0].Code).To(Equal("quick"))
	})

	It("returns empty when every capability hangs", func() {
		hung := &fakeCapability{name: "hung", cost: 1, blocks: true}
		g := generator.NewGateway([]generator.Capability{hung}, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		out, err := g.Generate(ctx, snap, model.DegradationNormal)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("treats a capability error as zero candidates while another succeeds", func() {
		ok := &fakeCapability{name: "ok", cost: 1, cands: []model.Candidate{cand("good", 50)}}
		bad := &fakeCapability{name: "bad", cost: 2, err: errors.New("backend down")}
		g := generator.NewGateway([]generator.Capability{ok, bad}, nil)

		out, err := g.Generate(context.Background(), snap, model.DegradationNormal)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		Expect(out[0].Code).To(Equal("good"))
	})

	It("reports an error only when every completed capability failed", func() {
		down := errors.New("backend down")
		a := &fakeCapability{name: "a", cost: 1, err: down}
		b := &fakeCapability{name: "b", cost: 2, err: errors.New("also down")}
		g := generator.NewGateway([]generator.Capability{a, b}, nil)

		out, err := g.Generate(context.Background(), snap, model.DegradationNormal)
		Expect(out).To(BeEmpty())
		Expect(err).To(MatchError(ContainSubstring("backend down")))
		Expect(errors.Is(err, down)).To(BeTrue())
	})

	It("does not report an error when a failing capability coexists with an empty success", func() {
		quiet := &fakeCapability{name: "quiet", cost: 1}
		bad := &fakeCapability{name: "bad", cost: 2, err: errors.New("backend down")}
		g := generator.NewGateway([]generator.Capability{quiet, bad}, nil)

		out, err := g.Generate(context.Background(), snap, model.DegradationNormal)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("invokes only the cheapest capability under Minimal", func() {
		cheap := &fakeCapability{name: "cheap", cost: 1, cands: []model.Candidate{cand("a", 10)}}
		rich := &fakeCapability{name: "rich", cost: 100, cands: []model.Candidate{cand("b", 90)}}
		g := generator.NewGateway([]generator.Capability{rich, cheap}, nil)

		out, err := g.Generate(context.Background(), snap, model.DegradationMinimal)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		Expect(out[0].Code).To(Equal("a"))
		Expect(rich.invoked.Load()).To(Equal(int32(0)))
	})

	It("caps concurrency under Reduced", func() {
		caps := []generator.Capability{
			&fakeCapability{name: "a", cost: 1},
			&fakeCapability{name: "b", cost: 2},
			&fakeCapability{name: "c", cost: 3},
		}
		g := generator.NewGateway(caps, nil)

		_, err := g.Generate(context.Background(), snap, model.DegradationReduced)
		Expect(err).NotTo(HaveOccurred())

		Expect(caps[2].(*fakeCapability).invoked.Load()).To(Equal(int32(0)))
	})
})

var _ = Describe("Heuristic capability", func() {
	h := generator.NewHeuristicCapability()

	generate := func(content string) []model.Candidate {
		snap := model.CodeContext{FileID: "a.go", Content: content, CursorPosition: len(content)}
		out, err := h.Generate(context.Background(), snap)
		Expect(err).NotTo(HaveOccurred())
		return out
	}

	It("proposes closers for open blocks", func() {
		out := generate("func main() {\n\tf(")

		Expect(out).NotTo(BeEmpty())
		Expect(out[0].Code).To(Equal(")\n}"))
		Expect(out[0].Category).To(Equal(model.CategoryCompletion))
	})

	It("proposes error handling after an err assignment", func() {
		out := generate("func run() error {\n\tdata, err := load()\n")

		var codes []string
		for _, c := range out {
			codes = append(codes, c.Code)
		}
		Expect(codes).To(ContainElement("if err != nil {\n\treturn err\n}"))
	})

	It("proposes nothing for balanced, uneventful code", func() {
		Expect(generate("x := 1\n")).To(BeEmpty())
	})

	It("ignores delimiters inside string literals", func() {
		out := generate(`s := "unclosed ( bracket"` + "\n")
		Expect(out).To(BeEmpty())
	})
})
