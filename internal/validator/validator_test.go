package validator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"devassist.app/engine/internal/model"
	"devassist.app/engine/internal/validator"
)

func candidate(code string) model.Candidate {
	return model.Candidate{Code: code, RawScore: 50, Category: model.CategoryCompletion}
}

func atEndOf(content string) model.CodeContext {
	return model.CodeContext{FileID: "a.go", Content: content, CursorPosition: len(content)}
}

var _ = Describe("Validator", func() {
	var v *validator.Validator

	BeforeEach(func() {
		v = validator.New()
	})

	Describe("structural check", func() {
		DescribeTable("judging a candidate inserted at the cursor",
			func(content, code string, want bool) {
				Expect(v.Validate(candidate(code), atEndOf(content), nil)).To(Equal(want))
			},
			Entry("plain statement", "func main() {\n", "x := compute()", true),
			Entry("balanced block", "func main() {\n", "if ok {\n\treturn\n}", true),
			Entry("closer matching an open scope", "func main() {\n\treturn\n", "}", true),
			Entry("closer with no opener anywhere", "x := 1\n", "}", false),
			Entry("mismatched closer", "f(", "]", false),
			Entry("unterminated string literal", "x := ", "\"oops", false),
			Entry("terminated string literal", "x := ", "\"fine\"", true),
			Entry("escaped quote stays inside the literal", "x := ", "\"a\\\"b\"", true),
			Entry("unclosed opener is tolerated", "x := ", "f(a, b", true),
			Entry("empty candidate", "x := 1", "", true),
		)

		It("passes anything when the cursor is inside a string literal", func() {
			ctx := model.CodeContext{FileID: "a.go", Content: `msg := "hel`, CursorPosition: 11}
			Expect(v.Validate(candidate(`lo}`), ctx, nil)).To(BeTrue())
		})

		It("clamps an out-of-range cursor to the end of content", func() {
			ctx := model.CodeContext{FileID: "a.go", Content: "f(", CursorPosition: 9999}
			Expect(v.Validate(candidate(")"), ctx, nil)).To(BeTrue())
		})
	})

	Describe("standards denylist", func() {
		standards := &model.Standards{
			ProjectID: "proj-1",
			Version:   "v7",
			Rules: []model.StandardsRule{
				{ID: "no-eval", Pattern: `\beval\(`},
				{ID: "no-panic", Pattern: `\bpanic\(`},
			},
		}

		It("drops candidates matching any denylist rule", func() {
			in := []model.Candidate{
				candidate("result := eval(input)"),
				candidate("result := parse(input)"),
				candidate("panic(err)"),
			}

			out := v.Filter(in, atEndOf(""), standards)
			Expect(out).To(HaveLen(1))
			Expect(out[0].Code).To(Equal("result := parse(input)"))
		})

		It("treats nil standards as vacuously passing", func() {
			out := v.Filter([]model.Candidate{candidate("eval(x)")}, atEndOf(""), nil)
			Expect(out).To(HaveLen(1))
		})

		It("skips unparseable rules without rejecting everything", func() {
			broken := &model.Standards{
				Version: "broken-1",
				Rules: []model.StandardsRule{
					{ID: "bad", Pattern: `([`},
					{ID: "good", Pattern: `forbidden`},
				},
			}

			out := v.Filter([]model.Candidate{candidate("ok()"), candidate("forbidden()")}, atEndOf(""), broken)
			Expect(out).To(HaveLen(1))
			Expect(out[0].Code).To(Equal("ok()"))
		})
	})

	Describe("Filter semantics", func() {
		It("preserves candidate order and content", func() {
			in := []model.Candidate{
				{Code: "a()", RawScore: 10, Category: model.CategoryCompletion},
				{Code: "b()", RawScore: 90, Category: model.CategoryRefactor},
				{Code: "c()", RawScore: 50, Category: model.CategoryBoilerplate},
			}

			out := v.Filter(in, atEndOf(""), nil)
			Expect(out).To(Equal(in))
		})

		It("returns empty for an all-failing set", func() {
			in := []model.Candidate{candidate("}"), candidate(")")}
			Expect(v.Filter(in, atEndOf("x := 1"), nil)).To(BeEmpty())
		})
	})
})
