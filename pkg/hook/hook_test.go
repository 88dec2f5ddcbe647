package hook_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tekup/cursorhooks/pkg/hook"
)

var _ = Describe("Category", func() {
	It("enumerates the categories in a fixed order", func() {
		Expect(hook.Categories()).To(Equal([]hook.Category{
			hook.CategoryPreExecution,
			hook.CategoryPostExecution,
			hook.CategoryError,
			hook.CategoryContext,
		}))
	})

	DescribeTable("ParseCategory",
		func(input string, expected hook.Category, valid bool) {
			c, err := hook.ParseCategory(input)
			if !valid {
				Expect(err).To(MatchError(hook.ErrInvalidCategory))

				return
			}

			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(expected))
		},
		Entry("pre-execution", "pre-execution", hook.CategoryPreExecution, true),
		Entry("post-execution", "post-execution", hook.CategoryPostExecution, true),
		Entry("error", "error", hook.CategoryError, true),
		Entry("context", "context", hook.CategoryContext, true),
		Entry("wrong case", "Error", hook.Category(""), false),
		Entry("empty", "", hook.Category(""), false),
	)
})

var _ = Describe("Context", func() {
	It("stamps an ISO-8601 UTC timestamp with milliseconds", func() {
		at := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("CET", 3600))
		Expect(hook.Timestamp(at)).To(Equal("2025-01-02T02:04:05.006Z"))

		hc := hook.NewContext(hook.CategoryContext)
		Expect(hc.Category).To(Equal(hook.CategoryContext))
		_, err := time.Parse(time.RFC3339Nano, hc.Timestamp)
		Expect(err).NotTo(HaveOccurred())
	})

	It("clones deeply", func() {
		line := 4
		hc := &hook.Context{Command: "c", Line: &line, Files: []string{"a"}}

		clone := hc.Clone()
		*clone.Line = 9
		clone.Files[0] = "b"

		Expect(*hc.Line).To(Equal(4))
		Expect(hc.Files).To(Equal([]string{"a"}))
		Expect(clone.Command).To(Equal("c"))
	})

	It("clones nil into a fresh context", func() {
		var hc *hook.Context

		clone := hc.Clone()
		Expect(clone).NotTo(BeNil())
		Expect(clone.Timestamp).NotTo(BeEmpty())
	})

	It("lists changed files including the context file once", func() {
		Expect((&hook.Context{Files: []string{"a", "b"}, File: "c"}).ChangedFiles()).
			To(Equal([]string{"a", "b", "c"}))
		Expect((&hook.Context{Files: []string{"a", "b"}, File: "a"}).ChangedFiles()).
			To(Equal([]string{"a", "b"}))
		Expect((&hook.Context{}).ChangedFiles()).To(BeEmpty())
	})
})

var _ = Describe("Options", func() {
	It("defaults to sequential without stop on error and a 30s timeout", func() {
		Expect(hook.DefaultOptions()).To(Equal(hook.Options{Timeout: 30 * time.Second}))
	})

	It("merges options over the base", func() {
		base := hook.Options{Parallel: true, Timeout: time.Second}

		merged := base.Apply(hook.WithStopOnError(true), nil, hook.WithTimeout(-1))
		Expect(merged).To(Equal(hook.Options{Parallel: true, StopOnError: true, Timeout: time.Second}))
		Expect(base.StopOnError).To(BeFalse())
	})

	It("restores the default timeout when the base has none", func() {
		Expect(hook.Options{}.Apply().Timeout).To(Equal(hook.DefaultTimeout))
	})
})

var _ = Describe("Result", func() {
	It("builds passing and failing results", func() {
		Expect(hook.Pass(1)).To(Equal(hook.Result{Success: true, Data: 1}))
		Expect(hook.Fail("x")).To(Equal(hook.Result{Error: "x"}))
	})
})
