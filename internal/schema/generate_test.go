package schema_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tekup/cursorhooks/internal/schema"
)

var _ = Describe("Generate", func() {
	var s map[string]any

	BeforeEach(func() {
		data, err := schema.GenerateJSON(true)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(HaveSuffix("\n"))
		Expect(json.Unmarshal(data, &s)).To(Succeed())
	})

	It("sets the $schema URI", func() {
		Expect(s["$schema"]).To(Equal("https://json-schema.org/draft/2020-12/schema"))
	})

	It("publishes under a stable file name", func() {
		Expect(schema.Filename()).To(Equal("hooks.schema.json"))
	})

	It("sets the title", func() {
		Expect(s["title"]).To(Equal("cursorhooks configuration"))
	})

	It("includes top-level properties", func() {
		props, ok := s["properties"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(props).To(HaveKey("hooks"))
		Expect(props).To(HaveKey("execution"))
		Expect(props).To(HaveKey("resolver"))
	})

	Describe("definitions", func() {
		var defs map[string]any

		BeforeEach(func() {
			var ok bool

			defs, ok = s["$defs"].(map[string]any)
			Expect(ok).To(BeTrue(), "$defs should exist")
		})

		It("lists every category under hooks", func() {
			hooks, ok := defs["HooksConfig"].(map[string]any)
			Expect(ok).To(BeTrue())

			props, ok := hooks["properties"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(props).To(HaveKey("pre-execution"))
			Expect(props).To(HaveKey("post-execution"))
			Expect(props).To(HaveKey("error"))
			Expect(props).To(HaveKey("context"))
		})

		It("requires descriptor names and files", func() {
			desc, ok := defs["Descriptor"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(desc["required"]).To(ContainElements("name", "file"))
		})

		It("bounds the execution timeout", func() {
			exec, ok := defs["ExecutionConfig"].(map[string]any)
			Expect(ok).To(BeTrue())

			props := exec["properties"].(map[string]any)
			timeout := props["timeout"].(map[string]any)
			Expect(timeout["type"]).To(Equal("integer"))
			Expect(timeout["minimum"]).To(BeNumerically("==", 1))
			Expect(timeout["default"]).To(BeNumerically("==", 30000))
		})
	})
})
