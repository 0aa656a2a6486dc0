package domain_test

import (
	"docflow/domain"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("JsonColumns", func() {
	Describe("ReviewSequence", func() {
		It("should round-trip through its column value", func() {
			seq := domain.ReviewSequence{31, 32}
			value, err := seq.Value()
			Expect(err).To(BeNil())
			Expect(value).To(Equal(`["31","32"]`))

			parsed := domain.ReviewSequence{}
			Expect(parsed.Scan(value)).To(BeNil())
			Expect(parsed).To(Equal(seq))
		})

		It("should scan []byte and keep nil or empty input untouched", func() {
			parsed := domain.ReviewSequence{}
			Expect(parsed.Scan([]byte(`["31"]`))).To(BeNil())
			Expect(parsed).To(Equal(domain.ReviewSequence{31}))

			parsed = domain.ReviewSequence{}
			Expect(parsed.Scan(nil)).To(BeNil())
			Expect(len(parsed)).To(BeZero())
			Expect(parsed.Scan("")).To(BeNil())
			Expect(len(parsed)).To(BeZero())
		})

		It("should reject unsupported column types", func() {
			parsed := domain.ReviewSequence{}
			Expect(parsed.Scan(100)).ToNot(BeNil())
		})
	})

	Describe("JSONDocument", func() {
		It("should round-trip through its column value", func() {
			doc := domain.JSONDocument{"department": "QA"}
			value, err := doc.Value()
			Expect(err).To(BeNil())
			Expect(value).To(Equal(`{"department":"QA"}`))

			parsed := domain.JSONDocument{}
			Expect(parsed.Scan(value)).To(BeNil())
			Expect(parsed).To(Equal(doc))
		})
	})

	Describe("AdHocDefinition", func() {
		It("should round-trip the tagged step list", func() {
			def := domain.AdHocDefinition{Kind: domain.DefinitionKindAdHoc,
				Steps: []domain.AdHocStep{{Name: "Generated Review", RoleKey: "reviewer", AssignedTo: types.ID(31)}}}
			value, err := def.Value()
			Expect(err).To(BeNil())

			parsed := domain.AdHocDefinition{}
			Expect(parsed.Scan(value)).To(BeNil())
			Expect(parsed).To(Equal(def))
		})
	})

	Describe("MetadataBag", func() {
		It("should round-trip arbitrary keys", func() {
			bag := domain.MetadataBag{"sla_hours": "48"}
			value, err := bag.Value()
			Expect(err).To(BeNil())

			parsed := domain.MetadataBag{}
			Expect(parsed.Scan(value)).To(BeNil())
			Expect(parsed).To(Equal(bag))
		})
	})
})
