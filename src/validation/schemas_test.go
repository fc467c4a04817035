package validation_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/test_artefacts/stubs"
	"gamegraph/src/validation"
)

var _ = Describe("ValidateNode", func() {
	When("an activity has a valid schema", func() {
		It("should pass", func() {
			// ARRANGE
			node := stubs.NewNodeStub().
				WithType(entities.NodeTypeActivity).
				WithAttributes(map[string]any{
					"title": "Friday game night",
					"date":  "2026-10-02",
					"time":  "19:00",
				}).
				Get()

			// ACT
			result := validation.ValidateNode(node)

			// ASSERT
			Expect(result.Valid).To(BeTrue())
			Expect(result.Errors).To(BeEmpty())
		})
	})

	When("an activity misses several fields at once", func() {
		It("should accumulate every violation in a single pass", func() {
			// ARRANGE
			node := stubs.NewNodeStub().
				WithType(entities.NodeTypeActivity).
				WithAttributes(map[string]any{
					"title": "ab",
					"date":  "not-a-date",
				}).
				Get()

			// ACT
			result := validation.ValidateNode(node)

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("title must have at least")))
			Expect(result.Errors).To(ContainElement(ContainSubstring("date must be an ISO-8601")))
			Expect(result.Errors).To(ContainElement(ContainSubstring("time is required")))
		})
	})

	When("the node type is unknown", func() {
		It("should fail", func() {
			// ARRANGE
			node := stubs.NewNodeStub().WithType("spaceship").Get()

			// ACT
			result := validation.ValidateNode(node)

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("unknown node type")))
		})
	})

	When("the context is malformed", func() {
		It("should require the domain:scope format", func() {
			// ARRANGE
			node := stubs.NewNodeStub().WithContext("no-colon-here").Get()

			// ACT
			result := validation.ValidateNode(node)

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("domain:scope")))
		})
	})

	When("the visibility is not a known value", func() {
		It("should fail", func() {
			// ARRANGE
			node := stubs.NewNodeStub().WithVisibility("everyone").Get()

			// ACT
			result := validation.ValidateNode(node)

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("visibility must be one of")))
		})
	})

	When("a caller tries to write a derived attribute", func() {
		It("should reject the meta key", func() {
			// ARRANGE
			node := stubs.NewNodeStub().
				WithAttributes(map[string]any{
					"name":                     "Alice",
					entities.MetaOutgoingCount: int64(99),
				}).
				Get()

			// ACT
			result := validation.ValidateNode(node)

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("derived and read-only")))
		})
	})
})

var _ = Describe("ValidateRelationship", func() {
	When("the relationship envelope is complete", func() {
		It("should pass", func() {
			// ARRANGE
			rel := stubs.NewRelationshipStub().Get()

			// ACT
			result := validation.ValidateRelationship(rel)

			// ASSERT
			Expect(result.Valid).To(BeTrue())
		})
	})

	When("endpoints are missing", func() {
		It("should report both at once", func() {
			// ARRANGE
			rel := stubs.NewRelationshipStub().WithSourceID("").WithTargetID("").Get()

			// ACT
			result := validation.ValidateRelationship(rel)

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("source_id is required")))
			Expect(result.Errors).To(ContainElement(ContainSubstring("target_id is required")))
		})
	})

	When("the validity interval is inverted", func() {
		It("should fail", func() {
			// ARRANGE
			from := time.Now()
			until := from.Add(-time.Hour)
			rel := stubs.NewRelationshipStub().WithValidity(&from, &until).Get()

			// ACT
			result := validation.ValidateRelationship(rel)

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("valid_from must be before valid_until")))
		})
	})
})

var _ = Describe("AsError", func() {
	When("the result is valid", func() {
		It("should return nil", func() {
			Expect(validation.AsError(validation.Result{Valid: true})).To(Succeed())
		})
	})

	When("the result carries violations", func() {
		It("should convert them into the typed domain error", func() {
			// ACT
			err := validation.AsError(validation.Result{Valid: false, Errors: []string{"boom"}})

			// ASSERT
			var validationErr *domain.ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
			Expect(validationErr.Errors).To(ConsistOf("boom"))
		})
	})
})
