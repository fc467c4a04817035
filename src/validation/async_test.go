package validation_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gamegraph/src/domain/entities"
	"gamegraph/src/test_artefacts/fakes"
	"gamegraph/src/test_artefacts/stubs"
	"gamegraph/src/validation"
)

var _ = Describe("RunPipeline", func() {
	var (
		nodeStore         *fakes.FakeNodeStore
		relationshipStore *fakes.FakeRelationshipStore
		ctx               context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		nodeStore = fakes.NewFakeNodeStore()
		relationshipStore = fakes.NewFakeRelationshipStore()
	})

	When("every step passes", func() {
		It("should return a valid result", func() {
			// ARRANGE
			node := stubs.NewNodeStub().WithID("alice").WithContext("club:demo").Get()
			nodeStore.Seed(node)

			// ACT
			result, err := validation.RunPipeline(ctx,
				validation.ContextExists(nodeStore, "club:demo"),
				validation.NodeExists(nodeStore, "alice"),
			)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Valid).To(BeTrue())
		})
	})

	When("multiple steps fail", func() {
		It("should accumulate every failure instead of stopping at the first", func() {
			// ACT
			result, err := validation.RunPipeline(ctx,
				validation.ContextExists(nodeStore, "club:empty"),
				validation.NodeExists(nodeStore, "ghost"),
			)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(HaveLen(2))
		})
	})

	When("the context is cancelled mid-pipeline", func() {
		It("should stop and surface the context error", func() {
			// ARRANGE
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			// ACT
			_, err := validation.RunPipeline(cancelled,
				validation.NodeExists(nodeStore, "whatever"),
			)

			// ASSERT
			Expect(err).To(MatchError(context.Canceled))
			Expect(nodeStore.CallCount("Get")).To(BeZero())
		})
	})

	Context("ResourceAvailable", func() {
		When("the resource has an active commitment", func() {
			It("should fail", func() {
				// ARRANGE
				validFrom := time.Now().Add(-time.Hour)
				relationshipStore.Seed(
					stubs.NewRelationshipStub().
						WithSourceID("game-1").
						WithType(entities.RelationshipTypeCommittedTo).
						WithValidity(&validFrom, nil).
						Get(),
				)

				// ACT
				result, err := validation.RunPipeline(ctx, validation.ResourceAvailable(relationshipStore, "game-1"))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Valid).To(BeFalse())
				Expect(result.Errors).To(ContainElement(ContainSubstring("active commitment")))
			})
		})

		When("the only commitment already expired", func() {
			It("should pass", func() {
				// ARRANGE
				validFrom := time.Now().Add(-48 * time.Hour)
				validUntil := time.Now().Add(-24 * time.Hour)
				relationshipStore.Seed(
					stubs.NewRelationshipStub().
						WithSourceID("game-1").
						WithType(entities.RelationshipTypeCommittedTo).
						WithValidity(&validFrom, &validUntil).
						Get(),
				)

				// ACT
				result, err := validation.RunPipeline(ctx, validation.ResourceAvailable(relationshipStore, "game-1"))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Valid).To(BeTrue())
			})
		})
	})
})
