package matching_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/services/matching"
	"gamegraph/src/test_artefacts/fakes"
	"gamegraph/src/test_artefacts/stubs"
)

var _ = Describe("CommitResourceToNeed", func() {
	var (
		nodeStore         *fakes.FakeNodeStore
		relationshipStore *fakes.FakeRelationshipStore
		matchingService   *matching.MatchingService
		ctx               context.Context
	)

	const contextScope = "club:demo"

	seedNeed := func(needID string, needType string) {
		relationshipStore.Seed(
			stubs.NewRelationshipStub().
				WithID(needID).
				WithSourceID("activity-1").
				WithTargetID("activity-1").
				WithType(entities.RelationshipTypeNeeds).
				WithAttributes(map[string]any{"need_type": needType}).
				Get(),
		)
	}

	seedResource := func(id string, capabilities ...any) {
		nodeStore.Seed(
			stubs.NewNodeStub().
				WithID(id).
				WithType(entities.NodeTypeResource).
				WithContext(contextScope).
				WithCapabilities(capabilities...).
				Get(),
		)
	}

	BeforeEach(func() {
		ctx = context.Background()
		nodeStore = fakes.NewFakeNodeStore()
		relationshipStore = fakes.NewFakeRelationshipStore()
		matchingService = matching.NewMatchingService(nodeStore, relationshipStore)
	})

	When("the resource matches and is free", func() {
		It("should create an active committed_to relationship", func() {
			// ARRANGE
			seedNeed("need-1", "strategy")
			seedResource("game-1", "strategy")

			// ACT
			commitment, err := matchingService.CommitResourceToNeed(ctx, "game-1", "need-1", "activity-1", "alice")

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(commitment.SourceID).To(Equal("game-1"))
			Expect(commitment.TargetID).To(Equal("need-1"))
			Expect(commitment.Type).To(Equal(entities.RelationshipTypeCommittedTo))
			Expect(commitment.ValidFrom).NotTo(BeNil())
			Expect(commitment.IsActiveAt(time.Now())).To(BeTrue())
			Expect(commitment.Attributes["activity_id"]).To(Equal("activity-1"))

			// O id é determinístico sobre (source, target, type).
			Expect(commitment.ID).To(Equal(entities.DeterministicRelationshipID("game-1", "need-1", entities.RelationshipTypeCommittedTo)))
		})

		It("should make the resource unavailable for later matches", func() {
			// ARRANGE
			seedNeed("need-1", "strategy")
			seedResource("game-1", "strategy")

			_, err := matchingService.CommitResourceToNeed(ctx, "game-1", "need-1", "activity-1", "alice")
			Expect(err).NotTo(HaveOccurred())

			// ACT
			matches, err := matchingService.MatchResourcesForActivity(ctx, "activity-1", contextScope)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].AvailableResources).To(BeEmpty())
		})
	})

	When("the resource lacks the needed capability", func() {
		It("should refuse with the unavailable error", func() {
			// ARRANGE
			seedNeed("need-1", "strategy")
			seedResource("game-1", "party")

			// ACT
			commitment, err := matchingService.CommitResourceToNeed(ctx, "game-1", "need-1", "activity-1", "alice")

			// ASSERT
			Expect(commitment).To(BeNil())
			Expect(err).To(MatchError(matching.ErrResourceUnavailable))
		})
	})

	When("the resource is already committed elsewhere", func() {
		It("should refuse with the unavailable error", func() {
			// ARRANGE
			seedNeed("need-1", "strategy")
			seedResource("game-1", "strategy")

			validFrom := time.Now().Add(-time.Hour)
			relationshipStore.Seed(
				stubs.NewRelationshipStub().
					WithSourceID("game-1").
					WithTargetID("need-other").
					WithType(entities.RelationshipTypeReserved).
					WithValidity(&validFrom, nil).
					Get(),
			)

			// ACT
			_, err := matchingService.CommitResourceToNeed(ctx, "game-1", "need-1", "activity-1", "alice")

			// ASSERT
			Expect(err).To(MatchError(matching.ErrResourceUnavailable))
		})
	})

	When("two callers race for the same commitment", func() {
		It("should hand the loser the already committed error", func() {
			// ARRANGE
			seedNeed("need-1", "strategy")
			seedResource("game-1", "strategy")

			winner, err := matchingService.CommitResourceToNeed(ctx, "game-1", "need-1", "activity-1", "alice")
			Expect(err).NotTo(HaveOccurred())

			// Simula o segundo caller que passou pela checagem antes do
			// commit do primeiro: o estado já tem o relacionamento.
			commitment := entities.Relationship{
				ID:        winner.ID,
				SourceID:  "game-1",
				TargetID:  "need-1",
				Type:      entities.RelationshipTypeCommittedTo,
				CreatedBy: "bob",
			}

			// ACT
			_, wasCreated, err := relationshipStore.CreateIfAbsent(ctx, commitment)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(wasCreated).To(BeFalse())
		})
	})

	When("the need does not exist", func() {
		It("should propagate the not found error", func() {
			// ARRANGE
			seedResource("game-1", "strategy")

			// ACT
			_, err := matchingService.CommitResourceToNeed(ctx, "game-1", "need-missing", "activity-1", "alice")

			// ASSERT
			Expect(err).To(MatchError(domain.ErrRelationshipNotFound))
		})
	})
})
