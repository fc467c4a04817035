package graph_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/services/graph"
	"gamegraph/src/test_artefacts/fakes"
	"gamegraph/src/test_artefacts/stubs"
)

var _ = Describe("GetNodeWithRelationships", func() {
	var (
		nodeStore         *fakes.FakeNodeStore
		relationshipStore *fakes.FakeRelationshipStore
		graphService      *graph.GraphService
		ctx               context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		nodeStore = fakes.NewFakeNodeStore()
		relationshipStore = fakes.NewFakeRelationshipStore()
		graphService = graph.NewGraphService(nodeStore, relationshipStore)
	})

	When("the node does not exist", func() {
		It("should return the not found error", func() {
			// ACT
			result, err := graphService.GetNodeWithRelationships(ctx, "missing", graph.NeighborhoodOptions{})

			// ASSERT
			Expect(result).To(BeNil())
			Expect(err).To(MatchError(domain.ErrNodeNotFound))
		})
	})

	When("the node has edges in both directions", func() {
		It("should split them into outgoing and incoming", func() {
			// ARRANGE
			activity := stubs.NewNodeStub().WithID("activity-1").WithType(entities.NodeTypeActivity).Get()
			nodeStore.Seed(activity)

			relationshipStore.Seed(
				stubs.NewRelationshipStub().
					WithSourceID("activity-1").
					WithTargetID("activity-1").
					WithType(entities.RelationshipTypeNeeds).
					Get(),
				stubs.NewRelationshipStub().
					WithSourceID("alice").
					WithTargetID("activity-1").
					WithType(entities.RelationshipTypeParticipatesIn).
					Get(),
				stubs.NewRelationshipStub().
					WithSourceID("bob").
					WithTargetID("activity-1").
					WithType(entities.RelationshipTypeParticipatesIn).
					Get(),
			)

			// ACT
			result, err := graphService.GetNodeWithRelationships(ctx, "activity-1", graph.NeighborhoodOptions{})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Node.ID).To(Equal("activity-1"))
			Expect(result.Outgoing).To(HaveLen(1))

			// O self-loop da necessidade aparece também como incoming.
			Expect(result.Incoming).To(HaveLen(3))
		})
	})

	When("direction-specific type filters are set", func() {
		It("should apply each filter to its own direction only", func() {
			// ARRANGE
			group := stubs.NewNodeStub().WithID("group-1").WithType(entities.NodeTypeGroup).Get()
			nodeStore.Seed(group)

			relationshipStore.Seed(
				stubs.NewRelationshipStub().
					WithSourceID("group-1").
					WithTargetID("game-1").
					WithType(entities.RelationshipTypeOwns).
					Get(),
				stubs.NewRelationshipStub().
					WithSourceID("alice").
					WithTargetID("group-1").
					WithType(entities.RelationshipTypeMemberOf).
					Get(),
				stubs.NewRelationshipStub().
					WithSourceID("activity-1").
					WithTargetID("group-1").
					WithType(entities.RelationshipTypeOrganizes).
					Get(),
			)

			// ACT
			result, err := graphService.GetNodeWithRelationships(ctx, "group-1", graph.NeighborhoodOptions{
				IncomingTypes: []string{entities.RelationshipTypeMemberOf},
			})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outgoing).To(HaveLen(1))
			Expect(result.Incoming).To(HaveLen(1))
			Expect(result.Incoming[0].Type).To(Equal(entities.RelationshipTypeMemberOf))
		})
	})
})
