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

var _ = Describe("Traverse", func() {
	var (
		nodeStore         *fakes.FakeNodeStore
		relationshipStore *fakes.FakeRelationshipStore
		graphService      *graph.GraphService
		ctx               context.Context
	)

	member := func(id string) entities.Node {
		return stubs.NewNodeStub().WithID(id).Get()
	}

	edge := func(source string, target string, relType string) entities.Relationship {
		return stubs.NewRelationshipStub().
			WithID(source + "->" + target).
			WithSourceID(source).
			WithTargetID(target).
			WithType(relType).
			Get()
	}

	BeforeEach(func() {
		ctx = context.Background()
		nodeStore = fakes.NewFakeNodeStore()
		relationshipStore = fakes.NewFakeRelationshipStore()
		graphService = graph.NewGraphService(nodeStore, relationshipStore)
	})

	Context("parameter bounds", func() {
		When("depth is zero", func() {
			It("should reject the traversal", func() {
				// ACT
				result, err := graphService.Traverse(ctx, "a", nil, 0, graph.DirectionOutgoing)

				// ASSERT
				Expect(result).To(BeNil())
				Expect(err).To(MatchError(graph.ErrInvalidTraversal))
			})
		})

		When("depth exceeds the maximum", func() {
			It("should reject the traversal", func() {
				// ACT
				result, err := graphService.Traverse(ctx, "a", nil, 9, graph.DirectionOutgoing)

				// ASSERT
				Expect(result).To(BeNil())
				Expect(err).To(MatchError(graph.ErrInvalidTraversal))
			})
		})

		When("direction is unknown", func() {
			It("should reject the traversal", func() {
				// ACT
				result, err := graphService.Traverse(ctx, "a", nil, 2, "sideways")

				// ASSERT
				Expect(result).To(BeNil())
				Expect(err).To(MatchError(graph.ErrInvalidTraversal))
			})
		})

		When("the start node does not exist", func() {
			It("should return the not found error", func() {
				// ACT
				result, err := graphService.Traverse(ctx, "missing", nil, 2, graph.DirectionOutgoing)

				// ASSERT
				Expect(result).To(BeNil())
				Expect(err).To(MatchError(domain.ErrNodeNotFound))
			})
		})
	})

	Context("breadth-first expansion", func() {
		When("following member_of edges two levels out", func() {
			It("should collect the start node plus both levels", func() {
				// ARRANGE
				nodeStore.Seed(member("a"), member("b"), member("c"), member("d"))
				relationshipStore.Seed(
					edge("a", "b", entities.RelationshipTypeMemberOf),
					edge("b", "c", entities.RelationshipTypeMemberOf),
					edge("c", "d", entities.RelationshipTypeMemberOf),
				)

				// ACT
				result, err := graphService.Traverse(ctx, "a", []string{entities.RelationshipTypeMemberOf}, 2, graph.DirectionOutgoing)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(HaveLen(3))
				Expect(result).To(HaveKey("a"))
				Expect(result).To(HaveKey("b"))
				Expect(result).To(HaveKey("c"))
				Expect(result).NotTo(HaveKey("d"))
			})
		})

		When("the graph contains a cycle", func() {
			It("should fetch every node exactly once", func() {
				// ARRANGE
				nodeStore.Seed(member("a"), member("b"), member("c"))
				relationshipStore.Seed(
					edge("a", "b", entities.RelationshipTypeMemberOf),
					edge("b", "c", entities.RelationshipTypeMemberOf),
					edge("c", "a", entities.RelationshipTypeMemberOf),
				)

				// ACT
				result, err := graphService.Traverse(ctx, "a", []string{entities.RelationshipTypeMemberOf}, 8, graph.DirectionOutgoing)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(HaveLen(3))

				// Um fetch de relacionamentos e um de nós por nível com
				// fronteira não-vazia; o ciclo não gera refetches.
				Expect(relationshipStore.CallCount("GetBySourceIDs")).To(BeNumerically("<=", 3))
				Expect(nodeStore.CallCount("GetBatch")).To(Equal(2))
			})
		})

		When("an edge points at a deleted node", func() {
			It("should skip the dangling endpoint without failing", func() {
				// ARRANGE
				nodeStore.Seed(member("a"), member("b"))
				relationshipStore.Seed(
					edge("a", "b", entities.RelationshipTypeMemberOf),
					edge("a", "ghost", entities.RelationshipTypeMemberOf),
				)

				// ACT
				result, err := graphService.Traverse(ctx, "a", []string{entities.RelationshipTypeMemberOf}, 2, graph.DirectionOutgoing)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(HaveLen(2))
				Expect(result).NotTo(HaveKey("ghost"))
			})
		})

		When("traversing incoming edges", func() {
			It("should walk the graph against the arrows", func() {
				// ARRANGE
				nodeStore.Seed(member("group"), member("alice"), member("bob"))
				relationshipStore.Seed(
					edge("alice", "group", entities.RelationshipTypeMemberOf),
					edge("bob", "group", entities.RelationshipTypeMemberOf),
				)

				// ACT
				result, err := graphService.Traverse(ctx, "group", []string{entities.RelationshipTypeMemberOf}, 1, graph.DirectionIncoming)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(HaveLen(3))
				Expect(result).To(HaveKey("alice"))
				Expect(result).To(HaveKey("bob"))
			})
		})

		When("the relationship type filter matches nothing", func() {
			It("should return only the start node", func() {
				// ARRANGE
				nodeStore.Seed(member("a"), member("b"))
				relationshipStore.Seed(edge("a", "b", entities.RelationshipTypeMemberOf))

				// ACT
				result, err := graphService.Traverse(ctx, "a", []string{entities.RelationshipTypeOwns}, 3, graph.DirectionOutgoing)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(HaveLen(1))
				Expect(result).To(HaveKey("a"))
			})
		})
	})
})
