package consistency_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/services/consistency"
	"gamegraph/src/test_artefacts/fakes"
	"gamegraph/src/test_artefacts/stubs"
)

// fakeActivityTracker grava o último Touch por contexto.
type fakeActivityTracker struct {
	mu      sync.Mutex
	touches map[string]time.Time
}

func newFakeActivityTracker() *fakeActivityTracker {
	return &fakeActivityTracker{touches: make(map[string]time.Time)}
}

func (f *fakeActivityTracker) Touch(ctx context.Context, contextScope string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches[contextScope] = at
	return nil
}

func (f *fakeActivityTracker) lastTouch(contextScope string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.touches[contextScope]
	return at, ok
}

var _ = Describe("Worker", func() {
	var (
		nodeStore *fakes.FakeNodeStore
		tracker   *fakeActivityTracker
		worker    *consistency.Worker
		ctx       context.Context
	)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	relationshipEvent := func(op string, sourceID string, targetID string) domain.ChangeEvent {
		rel := stubs.NewRelationshipStub().
			WithSourceID(sourceID).
			WithTargetID(targetID).
			WithType(entities.RelationshipTypeMemberOf).
			Get()

		return domain.ChangeEvent{
			Kind:         domain.ChangeKindRelationship,
			Op:           op,
			EntityID:     rel.ID,
			Relationship: &rel,
			OccurredAt:   time.Now().UTC(),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		nodeStore = fakes.NewFakeNodeStore()
		tracker = newFakeActivityTracker()
		worker = consistency.NewWorker(logger, nodeStore, tracker)

		nodeStore.Seed(
			stubs.NewNodeStub().WithID("alice").Get(),
			stubs.NewNodeStub().WithID("group-1").WithType(entities.NodeTypeGroup).Get(),
		)
	})

	Context("relationship events", func() {
		When("a relationship is created", func() {
			It("should increment the degree counters of both endpoints", func() {
				// ACT
				err := worker.HandleEvent(ctx, relationshipEvent(domain.ChangeOpCreated, "alice", "group-1"))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(nodeStore.MetaCounter("alice", entities.MetaOutgoingCount)).To(Equal(int64(1)))
				Expect(nodeStore.MetaCounter("group-1", entities.MetaIncomingCount)).To(Equal(int64(1)))
			})
		})

		When("a relationship is deleted", func() {
			It("should decrement the counters back", func() {
				// ARRANGE
				Expect(worker.HandleEvent(ctx, relationshipEvent(domain.ChangeOpCreated, "alice", "group-1"))).To(Succeed())
				Expect(worker.HandleEvent(ctx, relationshipEvent(domain.ChangeOpCreated, "alice", "group-1"))).To(Succeed())

				// ACT
				err := worker.HandleEvent(ctx, relationshipEvent(domain.ChangeOpDeleted, "alice", "group-1"))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(nodeStore.MetaCounter("alice", entities.MetaOutgoingCount)).To(Equal(int64(1)))
				Expect(nodeStore.MetaCounter("group-1", entities.MetaIncomingCount)).To(Equal(int64(1)))
			})

			It("should never drive a counter below zero", func() {
				// ACT
				err := worker.HandleEvent(ctx, relationshipEvent(domain.ChangeOpDeleted, "alice", "group-1"))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(nodeStore.MetaCounter("alice", entities.MetaOutgoingCount)).To(BeZero())
			})
		})

		When("a relationship is only updated", func() {
			It("should leave the degree counters untouched", func() {
				// ACT
				err := worker.HandleEvent(ctx, relationshipEvent(domain.ChangeOpUpdated, "alice", "group-1"))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(nodeStore.MetaCounter("alice", entities.MetaOutgoingCount)).To(BeZero())
				Expect(nodeStore.CallCount("AdjustMetaCounter")).To(BeZero())
			})
		})

		When("an endpoint no longer exists", func() {
			It("should accept the event without error", func() {
				// ACT
				err := worker.HandleEvent(ctx, relationshipEvent(domain.ChangeOpCreated, "alice", "ghost"))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(nodeStore.MetaCounter("alice", entities.MetaOutgoingCount)).To(Equal(int64(1)))
			})
		})
	})

	Context("node events", func() {
		nodeEvent := func(op string, changedKeys []string) domain.ChangeEvent {
			node := stubs.NewNodeStub().WithID("alice").WithContext("club:demo").Get()

			return domain.ChangeEvent{
				Kind:        domain.ChangeKindNode,
				Op:          op,
				EntityID:    node.ID,
				ChangedKeys: changedKeys,
				Node:        &node,
				OccurredAt:  time.Now().UTC(),
			}
		}

		When("a node is created", func() {
			It("should touch the context activity tracker", func() {
				// ACT
				err := worker.HandleEvent(ctx, nodeEvent(domain.ChangeOpCreated, nil))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				_, touched := tracker.lastTouch("club:demo")
				Expect(touched).To(BeTrue())
			})
		})

		When("an update only changed derived keys", func() {
			It("should ignore the event entirely", func() {
				// ACT
				err := worker.HandleEvent(ctx, nodeEvent(domain.ChangeOpUpdated, []string{entities.MetaOutgoingCount}))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				_, touched := tracker.lastTouch("club:demo")
				Expect(touched).To(BeFalse())
			})
		})

		When("an update mixes derived and caller keys", func() {
			It("should process the event", func() {
				// ACT
				err := worker.HandleEvent(ctx, nodeEvent(domain.ChangeOpUpdated, []string{entities.MetaOutgoingCount, "name"}))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				_, touched := tracker.lastTouch("club:demo")
				Expect(touched).To(BeTrue())
			})
		})

		When("a node is deleted", func() {
			It("should not touch the tracker", func() {
				// ACT
				err := worker.HandleEvent(ctx, nodeEvent(domain.ChangeOpDeleted, nil))

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				_, touched := tracker.lastTouch("club:demo")
				Expect(touched).To(BeFalse())
			})
		})
	})
})
