package entities_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gamegraph/src/domain/entities"
)

var _ = Describe("Relationship", func() {
	Context("IsActiveAt", func() {
		var (
			validFrom  time.Time
			validUntil time.Time
			rel        entities.Relationship
		)

		BeforeEach(func() {
			validFrom = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			validUntil = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
			rel = entities.Relationship{ValidFrom: &validFrom, ValidUntil: &validUntil}
		})

		It("should be inactive before valid_from", func() {
			Expect(rel.IsActiveAt(validFrom.Add(-time.Second))).To(BeFalse())
		})

		It("should be active exactly at valid_from", func() {
			Expect(rel.IsActiveAt(validFrom)).To(BeTrue())
		})

		It("should be active just before valid_until", func() {
			Expect(rel.IsActiveAt(validUntil.Add(-time.Second))).To(BeTrue())
		})

		It("should be inactive exactly at valid_until", func() {
			Expect(rel.IsActiveAt(validUntil)).To(BeFalse())
		})

		When("no interval is set", func() {
			It("should always be active", func() {
				open := entities.Relationship{}
				Expect(open.IsActiveAt(time.Now())).To(BeTrue())
				Expect(open.IsActiveAt(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC))).To(BeTrue())
			})
		})

		When("only valid_from is set", func() {
			It("should stay active after the start forever", func() {
				openEnded := entities.Relationship{ValidFrom: &validFrom}
				Expect(openEnded.IsActiveAt(validFrom.AddDate(10, 0, 0))).To(BeTrue())
			})
		})
	})

	Context("DeterministicRelationshipID", func() {
		It("should be stable across calls", func() {
			first := entities.DeterministicRelationshipID("a", "b", "committed_to")
			second := entities.DeterministicRelationshipID("a", "b", "committed_to")
			Expect(first).To(Equal(second))
		})

		It("should change when any component of the shape changes", func() {
			base := entities.DeterministicRelationshipID("a", "b", "committed_to")
			Expect(entities.DeterministicRelationshipID("x", "b", "committed_to")).NotTo(Equal(base))
			Expect(entities.DeterministicRelationshipID("a", "x", "committed_to")).NotTo(Equal(base))
			Expect(entities.DeterministicRelationshipID("a", "b", "reserved")).NotTo(Equal(base))
		})

		It("should differ from the random id generator", func() {
			Expect(entities.NewRelationshipID()).NotTo(Equal(entities.NewRelationshipID()))
		})
	})
})
