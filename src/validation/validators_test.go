package validation_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gamegraph/src/validation"
)

var _ = Describe("FutureDate", func() {
	validator := validation.FutureDate("date")

	When("the date is ahead of now", func() {
		It("should pass for strings and time values", func() {
			// ARRANGE
			tomorrow := time.Now().Add(24 * time.Hour)

			// ACT / ASSERT
			Expect(validator(tomorrow.Format("2006-01-02")).Valid).To(BeTrue())
			Expect(validator(tomorrow).Valid).To(BeTrue())
		})
	})

	When("the date already passed", func() {
		It("should fail", func() {
			// ACT
			result := validator("2020-01-01")

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ContainElement(ContainSubstring("date must be in the future")))
		})
	})

	When("the value is malformed or not a date", func() {
		It("should defer the failure to the shape validator", func() {
			// A forma é papel do Date; aqui só o ordering importa.
			Expect(validator("not-a-date").Valid).To(BeTrue())
			Expect(validator(42).Valid).To(BeTrue())
		})
	})

	When("composed with Date over a past malformed pair", func() {
		It("should report only the shape violation", func() {
			// ARRANGE
			composed := validation.All(validation.Date("date"), validation.FutureDate("date"))

			// ACT
			result := composed("31/12/1999")

			// ASSERT
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(ConsistOf(ContainSubstring("date must be an ISO-8601")))
		})
	})
})
