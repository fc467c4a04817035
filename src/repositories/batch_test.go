package repositories

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("chunk", func() {
	ids := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("id-%03d", i)
		}
		return out
	}

	When("the input exceeds the chunk size", func() {
		It("should split 25 ids into chunks of 10, 10 and 5", func() {
			// ACT
			chunks := chunk(ids(25), batchGetChunkSize)

			// ASSERT
			Expect(chunks).To(HaveLen(3))
			Expect(chunks[0]).To(HaveLen(10))
			Expect(chunks[1]).To(HaveLen(10))
			Expect(chunks[2]).To(HaveLen(5))
		})

		It("should preserve the original order across chunks", func() {
			// ACT
			chunks := chunk(ids(25), batchGetChunkSize)

			// ASSERT
			var flattened []string
			for _, c := range chunks {
				flattened = append(flattened, c...)
			}
			Expect(flattened).To(Equal(ids(25)))
		})
	})

	When("the input fits in a single chunk", func() {
		It("should return one chunk", func() {
			Expect(chunk(ids(10), batchGetChunkSize)).To(HaveLen(1))
			Expect(chunk(ids(1), batchGetChunkSize)).To(HaveLen(1))
		})
	})

	When("the input is empty", func() {
		It("should return nothing", func() {
			Expect(chunk([]string(nil), batchGetChunkSize)).To(BeNil())
		})
	})

	When("writing a large batch", func() {
		It("should split 1001 mutations into chunks of 500, 500 and 1", func() {
			// ACT
			chunks := chunk(ids(1001), batchWriteChunkSize)

			// ASSERT
			Expect(chunks).To(HaveLen(3))
			Expect(chunks[0]).To(HaveLen(500))
			Expect(chunks[2]).To(HaveLen(1))
		})
	})
})
