package store

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("accuracyPercent", func() {
	DescribeTable("reports acceptance on the controller's 0-100 scale",
		func(accepted, total int, want float64) {
			Expect(accuracyPercent(accepted, total)).To(BeNumerically("~", want, 0.001))
		},
		Entry("empty window", 0, 0, 0.0),
		Entry("all rejected", 0, 4, 0.0),
		Entry("three of four", 3, 4, 75.0),
		Entry("all accepted", 5, 5, 100.0),
	)
})
