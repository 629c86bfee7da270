package queue_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"devassist.app/engine/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	validValues := func() map[string]any {
		return map[string]any{
			"task_type":     "feedback",
			"event_id":      "1234567890",
			"suggestion_id": "00000000deadbeef-0",
			"developer_id":  "dev-1",
			"accepted":      "true",
			"timestamp_ms":  "1756700000000",
			"attempt":       "2",
		}
	}

	It("parses a complete feedback message", func() {
		msg, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: validValues()})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.EventID).To(Equal(int64(1234567890)))
		Expect(msg.SuggestionID).To(Equal("00000000deadbeef-0"))
		Expect(msg.DeveloperID).To(Equal("dev-1"))
		Expect(msg.Accepted).To(BeTrue())
		Expect(msg.Attempt).To(Equal(2))
		Expect(msg.Timestamp).To(Equal(time.UnixMilli(1756700000000).UTC()))
		Expect(msg.QualityRating).To(BeNil())
	})

	It("carries an optional quality rating", func() {
		values := validValues()
		values["quality_rating"] = "4"

		msg, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.QualityRating).To(HaveValue(Equal(4)))
	})

	It("defaults attempt to 1 when absent", func() {
		values := validValues()
		delete(values, "attempt")

		msg, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
	})

	It("rejects an unknown task type", func() {
		values := validValues()
		values["task_type"] = "issue_event"

		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})

		Expect(err).To(MatchError(ContainSubstring("unknown task_type")))
	})

	DescribeTable("rejects messages missing required fields",
		func(field string) {
			values := validValues()
			delete(values, field)

			_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})

			Expect(err).To(MatchError(ContainSubstring(field)))
		},
		Entry("no event id", "event_id"),
		Entry("no suggestion id", "suggestion_id"),
		Entry("no developer id", "developer_id"),
		Entry("no accepted flag", "accepted"),
		Entry("no timestamp", "timestamp_ms"),
	)

	It("converts back to the domain event", func() {
		msg, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: validValues()})
		Expect(err).NotTo(HaveOccurred())

		event := msg.Event()
		Expect(event.ID).To(Equal(msg.EventID))
		Expect(event.SuggestionID).To(Equal(msg.SuggestionID))
		Expect(event.DeveloperID).To(Equal(msg.DeveloperID))
		Expect(event.Accepted).To(Equal(msg.Accepted))
		Expect(event.Timestamp).To(Equal(msg.Timestamp))
	})
})
