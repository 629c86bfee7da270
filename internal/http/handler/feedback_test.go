package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"devassist.app/engine/internal/http/handler"
	"devassist.app/engine/internal/model"
)

var _ = Describe("FeedbackHandler", func() {
	var (
		router *gin.Engine
		eng    *mockEngine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		eng = &mockEngine{}
		h := handler.NewFeedbackHandler(eng)
		router.POST("/feedback", h.Record)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("accepts feedback and echoes the event id", func() {
		eng.feedbackFn = func(_ context.Context, event model.FeedbackEvent) (int64, error) {
			Expect(event.SuggestionID).To(Equal("abc-0"))
			Expect(event.Accepted).To(BeTrue())
			Expect(event.QualityRating).To(HaveValue(Equal(4)))
			return 42, nil
		}

		w := post(`{"suggestion_id":"abc-0","developer_id":"dev-1","accepted":true,"quality_rating":4}`)

		Expect(w.Code).To(Equal(http.StatusAccepted))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["event_id"]).To(Equal("42"))
	})

	It("accepts a rejection without a rating", func() {
		eng.feedbackFn = func(_ context.Context, event model.FeedbackEvent) (int64, error) {
			Expect(event.Accepted).To(BeFalse())
			Expect(event.QualityRating).To(BeNil())
			return 7, nil
		}

		w := post(`{"suggestion_id":"abc-0","developer_id":"dev-1","accepted":false}`)
		Expect(w.Code).To(Equal(http.StatusAccepted))
	})

	It("returns 400 when the accepted flag is missing", func() {
		w := post(`{"suggestion_id":"abc-0","developer_id":"dev-1"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	DescribeTable("rejects out-of-range quality ratings",
		func(rating int) {
			w := post(`{"suggestion_id":"abc-0","developer_id":"dev-1","accepted":true,"quality_rating":` + jsonInt(rating) + `}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		},
		Entry("zero", 0),
		Entry("six", 6),
	)
})

func jsonInt(n int) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
