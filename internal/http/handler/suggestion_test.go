package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"devassist.app/engine/internal/engine"
	"devassist.app/engine/internal/http/handler"
	"devassist.app/engine/internal/model"
)

var _ = Describe("SuggestionHandler", func() {
	var (
		router *gin.Engine
		eng    *mockEngine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		eng = &mockEngine{}
		h := handler.NewSuggestionHandler(eng)
		router.POST("/suggestions", h.Suggest)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/suggestions", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns ranked suggestions with serving metadata", func() {
		eng.generateFn = func(_ context.Context, req model.SuggestionRequest) (*model.SuggestionResponse, error) {
			Expect(req.FileID).To(Equal("main.go"))
			Expect(req.DeveloperID).To(Equal("dev-1"))
			return &model.SuggestionResponse{
				Suggestions: []model.Suggestion{
					{ID: "abc-0", Code: "x := 1", RelevanceScore: 92, Category: model.CategoryCompletion, Validated: true},
				},
				CacheHit:     true,
				Degradation:  model.DegradationReduced,
				ResponseTime: 12 * time.Millisecond,
			}, nil
		}

		w := post(`{"file_id":"main.go","cursor_position":10,"developer_id":"dev-1"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["cache_hit"]).To(BeTrue())
		Expect(resp["degradation"]).To(Equal("reduced"))
		Expect(resp["response_time_ms"]).To(BeNumerically("==", 12))
		Expect(resp["suggestions"]).To(HaveLen(1))
	})

	It("serves an empty suggestion list as 200, not an error", func() {
		eng.generateFn = func(_ context.Context, _ model.SuggestionRequest) (*model.SuggestionResponse, error) {
			return &model.SuggestionResponse{Suggestions: []model.Suggestion{}}, nil
		}

		w := post(`{"file_id":"main.go","cursor_position":0,"developer_id":"dev-1"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"suggestions":[]`))
	})

	It("returns 400 on malformed JSON", func() {
		w := post(`{`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 400 when required fields are missing", func() {
		w := post(`{"cursor_position":3}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps engine validation errors to 400", func() {
		eng.generateFn = func(_ context.Context, _ model.SuggestionRequest) (*model.SuggestionResponse, error) {
			return nil, fmt.Errorf("%w: bad cursor", engine.ErrInvalidRequest)
		}

		w := post(`{"file_id":"main.go","cursor_position":0,"developer_id":"dev-1"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 500 when the engine fails", func() {
		eng.generateFn = func(_ context.Context, _ model.SuggestionRequest) (*model.SuggestionResponse, error) {
			return nil, errors.New("boom")
		}

		w := post(`{"file_id":"main.go","cursor_position":0,"developer_id":"dev-1"}`)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
