package handler_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"devassist.app/engine/internal/http/handler"
	"devassist.app/engine/internal/model"
)

var _ = Describe("StandardsHandler", func() {
	var (
		router *gin.Engine
		writer *mockStandardsWriter
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		writer = &mockStandardsWriter{}
		h := handler.NewStandardsHandler(writer)
		router.PUT("/projects/:projectId/standards", h.Upsert)
	})

	It("stores the denylist and echoes the assigned version", func() {
		var got model.Standards
		writer.upsertFn = func(_ context.Context, standards model.Standards) (string, error) {
			got = standards
			return "7", nil
		}

		body := bytes.NewBufferString(`{"rules":[{"id":"no-eval","pattern":"\\beval\\("}]}`)
		req := httptest.NewRequest(http.MethodPut, "/projects/proj-1/standards", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"version":"7"`))
		Expect(got.ProjectID).To(Equal("proj-1"))
		Expect(got.Version).To(BeEmpty())
		Expect(got.Rules).To(HaveLen(1))
		Expect(got.Rules[0].ID).To(Equal("no-eval"))
	})

	It("passes a caller-supplied version through", func() {
		writer.upsertFn = func(_ context.Context, standards model.Standards) (string, error) {
			return standards.Version, nil
		}

		body := bytes.NewBufferString(`{"version":"2024.1","rules":[]}`)
		req := httptest.NewRequest(http.MethodPut, "/projects/proj-1/standards", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"version":"2024.1"`))
	})

	It("rejects a malformed body", func() {
		body := bytes.NewBufferString(`{"rules":`)
		req := httptest.NewRequest(http.MethodPut, "/projects/proj-1/standards", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps a store failure to 500", func() {
		writer.upsertFn = func(_ context.Context, _ model.Standards) (string, error) {
			return "", errors.New("db down")
		}

		body := bytes.NewBufferString(`{"rules":[]}`)
		req := httptest.NewRequest(http.MethodPut, "/projects/proj-1/standards", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
