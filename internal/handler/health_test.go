package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/edutoken/internal/handler"
	"github.com/jmerrifield20/edutoken/internal/health"
	"go.uber.org/zap"
)

func TestReadyHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	failing := false
	checker := health.New([]health.Probe{{Name: "ledger", Check: func(context.Context) error {
		if failing {
			return errors.New("broken")
		}
		return nil
	}}}, health.Config{FailThreshold: 1}, zap.NewNop())

	r := gin.New()
	r.GET("/readyz", handler.ReadyHandler(checker))

	checker.CheckAll(context.Background())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	failing = true
	checker.CheckAll(context.Background())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}
