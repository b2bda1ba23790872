package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invoicegen/internal/assets"
	"invoicegen/internal/config"
	"invoicegen/internal/handler"
	"invoicegen/internal/router"
	"invoicegen/mocks"
)

func TestSetup_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := new(mocks.MockAssetProvider)
	provider.On("Get", mock.Anything, assets.FontRegular).Return(&assets.Asset{}, nil)

	cfg := &config.Config{
		Batch: config.BatchConfig{MaxUploadMB: 1},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	r := router.Setup(cfg, nil, handler.NewInvoiceHandler(new(mocks.MockInvoiceService)), handler.NewHealthHandler(provider))

	routes := map[string]bool{}
	for _, ri := range r.Routes() {
		routes[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"GET /swagger/*any",
		"POST /api/v1/invoices",
		"POST /api/v1/invoices/batch",
		"POST /api/v1/invoices/batch/validate",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
