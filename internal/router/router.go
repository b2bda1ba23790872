package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"invoicegen/internal/config"
	"invoicegen/internal/handler"
	"invoicegen/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	log *zap.Logger,
	invoiceH *handler.InvoiceHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Multipart bodies beyond this spill to temp files.
	r.MaxMultipartMemory = (cfg.Batch.MaxUploadMB + 1) << 20

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	invoices := v1.Group("/invoices")
	invoices.POST("", invoiceH.Generate)
	invoices.POST("/batch", invoiceH.GenerateBatch)
	invoices.POST("/batch/validate", invoiceH.ValidateBatch)

	return r
}
