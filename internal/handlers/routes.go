package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"retail-ops-api/internal/middleware"
	"retail-ops-api/internal/services"
)

// RouterConfig holds the dependencies and knobs for route setup
type RouterConfig struct {
	Services       *services.ServiceContainer
	AuthService    *middleware.AuthService
	AllowedOrigins []string

	// RateLimitPerSecond of 0 disables rate limiting
	RateLimitPerSecond int
	RateLimitBurst     int

	MaxRequestBytes int64
}

// SetupRoutes builds the gin engine with all middleware and API routes
func SetupRoutes(config *RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(config.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestValidation())
	router.Use(middleware.ContentTypeValidation())
	router.Use(middleware.PerformanceMonitor(time.Second))

	if config.MaxRequestBytes > 0 {
		router.Use(middleware.RequestSizeLimit(config.MaxRequestBytes))
	}
	if config.RateLimitPerSecond > 0 {
		router.Use(middleware.RateLimiter(float64(config.RateLimitPerSecond), config.RateLimitBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "retail-ops-api",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	authHandler := NewAuthHandler(config.AuthService, config.Services.UserService)
	productHandler := NewProductHandler(config.Services.CatalogService)
	userHandler := NewUserHandler(config.Services.UserService)
	orderHandler := NewOrderHandler(config.Services.OrderService)
	noticeHandler := NewDemandNoticeHandler(config.Services.DemandNoticeService)
	quotationHandler := NewQuotationHandler(config.Services.QuotationService)
	reportHandler := NewReportHandler(config.Services.ShiftService, config.Services.ExportService)
	settingsHandler := NewSettingsHandler(config.Services.SettingsService)

	v1 := router.Group("/api/v1")

	// Public authentication endpoints
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// Everything below requires a valid token. The middleware reloads the
	// user record so role changes apply without re-login.
	authed := v1.Group("")
	authed.Use(middleware.Authentication(config.AuthService, config.Services.UserService))
	authed.Use(middleware.AuditLogger())

	authed.GET("/auth/me", authHandler.GetCurrentUser)
	authed.POST("/auth/logout", authHandler.Logout)

	products := authed.Group("/products")
	{
		products.POST("", productHandler.CreateProduct)
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.PUT("/:id", productHandler.UpdateProduct)
		products.DELETE("/:id", productHandler.DeleteProduct)
		products.POST("/:id/receive-stock", productHandler.ReceiveStock)
	}

	users := authed.Group("/users")
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	orders := authed.Group("/orders")
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/payments", orderHandler.RecordPayment)
		orders.POST("/:id/returns", orderHandler.ProcessReturn)
		orders.PATCH("/:id/status", orderHandler.UpdateStatus)
		orders.PATCH("/:id/delivery-status", orderHandler.UpdateDeliveryStatus)
	}

	notices := authed.Group("/demand-notices")
	{
		notices.POST("", noticeHandler.Create)
		notices.GET("", noticeHandler.List)
		notices.GET("/:id", noticeHandler.Get)
		notices.POST("/:id/advance-payments", noticeHandler.RecordAdvancePayment)
		notices.PATCH("/:id/status", noticeHandler.UpdateStatus)
		notices.POST("/:id/prepare-order", noticeHandler.PrepareOrder)
	}

	quotations := authed.Group("/quotations")
	{
		quotations.POST("", quotationHandler.Create)
		quotations.GET("", quotationHandler.List)
		quotations.GET("/:id", quotationHandler.Get)
		quotations.PUT("/:id", quotationHandler.Update)
		quotations.PATCH("/:id/status", quotationHandler.UpdateStatus)
		quotations.POST("/:id/convert-internal", quotationHandler.ConvertInternalItems)
		quotations.POST("/:id/convert-external", quotationHandler.ConvertExternalItems)
	}

	reports := authed.Group("/reports")
	{
		reports.GET("/shift", reportHandler.ShiftSummary)
		reports.GET("/commission", orderHandler.CommissionReport)
	}

	exports := authed.Group("/exports")
	{
		exports.POST("", reportHandler.Export)
		exports.POST("/download", reportHandler.DownloadExport)
	}

	settings := authed.Group("/settings")
	{
		settings.GET("/commission", settingsHandler.GetCommissionSetting)
		settings.PUT("/commission", settingsHandler.UpdateCommissionSetting)
		settings.GET("/taxes", settingsHandler.GetTaxSettings)
		settings.PUT("/taxes", settingsHandler.UpdateTaxSettings)
	}

	return router
}
