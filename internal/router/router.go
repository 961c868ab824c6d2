package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/config"
	"github.com/ikkim/geonseol-backend/internal/app/controller"
	"github.com/ikkim/geonseol-backend/internal/middleware"
)

type Router struct {
	authController        *controller.AuthController
	datasetController     *controller.DatasetController
	billingController     *controller.BillingController
	backupController      *controller.BackupController
	spreadsheetController *controller.SpreadsheetController
	wsController          *controller.WSController
	authMiddleware        *middleware.AuthMiddleware
	config                *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	datasetController *controller.DatasetController,
	billingController *controller.BillingController,
	backupController *controller.BackupController,
	spreadsheetController *controller.SpreadsheetController,
	wsController *controller.WSController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:        authController,
		datasetController:     datasetController,
		billingController:     billingController,
		backupController:      backupController,
		spreadsheetController: spreadsheetController,
		wsController:          wsController,
		authMiddleware:        authMiddleware,
		config:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "GEONSEOL API is running",
		})
	})

	// 데이터 변경/보안 이벤트 (토큰은 쿼리 파라미터)
	router.GET("/ws", r.authMiddleware.Authenticate(), r.wsController.Connect)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/security-key/begin", r.authController.BeginSecurityKey)

			auth.Use(r.authMiddleware.Authenticate())
			auth.POST("/security-key", r.authController.SubmitSecurityKey)
			auth.POST("/security-key/stored", r.authController.UseStoredKey)
			auth.POST("/logout", r.authController.Logout)
			auth.GET("/session", r.authController.Session)
			auth.POST("/revalidate", r.authController.Revalidate)
		}

		// 빈 양식은 로그인 없이 내려받을 수 있음
		v1.GET("/templates/:name", r.spreadsheetController.Template)

		data := v1.Group("")
		data.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireWorkspace())
		{
			data.GET("/users", r.authMiddleware.RequireAdmin(), r.authController.ListUsers)
			data.GET("/stats", r.datasetController.Stats)

			datasets := data.Group("/datasets")
			{
				datasets.GET("/:name", r.datasetController.Get)
				datasets.PUT("/:name", r.datasetController.Replace)
			}

			clients := data.Group("/clients")
			{
				clients.GET("/summaries", r.datasetController.ClientSummaries)
				clients.GET("/:id/summary", r.datasetController.ClientSummary)
				clients.GET("/:id/completed-work-items", r.billingController.CompletedWorkItems)
			}

			invoices := data.Group("/invoices")
			{
				invoices.POST("", r.billingController.CreateInvoice)
				invoices.GET("/:id/amount-words", r.billingController.AmountWords)
				invoices.GET("/:id/xlsx", r.spreadsheetController.ExportInvoice)
			}

			estimates := data.Group("/estimates")
			{
				estimates.POST("", r.billingController.CreateEstimate)
				estimates.POST("/:id/convert", r.billingController.ConvertEstimate)
			}

			data.GET("/backup", r.backupController.Export)
			data.POST("/backup/restore", r.backupController.Restore)

			data.GET("/export/:name", r.spreadsheetController.Export)
			data.POST("/import/:name", r.spreadsheetController.Import)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
