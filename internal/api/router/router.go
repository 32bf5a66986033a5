package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/philjnicholls/sendtokindle/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "sendtokindle-api",
		})
	})

	h := handler.NewHandler(deps)

	// Public submission endpoint
	r.POST("/api", h.SubmitPage)

	// Account registration and email verification
	r.POST("/register", h.Register)
	r.GET("/verify", h.Verify)

	// Out-of-band job status lookup
	v1 := r.Group("/api/v1")
	{
		v1.GET("/jobs/:job_id", h.GetJob)
	}

	return r
}
