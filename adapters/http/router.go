package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khoahotran/academic-records/internal/domain/upload"
	"github.com/khoahotran/academic-records/pkg/auth"
	"github.com/khoahotran/academic-records/pkg/logger"
)

// multipartOverhead is headroom for form fields and part headers on top of
// the largest accepted file.
const multipartOverhead = 1 << 20

type RouterConfig struct {
	Logger           logger.Logger
	JWTService       *auth.JWTService
	RateLimiter      *RateLimiter
	AllowOrigins     []string
	CORSMaxAge       time.Duration
	ExposeErrorCause bool
	AcademicHandler  *AcademicHandler
	UploadHandler    *UploadHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", HeaderRequestID},
		ExposeHeaders:    []string{HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           cfg.CORSMaxAge,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	router.Use(
		RequestID(),
		RequestLogger(cfg.Logger),
		ErrorMiddleware(cfg.Logger, cfg.ExposeErrorCause),
		SecurityHeaders(),
		cors.New(corsConfig),
	)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	api := router.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware())
	}
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		academic := api.Group("/academic")
		academic.Use(AuthMiddleware(cfg.JWTService, cfg.Logger))
		{
			academic.POST("", cfg.AcademicHandler.UpsertAcademic)
			academic.GET("", cfg.AcademicHandler.GetAcademic)
			academic.PUT("", cfg.AcademicHandler.UpdateAcademic)
			academic.POST("/details", cfg.AcademicHandler.CreateAcademicDetails)

			documentPolicy, _ := upload.PolicyFor(upload.CategoryDocument)
			imagePolicy, _ := upload.PolicyFor(upload.CategoryImage)
			academic.POST("/upload-document", LimitBody(documentPolicy.MaxSize+multipartOverhead), cfg.UploadHandler.UploadDocument)
			academic.POST("/upload", LimitBody(imagePolicy.MaxSize+multipartOverhead), cfg.UploadHandler.UploadFile)
		}
	}

	return router
}
