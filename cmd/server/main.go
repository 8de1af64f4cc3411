package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/adapters/event"
	"github.com/khoahotran/academic-records/adapters/filestore"
	httpAdapter "github.com/khoahotran/academic-records/adapters/http"
	"github.com/khoahotran/academic-records/adapters/media_storage"
	"github.com/khoahotran/academic-records/adapters/persistence"
	"github.com/khoahotran/academic-records/internal/application/service"
	academicUC "github.com/khoahotran/academic-records/internal/application/usecase/academic"
	uploadUC "github.com/khoahotran/academic-records/internal/application/usecase/upload"
	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/auth"
	"github.com/khoahotran/academic-records/pkg/logger"
	"github.com/khoahotran/academic-records/pkg/tracing"
)

func main() {
	fmt.Println("Start Academic Records API Server...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: cannot load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, "academic-api")
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}
	defer shutdownTracing(context.Background())

	// Storage
	academicRepo, closeRepo, err := persistence.NewAcademicRepository(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init academic repository", err)
	}
	defer closeRepo()

	var rateLimiter *httpAdapter.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		rateLimiter = httpAdapter.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, appLogger)
	}

	// Events
	var publisher service.EventPublisher = event.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("No Kafka brokers configured, academic events are dropped")
	}

	// Uploads
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}
	tempStore, err := filestore.NewTempStore(afero.NewOsFs(), cfg.Uploads.Dir, cfg.Uploads.Retention, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploads dir", err)
	}
	go filestore.RunSweeper(ctx, tempStore, cfg.Uploads.Retention/4)

	dest := uploadUC.Destination{Folder: cfg.Cloudinary.Folder, ResourceType: cfg.Cloudinary.ResourceType}

	// Use Cases
	upsertAcademicUseCase := academicUC.NewUpsertAcademicUseCase(academicRepo, publisher, appLogger)
	getAcademicUseCase := academicUC.NewGetAcademicUseCase(academicRepo, appLogger)
	updateAcademicUseCase := academicUC.NewUpdateAcademicUseCase(academicRepo, publisher, appLogger)
	createDetailsUseCase := academicUC.NewCreateAcademicDetailsUseCase(academicRepo, publisher, appLogger)
	uploadDocumentUseCase := uploadUC.NewUploadDocumentUseCase(academicRepo, tempStore, uploader, publisher, dest, appLogger)
	uploadFileUseCase := uploadUC.NewUploadFileUseCase(tempStore, uploader, dest, appLogger)

	// HTTP
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan, cfg.Auth.Issuer)
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:           appLogger,
		JWTService:       jwtSvc,
		RateLimiter:      rateLimiter,
		AllowOrigins:     cfg.CORS.AllowOrigins,
		CORSMaxAge:       cfg.CORS.MaxAge,
		ExposeErrorCause: !cfg.IsProduction(),
		AcademicHandler: httpAdapter.NewAcademicHandler(
			upsertAcademicUseCase,
			getAcademicUseCase,
			updateAcademicUseCase,
			createDetailsUseCase,
			appLogger,
		),
		UploadHandler: httpAdapter.NewUploadHandler(uploadDocumentUseCase, uploadFileUseCase, appLogger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	appLogger.Info("Server exited")
}
