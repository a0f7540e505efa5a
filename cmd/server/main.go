package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/teacher-review-api/api/swagger"
	"github.com/noah-isme/teacher-review-api/internal/handler"
	internalmiddleware "github.com/noah-isme/teacher-review-api/internal/middleware"
	"github.com/noah-isme/teacher-review-api/internal/repository"
	"github.com/noah-isme/teacher-review-api/internal/service"
	"github.com/noah-isme/teacher-review-api/pkg/cache"
	"github.com/noah-isme/teacher-review-api/pkg/config"
	"github.com/noah-isme/teacher-review-api/pkg/database"
	"github.com/noah-isme/teacher-review-api/pkg/jobs"
	"github.com/noah-isme/teacher-review-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/teacher-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/teacher-review-api/pkg/middleware/requestid"
	"github.com/noah-isme/teacher-review-api/pkg/throttle"
)

// @title Teacher Review API
// @version 1.0.0
// @description Anonymous teacher reviews: search, aggregates, votes and submissions.
// @BasePath /api
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled and throttle kept local", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Cache.CourseTTL, logr, cfg.Cache.Enabled)
	}

	queue := jobs.NewQueue("background", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	queue.Register(service.JobInvalidateCourses, cacheSvc.InvalidateCoursesHandler())
	// Outlives the signal context so submissions finishing during the drain still enqueue.
	queue.Start(context.Background())
	defer queue.Stop()

	router := newRouter(cfg, logr, db, redisClient, cacheSvc, metricsSvc, queue)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(
	cfg *config.Config,
	logr *zap.Logger,
	db *sqlx.DB,
	redisClient *redis.Client,
	cacheSvc *service.CacheService,
	metricsSvc *service.MetricsService,
	queue *jobs.Queue,
) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	opts := []service.ReviewServiceOption{
		service.WithJobQueue(queue),
		service.WithExportLimit(cfg.Reviews.ExportLimit),
	}
	if cfg.Reviews.ThrottleEnabled {
		opts = append(opts, service.WithSubmissionGuard(
			throttle.NewGuard(throttleStore(cfg, redisClient), cfg.Reviews.SubmitCooldown, throttle.WithLogger(logr)),
		))
	}

	teacherSvc := service.NewTeacherService(teacherRepo, courseRepo, cacheSvc, metricsSvc, service.TeacherServiceConfig{
		RecentWindow:  cfg.Reviews.RecentWindow,
		DepartmentTTL: cfg.Cache.DepartmentTTL,
	}, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, metricsSvc, cfg.Courses.PopularLimit, cfg.Cache.CourseTTL, logr)
	reviewSvc := service.NewReviewService(reviewRepo, teacherRepo, metricsSvc, validator.New(), logr, opts...)

	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/teachers", teacherHandler.List)
	api.GET("/teachers/:id", teacherHandler.Get)
	api.GET("/teachers/:id/reviews", reviewHandler.ListByTeacher)
	api.GET("/teachers/:id/reviews/export", reviewHandler.Export)
	api.GET("/departments", teacherHandler.Departments)
	api.GET("/courses", courseHandler.List)
	api.POST("/submit-review", reviewHandler.Submit)
	api.POST("/reviews/vote", reviewHandler.Vote)

	return r
}

// throttleStore prefers Redis so the cooldown is shared across instances, then a JSON file when
// configured, then process memory.
func throttleStore(cfg *config.Config, redisClient *redis.Client) throttle.Store {
	switch {
	case redisClient != nil:
		return throttle.NewRedisStore(redisClient, "")
	case cfg.Reviews.ThrottleFile != "":
		return throttle.NewFileStore(cfg.Reviews.ThrottleFile)
	default:
		return throttle.NewMemoryStore()
	}
}
