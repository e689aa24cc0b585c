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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-dashboard-api/api/swagger"
	"github.com/noah-isme/school-dashboard-api/internal/handler"
	"github.com/noah-isme/school-dashboard-api/internal/middleware"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/repository"
	"github.com/noah-isme/school-dashboard-api/internal/service"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	"github.com/noah-isme/school-dashboard-api/pkg/cache"
	"github.com/noah-isme/school-dashboard-api/pkg/config"
	"github.com/noah-isme/school-dashboard-api/pkg/database"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
	"github.com/noah-isme/school-dashboard-api/pkg/jobs"
	"github.com/noah-isme/school-dashboard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-dashboard-api/pkg/middleware/requestid"
)

// @title School Dashboard API
// @version 1.0.0
// @description Create, update and delete operations for the school management dashboard
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	validate := validation.New()

	userRepo := repository.NewUserRepository(db)
	provider := newProvider(cfg, userRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cleanup *service.IdentityCleanupService
	if cfg.Cleanup.Enabled {
		cleanup = service.NewIdentityCleanupService(provider, metricsSvc, logr)
		queue := jobs.NewQueue("identity-cleanup", cleanup.Handle, jobs.QueueConfig{
			Workers:     cfg.Cleanup.Workers,
			MaxRetries:  cfg.Cleanup.MaxRetries,
			RetryDelay:  cfg.Cleanup.RetryDelay,
			OnExhausted: cleanup.Exhausted,
			Logger:      logr,
		})
		cleanup.SetQueue(queue)
		queue.Start(ctx)
		defer queue.Stop()
	}

	var lifecycle *service.PersonLifecycle
	if cleanup != nil {
		lifecycle = service.NewPersonLifecycle(provider, cleanup, metricsSvc, cfg.Mutations.CompensationTimeout, logr)
	} else {
		lifecycle = service.NewPersonLifecycle(provider, nil, metricsSvc, cfg.Mutations.CompensationTimeout, logr)
	}
	guard := service.NewIntegrityGuard()

	mutationSvc := service.NewMutationService(userRepo, logr,
		service.WithMutators(newMutators(db, lifecycle, guard, validate, logr)),
		service.WithMutationCache(cacheSvc),
		service.WithMutationMetrics(metricsSvc),
		service.WithMutationTimeout(cfg.Mutations.Timeout),
	)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.HealthCheck{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), cfg, authSvc, mutationSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env),
			zap.String("identity_mode", cfg.Identity.Mode), zap.Strings("entities", kindNames(mutationSvc.Kinds())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newProvider(cfg *config.Config, users *repository.UserRepository, logr *zap.Logger) identity.Provider {
	if cfg.Identity.Mode == config.IdentityModeHosted {
		return identity.NewHTTPClient(cfg.Identity.BaseURL, cfg.Identity.SecretKey, cfg.Identity.Timeout, logr)
	}
	return service.NewLocalIdentityService(users, logr)
}

func newMutators(db *sqlx.DB, lifecycle *service.PersonLifecycle, guard *service.IntegrityGuard, validate *validation.Validator, logr *zap.Logger) map[models.EntityKind]service.EntityMutator {
	classRepo := repository.NewClassRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	teachers := service.NewTeacherService(repository.NewTeacherRepository(db), lifecycle, guard, validate, logr)
	students := service.NewStudentService(repository.NewStudentRepository(db), classRepo, lifecycle, guard, validate, logr)
	parents := service.NewParentService(repository.NewParentRepository(db), lifecycle, guard, validate, logr)
	classes := service.NewClassService(classRepo, validate, logr)
	subjects := service.NewSubjectService(repository.NewSubjectRepository(db), validate, logr)
	lessons := service.NewLessonService(lessonRepo, validate, logr)
	exams := service.NewExamService(repository.NewExamRepository(db), lessonRepo, validate, logr)
	assignments := service.NewAssignmentService(repository.NewAssignmentRepository(db), validate, logr)
	results := service.NewResultService(repository.NewResultRepository(db), validate, logr)
	events := service.NewEventService(repository.NewEventRepository(db), validate, logr)
	announcements := service.NewAnnouncementService(repository.NewAnnouncementRepository(db), validate, logr)

	return map[models.EntityKind]service.EntityMutator{
		models.EntityTeacher:      service.NewTeacherMutator(teachers),
		models.EntityStudent:      service.NewStudentMutator(students),
		models.EntityParent:       service.NewParentMutator(parents),
		models.EntityClass:        service.NewClassMutator(classes),
		models.EntitySubject:      service.NewSubjectMutator(subjects),
		models.EntityLesson:       service.NewLessonMutator(lessons),
		models.EntityExam:         service.NewExamMutator(exams),
		models.EntityAssignment:   service.NewAssignmentMutator(assignments),
		models.EntityResult:       service.NewResultMutator(results),
		models.EntityEvent:        service.NewEventMutator(events),
		models.EntityAnnouncement: service.NewAnnouncementMutator(announcements),
	}
}

func registerRoutes(api *gin.RouterGroup, cfg *config.Config, authSvc *service.AuthService, mutationSvc *service.MutationService) {
	authHandler := handler.NewAuthHandler(authSvc)
	mutationHandler := handler.NewMutationHandler(mutationSvc)

	if cfg.Identity.Mode == config.IdentityModeLocal {
		api.POST("/auth/login", authHandler.Login)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/:entity/:id", mutationHandler.Get)

	staff := secured.Group("")
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	staff.POST("/:entity", mutationHandler.Create)
	staff.PUT("/:entity/:id", mutationHandler.Update)
	staff.DELETE("/:entity/:id", mutationHandler.Delete)
}

func kindNames(kinds []models.EntityKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.Plural()
	}
	return out
}
