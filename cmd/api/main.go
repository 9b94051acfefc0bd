package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/attendr/attendr-api/api/swagger"
	"github.com/attendr/attendr-api/internal/eligibility"
	"github.com/attendr/attendr-api/internal/handler"
	"github.com/attendr/attendr-api/internal/middleware"
	"github.com/attendr/attendr-api/internal/poller"
	"github.com/attendr/attendr-api/internal/repository"
	"github.com/attendr/attendr-api/internal/service"
	"github.com/attendr/attendr-api/pkg/cache"
	"github.com/attendr/attendr-api/pkg/config"
	"github.com/attendr/attendr-api/pkg/database"
	"github.com/attendr/attendr-api/pkg/logger"
	corsmiddleware "github.com/attendr/attendr-api/pkg/middleware/cors"
	reqidmiddleware "github.com/attendr/attendr-api/pkg/middleware/requestid"
)

// @title Attendr API
// @version 0.1.0
// @description Classroom attendance tracking service
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Redis is an accelerator, not a dependency: without it the day markers
	// and prompt store degrade to the database-only path.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	checkInCache := repository.NewCheckInCache(redisClient, logr)
	promptStore := repository.NewPromptStore(redisClient, logr)

	apiEvaluator := eligibility.NewEvaluator(eligibility.ParseWindowMode(cfg.CheckIn.WindowMode))
	pollerEvaluator := eligibility.NewEvaluator(eligibility.ParseWindowMode(cfg.Poller.WindowMode))
	verifier := service.StaticVerifier{Approve: cfg.Verifier.AutoApprove}

	checkInSvc := service.NewCheckInService(courseRepo, attendanceRepo, checkInCache, promptStore, apiEvaluator, verifier, metrics, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr, cfg.Courses.UpdateMissingIsNotFound)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, logr)
	scheduleSvc := service.NewScheduleService(enrollmentRepo, courseRepo, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, logr)
	exportSvc := service.NewExportService(courseRepo, attendanceRepo, nil, nil, logr)
	promptSvc := service.NewPromptService(promptStore, cfg.Poller.PromptTTL, metrics, logr)

	var schedulePoller *poller.Poller
	if cfg.Poller.Enabled {
		schedulePoller = poller.New(scheduleSvc, checkInSvc, promptSvc, pollerEvaluator, metrics, poller.Config{
			Interval:    cfg.Poller.Interval,
			TickTimeout: cfg.Poller.TickTimeout,
			StudentIDs:  cfg.Poller.StudentIDs,
		}, logr)
	}

	checkInHandler := handler.NewCheckInHandler(checkInSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	studentHandler := handler.NewStudentHandler(scheduleSvc, promptSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, enrollmentSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, schedulePoller, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/poller/status", metricsHandler.PollerStatus)

	r.POST("/check-in", checkInHandler.CheckIn)
	r.POST("/check-in/confirm", checkInHandler.Confirm)

	r.GET("/courses", courseHandler.List)
	r.POST("/courses", courseHandler.Create)
	r.GET("/courses/:courseId", courseHandler.Get)
	r.PUT("/courses/:courseId", courseHandler.UpdateWindow)
	r.POST("/courses/:courseId/enroll", attendanceHandler.Enroll)
	r.GET("/courses/:courseId/roster", attendanceHandler.Roster)
	r.GET("/courses/:courseId/attendance", attendanceHandler.List)
	if cfg.Export.Enabled {
		r.GET("/courses/:courseId/attendance/export", attendanceHandler.Export)
	}

	r.GET("/students/:studentId/schedule", studentHandler.Schedule)
	r.GET("/students/:studentId/prompts", studentHandler.Prompts)
	r.DELETE("/students/:studentId/prompts/:courseId", studentHandler.DismissPrompt)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if schedulePoller != nil {
		schedulePoller.Start(ctx)
		defer schedulePoller.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "poller", cfg.Poller.Enabled)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
