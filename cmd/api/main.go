package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/aulanet/academia-api/api/swagger"
	"github.com/aulanet/academia-api/internal/handler"
	"github.com/aulanet/academia-api/internal/middleware"
	"github.com/aulanet/academia-api/internal/repository"
	"github.com/aulanet/academia-api/internal/service"
	"github.com/aulanet/academia-api/pkg/cache"
	"github.com/aulanet/academia-api/pkg/config"
	"github.com/aulanet/academia-api/pkg/database"
	"github.com/aulanet/academia-api/pkg/jobs"
	"github.com/aulanet/academia-api/pkg/logger"
	corsmiddleware "github.com/aulanet/academia-api/pkg/middleware/cors"
	reqidmiddleware "github.com/aulanet/academia-api/pkg/middleware/requestid"
)

// @title Academia API
// @version 0.1.0
// @description Academy administration console backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Hours.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, hours cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Hours.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, courseRepo, validate, logr)

	// The queue is built before the service it serves; the closure defers
	// the handler lookup until the first job runs.
	var hoursSvc *service.HoursService
	warmQueue := jobs.NewQueue("hours-warmup", func(ctx context.Context, job jobs.Job) error {
		return hoursSvc.WarmupHandler()(ctx, job)
	}, jobs.Options{Workers: 1}, logr)
	hoursSvc = service.NewHoursService(sessionRepo, courseRepo, classroomRepo, cacheSvc, warmQueue, cfg.Hours.CacheTTL, logr)
	warmQueue.Start(context.Background())
	defer warmQueue.Stop()
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, studentRepo, receiptRepo, validate, logr)
	receiptSvc := service.NewReceiptService(receiptRepo, validate, logr)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, receiptRepo, validate, logr, cfg.Billing.AllowOverpayment)
	paymentSvc := service.NewPaymentService(invoiceRepo, receiptRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc, hoursSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc, hoursSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	receiptHandler := handler.NewReceiptHandler(receiptSvc)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc, paymentSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/teachers", teacherHandler.List)
		protected.POST("/teachers", teacherHandler.Create)
		protected.GET("/teachers/:id", teacherHandler.Get)
		protected.PUT("/teachers/:id", teacherHandler.Update)
		protected.DELETE("/teachers/:id", teacherHandler.Delete)
		protected.GET("/teachers/:id/hours", teacherHandler.Hours)

		protected.GET("/students", studentHandler.List)
		protected.POST("/students", studentHandler.Create)
		protected.GET("/students/:id", studentHandler.Get)
		protected.PUT("/students/:id", studentHandler.Update)
		protected.DELETE("/students/:id", studentHandler.Delete)

		protected.GET("/classrooms", classroomHandler.List)
		protected.POST("/classrooms", classroomHandler.Create)
		protected.GET("/classrooms/:id", classroomHandler.Get)
		protected.PUT("/classrooms/:id", classroomHandler.Update)
		protected.DELETE("/classrooms/:id", classroomHandler.Delete)

		protected.GET("/courses", courseHandler.List)
		protected.POST("/courses", courseHandler.Create)
		protected.GET("/courses/:id", courseHandler.Get)
		protected.PUT("/courses/:id", courseHandler.Update)
		protected.DELETE("/courses/:id", courseHandler.Delete)
		protected.GET("/courses/:id/slots", courseHandler.ListSlots)
		protected.PUT("/courses/:id/slots", courseHandler.ReplaceSlots)

		protected.GET("/sessions", sessionHandler.List)
		protected.POST("/sessions", sessionHandler.Create)
		protected.POST("/sessions/materialize", sessionHandler.Materialize)
		protected.GET("/sessions/:id", sessionHandler.Get)
		protected.PUT("/sessions/:id", sessionHandler.Update)
		protected.DELETE("/sessions/:id", sessionHandler.Delete)

		protected.GET("/enrollments", enrollmentHandler.List)
		protected.POST("/enrollments", enrollmentHandler.Enroll)
		protected.POST("/enrollments/issue-receipts", enrollmentHandler.IssueReceipts)
		protected.GET("/enrollments/:id", enrollmentHandler.Get)
		protected.POST("/enrollments/:id/withdraw", enrollmentHandler.Withdraw)

		protected.GET("/receipts", receiptHandler.List)
		protected.POST("/receipts", receiptHandler.Create)
		protected.GET("/receipts/:id", receiptHandler.Get)
		protected.POST("/receipts/:id/pay", receiptHandler.MarkPaid)
		protected.POST("/receipts/:id/unpay", receiptHandler.MarkPending)
		protected.DELETE("/receipts/:id", receiptHandler.Delete)

		protected.GET("/invoices", invoiceHandler.List)
		protected.POST("/invoices", invoiceHandler.Create)
		protected.GET("/invoices/:id", invoiceHandler.Get)
		protected.DELETE("/invoices/:id", invoiceHandler.Delete)
		protected.POST("/invoices/:id/pay", invoiceHandler.MarkPaid)
		protected.POST("/invoices/:id/receipts/:receiptId", invoiceHandler.LinkReceipt)
		protected.DELETE("/invoices/:id/receipts/:receiptId", invoiceHandler.UnlinkReceipt)
		protected.GET("/invoices/:id/payments", invoiceHandler.Payments)
		protected.DELETE("/invoices/:id/payments/:eventId", invoiceHandler.ReversePayment)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
