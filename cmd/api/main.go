package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/colegio-api/api/swagger"
	"github.com/noah-isme/colegio-api/internal/handler"
	"github.com/noah-isme/colegio-api/internal/middleware"
	"github.com/noah-isme/colegio-api/internal/repository"
	"github.com/noah-isme/colegio-api/internal/service"
	"github.com/noah-isme/colegio-api/pkg/cache"
	"github.com/noah-isme/colegio-api/pkg/config"
	"github.com/noah-isme/colegio-api/pkg/database"
	"github.com/noah-isme/colegio-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/colegio-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/colegio-api/pkg/middleware/requestid"
)

// @title Colegio API
// @version 1.0.0
// @description School administration API: enrollments, students, teachers, courses, grades and attendance
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	sequences := repository.NewSequenceRepository(db)
	studentRepo := repository.NewStudentRepository(db, sequences)
	teacherRepo := repository.NewTeacherRepository(db, sequences)
	courseRepo := repository.NewCourseRepository(db, sequences)
	enrollmentRepo := repository.NewEnrollmentRepository(db, sequences)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	var enrollmentSvc *service.EnrollmentService
	if redisClient != nil {
		statsCache := service.NewStatsCacheService(redisClient, cfg.Cache.StatsTTL, logr)
		enrollmentSvc = service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, teacherRepo, statsCache, metricsSvc, validate, logr)
	} else {
		enrollmentSvc = service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, teacherRepo, nil, metricsSvc, validate, logr)
	}
	gradeSvc := service.NewGradeService(gradeRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, validate, logr)

	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	matriculas := api.Group("/matriculas")
	{
		matriculas.GET("", enrollmentHandler.List)
		matriculas.POST("", enrollmentHandler.Create)
		matriculas.GET("/:id", enrollmentHandler.Get)
		matriculas.PATCH("/:id/estado", enrollmentHandler.UpdateState)
		matriculas.PATCH("/:id/cursos/:lineId/estado", enrollmentHandler.UpdateLineState)
		matriculas.GET("/:id/estadisticas", enrollmentHandler.Stats)
		matriculas.GET("/:id/comprobante", enrollmentHandler.Certificate)
		matriculas.DELETE("/:id", enrollmentHandler.Delete)
	}

	estudiantes := api.Group("/estudiantes")
	{
		estudiantes.GET("", studentHandler.List)
		estudiantes.POST("", studentHandler.Create)
		estudiantes.GET("/:id", studentHandler.Get)
		estudiantes.PUT("/:id", studentHandler.Update)
		estudiantes.DELETE("/:id", studentHandler.Delete)
	}

	profesores := api.Group("/profesores")
	{
		profesores.GET("", teacherHandler.List)
		profesores.POST("", teacherHandler.Create)
		profesores.GET("/:id", teacherHandler.Get)
		profesores.PUT("/:id", teacherHandler.Update)
		profesores.DELETE("/:id", teacherHandler.Delete)
	}

	cursos := api.Group("/cursos")
	{
		cursos.GET("", courseHandler.List)
		cursos.POST("", courseHandler.Create)
		cursos.GET("/disponibles/:grado", courseHandler.AvailableByGrade)
		cursos.GET("/:id", courseHandler.Get)
		cursos.PUT("/:id", courseHandler.Update)
		cursos.DELETE("/:id", courseHandler.Delete)
	}

	calificaciones := api.Group("/calificaciones")
	{
		calificaciones.GET("", gradeHandler.List)
		calificaciones.POST("", gradeHandler.Create)
		calificaciones.GET("/estudiante/:studentId/promedio", gradeHandler.Average)
		calificaciones.GET("/:id", gradeHandler.Get)
		calificaciones.PUT("/:id", gradeHandler.Update)
	}

	asistencias := api.Group("/asistencias")
	{
		asistencias.GET("", attendanceHandler.List)
		asistencias.POST("", attendanceHandler.Create)
		asistencias.GET("/reporte", attendanceHandler.Report)
		asistencias.GET("/estudiante/:studentId/curso/:courseId/porcentaje", attendanceHandler.Percentage)
		asistencias.GET("/:id", attendanceHandler.Get)
		asistencias.PUT("/:id", attendanceHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
