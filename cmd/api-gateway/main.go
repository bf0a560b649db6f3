package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jeromwolf/LearnFlow/api/swagger"
	"github.com/jeromwolf/LearnFlow/internal/handler"
	"github.com/jeromwolf/LearnFlow/internal/middleware"
	"github.com/jeromwolf/LearnFlow/internal/models"
	"github.com/jeromwolf/LearnFlow/internal/repository"
	"github.com/jeromwolf/LearnFlow/internal/service"
	"github.com/jeromwolf/LearnFlow/pkg/cache"
	"github.com/jeromwolf/LearnFlow/pkg/config"
	"github.com/jeromwolf/LearnFlow/pkg/database"
	"github.com/jeromwolf/LearnFlow/pkg/logger"
	corsmiddleware "github.com/jeromwolf/LearnFlow/pkg/middleware/cors"
	reqidmiddleware "github.com/jeromwolf/LearnFlow/pkg/middleware/requestid"
)

// @title LearnFlow API
// @version 1.0.0
// @description Online course marketplace: catalog, curriculum progress, enrollments, reviews
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	catalogSvc := service.NewCatalogService(courseRepo, cacheSvc, metricsSvc, logr, cfg.Catalog.CacheTTL)
	courseSvc := service.NewCourseService(courseRepo, curriculumRepo, catalogSvc, validate, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, enrollmentRepo, progressRepo, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, catalogSvc, metricsSvc, logr)
	noteSvc := service.NewNoteService(noteRepo, curriculumRepo, enrollmentRepo, logr)
	reviewSvc := service.NewReviewService(reviewRepo, courseRepo, enrollmentRepo, catalogSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, logr, cfg.Dashboard.SummaryCacheTTL, cfg.Dashboard.ExportMaxRows)
	communitySvc := service.NewCommunityService(communityRepo, courseRepo, validate, logr)
	quizSvc := service.NewQuizService(quizRepo, quizRepo, courseRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, logr)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	curriculumHandler := handler.NewCurriculumHandler(curriculumSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	noteHandler := handler.NewNoteHandler(noteSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	communityHandler := handler.NewCommunityHandler(communitySvc)
	quizHandler := handler.NewQuizHandler(quizSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	courses := api.Group("/courses")
	{
		// Public catalog reads carry optional identity so drafts stay
		// visible to their owners and lesson states are personalized.
		courses.GET("", catalogHandler.Browse)
		courses.GET("/categories", catalogHandler.Categories)
		courses.GET("/mine", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin), courseHandler.ListMine)
		courses.GET("/:id", middleware.OptionalJWT(authSvc), courseHandler.Get)
		courses.GET("/:id/curriculum", middleware.OptionalJWT(authSvc), curriculumHandler.Get)
		courses.GET("/:id/progress", middleware.JWT(authSvc), curriculumHandler.Progress)
		courses.GET("/:id/reviews", reviewHandler.List)

		manage := courses.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin))
		manage.POST("", courseHandler.Create)
		manage.PUT("/:id", courseHandler.Update)
		manage.DELETE("/:id", courseHandler.Delete)
		manage.POST("/:id/publish", courseHandler.SetPublished)
		manage.POST("/:id/sections", courseHandler.AddSection)
		manage.POST("/:id/sections/:sectionId/lessons", courseHandler.AddLesson)
		manage.DELETE("/:id/lessons/:lessonId", courseHandler.RemoveLesson)

		courses.POST("/:id/lessons/:lessonId/select", middleware.JWT(authSvc), curriculumHandler.SelectLesson)
		courses.POST("/:id/lessons/:lessonId/complete", middleware.JWT(authSvc), curriculumHandler.CompleteLesson)

		courses.POST("/:id/reviews", middleware.JWT(authSvc), reviewHandler.Submit)
		courses.DELETE("/:id/reviews", middleware.JWT(authSvc), reviewHandler.Delete)

		courses.GET("/:id/posts", communityHandler.ListPosts)
		courses.POST("/:id/posts", middleware.JWT(authSvc), communityHandler.CreatePost)

		courses.GET("/:id/quizzes", middleware.OptionalJWT(authSvc), quizHandler.ListByCourse)
		manage.POST("/:id/quizzes", quizHandler.Create)
	}

	posts := api.Group("/posts")
	{
		posts.GET("/:id", communityHandler.GetPost)
		posts.GET("/:id/comments", communityHandler.ListComments)
		posts.POST("/:id/comments", middleware.JWT(authSvc), communityHandler.CreateComment)
		posts.PUT("/:id", middleware.JWT(authSvc), communityHandler.UpdatePost)
		posts.DELETE("/:id", middleware.JWT(authSvc), communityHandler.DeletePost)
	}
	api.PUT("/comments/:id", middleware.JWT(authSvc), communityHandler.UpdateComment)
	api.DELETE("/comments/:id", middleware.JWT(authSvc), communityHandler.DeleteComment)

	quizzes := api.Group("/quizzes", middleware.JWT(authSvc))
	{
		quizzes.GET("/:id", quizHandler.Get)
		quizzes.PUT("/:id", quizHandler.Update)
		quizzes.DELETE("/:id", quizHandler.Delete)
		quizzes.POST("/:id/attempts", quizHandler.StartAttempt)
		quizzes.GET("/:id/progress", quizHandler.Progress)
		quizzes.GET("/:id/statistics", quizHandler.Statistics)
	}

	attempts := api.Group("/quiz-attempts", middleware.JWT(authSvc))
	{
		attempts.GET("", quizHandler.ListMyAttempts)
		attempts.GET("/:id", quizHandler.GetAttempt)
		attempts.POST("/:id/submit", quizHandler.SubmitAttempt)
		attempts.POST("/:id/grade", middleware.RequireRoles(models.RoleAdmin), quizHandler.GradeAttempt)
	}

	enrollments := api.Group("/enrollments", middleware.JWT(authSvc))
	{
		enrollments.POST("", enrollmentHandler.Enroll)
		enrollments.GET("", enrollmentHandler.ListMine)
		enrollments.DELETE("/:id", enrollmentHandler.Unenroll)
	}

	lessons := api.Group("/lessons", middleware.JWT(authSvc))
	{
		lessons.POST("/:lessonId/notes", noteHandler.Create)
		lessons.GET("/:lessonId/notes", noteHandler.List)
	}
	api.DELETE("/notes/:id", middleware.JWT(authSvc), noteHandler.Delete)

	if cfg.Dashboard.Enabled {
		dashboard := api.Group("/dashboard", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin))
		{
			dashboard.GET("/summary", dashboardHandler.Summary)
			dashboard.GET("/enrollments/export", dashboardHandler.Export)
		}
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/enrollments", enrollmentHandler.List)
		admin.GET("/metrics", metricsHandler.Snapshot)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC("ADMIN", "SELF"), userHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
