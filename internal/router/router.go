package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/handler"
	"github.com/certiva/certiva-backend/internal/middleware"
	"github.com/certiva/certiva-backend/internal/response"
	"github.com/certiva/certiva-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam          *handler.ExamHandler
	StudentPortal *handler.StudentPortalHandler
	Evaluation    *handler.EvaluationHandler
	Certificate   *handler.CertificateHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/certificates/:certificate_id/verify", handlers.Certificate.Verify)
	}

	// ─── 2. Admin Group (Exam Authoring) ───────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireRole(authService, service.RoleAdmin))
	{
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.GET("/exams", handlers.Exam.List)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		adminAPI.POST("/exams/:exam_id/publish", handlers.Exam.Publish)
		adminAPI.POST("/exams/:exam_id/archive", handlers.Exam.Archive)
	}

	// ─── 3. Student Group (Exam Taking) ────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireRole(authService, service.RoleStudent))
	{
		studentAPI.GET("/exams", handlers.StudentPortal.ListExams)
		studentAPI.POST("/exams/:exam_id/sessions", handlers.StudentPortal.StartSession)
		studentAPI.GET("/sessions", handlers.StudentPortal.ListSessions)
		studentAPI.GET("/sessions/:session_id", handlers.StudentPortal.GetSession)
		studentAPI.PUT("/sessions/:session_id/answers/:question_id", handlers.StudentPortal.SaveAnswer)
		studentAPI.POST("/sessions/:session_id/submit", handlers.StudentPortal.SubmitSession)
		studentAPI.GET("/results", handlers.StudentPortal.ListResults)
		studentAPI.GET("/results/:result_id", handlers.StudentPortal.GetResult)
		studentAPI.GET("/results/:result_id/certificate", handlers.StudentPortal.GetCertificate)
	}

	// ─── 4. Examiner Group (Subjective Grading) ────────────────────────
	examinerAPI := router.Group("/api/v1/examiner")
	examinerAPI.Use(middleware.RequireRole(authService, service.RoleExaminer))
	{
		examinerAPI.GET("/evaluations", handlers.Evaluation.ListPending)
		examinerAPI.POST("/evaluations/:result_id/answers/:question_id/claim", handlers.Evaluation.Claim)
		examinerAPI.POST("/evaluations/:result_id/answers/:question_id/grade", handlers.Evaluation.Grade)
	}

	return router
}
