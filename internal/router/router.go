package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/classhub-backend/internal/config"
	"github.com/stemsi/classhub-backend/internal/handler"
	"github.com/stemsi/classhub-backend/internal/middleware"
	"github.com/stemsi/classhub-backend/internal/response"
	"github.com/stemsi/classhub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Roster     *handler.RosterHandler
	Quiz       *handler.QuizHandler
	Session    *handler.SessionHandler
	WS         *handler.WSHandler
	Assessment *handler.AssessmentHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(authService *service.AuthService, handlers *Handlers, cfg *config.Config) *gin.Engine {
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

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── Auth (public, rate limited) ────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireTenantJWT(authService), handlers.Auth.Me)
	}

	// ─── Roster (tenant-owned classes/students) ─────────────────────────
	roster := router.Group("/api/v1")
	roster.Use(middleware.RequireTenantJWT(authService))
	{
		roster.POST("/classes", handlers.Roster.CreateClass)
		roster.GET("/classes", handlers.Roster.ListClasses)
		roster.GET("/classes/:classID/students", handlers.Roster.ListStudentsByClass)
		roster.POST("/classes/:classID/students/:studentID", handlers.Roster.AddStudentToClass)
		roster.POST("/students", handlers.Roster.CreateStudent)
	}

	// ─── Quiz / question CRUD + live-session lifecycle (tenant-owned) ──
	quiz := router.Group("/api/v1")
	quiz.Use(middleware.RequireTenantJWT(authService))
	{
		quiz.POST("/quizzes", handlers.Quiz.CreateQuiz)
		quiz.GET("/quizzes", handlers.Quiz.ListQuizzes)
		quiz.GET("/quizzes/:quizID", handlers.Quiz.GetQuiz)
		quiz.PATCH("/quizzes/:quizID", handlers.Quiz.UpdateQuiz)
		quiz.POST("/quizzes/:quizID/questions", handlers.Quiz.AddQuestion)
		quiz.GET("/quizzes/:quizID/questions", handlers.Quiz.ListQuestions)

		quiz.POST("/quizzes/:quizID/sessions", handlers.Quiz.CreateSession)
		quiz.POST("/sessions/:sessionID/start", handlers.Quiz.StartSession)
		quiz.POST("/sessions/:sessionID/advance", handlers.Quiz.AdvanceSession)
		quiz.POST("/sessions/:sessionID/end", handlers.Quiz.EndSession)
		quiz.GET("/sessions/:sessionID/leaderboard", handlers.Quiz.Leaderboard)
		quiz.GET("/sessions/:sessionID/analytics", handlers.Quiz.Analytics)
	}

	// ─── Session join (public, cross-tenant — a guest only knows a room code) ──
	router.POST("/api/v1/sessions/join", handlers.Session.Join)

	// ─── Live session WebSocket streams ─────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:sessionID/host", middleware.RequireTenantWSAuth(authService), handlers.WS.HostStream)
		ws.GET("/sessions/:sessionID/join", handlers.WS.ParticipantStream)
	}

	// ─── Assessment / grading pipeline (tenant-owned) ───────────────────
	assessment := router.Group("/api/v1/assessments")
	assessment.Use(middleware.RequireTenantJWT(authService))
	{
		assessment.POST("", handlers.Assessment.CreateAssessment)
		assessment.GET("/:assessmentID", handlers.Assessment.GetAssessment)
		assessment.GET("/:assessmentID/results", handlers.Assessment.ListResults)
		assessment.PATCH("/:assessmentID/results/:resultID", handlers.Assessment.ApplyTeacherEdit)
	}

	return router
}
