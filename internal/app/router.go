package app

import (
	"course_quiz_backend/docs"
	"course_quiz_backend/internal/config"
	"course_quiz_backend/internal/middleware"

	"course_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.auth.UpdateProfile)

		// 课程管理
		authGroup.POST("/courses", c.course.CreateCourse)
		authGroup.PUT("/courses/:id", c.course.UpdateCourse)
		authGroup.DELETE("/courses/:id", c.course.DeleteCourse)

		// 出题侧
		authGroup.GET("/quizzes", c.quiz.ListQuizzes)
		authGroup.POST("/quizzes", c.quiz.CreateQuiz)
		authGroup.POST("/quizzes/validate", c.quiz.ValidateQuiz)
		authGroup.POST("/quizzes/images", c.quiz.UploadQuestionImage)
		authGroup.GET("/quizzes/:id", c.quiz.GetQuiz)
		authGroup.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		authGroup.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)

		// 学生答题
		authGroup.POST("/quizzes/:id/attempts", c.attempt.StartAttempt)
		authGroup.GET("/attempts/:id", c.attempt.GetState)
		authGroup.PUT("/attempts/:id/answers", c.attempt.SubmitAnswer)
		authGroup.PUT("/attempts/:id/navigate", c.attempt.Navigate)
		authGroup.POST("/attempts/:id/submit", c.attempt.Submit)
		authGroup.POST("/attempts/:id/persist", c.attempt.RetryPersist)
		authGroup.POST("/attempts/:id/abandon", c.attempt.Abandon)

		// 看板
		authGroup.GET("/dashboard/history", c.dashboard.History)
		authGroup.GET("/dashboard/quizzes/:quizId/submissions", c.dashboard.Submissions)
	}
}
