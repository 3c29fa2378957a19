package app

import (
	"learnhire_backend/docs"
	"learnhire_backend/internal/middleware"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/monitoring"
	"learnhire_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// registerDocs 接口文档：/swagger/index.html
func registerDocs(router *gin.Engine) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	registerDocs(router)
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 回调(需原始请求体验签)
	router.POST("/stripe", c.webhook.Stripe)
	router.POST("/clerk", c.webhook.Clerk)

	api := router.Group("/api")
	api.Use(security.MaxBodySize(util.MaxUploadSize + 1<<20))
	api.GET("/health", c.health.HealthCheck)

	auth := middleware.AuthMiddleware(s.identity)
	educatorOnly := middleware.RoleMiddleware(model.Educator)

	// 2. 公共路由(无需登录)
	a.registerPublicRoutes(api, c, auth, educatorOnly)

	// 3. 学员接口
	a.registerUserRoutes(api, c, auth, educatorOnly)

	// 4. 教师接口
	a.registerEducatorRoutes(api, c, auth, educatorOnly)

	// 5. 对话：可选登录
	chat := api.Group("/chatboat")
	chat.Use(middleware.TryAuthMiddleware(s.identity))
	{
		chat.POST("/chat", c.chat.SendMessage)
		chat.DELETE("/session", c.chat.ResetSession)
	}
}

func (a *App) registerPublicRoutes(api *gin.RouterGroup, c *controllers, auth, educatorOnly gin.HandlerFunc) {
	course := api.Group("/course")
	{
		course.GET("/all", c.course.ListCourses)
		course.GET("/:id", c.course.GetCourse)
	}

	job := api.Group("/job")
	{
		job.GET("/get", c.job.ListJobs)
		job.GET("/get/:id", c.job.GetJob)
		job.GET("/fetch-jobs", auth, educatorOnly, c.job.FetchJobs)
	}
}

func (a *App) registerUserRoutes(api *gin.RouterGroup, c *controllers, auth, educatorOnly gin.HandlerFunc) {
	user := api.Group("/user")
	user.Use(auth)
	{
		user.GET("/data", c.user.GetUserData)
		user.POST("/purchase", c.user.PurchaseCourse)
		user.GET("/enrolled-courses", c.user.EnrolledCourses)
		user.POST("/update-course-progress", c.user.UpdateCourseProgress)
		user.POST("/get-course-progress", c.user.GetCourseProgress)
		user.POST("/add-rating", c.user.AddRating)
		user.POST("/can-get-certificate", c.user.CanGetCertificate)
		user.POST("/get-certificate-data", c.user.GetCertificateData)
		user.POST("/savedjob", c.user.SaveJob)
		user.GET("/saved-jobs", c.user.SavedJobs)
		user.POST("/resume", c.user.UploadResume)
		user.GET("/resume", c.user.GetResume)
		user.DELETE("/resume", c.user.DeleteResume)
		user.GET("/resume/:userId", educatorOnly, c.user.GetUserResume)
	}

	application := api.Group("/application")
	application.Use(auth)
	{
		application.GET("/apply/:id", c.application.Apply)
		application.GET("/get", c.application.MyApplications)
		application.GET("/:id/applicants", educatorOnly, c.application.Applicants)
		application.POST("/status/:id/update", educatorOnly, c.application.UpdateStatus)
	}
}

func (a *App) registerEducatorRoutes(api *gin.RouterGroup, c *controllers, auth, educatorOnly gin.HandlerFunc) {
	educator := api.Group("/educator")
	educator.Use(auth)

	// 任何登录用户都可申请成为教师
	educator.GET("/update-role", c.educator.UpdateRole)

	owned := educator.Group("")
	owned.Use(educatorOnly)
	{
		owned.POST("/add-course", c.educator.AddCourse)
		owned.GET("/courses", c.educator.ListCourses)
		owned.GET("/course/:id", c.educator.GetCourse)
		owned.PUT("/course/:id", c.educator.UpdateCourse)
		owned.DELETE("/course/:id", c.educator.DeleteCourse)
		owned.GET("/dashboard", c.educator.Dashboard)
		owned.GET("/enrolled-students", c.educator.EnrolledStudents)

		owned.POST("/add-job", c.educator.AddJob)
		owned.GET("/jobs", c.educator.ListJobs)
		owned.GET("/job/:jobId", c.educator.GetJob)
		owned.PUT("/job/:jobId", c.educator.UpdateJob)
		owned.DELETE("/job/:jobId", c.educator.DeleteJob)
		owned.GET("/job-applicants", c.educator.JobApplicants)
	}
}
