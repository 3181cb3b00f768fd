package app

import (
	"intervention_backend/docs"
	"intervention_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	a.registerStudentRoutes(api, c)
	a.registerWorkflowRoutes(api, c)
}

// 观察端: 学生列表、状态轮询、历史记录
func (a *App) registerStudentRoutes(api *gin.RouterGroup, c *controllers) {
	students := api.Group("/students")
	{
		students.GET("", c.student.ListStudents)
		students.GET("/:id/status", c.student.GetStatus)
		students.GET("/:id/status/wait", c.student.WaitForStatus)
		students.GET("/:id/logs", c.student.ListLogs)
		students.GET("/:id/interventions", c.student.ListInterventions)
	}
}

// 状态机写操作: 打卡、分配任务、完成任务
func (a *App) registerWorkflowRoutes(api *gin.RouterGroup, c *controllers) {
	api.POST("/checkins", c.checkin.SubmitCheckin)

	interventions := api.Group("/interventions")
	{
		interventions.POST("/assign", c.intervention.AssignTask)
		interventions.POST("/complete", c.intervention.CompleteTask)
	}
}
