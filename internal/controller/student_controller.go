package controller

import (
	"intervention_backend/internal/model"
	"intervention_backend/internal/service"
	"intervention_backend/internal/util"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type StudentController struct {
	status *service.StatusService
}

func NewStudentController(status *service.StatusService) *StudentController {
	return &StudentController{status: status}
}

// @Summary 学生列表
// @Description 按姓名排序返回所有学生及其当前状态
// @Tags 学生
// @Produce json
// @Success 200 {object} util.Response{data=[]model.StudentSummary}
// @Failure 500 {object} util.Response
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	students, err := c.status.ListStudents(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, students)
}

// @Summary 获取学生状态
// @Description 返回学生快照和最近一条待处理的干预记录; 处于 Needs Intervention 时附带轮询间隔
// @Tags 学生
// @Produce json
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response{data=service.StudentStatusView}
// @Failure 404 {object} util.Response
// @Router /students/{id}/status [get]
func (c *StudentController) GetStatus(ctx *gin.Context) {
	view, err := c.status.GetStatus(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 等待学生状态变化(长轮询)
// @Description 状态与 known 不同时立即返回, 否则最多等待 timeout 秒(不超过轮询间隔)
// @Tags 学生
// @Produce json
// @Param id path string true "学生ID"
// @Param known query string false "调用方已知的状态"
// @Param timeout query int false "最长等待秒数"
// @Success 200 {object} util.Response{data=service.StudentStatusView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /students/{id}/status/wait [get]
func (c *StudentController) WaitForStatus(ctx *gin.Context) {
	var timeout time.Duration
	if raw := ctx.Query("timeout"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			util.BadRequest(ctx, "timeout must be a non-negative number of seconds")
			return
		}
		timeout = time.Duration(secs) * time.Second
	}

	view, changed, err := c.status.WaitForChange(ctx.Request.Context(), ctx.Param("id"), model.StudentStatus(ctx.Query("known")), timeout)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	msg := "unchanged"
	if changed {
		msg = "changed"
	}
	util.SuccessWithMessage(ctx, msg, view)
}

// @Summary 学生打卡记录
// @Tags 学生
// @Produce json
// @Param id path string true "学生ID"
// @Param limit query int false "条数, 默认30, 最大200"
// @Success 200 {object} util.Response{data=[]model.DailyLog}
// @Failure 404 {object} util.Response
// @Router /students/{id}/logs [get]
func (c *StudentController) ListLogs(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	logs, err := c.status.ListLogs(ctx.Request.Context(), ctx.Param("id"), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, logs)
}

// @Summary 学生干预历史
// @Tags 学生
// @Produce json
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response{data=[]model.Intervention}
// @Failure 404 {object} util.Response
// @Router /students/{id}/interventions [get]
func (c *StudentController) ListInterventions(ctx *gin.Context) {
	ivs, err := c.status.ListInterventions(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, ivs)
}
