package controller

import (
	"intervention_backend/internal/service"
	"intervention_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InterventionController struct {
	service *service.InterventionService
}

func NewInterventionController(s *service.InterventionService) *InterventionController {
	return &InterventionController{service: s}
}

// @Summary 导师分配补救任务
// @Description 学生进入 Remedial 状态; 对应的干预记录标记为 Assigned
// @Tags 干预
// @Accept json
// @Produce json
// @Param body body service.AssignTaskRequest true "任务"
// @Success 200 {object} util.Response{data=service.AssignTaskResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /interventions/assign [post]
func (c *InterventionController) AssignTask(ctx *gin.Context) {
	var req service.AssignTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "invalid request body: "+err.Error())
		return
	}

	res, err := c.service.AssignTask(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, res.Message, res)
}

// @Summary 学生完成补救任务
// @Description 关闭已分配的干预记录, 学生回到 Normal 状态
// @Tags 干预
// @Accept json
// @Produce json
// @Param body body service.CompleteTaskRequest true "学生"
// @Success 200 {object} util.Response{data=service.CompleteTaskResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /interventions/complete [post]
func (c *InterventionController) CompleteTask(ctx *gin.Context) {
	var req service.CompleteTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "invalid request body: "+err.Error())
		return
	}

	res, err := c.service.CompleteTask(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, res.Message, res)
}
