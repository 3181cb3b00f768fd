package controller

import (
	"intervention_backend/internal/service"
	"intervention_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CheckinController struct {
	service *service.InterventionService
}

func NewCheckinController(s *service.InterventionService) *CheckinController {
	return &CheckinController{service: s}
}

// @Summary 提交每日打卡
// @Description 测验分数 > 7 且专注时长 > 60 分钟视为达标, 否则创建待处理干预并通知导师
// @Tags 打卡
// @Accept json
// @Produce json
// @Param body body service.CheckinRequest true "打卡数据"
// @Success 200 {object} util.Response{data=service.CheckinResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /checkins [post]
func (c *CheckinController) SubmitCheckin(ctx *gin.Context) {
	var req service.CheckinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "invalid request body: "+err.Error())
		return
	}

	res, err := c.service.SubmitCheckin(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, res.Message, res)
}
