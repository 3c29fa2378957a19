package controller

import (
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ApplicationController struct {
	Applications *service.ApplicationService
}

func NewApplicationController(applications *service.ApplicationService) *ApplicationController {
	return &ApplicationController{Applications: applications}
}

// Apply 同一职位只能申请一次
// @Summary 申请职位
// @Tags 职位申请
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "职位ID"
// @Success 201 {object} util.Response{application=model.Application}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Failure 409 {object} util.Response "冲突"
// @Router /api/application/apply/{id} [get]
func (ac *ApplicationController) Apply(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	jobID, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	app, err := ac.Applications.Apply(c.Request.Context(), userID, jobID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Created(c, "Job applied successfully", gin.H{"application": app})
}

// @Summary 我的申请
// @Tags 职位申请
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{application=[]model.ApplicationView}
// @Failure 401 {object} util.Response "未授权"
// @Router /api/application/get [get]
func (ac *ApplicationController) MyApplications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	apps, err := ac.Applications.MyApplications(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"application": apps})
}

// Applicants 仅职位发布者可见
// @Summary 职位申请人
// @Tags 职位申请
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "职位ID"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/application/{id}/applicants [get]
func (ac *ApplicationController) Applicants(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	jobID, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	apps, err := ac.Applications.Applicants(c.Request.Context(), userID, jobID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"applications": apps})
}

// @Summary 更新申请状态
// @Tags 职位申请
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "申请ID"
// @Param body body statusRequest true "状态"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/application/status/{id}/update [post]
func (ac *ApplicationController) UpdateStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	appID, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	app, err := ac.Applications.UpdateStatus(c.Request.Context(), userID, appID, req.Status)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Status updated successfully", gin.H{"application": app})
}
