package controller

import (
	"context"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JobImporter 立即执行一次外部职位导入
type JobImporter interface {
	Import(ctx context.Context) (*service.ImportResult, error)
}

type JobController struct {
	Jobs *service.JobService
	Feed JobImporter
}

func NewJobController(jobs *service.JobService, feed JobImporter) *JobController {
	return &JobController{Jobs: jobs, Feed: feed}
}

// @Summary 职位列表
// @Tags 职位
// @Produce json
// @Param keyword query string false "搜索关键词"
// @Success 200 {object} util.Response{jobs=[]model.JobView}
// @Router /api/job/get [get]
func (jc *JobController) ListJobs(c *gin.Context) {
	jobs, err := jc.Jobs.List(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"jobs": jobs})
}

// @Summary 职位详情
// @Tags 职位
// @Produce json
// @Param id path string true "职位ID"
// @Success 200 {object} util.Response{job=model.JobView}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/job/get/{id} [get]
func (jc *JobController) GetJob(c *gin.Context) {
	id, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	job, err := jc.Jobs.Get(c.Request.Context(), id)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"job": job})
}

// FetchJobs 手动触发职位源导入
// @Summary 导入外部职位
// @Tags 职位
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 503 {object} util.Response "未配置职位源"
// @Router /api/job/fetch-jobs [get]
func (jc *JobController) FetchJobs(c *gin.Context) {
	if jc.Feed == nil {
		util.Error(c, http.StatusServiceUnavailable, "Job feed is not configured")
		return
	}
	result, err := jc.Feed.Import(c.Request.Context())
	if err != nil {
		util.HandleError(c, util.WrapProvider("job feed", err))
		return
	}
	util.Created(c, "Jobs successfully fetched and saved.", gin.H{
		"fetched":  result.Fetched,
		"inserted": result.Inserted,
	})
}
