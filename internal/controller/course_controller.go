package controller

import (
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CourseController 公开课程目录
type CourseController struct {
	Courses *service.CourseService
}

func NewCourseController(courses *service.CourseService) *CourseController {
	return &CourseController{Courses: courses}
}

// ListCourses 已发布课程，支持 keyword 过滤
// @Summary 已发布课程列表
// @Tags 课程
// @Produce json
// @Param keyword query string false "搜索关键词"
// @Success 200 {object} util.Response{courses=[]model.Course}
// @Router /api/course/all [get]
func (cc *CourseController) ListCourses(c *gin.Context) {
	courses, err := cc.Courses.ListPublished(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"courses": courses})
}

// GetCourse 非试看课时的视频地址置空
// @Summary 课程详情
// @Tags 课程
// @Produce json
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{courseData=model.Course}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/course/{id} [get]
func (cc *CourseController) GetCourse(c *gin.Context) {
	id, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	course, err := cc.Courses.GetPublic(c.Request.Context(), id)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"courseData": course})
}
