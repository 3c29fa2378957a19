package controller

import (
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EducatorController 教师侧接口：课程、看板、职位与申请人
type EducatorController struct {
	Users        *service.UserService
	Courses      *service.CourseService
	Educator     *service.EducatorService
	Jobs         *service.JobService
	Applications *service.ApplicationService
}

func NewEducatorController(users *service.UserService, courses *service.CourseService, educator *service.EducatorService,
	jobs *service.JobService, applications *service.ApplicationService) *EducatorController {
	return &EducatorController{
		Users:        users,
		Courses:      courses,
		Educator:     educator,
		Jobs:         jobs,
		Applications: applications,
	}
}

var imageTypes = []string{util.MimeImage}

// UpdateRole 将当前用户设为教师
// @Summary 成为教师
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Router /api/educator/update-role [get]
func (ec *EducatorController) UpdateRole(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := ec.Users.PromoteToEducator(c.Request.Context(), userID); err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "You can publish a course now")
}

// @Summary 新增课程
// @Tags 教师
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param courseData formData string true "课程JSON"
// @Param image formData file true "封面"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/educator/add-course [post]
func (ec *EducatorController) AddCourse(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.CourseInput
	if err := formJSON(c, "courseData", &in); err != nil {
		util.HandleError(c, err)
		return
	}
	thumbnail, err := formUpload(c, "image", imageTypes)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	course, err := ec.Courses.Create(c.Request.Context(), userID, in, thumbnail)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Created(c, "Course Added", gin.H{"course": course})
}

// @Summary 我的课程
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{courses=[]model.Course}
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/educator/courses [get]
func (ec *EducatorController) ListCourses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courses, err := ec.Courses.ListByEducator(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"courses": courses})
}

// @Summary 我的课程详情
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/educator/course/{id} [get]
func (ec *EducatorController) GetCourse(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	course, err := ec.Courses.GetOwned(c.Request.Context(), userID, id)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"course": course})
}

// UpdateCourse 支持 multipart(courseData + image) 或纯 JSON
// @Summary 更新课程
// @Tags 教师
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Param courseData formData string false "课程JSON"
// @Param image formData file false "封面"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/educator/course/{id} [put]
func (ec *EducatorController) UpdateCourse(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	var patch model.CoursePatch
	var thumbnail *util.Upload
	if c.ContentType() == gin.MIMEJSON {
		if err := bindJSON(c, &patch); err != nil {
			util.HandleError(c, err)
			return
		}
	} else {
		if err := formJSON(c, "courseData", &patch); err != nil {
			util.HandleError(c, err)
			return
		}
		if thumbnail, err = formUpload(c, "image", imageTypes); err != nil {
			util.HandleError(c, err)
			return
		}
	}

	course, err := ec.Courses.Update(c.Request.Context(), userID, id, patch, thumbnail)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Course Updated Successfully", gin.H{"course": course})
}

// @Summary 删除课程
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/educator/course/{id} [delete]
func (ec *EducatorController) DeleteCourse(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := util.ParseObjectID("id", c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	if err := ec.Courses.Delete(c.Request.Context(), userID, id); err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Course deleted successfully")
}

// @Summary 教师看板
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{dashboardData=service.Dashboard}
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/educator/dashboard [get]
func (ec *EducatorController) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	data, err := ec.Educator.Dashboard(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"dashboardData": data})
}

// @Summary 已报名学员
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/educator/enrolled-students [get]
func (ec *EducatorController) EnrolledStudents(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	students, err := ec.Educator.EnrolledStudents(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"enrolledStudents": students})
}

// AddJob multipart: jobData(JSON) + 可选 image 作为公司 logo
// @Summary 发布职位
// @Tags 教师
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param jobData formData string true "职位JSON"
// @Param image formData file false "公司logo"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/educator/add-job [post]
func (ec *EducatorController) AddJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.JobInput
	if err := formJSON(c, "jobData", &in); err != nil {
		util.HandleError(c, err)
		return
	}
	logo, err := formUpload(c, "image", imageTypes)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	job, err := ec.Jobs.Create(c.Request.Context(), userID, in, logo)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Created(c, "Job Posted Successfully", gin.H{"job": job})
}

// @Summary 我的职位
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{jobs=[]model.Job}
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/educator/jobs [get]
func (ec *EducatorController) ListJobs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	jobs, err := ec.Jobs.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"jobs": jobs})
}

func (ec *EducatorController) jobID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := util.ParseObjectID("jobId", c.Param("jobId"))
	if err != nil {
		util.HandleError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// @Summary 我的职位详情
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/educator/job/{jobId} [get]
func (ec *EducatorController) GetJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := ec.jobID(c)
	if !ok {
		return
	}
	job, err := ec.Jobs.GetOwned(c.Request.Context(), userID, id)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"job": job})
}

// @Summary 更新职位
// @Tags 教师
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param jobId path string true "职位ID"
// @Param jobData formData string false "职位JSON"
// @Param image formData file false "公司logo"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/educator/job/{jobId} [put]
func (ec *EducatorController) UpdateJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := ec.jobID(c)
	if !ok {
		return
	}

	var patch model.JobPatch
	var logo *util.Upload
	var err error
	if c.ContentType() == gin.MIMEJSON {
		if err := bindJSON(c, &patch); err != nil {
			util.HandleError(c, err)
			return
		}
	} else {
		if err := formJSON(c, "jobData", &patch); err != nil {
			util.HandleError(c, err)
			return
		}
		if logo, err = formUpload(c, "image", imageTypes); err != nil {
			util.HandleError(c, err)
			return
		}
	}

	job, err := ec.Jobs.Update(c.Request.Context(), userID, id, patch, logo)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Job Updated Successfully", gin.H{"job": job})
}

// @Summary 删除职位
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/educator/job/{jobId} [delete]
func (ec *EducatorController) DeleteJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := ec.jobID(c)
	if !ok {
		return
	}
	if err := ec.Jobs.Delete(c.Request.Context(), userID, id); err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Job deleted successfully")
}

// JobApplicants 当前教师所有职位收到的申请
// @Summary 所有职位申请人
// @Tags 教师
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{applications=[]model.ApplicationView}
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/educator/job-applicants [get]
func (ec *EducatorController) JobApplicants(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	apps, err := ec.Applications.ApplicantsForOwner(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"applications": apps})
}
