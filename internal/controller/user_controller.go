package controller

import (
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 学员侧接口：档案、购买、进度、证书、收藏、简历
type UserController struct {
	Users     *service.UserService
	Courses   *service.CourseService
	Progress  *service.ProgressService
	Purchases *service.PurchaseService
	Jobs      *service.JobService
}

func NewUserController(users *service.UserService, courses *service.CourseService, progress *service.ProgressService,
	purchases *service.PurchaseService, jobs *service.JobService) *UserController {
	return &UserController{
		Users:     users,
		Courses:   courses,
		Progress:  progress,
		Purchases: purchases,
		Jobs:      jobs,
	}
}

// @Summary 当前用户档案
// @Tags 学员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{user=model.User}
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/data [get]
func (uc *UserController) GetUserData(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := uc.Users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"user": user})
}

// PurchaseCourse 创建待支付记录并返回收银台地址
// @Summary 购买课程
// @Tags 学员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId body courseRequest true "课程ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Failure 409 {object} util.Response "冲突"
// @Router /api/user/purchase [post]
func (uc *UserController) PurchaseCourse(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req courseRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	courseID, err := util.ParseObjectID("courseId", req.CourseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	url, err := uc.Purchases.Checkout(c.Request.Context(), userID, courseID, c.GetHeader("Origin"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"session_url": url})
}

// @Summary 已购课程
// @Tags 学员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{enrolledCourses=[]model.Course}
// @Failure 401 {object} util.Response "未授权"
// @Router /api/user/enrolled-courses [get]
func (uc *UserController) EnrolledCourses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courses, err := uc.Courses.EnrolledCourses(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"enrolledCourses": courses})
}

// @Summary 标记课时完成
// @Tags 学员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body progressRequest true "课程与课时"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/update-course-progress [post]
func (uc *UserController) UpdateCourseProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req progressRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	courseID, err := util.ParseObjectID("courseId", req.CourseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	already, err := uc.Progress.RecordLectureCompletion(c.Request.Context(), userID, courseID, req.LectureID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	if already {
		util.SuccessMessage(c, "Lecture Already Completed")
		return
	}
	util.SuccessMessage(c, "Progress Updated")
}

// @Summary 课程进度
// @Tags 学员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId body courseRequest true "课程ID"
// @Success 200 {object} util.Response{progressData=model.CourseProgress}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/user/get-course-progress [post]
func (uc *UserController) GetCourseProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req courseRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	courseID, err := util.ParseObjectID("courseId", req.CourseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	progress, err := uc.Progress.GetProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"progressData": progress})
}

// @Summary 课程评分
// @Tags 学员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ratingRequest true "评分"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/add-rating [post]
func (uc *UserController) AddRating(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ratingRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	courseID, err := util.ParseObjectID("courseId", req.CourseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	if err := uc.Courses.AddRating(c.Request.Context(), userID, courseID, req.Rating); err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Rating added")
}

// @Summary 证书资格
// @Tags 学员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId body courseRequest true "课程ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/user/can-get-certificate [post]
func (uc *UserController) CanGetCertificate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req courseRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	courseID, err := util.ParseObjectID("courseId", req.CourseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	e, err := uc.Progress.ComputeEligibility(c.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{
		"canGetCertificate": e.CanGetCertificate,
		"progress": gin.H{
			"completed":  e.Completed,
			"total":      e.Total,
			"percentage": e.Percentage,
		},
	})
}

// @Summary 证书数据
// @Tags 学员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId body courseRequest true "课程ID"
// @Success 200 {object} util.Response{certificateData=model.CertificateData}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/get-certificate-data [post]
func (uc *UserController) GetCertificateData(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req courseRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	courseID, err := util.ParseObjectID("courseId", req.CourseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	data, err := uc.Progress.IssueCertificateData(c.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"certificateData": data})
}

// SaveJob 重复调用即取消收藏
// @Summary 收藏或取消收藏职位
// @Tags 学员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body jobRequest true "职位ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/savedjob [post]
func (uc *UserController) SaveJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req jobRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}
	jobID, err := util.ParseObjectID("jobId", req.JobID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	saved, err := uc.Jobs.ToggleSaved(c.Request.Context(), userID, jobID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	msg := "Job removed from saved jobs"
	if saved {
		msg = "Job saved successfully"
	}
	util.SuccessMessage(c, msg, gin.H{"saved": saved})
}

// @Summary 收藏的职位
// @Tags 学员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{savedJobs=[]model.JobView}
// @Failure 401 {object} util.Response "未授权"
// @Router /api/user/saved-jobs [get]
func (uc *UserController) SavedJobs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	jobs, err := uc.Jobs.SavedJobs(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"savedJobs": jobs})
}

// @Summary 上传简历
// @Tags 学员
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param resume formData file true "PDF简历"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/user/resume [post]
func (uc *UserController) UploadResume(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	up, err := formUpload(c, "resume", []string{util.MimePDF})
	if err != nil {
		util.HandleError(c, err)
		return
	}

	url, err := uc.Users.UploadResume(c.Request.Context(), userID, up)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Resume uploaded successfully", gin.H{"resumeUrl": url})
}

// @Summary 我的简历
// @Tags 学员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/resume [get]
func (uc *UserController) GetResume(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	url, err := uc.Users.GetResume(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"resumeUrl": url})
}

// @Summary 删除简历
// @Tags 学员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/resume [delete]
func (uc *UserController) DeleteResume(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := uc.Users.DeleteResume(c.Request.Context(), userID); err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Resume deleted successfully")
}

// GetUserResume 教师查看申请人简历
// @Summary 查看申请人简历
// @Tags 学员
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/user/resume/{userId} [get]
func (uc *UserController) GetUserResume(c *gin.Context) {
	applicant := model.UserID(c.Param("userId"))
	if applicant == "" {
		util.HandleError(c, util.MissingFields("userId"))
		return
	}
	url, err := uc.Users.GetResume(c.Request.Context(), applicant)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, gin.H{"resumeUrl": url})
}
