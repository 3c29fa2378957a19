package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 校验错误里使用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

type courseRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

type progressRequest struct {
	CourseID  string `json:"courseId" binding:"required"`
	LectureID string `json:"lectureId" binding:"required"`
}

type ratingRequest struct {
	CourseID string `json:"courseId" binding:"required"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
}

type jobRequest struct {
	JobID string `json:"jobId" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// bindJSON 把绑定失败统一转成 ValidationError
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var missing []string
		var reasons []string
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
				continue
			}
			reasons = append(reasons, fmt.Sprintf("%s is invalid", fe.Field()))
		}
		return &util.ValidationError{Missing: missing, Reason: strings.Join(reasons, "; ")}
	}
	return util.NewValidationError("invalid request body")
}

// formUpload 读取可选的上传文件，未上传时返回 nil
func formUpload(c *gin.Context, field string, allowed []string) (*util.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, util.NewValidationError(fmt.Sprintf("invalid %s upload", field))
	}
	return util.ReadUpload(fh, allowed)
}

// formJSON 解析 multipart 中以字符串形式提交的 JSON 字段
func formJSON(c *gin.Context, field string, dst interface{}) error {
	raw := c.PostForm(field)
	if strings.TrimSpace(raw) == "" {
		return util.MissingFields(field)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return util.NewValidationError(fmt.Sprintf("%s is not valid JSON", field))
	}
	return nil
}

// currentUser 受保护路由上由 AuthMiddleware 注入
func currentUser(c *gin.Context) (model.UserID, bool) {
	claims := util.GetUserFromContext(c)
	if claims == nil || claims.UserID == "" {
		util.Unauthorized(c)
		return "", false
	}
	return claims.UserID, true
}
