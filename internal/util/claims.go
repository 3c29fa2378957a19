package util

import (
	"learnhire_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims 身份令牌中与业务相关的字段
type Claims struct {
	UserID   model.UserID    `json:"sub"`
	Role     model.UserRole  `json:"role,omitempty"`
	Email    string          `json:"email,omitempty"`
	Metadata *ClaimsMetadata `json:"metadata,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsMetadata 会话模板中携带的公开元数据
type ClaimsMetadata struct {
	Role model.UserRole `json:"role,omitempty"`
}

// EffectiveRole 顶层 role 优先，其次 metadata.role，默认 student
func (c *Claims) EffectiveRole() model.UserRole {
	if c.Role != "" {
		return c.Role
	}
	if c.Metadata != nil && c.Metadata.Role != "" {
		return c.Metadata.Role
	}
	return model.Student
}

func (c *Claims) IsEducator() bool {
	return c != nil && c.EffectiveRole() == model.Educator
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
