package controller

import (
	"context"
	"learnhire_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

type HealthController struct {
	Mongo *mongo.Client
	DB    *gorm.DB
}

func NewHealthController(client *mongo.Client, db *gorm.DB) *HealthController {
	return &HealthController{Mongo: client, DB: db}
}

// HealthCheck 文档库与流水库均可用时返回 ok
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "存储不可用"
// @Router /api/health [get]
func (hc *HealthController) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	components := gin.H{"mongo": "up", "database": "up"}
	healthy := true

	if hc.Mongo != nil {
		if err := hc.Mongo.Ping(ctx, readpref.Primary()); err != nil {
			components["mongo"] = "down"
			healthy = false
		}
	}

	if hc.DB != nil {
		sqlDB, err := hc.DB.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			components["database"] = "down"
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":    false,
			"message":    "Service unavailable",
			"components": components,
		})
		return
	}
	util.Success(c, gin.H{"status": "ok", "components": components})
}
