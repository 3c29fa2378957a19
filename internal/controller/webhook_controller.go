package controller

import (
	"context"
	"io"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"
	"learnhire_backend/pkg/monitoring"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentityWebhookParser 验签并解析身份回调
type IdentityWebhookParser interface {
	ParseWebhook(header http.Header, payload []byte) (*service.IdentityEvent, error)
}

// IdentitySyncer 身份回调落库
type IdentitySyncer interface {
	SyncIdentity(ctx context.Context, user *model.User) error
	RemoveIdentity(ctx context.Context, userID model.UserID) error
}

// WebhookController 支付与身份提供方回调，均需原始请求体验签
type WebhookController struct {
	Purchases *service.PurchaseService
	Identity  IdentityWebhookParser
	Users     IdentitySyncer
}

func NewWebhookController(purchases *service.PurchaseService, identity IdentityWebhookParser, users IdentitySyncer) *WebhookController {
	return &WebhookController{Purchases: purchases, Identity: identity, Users: users}
}

// @Summary 支付回调
// @Tags 回调
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "签名"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /stripe [post]
func (wc *WebhookController) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		util.BadRequest(c, "unable to read request body")
		return
	}
	if err := wc.Purchases.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Clerk user.created / user.updated 同步档案，user.deleted 删除档案
// @Summary 身份回调
// @Tags 回调
// @Accept json
// @Produce json
// @Param svix-id header string true "消息ID"
// @Param svix-timestamp header string true "时间戳"
// @Param svix-signature header string true "签名"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /clerk [post]
func (wc *WebhookController) Clerk(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		util.BadRequest(c, "unable to read request body")
		return
	}
	event, err := wc.Identity.ParseWebhook(c.Request.Header, payload)
	if err != nil {
		monitoring.WebhookEvents.WithLabelValues("clerk", "unknown", "rejected").Inc()
		util.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case "user.created", "user.updated":
		err = wc.Users.SyncIdentity(ctx, event.User)
	case "user.deleted":
		err = wc.Users.RemoveIdentity(ctx, event.User.ID)
	default:
		monitoring.WebhookEvents.WithLabelValues("clerk", event.Type, "ignored").Inc()
		util.Success(c, gin.H{})
		return
	}
	if err != nil {
		monitoring.WebhookEvents.WithLabelValues("clerk", event.Type, "error").Inc()
		logger.Log.Error("identity webhook failed", zap.String("type", event.Type), zap.Error(err))
		util.HandleError(c, err)
		return
	}
	monitoring.WebhookEvents.WithLabelValues("clerk", event.Type, "ok").Inc()
	util.Success(c, gin.H{})
}
