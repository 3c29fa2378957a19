package controller

import (
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionHeader = "X-Session-ID"

type ChatController struct {
	Chat *service.ChatService
}

func NewChatController(chat *service.ChatService) *ChatController {
	return &ChatController{Chat: chat}
}

// sessionID 登录用户按用户隔离，游客使用客户端提供的会话头
func sessionID(c *gin.Context) string {
	if claims := util.GetUserFromContext(c); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID.String()
	}
	if sid := strings.TrimSpace(c.GetHeader(sessionHeader)); sid != "" {
		return "guest:" + sid
	}
	return ""
}

// @Summary 发送对话消息
// @Tags 对话
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "游客会话ID"
// @Param body body chatRequest true "消息"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 500 {object} util.Response "模型服务错误"
// @Router /api/chatboat/chat [post]
func (cc *ChatController) SendMessage(c *gin.Context) {
	sid := sessionID(c)
	if sid == "" {
		util.HandleError(c, util.MissingFields(sessionHeader))
		return
	}
	var req chatRequest
	if err := bindJSON(c, &req); err != nil {
		util.HandleError(c, err)
		return
	}

	reply, err := cc.Chat.Chat(c.Request.Context(), sid, req.Message)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, reply)
}

// @Summary 清空对话历史
// @Tags 对话
// @Produce json
// @Param X-Session-ID header string false "游客会话ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/chatboat/session [delete]
func (cc *ChatController) ResetSession(c *gin.Context) {
	if err := cc.Chat.Reset(c.Request.Context(), sessionID(c)); err != nil {
		util.HandleError(c, err)
		return
	}
	util.SuccessMessage(c, "Chat history cleared")
}
