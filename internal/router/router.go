package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.im.rolebot/internal/health"
	"sudooom.im.rolebot/internal/reply"
	"sudooom.im.rolebot/internal/service"
)

// Response 统一响应结构
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Handler 只读 HTTP 接口
type Handler struct {
	checker  *health.Checker
	roles    *service.RoleService
	resolver *service.MentionResolver
}

// Setup 注册路由
func Setup(r *gin.Engine, checker *health.Checker, roles *service.RoleService, resolver *service.MentionResolver) {
	h := &Handler{checker: checker, roles: roles, resolver: resolver}

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	api := r.Group("/api/chats/:chatId")
	{
		api.GET("/roles", h.ListRoles)
		api.GET("/roles/:role/members", h.ListMembers)
	}
}

// Health 返回各依赖的连接状态
func (h *Handler) Health(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// Ready 就绪探针
func (h *Handler) Ready(c *gin.Context) {
	if h.checker.IsHealthy(c.Request.Context()) {
		c.String(http.StatusOK, "OK")
		return
	}
	c.String(http.StatusServiceUnavailable, "Not Ready")
}

// ListRoles GET /api/chats/:chatId/roles
func (h *Handler) ListRoles(c *gin.Context) {
	chatId, ok := parseChatId(c)
	if !ok {
		return
	}

	names, err := h.roles.ListRoles(c.Request.Context(), chatId, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: "INTERNAL_ERROR"})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, Response{Code: "OK", Data: names})
}

// ListMembers GET /api/chats/:chatId/roles/:role/members
func (h *Handler) ListMembers(c *gin.Context) {
	chatId, ok := parseChatId(c)
	if !ok {
		return
	}

	res, err := h.resolver.ResolveRoleMentions(c.Request.Context(), c.Param("role"), chatId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: "INTERNAL_ERROR"})
		return
	}

	if code, isCode := res.Code(); isCode {
		status := http.StatusOK
		if code == reply.GetRoleDoesNotExist {
			status = http.StatusNotFound
		}
		c.JSON(status, Response{Code: string(code), Message: code.Text()})
		return
	}

	mentions, _ := res.Value()
	c.JSON(http.StatusOK, Response{Code: "OK", Data: mentions})
}

func parseChatId(c *gin.Context) (int64, bool) {
	chatId, err := strconv.ParseInt(c.Param("chatId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: "INVALID_REQUEST", Message: "invalid chat id"})
		return 0, false
	}
	return chatId, true
}
