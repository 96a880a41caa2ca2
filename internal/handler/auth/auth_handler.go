// Package auth 员工登录与令牌刷新接口
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/fitness-crm-backend/internal/common/handler"
	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
	authService "github.com/dumeirei/fitness-crm-backend/internal/service/auth"
)

// Handler 认证接口
type Handler struct {
	svc *authService.AuthService
}

// NewHandler 创建认证接口
func NewHandler(svc *authService.AuthService) *Handler {
	return &Handler{svc: svc}
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegisterRoutes 公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/refresh", h.RefreshToken)
}

// RegisterProtectedRoutes 需登录的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/auth/me", h.GetCurrentStaff)
}

// Login 员工登录
// @Summary 用户名密码登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req authService.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, resp)
}

// RefreshToken 用刷新令牌换一对新令牌
// @Summary 刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "刷新令牌"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, pair)
}

// GetCurrentStaff 当前登录员工
// @Summary 当前员工信息
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=authService.StaffInfo}
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/me [get]
func (h *Handler) GetCurrentStaff(c *gin.Context) {
	if staffID, ok := handler.RequireStaffID(c); ok {
		info, err := h.svc.GetProfile(c.Request.Context(), staffID)
		handler.MustSucceed(c, err, info)
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "参数错误")
		return false
	}
	return true
}
