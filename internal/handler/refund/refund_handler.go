// Package refund 提供退款相关的 HTTP Handler
package refund

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/fitness-crm-backend/internal/common/handler"
	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
	"github.com/dumeirei/fitness-crm-backend/internal/middleware"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	refundService "github.com/dumeirei/fitness-crm-backend/internal/service/refund"
)

// Handler 退款处理器
type Handler struct {
	refundService *refundService.RefundService
}

// NewHandler 创建退款处理器
func NewHandler(refundSvc *refundService.RefundService) *Handler {
	return &Handler{refundService: refundSvc}
}

// CheckEligibility 退款资格
// @Summary 查询支付的退款资格与最大可退金额
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=refundService.Eligibility}
// @Router /api/v1/payments/{id}/refund-eligibility [get]
func (h *Handler) CheckEligibility(c *gin.Context) {
	id, ok := handler.ParseID(c, "支付")
	if !ok {
		return
	}

	result, err := h.refundService.CheckEligibility(c.Request.Context(), id)
	handler.MustSucceed(c, err, result)
}

// CreateRefund 申请退款
// @Summary 申请退款
// @Tags 退款
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body refundService.CreateRefundRequest true "请求参数"
// @Success 201 {object} response.Response{data=refundService.CreateRefundResponse}
// @Router /api/v1/refunds [post]
func (h *Handler) CreateRefund(c *gin.Context) {
	staffID, ok := handler.RequireStaffID(c)
	if !ok {
		return
	}

	var req refundService.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.refundService.RequestRefund(c.Request.Context(), staffID, &req)
	handler.MustCreate(c, err, result)
}

// UpdateRefund 审批或完成退款
// @Summary 审批、拒绝或完成退款
// @Tags 退款
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Param request body refundService.RefundDecisionRequest true "请求参数"
// @Success 200 {object} response.Response{data=refundService.ChangeResult}
// @Router /api/v1/refunds/{id} [put]
func (h *Handler) UpdateRefund(c *gin.Context) {
	staffID, id, ok := handler.RequireStaffAndParseID(c, "退款")
	if !ok {
		return
	}

	var req refundService.RefundDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的退款操作")
		return
	}

	result, err := h.refundService.UpdateRefund(c.Request.Context(), staffID, id, &req)
	handler.MustSucceed(c, err, result)
}

// ListRefunds 退款列表
// @Summary 退款队列
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param payment_id query int false "支付ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/refunds [get]
func (h *Handler) ListRefunds(c *gin.Context) {
	paymentID, ok := handler.ParseQueryID(c, "payment_id", "支付")
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	result, err := h.refundService.ListRefunds(c.Request.Context(), &repository.RefundFilter{
		Status:    c.Query("status"),
		PaymentID: paymentID,
		Page:      p.Page,
		PageSize:  p.PageSize,
	})
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// RegisterRoutes 注册退款路由，r 需已挂载员工认证
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/payments/:id/refund-eligibility", h.CheckEligibility)

	refunds := r.Group("/refunds")
	{
		refunds.GET("", h.ListRefunds)
		refunds.POST("", h.CreateRefund)
		refunds.PUT("/:id", middleware.RequireRefundApprover(), h.UpdateRefund)
	}
}
