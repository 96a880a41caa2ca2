// Package payment 提供支付相关的 HTTP Handler
package payment

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/fitness-crm-backend/internal/common/handler"
	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	financeService "github.com/dumeirei/fitness-crm-backend/internal/service/finance"
	paymentService "github.com/dumeirei/fitness-crm-backend/internal/service/payment"
)

// Handler 支付处理器
type Handler struct {
	paymentService *paymentService.PaymentService
	statsService   *financeService.StatisticsService
}

// NewHandler 创建支付处理器
func NewHandler(paymentSvc *paymentService.PaymentService, statsSvc *financeService.StatisticsService) *Handler {
	return &Handler{
		paymentService: paymentSvc,
		statsService:   statsSvc,
	}
}

// CancelRequest 取消支付请求
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreatePayment 创建支付
// @Summary 创建支付
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body paymentService.CreatePaymentRequest true "请求参数"
// @Success 201 {object} response.Response{data=paymentService.CreatePaymentResponse}
// @Router /api/v1/payments [post]
func (h *Handler) CreatePayment(c *gin.Context) {
	staffID, ok := handler.RequireStaffID(c)
	if !ok {
		return
	}

	var req paymentService.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.paymentService.CreatePayment(c.Request.Context(), staffID, &req)
	handler.MustCreate(c, err, result)
}

// UpdatePayment 修改支付
// @Summary 修改支付的金额、方式、日期或备注
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Param request body paymentService.UpdatePaymentRequest true "请求参数"
// @Success 200 {object} response.Response{data=paymentService.ChangeResult}
// @Router /api/v1/payments/{id} [put]
func (h *Handler) UpdatePayment(c *gin.Context) {
	staffID, id, ok := handler.RequireStaffAndParseID(c, "支付")
	if !ok {
		return
	}

	var req paymentService.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.paymentService.UpdatePayment(c.Request.Context(), staffID, id, &req)
	handler.MustSucceed(c, err, result)
}

// CancelPayment 取消支付
// @Summary 取消已完成的支付
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Param request body CancelRequest true "取消原因"
// @Success 200 {object} response.Response{data=paymentService.ChangeResult}
// @Router /api/v1/payments/{id}/cancel [post]
func (h *Handler) CancelPayment(c *gin.Context) {
	staffID, id, ok := handler.RequireStaffAndParseID(c, "支付")
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		response.BadRequest(c, "请填写取消原因")
		return
	}

	result, err := h.paymentService.CancelPayment(c.Request.Context(), staffID, id, strings.TrimSpace(req.Reason))
	handler.MustSucceed(c, err, result)
}

// ListPayments 支付列表
// @Summary 按条件查询支付
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param keyword query string false "支付单号、会员姓名或手机号"
// @Param payment_type query string false "支付类型"
// @Param payment_method query string false "支付方式"
// @Param status query string false "状态"
// @Param member_id query int false "会员ID"
// @Param staff_id query int false "员工ID"
// @Param date_from query string false "开始日期 YYYY-MM-DD"
// @Param date_to query string false "结束日期 YYYY-MM-DD"
// @Param amount_min query string false "最小金额"
// @Param amount_max query string false "最大金额"
// @Param sort_by query string false "排序字段"
// @Param sort_order query string false "asc 或 desc"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量，0 表示不分页"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, result.Page, result.PageSize)
}

func bindFilter(c *gin.Context) (*repository.PaymentFilter, bool) {
	p := handler.BindPagination(c)
	filter := &repository.PaymentFilter{
		Keyword:       strings.TrimSpace(c.Query("keyword")),
		PaymentType:   c.Query("payment_type"),
		PaymentMethod: c.Query("payment_method"),
		Status:        c.Query("status"),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
		Page:          p.Page,
		PageSize:      p.PageSize,
	}

	var ok bool
	if filter.MemberID, ok = handler.ParseQueryID(c, "member_id", "会员"); !ok {
		return nil, false
	}
	if filter.StaffID, ok = handler.ParseQueryID(c, "staff_id", "员工"); !ok {
		return nil, false
	}
	if filter.DateFrom, ok = handler.ParseQueryDate(c, "date_from", "无效的开始日期格式"); !ok {
		return nil, false
	}
	if filter.DateTo, ok = handler.ParseQueryDate(c, "date_to", "无效的结束日期格式"); !ok {
		return nil, false
	}
	if filter.AmountMin, ok = handler.ParseQueryDecimal(c, "amount_min", "无效的最小金额"); !ok {
		return nil, false
	}
	if filter.AmountMax, ok = handler.ParseQueryDecimal(c, "amount_max", "无效的最大金额"); !ok {
		return nil, false
	}
	if filter.SortBy != "" && !repository.IsSortable(filter.SortBy) {
		response.BadRequest(c, "不支持的排序字段")
		return nil, false
	}
	return filter, true
}

// GetPayment 支付详情
// @Summary 支付详情，含退款、审计记录与派生记录
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=paymentService.PaymentDetail}
// @Router /api/v1/payments/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "支付")
	if !ok {
		return
	}

	result, err := h.paymentService.GetPaymentDetail(c.Request.Context(), id)
	handler.MustSucceed(c, err, result)
}

// GetStats 支付统计
// @Summary 支付看板统计
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param refresh query bool false "跳过缓存"
// @Success 200 {object} response.Response
// @Router /api/v1/payments/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	result, err := h.statsService.GetStats(c.Request.Context(), handler.ParseQueryBool(c, "refresh"))
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册支付路由，r 需已挂载员工认证
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.POST("", h.CreatePayment)
		payments.GET("/stats", h.GetStats)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id", h.UpdatePayment)
		payments.POST("/:id/cancel", h.CancelPayment)
	}
}
