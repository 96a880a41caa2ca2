// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，决定调用方如何处理错误
type Kind string

// 错误类别
const (
	KindUnknown      Kind = "unknown"
	KindValidation   Kind = "validation"    // 输入不合法，调用方修正后可重试
	KindNotFound     Kind = "not_found"     // 引用的实体不存在
	KindInvalidState Kind = "invalid_state" // 当前状态不允许该操作
	KindPermission   Kind = "permission"    // 操作人无权限
	KindTransaction  Kind = "transaction"   // 存储层失败，事务已回滚
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 同一错误码视为同一错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    KindUnknown,
	}
}

// NewKind 创建指定类别的应用错误
func NewKind(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    KindUnknown,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Kind:    e.Kind,
		Err:     e.Err,
	}
}

// WithMessagef 格式化修改错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Kind:    e.Kind,
		Err:     err,
	}
}

// HTTPStatus 错误类别对应的 HTTP 状态码
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown          = New(1000, "未知错误")
	ErrInvalidParams    = NewKind(1001, KindValidation, "参数错误")
	ErrNotFound         = NewKind(1002, KindNotFound, "资源不存在")
	ErrAlreadyExists    = NewKind(1003, KindValidation, "资源已存在")
	ErrDatabaseError    = NewKind(1004, KindTransaction, "数据库错误")
	ErrCacheError       = New(1005, "缓存错误")
	ErrInternalError    = New(1006, "内部错误")
	ErrRateLimitExceed  = New(1008, "请求过于频繁")
	ErrOperationFailed  = New(1009, "操作失败")
	ErrTransactionRetry = NewKind(1011, KindTransaction, "数据冲突，请稍后重试")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = NewKind(2000, KindPermission, "未登录")
	ErrTokenExpired     = NewKind(2001, KindPermission, "登录已过期")
	ErrTokenInvalid     = NewKind(2002, KindPermission, "无效的令牌")
	ErrPermissionDenied = NewKind(2004, KindPermission, "权限不足")
	ErrAccountDisabled  = NewKind(2005, KindPermission, "账号已禁用")
	ErrPasswordError    = NewKind(2007, KindValidation, "用户名或密码错误")
)

// 会员与员工错误码 (3000-3999)
var (
	ErrMemberNotFound = NewKind(3000, KindNotFound, "会员不存在")
	ErrStaffNotFound  = NewKind(3001, KindNotFound, "员工不存在")
	ErrStaffInactive  = NewKind(3002, KindValidation, "员工已停用")
)

// 套餐错误码 (4000-4999)
var (
	ErrMembershipTypeNotFound = NewKind(4000, KindNotFound, "会籍类型不存在")
	ErrPTPackageNotFound      = NewKind(4001, KindNotFound, "私教课包不存在")
	ErrPlanInactive           = NewKind(4002, KindValidation, "套餐已停售")
	ErrPlanMisconfigured      = NewKind(4003, KindValidation, "套餐配置无效")
)

// 支付错误码 (6000-6999)
var (
	ErrPaymentNotFound      = NewKind(6000, KindNotFound, "支付记录不存在")
	ErrPaymentTypeInvalid   = NewKind(6001, KindValidation, "无效的支付类型")
	ErrPaymentMethodError   = NewKind(6002, KindValidation, "支付方式错误")
	ErrPlanRequired         = NewKind(6003, KindValidation, "缺少套餐")
	ErrPlanConflict         = NewKind(6004, KindValidation, "会籍类型与私教课包不能同时指定")
	ErrLockerFieldsInvalid  = NewKind(6005, KindValidation, "储物柜参数错误")
	ErrPaymentItemInvalid   = NewKind(6006, KindValidation, "支付明细错误")
	ErrPaymentAmountInvalid = NewKind(6007, KindValidation, "支付金额错误")
	ErrPaymentTerminal      = NewKind(6008, KindInvalidState, "支付已结束，不可修改")
	ErrPaymentNotCompleted  = NewKind(6009, KindInvalidState, "支付状态不允许该操作")
	ErrAmountBelowRefunded  = NewKind(6010, KindValidation, "金额不能低于已退款金额")
	ErrPaymentDateInvalid   = NewKind(6011, KindValidation, "支付日期错误")
)

// 退款错误码 (7000-7999)
var (
	ErrRefundNotFound        = NewKind(7000, KindNotFound, "退款记录不存在")
	ErrRefundNotEligible     = NewKind(7001, KindInvalidState, "该支付不可退款")
	ErrRefundAmountInvalid   = NewKind(7002, KindValidation, "退款金额必须大于0")
	ErrRefundAmountExceed    = NewKind(7003, KindValidation, "退款金额超限")
	ErrRefundMethodInvalid   = NewKind(7004, KindValidation, "无效的退款方式")
	ErrRefundAccountRequired = NewKind(7005, KindValidation, "转账退款需填写收款账户")
	ErrRefundStatusError     = NewKind(7006, KindInvalidState, "退款状态异常")
	ErrRefundDecisionInvalid = NewKind(7007, KindValidation, "无效的退款操作")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// KindOf 获取错误类别
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return GetAppError(err).Kind
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
