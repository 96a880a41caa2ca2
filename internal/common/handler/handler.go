// Package handler 各业务 Handler 共用的错误映射、认证检查与参数解析
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/logger"
	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/middleware"
)

// 默认分页
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// HandleError 把 err 写成响应，返回 true 表示已响应，调用方直接 return
//
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	fields := []zap.Field{
		logger.RequestID(middleware.GetRequestID(c)),
		zap.String("route", c.FullPath()),
		zap.Error(err),
	}

	if !errors.IsAppError(err) {
		// 非业务错误只记日志，不把细节返回给前台
		logger.Error("unhandled error", fields...)
		response.InternalError(c, "")
		return true
	}

	appErr := errors.GetAppError(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", append(fields, zap.Int("code", appErr.Code))...)
	}
	response.Error(c, status, appErr.Code, appErr.Message)
	return true
}

// MustSucceed 出错写错误响应，否则 200
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if !HandleError(c, err) {
		response.Success(c, data)
	}
}

// MustCreate 出错写错误响应，否则 201
func MustCreate(c *gin.Context, err error, data interface{}) {
	if !HandleError(c, err) {
		response.Created(c, data)
	}
}

// RequireStaffID 当前登录员工，未登录时已写 401
func RequireStaffID(c *gin.Context) (int64, bool) {
	if id := middleware.GetStaffID(c); id != 0 {
		return id, true
	}
	response.Unauthorized(c, "")
	return 0, false
}

// ParseID 解析路径参数 id，resource 用于拼错误文案，如 "支付"
func ParseID(c *gin.Context, resource string) (int64, bool) {
	id, ok := positiveID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "无效的"+resource+"ID")
	}
	return id, ok
}

// RequireStaffAndParseID RequireStaffID 与 ParseID 的组合
func RequireStaffAndParseID(c *gin.Context, resource string) (staffID, id int64, ok bool) {
	if staffID, ok = RequireStaffID(c); !ok {
		return 0, 0, false
	}
	if id, ok = ParseID(c, resource); !ok {
		return 0, 0, false
	}
	return staffID, id, true
}

func positiveID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

// parseQuery 解析可选查询参数，缺省时返回 (nil, true)，失败时已写 400
func parseQuery[T any](c *gin.Context, name, errMsg string, parse func(string) (T, bool)) (*T, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, ok := parse(raw)
	if !ok {
		response.BadRequest(c, errMsg)
		return nil, false
	}
	return &v, true
}

// ParseQueryID 可选的正整数 ID 查询参数
func ParseQueryID(c *gin.Context, name, resource string) (*int64, bool) {
	return parseQuery(c, name, "无效的"+resource+"ID", positiveID)
}

// ParseQueryDate 可选的 YYYY-MM-DD 查询参数
func ParseQueryDate(c *gin.Context, name, errMsg string) (*time.Time, bool) {
	return parseQuery(c, name, errMsg, func(s string) (time.Time, bool) {
		t, err := utils.ParseDate(s)
		return t, err == nil
	})
}

// ParseQueryDecimal 可选的金额查询参数
func ParseQueryDecimal(c *gin.Context, name, errMsg string) (*decimal.Decimal, bool) {
	return parseQuery(c, name, errMsg, func(s string) (decimal.Decimal, bool) {
		d, err := decimal.NewFromString(s)
		return d, err == nil
	})
}

// ParseQueryBool 布尔查询参数，无法识别时为 false
func ParseQueryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}

// BindPagination 读取 page 与 page_size，page_size=0 表示不分页
func BindPagination(c *gin.Context) utils.Page {
	p := utils.Page{Page: DefaultPage, PageSize: DefaultPageSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil {
		p.PageSize = v
	}
	return p.Clamp()
}
