// Package response 统一的 JSON 响应信封
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey gin 上下文中保存请求 ID 的键
const RequestIDKey = "request_id"

// CodeOK 成功时的业务码
const CodeOK = 0

// Response 响应信封，request_id 便于前台报障时定位日志
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// PageData 分页数据
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Success 200
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, CodeOK, "success", data)
}

// SuccessPage 分页结果
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, PageData{List: list, Total: total, Page: page, PageSize: pageSize})
}

// Error 错误响应，status 为 HTTP 状态码，code 为业务错误码
func Error(c *gin.Context, status, code int, message string) {
	write(c, status, code, message, nil)
}

// 以下快捷方法的业务码与 HTTP 状态码相同，message 为空时使用默认文案

func plain(c *gin.Context, status int, message, fallback string) {
	if message == "" {
		message = fallback
	}
	Error(c, status, status, message)
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	plain(c, http.StatusBadRequest, message, "请求参数错误")
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	plain(c, http.StatusUnauthorized, message, "请先登录")
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	plain(c, http.StatusForbidden, message, "无权访问")
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	plain(c, http.StatusNotFound, message, "资源不存在")
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context, message string) {
	plain(c, http.StatusTooManyRequests, message, "请求过于频繁")
}

// InternalError 500
func InternalError(c *gin.Context, message string) {
	plain(c, http.StatusInternalServerError, message, "服务器内部错误")
}
