// Package response 统一响应格式单元测试
package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTest 创建测试用的 Gin 上下文
func setupTest() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

// parseResponse 解析响应为 Response 结构
func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	c, w := setupTest()

	Success(c, map[string]interface{}{"id": 1, "payment_no": "PAY-20240101-001"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "success", resp.Message)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "PAY-20240101-001", data["payment_no"])
}

func TestSuccess_WithNilData(t *testing.T) {
	c, w := setupTest()

	Success(c, nil)

	resp := parseResponse(t, w)
	assert.Equal(t, 0, resp.Code)
	assert.Nil(t, resp.Data)
	assert.NotContains(t, w.Body.String(), `"data"`)
}

func TestCreated(t *testing.T) {
	c, w := setupTest()

	Created(c, map[string]int64{"id": 9})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, parseResponse(t, w).Code)
}

func TestSuccessPage(t *testing.T) {
	c, w := setupTest()

	SuccessPage(c, []string{"a", "b"}, 12, 2, 2)

	var resp struct {
		Code int      `json:"code"`
		Data PageData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(12), resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Page)
	assert.Equal(t, 2, resp.Data.PageSize)
	assert.Len(t, resp.Data.List, 2)
}

func TestRequestIDEcho(t *testing.T) {
	c, w := setupTest()
	c.Set(RequestIDKey, "req-42")

	Error(c, http.StatusNotFound, 6000, "支付记录不存在")

	assert.Equal(t, "req-42", parseResponse(t, w).RequestID)

	c, w = setupTest()
	Success(c, nil)
	assert.NotContains(t, w.Body.String(), "request_id")
}

func TestError(t *testing.T) {
	c, w := setupTest()

	Error(c, http.StatusConflict, 6008, "支付已终结")

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, 6008, resp.Code)
	assert.Equal(t, "支付已终结", resp.Message)
}

func TestShortcutErrors(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *gin.Context)
		wantStatus int
		wantMsg    string
	}{
		{"BadRequest", func(c *gin.Context) { BadRequest(c, "参数错误") }, http.StatusBadRequest, "参数错误"},
		{"BadRequest 默认消息", func(c *gin.Context) { BadRequest(c, "") }, http.StatusBadRequest, "请求参数错误"},
		{"Unauthorized 默认消息", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, "请先登录"},
		{"Forbidden 默认消息", func(c *gin.Context) { Forbidden(c, "") }, http.StatusForbidden, "无权访问"},
		{"NotFound", func(c *gin.Context) { NotFound(c, "支付不存在") }, http.StatusNotFound, "支付不存在"},
		{"NotFound 默认消息", func(c *gin.Context) { NotFound(c, "") }, http.StatusNotFound, "资源不存在"},
		{"InternalError 默认消息", func(c *gin.Context) { InternalError(c, "") }, http.StatusInternalServerError, "服务器内部错误"},
		{"TooManyRequests", func(c *gin.Context) { TooManyRequests(c, "") }, http.StatusTooManyRequests, "请求过于频繁"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTest()
			tt.call(c)
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := parseResponse(t, w)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}
