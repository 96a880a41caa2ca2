package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
	"github.com/dumeirei/fitness-crm-backend/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	t.Run("无错误", func(t *testing.T) {
		c, w := newContext("/")
		assert.False(t, HandleError(c, nil))
		assert.Equal(t, 0, w.Body.Len())
	})

	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"参数错误", errors.ErrPaymentAmountInvalid, http.StatusBadRequest, 6007},
		{"不存在", errors.ErrPaymentNotFound, http.StatusNotFound, 6000},
		{"状态冲突", errors.ErrPaymentTerminal, http.StatusConflict, 6008},
		{"无权限", errors.ErrPermissionDenied, http.StatusForbidden, 2004},
		{"事务失败", errors.ErrTransactionRetry, http.StatusInternalServerError, 1011},
		{"包装后的业务错误", fmt.Errorf("outer: %w", errors.ErrRefundNotEligible), http.StatusConflict, 7001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("/")
			assert.True(t, HandleError(c, tt.err))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Code)
		})
	}

	t.Run("普通错误不泄露细节", func(t *testing.T) {
		c, w := newContext("/")
		assert.True(t, HandleError(c, fmt.Errorf("dial tcp 10.0.0.1:5432: refused")))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "服务器内部错误", decode(t, w).Message)
	})
}

func TestMustSucceed(t *testing.T) {
	c, w := newContext("/")
	MustSucceed(c, nil, gin.H{"id": 1})
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext("/")
	MustCreate(c, nil, gin.H{"id": 1})
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newContext("/")
	MustCreate(c, errors.ErrInvalidParams, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireStaffID(t *testing.T) {
	c, w := newContext("/")
	_, ok := RequireStaffID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = newContext("/")
	c.Set(middleware.ContextKeyStaffID, int64(7))
	id, ok := RequireStaffID(c)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestParseParamID(t *testing.T) {
	for _, v := range []string{"abc", "0", "-3"} {
		c, w := newContext("/")
		c.Params = gin.Params{{Key: "id", Value: v}}
		_, ok := ParseID(c, "支付")
		assert.False(t, ok, v)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "无效的支付ID", decode(t, w).Message)
	}

	c, _ := newContext("/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := ParseID(c, "支付")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	t.Run("组合", func(t *testing.T) {
		c, _ := newContext("/")
		c.Set(middleware.ContextKeyStaffID, int64(3))
		c.Params = gin.Params{{Key: "id", Value: "9"}}
		staffID, id, ok := RequireStaffAndParseID(c, "退款")
		assert.True(t, ok)
		assert.Equal(t, int64(3), staffID)
		assert.Equal(t, int64(9), id)
	})
}

func TestQueryParsers(t *testing.T) {
	c, _ := newContext("/?member_id=5&date_from=2026-03-01&amount_min=10.5&refresh=true")

	id, ok := ParseQueryID(c, "member_id", "会员")
	require.True(t, ok)
	assert.Equal(t, int64(5), *id)

	id, ok = ParseQueryID(c, "staff_id", "员工")
	assert.True(t, ok)
	assert.Nil(t, id)

	d, ok := ParseQueryDate(c, "date_from", "开始日期格式错误")
	require.True(t, ok)
	assert.Equal(t, "2026-03-01", d.Format("2006-01-02"))

	amt, ok := ParseQueryDecimal(c, "amount_min", "金额格式错误")
	require.True(t, ok)
	assert.Equal(t, "10.5", amt.String())

	assert.True(t, ParseQueryBool(c, "refresh"))
	assert.False(t, ParseQueryBool(c, "missing"))

	t.Run("格式错误", func(t *testing.T) {
		c, w := newContext("/?date_to=03/01/2026")
		_, ok := ParseQueryDate(c, "date_to", "结束日期格式错误")
		assert.False(t, ok)
		assert.Equal(t, "结束日期格式错误", decode(t, w).Message)

		c, w = newContext("/?amount_max=abc")
		_, ok = ParseQueryDecimal(c, "amount_max", "金额格式错误")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBindPagination(t *testing.T) {
	c, _ := newContext("/")
	p := BindPagination(c)
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)

	c, _ = newContext("/?page=0&page_size=1000")
	p = BindPagination(c)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)

	c, _ = newContext("/?page_size=0")
	assert.Equal(t, 0, BindPagination(c).PageSize)

	c, _ = newContext("/?page=x&page_size=y")
	assert.Equal(t, DefaultPageSize, BindPagination(c).PageSize)
}
