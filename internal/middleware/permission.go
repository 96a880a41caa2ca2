package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
)

// RequireRefundApprover 令牌须带退款审批权限，须挂在 StaffAuth 之后。
// 令牌签发后权限可能被收回，服务层在事务内按员工目录再校验一次
func RequireRefundApprover() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch claims := GetClaims(c); {
		case claims == nil:
			abortUnauthorized(c, "请先登录")
		case !claims.CanApproveRefund:
			response.Forbidden(c, "无退款审批权限")
			c.Abort()
		default:
			c.Next()
		}
	}
}
