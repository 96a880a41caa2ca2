package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/fitness-crm-backend/internal/common/jwt"
	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
)

// 上下文键
const (
	ContextKeyStaffID = "staff_id"
	ContextKeyClaims  = "claims"
)

const bearerPrefix = "bearer "

// StaffAuth 校验 Authorization: Bearer <access token>，通过后把员工 ID 与 Claims 放入上下文
func StaffAuth(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortUnauthorized(c, "请先登录")
			return
		}

		claims, err := manager.ParseToken(raw)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			abortUnauthorized(c, "登录已过期，请重新登录")
			return
		case err != nil:
			abortUnauthorized(c, "无效的令牌")
			return
		case claims.UserType != jwt.UserTypeStaff:
			response.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Set(ContextKeyStaffID, claims.StaffID)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.Unauthorized(c, msg)
	c.Abort()
}

func bearerToken(header string) string {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// GetStaffID 当前员工 ID，未认证时为 0
func GetStaffID(c *gin.Context) int64 {
	id, _ := c.Value(ContextKeyStaffID).(int64)
	return id
}

// GetClaims 当前令牌的 Claims，未认证时为 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, _ := c.Value(ContextKeyClaims).(*jwt.Claims)
	return claims
}
