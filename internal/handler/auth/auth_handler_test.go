package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/fitness-crm-backend/internal/common/crypto"
	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	"github.com/dumeirei/fitness-crm-backend/internal/common/jwt"
	"github.com/dumeirei/fitness-crm-backend/internal/middleware"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
	authService "github.com/dumeirei/fitness-crm-backend/internal/service/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupAuthAPI(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	hash, err := crypto.HashPassword("secret123", 4)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Staff{
		Username: "boss", PasswordHash: hash, Name: "店长",
		Role: models.StaffRoleManager, IsActive: true, CanApproveRefund: true,
	}).Error)

	manager := jwt.NewManager(&jwt.Config{Secret: "api-test", AccessExpireTime: time.Hour, RefreshExpireTime: time.Hour, Issuer: "fitness-crm"})
	h := NewHandler(authService.NewAuthService(repository.NewStaffRepository(db), manager, nil))

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterRoutes(v1)
	h.RegisterProtectedRoutes(v1.Group("", middleware.StaffAuth(manager)))
	return r
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func call(t *testing.T, r *gin.Engine, method, path, auth string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestAuthAPI(t *testing.T) {
	r := setupAuthAPI(t)

	status, resp := call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "boss", "password": "secret123"})
	require.Equal(t, http.StatusOK, status)
	var login authService.LoginResponse
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	require.NotNil(t, login.TokenPair)
	assert.True(t, login.Staff.CanApproveRefund)

	t.Run("当前员工", func(t *testing.T) {
		status, resp := call(t, r, http.MethodGet, "/api/v1/auth/me", "Bearer "+login.TokenPair.AccessToken, nil)
		require.Equal(t, http.StatusOK, status)
		var info authService.StaffInfo
		require.NoError(t, json.Unmarshal(resp.Data, &info))
		assert.Equal(t, "boss", info.Username)

		status, _ = call(t, r, http.MethodGet, "/api/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("刷新令牌", func(t *testing.T) {
		status, resp := call(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": login.TokenPair.RefreshToken})
		require.Equal(t, http.StatusOK, status)
		var pair jwt.TokenPair
		require.NoError(t, json.Unmarshal(resp.Data, &pair))
		assert.NotEmpty(t, pair.AccessToken)

		status, _ = call(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": login.TokenPair.AccessToken})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("密码错误", func(t *testing.T) {
		status, resp := call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "boss", "password": "wrong"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, 2007, resp.Code)

		status, _ = call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "boss"})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}
