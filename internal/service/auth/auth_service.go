// Package auth 提供员工登录认证服务
package auth

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/crypto"
	"github.com/dumeirei/fitness-crm-backend/internal/common/errors"
	"github.com/dumeirei/fitness-crm-backend/internal/common/jwt"
	"github.com/dumeirei/fitness-crm-backend/internal/common/logger"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
)

// AuthService 员工认证服务
type AuthService struct {
	staffRepo  *repository.StaffRepository
	jwtManager *jwt.Manager
	logger     *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(staffRepo *repository.StaffRepository, jwtManager *jwt.Manager, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{staffRepo: staffRepo, jwtManager: jwtManager, logger: log}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Staff     *StaffInfo     `json:"staff"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// StaffInfo 员工信息（不含敏感字段）
type StaffInfo struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	CanApproveRefund bool   `json:"can_approve_refund"`
}

// Login 用户名密码登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	staff, err := s.staffRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.Password, staff.PasswordHash) {
		s.logger.Warn("staff login rejected", logger.StaffID(staff.ID))
		return nil, errors.ErrPasswordError
	}
	if !staff.IsActive {
		return nil, errors.ErrAccountDisabled
	}

	pair, err := s.issue(staff)
	if err != nil {
		return nil, err
	}
	s.logger.Info("staff logged in", logger.StaffID(staff.ID))
	return &LoginResponse{Staff: toStaffInfo(staff), TokenPair: pair}, nil
}

// RefreshToken 刷新令牌，重新读取员工状态与审批权限
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ParseRefreshToken(refreshToken)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}

	staff, err := s.staffRepo.GetByID(ctx, claims.StaffID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTokenInvalid
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !staff.IsActive {
		return nil, errors.ErrAccountDisabled
	}
	return s.issue(staff)
}

// GetProfile 当前员工信息
func (s *AuthService) GetProfile(ctx context.Context, staffID int64) (*StaffInfo, error) {
	staff, err := s.staffRepo.GetByID(ctx, staffID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrStaffNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return toStaffInfo(staff), nil
}

func (s *AuthService) issue(staff *models.Staff) (*jwt.TokenPair, error) {
	pair, err := s.jwtManager.GenerateTokenPair(jwt.Subject{StaffID: staff.ID, CanApproveRefund: staff.CanApproveRefund})
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return pair, nil
}

func toStaffInfo(staff *models.Staff) *StaffInfo {
	return &StaffInfo{
		ID:               staff.ID,
		Username:         staff.Username,
		Name:             staff.Name,
		Role:             staff.Role,
		CanApproveRefund: staff.CanApproveRefund,
	}
}
