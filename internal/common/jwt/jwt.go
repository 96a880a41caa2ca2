// Package jwt 提供员工令牌签发与校验
package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserTypeStaff 前台员工
const UserTypeStaff = "staff"

// 令牌用途
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Claims 自定义 JWT 声明
type Claims struct {
	StaffID          int64  `json:"staff_id"`
	UserType         string `json:"user_type"`
	Kind             string `json:"kind"`
	CanApproveRefund bool   `json:"can_approve_refund,omitempty"`
	jwt.RegisteredClaims
}

// Config JWT 配置
type Config struct {
	Secret            string
	AccessExpireTime  time.Duration
	RefreshExpireTime time.Duration
	Issuer            string
}

// Manager JWT 管理器
type Manager struct {
	config *Config
	now    func() time.Time
}

// TokenPair 令牌对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Subject 令牌主体
type Subject struct {
	StaffID          int64
	CanApproveRefund bool
}

// 预定义错误
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenNotActive = errors.New("token not active yet")
	ErrTokenKind      = errors.New("unexpected token kind")
)

// NewManager 创建 JWT 管理器
func NewManager(config *Config) *Manager {
	return &Manager{config: config, now: time.Now}
}

// GenerateTokenPair 生成令牌对
func (m *Manager) GenerateTokenPair(sub Subject) (*TokenPair, error) {
	now := m.now()
	accessExpireAt := now.Add(m.config.AccessExpireTime)

	accessToken, err := m.sign(sub, TokenKindAccess, now, accessExpireAt)
	if err != nil {
		return nil, err
	}
	refreshToken, err := m.sign(sub, TokenKindRefresh, now, now.Add(m.config.RefreshExpireTime))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpireAt.Unix(),
	}, nil
}

func (m *Manager) sign(sub Subject, kind string, now, expireAt time.Time) (string, error) {
	claims := &Claims{
		StaffID:          sub.StaffID,
		UserType:         UserTypeStaff,
		Kind:             kind,
		CanApproveRefund: sub.CanApproveRefund,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(sub.StaffID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expireAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ParseToken 解析访问令牌
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenKindAccess)
}

// ParseRefreshToken 解析刷新令牌
func (m *Manager) ParseRefreshToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenKindRefresh)
}

func (m *Manager) parse(tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(m.config.Issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotActive
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	return claims, nil
}

// RefreshToken 用刷新令牌换取新令牌对
func (m *Manager) RefreshToken(refreshTokenString string) (*TokenPair, error) {
	claims, err := m.parse(refreshTokenString, TokenKindRefresh)
	if err != nil {
		return nil, err
	}
	return m.GenerateTokenPair(Subject{StaffID: claims.StaffID, CanApproveRefund: claims.CanApproveRefund})
}
