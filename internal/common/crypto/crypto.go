// Package crypto 提供密码哈希与敏感信息脱敏
package crypto

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordEmpty 密码为空
var ErrPasswordEmpty = errors.New("password is empty")

// HashPassword 对密码进行哈希，cost 非法时使用默认值
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrPasswordEmpty
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword 验证密码
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// MaskPhone 手机号脱敏
func MaskPhone(phone string) string {
	if len(phone) != 11 {
		return phone
	}
	return phone[:3] + "****" + phone[7:]
}

// MaskAccount 退款账户信息脱敏，保留末四位
// 形如 "招商银行 6225880012345678" 的账户只处理最后一段
func MaskAccount(info string) string {
	info = strings.TrimSpace(info)
	if info == "" {
		return ""
	}
	head, tail := "", info
	if i := strings.LastIndex(info, " "); i >= 0 {
		head, tail = info[:i+1], info[i+1:]
	}
	n := utf8.RuneCountInString(tail)
	if n <= 4 {
		return head + tail
	}
	runes := []rune(tail)
	return head + strings.Repeat("*", n-4) + string(runes[n-4:])
}
