// Package crypto 加密工具单元测试
package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("desk-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "desk-pass", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	t.Run("空密码", func(t *testing.T) {
		_, err := HashPassword("", bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordEmpty)
	})

	t.Run("非法 cost 使用默认值", func(t *testing.T) {
		hash, err := HashPassword("x", 99)
		require.NoError(t, err)
		cost, _ := bcrypt.Cost([]byte(hash))
		assert.Equal(t, bcrypt.DefaultCost, cost)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("desk-pass", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword("desk-pass", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("desk-pass", "not-a-hash"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "138****5678", MaskPhone("13812345678"))
	assert.Equal(t, "12345", MaskPhone("12345"))
}

func TestMaskAccount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"纯卡号", "6225880012345678", "************5678"},
		{"带银行名", "招商银行 6225880012345678", "招商银行 ************5678"},
		{"短号码不处理", "1234", "1234"},
		{"空字符串", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskAccount(tt.input))
		})
	}
}
