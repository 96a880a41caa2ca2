// Package utils 日期、金额与分页等小工具
package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout 业务日期格式
const DateLayout = "2006-01-02"

// MaxPageSize 单页上限
const MaxPageSize = 100

// Day 取日期部分，统一落在 UTC 零点
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today 当天
func Today() time.Time { return Day(time.Now().UTC()) }

// MonthStart 当月 1 日
func MonthStart(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, 1-t.Day())
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式应为 YYYY-MM-DD: %q", s)
	}
	return t, nil
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// RoundMoney 金额四舍五入到分
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Ptr 取值的指针
func Ptr[T any](v T) *T { return &v }

// Deref 解引用，nil 时返回零值
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Contains 判断切片是否包含元素
func Contains[T comparable](items []T, target T) bool {
	for _, v := range items {
		if v == target {
			return true
		}
	}
	return false
}

// Page 分页参数，PageSize 为 0 表示不分页
type Page struct {
	Page     int
	PageSize int
}

// Clamp 把页码修正到 >= 1，页大小修正到 [0, MaxPageSize]
func (p Page) Clamp() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 0:
		p.PageSize = 0
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}
