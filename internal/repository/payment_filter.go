package repository

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
)

// Predicate 参数化条件片段，值只出现在 Args 中
type Predicate struct {
	Clause string
	Args   []interface{}
}

// PaymentFilter 支付查询条件
type PaymentFilter struct {
	Keyword       string
	PaymentType   string
	PaymentMethod string
	Status        string
	MemberID      *int64
	StaffID       *int64
	DateFrom      *time.Time
	DateTo        *time.Time
	AmountMin     *decimal.Decimal
	AmountMax     *decimal.Decimal
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}

// 允许排序的字段
var paymentSortColumns = map[string]string{
	"payment_date": "payments.payment_date",
	"amount":       "payments.amount",
	"created_at":   "payments.created_at",
	"payment_no":   "payments.payment_no",
}

// DefaultPaymentOrder 默认排序
const DefaultPaymentOrder = "payments.payment_date DESC, payments.created_at DESC, payments.id DESC"

// 固定关联表
var paymentJoins = []string{
	"LEFT JOIN members ON members.id = payments.member_id",
	"LEFT JOIN staff ON staff.id = payments.staff_id",
	"LEFT JOIN membership_types ON membership_types.id = payments.membership_type_id",
	"LEFT JOIN pt_packages ON pt_packages.id = payments.pt_package_id",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Predicates 按字段顺序生成条件片段
func (f *PaymentFilter) Predicates() []Predicate {
	if f == nil {
		return nil
	}

	var preds []Predicate
	add := func(clause string, args ...interface{}) {
		preds = append(preds, Predicate{Clause: clause, Args: args})
	}

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		pattern := "%" + likeEscaper.Replace(kw) + "%"
		add(`(payments.payment_no LIKE ? ESCAPE '\' OR members.name LIKE ? ESCAPE '\' OR members.phone LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}
	if f.PaymentType != "" {
		add("payments.payment_type = ?", f.PaymentType)
	}
	if f.PaymentMethod != "" {
		add("payments.payment_method = ?", f.PaymentMethod)
	}
	if f.Status != "" {
		add("payments.status = ?", f.Status)
	}
	if f.MemberID != nil {
		add("payments.member_id = ?", *f.MemberID)
	}
	if f.StaffID != nil {
		add("payments.staff_id = ?", *f.StaffID)
	}
	if f.DateFrom != nil {
		add("payments.payment_date >= ?", utils.Day(*f.DateFrom))
	}
	if f.DateTo != nil {
		add("payments.payment_date <= ?", utils.Day(*f.DateTo))
	}
	if f.AmountMin != nil {
		add("payments.amount >= ?", *f.AmountMin)
	}
	if f.AmountMax != nil {
		add("payments.amount <= ?", *f.AmountMax)
	}
	return preds
}

// Render 将条件渲染为单个合取式
func (f *PaymentFilter) Render() (string, []interface{}) {
	preds := f.Predicates()
	if len(preds) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(preds))
	var args []interface{}
	for _, p := range preds {
		clauses = append(clauses, p.Clause)
		args = append(args, p.Args...)
	}
	return strings.Join(clauses, " AND "), args
}

// Scope 固定关联加过滤条件，列表查询与计数共用
func (f *PaymentFilter) Scope() func(*gorm.DB) *gorm.DB {
	where, args := f.Render()
	return func(db *gorm.DB) *gorm.DB {
		for _, j := range paymentJoins {
			db = db.Joins(j)
		}
		if where != "" {
			db = db.Where(where, args...)
		}
		return db
	}
}

// OrderBy 排序子句，仅接受白名单字段
func (f *PaymentFilter) OrderBy() string {
	if f == nil {
		return DefaultPaymentOrder
	}
	col, ok := paymentSortColumns[f.SortBy]
	if !ok {
		return DefaultPaymentOrder
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}
	return col + " " + dir + ", payments.id " + dir
}

// IsSortable 判断字段是否可排序
func IsSortable(field string) bool {
	_, ok := paymentSortColumns[field]
	return ok
}
