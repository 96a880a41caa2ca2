// Package metrics 提供 Prometheus 指标收集单元测试
package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew(t *testing.T) {
	t.Run("多次创建不冲突", func(t *testing.T) {
		assert.NotPanics(t, func() {
			New("")
			New("")
		})
	})

	t.Run("自定义命名空间", func(t *testing.T) {
		m := New("desk")
		m.RecordPayment("membership", "card", 120)
		families, err := m.Registry().Gather()
		require.NoError(t, err)

		var names []string
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.Contains(t, names, "desk_payments_created_total")
	})
}

func TestMiddleware(t *testing.T) {
	m := New("")
	r := gin.New()
	r.Use(m.Middleware("/metrics"))
	r.GET("/payments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/1", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/payments/:id", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.httpRequestsInFlight))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fitness_crm_http_requests_total{method="GET",path="/payments/:id",status="200"} 2`)

	// 抓取路径本身不计入
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpRequestsTotal))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, w.Body.String(), `path="/metrics"`)
}

func TestLedgerCounters(t *testing.T) {
	m := New("")

	m.RecordPayment("pt", "cash", 300)
	m.RecordPayment("pt", "cash", 200.5)
	m.RecordPaymentTransition("refunded")
	m.RecordRefund("pending")
	m.RecordRefund("pending")
	m.RecordTxRetry("payment.create")
	m.RecordCacheHit("stats")
	m.RecordCacheMiss("stats")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.paymentsTotal.WithLabelValues("pt", "cash")))
	assert.Equal(t, 500.5, testutil.ToFloat64(m.paymentAmountTotal.WithLabelValues("pt")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.paymentTransitions.WithLabelValues("refunded")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.refundsTotal.WithLabelValues("pending")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.txRetriesTotal.WithLabelValues("payment.create")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheHitsTotal.WithLabelValues("stats")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheMissesTotal.WithLabelValues("stats")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPayment("other", "cash", 1)
		m.RecordPaymentTransition("cancelled")
		m.RecordRefund("approved")
		m.RecordTxRetry("payment.create")
		m.RecordCacheHit("stats")
		m.RecordCacheMiss("stats")
	})
}
