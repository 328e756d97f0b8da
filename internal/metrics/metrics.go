// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// フォーム、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	RecordSubmit(mode string, outcome string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordRateLimited(limitType string)
	RecordSessionsDeleted(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authSubmit      *prometheus.CounterVec
	authLatency     *prometheus.HistogramVec
	httpStatus      *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	sessionsDeleted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authSubmit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "horizon_auth_submit_total",
			Help: "認証フォーム送信の合計数（モード・結果別）",
		}, []string{"mode", "outcome"}),
		authLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "horizon_auth_submit_duration_seconds",
			Help:    "認証アクション呼び出しの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "horizon_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "horizon_rate_limited_total",
			Help: "レート制限で拒否されたリクエスト数",
		}, []string{"limit_type"}),
		sessionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "horizon_sessions_deleted_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.authSubmit,
		c.authLatency,
		c.httpStatus,
		c.rateLimited,
		c.sessionsDeleted,
	)

	return c
}

// RecordSubmit は認証フォームの送信結果を記録する。
// 検証エラーでアクションを呼び出さなかった送信はレイテンシを記録しない。
func (c *Collector) RecordSubmit(mode string, outcome string, duration time.Duration) {
	c.authSubmit.WithLabelValues(mode, outcome).Inc()
	if duration > 0 {
		c.authLatency.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(limitType string) {
	c.rateLimited.WithLabelValues(limitType).Inc()
}

// RecordSessionsDeleted は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsDeleted(count int64) {
	c.sessionsDeleted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
