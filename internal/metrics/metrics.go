// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ワーカー、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordSessionStarted()
	RecordSessionCompleted(reason model.CompletionReason, billed float64)
	RecordMessageSent()
	RecordInsufficientBalance(action string)
	RecordHTTPStatus(statusCode int)
	RecordSettleCycle(duration time.Duration, settled int)
	RecordSessionsPurged(n int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sessionsStarted     prometheus.Counter
	sessionsCompleted   *prometheus.CounterVec
	messagesSent        prometheus.Counter
	insufficientBalance *prometheus.CounterVec
	billedAmount        prometheus.Counter
	httpRequests        *prometheus.CounterVec
	settleLatency       prometheus.Histogram
	sessionsSettled     prometheus.Counter
	sessionsPurged      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutrifood_sessions_started_total",
			Help: "開始された相談セッションの合計数",
		}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrifood_sessions_completed_total",
			Help: "終了理由別の完了した相談セッション数",
		}, []string{"reason"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutrifood_messages_sent_total",
			Help: "受理されたセッションメッセージの合計数",
		}),
		insufficientBalance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrifood_insufficient_balance_total",
			Help: "操作別の残高不足による拒否数",
		}, []string{"action"}),
		billedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutrifood_billed_amount_total",
			Help: "精算で請求された金額の合計",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrifood_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		settleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nutrifood_settle_cycle_seconds",
			Help:    "精算サイクル1回の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutrifood_sessions_settled_total",
			Help: "残高到達によりワーカーが精算したセッション数",
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutrifood_sessions_purged_total",
			Help: "保持期間を過ぎて削除された終了済みセッション数",
		}),
	}

	reg.MustRegister(
		c.sessionsStarted,
		c.sessionsCompleted,
		c.messagesSent,
		c.insufficientBalance,
		c.billedAmount,
		c.httpRequests,
		c.settleLatency,
		c.sessionsSettled,
		c.sessionsPurged,
	)

	return c
}

// RecordSessionStarted はセッション開始を記録する。
func (c *Collector) RecordSessionStarted() {
	c.sessionsStarted.Inc()
}

// RecordSessionCompleted はセッション完了と請求額を記録する。
func (c *Collector) RecordSessionCompleted(reason model.CompletionReason, billed float64) {
	c.sessionsCompleted.WithLabelValues(string(reason)).Inc()
	if billed > 0 {
		c.billedAmount.Add(billed)
	}
}

// RecordMessageSent はメッセージ受理を記録する。
func (c *Collector) RecordMessageSent() {
	c.messagesSent.Inc()
}

// RecordInsufficientBalance は残高不足による拒否を記録する。
// actionは verify / start / send のいずれか。
func (c *Collector) RecordInsufficientBalance(action string) {
	c.insufficientBalance.WithLabelValues(action).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSettleCycle は精算サイクルの所要時間と精算件数を記録する。
func (c *Collector) RecordSettleCycle(duration time.Duration, settled int) {
	c.settleLatency.Observe(duration.Seconds())
	c.sessionsSettled.Add(float64(settled))
}

// RecordSessionsPurged はクリーンアップで削除したセッション数を記録する。
func (c *Collector) RecordSessionsPurged(n int) {
	c.sessionsPurged.Add(float64(n))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// 一部のコレクターが失敗しても収集できたメトリクスは返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// SetupMetricsRoute は/metricsのみを提供するHTTPハンドラーを返す。
// APIルーターを持たないワーカープロセスで使う。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
