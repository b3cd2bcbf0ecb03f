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
// ゲートウェイとミューテーションパイプラインから利用する。
type MetricsCollector interface {
	RecordRequest(endpoint string, statusCode int)
	RecordRequestLatency(endpoint string, duration time.Duration)
	RecordNetworkFailure(endpoint string)
	RecordMutation(kind string, success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	networkFail    *prometheus.CounterVec
	mutationTotal  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepsoal_api_request_total",
			Help: "APIリクエストのエンドポイント・ステータスコード別合計数",
		}, []string{"endpoint", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deepsoal_api_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		networkFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepsoal_api_network_failure_total",
			Help: "レスポンスを受信できなかったAPIリクエストの合計数",
		}, []string{"endpoint"}),
		mutationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepsoal_mutation_total",
			Help: "ミューテーションの種別・結果別合計数",
		}, []string{"kind", "result"}),
	}

	reg.MustRegister(
		c.requestTotal,
		c.requestLatency,
		c.networkFail,
		c.mutationTotal,
	)

	return c
}

// RecordRequest はAPIリクエストの完了を記録する。
func (c *Collector) RecordRequest(endpoint string, statusCode int) {
	c.requestTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPIリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(endpoint string, duration time.Duration) {
	c.requestLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordNetworkFailure はレスポンス未受信の失敗を記録する。
func (c *Collector) RecordNetworkFailure(endpoint string) {
	c.networkFail.WithLabelValues(endpoint).Inc()
}

// RecordMutation はミューテーションの実行結果を記録する。
func (c *Collector) RecordMutation(kind string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.mutationTotal.WithLabelValues(kind, result).Inc()
}

// NopCollector は何も記録しないMetricsCollector実装。
// メトリクスが不要なテストや軽量モードで使用する。
type NopCollector struct{}

// RecordRequest は何もしない。
func (NopCollector) RecordRequest(endpoint string, statusCode int) {}

// RecordRequestLatency は何もしない。
func (NopCollector) RecordRequestLatency(endpoint string, duration time.Duration) {}

// RecordNetworkFailure は何もしない。
func (NopCollector) RecordNetworkFailure(endpoint string) {}

// RecordMutation は何もしない。
func (NopCollector) RecordMutation(kind string, success bool) {}

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
