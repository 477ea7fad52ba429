package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "benchmix"

// Metrics はプロビジョニングのメトリクスを収集する
type Metrics struct {
	totalProvisions   atomic.Uint64
	successProvisions atomic.Uint64
	failedProvisions  atomic.Uint64
	totalLatencyNs    atomic.Uint64
	initTokens        atomic.Uint64
	payloadTokens     atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	latencies         []time.Duration
	maxLatencySamples int

	tokensMinted *prometheus.CounterVec
	provisions   *prometheus.CounterVec
	duration     prometheus.Histogram
	quota        *prometheus.GaugeVec
	instances    *prometheus.CounterVec
}

// New は新しいメトリクスを作成する
// reg が nil の場合はコレクタを登録しない
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		startTime:         time.Now(),
		latencies:         make([]time.Duration, 0, 1000),
		maxLatencySamples: 1000,

		tokensMinted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_minted_total",
			Help:      "Number of gas tokens minted, split by stage (init or payload).",
		}, []string{"stage"}),
		provisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisions_total",
			Help:      "Number of per-endpoint provisioning calls, split by result.",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provision_duration_seconds",
			Help:      "Time spent minting the tokens of one endpoint.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		quota: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workload_quota",
			Help:      "Derived quota of a workload kind for the current run.",
		}, []string{"kind", "field"}),
		instances: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workload_instances_total",
			Help:      "Number of workload instances assembled, split by kind.",
		}, []string{"kind"}),
	}
}

// RecordSuccess は成功したプロビジョニングを記録する
func (m *Metrics) RecordSuccess(latency time.Duration, initTokens, payloadTokens int) {
	m.totalProvisions.Add(1)
	m.successProvisions.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	m.initTokens.Add(uint64(initTokens))
	m.payloadTokens.Add(uint64(payloadTokens))

	m.provisions.WithLabelValues("success").Inc()
	m.tokensMinted.WithLabelValues("init").Add(float64(initTokens))
	m.tokensMinted.WithLabelValues("payload").Add(float64(payloadTokens))
	m.duration.Observe(latency.Seconds())

	m.mu.Lock()
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, latency)
	}
	m.mu.Unlock()
}

// RecordFailure は失敗したプロビジョニングを記録する
func (m *Metrics) RecordFailure(latency time.Duration) {
	m.totalProvisions.Add(1)
	m.failedProvisions.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.provisions.WithLabelValues("failure").Inc()
	m.duration.Observe(latency.Seconds())
}

// SetQuota は種類ごとの目標値を記録する
func (m *Metrics) SetQuota(kind string, qps, workers, maxOps uint64) {
	m.quota.WithLabelValues(kind, "target_qps").Set(float64(qps))
	m.quota.WithLabelValues(kind, "num_workers").Set(float64(workers))
	m.quota.WithLabelValues(kind, "max_ops").Set(float64(maxOps))
}

// RecordInstance は組み立てたワークロードを記録する
func (m *Metrics) RecordInstance(kind string) {
	m.instances.WithLabelValues(kind).Inc()
}

// TotalProvisions は総プロビジョニング数を返す
func (m *Metrics) TotalProvisions() uint64 {
	return m.totalProvisions.Load()
}

// SuccessProvisions は成功数を返す
func (m *Metrics) SuccessProvisions() uint64 {
	return m.successProvisions.Load()
}

// FailedProvisions は失敗数を返す
func (m *Metrics) FailedProvisions() uint64 {
	return m.failedProvisions.Load()
}

// TokensMinted は生成されたトークンの総数を返す
func (m *Metrics) TokensMinted() uint64 {
	return m.initTokens.Load() + m.payloadTokens.Load()
}

// AverageLatency は平均レイテンシを返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.totalProvisions.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// P99Latency はP99レイテンシを返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := slices.Clone(m.latencies)
	slices.Sort(sorted)

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ErrorRate はエラー率を返す（0.0〜1.0）
func (m *Metrics) ErrorRate() float64 {
	total := m.totalProvisions.Load()
	if total == 0 {
		return 0
	}
	return float64(m.failedProvisions.Load()) / float64(total)
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	TotalProvisions   uint64        `json:"total_provisions"`
	SuccessProvisions uint64        `json:"success_provisions"`
	FailedProvisions  uint64        `json:"failed_provisions"`
	InitTokens        uint64        `json:"init_tokens"`
	PayloadTokens     uint64        `json:"payload_tokens"`
	AverageLatency    time.Duration `json:"average_latency"`
	P99Latency        time.Duration `json:"p99_latency"`
	ErrorRate         float64       `json:"error_rate"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TotalProvisions:   m.TotalProvisions(),
		SuccessProvisions: m.SuccessProvisions(),
		FailedProvisions:  m.FailedProvisions(),
		InitTokens:        m.initTokens.Load(),
		PayloadTokens:     m.payloadTokens.Load(),
		AverageLatency:    m.AverageLatency(),
		P99Latency:        m.P99Latency(),
		ErrorRate:         m.ErrorRate(),
		Elapsed:           time.Since(m.startTime),
	}
}
