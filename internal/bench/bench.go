package bench

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"benchmix/internal/allocation"
	"benchmix/internal/endpoint"
	"benchmix/internal/events"
	"benchmix/internal/gas"
	"benchmix/internal/logger"
	"benchmix/internal/metrics"
	"benchmix/internal/price"
	"benchmix/internal/provision"
	"benchmix/internal/workload"
)

// Config はベンチマーク実行の設定
type Config struct {
	Name        string // 実行名
	Description string // 説明
	Mode        string // combined または disjoint

	EndpointCount int // エンドポイント数

	// 負荷設定
	Weights             workload.Weights
	Targets             workload.Targets
	HotnessFactor       uint32
	NumTransferAccounts uint64

	// 資金設定
	GasPrice       uint64 // 参照ガス価格
	GasBalance     uint64 // ガスコインの残高
	PayCoinBalance uint64 // 支払いコインの残高
	CoinType       string // 支払いコインの種類
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:                "default",
		Description:         "Default mixed workload",
		Mode:                allocation.Disjoint.String(),
		EndpointCount:       4,
		Weights:             workload.Weights{Counter: 1, Transfer: 1, Delegation: 1},
		Targets:             workload.Targets{TargetQPS: 100, NumWorkers: 12, InFlightRatio: 2},
		HotnessFactor:       50,
		NumTransferAccounts: 2,
		GasPrice:            1000,
		GasBalance:          1 << 50,
		PayCoinBalance:      1 << 50,
		CoinType:            DefaultCoinType,
	}
}

// DefaultCoinType は支払いコインの既定の種類
const DefaultCoinType = "0x2::sui::SUI"

// Request は割り当ての入力を返す
func (c Config) Request() allocation.Request {
	return allocation.Request{
		Weights:             c.Weights,
		Targets:             c.Targets,
		HotnessFactor:       c.HotnessFactor,
		NumTransferAccounts: c.NumTransferAccounts,
	}
}

// Funding は基礎資金を返す
func (c Config) Funding() provision.Funding {
	return provision.Funding{
		Gas:      gas.Coin{ID: "treasury-gas", Owner: workload.AccountAddress("treasury", 0), Balance: c.GasBalance},
		Coin:     gas.Coin{ID: "treasury-coin", Owner: workload.AccountAddress("treasury", 0), Balance: c.PayCoinBalance},
		CoinType: c.CoinType,
	}
}

// WorkloadResult は1つのワークロードの結果
type WorkloadResult struct {
	Kind          string         `json:"kind"`
	Quota         workload.Quota `json:"quota"`
	PayloadTokens int            `json:"payload_tokens"`
	Counters      int            `json:"counters,omitempty"`
}

// EndpointResult はエンドポイントごとの結果
type EndpointResult struct {
	ID        string           `json:"id"`
	Minted    int              `json:"minted"`
	Workloads []WorkloadResult `json:"workloads"`
}

// Result はベンチマーク準備の結果
type Result struct {
	Name      string        `json:"name"`
	Mode      string        `json:"mode"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	Endpoints      []EndpointResult `json:"endpoints"`
	TotalInstances int              `json:"total_instances"`

	// メトリクス
	Provisions    uint64        `json:"provisions"`
	TokensMinted  uint64        `json:"tokens_minted"`
	AvgLatency    time.Duration `json:"avg_latency"`
	P99Latency    time.Duration `json:"p99_latency"`
	GasRemaining  uint64        `json:"gas_remaining"`
	CoinRemaining uint64        `json:"coin_remaining"`
}

// Engine はベンチマーク準備エンジン
type Engine struct {
	config     Config
	eventBus   *events.Bus
	registerer prometheus.Registerer

	mu      sync.RWMutex
	running bool
	metrics *metrics.Metrics
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config: config,
	}
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// SetRegisterer はPrometheusの登録先を設定する
// 最初の実行より前に呼び出す必要がある
func (e *Engine) SetRegisterer(reg prometheus.Registerer) {
	e.registerer = reg
}

// SetMetrics は記録先のメトリクスを設定する
// 複数のエンジンで同じコレクタを共有する場合に使う
func (e *Engine) SetMetrics(m *metrics.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Config は設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// Plan はトークンを生成せずに割り当てを計算する
func (e *Engine) Plan() (*allocation.Plan, error) {
	mode, err := allocation.ParseMode(e.config.Mode)
	if err != nil {
		return nil, err
	}
	return allocation.NewPlan(mode, e.config.Request(), e.config.EndpointCount)
}

// Run はエンドポイントを作成し、全てのワークロードを準備する
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	mode, err := allocation.ParseMode(e.config.Mode)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, errors.New("benchmark is already running")
	}
	e.running = true
	if e.metrics == nil {
		e.metrics = metrics.New(e.registerer)
	}
	m := e.metrics
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	logger.Info("", "=== Benchmark '%s' started (%s mode) ===", e.config.Name, mode)
	logger.Info("", "Weights: %s", e.config.Weights)

	result := &Result{
		Name:      e.config.Name,
		Mode:      mode.String(),
		StartTime: time.Now(),
	}

	set := endpoint.NewLocalSet(e.config.EndpointCount, "endpoint")
	if err := set.StartAll(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to start endpoints")
	}
	defer func() { _ = set.StopAll() }()

	funding := e.config.Funding()
	minter := provision.NewLocalMinter()
	minter.Register(funding.Gas, DefaultCoinType)
	minter.Register(funding.Coin, funding.CoinType)

	observer := price.NewWatcher(e.config.GasPrice)
	provisioner := provision.New(minter, provision.NewTreasury(funding), observer)
	provisioner.SetMetrics(m)

	configurator := allocation.NewConfigurator(provisioner, observer)
	configurator.SetMetrics(m)
	if e.eventBus != nil {
		configurator.SetEventBus(e.eventBus)
	}

	provisionsBefore := m.TotalProvisions()
	assignments, err := configurator.Configure(ctx, mode, e.config.Request(), set.Endpoints())
	if err != nil {
		return nil, errors.Wrap(err, "allocation failed")
	}
	result.Provisions = m.TotalProvisions() - provisionsBefore

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	collectResults(result, assignments, minter, m)
	result.GasRemaining = minter.Balance(funding.Gas.ID)
	result.CoinRemaining = minter.Balance(funding.Coin.ID)

	logger.Info("", "=== Benchmark '%s' prepared %d workloads ===", e.config.Name, result.TotalInstances)
	return result, nil
}

// collectResults は割り当て結果を集計する
// レイテンシはエンジンの全実行の累計から計算する
func collectResults(result *Result, assignments []allocation.Assignment, minter *provision.LocalMinter, m *metrics.Metrics) {
	for _, a := range assignments {
		er := EndpointResult{
			ID:     a.Endpoint.ID(),
			Minted: minter.Minted(a.Endpoint.ID()),
		}
		for _, info := range a.Workloads {
			wr := WorkloadResult{
				Kind:          info.Kind.String(),
				Quota:         info.Quota,
				PayloadTokens: info.Instance.Payload().Len(),
			}
			switch inst := info.Instance.(type) {
			case *workload.SharedCounter:
				wr.Counters = len(inst.Counters())
			case *workload.Combination:
				wr.Counters = len(inst.Counters())
			}
			er.Workloads = append(er.Workloads, wr)
		}
		result.TotalInstances += len(a.Workloads)
		result.TokensMinted += uint64(er.Minted)
		result.Endpoints = append(result.Endpoints, er)
	}

	snapshot := m.Snapshot()
	result.AvgLatency = snapshot.AverageLatency
	result.P99Latency = snapshot.P99Latency
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, `
================================================================================
                         BENCHMARK REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Mode:           %s
  Start Time:     %s
  End Time:       %s
  Duration:       %v

PROVISIONING
------------
  Provisions:       %d
  Tokens Minted:    %d
  Avg Latency:      %v
  P99 Latency:      %v
  Gas Remaining:    %d
  Coin Remaining:   %d

WORKLOADS
---------
`,
		r.Name,
		r.Mode,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.Provisions,
		r.TokensMinted,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
		r.GasRemaining,
		r.CoinRemaining,
	)

	endpoints := append([]EndpointResult(nil), r.Endpoints...)
	sort.SliceStable(endpoints, func(i, j int) bool { return endpoints[i].ID < endpoints[j].ID })
	for _, ep := range endpoints {
		fmt.Fprintf(&b, "  %-20s minted=%d\n", ep.ID+":", ep.Minted)
		if len(ep.Workloads) == 0 {
			b.WriteString("    (no workloads)\n")
		}
		for _, w := range ep.Workloads {
			fmt.Fprintf(&b, "    %-16s qps=%d workers=%d max_ops=%d payload=%d",
				w.Kind, w.Quota.TargetQPS, w.Quota.NumWorkers, w.Quota.MaxOps, w.PayloadTokens)
			if w.Counters > 0 {
				fmt.Fprintf(&b, " counters=%d", w.Counters)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n  Total Instances:  %d\n", r.TotalInstances)
	b.WriteString("\n================================================================================")
	return b.String()
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Metrics は直近の実行のメトリクスを返す
func (e *Engine) Metrics() *metrics.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.metrics == nil {
		return nil
	}
	snapshot := e.metrics.Snapshot()
	return &snapshot
}
