package allocation

import (
	"context"

	"github.com/pkg/errors"

	"benchmix/internal/endpoint"
	"benchmix/internal/events"
	"benchmix/internal/gas"
	"benchmix/internal/logger"
	"benchmix/internal/metrics"
	"benchmix/internal/price"
	"benchmix/internal/provision"
	"benchmix/internal/worker"
	"benchmix/internal/workload"
)

// ErrNoMode はモードが指定されていない場合に返される
var ErrNoMode = errors.New("allocation mode is required")

// Request は1回の実行の入力
type Request struct {
	Weights             workload.Weights `json:"weights" yaml:"weights"`
	Targets             workload.Targets `json:"targets" yaml:"targets"`
	HotnessFactor       uint32           `json:"hotness_factor" yaml:"hotness_factor"`
	NumTransferAccounts uint64           `json:"num_transfer_accounts" yaml:"num_transfer_accounts"`
}

// Assignment はエンドポイントとそこで実行するワークロードの組
type Assignment struct {
	Endpoint  endpoint.Endpoint
	Workloads []*workload.Info
}

// Configurator はエンドポイントごとにトークンを準備し、ワークロードを組み立てる
type Configurator struct {
	provisioner *provision.Provisioner
	observer    price.Observer
	bus         *events.Bus
	metrics     *metrics.Metrics
}

// NewConfigurator は新しいConfiguratorを作成する
// observer はワークロードの初期化に渡される
func NewConfigurator(p *provision.Provisioner, observer price.Observer) *Configurator {
	return &Configurator{
		provisioner: p,
		observer:    observer,
	}
}

// SetEventBus はイベントの発行先を設定する
func (c *Configurator) SetEventBus(bus *events.Bus) {
	c.bus = bus
}

// SetMetrics はメトリクスの記録先を設定する
func (c *Configurator) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// prepare はトークン要求を導出し、エンドポイント数で分割する
// 組み立てるインスタンスが無い場合は何も要求しない
func prepare(mode Mode, req Request, n int) (*derivation, []gas.Config) {
	d := mode.derive(req)
	if !d.active() {
		d.config = gas.Config{}
	}
	return d, ChunkConfig(d.config, n)
}

// Configure は全エンドポイントを入力順に1つずつ準備する
// 1つでも失敗した場合は結果を返さずにエラーを返す
func (c *Configurator) Configure(ctx context.Context, mode Mode, req Request, endpoints []endpoint.Endpoint) ([]Assignment, error) {
	if mode == nil {
		return nil, ErrNoMode
	}

	d, chunks := prepare(mode, req, len(endpoints))
	for _, e := range d.elided {
		logger.Debug("", "%s mode: %s elided (%s)", mode, e.Name, e.Reason)
		c.publish(events.NewKindElidedEvent(mode.String(), e.Name, e.Reason))
	}
	if c.metrics != nil {
		for _, kq := range d.quotas {
			c.metrics.SetQuota(kq.Name, kq.Quota.TargetQPS, kq.Quota.NumWorkers, kq.Quota.MaxOps)
		}
	}

	assignments := make([]Assignment, len(endpoints))
	if !d.active() {
		for i, ep := range endpoints {
			assignments[i] = Assignment{Endpoint: ep}
		}
		logger.Info("", "%s mode: nothing to allocate (%s)", mode, req.Weights)
		c.publish(events.NewAllocationCompletedEvent(mode.String(), len(endpoints), 0))
		return assignments, nil
	}

	lane := worker.NewLane("allocation")
	lane.Start(ctx)
	defer lane.Stop()

	instances := 0
	for i, ep := range endpoints {
		err := lane.Do(ctx, func(ctx context.Context) error {
			workloads, err := c.configureEndpoint(ctx, mode, d, ep, chunks[i])
			if err != nil {
				return err
			}
			assignments[i] = Assignment{Endpoint: ep, Workloads: workloads}
			instances += len(workloads)
			return nil
		})
		if err != nil {
			logger.Error(ep.ID(), "Allocation aborted: %v", err)
			return nil, err
		}
	}

	logger.Info("", "%s mode: configured %d endpoints with %d workloads", mode, len(endpoints), instances)
	c.publish(events.NewAllocationCompletedEvent(mode.String(), len(endpoints), instances))
	return assignments, nil
}

// configureEndpoint は1エンドポイント分のトークンを生成し、インスタンスを初期化する
func (c *Configurator) configureEndpoint(ctx context.Context, mode Mode, d *derivation, ep endpoint.Endpoint, cfg gas.Config) ([]*workload.Info, error) {
	init, payload, err := c.provisioner.Provision(ctx, ep, cfg)
	if err != nil {
		c.publish(events.NewProvisionFailedEvent(ep.ID(), err))
		return nil, err
	}
	c.publish(events.NewEndpointProvisionedEvent(ep.ID(), len(init.CounterInit), payload.Len()))

	var workloads []*workload.Info
	for _, p := range mode.assemble(d, init, payload) {
		p.info.Instance.Init(ctx, p.init, ep, c.observer)
		workloads = append(workloads, p.info)

		logger.Debug(ep.ID(), "Initialized %s", p.info)
		c.publish(events.NewWorkloadInitializedEvent(ep.ID(), p.info.Kind.String()))
		if c.metrics != nil {
			c.metrics.RecordInstance(p.info.Kind.String())
		}
	}
	return workloads, nil
}

func (c *Configurator) publish(e events.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}
