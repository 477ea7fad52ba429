package provision

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"benchmix/internal/endpoint"
	"benchmix/internal/gas"
	"benchmix/internal/logger"
	"benchmix/internal/metrics"
	"benchmix/internal/price"
)

// Minter は要求されたトークンを基礎資金から生成するサービス
// 同じ資金での呼び出しは逐次でなければならない
type Minter interface {
	Mint(ctx context.Context, ep endpoint.Endpoint, funding Funding, req gas.Config, gasPrice uint64) (gas.InitGas, gas.PayloadGas, error)
}

// ErrShortMint は要求数と生成数が一致しない場合に返される
var ErrShortMint = errors.New("minter returned fewer tokens than requested")

// Provisioner はエンドポイントごとのトークンを生成する
type Provisioner struct {
	minter   Minter
	treasury *Treasury
	observer price.Observer
	metrics  *metrics.Metrics
}

// New は新しいProvisionerを作成する
func New(minter Minter, treasury *Treasury, observer price.Observer) *Provisioner {
	return &Provisioner{
		minter:   minter,
		treasury: treasury,
		observer: observer,
	}
}

// SetMetrics はメトリクスの記録先を設定する
func (p *Provisioner) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Provision は資金を借り受けて1エンドポイント分のトークンを生成する
// ミンターのエラーはそのまま返す
// 価格は呼び出しごとに1回だけ読み取る
func (p *Provisioner) Provision(ctx context.Context, ep endpoint.Endpoint, req gas.Config) (gas.InitGas, gas.PayloadGas, error) {
	lease, err := p.treasury.Acquire(ctx)
	if err != nil {
		return gas.InitGas{}, gas.PayloadGas{}, err
	}
	defer lease.Release()

	gasPrice := p.observer.ReferenceGasPrice()
	logger.Debug(ep.ID(), "Minting %d tokens at gas price %d", req.Len(), gasPrice)

	start := time.Now()
	init, payload, err := p.minter.Mint(ctx, ep, lease.Funding(), req, gasPrice)
	if err == nil {
		err = checkCounts(req, init, payload)
	}
	latency := time.Since(start)

	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordFailure(latency)
		}
		logger.Warn(ep.ID(), "Minting failed: %v", err)
		return gas.InitGas{}, gas.PayloadGas{}, err
	}

	if p.metrics != nil {
		p.metrics.RecordSuccess(latency, len(init.CounterInit), payload.Len())
	}
	logger.Info(ep.ID(), "Provisioned %d init and %d payload tokens", len(init.CounterInit), payload.Len())
	return init, payload, nil
}

// checkCounts は生成数が要求数と一致するか確認する
func checkCounts(req gas.Config, init gas.InitGas, payload gas.PayloadGas) error {
	switch {
	case len(init.CounterInit) != len(req.CounterInit):
		return errors.WithMessagef(ErrShortMint, "counter init %d/%d", len(init.CounterInit), len(req.CounterInit))
	case len(payload.CounterPayload) != len(req.CounterPayload):
		return errors.WithMessagef(ErrShortMint, "counter payload %d/%d", len(payload.CounterPayload), len(req.CounterPayload))
	case len(payload.TransferTokens) != len(req.TransferTokens):
		return errors.WithMessagef(ErrShortMint, "transfer tokens %d/%d", len(payload.TransferTokens), len(req.TransferTokens))
	case len(payload.TransferPayload) != len(req.TransferPayload):
		return errors.WithMessagef(ErrShortMint, "transfer payload %d/%d", len(payload.TransferPayload), len(req.TransferPayload))
	case len(payload.DelegationPayload) != len(req.DelegationPayload):
		return errors.WithMessagef(ErrShortMint, "delegation payload %d/%d", len(payload.DelegationPayload), len(req.DelegationPayload))
	}
	return nil
}
