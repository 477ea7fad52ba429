package workload

import (
	"context"

	"benchmix/internal/endpoint"
	"benchmix/internal/gas"
	"benchmix/internal/logger"
	"benchmix/internal/price"
)

// Ensure instances implement Instance
var (
	_ Instance = (*SharedCounter)(nil)
	_ Instance = (*TransferObject)(nil)
	_ Instance = (*Delegation)(nil)
	_ Instance = (*Combination)(nil)
)

// SharedCounter は共有カウンタを競合的に更新するワークロード
type SharedCounter struct {
	payload     []gas.Token
	counters    []string
	initialized bool
}

// NewSharedCounter は共有カウンタワークロードを作成する
// 目標値が退化しているかトークンが無い場合は作成しない
func NewSharedCounter(q Quota, payload gas.PayloadGas) (*Info, bool) {
	if q.Degenerate() || len(payload.CounterPayload) == 0 {
		return nil, false
	}
	return &Info{
		Kind:     KindSharedCounter,
		Quota:    q,
		Instance: &SharedCounter{payload: payload.CounterPayload},
	}, true
}

func (w *SharedCounter) Kind() Kind { return KindSharedCounter }

// Init は初期化トークン1つにつき1カウンタを作成する
func (w *SharedCounter) Init(ctx context.Context, init gas.InitGas, ep endpoint.Endpoint, obs price.Observer) {
	w.counters = publishCounters(ctx, init.CounterInit, ep, obs)
	w.initialized = true
}

func (w *SharedCounter) Initialized() bool { return w.initialized }

func (w *SharedCounter) Payload() gas.PayloadGas {
	return gas.PayloadGas{CounterPayload: w.payload}
}

// Counters は作成済みカウンタのIDを返す
func (w *SharedCounter) Counters() []string { return w.counters }

// TransferObject はアカウント間でオブジェクトを転送するワークロード
type TransferObject struct {
	numAccounts uint64
	tokens      []gas.Token
	payload     []gas.Token
	initialized bool
}

// NewTransferObject は転送ワークロードを作成する
func NewTransferObject(q Quota, numAccounts uint64, payload gas.PayloadGas) (*Info, bool) {
	if q.Degenerate() || numAccounts == 0 ||
		len(payload.TransferTokens) == 0 || len(payload.TransferPayload) == 0 {
		return nil, false
	}
	return &Info{
		Kind:  KindTransferObject,
		Quota: q,
		Instance: &TransferObject{
			numAccounts: numAccounts,
			tokens:      payload.TransferTokens,
			payload:     payload.TransferPayload,
		},
	}, true
}

func (w *TransferObject) Kind() Kind { return KindTransferObject }

// Init は転送ワークロードでは準備済みトークンを確認するのみ
func (w *TransferObject) Init(_ context.Context, _ gas.InitGas, ep endpoint.Endpoint, _ price.Observer) {
	logger.Debug(ep.ID(), "Transfer workload ready (accounts: %d, tokens: %d)", w.numAccounts, len(w.tokens))
	w.initialized = true
}

func (w *TransferObject) Initialized() bool { return w.initialized }

func (w *TransferObject) Payload() gas.PayloadGas {
	return gas.PayloadGas{TransferTokens: w.tokens, TransferPayload: w.payload}
}

// NumAccounts は転送に参加するアカウント数を返す
func (w *TransferObject) NumAccounts() uint64 { return w.numAccounts }

// Delegation はステーキング委任を行うワークロード
type Delegation struct {
	payload     []gas.Token
	initialized bool
}

// NewDelegation は委任ワークロードを作成する
func NewDelegation(q Quota, payload gas.PayloadGas) (*Info, bool) {
	if q.Degenerate() || len(payload.DelegationPayload) == 0 {
		return nil, false
	}
	return &Info{
		Kind:     KindDelegation,
		Quota:    q,
		Instance: &Delegation{payload: payload.DelegationPayload},
	}, true
}

func (w *Delegation) Kind() Kind { return KindDelegation }

func (w *Delegation) Init(context.Context, gas.InitGas, endpoint.Endpoint, price.Observer) {
	w.initialized = true
}

func (w *Delegation) Initialized() bool { return w.initialized }

func (w *Delegation) Payload() gas.PayloadGas {
	return gas.PayloadGas{DelegationPayload: w.payload}
}

// Combination は全種類を内部で重み付けして多重化するワークロード
type Combination struct {
	weights       Weights
	inFlightRatio uint64
	numAccounts   uint64
	payload       gas.PayloadGas
	counters      []string
	initialized   bool
}

// NewCombination は統合ワークロードを作成する
// 重みは変換せずにそのまま保持する
// 目標値のいずれかが0になる場合や重みが全て0の場合はfalseを返す
func NewCombination(t Targets, numAccounts uint64, w Weights, payload gas.PayloadGas) (*Info, bool) {
	q := Quota{
		TargetQPS:  t.TargetQPS,
		NumWorkers: t.NumWorkers,
		MaxOps:     t.TargetQPS * t.InFlightRatio,
	}
	if q.Degenerate() || w.IsZero() {
		return nil, false
	}
	return &Info{
		Kind:  KindCombination,
		Quota: q,
		Instance: &Combination{
			weights:       w,
			inFlightRatio: t.InFlightRatio,
			numAccounts:   numAccounts,
			payload:       payload,
		},
	}, true
}

func (w *Combination) Kind() Kind { return KindCombination }

// Init はカウンタ部分の初期化を行う
func (w *Combination) Init(ctx context.Context, init gas.InitGas, ep endpoint.Endpoint, obs price.Observer) {
	w.counters = publishCounters(ctx, init.CounterInit, ep, obs)
	w.initialized = true
}

func (w *Combination) Initialized() bool { return w.initialized }

func (w *Combination) Payload() gas.PayloadGas { return w.payload }

// Weights は保持している重みを返す
func (w *Combination) Weights() Weights { return w.weights }

// Counters は作成済みカウンタのIDを返す
func (w *Combination) Counters() []string { return w.counters }

// publishCounters は初期化トークンを使ってカウンタを作成する
func publishCounters(ctx context.Context, tokens []gas.Token, ep endpoint.Endpoint, obs price.Observer) []string {
	if len(tokens) == 0 {
		return nil
	}
	gasPrice := obs.ReferenceGasPrice()

	counters := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		effects, err := ep.Execute(ctx, endpoint.Operation{
			Kind:     endpoint.OpPublishCounter,
			Sender:   tok.Owner,
			Gas:      tok,
			GasPrice: gasPrice,
		})
		if err != nil {
			logger.Warn(ep.ID(), "Failed to publish counter with %s: %v", tok.ID, err)
			continue
		}
		counters = append(counters, effects.Created...)
	}

	logger.Info(ep.ID(), "Published %d/%d shared counters", len(counters), len(tokens))
	return counters
}
