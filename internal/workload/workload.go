package workload

import (
	"context"
	"fmt"

	"benchmix/internal/endpoint"
	"benchmix/internal/gas"
	"benchmix/internal/price"
)

// Kind はワークロードの種類を表す
type Kind int

const (
	KindSharedCounter Kind = iota
	KindTransferObject
	KindDelegation
	KindCombination
)

func (k Kind) String() string {
	switch k {
	case KindSharedCounter:
		return "shared_counter"
	case KindTransferObject:
		return "transfer_object"
	case KindDelegation:
		return "delegation"
	case KindCombination:
		return "combination"
	default:
		return "unknown"
	}
}

// Kinds は個別に割り当て可能な種類を固定順で返す
func Kinds() []Kind {
	return []Kind{KindSharedCounter, KindTransferObject, KindDelegation}
}

// Weights は種類ごとの相対的な重み
type Weights struct {
	Counter    uint32 `json:"shared_counter" yaml:"shared_counter"`
	Transfer   uint32 `json:"transfer_object" yaml:"transfer_object"`
	Delegation uint32 `json:"delegation" yaml:"delegation"`
}

// Of は種類に対応する重みを返す
func (w Weights) Of(k Kind) uint32 {
	switch k {
	case KindSharedCounter:
		return w.Counter
	case KindTransferObject:
		return w.Transfer
	case KindDelegation:
		return w.Delegation
	default:
		return 0
	}
}

// Sum は重みの合計を返す
func (w Weights) Sum() uint64 {
	return uint64(w.Counter) + uint64(w.Transfer) + uint64(w.Delegation)
}

// IsZero は全ての重みが0かどうかを返す
func (w Weights) IsZero() bool {
	return w.Sum() == 0
}

func (w Weights) String() string {
	return fmt.Sprintf("counter=%d transfer=%d delegation=%d", w.Counter, w.Transfer, w.Delegation)
}

// Targets は実行全体の目標値
type Targets struct {
	TargetQPS     uint64 `json:"target_qps" yaml:"target_qps"`
	NumWorkers    uint64 `json:"num_workers" yaml:"num_workers"`
	InFlightRatio uint64 `json:"in_flight_ratio" yaml:"in_flight_ratio"`
}

// Quota は1種類分の導出目標
type Quota struct {
	TargetQPS  uint64 `json:"target_qps"`
	NumWorkers uint64 `json:"num_workers"`
	MaxOps     uint64 `json:"max_ops"`
}

// Degenerate は1単位の作業も支えられない場合にtrueを返す
func (q Quota) Degenerate() bool {
	return q.TargetQPS == 0 || q.NumWorkers == 0 || q.MaxOps == 0
}

// Instance は1つのワークロード生成器
type Instance interface {
	Kind() Kind
	// Init は割り当てられたエンドポイントに対して初期化を行う
	// 完了するまで使用できない
	Init(ctx context.Context, init gas.InitGas, ep endpoint.Endpoint, obs price.Observer)
	Initialized() bool
	Payload() gas.PayloadGas
}

// Info はワークロードとその目標値の組
type Info struct {
	Kind     Kind
	Quota    Quota
	Instance Instance
}

func (i *Info) String() string {
	return fmt.Sprintf("%s(qps=%d workers=%d max_ops=%d payload=%d)",
		i.Kind, i.Quota.TargetQPS, i.Quota.NumWorkers, i.Quota.MaxOps, i.Instance.Payload().Len())
}
