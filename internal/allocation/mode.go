package allocation

import (
	"strings"

	"github.com/pkg/errors"

	"benchmix/internal/gas"
	"benchmix/internal/workload"
)

// Mode は種類ごとの目標値とインスタンスの組み立て方を選ぶ
// 実装はこのパッケージの Combined と Disjoint のみ
type Mode interface {
	String() string
	// derive は実行全体のトークン要求を導出する
	derive(req Request) *derivation
	// assemble は1エンドポイント分のインスタンスを組み立てる
	assemble(d *derivation, init gas.InitGas, payload gas.PayloadGas) []pending
}

var (
	// Combined は全種類で1つの目標を共有し、エンドポイントごとに1つの統合インスタンスを作る
	Combined Mode = combined{}
	// Disjoint は種類ごとに独立した目標を計算し、種類ごとのインスタンスを作る
	Disjoint Mode = disjoint{}
)

// ErrUnknownMode は未知のモード名で返される
var ErrUnknownMode = errors.New("unknown allocation mode")

// Modes は全てのモードを返す
func Modes() []Mode {
	return []Mode{Combined, Disjoint}
}

// ParseMode はモード名を解析する
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return nil, errors.WithMessagef(ErrUnknownMode, "%q", s)
}

// derivation は1回の実行で共有される導出結果
type derivation struct {
	req    Request
	quotas []KindQuota
	elided []Elision
	config gas.Config
}

// active は組み立てるインスタンスがあるかどうかを返す
func (d *derivation) active() bool {
	return len(d.quotas) > 0
}

// pending は初期化待ちのインスタンス
type pending struct {
	info *workload.Info
	init gas.InitGas
}

type combined struct{}

func (combined) String() string { return "combined" }

func (combined) derive(req Request) *derivation {
	d := &derivation{req: req}
	for _, k := range workload.Kinds() {
		if req.Weights.Of(k) == 0 {
			d.elided = append(d.elided, Elision{Kind: k, Name: k.String(), Reason: ReasonZeroWeight})
		}
	}
	if req.Weights.IsZero() {
		return d
	}

	maxOps := CombinedMaxOps(req.Targets)
	q := workload.Quota{
		TargetQPS:  req.Targets.TargetQPS,
		NumWorkers: req.Targets.NumWorkers,
		MaxOps:     maxOps,
	}
	// 全体の目標が1単位の作業も支えられなければ何も生成しない
	if q.Degenerate() {
		d.elided = append(d.elided, Elision{
			Kind:   workload.KindCombination,
			Name:   workload.KindCombination.String(),
			Reason: ReasonDegenerate,
		})
		return d
	}

	d.quotas = []KindQuota{{Kind: workload.KindCombination, Name: workload.KindCombination.String(), Quota: q}}
	d.config = DeriveCombined(req.Weights, maxOps, req.HotnessFactor, req.NumTransferAccounts)
	return d
}

func (combined) assemble(d *derivation, init gas.InitGas, payload gas.PayloadGas) []pending {
	info, ok := workload.NewCombination(d.req.Targets, d.req.NumTransferAccounts, d.req.Weights, payload)
	if !ok {
		return nil
	}
	return []pending{{info: info, init: init}}
}

type disjoint struct{}

func (disjoint) String() string { return "disjoint" }

func (disjoint) derive(req Request) *derivation {
	quotas, elided := DisjointQuotas(req.Weights, req.Targets)
	return &derivation{
		req:    req,
		quotas: quotas,
		elided: elided,
		config: DeriveDisjoint(quotas, req.HotnessFactor, req.NumTransferAccounts),
	}
}

func (disjoint) assemble(d *derivation, init gas.InitGas, payload gas.PayloadGas) []pending {
	var out []pending
	for _, kq := range d.quotas {
		var (
			info *workload.Info
			ok   bool
			ig   gas.InitGas
		)
		switch kq.Kind {
		case workload.KindSharedCounter:
			info, ok = workload.NewSharedCounter(kq.Quota, gas.PayloadGas{CounterPayload: payload.CounterPayload})
			ig = init
		case workload.KindTransferObject:
			info, ok = workload.NewTransferObject(kq.Quota, d.req.NumTransferAccounts, gas.PayloadGas{
				TransferTokens:  payload.TransferTokens,
				TransferPayload: payload.TransferPayload,
			})
		case workload.KindDelegation:
			info, ok = workload.NewDelegation(kq.Quota, gas.PayloadGas{DelegationPayload: payload.DelegationPayload})
		}
		if ok {
			out = append(out, pending{info: info, init: ig})
		}
	}
	return out
}
