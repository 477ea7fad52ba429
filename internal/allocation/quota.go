package allocation

import (
	"math/bits"

	"benchmix/internal/workload"
)

// 種類が割り当てから外れた理由
const (
	ReasonZeroWeight = "zero weight"
	ReasonDegenerate = "degenerate quota"
)

// KindQuota は種類ごとの目標値
type KindQuota struct {
	Kind  workload.Kind  `json:"-"`
	Name  string         `json:"kind"`
	Quota workload.Quota `json:"quota"`
}

// Elision は割り当てから外れた種類とその理由
type Elision struct {
	Kind   workload.Kind `json:"-"`
	Name   string        `json:"kind"`
	Reason string        `json:"reason"`
}

// DisjointQuota は全体目標のうち重み w/sum の分を1種類に割り当てる
// qpsは切り捨て、ワーカー数は切り上げで計算する
// 重みが0か、いずれかの値が0になる場合はfalseを返す
func DisjointQuota(weight uint32, sum uint64, t workload.Targets) (workload.Quota, bool) {
	if weight == 0 || sum == 0 {
		return workload.Quota{}, false
	}
	q := workload.Quota{
		TargetQPS:  mulDivFloor(uint64(weight), t.TargetQPS, sum),
		NumWorkers: mulDivCeil(uint64(weight), t.NumWorkers, sum),
	}
	q.MaxOps = q.TargetQPS * t.InFlightRatio
	if q.Degenerate() {
		return workload.Quota{}, false
	}
	return q, true
}

// DisjointQuotas は各種類の目標値と除外された種類を固定順で返す
func DisjointQuotas(w workload.Weights, t workload.Targets) ([]KindQuota, []Elision) {
	var (
		quotas []KindQuota
		elided []Elision
	)
	sum := w.Sum()
	for _, k := range workload.Kinds() {
		weight := w.Of(k)
		if weight == 0 {
			elided = append(elided, Elision{Kind: k, Name: k.String(), Reason: ReasonZeroWeight})
			continue
		}
		q, ok := DisjointQuota(weight, sum, t)
		if !ok {
			elided = append(elided, Elision{Kind: k, Name: k.String(), Reason: ReasonDegenerate})
			continue
		}
		quotas = append(quotas, KindQuota{Kind: k, Name: k.String(), Quota: q})
	}
	return quotas, elided
}

// CombinedMaxOps は全種類で共有する同時実行上限を返す
func CombinedMaxOps(t workload.Targets) uint64 {
	return t.TargetQPS * t.InFlightRatio
}

// mulDivFloor は floor(a*b/d) を128ビットの中間値で計算する
// a <= d を前提とする
func mulDivFloor(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// mulDivCeil は ceil(a*b/d) を計算する
func mulDivCeil(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, rem := bits.Div64(hi, lo, d)
	if rem > 0 {
		q++
	}
	return q
}
