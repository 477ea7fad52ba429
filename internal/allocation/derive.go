package allocation

import (
	"benchmix/internal/gas"
	"benchmix/internal/workload"
)

// MaxHotness はホットネス係数の上限
const MaxHotness = 100

// DistinctCounters は同時実行上限とホットネス係数から作成するカウンタ数を返す
// 係数100では0、係数0では maxOps と等しくなる
func DistinctCounters(maxOps uint64, hotness uint32) uint64 {
	h := uint64(min(hotness, MaxHotness))
	return mulDivFloor(maxOps, MaxHotness-h, MaxHotness)
}

// counterRequests はカウンタワークロードの初期化とペイロードの要求を返す
// ペイロードはホットネスに関係なく操作ごとに1つ
func counterRequests(maxOps uint64, hotness uint32) (init, payload []gas.CoinConfig) {
	return workload.CounterInitRequests(DistinctCounters(maxOps, hotness)),
		workload.CounterPayloadRequests(maxOps)
}

// DeriveDisjoint は種類ごとの目標値からトークン要求を導出する
// 委任のトークン数は転送アカウント数で決まる
func DeriveDisjoint(quotas []KindQuota, hotness uint32, numAccounts uint64) gas.Config {
	var cfg gas.Config
	for _, kq := range quotas {
		maxOps := kq.Quota.MaxOps
		switch kq.Kind {
		case workload.KindSharedCounter:
			cfg.CounterInit, cfg.CounterPayload = counterRequests(maxOps, hotness)
		case workload.KindTransferObject:
			cfg.TransferTokens, cfg.TransferPayload = workload.TransferGasRequests(maxOps, numAccounts, maxOps)
		case workload.KindDelegation:
			cfg.DelegationPayload = workload.DelegationPayloadRequests(numAccounts)
		}
	}
	return cfg
}

// DeriveCombined は共有の同時実行上限からトークン要求を導出する
// 重みが正の種類だけを要求し、委任のトークン数は maxOps で決まる
func DeriveCombined(w workload.Weights, maxOps uint64, hotness uint32, numAccounts uint64) gas.Config {
	var cfg gas.Config
	if w.Counter > 0 {
		cfg.CounterInit, cfg.CounterPayload = counterRequests(maxOps, hotness)
	}
	if w.Transfer > 0 {
		cfg.TransferTokens, cfg.TransferPayload = workload.TransferGasRequests(maxOps, numAccounts, maxOps)
	}
	if w.Delegation > 0 {
		cfg.DelegationPayload = workload.DelegationPayloadRequests(maxOps)
	}
	return cfg
}
