package workload

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"benchmix/internal/gas"
)

const (
	// GasBudget は1操作あたりのガス予算
	GasBudget uint64 = 1_000_000
	// EstimatedComputationCost は転送されるトークン自体のガス代の見積もり
	EstimatedComputationCost uint64 = 50_000
)

var accountNamespace = uuid.MustParse("6f0b8d6e-4a86-4d55-9a0e-6b1f9a51c2d4")

// AccountAddress は役割と番号から決定的なアカウントアドレスを生成する
func AccountAddress(role string, i uint64) string {
	id := uuid.NewSHA1(accountNamespace, []byte(fmt.Sprintf("%s/%d", role, i)))
	return "0x" + hex.EncodeToString(id[:])
}

// CounterInitRequests はカウンタ作成用のトークン要求を返す
// 全てのカウンタは同じ公開アカウントが作成する
func CounterInitRequests(numCounters uint64) []gas.CoinConfig {
	if numCounters == 0 {
		return nil
	}
	owner := AccountAddress("counter-publisher", 0)
	out := make([]gas.CoinConfig, numCounters)
	for i := range out {
		out[i] = gas.CoinConfig{Amount: GasBudget, Owner: owner}
	}
	return out
}

// CounterPayloadRequests は操作ごとに別アカウントのトークン要求を返す
func CounterPayloadRequests(maxOps uint64) []gas.CoinConfig {
	if maxOps == 0 {
		return nil
	}
	out := make([]gas.CoinConfig, maxOps)
	for i := range out {
		out[i] = gas.CoinConfig{Amount: GasBudget, Owner: AccountAddress("counter-payload", uint64(i))}
	}
	return out
}

// TransferGasRequests は転送ワークロードの要求を返す
// 転送されるトークンは numTokens 個で最初のアカウントが所有し、
// ペイロードは各アカウントに numPayloads 個ずつ割り当てる
func TransferGasRequests(numTokens, numAccounts, numPayloads uint64) (tokens, payloads []gas.CoinConfig) {
	if numAccounts == 0 {
		return nil, nil
	}
	amount := GasBudget + EstimatedComputationCost

	payloads = make([]gas.CoinConfig, 0, numAccounts*numPayloads)
	for a := range numAccounts {
		owner := AccountAddress("transfer-account", a)
		for range numPayloads {
			payloads = append(payloads, gas.CoinConfig{Amount: amount, Owner: owner})
		}
	}

	owner := AccountAddress("transfer-account", 0)
	tokens = make([]gas.CoinConfig, 0, numTokens)
	for range numTokens {
		tokens = append(tokens, gas.CoinConfig{Amount: amount, Owner: owner})
	}
	return tokens, payloads
}

// DelegationPayloadRequests は委任者ごとのトークン要求を返す
func DelegationPayloadRequests(count uint64) []gas.CoinConfig {
	if count == 0 {
		return nil
	}
	out := make([]gas.CoinConfig, count)
	for i := range out {
		out[i] = gas.CoinConfig{Amount: GasBudget, Owner: AccountAddress("delegator", uint64(i))}
	}
	return out
}
