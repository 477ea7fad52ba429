package workload

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmix/internal/endpoint"
	"benchmix/internal/gas"
	"benchmix/internal/price"
)

func tokens(prefix string, n int) []gas.Token {
	out := make([]gas.Token, n)
	for i := range out {
		out[i] = gas.Token{ID: fmt.Sprintf("%s-%d", prefix, i), Owner: "0xowner", Amount: GasBudget}
	}
	return out
}

func startedEndpoint(t *testing.T) *endpoint.Local {
	t.Helper()
	ep := endpoint.NewLocal("ep-1")
	require.NoError(t, ep.Start(context.Background()))
	t.Cleanup(func() { _ = ep.Stop() })
	return ep
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindSharedCounter, "shared_counter"},
		{KindTransferObject, "transfer_object"},
		{KindDelegation, "delegation"},
		{KindCombination, "combination"},
		{Kind(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.kind.String())
	}
}

func TestWeights(t *testing.T) {
	w := Weights{Counter: 3, Transfer: 2, Delegation: 0}

	assert.Equal(t, uint64(5), w.Sum())
	assert.False(t, w.IsZero())
	assert.Equal(t, uint32(3), w.Of(KindSharedCounter))
	assert.Equal(t, uint32(2), w.Of(KindTransferObject))
	assert.Equal(t, uint32(0), w.Of(KindDelegation))
	assert.Equal(t, uint32(0), w.Of(KindCombination))
	assert.True(t, Weights{}.IsZero())
}

func TestWeightsSumDoesNotOverflow(t *testing.T) {
	w := Weights{Counter: ^uint32(0), Transfer: ^uint32(0), Delegation: ^uint32(0)}
	assert.Equal(t, 3*uint64(^uint32(0)), w.Sum())
}

func TestQuotaDegenerate(t *testing.T) {
	assert.False(t, Quota{TargetQPS: 1, NumWorkers: 1, MaxOps: 1}.Degenerate())
	assert.True(t, Quota{TargetQPS: 0, NumWorkers: 1, MaxOps: 1}.Degenerate())
	assert.True(t, Quota{TargetQPS: 1, NumWorkers: 0, MaxOps: 1}.Degenerate())
	assert.True(t, Quota{TargetQPS: 1, NumWorkers: 1, MaxOps: 0}.Degenerate())
}

func TestAccountAddressDeterministic(t *testing.T) {
	a := AccountAddress("delegator", 7)
	assert.Equal(t, a, AccountAddress("delegator", 7))
	assert.NotEqual(t, a, AccountAddress("delegator", 8))
	assert.NotEqual(t, a, AccountAddress("transfer-account", 7))
	assert.Len(t, a, 2+32)
}

func TestCounterRequests(t *testing.T) {
	init := CounterInitRequests(5)
	require.Len(t, init, 5)
	for _, cc := range init {
		assert.Equal(t, init[0].Owner, cc.Owner)
		assert.Equal(t, GasBudget, cc.Amount)
	}

	payload := CounterPayloadRequests(4)
	require.Len(t, payload, 4)
	assert.NotEqual(t, payload[0].Owner, payload[1].Owner)

	assert.Empty(t, CounterInitRequests(0))
	assert.Empty(t, CounterPayloadRequests(0))
}

func TestTransferGasRequests(t *testing.T) {
	tokens, payloads := TransferGasRequests(10, 3, 10)

	require.Len(t, tokens, 10)
	require.Len(t, payloads, 30)
	for _, tok := range tokens {
		assert.Equal(t, AccountAddress("transfer-account", 0), tok.Owner)
		assert.Equal(t, GasBudget+EstimatedComputationCost, tok.Amount)
	}
	// payloads are grouped per account
	assert.Equal(t, AccountAddress("transfer-account", 0), payloads[0].Owner)
	assert.Equal(t, AccountAddress("transfer-account", 1), payloads[10].Owner)
	assert.Equal(t, AccountAddress("transfer-account", 2), payloads[29].Owner)

	tokens, payloads = TransferGasRequests(10, 0, 10)
	assert.Empty(t, tokens)
	assert.Empty(t, payloads)
}

func TestDelegationPayloadRequests(t *testing.T) {
	assert.Len(t, DelegationPayloadRequests(6), 6)
	assert.Empty(t, DelegationPayloadRequests(0))
}

func TestFactoriesRejectDegenerateConfig(t *testing.T) {
	good := Quota{TargetQPS: 10, NumWorkers: 1, MaxOps: 20}
	bad := Quota{TargetQPS: 0, NumWorkers: 1, MaxOps: 0}

	full := gas.PayloadGas{
		CounterPayload:    tokens("c", 2),
		TransferTokens:    tokens("tt", 2),
		TransferPayload:   tokens("tp", 2),
		DelegationPayload: tokens("d", 2),
	}

	_, ok := NewSharedCounter(good, full)
	assert.True(t, ok)
	_, ok = NewSharedCounter(bad, full)
	assert.False(t, ok)
	_, ok = NewSharedCounter(good, gas.PayloadGas{})
	assert.False(t, ok)

	_, ok = NewTransferObject(good, 2, full)
	assert.True(t, ok)
	_, ok = NewTransferObject(good, 0, full)
	assert.False(t, ok)
	_, ok = NewTransferObject(good, 2, gas.PayloadGas{TransferTokens: tokens("tt", 1)})
	assert.False(t, ok)

	_, ok = NewDelegation(good, full)
	assert.True(t, ok)
	_, ok = NewDelegation(bad, full)
	assert.False(t, ok)

	targets := Targets{TargetQPS: 10, NumWorkers: 2, InFlightRatio: 2}
	w := Weights{Counter: 1, Transfer: 1}
	_, ok = NewCombination(targets, 2, w, full)
	assert.True(t, ok)
	// 空のチャンクでも統合インスタンスは作る
	_, ok = NewCombination(targets, 2, w, gas.PayloadGas{})
	assert.True(t, ok)
	_, ok = NewCombination(targets, 2, Weights{}, full)
	assert.False(t, ok)
	for _, degenerate := range []Targets{
		{TargetQPS: 0, NumWorkers: 2, InFlightRatio: 2},
		{TargetQPS: 10, NumWorkers: 0, InFlightRatio: 2},
		{TargetQPS: 10, NumWorkers: 2, InFlightRatio: 0},
	} {
		_, ok = NewCombination(degenerate, 2, w, full)
		assert.False(t, ok, "%+v", degenerate)
	}
}

func TestSharedCounterInitPublishesCounters(t *testing.T) {
	ep := startedEndpoint(t)

	info, ok := NewSharedCounter(Quota{TargetQPS: 5, NumWorkers: 1, MaxOps: 10},
		gas.PayloadGas{CounterPayload: tokens("p", 10)})
	require.True(t, ok)
	assert.False(t, info.Instance.Initialized())

	info.Instance.Init(context.Background(), gas.InitGas{CounterInit: tokens("i", 3)}, ep, price.Static(1000))

	sc := info.Instance.(*SharedCounter)
	assert.True(t, sc.Initialized())
	assert.Len(t, sc.Counters(), 3)
	assert.Equal(t, 3, ep.ObjectCount())
	assert.Len(t, sc.Payload().CounterPayload, 10)
}

func TestSharedCounterInitSkipsFailedPublish(t *testing.T) {
	ep := startedEndpoint(t)
	init := tokens("i", 2)
	init[1] = init[0] // reused token is rejected by the endpoint

	info, ok := NewSharedCounter(Quota{TargetQPS: 1, NumWorkers: 1, MaxOps: 1},
		gas.PayloadGas{CounterPayload: tokens("p", 1)})
	require.True(t, ok)

	info.Instance.Init(context.Background(), gas.InitGas{CounterInit: init}, ep, price.Static(1))

	assert.Len(t, info.Instance.(*SharedCounter).Counters(), 1)
	assert.True(t, info.Instance.Initialized())
}

func TestCombinationCarriesWeightsAndPayload(t *testing.T) {
	ep := startedEndpoint(t)
	w := Weights{Counter: 1, Transfer: 1}
	payload := gas.PayloadGas{CounterPayload: tokens("c", 4), TransferPayload: tokens("tp", 2)}

	info, ok := NewCombination(Targets{TargetQPS: 100, NumWorkers: 4, InFlightRatio: 2}, 3, w, payload)
	require.True(t, ok)
	assert.Equal(t, KindCombination, info.Kind)
	assert.Equal(t, Quota{TargetQPS: 100, NumWorkers: 4, MaxOps: 200}, info.Quota)

	info.Instance.Init(context.Background(), gas.InitGas{CounterInit: tokens("i", 2)}, ep, price.Static(1))

	c := info.Instance.(*Combination)
	assert.Equal(t, w, c.Weights())
	assert.Len(t, c.Counters(), 2)
	assert.Equal(t, 6, c.Payload().Len())
	assert.True(t, c.Initialized())
}

func TestInfoString(t *testing.T) {
	info, ok := NewDelegation(Quota{TargetQPS: 1, NumWorkers: 1, MaxOps: 2},
		gas.PayloadGas{DelegationPayload: tokens("d", 3)})
	require.True(t, ok)

	assert.Equal(t, "delegation(qps=1 workers=1 max_ops=2 payload=3)", info.String())
}
