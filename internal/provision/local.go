package provision

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"benchmix/internal/endpoint"
	"benchmix/internal/gas"
	"benchmix/internal/logger"
)

// FeeUnitsPerToken は1トークン分割あたりのガス単位
const FeeUnitsPerToken uint64 = 10

var (
	// ErrInsufficientFunds は資金が不足している場合に返される
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnknownCoin は登録されていないコインで返される
	ErrUnknownCoin = errors.New("unknown coin")
	// ErrCoinType はコインの種類が一致しない場合に返される
	ErrCoinType = errors.New("coin type mismatch")
	// ErrConcurrentMint は同時に呼び出された場合に返される
	ErrConcurrentMint = errors.New("concurrent mint on shared funding")
)

// Ensure LocalMinter implements Minter
var _ Minter = (*LocalMinter)(nil)

// LocalMinter は残高台帳を持つインメモリのMinter
// 委任トークンは支払いコインから、それ以外はガスコインから差し引く
type LocalMinter struct {
	inFlight  atomic.Int32
	balances  map[string]uint64
	coinTypes map[string]string
	minted    map[string]int
	calls     atomic.Uint64
}

// NewLocalMinter は新しいLocalMinterを作成する
func NewLocalMinter() *LocalMinter {
	return &LocalMinter{
		balances:  make(map[string]uint64),
		coinTypes: make(map[string]string),
		minted:    make(map[string]int),
	}
}

// Register はコインを台帳に登録する
func (m *LocalMinter) Register(c gas.Coin, coinType string) {
	m.balances[c.ID] = c.Balance
	m.coinTypes[c.ID] = coinType
}

// Balance はコインの残高を返す
func (m *LocalMinter) Balance(coinID string) uint64 {
	return m.balances[coinID]
}

// Minted はエンドポイントごとの生成トークン数を返す
func (m *LocalMinter) Minted(endpointID string) int {
	return m.minted[endpointID]
}

// Calls は呼び出し回数を返す
func (m *LocalMinter) Calls() uint64 {
	return m.calls.Load()
}

// Mint はトークンを生成して残高から差し引く
// 失敗した場合は残高を変更しない
func (m *LocalMinter) Mint(ctx context.Context, ep endpoint.Endpoint, funding Funding, req gas.Config, gasPrice uint64) (gas.InitGas, gas.PayloadGas, error) {
	if !m.inFlight.CompareAndSwap(0, 1) {
		return gas.InitGas{}, gas.PayloadGas{}, ErrConcurrentMint
	}
	defer m.inFlight.Store(0)
	m.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return gas.InitGas{}, gas.PayloadGas{}, err
	}

	gasBalance, ok := m.balances[funding.Gas.ID]
	if !ok {
		return gas.InitGas{}, gas.PayloadGas{}, errors.WithMessagef(ErrUnknownCoin, "gas coin %s", funding.Gas.ID)
	}
	coinBalance, ok := m.balances[funding.Coin.ID]
	if !ok {
		return gas.InitGas{}, gas.PayloadGas{}, errors.WithMessagef(ErrUnknownCoin, "pay coin %s", funding.Coin.ID)
	}
	if registered := m.coinTypes[funding.Coin.ID]; registered != funding.CoinType {
		return gas.InitGas{}, gas.PayloadGas{}, errors.WithMessagef(ErrCoinType, "pay coin %s is %q, want %q",
			funding.Coin.ID, registered, funding.CoinType)
	}

	delegation := sum(req.DelegationPayload)
	gasNeeded := req.Total() - delegation + gasPrice*FeeUnitsPerToken*uint64(req.Len())
	if gasBalance < gasNeeded {
		return gas.InitGas{}, gas.PayloadGas{}, errors.WithMessagef(ErrInsufficientFunds,
			"gas coin %s: need %d, have %d", funding.Gas.ID, gasNeeded, gasBalance)
	}
	if coinBalance < delegation {
		return gas.InitGas{}, gas.PayloadGas{}, errors.WithMessagef(ErrInsufficientFunds,
			"pay coin %s: need %d, have %d", funding.Coin.ID, delegation, coinBalance)
	}

	m.balances[funding.Gas.ID] = gasBalance - gasNeeded
	m.balances[funding.Coin.ID] = coinBalance - delegation
	m.minted[ep.ID()] += req.Len()

	init := gas.InitGas{CounterInit: mint(req.CounterInit)}
	payload := gas.PayloadGas{
		TransferTokens:    mint(req.TransferTokens),
		TransferPayload:   mint(req.TransferPayload),
		CounterPayload:    mint(req.CounterPayload),
		DelegationPayload: mint(req.DelegationPayload),
	}

	logger.Debug(ep.ID(), "Minted %d tokens (gas left: %d)", req.Len(), m.balances[funding.Gas.ID])
	return init, payload, nil
}

// mint は要求ごとに新しいトークンを作成する
func mint(configs []gas.CoinConfig) []gas.Token {
	if len(configs) == 0 {
		return nil
	}
	out := make([]gas.Token, len(configs))
	for i, cc := range configs {
		out[i] = gas.Token{ID: uuid.NewString(), Owner: cc.Owner, Amount: cc.Amount}
	}
	return out
}

func sum(configs []gas.CoinConfig) uint64 {
	var total uint64
	for _, cc := range configs {
		total += cc.Amount
	}
	return total
}
