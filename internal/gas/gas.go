// Package gas models the single-use funding tokens consumed by workloads.
//
// A CoinConfig is a request for one token; the minting service turns each
// request into a Token. Init-stage and payload-stage tokens travel in
// separate bundles and are never mixed.
package gas

import "fmt"

// Coin はベースとなる資金オブジェクト
type Coin struct {
	ID      string
	Owner   string
	Balance uint64
}

// CoinConfig は生成を要求する1トークン分の設定
type CoinConfig struct {
	Amount uint64
	Owner  string
}

// Token は生成済みの単回使用トークン
type Token struct {
	ID     string
	Owner  string
	Amount uint64
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%s:%d)", t.ID, t.Owner, t.Amount)
}

// Config はワークロード種別ごとのトークン要求リスト
type Config struct {
	CounterInit       []CoinConfig
	CounterPayload    []CoinConfig
	TransferTokens    []CoinConfig
	TransferPayload   []CoinConfig
	DelegationPayload []CoinConfig
}

// Len は要求トークンの総数を返す
func (c Config) Len() int {
	return len(c.CounterInit) + len(c.CounterPayload) + len(c.TransferTokens) +
		len(c.TransferPayload) + len(c.DelegationPayload)
}

// Total は要求トークンの合計額を返す
func (c Config) Total() uint64 {
	var total uint64
	for _, list := range [][]CoinConfig{
		c.CounterInit, c.CounterPayload, c.TransferTokens, c.TransferPayload, c.DelegationPayload,
	} {
		for _, cc := range list {
			total += cc.Amount
		}
	}
	return total
}

// InitGas は初期化段階で消費するトークン
type InitGas struct {
	CounterInit []Token
}

// PayloadGas はペイロード段階で消費するトークン
type PayloadGas struct {
	TransferTokens    []Token
	TransferPayload   []Token
	CounterPayload    []Token
	DelegationPayload []Token
}

// Len はペイロードトークンの総数を返す
func (p PayloadGas) Len() int {
	return len(p.TransferTokens) + len(p.TransferPayload) + len(p.CounterPayload) + len(p.DelegationPayload)
}
