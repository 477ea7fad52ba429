package allocation

import "benchmix/internal/gas"

// Chunk は items を順序を保ったまま n 個の連続した部分列に分割する
// 先頭の len(items)%n 個の部分列が1要素多くなる
// items が空なら n 個の空の部分列を返し、n <= 0 なら nil を返す
func Chunk[T any](items []T, n int) [][]T {
	if n <= 0 {
		return nil
	}

	chunks := make([][]T, n)
	size, extra := len(items)/n, len(items)%n
	start := 0
	for i := range chunks {
		end := start + size
		if i < extra {
			end++
		}
		chunks[i] = items[start:end:end]
		start = end
	}
	return chunks
}

// ChunkConfig は全てのトークン要求リストを n 個のエンドポイント分に分割する
// i 番目の要素は i 番目のエンドポイント用
func ChunkConfig(cfg gas.Config, n int) []gas.Config {
	if n <= 0 {
		return nil
	}

	counterInit := Chunk(cfg.CounterInit, n)
	counterPayload := Chunk(cfg.CounterPayload, n)
	transferTokens := Chunk(cfg.TransferTokens, n)
	transferPayload := Chunk(cfg.TransferPayload, n)
	delegation := Chunk(cfg.DelegationPayload, n)

	out := make([]gas.Config, n)
	for i := range out {
		out[i] = gas.Config{
			CounterInit:       counterInit[i],
			CounterPayload:    counterPayload[i],
			TransferTokens:    transferTokens[i],
			TransferPayload:   transferPayload[i],
			DelegationPayload: delegation[i],
		}
	}
	return out
}
