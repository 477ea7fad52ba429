// Package price exposes the reference gas price seen by provisioning and workloads.
package price

import "sync/atomic"

// Observer は現在の参照ガス価格を返す
type Observer interface {
	ReferenceGasPrice() uint64
}

// Static は固定価格を返すObserver
type Static uint64

// ReferenceGasPrice は固定価格を返す
func (s Static) ReferenceGasPrice() uint64 {
	return uint64(s)
}

// Watcher は外部から更新される価格を保持する
type Watcher struct {
	current atomic.Uint64
	updates atomic.Uint64
}

// NewWatcher は初期価格を持つWatcherを作成する
func NewWatcher(initial uint64) *Watcher {
	w := &Watcher{}
	w.current.Store(initial)
	return w
}

// ReferenceGasPrice は最新の価格のスナップショットを返す
func (w *Watcher) ReferenceGasPrice() uint64 {
	return w.current.Load()
}

// Update は価格を更新する
func (w *Watcher) Update(p uint64) {
	w.current.Store(p)
	w.updates.Add(1)
}

// Updates は更新回数を返す
func (w *Watcher) Updates() uint64 {
	return w.updates.Load()
}
