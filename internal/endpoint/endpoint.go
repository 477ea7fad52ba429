package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"benchmix/internal/gas"
	"benchmix/internal/logger"
)

// OpKind は操作の種類を表す
type OpKind string

const (
	OpPublishCounter OpKind = "publish_counter"
	OpTransferObject OpKind = "transfer_object"
	OpRequestStake   OpKind = "request_add_stake"
)

// Operation はエンドポイントに送信する1操作
type Operation struct {
	Kind     OpKind
	Sender   string
	Gas      gas.Token
	GasPrice uint64
}

// Effects は操作の実行結果
type Effects struct {
	Created []string
}

// Endpoint は操作を受け付ける実行先
// 割り当て結果と各ワークロードが同じ値を共有する
type Endpoint interface {
	ID() string
	Execute(ctx context.Context, op Operation) (Effects, error)
}

// Lifecycle は起動・停止できるエンドポイント
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}

var (
	// ErrNotRunning は停止中のエンドポイントへの操作で返される
	ErrNotRunning = errors.New("endpoint is not running")
	// ErrTokenReused は使用済みトークンの再利用で返される
	ErrTokenReused = errors.New("gas token already consumed")
)

// Ensure Local implements Endpoint and Lifecycle
var (
	_ Endpoint  = (*Local)(nil)
	_ Lifecycle = (*Local)(nil)
)

// Status はエンドポイントの状態を表す
type Status int

const (
	StatusStopped Status = iota
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Local はインメモリで操作を記録するエンドポイント
type Local struct {
	id     string
	status Status

	mu      sync.RWMutex
	objects map[string]OpKind
	spent   map[string]struct{}
	ops     map[OpKind]int
	nextObj int
}

// NewLocal は新しいLocalエンドポイントを作成する
func NewLocal(id string) *Local {
	return &Local{
		id:      id,
		status:  StatusStopped,
		objects: make(map[string]OpKind),
		spent:   make(map[string]struct{}),
		ops:     make(map[OpKind]int),
	}
}

// ID はエンドポイントIDを返す
func (l *Local) ID() string {
	return l.id
}

// Start はエンドポイントを起動する
func (l *Local) Start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status == StatusRunning {
		return fmt.Errorf("endpoint %s is already running", l.id)
	}
	l.status = StatusRunning

	logger.Info(l.id, "Endpoint started")
	return nil
}

// Stop はエンドポイントを停止する
func (l *Local) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status == StatusStopped {
		return fmt.Errorf("endpoint %s is already stopped", l.id)
	}
	l.status = StatusStopped

	logger.Info(l.id, "Endpoint stopped")
	return nil
}

// Status は現在のステータスを返す
func (l *Local) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Execute は操作を実行する
func (l *Local) Execute(ctx context.Context, op Operation) (Effects, error) {
	if err := ctx.Err(); err != nil {
		return Effects{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status != StatusRunning {
		return Effects{}, fmt.Errorf("%s: %w", l.id, ErrNotRunning)
	}
	if op.Gas.ID == "" {
		return Effects{}, fmt.Errorf("%s: operation %s has no gas token", l.id, op.Kind)
	}
	if _, used := l.spent[op.Gas.ID]; used {
		return Effects{}, fmt.Errorf("%s: %w: %s", l.id, ErrTokenReused, op.Gas.ID)
	}
	l.spent[op.Gas.ID] = struct{}{}
	l.ops[op.Kind]++

	var effects Effects
	if op.Kind == OpPublishCounter {
		l.nextObj++
		objID := fmt.Sprintf("%s/counter-%d", l.id, l.nextObj)
		l.objects[objID] = op.Kind
		effects.Created = append(effects.Created, objID)
	}
	return effects, nil
}

// OpCount は種類ごとの実行済み操作数を返す
func (l *Local) OpCount(kind OpKind) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ops[kind]
}

// ObjectCount は作成されたオブジェクト数を返す
func (l *Local) ObjectCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.objects)
}

// Spent はトークンが使用済みかどうかを返す
func (l *Local) Spent(tokenID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.spent[tokenID]
	return ok
}
