package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"benchmix/internal/logger"
)

// Task はレーンで実行される処理
type Task func(ctx context.Context) error

// ErrLaneStopped は停止済みのレーンへの投入で返される
var ErrLaneStopped = errors.New("lane is not running")

// request はレーンへの1件の投入
type request struct {
	ctx  context.Context
	task Task
	done chan error
}

// Lane は投入されたタスクを1つのゴルーチンで順番に実行する
// 同時に実行されるタスクは常に1つだけ
type Lane struct {
	name  string
	tasks chan request
	wg    sync.WaitGroup

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewLane は新しいレーンを作成する
func NewLane(name string) *Lane {
	return &Lane{
		name:  name,
		tasks: make(chan request),
	}
}

// Start はレーンを起動する
func (l *Lane) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return
	}

	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.loop(l.ctx)

	logger.Debug("", "Lane %s started", l.name)
}

// loop はタスクを1件ずつ取り出して実行する
func (l *Lane) loop(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-l.tasks:
			err := run(req)
			if err != nil {
				l.failed.Add(1)
			} else {
				l.completed.Add(1)
			}
			req.done <- err
		}
	}
}

// run はパニックをエラーに変換してタスクを実行する
func run(req request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return req.task(req.ctx)
}

// Do はタスクを投入し、完了するまで待つ
// 投入されたタスクは必ず最後まで実行される
func (l *Lane) Do(ctx context.Context, task Task) error {
	l.mu.Lock()
	laneCtx, started := l.ctx, l.started
	l.mu.Unlock()

	if !started {
		return ErrLaneStopped
	}

	req := request{ctx: ctx, task: task, done: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-laneCtx.Done():
		return ErrLaneStopped
	case l.tasks <- req:
	}
	return <-req.done
}

// Stop はレーンを停止する
// 実行中のタスクの完了を待つ
func (l *Lane) Stop() {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return
	}
	l.started = false
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	l.wg.Wait()

	logger.Debug("", "Lane %s stopped (completed: %d, failed: %d)", l.name, l.Completed(), l.Failed())
}

// Completed は成功したタスク数を返す
func (l *Lane) Completed() uint64 {
	return l.completed.Load()
}

// Failed は失敗したタスク数を返す
func (l *Lane) Failed() uint64 {
	return l.failed.Load()
}
