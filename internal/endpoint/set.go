package endpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"benchmix/internal/logger"
)

// Set は順序付きのエンドポイント集合
// 追加順がそのまま割り当て順になる
type Set struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	index     map[string]int
}

// NewSet は新しいSetを作成する
func NewSet(endpoints ...Endpoint) (*Set, error) {
	s := &Set{index: make(map[string]int)}
	for _, ep := range endpoints {
		if err := s.Add(ep); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewLocalSet は指定数のLocalエンドポイントを作成する
func NewLocalSet(count int, prefix string) *Set {
	s := &Set{index: make(map[string]int)}
	for i := range count {
		_ = s.Add(NewLocal(fmt.Sprintf("%s-%d", prefix, i+1)))
	}
	logger.Info("", "Created %d local endpoints with prefix '%s'", count, prefix)
	return s
}

// Add は末尾にエンドポイントを追加する
func (s *Set) Add(ep Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[ep.ID()]; exists {
		return fmt.Errorf("endpoint %s already exists in set", ep.ID())
	}
	s.index[ep.ID()] = len(s.endpoints)
	s.endpoints = append(s.endpoints, ep)
	return nil
}

// Get はIDでエンドポイントを取得する
func (s *Set) Get(id string) (Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.endpoints[i], true
}

// Endpoints は追加順のエンドポイント一覧を返す
func (s *Set) Endpoints() []Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Endpoint, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}

// Len はエンドポイント数を返す
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.endpoints)
}

// StartAll はLifecycleを持つ全エンドポイントを起動する
func (s *Set) StartAll(ctx context.Context) error {
	return s.each(func(lc Lifecycle) error { return lc.Start(ctx) }, "start")
}

// StopAll はLifecycleを持つ全エンドポイントを停止する
func (s *Set) StopAll() error {
	return s.each(func(lc Lifecycle) error { return lc.Stop() }, "stop")
}

// each は全エンドポイントに並行して操作を適用する
func (s *Set) each(fn func(Lifecycle) error, action string) error {
	endpoints := s.Endpoints()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, ep := range endpoints {
		lc, ok := ep.(Lifecycle)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(lc); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := result.ErrorOrNil(); err != nil {
		logger.Warn("", "Failed to %s %d endpoints", action, len(result.Errors))
		return err
	}
	logger.Debug("", "All endpoints %s ok (count: %d)", action, len(endpoints))
	return nil
}
