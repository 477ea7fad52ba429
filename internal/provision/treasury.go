package provision

import (
	"context"

	"github.com/pkg/errors"

	"benchmix/internal/gas"
)

// Funding は生成に使う資金一式
type Funding struct {
	Gas      gas.Coin
	Coin     gas.Coin
	CoinType string
}

// Treasury は共有資金を一度に1人だけに貸し出す
// 容量1のチャネルが資金の唯一の保持場所になる
type Treasury struct {
	slot chan Funding
}

// NewTreasury は資金を預けたTreasuryを作成する
func NewTreasury(f Funding) *Treasury {
	t := &Treasury{slot: make(chan Funding, 1)}
	t.slot <- f
	return t
}

// Acquire は資金を借り受ける
// 他の保持者が返却するまでブロックする
func (t *Treasury) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case f := <-t.slot:
		return &Lease{treasury: t, funding: f}, nil
	case <-ctx.Done():
		return nil, errors.WithMessage(ctx.Err(), "waiting for funding lease")
	}
}

// TryAcquire は待たずに資金を借り受ける
func (t *Treasury) TryAcquire() (*Lease, bool) {
	select {
	case f := <-t.slot:
		return &Lease{treasury: t, funding: f}, true
	default:
		return nil, false
	}
}

// Lease は借り受けた資金
// 1つのゴルーチンだけが使用する
type Lease struct {
	treasury *Treasury
	funding  Funding
	released bool
}

// Funding は借り受けた資金を返す
func (l *Lease) Funding() Funding {
	return l.funding
}

// Release は資金を返却する
func (l *Lease) Release() {
	if l.released {
		return
	}
	l.released = true
	l.treasury.slot <- l.funding
}
