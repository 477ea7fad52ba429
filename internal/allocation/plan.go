package allocation

import "benchmix/internal/gas"

// Counts はトークン要求リストごとの件数
type Counts struct {
	CounterInit       int `json:"counter_init"`
	CounterPayload    int `json:"counter_payload"`
	TransferTokens    int `json:"transfer_tokens"`
	TransferPayload   int `json:"transfer_payload"`
	DelegationPayload int `json:"delegation_payload"`
}

// CountsOf は要求リストの件数を数える
func CountsOf(cfg gas.Config) Counts {
	return Counts{
		CounterInit:       len(cfg.CounterInit),
		CounterPayload:    len(cfg.CounterPayload),
		TransferTokens:    len(cfg.TransferTokens),
		TransferPayload:   len(cfg.TransferPayload),
		DelegationPayload: len(cfg.DelegationPayload),
	}
}

// Total は件数の合計を返す
func (c Counts) Total() int {
	return c.CounterInit + c.CounterPayload + c.TransferTokens + c.TransferPayload + c.DelegationPayload
}

// Plan はトークンを生成せずに計算した割り当て結果
type Plan struct {
	Mode      string      `json:"mode"`
	Quotas    []KindQuota `json:"quotas"`
	Elided    []Elision   `json:"elided,omitempty"`
	Requests  Counts      `json:"requests"`
	Endpoints []Counts    `json:"endpoints"`
}

// NewPlan は Configure と同じ導出と分割を行い、結果の件数だけを返す
func NewPlan(mode Mode, req Request, numEndpoints int) (*Plan, error) {
	if mode == nil {
		return nil, ErrNoMode
	}

	d, chunks := prepare(mode, req, numEndpoints)
	plan := &Plan{
		Mode:      mode.String(),
		Quotas:    d.quotas,
		Elided:    d.elided,
		Requests:  CountsOf(d.config),
		Endpoints: make([]Counts, len(chunks)),
	}
	for i, cfg := range chunks {
		plan.Endpoints[i] = CountsOf(cfg)
	}
	return plan, nil
}
