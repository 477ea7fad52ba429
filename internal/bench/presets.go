package bench

import (
	"benchmix/internal/allocation"
	"benchmix/internal/workload"
)

// Preset はプリセット名と説明
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BalancedPreset は3種類を均等に独立して割り当てる
func BalancedPreset() Config {
	cfg := DefaultConfig()
	cfg.Name = "balanced"
	cfg.Description = "Equal mix of all kinds, each with its own quota"
	return cfg
}

// CombinedPreset は3種類を1つの統合ワークロードにまとめる
func CombinedPreset() Config {
	cfg := DefaultConfig()
	cfg.Name = "combined"
	cfg.Description = "Equal mix merged into one workload per endpoint"
	cfg.Mode = allocation.Combined.String()
	return cfg
}

// ContentionPreset は少数のカウンタに操作を集中させる
func ContentionPreset() Config {
	cfg := DefaultConfig()
	cfg.Name = "contention"
	cfg.Description = "Shared counters only, with a hot counter set"
	cfg.Weights = workload.Weights{Counter: 1}
	cfg.HotnessFactor = 90
	return cfg
}

// TransferPreset は転送とわずかな委任の組み合わせ
func TransferPreset() Config {
	cfg := DefaultConfig()
	cfg.Name = "transfer"
	cfg.Description = "Transfer heavy mix with a small delegation share"
	cfg.Weights = workload.Weights{Transfer: 9, Delegation: 1}
	cfg.NumTransferAccounts = 4
	return cfg
}

// QuickPreset は動作確認用の小さな設定
func QuickPreset() Config {
	cfg := DefaultConfig()
	cfg.Name = "quick"
	cfg.Description = "Small run for verification"
	cfg.EndpointCount = 2
	cfg.Targets = workload.Targets{TargetQPS: 20, NumWorkers: 3, InFlightRatio: 1}
	return cfg
}

var presets = []struct {
	name string
	fn   func() Config
}{
	{"balanced", BalancedPreset},
	{"combined", CombinedPreset},
	{"contention", ContentionPreset},
	{"transfer", TransferPreset},
	{"quick", QuickPreset},
}

// GetPreset は名前からプリセットを取得する
func GetPreset(name string) (Config, bool) {
	for _, p := range presets {
		if p.name == name {
			return p.fn(), true
		}
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// Presets はプリセットの一覧を説明付きで返す
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = Preset{Name: p.name, Description: p.fn().Description}
	}
	return out
}
