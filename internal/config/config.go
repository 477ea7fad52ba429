package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"benchmix/internal/allocation"
	"benchmix/internal/bench"
	"benchmix/internal/workload"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Bench BenchConfig `yaml:"bench" json:"bench"`
}

// BenchConfig はベンチマーク設定
type BenchConfig struct {
	Preset      string `yaml:"preset" json:"preset"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Mode        string `yaml:"mode" json:"mode"`
	Endpoints   int    `yaml:"endpoints" json:"endpoints"`

	Weights *workload.Weights `yaml:"weights" json:"weights"`
	Load    LoadConfig        `yaml:"load" json:"load"`
	Funding FundingConfig     `yaml:"funding" json:"funding"`
}

// LoadConfig は負荷目標の設定
type LoadConfig struct {
	TargetQPS        uint64  `yaml:"target_qps" json:"target_qps"`
	Workers          uint64  `yaml:"workers" json:"workers"`
	InFlightRatio    uint64  `yaml:"in_flight_ratio" json:"in_flight_ratio"`
	HotnessFactor    *uint32 `yaml:"hotness_factor" json:"hotness_factor"`
	TransferAccounts uint64  `yaml:"transfer_accounts" json:"transfer_accounts"`
}

// FundingConfig は資金の設定
type FundingConfig struct {
	GasPrice       uint64 `yaml:"gas_price" json:"gas_price"`
	GasBalance     uint64 `yaml:"gas_balance" json:"gas_balance"`
	PayCoinBalance uint64 `yaml:"pay_coin_balance" json:"pay_coin_balance"`
	CoinType       string `yaml:"coin_type" json:"coin_type"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToBenchConfig はFileConfigをbench.Configに変換する
// プリセットが指定されていればそれを基にする
func (f *FileConfig) ToBenchConfig() (bench.Config, error) {
	bc := f.Bench

	// デフォルト値の設定
	config := bench.DefaultConfig()
	if bc.Preset != "" {
		preset, ok := bench.GetPreset(bc.Preset)
		if !ok {
			return config, fmt.Errorf("unknown preset: %s", bc.Preset)
		}
		config = preset
	}

	if bc.Name != "" {
		config.Name = bc.Name
	}
	if bc.Description != "" {
		config.Description = bc.Description
	}
	if bc.Mode != "" {
		mode, err := allocation.ParseMode(bc.Mode)
		if err != nil {
			return config, err
		}
		config.Mode = mode.String()
	}
	if bc.Endpoints > 0 {
		config.EndpointCount = bc.Endpoints
	}

	// 重みは全て0も有効な指定
	if bc.Weights != nil {
		config.Weights = *bc.Weights
	}

	// 負荷設定
	if bc.Load.TargetQPS > 0 {
		config.Targets.TargetQPS = bc.Load.TargetQPS
	}
	if bc.Load.Workers > 0 {
		config.Targets.NumWorkers = bc.Load.Workers
	}
	if bc.Load.InFlightRatio > 0 {
		config.Targets.InFlightRatio = bc.Load.InFlightRatio
	}
	if bc.Load.HotnessFactor != nil {
		config.HotnessFactor = *bc.Load.HotnessFactor
	}
	if bc.Load.TransferAccounts > 0 {
		config.NumTransferAccounts = bc.Load.TransferAccounts
	}

	// 資金設定
	if bc.Funding.GasPrice > 0 {
		config.GasPrice = bc.Funding.GasPrice
	}
	if bc.Funding.GasBalance > 0 {
		config.GasBalance = bc.Funding.GasBalance
	}
	if bc.Funding.PayCoinBalance > 0 {
		config.PayCoinBalance = bc.Funding.PayCoinBalance
	}
	if bc.Funding.CoinType != "" {
		config.CoinType = bc.Funding.CoinType
	}

	return config, nil
}

// Validate は設定を検証する
// 見つかった問題を全てまとめて返す
func (f *FileConfig) Validate() error {
	bc := f.Bench
	var result *multierror.Error

	if bc.Preset != "" {
		if _, ok := bench.GetPreset(bc.Preset); !ok {
			result = multierror.Append(result, fmt.Errorf("preset %q is not one of %v", bc.Preset, bench.ListPresets()))
		}
	}

	if bc.Mode != "" {
		if _, err := allocation.ParseMode(bc.Mode); err != nil {
			result = multierror.Append(result, fmt.Errorf("mode: %v", err))
		}
	}

	if bc.Endpoints < 0 {
		result = multierror.Append(result, fmt.Errorf("endpoints must be non-negative"))
	}

	if h := bc.Load.HotnessFactor; h != nil && *h > allocation.MaxHotness {
		result = multierror.Append(result, fmt.Errorf("load.hotness_factor must be between 0 and %d", allocation.MaxHotness))
	}

	if bc.Funding.CoinType != "" && strings.Count(bc.Funding.CoinType, "::") != 2 {
		result = multierror.Append(result, fmt.Errorf("funding.coin_type must look like <address>::<module>::<name>"))
	}

	return result.ErrorOrNil()
}
