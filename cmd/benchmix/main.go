// Package main is the entry point for benchmix.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"benchmix/internal/bench"
	"benchmix/internal/config"
	"benchmix/internal/logger"
	"benchmix/internal/workload"
)

var (
	version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("", "%v", err)
		os.Exit(1)
	}
}

// newRootCmd はルートコマンドを作成する
// 設定値は フラグ > 環境変数(BENCHMIX_*) > 設定ファイル > プリセット の順で決まる
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BENCHMIX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "benchmix",
		Short:         "Mixed-workload allocation and gas provisioning for load benchmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			level, ok := logger.ParseLevel(v.GetString("log-level"))
			if !ok {
				return fmt.Errorf("unknown log level: %s", v.GetString("log-level"))
			}
			logger.Default.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "info", "ログレベル (debug, info, warn, error)")

	root.AddCommand(
		newPresetsCmd(),
		newPlanCmd(v),
		newRunCmd(v),
		newServeCmd(v),
		newVersionCmd(),
	)
	return root
}

// addBenchFlags は plan と run で共通のフラグを定義する
func addBenchFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "設定ファイルパス (YAML/JSON)")
	fs.String("preset", "", "プリセット名 (balanced, combined, contention, transfer, quick)")
	fs.String("mode", "", "割り当てモード (combined, disjoint)")
	fs.Int("endpoints", 0, "エンドポイント数")
	fs.Uint32("counter", 0, "shared counter の重み")
	fs.Uint32("transfer", 0, "transfer object の重み")
	fs.Uint32("delegation", 0, "delegation の重み")
	fs.Uint64("qps", 0, "全体の目標QPS")
	fs.Uint64("workers", 0, "全体のワーカー数")
	fs.Uint64("in-flight-ratio", 0, "QPSあたりの同時実行数")
	fs.Uint32("hotness", 0, "shared counter の集中度 (0-100)")
	fs.Uint64("transfer-accounts", 0, "transfer object のアカウント数")
	fs.Uint64("gas-price", 0, "参照ガス価格")
	fs.Bool("json", false, "JSONで出力")
}

// buildConfig はベンチマーク設定を構築する
func buildConfig(v *viper.Viper) (bench.Config, error) {
	var fc config.FileConfig

	// 1. 設定ファイルから読み込み
	if path := v.GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return bench.Config{}, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		fc = *loaded
	}

	// 2. プリセット (未指定ならquick)
	if v.IsSet("preset") {
		fc.Bench.Preset = v.GetString("preset")
	}
	if fc.Bench.Preset == "" && v.GetString("config") == "" {
		fc.Bench.Preset = "quick"
	}

	// 3. フラグと環境変数でオーバーライド
	if v.IsSet("mode") {
		fc.Bench.Mode = v.GetString("mode")
	}
	if v.IsSet("endpoints") {
		fc.Bench.Endpoints = v.GetInt("endpoints")
	}
	if v.IsSet("counter") || v.IsSet("transfer") || v.IsSet("delegation") {
		weights, err := baseWeights(fc)
		if err != nil {
			return bench.Config{}, err
		}
		if v.IsSet("counter") {
			weights.Counter = v.GetUint32("counter")
		}
		if v.IsSet("transfer") {
			weights.Transfer = v.GetUint32("transfer")
		}
		if v.IsSet("delegation") {
			weights.Delegation = v.GetUint32("delegation")
		}
		fc.Bench.Weights = &weights
	}
	if v.IsSet("qps") {
		fc.Bench.Load.TargetQPS = v.GetUint64("qps")
	}
	if v.IsSet("workers") {
		fc.Bench.Load.Workers = v.GetUint64("workers")
	}
	if v.IsSet("in-flight-ratio") {
		fc.Bench.Load.InFlightRatio = v.GetUint64("in-flight-ratio")
	}
	if v.IsSet("hotness") {
		hotness := v.GetUint32("hotness")
		fc.Bench.Load.HotnessFactor = &hotness
	}
	if v.IsSet("transfer-accounts") {
		fc.Bench.Load.TransferAccounts = v.GetUint64("transfer-accounts")
	}
	if v.IsSet("gas-price") {
		fc.Bench.Funding.GasPrice = v.GetUint64("gas-price")
	}

	if err := fc.Validate(); err != nil {
		return bench.Config{}, fmt.Errorf("設定検証エラー: %w", err)
	}
	cfg, err := fc.ToBenchConfig()
	if err != nil {
		return bench.Config{}, fmt.Errorf("設定変換エラー: %w", err)
	}
	return cfg, nil
}

// baseWeights は個別の重みフラグを適用する前の重みを返す
func baseWeights(fc config.FileConfig) (workload.Weights, error) {
	if fc.Bench.Weights != nil {
		return *fc.Bench.Weights, nil
	}
	cfg, err := fc.ToBenchConfig()
	if err != nil {
		return workload.Weights{}, err
	}
	return cfg.Weights, nil
}

// signalContext はSIGINT/SIGTERMでキャンセルされるコンテキストを返す
func signalContext(onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			onSignal()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
