package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"benchmix/internal/allocation"
	"benchmix/internal/api"
	"benchmix/internal/bench"
	"benchmix/internal/events"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "利用可能なプリセットを表示",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printPresets(cmd.OutOrStdout())
		},
	}
}

func newPlanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "トークンを生成せずに割り当てを計算",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(v)
			if err != nil {
				return err
			}
			plan, err := bench.New(cfg).Plan()
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return writeJSON(cmd.OutOrStdout(), plan)
			}
			printPlan(cmd.OutOrStdout(), cfg, plan)
			return nil
		},
	}
	addBenchFlags(cmd.Flags())
	return cmd
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "エンドポイントごとにガスを用意してワークロードを初期化",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(v)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			ctx, cancel := signalContext(func() {
				fmt.Fprintln(out, "\n中断シグナルを受信、準備を終了中...")
			})
			defer cancel()

			engine := bench.New(cfg)
			stop, err := streamEvents(cmd.ErrOrStderr(), engine, v.GetStringSlice("events"))
			if err != nil {
				return err
			}

			result, err := engine.Run(ctx)
			stop()
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return writeJSON(out, result)
			}
			fmt.Fprintln(out, result.Report())
			return nil
		},
	}
	addBenchFlags(cmd.Flags())
	cmd.Flags().StringSlice("events", nil, "実行中に表示するイベントの種類 (例: endpoint_provisioned,provision_failed)")
	return cmd
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "APIサーバーを起動",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := v.GetString("addr")
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "benchmix - API Server")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintf(out, "Starting server on http://%s\n", addr)
			fmt.Fprintln(out, "Press Ctrl+C to stop")
			fmt.Fprintln(out)

			ctx, cancel := signalContext(func() {
				fmt.Fprintln(out, "\n中断シグナルを受信、サーバーを終了中...")
			})
			defer cancel()

			return api.NewServer(addr).Start(ctx)
		},
	}
	cmd.Flags().String("addr", ":8080", "サーバーアドレス (例: :8080, 0.0.0.0:3000)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョンを表示",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "benchmix version %s\n", version)
		},
	}
}

// printPresets は利用可能なプリセットを表示する
func printPresets(w io.Writer) {
	fmt.Fprintln(w, "利用可能なプリセット:")
	fmt.Fprintln(w)
	for _, p := range bench.Presets() {
		fmt.Fprintf(w, "  %-12s %s\n", p.Name, p.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "使用例: benchmix run --preset quick")
}

// printPlan は割り当て計画を表示する
func printPlan(w io.Writer, cfg bench.Config, plan *allocation.Plan) {
	fmt.Fprintf(w, "Plan: %s (mode=%s, endpoints=%d)\n", cfg.Name, plan.Mode, len(plan.Endpoints))
	fmt.Fprintf(w, "Weights: %s  Targets: qps=%d workers=%d in_flight_ratio=%d\n",
		cfg.Weights, cfg.Targets.TargetQPS, cfg.Targets.NumWorkers, cfg.Targets.InFlightRatio)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Quotas:")
	if len(plan.Quotas) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, q := range plan.Quotas {
		fmt.Fprintf(w, "  %-16s qps=%d workers=%d max_ops=%d\n",
			q.Name, q.Quota.TargetQPS, q.Quota.NumWorkers, q.Quota.MaxOps)
	}
	for _, e := range plan.Elided {
		fmt.Fprintf(w, "  %-16s elided (%s)\n", e.Name, e.Reason)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Requests: %d tokens\n", plan.Requests.Total())
	printCounts(w, "  total", plan.Requests)
	for i, c := range plan.Endpoints {
		printCounts(w, fmt.Sprintf("  endpoint-%d", i+1), c)
	}
}

func printCounts(w io.Writer, label string, c allocation.Counts) {
	fmt.Fprintf(w, "%-14s counter_init=%d counter_payload=%d transfer_tokens=%d transfer_payload=%d delegation_payload=%d\n",
		label, c.CounterInit, c.CounterPayload, c.TransferTokens, c.TransferPayload, c.DelegationPayload)
}

// streamEvents は指定された種類のイベントを実行中に表示する
// 返り値の関数はバスを閉じて表示が終わるまで待つ
func streamEvents(w io.Writer, engine *bench.Engine, names []string) (func(), error) {
	if len(names) == 0 {
		return func() {}, nil
	}

	types := make([]events.EventType, 0, len(names))
	for _, name := range names {
		t, err := events.ParseType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	bus := events.NewBusWithBuffer(1024)
	engine.SetEventBus(bus)
	ch := bus.Subscribe(types...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			printEvent(w, e)
		}
	}()

	return func() {
		bus.Close()
		<-done
	}, nil
}

func printEvent(w io.Writer, e events.Event) {
	d := e.Data
	switch e.Type {
	case events.EventKindElided:
		fmt.Fprintf(w, "[%s] mode=%s kind=%s reason=%s\n", e.Type, d.Mode, d.Kind, d.Reason)
	case events.EventEndpointProvisioned:
		fmt.Fprintf(w, "[%s] %s init=%d payload=%d\n", e.Type, e.EndpointID, d.InitTokens, d.PayloadTokens)
	case events.EventWorkloadInitialized:
		fmt.Fprintf(w, "[%s] %s kind=%s\n", e.Type, e.EndpointID, d.Kind)
	case events.EventProvisionFailed:
		fmt.Fprintf(w, "[%s] %s error=%s\n", e.Type, e.EndpointID, d.Error)
	case events.EventAllocationCompleted:
		fmt.Fprintf(w, "[%s] mode=%s endpoints=%d instances=%d\n", e.Type, d.Mode, d.Endpoints, d.Instances)
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
