package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmix/internal/allocation"
	"benchmix/internal/bench"
	"benchmix/internal/workload"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func planFor(t *testing.T, args ...string) allocation.Plan {
	t.Helper()
	out, err := execute(t, append([]string{"plan", "--json"}, args...)...)
	require.NoError(t, err)

	var plan allocation.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan), out)
	return plan
}

func TestPlanDefaultsToQuickPreset(t *testing.T) {
	plan := planFor(t)

	assert.Equal(t, "disjoint", plan.Mode)
	assert.Len(t, plan.Quotas, 3)
	assert.Equal(t, 29, plan.Requests.Total())
	assert.Len(t, plan.Endpoints, 2)
}

func TestPlanFlagOverrides(t *testing.T) {
	plan := planFor(t,
		"--mode", "combined",
		"--endpoints", "2",
		"--counter", "1", "--transfer", "1", "--delegation", "0",
		"--qps", "100", "--workers", "4", "--in-flight-ratio", "2",
		"--hotness", "0", "--transfer-accounts", "1",
	)

	require.Len(t, plan.Quotas, 1)
	assert.Equal(t, uint64(200), plan.Quotas[0].Quota.MaxOps)
	assert.Equal(t, 200, plan.Requests.CounterPayload)
	require.Len(t, plan.Endpoints, 2)
	assert.Equal(t, 100, plan.Endpoints[0].CounterPayload)
	assert.Equal(t, 0, plan.Requests.DelegationPayload)
}

func TestPlanSingleWeightKeepsPresetWeights(t *testing.T) {
	// quick は 1/1/1、delegation だけを0にする
	plan := planFor(t, "--delegation", "0")

	require.Len(t, plan.Quotas, 2)
	require.Len(t, plan.Elided, 1)
	assert.Equal(t, allocation.ReasonZeroWeight, plan.Elided[0].Reason)
}

func TestPlanEnvironmentOverrides(t *testing.T) {
	t.Setenv("BENCHMIX_MODE", "combined")
	t.Setenv("BENCHMIX_IN_FLIGHT_RATIO", "3")

	plan := planFor(t)
	assert.Equal(t, "combined", plan.Mode)
	// quick: qps=20
	assert.Equal(t, uint64(60), plan.Quotas[0].Quota.MaxOps)
}

func TestPlanFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("BENCHMIX_MODE", "combined")

	plan := planFor(t, "--mode", "disjoint")
	assert.Equal(t, "disjoint", plan.Mode)
}

func TestPlanFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `
bench:
  name: from-file
  mode: combined
  endpoints: 3
  weights:
    shared_counter: 0
    transfer_object: 1
    delegation: 0
  load:
    target_qps: 10
    workers: 2
    in_flight_ratio: 1
    transfer_accounts: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	plan := planFor(t, "--config", path)
	assert.Equal(t, "combined", plan.Mode)
	assert.Len(t, plan.Endpoints, 3)
	// 10 tokens owned by account 0, 2 accounts x 10 payloads
	assert.Equal(t, 10, plan.Requests.TransferTokens)
	assert.Equal(t, 20, plan.Requests.TransferPayload)
}

func TestPlanTextOutput(t *testing.T) {
	out, err := execute(t, "plan", "--preset", "contention")
	require.NoError(t, err)

	assert.Contains(t, out, "Plan: contention")
	assert.Contains(t, out, "shared_counter")
	assert.Contains(t, out, "elided (zero weight)")
}

func TestInvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"plan", "--preset", "missing"}},
		{"unknown mode", []string{"plan", "--mode", "mixed"}},
		{"hotness above 100", []string{"plan", "--hotness", "101"}},
		{"missing config file", []string{"plan", "--config", "/nonexistent/run.yaml"}},
		{"unknown log level", []string{"--log-level", "loud", "presets"}},
		{"unexpected argument", []string{"plan", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "run", "--preset", "quick", "--json")
	require.NoError(t, err)

	var result bench.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, "quick", result.Name)
	assert.Equal(t, 6, result.TotalInstances)
	assert.Equal(t, uint64(29), result.TokensMinted)
	assert.Len(t, result.Endpoints, 2)
}

func TestRunReport(t *testing.T) {
	out, err := execute(t, "run", "--preset", "quick", "--counter", "1", "--transfer", "0", "--delegation", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "BENCHMARK REPORT: quick")
	assert.Contains(t, out, workload.KindSharedCounter.String())
}

func TestRunStreamsSelectedEvents(t *testing.T) {
	out, err := execute(t, "run", "--preset", "quick", "--events", "endpoint_provisioned,allocation_completed")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "[endpoint_provisioned]"))
	assert.Contains(t, out, "[endpoint_provisioned] endpoint-1")
	assert.Contains(t, out, "[allocation_completed] mode=disjoint endpoints=2 instances=6")
	assert.NotContains(t, out, "[workload_initialized]")
	assert.Contains(t, out, "BENCHMARK REPORT: quick")
}

func TestRunRejectsUnknownEventType(t *testing.T) {
	_, err := execute(t, "run", "--preset", "quick", "--events", "node_killed")
	assert.ErrorContains(t, err, "unknown event type")
}

func TestPresetsAndVersion(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	for _, name := range bench.ListPresets() {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "benchmix version dev\n", out)
}
