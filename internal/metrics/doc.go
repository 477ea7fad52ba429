// Package metrics collects provisioning statistics for a benchmark run.
//
// Metrics keeps in-process counters (provisioning calls, minted tokens,
// sampled latencies for P99) for the run report, and mirrors them into
// Prometheus collectors under the "benchmix" namespace:
//
//   - benchmix_tokens_minted_total{stage}
//   - benchmix_provisions_total{result}
//   - benchmix_provision_duration_seconds
//   - benchmix_workload_quota{kind,field}
//   - benchmix_workload_instances_total{kind}
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//
//	start := time.Now()
//	// ... mint tokens ...
//	m.RecordSuccess(time.Since(start), len(init), len(payload))
//
//	snap := m.Snapshot()
//
// Passing a nil Registerer keeps the collectors unregistered.
//
// # Thread Safety
//
// All operations use atomic counters or Prometheus collectors and are safe
// for concurrent access.
package metrics
