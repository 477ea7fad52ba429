// Package bench prepares a mixed-workload benchmark against a set of
// in-process endpoints and reports how the mix was allocated.
//
// An Engine creates the endpoints, funds a LocalMinter from the configured
// balances, and runs allocation.Configure in the configured mode. The
// Result lists every endpoint with its workloads, quotas and token counts.
//
// # Presets
//
//   - balanced:   equal weights, disjoint mode (default)
//   - combined:   equal weights merged into one workload per endpoint
//   - contention: shared counters only with a hot counter set
//   - transfer:   transfer heavy with a small delegation share
//   - quick:      small run for verification
//
// # Basic Usage
//
//	cfg, _ := bench.GetPreset("quick")
//	engine := bench.New(cfg)
//
//	plan, err := engine.Plan()     // no minting
//	result, err := engine.Run(ctx) // mints and initializes
//	fmt.Println(result.Report())
package bench
