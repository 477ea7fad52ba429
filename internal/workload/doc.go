// Package workload defines the workload kinds a benchmark run mixes and the
// instances that drive them.
//
// Three kinds can be weighted against each other:
//   - shared counter: contention-heavy updates of a small set of shared objects
//   - transfer object: point-to-point transfers between a fixed set of accounts
//   - delegation: staking requests, one delegator per account
//
// A fourth kind, combination, multiplexes all three inside one instance.
//
// Each kind exposes pure request generators (CounterInitRequests,
// CounterPayloadRequests, TransferGasRequests, DelegationPayloadRequests)
// that describe the gas tokens it needs, and a factory that builds an
// instance from minted tokens. Factories return false instead of an
// instance when the quota or the token set is degenerate.
package workload
