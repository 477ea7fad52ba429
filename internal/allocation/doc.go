// Package allocation splits a weighted workload mix across endpoints and
// prepares the funding tokens each endpoint needs.
//
// A run is described by a Request: relative weights for the shared counter,
// transfer and delegation kinds, global targets (QPS, workers, in-flight
// ratio), a hotness factor and the number of transfer accounts.
//
// # Modes
//
// Disjoint computes an independent quota per kind from its share of the
// weights (QPS floored, workers rounded up) and builds up to three
// instances per endpoint. Kinds with zero weight or a zero quota value are
// elided.
//
// Combined computes one max-ops value for the whole mix and builds a single
// merged instance per endpoint that carries the weights unchanged. Token
// counts in this mode derive from the shared max-ops, so the two modes are
// not numerically equivalent for the same weights. In particular delegation
// tokens follow max-ops here but the transfer account count in Disjoint.
//
// # Flow
//
//	quotas -> token requests -> Chunk per endpoint -> provision -> assemble
//
// Endpoints are provisioned one at a time on a single worker lane because
// every mint draws on the same funding coin. The first provisioning error
// aborts the run and Configure returns no assignments.
//
// # Basic Usage
//
//	p := provision.New(minter, provision.NewTreasury(funding), observer)
//	c := allocation.NewConfigurator(p, observer)
//
//	assignments, err := c.Configure(ctx, allocation.Disjoint, req, endpoints)
//
// NewPlan runs the same derivation without minting and reports the counts.
package allocation
