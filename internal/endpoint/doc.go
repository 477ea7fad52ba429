// Package endpoint provides the execution targets workloads submit operations to.
//
// An Endpoint is an interface value; the allocation result, the workload
// instances assigned to it and the driver all hold the same value, so no
// ownership transfer is involved.
//
// # Local endpoints
//
// Local is an in-memory endpoint that records executed operations, creates
// counter objects and rejects reuse of a gas token:
//
//	ep := endpoint.NewLocal("ep-1")
//	if err := ep.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer ep.Stop()
//
// # Ordered sets
//
// A Set keeps endpoints in insertion order. Allocation pairs the i-th chunk
// of every token list with the i-th endpoint of the set.
//
//	s := endpoint.NewLocalSet(4, "ep")
//	if err := s.StartAll(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.StopAll()
package endpoint
