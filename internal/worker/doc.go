// Package worker provides a single-lane task scheduler.
//
// A Lane owns exactly one goroutine. Tasks handed to Do run on that
// goroutine one after another in submission order, so two tasks submitted
// to the same lane never overlap, even when Do is called from several
// goroutines at once. Allocation uses a lane to provision endpoints that
// draw on one shared funding source.
//
// # Basic Usage
//
//	lane := worker.NewLane("provision")
//	lane.Start(ctx)
//	defer lane.Stop()
//
//	err := lane.Do(ctx, func(ctx context.Context) error {
//	    return provisionEndpoint(ctx, ep)
//	})
//
// # Shutdown
//
// Stop waits for the running task to finish. Do on a stopped lane returns
// ErrLaneStopped; a panicking task is reported as an error.
package worker
