// Package provision turns per-endpoint token requests into minted gas tokens.
//
// All endpoints of a run draw on one base gas coin and one pay coin. The
// Treasury holds that funding in a single slot: a Provisioner must take the
// Lease before it may call the Minter, and returns it afterwards. Two
// provisioning calls can therefore never spend the same funding at once,
// regardless of how the caller schedules them.
//
//	treasury := provision.NewTreasury(provision.Funding{Gas: gasCoin, Coin: payCoin, CoinType: "0x2::sui::SUI"})
//	p := provision.New(minter, treasury, price.Static(1000))
//	init, payload, err := p.Provision(ctx, ep, req)
//
// Minting failures are returned to the caller with the endpoint ID attached;
// errors.Cause recovers the minter's original error. Nothing is retried.
//
// LocalMinter is an in-memory Minter with a balance ledger. It rejects
// overlapping calls with ErrConcurrentMint.
package provision
