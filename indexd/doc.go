// Package indexd is a client for a Sia indexer: the service that
// registers applications, stores erasure-coded shards and keeps object
// metadata.
//
// # Registration
//
// An application obtains its key through a handshake that needs an
// operator to approve it out of band. Each step is a distinct type, so
// steps cannot be taken out of order:
//
//	b, err := indexd.NewBuilder("https://app.sia.storage")
//	requested, err := b.RequestConnection(ctx, sialo.DefaultRegistrationRequest())
//	fmt.Println("approve at", requested.ResponseURL())
//	approved, err := requested.WaitForApproval(ctx)
//	sdk, err := approved.Register(ctx, seedPhrase, indexd.TLSConfig())
//
// A registered key is reused with Connect.
//
// # Objects
//
// Upload splits its input into slabs of DataShards × SectorSize bytes,
// Reed-Solomon encodes each slab into DataShards + ParityShards shards and
// stores every shard under the blake2b-256 hash of its bytes. The object
// id is the blake2b-256 hash of the content. Download needs any
// DataShards shards of each slab.
//
// Requests are authenticated by signing "METHOD PATH TIMESTAMP" with the
// app key; see SignRequest. Share links are signed locally and verified
// by the indexer; see SignShare.
package indexd
