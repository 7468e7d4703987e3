// Package sialo holds the domain types and pure logic behind the sialo
// command-line client for Sia's content-addressed storage network.
//
// The package has no network dependencies. It covers:
//
//   - ObjectID and AppKey: hex-encoded identifiers with strict length checks
//   - ParseExpiry: share link expiry given as 1h, 10d, 4w or an RFC 3339 timestamp
//   - ToSiaURL and FromSiaURL: the sia:// alias of https:// share links
//   - PlanUpload: slab and shard totals for a file of a given size
//   - Subscribe and TrackProgress: a non-blocking shard completion stream
//   - RegistrationRequest: application metadata for the register handshake
//
// # Example Usage
//
//	plan, err := sialo.PlanUpload(size, 10, 20, indexd.SectorSize)
//	if err != nil {
//	    return err
//	}
//
//	emitter, consumer := sialo.Subscribe()
//	go func() {
//	    _, _ = sialo.TrackProgress(ctx, consumer, plan, renderer)
//	}()
//	obj, err := sdk.Upload(ctx, file, indexd.UploadOptions{ShardUploaded: emitter})
//	emitter.Close()
//
// The indexd package implements the indexer protocol and clientcli drives
// both for the sialo command.
package sialo
