package indexd

import (
	"time"

	"github.com/sagarc03/sialo"
)

const (
	// SectorSize is the size of a single shard on the network.
	SectorSize = 1 << 22

	// DefaultDataShards is the number of data shards per slab.
	DefaultDataShards = 10
	// DefaultParityShards is the number of parity shards per slab.
	DefaultParityShards = 20
	// DefaultMaxInflight bounds concurrent shard transfers.
	DefaultMaxInflight = 8
)

// Object is the metadata of a stored object.
type Object struct {
	ID        sialo.ObjectID `json:"id"`
	Size      uint64         `json:"size"`
	Slabs     []Slab         `json:"slabs"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Slab is one erasure-coded segment of an object.
type Slab struct {
	DataShards   uint32  `json:"dataShards"`
	ParityShards uint32  `json:"parityShards"`
	SectorSize   uint64  `json:"sectorSize"`
	Length       uint64  `json:"length"` // object bytes in this slab, excluding padding
	Shards       []Shard `json:"shards"`
}

// Shard locates one encoded piece of a slab.
type Shard struct {
	Index int            `json:"index"`
	Root  sialo.ObjectID `json:"root"`
}

// ObjectEvent reports a change to an object.
type ObjectEvent struct {
	ID        sialo.ObjectID `json:"id"`
	Deleted   bool           `json:"deleted"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// UploadOptions configures SDK.Upload. Zero values take the defaults.
type UploadOptions struct {
	DataShards   uint32
	ParityShards uint32
	SectorSize   uint64
	MaxInflight  int

	// ShardUploaded, if set, is notified once per stored shard.
	ShardUploaded *sialo.Emitter
}

func (o UploadOptions) withDefaults() UploadOptions {
	if o.DataShards == 0 && o.ParityShards == 0 {
		o.DataShards = DefaultDataShards
		o.ParityShards = DefaultParityShards
	}
	if o.SectorSize == 0 {
		o.SectorSize = SectorSize
	}
	if o.MaxInflight <= 0 {
		o.MaxInflight = DefaultMaxInflight
	}
	return o
}

// DownloadOptions configures SDK.Download.
type DownloadOptions struct {
	MaxInflight int
}

// ObjectEventsOptions pages through object events.
type ObjectEventsOptions struct {
	Cursor string
	Limit  int
}

// ConnectResponse is returned by POST /auth/connect.
type ConnectResponse struct {
	ResponseURL string    `json:"responseURL"`
	StatusURL   string    `json:"statusURL"`
	RegisterURL string    `json:"registerURL"`
	Expiration  time.Time `json:"expiration"`
}

// Approval states reported by the status endpoint.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// StatusResponse is returned by the approval status URL.
type StatusResponse struct {
	Status string `json:"status"`
	Token  string `json:"token,omitempty"`
}

// RegisterRequest is posted to the register URL once approved.
type RegisterRequest struct {
	AppKey    string `json:"appKey"`
	Token     string `json:"token"`
	Signature string `json:"signature"`
}

// ObjectEventsResponse is one page of GET /objects/events.
type ObjectEventsResponse struct {
	Events     []ObjectEvent `json:"events"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// PruneResponse is returned by POST /slabs/prune.
type PruneResponse struct {
	Pruned int `json:"pruned"`
}
