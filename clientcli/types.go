package clientcli

import (
	"time"

	"github.com/sagarc03/sialo"
)

// RegisterOptions configures a registration handshake.
type RegisterOptions struct {
	Request    sialo.RegistrationRequest
	SeedPhrase string
	// OnApprovalURL is called with the URL the operator must visit before
	// the client starts waiting for approval.
	OnApprovalURL func(url string)
}

// RegisterResult is the outcome of a completed registration.
type RegisterResult struct {
	IndexerURL string `json:"indexer_url"`
	AppKey     string `json:"app_key"`
	PublicKey  string `json:"public_key"`
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath    string
	DataShards   uint32
	ParityShards uint32
	SectorSize   uint64 // zero means indexd.SectorSize
	Renderer     sialo.ProgressRenderer
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath      string           `json:"local_path"`
	ObjectID       sialo.ObjectID   `json:"object_id"`
	Size           uint64           `json:"size_bytes"`
	Plan           sialo.UploadPlan `json:"plan"`
	ShardsUploaded uint64           `json:"shards_uploaded"`
	DisplayErr     error            `json:"-"` // progress rendering failure, upload still succeeded
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Source     string // share URL (sia:// or https://) or object hash
	OutputPath string
}

// DownloadResult represents the result of downloading an object.
type DownloadResult struct {
	Source     string         `json:"source"`
	ObjectID   sialo.ObjectID `json:"object_id"`
	OutputPath string         `json:"output_path"`
	Size       uint64         `json:"size_bytes"`
}

// DeleteResult represents the result of deleting an object.
type DeleteResult struct {
	ObjectID sialo.ObjectID `json:"object_id"`
	Deleted  bool           `json:"deleted"`
}

// ShareOptions configures a share operation.
type ShareOptions struct {
	ObjectID  string
	Expiry    string // relative duration (1h, 10d, 4w) or RFC 3339 timestamp
	SiaScheme bool
}

// ShareResult is an issued share link.
type ShareResult struct {
	ObjectID  sialo.ObjectID `json:"object_id"`
	URL       string         `json:"url"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ObjectsOptions configures an object event listing.
type ObjectsOptions struct {
	Cursor string
	Limit  int
	All    bool // auto-paginate through all results
}

// ObjectEvent is a single entry of the object event feed.
type ObjectEvent struct {
	ID        sialo.ObjectID `json:"id"`
	Deleted   bool           `json:"deleted"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ObjectsResult contains paginated object events.
type ObjectsResult struct {
	Events     []ObjectEvent `json:"events"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// PruneResult is the outcome of a slab prune.
type PruneResult struct {
	Pruned int `json:"pruned"`
}
