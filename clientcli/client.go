package clientcli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/catalog"
	"github.com/sagarc03/sialo/indexd"
)

// SDK is the subset of *indexd.SDK the client drives.
type SDK interface {
	AppKey() sialo.AppKey
	Object(ctx context.Context, id sialo.ObjectID) (*indexd.Object, error)
	SharedObject(ctx context.Context, shareURL string) (*indexd.Object, error)
	Upload(ctx context.Context, r io.Reader, opts indexd.UploadOptions) (*indexd.Object, error)
	Download(ctx context.Context, w io.Writer, obj *indexd.Object, opts indexd.DownloadOptions) error
	PinObject(ctx context.Context, obj *indexd.Object) error
	DeleteObject(ctx context.Context, id sialo.ObjectID) error
	ShareObject(obj *indexd.Object, expires time.Time) (string, error)
	ObjectEvents(ctx context.Context, opts indexd.ObjectEventsOptions) ([]indexd.ObjectEvent, string, error)
	PruneSlabs(ctx context.Context) (int, error)
}

// Recorder stores a local history entry for a completed operation.
type Recorder interface {
	Record(ctx context.Context, e catalog.Entry) error
}

// Client performs operations against an indexer.
type Client struct {
	config     *Config
	logger     *slog.Logger
	tlsConfig  *tls.Config
	sdkOptions []indexd.Option
	sdk        SDK
	recorder   Recorder
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithSDK sets the SDK handle directly, skipping the connection check.
func WithSDK(sdk SDK) Option {
	return func(c *Client) {
		c.sdk = sdk
	}
}

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTLSConfig overrides the TLS configuration for indexer connections.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}

// WithSDKOptions passes options through to the indexd builder and SDK.
func WithSDKOptions(opts ...indexd.Option) Option {
	return func(c *Client) {
		c.sdkOptions = append(c.sdkOptions, opts...)
	}
}

// WithRecorder enables local history recording.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithClock sets the clock used to resolve relative share expiries.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	c := &Client{
		config:    cfg.WithDefaults(),
		logger:    slog.Default(),
		tlsConfig: indexd.TLSConfig(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// connect returns the SDK handle, connecting with the configured app key
// on first use.
func (c *Client) connect(ctx context.Context) (SDK, error) {
	if c.sdk != nil {
		return c.sdk, nil
	}

	key, err := c.config.ParsedAppKey()
	if err != nil {
		return nil, err
	}

	sdk, err := indexd.Connect(ctx, c.config.IndexerURL, key, c.tlsConfig, c.sdkOptions...)
	if err != nil {
		return nil, fmt.Errorf("connect to indexer: %w", err)
	}
	c.sdk = sdk
	return sdk, nil
}

// Register runs the authorization handshake once. Any phase failure ends
// the run; the caller starts over from the first phase.
func (c *Client) Register(ctx context.Context, opts RegisterOptions) (*RegisterResult, error) {
	if opts.SeedPhrase == "" {
		return nil, ErrSeedPhraseRequired
	}

	builder, err := indexd.NewBuilder(c.config.IndexerURL,
		append([]indexd.Option{indexd.WithTLSConfig(c.tlsConfig)}, c.sdkOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("create builder: %w", err)
	}

	requested, err := builder.RequestConnection(ctx, opts.Request)
	if err != nil {
		return nil, fmt.Errorf("request connection: %w", err)
	}

	if opts.OnApprovalURL != nil {
		opts.OnApprovalURL(requested.ResponseURL())
	}

	approved, err := requested.WaitForApproval(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for approval: %w", err)
	}

	sdk, err := approved.Register(ctx, opts.SeedPhrase, c.tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	c.sdk = sdk

	key := sdk.AppKey()
	return &RegisterResult{
		IndexerURL: sdk.IndexerURL(),
		AppKey:     key.Hex(),
		PublicKey:  key.PublicKeyHex(),
	}, nil
}

type progressOutcome struct {
	done uint64
	err  error
}

// Upload encodes and uploads a local file, then pins the object. Progress
// is rendered concurrently; a rendering failure is logged and reported in
// the result but never fails the upload.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	sdk, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Clean(opts.LocalPath))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload: %s is a directory", opts.LocalPath)
	}

	uploadOpts := indexd.UploadOptions{
		DataShards:   opts.DataShards,
		ParityShards: opts.ParityShards,
		SectorSize:   opts.SectorSize,
	}
	if uploadOpts.DataShards == 0 && uploadOpts.ParityShards == 0 {
		uploadOpts.DataShards = indexd.DefaultDataShards
		uploadOpts.ParityShards = indexd.DefaultParityShards
	}
	if uploadOpts.SectorSize == 0 {
		uploadOpts.SectorSize = indexd.SectorSize
	}

	size := uint64(info.Size()) //nolint:gosec // file sizes are non-negative
	plan, err := sialo.PlanUpload(size, uploadOpts.DataShards, uploadOpts.ParityShards, uploadOpts.SectorSize)
	if err != nil {
		return nil, fmt.Errorf("plan upload: %w", err)
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = NopRenderer{}
	}

	emitter, consumer := sialo.Subscribe()
	uploadOpts.ShardUploaded = emitter

	progress := make(chan progressOutcome, 1)
	go func() {
		done, renderErr := sialo.TrackProgress(ctx, consumer, plan, renderer)
		progress <- progressOutcome{done: done, err: renderErr}
	}()

	obj, uploadErr := sdk.Upload(ctx, f, uploadOpts)
	emitter.Close()
	outcome := <-progress

	if uploadErr != nil {
		return nil, fmt.Errorf("upload: %w", uploadErr)
	}

	if outcome.err != nil {
		c.logger.Warn("progress display failed", "error", outcome.err)
	}

	if err := sdk.PinObject(ctx, obj); err != nil {
		return nil, fmt.Errorf("pin object: %w", err)
	}

	c.record(ctx, catalog.Entry{
		Kind:     catalog.KindUpload,
		ObjectID: obj.ID,
		Detail:   opts.LocalPath,
		Size:     obj.Size,
	})

	return &UploadResult{
		LocalPath:      opts.LocalPath,
		ObjectID:       obj.ID,
		Size:           obj.Size,
		Plan:           plan,
		ShardsUploaded: outcome.done,
		DisplayErr:     outcome.err,
	}, nil
}

// Download resolves a share URL or object hash and writes the object to
// the output path, creating parent directories and truncating any
// existing file.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, error) {
	if strings.TrimSpace(opts.Source) == "" {
		return nil, fmt.Errorf("download: %w", ErrEmptySource)
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}

	sdk, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	obj, err := c.resolveObject(ctx, sdk, opts.Source)
	if err != nil {
		return nil, err
	}

	outPath := filepath.Clean(opts.OutputPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(outPath) //#nosec G304 -- path is user-provided output file
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	if err := sdk.Download(ctx, f, obj, indexd.DownloadOptions{}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("download: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close output file: %w", err)
	}

	return &DownloadResult{
		Source:     opts.Source,
		ObjectID:   obj.ID,
		OutputPath: outPath,
		Size:       obj.Size,
	}, nil
}

func (c *Client) resolveObject(ctx context.Context, sdk SDK, source string) (*indexd.Object, error) {
	source = strings.TrimSpace(source)
	if sialo.IsShareURL(source) {
		shareURL, err := sialo.NormalizeShareURL(source)
		if err != nil {
			return nil, err
		}
		obj, err := sdk.SharedObject(ctx, shareURL)
		if err != nil {
			return nil, fmt.Errorf("get shared object: %w", err)
		}
		return obj, nil
	}

	id, err := sialo.ParseObjectID(source)
	if err != nil {
		return nil, err
	}
	obj, err := sdk.Object(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}

// Delete removes an object from the indexer.
func (c *Client) Delete(ctx context.Context, objectID string) (*DeleteResult, error) {
	id, err := sialo.ParseObjectID(objectID)
	if err != nil {
		return nil, err
	}

	sdk, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	if err := sdk.DeleteObject(ctx, id); err != nil {
		return nil, fmt.Errorf("delete object: %w", err)
	}

	c.record(ctx, catalog.Entry{Kind: catalog.KindDelete, ObjectID: id})

	return &DeleteResult{ObjectID: id, Deleted: true}, nil
}

// Share issues a signed share link that expires at the parsed expiry.
func (c *Client) Share(ctx context.Context, opts ShareOptions) (*ShareResult, error) {
	id, err := sialo.ParseObjectID(opts.ObjectID)
	if err != nil {
		return nil, err
	}

	expires, err := sialo.ParseExpiry(opts.Expiry, c.now())
	if err != nil {
		return nil, err
	}

	sdk, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	obj, err := sdk.Object(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	link, err := sdk.ShareObject(obj, expires)
	if err != nil {
		return nil, fmt.Errorf("share object: %w", err)
	}
	if opts.SiaScheme {
		link = sialo.ToSiaURL(link)
	}

	c.record(ctx, catalog.Entry{
		Kind:      catalog.KindShare,
		ObjectID:  id,
		Detail:    link,
		Size:      obj.Size,
		ExpiresAt: &expires,
	})

	return &ShareResult{ObjectID: id, URL: link, ExpiresAt: expires}, nil
}

// Objects lists object events. With All set it follows cursors until the
// feed is exhausted.
func (c *Client) Objects(ctx context.Context, opts ObjectsOptions) (*ObjectsResult, error) {
	sdk, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	result := &ObjectsResult{Events: []ObjectEvent{}}
	cursor := opts.Cursor
	for {
		events, next, err := sdk.ObjectEvents(ctx, indexd.ObjectEventsOptions{Cursor: cursor, Limit: opts.Limit})
		if err != nil {
			return nil, fmt.Errorf("list object events: %w", err)
		}
		for i := range events {
			result.Events = append(result.Events, ObjectEvent{
				ID:        events[i].ID,
				Deleted:   events[i].Deleted,
				UpdatedAt: events[i].UpdatedAt,
			})
		}
		result.NextCursor = next

		if !opts.All || next == "" {
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cursor = next
	}
}

// PruneSlabs asks the indexer to drop slabs no pinned object references.
func (c *Client) PruneSlabs(ctx context.Context) (*PruneResult, error) {
	sdk, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	n, err := sdk.PruneSlabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("prune slabs: %w", err)
	}
	return &PruneResult{Pruned: n}, nil
}

// record stores a history entry. Failures are warnings only.
func (c *Client) record(ctx context.Context, e catalog.Entry) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, e); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Warn("failed to record history", "kind", e.Kind, "error", err)
	}
}
