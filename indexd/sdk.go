package indexd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sagarc03/sialo"
)

// SDK is a handle on the indexer authenticated by a registered app key.
type SDK struct {
	indexerURL string
	key        sialo.AppKey
	opts       options
	client     *resty.Client
}

func newSDK(indexerURL string, key sialo.AppKey, tlsCfg *tls.Config, o options) *SDK {
	if tlsCfg == nil {
		tlsCfg = o.tlsConfig
	}
	if tlsCfg == nil {
		tlsCfg = TLSConfig()
	}
	return &SDK{
		indexerURL: indexerURL,
		key:        key,
		opts:       o,
		client:     newRestClient(indexerURL, tlsCfg, o),
	}
}

// Connect returns an SDK for an already registered app key. It fails with
// ErrNotConnected when the indexer does not recognise the key.
func Connect(ctx context.Context, indexerURL string, key sialo.AppKey, tlsCfg *tls.Config, opts ...Option) (*SDK, error) {
	base, err := normalizeURL(indexerURL)
	if err != nil {
		return nil, err
	}
	s := newSDK(base, key, tlsCfg, buildOptions(opts))

	resp, err := s.signed(ctx, http.MethodGet, "/auth/check").Get("/auth/check")
	if err != nil {
		return nil, fmt.Errorf("check request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrNotConnected
		}
		return nil, err
	}
	return s, nil
}

// AppKey returns the key the SDK signs with.
func (s *SDK) AppKey() sialo.AppKey {
	return s.key
}

// IndexerURL returns the normalized indexer base URL.
func (s *SDK) IndexerURL() string {
	return s.indexerURL
}

func (s *SDK) signed(ctx context.Context, method, path string) *resty.Request {
	return s.client.R().
		SetContext(ctx).
		SetHeaders(SignRequest(s.key, method, path, s.opts.now()))
}

func objectPath(id sialo.ObjectID) string {
	return "/objects/" + id.String()
}

// Object fetches the metadata of one of the app's objects.
func (s *SDK) Object(ctx context.Context, id sialo.ObjectID) (*Object, error) {
	path := objectPath(id)
	var obj Object
	resp, err := s.signed(ctx, http.MethodGet, path).
		SetResult(&obj).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("object request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &obj, nil
}

// SharedObject fetches object metadata through a share link. shareURL must
// use the https:// scheme; see sialo.FromSiaURL.
func (s *SDK) SharedObject(ctx context.Context, shareURL string) (*Object, error) {
	var obj Object
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&obj).
		Get(shareURL)
	if err != nil {
		return nil, fmt.Errorf("shared object request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &obj, nil
}

// PinObject stores obj's metadata with the indexer so it survives pruning.
func (s *SDK) PinObject(ctx context.Context, obj *Object) error {
	resp, err := s.signed(ctx, http.MethodPost, "/objects").
		SetHeader("Content-Type", "application/json").
		SetBody(obj).
		Post("/objects")
	if err != nil {
		return fmt.Errorf("pin request: %w", err)
	}
	return mapHTTPError(resp)
}

// DeleteObject removes one of the app's objects.
func (s *SDK) DeleteObject(ctx context.Context, id sialo.ObjectID) error {
	path := objectPath(id)
	resp, err := s.signed(ctx, http.MethodDelete, path).Delete(path)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return mapHTTPError(resp)
}

// ShareObject signs a link granting read access to obj until expires.
// Signing is local; nothing is sent to the indexer.
func (s *SDK) ShareObject(obj *Object, expires time.Time) (string, error) {
	if !expires.After(s.opts.now()) {
		return "", fmt.Errorf("share object: %w: expiry %s is not in the future", ErrBadRequest, expires.UTC().Format(time.RFC3339))
	}
	q := SignShare(s.key, obj.ID, expires)
	return s.indexerURL + objectPath(obj.ID) + "/shared?" + q.Encode(), nil
}

// ObjectEvents returns one page of object events and the cursor of the
// next page, empty when there are no more.
func (s *SDK) ObjectEvents(ctx context.Context, opts ObjectEventsOptions) ([]ObjectEvent, string, error) {
	const path = "/objects/events"
	req := s.signed(ctx, http.MethodGet, path)
	if opts.Cursor != "" {
		req.SetQueryParam("cursor", opts.Cursor)
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}

	var out ObjectEventsResponse
	resp, err := req.SetResult(&out).Get(path)
	if err != nil {
		return nil, "", fmt.Errorf("object events request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, "", err
	}
	return out.Events, out.NextCursor, nil
}

// PruneSlabs asks the indexer to drop slabs no pinned object references
// and returns how many were removed.
func (s *SDK) PruneSlabs(ctx context.Context) (int, error) {
	const path = "/slabs/prune"
	var out PruneResponse
	resp, err := s.signed(ctx, http.MethodPost, path).
		SetResult(&out).
		Post(path)
	if err != nil {
		return 0, fmt.Errorf("prune request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return 0, err
	}
	return out.Pruned, nil
}
