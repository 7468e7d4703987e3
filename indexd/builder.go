package indexd

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sagarc03/sialo"
)

// Builder is the first stage of the app registration handshake. Each
// stage has exactly one method, which consumes it and returns the next
// stage:
//
//	Builder --RequestConnection--> ConnectionRequested
//	        --WaitForApproval-->   Approved
//	        --Register-->          SDK
//
// Calling a stage method a second time returns ErrStageConsumed without
// contacting the indexer. A failed step is not retried; start again from
// NewBuilder.
type Builder struct {
	indexerURL string
	opts       options
	client     *resty.Client
	used       atomic.Bool
}

// NewBuilder creates a handshake against the indexer at indexerURL.
func NewBuilder(indexerURL string, opts ...Option) (*Builder, error) {
	base, err := normalizeURL(indexerURL)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Builder{
		indexerURL: base,
		opts:       o,
		client:     newRestClient(base, o.tlsConfig, o),
	}, nil
}

// RequestConnection submits the application metadata and returns the
// stage holding the approval URL to show the operator.
func (b *Builder) RequestConnection(ctx context.Context, req sialo.RegistrationRequest) (*ConnectionRequested, error) {
	if !b.used.CompareAndSwap(false, true) {
		return nil, ErrStageConsumed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out ConnectResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("/auth/connect")
	if err != nil {
		return nil, fmt.Errorf("connect request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	if out.ResponseURL == "" || out.StatusURL == "" || out.RegisterURL == "" {
		return nil, errors.New("connect response: missing handshake urls")
	}

	return &ConnectionRequested{
		indexerURL: b.indexerURL,
		opts:       b.opts,
		client:     b.client,
		appID:      req.AppID,
		resp:       out,
	}, nil
}

// ConnectionRequested is the stage after the indexer accepted the
// connection request and before the operator approved it.
type ConnectionRequested struct {
	indexerURL string
	opts       options
	client     *resty.Client
	appID      sialo.ObjectID
	resp       ConnectResponse
	used       atomic.Bool
}

// ResponseURL is the page where the operator approves the application.
func (c *ConnectionRequested) ResponseURL() string {
	return c.resp.ResponseURL
}

// Expiration is when the indexer forgets the request, if it reported one.
func (c *ConnectionRequested) Expiration() time.Time {
	return c.resp.Expiration
}

// WaitForApproval polls the status URL until the request is approved or
// rejected. There is no built-in deadline; the wait ends only on a
// decision, an indexer error, or ctx.
func (c *ConnectionRequested) WaitForApproval(ctx context.Context) (*Approved, error) {
	if !c.used.CompareAndSwap(false, true) {
		return nil, ErrStageConsumed
	}

	ticker := time.NewTicker(c.opts.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.status(ctx)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case StatusApproved:
			if status.Token == "" {
				return nil, errors.New("approval status: missing token")
			}
			return &Approved{
				indexerURL:  c.indexerURL,
				opts:        c.opts,
				appID:       c.appID,
				registerURL: c.resp.RegisterURL,
				token:       status.Token,
			}, nil
		case StatusRejected:
			return nil, ErrRejected
		case StatusPending:
		default:
			return nil, fmt.Errorf("approval status: unknown status %q", status.Status)
		}

		c.opts.logger.Debug("waiting for approval", "status_url", c.resp.StatusURL)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *ConnectionRequested) status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.resp.StatusURL)
	if err != nil {
		return out, fmt.Errorf("status request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return out, err
	}
	return out, nil
}

// Approved is the stage after the operator approved the connection and
// before an application key has been registered.
type Approved struct {
	indexerURL  string
	opts        options
	appID       sialo.ObjectID
	registerURL string
	token       string
	used        atomic.Bool
}

// Register derives the application key from seedPhrase, registers its
// public half with the indexer and returns an SDK bound to the key.
// tlsCfg configures the register request and the SDK's connections; nil
// keeps the WithTLSConfig setting, or TLSConfig when none was given.
func (a *Approved) Register(ctx context.Context, seedPhrase string, tlsCfg *tls.Config) (*SDK, error) {
	if !a.used.CompareAndSwap(false, true) {
		return nil, ErrStageConsumed
	}

	key, err := DeriveAppKey(seedPhrase, a.appID)
	if err != nil {
		return nil, err
	}

	body := RegisterRequest{
		AppKey:    key.PublicKeyHex(),
		Token:     a.token,
		Signature: hex.EncodeToString(key.Sign([]byte(a.token))),
	}
	if tlsCfg == nil {
		tlsCfg = a.opts.tlsConfig
	}
	client := newRestClient(a.indexerURL, tlsCfg, a.opts)
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(a.registerURL)
	if err != nil {
		return nil, fmt.Errorf("register request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return newSDK(a.indexerURL, key, tlsCfg, a.opts), nil
}
