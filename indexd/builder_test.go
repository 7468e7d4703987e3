package indexd_test

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"testing"
	"time"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/indexd"
	"github.com/sagarc03/sialo/indexd/indexdtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func approve(t *testing.T, url string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewBuilder_InvalidURL(t *testing.T) {
	tt := []string{"", "ftp://example.com", "https://", "://bad"}
	for _, raw := range tt {
		t.Run(raw, func(t *testing.T) {
			_, err := indexd.NewBuilder(raw)
			assert.ErrorIs(t, err, indexd.ErrInvalidURL)
		})
	}
}

func TestHandshake(t *testing.T) {
	ctx := context.Background()

	t.Run("full flow registers the derived key", func(t *testing.T) {
		srv := indexdtest.NewServer()
		defer srv.Close()

		b, err := indexd.NewBuilder(srv.URL, indexd.WithPollInterval(5*time.Millisecond))
		require.NoError(t, err)

		req := sialo.DefaultRegistrationRequest()
		requested, err := b.RequestConnection(ctx, req)
		require.NoError(t, err)
		assert.Contains(t, requested.ResponseURL(), srv.URL)
		assert.False(t, requested.Expiration().IsZero())

		go func() {
			time.Sleep(20 * time.Millisecond)
			resp, err := http.Get(requested.ResponseURL()) //nolint:noctx // test
			if err == nil {
				_ = resp.Body.Close()
			}
		}()

		approved, err := requested.WaitForApproval(ctx)
		require.NoError(t, err)

		sdk, err := approved.Register(ctx, testMnemonic, nil)
		require.NoError(t, err)

		want, err := indexd.DeriveAppKey(testMnemonic, req.AppID)
		require.NoError(t, err)
		assert.Equal(t, want, sdk.AppKey())
		assert.True(t, srv.IsRegistered(sdk.AppKey()))

		ids := srv.RequestIDs()
		require.Len(t, ids, 1)
		assert.GreaterOrEqual(t, srv.Polls(ids[0]), 2)

		_, err = indexd.Connect(ctx, srv.URL, sdk.AppKey(), nil)
		require.NoError(t, err)
	})

	t.Run("stages are single use", func(t *testing.T) {
		srv := indexdtest.NewServer()
		defer srv.Close()

		b, err := indexd.NewBuilder(srv.URL, indexd.WithPollInterval(time.Millisecond))
		require.NoError(t, err)

		requested, err := b.RequestConnection(ctx, sialo.DefaultRegistrationRequest())
		require.NoError(t, err)

		_, err = b.RequestConnection(ctx, sialo.DefaultRegistrationRequest())
		assert.ErrorIs(t, err, indexd.ErrStageConsumed)
		assert.Len(t, srv.RequestIDs(), 1, "a consumed stage must not reach the indexer")

		approve(t, requested.ResponseURL())
		approved, err := requested.WaitForApproval(ctx)
		require.NoError(t, err)

		_, err = requested.WaitForApproval(ctx)
		assert.ErrorIs(t, err, indexd.ErrStageConsumed)

		_, err = approved.Register(ctx, testMnemonic, nil)
		require.NoError(t, err)

		_, err = approved.Register(ctx, testMnemonic, nil)
		assert.ErrorIs(t, err, indexd.ErrStageConsumed)
	})

	t.Run("rejection ends the wait", func(t *testing.T) {
		srv := indexdtest.NewServer()
		defer srv.Close()

		b, err := indexd.NewBuilder(srv.URL, indexd.WithPollInterval(time.Millisecond))
		require.NoError(t, err)
		requested, err := b.RequestConnection(ctx, sialo.DefaultRegistrationRequest())
		require.NoError(t, err)

		ids := srv.RequestIDs()
		require.Len(t, ids, 1)
		require.True(t, srv.Reject(ids[0]))

		_, err = requested.WaitForApproval(ctx)
		assert.ErrorIs(t, err, indexd.ErrRejected)
	})

	t.Run("wait honours context cancellation", func(t *testing.T) {
		srv := indexdtest.NewServer()
		defer srv.Close()

		b, err := indexd.NewBuilder(srv.URL, indexd.WithPollInterval(time.Millisecond))
		require.NoError(t, err)
		requested, err := b.RequestConnection(ctx, sialo.DefaultRegistrationRequest())
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err = requested.WaitForApproval(waitCtx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("invalid seed phrase fails registration", func(t *testing.T) {
		srv := indexdtest.NewServer()
		defer srv.Close()

		b, err := indexd.NewBuilder(srv.URL, indexd.WithPollInterval(time.Millisecond))
		require.NoError(t, err)
		requested, err := b.RequestConnection(ctx, sialo.DefaultRegistrationRequest())
		require.NoError(t, err)
		approve(t, requested.ResponseURL())
		approved, err := requested.WaitForApproval(ctx)
		require.NoError(t, err)

		_, err = approved.Register(ctx, "not a real mnemonic", nil)
		assert.ErrorIs(t, err, indexd.ErrInvalidSeedPhrase)
	})

	t.Run("invalid metadata is rejected before sending", func(t *testing.T) {
		srv := indexdtest.NewServer()
		defer srv.Close()

		b, err := indexd.NewBuilder(srv.URL)
		require.NoError(t, err)

		req := sialo.DefaultRegistrationRequest()
		req.Name = ""
		_, err = b.RequestConnection(ctx, req)
		assert.ErrorIs(t, err, sialo.ErrInvalidInput)
		assert.Empty(t, srv.RequestIDs())
	})
}

func TestHandshake_TLS(t *testing.T) {
	ctx := context.Background()

	approvedOver := func(t *testing.T, srv *indexdtest.Server) *indexd.Approved {
		t.Helper()
		b, err := indexd.NewBuilder(srv.URL,
			indexd.WithPollInterval(time.Millisecond),
			indexd.WithTLSConfig(srv.TLSConfig()))
		require.NoError(t, err)
		requested, err := b.RequestConnection(ctx, sialo.DefaultRegistrationRequest())
		require.NoError(t, err)

		resp, err := srv.Client().Get(requested.ResponseURL()) //nolint:noctx // test
		require.NoError(t, err)
		_ = resp.Body.Close()

		approved, err := requested.WaitForApproval(ctx)
		require.NoError(t, err)
		return approved
	}

	t.Run("nil config keeps the builder setting", func(t *testing.T) {
		srv := indexdtest.NewTLSServer()
		defer srv.Close()

		sdk, err := approvedOver(t, srv).Register(ctx, testMnemonic, nil)
		require.NoError(t, err)
		assert.True(t, srv.IsRegistered(sdk.AppKey()))
	})

	t.Run("register request uses the given config", func(t *testing.T) {
		srv := indexdtest.NewTLSServer()
		defer srv.Close()

		untrusted := &tls.Config{RootCAs: x509.NewCertPool(), MinVersion: tls.VersionTLS12}
		_, err := approvedOver(t, srv).Register(ctx, testMnemonic, untrusted)
		require.Error(t, err)

		key, err := indexd.DeriveAppKey(testMnemonic, sialo.DefaultRegistrationRequest().AppID)
		require.NoError(t, err)
		assert.False(t, srv.IsRegistered(key))
	})

	t.Run("connect falls back to the option", func(t *testing.T) {
		srv := indexdtest.NewTLSServer()
		defer srv.Close()

		sdk, err := approvedOver(t, srv).Register(ctx, testMnemonic, srv.TLSConfig())
		require.NoError(t, err)

		_, err = indexd.Connect(ctx, srv.URL, sdk.AppKey(), nil, indexd.WithTLSConfig(srv.TLSConfig()))
		require.NoError(t, err)
	})
}

func TestConnect_UnregisteredKey(t *testing.T) {
	srv := indexdtest.NewServer()
	defer srv.Close()

	key, err := indexd.DeriveAppKey(testMnemonic, sialo.DefaultRegistrationRequest().AppID)
	require.NoError(t, err)

	_, err = indexd.Connect(context.Background(), srv.URL, key, nil)
	assert.ErrorIs(t, err, indexd.ErrNotConnected)
}
