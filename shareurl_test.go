package sialo_test

import (
	"testing"

	"github.com/sagarc03/sialo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareURLScheme(t *testing.T) {
	urls := []string{
		"https://app.sia.storage/objects/abc/shared?sig=1",
		"https://example.com",
		"https://h/p?q=https://nested",
	}

	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			alias := sialo.ToSiaURL(u)
			assert.Equal(t, "sia://", alias[:6])
			assert.Equal(t, u, sialo.FromSiaURL(alias))
		})
	}

	t.Run("only the scheme changes", func(t *testing.T) {
		assert.Equal(t, "sia://h/p?q=https://nested", sialo.ToSiaURL("https://h/p?q=https://nested"))
	})

	t.Run("non https left alone", func(t *testing.T) {
		assert.Equal(t, "http://example.com", sialo.ToSiaURL("http://example.com"))
	})
}

func TestNormalizeShareURL(t *testing.T) {
	got, err := sialo.NormalizeShareURL("sia://app.sia.storage/objects/x")
	require.NoError(t, err)
	assert.Equal(t, "https://app.sia.storage/objects/x", got)

	got, err = sialo.NormalizeShareURL("https://app.sia.storage/objects/x")
	require.NoError(t, err)
	assert.Equal(t, "https://app.sia.storage/objects/x", got)

	got, err = sialo.NormalizeShareURL(" http://127.0.0.1:9980/objects/x ")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9980/objects/x", got)

	_, err = sialo.NormalizeShareURL("ftp://example.com")
	assert.ErrorIs(t, err, sialo.ErrUnsupportedScheme)

	assert.False(t, sialo.IsShareURL("0f0f"))
}
