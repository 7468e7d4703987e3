package clientcli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAppKeyHex = strings.Repeat("ab", sialo.AppKeySize)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("empty indexer gets default", func(t *testing.T) {
		cfg := (&clientcli.Config{}).WithDefaults()
		assert.Equal(t, clientcli.DefaultIndexerURL, cfg.IndexerURL)
	})

	t.Run("explicit indexer kept", func(t *testing.T) {
		orig := &clientcli.Config{IndexerURL: "http://localhost:9980"}
		cfg := orig.WithDefaults()
		assert.Equal(t, "http://localhost:9980", cfg.IndexerURL)
		assert.NotSame(t, orig, cfg)
	})
}

func TestConfig_ParsedAppKey(t *testing.T) {
	tt := []struct {
		Name    string
		AppKey  string
		WantErr error
	}{
		{Name: "valid", AppKey: testAppKeyHex},
		{Name: "missing", AppKey: "", WantErr: clientcli.ErrAppKeyRequired},
		{Name: "126 chars", AppKey: testAppKeyHex[:126], WantErr: sialo.ErrInvalidLength},
		{Name: "130 chars", AppKey: testAppKeyHex + "ab", WantErr: sialo.ErrInvalidLength},
		{Name: "not hex", AppKey: strings.Repeat("zz", sialo.AppKeySize), WantErr: sialo.ErrInvalidHex},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			cfg := &clientcli.Config{AppKey: tc.AppKey}
			key, err := cfg.ParsedAppKey()
			if tc.WantErr != nil {
				assert.ErrorIs(t, err, tc.WantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.AppKey, key.Hex())
		})
	}
}

func TestConfig_ValidateForRegister(t *testing.T) {
	assert.ErrorIs(t, (&clientcli.Config{}).ValidateForRegister(), clientcli.ErrSeedPhraseRequired)
	assert.NoError(t, (&clientcli.Config{SeedPhrase: "words"}).ValidateForRegister())
}

func TestConfigFile_Profiles(t *testing.T) {
	newFile := func() *clientcli.ConfigFile {
		return &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", IndexerURL: "http://localhost:9980"},
			{Name: "prod", IndexerURL: clientcli.DefaultIndexerURL, AppKey: testAppKeyHex, Default: true},
		}}
	}

	t.Run("get by name", func(t *testing.T) {
		p, err := newFile().GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9980", p.IndexerURL)
	})

	t.Run("empty name gives default", func(t *testing.T) {
		p, err := newFile().GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)
	})

	t.Run("first profile when none marked", func(t *testing.T) {
		f := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a"}, {Name: "b"}}}
		assert.Equal(t, "a", f.DefaultName())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := newFile().GetProfile("staging")
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("no profiles", func(t *testing.T) {
		_, err := (&clientcli.ConfigFile{}).GetProfile("")
		assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
		assert.Empty(t, (&clientcli.ConfigFile{}).DefaultName())
	})

	t.Run("add duplicate", func(t *testing.T) {
		err := newFile().AddProfile(clientcli.Profile{Name: "local"})
		assert.ErrorIs(t, err, clientcli.ErrProfileExists)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		f := newFile()
		f.UpsertProfile(clientcli.Profile{Name: "local", IndexerURL: "http://other"})
		f.UpsertProfile(clientcli.Profile{Name: "new", IndexerURL: "http://new"})
		require.Len(t, f.Profiles, 3)
		assert.Equal(t, "http://other", f.Profiles[0].IndexerURL)
	})

	t.Run("remove", func(t *testing.T) {
		f := newFile()
		require.NoError(t, f.RemoveProfile("local"))
		assert.Len(t, f.Profiles, 1)
		assert.ErrorIs(t, f.RemoveProfile("local"), clientcli.ErrProfileNotFound)
	})

	t.Run("set default", func(t *testing.T) {
		f := newFile()
		require.NoError(t, f.SetDefault("local"))
		assert.True(t, f.Profiles[0].Default)
		assert.False(t, f.Profiles[1].Default)
		assert.ErrorIs(t, f.SetDefault("missing"), clientcli.ErrProfileNotFound)
	})
}

func TestConfigFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	f := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
		{Name: "prod", IndexerURL: clientcli.DefaultIndexerURL, AppKey: testAppKeyHex, Default: true},
	}}
	require.NoError(t, f.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "indexer_url: "+clientcli.DefaultIndexerURL)

	loaded, err := clientcli.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, f, loaded)

	t.Run("missing file", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile(filepath.Join(t.TempDir(), "none.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid profile", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		content := "profiles:\n  - name: prod\n    indexer_url: not a url\n    app_key: abc\n"
		require.NoError(t, os.WriteFile(bad, []byte(content), 0o600))
		_, err := clientcli.LoadConfigFile(bad)
		assert.ErrorIs(t, err, clientcli.ErrInvalidConfigFile)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("profiles: [unclosed"), 0o600))
		_, err := clientcli.LoadConfigFile(bad)
		assert.Error(t, err)
	})
}

func TestMergeConfig(t *testing.T) {
	t.Run("later configs take precedence", func(t *testing.T) {
		profile := &clientcli.Config{IndexerURL: "http://profile", AppKey: "profile-key"}
		env := &clientcli.Config{IndexerURL: "http://env", SeedPhrase: "env seed"}
		flags := &clientcli.Config{AppKey: "flag-key"}

		cfg, err := clientcli.MergeConfig(profile, env, flags)
		require.NoError(t, err)
		assert.Equal(t, "http://env", cfg.IndexerURL)
		assert.Equal(t, "flag-key", cfg.AppKey)
		assert.Equal(t, "env seed", cfg.SeedPhrase)
	})

	t.Run("empty values do not override", func(t *testing.T) {
		cfg, err := clientcli.MergeConfig(&clientcli.Config{IndexerURL: "http://a"}, &clientcli.Config{})
		require.NoError(t, err)
		assert.Equal(t, "http://a", cfg.IndexerURL)
	})

	t.Run("nil configs skipped", func(t *testing.T) {
		cfg, err := clientcli.MergeConfig(nil, &clientcli.Config{AppMetadata: "meta.json"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "meta.json", cfg.AppMetadata)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("INDEXER_URL", "http://env-indexer")
	t.Setenv("APP_KEY", testAppKeyHex)
	t.Setenv("SEED_PHRASE", "seed words")
	t.Setenv("APP_METADATA", "/tmp/meta.json")
	t.Setenv("SIALO_PROFILE", "staging")
	t.Setenv("SIALO_CONFIG", "/tmp/sialo.yaml")

	cfg := clientcli.ConfigFromEnv()
	assert.Equal(t, "http://env-indexer", cfg.IndexerURL)
	assert.Equal(t, testAppKeyHex, cfg.AppKey)
	assert.Equal(t, "seed words", cfg.SeedPhrase)
	assert.Equal(t, "/tmp/meta.json", cfg.AppMetadata)
	assert.Equal(t, "staging", clientcli.ProfileFromEnv())
	assert.Equal(t, "/tmp/sialo.yaml", clientcli.ConfigPathFromEnv())
}

func TestConfigFromProfile(t *testing.T) {
	assert.Equal(t, &clientcli.Config{}, clientcli.ConfigFromProfile(nil))

	cfg := clientcli.ConfigFromProfile(&clientcli.Profile{Name: "p", IndexerURL: "http://x", AppKey: "k"})
	assert.Equal(t, "http://x", cfg.IndexerURL)
	assert.Equal(t, "k", cfg.AppKey)
}
