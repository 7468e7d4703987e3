package main

import (
	"bytes"
	"crypto/ed25519"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/catalog"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/sagarc03/sialo/indexd/indexdtest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir, clears the sialo environment, and
// resets the global flag variables left over from a previous run.
func isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, env := range []string{"INDEXER_URL", "APP_KEY", "SEED_PHRASE", "APP_METADATA", "LOG_PATH", "LOG_LEVEL", "SIALO_PROFILE", "SIALO_CONFIG"} {
		t.Setenv(env, "")
	}

	resetFlags(rootCmd)
	return home
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// which also resets the package-level variables bound to them.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func newTestKey(t *testing.T) sialo.AppKey {
	t.Helper()
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize))
	key, err := sialo.AppKeyFromPrivateKey(priv)
	require.NoError(t, err)
	return key
}

func TestIsolate_RestoresFlagDefaults(t *testing.T) {
	isolate(t)
	require.NoError(t, rootCmd.PersistentFlags().Set("log-level", "debug"))
	require.NoError(t, shareCmd.Flags().Set("share-until", "7d"))
	uploadDataShards, uploadParityShards, uploadProgress = 3, 6, "bar"
	registerSaveProfile, registerApprovalTimeout = "work", time.Minute
	historyLimit, objectsLimit = 1, 1

	isolate(t)

	assert.Zero(t, uploadDataShards)
	assert.Zero(t, uploadParityShards)
	assert.Equal(t, "auto", uploadProgress)
	assert.Empty(t, registerSaveProfile)
	assert.Zero(t, registerApprovalTimeout)
	assert.Empty(t, shareUntil)
	assert.Equal(t, 20, historyLimit)
	assert.Equal(t, 100, objectsLimit)

	var check func(cmd *cobra.Command)
	check = func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			assert.Equal(t, f.DefValue, f.Value.String(), "%s --%s", cmd.Name(), f.Name)
			assert.False(t, f.Changed, "%s --%s", cmd.Name(), f.Name)
		})
		for _, sub := range cmd.Commands() {
			check(sub)
		}
	}
	check(rootCmd)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestProgressRenderer(t *testing.T) {
	isolate(t)
	var buf bytes.Buffer

	t.Run("auto on a non-terminal is silent", func(t *testing.T) {
		r, err := progressRenderer("auto", &buf)
		require.NoError(t, err)
		assert.IsType(t, clientcli.NopRenderer{}, r)
	})

	t.Run("explicit modes", func(t *testing.T) {
		r, err := progressRenderer("text", &buf)
		require.NoError(t, err)
		assert.IsType(t, &clientcli.TextRenderer{}, r)

		r, err = progressRenderer("bar", &buf)
		require.NoError(t, err)
		assert.IsType(t, &clientcli.BarRenderer{}, r)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := progressRenderer("fancy", &buf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid progress mode")
	})
}

func TestBuildConfig(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		isolate(t)

		cfg, err := buildConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, clientcli.DefaultIndexerURL, cfg.IndexerURL)
		assert.Empty(t, cfg.AppKey)
	})

	t.Run("flags override env override profile", func(t *testing.T) {
		home := isolate(t)
		profileKey := strings.Repeat("cd", 64)

		file := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "prod", IndexerURL: "https://profile.example", AppKey: profileKey, Default: true},
		}}
		require.NoError(t, file.Save(filepath.Join(home, ".sialo", "config.yaml")))

		cfg, err := buildConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, "https://profile.example", cfg.IndexerURL)
		assert.Equal(t, profileKey, cfg.AppKey)

		t.Setenv("INDEXER_URL", "https://env.example")
		cfg, err = buildConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, "https://env.example", cfg.IndexerURL)
		assert.Equal(t, profileKey, cfg.AppKey)

		indexerURL = "https://flag.example"
		cfg, err = buildConfig(&clientcli.Config{SeedPhrase: "words"})
		require.NoError(t, err)
		assert.Equal(t, "https://flag.example", cfg.IndexerURL)
		assert.Equal(t, "words", cfg.SeedPhrase)
	})

	t.Run("missing named profile is an error", func(t *testing.T) {
		isolate(t)
		profile = "nope"

		_, err := buildConfig(nil)
		require.Error(t, err)
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		home := isolate(t)
		cfgFile = filepath.Join(home, "absent.yaml")

		_, err := buildConfig(nil)
		require.Error(t, err)
	})
}

func TestRun_GenerateSeed(t *testing.T) {
	isolate(t)

	code, stdout, _ := runCLI(t, "generate-seed")
	require.Equal(t, 0, code)
	assert.Len(t, strings.Fields(stdout), 12)
}

func TestRun_Errors(t *testing.T) {
	t.Run("invalid expiry", func(t *testing.T) {
		isolate(t)

		code, stdout, stderr := runCLI(t, "share", "-s", strings.Repeat("ab", 32), "-t", "10")
		assert.Equal(t, 1, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "share command failed:")
		assert.Contains(t, stderr, "1h, 10d, 4w")
	})

	t.Run("missing app key", func(t *testing.T) {
		isolate(t)

		code, _, stderr := runCLI(t, "objects", "-u", "http://127.0.0.1:1")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "objects command failed:")
		assert.Contains(t, stderr, "app key is required")
	})

	t.Run("json error", func(t *testing.T) {
		isolate(t)

		code, _, stderr := runCLI(t, "delete", "not-hex", "--json")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, `"error"`)
	})

	t.Run("log file in a missing directory is created", func(t *testing.T) {
		home := isolate(t)
		logPath := filepath.Join(home, "logs", "nested", "sialo.log")

		code, _, _ := runCLI(t, "generate-seed", "--log-path", logPath, "--log-level", "debug")
		require.Equal(t, 0, code)
		_, err := os.Stat(logPath)
		assert.NoError(t, err)
	})
}

func TestRun_AgainstIndexer(t *testing.T) {
	home := isolate(t)
	srv := indexdtest.NewServer()
	defer srv.Close()

	key := newTestKey(t)
	srv.RegisterKey(key, sialo.ObjectID{1})

	src := filepath.Join(home, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello sialo"), 0o600))

	global := []string{"-u", srv.URL, "-a", key.Hex(), "--log-path", filepath.Join(home, "sialo.log")}

	code, stdout, stderr := runCLI(t, append([]string{"upload", src, "--data-shards", "1", "--parity-shards", "1", "--progress", "none"}, global...)...)
	require.Equal(t, 0, code, stderr)
	require.True(t, strings.HasPrefix(stdout, "Object id: "), stdout)
	objectID := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(stdout, "Object id: "), "\n", 2)[0])

	code, stdout, stderr = runCLI(t, append([]string{"share", "-s", objectID, "-t", "1h"}, global...)...)
	require.Equal(t, 0, code, stderr)
	link := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(link, srv.URL+"/objects/"), link)

	out := filepath.Join(home, "out", "hello.txt")
	code, _, stderr = runCLI(t, append([]string{"download", link, "-o", out}, global...)...)
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello sialo", string(data))

	code, stdout, stderr = runCLI(t, append([]string{"objects"}, global...)...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, objectID+":false")

	code, _, stderr = runCLI(t, append([]string{"delete", objectID}, global...)...)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr = runCLI(t, "history", "--kind", string(catalog.KindShare))
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "share")
	assert.NotContains(t, stdout, "upload")

	historyKind = ""
	code, _, stderr = runCLI(t, "history", "--clear")
	require.Equal(t, 0, code, stderr)
	historyClear = false
	code, stdout, _ = runCLI(t, "history")
	require.Equal(t, 0, code)
	assert.Equal(t, "No history\n", stdout)
}
