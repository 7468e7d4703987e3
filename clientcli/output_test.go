package clientcli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/catalog"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatter(t *testing.T) {
	t.Run("json formatter", func(t *testing.T) {
		formatter := clientcli.NewFormatter(true, false)
		_, ok := formatter.(*clientcli.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("human formatter quiet", func(t *testing.T) {
		formatter := clientcli.NewFormatter(false, true)
		hf, ok := formatter.(*clientcli.HumanFormatter)
		require.True(t, ok)
		assert.True(t, hf.Quiet)
	})
}

func TestHumanFormatter(t *testing.T) {
	id := testObjectID(0xab)

	t.Run("register", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatRegister(&buf, &clientcli.RegisterResult{AppKey: testAppKeyHex}))
		assert.Equal(t, "Application key: "+testAppKeyHex+"\n", buf.String())
	})

	t.Run("upload", func(t *testing.T) {
		result := &clientcli.UploadResult{
			ObjectID: id,
			Size:     2048,
			Plan:     sialo.UploadPlan{SlabCount: 1, TotalShards: 30},
		}

		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatUpload(&buf, result))
		assert.Contains(t, buf.String(), "Object id: "+id.String()+"\n")
		assert.Contains(t, buf.String(), "2.0 KB in 1 slab(s), 30 shard(s)")

		buf.Reset()
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatUpload(&buf, result))
		assert.Equal(t, "Object id: "+id.String()+"\n", buf.String())
	})

	t.Run("share prints only the link", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatShare(&buf, &clientcli.ShareResult{URL: "sia://x/y"}))
		assert.Equal(t, "sia://x/y\n", buf.String())
	})

	t.Run("objects", func(t *testing.T) {
		result := &clientcli.ObjectsResult{
			Events: []clientcli.ObjectEvent{
				{ID: id},
				{ID: testObjectID(1), Deleted: true},
			},
			NextCursor: "2",
		}

		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatObjects(&buf, result))
		assert.Equal(t,
			id.String()+":false\n"+testObjectID(1).String()+":true\n"+"Next page: use --cursor \"2\"\n",
			buf.String())
	})

	t.Run("delete quiet", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatDelete(&buf, &clientcli.DeleteResult{ObjectID: id, Deleted: true}))
		assert.Empty(t, buf.String())
	})

	t.Run("history", func(t *testing.T) {
		expires := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		entries := []catalog.Entry{
			{Kind: catalog.KindShare, ObjectID: id, Detail: "https://x", Size: 10, ExpiresAt: &expires, CreatedAt: time.Now()},
		}

		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatHistory(&buf, entries))
		assert.Contains(t, buf.String(), "share")
		assert.Contains(t, buf.String(), id.String()[:16])
		assert.Contains(t, buf.String(), "https://x (expires 2025-05-01T00:00:00Z)")

		buf.Reset()
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatHistory(&buf, nil))
		assert.Equal(t, "No history\n", buf.String())
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatError(&buf, errors.New("boom")))
		assert.Equal(t, "Error: boom\n", buf.String())
	})
}

func TestJSONFormatter(t *testing.T) {
	id := testObjectID(0xcd)
	f := &clientcli.JSONFormatter{}

	t.Run("upload with display error", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatUpload(&buf, &clientcli.UploadResult{
			LocalPath:  "a.txt",
			ObjectID:   id,
			Size:       3,
			DisplayErr: errors.New("terminal gone"),
		}))

		var out map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, id.String(), out["object_id"])
		assert.Equal(t, "terminal gone", out["display_error"])
		assert.Contains(t, out, "plan")
	})

	t.Run("objects", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatObjects(&buf, &clientcli.ObjectsResult{
			Events: []clientcli.ObjectEvent{{ID: id, Deleted: true}},
		}))

		var out struct {
			Events []struct {
				ID      string `json:"id"`
				Deleted bool   `json:"deleted"`
			} `json:"events"`
			NextCursor string `json:"next_cursor"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out.Events, 1)
		assert.Equal(t, id.String(), out.Events[0].ID)
		assert.True(t, out.Events[0].Deleted)
		assert.NotContains(t, buf.String(), "next_cursor")
	})

	t.Run("empty history is an empty list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatHistory(&buf, nil))
		assert.JSONEq(t, `{"entries": []}`, buf.String())
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatError(&buf, errors.New("boom")))
		assert.JSONEq(t, `{"error": "boom"}`, buf.String())
	})
}

func TestFormatProfiles(t *testing.T) {
	profiles := []clientcli.Profile{
		{Name: "local", IndexerURL: "http://localhost:9980"},
		{Name: "prod", IndexerURL: clientcli.DefaultIndexerURL, AppKey: testAppKeyHex},
	}

	t.Run("human list masks keys", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileList(&buf, profiles, "prod", false))
		out := buf.String()
		assert.Contains(t, out, "INDEXER URL")
		assert.Contains(t, out, "* prod")
		assert.Contains(t, out, "abab...abab")
		assert.Contains(t, out, "(not set)")
		assert.NotContains(t, out, testAppKeyHex)
	})

	t.Run("human show with secrets", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileShow(&buf, profiles[1], true, true))
		assert.Contains(t, buf.String(), "prod (default)")
		assert.Contains(t, buf.String(), testAppKeyHex)
	})

	t.Run("json list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.JSONFormatter{}).FormatProfileList(&buf, profiles, "local", false))

		var out struct {
			Profiles []struct {
				Name    string `json:"name"`
				AppKey  string `json:"app_key"`
				Default bool   `json:"default"`
			} `json:"profiles"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out.Profiles, 2)
		assert.True(t, out.Profiles[0].Default)
		assert.Equal(t, "abab...abab", out.Profiles[1].AppKey)
	})

	t.Run("json show", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.JSONFormatter{}).FormatProfileShow(&buf, profiles[1], false, true))
		assert.Contains(t, buf.String(), testAppKeyHex)
	})
}
