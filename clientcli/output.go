package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sagarc03/sialo/catalog"
)

// Formatter formats results for output.
type Formatter interface {
	FormatRegister(w io.Writer, result *RegisterResult) error
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, result *DeleteResult) error
	FormatShare(w io.Writer, result *ShareResult) error
	FormatObjects(w io.Writer, result *ObjectsResult) error
	FormatPrune(w io.Writer, result *PruneResult) error
	FormatHistory(w io.Writer, entries []catalog.Entry) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text. Quiet drops informational
// lines but keeps the values a script would capture (ids, links, keys).
type HumanFormatter struct {
	Quiet bool
}

// FormatRegister prints the issued application key.
func (f *HumanFormatter) FormatRegister(w io.Writer, result *RegisterResult) error {
	_, _ = fmt.Fprintf(w, "Application key: %s\n", result.AppKey)
	return nil
}

// FormatUpload prints the object id of the uploaded file.
func (f *HumanFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	_, _ = fmt.Fprintf(w, "Object id: %s\n", result.ObjectID)
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "  Size: %s in %d slab(s), %d shard(s)\n",
			formatSize(result.Size), result.Plan.SlabCount, result.Plan.TotalShards)
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.ObjectID, result.OutputPath, formatSize(result.Size))
	}
	return nil
}

// FormatDelete formats delete result as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, result *DeleteResult) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Deleted: %s\n", result.ObjectID)
	}
	return nil
}

// FormatShare prints the share link on its own line.
func (f *HumanFormatter) FormatShare(w io.Writer, result *ShareResult) error {
	_, _ = fmt.Fprintln(w, result.URL)
	return nil
}

// FormatObjects prints one "id:deleted" line per event.
func (f *HumanFormatter) FormatObjects(w io.Writer, result *ObjectsResult) error {
	for i := range result.Events {
		_, _ = fmt.Fprintf(w, "%s:%t\n", result.Events[i].ID, result.Events[i].Deleted)
	}
	if result.NextCursor != "" && !f.Quiet {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}
	return nil
}

// FormatPrune formats a prune result as human-readable text.
func (f *HumanFormatter) FormatPrune(w io.Writer, result *PruneResult) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Pruned %d shard(s)\n", result.Pruned)
	}
	return nil
}

// FormatHistory formats local history entries as a table.
func (f *HumanFormatter) FormatHistory(w io.Writer, entries []catalog.Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No history")
		return nil
	}

	t := newTable(w, "TIME", "KIND", "OBJECT", "SIZE", "DETAIL")
	for i := range entries {
		e := &entries[i]
		detail := e.Detail
		if e.ExpiresAt != nil {
			detail = fmt.Sprintf("%s (expires %s)", detail, e.ExpiresAt.Format(time.RFC3339))
		}
		t.row(
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(e.Kind),
			e.ObjectID.String()[:16],
			formatSize(e.Size),
			detail,
		)
	}
	return t.flush()
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatRegister formats a registration result as JSON.
func (f *JSONFormatter) FormatRegister(w io.Writer, result *RegisterResult) error {
	return writeJSON(w, result)
}

// FormatUpload formats an upload result as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	output := struct {
		*UploadResult
		DisplayError string `json:"display_error,omitempty"`
	}{UploadResult: result}
	if result.DisplayErr != nil {
		output.DisplayError = result.DisplayErr.Error()
	}
	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats a delete result as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, result *DeleteResult) error {
	return writeJSON(w, result)
}

// FormatShare formats a share result as JSON.
func (f *JSONFormatter) FormatShare(w io.Writer, result *ShareResult) error {
	return writeJSON(w, result)
}

// FormatObjects formats object events as JSON.
func (f *JSONFormatter) FormatObjects(w io.Writer, result *ObjectsResult) error {
	return writeJSON(w, result)
}

// FormatPrune formats a prune result as JSON.
func (f *JSONFormatter) FormatPrune(w io.Writer, result *PruneResult) error {
	return writeJSON(w, result)
}

// FormatHistory formats local history entries as JSON.
func (f *JSONFormatter) FormatHistory(w io.Writer, entries []catalog.Entry) error {
	output := struct {
		Entries []catalog.Entry `json:"entries"`
	}{Entries: entries}
	if output.Entries == nil {
		output.Entries = []catalog.Entry{}
	}
	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table aligns rows into columns separated by at least two spaces.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cells ...string) {
	_, _ = fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
// The default profile is marked with an asterisk.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	t := newTable(w, "  NAME", "INDEXER URL", "APP KEY")
	for i := range profiles {
		p := &profiles[i]
		marker := "  "
		if p.Name == defaultName {
			marker = "* "
		}
		t.row(marker+p.Name, p.IndexerURL, maskSecret(p.AppKey, showSecrets))
	}
	return t.flush()
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:        %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Indexer URL: %s\n", profile.IndexerURL)
	_, _ = fmt.Fprintf(w, "App Key:     %s\n", maskSecret(profile.AppKey, showSecrets))
	return nil
}

type jsonProfile struct {
	Name       string `json:"name"`
	IndexerURL string `json:"indexer_url"`
	AppKey     string `json:"app_key"`
	Default    bool   `json:"default"`
}

func toJSONProfile(p *Profile, isDefault, showSecrets bool) jsonProfile {
	return jsonProfile{
		Name:       p.Name,
		IndexerURL: p.IndexerURL,
		AppKey:     maskSecret(p.AppKey, showSecrets),
		Default:    isDefault,
	}
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = toJSONProfile(&profiles[i], profiles[i].Name == defaultName, showSecrets)
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, toJSONProfile(&profile, isDefault, showSecrets))
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
