package clientcli

import (
	"fmt"
	"io"
	"sync"

	progressbar "github.com/cheggaaa/pb/v3"
)

// TextRenderer prints a single self-overwriting "Uploaded shards: d/t" line.
type TextRenderer struct {
	W io.Writer
}

// Update redraws the progress line.
func (r *TextRenderer) Update(done, total uint64) error {
	_, err := fmt.Fprintf(r.W, "\rUploaded shards: %d/%d", done, total)
	return err
}

// Finish terminates the progress line.
func (r *TextRenderer) Finish(done, total uint64) error {
	if done == 0 {
		if err := r.Update(done, total); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(r.W)
	return err
}

// BarRenderer draws a shard progress bar.
type BarRenderer struct {
	W io.Writer

	once sync.Once
	bar  *progressbar.ProgressBar
}

func (r *BarRenderer) start(total uint64) {
	r.once.Do(func() {
		r.bar = progressbar.New64(int64(total)).SetWriter(r.W) //nolint:gosec // shard counts fit in int64
		r.bar.Start()
	})
}

// Update advances the bar to done.
func (r *BarRenderer) Update(done, total uint64) error {
	r.start(total)
	r.bar.SetCurrent(int64(done)) //nolint:gosec // shard counts fit in int64
	return r.bar.Err()
}

// Finish stops the bar.
func (r *BarRenderer) Finish(done, total uint64) error {
	r.start(total)
	r.bar.SetCurrent(int64(done)) //nolint:gosec // shard counts fit in int64
	r.bar.Finish()
	return r.bar.Err()
}

// NopRenderer discards progress.
type NopRenderer struct{}

// Update does nothing.
func (NopRenderer) Update(uint64, uint64) error { return nil }

// Finish does nothing.
func (NopRenderer) Finish(uint64, uint64) error { return nil }
