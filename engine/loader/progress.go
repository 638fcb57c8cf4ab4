package loader

import (
	"context"
	"fmt"
	"io"
)

// ProgressFunc receives byte progress for one asset. total is 0 when the size is unknown.
type ProgressFunc func(loaded, total int64)

// Status strings shown outside of a running batch.
const (
	StatusDone   = "models loaded"
	StatusFailed = "model loading failed, please retry"
)

// BatchProgress is the state of a running batch.
type BatchProgress struct {
	Finished int
	Total    int

	// Loaded and Size are the byte counts of the asset that reported most recently.
	Loaded int64
	Size   int64
}

// Percent returns min(99, floor(Loaded/Size*100)), or -1 before a size is known.
func (p BatchProgress) Percent() int {
	if p.Size <= 0 {
		return -1
	}
	return int(min(99, p.Loaded*100/p.Size))
}

// Status renders the progress line, for example "loading models (1/3)... 42%".
func (p BatchProgress) Status() string {
	base := fmt.Sprintf("loading models (%d/%d)...", p.Finished, p.Total)
	if pct := p.Percent(); pct >= 0 {
		return fmt.Sprintf("%s %d%%", base, pct)
	}
	return base
}

// countingReader reports the running byte count after every read and stops once ctx is done.
type countingReader struct {
	ctx    context.Context
	r      io.Reader
	total  int64
	loaded int64
	report ProgressFunc
}

func newCountingReader(ctx context.Context, r io.Reader, total int64, report ProgressFunc) *countingReader {
	return &countingReader{ctx: ctx, r: r, total: total, report: report}
}

func (c *countingReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	if n > 0 {
		c.loaded += int64(n)
		if c.report != nil {
			c.report(c.loaded, c.total)
		}
	}
	return n, err
}
