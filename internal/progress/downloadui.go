// Package progress renders a live progress bar for a single download job
// polled off the engine's job record.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// JobBar tracks one download's progress against a terminal (or discards
// output when stderr isn't a terminal).
type JobBar struct {
	progress   *mpb.Progress
	bar        *mpb.Bar
	isTerminal bool
}

// NewJobBar creates a bar for a download to localPath. The total is unknown
// until the remote probe completes; call SetTotal once it is.
func NewJobBar(localPath string) *JobBar {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	u := &JobBar{progress: p, isTerminal: isTerminal}

	if isTerminal {
		u.bar = p.New(0,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("← %s", truncatePath(localPath, 2)), decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
				decor.Name("  "),
				decor.Name("ETA ", decor.WCSyncWidth),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
	}

	return u
}

// SetTotal sets the bar's total once the remote size is known.
func (u *JobBar) SetTotal(total int64) {
	if u.bar != nil {
		u.bar.SetTotal(total, false)
	}
}

// SetCurrent updates the bar's current position to an absolute byte count.
func (u *JobBar) SetCurrent(current int64) {
	if u.bar != nil {
		u.bar.SetCurrent(current)
	}
}

// Complete marks the bar done (or aborted on failure) and prints a summary
// line.
func (u *JobBar) Complete(err error) {
	if u.bar != nil {
		if err == nil {
			u.bar.SetTotal(-1, true)
		} else {
			u.bar.Abort(false)
		}
	}

	if u.progress != nil {
		if err == nil {
			fmt.Fprintln(u.progress, "done")
		} else {
			fmt.Fprintf(u.progress, "failed: %v\n", err)
		}
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed: %v\n", err)
	}
}

// Wait blocks until the bar's rendering goroutine finishes.
func (u *JobBar) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// truncatePath keeps only the last `components` path segments, for a
// shorter label in narrow terminals.
func truncatePath(path string, components int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= components {
		return path
	}
	return ".../" + strings.Join(parts[len(parts)-components:], "/")
}
