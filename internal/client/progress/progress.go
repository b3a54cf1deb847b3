// Package progress draws a single-line transfer progress bar.
package progress

import (
	"fmt"
	"io"
	"strings"
)

const barWidth = 30

// Bar renders transfer progress to a writer, redrawing in place.
type Bar struct {
	out   io.Writer
	label string
	total int64
	done  int64
}

// NewBar creates a bar for a transfer of total bytes. A zero or
// negative total renders a byte counter instead of a percentage.
func NewBar(out io.Writer, label string, total int64) *Bar {
	return &Bar{out: out, label: label, total: total}
}

// Add advances the bar by n bytes and redraws it.
func (b *Bar) Add(n int64) {
	b.done += n
	b.draw()
}

// Finish completes the bar and moves to the next line.
func (b *Bar) Finish() {
	if b.total > 0 {
		b.done = b.total
	}
	b.draw()
	fmt.Fprintln(b.out)
}

func (b *Bar) draw() {
	if b.total <= 0 {
		fmt.Fprintf(b.out, "\r%s %s", b.label, formatBytes(b.done))
		return
	}
	ratio := float64(b.done) / float64(b.total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * barWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	fmt.Fprintf(b.out, "\r%s [%s] %3.0f%% %s", b.label, bar, ratio*100, formatBytes(b.done))
}

// Writer returns an io.Writer that advances the bar as bytes pass
// through it, for use with io.TeeReader or io.MultiWriter.
func (b *Bar) Writer() io.Writer {
	return barWriter{b}
}

type barWriter struct {
	bar *Bar
}

func (w barWriter) Write(p []byte) (int, error) {
	w.bar.Add(int64(len(p)))
	return len(p), nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
