package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// SweepProgress draws a single self-overwriting progress line while hosts
// are visited. It is meant for stderr and only when stderr is a terminal.
type SweepProgress struct {
	out   io.Writer
	bar   progress.Model
	width int
	drawn bool
}

// NewSweepProgress creates a progress line writing to out.
func NewSweepProgress(out io.Writer) *SweepProgress {
	width := MinTerminalWidth
	if f, ok := out.(*os.File); ok {
		width = terminalWidth(f)
	}

	// Leave room for the percentage, counter and address.
	barWidth := min(max(width-45, 20), 50)

	return &SweepProgress{
		out: out,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
		width: width,
	}
}

// Render returns the progress line for done of total hosts.
func (p *SweepProgress) Render(done, total int, host string) string {
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	line := fmt.Sprintf("%s  %3.0f%%  [%d/%d]  %s", p.bar.ViewAs(percent), percent*100, done, total, host)
	return lipgloss.NewStyle().PaddingLeft(2).Render(line)
}

// Update redraws the line.
func (p *SweepProgress) Update(done, total int, host string) {
	// \033[K clears what a longer previous line left behind.
	_, _ = fmt.Fprintf(p.out, "\r%s\033[K", p.Render(done, total, host))
	p.drawn = true
}

// Finish ends the progress line so later output starts on a fresh line.
func (p *SweepProgress) Finish() {
	if p.drawn {
		_, _ = fmt.Fprintln(p.out)
		p.drawn = false
	}
}
