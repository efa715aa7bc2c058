package ui

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// RunOnceModel is a Bubble Tea model that renders once and exits.
// This is used for "run once and exit" output patterns rather than
// interactive TUIs.
type RunOnceModel struct {
	content string
}

// NewRunOnceModel creates a model that will render the given content and exit
func NewRunOnceModel(content string) RunOnceModel {
	return RunOnceModel{content: content}
}

// Init implements tea.Model
func (m RunOnceModel) Init() tea.Cmd {
	return tea.Quit
}

// Update implements tea.Model
func (m RunOnceModel) Update(tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View implements tea.Model
func (m RunOnceModel) View() string {
	return m.content
}

// RenderOnce renders content through Bubble Tea on out and exits.
func RenderOnce(content string, out io.Writer) error {
	p := tea.NewProgram(NewRunOnceModel(content), tea.WithOutput(out), tea.WithInput(nil))
	_, err := p.Run()
	return err
}

// Printer writes UI components to a writer. On a terminal it draws styled
// boxes; otherwise it falls back to plain key/value lines so cron mail and
// log files stay readable.
type Printer struct {
	out    io.Writer
	styled bool
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = IsTerminal(f)
	}
	return &Printer{out: w, styled: styled}
}

// Styled reports whether the printer draws styled output.
func (p *Printer) Styled() bool {
	return p.styled
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a run header box. Nothing is printed on a
// non-terminal.
func (p *Printer) PrintHeader(h *Header) {
	if !p.styled {
		return
	}
	p.Println(h.Render())
}

// PrintResult prints a result box, or plain text on a non-terminal.
func (p *Printer) PrintResult(r *Result) error {
	if !p.styled {
		p.Println(PlainResult(r))
		return nil
	}
	return RenderOnce(r.Render()+"\n", p.out)
}

// PlainResult renders a result without styling.
func PlainResult(r *Result) string {
	label := "SUCCESS"
	switch r.Type {
	case ResultFailure:
		label = "FAILED"
	case ResultWarning:
		label = "PARTIAL"
	}

	s := fmt.Sprintf("%s: %s\n", label, r.Title)
	if r.Error != nil {
		s += fmt.Sprintf("  error: %v\n", r.Error)
	}
	for _, d := range r.Details {
		s += fmt.Sprintf("  %s: %s\n", d.Key, d.Value)
	}
	for _, item := range r.Items {
		s += fmt.Sprintf("  - %s\n", item)
	}
	return s[:len(s)-1]
}
