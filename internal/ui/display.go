package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/nyra-ai/nyra/internal/orchestrate"
)

// TerminalDisplay renders tool progress and results to a terminal.
// It satisfies orchestrate.Display.
type TerminalDisplay struct {
	out      io.Writer
	progress io.Writer
	plain    bool
	raw      bool

	mu      sync.Mutex
	spinner *Spinner
}

// DisplayOptions tunes a TerminalDisplay.
type DisplayOptions struct {
	// Progress receives the spinner; nil disables it
	Progress io.Writer
	// Plain prints only the result text, without a card
	Plain bool
	// Raw prints the backend JSON payload instead of the extracted text
	Raw bool
}

// NewTerminalDisplay creates a display writing results to out.
func NewTerminalDisplay(out io.Writer, opts DisplayOptions) *TerminalDisplay {
	return &TerminalDisplay{
		out:      out,
		progress: opts.Progress,
		plain:    opts.Plain,
		raw:      opts.Raw,
	}
}

func (d *TerminalDisplay) ShowLoading(_ orchestrate.Tool, message string) {
	if d.progress == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.spinner != nil {
		d.spinner.SetMessage(message)
		return
	}
	d.spinner = NewSpinnerTo(d.progress, message)
	d.spinner.Start()
}

func (d *TerminalDisplay) ShowResult(tool orchestrate.Tool, result orchestrate.Result) {
	d.stopSpinner()

	body := result.Text
	if d.raw && len(result.Raw) > 0 {
		body = result.Raw.Indent()
	}

	if d.plain {
		fmt.Fprintln(d.out, body)
		return
	}
	fmt.Fprint(d.out, RenderResultCard(ResultCardOptions{
		Tool:       string(tool),
		Status:     string(result.Status),
		Processing: result.Processing,
		Duration:   result.Duration,
		Body:       body,
		Width:      min(TerminalWidth(78), 100),
	}))
}

func (d *TerminalDisplay) ShowError(_ orchestrate.Tool, message string) {
	d.stopSpinner()
	fmt.Fprintln(d.out, Color(Red, message))
}

func (d *TerminalDisplay) stopSpinner() {
	d.mu.Lock()
	s := d.spinner
	d.spinner = nil
	d.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}
