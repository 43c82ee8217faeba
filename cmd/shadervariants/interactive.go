package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/shader-variants/asset"
	"github.com/wippyai/shader-variants/build"
	"github.com/wippyai/shader-variants/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const recentLines = 10

type progressMsg build.Event

type doneMsg struct {
	res *build.Result
	err error
}

type progressModel struct {
	err       error
	res       *build.Result
	cancel    context.CancelFunc
	bar       progress.Model
	asset     string
	pass      string
	recent    []string
	passes    int
	passIdx   int
	done      int
	total     int
	failed    int
	finished  bool
	canceling bool
}

func newProgressModel(a *asset.Asset, cancel context.CancelFunc) *progressModel {
	name := a.Name
	if name == "" {
		name = "(unnamed)"
	}
	return &progressModel{
		asset:  name,
		passes: len(a.Passes),
		cancel: cancel,
		bar:    progress.New(progress.WithDefaultGradient()),
	}
}

func (m *progressModel) Init() tea.Cmd {
	return nil
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.finished {
				return m, tea.Quit
			}
			m.canceling = true
			m.cancel()
		}

	case tea.WindowSizeMsg:
		m.bar.Width = max(msg.Width-4, 10)

	case progressMsg:
		if msg.Pass != m.pass {
			m.pass = msg.Pass
			m.passIdx++
		}
		m.done, m.total = msg.Done, msg.Total
		if msg.Variant.Status != build.StatusOK {
			m.failed++
		}
		m.recent = append(m.recent, formatVariant(build.Event(msg)))
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}

	case doneMsg:
		m.res, m.err = msg.res, msg.err
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func formatVariant(ev build.Event) string {
	kws := strings.Join(ev.Variant.Keywords, " ")
	if kws == "" {
		kws = "(base)"
	}
	line := fmt.Sprintf("%4d  %-40s ", ev.Variant.Index, kws)
	if ev.Variant.Status == build.StatusOK {
		return line + okStyle.Render(ev.Variant.Status.String())
	}
	return line + errorStyle.Render(ev.Variant.Status.String())
}

func (m *progressModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + m.asset + " "))
	b.WriteString("\n\n")

	if m.pass != "" {
		b.WriteString(passStyle.Render(fmt.Sprintf("pass %q (%d/%d)", m.pass, m.passIdx, m.passes)))
		b.WriteString(fmt.Sprintf("  %d/%d variants", m.done, m.total))
		if m.failed > 0 {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  %d failed", m.failed)))
		}
		b.WriteString("\n")
	}
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	b.WriteString(m.bar.ViewAs(pct))
	b.WriteString("\n\n")

	for _, l := range m.recent {
		b.WriteString(l)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.canceling {
		b.WriteString(helpStyle.Render("canceling..."))
	} else {
		b.WriteString(helpStyle.Render("q: cancel build"))
	}
	b.WriteString("\n")
	return b.String()
}

// runInteractive runs the build in the background and renders its progress
// until it finishes or the user cancels it.
func runInteractive(ctx context.Context, e *engine.Engine, opts build.Options, a *asset.Asset) (*build.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newProgressModel(a, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	opts.Progress = func(ev build.Event) { p.Send(progressMsg(ev)) }
	finished := make(chan doneMsg, 1)
	go func() {
		res, err := build.New(e, opts).Run(ctx, a)
		finished <- doneMsg{res: res, err: err}
		p.Send(doneMsg{res: res, err: err})
	}()

	_, runErr := p.Run()
	// the engine must be idle before the caller closes it
	cancel()
	r := <-finished
	if runErr != nil {
		return r.res, runErr
	}
	return r.res, r.err
}
