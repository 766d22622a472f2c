// Package tui is an interactive inspector that resolves typed URLs against
// the active rule config.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

// ConfigSource yields the compiled tree to resolve against. It is called
// on every lookup so reloads are picked up.
type ConfigSource interface {
	GetCompiledConfig(ctx context.Context) (*ruleconfig.Rule, error)
}

func Run(ctx context.Context, src ConfigSource, initialURL string, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(
		newModel(ctx, src, initialURL),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}
	return nil
}

type lookup struct {
	url   string
	rule  ruleconfig.EffectiveRule
	trace []string
}

type model struct {
	ctx   context.Context
	src   ConfigSource
	input textinput.Model

	last *lookup
	err  error
}

func newModel(ctx context.Context, src ConfigSource, initialURL string) model {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/page"
	ti.Prompt = "url> "
	ti.CharLimit = 2048
	ti.Width = 72
	ti.Focus()
	m := model{ctx: ctx, src: src, input: ti}
	if u := strings.TrimSpace(initialURL); u != "" {
		m.input.SetValue(u)
		m = m.resolve()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.resolve(), nil
		}
	case tea.WindowSizeMsg:
		if w := msg.Width - 12; w > 20 {
			m.input.Width = w
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) resolve() model {
	url := strings.TrimSpace(m.input.Value())
	if url == "" {
		return m
	}
	root, err := m.src.GetCompiledConfig(m.ctx)
	if err != nil {
		m.err = err
		m.last = nil
		return m
	}
	chain := ruleconfig.Trace(root, url)
	trace := make([]string, 0, len(chain))
	for _, r := range chain {
		if r.Pattern != nil {
			trace = append(trace, "/"+r.Pattern.String()+"/")
		}
	}
	m.err = nil
	m.last = &lookup{url: url, rule: ruleconfig.Resolve(root, url), trace: trace}
	return m
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("dkn rule inspector"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.last != nil:
		b.WriteString(renderLookup(m.last))
	}

	b.WriteString(helpStyle.Render("enter: resolve • esc: quit"))
	return docStyle.Render(b.String())
}

func renderLookup(l *lookup) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("url", l.url)
	state := disabledStyle.Render("disabled")
	if l.rule.Enabled() {
		state = enabledStyle.Render("enabled")
	}
	row("level", fmt.Sprintf("%d %s", l.rule.Level, state))
	if len(l.trace) == 0 {
		row("matched", "(no rule, defaults)")
	} else {
		row("matched", strings.Join(l.trace, " > "))
	}
	if l.rule.Comment != "" {
		row("comment", strings.ReplaceAll(l.rule.Comment, "\n", " | "))
	}
	row("static", listOrDash(l.rule.StaticStyles))
	row("dynamic", listOrDash(l.rule.DynamicStyles))
	if css := l.rule.CustomCSS(); css != "" {
		row("custom", "")
		b.WriteString(cssStyle.Render(css))
		b.WriteString("\n")
	}
	return b.String()
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
