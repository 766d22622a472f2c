package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

type staticSource struct {
	root *ruleconfig.Rule
	err  error
}

func (s staticSource) GetCompiledConfig(context.Context) (*ruleconfig.Rule, error) {
	return s.root, s.err
}

func compileDoc(t *testing.T, text string) *ruleconfig.Rule {
	t.Helper()
	root, err := ruleconfig.ParseConfigString(text, ruleconfig.StyleNames{Static: []string{"dark"}, Dynamic: ruleconfig.DefaultDynamicStyles})
	if err != nil {
		t.Fatalf("ParseConfigString: %v", err)
	}
	return root
}

const doc = `{"rules":[{"regex":"example\\.com","level":3,"comment":"outer","rules":[{"regex":"/docs/","staticStyles":["dark"],"customStyles":["p { margin: 0 }"]}]}]}`

func TestModel_EnterResolvesTypedURL(t *testing.T) {
	m := newModel(context.Background(), staticSource{root: compileDoc(t, doc)}, "")
	m.input.SetValue("https://example.com/docs/intro")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := next.(model)
	if got.last == nil {
		t.Fatalf("expected a lookup result")
	}
	if got.last.rule.Level != 3 || strings.Join(got.last.trace, " > ") != `/example\.com/ > //docs//` {
		t.Fatalf("unexpected lookup %+v", got.last)
	}
	view := got.View()
	for _, want := range []string{"dark", "p { margin: 0 }", "disabled"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_InitialURLAndDefaults(t *testing.T) {
	m := newModel(context.Background(), staticSource{root: compileDoc(t, doc)}, "https://other.org/")
	if m.last == nil || m.last.rule.Level != ruleconfig.DefaultLevel || len(m.last.trace) != 0 {
		t.Fatalf("unexpected initial lookup %+v", m.last)
	}
	if !strings.Contains(m.View(), "(no rule, defaults)") {
		t.Fatalf("view should mention defaults:\n%s", m.View())
	}
}

func TestModel_ShowsCompileError(t *testing.T) {
	m := newModel(context.Background(), staticSource{err: errors.New("config.level: bad")}, "http://a/")
	if m.err == nil || m.last != nil {
		t.Fatalf("expected error state, got last=%+v err=%v", m.last, m.err)
	}
	if !strings.Contains(m.View(), "config.level: bad") {
		t.Fatalf("view should show the error:\n%s", m.View())
	}
}

func TestModel_EscQuits(t *testing.T) {
	m := newModel(context.Background(), staticSource{root: ruleconfig.DefaultRule()}, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
