package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"babel.town/session"
)

func TestModelRendersViews(t *testing.T) {
	d := NewDisplay()
	var m tea.Model = newModel(d, "babel")

	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m, cmd := m.Update(viewMsg(session.View{
		Status:     session.StatusRecording,
		StatusText: "Recording in progress... Speak clearly",
		Language:   "te-IN",
		Transcript: "Original: emi\nEnglish Translation: what\n\n",
		Speaking:   "baagunnava",
	}))
	if cmd == nil {
		t.Fatal("expected a command waiting for the next view")
	}

	out := m.View()
	for _, want := range []string{
		"babel",
		"Telugu",
		"Recording in progress",
		"English Translation: what",
		"Speaking: baagunnava",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view is missing %q:\n%s", want, out)
		}
	}
}

func TestModelQuits(t *testing.T) {
	for _, key := range []string{"q", "esc", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			var msg tea.KeyMsg
			switch key {
			case "esc":
				msg = tea.KeyMsg{Type: tea.KeyEsc}
			case "ctrl+c":
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			default:
				msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
			}

			_, cmd := newModel(NewDisplay(), "babel").Update(msg)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("%s did not quit", key)
			}
		})
	}
}

func TestDisplayKeepsNewest(t *testing.T) {
	d := NewDisplay()
	d.Show(session.View{StatusText: "first"})
	d.Show(session.View{StatusText: "second"})

	msg := waitForView(d.views)()
	if v := session.View(msg.(viewMsg)); v.StatusText != "second" {
		t.Errorf("got %q, want second", v.StatusText)
	}
}
