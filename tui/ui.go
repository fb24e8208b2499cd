package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"babel.town/lang"
	"babel.town/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#3C6EB4")).
			Padding(0, 1)

	errorStyle = statusStyle.
			Background(lipgloss.Color("#B00020"))

	speakingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Display feeds session views to the program. Show never blocks; a view
// not yet rendered is replaced by a newer one.
type Display struct {
	views chan session.View
}

func NewDisplay() *Display {
	return &Display{views: make(chan session.View, 1)}
}

func (d *Display) Show(v session.View) {
	for {
		select {
		case d.views <- v:
			return
		default:
		}
		select {
		case <-d.views:
		default:
		}
	}
}

type viewMsg session.View

type model struct {
	viewport viewport.Model
	view     session.View
	title    string
	ready    bool
	views    <-chan session.View
}

func newModel(d *Display, title string) model {
	return model{
		title: title,
		views: d.views,
	}
}

func (m model) Init() tea.Cmd {
	return waitForView(m.views)
}

func waitForView(views <-chan session.View) tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-views)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		verticalMarginHeight := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMarginHeight)
			m.viewport.YPosition = headerHeight
			m.viewport.SetContent(m.contentView())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMarginHeight
		}

	case viewMsg:
		m.view = session.View(msg)
		m.viewport.SetContent(m.contentView())
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForView(m.views))
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	return fmt.Sprintf(
		"%s\n%s\n%s",
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)
}

func (m model) headerView() string {
	title := titleStyle.Render(m.title)
	language := ""
	if m.view.Language != "" {
		language = " " + lang.Name(m.view.Language) + " → English "
	}
	line := strings.Repeat(
		"─",
		max(0, m.viewport.Width-lipgloss.Width(title)-lipgloss.Width(language)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Center, title, language, line)
}

func (m model) footerView() string {
	style := statusStyle
	if m.view.Status.IsError() {
		style = errorStyle
	}
	status := style.Render(m.view.StatusText)
	help := " q to quit "
	line := strings.Repeat(
		"─",
		max(0, m.viewport.Width-lipgloss.Width(status)-lipgloss.Width(help)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Center, line, help, status)
}

func (m model) contentView() string {
	if m.view.Speaking == "" {
		return m.view.Transcript
	}
	return m.view.Transcript + speakingStyle.Render("Speaking: "+m.view.Speaking)
}

// Run shows the views sent to d until the user quits.
func Run(d *Display, title string) error {
	p := tea.NewProgram(newModel(d, title), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
