package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Launcher starts the live view of a named preset.
type Launcher func(name string) (Model, error)

// Picker lists presets and hands over to the live view of the chosen one.
type Picker struct {
	names  []string
	cursor int
	launch Launcher
	err    error

	live    Model
	started bool
	styles  styles
}

func NewPicker(names []string, launch Launcher) Picker {
	return Picker{
		names:  names,
		launch: launch,
		styles: newStyles(Themes[0]),
	}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.started {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.names) == 0 {
			return p, nil
		}
		live, err := p.launch(p.names[p.cursor])
		if err != nil {
			p.err = err
			return p, nil
		}
		p.live, p.started, p.err = live, true, nil
		return p, p.live.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.started {
		return p.live.View()
	}

	var b strings.Builder
	b.WriteString(p.styles.header.Render("AFLC PRESETS") + "\n\n")
	for i, name := range p.names {
		if i == p.cursor {
			b.WriteString(p.styles.running.Render("> "+name) + "\n")
			continue
		}
		b.WriteString("  " + p.styles.value.Render(name) + "\n")
	}
	if p.err != nil {
		b.WriteString("\n" + p.styles.alarm.Render(fmt.Sprintf("error: %v", p.err)) + "\n")
	}
	b.WriteString(p.styles.help.Render("↑/↓ select  enter run  q quit"))
	return b.String()
}
