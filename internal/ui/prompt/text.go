package prompt

import (
	"os"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/jim/internal/ui/styles"
)

// TextInputResult holds the result of a text input prompt.
type TextInputResult struct {
	Value     string
	Cancelled bool
}

type textInputModel struct {
	input     textinput.Model
	prompt    string
	validate  func(string) error
	err       error
	done      bool
	cancelled bool
}

func (m textInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "enter":
			if m.validate != nil {
				if err := m.validate(strings.TrimSpace(m.input.Value())); err != nil {
					m.err = err
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	m.err = nil
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m textInputModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	s := styles.Bold.Render(m.prompt) + "\n" + m.input.View()
	if m.err != nil {
		s += "\n" + styles.ErrorStyle.Render(m.err.Error())
	}
	return tea.NewView(s + "\n")
}

func newTextInputModel(prompt, placeholder string, validate func(string) error) textInputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 1024
	ti.SetWidth(60)
	ti.Focus()

	return textInputModel{
		input:    ti,
		prompt:   prompt,
		validate: validate,
	}
}

// TextInput reads one line from the terminal. If validate is not nil, enter
// only submits once it accepts the trimmed value. The returned value is
// trimmed.
func TextInput(prompt, placeholder string, validate func(string) error) (TextInputResult, error) {
	p := tea.NewProgram(newTextInputModel(prompt, placeholder, validate), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return TextInputResult{}, err
	}
	m := final.(textInputModel)
	return TextInputResult{
		Value:     strings.TrimSpace(m.input.Value()),
		Cancelled: m.cancelled,
	}, nil
}
