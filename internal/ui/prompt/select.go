package prompt

import (
	"os"

	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/jim/internal/ui/styles"
)

// SelectResult holds the result of a selection prompt.
type SelectResult struct {
	Value     string
	Index     int
	Cancelled bool
}

// Option is one selectable entry.
type Option struct {
	Label  string
	Detail string
}

type option struct {
	Option
	index int
}

func (o option) Title() string       { return o.Label }
func (o option) Description() string { return o.Detail }
func (o option) FilterValue() string { return o.Label }

type selectModel struct {
	list      list.Model
	selected  int
	done      bool
	cancelled bool
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		// While filtering, enter and esc belong to the filter input.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if o, ok := m.list.SelectedItem().(option); ok {
				m.selected = o.index
			}
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	return tea.NewView(m.list.View())
}

func newSelectModel(title string, options []Option) selectModel {
	items := make([]list.Item, len(options))
	showDetail := false
	for i, o := range options {
		items[i] = option{Option: o, index: i}
		if o.Detail != "" {
			showDetail = true
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = showDetail
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = styles.AccentStyle
	delegate.Styles.SelectedDesc = styles.MutedStyle

	height := len(options) + 6
	if showDetail {
		height = 2*len(options) + 6
	}

	l := list.New(items, delegate, 60, min(height, 20))
	l.Title = title
	l.Styles.Title = styles.HeaderStyle
	l.SetShowStatusBar(false)
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	return selectModel{list: l, selected: -1}
}

// Select lets the user pick one of options. An empty option list is
// reported as cancelled.
func Select(title string, options []Option) (SelectResult, error) {
	if len(options) == 0 {
		return SelectResult{Cancelled: true}, nil
	}

	p := tea.NewProgram(newSelectModel(title, options), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return SelectResult{}, err
	}
	m := final.(selectModel)

	if m.cancelled || m.selected < 0 || m.selected >= len(options) {
		return SelectResult{Cancelled: true}, nil
	}
	return SelectResult{
		Value: options[m.selected].Label,
		Index: m.selected,
	}, nil
}
