package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stedentabel/libs/cities"
	"stedentabel/libs/viewstate"
)

const (
	tuiDefaultTableHeight = 20
	tuiChromeHeight       = 7
	tuiColumnScale        = 10
)

var (
	tuiAccent      = lipgloss.Color("#5A9BD5")
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(tuiAccent)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true)
	tuiFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B8794"))
	tuiTableStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

// tuiSortKeys maps the number keys to table columns.
var tuiSortKeys = map[string]cities.SortKey{
	"1": cities.SortByCity,
	"2": cities.SortByAdminName,
	"3": cities.SortByPopulation,
}

type loadDoneMsg struct {
	err error
}

type tuiModel struct {
	ctx        context.Context
	controller *viewstate.Controller
	errc       <-chan error

	search  textinput.Model
	table   table.Model
	spinner spinner.Model

	width  int
	height int
	state  viewstate.State
}

// newTUIModel starts the initial load, so the first frame already shows the
// loading overlay.
func newTUIModel(ctx context.Context, controller *viewstate.Controller) tuiModel {
	ti := textinput.New()
	ti.Placeholder = pageSearchPlaceholder
	ti.Prompt = "Search: "
	ti.PromptStyle = tuiTitleStyle
	ti.CharLimit = 64
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(tuiAccent).Bold(true)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(tuiAccent)

	tbl := table.New(
		table.WithColumns(tuiColumns(cities.SortByCity, cities.Ascending)),
		table.WithFocused(true),
		table.WithHeight(tuiDefaultTableHeight),
		table.WithStyles(styles),
		table.WithKeyMap(tuiTableKeyMap()),
	)

	m := tuiModel{
		ctx:        ctx,
		controller: controller,
		errc:       controller.Start(ctx),
		search:     ti,
		table:      tbl,
		spinner:    s,
	}
	m.refresh()
	return m
}

// tuiTableKeyMap leaves letters to the search input.
func tuiTableKeyMap() table.KeyMap {
	km := table.DefaultKeyMap()
	km.LineUp = key.NewBinding(key.WithKeys("up"))
	km.LineDown = key.NewBinding(key.WithKeys("down"))
	km.PageUp = key.NewBinding(key.WithKeys("pgup"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))
	km.GotoTop = key.NewBinding(key.WithKeys("home"))
	km.GotoBottom = key.NewBinding(key.WithKeys("end"))
	return km
}

func tuiColumns(active cities.SortKey, dir cities.Direction) []table.Column {
	columns := make([]table.Column, 0, len(tableColumns))
	for _, col := range tableColumns {
		title := col.Label
		if col.Key == active {
			arrow := sortArrowAscending
			if dir == cities.Descending {
				arrow = sortArrowDescending
			}
			title += " " + arrow
		}
		columns = append(columns, table.Column{Title: title, Width: col.WidthPx / tuiColumnScale})
	}
	return columns
}

func waitForLoad(errc <-chan error) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: <-errc}
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForLoad(m.errc))
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-tuiChromeHeight, 3))
		return m, nil

	case loadDoneMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			if m.state.Loading {
				return m, nil
			}
			m.errc = m.controller.Start(m.ctx)
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, waitForLoad(m.errc))
		case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
		if sortKey, ok := tuiSortKeys[msg.String()]; ok {
			m.controller.ToggleSort(sortKey)
			m.refresh()
			return m, nil
		}

		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			m.controller.Search(m.search.Value())
			m.refresh()
			m.table.GotoTop()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// refresh copies the controller state into the widgets.
func (m *tuiModel) refresh() {
	m.state = m.controller.Snapshot()
	m.table.SetColumns(tuiColumns(m.state.SortKey, m.state.Direction))

	rows := make([]table.Row, 0, len(m.state.Displayed))
	for _, city := range m.state.Displayed {
		rows = append(rows, table.Row{city.Name, city.AdminName, strconv.FormatInt(city.Population, 10)})
	}
	m.table.SetRows(rows)
}

func (m tuiModel) View() string {
	header := tuiTitleStyle.Render(pageTitle) + "\n" + m.search.View() + "\n\n"

	var body string
	if m.state.Loading {
		overlay := m.spinner.View() + " Loading cities..."
		if m.width > 0 && m.height > 0 {
			body = lipgloss.Place(m.width, max(m.height-tuiChromeHeight, 3), lipgloss.Center, lipgloss.Center, overlay)
		} else {
			body = overlay
		}
	} else {
		body = tuiTableStyle.Render(m.table.View())
	}

	status := fmt.Sprintf("%d of %d cities", len(m.state.Displayed), len(m.state.All))
	if m.state.Err != nil {
		status = tuiErrorStyle.Render(pageLoadFailedMessage + " " + m.state.Err.Error())
	}
	footer := tuiFooterStyle.Render("1/2/3 sort · ctrl+r reload · esc quit")

	return header + body + "\n" + status + "\n" + footer + "\n"
}
