// Package tui renders the observability dashboard in the terminal.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xaenox/supportlens/internal/dashboard"
	"github.com/xaenox/supportlens/internal/models"
)

// Controller drives the dashboard state. *dashboard.Controller satisfies it.
type Controller interface {
	SetCategory(c models.Category)
	SetSearch(text string)
	Refresh()
	View() dashboard.ViewModel
	Updates() <-chan dashboard.ViewModel
}

// viewMsg carries a view model published by the controller.
type viewMsg struct {
	view dashboard.ViewModel
}

type Model struct {
	ctrl  Controller
	keys  KeyMap
	theme Theme

	search  textinput.Model
	spinner spinner.Model

	view      dashboard.ViewModel
	tabs      []models.Category
	tab       int
	searching bool
	cursor    int
	expanded  string

	width  int
	height int
}

func NewModel(ctrl Controller) Model {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "messages or responses"
	search.CharLimit = 200

	tabs := append([]models.Category{models.CategoryAll}, models.Categories...)

	return Model{
		ctrl:    ctrl,
		keys:    DefaultKeyMap,
		theme:   DefaultTheme,
		search:  search,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		view:    ctrl.View(),
		tabs:    tabs,
		width:   100,
		height:  40,
	}
}

// Init starts listening for controller updates and the loading spinner.
func (model Model) Init() tea.Cmd {
	return tea.Batch(waitForView(model.ctrl.Updates()), model.spinner.Tick)
}

// waitForView blocks until the controller publishes a new view model.
func waitForView(updates <-chan dashboard.ViewModel) tea.Cmd {
	return func() tea.Msg {
		view, ok := <-updates
		if !ok {
			return nil
		}
		return viewMsg{view: view}
	}
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil

	case viewMsg:
		model.view = message.view
		if model.cursor >= len(model.view.Traces) {
			model.cursor = max(len(model.view.Traces)-1, 0)
		}
		return model, waitForView(model.ctrl.Updates())

	case spinner.TickMsg:
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(message)
		return model, cmd

	case tea.KeyMsg:
		if model.searching {
			return model.handleSearchKeys(message)
		}
		return model.handleKeys(message)
	}
	return model, nil
}

func (model Model) handleKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.NextTab):
		model.selectTab((model.tab + 1) % len(model.tabs))

	case key.Matches(message, model.keys.PrevTab):
		model.selectTab((model.tab + len(model.tabs) - 1) % len(model.tabs))

	case key.Matches(message, model.keys.Search):
		model.searching = true
		return model, model.search.Focus()

	case key.Matches(message, model.keys.Refresh):
		model.ctrl.Refresh()

	case key.Matches(message, model.keys.Down):
		if model.cursor < len(model.view.Traces)-1 {
			model.cursor++
		}

	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}

	case key.Matches(message, model.keys.Expand):
		if model.cursor < len(model.view.Traces) {
			id := model.view.Traces[model.cursor].ID
			if model.expanded == id {
				model.expanded = ""
			} else {
				model.expanded = id
			}
		}
	}
	return model, nil
}

func (model Model) handleSearchKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.SearchDone):
		model.searching = false
		model.search.Blur()
		return model, nil

	case key.Matches(message, model.keys.SearchClear):
		model.searching = false
		model.search.Blur()
		if model.search.Value() != "" {
			model.search.SetValue("")
			model.ctrl.SetSearch("")
		}
		return model, nil
	}

	before := model.search.Value()
	var cmd tea.Cmd
	model.search, cmd = model.search.Update(message)
	if value := model.search.Value(); value != before {
		model.ctrl.SetSearch(value)
	}
	return model, cmd
}

func (model *Model) selectTab(index int) {
	model.tab = index
	model.cursor = 0
	model.expanded = ""
	model.ctrl.SetCategory(model.tabs[index])
}
