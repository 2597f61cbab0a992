package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"cryptointel/internal/detail"
	"cryptointel/internal/views"
)

type focus int

const (
	focusTable focus = iota
	focusSearch
	focusChart
)

// Action is a state transition requested by an input event.
type Action int

const (
	ActNone Action = iota
	ActQuit
	ActRefresh
	ActSwitchView
	ActNextView
	ActPrevView
	ActFocusSearch
	ActFocusTable
	ActCycleChart
	ActMoveRow
	ActOpenRow
	ActMoveChart
	ActOpenChart
	ActCloseModal
)

// Intent is an Action plus its argument.
type Intent struct {
	Action Action
	View   views.Name
	Delta  int
}

// keyIntent maps a key press (outside the search box) to an intent. It reads
// only its arguments.
func keyIntent(key string, f focus, modalOpen bool) Intent {
	if modalOpen {
		switch key {
		case "ctrl+c":
			return Intent{Action: ActQuit}
		case "esc", "x", "enter", "q":
			return Intent{Action: ActCloseModal}
		}
		return Intent{}
	}

	switch key {
	case "q", "ctrl+c":
		return Intent{Action: ActQuit}
	case "r":
		return Intent{Action: ActRefresh}
	case "/":
		return Intent{Action: ActFocusSearch}
	case "1", "2", "3":
		i := int(key[0] - '1')
		if i < len(views.All) {
			return Intent{Action: ActSwitchView, View: views.All[i]}
		}
	case "tab":
		return Intent{Action: ActNextView}
	case "shift+tab":
		return Intent{Action: ActPrevView}
	case "c":
		return Intent{Action: ActCycleChart}
	case "esc":
		if f == focusChart {
			return Intent{Action: ActFocusTable}
		}
	case "up", "k":
		if f == focusChart {
			return Intent{Action: ActMoveChart, Delta: -1}
		}
		return Intent{Action: ActMoveRow, Delta: -1}
	case "down", "j":
		if f == focusChart {
			return Intent{Action: ActMoveChart, Delta: 1}
		}
		return Intent{Action: ActMoveRow, Delta: 1}
	case "left", "h":
		if f == focusChart {
			return Intent{Action: ActMoveChart, Delta: -1}
		}
	case "right", "l":
		if f == focusChart {
			return Intent{Action: ActMoveChart, Delta: 1}
		}
	case "enter":
		if f == focusChart {
			return Intent{Action: ActOpenChart}
		}
		return Intent{Action: ActOpenRow}
	}
	return Intent{}
}

// mouseIntent closes an open modal on a left press outside its bounds.
func mouseIntent(msg tea.MouseMsg, modal *detail.Modal) Intent {
	if !modal.Visible() {
		return Intent{}
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return Intent{}
	}
	if modal.Contains(msg.X, msg.Y) {
		return Intent{}
	}
	return Intent{Action: ActCloseModal}
}
