// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the latency monitor
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

// Control carries user requests from the TUI back to the playback loop
type Control struct {
	Reset chan struct{}
	Quit  chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Reset: make(chan struct{}, 1),
		Quit:  make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		phase:   latency.PhaseFrozen,
		history: make([]float64, 0, historyLen),
		control: ctrl,
	}
}

// Run creates the TUI program. The caller starts it and sends StatusMsg
// values with Program.Send.
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
