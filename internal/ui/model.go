// ABOUTME: Bubbletea model for the latency monitor TUI
// ABOUTME: Holds corrector state pushed from the playback loop and renders it
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

// Model represents the TUI state
type Model struct {
	// Session
	sessionID string
	backend   string

	// Source
	title      string
	sampleRate int
	channels   int
	bitDepth   int

	// Device
	deviceName string
	transport  latency.TransportKind
	hintSecs   float64
	hasHint    bool
	initialSec float64

	// Corrector
	latencySecs float64
	rawSecs     float64
	estimateSec float64
	phase       latency.Phase
	updates     uint64
	rateLimited uint64
	hasLatency  bool

	// Playback
	playheadSecs  float64
	bufferedMs    int
	calibrationMs float64

	history []float64

	showDebug bool
	control   *Control

	width  int
	height int
}

const historyLen = 40

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderSource())
	b.WriteString(m.renderLatency())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	session := m.sessionID
	if len(session) > 8 {
		session = session[:8]
	}
	return fmt.Sprintf(`┌─ Resonate Latency Monitor ───────────────────────────┐
│ Session: %-12s Backend: %-19s │
├──────────────────────────────────────────────────────┤
`, session, m.backend)
}

func (m Model) renderSource() string {
	if m.sampleRate == 0 {
		return "│ No stream                                            │\n"
	}

	s := fmt.Sprintf("│ Source: %-44s │\n", truncate(m.title, 44))
	s += fmt.Sprintf("│ Format: %-44s │\n",
		fmt.Sprintf("%dHz %s %d-bit", m.sampleRate, channelName(m.channels), m.bitDepth))

	device := m.deviceName
	if device == "" {
		device = "(default)"
	}
	s += fmt.Sprintf("│ Device: %-44s │\n", truncate(fmt.Sprintf("%s [%s]", device, m.transport), 44))
	return s
}

func (m Model) renderLatency() string {
	hint := "none"
	if m.hasHint {
		hint = fmt.Sprintf("%.1fms", m.hintSecs*1000)
	}

	current := "waiting"
	if m.hasLatency {
		current = fmt.Sprintf("%.1fms", m.latencySecs*1000)
	}

	s := "│                                                      │\n"
	s += fmt.Sprintf("│ Latency: %-10s Phase: %-8s Updates: %-6d │\n", current, m.phase, m.updates)
	s += fmt.Sprintf("│ Hint:    %-10s Initial: %-24s │\n", hint, fmt.Sprintf("%.1fms", m.initialSec*1000))
	s += fmt.Sprintf("│ Raw:     %-10s Buffered: %-23s │\n",
		fmt.Sprintf("%.1fms", m.rawSecs*1000), fmt.Sprintf("%dms", m.bufferedMs))
	s += fmt.Sprintf("│ Playhead: %-42s │\n", fmt.Sprintf("%.2fs", m.playheadSecs))
	s += fmt.Sprintf("│ [%s] │\n", sparkline(m.history, 50))
	return s
}

func (m Model) renderDebug() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ DEBUG:                                               │
│   Estimate:     %-36s │
│   Rate limited: %-36d │
│   Calibration:  %-36s │
`, fmt.Sprintf("%.3fms", m.estimateSec*1000), m.rateLimited, fmt.Sprintf("%+.1fms", m.calibrationMs))
}

func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ r:Reset estimator  d:Debug  q:Quit                   │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "r":
		m.history = m.history[:0]
		if m.control != nil {
			select {
			case m.control.Reset <- struct{}{}:
			default:
			}
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.SessionID != "" {
		m.sessionID = msg.SessionID
	}
	if msg.Backend != "" {
		m.backend = msg.Backend
	}
	if msg.SampleRate != 0 {
		m.title = msg.Title
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Hint != nil {
		m.deviceName = msg.DeviceName
		m.hasHint = true
		m.hintSecs = msg.Hint.Seconds
		m.transport = msg.Hint.Transport
		m.initialSec = msg.InitialSecs
	}
	if msg.CalibrationSecs != nil {
		m.calibrationMs = *msg.CalibrationSecs * 1000
	}
	if msg.Decision != nil {
		d := msg.Decision
		m.latencySecs = d.Seconds
		m.estimateSec = d.EstimateSecs
		m.rawSecs = d.RawSecs
		m.phase = d.Phase
		m.updates = d.UpdateCount
		m.hasLatency = true
		if d.RateLimited {
			m.rateLimited++
		}
		m.history = append(m.history, d.Seconds)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
	}
	if msg.Buffered != 0 || msg.PlayheadSecs != 0 {
		m.bufferedMs = msg.Buffered
		m.playheadSecs = msg.PlayheadSecs
	}
}

// StatusMsg updates TUI state. Zero or nil fields are left unchanged.
type StatusMsg struct {
	SessionID string
	Backend   string

	Title      string
	SampleRate int
	Channels   int
	BitDepth   int

	DeviceName  string
	Hint        *latency.Hint
	InitialSecs float64

	CalibrationSecs *float64
	Decision        *latency.Decision

	Buffered     int // milliseconds queued in the output
	PlayheadSecs float64
}

func sparkline(values []float64, width int) string {
	const levels = "▁▂▃▄▅▆▇█"
	runes := []rune(levels)

	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := 0.0, 0.0
	for i, v := range values {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(runes)-1))
		}
		b.WriteRune(runes[idx])
	}
	for i := len(values); i < width; i++ {
		b.WriteRune(' ')
	}
	return b.String()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
