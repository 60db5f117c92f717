// Package monitor renders a live pin-watch TUI fed by the client's alert
// callbacks.
package monitor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pigwire/pigwire/internal/client"
)

// AlertConn is the slice of the client surface the monitor needs.
// *client.Conn satisfies it.
type AlertConn interface {
	RegisterAlert(gpio int, fn client.AlertFunc) error
	UnregisterAlert(gpio int) error
	Done() <-chan struct{}
	Err() error
}

// levelMsg is one dispatched alert, forwarded into the bubbletea loop.
type levelMsg struct {
	gpio  int
	level int
	tick  uint32
}

// connDeadMsg reports that the connection terminated underneath the UI.
type connDeadMsg struct{ err error }

// pinState is the rendered state of one watched pin.
type pinState struct {
	level      int // -1 until the first event
	tick       uint32
	changes    int
	lastChange time.Time
}

type keyMap struct {
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Quit}} }

var defaultKeys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the bubbletea model for the watch screen.
type Model struct {
	addr   string
	pins   []int
	states map[int]*pinState

	conn   AlertConn
	events chan levelMsg

	keys keyMap
	help help.Model

	err      error
	quitting bool
}

// New registers alerts for the given pins and returns the model. The
// callback only forwards into a buffered channel; if the UI falls behind,
// events are dropped rather than blocking the connection's listener.
func New(addr string, pins []int, conn AlertConn) (*Model, error) {
	m := &Model{
		addr:   addr,
		pins:   append([]int(nil), pins...),
		states: make(map[int]*pinState),
		conn:   conn,
		events: make(chan levelMsg, 64),
		keys:   defaultKeys,
		help:   help.New(),
	}
	sort.Ints(m.pins)

	for _, pin := range m.pins {
		m.states[pin] = &pinState{level: -1}
		pin := pin
		err := conn.RegisterAlert(pin, func(gpio, level int, tick uint32) {
			select {
			case m.events <- levelMsg{gpio: gpio, level: level, tick: tick}:
			default:
			}
		})
		if err != nil {
			return nil, fmt.Errorf("watch GPIO %d: %w", pin, err)
		}
	}
	return m, nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.waitForDeath())
}

// waitForEvent turns the next alert into a tea message.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// waitForDeath resolves when the connection dies for any reason.
func (m *Model) waitForDeath() tea.Cmd {
	return func() tea.Msg {
		<-m.conn.Done()
		return connDeadMsg{err: m.conn.Err()}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}

	case levelMsg:
		if st, ok := m.states[msg.gpio]; ok {
			st.level = msg.level
			st.tick = msg.tick
			st.changes++
			st.lastChange = time.Now()
		}
		return m, m.waitForEvent()

	case connDeadMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pigwire watch — " + m.addr))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-7s %-8s %-12s %s", "GPIO", "LEVEL", "CHANGES", "TICK", "LAST CHANGE")))
	b.WriteString("\n")

	for _, pin := range m.pins {
		st := m.states[pin]
		b.WriteString(renderPin(pin, st))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("connection lost: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func renderPin(pin int, st *pinState) string {
	var level string
	switch st.level {
	case client.LevelHigh:
		level = pinHighStyle.Render("● HIGH")
	case client.LevelLow:
		level = pinLowStyle.Render("○ LOW")
	case client.LevelTimeout:
		level = pinTimeoutStyle.Render("◌ WDOG")
	default:
		level = pinLowStyle.Render("- idle")
	}

	last := "-"
	if !st.lastChange.IsZero() {
		last = st.lastChange.Format("15:04:05.000")
	}

	return fmt.Sprintf("%-6d %-16s %-8d %-12d %s", pin, level, st.changes, st.tick, last)
}

// Run drives the TUI until quit or connection loss, then unregisters the
// watched pins (best effort: the connection may already be gone).
func Run(addr string, pins []int, conn AlertConn) error {
	m, err := New(addr, pins, conn)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}

	for _, pin := range m.pins {
		_ = conn.UnregisterAlert(pin)
	}
	return m.err
}
