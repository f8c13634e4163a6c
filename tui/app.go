package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/benedict-erwin/ajq"
)

const (
	refreshInterval = 3 * time.Second
	clockInterval   = time.Second
)

const (
	tabQueues = iota
	tabKeys
)

var tabNames = []string{"Queues", "Keys"}

type tickMsg time.Time
type clockMsg time.Time

type queuesMsg struct {
	queues []Queue
	health Health
	err    error
}

type keysMsg struct {
	queue string
	keys  []ajq.KeyStats
	err   error
}

// Model is the bubbletea model for the ajq TUI.
type Model struct {
	client      *Client
	tab         int
	queues      queuesView
	keys        keysView
	health      Health
	width       int
	height      int
	lastErr     string
	lastRefresh time.Time
	now         time.Time
	message     string
	messageTTL  int // clock ticks left
}

// NewModel creates a new TUI model.
func NewModel(client *Client) Model {
	return Model{client: client, now: time.Now()}
}

// Run starts the TUI application.
func Run(client *Client) error {
	p := tea.NewProgram(NewModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchQueues(m.client), tickCmd(), clockCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clockMsg:
		m.now = time.Time(msg)
		if m.messageTTL > 0 {
			m.messageTTL--
			if m.messageTTL == 0 {
				m.message = ""
			}
		}
		return m, clockCmd()

	case tickMsg:
		return m, tea.Batch(tickCmd(), m.refresh())

	case queuesMsg:
		m.lastRefresh = time.Now()
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.health = msg.health
		m.queues.queues = msg.queues
		m.queues.clampCursor()
		m.keys.setQueues(msg.queues)
		if m.tab == tabKeys {
			return m, m.loadKeys()
		}
		return m, nil

	case keysMsg:
		if msg.queue != m.keys.selectedQueue() {
			return m, nil // stale response for a queue we moved away from
		}
		m.keys.err = msg.err
		if msg.err == nil {
			m.keys.keys = msg.keys
			m.keys.clampCursor()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) setMessage(s string) {
	m.message = s
	m.messageTTL = 5
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "shift+tab":
		m.tab = (m.tab + 1) % len(tabNames)
		return m, m.loadKeys()
	case "1":
		m.tab = tabQueues
		return m, nil
	case "2":
		m.tab = tabKeys
		return m, m.loadKeys()

	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "left", "h":
		if m.tab == tabKeys {
			m.keys.cycle(-1)
			return m, m.loadKeys()
		}
		return m, nil
	case "right", "l":
		if m.tab == tabKeys {
			m.keys.cycle(1)
			return m, m.loadKeys()
		}
		return m, nil

	case "enter":
		// jump from a keyed queue to its keys
		if q, ok := m.queues.selected(); ok && m.tab == tabQueues {
			if !q.Keyed {
				m.setMessage(fmt.Sprintf("%s is not keyed", q.Name))
				return m, nil
			}
			m.keys.selectQueue(q.Name)
			m.tab = tabKeys
			return m, m.loadKeys()
		}
		return m, nil

	case "f5", "r":
		m.setMessage("Refreshing...")
		return m, m.refresh()
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) {
	switch m.tab {
	case tabQueues:
		m.queues.cursor += delta
		m.queues.clampCursor()
	case tabKeys:
		m.keys.cursor += delta
		m.keys.clampCursor()
	}
}

func (m Model) refresh() tea.Cmd {
	cmds := []tea.Cmd{fetchQueues(m.client)}
	if m.tab == tabKeys {
		cmds = append(cmds, m.loadKeys())
	}
	return tea.Batch(cmds...)
}

func (m Model) loadKeys() tea.Cmd {
	if m.tab != tabKeys {
		return nil
	}
	if q := m.keys.selectedQueue(); q != "" {
		return fetchKeys(m.client, q)
	}
	return nil
}

func (m Model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("ajq monitor")
	status := mutedStyle.Render(m.now.Format("15:04:05"))
	if !m.lastRefresh.IsZero() {
		status += mutedStyle.Render(fmt.Sprintf("  updated %ds ago", int(m.now.Sub(m.lastRefresh).Seconds())))
	}
	if m.health != nil && !m.health.RedisOK() {
		status += "  " + errStyle.Render("redis "+m.health.Status())
	}
	b.WriteString(title + "  " + status + "\n\n")

	for i, name := range tabNames {
		style := inactiveTab
		if i == m.tab {
			style = activeTab
		}
		b.WriteString(style.Render(fmt.Sprintf(" %d %s ", i+1, name)))
	}
	b.WriteString("\n\n")

	// title, tabs, their blank lines, status bar and table header
	overhead := 8
	if m.message != "" {
		b.WriteString(infoStyle.Render(m.message) + "\n\n")
		overhead += 2
	}
	if m.lastErr != "" {
		b.WriteString(errStyle.Render("Error: "+m.lastErr) + "\n\n")
		overhead += 2
	}

	var help string
	switch m.tab {
	case tabQueues:
		maxRows := max(m.height-overhead, 3)
		b.WriteString(m.queues.render(m.width, maxRows, m.now))
		help = "tab/1-2: switch  ↑↓/jk: navigate  enter: keys  r/F5: refresh  q: quit"
	case tabKeys:
		b.WriteString(m.keys.header() + "\n")
		overhead += 2
		if m.keys.err != nil {
			b.WriteString(errStyle.Render(m.keys.err.Error()) + "\n")
			overhead++
		}
		b.WriteString("\n")
		maxRows := max(m.height-overhead, 3)
		b.WriteString(m.keys.render(m.width, maxRows))
		help = "tab/1-2: switch  ←→/hl: queue  ↑↓/jk: navigate  r/F5: refresh  q: quit"
	}

	if m.width > 0 {
		help = ansi.Truncate(help, m.width, "")
	}
	b.WriteString(statusBar.Render(help))

	// Pad to full height so a resize clears stale lines.
	output := b.String()
	if pad := m.height - 1 - strings.Count(output, "\n"); pad > 0 {
		output += strings.Repeat("\n", pad)
	}
	return output
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func fetchQueues(c *Client) tea.Cmd {
	return func() tea.Msg {
		health, err := c.Health()
		if err != nil {
			return queuesMsg{err: err}
		}
		queues, err := c.ListQueues()
		if err != nil {
			return queuesMsg{err: err}
		}
		return queuesMsg{queues: queues, health: health}
	}
}

func fetchKeys(c *Client, queue string) tea.Cmd {
	return func() tea.Msg {
		keys, err := c.ListKeys(queue)
		return keysMsg{queue: queue, keys: keys, err: err}
	}
}
