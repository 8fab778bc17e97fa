package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/linegate/internal/events"
)

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL     string
	adminToken string

	width  int
	height int

	// State
	health   HealthState
	stats    PipelineStats
	eventLog []events.Event

	// Live indicators
	ticker  Ticker
	spinner Spinner

	// UI state
	theme    Theme
	messages table.Model

	// Communication
	hubEvents chan events.Event

	// Error display
	lastError string
}

// New creates a new watch TUI model. apiURL is the gateway base URL.
func New(apiURL, adminToken string) *Model {
	return &Model{
		apiURL:     apiURL,
		adminToken: adminToken,
		eventLog:   make([]events.Event, 0),
		hubEvents:  make(chan events.Event, 100),
		ticker:     NewTicker(),
		spinner:    NewSpinner(),
		theme:      NewDefaultTheme(),
		messages:   newMessageTable(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.adminToken, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.apiURL) },
		func() tea.Msg { return fetchRecent(m.apiURL, m.adminToken) },
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.messages.SetWidth(m.width - 6)

	case tickMsg:
		m.ticker.Tick()
		m.spinner.Decay()
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case eventMsg:
		e := events.Event(msg)

		// Newest first.
		m.eventLog = append([]events.Event{e}, m.eventLog...)
		if len(m.eventLog) > 50 {
			m.eventLog = m.eventLog[:50]
		}

		m.spinner.OnEvent()
		m.countEvent(e)

		m.health.Connected = true
		m.lastError = ""

		cmds := []tea.Cmd{receiveNextEvent(m.hubEvents)}
		// Persisted messages change the recent table.
		if e.Type == events.MessageStored || e.Type == events.MessageFetched {
			cmds = append(cmds, func() tea.Msg { return fetchRecent(m.apiURL, m.adminToken) })
		}
		return m, tea.Batch(cmds...)

	case healthMsg:
		m.health.Status = msg.Status
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""

		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL)
		})

	case recentMsg:
		m.messages.SetRows(messageRowsToTable(msg))

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "event stream disconnected, reconnecting..."
		// Reconnect after a short delay; the existing receiveNextEvent
		// goroutine is still waiting on the channel and will pick up
		// events from the new subscription.
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.adminToken, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		// Retry health in 5s
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL)
		})
	}

	m.messages, cmd = m.messages.Update(msg)
	return m, cmd
}

func (m *Model) countEvent(e events.Event) {
	switch e.Type {
	case events.MessageReceived:
		m.stats.Received++
	case events.MessageStored:
		m.stats.Stored++
	case events.MessageFetched:
		m.stats.Fetched++
	case events.MessageFailed:
		m.stats.Failed++
	case events.ReplySent:
		m.stats.Replies++
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing watch..."
	}

	header := renderHeader(m.health, m.stats, m.ticker, m.spinner, m.theme, m.width)

	messagesPanel := m.theme.Border.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("RECENT MESSAGES"),
			m.messages.View(),
		),
	)

	eventStream := renderEventStream(m.eventLog, m.theme, m.width)

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" [q] Quit • [↑/↓] Scroll Messages")

	parts := []string{header, messagesPanel, eventStream}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
