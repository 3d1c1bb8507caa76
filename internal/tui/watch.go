package tui

// Live stats dashboard: polls the server's metrics endpoint and renders the
// counters in place.

import (
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

type statsMsg map[string]int

type statsErrMsg struct{ err error }

// WatchModel is the bubbletea model behind `mbsim watch`.
type WatchModel struct {
	addr     string
	interval time.Duration
	styles   Styles

	stats   map[string]int
	err     error
	updated time.Time
}

// NewWatchModel creates a dashboard polling the metrics endpoint at addr.
func NewWatchModel(addr string, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = time.Second
	}
	return WatchModel{
		addr:     addr,
		interval: interval,
		styles:   DefaultStyles(),
	}
}

// Init starts the first poll immediately.
func (m WatchModel) Init() tea.Cmd {
	return fetchStats(m.addr)
}

// Update handles polling results, the tick schedule, and quit keys.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case statsMsg:
		m.stats = msg
		m.err = nil
		m.updated = time.Now()
		return m, tick(m.interval)

	case statsErrMsg:
		m.err = msg.err
		return m, tick(m.interval)

	case tickMsg:
		return m, fetchStats(m.addr)
	}
	return m, nil
}

// View renders the counter box.
func (m WatchModel) View() string {
	s := m.styles

	var body strings.Builder
	body.WriteString(s.Title.Render("mbsim — " + m.addr))
	body.WriteString("\n\n")

	if m.err != nil {
		body.WriteString(s.Err.Render("metrics endpoint unreachable"))
		body.WriteString("\n")
		body.WriteString(s.Dim.Render(m.err.Error()))
	} else if m.stats == nil {
		body.WriteString(s.Dim.Render("waiting for first sample..."))
	} else {
		keys := make([]string, 0, len(m.stats))
		for k := range m.stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			label := strings.TrimPrefix(k, "mbsim_")
			body.WriteString(fmt.Sprintf("%s %s\n",
				s.Header.Render(fmt.Sprintf("%-26s", label)),
				s.Value.Render(strconv.Itoa(m.stats[k]))))
		}
		body.WriteString("\n")
		body.WriteString(s.Dim.Render("updated " + m.updated.Format("15:04:05")))
	}

	body.WriteString("\n")
	body.WriteString(s.Dim.Render("q to quit"))
	return s.Box.Render(body.String()) + "\n"
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchStats(addr string) tea.Cmd {
	return func() tea.Msg {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			return statsErrMsg{err: err}
		}
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		data, err := io.ReadAll(conn)
		if err != nil {
			return statsErrMsg{err: err}
		}
		stats, err := ParseMetrics(string(data))
		if err != nil {
			return statsErrMsg{err: err}
		}
		return statsMsg(stats)
	}
}

// ParseMetrics parses the plaintext "name value" lines of the metrics
// endpoint into a counter map.
func ParseMetrics(data string) (map[string]int, error) {
	stats := make(map[string]int)
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed metrics line %q", line)
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("malformed metrics value in %q: %w", line, err)
		}
		stats[fields[0]] = v
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("empty metrics response")
	}
	return stats, nil
}

// RunWatch runs the dashboard until the user quits.
func RunWatch(addr string, interval time.Duration) error {
	p := tea.NewProgram(NewWatchModel(addr, interval))
	_, err := p.Run()
	return err
}
