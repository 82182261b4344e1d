package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
)

const liveHistoryCapacity = 300

// TickUpdate is one coordinator tick pushed into the live view.
type TickUpdate struct {
	Tick   int
	Target [3]float64
	Pos    [][]float64
}

// Feed adapts the coordinator's observer hook to the live view. Pushes never
// block the run: when the view lags, updates are dropped.
type Feed struct {
	ch chan TickUpdate
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan TickUpdate, 64)}
}

func (f *Feed) OnTick(tick int, target [3]float64, truePos [][]float64) {
	pos := make([][]float64, len(truePos))
	for i, p := range truePos {
		pos[i] = append([]float64(nil), p...)
	}
	select {
	case f.ch <- TickUpdate{Tick: tick, Target: target, Pos: pos}:
	default:
	}
}

// Close signals the view that the run has finished.
func (f *Feed) Close() {
	close(f.ch)
}

type feedClosedMsg struct{}

// LiveModel is the bubbletea model showing each controller's distance to the
// active target as a scrolling chart.
type LiveModel struct {
	feed     *Feed
	names    []string
	slots    []int
	history  [][]float64
	target   [3]float64
	tick     int
	finished bool
}

func NewLive(feed *Feed, names []string, slots []int) LiveModel {
	return LiveModel{
		feed:    feed,
		names:   names,
		slots:   slots,
		history: make([][]float64, len(names)),
	}
}

func (m LiveModel) Init() tea.Cmd {
	return waitForTick(m.feed.ch)
}

func waitForTick(ch chan TickUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return u
	}
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case TickUpdate:
		m.tick = msg.Tick
		m.target = msg.Target
		for w, slot := range m.slots {
			if slot >= len(msg.Pos) {
				continue
			}
			m.history[w] = append(m.history[w], distance(msg.Pos[slot], msg.Target))
			if len(m.history[w]) > liveHistoryCapacity {
				m.history[w] = m.history[w][1:]
			}
		}
		return m, waitForTick(m.feed.ch)
	case feedClosedMsg:
		m.finished = true
	}
	return m, nil
}

func (m LiveModel) View() string {
	var b strings.Builder

	status := fmt.Sprintf("tick %d   target (%.2f, %.2f, %.2f)", m.tick, m.target[0], m.target[1], m.target[2])
	if m.finished {
		status += "   run complete"
	}
	b.WriteString(headerStyle.Render(status))
	b.WriteString("\n")

	for w, name := range m.names {
		if len(m.history[w]) < 2 {
			b.WriteString(labelStyle.Render(name) + " waiting for data\n")
			continue
		}
		chart := asciigraph.Plot(m.history[w],
			asciigraph.Height(5),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("%s distance to target", name)),
		)
		b.WriteString(chart)
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("q quit"))
	return b.String()
}

func distance(pos []float64, target [3]float64) float64 {
	var sum float64
	for i := 0; i < 3 && i < len(pos); i++ {
		d := pos[i] - target[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
