// Package tui provides a terminal live view that replays a completed run
// as an animated temperature trace.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/nholford/ebsim/internal/sim"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Italic(true)
)

type tickMsg time.Time

// Model replays a run result frame by frame.
type Model struct {
	title  string
	result *sim.Result

	idx     int
	playing bool
	speed   int // grid points per tick
	width   int
	height  int
}

// New returns a live replay of the given result.
func New(title string, result *sim.Result) Model {
	return Model{
		title:   title,
		result:  result,
		idx:     2, // PlotMany needs at least two samples
		playing: true,
		speed:   1,
		width:   80,
		height:  24,
	}
}

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tickMsg:
		if m.playing && m.idx < len(m.result.Outputs) {
			m.idx += m.speed
			if m.idx > len(m.result.Outputs) {
				m.idx = len(m.result.Outputs)
			}
		}
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "+", "=":
			if m.speed < 64 {
				m.speed *= 2
			}
		case "-":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "r":
			m.idx = 2
			m.playing = true
		}
	}
	return m, nil
}

func (m Model) View() string {
	outs := m.result.Outputs
	if len(outs) < 2 {
		return "not enough data to plot\n"
	}

	idx := m.idx
	if idx < 2 {
		idx = 2
	}
	if idx > len(outs) {
		idx = len(outs)
	}

	surface := m.result.SurfaceTemperature()[:idx]
	deep := m.result.LayerTemperature(1)[:idx]

	plotWidth := m.width - 12
	if plotWidth < 20 {
		plotWidth = 20
	}
	plotHeight := m.height - 8
	if plotHeight < 6 {
		plotHeight = 6
	}
	if plotHeight > 16 {
		plotHeight = 16
	}

	graph := asciigraph.PlotMany(
		[][]float64{surface, deep},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption("surface (red) / deep (blue) temperature anomaly, degC"),
	)

	last := outs[idx-1]
	status := fmt.Sprintf("x%d", m.speed)
	if !m.playing {
		status = pausedStyle.Render("paused")
	}

	header := titleStyle.Render(m.title) + "  " + labelStyle.Render("t=") +
		valueStyle.Render(fmt.Sprintf("%.1f yr", last.State.Time)) + "  " + status
	stats := fmt.Sprintf("%s %s  %s %s  %s %s",
		labelStyle.Render("T1:"), valueStyle.Render(fmt.Sprintf("%+.3f degC", last.State.Surface())),
		labelStyle.Render("N:"), valueStyle.Render(fmt.Sprintf("%+.3f W/m2", last.TOAFlux)),
		labelStyle.Render("F:"), valueStyle.Render(fmt.Sprintf("%+.3f W/m2", last.Forcing)),
	)
	hints := hintStyle.Render("space pause  +/- speed  r restart  q quit")

	return header + "\n\n" + graph + "\n\n" + stats + "\n" + hints + "\n"
}

// Run starts the replay UI and blocks until the user quits.
func Run(title string, result *sim.Result) error {
	_, err := tea.NewProgram(New(title, result), tea.WithAltScreen()).Run()
	return err
}
