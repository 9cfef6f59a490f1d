package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/metrics"
	"github.com/san-kum/jetsim/internal/sweep"
)

const (
	canvasWidth   = 48
	canvasHeight  = 20
	previewCycles = 3
	curvePoints   = 40
)

// TunableParams are the parameters the explorer cycles through.
var TunableParams = []string{"stroke_ratio", "tau_r", "sigma", "k_h", "beta", "gamma", "cavity_compliance"}

// Model is the bubbletea model of the explorer. Every parameter change
// re-runs a short simulation and redraws the p-V loop next to the
// surrogate impulse curve.
type Model struct {
	params   jet.Parameters
	initial  jet.Parameters
	selected int
	result   *jet.Result
	err      error
	canvas   *Canvas
	theme    Theme
	styles   styles
	showHelp bool
}

// NewModel starts the explorer from p. Runs longer than a few cycles are
// shortened so each redraw stays interactive.
func NewModel(p jet.Parameters) Model {
	if p.DurationCycles > previewCycles {
		p.DurationCycles = previewCycles
	}
	theme := Themes[0]
	m := Model{
		params:  p,
		initial: p,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		theme:   theme,
		styles:  newStyles(theme),
	}
	m.recompute()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		m.selected = (m.selected + 1) % len(TunableParams)
	case "shift+tab", "left", "h":
		m.selected = (m.selected + len(TunableParams) - 1) % len(TunableParams)
	case "up", "k":
		m.adjustParam(1.05)
	case "down", "j":
		m.adjustParam(0.95)
	case "r":
		m.params = m.initial
		m.recompute()
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.styles = newStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// Params returns the parameters currently shown.
func (m Model) Params() jet.Parameters { return m.params }

// Selected returns the key of the parameter the arrows adjust.
func (m Model) Selected() string { return TunableParams[m.selected] }

// Result returns the last simulation, or nil when it failed.
func (m Model) Result() *jet.Result { return m.result }

func (m *Model) adjustParam(factor float64) {
	key := TunableParams[m.selected]
	val, err := m.params.Param(key)
	if err != nil {
		return
	}
	_ = m.params.SetParam(key, val*factor)
	m.recompute()
}

func (m *Model) recompute() {
	m.canvas.Clear()
	m.result, m.err = jet.SimulateCycle(m.params)
	if m.err != nil {
		m.result = nil
		return
	}
	tr := m.result.Trace
	start := int(metrics.SteadyFraction * float64(tr.Len()))
	m.canvas.PlotXY(tr.Volume[start:], tr.Pressure[start:])
}

// surrogateCurve is the effective impulse over the stroke-ratio range at
// the current tau_R.
func (m Model) surrogateCurve() []float64 {
	table := sweep.RunEnvelope(sweep.Linspace(1, 8, curvePoints), []float64{m.params.TauR}, m.params.Envelope)
	return table.Impulses()[0]
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	canvasView := st.canvas.Render("p-V loop (steady window)\n" + m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render("SYNTHETIC JET") + "\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	if m.err != nil {
		s.WriteString(st.warning.Render(m.err.Error()) + "\n")
	} else {
		cm := m.result.Metrics
		row("Impulse", fmt.Sprintf("%.4e", cm.Impulse))
		row("Raw impulse", fmt.Sprintf("%.4e", cm.ImpulseRaw))
		row("Loop area", fmt.Sprintf("%.4e", cm.LoopArea))
		row("Efficiency", fmt.Sprintf("%.3f", cm.Efficiency))
		row("Gain", fmt.Sprintf("%.3f", cm.Gain))
		row("Reynolds", fmt.Sprintf("%.0f", m.result.Reynolds))
		row("Thrust", Sparkline(m.result.Trace.Thrust, 30))
		for _, d := range m.result.Diagnostics {
			s.WriteString(st.warning.Render("! "+d.String()) + "\n")
		}
	}

	chart := asciigraph.Plot(m.surrogateCurve(),
		asciigraph.Height(6), asciigraph.Width(36),
		asciigraph.Caption(fmt.Sprintf("surrogate impulse vs S (1..8), tau_R=%.3g", m.params.TauR)))
	s.WriteString(st.graph.Render(chart) + "\n")

	s.WriteString("PARAMETERS\n")
	for i, k := range TunableParams {
		val, _ := m.params.Param(k)
		initial, _ := m.initial.Param(k)
		line := fmt.Sprintf("%-18s %s %.4g", k, ParamBar(val, initial, 10), val)
		if i == m.selected {
			s.WriteString(st.activeParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.UnsetWidth().Render(line) + "\n")
		}
	}
	s.WriteString(st.help.Render("─────────────────────\nTAB:Next ↑↓:Tune R:Reset\nT:Theme  ?:Help   Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Tab/→    - Next parameter           ║
║  S-Tab/←  - Previous parameter       ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  R        - Reset parameters         ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run starts the explorer on the alternate screen.
func Run(p jet.Parameters) error {
	_, err := tea.NewProgram(NewModel(p), tea.WithAltScreen()).Run()
	return err
}
