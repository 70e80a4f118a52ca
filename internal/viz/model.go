package viz

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/config"
	"github.com/san-kum/efield/internal/metrics"
	"github.com/san-kum/efield/internal/sim"
	"github.com/san-kum/efield/internal/storage"
	"github.com/san-kum/efield/internal/velocity"
	"gonum.org/v1/gonum/spatial/r2"
)

// World extent shown on the canvas, in field units.
const (
	WorldWidth  = 640.0
	WorldHeight = 480.0
)

const (
	cols           = 72
	rows           = 24
	trailCapacity  = 400
	energyCapacity = 200
	nudgeStep      = 5.0
	angleStep      = 15.0
	speedStep      = 0.5
	stopStep       = 1.0
)

type TickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// history keeps what the canvas draws between ticks: the recent path of
// each charge and the total energy.
type history struct {
	k      float64
	trails [][]r2.Vec
	energy []float64
}

func (h *history) OnTick(set charge.Set, t float64) {
	if len(h.trails) != len(set) {
		h.trails = make([][]r2.Vec, len(set))
	}
	for i, c := range set {
		if !c.IsMovable() {
			continue
		}
		h.trails[i] = append(h.trails[i], c.Pos())
		if len(h.trails[i]) > trailCapacity {
			h.trails[i] = h.trails[i][1:]
		}
	}
	h.energy = append(h.energy, metrics.Kinetic(set)+metrics.Potential(set, h.k))
	if len(h.energy) > energyCapacity {
		h.energy = h.energy[1:]
	}
}

func (h *history) reset() {
	h.trails = nil
	h.energy = nil
}

// Model is the live front-end. It owns the scheduler: every TickMsg drives
// exactly one Simulator.Tick.
type Model struct {
	sim      *sim.Simulator
	cfg      *config.Config
	store    *storage.Store
	path     string
	interval time.Duration
	canvas   *Canvas
	hist     *history
	selected *charge.Charge
	theme    Theme
	styles   styles
	status   string
	err      error
	showHelp bool
}

// NewModel wraps s. Arrangements are saved through store to path.
func NewModel(s *sim.Simulator, cfg *config.Config, store *storage.Store, path string) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if path == "" {
		path = "arrangement" + storage.Ext
	}
	hist := &history{k: s.Engine().K}
	s.AddObserver(hist)

	theme := ThemeMinimal
	return Model{
		sim:      s,
		cfg:      cfg,
		store:    store,
		path:     path,
		interval: time.Duration(cfg.TickMs) * time.Millisecond,
		canvas:   NewCanvas(cols, rows),
		hist:     hist,
		theme:    theme,
		styles:   newStyles(theme),
	}
}

func (m Model) Init() tea.Cmd {
	return tick(m.interval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case TickMsg:
		if err := m.sim.Tick(); err != nil {
			m.err = err
		}
		return m, tick(m.interval)
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	m.status = ""
	switch key {
	case "q", "ctrl+c":
		m.sim.Close()
		return m, tea.Quit
	case " ":
		if !m.sim.State().Running() {
			m.hist.reset()
			m.err = nil
		}
		m.report(m.sim.StartPause())
	case "s":
		m.sim.Stop()
	case "r":
		m.sim.Reset()
		m.hist.reset()
	case "tab":
		m.cycleSelection()
	case "left":
		m.nudge(-1, 0)
	case "right":
		m.nudge(1, 0)
	case "up":
		m.nudge(0, -1)
	case "down":
		m.nudge(0, 1)
	case "f":
		sp := float64(m.cfg.Grid.Spacing)
		c, err := m.sim.AddFixed(0, sp, sp)
		m.report(err)
		if c != nil {
			m.selected = c
		}
	case "m":
		sp := float64(m.cfg.Grid.Spacing)
		c, err := m.sim.AddMoveable(0, sp, sp, 0, 0)
		m.report(err)
		if c != nil {
			m.selected = c
		}
	case "[":
		m.adjustVelocity(0, -angleStep)
	case "]":
		m.adjustVelocity(0, angleStep)
	case "<":
		m.adjustVelocity(-speedStep, 0)
	case ">":
		m.adjustVelocity(speedStep, 0)
	case ",":
		m.adjustStop(-stopStep)
	case ".":
		m.adjustStop(stopStep)
	case "+", "=":
		m.adjustCharge(1)
	case "-", "_":
		m.adjustCharge(-1)
	case "x":
		if c := m.selection(); c != nil {
			if err := m.sim.Remove(c); err != nil {
				m.report(err)
			} else {
				m.selected = nil
			}
		}
	case "c":
		if err := m.sim.Clear(); err != nil {
			m.report(err)
		} else {
			m.selected = nil
			m.hist.reset()
		}
	case "g":
		m.cfg.Grid.Enabled = !m.cfg.Grid.Enabled
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "w":
		m.save()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, sim.ErrRunning):
		m.status = "stop the run before editing"
	default:
		m.status = err.Error()
	}
}

// selection returns the selected charge if it is still in the set.
func (m *Model) selection() *charge.Charge {
	if m.selected == nil || m.sim.Charges().Index(m.selected) < 0 {
		m.selected = nil
	}
	return m.selected
}

func (m *Model) cycleSelection() {
	set := m.sim.Charges()
	if len(set) == 0 {
		m.selected = nil
		return
	}
	i := set.Index(m.selection())
	m.selected = set[(i+1)%len(set)]
}

func (m *Model) nudge(dx, dy float64) {
	c := m.selection()
	if c == nil {
		return
	}
	step := nudgeStep
	if m.cfg.Grid.Enabled {
		step = float64(m.cfg.Grid.Spacing)
	}
	p := c.Pos()
	x, y := m.cfg.Grid.Snap(p.X+dx*step, p.Y+dy*step)
	m.report(m.sim.Drag(c, x, y))
}

func (m *Model) adjustCharge(delta float64) {
	if c := m.selection(); c != nil {
		m.report(m.sim.SetCharge(c, c.Q()+delta))
	}
}

// adjustVelocity edits the selected movable charge's initial velocity in
// the user's polar form.
func (m *Model) adjustVelocity(dMag, dAngle float64) {
	c := m.selection()
	if c == nil || !c.IsMovable() {
		return
	}
	v := c.Vel0()
	u := velocity.ToUser(v.X, v.Y)
	mag := max(u.Mag+dMag, 0)
	dx, dy := velocity.FromUserPolar(mag, u.Angle+dAngle)
	m.report(m.sim.SetInitialVelocity(c, dx, dy))
}

// adjustStop moves the stop time by delta seconds. Stepping below zero
// clears it.
func (m *Model) adjustStop(delta float64) {
	next := delta
	if st := m.sim.StopTime(); st != nil {
		next = *st + delta
	} else if delta < 0 {
		return
	}
	if next < 0 {
		m.report(m.sim.SetStopTime(nil))
		return
	}
	m.report(m.sim.SetStopTime(&next))
}

func (m *Model) save() {
	if m.store == nil {
		return
	}
	arr := &storage.Arrangement{StopTime: m.sim.StopTime(), Charges: m.sim.Snapshot()}
	path, err := m.store.SaveArrangement(m.path, arr)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.path = path
	m.status = "saved " + path
}

func project(p r2.Vec) (int, int) {
	return int(p.X / WorldWidth * cols * 2), int(p.Y / WorldHeight * rows * 4)
}

func (m *Model) draw() {
	m.canvas.Clear()

	if m.cfg.Grid.Enabled {
		sp := float64(m.cfg.Grid.Spacing)
		for gx := sp; gx < WorldWidth; gx += sp {
			for gy := sp; gy < WorldHeight; gy += sp {
				m.canvas.Set(project(r2.Vec{X: gx, Y: gy}))
			}
		}
	}

	for _, trail := range m.hist.trails {
		for k := 1; k < len(trail); k++ {
			x0, y0 := project(trail[k-1])
			x1, y1 := project(trail[k])
			m.canvas.DrawLine(x0, y0, x1, y1)
		}
	}

	sel := m.selection()
	for _, c := range m.sim.Charges() {
		glyph := '■'
		if c.IsMovable() {
			glyph = '●'
		}
		style := chargeStyle(c.Color())
		if c == sel {
			style = style.Reverse(true)
		}
		x, y := project(c.Pos())
		m.canvas.Mark(x, y, glyph, style)
	}
}

func (m Model) View() string {
	m.draw()

	canvasView := m.canvas.String(m.styles.trail)
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.styles.panel.Render(m.panel()))
	header := m.styles.header.Render("E-FIELD  " + filepath.Base(m.path))

	if m.showHelp {
		return header + "\n" + helpText + "\n" + mainView
	}
	return header + "\n" + mainView
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

func (m Model) panel() string {
	var s strings.Builder

	state := m.sim.State()
	minutes := m.cfg.DisplayMinutes
	s.WriteString(m.styles.label.Render("State") + m.styles.state[state].Render(strings.ToUpper(state.String())) + "\n")
	s.WriteString(m.row("Time", velocity.FormatClock(m.sim.Clock().Value(), minutes)))

	stop := "none"
	if st := m.sim.StopTime(); st != nil {
		stop = velocity.FormatClock(*st, minutes)
	}
	s.WriteString(m.row("Stop", stop))
	s.WriteString(m.row("Ticks", fmt.Sprintf("%d", m.sim.Ticks())))

	grid := "off"
	if m.cfg.Grid.Enabled {
		grid = fmt.Sprintf("%d", m.cfg.Grid.Spacing)
	}
	s.WriteString(m.row("Grid", grid))
	s.WriteString(m.row("Charges", fmt.Sprintf("%d", len(m.sim.Charges()))))
	s.WriteString(Separator(30) + "\n")

	if c := m.selection(); c != nil {
		s.WriteString(m.styles.selected.Render(fmt.Sprintf("%s %s", c.Kind(), storage.FormatNumber(c.Q()))) + "\n")
		p := c.Pos()
		s.WriteString(m.row("Pos", fmt.Sprintf("%.1f, %.1f", p.X, p.Y)))
		if c.IsMovable() {
			v := c.Velocity()
			u := velocity.ToUser(v.X, v.Y)
			s.WriteString(m.row("Vel", fmt.Sprintf("%g, %g", u.DX, u.DY)))
			s.WriteString(m.row("Speed", fmt.Sprintf("%g @ %g°", u.Mag, u.Angle)))
			v0 := c.Vel0()
			u0 := velocity.ToUser(v0.X, v0.Y)
			s.WriteString(m.row("Start v", fmt.Sprintf("%g @ %g°", u0.Mag, u0.Angle)))
		}
	} else {
		s.WriteString(m.styles.keyHint.Render("(no selection)") + "\n")
	}
	s.WriteString(Separator(30) + "\n")

	s.WriteString(m.styles.label.Render("Energy") + "\n")
	s.WriteString(SparklineChart(m.hist.energy, 30) + "\n")

	if m.err != nil {
		s.WriteString("\n" + m.styles.err.Render(m.err.Error()) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + m.styles.value.Render(m.status) + "\n")
	}

	s.WriteString(m.styles.keyHint.Render("\nSP:Start/Pause S:Stop R:Reset\nF/M:Add X:Del +/-:Charge W:Save\nTab:Select ←↑↓→:Move ?:Help Q:Quit"))
	return s.String()
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Start / pause run        ║
║  S        - Stop run                 ║
║  R        - Reset to start positions ║
║  Tab      - Select next charge       ║
║  Arrows   - Move selected charge     ║
║  F / M    - Add fixed / movable      ║
║  + / -    - Change selected charge   ║
║  [ / ]    - Rotate start velocity    ║
║  < / >    - Change start speed       ║
║  , / .    - Change stop time         ║
║  X        - Remove selected charge   ║
║  C        - Clear all charges        ║
║  G        - Toggle grid              ║
║  T        - Cycle themes             ║
║  W        - Save arrangement         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
`
