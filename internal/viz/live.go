package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
	"github.com/san-kum/aflc/internal/sim"
)

const (
	mapWidth        = 40
	mapHeight       = 20
	historyCapacity = 400
)

var axisNames = [aflc.DOF]string{"surge", "sway", "heave", "yaw"}

// SampleMsg carries one closed-loop tick into the model.
type SampleMsg sim.Sample

// DoneMsg is sent once the run has ended.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

type pullMsg struct{}

// Model follows a simulated run tick by tick: a top-down map of the vehicle
// and its target, per-axis state, normalized commands and error history.
type Model struct {
	title   string
	samples <-chan sim.Sample
	done    <-chan DoneMsg
	cancel  context.CancelFunc

	canvas    *Canvas
	trail     []dynamo.Vec4
	errHist   []float64
	thetaHist []float64
	last      sim.Sample
	count     int
	held      int
	result    *sim.Result
	err       error

	interval time.Duration
	running  bool
	waiting  bool
	finished bool
	showHelp bool

	theme  int
	styles styles
}

// Start runs sc on s in the background and returns a model that renders it.
// The run is paced by the model: it blocks while the view is paused.
func Start(ctx context.Context, title string, s *sim.Simulator, sc sim.Scenario, dt time.Duration) Model {
	ctx, cancel := context.WithCancel(ctx)
	samples := make(chan sim.Sample)
	done := make(chan DoneMsg, 1)

	go func() {
		res, err := s.RunWithCallback(ctx, sc, func(smp sim.Sample) bool {
			select {
			case samples <- smp:
				return true
			case <-ctx.Done():
				return false
			}
		})
		close(samples)
		done <- DoneMsg{Result: res, Err: err}
	}()

	m := newModel(title, samples, done, cancel)
	m.interval = dt
	return m
}

func newModel(title string, samples <-chan sim.Sample, done <-chan DoneMsg, cancel context.CancelFunc) Model {
	return Model{
		title:     title,
		samples:   samples,
		done:      done,
		cancel:    cancel,
		canvas:    NewCanvas(mapWidth, mapHeight),
		trail:     make([]dynamo.Vec4, 0, historyCapacity),
		errHist:   make([]float64, 0, historyCapacity),
		thetaHist: make([]float64, 0, historyCapacity),
		interval:  50 * time.Millisecond,
		running:   true,
		waiting:   true,
		styles:    newStyles(Themes[0]),
	}
}

// WithTheme returns m rendered with the named theme.
func (m Model) WithTheme(name string) Model {
	t := GetTheme(name)
	for i := range Themes {
		if Themes[i].Name == t.Name {
			m.theme = i
		}
	}
	m.styles = newStyles(t)
	return m
}

func waitForSample(samples <-chan sim.Sample, done <-chan DoneMsg) tea.Cmd {
	return func() tea.Msg {
		if smp, ok := <-samples; ok {
			return SampleMsg(smp)
		}
		return <-done
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSample(m.samples, m.done)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case SampleMsg:
		m.record(sim.Sample(msg))
		m.waiting = false
		if !m.running {
			return m, nil
		}
		m.waiting = true
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return pullMsg{} })

	case pullMsg:
		if !m.running {
			m.waiting = false
			return m, nil
		}
		return m, waitForSample(m.samples, m.done)

	case DoneMsg:
		m.finished = true
		m.waiting = false
		m.result, m.err = msg.Result, msg.Err
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case " ":
		m.running = !m.running
		if m.running && !m.waiting && !m.finished {
			m.waiting = true
			return m, waitForSample(m.samples, m.done)
		}
	case "+", "=":
		m.interval = max(m.interval/2, time.Millisecond)
	case "-":
		m.interval = min(m.interval*2, time.Second)
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
		m.styles = newStyles(Themes[m.theme])
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) record(s sim.Sample) {
	m.last = s
	m.count++
	if s.Held {
		m.held++
	}

	m.trail = append(m.trail, s.Eta)
	if len(m.trail) > historyCapacity {
		m.trail = m.trail[1:]
	}
	e := s.TrackingError()
	m.errHist = appendCapped(m.errHist, floats.Norm(e[:], 2))
	m.thetaHist = appendCapped(m.thetaHist, floats.Norm(s.Theta[:], 2))
}

func (m *Model) drawMap() string {
	m.canvas.Clear()
	if len(m.trail) == 0 {
		return m.canvas.String()
	}

	xs := make([]float64, 0, len(m.trail)+1)
	ys := make([]float64, 0, len(m.trail)+1)
	for _, p := range m.trail {
		xs = append(xs, p[dynamo.Surge])
		ys = append(ys, p[dynamo.Sway])
	}
	xs = append(xs, m.last.Target[dynamo.Surge])
	ys = append(ys, m.last.Target[dynamo.Sway])
	vp := Fit(m.canvas, xs, ys)

	for i := 1; i < len(m.trail); i++ {
		x0, y0 := vp.Project(xs[i-1], ys[i-1])
		x1, y1 := vp.Project(xs[i], ys[i])
		m.canvas.DrawLine(x0, y0, x1, y1)
	}

	tx, ty := vp.Project(m.last.Target[dynamo.Surge], m.last.Target[dynamo.Sway])
	m.canvas.Cross(tx, ty, 2)

	// heading whisker
	eta := m.last.Eta
	s, c := math.Sincos(eta[dynamo.Yaw])
	hx, hy := vp.Project(eta[dynamo.Surge], eta[dynamo.Sway])
	m.canvas.DrawLine(hx, hy, hx+int(math.Round(6*c)), hy-int(math.Round(6*s)))

	return m.canvas.String()
}

func (m Model) status() string {
	switch {
	case m.finished && m.err != nil:
		return m.styles.alarm.Render("FAILED: " + m.err.Error())
	case m.finished:
		return m.styles.running.Render("DONE")
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	default:
		return m.styles.running.Render("RUNNING")
	}
}

func (m Model) View() string {
	st := m.styles
	smp := m.last

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(st.label.Render("Time") + st.value.Render(fmt.Sprintf("%.2fs", smp.T)) + "\n")
	s.WriteString(st.label.Render("Ticks") + st.value.Render(fmt.Sprintf("%d", m.count)))
	if m.held > 0 {
		s.WriteString(st.alarm.Render(fmt.Sprintf("  (%d held)", m.held)))
	}
	s.WriteString("\n\n")

	s.WriteString(st.muted.Render(fmt.Sprintf("%-6s %8s %8s %8s %8s", "axis", "eta", "ref", "target", "u")) + "\n")
	for i, name := range axisNames {
		line := fmt.Sprintf("%-6s %8.3f %8.3f %8.3f %8.2f", name, smp.Eta[i], smp.Ref[i], smp.Target[i], smp.U[i])
		if smp.Saturated[i] {
			s.WriteString(st.value.Render(line) + st.alarm.Render(" SAT") + "\n")
			continue
		}
		s.WriteString(st.value.Render(line) + "\n")
	}

	cmd := smp.Command
	s.WriteString("\n")
	s.WriteString(st.label.Render("Forward") + SignedBar(cmd.Forward, 20) + "\n")
	s.WriteString(st.label.Render("Lateral") + SignedBar(cmd.Lateral, 20) + "\n")
	s.WriteString(st.label.Render("Throttle") + SignedBar(2*cmd.Throttle-1, 20) + "\n")
	s.WriteString(st.label.Render("Yaw") + SignedBar(cmd.Yaw, 20) + "\n")

	if len(m.errHist) > 1 {
		chart := asciigraph.Plot(m.errHist, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("|η − ηr|"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if len(m.thetaHist) > 0 {
		s.WriteString(st.label.Render("|θ|") + st.value.Render(fmt.Sprintf("%.3f ", m.thetaHist[len(m.thetaHist)-1])))
		s.WriteString(st.muted.Render(SparklineChart(m.thetaHist, 24)) + "\n")
	}

	s.WriteString(st.help.Render("space:pause  +/-:speed  t:theme  ?:help  q:quit"))

	mapView := st.mapView.Render(m.drawMap())
	main := lipgloss.JoinHorizontal(lipgloss.Top, mapView, st.panel.Render(s.String()))
	if m.showHelp {
		return st.muted.Render(helpText) + "\n" + main
	}
	return main
}

const helpText = `map: top-down x/y, + marks the target, whisker shows heading
space  pause or resume the run
+ / -  faster / slower playback
t      cycle colour theme
q      stop the run and quit`
