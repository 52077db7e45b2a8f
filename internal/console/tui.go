package console

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"launchops-sim/internal/mission"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// SubmitFunc applies one command line to the mission.
type SubmitFunc func(line string) error

// eventMsg carries a rendered log line for the viewport.
type eventMsg struct{ line string }

// stateMsg carries a committed state row.
type stateMsg struct{ telemetry.StateRow }

// resultMsg reports the outcome of a submitted command.
type resultMsg struct {
	line string
	err  error
}

var levelStyles = map[telemetry.Level]lipgloss.Style{
	telemetry.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	telemetry.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	telemetry.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	telemetry.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	telemetry.LevelSystem:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	adminStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func stateStyle(s telemetry.SystemState) lipgloss.Style {
	switch s {
	case telemetry.StateFailed, telemetry.StateAborted:
		return levelStyles[telemetry.LevelError]
	case telemetry.StateDegraded, telemetry.StateHold:
		return levelStyles[telemetry.LevelWarning]
	case telemetry.StateReady, telemetry.StateAuthorized, telemetry.StateComplete:
		return levelStyles[telemetry.LevelSuccess]
	case telemetry.StateCountdown:
		return levelStyles[telemetry.LevelSystem]
	}
	return dimStyle
}

// TUIWriter renders mission events and state in a bubbletea console.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts the console program. Commands typed by the operator are
// handed to submit.
func NewTUIWriter(scn *scenario.Scenario, submit SubmitFunc) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(scn, submit), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteEvent implements sink.EventWriter.
func (w *TUIWriter) WriteEvent(ev telemetry.LogEvent) error {
	w.program.Send(eventMsg{line: renderEvent(ev)})
	return nil
}

// WriteState implements sink.StateWriter.
func (w *TUIWriter) WriteState(row telemetry.StateRow) error {
	w.program.Send(stateMsg{StateRow: row})
	return nil
}

// Done is closed once the program exits.
func (w *TUIWriter) Done() <-chan struct{} { return w.done }

// Close shuts down the program and waits for the terminal to be restored.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

func renderEvent(ev telemetry.LogEvent) string {
	style, ok := levelStyles[ev.Level]
	if !ok {
		style = dimStyle
	}
	var b strings.Builder
	b.WriteString(dimStyle.Render(ev.Timestamp.Format("15:04:05.000")))
	b.WriteByte(' ')
	if ev.IsAdmin {
		b.WriteString(adminStyle.Render("[ADMIN]"))
		b.WriteByte(' ')
	}
	b.WriteString(style.Render(fmt.Sprintf("[%s]", strings.ToUpper(string(ev.Level)))))
	b.WriteByte(' ')
	b.WriteString(ev.Message)
	return b.String()
}

type tuiModel struct {
	scn        *scenario.Scenario
	submit     SubmitFunc
	vp         viewport.Model
	input      textinput.Model
	logs       []string
	state      telemetry.StateRow
	haveState  bool
	status     string
	wrap       bool
	autoscroll bool
	help       bool
	width      int
	height     int
}

func newTUIModel(scn *scenario.Scenario, submit SubmitFunc) tuiModel {
	in := textinput.New()
	in.Placeholder = "type a command, ? for help"
	in.Prompt = "> "
	in.Focus()
	return tuiModel{
		scn:        scn,
		submit:     submit,
		vp:         viewport.New(0, 0),
		input:      in,
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return textinput.Blink }

// submitCmd runs the command off the bubbletea goroutine; the mission loop may
// be blocked sending an event to this program.
func submitCmd(submit SubmitFunc, line string) tea.Cmd {
	return func() tea.Msg {
		if submit == nil {
			return resultMsg{line: line}
		}
		return resultMsg{line: line, err: submit(line)}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyCtrlW:
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case tea.KeyCtrlS:
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		case tea.KeyEsc:
			m.help = false
			return m, nil
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			switch line {
			case "":
				return m, nil
			case "?", "help":
				m.help = !m.help
				return m, nil
			case "quit", "exit":
				return m, tea.Quit
			}
			m.status = ""
			return m, submitCmd(m.submit, line)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case eventMsg:
		m.logs = append(m.logs, msg.line)
		m.refreshViewport()
	case stateMsg:
		m.state = msg.StateRow
		m.haveState = true
		m.updateViewportHeight()
	case resultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s: %v", msg.line, msg.err)
		}
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - lipgloss.Height(m.renderHeader()) - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		lines = make([]string, len(m.logs))
		for i, l := range m.logs {
			lines[i] = wordwrap.String(l, m.vp.Width)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) renderHeader() string {
	name := "mission console"
	if m.scn != nil {
		name = m.scn.ID
		if m.scn.Name != "" {
			name = m.scn.Name
		}
	}
	title := titleStyle.Render(name)
	if !m.haveState {
		return title + "\n" + dimStyle.Render("awaiting start")
	}
	row := m.state
	status := fmt.Sprintf("phase %d %s  state %s", row.Phase, mission.Phase(row.Phase), stateStyle(row.State).Render(string(row.State)))
	if row.State == telemetry.StateCountdown || row.Countdown > 0 {
		status += fmt.Sprintf("  T-%d", row.Countdown)
	}
	if row.Locked {
		status += "  " + levelStyles[telemetry.LevelError].Render("LOCKED")
	} else if row.SoftHold {
		status += "  " + levelStyles[telemetry.LevelWarning].Render("HOLD")
	}
	ids := make([]string, 0, len(row.Diagnostics))
	for id := range row.Diagnostics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	diags := make([]string, 0, len(ids))
	for _, id := range ids {
		res := row.Diagnostics[id]
		style := dimStyle
		switch res {
		case "PASS":
			style = levelStyles[telemetry.LevelSuccess]
		case "DEGRADED":
			style = levelStyles[telemetry.LevelWarning]
		case "FAILED":
			style = levelStyles[telemetry.LevelError]
		}
		diags = append(diags, fmt.Sprintf("%s %s", id, style.Render(res)))
	}
	diagLine := strings.Join(diags, "  ")
	if m.wrap && m.width > 0 {
		diagLine = wordwrap.String(diagLine, m.width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, status, diagLine)
}

func (m tuiModel) renderBottom() string {
	indicator := func(on bool, label string) string {
		c := lipgloss.Color("9")
		if on {
			c = lipgloss.Color("10")
		}
		return lipgloss.NewStyle().Foreground(c).Render("●") + " " + label
	}
	return strings.Join([]string{
		indicator(m.wrap, "wrap (ctrl+w)"),
		indicator(m.autoscroll, "scroll (ctrl+s)"),
		dimStyle.Render("? help  ctrl+c quit"),
	}, "  ")
}

func (m tuiModel) View() string {
	if m.help {
		return titleStyle.Render("Commands") + "\n\n" + Usage + "\n\n" + dimStyle.Render("esc to close")
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.renderHeader(),
		divider,
		m.vp.View(),
		divider,
		m.input.View(),
	}
	if m.status != "" {
		sections = append(sections, levelStyles[telemetry.LevelError].Render(m.status))
	}
	sections = append(sections, m.renderBottom())
	return strings.Join(sections, "\n")
}
