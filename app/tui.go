package main

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"smartcalc/app/lang"
	"smartcalc/app/store"
)

// refreshInterval is how often clock-dependent results are recomputed.
const refreshInterval = time.Second

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D4D4D4"))
	statusStyle = fg("#858585")
	helpText    = "ctrl+s save · ctrl+q quit"
)

type snapshotMsg struct{ snap *lang.Snapshot }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// tuiModel is the full-screen editor: line numbers on the left, the buffer in
// the middle and results on the right.
type tuiModel struct {
	ta      textarea.Model
	engine  *lang.Engine
	editor  *EditorState
	store   *store.Store // nil when persistence is unavailable
	logger  *log.Logger
	lineRef *regexp.Regexp

	snap        *lang.Snapshot
	prevLines   []string
	top         int
	width       int
	height      int
	resultWidth int
	status      string
}

func newTUIModel(engine *lang.Engine, editor *EditorState, st *store.Store, logger *log.Logger, resultWidth int) (*tuiModel, error) {
	lineRef, err := lang.LineRefPattern(engine.Evaluator().Culture())
	if err != nil {
		return nil, err
	}

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(lipgloss.Color("#262626"))
	ta.SetValue(editor.Text())
	ta.Focus()

	return &tuiModel{
		ta:          ta,
		engine:      engine,
		editor:      editor,
		store:       st,
		logger:      logger,
		lineRef:     lineRef,
		prevLines:   editor.Lines(),
		resultWidth: resultWidth,
	}, nil
}

func (m *tuiModel) Init() tea.Cmd {
	m.engine.Update(m.editor.Text())
	return tea.Batch(textarea.Blink, tick())
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		return m, nil

	case tickMsg:
		m.engine.Refresh()
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			m.saveSession()
			return m, tea.Quit
		case "ctrl+s":
			m.save()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	if m.ta.Value() != m.editor.Text() {
		m.onTextChanged()
	}
	m.scroll()
	return m, cmd
}

// onTextChanged renumbers line references when lines were added or removed
// and starts a new evaluation pass.
func (m *tuiModel) onTextChanged() {
	text := normalizeNewlines(m.ta.Value())
	newLines := strings.Split(text, "\n")
	delta := len(newLines) - len(m.prevLines)
	if delta != 0 {
		changePoint := findChangePoint(m.prevLines, newLines)
		if renumbered, changed := renumberLineRefs(m.lineRef, newLines, changePoint, delta); changed {
			// Restore caret by line/col since SetValue moves it to the end
			info := m.ta.LineInfo()
			row, col := m.ta.Line(), info.StartColumn+info.ColumnOffset
			newLines = renumbered
			text = strings.Join(newLines, "\n")
			m.ta.SetValue(text)
			for m.ta.Line() > row {
				m.ta.CursorUp()
			}
			m.ta.SetCursor(col)
		}
	}

	m.prevLines = newLines
	m.editor.SetText(text)
	m.editor.Dirty = true
	m.status = ""
	m.engine.Update(text)
}

// layout sizes the textarea between the two gutters.
func (m *tuiModel) layout() {
	left := gutterDigits(m.editor.LineCount()) + 2
	right := m.resultWidth + 2
	m.ta.SetWidth(max(m.width-left-right, 10))
	m.ta.SetHeight(max(m.height-2, 1))
	m.scroll()
}

// scroll keeps the gutters on the same lines as the textarea viewport.
func (m *tuiModel) scroll() {
	row, h := m.ta.Line(), m.ta.Height()
	switch {
	case row < m.top:
		m.top = row
	case row >= m.top+h:
		m.top = row - h + 1
	}
}

func (m *tuiModel) save() {
	if err := m.editor.Save(m.store); err != nil {
		m.logger.Error("save failed", "err", err)
		m.status = "save failed: " + err.Error()
		return
	}
	m.status = "saved"
}

func (m *tuiModel) saveSession() {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSession(m.editor.Document()); err != nil {
		m.logger.Error("saving session", "err", err)
	}
}

// statusLine describes what was recognized on the cursor line.
func (m *tuiModel) statusLine() string {
	if m.status != "" {
		return m.status
	}
	row := m.ta.Line()
	if m.snap == nil || row >= len(m.snap.Lines) {
		return helpText
	}
	var parts []string
	for _, d := range m.snap.Lines[row].Detections {
		parts = append(parts, d.Detector+" "+d.Span.Text())
	}
	if len(parts) == 0 {
		return helpText
	}
	return strings.Join(parts, " · ")
}

func (m *tuiModel) View() string {
	h := m.ta.Height()
	count := m.ta.LineCount()
	results := resultsFromSnapshot(m.snap, count)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		RenderLeftGutter(count, m.top, h, m.ta.Line()),
		m.ta.View(),
		RenderRightGutter(results, m.top, h, m.resultWidth),
	)
	return titleStyle.Render(m.editor.Title()) + "\n" + body + "\n" + statusStyle.Render(m.statusLine())
}

// runTUI opens the editor and blocks until the user quits.
func runTUI(ev *lang.Evaluator, editor *EditorState, st *store.Store, logger *log.Logger, resultWidth int) error {
	// stderr belongs to the alt screen while the editor is up
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	var prog *tea.Program
	engine := lang.NewEngine(ev, func(s *lang.Snapshot) {
		prog.Send(snapshotMsg{snap: s})
	})
	defer engine.Close()

	model, err := newTUIModel(engine, editor, st, logger, resultWidth)
	if err != nil {
		return err
	}
	prog = tea.NewProgram(model, tea.WithAltScreen())
	_, err = prog.Run()
	return err
}
