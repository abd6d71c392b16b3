//go:build !nogui

package main

import (
	"errors"
	"image"
	"image/color"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"github.com/charmbracelet/log"

	"smartcalc/app/lang"
	"smartcalc/app/store"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var (
	editorFg    = color.NRGBA{R: 0xD4, G: 0xD4, B: 0xD4, A: 0xFF}
	caretLineBg = color.NRGBA{R: 0x2A, G: 0x2D, B: 0x32, A: 0xFF}
	selectionBg = color.NRGBA{R: 0x26, G: 0x4F, B: 0x78, A: 0xFF}
)

const (
	editorInset = unit.Dp(4)
	topSpacer   = unit.Dp(6)
	monoFace    = "Go Mono"
)

// guiHost is the desktop editor: line numbers, the buffer with highlighted
// text drawn over it, a draggable divider and the results column.
type guiHost struct {
	w       *app.Window
	th      *material.Theme
	ed      widget.Editor
	expl    *explorer.Explorer
	divider DragDivider

	editor  *EditorState
	engine  *lang.Engine
	store   *store.Store
	logger  *log.Logger
	lineRef *regexp.Regexp

	mu   sync.Mutex
	snap *lang.Snapshot

	prevLines   []string
	gutterRatio float64
	gutterWidth int
	shortcutTag bool
	openCh      <-chan FileResult
	saveCh      <-chan SaveResult
}

func newGUIHost(w *app.Window, ev *lang.Evaluator, editor *EditorState, st *store.Store, logger *log.Logger, opts guiOptions) (*guiHost, error) {
	lineRef, err := lang.LineRefPattern(ev.Culture())
	if err != nil {
		return nil, err
	}

	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	th.Face = monoFace
	th.TextSize = unit.Sp(max(opts.TextSize, 8))

	g := &guiHost{
		w:           w,
		th:          th,
		expl:        explorer.NewExplorer(w),
		editor:      editor,
		store:       st,
		logger:      logger,
		lineRef:     lineRef,
		prevLines:   editor.Lines(),
		gutterRatio: opts.GutterRatio,
	}
	g.ed.SetText(editor.Text())
	g.engine = lang.NewEngine(ev, func(s *lang.Snapshot) {
		g.mu.Lock()
		g.snap = s
		g.mu.Unlock()
		w.Invalidate()
	})
	return g, nil
}

func (g *guiHost) latest() *lang.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

// runGUI opens the desktop editor. It never returns on success: the process
// exits when the window closes. The window takes ownership of st.
func runGUI(ev *lang.Evaluator, editor *EditorState, st *store.Store, logger *log.Logger, opts guiOptions) error {
	go func() {
		w := new(app.Window)
		w.Option(app.Title(editor.Title()), app.Size(unit.Dp(1024), unit.Dp(768)))
		g, err := newGUIHost(w, ev, editor, st, logger, opts)
		if err == nil {
			err = g.run()
			g.close()
		}
		if err != nil {
			logger.Fatal("editor window", "err", err)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func (g *guiHost) close() {
	g.engine.Close()
	if g.store == nil {
		return
	}
	if err := g.store.SaveSession(g.editor.Document()); err != nil {
		g.logger.Error("saving session", "err", err)
	}
	g.store.Close()
}

func (g *guiHost) run() error {
	g.engine.Update(g.editor.Text())

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	// window events are forwarded so dialogs and the clock share one loop
	events := make(chan event.Event)
	acks := make(chan struct{})
	go func() {
		for {
			ev := g.w.Event()
			events <- ev
			<-acks
			if _, ok := ev.(app.DestroyEvent); ok {
				return
			}
		}
	}()

	var ops op.Ops
	for {
		select {
		case <-ticker.C:
			g.engine.Refresh()

		case res := <-g.openCh:
			g.openCh = nil
			if res.Err != nil {
				g.logger.Warn("open failed", "err", res.Err)
				break
			}
			g.editor.SetText(string(res.Data))
			g.editor.FilePath, g.editor.DocName, g.editor.Dirty = "", "", false
			g.replaceText(g.editor.Text())
			g.w.Invalidate()

		case res := <-g.saveCh:
			g.saveCh = nil
			if res.Err != nil {
				g.logger.Warn("save failed", "err", res.Err)
				break
			}
			g.editor.Dirty = false
			g.updateTitle()

		case e := <-events:
			g.expl.ListenEvents(e)
			switch e := e.(type) {
			case app.DestroyEvent:
				acks <- struct{}{}
				return e.Err
			case app.FrameEvent:
				gtx := app.NewContext(&ops, e)
				g.frame(gtx)
				e.Frame(gtx.Ops)
			}
			acks <- struct{}{}
		}
	}
}

func (g *guiHost) updateTitle() {
	g.w.Option(app.Title(g.editor.Title()))
}

// replaceText swaps the whole buffer without treating it as an edit.
func (g *guiHost) replaceText(text string) {
	g.ed.SetText(text)
	g.prevLines = strings.Split(text, "\n")
	g.engine.Update(text)
	g.updateTitle()
}

func (g *guiHost) shortcuts(gtx C) {
	event.Op(gtx.Ops, &g.shortcutTag)
	for {
		ev, ok := gtx.Event(
			key.Filter{Required: key.ModShortcut, Name: "O"},
			key.Filter{Required: key.ModShortcut, Name: "S"},
			key.Filter{Required: key.ModShortcut, Name: "="},
			key.Filter{Required: key.ModShortcut, Name: "-"},
		)
		if !ok {
			break
		}
		ke, ok := ev.(key.Event)
		if !ok || ke.State != key.Press {
			continue
		}
		switch ke.Name {
		case "O":
			if g.openCh == nil {
				g.openCh = OpenFileAsync(g.expl)
			}
		case "S":
			g.save()
		case "=":
			if g.th.TextSize < unit.Sp(48) {
				g.th.TextSize += unit.Sp(2)
			}
		case "-":
			if g.th.TextSize > unit.Sp(8) {
				g.th.TextSize -= unit.Sp(2)
			}
		}
	}
}

// save writes to the document's file or the store, and asks for a file
// when the document has neither.
func (g *guiHost) save() {
	err := g.editor.Save(g.store)
	switch {
	case errors.Is(err, errNowhereToSave):
		if g.saveCh == nil {
			g.saveCh = SaveFileAsync(g.expl, []byte(g.editor.Text()), "untitled.txt")
		}
	case err != nil:
		g.logger.Error("save failed", "err", err)
	default:
		g.updateTitle()
	}
}

// onTextChanged renumbers line references when lines were added or removed
// and starts a new evaluation pass.
func (g *guiHost) onTextChanged() {
	text := normalizeNewlines(g.ed.Text())
	newLines := strings.Split(text, "\n")
	if delta := len(newLines) - len(g.prevLines); delta != 0 {
		changePoint := findChangePoint(g.prevLines, newLines)
		if renumbered, changed := renumberLineRefs(g.lineRef, newLines, changePoint, delta); changed {
			line, col := g.ed.CaretPos()
			newLines = renumbered
			text = strings.Join(newLines, "\n")
			g.ed.SetText(text)
			off := caretOffset(newLines, line, col)
			g.ed.SetCaret(off, off)
		}
	}

	g.prevLines = newLines
	g.editor.SetText(text)
	if !g.editor.Dirty {
		g.editor.Dirty = true
		g.updateTitle()
	}
	g.engine.Update(text)
}

func (g *guiHost) frame(gtx C) {
	windowW := gtx.Constraints.Max.X
	// the column keeps its share of the window across resizes
	g.gutterWidth = gutterWidthFromRatio(g.gutterRatio, windowW)

	g.shortcuts(gtx)

	changed := false
	for {
		ev, ok := g.ed.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.ChangeEvent); ok {
			changed = true
		}
	}
	// programmatic SetText also reports a change; only real edits differ
	if changed && normalizeNewlines(g.ed.Text()) != g.editor.Text() {
		g.onTextChanged()
	}

	snap := g.latest()
	lineCount := g.editor.LineCount()
	results := resultsFromSnapshot(snap, lineCount)

	paint.FillShape(gtx.Ops, paneBg, clip.Rect(image.Rect(0, 0, windowW, gtx.Constraints.Max.Y)).Op())

	lineHeight, baseline := lineMetrics(gtx, g.th)
	topPad := gtx.Dp(editorInset)
	scrollY := g.scrollY(lineHeight, baseline)

	caretLine, _ := g.ed.CaretPos()
	y := gtx.Dp(topSpacer) + topPad + caretLine*lineHeight - scrollY
	paint.FillShape(gtx.Ops, caretLineBg, clip.Rect(image.Rect(0, y, windowW, y+lineHeight)).Op())

	layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(layout.Spacer{Height: topSpacer}.Layout),
		layout.Flexed(1, func(gtx C) D {
			return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					return LayoutLeftGutter(gtx, g.th, lineCount, scrollY, lineHeight, topPad)
				}),
				layout.Flexed(1, func(gtx C) D {
					return g.layoutEditor(gtx, snap)
				}),
				layout.Rigid(func(gtx C) D {
					dims, moved := g.divider.Layout(gtx, &g.gutterWidth, windowW)
					if moved && windowW > 0 {
						g.gutterRatio = float64(g.gutterWidth) / float64(windowW)
					}
					return dims
				}),
				layout.Rigid(func(gtx C) D {
					return LayoutRightGutter(gtx, g.th, results, scrollY, lineHeight, topPad, g.gutterWidth)
				}),
			)
		}),
	)
}

// scrollY derives the editor's scroll offset from where it last drew the
// caret. CaretCoords reports the caret baseline in viewport coordinates.
func (g *guiHost) scrollY(lineHeight, baseline int) int {
	caretLine, _ := g.ed.CaretPos()
	ascent := lineHeight - baseline
	return max(caretLine*lineHeight+ascent-int(g.ed.CaretCoords().Y), 0)
}

func (g *guiHost) layoutEditor(gtx C, snap *lang.Snapshot) D {
	ed := material.Editor(g.th, &g.ed, "")
	ed.Font = font.Font{Typeface: monoFace}
	ed.Color = color.NRGBA{} // the overlay draws the text and caret
	ed.HintColor = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF}
	ed.TextSize = g.th.TextSize
	ed.SelectionColor = selectionBg

	return layout.UniformInset(editorInset).Layout(gtx, func(gtx C) D {
		dims := ed.Layout(gtx)
		cl := clip.Rect(image.Rectangle{Max: dims.Size}).Push(gtx.Ops)
		g.drawHighlightedText(gtx, snap, dims)
		cl.Pop()
		return dims
	})
}

// detections returns what the latest pass recognized on line i, or nil when
// the pass predates the line's current text.
func detections(snap *lang.Snapshot, i int, line string) []lang.Detection {
	if snap == nil || i >= len(snap.Lines) || snap.Lines[i].Text != line {
		return nil
	}
	return snap.Lines[i].Detections
}

func (g *guiHost) drawHighlightedText(gtx C, snap *lang.Snapshot, dims D) {
	lineHeight, baseline := lineMetrics(gtx, g.th)
	ascent := lineHeight - baseline
	caretLine, _ := g.ed.CaretPos()
	caret := g.ed.CaretCoords()
	top := int(caret.Y) - ascent - caretLine*lineHeight
	culture := g.engine.Evaluator().Culture()

	for i, line := range g.editor.Lines() {
		y := top + i*lineHeight
		if y+lineHeight < 0 || y > dims.Size.Y {
			continue
		}
		x := 0
		for _, tok := range Tokenize(line, culture, detections(snap, i, line)) {
			lbl := material.Label(g.th, g.th.TextSize, tok.Text)
			lbl.Color = TokenColor(tok.Kind)
			lbl.Font = font.Font{Typeface: monoFace}
			lbl.MaxLines = 1

			off := op.Offset(image.Pt(x, y)).Push(gtx.Ops)
			tgtx := gtx
			tgtx.Constraints.Min = image.Point{}
			tgtx.Constraints.Max = image.Pt(max(dims.Size.X-x, 0), lineHeight)
			x += lbl.Layout(tgtx).Size.X
			off.Pop()
		}
	}

	if gtx.Focused(&g.ed) {
		cx, cy := int(caret.X), int(caret.Y)
		paint.FillShape(gtx.Ops, editorFg, clip.Rect(image.Rect(cx, cy-ascent, cx+2, cy+baseline)).Op())
		gtx.Execute(op.InvalidateCmd{})
	}
}
