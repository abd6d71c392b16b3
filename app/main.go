package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"smartcalc/app/lang"
	"smartcalc/app/store"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `help:"Configuration file." type:"path" placeholder:"FILE"`
	Culture  string `short:"c" help:"Culture for numbers, dates and words (en-US, en-GB, fr-FR, de-DE)."`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)."`
}

// appContext is bound into every command's Run method.
type appContext struct {
	cfg    *viper.Viper
	logger *log.Logger
}

func newAppContext(g *Globals) (*appContext, error) {
	cfg, err := LoadConfig(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Culture != "" {
		cfg.Set(CfgCulture, g.Culture)
	}
	if g.LogLevel != "" {
		cfg.Set(CfgLogLevel, g.LogLevel)
	}
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	if f := cfg.ConfigFileUsed(); f != "" {
		logger.Debug("configuration loaded", "file", f)
	}
	return &appContext{cfg: cfg, logger: logger}, nil
}

// evaluator returns an evaluator for culture, or the configured culture when
// culture is empty.
func (a *appContext) evaluator(culture string) *lang.Evaluator {
	if culture == "" {
		culture = a.cfg.GetString(CfgCulture)
	}
	c := lang.LookupCulture(culture)
	a.logger.Debug("evaluator", "culture", c.Name)
	return lang.NewEvaluator(
		lang.WithCulture(c),
		lang.WithLogger(a.logger),
		lang.WithStrictContracts(a.cfg.GetBool(CfgStrictContracts)),
	)
}

func (a *appContext) openStore() (*store.Store, error) {
	return store.Open(a.cfg.GetString(CfgStorePath))
}

// optionalStore opens the document store, carrying on without one when the
// database is unavailable.
func (a *appContext) optionalStore() *store.Store {
	st, err := a.openStore()
	if err != nil {
		a.logger.Warn("document store unavailable", "err", err)
		return nil
	}
	return st
}

// openEditor loads the document named by file or doc into a new editor,
// falling back to the last session when neither is given.
func (a *appContext) openEditor(file, doc string, st *store.Store) (*EditorState, error) {
	editor := NewEditorState(a.cfg.GetString(CfgCulture))
	switch {
	case file != "":
		if err := editor.LoadFile(file); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			editor.FilePath = file
		}
	case doc != "":
		if st == nil {
			return nil, fmt.Errorf("cannot open %q without the document store", doc)
		}
		d, err := st.Load(doc)
		if err != nil {
			return nil, err
		}
		editor.LoadDocument(d)
	case st != nil:
		d, ok, err := st.LoadSession()
		if err != nil {
			a.logger.Warn("restoring session", "err", err)
		} else if ok {
			editor.LoadDocument(d)
			editor.FilePath = ""
		}
	}
	return editor, nil
}

type TUICmd struct {
	File string `arg:"" optional:"" type:"path" help:"Text file to edit."`
	Doc  string `help:"Open a stored document." placeholder:"NAME"`
}

func (c *TUICmd) Run(a *appContext) error {
	st := a.optionalStore()
	if st != nil {
		defer st.Close()
	}
	editor, err := a.openEditor(c.File, c.Doc, st)
	if err != nil {
		return err
	}
	return runTUI(a.evaluator(editor.Culture), editor, st, a.logger, a.cfg.GetInt(CfgTUIGutterWidth))
}

type GUICmd struct {
	File string `arg:"" optional:"" type:"path" help:"Text file to edit."`
	Doc  string `help:"Open a stored document." placeholder:"NAME"`
}

func (c *GUICmd) Run(a *appContext) error {
	st := a.optionalStore()
	editor, err := a.openEditor(c.File, c.Doc, st)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return err
	}
	// the window owns st from here on
	return runGUI(a.evaluator(editor.Culture), editor, st, a.logger, guiOptions{
		GutterRatio: a.cfg.GetFloat64(CfgGUIGutterRatio),
		TextSize:    float32(a.cfg.GetFloat64(CfgGUITextSize)),
	})
}

type EvalCmd struct {
	File  string `arg:"" optional:"" default:"-" help:"Document to evaluate, - for stdin."`
	Spans bool   `help:"Underline the part of each line that produced its result."`
}

func (c *EvalCmd) Run(a *appContext) error {
	var r io.Reader = os.Stdin
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	ev := a.evaluator("")
	snap, err := ev.EvaluateDocument(context.Background(), strings.TrimSuffix(normalizeNewlines(string(data)), "\n"))
	if err != nil {
		return err
	}
	printSnapshot(os.Stdout, snap, ev.Culture(), c.Spans || a.cfg.GetBool(CfgEvalShowSpans))
	return nil
}

// printSnapshot writes one row per line: number, source and result.
func printSnapshot(w io.Writer, snap *lang.Snapshot, c *lang.Culture, spans bool) {
	width := 0
	for _, l := range snap.Lines {
		width = max(width, lipgloss.Width(l.Text))
	}
	results := resultsFromSnapshot(snap, len(snap.Lines))
	digits := gutterDigits(len(snap.Lines))

	for i, l := range snap.Lines {
		text := Highlight(l.Text, c, l.Detections)
		if spans && l.Value != nil {
			text = HighlightSpan(l.Text, l.Value.Span())
		}
		pad := strings.Repeat(" ", width-lipgloss.Width(l.Text))
		res := results[i].Text
		if res != "" {
			style := resultStyle
			if results[i].IsErr {
				style = resultErrStyle
			}
			res = style.Render(res)
		}
		line := fmt.Sprintf("%s %s %s%s  %s", gutterStyle.Render(fmt.Sprintf("%*d", digits, i+1)), gutterDivider, text, pad, res)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

type REPLCmd struct{}

func (c *REPLCmd) Run(a *appContext) error {
	st := a.optionalStore()
	if st != nil {
		defer st.Close()
	}
	ev := a.evaluator("")
	return runREPL(ev, NewEditorState(ev.Culture().Name), st)
}

type ASTCmd struct {
	Line []string `arg:"" required:"" help:"Line to parse."`
}

func (c *ASTCmd) Run(a *appContext) error {
	parsed, err := a.evaluator("").ParseLine(context.Background(), strings.Join(c.Line, " "))
	if err != nil {
		return err
	}
	for _, d := range parsed.Detections {
		fmt.Printf("%-10s %q\n", d.Detector, d.Span.Text())
	}
	if parsed.Err != nil {
		return parsed.Err
	}
	repr.Println(parsed.Node, repr.OmitEmpty(true))
	return nil
}

type CulturesCmd struct{}

func (c *CulturesCmd) Run(a *appContext) error {
	sample := lang.NewCurrency(decimal.RequireFromString("1234.5"), "EUR", lang.Span{})
	for _, cu := range lang.SupportedCultures() {
		fmt.Printf("%-6s %-10s %s\n", cu.Name, cu.Tag, lang.Format(sample, cu))
	}
	return nil
}

type DocsCmd struct {
	List DocsListCmd `cmd:"" default:"1" help:"List stored documents."`
	Show DocsShowCmd `cmd:"" help:"Print a stored document with its results."`
	Rm   DocsRmCmd   `cmd:"" help:"Delete a stored document."`
}

type DocsListCmd struct{}

func (c *DocsListCmd) Run(a *appContext) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.List()
	if err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Printf("%-24s %-6s %s\n", d.Name, d.Culture, d.Updated.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

type DocsShowCmd struct {
	Name string `arg:"" help:"Document name."`
}

func (c *DocsShowCmd) Run(a *appContext) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := st.Load(c.Name)
	if err != nil {
		return err
	}
	ev := a.evaluator(doc.Culture)
	snap, err := ev.EvaluateDocument(context.Background(), doc.Text)
	if err != nil {
		return err
	}
	printSnapshot(os.Stdout, snap, ev.Culture(), a.cfg.GetBool(CfgEvalShowSpans))
	return nil
}

type DocsRmCmd struct {
	Name string `arg:"" help:"Document name."`
}

func (c *DocsRmCmd) Run(a *appContext) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Delete(c.Name)
}

var cli struct {
	Globals

	TUI      TUICmd      `cmd:"" default:"withargs" help:"Edit a document with live results (default)."`
	Eval     EvalCmd     `cmd:"" help:"Evaluate a document and print every result."`
	GUI      GUICmd      `cmd:"" name:"gui" help:"Edit a document in a desktop window."`
	REPL     REPLCmd     `cmd:"" name:"repl" help:"Evaluate lines as you type them."`
	AST      ASTCmd      `cmd:"" name:"ast" help:"Print the syntax tree of a line."`
	Cultures CulturesCmd `cmd:"" help:"List supported cultures."`
	Docs     DocsCmd     `cmd:"" help:"Manage stored documents."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("smartcalc"),
		kong.Description("A notepad calculator that finds numbers, money, dates and durations in plain text."),
		kong.UsageOnError(),
	)
	app, err := newAppContext(&cli.Globals)
	ctx.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run(app))
}
