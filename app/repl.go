package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"smartcalc/app/lang"
	"smartcalc/app/store"
)

const (
	escUp   = "\x1bM"
	escKill = "\x1b[K"
	escLeft = "\x1b[%dD"
)

var errQuit = errors.New("quit")

// repl reads one line at a time. Entered lines accumulate into a document,
// so later lines can refer to earlier ones.
type repl struct {
	ev      *lang.Evaluator
	editor  *EditorState
	store   *store.Store
	out     io.Writer
	preview string
}

func newREPL(ev *lang.Evaluator, editor *EditorState, st *store.Store, out io.Writer) *repl {
	return &repl{ev: ev, editor: editor, store: st, out: out}
}

func (r *repl) lines() []string {
	if r.editor.Text() == "" {
		return nil
	}
	return r.editor.Lines()
}

// evaluate returns the result of line as if it were appended to the document.
func (r *repl) evaluate(line string) (lang.LineResult, error) {
	doc := append(r.lines(), line)
	snap, err := r.ev.EvaluateDocument(context.Background(), strings.Join(doc, "\n"))
	if err != nil {
		return lang.LineResult{}, err
	}
	return snap.Lines[len(snap.Lines)-1], nil
}

// previewText is the live result shown while line is being typed.
func (r *repl) previewText(line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	lr, err := r.evaluate(line)
	if err != nil || lr.Value == nil {
		return ""
	}
	return lr.Display
}

func (r *repl) keyListener(line []rune, pos int, key rune) ([]rune, int, bool) {
	if key == '\n' || key == '\r' || key == 0x04 {
		return line, pos, true
	}

	ans := r.previewText(string(line))
	if ans != r.preview {
		prompt := len(r.prompt())
		fmt.Fprintf(r.out, escUp+escLeft+escKill, pos+prompt)
		fmt.Fprintf(r.out, "[ %s ]\n", ans)
		r.preview = ans
	}

	return line, pos, true
}

func (r *repl) prompt() string {
	return fmt.Sprintf("%d> ", len(r.lines())+1)
}

// accept handles one entered line: either a command or a new document line.
func (r *repl) accept(line string) error {
	r.preview = ""
	if strings.HasPrefix(line, ":") {
		return r.command(strings.Fields(line[1:]))
	}

	lr, err := r.evaluate(line)
	if err != nil {
		return err
	}
	r.editor.SetText(strings.Join(append(r.lines(), line), "\n"))
	r.editor.Dirty = true

	switch {
	case lr.Value != nil:
		fmt.Fprintln(r.out, resultStyle.Render("= "+lr.Display))
	case lr.Err != nil && len(lr.Detections) > 0:
		fmt.Fprintln(r.out, resultErrStyle.Render(lr.Err.Error()))
	}
	return nil
}

func (r *repl) command(args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "q", "quit":
		return errQuit
	case "clear":
		r.editor.SetText("")
	case "show":
		c := r.ev.Culture()
		for i, line := range r.lines() {
			dets, _ := lang.Detect(context.Background(), line, c, lang.DefaultDetectors())
			fmt.Fprintf(r.out, "%3d  %s\n", i+1, Highlight(line, c, dets))
		}
	case "save":
		if len(args) < 2 {
			return fmt.Errorf("usage: :save NAME")
		}
		if r.store == nil {
			return fmt.Errorf("no document store")
		}
		r.editor.DocName = args[1]
		if err := r.store.Save(r.editor.Document()); err != nil {
			return err
		}
		r.editor.Dirty = false
		fmt.Fprintf(r.out, "saved %s\n", args[1])
	default:
		return fmt.Errorf("unknown command :%s", args[0])
	}
	return nil
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "smartcalc", "history")
}

// runREPL reads lines from the terminal until EOF or :quit.
func runREPL(ev *lang.Evaluator, editor *EditorState, st *store.Store) error {
	r := newREPL(ev, editor, st, os.Stdout)
	if hf := historyFile(); hf != "" {
		_ = os.MkdirAll(filepath.Dir(hf), 0o755)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      r.prompt(),
		HistoryFile: historyFile(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	rl.Config.SetListener(r.keyListener)

	fmt.Println()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			break
		}
		if err := r.accept(line); err != nil {
			if errors.Is(err, errQuit) {
				break
			}
			fmt.Fprintln(r.out, resultErrStyle.Render(err.Error()))
		}
		rl.SetPrompt(r.prompt())
		fmt.Println()
	}
	return nil
}
