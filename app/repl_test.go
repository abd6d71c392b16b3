package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartcalc/app/lang"
	"smartcalc/app/store"
)

func newTestREPL(t *testing.T) (*repl, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ev := lang.NewEvaluator(lang.WithClock(func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }))
	return newREPL(ev, NewEditorState("en-US"), nil, &out), &out
}

func TestREPLAccumulatesDocument(t *testing.T) {
	r, out := newTestREPL(t)
	for _, line := range []string{"rent = $1,200", "rent * 12", "prev / 2"} {
		if err := r.accept(line); err != nil {
			t.Fatalf("accept(%q): %v", line, err)
		}
	}

	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{"= $1,200.00", "= $14,400.00", "= $7,200.00"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("output = %q, want %q", got, want)
	}
	if r.editor.LineCount() != 3 || !r.editor.Dirty {
		t.Errorf("document = %q dirty=%v", r.editor.Text(), r.editor.Dirty)
	}
	if p := r.prompt(); p != "4> " {
		t.Errorf("prompt = %q", p)
	}
}

func TestREPLPreview(t *testing.T) {
	r, _ := newTestREPL(t)
	if err := r.accept("x = 4"); err != nil {
		t.Fatal(err)
	}
	tests := []struct{ line, want string }{
		{"x * 2", "8"},
		{"x *", ""},
		{"   ", ""},
		{"just words", ""},
	}
	for _, tt := range tests {
		if got := r.previewText(tt.line); got != tt.want {
			t.Errorf("previewText(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
	if r.editor.LineCount() != 1 {
		t.Errorf("preview changed the document: %q", r.editor.Text())
	}
}

func TestREPLCommands(t *testing.T) {
	r, out := newTestREPL(t)
	if err := r.accept("1 + 1"); err != nil {
		t.Fatal(err)
	}

	if err := r.accept(":save budget"); err == nil {
		t.Error(":save without a store succeeded")
	}
	if err := r.accept(":bogus"); err == nil {
		t.Error("unknown command accepted")
	}
	if err := r.accept(":quit"); !errors.Is(err, errQuit) {
		t.Errorf(":quit = %v", err)
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "repl.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	r.store = st
	if err := r.accept(":save budget"); err != nil {
		t.Fatal(err)
	}
	doc, err := st.Load("budget")
	if err != nil || doc.Text != "1 + 1" {
		t.Errorf("stored %+v, %v", doc, err)
	}

	out.Reset()
	if err := r.accept(":clear"); err != nil {
		t.Fatal(err)
	}
	if r.editor.Text() != "" || r.prompt() != "1> " {
		t.Errorf("after :clear document = %q", r.editor.Text())
	}
}
