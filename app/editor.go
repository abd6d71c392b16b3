package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartcalc/app/store"
)

// EditorState holds the document being edited and where it came from.
type EditorState struct {
	FilePath string // set when the document is a file
	DocName  string // set when the document is stored in the database
	Culture  string
	Dirty    bool
	text     string
}

// NewEditorState creates an empty document.
func NewEditorState(culture string) *EditorState {
	return &EditorState{Culture: culture}
}

// Text returns the whole buffer.
func (es *EditorState) Text() string {
	return es.text
}

// SetText replaces the buffer, normalizing line endings.
func (es *EditorState) SetText(text string) {
	es.text = normalizeNewlines(text)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Lines returns the text buffer as a slice of lines.
func (es *EditorState) Lines() []string {
	return strings.Split(es.text, "\n")
}

// LineCount returns the number of lines in the buffer.
func (es *EditorState) LineCount() int {
	return len(es.Lines())
}

// LoadFile reads a file into the buffer.
func (es *EditorState) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	es.SetText(string(data))
	es.FilePath = path
	es.DocName = ""
	es.Dirty = false
	return nil
}

// SaveFile writes the buffer to the given path.
func (es *EditorState) SaveFile(path string) error {
	if err := os.WriteFile(path, []byte(es.text), 0o644); err != nil {
		return err
	}
	es.FilePath = path
	es.Dirty = false
	return nil
}

var errNowhereToSave = errors.New("nowhere to save")

// Save writes the buffer back where it came from: its file, or the document
// store under its name. An unnamed document gets a timestamp for a name.
func (es *EditorState) Save(st *store.Store) error {
	switch {
	case es.FilePath != "":
		return es.SaveFile(es.FilePath)
	case st != nil:
		if es.DocName == "" {
			es.DocName = time.Now().Format("2006-01-02 15:04")
		}
		if err := st.Save(es.Document()); err != nil {
			return err
		}
		es.Dirty = false
		return nil
	}
	return errNowhereToSave
}

// LoadDocument replaces the buffer with a stored document.
func (es *EditorState) LoadDocument(doc store.Document) {
	es.SetText(doc.Text)
	es.FilePath = ""
	es.DocName = doc.Name
	if doc.Culture != "" {
		es.Culture = doc.Culture
	}
	es.Dirty = false
}

// Document returns the buffer as a storable document.
func (es *EditorState) Document() store.Document {
	return store.Document{Name: es.DocName, Text: es.text, Culture: es.Culture}
}

// Title returns a title string showing the document name and dirty state.
func (es *EditorState) Title() string {
	name := "untitled"
	switch {
	case es.FilePath != "":
		name = filepath.Base(es.FilePath)
	case es.DocName != "":
		name = es.DocName
	}
	if es.Dirty {
		return "* " + name + " - smartcalc"
	}
	return name + " - smartcalc"
}
