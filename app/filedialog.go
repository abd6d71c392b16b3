//go:build !nogui

package main

import (
	"io"

	"gioui.org/x/explorer"
)

// FileResult holds the outcome of an open dialog.
type FileResult struct {
	Data []byte
	Err  error
}

// SaveResult holds the outcome of a save dialog.
type SaveResult struct {
	Err error
}

// OpenFileAsync shows an open dialog and reads the chosen file in the
// background. The result arrives on the returned channel.
func OpenFileAsync(expl *explorer.Explorer) <-chan FileResult {
	ch := make(chan FileResult, 1)
	go func() {
		file, err := expl.ChooseFile(".txt", ".calc")
		if err != nil {
			ch <- FileResult{Err: err}
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		ch <- FileResult{Data: data, Err: err}
	}()
	return ch
}

// SaveFileAsync shows a save dialog and writes content to the chosen file in
// the background.
func SaveFileAsync(expl *explorer.Explorer, content []byte, defaultName string) <-chan SaveResult {
	ch := make(chan SaveResult, 1)
	go func() {
		w, err := expl.CreateFile(defaultName)
		if err != nil {
			ch <- SaveResult{Err: err}
			return
		}
		_, err = w.Write(content)
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
		ch <- SaveResult{Err: err}
	}()
	return ch
}
