//go:build nogui

package main

import (
	"errors"

	"github.com/charmbracelet/log"

	"smartcalc/app/lang"
	"smartcalc/app/store"
)

func runGUI(_ *lang.Evaluator, _ *EditorState, st *store.Store, _ *log.Logger, _ guiOptions) error {
	if st != nil {
		st.Close()
	}
	return errors.New("built without the desktop editor (nogui tag)")
}
