//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"smartcalc/app/lang"
)

var (
	// one evaluator per culture so the parse cache survives keystrokes
	evaluators = map[string]*lang.Evaluator{}
	editorText string
)

func evaluatorFor(culture string) *lang.Evaluator {
	c := lang.LookupCulture(culture)
	ev, ok := evaluators[c.Name]
	if !ok {
		ev = lang.NewEvaluator(lang.WithCulture(c))
		evaluators[c.Name] = ev
	}
	return ev
}

func main() {
	// evaluate(text, culture) returns one {text, isErr, start, end, refs} per line
	js.Global().Set("evaluate", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		text := args[0].String()
		culture := ""
		if len(args) > 1 && args[1].Type() == js.TypeString {
			culture = args[1].String()
		}
		editorText = text

		snap, err := evaluatorFor(culture).EvaluateDocument(context.Background(), text)
		if err != nil {
			return nil
		}

		arr := js.Global().Get("Array").New(len(snap.Lines))
		for i, l := range snap.Lines {
			obj := js.Global().Get("Object").New()
			switch {
			case l.Value != nil:
				obj.Set("text", l.Display)
				span := l.Value.Span()
				obj.Set("start", span.Start)
				obj.Set("end", span.End)
			case l.Err != nil && len(l.Detections) > 0:
				obj.Set("text", l.Err.Error())
				obj.Set("isErr", true)
			default:
				obj.Set("text", "")
			}
			refs := js.Global().Get("Array").New(len(l.Refs))
			for k, r := range l.Refs {
				refs.SetIndex(k, r+1)
			}
			obj.Set("refs", refs)
			arr.SetIndex(i, obj)
		}
		return arr
	}))

	js.Global().Set("cultures", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		all := lang.SupportedCultures()
		arr := js.Global().Get("Array").New(len(all))
		for i, c := range all {
			arr.SetIndex(i, c.Name)
		}
		return arr
	}))

	// Register getEditorText for share link
	js.Global().Set("getEditorText", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return editorText
	}))

	// Register setEditorText for share link restore
	js.Global().Set("setEditorText", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) > 0 {
			editorText = args[0].String()
			// Update textarea via JS callback
			ta := js.Global().Get("document").Call("getElementById", "editor")
			if !ta.IsUndefined() && !ta.IsNull() {
				ta.Set("value", editorText)
				ta.Call("dispatchEvent", js.Global().Get("Event").New("input"))
			}
		}
		return nil
	}))

	// Signal that WASM is ready
	js.Global().Set("_wasmReady", true)
	onReady := js.Global().Get("_onWasmReady")
	if !onReady.IsUndefined() && !onReady.IsNull() {
		onReady.Invoke()
	}

	// Block forever
	select {}
}
