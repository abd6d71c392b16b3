//go:build !nogui

package main

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"
)

var (
	paneBg         = color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF}
	ruleColor      = color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF}
	lineNumberFg   = styleColor(gutterStyle)
	resultColor    = styleColor(resultStyle)
	resultErrColor = styleColor(resultErrStyle)
	lineNumberPad  = unit.Dp(14)
)

// lineMetrics measures one line of text at the theme's size without drawing
// it. baseline is the distance from the bottom of the line to the baseline.
func lineMetrics(gtx layout.Context, th *material.Theme) (height, baseline int) {
	macro := op.Record(gtx.Ops)
	lbl := material.Label(th, th.TextSize, "0")
	lbl.MaxLines = 1
	mgtx := gtx
	mgtx.Constraints.Min = image.Point{}
	dims := lbl.Layout(mgtx)
	macro.Stop()
	if dims.Size.Y <= 0 {
		return gtx.Sp(th.TextSize), 0
	}
	return dims.Size.Y, dims.Baseline
}

// LayoutLeftGutter draws right-aligned line numbers. scrollY is the editor's
// scroll offset and topPad its inset, both in pixels.
func LayoutLeftGutter(gtx layout.Context, th *material.Theme, lineCount, scrollY, lineHeight, topPad int) layout.Dimensions {
	digits := gutterDigits(lineCount)
	width := gtx.Dp(lineNumberPad) + digits*gtx.Sp(th.TextSize)*6/10
	height := gtx.Constraints.Max.Y

	paint.FillShape(gtx.Ops, paneBg, clip.Rect(image.Rect(0, 0, width, height)).Op())

	first, last := visibleRange(lineCount, scrollY, lineHeight, height)
	for i := first; i < last; i++ {
		y := topPad + i*lineHeight - scrollY
		lbl := material.Label(th, th.TextSize, fmt.Sprintf("%*d", digits, i+1))
		lbl.Color = lineNumberFg
		lbl.Alignment = text.End
		lbl.MaxLines = 1

		off := op.Offset(image.Pt(0, y)).Push(gtx.Ops)
		size := image.Pt(width-gtx.Dp(6), lineHeight)
		cl := clip.Rect(image.Rectangle{Max: size}).Push(gtx.Ops)
		lgtx := gtx
		lgtx.Constraints = layout.Exact(size)
		lbl.Layout(lgtx)
		cl.Pop()
		off.Pop()
	}

	paint.FillShape(gtx.Ops, ruleColor, clip.Rect(image.Rect(width-1, 0, width, height)).Op())
	return layout.Dimensions{Size: image.Pt(width, height)}
}

// LayoutRightGutter draws each line's result level with its line.
func LayoutRightGutter(gtx layout.Context, th *material.Theme, results []LineResult, scrollY, lineHeight, topPad, width int) layout.Dimensions {
	height := gtx.Constraints.Max.Y
	paint.FillShape(gtx.Ops, paneBg, clip.Rect(image.Rect(0, 0, width, height)).Op())

	first, last := visibleRange(len(results), scrollY, lineHeight, height)
	for i := first; i < last; i++ {
		r := results[i]
		if r.Text == "" {
			continue
		}
		c := resultColor
		if r.IsErr {
			c = resultErrColor
		}
		lbl := material.Label(th, th.TextSize, r.Text)
		lbl.Color = c
		lbl.MaxLines = 1

		off := op.Offset(image.Pt(gtx.Dp(8), topPad+i*lineHeight-scrollY)).Push(gtx.Ops)
		size := image.Pt(max(width-gtx.Dp(16), 0), lineHeight)
		cl := clip.Rect(image.Rectangle{Max: size}).Push(gtx.Ops)
		lgtx := gtx
		lgtx.Constraints = layout.Exact(size)
		lbl.Layout(lgtx)
		cl.Pop()
		off.Pop()
	}
	return layout.Dimensions{Size: image.Pt(width, height)}
}
