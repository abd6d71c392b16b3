//go:build !nogui

package main

import (
	"image"
	"image/color"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
)

// DragDivider is a draggable vertical rule that resizes the results column.
type DragDivider struct {
	dragging   bool
	startX     float32
	startWidth int
	tag        bool
}

var (
	dividerColor      = color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF}
	dividerHoverColor = color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xFF}
)

const dividerWidthPx = 6

// Layout draws the handle and applies drags to *width, which stays within
// clampGutterWidth for a windowW-wide window. It reports whether a drag
// changed the width.
func (d *DragDivider) Layout(gtx layout.Context, width *int, windowW int) (layout.Dimensions, bool) {
	height := gtx.Constraints.Max.Y
	moved := false

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: &d.tag,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Press:
			d.dragging = true
			d.startX = pe.Position.X
			d.startWidth = *width
		case pointer.Drag:
			if d.dragging {
				// the column sits right of the handle, so dragging left widens it
				w := clampGutterWidth(d.startWidth-int(pe.Position.X-d.startX), windowW)
				moved = moved || w != *width
				*width = w
			}
		case pointer.Release, pointer.Cancel:
			d.dragging = false
		}
	}

	c := dividerColor
	if d.dragging {
		c = dividerHoverColor
	}
	rect := image.Rect(0, 0, dividerWidthPx, height)
	paint.FillShape(gtx.Ops, c, clip.Rect(rect).Op())

	area := clip.Rect(rect).Push(gtx.Ops)
	event.Op(gtx.Ops, &d.tag)
	pointer.CursorColResize.Add(gtx.Ops)
	area.Pop()

	return layout.Dimensions{Size: image.Pt(dividerWidthPx, height)}, moved
}
