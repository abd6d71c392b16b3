package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smartcalc/app/lang"
)

var (
	gutterStyle     = fg("#858585")
	gutterCurrent   = fg("#C6C6C6").Bold(true)
	gutterDivider   = fg("#404040").Render("│")
	resultStyle     = fg("#4EC9B0") // teal
	resultErrStyle  = fg("#F44747") // red
	minGutterDigits = 2
)

// LineResult holds the evaluation result for a single line.
type LineResult struct {
	Text  string // formatted result or error message
	IsErr bool
}

// resultsFromSnapshot lays out the results of snap over lineCount lines.
// Errors are shown only on lines where something was recognized, so prose
// stays quiet.
func resultsFromSnapshot(snap *lang.Snapshot, lineCount int) []LineResult {
	results := make([]LineResult, lineCount)
	if snap == nil {
		return results
	}
	for i, l := range snap.Lines {
		if i >= lineCount {
			break
		}
		switch {
		case l.Err != nil && len(l.Detections) > 0:
			results[i] = LineResult{Text: l.Err.Error(), IsErr: true}
		case l.Value != nil:
			results[i] = LineResult{Text: l.Display}
		}
	}
	return results
}

// gutterDigits returns the width of the line number column.
func gutterDigits(lineCount int) int {
	return max(len(fmt.Sprint(lineCount)), minGutterDigits)
}

// RenderLeftGutter renders height rows of line numbers starting at the
// 0-indexed line first. The cursor line is emphasized.
func RenderLeftGutter(lineCount, first, height, cursor int) string {
	digits := gutterDigits(lineCount)
	rows := make([]string, height)
	for r := range rows {
		i := first + r
		label := strings.Repeat(" ", digits)
		if i < lineCount {
			label = fmt.Sprintf("%*d", digits, i+1)
		}
		style := gutterStyle
		if i == cursor {
			style = gutterCurrent
		}
		rows[r] = style.Render(label) + " " + gutterDivider
	}
	return strings.Join(rows, "\n")
}

// RenderRightGutter renders height rows of results starting at the 0-indexed
// line first, each cut to width cells.
func RenderRightGutter(results []LineResult, first, height, width int) string {
	rows := make([]string, height)
	for r := range rows {
		i := first + r
		text, style := "", resultStyle
		if i < len(results) {
			text = results[i].Text
			if results[i].IsErr {
				style = resultErrStyle
			}
		}
		rows[r] = gutterDivider + " " + style.Width(width).Render(truncate(text, width))
	}
	return strings.Join(rows, "\n")
}

// truncate cuts s to at most width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Bounds for the results column of the desktop window, in pixels.
const (
	minGutterWidth = 80
	maxGutterWidth = 600
)

// clampGutterWidth keeps the results column within bounds and leaves at
// least half of a windowW-wide window to the editor.
func clampGutterWidth(width, windowW int) int {
	hi := maxGutterWidth
	if windowW > 0 {
		hi = max(min(hi, windowW/2), minGutterWidth)
	}
	return min(max(width, minGutterWidth), hi)
}

// gutterWidthFromRatio sizes the results column for a windowW-wide window.
func gutterWidthFromRatio(ratio float64, windowW int) int {
	return clampGutterWidth(int(ratio*float64(windowW)), windowW)
}

// visibleRange returns the lines that intersect a viewport of height pixels
// scrolled down by scrollY.
func visibleRange(lineCount, scrollY, lineHeight, height int) (first, last int) {
	if lineHeight <= 0 {
		return 0, 0
	}
	first = max(scrollY/lineHeight, 0)
	last = min(first+height/lineHeight+2, lineCount)
	return first, max(last, first)
}
