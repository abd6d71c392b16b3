package main

import (
	"regexp"
	"strconv"
	"unicode/utf8"
)

// findChangePoint compares old and new lines, returns the 0-indexed position
// where they first differ.
func findChangePoint(oldLines, newLines []string) int {
	n := min(len(oldLines), len(newLines))
	for i := 0; i < n; i++ {
		if oldLines[i] != newLines[i] {
			return i
		}
	}
	return n
}

// renumberLineRefs adjusts line references when lines are inserted or
// removed. changePoint is the 0-indexed line where old and new text first
// differ; references to lines at or below it are shifted by delta.
// It returns the rewritten lines and whether anything changed.
func renumberLineRefs(re *regexp.Regexp, lines []string, changePoint, delta int) ([]string, bool) {
	out := make([]string, len(lines))
	changed := false

	for i, line := range lines {
		matches := re.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 {
			out[i] = line
			continue
		}
		var b []byte
		last := 0
		for _, m := range matches {
			n, err := strconv.Atoi(line[m[2]:m[3]])
			if err != nil || n <= changePoint {
				continue
			}
			n = max(n+delta, 1)
			b = append(b, line[last:m[2]]...)
			b = strconv.AppendInt(b, int64(n), 10)
			last = m[3]
			changed = true
		}
		out[i] = string(append(b, line[last:]...))
	}
	return out, changed
}

// caretOffset converts a line and rune column into a rune offset into the
// joined lines.
func caretOffset(lines []string, line, col int) int {
	offset := 0
	for i := 0; i < line && i < len(lines); i++ {
		offset += utf8.RuneCountInString(lines[i]) + 1
	}
	return offset + col
}
