package test

import (
	"fmt"
	"strings"

	"github.com/minroll/minroll/internal/logger"
)

// Diff renders a line-oriented diff between two outputs. Lines only in
// "expected" are prefixed with "-" and lines only in "actual" with "+".
func Diff(expected string, actual string, color bool) string {
	lines := diffLines(nil, strings.Split(expected, "\n"), strings.Split(actual, "\n"), color)
	return strings.Join(lines, "\n")
}

func diffLines(out []string, before []string, after []string, color bool) []string {
	b, a, n := longestCommonRun(before, after)

	if n == 0 {
		for _, line := range before {
			out = append(out, diffLine('-', line, logger.TerminalColors.Red, color))
		}
		for _, line := range after {
			out = append(out, diffLine('+', line, logger.TerminalColors.Green, color))
		}
		return out
	}

	out = diffLines(out, before[:b], after[:a], color)
	for _, line := range before[b : b+n] {
		out = append(out, diffLine(' ', line, logger.TerminalColors.Dim, color))
	}
	return diffLines(out, before[b+n:], after[a+n:], color)
}

func diffLine(prefix byte, line string, escape string, color bool) string {
	if color {
		return fmt.Sprintf("%s%c%s%s", escape, prefix, line, logger.TerminalColors.Reset)
	}
	return string(prefix) + line
}

// Returns the start of the longest run of equal lines in each slice along
// with its length, using the dynamic programming table two rows at a time.
func longestCommonRun(x []string, y []string) (int, int, int) {
	prev := make([]int, len(y))
	next := make([]int, len(y))
	best, endX, endY := 0, 0, 0

	for i := range x {
		for j := range y {
			if x[i] != y[j] {
				next[j] = 0
				continue
			}
			if j == 0 {
				next[j] = 1
			} else {
				next[j] = prev[j-1] + 1
			}
			if next[j] > best {
				best = next[j]
				endX = i + 1
				endY = j + 1
			}
		}
		prev, next = next, prev
	}

	return endX - best, endY - best, best
}
