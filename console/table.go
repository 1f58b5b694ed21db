package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// column is one table column: a header, a width and how to render a row.
type column[T any] struct {
	title string
	width int
	value func(T) string
}

func printTable[T any](w io.Writer, cols []column[T], rows []T) {
	line := func(cell func(column[T]) string) {
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = pad(truncateString(cell(c), c.width), c.width)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " "), " "))
	}
	line(func(c column[T]) string { return c.title })
	total := 0
	for _, c := range cols {
		total += c.width + 1
	}
	fmt.Fprintln(w, strings.Repeat("-", total-1))
	for _, r := range rows {
		r := r
		line(func(c column[T]) string { return c.value(r) })
	}
}

// pad is %-Ns counted in runes, so names in any script line up.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func formatMoney(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// printFacts prints label/value pairs of a detail view.
func printFacts(w io.Writer, facts [][2]string) {
	width := 0
	for _, f := range facts {
		if n := utf8.RuneCountInString(f[0]); n > width {
			width = n
		}
	}
	for _, f := range facts {
		fmt.Fprintf(w, "%s  %s\n", pad(f[0]+":", width+1), f[1])
	}
}
