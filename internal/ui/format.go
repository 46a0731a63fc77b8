package ui

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	BoxVertical          = "│"
	BoxHorizontal        = "─"
	BoxDoubleHorizontal  = "═"
	BoxDoubleTopLeft     = "╔"
	BoxDoubleTopRight    = "╗"
	BoxDoubleBottomLeft  = "╚"
	BoxDoubleBottomRight = "╝"

	BulletCircle  = "•"
	BulletDiamond = "◆"
)

const defaultTermWidth = 80

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// GetTermWidth returns the width of stdout, or 80 when it is not a terminal.
func GetTermWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

// StripAnsiCodes removes ANSI colour sequences.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// VisibleLength counts the runes of s that actually reach the screen.
func VisibleLength(s string) int {
	return utf8.RuneCountInString(StripAnsiCodes(s))
}

// TruncateWithEllipsis shortens s to maxLen visible runes, ending in "..."
// when there is room for it. Colour codes are dropped from truncated output.
func TruncateWithEllipsis(s string, maxLen int) string {
	if VisibleLength(s) <= maxLen {
		return s
	}
	runes := []rune(StripAnsiCodes(s))
	if maxLen <= 3 {
		return string(runes[:max(maxLen, 0)])
	}
	return string(runes[:maxLen-3]) + "..."
}

// PadCenter centres s in width columns.
func PadCenter(s string, width int) string {
	padding := width - VisibleLength(s)
	if padding <= 0 {
		return s
	}
	left := padding / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", padding-left)
}

// PrintHeader prints title inside a double-lined box spanning the terminal.
func PrintHeader(title string) {
	width := GetTermWidth()
	lineLen := width - 2
	if VisibleLength(title)+4 > width-4 {
		title = TruncateWithEllipsis(title, width-10)
	}
	rule := strings.Repeat(BoxDoubleHorizontal, lineLen)

	fmt.Printf("\n%s%s%s%s%s\n", ColorCyan, BoxDoubleTopLeft, rule, BoxDoubleTopRight, ColorReset)
	fmt.Printf("%s%s%s %s %s%s%s\n",
		ColorCyan, BoxVertical, ColorReset,
		ColorBold+PadCenter(title, lineLen-2)+ColorReset,
		ColorCyan, BoxVertical, ColorReset)
	fmt.Printf("%s%s%s%s%s\n\n", ColorCyan, BoxDoubleBottomLeft, rule, BoxDoubleBottomRight, ColorReset)
}

// PrintSection prints an underlined section title.
func PrintSection(title string) {
	fmt.Printf("\n%s%s %s%s\n", ColorBold, BulletDiamond, title, ColorReset)
	fmt.Printf("%s%s%s\n", ColorCyan, strings.Repeat(BoxHorizontal, VisibleLength(title)+2), ColorReset)
}

// PrintList prints items as an indented bullet list.
func PrintList(items []string, color string) {
	for _, item := range items {
		fmt.Printf("  %s%s%s %s\n", color, BulletCircle, ColorReset, item)
	}
}

// PrintKeyValue prints an aligned "key: value" line, truncating long values.
func PrintKeyValue(key, value, valueColor string) {
	if limit := GetTermWidth() - len(key) - 10; VisibleLength(value) > limit {
		value = TruncateWithEllipsis(value, limit)
	}
	fmt.Printf("  %s%-20s%s %s%s%s\n", ColorCyan, key+":", ColorReset, valueColor, value, ColorReset)
}
