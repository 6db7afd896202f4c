// Package chatfmt renders chat markup used in diagnosis reports.
package chatfmt

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Bold wraps text in bold markup.
func Bold(text string) string {
	return "**" + text + "**"
}

// Inline wraps text in inline code markup, doubling the fence when the text
// itself contains a backtick.
func Inline(text string) string {
	if strings.Contains(text, "`") {
		return "``" + text + "``"
	}
	return "`" + text + "`"
}

// HumanizeList joins items as an English list: "a", "a and b", "a, b, and c".
func HumanizeList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}

// FormatPermsList renders permission flag names for humans, e.g.
// send_messages, manage_guild -> "Send Messages" and "Manage Server".
func FormatPermsList(perms []string) string {
	// A Caser is stateful and must not be shared between goroutines.
	titler := cases.Title(language.English)
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, `"`+titler.String(strings.ReplaceAll(p, "_", " "))+`"`)
	}
	return strings.ReplaceAll(HumanizeList(names), "Guild", "Server")
}
