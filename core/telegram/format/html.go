// Package format renders text for Telegram's HTML parse mode.
package format

import (
	"html"
	"strings"
)

// Escape makes arbitrary user text safe inside an HTML-mode message.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold wraps escaped text in <b> tags.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// Field renders a "<b>Label:</b> value" line with the value escaped.
func Field(label, value string) string {
	return "<b>" + Escape(label) + ":</b> " + Escape(value)
}

// Lines joins non-empty lines with newlines.
func Lines(lines ...string) string {
	kept := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
