package tui

import (
	"fmt"

	"github.com/amine-the-boss/juris/internal/api"
	"github.com/amine-the-boss/juris/internal/config"
)

// conversationLabel renders a sidebar entry for a conversation. The
// service names conversations by recency only, so the label is the
// updated-at date plus a turn count.
func conversationLabel(conv api.Conversation) string {
	date := "new"
	if !conv.UpdatedAt.IsZero() {
		date = conv.UpdatedAt.Format("Jan 02 2006")
	}
	if n := len(conv.Messages); n > 0 {
		return fmt.Sprintf("%s (%d)", date, n)
	}
	return date
}

// nextLanguage cycles through the languages the service accepts.
// Unknown values restart at the first entry.
func nextLanguage(current string) string {
	for i, lang := range config.Languages {
		if lang == current {
			return config.Languages[(i+1)%len(config.Languages)]
		}
	}
	return config.Languages[0]
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
