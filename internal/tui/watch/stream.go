package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/linegate/internal/events"
)

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	var typeStyle lipgloss.Style
	switch e.Type {
	case events.MessageStored, events.MessageFetched, events.ReplySent:
		typeStyle = theme.StatusOK
	case events.MessageFailed:
		typeStyle = theme.StatusFailed
	case events.MessageReceived:
		typeStyle = theme.StatusActive
	default:
		typeStyle = theme.Dim
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-18s", e.Type))

	return fmt.Sprintf("%s %s %s", ts, typeName, extractEventDesc(e))
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	if msgID, ok := data["message_id"].(string); ok && msgID != "" {
		if len(msgID) > 8 {
			msgID = msgID[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", msgID))
	}

	if typ, ok := data["type"].(string); ok && typ != "" {
		parts = append(parts, typ)
	}

	if owner, ok := data["owner_id"].(string); ok && owner != "" {
		parts = append(parts, owner)
	}

	if errDesc, ok := data["error"].(string); ok && errDesc != "" {
		parts = append(parts, errDesc)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
