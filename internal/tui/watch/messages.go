package watch

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// newMessageTable builds the recent-messages table.
func newMessageTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 8},
			{Title: "User", Width: 12},
			{Title: "Message", Width: 32},
			{Title: "File", Width: 18},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func messageRowsToTable(rows []messageRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		ts := r.Timestamp
		if parsed, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
			ts = parsed.Local().Format("15:04:05")
		}
		user := r.LineUserID
		if len(user) > 12 {
			user = user[:12]
		}
		msg := r.Message
		if len(msg) > 32 {
			msg = msg[:29] + "..."
		}
		file := r.Filename
		if len(file) > 18 {
			file = file[:15] + "..."
		}
		out = append(out, table.Row{ts, user, msg, file})
	}
	return out
}
