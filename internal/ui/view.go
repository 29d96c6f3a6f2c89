package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.state == stateQuit {
		return ""
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	var body string
	switch m.state {
	case stateDetails:
		body = m.details.view.View()
	default:
		body = m.renderList()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Movies"))
	if q := m.list.Query(); q != "" {
		b.WriteString(" " + subtitleStyle.Render(fmt.Sprintf("search: %s", q)))
	} else {
		b.WriteString(" " + subtitleStyle.Render("popular"))
	}
	if m.busy() {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	if m.state == stateSearch {
		b.WriteString(m.search.input.View())
		b.WriteString("\n")
	}
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(10, m.width-2))))
	return b.String()
}

func (m Model) renderList() string {
	n := m.list.ResultCount()
	if n == 0 {
		if m.list.Loading() {
			return subtleStyle.Render("Loading…")
		}
		return subtleStyle.Render("No movies.")
	}

	query := m.list.Query()
	end := min(m.rows.offset+m.rows.viewport, n)
	width := max(20, m.width-2)
	lines := make([]string, 0, end-m.rows.offset)
	for row := m.rows.offset; row < end; row++ {
		mv := m.list.ResultAt(row)
		line := fmt.Sprintf("%4d. %s", row+1, highlightTitle(mv.Title, query))
		if len(mv.ReleaseDate) >= 4 {
			line += " " + yearStyle.Render("("+mv.ReleaseDate[:4]+")")
		}
		if mv.VoteAverage > 0 {
			line += "  " + ratingStyle.Render(fmt.Sprintf("★ %.1f", mv.VoteAverage))
		}
		if row == m.rows.cursor {
			line = cursorBarStyle.Render(" ") + cursorLineStyle.Width(width-1).Render(line)
		} else {
			line = " " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	status := m.statusMsg
	if status == "" {
		status = m.listStatus()
	}
	if m.metrics != nil {
		s := m.metrics.Snapshot()
		status += fmt.Sprintf(" · %d requests", s.TotalRequests)
		if s.TotalRetries > 0 {
			status += fmt.Sprintf(", %d retries", s.TotalRetries)
		}
	}
	var b strings.Builder
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	}
	switch m.state {
	case stateSearch:
		b.WriteString(renderFooter(status, "enter: search  esc: cancel (empty: back to popular)"))
	case stateDetails:
		b.WriteString(renderFooter("", "j/k: scroll  esc: back  q: quit"))
	default:
		b.WriteString(renderFooter(status))
		b.WriteString("\n" + m.help.View(m.keys))
	}
	return b.String()
}
