package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// updateDetailsViewport renders the details of the open movie into the viewport.
func (m *Model) updateDetailsViewport() {
	m.details.view.SetContent(m.renderDetails())
}

func (m Model) renderDetails() string {
	mv := m.details.movie
	width := max(20, m.details.view.Width)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	title := titleStyle.Render(mv.Title)
	if len(mv.ReleaseDate) >= 4 {
		title += " " + yearStyle.Render("("+mv.ReleaseDate[:4]+")")
	}
	b.WriteString(title + "\n")

	switch {
	case m.details.loading:
		b.WriteString(subtleStyle.Render("Loading details…"))
		return b.String()
	case m.details.err != nil:
		b.WriteString(errorStyle.Render("Could not load details: " + m.details.err.Error()))
		return b.String()
	case m.details.result == nil:
		return b.String()
	}

	res := m.details.result
	d := res.Details
	var facts []string
	if d.VoteAverage > 0 {
		facts = append(facts, ratingStyle.Render(fmt.Sprintf("★ %.1f", d.VoteAverage))+fmt.Sprintf(" (%d votes)", d.VoteCount))
	}
	if d.Runtime > 0 {
		facts = append(facts, fmt.Sprintf("%d min", d.Runtime))
	}
	if len(d.Genres) > 0 {
		names := make([]string, len(d.Genres))
		for i, g := range d.Genres {
			names[i] = g.Name
		}
		facts = append(facts, strings.Join(names, ", "))
	}
	if len(facts) > 0 {
		b.WriteString(strings.Join(facts, " · ") + "\n")
	}
	if d.Tagline != "" {
		b.WriteString(subtitleStyle.Render(d.Tagline) + "\n")
	}
	overview := d.Overview
	if overview == "" {
		overview = mv.Overview
	}
	if overview != "" {
		b.WriteString("\n" + wrap.Render(overview) + "\n")
	}
	b.WriteString("\nPoster: " + posterOrPlaceholder(res.PosterURL) + "\n")

	b.WriteString(sectionStyle.Render("Similar movies") + "\n")
	if len(res.Similar) == 0 {
		b.WriteString(subtleStyle.Render("None found."))
		return b.String()
	}
	for i, s := range res.Similar {
		line := "• " + s.Title
		if y := s.Year(); y != "" {
			line += " " + yearStyle.Render("("+y+")")
		}
		url := ""
		if i < len(res.PosterURLs) {
			url = res.PosterURLs[i]
		}
		b.WriteString(line + "\n    " + posterOrPlaceholder(url) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func posterOrPlaceholder(url string) string {
	if url == "" {
		return placeholderSign
	}
	return subtleStyle.Render(url)
}
