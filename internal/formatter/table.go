package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harunnryd/lectern/internal/store"
	"github.com/harunnryd/lectern/internal/tool"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *TableFormatter) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

// FormatCourses renders the course catalog.
func (f *TableFormatter) FormatCourses(courses []store.CourseRecord) string {
	if len(courses) == 0 {
		return "No courses found"
	}

	t := f.newTable("Title", "Instructor", "Lessons", "Chunks", "Link")
	for _, c := range courses {
		t.Row(
			truncateString(c.Title, 40),
			truncateString(c.Instructor, 20),
			strconv.Itoa(len(c.Lessons)),
			strconv.Itoa(c.Chunks),
			truncateString(c.Link, 40),
		)
	}
	return t.String()
}

func (f *TableFormatter) FormatSessions(sessions []store.SessionMeta) string {
	if len(sessions) == 0 {
		return "No sessions found"
	}

	t := f.newTable("ID", "Title", "Exchanges", "Updated")
	for _, s := range sessions {
		t.Row(
			s.ID,
			truncateString(s.Title, 40),
			strconv.Itoa(s.Exchanges),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return t.String()
}

// FormatSources renders citations as a numbered list.
func FormatSources(sources []tool.Source) string {
	if len(sources) == 0 {
		return "No sources"
	}

	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, s.Label)
		if s.Link != "" {
			fmt.Fprintf(&b, " (%s)", s.Link)
		}
	}
	return b.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
