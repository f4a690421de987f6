// Package static renders non-interactive terminal output such as the hook
// listing.
package static

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/jim/internal/ui/styles"
)

// RenderTable lays out rows under headers in borderless, left-aligned
// columns. The first column is highlighted. Returns "" when there are no
// rows.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	cell := lipgloss.NewStyle().PaddingRight(2)

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.HeaderStyle.PaddingRight(2)
			case col == 0:
				return styles.AccentStyle.PaddingRight(2)
			default:
				return cell
			}
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// Summary returns the first non-empty, non-shebang line of a script body,
// truncated to width runes.
func Summary(body string, width int) string {
	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#!") {
			continue
		}
		r := []rune(line)
		if width > 3 && len(r) > width {
			return string(r[:width-3]) + "..."
		}
		return line
	}
	return ""
}
