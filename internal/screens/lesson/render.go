package lesson

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/ui/theme"
)

// renderContent renders lesson content at width cw and splits it into
// lines for scrolling.
func renderContent(c catalog.Content, cw int) []string {
	if len(c) == 0 {
		return []string{theme.Hint.Render("This lesson has no reading material.")}
	}
	var parts []string
	for _, sec := range c {
		if sec.Heading != "" {
			parts = append(parts, theme.Heading.Render(sec.Heading))
		}
		for _, b := range sec.Blocks {
			if s := renderBlock(b, cw); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Split(strings.Join(parts, "\n\n"), "\n")
}

func renderBlock(b catalog.Block, cw int) string {
	wrap := lipgloss.NewStyle().Width(cw)
	switch b.Kind() {
	case catalog.BlockText:
		return wrap.Foreground(theme.Text).Render(b.Text)
	case catalog.BlockList:
		items := make([]string, len(b.List))
		for i, item := range b.List {
			items[i] = lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Render("  • " + item)
		}
		return strings.Join(items, "\n")
	case catalog.BlockTable:
		return renderTable(b.Table, cw)
	case catalog.BlockQuote:
		return theme.Quote.Width(cw - 2).Render(b.Quote)
	case catalog.BlockExample:
		return theme.Example.Width(cw - 2).Render(b.Example)
	case catalog.BlockCallout:
		return theme.Callout.Width(cw - 4).Render(b.Callout)
	case catalog.BlockLink:
		caption := b.Link.Caption
		if caption == "" {
			caption = b.Link.URL
		}
		return theme.Link.Render("→ "+caption) + "\n" + theme.Hint.Render("  "+b.Link.URL)
	}
	return ""
}

// renderTable lays out a table with columns padded to their widest cell.
func renderTable(t *catalog.Table, cw int) string {
	cols := len(t.Header)
	for _, r := range t.Rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return ""
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	measure(t.Header)
	for _, r := range t.Rows {
		measure(r)
	}

	line := func(row []string) string {
		cells := make([]string, cols)
		for i := range cells {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.TrimRight(strings.Join(cells, " │ "), " ")
	}

	var b strings.Builder
	if len(t.Header) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(line(t.Header)))
		b.WriteString("\n")
		total := 0
		for _, w := range widths {
			total += w
		}
		total += 3 * (cols - 1)
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(total, cw))))
	}
	for _, r := range t.Rows {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(line(r)))
	}
	return b.String()
}
