package export

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/brief/internal/document"
)

// Palette holds the styles used by the text renderer.
type Palette struct {
	Title       lipgloss.Style
	Page        lipgloss.Style
	Section     lipgloss.Style
	Heading     lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	Placeholder lipgloss.Style
}

// NewPalette builds styles bound to renderer r. A renderer writing to a
// non-terminal produces plain text.
func NewPalette(r *lipgloss.Renderer) Palette {
	return Palette{
		Title:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		Page:        r.NewStyle().Foreground(lipgloss.Color("#999999")),
		Section:     r.NewStyle().Bold(true).Underline(true),
		Heading:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801")),
		Label:       r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		Value:       r.NewStyle(),
		Placeholder: r.NewStyle().Italic(true).Foreground(lipgloss.Color("#999999")),
	}
}

// Text renders doc without terminal styling.
func Text(doc document.Document) string {
	return Render(doc, NewPalette(lipgloss.NewRenderer(io.Discard)), 0)
}

// Render lays doc out as text using palette. A positive width wraps the
// output.
func Render(doc document.Document, palette Palette, width int) string {
	var b strings.Builder
	b.WriteString(palette.Title.Render(doc.Title))
	b.WriteString("\n")
	for _, page := range doc.Pages {
		b.WriteString("\n")
		b.WriteString(palette.Page.Render(SheetName(page.Number)))
		b.WriteString("\n")
		for _, section := range page.Sections {
			b.WriteString("\n")
			b.WriteString(palette.Section.Render(section.Title))
			b.WriteString("\n")
			renderRows(&b, section.Rows, palette)
		}
	}
	out := strings.TrimRight(b.String(), "\n") + "\n"
	if width > 0 {
		return palette.Value.Width(width).Render(out)
	}
	return out
}

func renderRows(b *strings.Builder, rows []document.Row, palette Palette) {
	indent := ""
	pad := 0
	for _, row := range rows {
		if row.Kind == document.RowHeading {
			indent = "  "
		}
		if row.Kind == document.RowValue {
			pad = max(pad, lipgloss.Width(row.Label))
		}
	}
	for _, row := range rows {
		switch row.Kind {
		case document.RowHeading:
			b.WriteString(palette.Heading.Render(row.Label))
		case document.RowPlaceholder:
			b.WriteString(indent)
			b.WriteString(palette.Placeholder.Render(row.Label))
		default:
			b.WriteString(indent)
			label := row.Label + strings.Repeat(" ", pad-lipgloss.Width(row.Label))
			b.WriteString(palette.Label.Render(label))
			if values := nonEmpty(row.Cells); len(values) > 0 {
				b.WriteString("  ")
				b.WriteString(palette.Value.Render(strings.Join(values, " | ")))
			}
		}
		b.WriteString("\n")
	}
}

func nonEmpty(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			out = append(out, cell)
		}
	}
	return out
}
