package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kingrea/brief/internal/document"
)

const (
	defaultSheet = "Sheet1"
	lastColumn   = 6
	labelWidth   = 36
	cellWidth    = 24
)

// SheetName returns the worksheet name of a page.
func SheetName(page int) string {
	return fmt.Sprintf("Страница %d", page)
}

type sheetStyles struct {
	title       int
	section     int
	heading     int
	label       int
	value       int
	placeholder int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var (
		s   sheetStyles
		err error
	)
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	wrap := &excelize.Alignment{Vertical: "top", WrapText: true}
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.section, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 12},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return s, err
	}
	if s.heading, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return s, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Border:    border,
		Alignment: wrap,
	}); err != nil {
		return s, err
	}
	if s.value, err = f.NewStyle(&excelize.Style{Border: border, Alignment: wrap}); err != nil {
		return s, err
	}
	if s.placeholder, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Italic: true, Color: "#808080"},
		Border: border,
	}); err != nil {
		return s, err
	}
	return s, nil
}

// XLSX renders doc as a workbook with one worksheet per page.
func XLSX(doc document.Document) ([]byte, error) {
	f := excelize.NewFile()
	styles, err := newSheetStyles(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("export: xlsx styles: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   doc.Title,
		Subject: doc.FileBase,
		Creator: "brief",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: xlsx properties: %w", err)
	}
	for i, page := range doc.Pages {
		name := SheetName(page.Number)
		if i == 0 {
			err = f.SetSheetName(defaultSheet, name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("export: xlsx sheet %s: %w", name, err)
		}
		if err := writePage(f, name, doc, page, styles); err != nil {
			f.Close()
			return nil, fmt.Errorf("export: xlsx %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: xlsx write: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("export: xlsx close: %w", err)
	}
	return buf.Bytes(), nil
}

type pageWriter struct {
	f      *excelize.File
	sheet  string
	row    int
	styles sheetStyles
}

func writePage(f *excelize.File, sheet string, doc document.Document, page document.Page, styles sheetStyles) error {
	w := &pageWriter{f: f, sheet: sheet, row: 1, styles: styles}
	if err := w.widths(); err != nil {
		return err
	}
	if err := w.banner(fmt.Sprintf("%s (стр. %d)", doc.Title, page.Number), styles.title); err != nil {
		return err
	}
	w.row++
	for _, section := range page.Sections {
		if err := w.banner(section.Title, styles.section); err != nil {
			return err
		}
		for _, row := range section.Rows {
			if err := w.write(row); err != nil {
				return err
			}
		}
		w.row++
	}
	return nil
}

func (w *pageWriter) widths() error {
	for col := 1; col <= lastColumn; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		width := float64(cellWidth)
		if col == 1 {
			width = labelWidth
		}
		if err := w.f.SetColWidth(w.sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// banner writes text across every column of the current row.
func (w *pageWriter) banner(text string, style int) error {
	first, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(lastColumn, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.sheet, first, text); err != nil {
		return err
	}
	if err := w.f.MergeCell(w.sheet, first, last); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, first, last, style); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *pageWriter) write(row document.Row) error {
	switch row.Kind {
	case document.RowHeading:
		return w.banner(row.Label, w.styles.heading)
	case document.RowPlaceholder:
		if err := w.cell(1, row.Label, w.styles.placeholder); err != nil {
			return err
		}
	default:
		if err := w.cell(1, row.Label, w.styles.label); err != nil {
			return err
		}
		for i, value := range row.Cells {
			if i+2 > lastColumn {
				break
			}
			if err := w.cell(i+2, value, w.styles.value); err != nil {
				return err
			}
		}
	}
	w.row++
	return nil
}

func (w *pageWriter) cell(col int, value string, style int) error {
	name, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		return err
	}
	if value != "" {
		if err := w.f.SetCellValue(w.sheet, name, value); err != nil {
			return err
		}
	}
	return w.f.SetCellStyle(w.sheet, name, name, style)
}
