package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kingrea/brief/internal/brief"
	"github.com/kingrea/brief/internal/document"
)

func sampleDocument(t *testing.T) document.Document {
	t.Helper()
	rec := brief.NewRecord()
	rec.SetCommonInfo(brief.CommonInfo{
		ClientName:    "Иван",
		ClientSurname: "Петров",
		Email:         "ivan@example.com",
		Address:       "Москва",
		Area:          45,
	})
	var premises brief.Premises
	kitchen := premises.AddRoom("Кухня", brief.RoomTypeWet)
	premises.AddRoom("Спальня", brief.RoomTypeLiving)
	rec.SetPremises(premises)
	equipment := brief.AlignEquipment(premises, nil)
	require.NoError(t, equipment.AddItem(kitchen, brief.NewEquipmentItem("Холодильник", "Кухня", brief.SourceSuggested)))
	rec.SetEquipment(equipment)

	doc, err := document.Assemble(rec, document.WithClock(func() time.Time {
		return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	return doc
}

func findRow(rows [][]string, label string) []string {
	for _, row := range rows {
		if len(row) > 0 && row[0] == label {
			return row
		}
	}
	return nil
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"xlsx": FormatXLSX, " TEXT ": FormatText, "txt": FormatText, "json": FormatJSON} {
		got, err := ParseFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
	assert.Equal(t, ".txt", FormatText.Extension())
	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
}

func TestXLSXHasOneSheetPerPage(t *testing.T) {
	doc := sampleDocument(t)
	data, err := XLSX(doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Страница 1", "Страница 2", "Страница 3"}, f.GetSheetList())

	rows, err := f.GetRows("Страница 1")
	require.NoError(t, err)
	assert.Equal(t, "Техническое задание (стр. 1)", rows[0][0])
	assert.Equal(t, "Общая информация", rows[2][0])
	assert.Equal(t, []string{"Площадь объекта", "45 м²"}, findRow(rows, "Площадь объекта"))

	styleID, err := f.GetCellStyle("Страница 1", "A3")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold, "section rows are bold")

	rows, err = f.GetRows("Страница 3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Холодильник", "1 шт."}, findRow(rows, "Холодильник"))
	assert.NotNil(t, findRow(rows, "2. Спальня"))
	assert.NotNil(t, findRow(rows, document.NoEquipment))

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "Техническое задание", props.Title)
}

func TestTextRendering(t *testing.T) {
	text := Text(sampleDocument(t))
	assert.True(t, strings.HasPrefix(text, "Техническое задание\n"))
	assert.Contains(t, text, "Страница 2")
	assert.Contains(t, text, "Состав помещений")
	assert.Contains(t, text, "1. Кухня")
	assert.Contains(t, text, "45 м²")
	assert.Contains(t, text, "  "+document.NoEquipment)
	assert.NotContains(t, text, "\x1b[", "plain text carries no escape codes")
}

func TestJSONRoundTrip(t *testing.T) {
	doc := sampleDocument(t)
	data, err := JSON(doc)
	require.NoError(t, err)
	var back document.Document
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc.FileBase, back.FileBase)
	assert.Equal(t, doc.Pages, back.Pages)
}

func TestExporterWritesNamedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := New(dir)
	doc := sampleDocument(t)

	path, err := exporter.Write(doc, FormatText)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "brief_Петров_2026-10-15.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Text(doc), string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files remain")

	out := filepath.Join(t.TempDir(), "custom.xlsx")
	require.NoError(t, exporter.WriteFile(doc, FormatXLSX, out))
	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	assert.Len(t, f.GetSheetList(), 3)
	require.NoError(t, f.Close())
}

func TestExporterReportsUnwritableDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := New(filepath.Join(blocker, "exports")).Write(sampleDocument(t), FormatJSON)
	assert.Error(t, err)
}
