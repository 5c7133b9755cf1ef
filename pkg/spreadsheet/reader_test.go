package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadRowsWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"fullnames", "contractNumber"},
		{"Ada Lovelace", "202211001706"},
	})

	rows, err := ReadRows(bytes.NewReader(data), "ledger.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "202211001706", rows[1][1])
}

func TestReadRowsSniffsWorkbookWithoutExtension(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{{"a"}})
	rows, err := ReadRows(bytes.NewReader(data), "upload")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReadRowsCSV(t *testing.T) {
	input := "\xef\xbb\xbffullnames,contractNumber\nAda, 202211001706\nshort\n"
	rows, err := ReadRows(strings.NewReader(input), "ledger.CSV")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "fullnames", rows[0][0])
	assert.Equal(t, "202211001706", rows[1][1])
	assert.Equal(t, []string{"short"}, rows[2])
}

func TestReadRowsUnsupported(t *testing.T) {
	_, err := ReadRows(strings.NewReader("hello"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCell(t *testing.T) {
	row := []string{"  a  ", "b"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
}
