package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Full Names", "Contract Number", "Status"},
		Rows: []map[string]string{
			{"Full Names": "Ada Lovelace", "Contract Number": "202211001706", "Status": "confirmed"},
			{"Full Names": "Alan Turing", "Contract Number": "202211001707", "Status": "pending"},
		},
	}
}

func TestCSVExporterOrdersColumnsByHeader(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(), "")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Full Names,Contract Number,Status", lines[0])
	assert.Equal(t, "Ada Lovelace,202211001706,confirmed", lines[1])
}

func TestXLSXExporterRoundTrip(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Accounts")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("Accounts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Alan Turing", "202211001707", "pending"}, rows[2])
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "accounts")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderersRejectEmptyHeaders(t *testing.T) {
	for format, r := range Renderers() {
		_, err := r.Render(Dataset{}, "x")
		assert.Error(t, err, format)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
