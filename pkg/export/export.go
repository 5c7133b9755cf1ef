package export

import (
	"fmt"
	"strings"
)

// Format names an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Renderer turns a dataset into bytes.
type Renderer interface {
	Render(data Dataset, title string) ([]byte, error)
}

// ParseFormat normalises a user supplied format, defaulting to xlsx.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatXLSX, nil
	case FormatCSV, FormatPDF, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Renderers returns the tabular renderers keyed by format. JSON is encoded by callers.
func Renderers() map[Format]Renderer {
	return map[Format]Renderer{
		FormatCSV:  NewCSVExporter(),
		FormatPDF:  NewPDFExporter(),
		FormatXLSX: NewXLSXExporter(),
	}
}
