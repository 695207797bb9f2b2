// Package export renders tabular projections of CRM records as CSV or
// XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// ParseContactFields validates a comma-separated field selection against
// the export whitelist, preserving canonical column order. Empty input
// selects every field.
func ParseContactFields(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return contactdomain.ExportFields, nil
	}

	requested := make(map[string]bool)
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		known := false
		for _, allowed := range contactdomain.ExportFields {
			if f == allowed {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown export field %q", f)
		}
		requested[f] = true
	}
	if len(requested) == 0 {
		return contactdomain.ExportFields, nil
	}

	fields := make([]string, 0, len(requested))
	for _, f := range contactdomain.ExportFields {
		if requested[f] {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func contactValue(c contactdomain.Contact, field string) string {
	switch field {
	case "id":
		return c.ID.String()
	case "name":
		return c.Name
	case "email":
		return c.Email
	case "phone":
		return c.Phone
	case "company":
		return c.Company
	case "created_at":
		return c.CreatedAt.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// ContactRows projects contacts onto the selected fields.
func ContactRows(fields []string, contacts []contactdomain.Contact) [][]string {
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = contactValue(c, f)
		}
		rows = append(rows, row)
	}
	return rows
}

// Write renders the header plus rows in the requested format. Zero rows
// still produce a header-only file.
func Write(w io.Writer, format Format, header []string, rows [][]string) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, header, rows)
	default:
		return writeCSV(w, header, rows)
	}
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		converted := make([]interface{}, len(values))
		for i, v := range values {
			converted[i] = v
		}
		return f.SetSheetRow(sheet, cell, &converted)
	}

	if err := writeRow(1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
