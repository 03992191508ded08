package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/cabledesk/internal/subscriber/code"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/validation"
	"github.com/xuri/excelize/v2"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Row is one accepted spreadsheet row.
type Row struct {
	Index      int
	Normalized domain.Normalized
}

type Result struct {
	Format   string
	Rows     int
	Accepted []Row
	Skipped  []domain.SkippedRow
}

// Decoder turns a spreadsheet into validated rows.
type Decoder struct {
	providers []string
}

func NewDecoder(providers []string) *Decoder {
	return &Decoder{providers: providers}
}

// DetectFormat picks the decoder from the file extension.
func DetectFormat(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", domain.ErrUnsupportedFile
}

// Decode reads every data row of r. Rows that fail the import rules are
// reported in Result.Skipped and never abort the decode.
func (d *Decoder) Decode(format string, r io.Reader) (Result, error) {
	table, err := readTable(format, r)
	if err != nil {
		return Result{}, &domain.ImportError{Reason: "unreadable " + format + " file", Err: err}
	}
	if len(table) == 0 {
		return Result{}, &domain.ImportError{Reason: "file has no header row", Err: domain.ErrNoValidRows}
	}

	cols := resolveColumns(table[0])
	res := Result{Format: format}
	for i, record := range table[1:] {
		if blank(record) {
			continue
		}
		rowIndex := i + 1
		res.Rows++

		norm, reason := d.decodeRow(rowIndex, record, cols)
		if reason != "" {
			res.Skipped = append(res.Skipped, domain.SkippedRow{Row: rowIndex, Reason: reason})
			continue
		}
		res.Accepted = append(res.Accepted, Row{Index: rowIndex, Normalized: norm})
	}
	return res, nil
}

func (d *Decoder) decodeRow(rowIndex int, record []string, cols map[Field]int) (domain.Normalized, string) {
	cell := func(f Field) string {
		i, ok := cols[f]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	form := domain.FormInput{
		SubscriberCode:  cell(FieldCode),
		Name:            cell(FieldName),
		Phone:           normalizePhone(cell(FieldPhone)),
		Area:            cell(FieldArea),
		Address:         cell(FieldAddress),
		ServiceProvider: cell(FieldServiceProvider),
		ConnectionDate:  normalizeDate(cell(FieldConnectionDate)),
	}

	// Unparseable, negative or non-finite fees become 0 rather than dropping the row.
	if fee, ok := validation.ParseFee(strings.ReplaceAll(cell(FieldMonthlyFee), ",", "")); ok {
		form.MonthlyFee = strconv.FormatFloat(fee, 'f', -1, 64)
	}
	if status, ok := domain.ParseStatus(cell(FieldStatus)); ok {
		form.Status = string(status)
	}
	if form.SubscriberCode == "" {
		form.SubscriberCode = code.ImportCode(rowIndex)
	}

	norm, err := validation.Validate(form, validation.ImportRules(d.providers))
	if err != nil {
		return domain.Normalized{}, err.Error()
	}
	return norm, ""
}

func readTable(format string, r io.Reader) ([][]string, error) {
	switch format {
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		return reader.ReadAll()
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sheet := f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		return f.GetRows(sheet)
	}
	return nil, domain.ErrUnsupportedFile
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizePhone strips the formatting spreadsheets add to numbers:
// separators, a trailing ".0" from numeric cells and a +91 or 0 prefix on
// otherwise valid Indian mobile numbers.
func normalizePhone(raw string) string {
	raw = strings.TrimSuffix(raw, ".0")
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+':
		default:
			return raw
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return digits[1:]
	}
	return digits
}

// dateLayouts are tried in order; "01-02-06" is excelize's rendering of the
// built-in short date format.
var dateLayouts = []string{domain.DateLayout, "02-01-2006", "02/01/2006", "2006/01/02", "01-02-06"}

// normalizeDate rewrites a recognised date as YYYY-MM-DD. Anything else is
// dropped; connection date is optional on import.
func normalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(domain.DateLayout)
		}
	}
	return ""
}

// ToCSV renders rows with a header, used for the template and dry-run output.
func ToCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
