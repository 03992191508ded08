package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var providers = []string{"Asianet", "KCCL", "BSNL", "KFoN"}

func decodeCSV(t *testing.T, body string) Result {
	t.Helper()
	res, err := NewDecoder(providers).Decode(FormatCSV, strings.NewReader(body))
	require.NoError(t, err)
	return res
}

func TestDecodeCSVAcceptsAliasSpellings(t *testing.T) {
	body := "subscriber name,MOBILE NUMBER,locality,Provider,monthly_fee,Connected On,STATUS\n" +
		"Anil,9876543210,Aluva,asianet,650,2024-02-01,Suspended\n"

	res := decodeCSV(t, body)
	require.Len(t, res.Accepted, 1)
	assert.Empty(t, res.Skipped)

	row := res.Accepted[0].Normalized
	assert.Equal(t, "Anil", row.Name)
	assert.Equal(t, "9876543210", row.Phone)
	assert.Equal(t, "Aluva", row.Area)
	assert.Equal(t, "Asianet", row.ServiceProvider)
	assert.Equal(t, 650.0, row.MonthlyFee)
	assert.Equal(t, domain.StatusSuspended, row.Status)
	assert.Equal(t, "SUB-IMPORT-001", row.SubscriberCode)
	require.NotNil(t, row.ConnectionDate)
}

func TestDecodeDropsRowsMissingRequiredFields(t *testing.T) {
	body := strings.Join([]string{
		"Subscriber_Id,Name,Mobile,Area,Service,Monthly Fee,Status",
		"C-1,Anil,9876543210,Aluva,KCCL,500,active",
		"C-2,Beena,9876543211,,KCCL,500,active",
		"C-3,Chacko,98765,Aluva,KCCL,500,active",
		"C-4,,9876543213,Aluva,KCCL,500,active",
		"C-5,Deepa,9876543214,Aluva,,500,active",
		",Eapen,9876543215,Aluva,BSNL,abc,retired",
		",,,,,,",
	}, "\n")

	res := decodeCSV(t, body)
	assert.Equal(t, 6, res.Rows)
	require.Len(t, res.Accepted, 2)

	assert.Equal(t, "C-1", res.Accepted[0].Normalized.SubscriberCode)

	last := res.Accepted[1]
	assert.Equal(t, 6, last.Index)
	assert.Equal(t, "SUB-IMPORT-006", last.Normalized.SubscriberCode)
	assert.Zero(t, last.Normalized.MonthlyFee)
	assert.Equal(t, domain.StatusActive, last.Normalized.Status)

	require.Len(t, res.Skipped, 4)
	assert.Equal(t, 2, res.Skipped[0].Row)
	assert.Contains(t, res.Skipped[0].Reason, "area")
	assert.Contains(t, res.Skipped[1].Reason, "invalid_phone")
}

func TestDecodeFirstAliasWins(t *testing.T) {
	body := "Name,Contact,Phone,Area,Service\nAnil,1111111111,9876543210,Aluva,BSNL\n"
	res := decodeCSV(t, body)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "9876543210", res.Accepted[0].Normalized.Phone)
}

func TestDecodeAllInvalidYieldsNoRows(t *testing.T) {
	res := decodeCSV(t, "Name,Mobile\nAnil,9876543210\n")
	assert.Empty(t, res.Accepted)
	assert.Len(t, res.Skipped, 1)
}

func TestDecodeEmptyFile(t *testing.T) {
	_, err := NewDecoder(providers).Decode(FormatCSV, strings.NewReader(""))
	var importErr *domain.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.ErrorIs(t, err, domain.ErrNoValidRows)
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Subscriber Code", "Customer Name", "Phone", "Zone", "Address", "Service Provider", "Fee"},
		{"", "Anil", "+91 98765 43210", "Aluva", "Temple Road", "KFoN", 799},
		{"", "Beena", "9876543211", "", "", "KFoN", 300},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := NewDecoder(providers).Decode(FormatXLSX, &buf)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "9876543210", res.Accepted[0].Normalized.Phone)
	assert.Equal(t, 799.0, res.Accepted[0].Normalized.MonthlyFee)
	assert.Equal(t, "Temple Road", res.Accepted[0].Normalized.Address)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].Row)
}

func TestDecodeUnreadableXLSX(t *testing.T) {
	_, err := NewDecoder(providers).Decode(FormatXLSX, strings.NewReader("not a workbook"))
	var importErr *domain.ImportError
	assert.True(t, errors.As(err, &importErr))
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("Subscribers.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = DetectFormat("list.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = DetectFormat("list.pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestNormalizeHelpers(t *testing.T) {
	assert.Equal(t, "monthly fee", normalizeHeader("  Monthly__Fee "))
	assert.Equal(t, "subscriber id", normalizeHeader("SUBSCRIBER_ID"))

	assert.Equal(t, "9876543210", normalizePhone("09876543210"))
	assert.Equal(t, "9876543210", normalizePhone("9876543210.0"))
	assert.Equal(t, "98x", normalizePhone("98x"))

	assert.Equal(t, "2024-03-01", normalizeDate("01/03/2024"))
	assert.Equal(t, "", normalizeDate("sometime"))
}

func TestTemplateCSV(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(string(TemplateCSV())), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Subscriber_Id,Name,Mobile,Area,Address,Monthly Fee,Connection Date,Status", lines[0])

	cols := resolveColumns(TemplateHeader)
	for _, f := range []Field{FieldCode, FieldName, FieldPhone, FieldArea, FieldAddress, FieldMonthlyFee, FieldConnectionDate, FieldStatus} {
		assert.Contains(t, cols, f)
	}
	assert.NotContains(t, cols, FieldServiceProvider)
}

func TestDecodeNonFiniteFeeFallsBackToZero(t *testing.T) {
	body := strings.Join([]string{
		"Name,Mobile,Area,Service,Monthly Fee",
		"Anil,9876543210,Aluva,KCCL,Inf",
		"Beena,9876543211,Aluva,KCCL,+Inf",
		"Chacko,9876543212,Aluva,KCCL,infinity",
		"Deepa,9876543213,Aluva,KCCL,NaN",
	}, "\n")

	res := decodeCSV(t, body)
	require.Len(t, res.Accepted, 4)
	assert.Empty(t, res.Skipped)
	for _, row := range res.Accepted {
		assert.Zero(t, row.Normalized.MonthlyFee, row.Normalized.Name)
	}
}

func TestDecodeSkipsReservedArea(t *testing.T) {
	body := "Name,Mobile,Area,Service\nAnil,9876543210,ALL,KCCL\nBeena,9876543211,Aluva,KCCL\n"

	res := decodeCSV(t, body)
	require.Len(t, res.Accepted, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Row)
	assert.Contains(t, res.Skipped[0].Reason, "reserved_area")
}
