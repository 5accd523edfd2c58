package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dsillex/formfill/internal/models"
)

// buildRoster builds a workbook with a header row and a totals formula.
func buildRoster(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "First Name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Last Name"))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", "NPI"))
	require.NoError(t, f.SetCellFormula("Sheet1", "D3", "SUM(C2:C3)"))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExcelAdapter_CanProcess(t *testing.T) {
	a := NewExcelAdapter(nil)
	assert.True(t, a.CanProcess(buildRoster(t)))
	assert.False(t, a.CanProcess([]byte("%PDF-1.4")))
	assert.False(t, a.CanProcess(nil))
}

func TestExcelAdapter_AnalyzeDocument(t *testing.T) {
	a := NewExcelAdapter(nil)
	result, err := a.AnalyzeDocument(buildRoster(t), nil)
	require.NoError(t, err)
	require.Len(t, result.Fields, defaultMaxColumns)

	assert.Equal(t, "Sheet1!A", result.Fields[0].ID)
	assert.Equal(t, "First Name", result.Fields[0].Name)
	assert.Equal(t, models.FieldText, result.Fields[0].Type)
	assert.False(t, result.Fields[0].Required)

	// Columns past the header row fall back to a generic label.
	assert.Equal(t, "Sheet1!E", result.Fields[4].ID)
	assert.Equal(t, "Column E", result.Fields[4].Name)
}

func TestExcelAdapter_AnalyzeDocument_columnBounds(t *testing.T) {
	a := NewExcelAdapter(nil)
	content := buildRoster(t)

	result, err := a.AnalyzeDocument(content, &models.AnalyzeOptions{MaxColumns: 3})
	require.NoError(t, err)
	assert.Len(t, result.Fields, 3)

	// The hard cap wins over absurd caller options.
	result, err = a.AnalyzeDocument(content, &models.AnalyzeOptions{MaxColumns: 10000})
	require.NoError(t, err)
	assert.Len(t, result.Fields, hardMaxColumns)
}

func TestExcelAdapter_AnalyzeDocument_corrupt(t *testing.T) {
	a := NewExcelAdapter(nil)
	_, err := a.AnalyzeDocument([]byte("PK\x03\x04 not a real workbook"), nil)
	assert.Error(t, err)
}

func rosterData() *models.DataContext {
	return &models.DataContext{Providers: []models.Record{
		{"firstName": "Ann", "lastName": "Lee", "npi": "1234567890"},
		{"firstName": "Bob", "lastName": "Ray", "npi": "0987654321"},
	}}
}

func TestExcelAdapter_FillDocument_mappingDriven(t *testing.T) {
	a := NewExcelAdapter(nil)
	outPath := filepath.Join(t.TempDir(), "out", "roster.xlsx")

	mappings := []models.FieldMapping{
		{DocumentFieldID: "Sheet1!A", DocumentFieldType: models.FieldText, SourceType: models.SourceProvider, SourcePath: "provider.firstName"},
		{DocumentFieldID: "Sheet1!B", DocumentFieldType: models.FieldText, SourceType: models.SourceProvider, SourcePath: "provider.lastName"},
	}
	result := a.FillDocument(buildRoster(t), mappings, rosterData(), outPath, nil)
	require.True(t, result.Success, "fill failed: %s", result.Error)
	assert.Empty(t, result.Warnings)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	for _, tc := range []struct{ cell, want string }{
		{"A2", "Ann"}, {"B2", "Lee"},
		{"A3", "Bob"}, {"B3", "Ray"},
		{"A1", "First Name"}, {"B1", "Last Name"}, // headers untouched
	} {
		got, err := f.GetCellValue("Sheet1", tc.cell)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "cell %s", tc.cell)
	}
}

func TestExcelAdapter_FillDocument_columnBindingsAndStartRow(t *testing.T) {
	a := NewExcelAdapter(nil)
	outPath := filepath.Join(t.TempDir(), "roster.xlsx")

	opts := &models.SheetFillOptions{
		DataStartRow: 3,
		Columns: []models.ColumnBinding{
			{Column: "B", FieldPath: "lastName"},
		},
	}
	result := a.FillDocument(buildRoster(t), nil, rosterData(), outPath, opts)
	require.True(t, result.Success, "fill failed: %s", result.Error)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	b3, _ := f.GetCellValue("Sheet1", "B3")
	b4, _ := f.GetCellValue("Sheet1", "B4")
	assert.Equal(t, "Lee", b3)
	assert.Equal(t, "Ray", b4)

	// Rows above the data start row and other columns stay unchanged.
	b1, _ := f.GetCellValue("Sheet1", "B1")
	b2, _ := f.GetCellValue("Sheet1", "B2")
	a3, _ := f.GetCellValue("Sheet1", "A3")
	assert.Equal(t, "Last Name", b1)
	assert.Equal(t, "", b2)
	assert.Equal(t, "", a3)
}

func TestExcelAdapter_FillDocument_preservesFormulas(t *testing.T) {
	a := NewExcelAdapter(nil)
	outPath := filepath.Join(t.TempDir(), "roster.xlsx")

	// Column D row 3 carries a formula; a binding that targets column D must
	// not overwrite it.
	opts := &models.SheetFillOptions{Columns: []models.ColumnBinding{
		{Column: "D", FieldPath: "npi"},
	}}
	result := a.FillDocument(buildRoster(t), nil, rosterData(), outPath, opts)
	require.True(t, result.Success)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	formula, err := f.GetCellFormula("Sheet1", "D3")
	require.NoError(t, err)
	assert.Equal(t, "SUM(C2:C3)", formula)

	// The non-formula cell in the same column was written.
	d2, _ := f.GetCellValue("Sheet1", "D2")
	assert.Equal(t, "1234567890", d2)
}

func TestExcelAdapter_FillDocument_unparseableIDWarns(t *testing.T) {
	a := NewExcelAdapter(nil)
	mappings := []models.FieldMapping{{
		DocumentFieldID:   "OtherSheet!B",
		DocumentFieldName: "Last Name",
		DocumentFieldType: models.FieldText,
		SourceType:        models.SourceProvider,
		SourcePath:        "provider.lastName",
	}}
	result := a.FillDocument(buildRoster(t), mappings, rosterData(), filepath.Join(t.TempDir(), "o.xlsx"), nil)
	require.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, `Field "Last Name" not found in document`, result.Warnings[0])
}

func TestExcelAdapter_FillDocument_invalidBindingWarnsOnce(t *testing.T) {
	a := NewExcelAdapter(nil)
	outPath := filepath.Join(t.TempDir(), "o.xlsx")

	// Two roster rows, one bad binding: the warning must not repeat per row.
	opts := &models.SheetFillOptions{Columns: []models.ColumnBinding{
		{Column: "1A", FieldPath: "npi"},
		{Column: "B", FieldPath: "lastName"},
	}}
	result := a.FillDocument(buildRoster(t), nil, rosterData(), outPath, opts)
	require.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, `Column "1A" is not a valid column letter`, result.Warnings[0])

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()
	b3, _ := f.GetCellValue("Sheet1", "B3")
	assert.Equal(t, "Ray", b3)
}

func TestExcelAdapter_FillDocument_singleProviderFallback(t *testing.T) {
	a := NewExcelAdapter(nil)
	outPath := filepath.Join(t.TempDir(), "one.xlsx")
	data := &models.DataContext{Provider: models.Record{"lastName": "Solo"}}

	opts := &models.SheetFillOptions{Columns: []models.ColumnBinding{{Column: "B", FieldPath: "lastName"}}}
	result := a.FillDocument(buildRoster(t), nil, data, outPath, opts)
	require.True(t, result.Success)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()
	b2, _ := f.GetCellValue("Sheet1", "B2")
	assert.Equal(t, "Solo", b2)
}

func TestExcelAdapter_PreviewData(t *testing.T) {
	a := NewExcelAdapter(nil)
	rows, err := a.PreviewData(buildRoster(t), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"First Name", "Last Name", "NPI"}, rows[0])
}

func TestExcelAdapter_ExtractText(t *testing.T) {
	a := NewExcelAdapter(nil)
	text, err := a.ExtractText(buildRoster(t))
	require.NoError(t, err)
	assert.Contains(t, text, "First Name\tLast Name\tNPI")
}
