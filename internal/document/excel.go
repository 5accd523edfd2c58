package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/models"
	"github.com/dsillex/formfill/internal/resolve"
)

const (
	// defaultMaxColumns bounds how many columns become synthesized fields.
	defaultMaxColumns = 10
	// hardMaxColumns is the absolute cap regardless of caller options.
	hardMaxColumns = 200
	// defaultDataStartRow leaves row 1 for headers.
	defaultDataStartRow = 2
)

// ExcelAdapter analyzes and fills spreadsheet workbooks. Spreadsheets have no
// native form-field concept, so analysis synthesizes one field per column
// letter on the first sheet; real column semantics arrive later as an
// externally-configured column binding list.
type ExcelAdapter struct {
	logger   *zap.Logger
	resolver *resolve.Resolver
}

// NewExcelAdapter returns a spreadsheet adapter. logger may be nil.
func NewExcelAdapter(logger *zap.Logger) *ExcelAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExcelAdapter{logger: logger, resolver: resolve.New(logger)}
}

func (a *ExcelAdapter) Type() models.DocumentType { return models.DocumentExcel }

// CanProcess checks the ZIP local-file-header signature only.
func (a *ExcelAdapter) CanProcess(content []byte) bool {
	return bytes.HasPrefix(content, zipMagic)
}

// AnalyzeDocument synthesizes one text field per column letter on the first
// sheet. Row 1 text, when present, becomes the field's human label.
func (a *ExcelAdapter) AnalyzeDocument(content []byte, opts *models.AnalyzeOptions) (*models.AnalysisResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	maxCols := defaultMaxColumns
	if opts != nil && opts.MaxColumns > 0 {
		maxCols = opts.MaxColumns
	}
	if maxCols > hardMaxColumns {
		maxCols = hardMaxColumns
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	var headers []string
	if len(rows) > 0 {
		headers = rows[0]
	}

	fields := make([]models.DocumentField, 0, maxCols)
	for i := 0; i < maxCols; i++ {
		letter, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			break
		}
		name := "Column " + letter
		if i < len(headers) && strings.TrimSpace(headers[i]) != "" {
			name = headers[i]
		}
		fields = append(fields, models.DocumentField{
			ID:   sheet + "!" + letter,
			Name: name,
			Type: models.FieldText,
		})
	}

	return &models.AnalysisResult{
		Fields: fields,
		Pages:  len(sheets),
		Metadata: map[string]any{
			"sheetNames": sheets,
			"rowCount":   len(rows),
		},
	}, nil
}

// columnTarget is one column to fill per roster row: either a direct
// record path (from a binding) or a full mapping run through the resolver.
type columnTarget struct {
	column    string
	fieldPath string
	mapping   *models.FieldMapping
}

// FillDocument writes one roster row per provider record, starting at the
// configured data start row. Cells that already carry a formula are left
// untouched; after all rows are written the workbook's cached values are
// invalidated so formulas recalculate on open.
func (a *ExcelAdapter) FillDocument(content []byte, mappings []models.FieldMapping, data *models.DataContext, outputPath string, opts *models.SheetFillOptions) *models.FillResult {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return failResult(fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return failResult(fmt.Errorf("workbook has no sheets"))
	}
	sheet := sheets[0]
	startRow := defaultDataStartRow
	if opts != nil {
		if opts.SheetName != "" {
			sheet = opts.SheetName
		}
		if opts.DataStartRow > 0 {
			startRow = opts.DataStartRow
		}
	}

	var warnings []string
	targets := a.columnTargets(mappings, sheet, opts, &warnings)

	providers := data.Providers
	if len(providers) == 0 && data.Provider != nil {
		providers = []models.Record{data.Provider}
	}

	for i, rec := range providers {
		row := startRow + i
		rowCtx := rowContext(data, rec)
		for _, tgt := range targets {
			// Columns were validated while building targets.
			cell, err := excelize.JoinCellName(tgt.column, row)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("Field %q could not be filled: %v", tgt.column, err))
				continue
			}

			if formula, _ := f.GetCellFormula(sheet, cell); formula != "" {
				// Preserve the formula; re-evaluate it best-effort so broken
				// references surface in the logs without blocking the fill.
				if _, calcErr := f.CalcCellValue(sheet, cell); calcErr != nil {
					a.logger.Debug("formula failed re-validation",
						zap.String("cell", cell), zap.String("formula", formula), zap.Error(calcErr))
				}
				continue
			}

			var value any
			if tgt.mapping != nil {
				value = a.resolver.Resolve(tgt.mapping, rowCtx)
			} else {
				value, _ = models.LookupPath(rec, tgt.fieldPath)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				warnings = append(warnings, fmt.Sprintf("Field %q could not be filled: %v", cell, err))
			}
		}
	}

	// Drop cached formula results so downstream evaluation sees the new rows.
	f.UpdateLinkedValue()

	out, err := createOutput(outputPath)
	if err != nil {
		return failResult(err)
	}
	defer out.Close()
	if err := f.Write(out); err != nil {
		return failResult(fmt.Errorf("write workbook: %w", err))
	}

	return &models.FillResult{Success: true, OutputPath: outputPath, Warnings: warnings}
}

// columnTargets prefers the explicit column-binding configuration; without
// one, bindings derive from each mapping's trailing "!<ColumnLetter>" suffix.
func (a *ExcelAdapter) columnTargets(mappings []models.FieldMapping, sheet string, opts *models.SheetFillOptions, warnings *[]string) []columnTarget {
	if opts != nil && len(opts.Columns) > 0 {
		targets := make([]columnTarget, 0, len(opts.Columns))
		for _, b := range opts.Columns {
			col := strings.ToUpper(strings.TrimSpace(b.Column))
			if _, err := excelize.ColumnNameToNumber(col); err != nil {
				*warnings = append(*warnings, fmt.Sprintf("Column %q is not a valid column letter", b.Column))
				continue
			}
			targets = append(targets, columnTarget{column: col, fieldPath: b.FieldPath})
		}
		return targets
	}

	var targets []columnTarget
	for i := range mappings {
		m := &mappings[i]
		col, ok := columnFromFieldID(m.DocumentFieldID, sheet)
		if !ok {
			*warnings = append(*warnings, missingFieldWarning(m))
			continue
		}
		targets = append(targets, columnTarget{column: col, mapping: m})
	}
	return targets
}

// columnFromFieldID parses "Sheet1!B" style field IDs. A bare column letter
// is accepted too. IDs naming a different sheet do not match.
func columnFromFieldID(id, sheet string) (string, bool) {
	name, col, found := strings.Cut(id, "!")
	if !found {
		col, name = name, ""
	}
	if name != "" && name != sheet {
		return "", false
	}
	col = strings.ToUpper(strings.TrimSpace(col))
	if col == "" {
		return "", false
	}
	if _, err := excelize.ColumnNameToNumber(col); err != nil {
		return "", false
	}
	return col, true
}

// rowContext returns the data context with the roster record standing in as
// the single provider, so provider mappings resolve per row.
func rowContext(data *models.DataContext, rec models.Record) *models.DataContext {
	ctx := models.DataContext{}
	if data != nil {
		ctx = *data
	}
	ctx.Provider = rec
	return &ctx
}

// PreviewData returns up to maxRows rows of the first sheet for the external
// preview grid. Read-only.
func (a *ExcelAdapter) PreviewData(content []byte, maxRows int) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows, nil
}

// ExtractText renders every sheet as tab-separated text. Read-only.
func (a *ExcelAdapter) ExtractText(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
