// Package models defines core data structures for document fields, mappings,
// templates, and fill operations.
package models

// FieldType classifies a document form control.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldDropdown FieldType = "dropdown"
	FieldDate     FieldType = "date"
)

// DocumentType identifies a supported document format.
type DocumentType string

const (
	DocumentPDF   DocumentType = "pdf"
	DocumentWord  DocumentType = "docx"
	DocumentExcel DocumentType = "xlsx"
)

// Valid reports whether t is one of the supported document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentPDF, DocumentWord, DocumentExcel:
		return true
	}
	return false
}

// DocumentField is one fillable field discovered by document analysis.
// ID is the format-native identifier: the AcroForm control name for PDFs,
// or "SheetName!ColumnLetter" for spreadsheets. Fields are created fresh on
// every analysis pass and are never persisted.
type DocumentField struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Value    any       `json:"value,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

// AnalysisResult is the normalized field model extracted from one document.
type AnalysisResult struct {
	Fields   []DocumentField `json:"fields"`
	Pages    int             `json:"pages"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// AnalyzeOptions tunes document analysis. MaxColumns bounds how many
// spreadsheet columns are synthesized into fields; zero means the default.
type AnalyzeOptions struct {
	MaxColumns int `json:"maxColumns,omitempty"`
}

// ColumnBinding maps one spreadsheet column letter to a dot-path into a
// provider record, e.g. {Column: "B", FieldPath: "lastName"}.
type ColumnBinding struct {
	Column    string `json:"column"`
	FieldPath string `json:"fieldPath"`
}

// SheetFillOptions configures a roster-style spreadsheet fill. When Columns
// is empty, bindings are derived from each mapping's "Sheet!Letter" field ID.
type SheetFillOptions struct {
	SheetName    string          `json:"sheetName,omitempty"`
	DataStartRow int             `json:"dataStartRow,omitempty"`
	Columns      []ColumnBinding `json:"columns,omitempty"`
}

// FillResult reports the outcome of one document fill. Per-field problems
// appear in Warnings; Error is set only for fatal failures (unparsable
// document, output write failure).
type FillResult struct {
	Success    bool     `json:"success"`
	OutputPath string   `json:"outputPath,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}
