// Package document provides format adapters that extract a normalized field
// model from PDF, spreadsheet, and Word documents and write mapped values
// back into the native structure.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsillex/formfill/internal/models"
)

// DocumentAdapter is the shared contract over document formats. CanProcess is
// a cheap signature check used to route unknown files; it does not guarantee
// the document is structurally valid. AnalyzeDocument and FillDocument treat
// an unparsable document as fatal, while individual fields that cannot be
// converted or filled become warnings and processing continues.
type DocumentAdapter interface {
	Type() models.DocumentType
	CanProcess(content []byte) bool
	AnalyzeDocument(content []byte, opts *models.AnalyzeOptions) (*models.AnalysisResult, error)
	FillDocument(content []byte, mappings []models.FieldMapping, data *models.DataContext, outputPath string, opts *models.SheetFillOptions) *models.FillResult
	ExtractText(content []byte) (string, error)
}

// requiredKeywords drive the heuristic for marking a field required based on
// its control name. Not a structural property of the document.
var requiredKeywords = []string{"required", "mandatory", "must", "*"}

func inferRequired(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range requiredKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// inferDateField reports whether a text control should surface as a date
// field, going only by its name since neither format exposes cell/control
// date semantics reliably.
func inferDateField(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "date") || strings.Contains(lower, "dob")
}

// missingFieldWarning is the warning raised when a mapping references a
// control absent from the live document.
func missingFieldWarning(m *models.FieldMapping) string {
	name := m.DocumentFieldName
	if name == "" {
		name = m.DocumentFieldID
	}
	return fmt.Sprintf("Field %q not found in document", name)
}

// createOutput creates the output file, making intermediate directories as
// needed.
func createOutput(outputPath string) (*os.File, error) {
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

func failResult(err error) *models.FillResult {
	return &models.FillResult{Success: false, Error: err.Error()}
}
