package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dsillex/formfill/internal/models"
	"go.uber.org/zap"
)

// Magic byte signatures used for routing. Spreadsheet and Word documents are
// both OOXML zip containers, so the zip signature alone cannot tell them
// apart; the declared type or file extension decides between them.
var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
)

// Factory constructs the adapter for a declared document type or sniffs one
// from raw bytes.
type Factory struct {
	logger *zap.Logger
}

// NewFactory returns a Factory. logger may be nil.
func NewFactory(logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{logger: logger}
}

// ForType returns the adapter for the declared document type.
func (f *Factory) ForType(t models.DocumentType) (DocumentAdapter, error) {
	switch t {
	case models.DocumentPDF:
		return NewPDFAdapter(f.logger), nil
	case models.DocumentExcel:
		return NewExcelAdapter(f.logger), nil
	case models.DocumentWord:
		return NewWordAdapter(f.logger), nil
	}
	return nil, fmt.Errorf("unsupported document type %q", t)
}

// ForPath infers the document type from the file extension.
func (f *Factory) ForPath(path string) (DocumentAdapter, error) {
	return f.ForType(TypeForPath(path))
}

// TypeForPath maps a file extension to a document type; unknown extensions
// return an empty type.
func TypeForPath(path string) models.DocumentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return models.DocumentPDF
	case ".xlsx", ".xlsm":
		return models.DocumentExcel
	case ".docx":
		return models.DocumentWord
	}
	return ""
}

// Detect routes raw bytes by signature: %PDF is a PDF; a zip container is
// assumed to be a spreadsheet unless the path extension says Word.
func (f *Factory) Detect(content []byte, path string) (DocumentAdapter, error) {
	if bytes.HasPrefix(content, pdfMagic) {
		return NewPDFAdapter(f.logger), nil
	}
	if bytes.HasPrefix(content, zipMagic) {
		if TypeForPath(path) == models.DocumentWord {
			return NewWordAdapter(f.logger), nil
		}
		return NewExcelAdapter(f.logger), nil
	}
	return nil, fmt.Errorf("unrecognized document signature")
}
