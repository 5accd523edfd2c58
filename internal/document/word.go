package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/models"
)

// wordDocumentXMLPath is the default path to the main document body inside a
// .docx zip.
const wordDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// wordMainContentType is the content type of the main document part.
const wordMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wordTextTag matches <w:t>text</w:t> including any attributes on the tag,
// so documents whose paragraphs and runs carry revision ids still extract.
var wordTextTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wordPartNameRe extracts PartName from the main-document Override element.
var wordPartNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(wordMainContentType) + `"`)

// wordPartNameRe2 handles ContentType appearing before PartName.
var wordPartNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(wordMainContentType) + `"[^>]+PartName="([^"]+)"`)

// WordAdapter satisfies the adapter contract for .docx documents. Word has no
// analyzable form-field model here, so analysis reports no fields and filling
// is a non-fatal unsupported failure; text extraction works for real.
type WordAdapter struct {
	logger *zap.Logger
}

// NewWordAdapter returns a Word adapter. logger may be nil.
func NewWordAdapter(logger *zap.Logger) *WordAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordAdapter{logger: logger}
}

func (a *WordAdapter) Type() models.DocumentType { return models.DocumentWord }

// CanProcess checks the ZIP container signature only; .docx and .xlsx share
// it, so routing between them needs the declared type.
func (a *WordAdapter) CanProcess(content []byte) bool {
	return bytes.HasPrefix(content, zipMagic)
}

// AnalyzeDocument verifies the document parses and reports an empty field
// list.
func (a *WordAdapter) AnalyzeDocument(content []byte, _ *models.AnalyzeOptions) (*models.AnalysisResult, error) {
	if _, err := a.documentXML(content); err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return &models.AnalysisResult{
		Fields:   []models.DocumentField{},
		Pages:    1,
		Metadata: map[string]any{"fillable": false},
	}, nil
}

// FillDocument reports that Word filling is not supported.
func (a *WordAdapter) FillDocument(_ []byte, _ []models.FieldMapping, _ *models.DataContext, _ string, _ *models.SheetFillOptions) *models.FillResult {
	return &models.FillResult{Success: false, Error: "filling Word documents is not supported"}
}

// ExtractText returns the document's plain text. Read-only.
//
// DOCX is a ZIP containing word/document.xml (OOXML). All <w:t>...</w:t>
// text nodes are joined with spaces so content extracts regardless of
// paragraph and run attributes.
func (a *WordAdapter) ExtractText(content []byte) (string, error) {
	docXML, err := a.documentXML(content)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	parts := wordTextTag.FindAllStringSubmatch(string(docXML), -1)
	if len(parts) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(p[1]))
	}
	return strings.TrimSpace(b.String()), nil
}

// documentXML locates and reads the main document part.
func (a *WordAdapter) documentXML(content []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip: %w", err)
	}

	docPath := mainDocumentPath(zr)
	if docPath == "" {
		docPath = wordDocumentXMLPath
	}

	for _, f := range zr.File {
		if f.Name != docPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		_ = rc.Close()
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%s not found", docPath)
}

// mainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func mainDocumentPath(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != contentTypesPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ""
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return ""
		}
		_ = rc.Close()

		types := buf.String()
		if matches := wordPartNameRe.FindStringSubmatch(types); len(matches) > 1 {
			return strings.TrimPrefix(matches[1], "/")
		}
		if matches := wordPartNameRe2.FindStringSubmatch(types); len(matches) > 1 {
			return strings.TrimPrefix(matches[1], "/")
		}
		return ""
	}
	return ""
}
