package document

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDocx builds a minimal .docx container around the given body XML.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`,
	}
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func plainDocx(t *testing.T) []byte {
	t.Helper()
	return buildDocx(t, `<w:p><w:r><w:t>Provider enrollment letter</w:t></w:r></w:p>`)
}

func TestWordAdapter_AnalyzeDocument(t *testing.T) {
	a := NewWordAdapter(nil)
	result, err := a.AnalyzeDocument(plainDocx(t), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Fields)
}

func TestWordAdapter_FillDocument_notSupported(t *testing.T) {
	a := NewWordAdapter(nil)
	result := a.FillDocument(plainDocx(t), nil, nil, "out.docx", nil)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestWordAdapter_ExtractText(t *testing.T) {
	a := NewWordAdapter(nil)
	text, err := a.ExtractText(plainDocx(t))
	require.NoError(t, err)
	assert.Contains(t, text, "Provider enrollment letter")
}

func TestWordAdapter_ExtractText_attributedParagraphs(t *testing.T) {
	// Word-authored documents carry revision ids on paragraphs and runs.
	body := `<w:p w:rsidR="00AB12CD" w:rsidRDefault="00AB12CD"><w:r w:rsidR="00AB12CD">` +
		`<w:t xml:space="preserve">Credentialing packet </w:t></w:r>` +
		`<w:r><w:t>for Dr. Ray</w:t></w:r></w:p>`
	a := NewWordAdapter(nil)
	text, err := a.ExtractText(buildDocx(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Credentialing packet for Dr. Ray", text)
}

func TestWordAdapter_ExtractText_notZip(t *testing.T) {
	a := NewWordAdapter(nil)
	_, err := a.ExtractText([]byte("plain bytes"))
	assert.Error(t, err)
}
