package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsillex/formfill/internal/models"
)

func TestFactory_ForType(t *testing.T) {
	f := NewFactory(nil)
	tests := []struct {
		docType models.DocumentType
		want    models.DocumentType
	}{
		{models.DocumentPDF, models.DocumentPDF},
		{models.DocumentExcel, models.DocumentExcel},
		{models.DocumentWord, models.DocumentWord},
	}
	for _, tt := range tests {
		adapter, err := f.ForType(tt.docType)
		require.NoError(t, err)
		assert.Equal(t, tt.want, adapter.Type())
	}

	_, err := f.ForType("csv")
	assert.Error(t, err)
}

func TestTypeForPath(t *testing.T) {
	assert.Equal(t, models.DocumentPDF, TypeForPath("/tmp/Enrollment Form.PDF"))
	assert.Equal(t, models.DocumentExcel, TypeForPath("roster.xlsx"))
	assert.Equal(t, models.DocumentExcel, TypeForPath("roster.xlsm"))
	assert.Equal(t, models.DocumentWord, TypeForPath("letter.docx"))
	assert.Equal(t, models.DocumentType(""), TypeForPath("data.csv"))
}

func TestFactory_Detect(t *testing.T) {
	f := NewFactory(nil)

	adapter, err := f.Detect([]byte("%PDF-1.4"), "anything.bin")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentPDF, adapter.Type())

	zip := []byte{0x50, 0x4B, 0x03, 0x04, 0x00}
	adapter, err = f.Detect(zip, "roster.xlsx")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentExcel, adapter.Type())

	// Zip container with a Word extension routes to the Word adapter.
	adapter, err = f.Detect(zip, "letter.docx")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentWord, adapter.Type())

	_, err = f.Detect([]byte("plain text"), "notes.txt")
	assert.Error(t, err)
}
