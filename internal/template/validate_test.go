package template

import (
	"strings"
	"testing"

	"github.com/dsillex/formfill/internal/models"
)

func mappingOf(mut func(*models.FieldMapping)) *models.Template {
	m := models.FieldMapping{
		DocumentFieldID:   "Field1",
		DocumentFieldType: models.FieldText,
		SourceType:        models.SourceProvider,
		SourcePath:        "provider.firstName",
	}
	if mut != nil {
		mut(&m)
	}
	return &models.Template{
		Name:         "t",
		DocumentType: models.DocumentPDF,
		Mappings:     []models.FieldMapping{m},
	}
}

func TestValidate(t *testing.T) {
	static := "fixed"
	tests := []struct {
		name     string
		template *models.Template
		want     string // substring expected in a problem, "" for clean
	}{
		{
			name:     "valid",
			template: mappingOf(nil),
			want:     "",
		},
		{
			name: "missing name",
			template: func() *models.Template {
				tpl := mappingOf(nil)
				tpl.Name = "   "
				return tpl
			}(),
			want: "name is required",
		},
		{
			name: "bad document type",
			template: func() *models.Template {
				tpl := mappingOf(nil)
				tpl.DocumentType = "rtf"
				return tpl
			}(),
			want: `invalid document type "rtf"`,
		},
		{
			name: "no mappings",
			template: &models.Template{
				Name:         "t",
				DocumentType: models.DocumentExcel,
			},
			want: "has no mappings",
		},
		{
			name: "duplicate field id",
			template: func() *models.Template {
				tpl := mappingOf(nil)
				tpl.Mappings = append(tpl.Mappings, tpl.Mappings[0])
				return tpl
			}(),
			want: "appears more than once",
		},
		{
			name: "missing field id",
			template: mappingOf(func(m *models.FieldMapping) {
				m.DocumentFieldID = ""
			}),
			want: "has no document field id",
		},
		{
			name: "provider slot below one",
			template: mappingOf(func(m *models.FieldMapping) {
				m.SourceType = models.SourceProviderSlot
				m.ProviderSlot = 0
				m.SlotField = "npi"
			}),
			want: "provider slot of 1 or higher",
		},
		{
			name: "provider slot without slot field",
			template: mappingOf(func(m *models.FieldMapping) {
				m.SourceType = models.SourceProviderSlot
				m.ProviderSlot = 2
				m.SlotField = ""
			}),
			want: "without a slot field",
		},
		{
			name: "static without a value",
			template: mappingOf(func(m *models.FieldMapping) {
				m.SourceType = models.SourceStatic
				m.SourcePath = ""
				m.StaticValue = nil
			}),
			want: "without a static value",
		},
		{
			name: "static with empty string value is fine",
			template: mappingOf(func(m *models.FieldMapping) {
				empty := ""
				m.SourceType = models.SourceStatic
				m.SourcePath = ""
				m.StaticValue = &empty
			}),
			want: "",
		},
		{
			name: "static value via pointer",
			template: mappingOf(func(m *models.FieldMapping) {
				m.SourceType = models.SourceStatic
				m.SourcePath = ""
				m.StaticValue = &static
			}),
			want: "",
		},
		{
			name: "record mapping without any source",
			template: mappingOf(func(m *models.FieldMapping) {
				m.SourcePath = ""
			}),
			want: "no source path or default",
		},
		{
			name: "unknown source type",
			template: mappingOf(func(m *models.FieldMapping) {
				m.SourceType = "registry"
			}),
			want: `unknown source type "registry"`,
		},
		{
			name: "transformation missing its config",
			template: mappingOf(func(m *models.FieldMapping) {
				m.Transformation = &models.TransformationConfig{Type: models.TransformLookup}
			}),
			want: "lookup transformation without its config",
		},
		{
			name: "concatenate with no sources",
			template: mappingOf(func(m *models.FieldMapping) {
				m.Transformation = &models.TransformationConfig{
					Type:        models.TransformConcatenate,
					Concatenate: &models.ConcatenateConfig{},
				}
			}),
			want: "concatenate transformation with no sources",
		},
		{
			name: "conditional without a condition field",
			template: mappingOf(func(m *models.FieldMapping) {
				m.Transformation = &models.TransformationConfig{
					Type:        models.TransformConditional,
					Conditional: &models.ConditionalConfig{TrueValue: "yes"},
				}
			}),
			want: "without a condition field",
		},
		{
			name: "unknown transformation type",
			template: mappingOf(func(m *models.FieldMapping) {
				m.Transformation = &models.TransformationConfig{Type: "rot13"}
			}),
			want: `unknown transformation type "rot13"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Validate(tt.template)
			if tt.want == "" {
				if len(problems) != 0 {
					t.Errorf("Validate = %v, want no problems", problems)
				}
				return
			}
			for _, p := range problems {
				if strings.Contains(p, tt.want) {
					return
				}
			}
			t.Errorf("Validate = %v, want a problem containing %q", problems, tt.want)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Problems: []string{"a", "b"}}
	if got := err.Error(); got != "template validation failed: a; b" {
		t.Errorf("Error = %q", got)
	}
}
