// Package template persists and validates reusable mapping templates.
package template

import (
	"fmt"
	"strings"

	"github.com/dsillex/formfill/internal/models"
)

// ValidationError carries the list of human-readable structural problems that
// block a template create or update.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "template validation failed: " + strings.Join(e.Problems, "; ")
}

// Validate returns every structural problem with the template. An empty
// result means the template is acceptable.
func Validate(t *models.Template) []string {
	var problems []string
	if strings.TrimSpace(t.Name) == "" {
		problems = append(problems, "template name is required")
	}
	if !t.DocumentType.Valid() {
		problems = append(problems, fmt.Sprintf("invalid document type %q", t.DocumentType))
	}
	if len(t.Mappings) == 0 {
		problems = append(problems, "template has no mappings")
	}

	seen := map[string]bool{}
	for i := range t.Mappings {
		m := &t.Mappings[i]
		label := m.DocumentFieldID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if m.DocumentFieldID == "" {
			problems = append(problems, fmt.Sprintf("mapping %s has no document field id", label))
		} else if seen[m.DocumentFieldID] {
			problems = append(problems, fmt.Sprintf("mapping %s appears more than once", label))
		}
		seen[m.DocumentFieldID] = true
		problems = append(problems, validateSource(m, label)...)
		if m.Transformation != nil {
			problems = append(problems, validateTransformation(m.Transformation, label)...)
		}
	}
	return problems
}

func validateSource(m *models.FieldMapping, label string) []string {
	var problems []string
	switch m.SourceType {
	case models.SourceProviderSlot:
		if m.ProviderSlot < 1 {
			problems = append(problems, fmt.Sprintf("mapping %s needs a provider slot of 1 or higher", label))
		}
		if m.SlotField == "" {
			problems = append(problems, fmt.Sprintf("mapping %s is a provider-slot mapping without a slot field", label))
		}
	case models.SourceStatic:
		if m.StaticValue == nil && m.SourcePath == "" {
			problems = append(problems, fmt.Sprintf("mapping %s is a static mapping without a static value", label))
		}
	case models.SourceProvider, models.SourceOffice, models.SourceMailing, models.SourceCustom:
		if m.SourcePath == "" && m.StaticValue == nil && m.DefaultValue == "" && m.Transformation == nil {
			problems = append(problems, fmt.Sprintf("mapping %s has no source path or default", label))
		}
	default:
		problems = append(problems, fmt.Sprintf("mapping %s has unknown source type %q", label, m.SourceType))
	}
	return problems
}

func validateTransformation(tc *models.TransformationConfig, label string) []string {
	missing := func() []string {
		return []string{fmt.Sprintf("mapping %s has a %s transformation without its config", label, tc.Type)}
	}
	switch tc.Type {
	case models.TransformFormat:
		if tc.Format == nil {
			return missing()
		}
	case models.TransformConcatenate:
		if tc.Concatenate == nil {
			return missing()
		}
		if len(tc.Concatenate.Sources) == 0 {
			return []string{fmt.Sprintf("mapping %s has a concatenate transformation with no sources", label)}
		}
	case models.TransformConditional:
		if tc.Conditional == nil {
			return missing()
		}
		if tc.Conditional.Condition.Field == "" {
			return []string{fmt.Sprintf("mapping %s has a conditional transformation without a condition field", label)}
		}
	case models.TransformLookup:
		if tc.Lookup == nil {
			return missing()
		}
	case models.TransformBoolean:
		if tc.Boolean == nil {
			return missing()
		}
	case models.TransformNameFormat:
		if tc.NameFormat == nil {
			return missing()
		}
	case models.TransformExtract:
		if tc.Extract == nil {
			return missing()
		}
	default:
		return []string{fmt.Sprintf("mapping %s has unknown transformation type %q", label, tc.Type)}
	}
	return nil
}
