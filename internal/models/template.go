package models

import "time"

// ConditionalRule is a document-level rule evaluated by the mapping UI
// (show/hide/require fields based on another field's value). The engine
// stores and round-trips these but does not evaluate them during a fill.
type ConditionalRule struct {
	ID           string    `json:"id,omitempty"`
	Condition    Condition `json:"condition"`
	Action       string    `json:"action"` // show, hide, require
	TargetFields []string  `json:"targetFields"`
}

// Template is the persisted, versioned aggregate of a reusable mapping set.
// Version starts at 1 and is incremented on every update.
type Template struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	DocumentType     DocumentType      `json:"documentType"`
	DocumentHash     string            `json:"documentHash,omitempty"`
	Mappings         []FieldMapping    `json:"mappings"`
	ConditionalRules []ConditionalRule `json:"conditionalRules,omitempty"`
	Version          int               `json:"version"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// TemplateExport is the interchange shape: a template minus its identity and
// timestamps, suitable for export and re-import under a fresh ID.
type TemplateExport struct {
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	DocumentType     DocumentType      `json:"documentType"`
	DocumentHash     string            `json:"documentHash,omitempty"`
	Mappings         []FieldMapping    `json:"mappings"`
	ConditionalRules []ConditionalRule `json:"conditionalRules,omitempty"`
	Version          int               `json:"version"`
}

// Export returns the interchange shape of t.
func (t *Template) Export() TemplateExport {
	return TemplateExport{
		Name:             t.Name,
		Description:      t.Description,
		DocumentType:     t.DocumentType,
		DocumentHash:     t.DocumentHash,
		Mappings:         t.Mappings,
		ConditionalRules: t.ConditionalRules,
		Version:          t.Version,
	}
}
