package models

import (
	"encoding/json"
	"fmt"
)

// SourceType selects which part of the data context a mapping draws from.
type SourceType string

const (
	SourceProvider     SourceType = "provider"
	SourceProviderSlot SourceType = "provider-slot"
	SourceOffice       SourceType = "office"
	SourceMailing      SourceType = "mailing"
	SourceCustom       SourceType = "custom"
	SourceStatic       SourceType = "static"
)

// FieldMapping binds one document field to a value-producing rule.
// SourceType determines which of SourcePath, StaticValue, or the
// (ProviderSlot, SlotField) pair is authoritative; the others are ignored.
// StaticValue is a pointer so that an explicitly-mapped empty string is
// distinguishable from "no static value".
type FieldMapping struct {
	DocumentFieldID   string                `json:"documentFieldId"`
	DocumentFieldName string                `json:"documentFieldName"`
	DocumentFieldType FieldType             `json:"documentFieldType"`
	SourceType        SourceType            `json:"sourceType"`
	SourcePath        string                `json:"sourcePath,omitempty"`
	ProviderSlot      int                   `json:"providerSlot,omitempty"`
	SlotField         string                `json:"slotField,omitempty"`
	StaticValue       *string               `json:"staticValue,omitempty"`
	DefaultValue      string                `json:"defaultValue,omitempty"`
	Transformation    *TransformationConfig `json:"transformation,omitempty"`
	IsRequired        bool                  `json:"isRequired"`
}

// TransformationType identifies one of the supported transformations.
type TransformationType string

const (
	TransformFormat      TransformationType = "format"
	TransformConcatenate TransformationType = "concatenate"
	TransformConditional TransformationType = "conditional"
	TransformLookup      TransformationType = "lookup"
	TransformBoolean     TransformationType = "boolean"
	TransformNameFormat  TransformationType = "nameFormat"
	TransformExtract     TransformationType = "extract"
)

// TransformationConfig is a tagged union: exactly one config field matching
// Type is set. On the wire it is {"type": "...", "config": {...}} so the
// interchange shape stays compatible with exported templates.
type TransformationConfig struct {
	Type        TransformationType
	Format      *FormatConfig
	Concatenate *ConcatenateConfig
	Conditional *ConditionalConfig
	Lookup      *LookupConfig
	Boolean     *BooleanConfig
	NameFormat  *NameFormatConfig
	Extract     *ExtractConfig
}

// FormatConfig configures the format transformation. Sub-steps apply in
// order: date, phone, SSN, case, then prefix/suffix. Phone and SSN patterns
// use '#' as a digit placeholder, e.g. "(###) ###-####".
type FormatConfig struct {
	DateFormat  string `json:"dateFormat,omitempty"`
	PhoneFormat string `json:"phoneFormat,omitempty"`
	SSNFormat   string `json:"ssnFormat,omitempty"`
	Case        string `json:"case,omitempty"` // upper, lower, title, sentence
	Prefix      string `json:"prefix,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
}

// ConcatenateConfig joins values resolved from Sources (dot-paths against the
// full data context). SkipEmpty defaults to true when unset.
type ConcatenateConfig struct {
	Sources   []string `json:"sources"`
	Separator string   `json:"separator,omitempty"`
	SkipEmpty *bool    `json:"skipEmpty,omitempty"`
}

// Condition is one comparison against a dot-path in the data context.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"` // equals, notEquals, contains, startsWith, endsWith, greaterThan, lessThan
	Value    string `json:"value"`
}

// ConditionalConfig returns TrueValue or FalseValue depending on Condition.
type ConditionalConfig struct {
	Condition  Condition `json:"condition"`
	TrueValue  string    `json:"trueValue"`
	FalseValue string    `json:"falseValue,omitempty"`
}

// LookupConfig maps the stringified input through a literal table, falling
// back to DefaultValue and then the original value.
type LookupConfig struct {
	Table        map[string]string `json:"table"`
	DefaultValue *string           `json:"defaultValue,omitempty"`
}

// BooleanConfig coerces the input to a boolean via configurable token lists.
type BooleanConfig struct {
	TrueValues  []string `json:"trueValues,omitempty"`
	FalseValues []string `json:"falseValues,omitempty"`
	Default     *bool    `json:"defaultValue,omitempty"`
}

// NameFormatConfig renders a provider name. Custom holds a template with
// {first} {middle} {last} {mi} {suffix} placeholders, used when Format is
// "custom".
type NameFormatConfig struct {
	Format string `json:"format"`
	Custom string `json:"custom,omitempty"`
}

// ExtractConfig pulls one name part from the record at From (or from a naive
// split of a full-name string found there), with Fallback when absent.
type ExtractConfig struct {
	Part     string `json:"part"` // firstName, middleName, lastName, middleInitial, suffix
	From     string `json:"from,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

type transformationEnvelope struct {
	Type   TransformationType `json:"type"`
	Config json.RawMessage    `json:"config,omitempty"`
}

// UnmarshalJSON decodes the {"type", "config"} envelope into the variant
// matching Type. Unknown types are an error so malformed templates fail
// validation instead of silently dropping transformations.
func (t *TransformationConfig) UnmarshalJSON(data []byte) error {
	var env transformationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*t = TransformationConfig{Type: env.Type}
	raw := env.Config
	if raw == nil {
		raw = json.RawMessage("{}")
	}
	switch env.Type {
	case TransformFormat:
		t.Format = &FormatConfig{}
		return json.Unmarshal(raw, t.Format)
	case TransformConcatenate:
		t.Concatenate = &ConcatenateConfig{}
		return json.Unmarshal(raw, t.Concatenate)
	case TransformConditional:
		t.Conditional = &ConditionalConfig{}
		return json.Unmarshal(raw, t.Conditional)
	case TransformLookup:
		t.Lookup = &LookupConfig{}
		return json.Unmarshal(raw, t.Lookup)
	case TransformBoolean:
		t.Boolean = &BooleanConfig{}
		return json.Unmarshal(raw, t.Boolean)
	case TransformNameFormat:
		t.NameFormat = &NameFormatConfig{}
		return json.Unmarshal(raw, t.NameFormat)
	case TransformExtract:
		t.Extract = &ExtractConfig{}
		return json.Unmarshal(raw, t.Extract)
	}
	return fmt.Errorf("unknown transformation type %q", env.Type)
}

// MarshalJSON encodes the variant back into the {"type", "config"} envelope.
func (t TransformationConfig) MarshalJSON() ([]byte, error) {
	var cfg any
	switch t.Type {
	case TransformFormat:
		cfg = t.Format
	case TransformConcatenate:
		cfg = t.Concatenate
	case TransformConditional:
		cfg = t.Conditional
	case TransformLookup:
		cfg = t.Lookup
	case TransformBoolean:
		cfg = t.Boolean
	case TransformNameFormat:
		cfg = t.NameFormat
	case TransformExtract:
		cfg = t.Extract
	default:
		return nil, fmt.Errorf("unknown transformation type %q", t.Type)
	}
	return json.Marshal(struct {
		Type   TransformationType `json:"type"`
		Config any                `json:"config,omitempty"`
	}{t.Type, cfg})
}
