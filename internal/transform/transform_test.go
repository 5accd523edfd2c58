package transform

import (
	"testing"

	"github.com/dsillex/formfill/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestApply_nilConfigPassesThrough(t *testing.T) {
	assert.Equal(t, "x", Apply(nil, "x", nil, nil))
}

func TestApply_dispatch(t *testing.T) {
	ctx := &models.DataContext{Provider: models.Record{"firstName": "Ann", "lastName": "Lee"}}
	cfg := &models.TransformationConfig{
		Type:       models.TransformNameFormat,
		NameFormat: &models.NameFormatConfig{Format: "lastFirst"},
	}
	assert.Equal(t, "Lee, Ann", Apply(cfg, "ignored", ctx, zap.NewNop()))
}

func TestApply_missingVariantKeepsOriginal(t *testing.T) {
	// Type says lookup but no lookup config attached: the transformation
	// errors internally and the original value must survive.
	cfg := &models.TransformationConfig{Type: models.TransformLookup}
	assert.Equal(t, "original", Apply(cfg, "original", nil, zap.NewNop()))
}

func TestApply_unknownTypeKeepsOriginal(t *testing.T) {
	cfg := &models.TransformationConfig{Type: "reverse"}
	assert.Equal(t, 42, Apply(cfg, 42, nil, nil))
}

func TestApply_nilContextNeverPanics(t *testing.T) {
	cfg := &models.TransformationConfig{
		Type:        models.TransformConcatenate,
		Concatenate: &models.ConcatenateConfig{Sources: []string{"provider.firstName"}},
	}
	assert.Equal(t, "", Apply(cfg, "in", nil, nil))
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{true, "true"},
		{false, "false"},
		{float64(3), "3"},
		{float64(3.5), "3.5"},
		{42, "42"},
		{int64(7), "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in), "input %v", tt.in)
	}
}
