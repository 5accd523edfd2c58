// Package transform implements the value transformations that can be attached
// to a field mapping: formatting, concatenation, conditionals, lookups,
// boolean coercion, and provider name handling.
package transform

import (
	"fmt"
	"strconv"

	"github.com/dsillex/formfill/internal/models"
	"go.uber.org/zap"
)

// Apply runs the configured transformation on value. Transformations are
// best-effort enrichments, never fill-blockers: any error or panic inside a
// transformation is logged at debug level and the original value returned.
func Apply(cfg *models.TransformationConfig, value any, ctx *models.DataContext, logger *zap.Logger) (result any) {
	if cfg == nil {
		return value
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("transformation panicked, keeping original value",
				zap.String("type", string(cfg.Type)), zap.Any("panic", r))
			result = value
		}
	}()
	out, err := apply(cfg, value, ctx)
	if err != nil {
		logger.Debug("transformation failed, keeping original value",
			zap.String("type", string(cfg.Type)), zap.Error(err))
		return value
	}
	return out
}

func apply(cfg *models.TransformationConfig, value any, ctx *models.DataContext) (any, error) {
	switch cfg.Type {
	case models.TransformFormat:
		if cfg.Format == nil {
			return nil, errMissingConfig(cfg.Type)
		}
		return applyFormat(value, cfg.Format), nil
	case models.TransformConcatenate:
		if cfg.Concatenate == nil {
			return nil, errMissingConfig(cfg.Type)
		}
		return applyConcatenate(cfg.Concatenate, ctx), nil
	case models.TransformConditional:
		if cfg.Conditional == nil {
			return nil, errMissingConfig(cfg.Type)
		}
		return applyConditional(cfg.Conditional, ctx), nil
	case models.TransformLookup:
		if cfg.Lookup == nil {
			return nil, errMissingConfig(cfg.Type)
		}
		return applyLookup(value, cfg.Lookup), nil
	case models.TransformBoolean:
		if cfg.Boolean == nil {
			return nil, errMissingConfig(cfg.Type)
		}
		return applyBoolean(value, cfg.Boolean), nil
	case models.TransformNameFormat:
		if cfg.NameFormat == nil {
			return nil, errMissingConfig(cfg.Type)
		}
		return applyNameFormat(cfg.NameFormat, ctx), nil
	case models.TransformExtract:
		if cfg.Extract == nil {
			return nil, errMissingConfig(cfg.Type)
		}
		return applyExtract(cfg.Extract, ctx), nil
	}
	return nil, fmt.Errorf("unknown transformation type %q", cfg.Type)
}

func errMissingConfig(t models.TransformationType) error {
	return fmt.Errorf("transformation %q has no config", t)
}

// Stringify renders a resolved value for writing or comparison. Nil becomes
// the empty string; floats drop trailing zeros so spreadsheet numbers read
// naturally.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
