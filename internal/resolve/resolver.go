// Package resolve turns a field mapping plus a data context into the concrete
// value to write into a document field.
package resolve

import (
	"strings"
	"time"

	"github.com/dsillex/formfill/internal/models"
	"github.com/dsillex/formfill/internal/transform"
	"go.uber.org/zap"
)

// localeDateLayout renders "now" for the static date paths.
const localeDateLayout = "January 2, 2006"

// Resolver resolves mappings against a data context. It is stateless and safe
// for concurrent use.
type Resolver struct {
	logger *zap.Logger
	now    func() time.Time
}

// New returns a Resolver. logger may be nil.
func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger, now: time.Now}
}

// Resolve produces the value for one mapping. Precedence: static value,
// provider-slot lookup, source-path lookup, default value. The transformation
// (if any) runs on the resolved value, and the default is substituted again
// afterwards only when the result came out empty; a transformation may
// produce an intentionally blank result only when no default exists.
func (r *Resolver) Resolve(m *models.FieldMapping, ctx *models.DataContext) any {
	value := r.rawValue(m, ctx)

	if m.Transformation != nil {
		value = transform.Apply(m.Transformation, value, ctx, r.logger)
	}

	if isEmpty(value) && m.DefaultValue != "" {
		return m.DefaultValue
	}
	return value
}

func (r *Resolver) rawValue(m *models.FieldMapping, ctx *models.DataContext) any {
	if m.StaticValue != nil {
		return *m.StaticValue
	}

	if m.SourceType == models.SourceProviderSlot {
		rec := ctx.ProviderAt(m.ProviderSlot)
		if rec == nil {
			return nil
		}
		if m.SlotField == "" {
			return nil
		}
		v, _ := models.LookupPath(rec, m.SlotField)
		return v
	}

	if m.SourcePath != "" {
		return r.pathValue(m, ctx)
	}

	if m.DefaultValue != "" {
		return m.DefaultValue
	}
	return nil
}

func (r *Resolver) pathValue(m *models.FieldMapping, ctx *models.DataContext) any {
	if m.SourceType == models.SourceStatic {
		switch m.SourcePath {
		case "static.currentDate", "static.applicationDate":
			return r.now().Format(localeDateLayout)
		}
		return nil
	}

	// Paths are stored prefixed ("provider.firstName") but bare paths
	// ("firstName") are accepted too; either way the sub-object is chosen
	// by the mapping's source type.
	path := m.SourcePath
	if head, rest, ok := strings.Cut(path, "."); ok && isPrefix(head, m.SourceType) {
		path = rest
	} else if !ok && isPrefix(path, m.SourceType) {
		path = ""
	}

	rec := subRecord(m.SourceType, ctx)
	if rec == nil {
		return nil
	}
	if path == "" {
		return rec
	}
	v, _ := models.LookupPath(rec, path)
	return v
}

// isPrefix reports whether head names the sub-object selected by st, so
// "provider.firstName", "mailing.street", and "mailingAddress.street" all
// strip down to record-relative paths.
func isPrefix(head string, st models.SourceType) bool {
	if head == string(st) {
		return true
	}
	return st == models.SourceMailing && head == "mailingAddress"
}

func subRecord(st models.SourceType, ctx *models.DataContext) models.Record {
	if ctx == nil {
		return nil
	}
	switch st {
	case models.SourceProvider:
		return ctx.Provider
	case models.SourceOffice:
		return ctx.Office
	case models.SourceMailing:
		return ctx.MailingAddress
	case models.SourceCustom:
		return ctx.Custom
	}
	return nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}
