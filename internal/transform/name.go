package transform

import (
	"strings"
	"unicode"

	"github.com/dsillex/formfill/internal/models"
)

// NameParts holds the components of a person's name.
type NameParts struct {
	First  string
	Middle string
	Last   string
	Suffix string
}

// MiddleInitial returns the first letter of the middle name, uppercased,
// followed by a period, or "" when there is no middle name.
func (n NameParts) MiddleInitial() string {
	for _, r := range strings.TrimSpace(n.Middle) {
		return string(unicode.ToUpper(r)) + "."
	}
	return ""
}

// applyNameFormat renders the provider's name in the configured format. It
// reads name parts from the provider record of the data context, not from
// the mapped value.
func applyNameFormat(cfg *models.NameFormatConfig, ctx *models.DataContext) string {
	var rec models.Record
	if ctx != nil {
		rec = ctx.Provider
	}
	return FormatName(partsFromRecord(rec), cfg.Format, cfg.Custom)
}

// FormatName renders parts in one of the supported name formats.
func FormatName(n NameParts, format, custom string) string {
	switch format {
	case "firstLast":
		return joinNonEmpty(" ", n.First, n.Last)
	case "lastFirst":
		return commaJoin(n.Last, n.First)
	case "lastFirstMI":
		return commaJoin(n.Last, joinNonEmpty(" ", n.First, n.MiddleInitial()))
	case "firstMI":
		return joinNonEmpty(" ", n.First, n.MiddleInitial())
	case "first":
		return n.First
	case "last":
		return n.Last
	case "middle":
		return n.Middle
	case "initial":
		return initials(n)
	case "custom":
		return renderCustom(custom, n)
	default: // full
		full := joinNonEmpty(" ", n.First, n.Middle, n.Last)
		return commaSuffix(full, n.Suffix)
	}
}

// SplitFullName splits a single full-name string on whitespace: one token is
// a first name alone, two are first+last, three are first+middle+last, and
// anything longer keeps the first and last tokens with the remainder joined
// as the middle name.
func SplitFullName(full string) NameParts {
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return NameParts{}
	case 1:
		return NameParts{First: tokens[0]}
	case 2:
		return NameParts{First: tokens[0], Last: tokens[1]}
	case 3:
		return NameParts{First: tokens[0], Middle: tokens[1], Last: tokens[2]}
	default:
		return NameParts{
			First:  tokens[0],
			Middle: strings.Join(tokens[1:len(tokens)-1], " "),
			Last:   tokens[len(tokens)-1],
		}
	}
}

// applyExtract pulls one name part from the record at cfg.From (default
// "provider"). When that path holds a plain string it is treated as a full
// name and split naively. Empty results fall back to cfg.Fallback.
func applyExtract(cfg *models.ExtractConfig, ctx *models.DataContext) string {
	from := cfg.From
	if from == "" {
		from = "provider"
	}
	v, ok := ctx.Lookup(from)
	if !ok {
		return cfg.Fallback
	}

	var parts NameParts
	switch src := v.(type) {
	case string:
		parts = SplitFullName(src)
	case models.Record:
		parts = partsFromRecord(src)
	case map[string]any:
		parts = partsFromRecord(src)
	default:
		return cfg.Fallback
	}

	var out string
	switch cfg.Part {
	case "firstName":
		out = parts.First
	case "middleName":
		out = parts.Middle
	case "lastName":
		out = parts.Last
	case "middleInitial":
		out = parts.MiddleInitial()
	case "suffix":
		out = parts.Suffix
	}
	if out == "" {
		return cfg.Fallback
	}
	return out
}

func partsFromRecord(rec map[string]any) NameParts {
	if rec == nil {
		return NameParts{}
	}
	return NameParts{
		First:  Stringify(rec["firstName"]),
		Middle: Stringify(rec["middleName"]),
		Last:   Stringify(rec["lastName"]),
		Suffix: Stringify(rec["suffix"]),
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// commaJoin renders "Last, First", degrading gracefully when either side is
// empty.
func commaJoin(left, right string) string {
	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	return left + ", " + right
}

func commaSuffix(name, suffix string) string {
	if suffix == "" {
		return name
	}
	if name == "" {
		return suffix
	}
	return name + ", " + suffix
}

func initials(n NameParts) string {
	var b strings.Builder
	for _, part := range []string{n.First, n.Middle, n.Last} {
		for _, r := range strings.TrimSpace(part) {
			b.WriteRune(unicode.ToUpper(r))
			b.WriteByte('.')
			break
		}
	}
	return b.String()
}

func renderCustom(template string, n NameParts) string {
	r := strings.NewReplacer(
		"{first}", n.First,
		"{middle}", n.Middle,
		"{last}", n.Last,
		"{mi}", n.MiddleInitial(),
		"{suffix}", n.Suffix,
	)
	return strings.TrimSpace(collapseSpaces(r.Replace(template)))
}

// collapseSpaces squeezes runs of spaces left behind by empty placeholders.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
