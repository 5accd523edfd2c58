package transform

import (
	"strconv"
	"strings"

	"github.com/dsillex/formfill/internal/models"
)

// applyConcatenate joins values resolved from the configured dot-paths. The
// mapped value itself does not participate; concatenation always reads from
// the full data context.
func applyConcatenate(cfg *models.ConcatenateConfig, ctx *models.DataContext) string {
	sep := cfg.Separator
	if sep == "" {
		sep = " "
	}
	skipEmpty := true
	if cfg.SkipEmpty != nil {
		skipEmpty = *cfg.SkipEmpty
	}
	var parts []string
	for _, path := range cfg.Sources {
		v, _ := ctx.Lookup(path)
		s := Stringify(v)
		if skipEmpty && strings.TrimSpace(s) == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep)
}

// applyConditional evaluates the condition against the data context and
// returns the true or false branch. FalseValue defaults to the empty string.
func applyConditional(cfg *models.ConditionalConfig, ctx *models.DataContext) string {
	v, _ := ctx.Lookup(cfg.Condition.Field)
	if evalCondition(Stringify(v), cfg.Condition.Operator, cfg.Condition.Value) {
		return cfg.TrueValue
	}
	return cfg.FalseValue
}

func evalCondition(got, operator, want string) bool {
	switch operator {
	case "equals":
		return got == want
	case "notEquals":
		return got != want
	case "contains":
		return strings.Contains(got, want)
	case "startsWith":
		return strings.HasPrefix(got, want)
	case "endsWith":
		return strings.HasSuffix(got, want)
	case "greaterThan", "lessThan":
		a, errA := strconv.ParseFloat(strings.TrimSpace(got), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(want), 64)
		if errA != nil || errB != nil {
			return false
		}
		if operator == "greaterThan" {
			return a > b
		}
		return a < b
	}
	return false
}

// applyLookup maps the stringified input through the literal table, falling
// back to the configured default and then the original value.
func applyLookup(value any, cfg *models.LookupConfig) any {
	key := Stringify(value)
	if out, ok := cfg.Table[key]; ok {
		return out
	}
	if cfg.DefaultValue != nil {
		return *cfg.DefaultValue
	}
	return value
}

var (
	defaultTrueTokens  = []string{"true", "yes", "y", "1", "on", "active", "checked"}
	defaultFalseTokens = []string{"false", "no", "n", "0", "off", "inactive", "unchecked"}
)

// applyBoolean coerces the input to a boolean: lowercase token match against
// the configured (or default) true/false lists, then the explicit default,
// then generic truthiness.
func applyBoolean(value any, cfg *models.BooleanConfig) bool {
	token := strings.ToLower(strings.TrimSpace(Stringify(value)))
	trueTokens := cfg.TrueValues
	if len(trueTokens) == 0 {
		trueTokens = defaultTrueTokens
	}
	falseTokens := cfg.FalseValues
	if len(falseTokens) == 0 {
		falseTokens = defaultFalseTokens
	}
	if matchToken(token, trueTokens) {
		return true
	}
	if matchToken(token, falseTokens) {
		return false
	}
	if cfg.Default != nil {
		return *cfg.Default
	}
	return Truthy(value)
}

func matchToken(token string, list []string) bool {
	for _, candidate := range list {
		if token == strings.ToLower(strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}

// CoerceBool coerces any value to a boolean using the default true/false
// token lists. Adapters use this for checkbox truthiness so "yes", "1", and
// "active" all check a box.
func CoerceBool(value any) bool {
	return applyBoolean(value, &models.BooleanConfig{})
}

// Truthy is the generic coercion used when no boolean token matches: nil and
// empty strings are false, zero numbers are false, everything else is true.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}
