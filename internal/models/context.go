package models

import "strings"

// Record is one JSON-decoded source record (a provider, office, or address).
type Record map[string]any

// DataContext bundles the source records supplied to a fill operation.
// Providers is an ordered sequence used for roster and provider-slot
// resolution; external slot numbering is 1-based.
type DataContext struct {
	Provider       Record   `json:"provider,omitempty"`
	Providers      []Record `json:"providers,omitempty"`
	Office         Record   `json:"office,omitempty"`
	MailingAddress Record   `json:"mailingAddress,omitempty"`
	Custom         Record   `json:"custom,omitempty"`
}

// ProviderAt returns the 1-based slot'th provider record, or nil when the
// slot is out of range.
func (c *DataContext) ProviderAt(slot int) Record {
	if c == nil || slot < 1 || slot > len(c.Providers) {
		return nil
	}
	return c.Providers[slot-1]
}

// Lookup resolves a dot-path whose first segment names a context record
// ("provider.firstName", "office.address.city", "mailingAddress.zip").
// "mailing" is accepted as an alias for "mailingAddress". Returns false when
// any intermediate is missing or null.
func (c *DataContext) Lookup(path string) (any, bool) {
	if c == nil || path == "" {
		return nil, false
	}
	head, rest, _ := strings.Cut(path, ".")
	var rec Record
	switch head {
	case "provider":
		rec = c.Provider
	case "office":
		rec = c.Office
	case "mailing", "mailingAddress":
		rec = c.MailingAddress
	case "custom":
		rec = c.Custom
	default:
		return nil, false
	}
	if rest == "" {
		if rec == nil {
			return nil, false
		}
		return rec, true
	}
	return LookupPath(rec, rest)
}

// LookupPath walks a dot-delimited path through nested maps, short-circuiting
// to (nil, false) on any missing or null intermediate.
func LookupPath(value any, path string) (any, bool) {
	cur := value
	for path != "" {
		var seg string
		seg, path, _ = strings.Cut(path, ".")
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		next, ok := m[seg]
		if !ok || next == nil {
			return nil, false
		}
		cur = next
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Record:
		return m, m != nil
	case map[string]any:
		return m, m != nil
	}
	return nil, false
}
