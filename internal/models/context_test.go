package models

import "testing"

func testContext() *DataContext {
	return &DataContext{
		Provider: Record{
			"firstName": "Jane",
			"address":   map[string]any{"city": "Springfield", "zip": "62704"},
			"npi":       nil,
		},
		Providers: []Record{
			{"lastName": "Public"},
			{"lastName": "Doe"},
		},
		Office:         Record{"name": "Main Office"},
		MailingAddress: Record{"street": "1 Elm St"},
	}
}

func TestLookup_topLevel(t *testing.T) {
	ctx := testContext()
	got, ok := ctx.Lookup("provider.firstName")
	if !ok || got != "Jane" {
		t.Errorf("got %v, %v", got, ok)
	}
}

func TestLookup_nested(t *testing.T) {
	ctx := testContext()
	got, ok := ctx.Lookup("provider.address.city")
	if !ok || got != "Springfield" {
		t.Errorf("got %v, %v", got, ok)
	}
}

func TestLookup_mailingAlias(t *testing.T) {
	ctx := testContext()
	for _, path := range []string{"mailing.street", "mailingAddress.street"} {
		got, ok := ctx.Lookup(path)
		if !ok || got != "1 Elm St" {
			t.Errorf("Lookup(%q) = %v, %v", path, got, ok)
		}
	}
}

func TestLookup_missingIntermediate(t *testing.T) {
	ctx := testContext()
	cases := []string{
		"provider.address.state",
		"provider.missing.deeper",
		"provider.npi",
		"office.address.city",
		"unknown.field",
		"",
	}
	for _, path := range cases {
		if got, ok := ctx.Lookup(path); ok {
			t.Errorf("Lookup(%q) = %v, want miss", path, got)
		}
	}
}

func TestLookup_nilContext(t *testing.T) {
	var ctx *DataContext
	if _, ok := ctx.Lookup("provider.firstName"); ok {
		t.Error("nil context should not resolve")
	}
}

func TestProviderAt(t *testing.T) {
	ctx := testContext()
	if rec := ctx.ProviderAt(2); rec == nil || rec["lastName"] != "Doe" {
		t.Errorf("slot 2 = %v", rec)
	}
	for _, slot := range []int{0, -1, 3} {
		if rec := ctx.ProviderAt(slot); rec != nil {
			t.Errorf("slot %d = %v, want nil", slot, rec)
		}
	}
}
