package domain

import "testing"

func TestProvider_NameTokens(t *testing.T) {
	tests := []struct {
		name      string
		fullName  string
		wantFirst string
		wantLast  string
		wantOK    bool
	}{
		{name: "first and last", fullName: "Ana Torres", wantFirst: "Ana", wantLast: "Torres", wantOK: true},
		{name: "trailing comma before suffix", fullName: "Ana Torres, MD", wantFirst: "Ana", wantLast: "Torres", wantOK: true},
		{name: "extra whitespace", fullName: "  Ana   Torres  ", wantFirst: "Ana", wantLast: "Torres", wantOK: true},
		{name: "single token", fullName: "Ana", wantOK: false},
		{name: "empty", fullName: "", wantOK: false},
		{name: "whitespace only", fullName: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Provider{FullName: tt.fullName}
			first, last, ok := p.NameTokens()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if first != tt.wantFirst {
				t.Errorf("first = %q, want %q", first, tt.wantFirst)
			}
			if last != tt.wantLast {
				t.Errorf("last = %q, want %q", last, tt.wantLast)
			}
		})
	}
}

func TestProvider_HasFullAddress(t *testing.T) {
	p := &Provider{Address: "12 Main St", City: "Austin", State: "TX"}
	if !p.HasFullAddress() {
		t.Error("expected full address")
	}

	for _, missing := range []Provider{
		{City: "Austin", State: "TX"},
		{Address: "12 Main St", State: "TX"},
		{Address: "12 Main St", City: "Austin"},
	} {
		if missing.HasFullAddress() {
			t.Errorf("expected incomplete address for %+v", missing)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"pending", "review", "validated"} {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "valid", "PENDING", "done"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
