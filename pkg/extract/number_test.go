package extract

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"1.234,56", 1234.56, true},
		{"1234.56", 1234.56, true},
		{"R$ 1.234,56", 1234.56, true},
		{"R$ 49,90", 49.9, true},
		{"99.90", 99.9, true},
		{"12.345.678,90", 12345678.9, true},
		{"1.234", 1234, true},
		{"$1,234.56", 1234.56, true},
		{"1,234,567.89", 1234567.89, true},
		{"€ 15", 15, true},
		{"", 0, false},
		{"abc", 0, false},
		{"R$", 0, false},
		{"1,2,3", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("ParseNumber(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseNumberBrazilianAndCanonicalAgree(t *testing.T) {
	br, ok := ParseNumber("1.234,56")
	if !ok {
		t.Fatal("brazilian format rejected")
	}
	canonical, ok := ParseNumber("1234.56")
	if !ok {
		t.Fatal("canonical format rejected")
	}
	if br != canonical {
		t.Errorf("got %v and %v, want equal", br, canonical)
	}
}
