package fixedpoint

import (
	"math/big"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{"whole units", "2000", 6, "2000000000", false},
		{"fraction", "0.5", 18, "500000000000000000", false},
		{"excess fraction truncates", "1.1234567", 6, "1123456", false},
		{"zero rejected", "0", 6, "", true},
		{"negative rejected", "-1", 6, "", true},
		{"empty rejected", "   ", 6, "", true},
		{"garbage rejected", "1.2.3", 6, "", true},
		{"letters rejected", "12a", 6, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDecimal(tc.text, tc.decimals)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want, _ := new(big.Int).SetString(tc.want, 10)
			if got.Cmp(want) != 0 {
				t.Fatalf("expected %s, got %s", want, got)
			}
		})
	}
}

func TestFormatAmountTrimsTrailingZeroes(t *testing.T) {
	raw, _ := new(big.Int).SetString("687500000000000000", 10)
	if got := FormatAmount(raw, 18, 6); got != "0.6875" {
		t.Fatalf("expected 0.6875, got %s", got)
	}
	if got := FormatAmount(big.NewInt(2_000_000_000), 6, 2); got != "2000" {
		t.Fatalf("expected 2000, got %s", got)
	}
	if got := FormatAmount(big.NewInt(1_500_000), 6, 2); got != "1.5" {
		t.Fatalf("expected 1.5, got %s", got)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	raw, err := ParseDecimal("1234.56", 6)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatAmount(raw, 6, 6); got != "1234.56" {
		t.Fatalf("round trip changed text: %s", got)
	}
}
