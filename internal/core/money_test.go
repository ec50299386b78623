package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "dot separator", raw: "1234.56", want: "1234.56"},
		{name: "comma separator", raw: "1234,56", want: "1234.56"},
		{name: "integer", raw: "100", want: "100"},
		{name: "rounds to cents", raw: "10.005", want: "10.01"},
		{name: "padded", raw: " 42.50 ", want: "42.5"},
		{name: "zero rejected", raw: "0", wantErr: true},
		{name: "negative rejected", raw: "-5", wantErr: true},
		{name: "empty rejected", raw: "", wantErr: true},
		{name: "garbage rejected", raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMoney(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) error: %v", tt.raw, err)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Fatalf("ParseMoney(%q) = %v, want %v", tt.raw, got, want)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"33.333333", "33.33"},
		{"33.335", "33.34"},
		{"-10.005", "-10.01"},
		{"250", "250"},
	}
	for _, tt := range tests {
		in, _ := decimal.NewFromString(tt.in)
		want, _ := decimal.NewFromString(tt.want)
		if got := Round2(in); !got.Equal(want) {
			t.Errorf("Round2(%s) = %v, want %v", tt.in, got, want)
		}
	}
}
