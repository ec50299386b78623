package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDecodeInstallment_Defaults(t *testing.T) {
	inst := DecodeInstallment("i1", map[string]any{})
	if inst.Status != InstallmentPending {
		t.Fatalf("missing status decoded as %q, want pending", inst.Status)
	}
	if inst.Number != 1 || inst.Total != 1 {
		t.Fatalf("missing schedule position = %d/%d, want 1/1", inst.Number, inst.Total)
	}
	if !inst.Value.IsZero() || !inst.DueDate.IsZero() {
		t.Fatal("missing value/dueDate should decode to zero values")
	}

	// Unknown status strings also fall back to pending: paid is the only
	// terminal state worth trusting.
	inst = DecodeInstallment("i2", map[string]any{"status": "cancelled"})
	if inst.Status != InstallmentPending {
		t.Fatalf("unknown status decoded as %q, want pending", inst.Status)
	}

	inst = DecodeInstallment("i3", map[string]any{
		"saleId":            "s1",
		"clientId":          "c1",
		"value":             250.0,
		"installmentNumber": 2,
		"totalInstallments": 4,
		"dueDate":           "2024-05-15",
		"status":            "paid",
		"paidDate":          "2024-05-10",
	})
	if inst.Status != InstallmentPaid || inst.Number != 2 || inst.Total != 4 {
		t.Fatalf("full decode wrong: %+v", inst)
	}
	if !inst.Value.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("value = %v, want 250", inst.Value)
	}
	if !inst.DueDate.SameDay(NewDate(2024, time.May, 15)) {
		t.Fatalf("dueDate = %v", inst.DueDate)
	}
}

func TestDecodeSale_Defaults(t *testing.T) {
	s := DecodeSale("s1", map[string]any{
		"clientId":    "c1",
		"description": "Website",
		"totalValue":  "1000",
		"paymentType": "weird",
	})
	if s.PaymentType != PaymentSingle {
		t.Fatalf("invalid paymentType decoded as %q, want single", s.PaymentType)
	}
	if s.TotalInstallments != 1 {
		t.Fatalf("totalInstallments = %d, want 1", s.TotalInstallments)
	}
	if !s.TotalValue.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("string totalValue = %v, want 1000", s.TotalValue)
	}
	if s.SourceQuoteID != "" {
		t.Fatalf("sourceQuoteId = %q, want empty", s.SourceQuoteID)
	}
}

func TestDecodeQuote_Items(t *testing.T) {
	q := DecodeQuote("q1", map[string]any{
		"clientId": "c1",
		"title":    "Branding",
		"status":   "Approved",
		"items": []any{
			map[string]any{"description": "Logo", "quantity": 2.0, "unitPrice": 150.0},
			map[string]any{"description": "Cards", "quantity": json.Number("1"), "unitPrice": json.Number("49.99")},
			"not-a-map",
		},
	})
	if q.Status != QuoteApproved {
		t.Fatalf("status = %q", q.Status)
	}
	if len(q.Items) != 2 {
		t.Fatalf("items = %d, want 2 (malformed entry skipped)", len(q.Items))
	}
	want, _ := decimal.NewFromString("349.99")
	if got := q.ItemsTotal(); !got.Equal(want) {
		t.Fatalf("ItemsTotal = %v, want %v", got, want)
	}
}

func TestDecodeQuote_Defaults(t *testing.T) {
	q := DecodeQuote("q1", map[string]any{"status": "Draft"})
	if q.Status != QuoteSent {
		t.Fatalf("unknown status decoded as %q, want Sent", q.Status)
	}
	if q.ConvertedToSale {
		t.Fatal("missing convertedToSale should decode false")
	}
	if q.InstallmentsCount != 1 || q.PaymentType != PaymentSingle {
		t.Fatalf("payment defaults wrong: %q x%d", q.PaymentType, q.InstallmentsCount)
	}
}

func TestAmount_Shapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"float64", 12.5, "12.5"},
		{"int64", int64(7), "7"},
		{"int", 3, "3"},
		{"json number", json.Number("99.99"), "99.99"},
		{"string", "10,00", "0"}, // comma strings are not store shapes
		{"plain string", "10.00", "10"},
		{"nil", nil, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, _ := decimal.NewFromString(tt.want)
			got := amount(map[string]any{"v": tt.in}, "v")
			if !got.Equal(want) {
				t.Fatalf("amount(%v) = %v, want %v", tt.in, got, want)
			}
		})
	}
}

func TestEncodeDecode_Installment(t *testing.T) {
	inst := Installment{
		ID:       "i1",
		SaleID:   "s1",
		ClientID: "c1",
		Value:    decimal.NewFromFloat(333.33),
		Number:   2,
		Total:    3,
		DueDate:  NewDate(2024, time.June, 1),
		Status:   InstallmentPending,
	}
	fields := inst.Fields()
	if _, ok := fields["paidDate"]; ok {
		t.Fatal("pending installment must not persist a paidDate")
	}
	back := DecodeInstallment(inst.ID, fields)
	if back.SaleID != inst.SaleID || back.Number != inst.Number || back.Total != inst.Total {
		t.Fatalf("round trip changed identity: %+v", back)
	}
	if !back.Value.Equal(inst.Value) {
		t.Fatalf("round trip value = %v, want %v", back.Value, inst.Value)
	}
	if !back.DueDate.SameDay(inst.DueDate) {
		t.Fatalf("round trip dueDate = %v", back.DueDate)
	}
}
