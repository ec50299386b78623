// Validating decode step at the store boundary. Raw documents arrive as
// map[string]any; every entity gets an explicit decoder that defaults
// missing or mistyped fields instead of letting them propagate through
// arithmetic downstream.
package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func DecodeClient(id string, f map[string]any) Client {
	return Client{
		ID:        id,
		Name:      str(f, "name"),
		Contact:   str(f, "contact"),
		Email:     str(f, "email"),
		Address:   str(f, "address"),
		Notes:     str(f, "notes"),
		CreatedAt: ParseDate(str(f, "createdAt")),
	}
}

func DecodeSale(id string, f map[string]any) Sale {
	pt := PaymentType(str(f, "paymentType"))
	if !pt.Valid() {
		pt = PaymentSingle
	}
	total := integer(f, "totalInstallments")
	if total < 1 {
		total = 1
	}
	return Sale{
		ID:                id,
		ClientID:          str(f, "clientId"),
		Description:       str(f, "description"),
		TotalValue:        amount(f, "totalValue"),
		PaymentType:       pt,
		TotalInstallments: total,
		CreatedAt:         ParseDate(str(f, "createdAt")),
		SourceQuoteID:     str(f, "sourceQuoteId"),
	}
}

func DecodeInstallment(id string, f map[string]any) Installment {
	status := InstallmentStatus(str(f, "status"))
	if status != InstallmentPaid {
		status = InstallmentPending
	}
	number := integer(f, "installmentNumber")
	if number < 1 {
		number = 1
	}
	total := integer(f, "totalInstallments")
	if total < number {
		total = number
	}
	return Installment{
		ID:       id,
		SaleID:   str(f, "saleId"),
		ClientID: str(f, "clientId"),
		Value:    amount(f, "value"),
		Number:   number,
		Total:    total,
		DueDate:  ParseDate(str(f, "dueDate")),
		Status:   status,
		PaidDate: ParseDate(str(f, "paidDate")),
	}
}

func DecodeExpense(id string, f map[string]any) Expense {
	return Expense{
		ID:          id,
		Description: str(f, "description"),
		Value:       amount(f, "value"),
		Date:        ParseDate(str(f, "date")),
		Category:    str(f, "category"),
	}
}

func DecodeQuote(id string, f map[string]any) Quote {
	status := QuoteStatus(str(f, "status"))
	if !status.Valid() {
		status = QuoteSent
	}
	pt := PaymentType(str(f, "paymentType"))
	if !pt.Valid() {
		pt = PaymentSingle
	}
	count := integer(f, "installmentsCount")
	if count < 1 {
		count = 1
	}
	return Quote{
		ID:                id,
		ClientID:          str(f, "clientId"),
		Title:             str(f, "title"),
		Date:              ParseDate(str(f, "date")),
		ValidityDays:      integer(f, "validityDays"),
		Items:             items(f, "items"),
		TotalValue:        amount(f, "totalValue"),
		Status:            status,
		ConvertedToSale:   boolean(f, "convertedToSale"),
		PaymentType:       pt,
		InstallmentsCount: count,
		FirstDueDate:      ParseDate(str(f, "firstDueDate")),
		SingleDueDate:     ParseDate(str(f, "singleDueDate")),
	}
}

func DecodeSettings(id string, f map[string]any) Settings {
	return Settings{
		ID:                  id,
		OnboardingCompleted: boolean(f, "onboardingCompleted"),
	}
}

func str(f map[string]any, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func boolean(f map[string]any, key string) bool {
	if v, ok := f[key].(bool); ok {
		return v
	}
	return false
}

func integer(f map[string]any, key string) int {
	switch v := f[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}

// amount extracts a monetary value, tolerating the numeric and string
// shapes different backends produce. Unreadable values default to zero.
func amount(f map[string]any, key string) decimal.Decimal {
	switch v := f[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func items(f map[string]any, key string) []QuoteItem {
	raw, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]QuoteItem, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, QuoteItem{
			Description: str(m, "description"),
			Quantity:    amount(m, "quantity"),
			UnitPrice:   amount(m, "unitPrice"),
		})
	}
	return out
}
