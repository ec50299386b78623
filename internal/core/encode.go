// Encoders back to the store's wire shape. Monetary values are written as
// floats (the store's native number type), calendar dates in DayFormat and
// timestamps in RFC 3339, matching what DecodeX expects back.
package core

func (c Client) Fields() map[string]any {
	return map[string]any{
		"name":      c.Name,
		"contact":   c.Contact,
		"email":     c.Email,
		"address":   c.Address,
		"notes":     c.Notes,
		"createdAt": c.CreatedAt.Timestamp(),
	}
}

func (s Sale) Fields() map[string]any {
	f := map[string]any{
		"clientId":          s.ClientID,
		"description":       s.Description,
		"totalValue":        s.TotalValue.InexactFloat64(),
		"paymentType":       string(s.PaymentType),
		"totalInstallments": s.TotalInstallments,
		"createdAt":         s.CreatedAt.Timestamp(),
	}
	if s.SourceQuoteID != "" {
		f["sourceQuoteId"] = s.SourceQuoteID
	}
	return f
}

func (i Installment) Fields() map[string]any {
	f := map[string]any{
		"saleId":            i.SaleID,
		"clientId":          i.ClientID,
		"value":             i.Value.InexactFloat64(),
		"installmentNumber": i.Number,
		"totalInstallments": i.Total,
		"dueDate":           i.DueDate.String(),
		"status":            string(i.Status),
	}
	if !i.PaidDate.IsZero() {
		f["paidDate"] = i.PaidDate.String()
	}
	return f
}

func (e Expense) Fields() map[string]any {
	return map[string]any{
		"description": e.Description,
		"value":       e.Value.InexactFloat64(),
		"date":        e.Date.String(),
		"category":    e.Category,
	}
}

func (q Quote) Fields() map[string]any {
	items := make([]any, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, map[string]any{
			"description": it.Description,
			"quantity":    it.Quantity.InexactFloat64(),
			"unitPrice":   it.UnitPrice.InexactFloat64(),
		})
	}
	return map[string]any{
		"clientId":          q.ClientID,
		"title":             q.Title,
		"date":              q.Date.String(),
		"validityDays":      q.ValidityDays,
		"items":             items,
		"totalValue":        q.TotalValue.InexactFloat64(),
		"status":            string(q.Status),
		"convertedToSale":   q.ConvertedToSale,
		"paymentType":       string(q.PaymentType),
		"installmentsCount": q.InstallmentsCount,
		"firstDueDate":      q.FirstDueDate.String(),
		"singleDueDate":     q.SingleDueDate.String(),
	}
}

func (s Settings) Fields() map[string]any {
	return map[string]any{
		"onboardingCompleted": s.OnboardingCompleted,
	}
}
