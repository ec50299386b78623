package http

import (
	"atlas/internal/core"
	"atlas/internal/notify"
	"atlas/internal/report"
	appsync "atlas/internal/sync"
	"atlas/internal/workflow"
)

// View types: the JSON shapes of the read endpoints. Money renders as
// float64 for display; the decimal arithmetic is already done.

type clientView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Contact     string  `json:"contact,omitempty"`
	Email       string  `json:"email,omitempty"`
	Address     string  `json:"address,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	Billed      float64 `json:"billed"`
	Paid        float64 `json:"paid"`
	Outstanding float64 `json:"outstanding"`
	HasOverdue  bool    `json:"hasOverdue"`
}

type installmentView struct {
	ID         string  `json:"id"`
	SaleID     string  `json:"saleId"`
	ClientID   string  `json:"clientId"`
	ClientName string  `json:"clientName"`
	Value      float64 `json:"value"`
	Number     int     `json:"number"`
	Total      int     `json:"total"`
	DueDate    string  `json:"dueDate"`
	Status     string  `json:"status"`
	PaidDate   string  `json:"paidDate,omitempty"`
}

type quoteItemView struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type quoteView struct {
	ID               string          `json:"id"`
	ClientID         string          `json:"clientId"`
	ClientName       string          `json:"clientName"`
	Title            string          `json:"title"`
	Date             string          `json:"date,omitempty"`
	ValidityDays     int             `json:"validityDays,omitempty"`
	Items            []quoteItemView `json:"items"`
	TotalValue       float64         `json:"totalValue"`
	Status           string          `json:"status"`
	ConvertedToSale  bool            `json:"convertedToSale"`
	SaleID           string          `json:"saleId,omitempty"`
	PaymentType      string          `json:"paymentType"`
	InstallmentValue float64         `json:"installmentValue,omitempty"`
	DueDates         []string        `json:"dueDates,omitempty"`
}

type notificationView struct {
	Type          string `json:"type"`
	InstallmentID string `json:"installmentId"`
	ClientName    string `json:"clientName"`
	DueDate       string `json:"dueDate"`
	Message       string `json:"message"`
}

type bucketView struct {
	Total float64           `json:"total"`
	Items []installmentView `json:"items"`
}

type receivablesView struct {
	Overdue  bucketView `json:"overdue"`
	Upcoming bucketView `json:"upcoming"`
}

type dashboardView struct {
	Year            int                 `json:"year"`
	Month           int                 `json:"month"`
	Revenue         float64             `json:"revenue"`
	Expenses        float64             `json:"expenses"`
	Balance         float64             `json:"balance"`
	OpenQuotes      float64             `json:"openQuotes"`
	TopClients      []clientRevenueView `json:"topClients"`
	ByCategory      []categoryTotalView `json:"expensesByCategory"`
	Funnel          funnelView          `json:"salesFunnel"`
	MonthlySeries   []monthTotalsView   `json:"monthlySeries"`
	Notifications   []notificationView  `json:"notifications"`
	NeedsOnboarding bool                `json:"needsOnboarding"`
}

type clientRevenueView struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

type categoryTotalView struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type funnelView struct {
	Quoted   float64 `json:"quoted"`
	Approved float64 `json:"approved"`
}

type monthTotalsView struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
}

func clientViews(state appsync.State, clients []core.Client, asOf core.Date) []clientView {
	out := make([]clientView, 0, len(clients))
	for _, c := range clients {
		balance := report.ClientBalance(c.ID, state.Sales, state.Installments)
		out = append(out, clientView{
			ID:          c.ID,
			Name:        c.Name,
			Contact:     c.Contact,
			Email:       c.Email,
			Address:     c.Address,
			Notes:       c.Notes,
			CreatedAt:   c.CreatedAt.Timestamp(),
			Billed:      balance.Billed.InexactFloat64(),
			Paid:        balance.Paid.InexactFloat64(),
			Outstanding: balance.Outstanding.InexactFloat64(),
			HasOverdue:  report.HasOverdue(c.ID, state.Installments, asOf),
		})
	}
	return out
}

func installmentViews(installments []core.Installment, clients []core.Client) []installmentView {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	out := make([]installmentView, 0, len(installments))
	for _, inst := range installments {
		name, ok := names[inst.ClientID]
		if !ok || name == "" {
			name = report.DeletedClientLabel
		}
		out = append(out, installmentView{
			ID:         inst.ID,
			SaleID:     inst.SaleID,
			ClientID:   inst.ClientID,
			ClientName: name,
			Value:      inst.Value.InexactFloat64(),
			Number:     inst.Number,
			Total:      inst.Total,
			DueDate:    inst.DueDate.String(),
			Status:     string(inst.Status),
			PaidDate:   inst.PaidDate.String(),
		})
	}
	return out
}

func quoteViews(quotes []core.Quote, clients []core.Client, sales []core.Sale) []quoteView {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	out := make([]quoteView, 0, len(quotes))
	for _, q := range quotes {
		name, ok := names[q.ClientID]
		if !ok || name == "" {
			name = report.DeletedClientLabel
		}
		items := make([]quoteItemView, 0, len(q.Items))
		for _, it := range q.Items {
			items = append(items, quoteItemView{
				Description: it.Description,
				Quantity:    it.Quantity.InexactFloat64(),
				UnitPrice:   it.UnitPrice.InexactFloat64(),
			})
		}
		v := quoteView{
			ID:              q.ID,
			ClientID:        q.ClientID,
			ClientName:      name,
			Title:           q.Title,
			Date:            q.Date.String(),
			ValidityDays:    q.ValidityDays,
			Items:           items,
			TotalValue:      q.TotalValue.InexactFloat64(),
			Status:          string(q.Status),
			ConvertedToSale: q.ConvertedToSale,
			PaymentType:     string(q.PaymentType),
		}
		// Payment preview: what the schedule would look like if this
		// quote were converted today.
		schedule := workflow.ScheduleInstallments("", q.ClientID, q.TotalValue,
			workflow.PlanFromQuote(q, core.Today()))
		if len(schedule) > 0 {
			v.InstallmentValue = schedule[0].Value.InexactFloat64()
			for _, inst := range schedule {
				v.DueDates = append(v.DueDates, inst.DueDate.String())
			}
		}
		if sale, ok := workflow.SaleForQuote(q, sales); ok {
			v.SaleID = sale.ID
		}
		out = append(out, v)
	}
	return out
}

func notificationViews(notifications []notify.Notification) []notificationView {
	out := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationView{
			Type:          string(n.Type),
			InstallmentID: n.InstallmentID,
			ClientName:    n.ClientName,
			DueDate:       n.DueDate.String(),
			Message:       n.Message,
		})
	}
	return out
}

func newBucketView(installments []core.Installment, clients []core.Client) bucketView {
	total := 0.0
	for _, inst := range installments {
		total += inst.Value.InexactFloat64()
	}
	return bucketView{Total: total, Items: installmentViews(installments, clients)}
}
