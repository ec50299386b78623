package workflow

import (
	"github.com/shopspring/decimal"

	"atlas/internal/core"
)

// PaymentPlan describes how a sale's total is split over time.
type PaymentPlan struct {
	Type     core.PaymentType
	Count    int
	FirstDue core.Date
}

// PlanFromQuote copies a quote's payment terms into a plan, defaulting
// missing pieces the way the quote form does.
func PlanFromQuote(q core.Quote, today core.Date) PaymentPlan {
	if q.PaymentType == core.PaymentInstallments {
		first := q.FirstDueDate
		if first.IsZero() {
			first = today
		}
		count := q.InstallmentsCount
		if count < 1 {
			count = 1
		}
		return PaymentPlan{Type: core.PaymentInstallments, Count: count, FirstDue: first}
	}
	due := q.SingleDueDate
	if due.IsZero() {
		due = today
	}
	return PaymentPlan{Type: core.PaymentSingle, Count: 1, FirstDue: due}
}

// ScheduleInstallments generates the pending installment schedule for a
// sale. A single payment yields one installment for the full total. An
// installment plan splits the total into count equal parts, each rounded
// to cents independently; the rounded parts may sum to slightly less or
// more than the total for counts that do not divide evenly, and no
// installment absorbs the difference. Due dates advance one calendar
// month at a time from the first due date, with time.Date month-end
// normalization (see core.Date.AddMonths).
//
// Installment ids are left empty; the caller assigns them when staging
// the batch write.
func ScheduleInstallments(saleID, clientID string, total decimal.Decimal, plan PaymentPlan) []core.Installment {
	if plan.Type != core.PaymentInstallments || plan.Count <= 1 {
		return []core.Installment{{
			SaleID:   saleID,
			ClientID: clientID,
			Value:    core.Round2(total),
			Number:   1,
			Total:    1,
			DueDate:  plan.FirstDue,
			Status:   core.InstallmentPending,
		}}
	}

	per := core.Round2(total.Div(decimal.NewFromInt(int64(plan.Count))))
	out := make([]core.Installment, 0, plan.Count)
	for i := 1; i <= plan.Count; i++ {
		out = append(out, core.Installment{
			SaleID:   saleID,
			ClientID: clientID,
			Value:    per,
			Number:   i,
			Total:    plan.Count,
			DueDate:  plan.FirstDue.AddMonths(i - 1),
			Status:   core.InstallmentPending,
		})
	}
	return out
}
