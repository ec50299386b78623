package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestScheduleInstallments_EvenSplit(t *testing.T) {
	plan := PaymentPlan{
		Type:     core.PaymentInstallments,
		Count:    4,
		FirstDue: core.NewDate(2024, time.January, 15),
	}
	got := ScheduleInstallments("s1", "c1", money("1000"), plan)
	if len(got) != 4 {
		t.Fatalf("installments = %d, want 4", len(got))
	}
	wantDates := []core.Date{
		core.NewDate(2024, time.January, 15),
		core.NewDate(2024, time.February, 15),
		core.NewDate(2024, time.March, 15),
		core.NewDate(2024, time.April, 15),
	}
	for i, inst := range got {
		if !inst.Value.Equal(money("250")) {
			t.Fatalf("installment %d value = %v, want 250", i+1, inst.Value)
		}
		if inst.Number != i+1 || inst.Total != 4 {
			t.Fatalf("installment %d position = %d/%d", i+1, inst.Number, inst.Total)
		}
		if !inst.DueDate.SameDay(wantDates[i]) {
			t.Fatalf("installment %d due = %v, want %v", i+1, inst.DueDate, wantDates[i])
		}
		if inst.Status != core.InstallmentPending {
			t.Fatalf("installment %d status = %q", i+1, inst.Status)
		}
		if inst.SaleID != "s1" || inst.ClientID != "c1" {
			t.Fatalf("installment %d linkage = %q/%q", i+1, inst.SaleID, inst.ClientID)
		}
	}
}

func TestScheduleInstallments_RoundingGap(t *testing.T) {
	plan := PaymentPlan{
		Type:     core.PaymentInstallments,
		Count:    3,
		FirstDue: core.NewDate(2024, time.January, 10),
	}
	got := ScheduleInstallments("s1", "c1", money("100"), plan)

	sum := decimal.Zero
	for _, inst := range got {
		if !inst.Value.Equal(money("33.33")) {
			t.Fatalf("value = %v, want 33.33 (no remainder absorption)", inst.Value)
		}
		sum = sum.Add(inst.Value)
	}
	// The schedule may not sum to the sale total; the gap is accepted.
	if !sum.Equal(money("99.99")) {
		t.Fatalf("sum = %v, want 99.99", sum)
	}
}

func TestScheduleInstallments_Single(t *testing.T) {
	due := core.NewDate(2024, time.May, 1)
	got := ScheduleInstallments("s1", "c1", money("499.50"), PaymentPlan{
		Type:     core.PaymentSingle,
		Count:    1,
		FirstDue: due,
	})
	if len(got) != 1 {
		t.Fatalf("installments = %d, want 1", len(got))
	}
	if !got[0].Value.Equal(money("499.50")) || got[0].Number != 1 || got[0].Total != 1 {
		t.Fatalf("single = %+v", got[0])
	}
	if !got[0].DueDate.SameDay(due) {
		t.Fatalf("due = %v, want %v", got[0].DueDate, due)
	}
}

func TestScheduleInstallments_MonthEndRollover(t *testing.T) {
	plan := PaymentPlan{
		Type:     core.PaymentInstallments,
		Count:    3,
		FirstDue: core.NewDate(2025, time.January, 31),
	}
	got := ScheduleInstallments("s1", "c1", money("300"), plan)
	// time.Date normalization: Jan 31 -> Mar 3 -> Mar 31.
	wantDates := []core.Date{
		core.NewDate(2025, time.January, 31),
		core.NewDate(2025, time.March, 3),
		core.NewDate(2025, time.March, 31),
	}
	for i, inst := range got {
		if !inst.DueDate.SameDay(wantDates[i]) {
			t.Fatalf("installment %d due = %v, want %v", i+1, inst.DueDate, wantDates[i])
		}
	}
}

func TestPlanFromQuote(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)

	// Installment quote with explicit terms.
	q := core.Quote{
		PaymentType:       core.PaymentInstallments,
		InstallmentsCount: 6,
		FirstDueDate:      core.NewDate(2024, time.April, 1),
	}
	plan := PlanFromQuote(q, today)
	if plan.Type != core.PaymentInstallments || plan.Count != 6 {
		t.Fatalf("plan = %+v", plan)
	}
	if !plan.FirstDue.SameDay(core.NewDate(2024, time.April, 1)) {
		t.Fatalf("firstDue = %v", plan.FirstDue)
	}

	// Missing dates default to today.
	plan = PlanFromQuote(core.Quote{PaymentType: core.PaymentInstallments, InstallmentsCount: 2}, today)
	if !plan.FirstDue.SameDay(today) {
		t.Fatalf("defaulted firstDue = %v, want today", plan.FirstDue)
	}

	// Single-payment quote.
	plan = PlanFromQuote(core.Quote{SingleDueDate: core.NewDate(2024, time.May, 5)}, today)
	if plan.Type != core.PaymentSingle || plan.Count != 1 {
		t.Fatalf("single plan = %+v", plan)
	}
	if !plan.FirstDue.SameDay(core.NewDate(2024, time.May, 5)) {
		t.Fatalf("single due = %v", plan.FirstDue)
	}
}
