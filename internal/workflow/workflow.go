// Package workflow implements the write-side operations: quote
// conversion, entity creation, bulk mark-paid and the delete cascades.
// Every multi-document operation goes through one atomic batch; the local
// mirror is never updated optimistically, it catches up when the store
// pushes the committed change back through sync.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atlas/internal/core"
	"atlas/internal/events"
	"atlas/internal/log"
	"atlas/internal/store"
)

var (
	// ErrAlreadyConverted guards the conversion entry point. The store
	// itself enforces no uniqueness; this mirrors the original tool's
	// action-level guard while keeping the API safe by default.
	ErrAlreadyConverted = errors.New("quote already converted")

	ErrNothingSelected = errors.New("nothing selected")
)

type Workflow struct {
	store    store.Store
	identity store.Identity
	events   *events.Publisher
	logger   *log.Logger
}

func New(st store.Store, id store.Identity, pub *events.Publisher, logger *log.Logger) *Workflow {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorkflow)
	}
	return &Workflow{store: st, identity: id, events: pub, logger: logger}
}

// ConvertQuote turns a quote into a sale with a generated installment
// schedule. The sale, its installments, and the quote's status flip to
// Approved/converted are committed as one indivisible batch: either the
// three linked entities all change or none do.
func (w *Workflow) ConvertQuote(ctx context.Context, q core.Quote) (core.Sale, error) {
	if q.ConvertedToSale {
		return core.Sale{}, fmt.Errorf("convert quote %s: %w", q.ID, ErrAlreadyConverted)
	}
	plan := PlanFromQuote(q, core.Today())
	sale := core.Sale{
		ClientID:          q.ClientID,
		Description:       q.Title,
		TotalValue:        q.TotalValue,
		PaymentType:       plan.Type,
		TotalInstallments: plan.Count,
		CreatedAt:         core.Date{Time: time.Now()},
		SourceQuoteID:     q.ID,
	}
	sale, err := w.writeSale(ctx, sale, plan, q.ID)
	if err != nil {
		return core.Sale{}, fmt.Errorf("convert quote %s: %w", q.ID, err)
	}

	w.logger.Info("quote converted",
		log.FieldQuoteID, q.ID,
		log.FieldSaleID, sale.ID,
		log.FieldCount, plan.Count)
	w.events.QuoteConverted(ctx, events.QuoteConvertedMessage{
		QuoteID:    q.ID,
		SaleID:     sale.ID,
		ClientID:   sale.ClientID,
		TotalValue: sale.TotalValue.String(),
		Timestamp:  time.Now(),
	})
	return sale, nil
}

// CreateSale records a sale entered directly (not via conversion) with
// its installment schedule, as one batch.
func (w *Workflow) CreateSale(ctx context.Context, sale core.Sale, plan PaymentPlan) (core.Sale, error) {
	sale.PaymentType = plan.Type
	sale.TotalInstallments = plan.Count
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = core.Date{Time: time.Now()}
	}
	return w.writeSale(ctx, sale, plan, sale.SourceQuoteID)
}

// writeSale stages the sale, its schedule, and (when quoteID is set) the
// quote conversion flags into one batch and commits.
func (w *Workflow) writeSale(ctx context.Context, sale core.Sale, plan PaymentPlan, quoteID string) (core.Sale, error) {
	if err := sale.Validate(); err != nil {
		return core.Sale{}, err
	}
	salesPath, err := store.UserPath(w.identity, core.CollectionSales)
	if err != nil {
		return core.Sale{}, err
	}
	instPath, err := store.UserPath(w.identity, core.CollectionInstallments)
	if err != nil {
		return core.Sale{}, err
	}

	sale.ID = w.store.NewID(salesPath)
	batch := w.store.Batch()
	batch.Set(salesPath, sale.ID, sale.Fields())
	for _, inst := range ScheduleInstallments(sale.ID, sale.ClientID, sale.TotalValue, plan) {
		batch.Set(instPath, w.store.NewID(instPath), inst.Fields())
	}
	if quoteID != "" {
		quotesPath, err := store.UserPath(w.identity, core.CollectionQuotes)
		if err != nil {
			return core.Sale{}, err
		}
		batch.Update(quotesPath, quoteID, map[string]any{
			"status":          string(core.QuoteApproved),
			"convertedToSale": true,
		})
	}
	if err := batch.Commit(ctx); err != nil {
		return core.Sale{}, fmt.Errorf("commit sale batch: %w", err)
	}
	return sale, nil
}

// SetQuoteStatus applies a manual status change. No side effects beyond
// the field itself.
func (w *Workflow) SetQuoteStatus(ctx context.Context, quoteID string, status core.QuoteStatus) error {
	if !status.Valid() {
		return fmt.Errorf("set quote status: invalid status %q", status)
	}
	path, err := store.UserPath(w.identity, core.CollectionQuotes)
	if err != nil {
		return err
	}
	return w.store.Update(ctx, path, quoteID, map[string]any{"status": string(status)})
}

// SaveQuote creates or updates a quote, recomputing and persisting the
// item total at save time. New quotes start as Sent.
func (w *Workflow) SaveQuote(ctx context.Context, q core.Quote) (core.Quote, error) {
	if err := q.Validate(); err != nil {
		return core.Quote{}, err
	}
	q.TotalValue = q.ItemsTotal()
	if q.Status == "" {
		q.Status = core.QuoteSent
	}
	path, err := store.UserPath(w.identity, core.CollectionQuotes)
	if err != nil {
		return core.Quote{}, err
	}
	if q.ID == "" {
		id, err := w.store.Create(ctx, path, q.Fields())
		if err != nil {
			return core.Quote{}, fmt.Errorf("create quote: %w", err)
		}
		q.ID = id
		return q, nil
	}
	if err := w.store.Update(ctx, path, q.ID, q.Fields()); err != nil {
		return core.Quote{}, fmt.Errorf("update quote %s: %w", q.ID, err)
	}
	return q, nil
}

// AddClient records a new client.
func (w *Workflow) AddClient(ctx context.Context, c core.Client) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = core.Date{Time: time.Now()}
	}
	path, err := store.UserPath(w.identity, core.CollectionClients)
	if err != nil {
		return "", err
	}
	return w.store.Create(ctx, path, c.Fields())
}

// UpdateClient applies a partial client edit.
func (w *Workflow) UpdateClient(ctx context.Context, id string, fields map[string]any) error {
	path, err := store.UserPath(w.identity, core.CollectionClients)
	if err != nil {
		return err
	}
	return w.store.Update(ctx, path, id, fields)
}

// AddExpense records a new expense.
func (w *Workflow) AddExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	path, err := store.UserPath(w.identity, core.CollectionExpenses)
	if err != nil {
		return "", err
	}
	return w.store.Create(ctx, path, e.Fields())
}

// MarkInstallmentsPaid flips the selected installments to paid in one
// batch. Already-paid installments are skipped, never rewritten: the
// pending -> paid transition is monotonic and paid is terminal.
func (w *Workflow) MarkInstallmentsPaid(ctx context.Context, ids []string, installments []core.Installment, paidDate core.Date) error {
	pending := make(map[string]bool, len(installments))
	for _, inst := range installments {
		if inst.Status == core.InstallmentPending {
			pending[inst.ID] = true
		}
	}
	var targets []string
	for _, id := range ids {
		if pending[id] {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return ErrNothingSelected
	}

	path, err := store.UserPath(w.identity, core.CollectionInstallments)
	if err != nil {
		return err
	}
	batch := w.store.Batch()
	for _, id := range targets {
		batch.Update(path, id, map[string]any{
			"status":   string(core.InstallmentPaid),
			"paidDate": paidDate.String(),
		})
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit mark-paid batch: %w", err)
	}

	w.logger.Info("installments marked paid", log.FieldCount, len(targets))
	w.events.InstallmentsPaid(ctx, events.InstallmentsPaidMessage{
		InstallmentIDs: targets,
		PaidDate:       paidDate.String(),
		Timestamp:      time.Now(),
	})
	return nil
}

// DeleteInstallments removes the selected installments in one batch.
func (w *Workflow) DeleteInstallments(ctx context.Context, ids []string) error {
	return w.bulkDelete(ctx, core.CollectionInstallments, ids)
}

// DeleteExpenses removes the selected expenses in one batch.
func (w *Workflow) DeleteExpenses(ctx context.Context, ids []string) error {
	return w.bulkDelete(ctx, core.CollectionExpenses, ids)
}

// DeleteQuote removes a single quote. Sales created from it keep their
// sourceQuoteId and degrade to an orphaned reference.
func (w *Workflow) DeleteQuote(ctx context.Context, id string) error {
	path, err := store.UserPath(w.identity, core.CollectionQuotes)
	if err != nil {
		return err
	}
	return w.store.Delete(ctx, path, id)
}

func (w *Workflow) bulkDelete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	path, err := store.UserPath(w.identity, collection)
	if err != nil {
		return err
	}
	batch := w.store.Batch()
	for _, id := range ids {
		batch.Delete(path, id)
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete batch: %w", err)
	}
	w.logger.Info("bulk delete", log.FieldCollection, collection, log.FieldCount, len(ids))
	return nil
}

// DeleteClients removes the selected clients and cascades to their sales
// and installments in the same batch. Quotes referencing the clients are
// left in place and degrade to orphaned references in rendering.
func (w *Workflow) DeleteClients(ctx context.Context, ids []string, sales []core.Sale, installments []core.Installment) error {
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	clientsPath, err := store.UserPath(w.identity, core.CollectionClients)
	if err != nil {
		return err
	}
	salesPath, err := store.UserPath(w.identity, core.CollectionSales)
	if err != nil {
		return err
	}
	instPath, err := store.UserPath(w.identity, core.CollectionInstallments)
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	batch := w.store.Batch()
	for _, id := range ids {
		batch.Delete(clientsPath, id)
	}
	saleCount, instCount := 0, 0
	for _, s := range sales {
		if selected[s.ClientID] {
			batch.Delete(salesPath, s.ID)
			saleCount++
		}
	}
	for _, inst := range installments {
		if selected[inst.ClientID] {
			batch.Delete(instPath, inst.ID)
			instCount++
		}
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit client cascade: %w", err)
	}

	w.logger.Info("clients deleted with cascade",
		log.FieldCount, len(ids), "sales", saleCount, "installments", instCount)
	for _, id := range ids {
		w.events.ClientDeleted(ctx, events.ClientDeletedMessage{
			ClientID:     id,
			Sales:        saleCount,
			Installments: instCount,
			Timestamp:    time.Now(),
		})
	}
	return nil
}

// CompleteOnboarding persists the onboarding flag on the settings
// singleton, creating the document on first use.
func (w *Workflow) CompleteOnboarding(ctx context.Context, settings core.Settings) error {
	path, err := store.UserPath(w.identity, core.CollectionSettings)
	if err != nil {
		return err
	}
	settings.OnboardingCompleted = true
	if settings.ID == "" {
		_, err = w.store.Create(ctx, path, settings.Fields())
		return err
	}
	return w.store.Update(ctx, path, settings.ID, settings.Fields())
}

// SaleForQuote finds the sale a quote was converted into. Sales written
// since the linkage field exists match on SourceQuoteID; older data falls
// back to matching client, title and total, which can misattribute sales
// among same-titled, same-valued quotes for one client. A known
// limitation of historical data.
func SaleForQuote(q core.Quote, sales []core.Sale) (core.Sale, bool) {
	for _, s := range sales {
		if s.SourceQuoteID == q.ID {
			return s, true
		}
	}
	if !q.ConvertedToSale {
		return core.Sale{}, false
	}
	for _, s := range sales {
		if s.SourceQuoteID == "" && s.ClientID == q.ClientID &&
			s.Description == q.Title && s.TotalValue.Equal(q.TotalValue) {
			return s, true
		}
	}
	return core.Sale{}, false
}
