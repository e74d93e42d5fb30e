// Package services owns the in-memory document and coordinates
// mutations with persistence and change-event publishing.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lendtrack/internal/core"
)

// Store loads and saves the whole document blob.
type Store interface {
	Load(ctx context.Context) (*core.Document, error)
	Save(ctx context.Context, doc *core.Document) error
}

// Publisher announces accepted mutations. May be nil when no broker
// is configured.
type Publisher interface {
	PublishDocumentChanged(ctx context.Context, op string) error
}

// Tracker is the single owner of the document. Mutations apply to the
// in-memory copy first and atomically; the persistence write and the
// change event are side effects that are logged on failure but never
// undo the mutation, so the user keeps operating on the updated copy.
type Tracker struct {
	mu        sync.Mutex
	doc       *core.Document
	store     Store
	publisher Publisher
	now       func() time.Time
}

// NewTracker loads the document from the store. A load fault is
// logged and the tracker starts from the empty default document.
func NewTracker(ctx context.Context, store Store, publisher Publisher) *Tracker {
	doc, err := store.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load document, starting empty", "error", err)
		doc = core.NewDocument()
	}
	return &Tracker{
		doc:       doc,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// commit persists the document and publishes the change event, both
// best-effort. Callers hold the mutex.
func (t *Tracker) commit(ctx context.Context, op string) {
	if err := t.store.Save(ctx, t.doc); err != nil {
		slog.ErrorContext(ctx, "Failed to persist document", "op", op, "error", err)
	}
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishDocumentChanged(ctx, op); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event", "op", op, "error", err)
	}
}

// Snapshot returns a deep copy of the current document for readers
// that outlive the lock, such as the report exporter.
func (t *Tracker) Snapshot() *core.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doc.Clone()
}

// People returns every person with a copy of their loans.
func (t *Tracker) People() []core.Person {
	return t.Snapshot().People
}

// Person returns a deep copy of one person by ID. The copy shares no
// backing arrays with the live document, so callers can fold totals
// while mutations keep landing.
func (t *Tracker) Person(id string) (core.Person, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.doc.FindPerson(id)
	if err != nil {
		return core.Person{}, err
	}
	return p.Clone(), nil
}

// PaymentModes returns the registry in order.
func (t *Tracker) PaymentModes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.doc.PaymentModes...)
}

// Overview computes the dashboard summary at the current instant.
func (t *Tracker) Overview() core.PortfolioOverview {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doc.Overview(t.now())
}

// Now exposes the tracker's clock so presentation code derives
// statuses from the same instant.
func (t *Tracker) Now() time.Time {
	return t.now()
}

func (t *Tracker) AddPerson(ctx context.Context, name string, first core.LoanDraft) (core.Person, error) {
	p := core.Person{Name: name}
	if err := p.Validate(); err != nil {
		return core.Person{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	created := t.doc.AddPerson(name, first, t.now())
	t.commit(ctx, "add-person")
	return created, nil
}

func (t *Tracker) EditPerson(ctx context.Context, id, name string) error {
	p := core.Person{Name: name}
	if err := p.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.doc.EditPerson(id, name); err != nil {
		return err
	}
	t.commit(ctx, "edit-person")
	return nil
}

func (t *Tracker) DeletePerson(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.doc.DeletePerson(id); err != nil {
		return err
	}
	t.commit(ctx, "delete-person")
	return nil
}

func (t *Tracker) AddLoan(ctx context.Context, personID string, draft core.LoanDraft) (core.Loan, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, err := t.doc.AddLoan(personID, draft, t.now())
	if err != nil {
		return core.Loan{}, err
	}
	t.commit(ctx, "add-loan")
	return l, nil
}

func (t *Tracker) EditLoan(ctx context.Context, personID, loanID string, upd core.LoanUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.doc.EditLoan(personID, loanID, upd); err != nil {
		return err
	}
	t.commit(ctx, "edit-loan")
	return nil
}

func (t *Tracker) DeleteLoan(ctx context.Context, personID, loanID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.doc.DeleteLoan(personID, loanID); err != nil {
		return err
	}
	t.commit(ctx, "delete-loan")
	return nil
}

func (t *Tracker) AddTransaction(ctx context.Context, personID, loanID string, draft core.TransactionDraft) (core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	txn, err := t.doc.AddTransaction(personID, loanID, draft)
	if err != nil {
		return core.Transaction{}, err
	}
	t.commit(ctx, "add-transaction")
	return txn, nil
}

func (t *Tracker) DeleteTransaction(ctx context.Context, personID, loanID, txnID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.doc.DeleteTransaction(personID, loanID, txnID); err != nil {
		return err
	}
	t.commit(ctx, "delete-transaction")
	return nil
}

func (t *Tracker) MarkLoanReceived(ctx context.Context, personID, loanID string, amount core.Money, date core.Date, mode string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.doc.MarkLoanReceived(personID, loanID, amount, date, mode); err != nil {
		return err
	}
	t.commit(ctx, "mark-loan-received")
	return nil
}

// AddPaymentMode appends a label; adding an existing one is a no-op
// and is not persisted or published.
func (t *Tracker) AddPaymentMode(ctx context.Context, label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.doc.AddPaymentMode(label) {
		return false
	}
	t.commit(ctx, "add-payment-mode")
	return true
}

func (t *Tracker) DeletePaymentMode(ctx context.Context, label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.doc.DeletePaymentMode(label) {
		return false
	}
	t.commit(ctx, "delete-payment-mode")
	return true
}
