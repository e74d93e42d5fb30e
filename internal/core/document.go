package core

import (
	"time"

	"github.com/google/uuid"
)

// Document is the whole persisted record graph. A single owner holds
// it in memory; mutations apply atomically and the persistence write
// happens afterwards as a side effect.
type Document struct {
	People       []Person `json:"people"`
	PaymentModes []string `json:"paymentModes"`
}

// NewDocument returns an empty document with the default payment
// mode registry.
func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize repairs a freshly loaded document: nil collections become
// empty and a missing payment-mode registry is backfilled with the
// defaults.
func (d *Document) Normalize() {
	if d.People == nil {
		d.People = []Person{}
	}
	if len(d.PaymentModes) == 0 {
		d.PaymentModes = append([]string(nil), DefaultPaymentModes...)
	}
	for i := range d.People {
		if d.People[i].Loans == nil {
			d.People[i].Loans = []Loan{}
		}
		for j := range d.People[i].Loans {
			if d.People[i].Loans[j].Transactions == nil {
				d.People[i].Loans[j].Transactions = []Transaction{}
			}
		}
	}
}

// Clone deep-copies the document so readers can hold a snapshot
// while the owner keeps mutating.
func (d *Document) Clone() *Document {
	out := &Document{
		People:       make([]Person, len(d.People)),
		PaymentModes: append([]string(nil), d.PaymentModes...),
	}
	for i, p := range d.People {
		out.People[i] = p.Clone()
	}
	return out
}

// LoanDraft carries the user-entered fields of a new loan.
type LoanDraft struct {
	Purpose  string
	Interest Money
	DueDate  Date
	Duration string
}

// TransactionDraft carries the user-entered fields of a disbursement.
type TransactionDraft struct {
	Date   Date
	Amount Money
	Mode   string
	Note   string
}

// LoanUpdate replaces the scalar fields that are set; nil fields are
// left alone.
type LoanUpdate struct {
	Purpose  *string
	Interest *Money
	DueDate  *Date
	Duration *string
}

func newLoan(draft LoanDraft, now time.Time) Loan {
	return Loan{
		ID:           uuid.NewString(),
		Purpose:      draft.Purpose,
		Interest:     draft.Interest,
		DueDate:      draft.DueDate,
		Duration:     draft.Duration,
		CreatedAt:    now,
		Transactions: []Transaction{},
	}
}

func (d *Document) person(id string) *Person {
	for i := range d.People {
		if d.People[i].ID == id {
			return &d.People[i]
		}
	}
	return nil
}

func (d *Document) loan(personID, loanID string) (*Person, *Loan) {
	p := d.person(personID)
	if p == nil {
		return nil, nil
	}
	for i := range p.Loans {
		if p.Loans[i].ID == loanID {
			return p, &p.Loans[i]
		}
	}
	return p, nil
}

// FindPerson returns a copy of the person, or ErrPersonNotFound.
func (d *Document) FindPerson(id string) (Person, error) {
	p := d.person(id)
	if p == nil {
		return Person{}, ErrPersonNotFound
	}
	return *p, nil
}

// AddPerson creates a person together with their implicit first
// loan; every person has at least one loan at creation time.
func (d *Document) AddPerson(name string, first LoanDraft, now time.Time) Person {
	p := Person{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		Loans:     []Loan{newLoan(first, now)},
	}
	d.People = append(d.People, p)
	return p
}

// EditPerson replaces the person's display name.
func (d *Document) EditPerson(id, name string) error {
	p := d.person(id)
	if p == nil {
		return ErrPersonNotFound
	}
	p.Name = name
	return nil
}

// DeletePerson removes the person and, transitively, all of their
// loans and transactions.
func (d *Document) DeletePerson(id string) error {
	for i := range d.People {
		if d.People[i].ID == id {
			d.People = append(d.People[:i], d.People[i+1:]...)
			return nil
		}
	}
	return ErrPersonNotFound
}

// AddLoan appends a new loan to the person's collection.
func (d *Document) AddLoan(personID string, draft LoanDraft, now time.Time) (Loan, error) {
	p := d.person(personID)
	if p == nil {
		return Loan{}, ErrPersonNotFound
	}
	l := newLoan(draft, now)
	p.Loans = append(p.Loans, l)
	return l, nil
}

// EditLoan replaces the loan's set scalar fields in place.
func (d *Document) EditLoan(personID, loanID string, upd LoanUpdate) error {
	_, l := d.loan(personID, loanID)
	if l == nil {
		if d.person(personID) == nil {
			return ErrPersonNotFound
		}
		return ErrLoanNotFound
	}
	if upd.Purpose != nil {
		l.Purpose = *upd.Purpose
	}
	if upd.Interest != nil {
		l.Interest = *upd.Interest
	}
	if upd.DueDate != nil {
		l.DueDate = *upd.DueDate
	}
	if upd.Duration != nil {
		l.Duration = *upd.Duration
	}
	return nil
}

// DeleteLoan removes the loan and its transactions.
func (d *Document) DeleteLoan(personID, loanID string) error {
	p := d.person(personID)
	if p == nil {
		return ErrPersonNotFound
	}
	for i := range p.Loans {
		if p.Loans[i].ID == loanID {
			p.Loans = append(p.Loans[:i], p.Loans[i+1:]...)
			return nil
		}
	}
	return ErrLoanNotFound
}

// AddTransaction appends a disbursement to the loan. An empty mode
// falls back to the first default payment mode.
func (d *Document) AddTransaction(personID, loanID string, draft TransactionDraft) (Transaction, error) {
	_, l := d.loan(personID, loanID)
	if l == nil {
		if d.person(personID) == nil {
			return Transaction{}, ErrPersonNotFound
		}
		return Transaction{}, ErrLoanNotFound
	}
	mode := draft.Mode
	if mode == "" {
		mode = DefaultPaymentModes[0]
	}
	txn := Transaction{
		ID:     uuid.NewString(),
		Date:   draft.Date,
		Amount: draft.Amount,
		Mode:   mode,
		Note:   draft.Note,
	}
	l.Transactions = append(l.Transactions, txn)
	return txn, nil
}

// DeleteTransaction removes one disbursement from the loan.
func (d *Document) DeleteTransaction(personID, loanID, txnID string) error {
	_, l := d.loan(personID, loanID)
	if l == nil {
		if d.person(personID) == nil {
			return ErrPersonNotFound
		}
		return ErrLoanNotFound
	}
	for i := range l.Transactions {
		if l.Transactions[i].ID == txnID {
			l.Transactions = append(l.Transactions[:i], l.Transactions[i+1:]...)
			return nil
		}
	}
	return ErrTransactionNotFound
}

// MarkLoanReceived records a repayment receipt: the amount
// accumulates into AmountReceived while the receipt date and payment
// mode overwrite whatever the previous receipt left behind.
func (d *Document) MarkLoanReceived(personID, loanID string, amount Money, date Date, mode string) error {
	_, l := d.loan(personID, loanID)
	if l == nil {
		if d.person(personID) == nil {
			return ErrPersonNotFound
		}
		return ErrLoanNotFound
	}
	l.AmountReceived = l.AmountReceived.Add(amount)
	l.DateReceived = date
	l.ReceivedPaymentMode = mode
	return nil
}

// AddPaymentMode appends a label to the registry. Adding an existing
// label is a no-op; the registry never holds duplicates.
func (d *Document) AddPaymentMode(label string) bool {
	for _, m := range d.PaymentModes {
		if m == label {
			return false
		}
	}
	d.PaymentModes = append(d.PaymentModes, label)
	return true
}

// DeletePaymentMode removes a label from the registry.
func (d *Document) DeletePaymentMode(label string) bool {
	for i, m := range d.PaymentModes {
		if m == label {
			d.PaymentModes = append(d.PaymentModes[:i], d.PaymentModes[i+1:]...)
			return true
		}
	}
	return false
}
