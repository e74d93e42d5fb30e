package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// LoanStatus is the derived lifecycle classification of a loan.
type LoanStatus string

const (
	StatusPending  LoanStatus = "Pending"
	StatusOverdue  LoanStatus = "Overdue"
	StatusReceived LoanStatus = "Received"
)

// DefaultPaymentModes seeds the registry for new documents and for
// documents persisted before the registry existed.
var DefaultPaymentModes = []string{"UPI", "Net Banking", "Cash", "Cheque", "Other"}

var (
	ErrPersonNotFound      = errors.New("person not found")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrEmptyName           = errors.New("empty person name")
)

// Transaction is one disbursement from lender to borrower.
type Transaction struct {
	ID     string `json:"id"`
	Date   Date   `json:"date"`
	Amount Money  `json:"amount"`
	Mode   string `json:"mode"`
	Note   string `json:"note,omitempty"`
}

// Loan is a single lending cycle. The principal is the sum of its
// disbursement transactions; Interest is a flat manually entered
// amount, not a rate. AmountReceived accumulates across receipts
// while DateReceived and ReceivedPaymentMode keep only the most
// recent receipt's metadata.
type Loan struct {
	ID                  string        `json:"id"`
	Purpose             string        `json:"purpose"`
	Interest            Money         `json:"interest"`
	DueDate             Date          `json:"dueDate"`
	Duration            string        `json:"duration"`
	CreatedAt           time.Time     `json:"createdAt"`
	Transactions        []Transaction `json:"transactions"`
	AmountReceived      Money         `json:"amountReceived"`
	DateReceived        Date          `json:"dateReceived"`
	ReceivedPaymentMode string        `json:"receivedPaymentMode"`
}

// Person is a borrower owning an ordered loan collection. Insertion
// order is creation order.
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Loans     []Loan    `json:"loans"`
}

// Clone deep-copies the person down to the transaction slices, so a
// reader's copy shares no backing arrays with the live document.
func (p Person) Clone() Person {
	cp := p
	cp.Loans = make([]Loan, len(p.Loans))
	for i, l := range p.Loans {
		cl := l
		cl.Transactions = append([]Transaction(nil), l.Transactions...)
		cp.Loans[i] = cl
	}
	return cp
}

// Validate checks the fields the core depends on; everything else is
// the presentation layer's concern.
func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// SortedLoans returns the loans ordered by ascending creation time.
// Report sections and loan sequence numbers use this order.
func (p Person) SortedLoans() []Loan {
	loans := make([]Loan, len(p.Loans))
	copy(loans, p.Loans)
	sort.SliceStable(loans, func(i, j int) bool {
		return loans[i].CreatedAt.Before(loans[j].CreatedAt)
	})
	return loans
}

// SortedTransactions returns the loan's disbursements ordered by
// ascending date.
func (l Loan) SortedTransactions() []Transaction {
	txns := make([]Transaction, len(l.Transactions))
	copy(txns, l.Transactions)
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
	return txns
}
