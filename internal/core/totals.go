package core

import (
	"sort"
	"time"
)

// LoanTotals are the derived financials of a single loan.
type LoanTotals struct {
	Principal      Money `json:"totalPrincipal"`
	Interest       Money `json:"interest"`
	TotalReturn    Money `json:"totalReturn"`
	AmountReceived Money `json:"amountReceived"`
	Remaining      Money `json:"remaining"`
}

// Totals folds the loan's transactions into its aggregate figures.
func (l Loan) Totals() LoanTotals {
	var principal Money
	for _, t := range l.Transactions {
		principal = principal.Add(t.Amount)
	}
	totalReturn := principal.Add(l.Interest)
	return LoanTotals{
		Principal:      principal,
		Interest:       l.Interest,
		TotalReturn:    totalReturn,
		AmountReceived: l.AmountReceived,
		Remaining:      totalReturn.Sub(l.AmountReceived),
	}
}

// Status classifies the loan at the given instant. A settled balance
// wins over the due date, so a zero-value loan is immediately
// Received; otherwise a due date strictly in the past means Overdue.
func (l Loan) Status(now time.Time) LoanStatus {
	if !l.Totals().Remaining.IsPositive() {
		return StatusReceived
	}
	if days, ok := l.DueDate.DaysUntil(now); ok && days < 0 {
		return StatusOverdue
	}
	return StatusPending
}

// PersonAggregate folds a person's loans into person-level totals.
// Profit counts interest only on Received loans; unrealized interest
// on pending or overdue loans is excluded.
type PersonAggregate struct {
	TotalPrincipal Money `json:"totalPrincipal"`
	TotalReturn    Money `json:"totalReturn"`
	TotalReceived  Money `json:"totalReceived"`
	TotalProfit    Money `json:"totalProfit"`
	ActiveLoans    int   `json:"activeLoans"`
}

func (p Person) Aggregate(now time.Time) PersonAggregate {
	var agg PersonAggregate
	for _, l := range p.Loans {
		t := l.Totals()
		agg.TotalPrincipal = agg.TotalPrincipal.Add(t.Principal)
		agg.TotalReturn = agg.TotalReturn.Add(t.TotalReturn)
		agg.TotalReceived = agg.TotalReceived.Add(t.AmountReceived)
		if l.Status(now) == StatusReceived {
			agg.TotalProfit = agg.TotalProfit.Add(t.Interest)
		} else {
			agg.ActiveLoans++
		}
	}
	return agg
}

// Status derives the overall person status from the loan statuses:
// any overdue loan marks the person Overdue, any other active loan
// Pending, and a person with no active loans is Received.
func (p Person) Status(now time.Time) LoanStatus {
	status := StatusReceived
	for _, l := range p.Loans {
		switch l.Status(now) {
		case StatusOverdue:
			return StatusOverdue
		case StatusPending:
			status = StatusPending
		}
	}
	return status
}

// OverdueAlert is one overdue loan surfaced on the dashboard.
type OverdueAlert struct {
	PersonID    string `json:"personId"`
	PersonName  string `json:"personName"`
	LoanID      string `json:"loanId"`
	Remaining   Money  `json:"remaining"`
	DueDate     Date   `json:"dueDate"`
	DaysOverdue int    `json:"daysOverdue"`
}

// RecentDisbursement is a transaction annotated with its owner for
// the dashboard's recent-activity list.
type RecentDisbursement struct {
	Transaction
	PersonID   string `json:"personId"`
	PersonName string `json:"personName"`
}

// PortfolioOverview is the whole-document dashboard summary.
type PortfolioOverview struct {
	TotalInvested Money `json:"totalInvested"`
	TotalPending  Money `json:"totalPending"`
	TotalReceived Money `json:"totalReceived"`
	TotalProfit   Money `json:"totalProfit"`

	PeopleCount   int `json:"peopleCount"`
	LoanCount     int `json:"loanCount"`
	ReceivedCount int `json:"receivedCount"`
	PendingCount  int `json:"pendingCount"`
	OverdueCount  int `json:"overdueCount"`

	OverdueAlerts       []OverdueAlert       `json:"overdueAlerts"`
	RecentDisbursements []RecentDisbursement `json:"recentDisbursements"`
}

const recentDisbursementLimit = 8

// Overview folds every loan in the document into the dashboard
// summary: invested/pending/received/profit totals, status counts,
// overdue alerts and the newest disbursements.
func (d *Document) Overview(now time.Time) PortfolioOverview {
	var ov PortfolioOverview
	ov.PeopleCount = len(d.People)

	var recent []RecentDisbursement
	for _, p := range d.People {
		for _, l := range p.Loans {
			ov.LoanCount++
			t := l.Totals()
			ov.TotalInvested = ov.TotalInvested.Add(t.Principal)
			ov.TotalReceived = ov.TotalReceived.Add(t.AmountReceived)

			switch l.Status(now) {
			case StatusReceived:
				ov.ReceivedCount++
				ov.TotalProfit = ov.TotalProfit.Add(t.Interest)
			case StatusOverdue:
				ov.OverdueCount++
				ov.TotalPending = ov.TotalPending.Add(t.Remaining)
				days, _ := l.DueDate.DaysUntil(now)
				if days < 0 {
					days = -days
				}
				ov.OverdueAlerts = append(ov.OverdueAlerts, OverdueAlert{
					PersonID:    p.ID,
					PersonName:  p.Name,
					LoanID:      l.ID,
					Remaining:   t.Remaining,
					DueDate:     l.DueDate,
					DaysOverdue: days,
				})
			default:
				ov.PendingCount++
				ov.TotalPending = ov.TotalPending.Add(t.Remaining)
			}

			for _, txn := range l.Transactions {
				recent = append(recent, RecentDisbursement{
					Transaction: txn,
					PersonID:    p.ID,
					PersonName:  p.Name,
				})
			}
		}
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[j].Date.Before(recent[i].Date)
	})
	if len(recent) > recentDisbursementLimit {
		recent = recent[:recentDisbursementLimit]
	}
	ov.RecentDisbursements = recent
	return ov
}
