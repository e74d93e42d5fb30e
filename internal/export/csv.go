// Package export flattens the document graph into the three-section
// CSV report: Master Summary, Transaction Details and Received
// Payments.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"lendtrack/internal/core"
)

// ContentType is the media type of the exported artifact.
const ContentType = "text/csv; charset=utf-8"

// utf8BOM lets spreadsheet consumers auto-detect the encoding.
const utf8BOM = "\uFEFF"

// Filename returns the dated artifact name, e.g.
// LendTrack_2026-08-29.csv.
func Filename(now time.Time) string {
	return "LendTrack_" + now.Format("2006-01-02") + ".csv"
}

// Write serializes the full report to w: BOM prefix, then the three
// sections separated by one blank row each.
func Write(w io.Writer, doc *core.Document, now time.Time) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	for _, row := range Rows(doc, now) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Rows builds every record of the report in order. Each section
// starts with a one-cell title row followed by its header row.
func Rows(doc *core.Document, now time.Time) [][]string {
	rows := SummarySection(doc, now)
	rows = append(rows, []string{})
	rows = append(rows, transactionSection(doc)...)
	rows = append(rows, []string{})
	rows = append(rows, receivedSection(doc)...)
	return rows
}

// SummarySection is the Master Summary: one row per loan, people in
// stored order, loans within a person by ascending creation time.
// The worker reuses it for the spreadsheet mirror.
func SummarySection(doc *core.Document, now time.Time) [][]string {
	rows := [][]string{
		{"MASTER SUMMARY"},
		{
			"Person Name", "Loan #", "Principal (Rs)", "Interest (Rs)", "Total Return (Rs)",
			"Amount Received (Rs)", "Remaining (Rs)", "Duration", "Due Date",
			"Date Received", "Payment Mode (Received)", "Status",
		},
	}
	for _, p := range doc.People {
		for idx, l := range p.SortedLoans() {
			t := l.Totals()
			remaining := t.Remaining
			if !remaining.IsPositive() {
				remaining = core.Money{}
			}
			rows = append(rows, []string{
				p.Name,
				strconv.Itoa(idx + 1),
				t.Principal.String(),
				t.Interest.String(),
				t.TotalReturn.String(),
				t.AmountReceived.String(),
				remaining.String(),
				l.Duration,
				l.DueDate.String(),
				l.DateReceived.String(),
				l.ReceivedPaymentMode,
				string(l.Status(now)),
			})
		}
	}
	return rows
}

// transactionSection lists every disbursement, transactions within a
// loan by ascending date.
func transactionSection(doc *core.Document) [][]string {
	rows := [][]string{
		{"TRANSACTION DETAILS"},
		{"Person Name", "Loan #", "Date Given", "Amount Given (Rs)", "Payment Mode"},
	}
	for _, p := range doc.People {
		for idx, l := range p.SortedLoans() {
			for _, txn := range l.SortedTransactions() {
				rows = append(rows, []string{
					p.Name,
					strconv.Itoa(idx + 1),
					txn.Date.String(),
					txn.Amount.String(),
					txn.Mode,
				})
			}
		}
	}
	return rows
}

// receivedSection lists loans with a strictly positive cumulative
// receipt.
func receivedSection(doc *core.Document) [][]string {
	rows := [][]string{
		{"RECEIVED PAYMENTS"},
		{"Person Name", "Loan #", "Date Received", "Amount Received (Rs)", "Payment Mode"},
	}
	for _, p := range doc.People {
		for idx, l := range p.SortedLoans() {
			if !l.AmountReceived.IsPositive() {
				continue
			}
			rows = append(rows, []string{
				p.Name,
				strconv.Itoa(idx + 1),
				l.DateReceived.String(),
				l.AmountReceived.String(),
				l.ReceivedPaymentMode,
			})
		}
	}
	return rows
}
