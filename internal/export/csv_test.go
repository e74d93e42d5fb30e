package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"lendtrack/internal/core"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func testDocument() *core.Document {
	doc := core.NewDocument()
	doc.People = []core.Person{
		{
			ID:        "p1",
			Name:      "Sharma, Asha", // comma forces quoting
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Loans: []core.Loan{
				{
					// Created later but listed first in storage: the
					// report must reorder by creation time.
					ID:        "l2",
					Interest:  core.NewMoney(500),
					CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
					Transactions: []core.Transaction{
						{ID: "t3", Date: core.NewDate(2026, 3, 2), Amount: core.NewMoney(2000), Mode: "Cash"},
					},
				},
				{
					ID:        "l1",
					Interest:  core.NewMoney(1000),
					DueDate:   core.NewDate(2026, 8, 28),
					Duration:  "2 weeks",
					CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
					Transactions: []core.Transaction{
						{ID: "t2", Date: core.NewDate(2026, 2, 10), Amount: core.NewMoney(3000), Mode: "UPI"},
						{ID: "t1", Date: core.NewDate(2026, 2, 5), Amount: core.NewMoney(5000), Mode: "UPI"},
					},
					AmountReceived:      core.NewMoney(9500),
					DateReceived:        core.NewDate(2026, 8, 20),
					ReceivedPaymentMode: "Net Banking",
				},
			},
		},
	}
	return doc
}

func parseReport(t *testing.T, doc *core.Document) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, doc, testNow); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatalf("missing BOM prefix")
	}
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\uFEFF")))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return records
}

func TestFilename(t *testing.T) {
	if got := Filename(testNow); got != "LendTrack_2026-08-29.csv" {
		t.Fatalf("got %q", got)
	}
}

func TestReportSections(t *testing.T) {
	records := parseReport(t, testDocument())

	if records[0][0] != "MASTER SUMMARY" {
		t.Fatalf("section 1 title: %v", records[0])
	}
	if len(records[1]) != 12 || records[1][0] != "Person Name" || records[1][11] != "Status" {
		t.Fatalf("summary header: %v", records[1])
	}

	// Loans reordered by creation time: l1 (Feb) before l2 (Mar).
	first := records[2]
	if first[0] != "Sharma, Asha" || first[1] != "1" {
		t.Fatalf("first summary row: %v", first)
	}
	if first[2] != "8000" || first[3] != "1000" || first[4] != "9000" || first[5] != "9500" {
		t.Fatalf("first summary figures: %v", first)
	}
	// Overpaid loan: remaining floored at 0, status Received.
	if first[6] != "0" || first[11] != "Received" {
		t.Fatalf("remaining/status: %v", first)
	}
	if first[7] != "2 weeks" || first[8] != "2026-08-28" || first[9] != "2026-08-20" || first[10] != "Net Banking" {
		t.Fatalf("summary detail columns: %v", first)
	}
	second := records[3]
	if second[1] != "2" || second[2] != "2000" || second[6] != "2500" || second[11] != "Pending" {
		t.Fatalf("second summary row: %v", second)
	}

	if records[4][0] != "TRANSACTION DETAILS" {
		t.Fatalf("section 2 title: %v", records[4])
	}
	// Transactions ascending by date within a loan: t1 before t2.
	if records[6][2] != "2026-02-05" || records[6][3] != "5000" {
		t.Fatalf("txn row 1: %v", records[6])
	}
	if records[7][2] != "2026-02-10" || records[8][2] != "2026-03-02" {
		t.Fatalf("txn ordering: %v / %v", records[7], records[8])
	}

	if records[9][0] != "RECEIVED PAYMENTS" {
		t.Fatalf("section 3 title: %v", records[9])
	}
	// Only the loan with a positive receipt appears.
	received := records[11:]
	if len(received) != 1 {
		t.Fatalf("received rows: %v", received)
	}
	if received[0][1] != "1" || received[0][3] != "9500" || received[0][4] != "Net Banking" {
		t.Fatalf("received row: %v", received[0])
	}
}

func TestQuotingRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testDocument(), testNow); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The comma in the person name must be quoted in the raw output.
	if !strings.Contains(buf.String(), `"Sharma, Asha"`) {
		t.Fatalf("name with comma not quoted")
	}
}

func TestSummaryRemainingMatchesAggregator(t *testing.T) {
	doc := testDocument()
	records := parseReport(t, doc)

	i := 2 // first summary data row
	for _, p := range doc.People {
		for _, l := range p.SortedLoans() {
			want := l.Totals().Remaining
			if !want.IsPositive() {
				want = core.Money{}
			}
			if records[i][6] != want.String() {
				t.Fatalf("row %d: remaining %q, aggregator says %q", i, records[i][6], want.String())
			}
			i++
		}
	}
}

func TestEmptyDocumentReport(t *testing.T) {
	records := parseReport(t, core.NewDocument())
	// Three titles, three headers, no data rows.
	if len(records) != 6 {
		t.Fatalf("records: %d", len(records))
	}
}
