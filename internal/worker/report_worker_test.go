package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lendtrack/internal/amqp"
	"lendtrack/internal/core"
	"lendtrack/internal/export"
)

type fakeLoader struct {
	doc *core.Document
	err error
}

func (f *fakeLoader) Load(ctx context.Context) (*core.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeSummaryWriter struct {
	rows [][]string
	err  error
}

func (f *fakeSummaryWriter) WriteSummary(ctx context.Context, rows [][]string) error {
	f.rows = rows
	return f.err
}

func testDoc(now time.Time) *core.Document {
	doc := core.NewDocument()
	p := doc.AddPerson("Asha", core.LoanDraft{Interest: core.NewMoney(1000)}, now)
	doc.AddTransaction(p.ID, p.Loans[0].ID, core.TransactionDraft{
		Date:   core.Date{Time: now},
		Amount: core.NewMoney(5000),
	})
	return doc
}

func TestGenerateWritesCSV(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	w := NewReportWorker(&fakeLoader{doc: testDoc(now)}, nil, dir)
	w.now = func() time.Time { return now }

	if err := w.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, export.Filename(now)))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	body := string(data)
	if !strings.HasPrefix(body, "\uFEFF") {
		t.Fatalf("missing BOM")
	}
	if !strings.Contains(body, "Asha") {
		t.Fatalf("report body missing person: %q", body)
	}
}

func TestGenerateMirrorsSummary(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	mirror := &fakeSummaryWriter{}

	w := NewReportWorker(&fakeLoader{doc: testDoc(now)}, mirror, t.TempDir())
	w.now = func() time.Time { return now }

	if err := w.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(mirror.rows) == 0 {
		t.Fatalf("summary not mirrored")
	}
	if mirror.rows[0][0] != "MASTER SUMMARY" {
		t.Fatalf("first row: %v", mirror.rows[0])
	}
}

func TestSheetsFaultDoesNotFailGenerate(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	mirror := &fakeSummaryWriter{err: errors.New("quota")}

	w := NewReportWorker(&fakeLoader{doc: testDoc(now)}, mirror, t.TempDir())
	w.now = func() time.Time { return now }

	if err := w.Generate(context.Background()); err != nil {
		t.Fatalf("sheets fault must not fail generation: %v", err)
	}
}

func TestLoadFaultFailsGenerate(t *testing.T) {
	w := NewReportWorker(&fakeLoader{err: errors.New("locked")}, nil, t.TempDir())
	if err := w.Generate(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestHandleChangeMessage(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	w := NewReportWorker(&fakeLoader{doc: testDoc(now)}, nil, dir)
	w.now = func() time.Time { return now }

	msg := amqp.NewDocumentChangedMessage("add-person")
	if err := w.HandleChangeMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, export.Filename(now))); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}
