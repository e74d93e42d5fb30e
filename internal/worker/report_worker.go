package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lendtrack/internal/amqp"
	"lendtrack/internal/core"
	"lendtrack/internal/export"
	"lendtrack/internal/sheets"
)

// DocumentLoader reads the current document from persistence.
type DocumentLoader interface {
	Load(ctx context.Context) (*core.Document, error)
}

// ReportWorker regenerates report artifacts whenever the document
// changes: a CSV snapshot on disk and, when a Sheets writer is
// configured, a mirror of the summary section.
type ReportWorker struct {
	store     DocumentLoader
	sheets    sheets.SummaryWriter
	reportDir string
	now       func() time.Time
}

func NewReportWorker(store DocumentLoader, sheetsWriter sheets.SummaryWriter, reportDir string) *ReportWorker {
	return &ReportWorker{
		store:     store,
		sheets:    sheetsWriter,
		reportDir: reportDir,
		now:       time.Now,
	}
}

// HandleChangeMessage processes a single document change event.
func (w *ReportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.DocumentChangedMessage) error {
	slog.InfoContext(ctx, "Processing document change", "op", msg.Op)
	return w.Generate(ctx)
}

// Generate loads the document and rewrites the report artifacts. The
// CSV path is stable per day so repeated changes overwrite the same
// file.
func (w *ReportWorker) Generate(ctx context.Context) error {
	doc, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	now := w.now()
	if err := w.writeCSV(ctx, doc, now); err != nil {
		return err
	}

	if w.sheets == nil {
		return nil
	}
	if err := w.sheets.WriteSummary(ctx, export.SummarySection(doc, now)); err != nil {
		// The CSV on disk is already current, so a Sheets outage is
		// not worth requeueing the message for.
		slog.ErrorContext(ctx, "Failed to mirror summary to sheets", "error", err)
	}
	return nil
}

func (w *ReportWorker) writeCSV(ctx context.Context, doc *core.Document, now time.Time) error {
	if err := os.MkdirAll(w.reportDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(w.reportDir, export.Filename(now))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	if err := export.Write(f, doc, now); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	slog.InfoContext(ctx, "Report generated",
		"path", path,
		"people", len(doc.People))
	return nil
}
