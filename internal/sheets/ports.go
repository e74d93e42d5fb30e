// Package sheets defines the port the report worker writes summary
// rows through.
package sheets

import "context"

// SummaryWriter replaces a sheet's contents with the given rows. The
// first rows are the section title and header.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, rows [][]string) error
}
