package sheets

import "context"

// Ports for outbound adapters.
type (
	// RowWriter replaces the full contents of the mirror sheet. The
	// mirror is derived state, so a full rewrite is always safe.
	RowWriter interface {
		ReplaceRows(ctx context.Context, header []string, rows [][]string) error
	}

	// RowReader reads the raw cell grid of the mirror sheet: the header
	// row and every data row below it.
	RowReader interface {
		ReadRows(ctx context.Context) (header []string, rows [][]string, err error)
	}
)
