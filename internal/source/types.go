package source

import (
	"encoding/json"
	"time"

	"github.com/theirongolddev/dolla/internal/model"
)

// Format identifies how an import file is laid out.
type Format string

const (
	FormatJSONL Format = "jsonl" // one expense object per line
	FormatJSON  Format = "json"  // a dolla ledger backup
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// Formats lists the supported formats in preference order.
var Formats = []Format{FormatJSONL, FormatJSON, FormatCSV, FormatXLSX}

// DiscoveredFile is an import candidate found by ScanPaths.
type DiscoveredFile struct {
	Path    string // absolute
	Format  Format
	Size    int64
	ModTime time.Time
}

// RawExpense is a single line of a JSONL export. Amount accepts either a
// JSON number or a numeric string.
type RawExpense struct {
	ID            string      `json:"id,omitempty"`
	Amount        json.Number `json:"amount"`
	Merchant      string      `json:"merchant"`
	Note          string      `json:"note,omitempty"`
	Category      string      `json:"category,omitempty"`
	CategoryIcon  string      `json:"categoryIcon,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Date          string      `json:"date"`
	Type          string      `json:"type,omitempty"`
}

// ParseResult holds the output of parsing a single import file.
type ParseResult struct {
	Records     []model.ExpenseRecord
	ParseErrors int
	FirstErr    error // first line-level problem, with its position
	Err         error // the file could not be read at all
}
