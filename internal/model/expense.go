// Package model defines the core data types shared across dolla.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecordType records how an expense entered the ledger.
type RecordType string

const (
	RecordTypeManual   RecordType = "manual"
	RecordTypeScanned  RecordType = "scanned"
	RecordTypeImported RecordType = "imported"
)

// PaymentMethod is the instrument an expense was paid with.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentVenmo  PaymentMethod = "venmo"
	PaymentZelle  PaymentMethod = "zelle"
	PaymentOther  PaymentMethod = "other"
)

// PaymentMethods lists the known payment methods in display order.
var PaymentMethods = []PaymentMethod{
	PaymentCash, PaymentCredit, PaymentDebit, PaymentVenmo, PaymentZelle, PaymentOther,
}

// ParsePaymentMethod matches s case-insensitively against the known methods.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, pm := range PaymentMethods {
		if string(pm) == s {
			return pm, true
		}
	}
	return "", false
}

// ExpenseRecord is a single spending event.
//
// Category and CategoryIcon are a snapshot taken when the record was
// created; later registry changes do not rewrite existing records.
type ExpenseRecord struct {
	ID            string
	Amount        decimal.Decimal
	Merchant      string
	Note          string
	Category      string
	CategoryIcon  string
	PaymentMethod PaymentMethod
	Date          time.Time
	Type          RecordType
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
