package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregatedSlice is one category's share of total spending.
type AggregatedSlice struct {
	Category   string
	Icon       string
	Amount     decimal.Decimal
	Count      int
	Percentage float64 // fraction of the total, 0..1
	Color      string
}

// BalanceSummary holds the top-level totals shown on the dashboard.
type BalanceSummary struct {
	TotalSpent     decimal.Decimal
	MonthSpent     decimal.Decimal
	Records        int
	Categories     int
	AveragePerItem decimal.Decimal
	Largest        *ExpenseRecord
	FirstDate      time.Time
	LastDate       time.Time
}

// DailySpend holds spending for a single calendar day.
type DailySpend struct {
	Date    time.Time
	Amount  decimal.Decimal
	Records int
}
