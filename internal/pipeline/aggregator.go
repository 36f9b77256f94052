// Package pipeline aggregates expense records into the figures shown on
// the dashboard: per-category shares, balance totals, and daily spend.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/model"
)

// ColorFunc returns the display color for the slice at index i.
type ColorFunc func(i int, category string) string

// Aggregate groups records by category and computes each category's share
// of the grand total. Output follows order; categories missing from order
// come after, in order of first appearance. When the total is not
// positive the result is empty.
func Aggregate(records []model.ExpenseRecord, order []string, color ColorFunc) []model.AggregatedSlice {
	byCat := make(map[string]*model.AggregatedSlice)
	var seen []string
	total := decimal.Zero

	for _, r := range records {
		s, ok := byCat[r.Category]
		if !ok {
			s = &model.AggregatedSlice{Category: r.Category, Icon: r.CategoryIcon}
			byCat[r.Category] = s
			seen = append(seen, r.Category)
		}
		s.Amount = s.Amount.Add(r.Amount)
		s.Count++
		total = total.Add(r.Amount)
	}

	if !total.IsPositive() {
		return []model.AggregatedSlice{}
	}

	ordered := make([]string, 0, len(byCat))
	placed := make(map[string]struct{}, len(byCat))
	for _, name := range order {
		if _, ok := byCat[name]; !ok {
			continue
		}
		if _, dup := placed[name]; dup {
			continue
		}
		placed[name] = struct{}{}
		ordered = append(ordered, name)
	}
	for _, name := range seen {
		if _, ok := placed[name]; !ok {
			ordered = append(ordered, name)
		}
	}

	out := make([]model.AggregatedSlice, 0, len(ordered))
	for i, name := range ordered {
		s := *byCat[name]
		s.Percentage = s.Amount.Div(total).InexactFloat64()
		if color != nil {
			s.Color = color(i, name)
		}
		out = append(out, s)
	}
	return out
}

// Total sums the amounts of records.
func Total(records []model.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Summarize computes the balance summary for records. now selects the
// calendar month counted in MonthSpent.
func Summarize(records []model.ExpenseRecord, now time.Time) model.BalanceSummary {
	var sum model.BalanceSummary
	cats := make(map[string]struct{})
	year, month, _ := now.Date()

	for i := range records {
		r := records[i]
		sum.Records++
		sum.TotalSpent = sum.TotalSpent.Add(r.Amount)
		cats[r.Category] = struct{}{}

		if y, m, _ := r.Date.Date(); y == year && m == month {
			sum.MonthSpent = sum.MonthSpent.Add(r.Amount)
		}
		if sum.Largest == nil || r.Amount.GreaterThan(sum.Largest.Amount) {
			sum.Largest = &records[i]
		}
		if sum.FirstDate.IsZero() || r.Date.Before(sum.FirstDate) {
			sum.FirstDate = r.Date
		}
		if r.Date.After(sum.LastDate) {
			sum.LastDate = r.Date
		}
	}

	sum.Categories = len(cats)
	if sum.Records > 0 {
		sum.AveragePerItem = sum.TotalSpent.Div(decimal.NewFromInt(int64(sum.Records))).Round(2)
	}
	return sum
}

// AggregateDays computes per-day spend between since and until, inclusive,
// with empty days filled in as zero. Most recent first.
func AggregateDays(records []model.ExpenseRecord, since, until time.Time) []model.DailySpend {
	filtered := FilterByTime(records, since, until)

	dayMap := make(map[string]*model.DailySpend)
	for _, r := range filtered {
		dayKey := r.Date.Format("2006-01-02")
		ds, ok := dayMap[dayKey]
		if !ok {
			ds = &model.DailySpend{Date: model.DateOnly(r.Date)}
			dayMap[dayKey] = ds
		}
		ds.Amount = ds.Amount.Add(r.Amount)
		ds.Records++
	}

	// Fill in every day in the range so the chart shows gaps as zeros
	day := model.DateOnly(since.Local())
	end := model.DateOnly(until.Local())
	for !day.After(end) {
		dayKey := day.Format("2006-01-02")
		if _, ok := dayMap[dayKey]; !ok {
			dayMap[dayKey] = &model.DailySpend{Date: day}
		}
		day = day.AddDate(0, 0, 1)
	}

	days := make([]model.DailySpend, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

// FilterByTime returns records dated within [since, until], compared by
// calendar day.
func FilterByTime(records []model.ExpenseRecord, since, until time.Time) []model.ExpenseRecord {
	lo := model.DateOnly(since.Local())
	hi := model.DateOnly(until.Local())

	var out []model.ExpenseRecord
	for _, r := range records {
		d := model.DateOnly(r.Date.Local())
		if d.Before(lo) || d.After(hi) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByCategory returns records whose category matches name, ignoring case.
func FilterByCategory(records []model.ExpenseRecord, name string) []model.ExpenseRecord {
	var out []model.ExpenseRecord
	for _, r := range records {
		if strings.EqualFold(r.Category, name) {
			out = append(out, r)
		}
	}
	return out
}

// Search returns records whose merchant or note contains query, ignoring case.
func Search(records []model.ExpenseRecord, query string) []model.ExpenseRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	var out []model.ExpenseRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Merchant), query) ||
			strings.Contains(strings.ToLower(r.Note), query) ||
			strings.Contains(strings.ToLower(r.Category), query) {
			out = append(out, r)
		}
	}
	return out
}

// Recent returns up to n records ordered by date, newest first. Records on
// the same day keep their ledger order.
func Recent(records []model.ExpenseRecord, n int) []model.ExpenseRecord {
	out := make([]model.ExpenseRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
