package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theirongolddev/dolla/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func expense(id, amount, category string, date time.Time) model.ExpenseRecord {
	return model.ExpenseRecord{
		ID:       id,
		Amount:   decimal.RequireFromString(amount),
		Merchant: "m-" + id,
		Category: category,
		Date:     date,
		Type:     model.RecordTypeManual,
	}
}

func TestAggregateSharesAndOrder(t *testing.T) {
	d := day(2026, 5, 1)
	recs := []model.ExpenseRecord{
		expense("1", "450.75", "food", d),
		expense("2", "325.50", "shopping", d),
		expense("3", "175.30", "transport", d),
		expense("4", "230.25", "bills", d),
		expense("5", "10", "gifts", d),
	}
	colors := func(i int, _ string) string { return []string{"a", "b", "c", "d", "e"}[i] }

	got := Aggregate(recs, []string{"food", "transport", "shopping", "bills"}, colors)
	require.Len(t, got, 5)

	var sum float64
	var order []string
	for _, s := range got {
		sum += s.Percentage
		order = append(order, s.Category)
	}
	assert.Equal(t, []string{"food", "transport", "shopping", "bills", "gifts"}, order)
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, "a", got[0].Color)
	assert.Equal(t, "e", got[4].Color)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("450.75")))
}

func TestAggregateSumsPerCategory(t *testing.T) {
	d := day(2026, 5, 1)
	recs := []model.ExpenseRecord{
		expense("1", "0.10", "food", d),
		expense("2", "0.20", "food", d),
		expense("3", "0.30", "bills", d),
	}
	got := Aggregate(recs, nil, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "food", got[0].Category, "first appearance order when no display order")
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("0.30")), "decimal sums are exact")
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 0.5, got[0].Percentage, 1e-12)
}

func TestAggregateZeroTotal(t *testing.T) {
	assert.Empty(t, Aggregate(nil, []string{"food"}, nil))

	zero := []model.ExpenseRecord{expense("1", "0", "food", day(2026, 1, 1))}
	got := Aggregate(zero, nil, nil)
	assert.Empty(t, got)
	for _, s := range got {
		assert.False(t, math.IsNaN(s.Percentage))
	}
}

func TestSummarize(t *testing.T) {
	now := day(2026, 5, 20)
	recs := []model.ExpenseRecord{
		expense("1", "10", "food", day(2026, 5, 2)),
		expense("2", "30", "bills", day(2026, 4, 28)),
		expense("3", "5", "food", day(2026, 5, 19)),
	}
	s := Summarize(recs, now)
	assert.Equal(t, 3, s.Records)
	assert.Equal(t, 2, s.Categories)
	assert.True(t, s.TotalSpent.Equal(decimal.NewFromInt(45)))
	assert.True(t, s.MonthSpent.Equal(decimal.NewFromInt(15)))
	assert.True(t, s.AveragePerItem.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, s.Largest)
	assert.Equal(t, "2", s.Largest.ID)
	assert.True(t, s.FirstDate.Equal(day(2026, 4, 28)))
	assert.True(t, s.LastDate.Equal(day(2026, 5, 19)))

	empty := Summarize(nil, now)
	assert.Zero(t, empty.Records)
	assert.Nil(t, empty.Largest)
	assert.True(t, empty.AveragePerItem.IsZero())
}

func TestAggregateDaysFillsGaps(t *testing.T) {
	recs := []model.ExpenseRecord{
		expense("1", "4", "food", day(2026, 5, 1)),
		expense("2", "6", "food", day(2026, 5, 1)),
		expense("3", "2", "bills", day(2026, 5, 3)),
		expense("4", "100", "bills", day(2026, 4, 1)),
	}
	days := AggregateDays(recs, day(2026, 5, 1), day(2026, 5, 4))
	require.Len(t, days, 4)

	assert.True(t, days[0].Date.Equal(day(2026, 5, 4)))
	assert.True(t, days[0].Amount.IsZero())
	assert.True(t, days[1].Amount.Equal(decimal.NewFromInt(2)))
	assert.True(t, days[3].Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 2, days[3].Records)
}

func TestFilters(t *testing.T) {
	recs := []model.ExpenseRecord{
		expense("1", "1", "Food", day(2026, 5, 1)),
		expense("2", "1", "bills", day(2026, 5, 5)),
	}
	recs[1].Note = "electricity"

	assert.Len(t, FilterByTime(recs, day(2026, 5, 1), day(2026, 5, 1)), 1)
	assert.Len(t, FilterByCategory(recs, "food"), 1)
	assert.Len(t, Search(recs, "ELECTRIC"), 1)
	assert.Len(t, Search(recs, " "), 2)
}

func TestRecent(t *testing.T) {
	recs := []model.ExpenseRecord{
		expense("old", "1", "food", day(2026, 1, 1)),
		expense("new", "1", "food", day(2026, 3, 1)),
		expense("mid", "1", "food", day(2026, 2, 1)),
	}
	got := Recent(recs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "old", recs[0].ID, "input is not reordered")
}
