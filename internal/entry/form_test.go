package entry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/chart"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/store"
)

var fixedNow = time.Date(2026, 6, 15, 14, 30, 0, 0, time.Local)

type fixture struct {
	mem    *store.Memory
	ledger *ledger.Ledger
	reg    *category.Registry
	form   *Form
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()
	l := ledger.New(mem, ledger.WithLogger(quiet))
	reg := category.New(config.DefaultCategories(), category.WithLogger(quiet))
	n := 0
	form := NewForm(reg, l, Options{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return "rec-" + string(rune('0'+n))
		},
		ConfirmationDelay: 10 * time.Millisecond,
		Logger:            quiet,
	})
	return fixture{mem: mem, ledger: l, reg: reg, form: form}
}

func TestNewFormDefaults(t *testing.T) {
	fx := newFixture(t)
	assert.Equal(t, "1", fx.form.CategoryID, "first real category")
	assert.Equal(t, model.PaymentCash, fx.form.PaymentMethod)
	assert.True(t, fx.form.Date.Equal(time.Date(2026, 6, 15, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, PhaseEditing, fx.form.Confirmation().Phase())
}

func TestValidateReportsEveryField(t *testing.T) {
	fx := newFixture(t)
	fx.form.CategoryID = ""
	fx.form.Merchant = "   "

	err := fx.form.Validate()
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has(model.CodeAmountMissing))
	assert.True(t, ve.Has(model.CodeMerchantEmpty))
	assert.True(t, ve.Has(model.CodeCategoryMissing))
	assert.Len(t, ve.Fields, 3)
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount string
		code   string
	}{
		{"", model.CodeAmountMissing},
		{"abc", model.CodeAmountInvalid},
		{"0", model.CodeAmountNotPositive},
		{"-3", model.CodeAmountNotPositive},
		{"25.00", ""},
		{"$4.50", ""},
		{"4,50", ""},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			fx := newFixture(t)
			fx.form.Amount = tt.amount
			fx.form.Merchant = "Shop"
			err := fx.form.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.True(t, ve.Has(tt.code), "got %v", ve.Fields)
		})
	}
}

func TestSubmitZeroAmountDoesNotTouchLedger(t *testing.T) {
	fx := newFixture(t)
	fx.form.Amount = "0"
	fx.form.Merchant = "Coffee Shop"

	_, err := fx.form.Submit(context.Background())
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, fx.mem.Writes())
	assert.Equal(t, "0", fx.form.Amount, "form state is preserved")
	assert.Equal(t, PhaseEditing, fx.form.Confirmation().Phase())
}

func TestCoffeeShopScenario(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.form.SelectCategory("1")
	require.NoError(t, err)
	fx.form.Amount = "25.00"
	fx.form.Merchant = "Coffee Shop"

	rec, err := fx.form.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RecordTypeManual, rec.Type)
	assert.Equal(t, "food", rec.Category)
	assert.Equal(t, "cart.fill", rec.CategoryIcon)

	recs := fx.ledger.Load(ctx)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, model.RecordTypeManual, recs[0].Type)

	slices := pipeline.Aggregate(recs, fx.reg.Names(), nil)
	require.Len(t, slices, 1)
	assert.Equal(t, "food", slices[0].Category)
	assert.InDelta(t, 1.0, slices[0].Percentage, 1e-12)

	d := chart.New(chart.DefaultConfig())
	d.Build(slices)
	require.Equal(t, 1, d.Len())
	assert.Equal(t, 0.0, d.Slices()[0].StartAngle)
	assert.Equal(t, chart.FullTurn, d.Slices()[0].EndAngle)
}

func TestSubmitStaleCategory(t *testing.T) {
	fx := newFixture(t)
	fx.form.Amount = "5"
	fx.form.Merchant = "Bus"
	fx.form.CategoryID = "2"
	require.True(t, fx.reg.Remove("2"))

	_, err := fx.form.Submit(context.Background())
	assert.ErrorIs(t, err, model.ErrStaleCategory)
	assert.Zero(t, fx.mem.Writes())
}

func TestSubmitWriteFailureStillConfirms(t *testing.T) {
	fx := newFixture(t)
	fx.mem.WriteErr = errors.New("disk full")
	fx.form.Amount = "5"
	fx.form.Merchant = "Bus"

	rec, err := fx.form.Submit(context.Background())
	var pe *model.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, PhaseSubmitted, fx.form.Confirmation().Phase())
}

func TestPrepareEntersSubmittedBeforeWrite(t *testing.T) {
	fx := newFixture(t)
	fx.form.Amount = "5"
	fx.form.Merchant = "Bus"

	rec, err := fx.form.Prepare()
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitted, fx.form.Confirmation().Phase())
	assert.Zero(t, fx.mem.Writes())

	fx.form.Leave()
	fx.form.Reset()
	require.NoError(t, fx.form.Commit(context.Background(), rec))
	_, _, ok := fx.form.Confirmation().Show()
	assert.False(t, ok, "a cancelled submission never shows")
	assert.Equal(t, 1, fx.mem.Writes())
}

func TestPrepareRejectsInvalidWithoutBeginning(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.form.Prepare()
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, PhaseEditing, fx.form.Confirmation().Phase())
}

func TestCommitReadFailureCancels(t *testing.T) {
	fx := newFixture(t)
	fx.mem.ReadErr = errors.New("disk busy")
	fx.form.Amount = "5"
	fx.form.Merchant = "Bus"

	rec, err := fx.form.Prepare()
	require.NoError(t, err)
	err = fx.form.Commit(context.Background(), rec)
	var pe *model.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, model.OpRead, pe.Op)
	assert.Equal(t, PhaseCancelled, fx.form.Confirmation().Phase())
	assert.Equal(t, "Bus", fx.form.Merchant, "inputs kept for a retry")

	fx.mem.ReadErr = nil
	_, err = fx.form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fx.mem.Writes())
}

func TestSubmitTwiceWhilePending(t *testing.T) {
	fx := newFixture(t)
	fx.form.Amount = "5"
	fx.form.Merchant = "Bus"

	_, err := fx.form.Submit(context.Background())
	require.NoError(t, err)
	_, err = fx.form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitPending)
	assert.Equal(t, 1, fx.mem.Writes())

	fx.form.Reset()
	assert.Empty(t, fx.form.Amount)
	assert.Equal(t, PhaseEditing, fx.form.Confirmation().Phase())
}

func TestChangeDate(t *testing.T) {
	fx := newFixture(t)
	today := fx.form.Date

	assert.False(t, fx.form.ChangeDate(1), "tomorrow is rejected")
	assert.True(t, fx.form.Date.Equal(today))

	assert.True(t, fx.form.ChangeDate(-400))
	assert.True(t, fx.form.ChangeDate(399))
	assert.False(t, fx.form.ChangeDate(2), "crossing today is rejected")
	assert.True(t, fx.form.ChangeDate(1))
	assert.True(t, fx.form.Date.Equal(today))
	assert.Zero(t, fx.form.Date.Hour())
}

func TestCategorySubflow(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.form.SelectCategory(model.CreateNewCategoryID)
	require.NoError(t, err)
	assert.Equal(t, category.CreateRequested, res)
	assert.Equal(t, "1", fx.form.CategoryID)

	_, err = fx.form.CreateCategory("  ", "")
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, "1", fx.form.CategoryID)

	c, err := fx.form.CreateCategory("Coffee", "cup.fill")
	require.NoError(t, err)
	assert.Equal(t, c.ID, fx.form.CategoryID)

	fx.form.Amount = "3.75"
	fx.form.Merchant = "Cafe"
	rec, err := fx.form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "coffee", rec.Category)
	assert.Equal(t, "cup.fill", rec.CategoryIcon)
}

func TestSetPaymentMethod(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.form.SetPaymentMethod(model.PaymentZelle))
	assert.Equal(t, model.PaymentZelle, fx.form.PaymentMethod)
	assert.ErrorIs(t, fx.form.SetPaymentMethod("gold"), ErrUnknownPaymentMethod)
}

func TestScanReceiptUnavailable(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.form.ScanReceipt(context.Background())
	assert.ErrorIs(t, err, ErrScanUnavailable)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PaymentMethods = []string{"Venmo", "gold", "cash"}
	cfg.Entry.DefaultPaymentMethod = "venmo"
	cfg.Entry.ConfirmationDelayMs = 200

	opts := OptionsFromConfig(cfg, nil)
	assert.Equal(t, []model.PaymentMethod{model.PaymentVenmo, model.PaymentCash}, opts.PaymentMethods)
	assert.Equal(t, model.PaymentVenmo, opts.DefaultPaymentMethod)
	assert.Equal(t, 200*time.Millisecond, opts.ConfirmationDelay)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"25", "25"},
		{"$12", "12"},
		{" $ 4.50 ", "4.5"},
		{"4,50", "4.5"},
		{"4,5", "4.5"},
		{"1,234", "1234"},
		{"1,234.50", "1234.5"},
		{"$12,345,678.90", "12345678.9"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}

	for _, bad := range []string{"", "$", "abc", "1.2.3"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, "%q", bad)
	}
}
