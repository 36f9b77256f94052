// Package entry implements manual expense capture: form state, field
// validation, date stepping, submission to the ledger, and the timed
// confirmation that follows.
package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/model"
)

var (
	// ErrSubmitPending is returned when Submit is called again before the
	// previous confirmation finished.
	ErrSubmitPending = errors.New("entry: previous submission still pending")
	// ErrScanUnavailable is returned by ScanReceipt.
	ErrScanUnavailable = errors.New("entry: receipt scanning is not available")
	// ErrUnknownPaymentMethod is returned for a payment method outside the configured set.
	ErrUnknownPaymentMethod = errors.New("entry: unknown payment method")
)

// Appender stores a record. *ledger.Ledger satisfies it.
type Appender interface {
	Append(ctx context.Context, rec model.ExpenseRecord) ([]model.ExpenseRecord, error)
}

// Options configures a Form.
type Options struct {
	PaymentMethods       []model.PaymentMethod
	DefaultPaymentMethod model.PaymentMethod
	ConfirmationDelay    time.Duration
	Now                  func() time.Time
	NewID                func() string
	Logger               *slog.Logger
}

// OptionsFromConfig builds form options from the [entry] section and the
// payment method list. Unknown payment method names are skipped.
func OptionsFromConfig(cfg config.Config, log *slog.Logger) Options {
	var methods []model.PaymentMethod
	for _, name := range cfg.PaymentMethods {
		if pm, ok := model.ParsePaymentMethod(name); ok {
			methods = append(methods, pm)
		}
	}
	def, _ := model.ParsePaymentMethod(cfg.Entry.DefaultPaymentMethod)
	return Options{
		PaymentMethods:       methods,
		DefaultPaymentMethod: def,
		ConfirmationDelay:    cfg.ConfirmationDelay(),
		Logger:               log,
	}
}

// Form is the state of one manual entry.
type Form struct {
	Amount        string
	Merchant      string
	Note          string
	CategoryID    string
	PaymentMethod model.PaymentMethod
	Date          time.Time

	registry *category.Registry
	ledger   Appender
	methods  []model.PaymentMethod
	defPM    model.PaymentMethod
	now      func() time.Time
	newID    func() string
	log      *slog.Logger
	confirm  *Confirmation
}

// NewForm creates a form with category defaulted to the registry's first
// real entry, the configured default payment method, and today's date.
func NewForm(reg *category.Registry, l Appender, opts Options) *Form {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newRecordID
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.PaymentMethods) == 0 {
		opts.PaymentMethods = model.PaymentMethods
	}
	if opts.DefaultPaymentMethod == "" {
		opts.DefaultPaymentMethod = model.PaymentCash
	}
	if opts.ConfirmationDelay <= 0 {
		opts.ConfirmationDelay = 1500 * time.Millisecond
	}

	f := &Form{
		registry: reg,
		ledger:   l,
		methods:  opts.PaymentMethods,
		defPM:    opts.DefaultPaymentMethod,
		now:      opts.Now,
		newID:    opts.NewID,
		log:      opts.Logger.With("component", "entry"),
		confirm:  NewConfirmation(opts.ConfirmationDelay),
	}
	f.clear()
	if c, ok := reg.First(); ok {
		f.CategoryID = c.ID
	}
	return f
}

func newRecordID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func (f *Form) clear() {
	f.Amount = ""
	f.Merchant = ""
	f.Note = ""
	f.PaymentMethod = f.defPM
	f.Date = model.DateOnly(f.now())
}

// Confirmation exposes the post-submit sequence.
func (f *Form) Confirmation() *Confirmation {
	return f.confirm
}

// Registry returns the category registry backing the form.
func (f *Form) Registry() *category.Registry {
	return f.registry
}

// PaymentMethods returns the selectable payment methods.
func (f *Form) PaymentMethods() []model.PaymentMethod {
	return f.methods
}

// ParseAmount parses user input such as "25", "25.00", "$4.50", "1,234.50"
// or "4,50". A single comma followed by one or two trailing digits is a
// decimal comma; any other comma is a thousands separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	if i := strings.LastIndexByte(s, ','); i >= 0 && !strings.Contains(s, ".") &&
		strings.Count(s, ",") == 1 && len(s)-i-1 >= 1 && len(s)-i-1 <= 2 {
		s = s[:i] + "." + s[i+1:]
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

// Validate checks amount, merchant, and category independently and
// reports every failure at once.
func (f *Form) Validate() error {
	ve := &model.ValidationError{}

	amount := strings.TrimSpace(f.Amount)
	switch d, err := ParseAmount(amount); {
	case amount == "":
		ve.Add(model.FieldAmount, model.CodeAmountMissing, "amount is required")
	case err != nil:
		ve.Add(model.FieldAmount, model.CodeAmountInvalid, fmt.Sprintf("amount %q is not a number", amount))
	case !d.IsPositive():
		ve.Add(model.FieldAmount, model.CodeAmountNotPositive, "amount must be greater than zero")
	}

	if strings.TrimSpace(f.Merchant) == "" {
		ve.Add(model.FieldMerchant, model.CodeMerchantEmpty, "merchant is required")
	}

	if f.CategoryID == "" {
		ve.Add(model.FieldCategory, model.CodeCategoryMissing, "select a category")
	}

	if ve.Empty() {
		return nil
	}
	return ve
}

// ChangeDate moves the date by deltaDays. A result after today is
// rejected and leaves the date unchanged.
func (f *Form) ChangeDate(deltaDays int) bool {
	proposed := model.DateOnly(f.Date).AddDate(0, 0, deltaDays)
	if proposed.After(model.DateOnly(f.now())) {
		return false
	}
	f.Date = proposed
	return true
}

// SelectCategory forwards to the registry and records the choice. When the
// create-new entry is chosen the form keeps its category and the caller
// should run the creation sub-flow.
func (f *Form) SelectCategory(id string) (category.SelectResult, error) {
	res, err := f.registry.Select(id)
	if err != nil {
		return res, err
	}
	if res == category.Selected {
		f.CategoryID = id
	}
	return res, nil
}

// CreateCategory adds a category and selects it on the form.
func (f *Form) CreateCategory(name, icon string) (model.Category, error) {
	c, err := f.registry.Create(name, icon)
	if err != nil {
		return c, err
	}
	f.CategoryID = c.ID
	return c, nil
}

// SetPaymentMethod selects a payment method from the configured set.
func (f *Form) SetPaymentMethod(pm model.PaymentMethod) error {
	for _, m := range f.methods {
		if m == pm {
			f.PaymentMethod = pm
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, pm)
}

// Submit validates the form, snapshots the category, and appends a new
// manual record to the ledger. The append has completed before Submit
// returns; the confirmation sequence is then in the submitted phase.
//
// A persistence failure is returned together with the record, which the
// caller may still display.
func (f *Form) Submit(ctx context.Context) (model.ExpenseRecord, error) {
	rec, err := f.Prepare()
	if err != nil {
		return rec, err
	}
	return rec, f.Commit(ctx, rec)
}

// Prepare validates the form and builds the record to save, moving the
// confirmation sequence to submitted. From here Leave cancels the pending
// navigation even while Commit is still running. Prepare reads the form
// fields, so it must run on the same goroutine that edits them.
func (f *Form) Prepare() (model.ExpenseRecord, error) {
	switch f.confirm.Phase() {
	case PhaseSubmitted, PhaseConfirmationShown:
		return model.ExpenseRecord{}, ErrSubmitPending
	}
	if err := f.Validate(); err != nil {
		return model.ExpenseRecord{}, err
	}

	cat, ok := f.registry.Resolve(f.CategoryID)
	if !ok {
		f.log.Warn("submit with stale category", "category_id", f.CategoryID)
		return model.ExpenseRecord{}, model.NewValidationError(model.FieldCategory, model.CodeCategoryStale,
			"the selected category no longer exists")
	}

	amount, _ := ParseAmount(f.Amount)
	rec := model.ExpenseRecord{
		ID:            f.newID(),
		Amount:        amount,
		Merchant:      strings.TrimSpace(f.Merchant),
		Note:          strings.TrimSpace(f.Note),
		Category:      cat.Name,
		CategoryIcon:  cat.Icon,
		PaymentMethod: f.PaymentMethod,
		Date:          model.DateOnly(f.Date),
		Type:          model.RecordTypeManual,
	}
	if !f.confirm.Begin(rec) {
		return model.ExpenseRecord{}, ErrSubmitPending
	}
	return rec, nil
}

// Commit appends a record built by Prepare. It does not touch the form's
// fields and is safe to run off the goroutine that edits them.
func (f *Form) Commit(ctx context.Context, rec model.ExpenseRecord) error {
	if _, err := f.ledger.Append(ctx, rec); err != nil {
		f.log.Error("expense not persisted", "id", rec.ID, "error", err)
		var pe *model.PersistenceError
		if errors.As(err, &pe) && pe.Op == model.OpRead {
			// Nothing was written and nothing will be shown, so the
			// sequence is abandoned and the inputs stay for a retry.
			f.confirm.CancelRecord(rec.ID)
		}
		return err
	}
	return nil
}

// Reset clears the text fields and date for the next entry. The category
// and payment method stay as they are.
func (f *Form) Reset() {
	pm := f.PaymentMethod
	f.clear()
	f.PaymentMethod = pm
	f.confirm.Reset()
}

// Leave is called when the user navigates away from the form. Any pending
// confirmation is cancelled.
func (f *Form) Leave() {
	if f.confirm.Cancel() {
		f.log.Debug("pending navigation cancelled")
	}
}

// ScanReceipt is the entry point for receipt capture, which is not
// implemented.
func (f *Form) ScanReceipt(context.Context) (model.ExpenseRecord, error) {
	return model.ExpenseRecord{}, ErrScanUnavailable
}
