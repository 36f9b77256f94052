// Package source discovers and parses expense files for import.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// importNamespace scopes the ids derived for records that arrive without one.
var importNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("dolla.import"))

// ParseFile reads an import file and returns its expenses, deduplicated
// by id with the last occurrence winning. Records without an id get one
// derived from their content, so importing the same file twice yields the
// same ids.
//
// A malformed line or row is counted in ParseErrors and skipped; only an
// unreadable file sets Err.
func ParseFile(df DiscoveredFile) ParseResult {
	switch df.Format {
	case FormatJSONL:
		return parseJSONL(df.Path)
	case FormatJSON:
		return parseBackup(df.Path)
	case FormatCSV:
		return parseCSV(df.Path)
	case FormatXLSX:
		return parseXLSX(df.Path)
	}
	return ParseResult{Err: fmt.Errorf("%s: unsupported format %q", df.Path, df.Format)}
}

func parseJSONL(path string) ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	c := newCollector()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var raw RawExpense
		if err := json.Unmarshal(line, &raw); err != nil {
			c.fail(fmt.Sprintf("line %d", lineNo), err)
			continue
		}
		rec, err := fields{
			id:       raw.ID,
			amount:   raw.Amount.String(),
			merchant: raw.Merchant,
			note:     raw.Note,
			category: raw.Category,
			icon:     raw.CategoryIcon,
			payment:  raw.PaymentMethod,
			date:     raw.Date,
			typ:      raw.Type,
		}.record()
		if err != nil {
			c.fail(fmt.Sprintf("line %d", lineNo), err)
			continue
		}
		c.add(rec)
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{Err: err}
	}
	return c.result()
}

// parseBackup reads a file written by Export in the ledger format.
func parseBackup(path string) ParseResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	records, err := ledger.Decode(data)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("%s: %w", path, err)}
	}
	c := newCollector()
	for _, r := range records {
		c.add(r)
	}
	return c.result()
}

func parseCSV(path string) ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ParseResult{}
		}
		return ParseResult{Err: fmt.Errorf("%s: reading header: %w", path, err)}
	}
	cols, err := mapColumns(header)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("%s: %w", path, err)}
	}

	c := newCollector()
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			c.fail(fmt.Sprintf("line %d", perr.Line), perr.Err)
			continue
		}
		if err != nil {
			return ParseResult{Err: err}
		}
		line, _ := r.FieldPos(0)
		c.addRow(fmt.Sprintf("line %d", line), cols, row)
	}
	return c.result()
}

func parseXLSX(path string) ParseResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ParseResult{}
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if strings.EqualFold(s, SheetName) {
			sheet = s
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("%s: sheet %q: %w", path, sheet, err)}
	}
	if len(rows) == 0 {
		return ParseResult{}
	}
	cols, err := mapColumns(rows[0])
	if err != nil {
		return ParseResult{Err: fmt.Errorf("%s: sheet %q: %w", path, sheet, err)}
	}

	c := newCollector()
	for i, row := range rows[1:] {
		c.addRow(fmt.Sprintf("row %d", i+2), cols, row)
	}
	return c.result()
}

// columnAliases maps accepted header spellings to a field.
var columnAliases = map[string]string{
	"id":             "id",
	"amount":         "amount",
	"value":          "amount",
	"merchant":       "merchant",
	"payee":          "merchant",
	"description":    "merchant",
	"note":           "note",
	"notes":          "note",
	"memo":           "note",
	"category":       "category",
	"icon":           "icon",
	"categoryicon":   "icon",
	"payment":        "payment",
	"paymentmethod":  "payment",
	"payment method": "payment",
	"method":         "payment",
	"date":           "date",
	"day":            "date",
	"type":           "type",
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		h = strings.ReplaceAll(h, "_", "")
		if field, ok := columnAliases[h]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	var missing []string
	for _, req := range []string{"date", "amount", "merchant"} {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// fields is the textual form of an expense shared by every format.
type fields struct {
	id, amount, merchant, note, category, icon, payment, date, typ string
}

func fieldsFromRow(cols map[string]int, row []string) fields {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return fields{
		id:       get("id"),
		amount:   get("amount"),
		merchant: get("merchant"),
		note:     get("note"),
		category: get("category"),
		icon:     get("icon"),
		payment:  get("payment"),
		date:     get("date"),
		typ:      get("type"),
	}
}

// record validates f. Negative amounts are taken as spending, since bank
// exports commonly sign debits that way.
func (f fields) record() (model.ExpenseRecord, error) {
	amount, err := parseAmount(f.amount)
	if err != nil {
		return model.ExpenseRecord{}, err
	}
	merchant := strings.TrimSpace(f.merchant)
	if merchant == "" {
		return model.ExpenseRecord{}, errors.New("merchant is required")
	}
	date, err := parseDate(strings.TrimSpace(f.date))
	if err != nil {
		return model.ExpenseRecord{}, err
	}

	var pm model.PaymentMethod
	if s := strings.TrimSpace(f.payment); s != "" {
		var ok bool
		if pm, ok = model.ParsePaymentMethod(s); !ok {
			pm = model.PaymentOther
		}
	}

	typ := model.RecordTypeImported
	switch t := model.RecordType(strings.ToLower(strings.TrimSpace(f.typ))); t {
	case model.RecordTypeManual, model.RecordTypeScanned:
		typ = t
	}

	return model.ExpenseRecord{
		ID:            strings.TrimSpace(f.id),
		Amount:        amount,
		Merchant:      merchant,
		Note:          strings.TrimSpace(f.note),
		Category:      strings.ToLower(strings.TrimSpace(f.category)),
		CategoryIcon:  strings.TrimSpace(f.icon),
		PaymentMethod: pm,
		Date:          date,
		Type:          typ,
	}, nil
}

// parseAmount accepts plain decimals as well as "$1,234.50" and the
// accounting form "(12.00)".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, errors.New("amount is required")
	}
	neg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q is not a number", s)
	}
	if neg {
		d = d.Neg()
	}
	d = d.Abs()
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount %q must be greater than zero", s)
	}
	return d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// parseDate returns local midnight of the day s names.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return model.DateOnly(t.Local()), nil
	}
	return time.Time{}, fmt.Errorf("date %q is not recognized", s)
}

// collector accumulates records in first-seen order, keeping the last
// version of each id.
type collector struct {
	order       []string
	byID        map[string]model.ExpenseRecord
	occurrences map[string]int
	parseErrors int
	firstErr    error
}

func newCollector() *collector {
	return &collector{
		byID:        make(map[string]model.ExpenseRecord),
		occurrences: make(map[string]int),
	}
}

func (c *collector) fail(pos string, err error) {
	c.parseErrors++
	if c.firstErr == nil {
		c.firstErr = fmt.Errorf("%s: %w", pos, err)
	}
}

func (c *collector) addRow(pos string, cols map[string]int, row []string) {
	if blankRow(row) {
		return
	}
	rec, err := fieldsFromRow(cols, row).record()
	if err != nil {
		c.fail(pos, err)
		return
	}
	c.add(rec)
}

func (c *collector) add(r model.ExpenseRecord) {
	if r.ID == "" {
		r.ID = c.derivedID(r)
	}
	if _, ok := c.byID[r.ID]; !ok {
		c.order = append(c.order, r.ID)
	}
	c.byID[r.ID] = r
}

// derivedID hashes the record's content. Identical expenses within one
// file are told apart by their occurrence count.
func (c *collector) derivedID(r model.ExpenseRecord) string {
	key := strings.Join([]string{
		r.Date.Format("2006-01-02"),
		r.Amount.String(),
		strings.ToLower(r.Merchant),
		r.Category,
	}, "|")
	n := c.occurrences[key]
	c.occurrences[key]++
	return uuid.NewSHA1(importNamespace, fmt.Appendf(nil, "%s|%d", key, n)).String()
}

func (c *collector) result() ParseResult {
	records := make([]model.ExpenseRecord, 0, len(c.order))
	for _, id := range c.order {
		records = append(records, c.byID[id])
	}
	return ParseResult{
		Records:     records,
		ParseErrors: c.parseErrors,
		FirstErr:    c.firstErr,
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
