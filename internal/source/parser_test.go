package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/model"
)

// writeImport creates a temp file with the given lines and returns a
// DiscoveredFile for it.
func writeImport(t *testing.T, name string, lines ...string) DiscoveredFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	format, ok := FormatOf(path)
	if !ok {
		t.Fatalf("no format for %s", name)
	}
	return DiscoveredFile{Path: path, Format: format}
}

func TestParseFile_JSONL(t *testing.T) {
	df := writeImport(t, "expenses.jsonl",
		`{"id":"a","amount":12.5,"merchant":"Blue Bottle","category":"Food","date":"2026-03-14","paymentMethod":"credit"}`,
		`{"amount":"40","merchant":"Metro","category":"transport","date":"2026-03-13"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}

	r := result.Records[0]
	if r.ID != "a" || r.Merchant != "Blue Bottle" || r.Category != "food" {
		t.Errorf("first record = %+v", r)
	}
	if !r.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("amount = %s, want 12.5", r.Amount)
	}
	if r.PaymentMethod != model.PaymentCredit {
		t.Errorf("payment = %q, want credit", r.PaymentMethod)
	}
	if r.Type != model.RecordTypeImported {
		t.Errorf("type = %q, want imported", r.Type)
	}
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	if !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}

	if result.Records[1].ID == "" {
		t.Error("record without id should get a derived id")
	}
}

func TestParseFile_DedupByID(t *testing.T) {
	// Same id twice: the second wins but keeps the first position.
	df := writeImport(t, "dup.jsonl",
		`{"id":"x","amount":1,"merchant":"Old","date":"2026-03-01"}`,
		`{"id":"y","amount":2,"merchant":"Other","date":"2026-03-01"}`,
		`{"id":"x","amount":3,"merchant":"New","date":"2026-03-01"}`,
	)

	result := ParseFile(df)
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2 (dedup)", len(result.Records))
	}
	if result.Records[0].ID != "x" || result.Records[0].Merchant != "New" {
		t.Errorf("first = %+v, want the last version of x", result.Records[0])
	}
}

func TestParseFile_DerivedIDsAreStable(t *testing.T) {
	lines := []string{
		`{"amount":4.5,"merchant":"Cafe","date":"2026-03-01"}`,
		`{"amount":4.5,"merchant":"Cafe","date":"2026-03-01"}`,
	}
	first := ParseFile(writeImport(t, "a.jsonl", lines...))
	second := ParseFile(writeImport(t, "b.jsonl", lines...))

	if len(first.Records) != 2 {
		t.Fatalf("identical expenses should both be kept, got %d", len(first.Records))
	}
	if first.Records[0].ID == first.Records[1].ID {
		t.Error("identical expenses in one file need distinct ids")
	}
	for i := range first.Records {
		if first.Records[i].ID != second.Records[i].ID {
			t.Errorf("record %d: id %s != %s across imports", i, first.Records[i].ID, second.Records[i].ID)
		}
	}
}

func TestParseFile_EmptyFile(t *testing.T) {
	result := ParseFile(writeImport(t, "empty.jsonl", ""))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 0 || result.ParseErrors != 0 {
		t.Errorf("got %d records, %d errors; want none", len(result.Records), result.ParseErrors)
	}
}

func TestParseFile_MalformedLines(t *testing.T) {
	df := writeImport(t, "bad.jsonl",
		`not json`,
		`{"amount":0,"merchant":"Free","date":"2026-03-01"}`,
		`{"amount":5,"merchant":"","date":"2026-03-01"}`,
		`{"amount":5,"merchant":"Ok","date":"yesterday"}`,
		`{"amount":5,"merchant":"Good","date":"2026-03-01"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 4 {
		t.Errorf("ParseErrors = %d, want 4", result.ParseErrors)
	}
	if result.FirstErr == nil || !strings.HasPrefix(result.FirstErr.Error(), "line 1:") {
		t.Errorf("FirstErr = %v, want a line 1 error", result.FirstErr)
	}
	if len(result.Records) != 1 || result.Records[0].Merchant != "Good" {
		t.Errorf("records = %+v, want only Good", result.Records)
	}
}

func TestParseFile_CSV(t *testing.T) {
	df := writeImport(t, "bank.csv",
		"\ufeffDate,Description,Amount,Category,Memo",
		`03/14/2026,Blue Bottle,"-$1,204.50",Food,beans`,
		`2026-03-13,Metro,(2.75),transport,`,
		`,,,,`,
		`2026-03-12,Broken,abc,food,`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}
	if !result.Records[0].Amount.Equal(decimal.RequireFromString("1204.50")) {
		t.Errorf("amount = %s, want 1204.50", result.Records[0].Amount)
	}
	if result.Records[0].Note != "beans" {
		t.Errorf("note = %q, want beans", result.Records[0].Note)
	}
	if !result.Records[1].Amount.Equal(decimal.RequireFromString("2.75")) {
		t.Errorf("amount = %s, want 2.75", result.Records[1].Amount)
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1 (blank rows are skipped)", result.ParseErrors)
	}
}

func TestParseFile_CSVMissingColumns(t *testing.T) {
	result := ParseFile(writeImport(t, "short.csv", "date,amount", "2026-03-01,5"))
	if result.Err == nil || !strings.Contains(result.Err.Error(), "merchant") {
		t.Fatalf("Err = %v, want missing merchant column", result.Err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	records := []model.ExpenseRecord{
		{
			ID: "r1", Amount: decimal.RequireFromString("12.345"), Merchant: "Cafe, \"The\"",
			Category: "food", CategoryIcon: "cart.fill", PaymentMethod: model.PaymentDebit,
			Date: time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local), Type: model.RecordTypeManual,
		},
		{
			ID: "r2", Amount: decimal.NewFromInt(40), Merchant: "Metro", Note: "monthly",
			Category: "transport", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local),
			Type: model.RecordTypeScanned,
		},
	}

	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, format, records); err != nil {
				t.Fatalf("Export: %v", err)
			}
			path := filepath.Join(t.TempDir(), "out."+string(format))
			if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
				t.Fatal(err)
			}

			result := ParseFile(DiscoveredFile{Path: path, Format: format})
			if result.Err != nil || result.ParseErrors != 0 {
				t.Fatalf("ParseFile: err=%v parseErrors=%d first=%v", result.Err, result.ParseErrors, result.FirstErr)
			}
			if len(result.Records) != len(records) {
				t.Fatalf("records = %d, want %d", len(result.Records), len(records))
			}
			for i, got := range result.Records {
				want := records[i]
				if got.ID != want.ID || got.Merchant != want.Merchant || got.Type != want.Type ||
					!got.Amount.Equal(want.Amount) || !got.Date.Equal(want.Date) {
					t.Errorf("record %d = %+v, want %+v", i, got, want)
				}
			}
		})
	}
}

func TestScanPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jsonl", "b.csv", "notes.txt", "sub/c.json", ".hidden/d.csv"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ScanPaths(dir, filepath.Join(dir, "a.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %+v, want a.jsonl, b.csv and sub/c.json", files)
	}
	counts := CountFormats(files)
	if counts[FormatJSONL] != 1 || counts[FormatCSV] != 1 || counts[FormatJSON] != 1 {
		t.Errorf("counts = %v", counts)
	}

	if _, err := ScanPaths(filepath.Join(dir, "notes.txt")); err == nil {
		t.Error("an explicit unsupported file should be rejected")
	}
}

func FuzzParseAmount(f *testing.F) {
	for _, seed := range []string{"12.50", "$1,234.56", "(3.00)", "-4", "", "abc", "1.2.3"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		d, err := parseAmount(s)
		if err == nil && !d.IsPositive() {
			t.Errorf("parseAmount(%q) = %s without error", s, d)
		}
	})
}
