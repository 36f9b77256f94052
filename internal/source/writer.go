package source

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet Export writes and parseXLSX prefers.
const SheetName = "Expenses"

var exportHeader = []string{"id", "date", "amount", "merchant", "category", "payment", "note", "icon", "type"}

// Export writes records to w in the given format. Every format round-trips
// through ParseFile with ids intact.
func Export(w io.Writer, format Format, records []model.ExpenseRecord) error {
	switch format {
	case FormatJSONL:
		return exportJSONL(w, records)
	case FormatJSON:
		data, err := ledger.Encode(records)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatCSV:
		return exportCSV(w, records)
	case FormatXLSX:
		return exportXLSX(w, records)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func exportRow(r model.ExpenseRecord) []string {
	return []string{
		r.ID,
		r.Date.Format("2006-01-02"),
		r.Amount.String(),
		r.Merchant,
		r.Category,
		string(r.PaymentMethod),
		r.Note,
		r.CategoryIcon,
		string(r.Type),
	}
}

func exportJSONL(w io.Writer, records []model.ExpenseRecord) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		raw := RawExpense{
			ID:            r.ID,
			Amount:        json.Number(r.Amount.String()),
			Merchant:      r.Merchant,
			Note:          r.Note,
			Category:      r.Category,
			CategoryIcon:  r.CategoryIcon,
			PaymentMethod: string(r.PaymentMethod),
			Date:          r.Date.Format("2006-01-02"),
			Type:          string(r.Type),
		}
		if err := enc.Encode(raw); err != nil {
			return fmt.Errorf("encoding %s: %w", r.ID, err)
		}
	}
	return nil
}

func exportCSV(w io.Writer, records []model.ExpenseRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportXLSX(w io.Writer, records []model.ExpenseRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	setRow := func(row int, values []string) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := setRow(1, exportHeader); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(i+2, exportRow(r)); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 38, "B": 12, "C": 12, "D": 28, "E": 14, "F": 10, "G": 30}
	for col, wd := range widths {
		if err := f.SetColWidth(SheetName, col, col, wd); err != nil {
			return err
		}
	}
	return f.Write(w)
}
