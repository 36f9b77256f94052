package cmd

import (
	"reflect"
	"testing"

	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/source"
)

func TestAssignCategories(t *testing.T) {
	reg := category.New(config.DefaultCategories())
	fallback, _ := reg.ByName("shopping")

	records := []model.ExpenseRecord{
		{ID: "1"},
		{ID: "2", Category: "food", PaymentMethod: model.PaymentDebit},
		{ID: "3", Category: "pets"},
		{ID: "4", Category: "gifts", CategoryIcon: "gift.fill"},
		{ID: "5", Category: "pets"},
	}

	unknown := assignCategories(records, reg, fallback, model.PaymentCash, "tag.fill")

	if want := []string{"gifts", "pets"}; !reflect.DeepEqual(unknown, want) {
		t.Errorf("unknown = %v, want %v", unknown, want)
	}
	if records[0].Category != "shopping" || records[0].CategoryIcon != "bag.fill" {
		t.Errorf("record without category = %+v, want shopping fallback", records[0])
	}
	if records[1].CategoryIcon != "cart.fill" || records[1].PaymentMethod != model.PaymentDebit {
		t.Errorf("known category = %+v", records[1])
	}
	if records[2].CategoryIcon != "tag.fill" || records[2].PaymentMethod != model.PaymentCash {
		t.Errorf("unknown category = %+v, want default icon and payment", records[2])
	}
	if records[3].CategoryIcon != "gift.fill" {
		t.Errorf("file icon should be kept, got %q", records[3].CategoryIcon)
	}
}

func TestExportFormatFor(t *testing.T) {
	tests := []struct {
		flag, output string
		want         source.Format
		wantErr      bool
	}{
		{"", "", source.FormatJSONL, false},
		{"", "backup.json", source.FormatJSON, false},
		{"", "sheet.XLSX", source.FormatXLSX, false},
		{"", "notes.txt", source.FormatJSONL, false},
		{"csv", "backup.json", source.FormatCSV, false},
		{"yaml", "", "", true},
	}
	for _, tt := range tests {
		got, err := exportFormatFor(tt.flag, tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("exportFormatFor(%q, %q) error = %v", tt.flag, tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("exportFormatFor(%q, %q) = %q, want %q", tt.flag, tt.output, got, tt.want)
		}
	}
}
