package ledger

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/model"
)

// formatVersion is the envelope version written by Save.
const formatVersion = 1

const dateLayout = "2006-01-02"

type envelope struct {
	Version int          `json:"version"`
	Records []wireRecord `json:"records"`
}

type wireRecord struct {
	ID            string      `json:"id"`
	Amount        json.Number `json:"amount"`
	Merchant      string      `json:"merchant"`
	Note          string      `json:"note,omitempty"`
	Category      string      `json:"category"`
	CategoryIcon  string      `json:"categoryIcon,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Date          string      `json:"date"`
	Type          string      `json:"type"`
}

func toWire(r model.ExpenseRecord) wireRecord {
	return wireRecord{
		ID:            r.ID,
		Amount:        json.Number(r.Amount.String()),
		Merchant:      r.Merchant,
		Note:          r.Note,
		Category:      r.Category,
		CategoryIcon:  r.CategoryIcon,
		PaymentMethod: string(r.PaymentMethod),
		Date:          r.Date.Format(dateLayout),
		Type:          string(r.Type),
	}
}

func fromWire(w wireRecord) (model.ExpenseRecord, error) {
	if w.ID == "" {
		return model.ExpenseRecord{}, errors.New("record without id")
	}
	amount, err := decimal.NewFromString(w.Amount.String())
	if err != nil {
		return model.ExpenseRecord{}, fmt.Errorf("record %s: amount %q: %w", w.ID, w.Amount, err)
	}
	date, err := parseDate(w.Date)
	if err != nil {
		return model.ExpenseRecord{}, fmt.Errorf("record %s: %w", w.ID, err)
	}
	typ := model.RecordType(w.Type)
	if typ == "" {
		typ = model.RecordTypeManual
	}
	return model.ExpenseRecord{
		ID:            w.ID,
		Amount:        amount,
		Merchant:      w.Merchant,
		Note:          w.Note,
		Category:      w.Category,
		CategoryIcon:  w.CategoryIcon,
		PaymentMethod: model.PaymentMethod(w.PaymentMethod),
		Date:          date,
		Type:          typ,
	}, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp; the
// result is always midnight local time.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return model.DateOnly(t.Local()), nil
}

// Encode serializes records in the versioned envelope format.
func Encode(records []model.ExpenseRecord) ([]byte, error) {
	env := envelope{Version: formatVersion, Records: make([]wireRecord, 0, len(records))}
	for _, r := range records {
		env.Records = append(env.Records, toWire(r))
	}
	return json.Marshal(env)
}

// Decode parses either the versioned envelope or a bare JSON array of
// records as written by older versions.
func Decode(data []byte) ([]model.ExpenseRecord, error) {
	var wires []wireRecord

	trimmed := firstNonSpace(data)
	switch trimmed {
	case '[':
		if err := json.Unmarshal(data, &wires); err != nil {
			return nil, fmt.Errorf("decoding legacy ledger: %w", err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decoding ledger: %w", err)
		}
		if env.Version > formatVersion {
			return nil, fmt.Errorf("ledger format version %d is newer than supported %d", env.Version, formatVersion)
		}
		wires = env.Records
	default:
		return nil, errors.New("decoding ledger: unrecognized format")
	}

	records := make([]model.ExpenseRecord, 0, len(wires))
	for _, w := range wires {
		r, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}

// EncodePayload packs a single record for a cross-screen handoff.
func EncodePayload(r model.ExpenseRecord) (string, error) {
	data, err := json.Marshal(toWire(r))
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodePayload reverses EncodePayload.
func DecodePayload(s string) (model.ExpenseRecord, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return model.ExpenseRecord{}, fmt.Errorf("decoding payload: %w", err)
	}
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return model.ExpenseRecord{}, fmt.Errorf("decoding payload: %w", err)
	}
	return fromWire(w)
}
