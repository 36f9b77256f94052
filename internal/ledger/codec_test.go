package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theirongolddev/dolla/internal/model"
)

func TestEncodeWritesVersionedEnvelope(t *testing.T) {
	data, err := Encode([]model.ExpenseRecord{rec("a", "4.50", "food")})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, "1", string(raw["version"]))

	var recs []map[string]any
	require.NoError(t, json.Unmarshal(raw["records"], &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-03-14", recs[0]["date"])
	assert.Equal(t, 4.5, recs[0]["amount"], "amount is a JSON number")
}

func TestDecodeLegacyArray(t *testing.T) {
	legacy := `[
		{"id":"1","amount":12.5,"merchant":"Cafe","category":"food","date":"2026-01-02T15:04:05Z","type":"manual"},
		{"id":"2","amount":"3","merchant":"Bus","category":"transport","date":"2026-01-01"}
	]`
	recs, err := Decode([]byte(legacy))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.True(t, recs[0].Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 0, recs[0].Date.Hour())
	assert.True(t, recs[1].Amount.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, model.RecordTypeManual, recs[1].Type)
	assert.True(t, recs[1].Date.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)))
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", `hello`},
		{"future version", `{"version":99,"records":[]}`},
		{"missing id", `{"version":1,"records":[{"amount":1,"date":"2026-01-01"}]}`},
		{"bad amount", `{"version":1,"records":[{"id":"x","amount":"abc","date":"2026-01-01"}]}`},
		{"bad date", `{"version":1,"records":[{"id":"x","amount":1,"date":"yesterday"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	in := rec("p1", "9.99", "shopping")
	s, err := EncodePayload(in)
	require.NoError(t, err)
	assert.NotContains(t, s, "/")

	out, err := DecodePayload(s)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.Amount.Equal(out.Amount))
	assert.True(t, in.Date.Equal(out.Date))

	_, err = DecodePayload("%%%")
	assert.Error(t, err)
}
