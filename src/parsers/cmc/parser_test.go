package cmc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradevault/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

const cmcHeader = "Time (UTC+0),Type,Order number,Status,Related order,Product,Units,Price,C1,C2,C3,C4,C5,C6,Amount\n"

func cmcRow(fields ...string) string {
	return strings.Join(fields, ",") + "\n"
}

func TestParseBasicRow(t *testing.T) {
	input := cmcHeader +
		cmcRow("24/08/2022 11:23", "Buy Trade", "O5-77-5H7P05", "Filled", "-", "Germany 40 - Cash", "0.80", "12960.00", "", "", "", "", "", "", "-")

	wrappers, err := NewParser(',').Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, wrappers, 1)

	w := wrappers[0]
	assert.Equal(t, "Buy Trade", w.Type)
	assert.Equal(t, "O5-77-5H7P05", w.OrderNumber)
	assert.Equal(t, "-", w.RelatedOrderNumber)
	assert.Equal(t, "Germany 40 - Cash", w.Product)
	assert.Equal(t, 0.80, w.Units)
	assert.Equal(t, 12960.00, w.Price)
	assert.Equal(t, 0.0, w.Amount)
	assert.Equal(t, time.Date(2022, 8, 24, 11, 23, 0, 0, time.UTC), w.DateTime)
}

func TestParseHeaderAlwaysSkipped(t *testing.T) {
	// Even a header that would parse as data is dropped.
	input := "24/08/2022 11:23,Buy Trade,O1,Filled,-,Gold,1.0,1800.0,,,,,,,-\n" +
		cmcRow("24/08/2022 11:24", "Buy Trade", "O2", "Filled", "-", "Gold", "1.0", "1801.0", "", "", "", "", "", "", "-")

	wrappers, err := NewParser(',').Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, wrappers, 1)
	assert.Equal(t, "O2", wrappers[0].OrderNumber)
}

func TestParseQuotedDelimiters(t *testing.T) {
	input := cmcHeader +
		cmcRow("24/08/2022 11:23", "Close Trade", "O5-77-ABC", "Filled", "O5-77-XYZ", `"EUR/USD, Mini"`, "0.75", "1.1650", "", "", "", "", "", "", `"1,234.56"`)

	wrappers, err := NewParser(',').Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, wrappers, 1)

	w := wrappers[0]
	assert.Equal(t, "EUR/USD, Mini", w.Product)
	assert.Equal(t, 1234.56, w.Amount)
}

func TestParseStripsTradeAnnotation(t *testing.T) {
	input := cmcHeader +
		cmcRow("24/08/2022 11:23", "(T) Buy Trade", "O5-77-5H7P05", "Filled", "-", "Germany 40 - Cash", "0.80", "12960.00", "", "", "", "", "", "", "-")

	wrappers, err := NewParser(',').Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, wrappers, 1)
	assert.Equal(t, "Buy Trade", wrappers[0].Type)
}

func TestParseTradeTimeFormats(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{
			name:  "day month year with slashes",
			value: "24/08/2022 11:23",
			want:  time.Date(2022, 8, 24, 11, 23, 0, 0, time.UTC),
		},
		{
			name:  "abbreviated month name",
			value: "24 Aug 2022 11:13:05",
			want:  time.Date(2022, 8, 24, 11, 13, 5, 0, time.UTC),
		},
		{
			name:  "abbreviated month name with locale period",
			value: "24 Aug. 2022 11:13:05",
			want:  time.Date(2022, 8, 24, 11, 13, 5, 0, time.UTC),
		},
		{
			name:  "full month name",
			value: "24 August 2022 11:13:05",
			want:  time.Date(2022, 8, 24, 11, 13, 5, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTradeTime(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTradeTimeRejectsUnknownFormat(t *testing.T) {
	_, err := parseTradeTime("2022-08-24T11:23:00Z")
	assert.Error(t, err)
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := cmcHeader +
		"too,short,row\n" +
		cmcRow("not a date", "Buy Trade", "O1", "Filled", "-", "Gold", "1.0", "1800.0", "", "", "", "", "", "", "-") +
		cmcRow("24/08/2022 11:23", "Buy Trade", "O2", "Filled", "-", "Gold", "abc", "1800.0", "", "", "", "", "", "", "-") +
		cmcRow("24/08/2022 11:24", "Buy Trade", "O3", "Filled", "-", "Gold", "1.0", "1800.0", "", "", "", "", "", "", "-")

	wrappers, err := NewParser(',').Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, wrappers, 1)
	assert.Equal(t, "O3", wrappers[0].OrderNumber)
}

func TestParseSkipsBlankLines(t *testing.T) {
	input := cmcHeader +
		"\n   \n" +
		cmcRow("24/08/2022 11:23", "Buy Trade", "O1", "Filled", "-", "Gold", "1.0", "1800.0", "", "", "", "", "", "", "-")

	wrappers, err := NewParser(',').Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, wrappers, 1)
}

func TestSafeParseFloat(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{name: "empty is zero", value: "", want: 0},
		{name: "lone dash is zero", value: "-", want: 0},
		{name: "plain number", value: "12960.00", want: 12960.00},
		{name: "currency symbol and separators stripped", value: "€1,234.56", want: 1234.56},
		{name: "negative amount", value: "-8.00", want: -8.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safeParseFloat(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSafeParseFloatRejectsNonNumeric(t *testing.T) {
	_, err := safeParseFloat("abc")
	assert.Error(t, err)
}

func TestSplitOutsideQuotes(t *testing.T) {
	fields := splitOutsideQuotes(`a,"b,c",d`, ',')
	assert.Equal(t, []string{"a", `"b,c"`, "d"}, fields)
}
