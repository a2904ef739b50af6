package AbstractFunctions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	t.Run("Should accept every historical layout for the same day", func(t *testing.T) {
		want := day(2025, time.December, 27)
		for _, in := range []string{"27/Dec/2025", "12/27/2025", "27/12/2025", "2025-12-27", "2025/12/27", "2025-12-27 00:00:00"} {
			got, ok := ParseDate(in)
			require.True(t, ok, in)
			assert.Equal(t, want, got, in)
		}
	})

	t.Run("Should accept single digit parts and any month case", func(t *testing.T) {
		got, ok := ParseDate("5/jan/2026")
		require.True(t, ok)
		assert.Equal(t, day(2026, time.January, 5), got)
	})

	t.Run("Should resolve ambiguous numeric dates as month first", func(t *testing.T) {
		got, ok := ParseDate("03/04/2025")
		require.True(t, ok)
		assert.Equal(t, day(2025, time.March, 4), got)
	})

	t.Run("Should fall back to day first when month first is impossible", func(t *testing.T) {
		got, ok := ParseDate("13/04/2025")
		require.True(t, ok)
		assert.Equal(t, day(2025, time.April, 13), got)
	})

	t.Run("Should return false for missing or garbage input", func(t *testing.T) {
		var nilTime *time.Time
		for _, in := range []any{"", "   ", nil, "not-a-date", "31/Feb/2025", nilTime, time.Time{}, 42} {
			_, ok := ParseDate(in)
			assert.False(t, ok, "%v", in)
		}
	})

	t.Run("Should be idempotent on canonical values", func(t *testing.T) {
		first, ok := ParseDate("27/Dec/2025")
		require.True(t, ok)
		second, ok := ParseDate(first)
		require.True(t, ok)
		assert.Equal(t, first, second)
	})

	t.Run("Should drop the clock from time values", func(t *testing.T) {
		cairo := time.FixedZone("EET", 2*3600)
		got, ok := ParseDate(time.Date(2026, time.January, 2, 23, 30, 0, 0, cairo))
		require.True(t, ok)
		assert.Equal(t, day(2026, time.January, 2), got)
	})
}

func TestFormatDateRoundTrip(t *testing.T) {
	start := day(1999, time.December, 25)
	for i := 0; i < 1200; i += 7 {
		d := start.AddDate(0, 0, i)
		got, ok := ParseDate(FormatDate(d))
		require.True(t, ok)
		assert.Equal(t, d, got)
	}
	assert.Equal(t, "05/Jan/2026", FormatDate(day(2026, time.January, 5)))
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"01:05:30 PM", TimeOfDay{13, 5, 30}},
		{"1:05:30 pm", TimeOfDay{13, 5, 30}},
		{"09:00 AM", TimeOfDay{9, 0, 0}},
		{"12:00:00 AM", TimeOfDay{0, 0, 0}},
		{"00:15:00 AM", TimeOfDay{0, 15, 0}},
		{"12:30:00 PM", TimeOfDay{12, 30, 0}},
		{"11:59:59PM", TimeOfDay{23, 59, 59}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseTime(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("Should reject malformed times", func(t *testing.T) {
		for _, in := range []any{"", "13:00:00 PM", "9 AM", "25:00", "noon", nil, TimeOfDay{Hour: 24}} {
			_, ok := ParseTime(in)
			assert.False(t, ok, "%v", in)
		}
	})

	t.Run("Should be idempotent on canonical values", func(t *testing.T) {
		first, ok := ParseTime("05:15:30 PM")
		require.True(t, ok)
		second, ok := ParseTime(first)
		require.True(t, ok)
		assert.Equal(t, first, second)
	})
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "01:05:30 PM", FormatTime(TimeOfDay{13, 5, 30}))
	assert.Equal(t, "12:00:00 AM", FormatTime(TimeOfDay{}))
	assert.Equal(t, "12:00:00 PM", FormatTime(TimeOfDay{Hour: 12}))
}

func TestSplit(t *testing.T) {
	cairo := time.FixedZone("EET", 2*3600)
	d, tm := Split(time.Date(2025, time.December, 27, 17, 15, 30, 0, cairo))
	assert.Equal(t, "27/Dec/2025", d)
	assert.Equal(t, "05:15:30 PM", tm)
}

func TestNormalizeStrings(t *testing.T) {
	assert.Equal(t, "27/Dec/2025", NormalizeDateString("2025-12-27"))
	assert.Equal(t, "27/Dec/2025", NormalizeDateString("46018"))
	assert.Equal(t, "garbage", NormalizeDateString("garbage"))
	assert.Equal(t, "", NormalizeDateString(""))

	assert.Equal(t, "09:00:00 AM", NormalizeTimeString("9:00 am"))
	assert.Equal(t, "09:00:00 AM", NormalizeTimeString("0.375"))
	assert.Equal(t, "soon", NormalizeTimeString("soon"))
}

func TestParseExcelDate(t *testing.T) {
	got, ok := ParseExcelDate("45658")
	require.True(t, ok)
	assert.Equal(t, day(2025, time.January, 1), got)

	_, ok = ParseExcelDate("5")
	assert.False(t, ok)
	_, ok = ParseExcelDate("abc")
	assert.False(t, ok)
}
