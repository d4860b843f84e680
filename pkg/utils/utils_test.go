package utils

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		places   int32
		expected string
	}{
		{
			name:     "whole rial",
			amount:   decimal.NewFromInt(9000000),
			places:   0,
			expected: "9,000,000",
		},
		{
			name:     "short amount",
			amount:   decimal.NewFromInt(950),
			places:   0,
			expected: "950",
		},
		{
			name:     "exact group boundary",
			amount:   decimal.NewFromInt(100000),
			places:   0,
			expected: "100,000",
		},
		{
			name:     "fraction",
			amount:   decimal.RequireFromString("1234567.5"),
			places:   2,
			expected: "1,234,567.50",
		},
		{
			name:     "negative",
			amount:   decimal.NewFromInt(-3333334),
			places:   0,
			expected: "-3,333,334",
		},
		{
			name:     "zero",
			amount:   decimal.Zero,
			places:   0,
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatAmount(tt.amount, tt.places))
		})
	}
}

func TestFormatRial(t *testing.T) {
	assert.Equal(t, "3,000,000 ریال", FormatRial(decimal.NewFromInt(3000000)))
}

func TestPersianDigits(t *testing.T) {
	assert.Equal(t, "۱۴۰۲/۰۳/۱۶", PersianDigits("1402/03/16"))
	assert.Equal(t, "abc", PersianDigits("abc"))
}

func TestStartOfDay(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)

	in := time.Date(2023, 6, 6, 17, 45, 12, 99, tehran)
	assert.Equal(t, time.Date(2023, 6, 6, 0, 0, 0, 0, tehran), StartOfDay(in))
}

func TestCalendarDaysBetween(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)

	tests := []struct {
		name     string
		a, b     time.Time
		expected int
	}{
		{
			name:     "same day different hours",
			a:        time.Date(2023, 6, 6, 1, 0, 0, 0, time.UTC),
			b:        time.Date(2023, 6, 6, 18, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "forty five days",
			a:        time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
			expected: 45,
		},
		{
			name:     "negative",
			a:        time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC),
			expected: -10,
		},
		{
			// 21:00 UTC is already the next day in Tehran.
			name:     "read in location",
			a:        time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2023, 6, 6, 21, 0, 0, 0, time.UTC),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := time.UTC
			if tt.name == "read in location" {
				loc = tehran
			}
			assert.Equal(t, tt.expected, CalendarDaysBetween(tt.a, tt.b, loc))
		})
	}
}

func TestDecimalFromString(t *testing.T) {
	d, err := DecimalFromString(" 9,000,000 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(9000000)))

	_, err = DecimalFromString("nine")
	assert.Error(t, err)
}
