package race

import (
	"testing"

	apperrors "sjsage522/oddsworker/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	venues := DefaultVenues()

	tests := []struct {
		raw    string
		year   int
		venue  string
		known  bool
		day    int
		number int
	}{
		{"2025050211", 2025, "東京", true, 2, 11},
		{"2024010101", 2024, "札幌", true, 1, 1},
		{"2025100812", 2025, "小倉", true, 8, 12},
		{"2025110301", 2025, "unknown(11)", false, 3, 1},
		{"2025000101", 2025, "unknown(00)", false, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, err := ParseID(tt.raw, venues)
			assert.NoError(t, err)
			assert.Equal(t, tt.raw, id.String())
			assert.Equal(t, tt.year, id.Year)
			assert.Equal(t, tt.venue, id.Venue)
			assert.Equal(t, tt.known, id.KnownVenue)
			assert.Equal(t, tt.day, id.MeetingDay)
			assert.Equal(t, tt.number, id.RaceNumber)
		})
	}
}

func TestParseIDRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"202505021",
		"20250502111",
		"202506010501",
		"20250502a1",
		" 2025050211",
		"２０２５０５０２１１",
		"2025050011",
		"2025050200",
	} {
		_, err := ParseID(raw, DefaultVenues())
		assert.Error(t, err, raw)
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation), raw)
	}
}

func TestVenueTableIsolation(t *testing.T) {
	names := map[int]string{5: "東京"}
	table := NewVenueTable(names)
	names[5] = "changed"

	name, ok := table.Name(5)
	assert.True(t, ok)
	assert.Equal(t, "東京", name)

	for code := 1; code <= 10; code++ {
		_, ok := DefaultVenues().Name(code)
		assert.True(t, ok, code)
	}
}

func TestNormalizeDate(t *testing.T) {
	for input, want := range map[string]string{
		"20250113":     "20250113",
		"2025-01-13":   "20250113",
		"2025/01/13":   "20250113",
		" 2025-01-13 ": "20250113",
	} {
		got, err := NormalizeDate(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "2025113", "2025-13-01", "20250230", "13/01/2025", "2025-1-13"} {
		_, err := NormalizeDate(input)
		assert.Error(t, err, input)
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation), input)
	}
}

func TestDashedDate(t *testing.T) {
	assert.Equal(t, "2025-01-13", DashedDate("20250113"))
	assert.Equal(t, "bogus", DashedDate("bogus"))
}
