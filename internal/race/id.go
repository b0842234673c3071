package race

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/oddsworker/pkg/errors"
)

var idPattern = regexp.MustCompile(`^\d{10}$`)

// ID is a parsed race identifier: YYYY VV DD RR.
type ID struct {
	raw        string
	Year       int
	VenueCode  int
	Venue      string
	KnownVenue bool
	MeetingDay int
	RaceNumber int
}

// ParseID validates raw and splits it into its fields.
func ParseID(raw string, venues VenueTable) (ID, error) {
	if !idPattern.MatchString(raw) {
		return ID{}, apperrors.NewValidation(raw, "race id must be exactly 10 digits (YYYYVVDDRR)")
	}

	// the pattern guarantees these conversions succeed
	year, _ := strconv.Atoi(raw[0:4])
	venueCode, _ := strconv.Atoi(raw[4:6])
	day, _ := strconv.Atoi(raw[6:8])
	number, _ := strconv.Atoi(raw[8:10])

	if day == 0 {
		return ID{}, apperrors.NewValidation(raw, "meeting day must not be 00")
	}
	if number == 0 {
		return ID{}, apperrors.NewValidation(raw, "race number must not be 00")
	}

	venue, known := venues.Name(venueCode)
	return ID{
		raw:        raw,
		Year:       year,
		VenueCode:  venueCode,
		Venue:      venue,
		KnownVenue: known,
		MeetingDay: day,
		RaceNumber: number,
	}, nil
}

// String returns the identifier as it was given
func (id ID) String() string {
	return id.raw
}

// Describe returns a short human readable label such as "2025 東京 2日目 11R".
func (id ID) Describe() string {
	return fmt.Sprintf("%d %s %d日目 %dR", id.Year, id.Venue, id.MeetingDay, id.RaceNumber)
}

var dateLayouts = []string{"20060102", "2006-01-02", "2006/01/02"}

// NormalizeDate converts a date in one of the accepted layouts to YYYYMMDD.
func NormalizeDate(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	for _, layout := range dateLayouts {
		if len(trimmed) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("20060102"), nil
		}
	}
	return "", apperrors.NewValidation(input, "date must be 8 digits (YYYYMMDD) or YYYY-MM-DD")
}

// DashedDate renders a normalized YYYYMMDD date as YYYY-MM-DD.
func DashedDate(date string) string {
	if len(date) != 8 {
		return date
	}
	return date[:4] + "-" + date[4:6] + "-" + date[6:]
}
