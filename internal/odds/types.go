package odds

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Status of a race fetch or a daily batch
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Unknown is used for race name and post time when the page did not show them
const Unknown = "unknown"

// WinOdds maps horse number to win odds
type WinOdds map[int]float64

// PlaceOdds maps horse number to the midpoint of the displayed place range
type PlaceOdds map[int]float64

// Pair is a quinella key. First is always the favorite.
type Pair struct {
	First  int
	Second int
}

// QuinellaOdds maps favorite-anchored pairs to quinella odds
type QuinellaOdds map[Pair]float64

// Favorite returns the horse with the lowest win odds. Ties go to the lowest
// horse number so the result never depends on map iteration order.
func (w WinOdds) Favorite() (int, bool) {
	favorite, found := 0, false
	for horse, price := range w {
		if !found || price < w[favorite] || (price == w[favorite] && horse < favorite) {
			favorite, found = horse, true
		}
	}
	return favorite, found
}

// Horses returns the horse numbers in ascending order
func (w WinOdds) Horses() []int {
	return sortedKeys(w)
}

// Horses returns the horse numbers in ascending order
func (p PlaceOdds) Horses() []int {
	return sortedKeys(p)
}

// Midpoint returns the place value for a displayed [low, high] band.
func Midpoint(low, high float64) float64 {
	if low > high {
		low, high = high, low
	}
	return (low + high) / 2
}

// Pairs returns the keys ordered by first then second horse
func (q QuinellaOdds) Pairs() []Pair {
	pairs := make([]Pair, 0, len(q))
	for p := range q {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].First != pairs[j].First {
			return pairs[i].First < pairs[j].First
		}
		return pairs[i].Second < pairs[j].Second
	})
	return pairs
}

// String renders the pair as "F-S"
func (p Pair) String() string {
	return fmt.Sprintf("%d-%d", p.First, p.Second)
}

// MarshalText lets QuinellaOdds be used as a JSON object
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses "F-S"
func (p *Pair) UnmarshalText(text []byte) error {
	first, second, ok := strings.Cut(string(text), "-")
	if !ok {
		return fmt.Errorf("invalid pair %q", text)
	}
	a, err := strconv.Atoi(first)
	if err != nil {
		return fmt.Errorf("invalid pair %q: %w", text, err)
	}
	b, err := strconv.Atoi(second)
	if err != nil {
		return fmt.Errorf("invalid pair %q: %w", text, err)
	}
	p.First, p.Second = a, b
	return nil
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// RaceOddsRecord is the outcome of one race fetch attempt
type RaceOddsRecord struct {
	RaceID    string       `json:"race_id"`
	RaceName  string       `json:"race_name"`
	PostTime  string       `json:"post_time"`
	Win       WinOdds      `json:"win"`
	Place     PlaceOdds    `json:"place"`
	Quinella  QuinellaOdds `json:"quinella"`
	Status    Status       `json:"status"`
	Message   string       `json:"message"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// NewSuccessRecord builds a record for a race whose odds page was reached.
// Nil maps are replaced with empty ones.
func NewSuccessRecord(raceID, raceName, postTime string, win WinOdds, place PlaceOdds, quinella QuinellaOdds, fetchedAt time.Time) RaceOddsRecord {
	if win == nil {
		win = WinOdds{}
	}
	if place == nil {
		place = PlaceOdds{}
	}
	if quinella == nil {
		quinella = QuinellaOdds{}
	}
	if raceName == "" {
		raceName = Unknown
	}
	if postTime == "" {
		postTime = Unknown
	}

	message := "odds fetched"
	if len(win) == 0 && len(place) == 0 && len(quinella) == 0 {
		message = "odds page reached but no odds could be parsed"
	}

	return RaceOddsRecord{
		RaceID:    raceID,
		RaceName:  raceName,
		PostTime:  postTime,
		Win:       win,
		Place:     place,
		Quinella:  quinella,
		Status:    StatusSuccess,
		Message:   message,
		FetchedAt: fetchedAt,
	}
}

// NewErrorRecord builds a record for a race that could not be fetched
func NewErrorRecord(raceID, message string, fetchedAt time.Time) RaceOddsRecord {
	return RaceOddsRecord{
		RaceID:    raceID,
		RaceName:  Unknown,
		PostTime:  Unknown,
		Win:       WinOdds{},
		Place:     PlaceOdds{},
		Quinella:  QuinellaOdds{},
		Status:    StatusError,
		Message:   message,
		FetchedAt: fetchedAt,
	}
}

// OK reports whether the record has success status
func (r RaceOddsRecord) OK() bool {
	return r.Status == StatusSuccess
}

// DailyOddsReport collects the records of every race on one date
type DailyOddsReport struct {
	Date            string           `json:"date"`
	RunID           string           `json:"run_id"`
	Races           []RaceOddsRecord `json:"races"`
	TotalRaces      int              `json:"total_races"`
	SuccessfulRaces int              `json:"successful_races"`
	FailedRaces     int              `json:"failed_races"`
	Status          Status           `json:"status"`
	Message         string           `json:"message"`
}

// NewFailedReport builds a report for a date that produced no race fetches
func NewFailedReport(date, runID, message string) DailyOddsReport {
	return DailyOddsReport{
		Date:    date,
		RunID:   runID,
		Races:   []RaceOddsRecord{},
		Status:  StatusError,
		Message: message,
	}
}

// ReportBuilder accumulates records in order and keeps the counters consistent.
type ReportBuilder struct {
	date   string
	runID  string
	races  []RaceOddsRecord
	ok     int
	failed int
}

// NewReportBuilder starts a report for date
func NewReportBuilder(date, runID string, expected int) *ReportBuilder {
	return &ReportBuilder{
		date:  date,
		runID: runID,
		races: make([]RaceOddsRecord, 0, expected),
	}
}

// Add appends a record
func (b *ReportBuilder) Add(r RaceOddsRecord) {
	b.races = append(b.races, r)
	if r.OK() {
		b.ok++
	} else {
		b.failed++
	}
}

// Build freezes the report. The builder must not be used afterwards.
func (b *ReportBuilder) Build() DailyOddsReport {
	status := StatusError
	if b.ok > 0 {
		status = StatusSuccess
	}
	return DailyOddsReport{
		Date:            b.date,
		RunID:           b.runID,
		Races:           b.races,
		TotalRaces:      len(b.races),
		SuccessfulRaces: b.ok,
		FailedRaces:     b.failed,
		Status:          status,
		Message:         fmt.Sprintf("succeeded: %d races, failed: %d races", b.ok, b.failed),
	}
}
