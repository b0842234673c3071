package odds

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFavorite(t *testing.T) {
	fav, ok := WinOdds{1: 2.1, 2: 5.4, 3: 1.8}.Favorite()
	assert.True(t, ok)
	assert.Equal(t, 3, fav)

	_, ok = WinOdds{}.Favorite()
	assert.False(t, ok)
}

func TestFavoriteTieGoesToLowestHorse(t *testing.T) {
	win := WinOdds{9: 2.0, 4: 2.0, 7: 2.0, 1: 3.5, 12: 2.0}
	// repeat to cover different map iteration orders
	for i := 0; i < 50; i++ {
		fav, ok := win.Favorite()
		assert.True(t, ok)
		assert.Equal(t, 4, fav)
	}
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 1.3, Midpoint(1.1, 1.5))
	assert.Equal(t, 2.0, Midpoint(2.0, 2.0))
	assert.Equal(t, 1.5, Midpoint(2.0, 1.0))

	low, high := 1.2, 3.4
	mid := Midpoint(low, high)
	assert.LessOrEqual(t, low, mid)
	assert.LessOrEqual(t, mid, high)
}

func TestPairText(t *testing.T) {
	var p Pair
	assert.NoError(t, p.UnmarshalText([]byte("3-12")))
	assert.Equal(t, Pair{First: 3, Second: 12}, p)
	assert.Equal(t, "3-12", p.String())

	assert.Error(t, p.UnmarshalText([]byte("312")))
	assert.Error(t, p.UnmarshalText([]byte("a-1")))
	assert.Error(t, p.UnmarshalText([]byte("1-b")))
}

func TestRecordJSONKeys(t *testing.T) {
	rec := NewSuccessRecord("2025050211", "天皇賞", "15:40",
		WinOdds{3: 1.8},
		PlaceOdds{3: 1.15},
		QuinellaOdds{{First: 3, Second: 5}: 7.2},
		time.Date(2025, 5, 4, 15, 0, 0, 0, time.UTC))

	data, err := json.Marshal(rec)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"quinella":{"3-5":7.2}`)
	assert.Contains(t, string(data), `"win":{"3":1.8}`)

	var decoded RaceOddsRecord
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec.Quinella, decoded.Quinella)
	assert.Equal(t, rec.Win, decoded.Win)
}

func TestNewSuccessRecordDefaults(t *testing.T) {
	rec := NewSuccessRecord("2025050211", "", "", nil, nil, nil, time.Now())
	assert.True(t, rec.OK())
	assert.Equal(t, Unknown, rec.RaceName)
	assert.Equal(t, Unknown, rec.PostTime)
	assert.NotNil(t, rec.Win)
	assert.NotNil(t, rec.Quinella)
	assert.Contains(t, rec.Message, "no odds")
}

func TestNewErrorRecord(t *testing.T) {
	rec := NewErrorRecord("2025050211", "link not found", time.Now())
	assert.False(t, rec.OK())
	assert.Equal(t, StatusError, rec.Status)
	assert.Equal(t, "link not found", rec.Message)
	assert.Empty(t, rec.Win)
}

func TestReportBuilderCounts(t *testing.T) {
	b := NewReportBuilder("20250504", "run", 3)
	b.Add(NewSuccessRecord("2025050201", "", "", WinOdds{1: 2}, nil, nil, time.Now()))
	b.Add(NewErrorRecord("2025050202", "boom", time.Now()))
	b.Add(NewSuccessRecord("2025050203", "", "", nil, nil, nil, time.Now()))

	report := b.Build()
	assert.Equal(t, 3, report.TotalRaces)
	assert.Equal(t, 2, report.SuccessfulRaces)
	assert.Equal(t, 1, report.FailedRaces)
	assert.Equal(t, report.TotalRaces, report.SuccessfulRaces+report.FailedRaces)
	assert.Len(t, report.Races, 3)
	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, "2025050202", report.Races[1].RaceID)
}

func TestReportBuilderAllFailed(t *testing.T) {
	b := NewReportBuilder("20250504", "run", 1)
	b.Add(NewErrorRecord("2025050201", "boom", time.Now()))
	assert.Equal(t, StatusError, b.Build().Status)

	failed := NewFailedReport("20250504", "run", "no races")
	assert.Equal(t, 0, failed.TotalRaces)
	assert.Equal(t, StatusError, failed.Status)
	assert.NotEmpty(t, failed.Message)
}

func TestSortedAccessors(t *testing.T) {
	assert.Equal(t, []int{1, 2, 10}, WinOdds{10: 1, 2: 1, 1: 1}.Horses())
	q := QuinellaOdds{{3, 9}: 1, {3, 1}: 1, {3, 4}: 1}
	assert.Equal(t, []Pair{{3, 1}, {3, 4}, {3, 9}}, q.Pairs())
}
