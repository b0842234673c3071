package page

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"sjsage522/oddsworker/internal/odds"

	"github.com/PuerkitoBio/goquery"
)

var postTimePattern = regexp.MustCompile(`(\d+)時\s*(\d+)分`)

// Header is the race identification shown above the odds tables
type Header struct {
	RaceName string
	PostTime string
}

// ParseHeader reads race name and post time. Missing values come back as
// odds.Unknown; the header is best effort.
func (c Contract) ParseHeader(doc *goquery.Document) Header {
	h := Header{RaceName: odds.Unknown, PostTime: odds.Unknown}

	if name := strings.TrimSpace(doc.Find(c.HeaderTitle).First().Text()); name != "" {
		h.RaceName = NormalizeText(name)
	}

	if m := postTimePattern.FindStringSubmatch(doc.Find(c.HeaderTime).First().Text()); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			h.PostTime = fmt.Sprintf("%02d:%02d", hour, minute)
		}
	}
	return h
}

// RowError describes a table row that was skipped
type RowError struct {
	Table string
	Row   int
	Cell  string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %s: %v", e.Table, e.Row, e.Cell, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseWinPlace reads the combined win/place table. Rows with an unreadable
// horse number are skipped; a row missing only one of its prices still
// contributes the other one. Skipped cells are reported in the error slice.
func (c Contract) ParseWinPlace(doc *goquery.Document) (odds.WinOdds, odds.PlaceOdds, []error) {
	win := odds.WinOdds{}
	place := odds.PlaceOdds{}
	var problems []error

	table := doc.Find(c.WinPlaceTable).First()
	if table.Length() == 0 {
		return win, place, []error{fmt.Errorf("table %q not found", c.WinPlaceTable)}
	}

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		horseCell := row.Find(c.HorseCell)
		if horseCell.Length() == 0 {
			return
		}
		horse, err := parseHorse(horseCell.First().Text())
		if err != nil {
			problems = append(problems, &RowError{Table: "win_place", Row: i, Cell: c.HorseCell, Err: err})
			return
		}

		if cell := row.Find(c.WinCell); cell.Length() > 0 {
			if price, err := parseOdds(cell.First().Text()); err == nil {
				win[horse] = price
			} else {
				problems = append(problems, &RowError{Table: "win_place", Row: i, Cell: c.WinCell, Err: err})
			}
		}

		if cell := row.Find(c.PlaceCell); cell.Length() > 0 {
			low := cell.Find(c.PlaceLow)
			high := cell.Find(c.PlaceHigh)
			if low.Length() == 0 || high.Length() == 0 {
				return
			}
			lo, errLo := parseOdds(low.First().Text())
			hi, errHi := parseOdds(high.First().Text())
			if errLo != nil || errHi != nil {
				problems = append(problems, &RowError{Table: "win_place", Row: i, Cell: c.PlaceCell, Err: firstErr(errLo, errHi)})
				return
			}
			place[horse] = odds.Midpoint(lo, hi)
		}
	})

	return win, place, problems
}

// ParseQuinella reads only the group whose caption is the favorite. Every
// other group is ignored, which keeps the work linear in the field size.
func (c Contract) ParseQuinella(doc *goquery.Document, favorite int) (odds.QuinellaOdds, []error) {
	quinella := odds.QuinellaOdds{}
	var problems []error

	doc.Find(c.QuinellaGroups).EachWithBreak(func(_ int, group *goquery.Selection) bool {
		caption := group.Find(c.QuinellaCaption)
		if caption.Length() == 0 {
			return true
		}
		first, err := parseHorse(caption.First().Text())
		if err != nil || first != favorite {
			return true
		}

		group.Find(c.QuinellaRows).Each(func(i int, row *goquery.Selection) {
			horseCell := row.Find(c.QuinellaHorse)
			oddsCell := row.Find(c.QuinellaOdds)
			if horseCell.Length() == 0 || oddsCell.Length() == 0 {
				return
			}
			second, err := parseHorse(horseCell.First().Text())
			if err != nil {
				problems = append(problems, &RowError{Table: "quinella", Row: i, Cell: c.QuinellaHorse, Err: err})
				return
			}
			if second == favorite {
				return
			}
			price, err := parseOdds(oddsCell.First().Text())
			if err != nil {
				problems = append(problems, &RowError{Table: "quinella", Row: i, Cell: c.QuinellaOdds, Err: err})
				return
			}
			quinella[odds.Pair{First: favorite, Second: second}] = price
		})
		return false
	})

	return quinella, problems
}

func parseHorse(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("horse number %q: %w", strings.TrimSpace(text), err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("horse number %d out of range", n)
	}
	return n, nil
}

// parseOdds reads a decimal price, stripping thousands separators.
func parseOdds(text string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("odds %q: %w", strings.TrimSpace(text), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("odds %q must be a positive number", cleaned)
	}
	return v, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
