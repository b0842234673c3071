// Package page holds everything the worker assumes about the portal's markup.
// Functions here are pure: they take a parsed snapshot and return typed values,
// so they can be tested against fixtures without a browser.
package page

import (
	"fmt"
	"regexp"
	"strconv"
)

// Scope restricts a link search to part of the page. CSS is used on
// snapshots, XPath is used by the browser when clicking.
type Scope struct {
	CSS   string
	XPath string
}

// Whole document
var Document = Scope{}

// BetType selects one of the tabs on a race's odds page
type BetType int

const (
	WinPlace BetType = iota
	Quinella
)

func (b BetType) String() string {
	switch b {
	case WinPlace:
		return "win_place"
	case Quinella:
		return "quinella"
	default:
		return fmt.Sprintf("bet_type(%d)", int(b))
	}
}

// Contract is a versioned description of the portal's link labels and
// element selectors.
type Contract struct {
	Version string

	OddsLinkLabel    string
	ResultsLinkLabel string
	RaceLabelFormat  string
	ResultPanel      Scope

	TabStrip  Scope
	TabLabels map[BetType]string

	HeaderTitle string
	HeaderTime  string

	WinPlaceTable string
	HorseCell     string
	WinCell       string
	PlaceCell     string
	PlaceLow      string
	PlaceHigh     string

	QuinellaGroups  string
	QuinellaCaption string
	QuinellaRows    string
	QuinellaHorse   string
	QuinellaOdds    string
}

// DefaultContract describes the portal markup as of the 2025 season.
func DefaultContract() Contract {
	return Contract{
		Version: "jra-2025",

		OddsLinkLabel:    "オッズ",
		ResultsLinkLabel: "レース結果",
		RaceLabelFormat:  "%dレース",
		ResultPanel:      Scope{CSS: "#race_result", XPath: `//*[@id="race_result"]`},

		TabStrip: Scope{
			CSS:   "ul.nav.pills",
			XPath: `//ul[contains(concat(" ", normalize-space(@class), " "), " nav ")` +
				` and contains(concat(" ", normalize-space(@class), " "), " pills ")]`,
		},
		TabLabels: map[BetType]string{
			WinPlace: "単勝・複勝",
			Quinella: "馬連",
		},

		HeaderTitle: "div.race_header div.cell.title strong",
		HeaderTime:  "div.race_header div.cell.time strong",

		WinPlaceTable: "table.tanpuku",
		HorseCell:     "td.num",
		WinCell:       "td.odds_tan",
		PlaceCell:     "td.odds_fuku",
		PlaceLow:      "span.min",
		PlaceHigh:     "span.max",

		QuinellaGroups:  "ul.umaren_list li",
		QuinellaCaption: "caption",
		QuinellaRows:    "tbody tr",
		QuinellaHorse:   "th",
		QuinellaOdds:    "td",
	}
}

// OddsLink matches the global odds menu entry
func (c Contract) OddsLink() Matcher {
	return Exact(c.OddsLinkLabel)
}

// ResultsLink matches the race results listing entry
func (c Contract) ResultsLink() Matcher {
	return Contains(c.ResultsLinkLabel)
}

// RaceOddsLink matches the odds link inside the race result panel
func (c Contract) RaceOddsLink() Matcher {
	return Contains(c.OddsLinkLabel)
}

// MeetingLink matches "{ordinal}回{venue}{day}日". The identifier does not
// carry the ordinal, so any ordinal is accepted.
func (c Contract) MeetingLink(venue string, day int) Matcher {
	re := regexp.MustCompile(`\d+回` + regexp.QuoteMeta(venue) + strconv.Itoa(day) + `日`)
	return Pattern(re, fmt.Sprintf("N回%s%d日", venue, day))
}

// RaceLink matches "{n}レース" exactly
func (c Contract) RaceLink(number int) Matcher {
	return Exact(fmt.Sprintf(c.RaceLabelFormat, number))
}

// TabLink matches the tab for bet type b by substring
func (c Contract) TabLink(b BetType) (Matcher, bool) {
	label, ok := c.TabLabels[b]
	if !ok {
		return Matcher{}, false
	}
	return Contains(label), true
}
