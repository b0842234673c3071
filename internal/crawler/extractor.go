package crawler

import (
	"context"

	"sjsage522/oddsworker/internal/odds"
	"sjsage522/oddsworker/internal/page"
	"sjsage522/oddsworker/logger"
	apperrors "sjsage522/oddsworker/pkg/errors"
)

// Result is everything read from one race's odds pages
type Result struct {
	Header   page.Header
	Win      odds.WinOdds
	Place    odds.PlaceOdds
	Quinella odds.QuinellaOdds
}

// Extractor reads odds tables from a navigator positioned on a race
type Extractor struct {
	nav      *Navigator
	contract page.Contract
	log      *logger.Logger
}

// NewExtractor creates an extractor bound to nav
func NewExtractor(nav *Navigator, contract page.Contract) *Extractor {
	return &Extractor{
		nav:      nav,
		contract: contract,
		log:      logger.ForRace("extractor", nav.RaceID().String()),
	}
}

// Extract reads header, win/place and favorite-anchored quinella odds.
// Unparseable rows are dropped and logged. Tab navigation failures are returned.
func (e *Extractor) Extract(ctx context.Context) (Result, error) {
	res := Result{
		Header:   page.Header{RaceName: odds.Unknown, PostTime: odds.Unknown},
		Win:      odds.WinOdds{},
		Place:    odds.PlaceOdds{},
		Quinella: odds.QuinellaOdds{},
	}

	if doc, err := e.nav.Snapshot(ctx); err == nil {
		res.Header = e.contract.ParseHeader(doc)
	} else {
		e.log.Warn().Err(err).Msg("Could not read race header")
	}

	if err := e.nav.SelectTab(ctx, page.WinPlace); err != nil {
		return res, err
	}
	doc, err := e.nav.Snapshot(ctx)
	if err != nil {
		return res, err
	}
	if res.Header.RaceName == odds.Unknown || res.Header.PostTime == odds.Unknown {
		res.Header = mergeHeader(res.Header, e.contract.ParseHeader(doc))
	}

	var problems []error
	res.Win, res.Place, problems = e.contract.ParseWinPlace(doc)
	e.report("win_place", problems)

	favorite, ok := res.Win.Favorite()
	if !ok {
		e.log.Warn().Msg("No win odds parsed, skipping quinella")
		return res, nil
	}
	e.log.Debug().
		Int("favorite", favorite).
		Float64("win_odds", res.Win[favorite]).
		Msg("Favorite selected")

	if err := e.nav.SelectTab(ctx, page.Quinella); err != nil {
		return res, err
	}
	doc, err = e.nav.Snapshot(ctx)
	if err != nil {
		return res, err
	}
	res.Quinella, problems = e.contract.ParseQuinella(doc, favorite)
	e.report("quinella", problems)

	return res, nil
}

func (e *Extractor) report(table string, problems []error) {
	for _, p := range problems {
		err := apperrors.NewExtraction(e.nav.RaceID().String(), table+" value skipped", p)
		e.log.Warn().Err(err).Msg("Partial odds")
	}
}

func mergeHeader(have, fresh page.Header) page.Header {
	if have.RaceName == odds.Unknown {
		have.RaceName = fresh.RaceName
	}
	if have.PostTime == odds.Unknown {
		have.PostTime = fresh.PostTime
	}
	return have
}
