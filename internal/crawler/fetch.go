package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sjsage522/oddsworker/internal/odds"
	"sjsage522/oddsworker/internal/page"
	"sjsage522/oddsworker/internal/race"
	"sjsage522/oddsworker/logger"
	apperrors "sjsage522/oddsworker/pkg/errors"
	"sjsage522/oddsworker/services/cache"
)

const snapshotKeyPrefix = "odds_snapshot:"

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	PortalURL    string
	StepTimeout  time.Duration
	PollInterval time.Duration
	// SnapshotTTL is how long a successful record is served from cache; 0 disables
	SnapshotTTL time.Duration
}

// Fetcher produces one RaceOddsRecord per race identifier. Each call uses its
// own browser session which is closed before returning.
type Fetcher struct {
	browser  Browser
	contract page.Contract
	venues   race.VenueTable
	opts     FetcherOptions
	CacheSvc cache.CacheService
	now      func() time.Time
	log      *logger.Logger
}

// NewFetcher creates a new fetcher. cacheSvc may be nil.
func NewFetcher(browser Browser, contract page.Contract, venues race.VenueTable, opts FetcherOptions, cacheSvc cache.CacheService) *Fetcher {
	return &Fetcher{
		browser:  browser,
		contract: contract,
		venues:   venues,
		opts:     opts,
		CacheSvc: cacheSvc,
		now:      time.Now,
		log:      logger.ForFetcher(),
	}
}

// FetchRace never returns an error: every failure becomes an error record.
func (f *Fetcher) FetchRace(ctx context.Context, raceID string) odds.RaceOddsRecord {
	id, err := race.ParseID(raceID, f.venues)
	if err != nil {
		return odds.NewErrorRecord(raceID, apperrors.Reason(err), f.now())
	}

	if rec, ok := f.cached(id); ok {
		f.log.Debug().Str("race_id", raceID).Msg("Serving odds snapshot from cache")
		return rec
	}

	rec := f.fetch(ctx, id)
	if rec.OK() {
		f.store(rec)
	}
	return rec
}

func (f *Fetcher) fetch(ctx context.Context, id race.ID) odds.RaceOddsRecord {
	log := f.log.WithField("race_id", id.String())
	log.Info().Str("race", id.Describe()).Msg("Fetching odds")

	session, err := f.browser.NewSession(ctx)
	if err != nil {
		err = apperrors.NewBrowser(id.String(), "start browser session", err)
		log.Error().Err(err).Msg("Browser session failed")
		return odds.NewErrorRecord(id.String(), apperrors.Reason(err), f.now())
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing browser session")
		}
	}()

	nav := NewNavigator(session, f.contract, NavigatorOptions{
		PortalURL:    f.opts.PortalURL,
		StepTimeout:  f.opts.StepTimeout,
		PollInterval: f.opts.PollInterval,
	}, id)

	if err := nav.GoToRace(ctx); err != nil {
		log.Error().Err(err).Msg("Navigation failed")
		return odds.NewErrorRecord(id.String(), apperrors.Reason(err), f.now())
	}

	result, err := NewExtractor(nav, f.contract).Extract(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		return odds.NewErrorRecord(id.String(), apperrors.Reason(err), f.now())
	}

	rec := odds.NewSuccessRecord(id.String(), result.Header.RaceName, result.Header.PostTime,
		result.Win, result.Place, result.Quinella, f.now())

	log.Info().
		Bool("fallback", nav.UsedFallback()).
		Int("win", len(rec.Win)).
		Int("place", len(rec.Place)).
		Int("quinella", len(rec.Quinella)).
		Msg("Odds fetched")
	return rec
}

func (f *Fetcher) cacheEnabled() bool {
	return f.CacheSvc != nil && f.opts.SnapshotTTL > 0
}

func (f *Fetcher) cached(id race.ID) (odds.RaceOddsRecord, bool) {
	if !f.cacheEnabled() {
		return odds.RaceOddsRecord{}, false
	}
	data, err := f.CacheSvc.Get(snapshotKeyPrefix + id.String())
	if errors.Is(err, cache.ErrMiss) {
		return odds.RaceOddsRecord{}, false
	}
	if err != nil {
		f.log.Warn().Err(err).Str("race_id", id.String()).Msg("Snapshot cache unavailable")
		return odds.RaceOddsRecord{}, false
	}
	var rec odds.RaceOddsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		f.log.Warn().Err(apperrors.NewCache(snapshotKeyPrefix+id.String(), "decode snapshot", err)).Msg("Ignoring cached snapshot")
		return odds.RaceOddsRecord{}, false
	}
	return rec, true
}

func (f *Fetcher) store(rec odds.RaceOddsRecord) {
	if !f.cacheEnabled() {
		return
	}
	key := snapshotKeyPrefix + rec.RaceID
	data, err := json.Marshal(rec)
	if err != nil {
		f.log.Warn().Err(apperrors.NewCache(key, "encode snapshot", err)).Msg("Snapshot not cached")
		return
	}
	if err := f.CacheSvc.Set(key, data, f.opts.SnapshotTTL); err != nil {
		f.log.Warn().Err(apperrors.NewCache(key, "store snapshot", err)).Msg("Snapshot not cached")
	}
}
