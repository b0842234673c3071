package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/oddsworker/internal/odds"
	"sjsage522/oddsworker/internal/race"
	"sjsage522/oddsworker/logger"
	apperrors "sjsage522/oddsworker/pkg/errors"
	"sjsage522/oddsworker/services/publisher"

	"github.com/google/uuid"
)

const (
	raceKeyPrefix   = "race:"
	reportKeyPrefix = "report:"
)

// RaceFetcher produces one record per race identifier and never fails
type RaceFetcher interface {
	FetchRace(ctx context.Context, raceID string) odds.RaceOddsRecord
}

// Resolver lists the race identifiers held on a normalized date
type Resolver interface {
	RaceIDs(ctx context.Context, date string) ([]string, error)
}

// Worker runs races one after another and aggregates them into daily reports
type Worker struct {
	fetcher   RaceFetcher
	resolver  Resolver
	publisher publisher.Publisher
	interval  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	newRunID  func() string
	now       func() time.Time
	log       *logger.Logger
}

// NewWorker creates a new worker. pub may be nil, in which case nothing is published.
func NewWorker(
	fetcher RaceFetcher,
	resolver Resolver,
	pub publisher.Publisher,
	interval time.Duration,
) *Worker {
	return &Worker{
		fetcher:   fetcher,
		resolver:  resolver,
		publisher: pub,
		interval:  interval,
		sleep:     sleepContext,
		newRunID:  uuid.NewString,
		now:       time.Now,
		log:       logger.ForWorker(),
	}
}

// FetchRace fetches and publishes a single race
func (w *Worker) FetchRace(ctx context.Context, raceID string) odds.RaceOddsRecord {
	rec := w.fetchOne(ctx, raceID)
	w.publish(raceKeyPrefix+raceID, rec)
	w.trim()
	return rec
}

// FetchDaily fetches every race held on date in order. It always returns a
// report; failures are carried inside it.
func (w *Worker) FetchDaily(ctx context.Context, dateInput string) odds.DailyOddsReport {
	runID := w.newRunID()

	date, err := race.NormalizeDate(dateInput)
	if err != nil {
		w.log.Error().Err(err).Str("date", dateInput).Msg("Invalid date")
		return odds.NewFailedReport(dateInput, runID, apperrors.Reason(err))
	}
	log := w.log.WithFields(logger.Fields{"date": date, "run_id": runID})

	ids, err := w.resolver.RaceIDs(ctx, date)
	if err != nil {
		log.Error().Err(err).Msg("Race lookup failed")
		return w.finish(odds.NewFailedReport(date, runID, apperrors.Reason(err)))
	}
	if len(ids) == 0 {
		log.Warn().Msg("No races found")
		return w.finish(odds.NewFailedReport(date, runID, fmt.Sprintf("no races found for %s", date)))
	}

	log.Info().Int("races", len(ids)).Msg("Starting daily fetch")
	start := time.Now()

	builder := odds.NewReportBuilder(date, runID, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			builder.Add(odds.NewErrorRecord(id, "batch canceled before fetch: "+err.Error(), w.now()))
			continue
		}

		rec := w.fetchOne(ctx, id)
		builder.Add(rec)
		w.publish(raceKeyPrefix+id, rec)

		log.Info().
			Str("race_id", id).
			Str("status", string(rec.Status)).
			Msgf("Race %d/%d done", i+1, len(ids))

		if i < len(ids)-1 && w.interval > 0 {
			if err := w.sleep(ctx, w.interval); err != nil {
				log.Warn().Err(err).Msg("Pacing interrupted")
			}
		}
	}

	report := w.finish(builder.Build())
	log.Info().
		Int("total", report.TotalRaces).
		Int("successful", report.SuccessfulRaces).
		Int("failed", report.FailedRaces).
		Dur("elapsed", time.Since(start)).
		Msg("Daily fetch finished")
	return report
}

// fetchOne shields the batch from a panicking fetch
func (w *Worker) fetchOne(ctx context.Context, raceID string) (rec odds.RaceOddsRecord) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Str("race_id", raceID).Interface("panic", r).Msg("Race fetch panicked")
			rec = odds.NewErrorRecord(raceID, fmt.Sprintf("unexpected failure: %v", r), w.now())
		}
	}()
	return w.fetcher.FetchRace(ctx, raceID)
}

func (w *Worker) finish(report odds.DailyOddsReport) odds.DailyOddsReport {
	w.publish(reportKeyPrefix+report.Date, report)
	w.trim()
	return report
}

func (w *Worker) publish(key string, v interface{}) {
	if w.publisher == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		w.log.Error().Err(apperrors.NewPublisher(key, "encode message", err)).Msg("Publish skipped")
		return
	}
	if err := w.publisher.Publish(key, data); err != nil {
		w.log.Error().Err(err).Str("key", key).Msg("Publish failed")
	}
}

func (w *Worker) trim() {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.TrimStreams(); err != nil {
		logger.LogError("worker", err, "Stream trimming failed")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
