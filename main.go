package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sjsage522/oddsworker/config"
	"sjsage522/oddsworker/internal/crawler"
	"sjsage522/oddsworker/internal/odds"
	"sjsage522/oddsworker/internal/page"
	"sjsage522/oddsworker/internal/race"
	"sjsage522/oddsworker/logger"
	apperrors "sjsage522/oddsworker/pkg/errors"
	"sjsage522/oddsworker/services/cache"
	"sjsage522/oddsworker/services/publisher"
	"sjsage522/oddsworker/services/resolver"
	"sjsage522/oddsworker/services/scheduler"
	"sjsage522/oddsworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Load environment variables
	godotenv.Load()

	// Load configuration, then the logger that depends on it
	cfg := config.LoadConfig()
	logger.Init(cfg.IsProduction())
	log := logger.Default

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	// Validate input before any browser work
	opts, err := parseArgs(args, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Invalid arguments")
		return 1
	}
	raceID, day := opts.raceID, opts.date

	log.Info().
		Str("environment", cfg.Environment).
		Str("portal", cfg.PortalURL).
		Msg("Starting odds worker")

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	browser := crawler.NewChromeBrowser(crawler.ChromeOptions{
		RemoteAddr:  cfg.ChromeAddr,
		Headless:    cfg.BrowserHeadless,
		StepTimeout: cfg.StepTimeout,
		ClickSettle: cfg.ClickSettle,
	})
	fetcher := crawler.NewFetcher(browser, page.DefaultContract(), race.DefaultVenues(), crawler.FetcherOptions{
		PortalURL:    cfg.PortalURL,
		StepTimeout:  cfg.StepTimeout,
		PollInterval: cfg.PollInterval,
		SnapshotTTL:  cfg.SnapshotTTL,
	}, services.Cache)

	w := worker.NewWorker(
		fetcher,
		resolver.NewFileResolver(cfg.RaceDataDir, cfg.RaceDataEncoding),
		services.Publisher,
		cfg.RequestInterval,
	)

	if raceID != "" {
		rec := w.FetchRace(ctx, raceID)
		if err := saveRecord(cfg.OutputDir, rec); err != nil {
			log.Error().Err(err).Msg("Failed to write result")
		}
		printRecord(os.Stdout, rec)
		if !rec.OK() {
			return 1
		}
		return 0
	}

	if opts.schedule == "" {
		report := w.FetchDaily(ctx, day)
		if err := saveReport(cfg.OutputDir, report); err != nil {
			log.Error().Err(err).Msg("Failed to write report")
		}
		printReport(os.Stdout, report)
		if report.Status != odds.StatusSuccess {
			return 1
		}
		return 0
	}

	return watchDate(ctx, w, day, opts.schedule, cfg.OutputDir)
}

// options is a validated command line
type options struct {
	raceID string
	// date is normalized to YYYYMMDD
	date string
	// schedule is set only in watch mode
	schedule string
}

// parseArgs accepts either a race id or -date, optionally with -watch.
// An explicit empty -watch falls back to WATCH_SCHEDULE.
func parseArgs(args []string, cfg *config.Config) (options, error) {
	fs := flag.NewFlagSet("oddsworker", flag.ContinueOnError)
	date := fs.String("date", "", "fetch every race held on `date` (YYYYMMDD or YYYY-MM-DD)")
	watch := fs.String("watch", "", "with -date, refetch on this cron `schedule` (seconds field first); \"\" uses WATCH_SCHEDULE")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: oddsworker <race_id>")
		fmt.Fprintln(fs.Output(), "       oddsworker -date <date> [-watch <schedule>]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, apperrors.NewValidation(strings.Join(args, " "), err.Error())
	}

	watchSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "watch" {
			watchSet = true
		}
	})

	var opts options
	switch {
	case *date == "" && fs.NArg() == 1:
		if watchSet {
			return options{}, apperrors.NewValidation(fs.Arg(0), "-watch requires -date")
		}
		if _, err := race.ParseID(fs.Arg(0), race.DefaultVenues()); err != nil {
			return options{}, err
		}
		opts.raceID = fs.Arg(0)
	case *date != "" && fs.NArg() == 0:
		normalized, err := race.NormalizeDate(*date)
		if err != nil {
			return options{}, err
		}
		opts.date = normalized
	default:
		fs.Usage()
		return options{}, apperrors.NewValidation(strings.Join(args, " "), "expected a race id or -date")
	}

	if watchSet {
		opts.schedule = *watch
		if opts.schedule == "" {
			opts.schedule = cfg.WatchSchedule
		}
		if opts.schedule == "" {
			return options{}, apperrors.NewValidation(opts.date, "-watch needs a schedule or WATCH_SCHEDULE")
		}
	}
	return opts, nil
}

// watchDate refreshes the report of day on schedule until a shutdown signal
func watchDate(ctx context.Context, w *worker.Worker, day, schedule, outputDir string) int {
	log := logger.Default

	job := scheduler.NewDailyJob(ctx, w, day, func(report odds.DailyOddsReport) error {
		printReport(os.Stdout, report)
		return saveReport(outputDir, report)
	})

	s := scheduler.New()
	if err := s.AddJob(schedule, job); err != nil {
		log.Error().Err(err).Msg("Invalid watch schedule")
		return 1
	}

	if err := s.RunNow(job); err != nil {
		log.Warn().Err(err).Msg("Initial fetch incomplete")
	}

	s.Start()
	<-ctx.Done()

	log.Info().Msg("Received shutdown signal")
	s.Stop()
	log.Info().Msg("Shutting down gracefully...")
	return 0
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices connects the optional cache and publisher. An
// unreachable service is logged and left out.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr, cfg.StepTimeout)
		if err := cacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Msg("Snapshot cache disabled")
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Publishing disabled")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}
