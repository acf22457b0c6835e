package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Amund211/fetchcache/internal/adapters/cache"
	"github.com/Amund211/fetchcache/internal/adapters/fetcher"
	"github.com/Amund211/fetchcache/internal/app"
	"github.com/Amund211/fetchcache/internal/config"
	"github.com/Amund211/fetchcache/internal/logging"
	"github.com/Amund211/fetchcache/internal/measures"
	"github.com/Amund211/fetchcache/internal/reporting"
	"github.com/Amund211/fetchcache/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	// Root CAs for minimal container images
	_ "golang.org/x/crypto/x509roots/fallback"
)

const (
	// How long to idle between the two groups
	idleBetweenGroups = 10 * time.Second
	// Upper bound for the idle period, also when a heartbeat is slow
	idleCancelAfter = 25 * time.Second
)

func main() {
	instanceID := uuid.New().String()
	bootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("instanceID", instanceID)

	var flush flushers
	defer flush.run()
	fail := newFail(bootLogger, &flush, os.Exit)

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	bootLogger.Info("Loaded config", "config", conf.NonSensitiveString())

	descriptors, err := descriptorsFromArgs(os.Args[1:], conf.MaxPermits())
	if err != nil {
		fail("Failed to parse descriptors", "error", err.Error())
	}

	logger, flushLogs, err := logging.New(conf.LogBackend(), os.Stderr, conf.IsDevelopment(), conf.GCPProject(), instanceID)
	if err != nil {
		fail("Failed to initialize logger", "error", err.Error())
	}
	flush.add(flushLogs)

	ctx := context.Background()

	flushSentry, err := reporting.NewSentryOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	flush.add(flushSentry)
	logger.Info(ctx, "Initialized Sentry", nil)

	if conf.OTelEnabled() {
		shutdown, err := telemetry.SetupOTelSDK(ctx, "fetchcache")
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error(ctx, "Failed to shut down OpenTelemetry", logging.Fields{"error": err.Error()})
			}
		}()
		logger.Info(ctx, "Initialized OpenTelemetry", nil)
	}

	counters := measures.NewCounters()
	otelCollector, err := measures.NewOTelCollector(otel.Meter("fetchcache/measures"))
	if err != nil {
		fail("Failed to initialize metrics", "error", err.Error())
	}
	collector := measures.Multi(counters, otelCollector)

	f, stopFetcher, err := fetcher.NewFetcherOrMock(
		conf,
		fetcher.NewHTTPClient(conf.FetchTimeout()),
		logger,
		time.Now,
		time.After,
	)
	if err != nil {
		fail("Failed to initialize fetcher", "error", err.Error())
	}
	defer stopFetcher()

	responses := cache.NewTimeStampedCache(f.Fetch, logger, collector, time.Now)
	resolve := app.BuildResolve(responses, logger, collector, conf.AdmissionTimeout())
	resolveMany := app.BuildResolveMany(resolve, logger, conf.BatchDeadline(), conf.HeartbeatInterval())

	logger.Info(ctx, "Init complete", logging.Fields{"descriptors": len(descriptors)})

	fmt.Println("First group")
	if err := resolveMany(ctx, descriptors); err != nil {
		logger.Warn(ctx, "First group did not finish", logging.Fields{"error": err.Error()})
	}
	printStatus(os.Stdout, counters.Snapshot(), responses.Size())

	fmt.Printf("Wait for %s\n", idleBetweenGroups)
	idle(ctx, logger, conf.HeartbeatInterval())

	fmt.Println("Second group")
	if err := resolveMany(ctx, descriptors); err != nil {
		logger.Warn(ctx, "Second group did not finish", logging.Fields{"error": err.Error()})
	}

	fmt.Println("end")
	printStatus(os.Stdout, counters.Snapshot(), responses.Size())
}

// flushers holds the flush funcs of the logger and error reporting
type flushers []func()

func (f *flushers) add(fn func()) {
	*f = append(*f, fn)
}

// run calls the registered funcs once, most recent first
func (f *flushers) run() {
	for i := len(*f) - 1; i >= 0; i-- {
		(*f)[i]()
	}
	*f = nil
}

// newFail returns a func that logs msg, flushes and exits with status 1.
// os.Exit skips deferred calls, so buffered logs and reports are flushed first.
func newFail(bootLogger *slog.Logger, flush *flushers, exit func(int)) func(msg string, args ...any) {
	return func(msg string, args ...any) {
		bootLogger.Error(msg, args...)
		flush.run()
		exit(1)
	}
}

// idle keeps a heartbeat running until idleBetweenGroups passed
func idle(ctx context.Context, logger logging.Logger, heartbeatInterval time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, idleCancelAfter)
	defer cancel()

	stop := app.StartWatchdog(ctx, logger, heartbeatInterval, func() int { return 1 })
	defer stop()

	select {
	case <-time.After(idleBetweenGroups):
	case <-ctx.Done():
	}
}
