// Command telemetryd is an example wiring binary for the transmission
// policy manager: it loads configuration, constructs the scheduler's
// collaborators, starts the manager, and feeds it a small demo stream of
// events so the scheduling and backoff behavior can be observed end to
// end. A production deployment would replace pkg/ingest's stub packager
// with a real event store and HTTP client.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/auriora/telemetrypm/internal/config"
	"github.com/auriora/telemetrypm/internal/logging"
	"github.com/auriora/telemetrypm/pkg/clock"
	"github.com/auriora/telemetrypm/pkg/dispatcher"
	"github.com/auriora/telemetrypm/pkg/ingest"
	"github.com/auriora/telemetrypm/pkg/metrics"
	"github.com/auriora/telemetrypm/pkg/persist"
	"github.com/auriora/telemetrypm/pkg/profile"
	"github.com/auriora/telemetrypm/pkg/tpm"
)

func usage() {
	fmt.Printf(`telemetryd - demo host for the transmission policy manager.

This program starts the scheduler against a stub packager and emits a
synthetic stream of events so the scheduling and backoff behavior can be
observed through logs.

Usage: telemetryd [options]

Valid options:
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.StringP("config-file", "f", config.DefaultConfigPath(),
		"A YAML-formatted configuration file used by telemetryd.")
	statePath := flag.StringP("state-file", "s", "", "Path to the bbolt database used to persist backoff state across restarts.")
	logLevel := flag.StringP("log", "l", "", "Logging level: fatal, error, warn, info, debug, trace.")
	eventCount := flag.IntP("events", "n", 20, "Number of synthetic events to emit before exiting.")
	flag.Usage = usage
	flag.Parse()

	cfg := config.Load(*configPath)
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if level, err := logging.ParseLevel(cfg.LogLevel); err == nil {
		logging.SetGlobalLevel(level)
	} else {
		logging.LogError(err, "invalid log level in configuration, leaving level unchanged")
	}

	prof := profile.NewStatic(profile.Triple{4000, 2000, 4000})
	disp := dispatcher.NewSerial()
	defer disp.Stop()
	observer := metrics.NewObserver(cfg.MetricsNamespace)

	packager := &ingest.StaticPackager{
		Resolve: func(ctx tpm.UploadContext, o ingest.Outcomes) {
			switch {
			case rand.Intn(10) == 0:
				o.HandleEventsUploadFailed(ctx)
			case rand.Intn(5) == 0:
				o.HandleEventsUploadRejected(ctx)
			default:
				o.HandleEventsUploadSuccessful(ctx)
			}
		},
	}

	manager := tpm.New(
		tpm.Config{
			MaxPendingRequests: cfg.MaxPendingRequests,
			BackoffSpec:        cfg.UploadRetryBackoff,
			StopTimeout:        time.Duration(cfg.StopTimeoutSeconds) * time.Second,
		},
		clock.NewMonotonic(),
		disp,
		prof,
		packager,
		observer,
		func() { logging.Info().Msg("all uploads finished") },
	)
	packager.Outcomes = manager

	var store *persist.Store
	if *statePath != "" {
		if s, err := persist.Open(*statePath); err == nil {
			store = s
			store.RestoreBackoff(manager.Backoff())
			defer func() {
				if err := store.SaveBackoff(manager.Backoff()); err != nil {
					logging.LogError(err, "could not save backoff state on exit")
				}
				store.Close()
			}()
		} else {
			logging.LogError(err, "could not open persistence store, continuing without it", "path", *statePath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager.HandleStart()
	logging.Info().Int("events", *eventCount).Msg("telemetryd started")

	for i := 0; i < *eventCount; i++ {
		if ctx.Err() != nil {
			break
		}
		manager.OnEventArrived(tpm.IncomingEvent{
			ID:      fmt.Sprintf("evt-%d", i),
			Latency: tpm.EventLatency(rand.Intn(int(tpm.Max) + 1)),
		})
		time.Sleep(50 * time.Millisecond)
	}

	manager.HandleStop(ctx)
	logging.Info().Msg("telemetryd stopped")
}
