// Package app holds process-wide state: configuration, the logger and the
// settings derived from them.
package app

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"teleprompter-tracker/internal/align"
	"teleprompter-tracker/internal/config"
	"teleprompter-tracker/internal/events"
	"teleprompter-tracker/internal/observability/logging"
	"teleprompter-tracker/internal/service/stt"
	"teleprompter-tracker/internal/service/stt/google"
	"teleprompter-tracker/internal/service/supervisor"
	"teleprompter-tracker/internal/service/tracker"
)

const serviceName = "teleprompter-tracker"

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	appLogger.Debug().Msg("Teleprompter tracker application created")
	return a
}

// setupLogger configures zerolog. ZEROLOG_LOG_LEVEL overrides LOG_LEVEL and
// ENV=dev switches to console output.
func (a *Application) setupLogger() {
	logCfg := logging.DefaultConfig()
	logCfg.Level = a.Cfg.Observability.LogLevel
	logCfg.Format = a.Cfg.Observability.LogFormat

	if envLevel := os.Getenv("ZEROLOG_LOG_LEVEL"); envLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(envLevel)); err == nil {
			logCfg.Level = strings.ToLower(envLevel)
		}
	}
	if os.Getenv("ENV") == "dev" {
		logCfg.Format = "console"
	}

	logging.Init(logCfg)

	a.Logger = log.With().
		Str("service", serviceName).
		Str("principal", a.Cfg.Service.Principal).
		Str("component", "application").
		Logger()

	a.Logger.Debug().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("logFormat", logCfg.Format).
		Str("environment", os.Getenv("ENV")).
		Msg("Logger setup completed")
}

// RecognizerOptions returns the engine options of every session.
func (a *Application) RecognizerOptions() stt.Options {
	return stt.Options{
		Locale:         a.Cfg.STT.LanguageCode,
		InterimResults: a.Cfg.STT.InterimResults,
		Continuous:     a.Cfg.STT.Continuous,
	}
}

// TrackerConfig converts the configuration into tracker settings.
func (a *Application) TrackerConfig() tracker.Config {
	m := a.Cfg.Matcher
	s := a.Cfg.Supervisor
	return tracker.Config{
		Matcher: align.Config{
			WindowSize:          m.WindowSize,
			MinWindow:           m.MinWindow,
			RegionAhead:         m.RegionAhead,
			RegionBehind:        m.RegionBehind,
			Lead:                m.Lead,
			DistanceWeight:      m.DistanceWeight,
			Thresholds:          m.Thresholds,
			RefineSpan:          m.RefineSpan,
			SmoothingSamples:    m.SmoothingSamples,
			SmoothingMinSamples: m.SmoothingMinSamples,
		},
		Supervisor: supervisor.Config{
			RestartWindow:      s.RestartWindow,
			MaxRestarts:        s.MaxRestarts,
			MinSessionDuration: s.MinSessionDuration,
			Options:            a.RecognizerOptions(),
		},
	}
}

// GoogleConfig returns the Google streaming recognition settings.
func (a *Application) GoogleConfig() google.Config {
	cfg := google.DefaultConfig()
	cfg.LanguageCode = a.Cfg.STT.LanguageCode
	cfg.SampleRateHz = a.Cfg.STT.SampleRateHz
	cfg.AudioEncoding = a.Cfg.STT.AudioEncoding
	cfg.InterimResults = a.Cfg.STT.InterimResults
	return cfg
}

// EventsConfig returns the Kafka publisher settings.
func (a *Application) EventsConfig() *events.Config {
	k := a.Cfg.Kafka
	return &events.Config{
		Enabled:       k.Enabled,
		Brokers:       k.Brokers,
		TopicPosition: k.TopicPosition,
		TopicSession:  k.TopicSession,
		Principal:     k.Principal,
	}
}

// Start performs any startup work required before tracking.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("sttProvider", a.Cfg.STT.Provider).
		Msg("Teleprompter tracker starting")

	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().
		Dur("uptime", time.Since(a.StartupTime)).
		Msg("Teleprompter tracker shutting down")
}
