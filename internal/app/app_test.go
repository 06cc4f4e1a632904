package app

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"teleprompter-tracker/internal/config"
	"teleprompter-tracker/internal/service/stt"
)

func TestApplication_TrackerConfig(t *testing.T) {
	cfg := config.Load()
	cfg.STT.LanguageCode = "ru-RU"
	cfg.STT.Continuous = false
	cfg.Matcher.Thresholds = []float64{0.2, 0.4}
	cfg.Supervisor.MaxRestarts = 5

	a := New(cfg)
	got := a.TrackerConfig()

	wantOpts := stt.Options{Locale: "ru-RU", InterimResults: cfg.STT.InterimResults, Continuous: false}
	if diff := cmp.Diff(wantOpts, got.Supervisor.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.2, 0.4}, got.Matcher.Thresholds); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
	if got.Supervisor.MaxRestarts != 5 {
		t.Errorf("expected 5 max restarts, got %d", got.Supervisor.MaxRestarts)
	}
	if got.Matcher.WindowSize != cfg.Matcher.WindowSize {
		t.Errorf("expected window %d, got %d", cfg.Matcher.WindowSize, got.Matcher.WindowSize)
	}
}

func TestApplication_StartRecordsStartupTime(t *testing.T) {
	os.Setenv("ENV", "dev")
	defer os.Unsetenv("ENV")

	a := New(config.Load())
	before := time.Now().UTC()

	if err := a.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.StartupTime.Before(before.Add(-time.Second)) {
		t.Errorf("unexpected startup time %v", a.StartupTime)
	}
	a.Shutdown()
}

func TestApplication_GoogleConfig(t *testing.T) {
	cfg := config.Load()
	cfg.STT.LanguageCode = "fr-FR"
	cfg.STT.SampleRateHz = 8000
	cfg.STT.AudioEncoding = "MULAW"

	got := New(cfg).GoogleConfig()

	if got.LanguageCode != "fr-FR" || got.SampleRateHz != 8000 || got.AudioEncoding != "MULAW" {
		t.Errorf("unexpected google config %+v", got)
	}
	if got.ChunkMillis != 100 {
		t.Errorf("expected default chunk of 100ms, got %d", got.ChunkMillis)
	}
}

func TestApplication_EventsConfig(t *testing.T) {
	cfg := config.Load()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = []string{"kafka-1:9092", "kafka-2:9092"}
	cfg.Kafka.Principal = "svc-test"

	got := New(cfg).EventsConfig()

	if !got.Enabled || got.Principal != "svc-test" {
		t.Errorf("unexpected events config %+v", got)
	}
	if diff := cmp.Diff(cfg.Kafka.Brokers, got.Brokers); diff != "" {
		t.Errorf("brokers mismatch (-want +got):\n%s", diff)
	}
	if got.TopicPosition != cfg.Kafka.TopicPosition || got.TopicSession != cfg.Kafka.TopicSession {
		t.Errorf("unexpected topics %+v", got)
	}
}
