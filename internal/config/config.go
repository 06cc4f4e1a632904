// Package config loads the tracker's configuration from the environment.
// Unset or unparsable variables fall back to their defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration holds all settings of the tracker service.
type Configuration struct {
	Service       ServiceConfig
	STT           STTConfig
	Matcher       MatcherConfig
	Supervisor    SupervisorConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the process and its status server.
type ServiceConfig struct {
	Principal string
	HTTPAddr  string
}

// STTConfig selects and configures the speech recognizer.
type STTConfig struct {
	Provider       string // mock or google
	LanguageCode   string
	SampleRateHz   int
	AudioEncoding  string
	InterimResults bool
	Continuous     bool
}

// MatcherConfig holds the alignment tuning constants.
type MatcherConfig struct {
	WindowSize          int
	MinWindow           int
	RegionAhead         int
	RegionBehind        int
	Lead                int
	DistanceWeight      float64
	Thresholds          []float64
	RefineSpan          int
	SmoothingSamples    int
	SmoothingMinSamples int
}

// SupervisorConfig holds the restart policy.
type SupervisorConfig struct {
	RestartWindow      time.Duration
	MaxRestarts        int
	MinSessionDuration time.Duration
}

// KafkaConfig configures position and session event publishing.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicPosition string
	TopicSession  string
	Principal     string
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-teleprompter-tracker")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			AudioEncoding:  envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
			InterimResults: envOrDefaultBool("STT_INTERIM_RESULTS", true),
			Continuous:     envOrDefaultBool("STT_CONTINUOUS", true),
		},
		Matcher: MatcherConfig{
			WindowSize:          envOrDefaultInt("MATCH_WINDOW", 6),
			MinWindow:           envOrDefaultInt("MATCH_MIN_WINDOW", 3),
			RegionAhead:         envOrDefaultInt("MATCH_REGION_AHEAD", 50),
			RegionBehind:        envOrDefaultInt("MATCH_REGION_BEHIND", 10),
			Lead:                envOrDefaultInt("MATCH_LEAD", 2),
			DistanceWeight:      envOrDefaultFloat("MATCH_DISTANCE_WEIGHT", 0.03),
			Thresholds:          envOrDefaultFloats("MATCH_THRESHOLDS", []float64{0.1, 0.3, 0.5}),
			RefineSpan:          envOrDefaultInt("MATCH_REFINE_SPAN", 2),
			SmoothingSamples:    envOrDefaultInt("SMOOTHING_SAMPLES", 3),
			SmoothingMinSamples: envOrDefaultInt("SMOOTHING_MIN_SAMPLES", 2),
		},
		Supervisor: SupervisorConfig{
			RestartWindow:      envOrDefaultDuration("RESTART_WINDOW", 60*time.Second),
			MaxRestarts:        envOrDefaultInt("RESTART_MAX", 60),
			MinSessionDuration: envOrDefaultDuration("RESTART_MIN_SESSION", time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicPosition: envOrDefault("KAFKA_TOPIC_POSITION", "teleprompter.position"),
			TopicSession:  envOrDefault("KAFKA_TOPIC_SESSION", "teleprompter.session"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// envOrDefaultFloats parses a comma separated list. Any invalid item
// discards the whole value.
func envOrDefaultFloats(key string, def []float64) []float64 {
	items := envOrDefaultList(key, nil)
	if items == nil {
		return def
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return def
		}
		out = append(out, f)
	}
	return out
}
