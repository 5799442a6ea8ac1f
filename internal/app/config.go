package app

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	RPCAddr            string
	RPCSharedSecret    string
	LogLevel           string
	LogFormat          string
	PlaylistRoot       string
	PlaylistURLPrefix  string
	StatusFilePath     string
	DayStartSec        float64
	DayLengthSec       float64
	SyncThresholdSec   float64
	StopThresholdSec   float64
	DummyLenSec        float64
	CronRolloverSpec   string
	NotifyMailAddress  string
	NotifyMailSender   string
	MailjetPublicKey   string
	MailjetPrivateKey  string
	OTELEndpoint       string
	OTELSampleRate     float64
	RateLimitPerSecond float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

func LoadConfig() Config {
	return Config{
		RPCAddr:            getEnv("PLAYOUT_RPC_ADDR", ":7937"),
		RPCSharedSecret:    getEnv("PLAYOUT_RPC_SECRET", ""),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		PlaylistRoot:       getEnv("PLAYOUT_PLAYLIST_ROOT", "playlists"),
		PlaylistURLPrefix:  getEnv("PLAYOUT_PLAYLIST_URL", ""),
		StatusFilePath:     getEnv("PLAYOUT_STATUS_FILE", "status.json"),
		DayStartSec:        getEnvFloat("PLAYOUT_DAY_START_SEC", 0),
		DayLengthSec:       getEnvFloat("PLAYOUT_DAY_LENGTH_SEC", 86400),
		SyncThresholdSec:   getEnvFloat("PLAYOUT_SYNC_THRESHOLD_SEC", 5),
		StopThresholdSec:   getEnvFloat("PLAYOUT_STOP_THRESHOLD_SEC", 2),
		DummyLenSec:        getEnvFloat("PLAYOUT_DUMMY_LEN_SEC", 20),
		CronRolloverSpec:   getEnv("CRON_ROLLOVER_SCHEDULE", "0 0 * * *"),
		NotifyMailAddress:  getEnv("PLAYOUT_NOTIFY_MAIL", ""),
		NotifyMailSender:   getEnv("PLAYOUT_NOTIFY_MAIL_SENDER", ""),
		MailjetPublicKey:   getEnv("MJ_APIKEY_PUBLIC", ""),
		MailjetPrivateKey:  getEnv("MJ_APIKEY_PRIVATE", ""),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRate:     getEnvFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		RateLimitPerSecond: getEnvFloat("PLAYOUT_RPC_RATE_PER_SEC", 5),
		RateLimitBurst:     int(getEnvInt64("PLAYOUT_RPC_RATE_BURST", 10)),
		CORSAllowedOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func parseCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
