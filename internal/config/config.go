package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cast"
)

type Config struct {
	Port        int
	DatabaseURL string
	RedisAddr   string
	JWTSecret   string
	AudioDir    string
	FFmpegPath  string
	FFprobePath string

	// Detection tuning, overridable from the settings table.
	CorrelationThreshold float64
	MaxConcurrentJobs    int
	RetainFailedDays     int
}

func Load() *Config {
	return &Config{
		Port:                 envInt("PORT", 8080),
		DatabaseURL:          env("DATABASE_URL", "postgres://aircheck:aircheck@db:5432/aircheck?sslmode=disable"),
		RedisAddr:            env("REDIS_ADDR", "redis:6379"),
		JWTSecret:            env("JWT_SECRET", "change-me-in-production"),
		AudioDir:             env("AUDIO_DIR", "/data/audio"),
		FFmpegPath:           env("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:          env("FFPROBE_PATH", "ffprobe"),
		CorrelationThreshold: 0.6,
		MaxConcurrentJobs:    2,
		RetainFailedDays:     7,
	}
}

// MergeFromDB overlays operator-tunable settings from the settings table.
// A missing table is not an error; defaults stand.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("[config] skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "correlation_threshold":
			c.CorrelationThreshold = cast.ToFloat64(value)
		case "max_concurrent_jobs":
			if v := cast.ToInt(value); v > 0 {
				c.MaxConcurrentJobs = v
			}
		case "retain_failed_days":
			if v := cast.ToInt(value); v > 0 {
				c.RetainFailedDays = v
			}
		case "ffmpeg_path":
			if value != "" {
				c.FFmpegPath = value
			}
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
