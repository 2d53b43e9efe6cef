package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pasturewatch/degradation"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	MongoURI        string
	MongoDB         string
	JWTSecret       string
	JWTTTL          time.Duration
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Imagery processor.
	ImageryURI           string
	ImageryTimeout       time.Duration
	ImageryCollection    string
	MaxCloudPercentage   float64
	GroundSampleDistance float64
	LookbackMonths       int
	Breakpoints          degradation.Breakpoints

	// Generative text.
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	GeminiTimeout   time.Duration
	NarrativeRPS    float64
	LocationContext string
}

// loadConfig reads the environment, after an optional .env file in the working directory.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getenv("MONGO_DB", "pasturewatch"),
		JWTSecret:         getenv("JWT_SECRET", "change_me"),
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "json"),
		ImageryURI:        getenv("IMAGERY_URL", "http://127.0.0.1:8000"),
		ImageryCollection: getenv("IMAGERY_COLLECTION", "COPERNICUS/S2_SR"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		LocationContext:   getenv("LOCATION_CONTEXT", "a rural area in Brazil"),
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", "24h"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.ImageryTimeout, err = durationEnv("IMAGERY_TIMEOUT", "120s"); err != nil {
		return Config{}, err
	}
	if cfg.GeminiTimeout, err = durationEnv("GEMINI_TIMEOUT", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.MaxCloudPercentage, err = floatEnv("MAX_CLOUD_PERCENTAGE", "10"); err != nil {
		return Config{}, err
	}
	if cfg.GroundSampleDistance, err = floatEnv("GROUND_SAMPLE_DISTANCE", "10"); err != nil {
		return Config{}, err
	}
	if cfg.NarrativeRPS, err = floatEnv("NARRATIVE_RPS", "1"); err != nil {
		return Config{}, err
	}
	if cfg.LookbackMonths, err = strconv.Atoi(getenv("LOOKBACK_MONTHS", "6")); err != nil || cfg.LookbackMonths <= 0 {
		return Config{}, errors.New("invalid LOOKBACK_MONTHS")
	}
	if cfg.Breakpoints, err = degradation.ParseBreakpoints(getenv("NDVI_BREAKPOINTS", "0.15,0.3,0.5,0.7")); err != nil {
		return Config{}, fmt.Errorf("invalid NDVI_BREAKPOINTS: %w", err)
	}

	if cfg.MaxCloudPercentage < 0 || cfg.MaxCloudPercentage > 100 {
		return Config{}, errors.New("MAX_CLOUD_PERCENTAGE must be within 0..100")
	}
	if cfg.GroundSampleDistance <= 0 {
		return Config{}, errors.New("GROUND_SAMPLE_DISTANCE must be positive")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenv(k, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", k)
	}
	return d, nil
}

func floatEnv(k, def string) (float64, error) {
	f, err := strconv.ParseFloat(getenv(k, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", k)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
