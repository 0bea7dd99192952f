package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads .env files into the process environment. Variables already set
// in the environment win. With no paths, ".env" is used; a missing file is
// returned as an error the caller may ignore.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of key, or fallback if unset or invalid.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat returns the float value of key, or fallback if unset or invalid.
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

// LookupEnvFloat returns the float value of key and whether it was set to a
// valid number. Unlike GetEnvFloat it tells an explicit 0 apart from unset.
func LookupEnvFloat(key string) (float64, bool) {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// GetEnvBool returns the boolean value of key, or fallback if unset or invalid.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

// Server is the environment-driven configuration of cmd/server.
type Server struct {
	Port          string
	LogLevel      string
	LogFormat     string
	CatalogSource string
	CatalogDir    string
	MaxSessions   int
	Strict        bool

	// Stream overrides. A zero width or nil margin defers to the catalog.
	SegmentWidth float64
	StartMargin  *float64
	EndMargin    *float64
}

// FromEnv reads the server configuration from the environment.
func FromEnv() Server {
	return Server{
		Port:          GetEnv("PORT", "8080"),
		LogLevel:      GetEnv("LOG_LEVEL", "info"),
		LogFormat:     GetEnv("LOG_FORMAT", "json"),
		CatalogSource: GetEnv("CATALOG_SOURCE", ""),
		CatalogDir:    GetEnv("CATALOG_DIR", ".catalog"),
		MaxSessions:   GetEnvInt("MAX_SESSIONS", 64),
		Strict:        GetEnvBool("STRICT_INVARIANTS", false),
		SegmentWidth:  GetEnvFloat("SEGMENT_WIDTH", 0),
		StartMargin:   lookupEnvFloatPtr("START_MARGIN"),
		EndMargin:     lookupEnvFloatPtr("END_MARGIN"),
	}
}

func lookupEnvFloatPtr(key string) *float64 {
	if f, ok := LookupEnvFloat(key); ok {
		return &f
	}
	return nil
}
