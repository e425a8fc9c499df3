package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL   string
	Timeout      time.Duration
	CacheTTL     time.Duration
	Token        string
	RefreshToken string
	Role         string
	// Multi-file photo upload support of the target backend.
	MultiFileUploads bool
}

func Load() Config {
	return Config{
		APIBaseURL:       getenv("BITACORA_API_URL", "http://localhost:8787"),
		Timeout:          time.Duration(getenvInt("BITACORA_TIMEOUT_SECONDS", 15)) * time.Second,
		CacheTTL:         time.Duration(getenvInt("BITACORA_CACHE_TTL_SECONDS", 60)) * time.Second,
		Token:            getenv("BITACORA_TOKEN", ""),
		RefreshToken:     getenv("BITACORA_REFRESH_TOKEN", ""),
		Role:             getenv("BITACORA_ROLE", "viewer"),
		MultiFileUploads: getenvInt("BITACORA_MULTI_FILE_UPLOADS", 1) != 0,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
