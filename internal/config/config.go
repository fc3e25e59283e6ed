package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageBackend selects the document-store implementation.
type StorageBackend string

const (
	StorageLocal StorageBackend = "local"
	StorageAzure StorageBackend = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	RecognitionTimeout time.Duration
	MaxRequestBodySize int64

	// Orchestration
	ConfidenceThreshold float64
	MaxWorkers          int

	// Cache
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// Tiling
	TileSize           int
	TileOverlapPx      int
	DirectMaxDimension int

	// Region detection
	MinRegionArea int

	// Storage
	Backend          StorageBackend
	LocalStorageRoot string
	AzureAccount     string
	AzureKey         string
	AzureContainer   string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		RecognitionTimeout: parseDurationOrDefault("RECOGNITION_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 25*1024*1024), // 25MB

		ConfidenceThreshold: parseFloatOrDefault("CONFIDENCE_THRESHOLD", 90.0),
		MaxWorkers:          int(parseIntOrDefault("MAX_WORKERS", 3)),

		CacheTTL:           parseDurationOrDefault("CACHE_TTL", 24*time.Hour),
		CacheSweepInterval: parseDurationOrDefault("CACHE_SWEEP_INTERVAL", 10*time.Minute),

		TileSize:           int(parseIntOrDefault("TILE_SIZE", 1024)),
		TileOverlapPx:      int(parseIntOrDefault("TILE_OVERLAP_PX", 64)),
		DirectMaxDimension: int(parseIntOrDefault("DIRECT_MAX_DIMENSION", 2000)),

		MinRegionArea: int(parseIntOrDefault("MIN_REGION_AREA", 900)),

		Backend:          StorageBackend(getEnvOrDefault("STORAGE_BACKEND", string(StorageLocal))),
		LocalStorageRoot: getEnvOrDefault("LOCAL_STORAGE_ROOT", os.TempDir()),
		AzureAccount:     os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:         os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:   getEnvOrDefault("AZURE_STORAGE_CONTAINER", "documents"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.RecognitionTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, recognition=%s)",
			cfg.RequestTimeout, cfg.RecognitionTimeout)
	}
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 100 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must be in (0,100] (got %v)", cfg.ConfidenceThreshold)
	}
	if cfg.MaxWorkers <= 0 {
		return nil, fmt.Errorf("MAX_WORKERS must be > 0 (got %d)", cfg.MaxWorkers)
	}
	if cfg.TileSize <= 0 || cfg.TileOverlapPx < 0 || cfg.TileOverlapPx >= cfg.TileSize {
		return nil, fmt.Errorf("invalid tiling config (size=%d, overlap=%d)", cfg.TileSize, cfg.TileOverlapPx)
	}
	if cfg.DirectMaxDimension <= 0 {
		return nil, fmt.Errorf("DIRECT_MAX_DIMENSION must be > 0 (got %d)", cfg.DirectMaxDimension)
	}
	switch cfg.Backend {
	case StorageLocal:
	case StorageAzure:
		if cfg.AzureAccount == "" || cfg.AzureKey == "" {
			return nil, fmt.Errorf("azure backend requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND: %q", cfg.Backend)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
