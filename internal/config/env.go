package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "STUDIO_"

// FromEnv builds an overlay config from STUDIO_* environment variables.
// Unset or unparsable variables leave the corresponding field zero so Merge
// keeps the underlying value.
func FromEnv() *Config {
	return &Config{
		MediaDir:            getEnv("MEDIA_DIR", ""),
		Bind:                getEnv("BIND", ""),
		Port:                getEnvAsInt("PORT", 0),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		LogFormat:           getEnv("LOG_FORMAT", ""),
		DBMaxOpenConns:      getEnvAsInt("DB_MAX_OPEN_CONNS", 0),
		DBMaxIdleConns:      getEnvAsInt("DB_MAX_IDLE_CONNS", 0),
		PackEncoding:        getEnv("PACK_ENCODING", ""),
		ConversionAsync:     getEnvAsBool("CONVERSION_ASYNC", false),
		ConversionWorkers:   getEnvAsInt("CONVERSION_WORKERS", 0),
		ConversionQueueSize: getEnvAsInt("CONVERSION_QUEUE_SIZE", 0),
		RateLimitRPS:        getEnvAsFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 0),
		MaxUploadBytes:      int64(getEnvAsInt("MAX_UPLOAD_BYTES", 0)),
		DefaultCurrency:     getEnv("DEFAULT_CURRENCY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", ""),
		DisabledTools:       getEnvAsList("DISABLED_TOOLS"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(EnvPrefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := getEnv(key, ""); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
