package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by ROSTERVET_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("ROSTERVET_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// VerifierProvider returns the configured verification backend.
// Defaults to "live" if not set. Valid values: live, mock.
func VerifierProvider() string {
	p := os.Getenv("VERIFIER_PROVIDER")
	if p == "" {
		return "live"
	}
	return p
}

// RegistryURL overrides the NPI registry endpoint. Empty means the public
// registry.
func RegistryURL() string {
	return os.Getenv("NPI_API_URL")
}

// GeocoderURL overrides the Nominatim endpoint. Empty means the public
// service.
func GeocoderURL() string {
	return os.Getenv("NOMINATIM_URL")
}

// VerifyTimeout returns the per-call timeout for verification lookups.
// Defaults to 10s if not set.
func VerifyTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("VERIFY_TIMEOUT"))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// VerifyPacing returns the minimum interval between calls to one external
// authority. Defaults to 1s if not set.
func VerifyPacing() time.Duration {
	d, err := time.ParseDuration(os.Getenv("VERIFY_PACING"))
	if err != nil || d <= 0 {
		return 1 * time.Second
	}
	return d
}

// ValidationBatchSize returns how many pending records one run pulls.
// Defaults to 25 if not set.
func ValidationBatchSize() int {
	n, err := strconv.Atoi(os.Getenv("VALIDATION_BATCH_SIZE"))
	if err != nil || n <= 0 {
		return 25
	}
	return n
}

// ValidationInterval returns the schedule for background validation runs.
// Zero disables the background runner. Defaults to 15m if not set.
func ValidationInterval() time.Duration {
	v := os.Getenv("VALIDATION_INTERVAL")
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 15 * time.Minute
	}
	return d
}

// RateLimitRPS returns requests per second limit for the HTTP API.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for API rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
