package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/soltip/soltip/types"
)

// Load reads configuration from the environment, falling back to the
// soltip.app defaults. A .env file in the working directory is honored
// when present.
func Load() *types.Config {
	_ = godotenv.Load()

	cfg := types.DefaultConfig()

	if v := getEnv("SOLTIP_CLUSTER", ""); v != "" {
		cfg.Cluster = types.Cluster(v)
	}
	cfg.RPCURL = getEnv("SOLTIP_RPC_URL", cfg.RPCURL)

	cfg.Identity.Name = getEnv("SOLTIP_APP_NAME", cfg.Identity.Name)
	cfg.Identity.URI = getEnv("SOLTIP_APP_URI", cfg.Identity.URI)
	cfg.Identity.Icon = getEnv("SOLTIP_APP_ICON", cfg.Identity.Icon)

	cfg.LinkHost = getEnv("SOLTIP_LINK_HOST", cfg.LinkHost)
	cfg.LinkScheme = getEnv("SOLTIP_LINK_SCHEME", cfg.LinkScheme)

	if ms := getEnvInt("SOLTIP_CONFIRM_TIMEOUT_MS", 0); ms > 0 {
		cfg.ConfirmTimeout = time.Duration(ms) * time.Millisecond
	}

	cfg.ProfileDBPath = getEnv("SOLTIP_PROFILE_DB", cfg.ProfileDBPath)
	cfg.LogLevel = getEnv("SOLTIP_LOG_LEVEL", cfg.LogLevel)
	cfg.EnableMetrics = getEnvBool("SOLTIP_ENABLE_METRICS", cfg.EnableMetrics)

	return cfg
}

// Validate rejects configurations the service cannot run with.
func Validate(cfg *types.Config) error {
	if !cfg.Cluster.IsValid() {
		return &types.TipError{
			Code:    types.ErrCodeConfig,
			Message: "unknown cluster: " + cfg.Cluster.String(),
		}
	}
	if cfg.Identity.Name == "" || cfg.Identity.URI == "" {
		return &types.TipError{
			Code:    types.ErrCodeConfig,
			Message: "app identity requires a name and uri",
		}
	}
	if cfg.LinkHost == "" && cfg.LinkScheme == "" {
		return &types.TipError{
			Code:    types.ErrCodeConfig,
			Message: "at least one link marker (host or scheme) is required",
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
