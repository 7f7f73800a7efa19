package config

import (
	"errors"
	"os"
	"strings"
)

type HTTPConfig struct {
	Addr string
	// AllowedOrigins is the CORS allow-list for the host LMS front-end.
	// Empty allows any origin.
	AllowedOrigins []string
}

// PlatformConfig holds the connection settings for the external video platform.
type PlatformConfig struct {
	BaseURL string
	APIKey  string
	Secret  string
	Origin  string
}

// HostConfig holds the callback settings for the host LMS completion API.
// An empty BaseURL selects the in-memory development host.
type HostConfig struct {
	BaseURL string
	Token   string
}

type AppConfig struct {
	ServiceName         string
	LogLevel            string
	HTTP                HTTPConfig
	Platform            PlatformConfig
	Host                HostConfig
	AuthSecret          string
	ClearWatchedOnReset bool
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Addr:           strings.TrimSpace(os.Getenv("HTTP_ADDR")),
			AllowedOrigins: envList("CORS_ALLOWED_ORIGINS"),
		},
		Platform: PlatformConfig{
			BaseURL: strings.TrimSpace(os.Getenv("PLATFORM_URL")),
			APIKey:  strings.TrimSpace(os.Getenv("PLATFORM_API_KEY")),
			Secret:  strings.TrimSpace(os.Getenv("PLATFORM_SECRET")),
			Origin:  strings.TrimSpace(os.Getenv("PLATFORM_ORIGIN")),
		},
		Host: HostConfig{
			BaseURL: strings.TrimSpace(os.Getenv("HOST_API_URL")),
			Token:   strings.TrimSpace(os.Getenv("HOST_API_TOKEN")),
		},
		AuthSecret:          strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		ClearWatchedOnReset: envBool("CLEAR_WATCHED_ON_RESET", true),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "lessontrack"
	}
	if cfg.Platform.BaseURL == "" {
		return AppConfig{}, errors.New("PLATFORM_URL is required")
	}
	if cfg.Platform.Secret == "" {
		return AppConfig{}, errors.New("PLATFORM_SECRET is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
