// Package config provides configuration helpers for go-forager commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment says nothing.
const (
	DefaultFeedURL       = "ws://localhost:8765/frames"
	DefaultDashboardPort = "8181"
	DefaultLogLevel      = "info"
)

// FeedURL returns the detector service websocket URL from FEED_URL
func FeedURL() string {
	return Env("FEED_URL", DefaultFeedURL)
}

// DashboardPort returns the dashboard port from DASHBOARD_PORT.
// An empty value disables the dashboard.
func DashboardPort() string {
	if port, ok := os.LookupEnv("DASHBOARD_PORT"); ok {
		return port
	}
	return DefaultDashboardPort
}

// CatalogPath returns CATALOG_PATH, or "" for the embedded catalog
func CatalogPath() string {
	return os.Getenv("CATALOG_PATH")
}

// TuningPath returns TUNING_PATH, or "" for the default tuning
func TuningPath() string {
	return os.Getenv("TUNING_PATH")
}

// ModelPath returns MODEL_PATH, the YOLO ONNX model used for binary
// frames. "" disables local detection.
func ModelPath() string {
	return os.Getenv("MODEL_PATH")
}

// LogLevel returns LOG_LEVEL or "info"
func LogLevel() string {
	return Env("LOG_LEVEL", DefaultLogLevel)
}

// Env returns the named variable, or def if it is unset or empty
func Env(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// EnvBool parses the named variable as a bool, falling back to def
func EnvBool(name string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return def
	}
	return v
}
