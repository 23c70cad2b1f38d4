package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv layers environment overrides on top of the loaded config.
// Unset or malformed variables leave the existing values alone.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("CRUMBWISE_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("CRUMBWISE_DATA_DIR")); v != "" {
		c.Server.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CRUMBWISE_CALENDAR_URL")); v != "" {
		c.External.CalendarBaseURL = v
	}
	if v := getEnvInt("CRUMBWISE_REQUEST_TIMEOUT_SECONDS"); v > 0 {
		c.External.RequestTimeoutSeconds = v
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
