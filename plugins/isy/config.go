package isy

import (
	"log/slog"
	"time"

	"isyhub/internal/config"
	"isyhub/internal/rate"
)

const defaultRequestsPerSecond = 5

// Config is the runtime client configuration.
type Config struct {
	Host               string
	Username           string
	Password           string
	UseHTTPS           bool
	InsecureSkipVerify bool
	Timeout            time.Duration
	RequestsPerSecond  int
	Logger             *slog.Logger
}

// FromConfig resolves the runtime configuration from the loaded config
// section, reading the password file when one is set.
func FromConfig(section *config.ISYConfig) (Config, error) {
	password, err := section.ResolvePassword()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Host:               section.Host,
		Username:           section.Username,
		Password:           password,
		UseHTTPS:           section.UseHTTPS,
		InsecureSkipVerify: section.InsecureSkipVerify,
		Timeout:            time.Duration(section.TimeoutSeconds) * time.Second,
		RequestsPerSecond:  section.RequestsPerSecond,
	}, nil
}

func (c Config) rateLimits() rate.Declaration {
	rps := c.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return rate.Provider("isy").MaxRequestsPer(rate.Second, rps)
}
