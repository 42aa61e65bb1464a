package domain

import "time"

// ConfigProvider provides configuration paths.
type ConfigProvider interface {
	GetConfigDir() (string, error)
	GetConfigPath() (string, error)
}

// Settings is the effective configuration for a single run, assembled once
// from flags, environment and the config file.
type Settings struct {
	Host            string
	Scheme          string
	Project         string
	UserID          int
	Remote          string
	Token           string
	TokenTTLDays    int
	LeaseTTL        time.Duration
	Timeout         time.Duration
	InsecureSkipTLS bool
}
