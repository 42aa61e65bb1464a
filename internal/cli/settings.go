package cli

import (
	"github.com/spf13/viper"

	"tokenkeeper/internal/domain"
)

// loadSettings assembles the effective settings from flags, environment and
// the config file, in that order of precedence.
func loadSettings(v *viper.Viper) domain.Settings {
	return domain.Settings{
		Host:            v.GetString("gitlab.host"),
		Scheme:          v.GetString("gitlab.scheme"),
		Project:         v.GetString("gitlab.project"),
		UserID:          v.GetInt("gitlab.user_id"),
		Remote:          v.GetString("git.remote"),
		Token:           v.GetString("token"),
		TokenTTLDays:    v.GetInt("token_ttl_days"),
		LeaseTTL:        v.GetDuration("lease_ttl"),
		Timeout:         v.GetDuration("timeout"),
		InsecureSkipTLS: v.GetBool("insecure_skip_tls"),
	}
}

// settings reads the global viper instance.
func settings() domain.Settings {
	return loadSettings(viper.GetViper())
}
