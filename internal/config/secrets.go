package config

import (
	"net/url"
	"slices"
)

const redacted = "***"

// RedactedConfig copies cfg with credentials masked, for logging. Slices are
// cloned so the copy can be changed freely.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	for _, s := range []*string{
		&out.Server.APIKey,
		&out.Postgres.Password,
		&out.Redis.Password,
		&out.S3.AccessKey,
		&out.S3.SecretKey,
		&out.Notify.TelegramToken,
		&out.Notify.DiscordWebhookURL,
	} {
		if *s != "" {
			*s = redacted
		}
	}
	out.Postgres.DSN = redactDSN(cfg.Postgres.DSN)

	out.Server.CORSOrigins = slices.Clone(cfg.Server.CORSOrigins)
	out.Notify.Events = slices.Clone(cfg.Notify.Events)
	out.Tsunami.SizeThresholdsM = slices.Clone(cfg.Tsunami.SizeThresholdsM)
	out.Tsunami.ScoreBandsM = slices.Clone(cfg.Tsunami.ScoreBandsM)
	out.Tsunami.WaveBandsM = slices.Clone(cfg.Tsunami.WaveBandsM)
	out.Tsunami.WaveEnergyFactors = slices.Clone(cfg.Tsunami.WaveEnergyFactors)
	out.Tsunami.TierCutoffs = slices.Clone(cfg.Tsunami.TierCutoffs)
	return out
}

// redactDSN masks the password of a URL-form DSN and keeps the host for
// debugging. Anything it cannot parse is masked whole.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return redacted
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}
