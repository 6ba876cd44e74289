package config

import "github.com/kelseyhightower/envconfig"

const envPrefix = "DOSEKEEPER"

// parseEnv overlays cfg with DOSEKEEPER_* variables, e.g. DOSEKEEPER_BACKEND
// or DOSEKEEPER_S3_BUCKET. Unset variables leave fields untouched; malformed
// values panic.
func parseEnv(cfg *Config) {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		panic(err)
	}
}
