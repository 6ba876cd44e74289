// Package config loads runtime configuration for the DoseKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. DOSEKEEPER_* environment variables.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
//	{
//	  "backend": "remote",
//	  "kv_driver": "sqlite",
//	  "db_path": "dosekeeper.db",
//	  "remote_dsn": "postgres://localhost/dosekeeper",
//	  "jwt_secret": "…",
//	  "session_check_interval": "30s",
//	  "s3": {"bucket": "avatars", "endpoint": "http://localhost:9000"},
//	  "dev_menu": true
//	}
package config
