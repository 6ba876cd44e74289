package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/dosekeeper/internal/flagx"
	"github.com/dmitrijs2005/dosekeeper/internal/timex"
)

type JsonS3 struct {
	Region        string `json:"region"`
	AccessKey     string `json:"access_key"`
	SecretKey     string `json:"secret_key"`
	Endpoint      string `json:"endpoint"`
	Bucket        string `json:"bucket"`
	PublicBaseURL string `json:"public_base_url"`
}

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-valued fields left out of the file keep whatever the earlier layer
// set; durations accept "30s" or integer nanoseconds.
type JsonConfig struct {
	Backend              string          `json:"backend"`
	KVDriver             string          `json:"kv_driver"`
	DBPath               string          `json:"db_path"`
	RedisAddr            string          `json:"redis_addr"`
	RedisNamespace       string          `json:"redis_namespace"`
	StoragePassphrase    string          `json:"storage_passphrase"`
	RemoteDSN            string          `json:"remote_dsn"`
	JWTSecret            string          `json:"jwt_secret"`
	ProjectRef           string          `json:"project_ref"`
	TokenTTL             *timex.Duration `json:"token_ttl"`
	SessionTTL           *timex.Duration `json:"session_ttl"`
	SessionCheckInterval *timex.Duration `json:"session_check_interval"`
	S3                   *JsonS3         `json:"s3"`
	DevMenu              *bool           `json:"dev_menu"`
	LogFormat            string          `json:"log_format"`
	LogLevel             string          `json:"log_level"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays cfg with the JSON file named by -c or -config. Without
// either flag it does nothing. Read and decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.KVDriver, jc.KVDriver)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisNamespace, jc.RedisNamespace)
	setString(&cfg.StoragePassphrase, jc.StoragePassphrase)
	setString(&cfg.RemoteDSN, jc.RemoteDSN)
	setString(&cfg.JWTSecret, jc.JWTSecret)
	setString(&cfg.ProjectRef, jc.ProjectRef)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.TokenTTL != nil {
		cfg.TokenTTL = jc.TokenTTL.Duration
	}
	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.SessionCheckInterval != nil {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
	if jc.DevMenu != nil {
		cfg.DevMenu = *jc.DevMenu
	}
	if s := jc.S3; s != nil {
		setString(&cfg.S3.Region, s.Region)
		setString(&cfg.S3.AccessKey, s.AccessKey)
		setString(&cfg.S3.SecretKey, s.SecretKey)
		setString(&cfg.S3.Endpoint, s.Endpoint)
		setString(&cfg.S3.Bucket, s.Bucket)
		setString(&cfg.S3.PublicBaseURL, s.PublicBaseURL)
	}
}
