package config

import "time"

const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	KVSQLite = "sqlite"
	KVRedis  = "redis"
	KVMemory = "memory"
)

// S3 holds avatar object storage settings. An empty Bucket disables avatar
// uploads.
type S3 struct {
	Region        string `split_words:"true"`
	AccessKey     string `split_words:"true"`
	SecretKey     string `split_words:"true"`
	Endpoint      string `split_words:"true"`
	Bucket        string `split_words:"true"`
	PublicBaseURL string `split_words:"true"`
}

// Config holds runtime settings for the DoseKeeper CLI.
//
// Backend selects where identities live: "local" keeps users, profiles and
// doses in the key/value store; "remote" talks to the Postgres identity
// provider at RemoteDSN. The key/value store itself is chosen by KVDriver.
type Config struct {
	Backend string `split_words:"true"`

	KVDriver          string `split_words:"true"`
	DBPath            string `split_words:"true"`
	RedisAddr         string `split_words:"true"`
	RedisNamespace    string `split_words:"true"`
	StoragePassphrase string `split_words:"true"`

	RemoteDSN  string        `split_words:"true"`
	JWTSecret  string        `split_words:"true"`
	ProjectRef string        `split_words:"true"`
	TokenTTL   time.Duration `split_words:"true"`

	SessionTTL           time.Duration `split_words:"true"`
	SessionCheckInterval time.Duration `split_words:"true"`

	S3 S3

	DevMenu   bool   `split_words:"true"`
	LogFormat string `split_words:"true"`
	LogLevel  string `split_words:"true"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendLocal
	c.KVDriver = KVSQLite
	c.DBPath = "dosekeeper.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisNamespace = "dosekeeper"
	c.ProjectRef = "local"
	c.TokenTTL = time.Hour
	c.SessionTTL = 24 * time.Hour
	c.SessionCheckInterval = 30 * time.Second
	c.S3.Region = "us-east-1"
	c.LogFormat = "text"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
