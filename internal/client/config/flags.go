package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-b string   backend: local or remote
//	-k string   key/value driver: sqlite, redis or memory
//	-d string   sqlite database path
//	-r string   redis address
//	-dsn string remote Postgres DSN
//	-i int      session check interval (in seconds)
//	-dev        enable developer commands
//	-l string   log level
//
// os.Args is filtered through flagx.FilterArgs so flags owned by other
// layers (-c/-config) do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-k", "-d", "-r", "-dsn", "-i", "-dev", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "identity backend (local|remote)")
	fs.StringVar(&cfg.KVDriver, "k", cfg.KVDriver, "key/value driver (sqlite|redis|memory)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.RemoteDSN, "dsn", cfg.RemoteDSN, "remote identity provider DSN")
	checkInterval := fs.Int("i", int(cfg.SessionCheckInterval.Seconds()), "session check interval (in seconds)")
	fs.BoolVar(&cfg.DevMenu, "dev", cfg.DevMenu, "enable developer commands")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionCheckInterval = time.Duration(*checkInterval) * time.Second
}
