package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"diyanet/lib/cachedir"
	"diyanet/lib/configutil"
	"diyanet/lib/scrapers/diyanet"

	"github.com/dgraph-io/badger/v4"
	"github.com/jedib0t/go-pretty/v6/table"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	CacheDir string `json:"cache_dir"`
	Timeout  int    `json:"timeout"`
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// loadConfig merges an optional config.json5 with command-line flags;
// flags win.
func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		fatal("failed to read config", err)
	}

	if *baseUrl != "" {
		cfg.BaseUrl = *baseUrl
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if rootCmd.PersistentFlags().Changed("timeout") || cfg.Timeout == 0 {
		cfg.Timeout = *timeout
	}
	return cfg
}

// createClient opens the persistent cache and builds a scraping client
// over it. The returned cleanup closes the cache store.
func createClient() (*diyanet.Client, func()) {
	cfg := loadConfig()

	dir := cfg.CacheDir
	if dir == "" {
		var err error
		dir, err = cachedir.Resolve()
		if err != nil {
			fatal("failed to resolve cache directory", err)
		}
	}

	cache, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		fatal("failed to open cache store", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	client, err := diyanet.NewClient(ctx, diyanet.ClientOptions{
		BaseUrl: cfg.BaseUrl,
		Timeout: time.Duration(cfg.Timeout) * time.Second,
		Cache:   cache,
	})
	if err != nil {
		cache.Close()
		fatal("failed to initialize client", err)
	}

	return client, func() {
		if err := cache.Close(); err != nil {
			slog.Warn("failed to close cache store", "err", err)
		}
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
