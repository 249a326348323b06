package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bookinfo/cache"
	"bookinfo/fetcher"
	"bookinfo/pipeline"
	"bookinfo/scraper"
	"bookinfo/server"
)

var RootCmd = &cobra.Command{
	Use:   "bookinfo",
	Short: "Scrape a book-catalog site into normalized JSON",
	Long: `bookinfo extracts authors, works, editions, series and search results
from an HTML book-catalog site and exposes them as normalized JSON,
behind a cache and a polite rate limit.`,
}

func init() {
	viper.SetDefault("cache.dir", "./cache")
	viper.SetDefault("cache.ttl", 24*time.Hour)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("server.listen", ":8816")
	viper.SetDefault("scrape.base_url", scraper.DefaultBaseURL)
	viper.SetDefault("scrape.min_interval", 2*time.Second)
	viper.SetDefault("scrape.timeout", 30*time.Second)
	viper.SetDefault("scrape.fetch_retries", 3)
	viper.SetDefault("scrape.retry_delay", 2*time.Second)
	viper.SetDefault("scrape.max_attempts", 5)

	viper.SetEnvPrefix("BOOKINFO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	RootCmd.PersistentFlags().String("cache-dir", viper.GetString("cache.dir"), "cache directory")
	RootCmd.PersistentFlags().Duration("cache-ttl", viper.GetDuration("cache.ttl"), "cache entry time-to-live")
	RootCmd.PersistentFlags().Bool("cache", viper.GetBool("cache.enabled"), "enable the result cache")
	RootCmd.PersistentFlags().String("base-url", viper.GetString("scrape.base_url"), "source site base URL")
	_ = viper.BindPFlag("cache.dir", RootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("cache.ttl", RootCmd.PersistentFlags().Lookup("cache-ttl"))
	_ = viper.BindPFlag("cache.enabled", RootCmd.PersistentFlags().Lookup("cache"))
	_ = viper.BindPFlag("scrape.base_url", RootCmd.PersistentFlags().Lookup("base-url"))
}

// buildService wires fetcher → scraper → pipeline → service from the
// configured settings.
func buildService() (*server.Service, error) {
	store, err := cache.New(
		viper.GetString("cache.dir"),
		viper.GetDuration("cache.ttl"),
		viper.GetBool("cache.enabled"),
	)
	if err != nil {
		return nil, err
	}

	client := fetcher.New(fetcher.Options{
		Timeout:    viper.GetDuration("scrape.timeout"),
		Retries:    viper.GetInt("scrape.fetch_retries"),
		RetryDelay: viper.GetDuration("scrape.retry_delay"),
	})

	sc := scraper.New(client.Fetch, viper.GetString("scrape.base_url"))

	runner := pipeline.NewRunner(store, pipeline.Options{
		MinInterval: viper.GetDuration("scrape.min_interval"),
		MaxAttempts: viper.GetInt("scrape.max_attempts"),
	})

	return server.NewService(sc, runner), nil
}
