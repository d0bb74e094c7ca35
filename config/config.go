package config

import (
	"errors"
	"log"

	"github.com/spf13/viper"
)

// DefaultFeedURL is the public compressed catalog feed.
const DefaultFeedURL = "https://yaqwsx.github.io/jlcparts/data/parts.csv.xz"

// Config Application config definition
type Config struct {
	FeedURL          string `yaml:"feed_url"            mapstructure:"feed_url"`
	DataDir          string `yaml:"data_dir"            mapstructure:"data_dir"`
	MinFeedSize      int64  `yaml:"min_feed_size"       mapstructure:"min_feed_size"`
	AbortOnShortFeed bool   `yaml:"abort_on_short_feed" mapstructure:"abort_on_short_feed"`
}

// LoadConfig LoadConfig
func LoadConfig(dir string) Config {
	cfg := Config{}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("PARTSDB")
	v.AutomaticEnv()

	v.SetDefault("feed_url", DefaultFeedURL)
	v.SetDefault("data_dir", "jlcpcb")
	v.SetDefault("min_feed_size", 1000)
	v.SetDefault("abort_on_short_feed", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatal(err)
	}

	return cfg
}

// ValidateConfig ValidateConfig
func ValidateConfig(config Config) {
	if config.FeedURL == "" {
		log.Fatalln("FeedURL not provided")
	}

	if config.DataDir == "" {
		log.Fatalln("DataDir not provided")
	}
}
