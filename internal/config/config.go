package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jobdeck/jobdeck/pkg/jobsfeed"
)

type Config struct {
	Addr             string          `yaml:"addr"`
	TokenSecret      string          `yaml:"token_secret"`
	APITimeout       time.Duration   `yaml:"timeout"`
	DatabasePath     string          `yaml:"database_path"`
	TokenDuration    time.Duration   `yaml:"token_duration"`
	RememberDuration time.Duration   `yaml:"remember_duration"`
	RefreshInterval  time.Duration   `yaml:"refresh_interval"`
	JobsFeed         jobsfeed.Config `yaml:"jobsfeed"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:             getEnv("JOBDECK_ADDR", ":8080"),
		TokenSecret:      getEnv("JOBDECK_TOKEN_SECRET", "supersecretkey"),
		APITimeout:       15 * time.Second,
		DatabasePath:     getEnv("JOBDECK_DATABASE_PATH", "jobdeck.db"),
		TokenDuration:    1 * time.Hour,
		RememberDuration: 7 * 24 * time.Hour,
		RefreshInterval:  time.Hour,
		JobsFeed:         jobsfeed.DefaultConfig(),
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
