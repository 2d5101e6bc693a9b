package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of every vkcrawl setting. Flags override it and
// environment variables override both for secrets.
type Config struct {
	API struct {
		Tokens             string        `yaml:"tokens"` // comma-separated
		BaseURL            string        `yaml:"base_url"`
		Proxy              string        `yaml:"proxy"`
		Interval           time.Duration `yaml:"interval"`
		Jitter             bool          `yaml:"jitter"`
		Retries            int           `yaml:"retries"`
		FollowersLimit     int           `yaml:"followers_limit"`
		SubscriptionsLimit int           `yaml:"subscriptions_limit"`
	} `yaml:"api"`

	Crawl struct {
		Depth           int    `yaml:"depth"`
		MirrorFollowers bool   `yaml:"mirror_followers"`
		OutputDir       string `yaml:"output_dir"`
		SnapshotAll     bool   `yaml:"snapshot_all"`
		NoSnapshot      bool   `yaml:"no_snapshot"`
	} `yaml:"crawl"`

	Store StoreConfig `yaml:"store"`

	Serve struct {
		Addr string `yaml:"addr"`
	} `yaml:"serve"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// StoreConfig selects and configures the graph store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // neo4j, postgres, badger, none

	Neo4j struct {
		URI      string `yaml:"uri"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"neo4j"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	Badger struct {
		Dir string `yaml:"dir"`
	} `yaml:"badger"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	var c Config
	c.API.Interval = 330 * time.Millisecond
	c.Crawl.Depth = 1
	c.Crawl.OutputDir = "./apiData"
	c.Store.Backend = "neo4j"
	c.Store.Neo4j.URI = "bolt://localhost:7687"
	c.Store.Neo4j.User = "neo4j"
	c.Store.Badger.Dir = "./vkgraph"
	c.Serve.Addr = ":8080"
	return c
}

// LoadConfig reads path over the defaults (path may be empty) and applies
// VK_TOKEN, NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD and DATABASE_URL.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	envOverride(&c.API.Tokens, "VK_TOKEN")
	envOverride(&c.Store.Neo4j.URI, "NEO4J_URI")
	envOverride(&c.Store.Neo4j.User, "NEO4J_USER")
	envOverride(&c.Store.Neo4j.Password, "NEO4J_PASSWORD")
	envOverride(&c.Store.Postgres.DSN, "DATABASE_URL")
	return c, nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
