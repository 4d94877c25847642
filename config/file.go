package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/jsonindex/errors"
)

// NATS defines the daemon's NATS connection settings
type NATS struct {
	URLs          []string      `yaml:"urls,omitempty"`
	MaxReconnects int           `yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `yaml:"reconnect_wait,omitempty"`
}

// Subjects defines the NATS subjects the indexing service listens on
type Subjects struct {
	Ingest  string `yaml:"ingest,omitempty"`
	Lookup  string `yaml:"lookup,omitempty"`
	Reindex string `yaml:"reindex,omitempty"`
}

// HTTP defines the lookup gateway listen settings
type HTTP struct {
	Addr string `yaml:"addr,omitempty"`
}

// Ingest defines rate limiting for the ingest path
type Ingest struct {
	// RatePerSecond bounds append message handling; zero disables limiting.
	RatePerSecond float64 `yaml:"rate_per_second,omitempty"`
	Burst         int     `yaml:"burst,omitempty"`
}

// File is the daemon configuration loaded from YAML
type File struct {
	LogLevel string   `yaml:"log_level,omitempty"`
	NATS     NATS     `yaml:"nats,omitempty"`
	Subjects Subjects `yaml:"subjects,omitempty"`
	HTTP     HTTP     `yaml:"http,omitempty"`
	Ingest   Ingest   `yaml:"ingest,omitempty"`
	Engine   Engine   `yaml:"engine,omitempty"`
}

// DefaultFile returns the default daemon configuration
func DefaultFile() File {
	return File{
		LogLevel: "info",
		NATS: NATS{
			URLs:          []string{"nats://127.0.0.1:4222"},
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
		},
		Subjects: Subjects{
			Ingest:  "jsonindex.ingest",
			Lookup:  "jsonindex.lookup",
			Reindex: "jsonindex.reindex",
		},
		HTTP: HTTP{
			Addr: ":8090",
		},
		Ingest: Ingest{
			Burst: 1,
		},
		Engine: Default(),
	}
}

// Load reads a daemon configuration file, filling unset values from defaults
func Load(path string) (*File, error) {
	cfg := DefaultFile()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "config", "Load", "read config file")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "config", "Load", "parse config file")
	}

	cfg.normalize()
	return &cfg, nil
}

func (f *File) normalize() {
	def := DefaultFile()
	if len(f.NATS.URLs) == 0 {
		f.NATS.URLs = def.NATS.URLs
	}
	if f.NATS.ReconnectWait <= 0 {
		f.NATS.ReconnectWait = def.NATS.ReconnectWait
	}
	if f.Subjects.Ingest == "" {
		f.Subjects.Ingest = def.Subjects.Ingest
	}
	if f.Subjects.Lookup == "" {
		f.Subjects.Lookup = def.Subjects.Lookup
	}
	if f.Subjects.Reindex == "" {
		f.Subjects.Reindex = def.Subjects.Reindex
	}
	if f.HTTP.Addr == "" {
		f.HTTP.Addr = def.HTTP.Addr
	}
	if f.Ingest.Burst <= 0 {
		f.Ingest.Burst = def.Ingest.Burst
	}
	if f.LogLevel == "" {
		f.LogLevel = def.LogLevel
	}
	f.Engine.Normalize()
}
