package main

import (
	"flag"
	"fmt"
	"time"
)

// CLIConfig holds the parsed command-line flags
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config", "", "path to the YAML configuration file")
	flag.StringVar(&cfg.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.StringVar(&cfg.LogFormat, "log-format", "json", "log format: json or text")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}
