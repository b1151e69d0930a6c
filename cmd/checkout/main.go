package main

import (
	"flag"
	"os"

	"github.com/noah-isme/pos-checkout/internal/cli"
	"github.com/noah-isme/pos-checkout/internal/obs"
)

func main() {
	logger := obs.NewLoggerTo(os.Stderr, "console", envOrDefault("OBS_LOG_LEVEL", "warn"))

	cfg, err := cli.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Error().Err(err).Msg("parse flags")
		os.Exit(2)
	}
	if err := cli.Run(cfg, os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("checkout failed")
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
