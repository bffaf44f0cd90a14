package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"reshelf/internal/config"
	"reshelf/internal/daemon"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, resolvedPath, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	err = daemon.Run(context.Background(), cfg, resolvedPath, daemon.Options{LogLevel: *logLevel})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
