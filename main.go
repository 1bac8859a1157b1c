package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"buildstamp/config"
	"buildstamp/pipeline"
)

func main() {
	srcDir := flag.String("src", "", "source directory to probe (default: current directory)")
	output := flag.String("o", "", "output path for the generated file (overrides config)")
	pkg := flag.String("pkg", "", "package clause of the generated file (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg, err := config.Load(*srcDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "buildstamp: %v\n", err)
		os.Exit(1)
	}

	// Flags outrank every other configuration source.
	if *output != "" {
		cfg.Output = *output
	}
	if *pkg != "" {
		cfg.Package = *pkg
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "buildstamp: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	if _, err := pipeline.New(cfg, logger).Run(); err != nil {
		logger.Error("build metadata generation failed", "error", err)
		os.Exit(1)
	}
}

// newLogger creates a structured slog.Logger writing to stderr, so stdout
// stays clean for tooling that wraps the generator.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
