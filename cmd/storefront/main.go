package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/udyambharat/storefront-client/internal/config"
	"github.com/udyambharat/storefront-client/internal/storefront"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultEnvPath    = ".env"
	serviceName       = "storefront-client"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	envPath := flag.String("env", defaultEnvPath, "Path to .env file with overrides")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Client starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	sanitized := cfg.Sanitized()
	logger.Info("Configuration loaded",
		slog.String("base_url", sanitized.API.BaseURL),
		slog.Bool("session_cookie", sanitized.API.SessionCookie != ""),
		slog.Duration("record_duration", cfg.Voice.GetRecordDuration()),
		slog.String("default_language", cfg.Voice.DefaultLanguage),
		slog.Any("voice_fields", cfg.Voice.Fields),
		slog.String("input_file", cfg.Voice.InputFile),
		slog.Bool("status_enabled", cfg.Status.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := storefront.New(cfg, storefront.Options{Logger: logger})
	if err != nil {
		logger.Error("Failed to create client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.Start(ctx); err != nil {
		logger.Error("Failed to start client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Fprintln(os.Stdout, "Type help for commands.")
	runLoop(ctx, app, os.Stdin, os.Stdout, logger)

	logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", slog.String("error", err.Error()))
	}

	logger.Info("Client stopped")
}

// runLoop executes stdin lines until quit, EOF or a shutdown signal
func runLoop(ctx context.Context, app *storefront.App, in io.Reader, out io.Writer, logger *slog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal")
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		err := app.Execute(ctx, out, line)
		switch {
		case errors.Is(err, storefront.ErrQuit):
			return
		case errors.Is(err, storefront.ErrUsage):
			fmt.Fprintln(out, err)
		case err != nil:
			logger.Debug("Command failed", slog.String("command", line), slog.String("error", err.Error()))
		}

		if err := app.Render(out); err != nil {
			logger.Error("Render failed", slog.String("error", err.Error()))
		}
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// stdout carries the rendered page, so logs default to stderr
	var output *os.File
	switch cfg.Output {
	case "stderr", "":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
