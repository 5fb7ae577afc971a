// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// duovoice is a Discord bot that gives every pair of users their own
// voice room. Joining the trigger channel creates "Duo N" under the
// configured category and moves the user into it; the room is deleted
// once everyone has left.
//
// Configuration comes from an optional YAML file, .env files, and the
// environment (TOKEN, TRIGGER_CHANNEL_ID, CATEGORY_ID are required).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/duovoice/duovoice/discord"
	"github.com/duovoice/duovoice/gateway"
	"github.com/duovoice/duovoice/lib/config"
	"github.com/duovoice/duovoice/lib/process"
	"github.com/duovoice/duovoice/lib/registry"
	"github.com/duovoice/duovoice/lib/telemetry"
	"github.com/duovoice/duovoice/lib/version"
	"github.com/duovoice/duovoice/lifecycle"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

// options are the command-line flags.
type options struct {
	configPath  string
	envFiles    []string
	logLevel    string
	logFormat   string
	showVersion bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var parsed options
	flagSet := pflag.NewFlagSet("duovoice", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&parsed.configPath, "config", "", "path to the YAML config file (default: $DUOVOICE_CONFIG)")
	flagSet.StringSliceVar(&parsed.envFiles, "env-file", nil, "env files to load (default: ./.env if present)")
	flagSet.StringVar(&parsed.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	flagSet.StringVar(&parsed.logFormat, "log-format", "", "override log format (json, text)")
	flagSet.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if flagSet.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	return parsed, nil
}

func run() error {
	flags, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.showVersion {
		fmt.Printf("duovoice %s\n", version.Info())
		return nil
	}

	cfg, err := config.Load(config.LoadOptions{Path: flags.configPath, EnvFiles: flags.envFiles})
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("duovoice starting", "version", version.Full(), "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("flushing traces failed", "error", err)
		}
	}()

	session, err := discord.NewSession(discord.SessionConfig{
		Token:             cfg.Discord.Token,
		BaseURL:           cfg.Discord.APIURL,
		RequestsPerSecond: cfg.Discord.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	gatewayURL := cfg.Discord.GatewayURL
	if gatewayURL == "" {
		discovered, err := session.GatewayBot(ctx)
		if err != nil {
			return fmt.Errorf("discovering gateway: %w", err)
		}
		gatewayURL = discovered.URL
		logger.Info("gateway discovered",
			"url", gatewayURL,
			"remaining_sessions", discovered.SessionStartLimit.Remaining,
		)
	}

	dispatcher, err := newDispatcher(cfg, session, logger)
	if err != nil {
		return err
	}

	client, err := gateway.New(gateway.Config{
		URL:      gatewayURL,
		Token:    cfg.Discord.Token,
		Intents:  gateway.IntentGuilds | gateway.IntentGuildVoiceStates,
		Compress: cfg.Discord.Compress,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	runErr := client.Run(ctx, dispatcher.HandleDispatch)
	logger.Info("waiting for in-flight room commands")
	dispatcher.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logger.Info("duovoice stopped")
	return nil
}

// newDispatcher wires the room lifecycle onto a Discord session.
func newDispatcher(cfg *config.Config, session *discord.Session, logger *slog.Logger) (*lifecycle.Dispatcher, error) {
	state := discord.NewState()
	rooms := discord.NewDirectory(session, state)
	names := registry.New()

	reclaimer, err := lifecycle.NewReclaimer(lifecycle.ReclaimerConfig{
		Directory: rooms,
		Registry:  names,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	allocator, err := lifecycle.NewAllocator(lifecycle.AllocatorConfig{
		Directory:        rooms,
		Registry:         names,
		Reclaimer:        reclaimer,
		TriggerChannelID: cfg.Rooms.TriggerChannelID,
		CategoryID:       cfg.Rooms.CategoryID,
		LogCategory:      cfg.Rooms.LogCategory,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	return lifecycle.NewDispatcher(lifecycle.DispatcherConfig{
		Allocator: allocator,
		Reclaimer: reclaimer,
		State:     state,
		Logger:    logger,
	})
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LogConfig, writer io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(writer, handlerOptions)), nil
	case "text":
		return slog.New(slog.NewTextHandler(writer, handlerOptions)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
