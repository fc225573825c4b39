// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command debugconsole runs the debug console in a terminal.
//
// Usage:
//
//	debugconsole                       # standalone console
//	debugconsole --role server         # authority operator console
//	debugconsole --role client --id 2  # participant console relaying to an in-process authority
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/debugconsole/internal/config"
	"github.com/jeranaias/debugconsole/internal/console"
	"github.com/jeranaias/debugconsole/internal/logging"
	"github.com/jeranaias/debugconsole/internal/permstore"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type options struct {
	role       string
	configPath string
	id         string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "debugconsole",
		Short: "Interactive debug console",
		Long: `debugconsole runs the embedded debug console in a terminal.

In standalone and server roles commands run in this process. In the client
role commands without a client-side action are relayed to an in-process
authority, which executes them on behalf of the participant selected with
--id and answers with chat replies.`,
		Version:      fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.role, "role", "", "console role: standalone, client or server (default from config)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.debugconsole/config.toml)")
	flags.StringVar(&opts.id, "id", "1", "requester id of the local participant in the client role")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show debug messages in the console")

	return cmd
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.role != "" {
		cfg.Role = opts.role
	}
	if opts.verbose {
		cfg.Console.Verbose = true
	}
	if cfg.Server.PermissionsFile == "" {
		if dir, err := config.ConfigDir(); err == nil {
			cfg.Server.PermissionsFile = filepath.Join(dir, "permissions.toml")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	role, err := console.ParseRole(cfg.Role)
	if err != nil {
		return err
	}

	store, err := permstore.Open(cfg.Server.PermissionsFile, permstore.WithLogger(logger.Named("permissions")))
	if err != nil {
		return err
	}

	h, err := newHost(cfg, role, store, opts.id, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if role != console.Standalone && cfg.Server.WatchPermissions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Watch(ctx); err != nil {
				logger.Warn("permissions watch stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("debug console started",
		zap.Stringer("role", role),
		zap.String("permissions", store.Path()))

	term, err := newTerminal(cfg, h.local.Completer())
	if err != nil {
		return err
	}
	defer term.Close()

	err = h.loop(ctx, term, newStdoutPrinter())
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
