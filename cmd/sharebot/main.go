// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// sharebot runs the cosmetics sharing bot against a Matrix homeserver.
//
// The configuration file is named by --config or SHAREBOT_CONFIG. The
// access token comes from SHAREBOT_MATRIX_ACCESS_TOKEN or the file named
// by matrix.access_token_file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sharebot/sharebot/bot"
	"github.com/sharebot/sharebot/claim"
	"github.com/sharebot/sharebot/erasure"
	"github.com/sharebot/sharebot/internal/setup"
	"github.com/sharebot/sharebot/lib/clock"
	"github.com/sharebot/sharebot/lib/config"
	"github.com/sharebot/sharebot/lib/process"
	"github.com/sharebot/sharebot/lib/version"
	"github.com/sharebot/sharebot/matrixbot"
	"github.com/sharebot/sharebot/messaging"
	"github.com/sharebot/sharebot/selection"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("sharebot", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to sharebot.yaml (default: $SHAREBOT_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("sharebot %s\n", version.Full())
		return nil
	}

	cfg, err := setup.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	logger.Info("sharebot starting", "version", version.Info(), "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := setup.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	commands, err := newBot(cfg, components, logger)
	if err != nil {
		return err
	}

	session, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	router, err := matrixbot.New(matrixbot.Config{
		Session:       session,
		Dispatcher:    commands,
		CommandPrefix: cfg.Matrix.CommandPrefix,
		Rooms:         cfg.Matrix.Rooms,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	err = router.Run(ctx)
	logger.Info("sharebot stopped")
	return err
}

// newBot builds the command layer over the shared registry.
func newBot(cfg *config.Config, components *setup.Components, logger *slog.Logger) (*bot.Bot, error) {
	clk := clock.Real()

	selector, err := selection.New(selection.Config{
		Source:        components.Catalog,
		Clock:         clk,
		Timeout:       cfg.Timeouts.Selection,
		GroupSize:     cfg.Paging.GroupSize,
		GroupsPerPage: cfg.Paging.GroupsPerPage,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	negotiator, err := claim.New(claim.Config{
		Wants:         components.Registry,
		Clock:         clk,
		Timeout:       cfg.Timeouts.Claim,
		CommandPrefix: cfg.Matrix.CommandPrefix,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	confirmer, err := erasure.New(erasure.Config{
		Forgetter: components.Registry,
		Clock:     clk,
		Timeout:   cfg.Timeouts.Erasure,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return bot.New(bot.Config{
		Registry:      components.Registry,
		Selector:      selector,
		Negotiator:    negotiator,
		Confirmer:     confirmer,
		CommandPrefix: cfg.Matrix.CommandPrefix,
		Logger:        logger,
	})
}

// connect checks that the homeserver answers and returns a session for
// the bot account.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*messaging.Session, error) {
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		// Longer than the 30 second sync long-poll.
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	versions, err := client.ServerVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("homeserver %s unreachable: %w", cfg.Matrix.HomeserverURL, err)
	}
	logger.Info("homeserver reachable", "url", cfg.Matrix.HomeserverURL, "versions", versions.Versions)

	token, err := cfg.AccessToken()
	if err != nil {
		return nil, err
	}
	session, err := client.NewSession(cfg.Matrix.UserID, token)
	if err != nil {
		token.Close()
		return nil, err
	}
	return session, nil
}
