// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// sharebot-admin inspects and maintains the bot's want registry using the
// bot's own configuration. Stop the bot before running forget or migrate
// against the file backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sharebot/sharebot/internal/setup"
	"github.com/sharebot/sharebot/lib/config"
	"github.com/sharebot/sharebot/lib/process"
	"github.com/sharebot/sharebot/lib/version"
	"github.com/sharebot/sharebot/wantstore"
)

const usage = `sharebot-admin - inspect and maintain the sharebot registry

USAGE
    sharebot-admin [--config <path>] <command> [args]

COMMANDS
    who-needs <item>          list the users who need an item
    needed-by <user>          list the items a user needs
    forget <user>             remove a user from every item
    catalog                   show categories, item counts and the fingerprint
    migrate --to-backend <b> --to-path <p>
                              copy every want list into another store

Users are Matrix ids (@alice:example.org) or stored ids.
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	var (
		configPath  string
		verbose     bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("sharebot-admin", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to sharebot.yaml (default: $SHAREBOT_CONFIG)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log progress at debug level")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() { fmt.Fprint(out, usage) }
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Fprintf(out, "sharebot-admin %s\n", version.Info())
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("no command given")
	}
	command, commandArgs := rest[0], rest[1:]

	cfg, err := setup.LoadConfig(configPath)
	if err != nil {
		return err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := config.LoggingConfig{Level: level, Format: "text"}.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := setup.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	tool := &admin{
		catalog:  components.Catalog,
		store:    components.Store,
		registry: components.Registry,
		out:      out,
		logger:   logger,
	}

	switch command {
	case "who-needs":
		item, err := oneArgument(command, commandArgs)
		if err != nil {
			return err
		}
		return tool.whoNeeds(ctx, item)
	case "needed-by":
		user, err := oneArgument(command, commandArgs)
		if err != nil {
			return err
		}
		return tool.neededBy(ctx, user)
	case "forget":
		user, err := oneArgument(command, commandArgs)
		if err != nil {
			return err
		}
		return tool.forget(ctx, user)
	case "catalog":
		tool.catalogSummary()
		return nil
	case "migrate":
		target, err := parseMigrateTarget(commandArgs)
		if err != nil {
			return err
		}
		if target == cfg.Storage {
			return errors.New("migrate: target is the configured store")
		}
		store, err := wantstore.Open(target, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		_, err = tool.migrate(ctx, store)
		return err
	default:
		return fmt.Errorf("unknown command %q (run with --help)", command)
	}
}

func oneArgument(command string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s takes exactly one argument", command)
	}
	return args[0], nil
}

func parseMigrateTarget(args []string) (config.StorageConfig, error) {
	var target config.StorageConfig
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&target.Backend, "to-backend", "", "backend to copy into: file, sqlite, or bolt")
	flagSet.StringVar(&target.Path, "to-path", "", "directory or database file of the target store")
	if err := flagSet.Parse(args); err != nil {
		return target, err
	}
	switch target.Backend {
	case config.BackendFile, config.BackendSQLite, config.BackendBolt:
	default:
		return target, fmt.Errorf("migrate: --to-backend must be file, sqlite, or bolt, got %q", target.Backend)
	}
	if target.Path == "" {
		return target, errors.New("migrate: --to-path is required")
	}
	return target, nil
}
