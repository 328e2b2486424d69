// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cli implements registryctl, the operator command line of the civil
registry: schema migrations, backups outside the API process and the first
administrator account.

Every command loads the same environment configuration as the API server.
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/taibuivan/civilregistry/internal/platform/config"
	"github.com/taibuivan/civilregistry/internal/platform/constants"
	pgstore "github.com/taibuivan/civilregistry/internal/platform/postgres"
	redisstore "github.com/taibuivan/civilregistry/internal/platform/redis"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
)

// NewRootCmd assembles the registryctl command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "registryctl",
		Short:         "Operate the civil registry: migrations, backups and accounts",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log structured progress to stderr")

	env := &environment{verbose: &verbose}
	root.AddCommand(migrateCmd(env))
	root.AddCommand(backupCmd(env))
	root.AddCommand(adminCmd(env))
	return root
}

// Execute runs the command tree and prints a coloured error on failure.
// An interrupt cancels the running command's context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, failure("error:"), err)
		return 1
	}
	return 0
}

// environment opens configuration and connections lazily, so --help works
// without a database.
type environment struct {
	verbose *bool
	cfg     *config.Config
}

func (env *environment) config() (*config.Config, error) {
	if env.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		env.cfg = cfg
	}
	return env.cfg, nil
}

func (env *environment) logger() *slog.Logger {
	var writer io.Writer = io.Discard
	if *env.verbose {
		writer = os.Stderr
	}
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug})).
		With(slog.String("app", "registryctl"))
}

func (env *environment) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := env.config()
	if err != nil {
		return nil, err
	}
	return pgstore.NewPool(ctx, cfg.DatabaseURL, 0, env.logger())
}

func (env *environment) redis(ctx context.Context) (*redis.Client, error) {
	cfg, err := env.config()
	if err != nil {
		return nil, err
	}
	return redisstore.NewClient(ctx, cfg.RedisURL, env.logger())
}
