// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taibuivan/civilregistry/internal/backup"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/pkg/convert"
)

func backupCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, schedule and prune database dumps",
	}
	cmd.AddCommand(backupRunCmd(env))
	cmd.AddCommand(backupScheduledCmd(env))
	cmd.AddCommand(backupPruneCmd(env))
	cmd.AddCommand(backupListCmd(env))
	return cmd
}

// backupService opens Postgres and Redis and returns a service plus the
// function that closes both.
func (env *environment) backupService(ctx context.Context) (*backup.Service, func(), error) {
	cfg, err := env.config()
	if err != nil {
		return nil, nil, err
	}

	files, err := storage.NewDisk(cfg.BackupDir)
	if err != nil {
		return nil, nil, err
	}

	pool, err := env.postgres(ctx)
	if err != nil {
		return nil, nil, err
	}
	client, err := env.redis(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	service := backup.NewService(
		backup.NewPostgresDumper(pool),
		backup.NewPostgresScheduleStore(pool),
		files,
		backup.NewRedisLock(client),
		metrics.Noop(),
		backup.Settings{Retention: cfg.BackupRetentionCount, Location: cfg.Location()},
		env.logger(),
	)
	return service, func() {
		_ = client.Close()
		pool.Close()
	}, nil
}

func backupRunCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Create a dump now, then apply retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			service, closeAll, err := env.backupService(ctx)
			if err != nil {
				return err
			}
			defer closeAll()

			result, err := service.Create(ctx, backup.TriggerCLI)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Backup created: %s (%s)\n", success("✓"), result.Filename, convert.FileSize(result.Size))
			if result.Pruned > 0 {
				fmt.Fprintf(out, "Pruned %d old backup(s).\n", result.Pruned)
			}
			return nil
		},
	}
}

func backupScheduledCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "run-scheduled",
		Short: "Run one scheduler tick, for use from cron",
		Long: `Reads the stored schedule and creates a dump only when the current minute
is due. Intended to be called every minute by an external cron when the API
process runs with the in-process scheduler disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			service, closeAll, err := env.backupService(ctx)
			if err != nil {
				return err
			}
			defer closeAll()

			decision, result, err := service.RunScheduled(ctx)
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s skipped: %s\n", warning("-"), decision.Reason)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Scheduled backup created: %s\n", success("✓"), result.Filename)
			return nil
		},
	}
}

func backupPruneCmd(env *environment) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest dumps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			service, closeAll, err := env.backupService(ctx)
			if err != nil {
				return err
			}
			defer closeAll()

			pruned, err := service.Prune(ctx, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Pruned %d old backup(s).\n", success("✓"), pruned)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "dumps to keep (default: BACKUP_RETENTION_COUNT)")
	return cmd
}

func backupListCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backup files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			service, closeAll, err := env.backupService(ctx)
			if err != nil {
				return err
			}
			defer closeAll()

			info, err := service.Info(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(info.Backups) == 0 {
				fmt.Fprintln(out, "No backups found.")
				return nil
			}

			table := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(table, "NAME\tSIZE\tCREATED")
			for _, file := range info.Backups {
				fmt.Fprintf(table, "%s\t%s\t%s\n", file.Name, convert.FileSize(file.Size), file.CreatedAt)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d file(s), database size %s\n", info.BackupCount, convert.FileSize(info.DatabaseSize))
			return nil
		},
	}
}
