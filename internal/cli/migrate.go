// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/civilregistry/internal/platform/migration"
)

func migrateCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, env.logger()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), success("✓"), "schema is up to date")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if err := migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, steps, env.logger()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s rolled back %d migration(s)\n", warning("!"), steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			version, dirty, err := migration.Version(cfg.DatabaseURL, cfg.MigrationPath, env.logger())
			if err != nil {
				return err
			}
			state := success("clean")
			if dirty {
				state = failure("dirty")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (%s)\n", version, state)
			return nil
		},
	})

	return cmd
}
