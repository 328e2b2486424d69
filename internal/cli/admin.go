// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/users/auth"
)

func adminCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(adminCreateCmd(env))
	return cmd
}

// adminCreateCmd takes credentials from flags, falling back to ADMIN_EMAIL,
// ADMIN_PASSWORD and ADMIN_NAME so provisioning scripts keep the password off
// the command line.
func adminCreateCmd(env *environment) *cobra.Command {
	var input auth.AdminInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if input.Email == "" {
				input.Email = cfg.AdminEmail
			}
			if input.Password == "" {
				input.Password = cfg.AdminPassword
			}
			if input.FullName == "" {
				input.FullName = cfg.AdminName
			}

			ctx := cmd.Context()
			pool, err := env.postgres(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Account creation needs neither tokens nor revocations.
			service := auth.NewService(auth.NewAccountRepository(pool), nil, nil, metrics.Noop(), env.logger())
			account, err := service.CreateAdmin(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Administrator %s created (id %d)\n", success("✓"), account.Email, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "login email (env ADMIN_EMAIL)")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password (env ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&input.FullName, "name", "", "display name (env ADMIN_NAME)")
	cmd.Flags().StringVar(&input.Position, "position", "", "job title")
	return cmd
}
