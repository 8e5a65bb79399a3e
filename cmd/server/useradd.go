package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jo-hoe/cartoonize/internal/core"
	"github.com/spf13/cobra"
)

const passwordEnv = "CARTOONIZE_PASSWORD"

func newUserAddCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Register a user without the web form",
		Long:  "Register a user in the configured credential store. The password is read from --password or $" + passwordEnv + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" {
				return errors.New("a password is required (--password or $" + passwordEnv + ")")
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}
			coreService, err := core.NewCoreService(config)
			if err != nil {
				return fmt.Errorf("failed to initialize core service: %w", err)
			}
			defer func() { _ = coreService.Close() }()

			user, err := coreService.RegisterUser(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("failed to add user %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password of the new user")
	return cmd
}
