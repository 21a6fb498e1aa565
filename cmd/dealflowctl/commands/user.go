package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealflow/dealflow/internal/services"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}
	cmd.AddCommand(userAddCmd(), userPasswdCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := services.NewUserService(d).CreateUser(cmd.Context(), args[0], password)
			if errors.Is(err, services.ErrUserExists) {
				return fmt.Errorf("user %q already exists", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password of the new account")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userPasswdCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd USERNAME",
		Short: "Replace the password of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			err = services.NewUserService(d).ChangePassword(cmd.Context(), args[0], password)
			if errors.Is(err, services.ErrNotFound) {
				return fmt.Errorf("user %q not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
