package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
)

func newLockoutCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "lockout", Short: "Inspect or release login lockouts"}
	cmd.AddCommand(newLockoutStatusCommand(opts), newLockoutUnlockCommand(opts))
	return cmd
}

func newLockoutStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <identifier>",
		Short: "Print the lockout status of a username or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			status := rt.engine.GetLockoutStatus(cmd.Context(), args[0])
			return writeStatus(cmd.OutOrStdout(), args[0], status)
		},
	}
}

func newLockoutUnlockCommand(opts *options) *cobra.Command {
	var adminID int64
	cmd := &cobra.Command{
		Use:   "unlock <identifier>",
		Short: "Clear the failed-attempt counter and lockout for an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.UnlockAccount(cmd.Context(), args[0], adminID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "unlocked %s\n", args[0])
			return err
		},
	}
	cmd.Flags().Int64Var(&adminID, "admin", 0, "subject id of the administrator performing the unlock")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func writeStatus(w io.Writer, identifier string, status schoolauth.LockoutStatus) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Identifier string `json:"identifier"`
		schoolauth.LockoutStatus
	}{identifier, status})
}
