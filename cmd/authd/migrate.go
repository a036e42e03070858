package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pginfra "github.com/vidkid7/SchoolManagementSystem-sub009/userstore/postgres"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending users table migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadBase(opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := pginfra.Migrate(cmd.Context(), rt.cfg.DB.URL); err != nil {
				rt.logger.Error("migrate", zap.Error(err))
				return err
			}
			rt.logger.Info("migrations applied")
			return nil
		},
	}
}
