package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
)

const smokePasswordEnv = "AUTHD_SMOKE_PASSWORD"

// newTokenCommand runs a full login, validate, refresh and logout cycle
// against the configured stores.
func newTokenCommand(opts *options) *cobra.Command {
	var (
		identifier string
		password   string
		rememberMe bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Smoke-test login, access validation, refresh and logout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(smokePasswordEnv)
			}
			if identifier == "" || password == "" {
				return fmt.Errorf("--identifier and --password (or %s) are required", smokePasswordEnv)
			}

			rt, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runSmoke(cmd, rt.engine, identifier, password, rememberMe)
		},
	}
	cmd.Flags().StringVar(&identifier, "identifier", "", "username or email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&rememberMe, "remember-me", false, "request the remember-me refresh tier")
	return cmd
}

func runSmoke(cmd *cobra.Command, engine *schoolauth.Engine, identifier, password string, rememberMe bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	res, err := engine.Login(ctx, identifier, password, rememberMe)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	step(out, "login", "subject=%d role=%s", res.User.ID, res.User.Role)

	claims, err := engine.ValidateAccessToken(ctx, res.AccessToken)
	if err != nil {
		return fmt.Errorf("validate access token: %w", err)
	}
	step(out, "validate", "expires=%s", claims.ExpiresAt.Time.UTC().Format("2006-01-02T15:04:05Z"))

	if _, err := engine.RefreshAccessToken(ctx, res.RefreshToken); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	step(out, "refresh", "rotated")

	if _, err := engine.RefreshAccessToken(ctx, res.RefreshToken); err == nil {
		return fmt.Errorf("refresh: superseded token was accepted")
	}
	step(out, "reuse", "superseded refresh token rejected")

	if err := engine.Logout(ctx, res.User.ID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	step(out, "logout", "session cleared")
	return nil
}

func step(w io.Writer, name, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%-9s %s\n", name+":", fmt.Sprintf(format, args...))
}
