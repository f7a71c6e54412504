package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reportconsole/internal/auth"
)

func NewAuthCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "API token commands",
	}
	cmd.AddCommand(newAuthStatusCommand(app))
	cmd.AddCommand(newAuthIssueCommand(app))
	return cmd
}

func newAuthStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured token and whether the backend accepts it",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := stdout(cmd)
			fmt.Fprintf(out, "Backend:  %s\n", app.Client.BaseURL())
			if token := app.Config.API.Token; token != "" {
				info, err := auth.Inspect(token, app.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Subject:  %s\n", info.Subject)
				fmt.Fprintf(out, "Admin:    %s\n", yesNo(info.Admin))
				if !info.ExpiresAt.IsZero() {
					state := "valid until"
					if info.Expired {
						state = "expired at"
					}
					fmt.Fprintf(out, "Token:    %s %s\n", state, info.ExpiresAt.Format("2006-01-02 15:04"))
				}
			} else {
				fmt.Fprintln(out, "Token:    none")
			}

			res, err := app.Reports.HasApplicationAccess(cmd.Context())
			if err != nil {
				return err
			}
			access := yesNo(res.Value)
			if !res.Live() {
				access += " (backend unreachable)"
			}
			fmt.Fprintf(out, "Access:   %s\n", access)
			return nil
		},
	}
}

func newAuthIssueCommand(app *App) *cobra.Command {
	var subject string
	var admin bool
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token signed with server.jwt_secret for the development server",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := app.Config.Server.JWTSecret
			if secret == "" {
				return fmt.Errorf("server.jwt_secret is not configured")
			}
			token, err := auth.Issue([]byte(secret), subject, admin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "console", "token subject")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant administrator rights")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
