package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand wires every command group to app. Setup runs once the
// flags are parsed.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "reportconsole",
		Short: "Report console CLI - manage scheduled database reports",
		Long: `reportconsole manages scheduled database reports, their users and
database connections. When the report backend is unreachable, reads fall
back to local data and writes are saved locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Setup(cmd.Context())
		},
	}
	app.BindFlags(root)

	root.AddCommand(NewReportsCommand(app))
	root.AddCommand(NewUsersCommand(app))
	root.AddCommand(NewDatabasesCommand(app))
	root.AddCommand(NewAuthCommand(app))

	return root
}

// Execute runs root and closes app afterwards, whether or not the command failed.
func Execute(ctx context.Context, app *App, root *cobra.Command) error {
	defer app.Close()
	return root.ExecuteContext(ctx)
}
