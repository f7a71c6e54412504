package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/guregu/null/v5"
	"github.com/spf13/cobra"

	"github.com/reportconsole/internal/models"
)

func NewDatabasesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "databases",
		Short:   "Database connection commands",
		Aliases: []string{"database", "db"},
	}

	cmd.AddCommand(newDatabasesListCommand(app))
	cmd.AddCommand(newDatabasesViewCommand(app))
	cmd.AddCommand(newDatabasesSaveCommand(app, true))
	cmd.AddCommand(newDatabasesSaveCommand(app, false))

	return cmd
}

func newDatabasesListCommand(app *App) *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List database connections",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Databases.Databases(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list databases: %w", err)
			}
			out := stdout(cmd)
			printSource(out, res)

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSERVER\tCATALOG\tPROVIDER\tACTIVE")
			for _, dc := range res.Value {
				if activeOnly && !dc.Active {
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					dc.ID, dc.Name, dc.DataSource, dc.InitialCatalog, dc.Provider, yesNo(dc.Active))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active connections")
	return cmd
}

func newDatabasesViewCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "view [id]",
		Short: "Show a database connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "connection")
			if err != nil {
				return err
			}
			res, err := app.Databases.Database(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load connection: %w", err)
			}
			out := stdout(cmd)
			printSource(out, res)
			dc := res.Value
			fmt.Fprintf(out, "ID:          %d\n", dc.ID)
			fmt.Fprintf(out, "Name:        %s\n", dc.Name)
			fmt.Fprintf(out, "Type:        %s\n", dc.Type)
			fmt.Fprintf(out, "Provider:    %s\n", dc.Provider)
			fmt.Fprintf(out, "Server:      %s\n", dc.DataSource)
			fmt.Fprintf(out, "Catalog:     %s\n", dc.InitialCatalog)
			if dc.Schema.Valid {
				fmt.Fprintf(out, "Schema:      %s\n", dc.Schema.String)
			}
			fmt.Fprintf(out, "Integrated:  %s\n", dc.IntegratedSecurity)
			fmt.Fprintf(out, "Trusted:     %s\n", dc.TrustedConnection)
			fmt.Fprintf(out, "Active:      %s\n", yesNo(dc.Active))
			if dc.LastUpdate.Valid {
				fmt.Fprintf(out, "Updated:     %s\n", dc.LastUpdate.String)
			}
			return nil
		},
	}
}

type databaseFlags struct {
	name       string
	kind       string
	provider   string
	server     string
	catalog    string
	schema     string
	integrated string
	trusted    string
	active     bool
}

func (f *databaseFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "connection name")
	fs.StringVar(&f.kind, "type", "", "connection type")
	fs.StringVar(&f.provider, "provider", "", "provider, e.g. SQLOLEDB")
	fs.StringVar(&f.server, "server", "", "data source")
	fs.StringVar(&f.catalog, "catalog", "", "initial catalog")
	fs.StringVar(&f.schema, "schema", "", "default schema")
	fs.StringVar(&f.integrated, "integrated-security", "", "integrated security setting, e.g. SSPI")
	fs.StringVar(&f.trusted, "trusted-connection", "", "trusted connection setting")
	fs.BoolVar(&f.active, "active", true, "connection is active")
}

func (f *databaseFlags) apply(cmd *cobra.Command, dc models.DatabaseConnection) models.DatabaseConnection {
	changed := cmd.Flags().Changed
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	set("name", &dc.Name, f.name)
	set("type", &dc.Type, f.kind)
	set("provider", &dc.Provider, f.provider)
	set("server", &dc.DataSource, f.server)
	set("catalog", &dc.InitialCatalog, f.catalog)
	set("integrated-security", &dc.IntegratedSecurity, f.integrated)
	set("trusted-connection", &dc.TrustedConnection, f.trusted)
	if changed("schema") {
		dc.Schema = null.NewString(f.schema, f.schema != "")
	}
	if changed("active") || dc.ID == 0 {
		dc.Active = f.active
	}
	return dc
}

func newDatabasesSaveCommand(app *App, create bool) *cobra.Command {
	var f databaseFlags
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a database connection",
		Args:  cobra.ExactArgs(1),
	}
	if create {
		cmd.Use, cmd.Short, cmd.Args = "create", "Create a database connection", cobra.NoArgs
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var dc models.DatabaseConnection
		if !create {
			id, err := parseID(args[0], "connection")
			if err != nil {
				return err
			}
			cur, err := app.Databases.Database(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load connection: %w", err)
			}
			dc = cur.Value
		}
		res, err := app.Databases.SaveDatabase(cmd.Context(), f.apply(cmd, dc))
		if err != nil {
			return explain(err)
		}
		printWrite(stdout(cmd), fmt.Sprintf("connection %d %q", res.Value.ID, res.Value.Name), res)
		return nil
	}
	f.register(cmd)
	return cmd
}
