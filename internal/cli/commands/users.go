package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reportconsole/internal/models"
)

func NewUsersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Short:   "User administration commands",
		Aliases: []string{"user", "u"},
	}

	cmd.AddCommand(newUsersListCommand(app))
	cmd.AddCommand(newUsersViewCommand(app))
	cmd.AddCommand(newUsersCreateCommand(app))
	cmd.AddCommand(newUsersEditCommand(app))
	cmd.AddCommand(newUsersDeleteCommand(app))

	return cmd
}

func newUsersListCommand(app *App) *cobra.Command {
	var department int
	var search string
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List users",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Users.Users(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			out := stdout(cmd)
			printSource(out, res)

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLOGIN\tEMAIL\tDEPARTMENT\tACCESS")
			for _, u := range res.Value.Users {
				if department > 0 && u.User.DepartmentID != department {
					continue
				}
				if search != "" && !userMatches(u.User, search) {
					continue
				}
				dept := strconv.Itoa(u.User.DepartmentID)
				if u.Department != nil && u.Department.Name != "" {
					dept = u.Department.Name
				}
				access := strconv.Itoa(u.User.AccessID)
				if u.UserAccess != nil && u.UserAccess.Description != "" {
					access = u.UserAccess.Description
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					u.User.ID, u.User.FullName(), u.User.NTLogin, u.User.Email, dept, access)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&department, "department", 0, "only users of this department")
	cmd.Flags().StringVar(&search, "search", "", "match name, login or email")
	return cmd
}

func userMatches(u models.UserItem, term string) bool {
	term = strings.ToLower(term)
	for _, s := range []string{u.FullName(), u.NTLogin, u.Email} {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func newUsersViewCommand(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "view [id]",
		Short: "Show a user and their database access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			res, err := app.Users.User(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}
			out := stdout(cmd)
			if asJSON {
				return writeJSON(out, res.Value)
			}
			printSource(out, res)
			return printUser(out, res.Value)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the user as JSON")
	return cmd
}

func printUser(out io.Writer, e models.UserEdit) error {
	u := e.User.User
	fmt.Fprintf(out, "ID:          %d\n", u.ID)
	fmt.Fprintf(out, "Name:        %s\n", u.FullName())
	fmt.Fprintf(out, "Login:       %s\n", u.NTLogin)
	fmt.Fprintf(out, "Email:       %s\n", u.Email)
	fmt.Fprintf(out, "Department:  %s\n", optionName(u.DepartmentID, departmentName(e.Departments, u.DepartmentID)))
	fmt.Fprintf(out, "Access:      %s\n", optionName(u.AccessID, accessName(e.UserAccess, u.AccessID)))
	fmt.Fprintf(out, "Time zone:   %s\n", optionName(u.TimeZoneID, timeZoneName(e.TimeZone, u.TimeZoneID)))
	if u.RunConsolePermission {
		fmt.Fprintln(out, "Run console: yes")
	}
	if u.Developer {
		fmt.Fprintln(out, "Developer:   yes")
	}
	if len(e.DatabaseAccess) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nDatabase access:")
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CONNECTION\tNAME\tIMPORT\tEXPORT")
	for _, da := range e.DatabaseAccess {
		if da.DatabaseConnection == nil {
			continue
		}
		var imp, exp bool
		if da.DatabaseAccess != nil {
			imp, exp = da.DatabaseAccess.ImportAccess, da.DatabaseAccess.ExportAccess
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", da.DatabaseConnection.ID, da.DatabaseConnection.Name, yesNo(imp), yesNo(exp))
	}
	return w.Flush()
}

func optionName(id int, name string) string {
	if name == "" {
		return strconv.Itoa(id)
	}
	return fmt.Sprintf("%s (%d)", name, id)
}

func departmentName(list []models.Department, id int) string {
	for _, d := range list {
		if d.ID == id {
			return d.Name
		}
	}
	return ""
}

func accessName(list []models.UserAccess, id int) string {
	for _, a := range list {
		if a.ID == id {
			return a.Description
		}
	}
	return ""
}

func timeZoneName(list []models.TimeZoneOffset, id int) string {
	for _, tz := range list {
		if tz.ID == id {
			return tz.Name
		}
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type userFlags struct {
	first      string
	last       string
	login      string
	email      string
	department int
	access     int
	timeZone   int
	runConsole bool
	developer  bool
	dbAccess   []string
}

func (f *userFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.first, "first-name", "", "first name")
	fs.StringVar(&f.last, "last-name", "", "last name")
	fs.StringVar(&f.login, "login", "", "NT login")
	fs.StringVar(&f.email, "email", "", "email address")
	fs.IntVar(&f.department, "department", 0, "department ID")
	fs.IntVar(&f.access, "access", 0, "access level ID")
	fs.IntVar(&f.timeZone, "time-zone", 0, "time zone ID")
	fs.BoolVar(&f.runConsole, "run-console", false, "allow running reports from the console")
	fs.BoolVar(&f.developer, "developer", false, "mark as developer")
	fs.StringArrayVar(&f.dbAccess, "db-access", nil, "connection access as ID=import,export (ID= revokes)")
}

// apply copies the changed flags onto the edit form.
func (f *userFlags) apply(cmd *cobra.Command, e models.UserEdit) (models.UserEdit, error) {
	changed := cmd.Flags().Changed
	u := &e.User.User
	if changed("first-name") {
		u.FirstName = f.first
	}
	if changed("last-name") {
		u.LastName = f.last
	}
	if changed("login") {
		u.NTLogin = f.login
	}
	if changed("email") {
		u.Email = f.email
	}
	if changed("department") {
		u.DepartmentID = f.department
	}
	if changed("access") {
		u.AccessID = f.access
	}
	if changed("time-zone") {
		u.TimeZoneID = f.timeZone
	}
	if changed("run-console") {
		u.RunConsolePermission = f.runConsole
	}
	if changed("developer") {
		u.Developer = f.developer
	}
	for _, spec := range f.dbAccess {
		var err error
		if e, err = setDatabaseAccess(e, spec); err != nil {
			return e, err
		}
	}
	return e, nil
}

func setDatabaseAccess(e models.UserEdit, spec string) (models.UserEdit, error) {
	idPart, rights, ok := strings.Cut(spec, "=")
	if !ok {
		return e, fmt.Errorf("invalid --db-access %q, want ID=import,export", spec)
	}
	connID, err := strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil {
		return e, fmt.Errorf("invalid connection ID in --db-access %q", spec)
	}
	var imp, exp bool
	for _, r := range strings.Split(rights, ",") {
		switch strings.ToLower(strings.TrimSpace(r)) {
		case "":
		case "import", "i":
			imp = true
		case "export", "e":
			exp = true
		default:
			return e, fmt.Errorf("invalid access %q in --db-access, want import or export", r)
		}
	}

	access := &models.DatabaseAccess{UserID: e.User.User.ID, ConnectionID: connID, ImportAccess: imp, ExportAccess: exp}
	for i, da := range e.DatabaseAccess {
		if da.DatabaseConnection != nil && da.DatabaseConnection.ID == connID {
			if da.DatabaseAccess != nil {
				access.ID = da.DatabaseAccess.ID
			}
			e.DatabaseAccess[i].DatabaseAccess = access
			return e, nil
		}
	}
	e.DatabaseAccess = append(e.DatabaseAccess, models.DatabaseAccessComplex{
		DatabaseConnection: &models.DatabaseConnection{ID: connID},
		DatabaseAccess:     access,
	})
	return e, nil
}

func newUsersCreateCommand(app *App) *cobra.Command {
	var f userFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := f.apply(cmd, models.UserEdit{})
			if err != nil {
				return err
			}
			res, err := app.Users.CreateUser(cmd.Context(), e)
			if err != nil {
				return explain(err)
			}
			printWrite(stdout(cmd), fmt.Sprintf("user %d %q", res.Value.User.ID, res.Value.User.FullName()), res)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newUsersEditCommand(app *App) *cobra.Command {
	var f userFlags
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			cur, err := app.Users.User(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}
			e, err := f.apply(cmd, cur.Value)
			if err != nil {
				return err
			}
			res, err := app.Users.UpdateUser(cmd.Context(), id, e)
			if err != nil {
				return explain(err)
			}
			printWrite(stdout(cmd), fmt.Sprintf("user %d %q", id, res.Value.User.FullName()), res)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newUsersDeleteCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete [id]",
		Short:   "Delete a user",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete user %d without --yes", id)
			}
			res, err := app.Users.DeleteUser(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			printWrite(stdout(cmd), fmt.Sprintf("user %d", id), res)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}
