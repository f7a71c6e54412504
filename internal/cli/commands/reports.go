package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guregu/null/v5"
	"github.com/spf13/cobra"

	"github.com/reportconsole/internal/listing"
	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/normalize"
	"github.com/reportconsole/internal/notify"
	"github.com/reportconsole/internal/queryopts"
	"github.com/reportconsole/internal/report"
	"github.com/reportconsole/internal/schedule"
)

func NewReportsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Short:   "Scheduled report commands",
		Aliases: []string{"report", "r"},
	}

	cmd.AddCommand(newReportsListCommand(app))
	cmd.AddCommand(newReportsViewCommand(app))
	cmd.AddCommand(newReportsCreateCommand(app))
	cmd.AddCommand(newReportsEditCommand(app))
	cmd.AddCommand(newReportsScheduleCommand(app))
	cmd.AddCommand(newReportsRescheduleCommand(app))
	cmd.AddCommand(newReportsSuspendCommand(app, true))
	cmd.AddCommand(newReportsSuspendCommand(app, false))
	cmd.AddCommand(newReportsCheckSQLCommand(app))
	cmd.AddCommand(newReportsCheckPathCommand(app))
	cmd.AddCommand(newReportsEmailPreviewCommand(app))
	cmd.AddCommand(newReportsSummaryCommand(app))

	return cmd
}

type listFlags struct {
	status     string
	kind       string
	dayOfWeek  string
	dayOfMonth int
	user       int
	department int
	database   string
	server     string
	search     string
	page       int
	take       int
	orderBy    string
	reverse    bool
	reset      bool
}

var orderByNames = map[string]int{
	"id":     models.OrderByID,
	"name":   models.OrderByName,
	"run":    models.OrderByRunDate,
	"status": models.OrderByStatus,
}

// query starts from the persisted filters and applies the flags that were set.
func (f *listFlags) query(cmd *cobra.Command, q models.ReportQueryOptions) (models.ReportQueryOptions, bool, error) {
	changed := cmd.Flags().Changed
	dirty := false

	if changed("status") {
		s, err := parseStatusFilter(f.status)
		if err != nil {
			return q, false, err
		}
		q.Status, dirty = s, true
	}
	if changed("type") {
		q.Type, dirty = null.Int{}, true
		if f.kind != "" && f.kind != "all" {
			kind, err := schedule.ParseKind(f.kind)
			if err != nil {
				return q, false, err
			}
			q.Type = null.IntFrom(int64(kind.Type()))
		}
	}
	if changed("day-of-week") {
		q.TypeDayOfWeek, dirty = null.Int{}, true
		if f.dayOfWeek != "" {
			d, err := models.ParseWeekday(f.dayOfWeek)
			if err != nil {
				return q, false, err
			}
			q.TypeDayOfWeek = null.IntFrom(int64(d))
		}
	}
	if changed("day-of-month") {
		q.TypeDayOfMonth, dirty = optionalID(f.dayOfMonth), true
	}
	if changed("user") {
		q.User, dirty = optionalID(f.user), true
	}
	if changed("department") {
		q.Department, dirty = optionalID(f.department), true
	}
	if changed("database") {
		q.Database, dirty = f.database, true
	}
	if changed("server") {
		q.Server, dirty = f.server, true
	}
	if changed("search") {
		q.SearchTerm, dirty = f.search, true
	}
	if changed("take") && f.take > 0 {
		q.Take = f.take
	}
	if changed("order-by") {
		n, ok := orderByNames[strings.ToLower(f.orderBy)]
		if !ok {
			return q, false, fmt.Errorf("invalid order %q, want id, name, run or status", f.orderBy)
		}
		q.OrderBy = n
	}
	q.OrderByReverse = f.reverse

	// a changed filter starts over on the first page
	if dirty {
		q.Skip = 0
	}
	if changed("page") {
		q.Skip = max(f.page-1, 0) * q.Take
		dirty = true
	}
	q.Skip = queryopts.AlignSkip(q.Skip, q.Take)
	return q, dirty, nil
}

func optionalID(n int) null.Int {
	if n <= 0 {
		return null.Int{}
	}
	return null.IntFrom(int64(n))
}

func parseStatusFilter(s string) (null.Int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return null.Int{}, nil
	case "active", "scheduled-or-in-process":
		return null.IntFrom(models.StatusScheduledOrInProcess), nil
	case "scheduled":
		return null.IntFrom(models.StatusScheduled), nil
	case "in-process", "running":
		return null.IntFrom(models.StatusInProcess), nil
	case "completed":
		return null.IntFrom(models.StatusCompleted), nil
	case "suspended":
		return null.IntFrom(models.StatusSuspended), nil
	case "error":
		return null.IntFrom(models.StatusError), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return null.Int{}, fmt.Errorf("invalid status filter %q", s)
	}
	return null.IntFrom(int64(n)), nil
}

func newReportsListCommand(app *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List reports; filters are remembered between runs",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if f.reset {
				queryopts.Reset(ctx, app.Store, app.Log)
			}
			q, dirty, err := f.query(cmd, queryopts.Load(ctx, app.Store, app.Log))
			if err != nil {
				return err
			}
			if dirty {
				queryopts.Save(ctx, app.Store, q, app.Log)
			}

			res, err := app.Reports.Reports(ctx, q)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}
			p := listing.Pager{Total: res.Value.Total, Take: q.Take, Skip: q.Skip}
			if len(res.Value.Reports) == 0 && p.Current() > p.TotalPages() {
				// past the last page, show the last one instead
				q.Skip = p.Page(p.TotalPages())
				if res, err = app.Reports.Reports(ctx, q); err != nil {
					return fmt.Errorf("failed to list reports: %w", err)
				}
				p.Skip = q.Skip
			}

			out := stdout(cmd)
			printSource(out, res)
			if err := printReportList(out, res.Value); err != nil {
				return err
			}
			printPager(out, p)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.status, "status", "", "status: active, scheduled, in-process, completed, suspended, error, all or a code")
	fs.StringVar(&f.kind, "type", "", "schedule kind, or all")
	fs.StringVar(&f.dayOfWeek, "day-of-week", "", "weekly reports running on this day")
	fs.IntVar(&f.dayOfMonth, "day-of-month", 0, "monthly reports running on this day, 0 for any")
	fs.IntVar(&f.user, "user", 0, "owner user ID, 0 for any")
	fs.IntVar(&f.department, "department", 0, "department ID, 0 for any")
	fs.StringVar(&f.database, "database", "", "database connection ID")
	fs.StringVar(&f.server, "server", "", "database server")
	fs.StringVar(&f.search, "search", "", "search report names and IDs")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.IntVar(&f.take, "take", 10, "reports per page")
	fs.StringVar(&f.orderBy, "order-by", "id", "order: id, name, run or status")
	fs.BoolVar(&f.reverse, "reverse", false, "reverse the order")
	fs.BoolVar(&f.reset, "reset", false, "clear the remembered filters")

	return cmd
}

func printPager(out io.Writer, p listing.Pager) {
	fmt.Fprintf(out, "Page %d of %d (%d reports)", p.Current(), p.TotalPages(), p.Total)
	if p.TotalPages() > 1 {
		fmt.Fprint(out, "  pages:")
		for _, n := range p.Window() {
			if n == p.Current() {
				fmt.Fprintf(out, " [%d]", n)
			} else {
				fmt.Fprintf(out, " %d", n)
			}
		}
	}
	if p.HasPrev() {
		fmt.Fprintf(out, "  prev: --page %d", p.Current()-1)
	}
	if p.HasNext() {
		fmt.Fprintf(out, "  next: --page %d", p.Current()+1)
	}
	fmt.Fprintln(out)
}

func printReportList(out io.Writer, list models.ReportList) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tWHEN\tSTATUS\tLAST RUN\tOWNER")
	for _, rc := range list.Reports {
		v := models.FromComplex(rc)
		owner := ""
		if v.User != nil {
			owner = v.User.FullName()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.ID,
			v.Name,
			schedule.Describe(v),
			models.StatusLabel(v.StatusCode()),
			v.RunDate.String,
			owner,
		)
	}
	return w.Flush()
}

func newReportsViewCommand(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "view [id]",
		Short: "Show a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			res, err := app.Reports.Detail(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			out := stdout(cmd)
			if asJSON {
				return writeJSON(out, res.Value)
			}
			printSource(out, res)
			printReport(out, res.Value, app.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the normalized report as JSON")
	return cmd
}

func printReport(out io.Writer, v models.ReportView, now time.Time) {
	fmt.Fprintf(out, "ID:          %d\n", v.ID)
	fmt.Fprintf(out, "Name:        %s\n", v.Name)
	fmt.Fprintf(out, "Status:      %s\n", models.StatusLabel(v.StatusCode()))
	fmt.Fprintf(out, "Schedule:    %s\n", schedule.DescribeDetail(v))
	if next, err := schedule.NextRun(v, now); err == nil && !v.IsSuspended() {
		fmt.Fprintf(out, "Next run:    %s\n", next.Format("2006-01-02 15:04"))
	}
	conn := strconv.Itoa(v.ConnectionID)
	if dc := v.DatabaseConnection; dc != nil {
		conn = fmt.Sprintf("%s (%s/%s)", dc.Name, dc.DataSource, dc.InitialCatalog)
	}
	fmt.Fprintf(out, "Connection:  %s\n", conn)
	if v.User != nil {
		fmt.Fprintf(out, "Owner:       %s\n", v.User.FullName())
	}
	if v.Department != nil {
		fmt.Fprintf(out, "Department:  %s\n", v.Department.Name)
	}
	if v.RunDate.Valid {
		fmt.Fprintf(out, "Last run:    %s (%ds)\n", v.RunDate.String, v.RunTimeDurationSeconds.Int64)
	}
	fmt.Fprintf(out, "SQL:\n  %s\n", strings.ReplaceAll(v.SQL, "\n", "\n  "))

	if len(v.Exports) > 0 {
		fmt.Fprintln(out, "Exports:")
		for i, e := range v.Exports {
			fmt.Fprintf(out, "  %d. %s | %s\n", i+1, e.Export.Location.String, e.Export.Name.String)
		}
	}
	if len(v.EmailLists) > 0 {
		fmt.Fprintln(out, "Recipients:")
		for _, el := range v.EmailLists {
			fmt.Fprintf(out, "  %-4s %s\n", el.SendType.String, el.Address.String)
		}
	}
	if len(v.Logs) > 0 {
		fmt.Fprintln(out, "Errors:")
		for _, l := range v.Logs {
			fmt.Fprintf(out, "  %s %s\n", l.Timestamp, l.Message.String)
		}
	}
}

func newReportsCreateCommand(app *App) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.Now()
			v, err := f.load(normalize.Empty(now))
			if err != nil {
				return err
			}
			if v, err = f.apply(cmd, v, now); err != nil {
				return err
			}
			return saveReport(cmd, app, &f, v, true)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newReportsEditCommand(app *App) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			cur, err := app.Reports.Report(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			v, err := f.load(cur.Value)
			if err != nil {
				return err
			}
			if v, err = f.apply(cmd, v, app.Now()); err != nil {
				return err
			}
			return saveReport(cmd, app, &f, v, false)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

// newReportsScheduleCommand is edit restricted to the schedule fields.
func newReportsScheduleCommand(app *App) *cobra.Command {
	cmd := newReportsEditCommand(app)
	cmd.Use = "schedule [id]"
	cmd.Short = "Change when a report runs"
	for _, name := range []string{"file", "name", "sql", "connection", "export", "remove-export", "to", "cc", "bcc",
		"remove-recipient", "email", "from", "subject", "body", "attach", "attachment-name", "zip", "zip-password", "check-sql"} {
		_ = cmd.Flags().MarkHidden(name)
	}
	return cmd
}

// saveReport runs the optional server checks, then saves. Check failures are
// printed and do not block the save.
func saveReport(cmd *cobra.Command, app *App, f *reportFlags, v models.ReportView, create bool) error {
	ctx := cmd.Context()
	out := stdout(cmd)

	if f.checkSQL {
		res, err := app.Reports.CheckSQLSyntax(ctx, v.ConnectionID, v.SQL)
		switch {
		case err != nil:
			fmt.Fprintf(out, "SQL check unavailable: %v\n", err)
		case !res.OK():
			fmt.Fprintf(out, "SQL error: %s\n", res.SQLErrorMsg.String)
		default:
			fmt.Fprintln(out, "SQL OK")
		}
	}

	save := app.Reports.SaveReport
	if create {
		save = app.Reports.CreateReport
	}
	res, err := save(ctx, v)
	if err != nil {
		return explain(err)
	}
	printWrite(out, fmt.Sprintf("report %d %q", res.Value.ID, res.Value.Name), res)
	return nil
}

func newReportsRescheduleCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule [id]",
		Short: "Queue a report to run again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			cur, err := app.Reports.Report(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			status, err := app.Reports.Reschedule(cmd.Context(), cur.Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "report %d: %s\n", id, status)
			return nil
		},
	}
}

func newReportsSuspendCommand(app *App, suspend bool) *cobra.Command {
	use, short := "activate [id]", "Activate a suspended report"
	if suspend {
		use, short = "suspend [id]", "Suspend a report"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			cur, err := app.Reports.Report(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			status, err := app.Reports.ActiveSuspend(cmd.Context(), cur.Value, suspend)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "report %d: %s\n", id, status)
			return nil
		},
	}
}

func newReportsCheckSQLCommand(app *App) *cobra.Command {
	var connection int
	var sqlFile string
	cmd := &cobra.Command{
		Use:   "check-sql [sql]",
		Short: "Check SQL syntax against a connection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql := strings.Join(args, " ")
			if sqlFile != "" {
				data, err := os.ReadFile(sqlFile)
				if err != nil {
					return fmt.Errorf("failed to read SQL file: %w", err)
				}
				sql = string(data)
			}
			res, err := app.Reports.CheckSQLSyntax(cmd.Context(), connection, sql)
			if err != nil {
				return err
			}
			if !res.OK() {
				fmt.Fprintf(stdout(cmd), "SQL error: %s\n", res.SQLErrorMsg.String)
				return nil
			}
			fmt.Fprintln(stdout(cmd), "SQL OK")
			return nil
		},
	}
	cmd.Flags().IntVar(&connection, "connection", 0, "database connection ID")
	cmd.Flags().StringVar(&sqlFile, "file", "", "read the SQL from a file")
	_ = cmd.MarkFlagRequired("connection")
	return cmd
}

func newReportsCheckPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check-path [location] [name]",
		Short: "Check that an export location is valid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := models.Export{Location: null.StringFrom(args[0]), Name: null.StringFrom(args[1])}
			res, err := app.Reports.CheckValidPath(cmd.Context(), e)
			if err != nil {
				return explain(err)
			}
			state := "invalid"
			if res.IsValid {
				state = "valid"
			}
			fmt.Fprintf(stdout(cmd), "path %s: %s\n", state, res.Message)
			return nil
		},
	}
}

func newReportsEmailPreviewCommand(app *App) *cobra.Command {
	var send bool
	cmd := &cobra.Command{
		Use:   "email-preview [id]",
		Short: "Show the notification mail a report run sends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			cur, err := app.Reports.Report(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			p, err := notify.EmailPreview(cur.Value, app.Now())
			if err != nil {
				return err
			}
			if send {
				mailer := notify.NewMailer(app.Config.Notify.Email)
				if mailer == nil {
					return fmt.Errorf("notify.email.smtp_host is not configured")
				}
				if err := mailer.Send(p); err != nil {
					return err
				}
				fmt.Fprintf(stdout(cmd), "sent to %d recipients\n", len(p.To)+len(p.CC)+len(p.BCC))
				return nil
			}
			_, err = p.WriteTo(stdout(cmd))
			return err
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "send the mail through the configured SMTP server")
	return cmd
}

func newReportsSummaryCommand(app *App) *cobra.Command {
	var htmlOut string
	var upcoming int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize every report by status and schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := models.DefaultReportQueryOptions()
			q.Take = 1 << 20
			res, err := app.Reports.Reports(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}
			g, err := report.NewGenerator(upcoming)
			if err != nil {
				return err
			}
			s := g.Summarize(res.Value, app.Now())

			if htmlOut != "" {
				page, err := g.HTML(s)
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlOut, page, 0644); err != nil {
					return fmt.Errorf("failed to write summary: %w", err)
				}
			}

			out := stdout(cmd)
			printSource(out, res)
			printSummary(out, s)
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlOut, "html", "", "also write the summary as HTML to this file")
	cmd.Flags().IntVar(&upcoming, "upcoming", 10, "number of upcoming runs to show")
	return cmd
}

func printSummary(out io.Writer, s report.Summary) {
	fmt.Fprintf(out, "%d reports\n\n", s.Total)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT")
	for _, c := range s.ByStatus {
		fmt.Fprintf(w, "%s\t%d\n", c.Label, c.Count)
	}
	fmt.Fprintln(w, "\t")
	fmt.Fprintln(w, "SCHEDULE\tCOUNT")
	for _, c := range s.ByKind {
		fmt.Fprintf(w, "%s\t%d\n", c.Label, c.Count)
	}
	_ = w.Flush()

	if len(s.Upcoming) > 0 {
		fmt.Fprintln(out, "\nUpcoming runs:")
		w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, r := range s.Upcoming {
			fmt.Fprintf(w, "%s\t%d\t%s\n", r.Next.Format("2006-01-02 15:04"), r.ID, r.Name)
		}
		_ = w.Flush()
	}
	if len(s.Errors) > 0 {
		fmt.Fprintln(out, "\nIn error:")
		for _, r := range s.Errors {
			fmt.Fprintf(out, "  %d %s (last run %s)\n", r.ID, r.Name, r.LastRun)
		}
	}
}
