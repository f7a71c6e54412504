package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/normalize"
	"github.com/reportconsole/internal/reportedit"
	"github.com/reportconsole/internal/schedule"
)

// reportFlags are the edit-form fields shared by create and edit.
type reportFlags struct {
	file       string
	name       string
	sql        string
	connection int

	kind    string
	at      string
	day     int
	weekNo  int
	weekday string
	every   int
	days    []string
	hour    int
	minute  int
	start   int
	end     int

	exports          []string
	removeExports    []int
	to, cc, bcc      []string
	removeRecipients []string

	email          bool
	from           string
	subject        string
	body           string
	attachment     bool
	attachmentName string
	zip            bool
	zipPassword    string

	checkSQL bool
}

func (f *reportFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.file, "file", "", "read the report from a JSON payload file")
	fs.StringVar(&f.name, "name", "", "report name")
	fs.StringVar(&f.sql, "sql", "", "report SQL")
	fs.IntVar(&f.connection, "connection", 0, "database connection ID")

	fs.StringVar(&f.kind, "schedule", "", `schedule kind: "adhoc", "monthly", "weekly", "hourly" or "minute"`)
	fs.StringVar(&f.at, "at", "", "ad hoc run time, YYYY-MM-DD HH:MM")
	fs.IntVar(&f.day, "day", 1, "monthly: day of month")
	fs.IntVar(&f.weekNo, "week-no", 0, "monthly: week of month 1-4, 5 for the last")
	fs.StringVar(&f.weekday, "weekday", "", "monthly: weekday of the week-no rule")
	fs.IntVar(&f.every, "every", 1, "monthly: months, hourly: hours, minute: minutes between runs")
	fs.StringSliceVar(&f.days, "days", nil, "weekly: run days, e.g. Mon,Wed,Fri")
	fs.IntVar(&f.hour, "hour", 0, "run hour 0-23")
	fs.IntVar(&f.minute, "minute", 0, "run minute 0-59")
	fs.IntVar(&f.start, "start", 0, "hourly: first hour of the window")
	fs.IntVar(&f.end, "end", 23, "hourly: last hour of the window")

	fs.StringArrayVar(&f.exports, "export", nil, `add an export "location|name[|extension-id]"`)
	fs.IntSliceVar(&f.removeExports, "remove-export", nil, "remove the export at this position (from 1)")
	fs.StringSliceVar(&f.to, "to", nil, "add To recipients")
	fs.StringSliceVar(&f.cc, "cc", nil, "add CC recipients")
	fs.StringSliceVar(&f.bcc, "bcc", nil, "add BCC recipients")
	fs.StringSliceVar(&f.removeRecipients, "remove-recipient", nil, "remove recipients")

	fs.BoolVar(&f.email, "email", false, "send the notification email")
	fs.StringVar(&f.from, "from", "", "email sender")
	fs.StringVar(&f.subject, "subject", "", "email subject")
	fs.StringVar(&f.body, "body", "", "email body")
	fs.BoolVar(&f.attachment, "attach", false, "attach the output")
	fs.StringVar(&f.attachmentName, "attachment-name", "", "attachment file name")
	fs.BoolVar(&f.zip, "zip", false, "zip the attachment")
	fs.StringVar(&f.zipPassword, "zip-password", "", "zip password")

	fs.BoolVar(&f.checkSQL, "check-sql", false, "check the SQL with the backend before saving")
}

// load returns the starting view: the --file payload when given, else base.
func (f *reportFlags) load(base models.ReportView) (models.ReportView, error) {
	if f.file == "" {
		return base, nil
	}
	raw, err := os.ReadFile(f.file)
	if err != nil {
		return base, fmt.Errorf("failed to read payload: %w", err)
	}
	v, _, err := normalize.Parse(raw)
	if err != nil {
		return base, err
	}
	if base.ID != 0 {
		v.ID = base.ID
	}
	return v, nil
}

// apply edits v with every flag the user set.
func (f *reportFlags) apply(cmd *cobra.Command, v models.ReportView, now time.Time) (models.ReportView, error) {
	changed := cmd.Flags().Changed

	var actions []reportedit.Action
	if changed("name") {
		actions = append(actions, reportedit.Rename(f.name))
	}
	if changed("sql") {
		actions = append(actions, reportedit.SetSQL(f.sql))
	}
	if changed("connection") {
		actions = append(actions, reportedit.SetConnection(f.connection))
	}
	if changed("schedule") {
		kind, err := schedule.ParseKind(f.kind)
		if err != nil {
			return v, err
		}
		actions = append(actions, reportedit.SetFrequency(kind, now))
	}
	v, err := reportedit.Apply(v, actions...)
	if err != nil {
		return v, err
	}

	act, err := f.scheduleAction(changed, v, now)
	if err != nil {
		return v, err
	}
	if act != nil {
		if v, err = reportedit.Apply(v, act); err != nil {
			return v, err
		}
	}

	return reportedit.Apply(v, f.childActions(changed, v)...)
}

// scheduleAction builds the detail edit of the current kind. Fields the user
// did not set keep their stored values.
func (f *reportFlags) scheduleAction(changed func(string) bool, v models.ReportView, now time.Time) (reportedit.Action, error) {
	anySet := func(names ...string) bool {
		for _, n := range names {
			if changed(n) {
				return true
			}
		}
		return false
	}

	switch schedule.Classify(v) {
	case schedule.KindAdhoc:
		if !changed("at") {
			return nil, nil
		}
		at, err := parseAt(f.at, now.Location())
		if err != nil {
			return nil, err
		}
		return reportedit.SetAdhoc(at), nil

	case schedule.KindMonthly:
		if !anySet("day", "week-no", "weekday", "every", "hour", "minute") {
			return nil, nil
		}
		m := v.Month
		r := reportedit.MonthlyRule{
			Day:    pick(changed("day"), f.day, m.DayOfMonth),
			WeekNo: pick(changed("week-no"), f.weekNo, m.WeekNo),
			Every:  pick(changed("every"), f.every, intOr(m.RecurrenceMonths, 1)),
			Hour:   pick(changed("hour"), f.hour, intOr(m.RunHour, 0)),
			Minute: pick(changed("minute"), f.minute, intOr(m.RunMinute, 0)),
		}
		if changed("day") && !changed("week-no") {
			r.WeekNo = 0
		}
		wd := m.WeekDay.String
		if changed("weekday") {
			wd = f.weekday
		}
		if r.WeekNo != 0 {
			d, err := models.ParseWeekday(wd)
			if err != nil {
				return nil, err
			}
			r.WeekDay = d
		}
		if r.WeekNo == 0 && r.Day == 0 {
			r.Day = 1
		}
		return reportedit.SetMonthly(r), nil

	case schedule.KindWeekly:
		if !anySet("days", "hour", "minute") {
			return nil, nil
		}
		w := v.Week
		var days []models.Weekday
		if changed("days") {
			for _, s := range f.days {
				d, err := models.ParseWeekday(s)
				if err != nil {
					return nil, err
				}
				days = append(days, d)
			}
		} else {
			for d := models.Sunday; d <= models.Saturday; d++ {
				if w.HasDay(d) {
					days = append(days, d)
				}
			}
		}
		return reportedit.SetWeekly(days,
			pick(changed("hour"), f.hour, intOr(w.RunHour, 0)),
			pick(changed("minute"), f.minute, intOr(w.RunMinute, 0)),
		), nil

	case schedule.KindHourly:
		if !anySet("every", "start", "end", "minute") {
			return nil, nil
		}
		h := v.Hour
		return reportedit.SetHourly(
			pick(changed("every"), f.every, intOr(h.RecurrenceHours, 1)),
			pick(changed("start"), f.start, intOr(h.RunHourStart, 0)),
			pick(changed("end"), f.end, intOr(h.RunHourEnd, 23)),
			pick(changed("minute"), f.minute, intOr(h.RunMinute, 0)),
		), nil

	case schedule.KindByMinute:
		if !changed("every") {
			return nil, nil
		}
		return reportedit.SetByMinute(f.every), nil
	}
	return nil, nil
}

func (f *reportFlags) childActions(changed func(string) bool, v models.ReportView) []reportedit.Action {
	var actions []reportedit.Action

	removals := append([]int(nil), f.removeExports...)
	sort.Sort(sort.Reverse(sort.IntSlice(removals)))
	for _, pos := range removals {
		actions = append(actions, reportedit.RemoveExport(pos-1))
	}
	for _, spec := range f.exports {
		actions = append(actions, addExport(spec))
	}
	for _, addr := range f.removeRecipients {
		actions = append(actions, reportedit.RemoveRecipient(addr))
	}
	for _, addr := range f.to {
		actions = append(actions, reportedit.AddRecipient(models.SendTypeTo, addr))
	}
	for _, addr := range f.cc {
		actions = append(actions, reportedit.AddRecipient(models.SendTypeCC, addr))
	}
	for _, addr := range f.bcc {
		actions = append(actions, reportedit.AddRecipient(models.SendTypeBCC, addr))
	}

	emailFlags := []string{"email", "from", "subject", "body", "attach", "attachment-name", "zip", "zip-password"}
	for _, n := range emailFlags {
		if changed(n) {
			actions = append(actions, reportedit.SetEmail(f.emailSettings(changed, v.EmailReport)))
			break
		}
	}
	return actions
}

func (f *reportFlags) emailSettings(changed func(string) bool, cur *models.EmailReport) reportedit.EmailSettings {
	if cur == nil {
		cur = &models.EmailReport{Disable: true}
	}
	s := reportedit.EmailSettings{
		Enabled:        !cur.Disable,
		From:           cur.From.String,
		Subject:        cur.Subject.String,
		Body:           cur.Body.String,
		SendSecure:     cur.SendSecure.Bool,
		Attachment:     cur.Attachment.Bool,
		AttachmentName: cur.AttachmentName.String,
		Zip:            cur.ZipFile.Bool,
		ZipPassword:    cur.ZipPassword.String,
	}
	if changed("email") {
		s.Enabled = f.email
	}
	if changed("from") {
		s.From = f.from
	}
	if changed("subject") {
		s.Subject = f.subject
	}
	if changed("body") {
		s.Body = f.body
	}
	if changed("attach") {
		s.Attachment = f.attachment
	}
	if changed("attachment-name") {
		s.AttachmentName = f.attachmentName
	}
	if changed("zip") {
		s.Zip = f.zip
	}
	if changed("zip-password") {
		s.ZipPassword = f.zipPassword
	}
	return s
}

// addExport parses "location|name[|extension-id]".
func addExport(spec string) reportedit.Action {
	return func(v *models.ReportView) error {
		parts := strings.Split(spec, "|")
		if len(parts) < 2 || len(parts) > 3 {
			return fmt.Errorf("invalid export %q, want location|name[|extension-id]", spec)
		}
		e := models.Export{
			Location:      null.StringFrom(strings.TrimSpace(parts[0])),
			Name:          null.StringFrom(strings.TrimSpace(parts[1])),
			IncludeHeader: true,
		}
		if len(parts) == 3 {
			var ext int
			if _, err := fmt.Sscanf(parts[2], "%d", &ext); err != nil {
				return fmt.Errorf("invalid extension id in export %q", spec)
			}
			e.FileExtensionID = null.IntFrom(int64(ext))
		}
		return reportedit.AddExport(e)(v)
	}
}

var atLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	models.LocalTimestampLayout,
	"2006-01-02 3:04 PM",
	"2006-01-02",
}

func parseAt(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range atLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid run time %q, want YYYY-MM-DD HH:MM", s)
}

func pick(set bool, flag, stored int) int {
	if set {
		return flag
	}
	return stored
}

func intOr(n null.Int, def int) int {
	if !n.Valid {
		return def
	}
	return int(n.Int64)
}
