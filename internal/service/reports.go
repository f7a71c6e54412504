package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reportconsole/internal/fallback"
	"github.com/reportconsole/internal/listing"
	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/normalize"
	"github.com/reportconsole/internal/storage"
	"github.com/reportconsole/internal/validate"
)

// ReportsAPI is the part of the REST client the reports screens use.
type ReportsAPI interface {
	HasApplicationAccess(ctx context.Context) (bool, error)
	GetSetupData(ctx context.Context) (*models.Setup, error)
	GetReports(ctx context.Context, q models.ReportQueryOptions) (*models.ReportList, error)
	GetReport(ctx context.Context, id int, isAdmin bool) (json.RawMessage, error)
	CreateReport(ctx context.Context, payload models.ReportComplex) (json.RawMessage, error)
	SaveReport(ctx context.Context, payload models.ReportComplex) (json.RawMessage, error)
	CheckSQLSyntax(ctx context.Context, req models.SQLCheckRequest) (*models.ProcessReportQuery, error)
	CheckValidPath(ctx context.Context, export models.Export) (*models.PathCheck, error)
	RescheduleReport(ctx context.Context, payload models.ReportComplex) (json.RawMessage, error)
	ActiveSuspendReport(ctx context.Context, req models.SuspendRequest) (json.RawMessage, error)
}

type ReportsService struct {
	base
	api     ReportsAPI
	assets  *fallback.Assets
	snap    *fallback.Snapshot[models.ReportList]
	isAdmin bool
}

func NewReportsService(api ReportsAPI, store storage.Store, assets *fallback.Assets, isAdmin bool, opts ...Option) *ReportsService {
	return &ReportsService{
		base:    newBase(opts),
		api:     api,
		assets:  assets,
		snap:    fallback.NewSnapshot(store, fallback.KeyReports, assets.Reports),
		isAdmin: isAdmin,
	}
}

// HasApplicationAccess assumes access when the backend cannot answer.
func (s *ReportsService) HasApplicationAccess(ctx context.Context) (Result[bool], error) {
	ok, err := s.api.HasApplicationAccess(ctx)
	if err == nil {
		return live(ok), nil
	}
	if !s.unavailable(ctx, "hasapplicationaccess", err) {
		return Result[bool]{}, unrecoverable("check application access", err)
	}
	return degraded(true), nil
}

// SetupData falls back to the bundled lookups, then to empty lists.
func (s *ReportsService) SetupData(ctx context.Context) (Result[models.Setup], error) {
	setup, err := s.api.GetSetupData(ctx)
	if err == nil {
		return live(*setup), nil
	}
	if !s.unavailable(ctx, "getsetupdata", err) {
		return Result[models.Setup]{}, unrecoverable("load setup data", err)
	}
	fb, aerr := s.assets.Setup()
	if aerr != nil {
		s.log.Error("fallback setup data unreadable", zap.Error(aerr))
		fb = models.Setup{
			Users:              []models.UserItem{},
			Departments:        []models.Department{},
			DatabaseConnection: []models.DatabaseConnection{},
		}
	}
	return degraded(fb), nil
}

// Reports queries the backend. Offline, the snapshot (seeded from the
// bundled sample) is filtered and paged locally.
func (s *ReportsService) Reports(ctx context.Context, q models.ReportQueryOptions) (Result[models.ReportList], error) {
	list, err := s.api.GetReports(ctx, q)
	if err == nil {
		return live(*list), nil
	}
	if !s.unavailable(ctx, "getreports", err) {
		return Result[models.ReportList]{}, unrecoverable("load reports", err)
	}
	fb, _, lerr := s.snap.Load(ctx)
	if lerr != nil {
		s.log.Error("fallback report list unreadable", zap.Error(lerr))
		return degraded(models.ReportList{Reports: []models.ReportComplex{}}), nil
	}
	if len(fb.DatabaseConnection) == 0 {
		if setup, serr := s.assets.Setup(); serr == nil {
			fb.DatabaseConnection = setup.DatabaseConnection
		}
	}
	return degraded(listing.Apply(fb, q)), nil
}

// Report loads one report, normalized. Offline, or when the backend answers
// with an unusable payload, the snapshot entry is used.
func (s *ReportsService) Report(ctx context.Context, id int) (Result[models.ReportView], error) {
	raw, err := s.api.GetReport(ctx, id, s.isAdmin)
	if err == nil {
		view, shape, perr := normalize.Parse(raw)
		if perr == nil {
			s.log.Debug("report payload parsed", zap.Int("id", id), zap.Stringer("shape", shape))
			return live(view), nil
		}
		s.log.Warn("unusable report payload", zap.Int("id", id), zap.Error(perr))
	} else if !s.unavailable(ctx, "getreport", err) {
		return Result[models.ReportView]{}, unrecoverable("load report", err)
	}

	view, ferr := s.fallbackReport(ctx, id)
	if ferr != nil {
		return Result[models.ReportView]{}, ferr
	}
	return degraded(view), nil
}

func (s *ReportsService) fallbackReport(ctx context.Context, id int) (models.ReportView, error) {
	list, _, err := s.snap.Load(ctx)
	if err != nil {
		return models.ReportView{}, unrecoverable("load fallback reports", err)
	}
	i := list.Find(id)
	if i < 0 {
		return models.ReportView{}, fmt.Errorf("report %d: %w", id, ErrNotFound)
	}
	raw, err := json.Marshal(list.Reports[i])
	if err != nil {
		return models.ReportView{}, fmt.Errorf("failed to encode fallback report: %w", err)
	}
	view, _, err := normalize.Parse(raw)
	if err != nil {
		return models.ReportView{}, fmt.Errorf("failed to parse fallback report %d: %w", id, err)
	}
	return view, nil
}

// Detail loads the report and the setup lookups concurrently and fills the
// report's linked objects from them once both have answered.
func (s *ReportsService) Detail(ctx context.Context, id int) (Result[models.ReportView], error) {
	var (
		report Result[models.ReportView]
		setup  Result[models.Setup]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = s.Report(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		setup, err = s.SetupData(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result[models.ReportView]{}, err
	}

	out := Result[models.ReportView]{
		Value:  normalize.Denormalize(report.Value, setup.Value),
		Source: report.Source,
	}
	if setup.Source == SourceFallback {
		out.Source = SourceFallback
	}
	return out, nil
}

// CreateReport validates v and creates it. Offline, v is prepended to the
// snapshot with the next free id.
func (s *ReportsService) CreateReport(ctx context.Context, v models.ReportView) (Result[models.ReportView], error) {
	if err := validate.Report(v); err != nil {
		return Result[models.ReportView]{}, err
	}
	raw, err := s.api.CreateReport(ctx, v.Complex())
	if err == nil {
		return s.echoed(raw, v), nil
	}
	if !s.unavailable(ctx, "create report", err) {
		return Result[models.ReportView]{}, unrecoverable("create report", err)
	}

	saved := v.Clone()
	_, err = s.snap.Update(ctx, func(list *models.ReportList) error {
		if saved.ID == 0 || list.Find(saved.ID) >= 0 {
			saved.ID = list.NextID()
		}
		list.Reports = append([]models.ReportComplex{saved.Complex()}, list.Reports...)
		list.Total++
		return nil
	})
	if err != nil {
		return Result[models.ReportView]{}, unrecoverable("save report locally", err)
	}
	res := degraded(saved)
	res.LocalRef = s.savedOffline(ctx, "report", "create", saved.Name)
	return res, nil
}

// SaveReport validates v and saves it. Offline, the snapshot entry with the
// same id is replaced, or v is prepended when there is none.
func (s *ReportsService) SaveReport(ctx context.Context, v models.ReportView) (Result[models.ReportView], error) {
	if err := validate.Report(v); err != nil {
		return Result[models.ReportView]{}, err
	}
	raw, err := s.api.SaveReport(ctx, v.Complex())
	if err == nil {
		return s.echoed(raw, v), nil
	}
	if !s.unavailable(ctx, "save report", err) {
		return Result[models.ReportView]{}, unrecoverable("save report", err)
	}

	saved := v.Clone()
	_, err = s.snap.Update(ctx, func(list *models.ReportList) error {
		if i := list.Find(saved.ID); i >= 0 && saved.ID != 0 {
			list.Reports[i] = saved.Complex()
			return nil
		}
		if saved.ID == 0 {
			saved.ID = list.NextID()
		}
		list.Reports = append([]models.ReportComplex{saved.Complex()}, list.Reports...)
		list.Total++
		return nil
	})
	if err != nil {
		return Result[models.ReportView]{}, unrecoverable("save report locally", err)
	}
	res := degraded(saved)
	res.LocalRef = s.savedOffline(ctx, "report", "save", saved.Name)
	return res, nil
}

// echoed reads the saved report back from the server answer. Answers that
// are not a report (a status string) keep the submitted value.
func (s *ReportsService) echoed(raw json.RawMessage, submitted models.ReportView) Result[models.ReportView] {
	view, _, err := normalize.Parse(raw)
	if err != nil {
		res := live(submitted)
		res.Message = statusText(raw)
		return res
	}
	return live(view)
}

// CheckSQLSyntax has no fallback. A rejected statement is reported in the
// result, not as an error.
func (s *ReportsService) CheckSQLSyntax(ctx context.Context, connectionID int, sql string) (*models.ProcessReportQuery, error) {
	res, err := s.api.CheckSQLSyntax(ctx, models.SQLCheckRequest{DatabaseConnectionID: connectionID, SQL: sql})
	if err != nil {
		return nil, unrecoverable("check sql syntax", err)
	}
	return res, nil
}

func (s *ReportsService) CheckValidPath(ctx context.Context, export models.Export) (*models.PathCheck, error) {
	if err := validate.Export(export); err != nil {
		return nil, err
	}
	res, err := s.api.CheckValidPath(ctx, export)
	if err != nil {
		return nil, unrecoverable("check export path", err)
	}
	return res, nil
}

// Reschedule is refused for suspended reports.
func (s *ReportsService) Reschedule(ctx context.Context, v models.ReportView) (string, error) {
	if v.IsSuspended() {
		return "", fmt.Errorf("report %d: %w", v.ID, ErrSuspended)
	}
	raw, err := s.api.RescheduleReport(ctx, v.Complex())
	if err != nil {
		return "", unrecoverable("reschedule report", err)
	}
	return statusText(raw), nil
}

func (s *ReportsService) ActiveSuspend(ctx context.Context, v models.ReportView, suspend bool) (string, error) {
	raw, err := s.api.ActiveSuspendReport(ctx, models.SuspendRequest{Report: v.Complex(), SuspendFlag: suspend})
	if err != nil {
		op := "activate report"
		if suspend {
			op = "suspend report"
		}
		return "", unrecoverable(op, err)
	}
	return statusText(raw), nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
