package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reportconsole/internal/fallback"
	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/storage"
	"github.com/reportconsole/internal/validate"
)

type DatabasesAPI interface {
	GetDatabases(ctx context.Context) ([]models.DatabaseConnection, error)
	SaveDatabase(ctx context.Context, dc models.DatabaseConnection) (string, error)
}

type DatabasesService struct {
	base
	api  DatabasesAPI
	snap *fallback.Snapshot[[]models.DatabaseConnection]
}

func NewDatabasesService(api DatabasesAPI, store storage.Store, assets *fallback.Assets, opts ...Option) *DatabasesService {
	return &DatabasesService{
		base: newBase(opts),
		api:  api,
		snap: fallback.NewSnapshot(store, fallback.KeyDatabases, assets.Databases),
	}
}

func (s *DatabasesService) Databases(ctx context.Context) (Result[[]models.DatabaseConnection], error) {
	list, err := s.api.GetDatabases(ctx)
	if err == nil {
		return live(list), nil
	}
	if !s.unavailable(ctx, "getdatabases", err) {
		return Result[[]models.DatabaseConnection]{}, unrecoverable("load databases", err)
	}
	fb, _, lerr := s.snap.Load(ctx)
	if lerr != nil {
		s.log.Error("fallback database list unreadable", zap.Error(lerr))
		return degraded([]models.DatabaseConnection{}), nil
	}
	return degraded(fb), nil
}

// Database picks one connection out of the list; the backend has no
// single-connection route.
func (s *DatabasesService) Database(ctx context.Context, id int) (Result[models.DatabaseConnection], error) {
	list, err := s.Databases(ctx)
	if err != nil {
		return Result[models.DatabaseConnection]{}, err
	}
	dc := models.FindConnection(list.Value, id)
	if dc == nil {
		return Result[models.DatabaseConnection]{}, fmt.Errorf("database %d: %w", id, ErrNotFound)
	}
	return Result[models.DatabaseConnection]{Value: *dc, Source: list.Source}, nil
}

// SaveDatabase validates and saves dc. Offline, the snapshot entry with the
// same id is updated, otherwise dc is appended with the next free id.
func (s *DatabasesService) SaveDatabase(ctx context.Context, dc models.DatabaseConnection) (Result[models.DatabaseConnection], error) {
	if err := validate.Database(dc); err != nil {
		return Result[models.DatabaseConnection]{}, err
	}
	status, err := s.api.SaveDatabase(ctx, dc)
	if err == nil {
		res := live(dc)
		res.Message = status
		return res, nil
	}
	if !s.unavailable(ctx, "save database", err) {
		return Result[models.DatabaseConnection]{}, unrecoverable("save database", err)
	}

	saved := dc
	_, err = s.snap.Update(ctx, func(list *[]models.DatabaseConnection) error {
		if saved.ID != 0 {
			for i := range *list {
				if (*list)[i].ID == saved.ID {
					(*list)[i] = saved
					return nil
				}
			}
		} else {
			saved.ID = models.NextConnectionID(*list)
		}
		*list = append(*list, saved)
		return nil
	})
	if err != nil {
		return Result[models.DatabaseConnection]{}, unrecoverable("save database locally", err)
	}
	res := degraded(saved)
	res.LocalRef = s.savedOffline(ctx, "database", "save", saved.Name)
	return res, nil
}
