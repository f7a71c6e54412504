package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/reportconsole/internal/fallback"
	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/storage"
	"github.com/reportconsole/internal/validate"
)

type UsersAPI interface {
	GetUsers(ctx context.Context) (*models.UserList, error)
	GetUser(ctx context.Context, id int) (*models.UserEdit, error)
	CreateUser(ctx context.Context, edit models.UserEdit) (json.RawMessage, error)
	UpdateUser(ctx context.Context, id int, edit models.UserEdit) (json.RawMessage, error)
	DeleteUser(ctx context.Context, id int) (json.RawMessage, error)
}

type UsersService struct {
	base
	api  UsersAPI
	snap *fallback.Snapshot[models.UserList]
}

func NewUsersService(api UsersAPI, store storage.Store, assets *fallback.Assets, opts ...Option) *UsersService {
	return &UsersService{
		base: newBase(opts),
		api:  api,
		snap: fallback.NewSnapshot(store, fallback.KeyUsers, assets.Users),
	}
}

func (s *UsersService) Users(ctx context.Context) (Result[models.UserList], error) {
	list, err := s.api.GetUsers(ctx)
	if err == nil {
		return live(*list), nil
	}
	if !s.unavailable(ctx, "getusers", err) {
		return Result[models.UserList]{}, unrecoverable("load users", err)
	}
	fb, _, lerr := s.snap.Load(ctx)
	if lerr != nil {
		s.log.Error("fallback user list unreadable", zap.Error(lerr))
		return degraded(models.UserList{Users: []models.UserComplex{}, Departments: []models.Department{}}), nil
	}
	return degraded(fb), nil
}

// User loads the edit form of one user. The option lists always contain the
// user's current department, access level and time zone.
func (s *UsersService) User(ctx context.Context, id int) (Result[models.UserEdit], error) {
	edit, err := s.api.GetUser(ctx, id)
	if err == nil {
		edit.MergeMissingOptions()
		return live(*edit), nil
	}
	if !s.unavailable(ctx, "getuser", err) {
		return Result[models.UserEdit]{}, unrecoverable("load user", err)
	}

	list, _, err := s.snap.Load(ctx)
	if err != nil {
		return Result[models.UserEdit]{}, unrecoverable("load fallback users", err)
	}
	i := list.Find(id)
	if i < 0 {
		return Result[models.UserEdit]{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	fb := models.UserEdit{
		User:           list.Users[i],
		DatabaseAccess: []models.DatabaseAccessComplex{},
		Departments:    append([]models.Department(nil), list.Departments...),
		UserAccess:     []models.UserAccess{},
		TimeZone:       []models.TimeZoneOffset{},
	}
	fb.MergeMissingOptions()
	return degraded(fb), nil
}

// CreateUser validates and creates a user. Offline, the user is appended to
// the snapshot with the next free id.
func (s *UsersService) CreateUser(ctx context.Context, edit models.UserEdit) (Result[models.UserComplex], error) {
	if err := validate.User(edit.User.User); err != nil {
		return Result[models.UserComplex]{}, err
	}
	raw, err := s.api.CreateUser(ctx, edit)
	if err == nil {
		res := live(edit.User)
		res.Message = statusText(raw)
		return res, nil
	}
	if !s.unavailable(ctx, "create user", err) {
		return Result[models.UserComplex]{}, unrecoverable("create user", err)
	}

	saved := edit.User
	_, err = s.snap.Update(ctx, func(list *models.UserList) error {
		saved.User.ID = list.NextID()
		list.Users = append(list.Users, saved)
		return nil
	})
	if err != nil {
		return Result[models.UserComplex]{}, unrecoverable("save user locally", err)
	}
	res := degraded(saved)
	res.LocalRef = s.savedOffline(ctx, "user", "create", saved.User.FullName())
	return res, nil
}

// UpdateUser validates and updates user id. Offline, the snapshot entry with
// that id is replaced; it is appended only when absent, so repeated offline
// updates never duplicate the user.
func (s *UsersService) UpdateUser(ctx context.Context, id int, edit models.UserEdit) (Result[models.UserComplex], error) {
	edit.User.User.ID = id
	if err := validate.User(edit.User.User); err != nil {
		return Result[models.UserComplex]{}, err
	}
	raw, err := s.api.UpdateUser(ctx, id, edit)
	if err == nil {
		res := live(edit.User)
		res.Message = statusText(raw)
		return res, nil
	}
	if !s.unavailable(ctx, "update user", err) {
		return Result[models.UserComplex]{}, unrecoverable("update user", err)
	}

	saved := edit.User
	_, err = s.snap.Update(ctx, func(list *models.UserList) error {
		if i := list.Find(id); i >= 0 {
			list.Users[i] = saved
			return nil
		}
		list.Users = append(list.Users, saved)
		return nil
	})
	if err != nil {
		return Result[models.UserComplex]{}, unrecoverable("save user locally", err)
	}
	res := degraded(saved)
	res.LocalRef = s.savedOffline(ctx, "user", "update", saved.User.FullName())
	return res, nil
}

// DeleteUser removes user id. Offline, it is removed from the snapshot.
func (s *UsersService) DeleteUser(ctx context.Context, id int) (Result[int], error) {
	raw, err := s.api.DeleteUser(ctx, id)
	if err == nil {
		res := live(id)
		res.Message = statusText(raw)
		return res, nil
	}
	if !s.unavailable(ctx, "delete user", err) {
		return Result[int]{}, unrecoverable("delete user", err)
	}

	var name string
	_, err = s.snap.Update(ctx, func(list *models.UserList) error {
		i := list.Find(id)
		if i < 0 {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		name = list.Users[i].User.FullName()
		list.Users = append(list.Users[:i], list.Users[i+1:]...)
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return Result[int]{}, err
		}
		return Result[int]{}, unrecoverable("delete user locally", err)
	}
	res := degraded(id)
	res.LocalRef = s.savedOffline(ctx, "user", "delete", name)
	return res, nil
}
