package api

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/guregu/null/v5"

	"github.com/reportconsole/internal/fallback"
	"github.com/reportconsole/internal/listing"
	"github.com/reportconsole/internal/models"
)

var (
	errNotFound  = errors.New("not found")
	errSuspended = errors.New("report is suspended")
)

var accessLevels = []models.UserAccess{
	{ID: 1, Description: "Administrator"},
	{ID: 2, Description: "Developer"},
	{ID: 3, Description: "Standard"},
}

var timeZones = []models.TimeZoneOffset{
	{ID: 1, Code: "EST", Name: "Eastern Standard Time", StdOffset: -5, DaylightOffset: -4},
	{ID: 2, Code: "CST", Name: "Central Standard Time", StdOffset: -6, DaylightOffset: -5},
	{ID: 3, Code: "MST", Name: "Mountain Standard Time", StdOffset: -7, DaylightOffset: -6},
	{ID: 4, Code: "PST", Name: "Pacific Standard Time", StdOffset: -8, DaylightOffset: -7},
}

// Store is the dev server's in-memory backend, seeded from the bundled samples.
type Store struct {
	mu        sync.RWMutex
	reports   []models.ReportComplex
	users     []models.UserComplex
	depts     []models.Department
	databases []models.DatabaseConnection
	now       func() time.Time
}

func NewStore(assets *fallback.Assets) (*Store, error) {
	reports, err := assets.Reports()
	if err != nil {
		return nil, err
	}
	users, err := assets.Users()
	if err != nil {
		return nil, err
	}
	dbs, err := assets.Databases()
	if err != nil {
		return nil, err
	}
	return &Store{
		reports:   reports.Reports,
		users:     users.Users,
		depts:     users.Departments,
		databases: dbs,
		now:       time.Now,
	}, nil
}

func (s *Store) setupLocked() models.Setup {
	setup := models.Setup{
		Users:              make([]models.UserItem, 0, len(s.users)),
		Departments:        append([]models.Department{}, s.depts...),
		DatabaseConnection: append([]models.DatabaseConnection{}, s.databases...),
	}
	for _, u := range s.users {
		setup.Users = append(setup.Users, u.User)
	}
	return setup
}

func (s *Store) Setup() models.Setup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setupLocked()
}

func (s *Store) Reports(q models.ReportQueryOptions) models.ReportList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setup := s.setupLocked()
	list := models.ReportList{
		Reports:            append([]models.ReportComplex{}, s.reports...),
		Departments:        setup.Departments,
		Users:              setup.Users,
		DatabaseConnection: setup.DatabaseConnection,
	}
	return listing.Apply(list, q)
}

func (s *Store) findReport(id int) int {
	for i, r := range s.reports {
		if r.Report.ID == id {
			return i
		}
	}
	return -1
}

// Report answers in the nested edit shape, with the lookups of the edit form.
func (s *Store) Report(id int) (models.ReportEdit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.findReport(id)
	if i < 0 {
		return models.ReportEdit{}, fmt.Errorf("report %d: %w", id, errNotFound)
	}
	setup := s.setupLocked()
	r := s.reports[i]
	var owner *models.UserItem
	for _, u := range setup.Users {
		if u.ID == r.Report.UserID {
			u := u
			owner = &u
		}
	}
	return models.ReportEdit{
		Report:                    r,
		FileExtensions:            fileExtensions,
		Delimiters:                delimiters,
		TimeZoneOffsets:           timeZones,
		CurrentUser:               owner,
		DatabaseConnectionsImport: setup.DatabaseConnection,
		DatabaseConnectionsExport: setup.DatabaseConnection,
		Users:                     setup.Users,
		Departments:               setup.Departments,
		Logs:                      []models.Log{},
	}, nil
}

// CreateReport stores r under the next id as scheduled.
func (s *Store) CreateReport(r models.ReportComplex) models.ReportComplex {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := models.ReportList{Reports: s.reports}
	r.Report.ID = list.NextID()
	r.Report.StatusID = null.IntFrom(models.StatusScheduled)
	r.Report.LastUpdate = null.StringFrom(models.FormatTimestamp(s.now()))
	r.Status = &models.Status{ID: models.StatusScheduled, Description: null.StringFrom(models.StatusLabel(models.StatusScheduled))}
	r = settle(r)
	s.reports = append([]models.ReportComplex{r}, s.reports...)
	return r
}

func (s *Store) SaveReport(r models.ReportComplex) (models.ReportComplex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReport(r.Report.ID)
	if i < 0 {
		return models.ReportComplex{}, fmt.Errorf("report %d: %w", r.Report.ID, errNotFound)
	}
	r.Report.LastUpdate = null.StringFrom(models.FormatTimestamp(s.now()))
	r = settle(r)
	s.reports[i] = r
	return r, nil
}

// settle drops the children queued for deletion and numbers new ones.
func settle(r models.ReportComplex) models.ReportComplex {
	r.ExportsToBeDeleted = nil
	r.SheetsToBeDeleted = nil
	r.EmailListsToBeDeleted = nil
	next := 1
	for _, e := range r.Exports {
		next = max(next, e.Export.ID+1)
	}
	for i := range r.Exports {
		if r.Exports[i].Export.ID == 0 {
			r.Exports[i].Export.ID = next
			next++
		}
		r.Exports[i].Export.ReportID = null.IntFrom(int64(r.Report.ID))
	}
	next = 1
	for _, el := range r.EmailLists {
		next = max(next, el.ID+1)
	}
	for i := range r.EmailLists {
		if r.EmailLists[i].ID == 0 {
			r.EmailLists[i].ID = next
			next++
		}
		r.EmailLists[i].ReportID = r.Report.ID
	}
	return r
}

// Reschedule puts a report back in the queue.
func (s *Store) Reschedule(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReport(id)
	if i < 0 {
		return fmt.Errorf("report %d: %w", id, errNotFound)
	}
	r := &s.reports[i]
	if models.FromComplex(*r).IsSuspended() {
		return fmt.Errorf("report %d: %w", id, errSuspended)
	}
	setStatus(r, models.StatusScheduled)
	return nil
}

func (s *Store) SetSuspended(id int, suspend bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReport(id)
	if i < 0 {
		return fmt.Errorf("report %d: %w", id, errNotFound)
	}
	code := models.StatusScheduled
	if suspend {
		code = models.StatusSuspended
	}
	setStatus(&s.reports[i], code)
	return nil
}

func setStatus(r *models.ReportComplex, code int) {
	r.Report.StatusID = null.IntFrom(int64(code))
	r.Status = &models.Status{ID: code, Description: null.StringFrom(models.StatusLabel(code))}
	r.ReportStatus = nil
}

func (s *Store) Users() models.UserList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := append([]models.UserComplex{}, s.users...)
	sort.SliceStable(users, func(i, j int) bool { return users[i].User.ID < users[j].User.ID })
	return models.UserList{
		Users:             users,
		Departments:       append([]models.Department{}, s.depts...),
		HasUserEditAccess: true,
	}
}

func (s *Store) findUser(id int) int {
	for i, u := range s.users {
		if u.User.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) User(id int) (models.UserEdit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.findUser(id)
	if i < 0 {
		return models.UserEdit{}, fmt.Errorf("user %d: %w", id, errNotFound)
	}
	u := s.users[i]
	access := make([]models.DatabaseAccessComplex, 0, len(s.databases))
	for _, dc := range s.databases {
		dc := dc
		access = append(access, models.DatabaseAccessComplex{
			DatabaseConnection: &dc,
			DatabaseAccess:     &models.DatabaseAccess{UserID: id, ConnectionID: dc.ID, ImportAccess: true},
		})
	}
	return models.UserEdit{
		User:           u,
		DatabaseAccess: access,
		Departments:    append([]models.Department{}, s.depts...),
		UserAccess:     accessLevels,
		TimeZone:       timeZones,
	}, nil
}

func (s *Store) CreateUser(u models.UserComplex) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.User.ID = models.UserList{Users: s.users}.NextID()
	s.users = append(s.users, u)
	return u.User.ID
}

func (s *Store) UpdateUser(id int, u models.UserComplex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUser(id)
	if i < 0 {
		return fmt.Errorf("user %d: %w", id, errNotFound)
	}
	u.User.ID = id
	s.users[i] = u
	return nil
}

func (s *Store) DeleteUser(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUser(id)
	if i < 0 {
		return fmt.Errorf("user %d: %w", id, errNotFound)
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return nil
}

func (s *Store) Databases() []models.DatabaseConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DatabaseConnection{}, s.databases...)
}

func (s *Store) Connection(id int) (models.DatabaseConnection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dc := models.FindConnection(s.databases, id)
	if dc == nil {
		return models.DatabaseConnection{}, false
	}
	return *dc, true
}

// SaveDatabase updates the connection with the same id or adds a new one.
func (s *Store) SaveDatabase(dc models.DatabaseConnection) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dc.LastUpdate = null.StringFrom(models.FormatTimestamp(s.now()))
	if dc.ID != 0 {
		for i := range s.databases {
			if s.databases[i].ID == dc.ID {
				s.databases[i] = dc
				return "Updated"
			}
		}
	}
	dc.ID = models.NextConnectionID(s.databases)
	s.databases = append(s.databases, dc)
	return "Created"
}

var fileExtensions = []models.FileExtension{
	{ID: 1, Extension: null.StringFrom(".xlsx"), XLFormat: 51},
	{ID: 2, Extension: null.StringFrom(".csv"), XLFormat: 6},
	{ID: 3, Extension: null.StringFrom(".txt"), XLFormat: -4158},
}

var delimiters = []models.Delimiter{
	{ID: 1, Delimiter: null.StringFrom(",")},
	{ID: 2, Delimiter: null.StringFrom("|")},
	{ID: 3, Delimiter: null.StringFrom("\t")},
}
